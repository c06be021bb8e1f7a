// Package msgskema provides schema-driven MessagePack serialization.
//
// The root package holds the public contracts:
//
//   - Schema: an immutable wire contract for one host type (see dsl/ for the
//     variants: numbers, bool, string, raw, array, map and record schemas).
//   - Template and Registry: type-bound codecs for atomic built-in types,
//     looked up by reflect.Type.
//   - A stable error model: TypeError, GenerationError and InstantiationError,
//     with messages provided by the i18n package.
//   - Number narrowing helpers shared by schemas, templates and codecs.
//
// Design policy:
//   - Keep only public APIs in the root package; put detailed implementations
//     under internal/.
//   - Place schema variants under dsl/, per-type codecs under codec/, the wire
//     primitives under wire/ and the CLI under cmd/msgskema.
//   - Types implementing Packable and Unpackable (for example the output of
//     "msgskema compile") are used as-is by the codec package.
//   - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	s := dsl.Map(dsl.String(), dsl.Int32())
//	data, err := msgskema.Encode(s, map[string]int{"a": 1})
//	v, err := msgskema.Decode(s, data) // map[any]any{"a": int32(1)}
//
//	data, err = codec.Marshal(user)
//	u, err := codec.UnmarshalAs[User](data)
package msgskema
