// Package dsl provides the schema tree for msgskema.
//
// Overview
//   - Scalars: Int8()/Int16()/Int32()/Int64() ("byte"/"short"/"int"/"long"),
//     Uint8()..Uint64() ("ubyte".."ulong"), Float32()/Float64()
//     ("float"/"double"), Bool() ("boolean"), String() and Raw().
//   - Composites: Array(elem), Map(key, value), Record(name, fields...).
//   - Expressions: every schema describes itself ("(map string int)");
//     Parse/ParseWith rebuild a tree from such an expression.
//   - Catalogs: LoadCatalog reads named expressions from YAML in declaration
//     order.
//   - Derivation: Of(reflect.Type) builds a tree from a Go type.
//
// Contract
//   - Pack writes nil for nil input in every variant.
//   - Numeric schemas narrow with Go's truncating conversions (300 under
//     "byte" converts to 44).
//   - Mismatched input fails with a *msgskema.TypeError naming the value and
//     the schema expression. Scalar schemas write nothing when they reject a
//     value; use msgskema.Encode to get the same guarantee for composites.
//   - Composite schemas return their children's errors unchanged.
//
// File layout (roles)
//   - primitives.go: numeric, boolean, string and raw schemas.
//   - array.go / map_core.go / object_core.go: composite schemas.
//   - parse.go: expression parser. catalog.go: YAML catalogs.
//   - of_helpers.go: schema derivation from Go types.
//
// Example
//
//	s := dsl.Map(dsl.String(), dsl.Int32())
//	data, _ := msgskema.Encode(s, msgskema.PairsOf("a", 1, "b", 2))
//	v, _ := msgskema.Decode(s, data) // map[any]any{"a": int32(1), "b": int32(2)}
package dsl
