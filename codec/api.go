package codec

import (
	"bytes"
	"reflect"

	msgskema "github.com/reoring/msgskema"
	"github.com/reoring/msgskema/wire"
)

// Pack writes v according to its dynamic type: registered templates,
// Packable implementations, structs as records, slices and arrays as
// arrays, maps as maps. A nil v writes the nil marker.
func (g *Generator) Pack(p msgskema.Packer, v any) error {
	if msgskema.IsNil(v) {
		return p.PackNil()
	}
	rv := reflect.ValueOf(v)
	t := rv.Type()
	if t.Kind() == reflect.Pointer {
		op, err := g.opFor(t.Elem())
		if err != nil {
			return err
		}
		return op.pack(p, rv.UnsafePointer())
	}
	op, err := g.opFor(t)
	if err != nil {
		return err
	}
	tmp := reflect.New(t)
	tmp.Elem().Set(rv)
	return op.pack(p, tmp.UnsafePointer())
}

// Unpack reads the next value into ptr, which must be a non-nil pointer.
func (g *Generator) Unpack(u msgskema.Unpacker, ptr any) error {
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return &msgskema.TypeError{Code: msgskema.CodeInvalidConvert, Value: ptr, Target: "pointer", Hint: errNilTarget.Error()}
	}
	op, err := g.opFor(rv.Type().Elem())
	if err != nil {
		return err
	}
	return op.unpack(u, rv.UnsafePointer())
}

// Convert stores the decoded value v into ptr.
func (g *Generator) Convert(v msgskema.Value, ptr any) error {
	u, err := reencode(v)
	if err != nil {
		return err
	}
	return g.Unpack(u, ptr)
}

// Marshal returns the encoding of v. Nothing is returned on error.
func (g *Generator) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := g.Pack(wire.NewPacker(&buf), v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes data into ptr.
func (g *Generator) Unmarshal(data []byte, ptr any, opts ...wire.Option) error {
	return g.Unpack(wire.NewUnpackerBytes(data, opts...), ptr)
}

var defaultGenerator = New()

// Default returns the process-wide generator backed by
// msgskema.DefaultRegistry().
func Default() *Generator { return defaultGenerator }

// GetOrGenerate returns the codec for t from the default generator.
func GetOrGenerate(t reflect.Type) (Codec, error) { return defaultGenerator.GetOrGenerate(t) }

// For returns the codec for T from the default generator.
func For[T any]() (Codec, error) { return defaultGenerator.GetOrGenerate(reflect.TypeFor[T]()) }

// Pack writes v with the default generator.
func Pack(p msgskema.Packer, v any) error { return defaultGenerator.Pack(p, v) }

// Unpack reads into ptr with the default generator.
func Unpack(u msgskema.Unpacker, ptr any) error { return defaultGenerator.Unpack(u, ptr) }

// Convert stores v into ptr with the default generator.
func Convert(v msgskema.Value, ptr any) error { return defaultGenerator.Convert(v, ptr) }

// Marshal encodes v with the default generator.
func Marshal(v any) ([]byte, error) { return defaultGenerator.Marshal(v) }

// Unmarshal decodes data into ptr with the default generator.
func Unmarshal(data []byte, ptr any, opts ...wire.Option) error {
	return defaultGenerator.Unmarshal(data, ptr, opts...)
}

// UnmarshalAs decodes data into a new T.
func UnmarshalAs[T any](data []byte, opts ...wire.Option) (T, error) {
	var out T
	err := defaultGenerator.Unmarshal(data, &out, opts...)
	return out, err
}
