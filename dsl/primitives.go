package dsl

import (
	"reflect"

	msgskema "github.com/reoring/msgskema"
	"github.com/reoring/msgskema/wire"
)

// NumberSchema is a scalar numeric schema. Besides the Schema contract it
// narrows numbers of other widths into its own type.
type NumberSchema interface {
	msgskema.Schema
	msgskema.NumberCreator
}

type numberSchema[T msgskema.Number] struct {
	expr string
	pack func(p msgskema.Packer, v T) error
}

// Int8 returns the "byte" schema (int8 on the host).
func Int8() NumberSchema {
	return numberSchema[int8]{expr: "byte", pack: func(p msgskema.Packer, v int8) error { return p.PackInt8(v) }}
}

// Int16 returns the "short" schema.
func Int16() NumberSchema {
	return numberSchema[int16]{expr: "short", pack: func(p msgskema.Packer, v int16) error { return p.PackInt16(v) }}
}

// Int32 returns the "int" schema.
func Int32() NumberSchema {
	return numberSchema[int32]{expr: "int", pack: func(p msgskema.Packer, v int32) error { return p.PackInt32(v) }}
}

// Int64 returns the "long" schema.
func Int64() NumberSchema {
	return numberSchema[int64]{expr: "long", pack: func(p msgskema.Packer, v int64) error { return p.PackInt64(v) }}
}

func Uint8() NumberSchema {
	return numberSchema[uint8]{expr: "ubyte", pack: func(p msgskema.Packer, v uint8) error { return p.PackUint8(v) }}
}

func Uint16() NumberSchema {
	return numberSchema[uint16]{expr: "ushort", pack: func(p msgskema.Packer, v uint16) error { return p.PackUint16(v) }}
}

func Uint32() NumberSchema {
	return numberSchema[uint32]{expr: "uint", pack: func(p msgskema.Packer, v uint32) error { return p.PackUint32(v) }}
}

func Uint64() NumberSchema {
	return numberSchema[uint64]{expr: "ulong", pack: func(p msgskema.Packer, v uint64) error { return p.PackUint64(v) }}
}

// Float32 returns the "float" schema.
func Float32() NumberSchema {
	return numberSchema[float32]{expr: "float", pack: func(p msgskema.Packer, v float32) error { return p.PackFloat32(v) }}
}

// Float64 returns the "double" schema.
func Float64() NumberSchema {
	return numberSchema[float64]{expr: "double", pack: func(p msgskema.Packer, v float64) error { return p.PackFloat64(v) }}
}

func (s numberSchema[T]) Name() string       { return reflect.TypeFor[T]().String() }
func (s numberSchema[T]) Expression() string { return s.expr }

func (s numberSchema[T]) Pack(p msgskema.Packer, v any) error {
	if msgskema.IsNil(v) {
		return p.PackNil()
	}
	n, ok := msgskema.NumberOf[T](v)
	if !ok {
		return msgskema.InvalidConvert(v, s.expr)
	}
	return s.pack(p, n)
}

func (s numberSchema[T]) Convert(v msgskema.Value) (any, error) {
	if v.IsNil() {
		return nil, nil
	}
	n, ok := msgskema.ValueNumber[T](v)
	if !ok {
		return nil, msgskema.InvalidConvert(v, s.expr)
	}
	return n, nil
}

func (s numberSchema[T]) CreateFromInt8(v int8) any       { return msgskema.Narrow[T](v) }
func (s numberSchema[T]) CreateFromInt16(v int16) any     { return msgskema.Narrow[T](v) }
func (s numberSchema[T]) CreateFromInt32(v int32) any     { return msgskema.Narrow[T](v) }
func (s numberSchema[T]) CreateFromInt64(v int64) any     { return msgskema.Narrow[T](v) }
func (s numberSchema[T]) CreateFromUint64(v uint64) any   { return msgskema.Narrow[T](v) }
func (s numberSchema[T]) CreateFromFloat32(v float32) any { return msgskema.Narrow[T](v) }
func (s numberSchema[T]) CreateFromFloat64(v float64) any { return msgskema.Narrow[T](v) }

// ---- boolean ----

type boolSchema struct{}

// Bool returns the "boolean" schema.
func Bool() msgskema.Schema { return boolSchema{} }

func (boolSchema) Name() string       { return "bool" }
func (boolSchema) Expression() string { return "boolean" }

func (boolSchema) Pack(p msgskema.Packer, v any) error {
	if b, ok := v.(bool); ok {
		return p.PackBool(b)
	}
	rv, ok := msgskema.Indirect(v)
	if !ok {
		return p.PackNil()
	}
	if rv.Kind() == reflect.Bool {
		return p.PackBool(rv.Bool())
	}
	return msgskema.InvalidConvert(v, "boolean")
}

func (boolSchema) Convert(v msgskema.Value) (any, error) {
	switch v.Kind() {
	case wire.KindNil:
		return nil, nil
	case wire.KindBool:
		return v.Bool(), nil
	}
	return nil, msgskema.InvalidConvert(v, "boolean")
}

// ---- string ----

type stringSchema struct{}

// String returns the "string" schema. Packing accepts strings, named string
// types and []byte; converting accepts str and bin values.
func String() msgskema.Schema { return stringSchema{} }

func (stringSchema) Name() string       { return "string" }
func (stringSchema) Expression() string { return "string" }

func (stringSchema) Pack(p msgskema.Packer, v any) error {
	return msgskema.StringTemplate().Pack(p, v)
}

func (stringSchema) Convert(v msgskema.Value) (any, error) {
	switch v.Kind() {
	case wire.KindNil:
		return nil, nil
	case wire.KindRaw:
		return v.Str(), nil
	}
	return nil, msgskema.InvalidConvert(v, "string")
}

// ---- raw ----

type rawSchema struct{}

// Raw returns the "raw" schema carrying []byte as bin values. Packing
// accepts byte slices and byte arrays (named or not) and string kinds.
func Raw() msgskema.Schema { return rawSchema{} }

func (rawSchema) Name() string       { return "[]byte" }
func (rawSchema) Expression() string { return "raw" }

func (rawSchema) Pack(p msgskema.Packer, v any) error {
	switch x := v.(type) {
	case []byte:
		if x == nil {
			return p.PackNil()
		}
		return p.PackBytes(x)
	case string:
		return p.PackBytes([]byte(x))
	}
	rv, ok := msgskema.Indirect(v)
	if !ok {
		return p.PackNil()
	}
	switch rv.Kind() {
	case reflect.String:
		return p.PackBytes([]byte(rv.String()))
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			if rv.IsNil() {
				return p.PackNil()
			}
			return p.PackBytes(rv.Bytes())
		}
	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			for i := range b {
				b[i] = byte(rv.Index(i).Uint())
			}
			return p.PackBytes(b)
		}
	}
	return msgskema.InvalidConvert(v, "raw")
}

func (rawSchema) Convert(v msgskema.Value) (any, error) {
	switch v.Kind() {
	case wire.KindNil:
		return nil, nil
	case wire.KindRaw:
		return append([]byte(nil), v.Raw()...), nil
	}
	return nil, msgskema.InvalidConvert(v, "raw")
}
