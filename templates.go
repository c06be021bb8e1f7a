package msgskema

import (
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/reoring/msgskema/wire"
)

func newBuiltinRegistry() *Registry {
	r := NewRegistry()
	for t, tpl := range map[reflect.Type]Template{
		TypeOf[string]():    StringTemplate(),
		TypeOf[[]byte]():    BytesTemplate(),
		TypeOf[bool]():      BoolTemplate(),
		TypeOf[int]():       NumberTemplate[int](),
		TypeOf[int8]():      NumberTemplate[int8](),
		TypeOf[int16]():     NumberTemplate[int16](),
		TypeOf[int32]():     NumberTemplate[int32](),
		TypeOf[int64]():     NumberTemplate[int64](),
		TypeOf[uint]():      NumberTemplate[uint](),
		TypeOf[uint8]():     NumberTemplate[uint8](),
		TypeOf[uint16]():    NumberTemplate[uint16](),
		TypeOf[uint32]():    NumberTemplate[uint32](),
		TypeOf[uint64]():    NumberTemplate[uint64](),
		TypeOf[float32]():   NumberTemplate[float32](),
		TypeOf[float64]():   NumberTemplate[float64](),
		TypeOf[time.Time](): TimeRFC3339(),
		TypeOf[uuid.UUID](): UUIDTemplate(),
	} {
		_ = r.Register(t, tpl)
	}
	return r
}

// ---- string ----

type stringTemplate struct{}

var stringTpl Template = stringTemplate{}

// StringTemplate packs strings (and []byte) as str values.
func StringTemplate() Template { return stringTpl }

func (stringTemplate) Pack(p Packer, v any) error {
	switch x := v.(type) {
	case nil:
		return p.PackNil()
	case string:
		return p.PackString(x)
	case []byte:
		if x == nil {
			return p.PackNil()
		}
		return p.PackString(string(x))
	}
	if rv, ok := Indirect(v); !ok {
		return p.PackNil()
	} else if rv.Kind() == reflect.String {
		return p.PackString(rv.String())
	}
	return InvalidConvert(v, "string")
}

func (stringTemplate) Unpack(u Unpacker) (any, error) {
	if isNil, err := u.TryUnpackNil(); err != nil || isNil {
		return nil, err
	}
	return u.UnpackString()
}

func (stringTemplate) Convert(v Value) (any, error) {
	switch v.Kind() {
	case wire.KindNil:
		return nil, nil
	case wire.KindRaw:
		return v.Str(), nil
	}
	return nil, InvalidConvert(v, "string")
}

// ---- []byte ----

type bytesTemplate struct{}

// BytesTemplate packs []byte as bin values.
func BytesTemplate() Template { return bytesTemplate{} }

func (bytesTemplate) Pack(p Packer, v any) error {
	switch x := v.(type) {
	case nil:
		return p.PackNil()
	case []byte:
		return p.PackBytes(x)
	case string:
		return p.PackBytes([]byte(x))
	}
	return InvalidConvert(v, "[]byte")
}

func (bytesTemplate) Unpack(u Unpacker) (any, error) {
	if isNil, err := u.TryUnpackNil(); err != nil || isNil {
		return nil, err
	}
	return u.UnpackBytes()
}

func (bytesTemplate) Convert(v Value) (any, error) {
	switch v.Kind() {
	case wire.KindNil:
		return nil, nil
	case wire.KindRaw:
		return append([]byte(nil), v.Raw()...), nil
	}
	return nil, InvalidConvert(v, "[]byte")
}

// ---- bool ----

type boolTemplate struct{}

func BoolTemplate() Template { return boolTemplate{} }

func (boolTemplate) Pack(p Packer, v any) error {
	if b, ok := v.(bool); ok {
		return p.PackBool(b)
	}
	rv, ok := Indirect(v)
	if !ok {
		return p.PackNil()
	}
	if rv.Kind() == reflect.Bool {
		return p.PackBool(rv.Bool())
	}
	return InvalidConvert(v, "bool")
}

func (boolTemplate) Unpack(u Unpacker) (any, error) {
	if isNil, err := u.TryUnpackNil(); err != nil || isNil {
		return nil, err
	}
	return u.UnpackBool()
}

func (boolTemplate) Convert(v Value) (any, error) {
	switch v.Kind() {
	case wire.KindNil:
		return nil, nil
	case wire.KindBool:
		return v.Bool(), nil
	}
	return nil, InvalidConvert(v, "bool")
}

// ---- numbers ----

type numberTemplate[T Number] struct{ name string }

// NumberTemplate returns the template for T. Packing accepts any Go number
// and narrows it to T; unpacking accepts any numeric wire value.
func NumberTemplate[T Number]() Template {
	return numberTemplate[T]{name: reflect.TypeFor[T]().String()}
}

func (t numberTemplate[T]) Pack(p Packer, v any) error {
	if IsNil(v) {
		return p.PackNil()
	}
	n, ok := NumberOf[T](v)
	if !ok {
		return InvalidConvert(v, t.name)
	}
	switch {
	case isFloat[T]():
		if reflect.TypeFor[T]().Kind() == reflect.Float32 {
			return p.PackFloat32(float32(n))
		}
		return p.PackFloat64(float64(n))
	case isUnsigned[T]():
		return p.PackUint64(uint64(n))
	}
	return p.PackInt64(int64(n))
}

func (t numberTemplate[T]) Unpack(u Unpacker) (any, error) {
	if isNil, err := u.TryUnpackNil(); err != nil || isNil {
		return nil, err
	}
	return UnpackNumber[T](u)
}

func (t numberTemplate[T]) Convert(v Value) (any, error) {
	if v.IsNil() {
		return nil, nil
	}
	n, ok := ValueNumber[T](v)
	if !ok {
		return nil, InvalidConvert(v, t.name)
	}
	return n, nil
}

// ---- time.Time ----

type rfc3339Template struct{}

// TimeRFC3339 returns a Template that carries time.Time as an RFC3339 str.
func TimeRFC3339() Template { return rfc3339Template{} }

func (rfc3339Template) Pack(p Packer, v any) error {
	switch x := v.(type) {
	case nil:
		return p.PackNil()
	case time.Time:
		return p.PackString(formatRFC3339Canonical(x))
	case *time.Time:
		if x == nil {
			return p.PackNil()
		}
		return p.PackString(formatRFC3339Canonical(*x))
	}
	return InvalidConvert(v, "time.Time")
}

func (t rfc3339Template) Unpack(u Unpacker) (any, error) {
	v, err := u.UnpackValue()
	if err != nil {
		return nil, err
	}
	return t.Convert(v)
}

func (rfc3339Template) Convert(v Value) (any, error) {
	switch v.Kind() {
	case wire.KindNil:
		return nil, nil
	case wire.KindRaw:
		ts, err := parseRFC3339(v.Str())
		if err != nil {
			return nil, &TypeError{Code: CodeInvalidConvert, Value: v, Target: "time.Time", Hint: err.Error()}
		}
		return ts, nil
	}
	return nil, InvalidConvert(v, "time.Time")
}

func parseRFC3339(s string) (time.Time, error) {
	// Accept RFC3339Nano (trailing zeros optional)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2, nil
		}
		return time.Time{}, err
	}
	return t, nil
}

func formatRFC3339Canonical(t time.Time) string {
	// Normalize to UTC and format using RFC3339Nano (Go trims trailing zeros)
	return t.UTC().Format(time.RFC3339Nano)
}

// ---- uuid.UUID ----

type uuidTemplate struct{}

// UUIDTemplate carries uuid.UUID as a 16 byte bin value. Convert also accepts
// the canonical textual form.
func UUIDTemplate() Template { return uuidTemplate{} }

func (uuidTemplate) Pack(p Packer, v any) error {
	switch x := v.(type) {
	case nil:
		return p.PackNil()
	case uuid.UUID:
		return p.PackBytes(x[:])
	case *uuid.UUID:
		if x == nil {
			return p.PackNil()
		}
		return p.PackBytes(x[:])
	}
	return InvalidConvert(v, "uuid.UUID")
}

func (t uuidTemplate) Unpack(u Unpacker) (any, error) {
	v, err := u.UnpackValue()
	if err != nil {
		return nil, err
	}
	return t.Convert(v)
}

func (uuidTemplate) Convert(v Value) (any, error) {
	switch {
	case v.IsNil():
		return nil, nil
	case v.Kind() == wire.KindRaw && !v.IsStr() && v.Len() == 16:
		return uuid.FromBytes(v.Raw())
	case v.IsStr():
		id, err := uuid.ParseBytes(v.Raw())
		if err != nil {
			return nil, &TypeError{Code: CodeInvalidConvert, Value: v, Target: "uuid.UUID", Hint: err.Error()}
		}
		return id, nil
	}
	return nil, InvalidConvert(v, "uuid.UUID")
}
