package msgskema

import (
	"reflect"

	"github.com/reoring/msgskema/wire"
)

// Number is the set of Go numeric types schemas and codecs narrow between.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64
}

// Narrow converts v to T with Go's truncating conversion semantics: integers
// keep their low-order bits reinterpreted in T's signedness. Floats converted
// to an integer type truncate toward zero and saturate to the 64-bit range
// before the width truncation; NaN becomes 0.
func Narrow[T Number, S Number](v S) T {
	if isFloat[S]() && !isFloat[T]() {
		f := float64(v)
		if isUnsigned[T]() {
			return T(wire.Uint64FromFloat(f))
		}
		return T(wire.Int64FromFloat(f))
	}
	return T(v)
}

func isFloat[T Number]() bool {
	var x T = 1
	x /= 2
	return x != 0
}

func isUnsigned[T Number]() bool {
	var x T
	x--
	return x > 0
}

// NumberOf narrows any Go number (including named numeric types and pointers
// to them) to T. ok is false for non-numbers, nil pointers and bools.
func NumberOf[T Number](v any) (n T, ok bool) {
	switch x := v.(type) {
	case int:
		return T(x), true
	case int8:
		return T(x), true
	case int16:
		return T(x), true
	case int32:
		return T(x), true
	case int64:
		return T(x), true
	case uint:
		return T(x), true
	case uint8:
		return T(x), true
	case uint16:
		return T(x), true
	case uint32:
		return T(x), true
	case uint64:
		return T(x), true
	case float32:
		return Narrow[T](x), true
	case float64:
		return Narrow[T](x), true
	case Value:
		return ValueNumber[T](x)
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return n, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return T(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return T(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return Narrow[T](rv.Float()), true
	}
	return n, false
}

// ValueNumber narrows a numeric Value to T. ok is false for other kinds.
func ValueNumber[T Number](v Value) (n T, ok bool) {
	switch v.Kind() {
	case wire.KindInt:
		return T(v.Int64()), true
	case wire.KindUint:
		return T(v.Uint64()), true
	case wire.KindFloat32, wire.KindFloat64:
		return Narrow[T](v.Float64()), true
	}
	return n, false
}

// UnpackNumber reads the next number as T. nil yields the zero value.
func UnpackNumber[T Number](u Unpacker) (T, error) {
	var zero T
	k, err := u.PeekKind()
	if err != nil {
		return zero, err
	}
	switch k {
	case wire.KindNil:
		return zero, skipNil(u)
	case wire.KindInt:
		n, err := u.UnpackInt64()
		return T(n), err
	case wire.KindUint:
		n, err := u.UnpackUint64()
		return T(n), err
	case wire.KindFloat32, wire.KindFloat64:
		f, err := u.UnpackFloat64()
		return Narrow[T](f), err
	}
	v, err := u.UnpackValue()
	if err != nil {
		return zero, err
	}
	return zero, InvalidConvert(v, reflect.TypeFor[T]().String())
}

// UnpackString reads the next str or bin value. nil yields "".
func UnpackString(u Unpacker) (string, error) {
	if isNil, err := u.TryUnpackNil(); err != nil || isNil {
		return "", err
	}
	return u.UnpackString()
}

// UnpackBytes reads the next str or bin value. nil yields a nil slice.
func UnpackBytes(u Unpacker) ([]byte, error) {
	if isNil, err := u.TryUnpackNil(); err != nil || isNil {
		return nil, err
	}
	return u.UnpackBytes()
}

// UnpackBool reads the next bool. nil yields false.
func UnpackBool(u Unpacker) (bool, error) {
	if isNil, err := u.TryUnpackNil(); err != nil || isNil {
		return false, err
	}
	return u.UnpackBool()
}

func skipNil(u Unpacker) error {
	_, err := u.TryUnpackNil()
	return err
}
