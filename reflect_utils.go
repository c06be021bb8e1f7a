package msgskema

import (
	"reflect"
	"strings"
)

// ResolveStructKey applies the repository-wide rule to resolve a struct field's
// name on the wire and in record schemas.
// Priority: msgpack tag name > field name; "-" disables the field.
func ResolveStructKey(sf reflect.StructField) string {
	if mt, ok := sf.Tag.Lookup("msgpack"); ok {
		if mt == "-" {
			return "-"
		}
		if i := strings.IndexByte(mt, ','); i >= 0 {
			mt = mt[:i]
		}
		if mt != "" {
			return mt
		}
	}
	return sf.Name
}

// IsNil reports whether v is nil or a nil pointer, map, slice, interface,
// channel or func.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}
	return false
}

// Indirect follows pointers until a non-pointer value. ok is false if a nil
// pointer is reached.
func Indirect(v any) (rv reflect.Value, ok bool) {
	rv = reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return rv, false
		}
		rv = rv.Elem()
	}
	return rv, rv.IsValid()
}

// TypeOf returns the reflect.Type of T, including interface types.
func TypeOf[T any]() reflect.Type { return reflect.TypeFor[T]() }
