package dsl

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	msgskema "github.com/reoring/msgskema"
)

// Of derives a schema tree from a Go type. Structs become records of their
// exported fields (named by msgskema.ResolveStructKey), pointers are
// transparent, int and uint map to long and ulong. time.Time and uuid.UUID
// map to Timestamp() and UUID().
func Of(t reflect.Type) (msgskema.Schema, error) {
	return of(t, map[reflect.Type]bool{})
}

// OfType is Of for a type parameter.
func OfType[T any]() (msgskema.Schema, error) { return Of(reflect.TypeFor[T]()) }

func of(t reflect.Type, visiting map[reflect.Type]bool) (msgskema.Schema, error) {
	if t == nil {
		return nil, fmt.Errorf("dsl: nil type")
	}
	switch t {
	case reflect.TypeFor[time.Time]():
		return Timestamp(), nil
	case reflect.TypeFor[uuid.UUID]():
		return UUID(), nil
	}
	switch t.Kind() {
	case reflect.Bool:
		return Bool(), nil
	case reflect.Int8:
		return Int8(), nil
	case reflect.Int16:
		return Int16(), nil
	case reflect.Int32:
		return Int32(), nil
	case reflect.Int, reflect.Int64:
		return Int64(), nil
	case reflect.Uint8:
		return Uint8(), nil
	case reflect.Uint16:
		return Uint16(), nil
	case reflect.Uint32:
		return Uint32(), nil
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return Uint64(), nil
	case reflect.Float32:
		return Float32(), nil
	case reflect.Float64:
		return Float64(), nil
	case reflect.String:
		return String(), nil
	case reflect.Pointer:
		return of(t.Elem(), visiting)
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return Raw(), nil
		}
		elem, err := of(t.Elem(), visiting)
		if err != nil {
			return nil, err
		}
		return Array(elem), nil
	case reflect.Map:
		k, err := of(t.Key(), visiting)
		if err != nil {
			return nil, err
		}
		v, err := of(t.Elem(), visiting)
		if err != nil {
			return nil, err
		}
		return Map(k, v), nil
	case reflect.Struct:
		if visiting[t] {
			return nil, fmt.Errorf("dsl: recursive type %s has no finite schema", t)
		}
		visiting[t] = true
		defer delete(visiting, t)
		fields := make([]Field, 0, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if !sf.IsExported() {
				continue
			}
			name := msgskema.ResolveStructKey(sf)
			if name == "-" {
				continue
			}
			fs, err := of(sf.Type, visiting)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", sf.Name, err)
			}
			fields = append(fields, F(name, fs))
		}
		name := t.Name()
		if name == "" {
			name = "anonymous"
		}
		return Record(name, fields...), nil
	}
	return nil, fmt.Errorf("dsl: no schema for %s (kind %s)", t, t.Kind())
}
