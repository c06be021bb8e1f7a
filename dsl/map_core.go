package dsl

import (
	"reflect"

	msgskema "github.com/reoring/msgskema"
	"github.com/reoring/msgskema/wire"
)

// MapSchema maps keys of one schema to values of another.
type MapSchema interface {
	msgskema.Schema
	msgskema.MapCreator
	Key() msgskema.Schema
	Value() msgskema.Schema
}

type mapSchema struct {
	key msgskema.Schema
	val msgskema.Schema
}

// Map builds a "(map <key> <value>)" schema.
func Map(key, val msgskema.Schema) MapSchema { return &mapSchema{key: key, val: val} }

func (s *mapSchema) Key() msgskema.Schema   { return s.key }
func (s *mapSchema) Value() msgskema.Schema { return s.val }
func (s *mapSchema) Name() string           { return "map[" + s.key.Name() + "]" + s.val.Name() }
func (s *mapSchema) Expression() string {
	return "(map " + s.key.Expression() + " " + s.val.Expression() + ")"
}

// Pack writes the map header and then key/value pairs in the mapping's
// iteration order. msgskema.Pairs keeps its slice order; Go maps iterate in
// unspecified order.
func (s *mapSchema) Pack(p msgskema.Packer, v any) error {
	if msgskema.IsNil(v) {
		return p.PackNil()
	}
	switch m := v.(type) {
	case msgskema.Pairs:
		if err := p.PackMap(len(m)); err != nil {
			return err
		}
		for _, e := range m {
			if err := s.packEntry(p, e.Key, e.Value); err != nil {
				return err
			}
		}
		return nil
	case map[any]any:
		if err := p.PackMap(len(m)); err != nil {
			return err
		}
		for k, x := range m {
			if err := s.packEntry(p, k, x); err != nil {
				return err
			}
		}
		return nil
	case map[string]any:
		if err := p.PackMap(len(m)); err != nil {
			return err
		}
		for k, x := range m {
			if err := s.packEntry(p, k, x); err != nil {
				return err
			}
		}
		return nil
	}
	rv, ok := msgskema.Indirect(v)
	if !ok {
		return p.PackNil()
	}
	if rv.Kind() != reflect.Map {
		return msgskema.InvalidConvert(v, s.Expression())
	}
	if err := p.PackMap(rv.Len()); err != nil {
		return err
	}
	it := rv.MapRange()
	for it.Next() {
		if err := s.packEntry(p, it.Key().Interface(), it.Value().Interface()); err != nil {
			return err
		}
	}
	return nil
}

func (s *mapSchema) packEntry(p msgskema.Packer, k, v any) error {
	if err := s.key.Pack(p, k); err != nil {
		return err
	}
	return s.val.Pack(p, v)
}

// Convert requires a map value and returns a new map[any]any holding the
// converted keys and values.
func (s *mapSchema) Convert(v msgskema.Value) (any, error) {
	if v.IsNil() {
		return nil, nil
	}
	m, err := ConvertMap(v, s.key, s.val, nil)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ConvertMap converts every entry of the map value v with the key and value
// schemas and inserts it into dest, which is allocated with v's entry count
// when nil. It returns dest.
func ConvertMap(v msgskema.Value, key, val msgskema.Schema, dest map[any]any) (map[any]any, error) {
	if v.Kind() != wire.KindMap {
		return nil, msgskema.InvalidConvert(v, "(map "+key.Expression()+" "+val.Expression()+")")
	}
	pairs := v.Pairs()
	if dest == nil {
		dest = make(map[any]any, len(pairs))
	}
	for _, e := range pairs {
		k, err := key.Convert(e.Key)
		if err != nil {
			return nil, err
		}
		if !hashable(k) {
			return nil, &msgskema.TypeError{Code: msgskema.CodeUnhashableKey, Value: e.Key, Target: key.Expression()}
		}
		x, err := val.Convert(e.Value)
		if err != nil {
			return nil, err
		}
		dest[k] = x
	}
	return dest, nil
}

// CreateFromMap builds a map from alternating key, value elements. An odd
// element count is rejected.
func (s *mapSchema) CreateFromMap(flat []any) (any, error) {
	if len(flat)%2 != 0 {
		return nil, &msgskema.TypeError{
			Code:   msgskema.CodeOddPairs,
			Value:  len(flat),
			Target: s.Expression(),
		}
	}
	out := make(map[any]any, len(flat)/2)
	for i := 0; i < len(flat); i += 2 {
		if !hashable(flat[i]) {
			return nil, &msgskema.TypeError{Code: msgskema.CodeUnhashableKey, Value: flat[i], Target: s.key.Expression()}
		}
		out[flat[i]] = flat[i+1]
	}
	return out, nil
}

func hashable(k any) bool {
	if k == nil {
		return true
	}
	return reflect.ValueOf(k).Comparable()
}
