package dsl

import (
	"reflect"

	msgskema "github.com/reoring/msgskema"
	"github.com/reoring/msgskema/wire"
)

// ArraySchema is a homogeneous sequence schema.
type ArraySchema interface {
	msgskema.Schema
	Elem() msgskema.Schema
}

type arraySchema struct {
	elem msgskema.Schema
}

// Array builds an "(array <elem>)" schema.
func Array(elem msgskema.Schema) ArraySchema { return &arraySchema{elem: elem} }

func (s *arraySchema) Elem() msgskema.Schema { return s.elem }
func (s *arraySchema) Name() string          { return "[]" + s.elem.Name() }
func (s *arraySchema) Expression() string    { return "(array " + s.elem.Expression() + ")" }

// Pack accepts []any and any Go slice or array.
func (s *arraySchema) Pack(p msgskema.Packer, v any) error {
	if msgskema.IsNil(v) {
		return p.PackNil()
	}
	if xs, ok := v.([]any); ok {
		if err := p.PackArray(len(xs)); err != nil {
			return err
		}
		for _, x := range xs {
			if err := s.elem.Pack(p, x); err != nil {
				return err
			}
		}
		return nil
	}
	rv, ok := msgskema.Indirect(v)
	if !ok {
		return p.PackNil()
	}
	if k := rv.Kind(); k != reflect.Slice && k != reflect.Array {
		return msgskema.InvalidConvert(v, s.Expression())
	}
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return p.PackNil()
	}
	n := rv.Len()
	if err := p.PackArray(n); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := s.elem.Pack(p, rv.Index(i).Interface()); err != nil {
			return err
		}
	}
	return nil
}

// Convert requires an array value and returns []any.
func (s *arraySchema) Convert(v msgskema.Value) (any, error) {
	switch v.Kind() {
	case wire.KindNil:
		return nil, nil
	case wire.KindArray:
	default:
		return nil, msgskema.InvalidConvert(v, s.Expression())
	}
	items := v.Items()
	out := make([]any, len(items))
	for i, it := range items {
		x, err := s.elem.Convert(it)
		if err != nil {
			return nil, err
		}
		out[i] = x
	}
	return out, nil
}
