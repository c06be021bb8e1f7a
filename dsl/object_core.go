package dsl

import (
	"reflect"
	"strings"
	"sync"

	msgskema "github.com/reoring/msgskema"
	"github.com/reoring/msgskema/wire"
)

// Field is one named, ordered member of a record schema.
type Field struct {
	Name   string
	Schema msgskema.Schema
}

// F is shorthand for Field{Name: name, Schema: s}.
func F(name string, s msgskema.Schema) Field { return Field{Name: name, Schema: s} }

// RecordSchema describes a user-defined record carried as a positional
// array of its fields.
type RecordSchema interface {
	msgskema.Schema
	Fields() []Field
}

type recordSchema struct {
	name   string
	fields []Field
	index  map[string]int

	// struct type -> field index per record field (-1 when absent)
	layouts sync.Map
}

// Record builds a "(class <name> (field <n> <expr>)...)" schema. Field order
// defines the wire order.
func Record(name string, fields ...Field) RecordSchema {
	r := &recordSchema{name: name, fields: append([]Field(nil), fields...), index: make(map[string]int, len(fields))}
	for i, f := range r.fields {
		r.index[f.Name] = i
	}
	return r
}

func (s *recordSchema) Name() string    { return s.name }
func (s *recordSchema) Fields() []Field { return append([]Field(nil), s.fields...) }

func (s *recordSchema) Expression() string {
	var b strings.Builder
	b.WriteString("(class ")
	b.WriteString(s.name)
	for _, f := range s.fields {
		b.WriteString(" (field ")
		b.WriteString(f.Name)
		b.WriteByte(' ')
		b.WriteString(f.Schema.Expression())
		b.WriteByte(')')
	}
	b.WriteByte(')')
	return b.String()
}

// Pack accepts map[string]any (missing fields are nil), []any in field order,
// or a struct whose fields are matched by msgskema.ResolveStructKey.
func (s *recordSchema) Pack(p msgskema.Packer, v any) error {
	if msgskema.IsNil(v) {
		return p.PackNil()
	}
	switch x := v.(type) {
	case map[string]any:
		if err := p.PackArray(len(s.fields)); err != nil {
			return err
		}
		for _, f := range s.fields {
			if err := f.Schema.Pack(p, x[f.Name]); err != nil {
				return err
			}
		}
		return nil
	case []any:
		if len(x) != len(s.fields) {
			return msgskema.ArityError(s.Expression(), len(s.fields), len(x))
		}
		if err := p.PackArray(len(s.fields)); err != nil {
			return err
		}
		for i, f := range s.fields {
			if err := f.Schema.Pack(p, x[i]); err != nil {
				return err
			}
		}
		return nil
	}
	rv, ok := msgskema.Indirect(v)
	if !ok {
		return p.PackNil()
	}
	if rv.Kind() != reflect.Struct {
		return msgskema.InvalidConvert(v, s.Expression())
	}
	layout := s.layout(rv.Type())
	if err := p.PackArray(len(s.fields)); err != nil {
		return err
	}
	for i, f := range s.fields {
		var fv any
		if idx := layout[i]; idx >= 0 {
			fv = rv.Field(idx).Interface()
		}
		if err := f.Schema.Pack(p, fv); err != nil {
			return err
		}
	}
	return nil
}

func (s *recordSchema) layout(t reflect.Type) []int {
	if l, ok := s.layouts.Load(t); ok {
		return l.([]int)
	}
	l := make([]int, len(s.fields))
	for i := range l {
		l[i] = -1
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		key := msgskema.ResolveStructKey(sf)
		if j, ok := s.index[key]; ok {
			l[j] = i
		}
	}
	s.layouts.Store(t, l)
	return l
}

// Convert accepts an array of exactly len(Fields()) elements or a map keyed
// by field names, and returns map[string]any.
func (s *recordSchema) Convert(v msgskema.Value) (any, error) {
	switch v.Kind() {
	case wire.KindNil:
		return nil, nil
	case wire.KindArray:
		items := v.Items()
		if len(items) != len(s.fields) {
			return nil, msgskema.ArityError(s.Expression(), len(s.fields), len(items))
		}
		out := make(map[string]any, len(s.fields))
		for i, f := range s.fields {
			x, err := f.Schema.Convert(items[i])
			if err != nil {
				return nil, err
			}
			out[f.Name] = x
		}
		return out, nil
	case wire.KindMap:
		out := make(map[string]any, len(s.fields))
		for _, e := range v.Pairs() {
			if !e.Key.IsStr() {
				return nil, msgskema.InvalidConvert(e.Key, s.Expression())
			}
			i, ok := s.index[e.Key.Str()]
			if !ok {
				continue
			}
			x, err := s.fields[i].Schema.Convert(e.Value)
			if err != nil {
				return nil, err
			}
			out[s.fields[i].Name] = x
		}
		for _, f := range s.fields {
			if _, ok := out[f.Name]; !ok {
				out[f.Name] = nil
			}
		}
		return out, nil
	}
	return nil, msgskema.InvalidConvert(v, s.Expression())
}
