package dsl

import (
	msgskema "github.com/reoring/msgskema"
)

// templateSchema adapts a registered Template to the Schema contract so
// built-in atomic types can appear inside schema trees.
type templateSchema struct {
	expr string
	name string
	tpl  msgskema.Template
}

// FromTemplate wraps tpl as a scalar schema with the given expression and
// host type name.
func FromTemplate(expr, name string, tpl msgskema.Template) msgskema.Schema {
	return templateSchema{expr: expr, name: name, tpl: tpl}
}

// Timestamp returns the "timestamp" schema: time.Time carried as an RFC3339
// str value.
func Timestamp() msgskema.Schema {
	return FromTemplate("timestamp", "time.Time", msgskema.TimeRFC3339())
}

// UUID returns the "uuid" schema: uuid.UUID carried as 16 bytes of bin.
func UUID() msgskema.Schema {
	return FromTemplate("uuid", "uuid.UUID", msgskema.UUIDTemplate())
}

func (s templateSchema) Name() string       { return s.name }
func (s templateSchema) Expression() string { return s.expr }

func (s templateSchema) Pack(p msgskema.Packer, v any) error {
	if msgskema.IsNil(v) {
		return p.PackNil()
	}
	err := s.tpl.Pack(p, v)
	if te, ok := msgskema.AsTypeError(err); ok && te.Target != s.expr {
		return &msgskema.TypeError{Code: te.Code, Value: te.Value, Target: s.expr, Hint: te.Hint}
	}
	return err
}

func (s templateSchema) Convert(v msgskema.Value) (any, error) {
	x, err := s.tpl.Convert(v)
	if te, ok := msgskema.AsTypeError(err); ok && te.Target != s.expr {
		return nil, &msgskema.TypeError{Code: te.Code, Value: te.Value, Target: s.expr, Hint: te.Hint}
	}
	return x, err
}
