package ir

// Package ir defines the record layout model used by the code generator.
// This package is internal and not part of the public API.

import (
	"strings"
)

// NodeKind identifies an IR node type.
type NodeKind int

const (
	NodePrimitive NodeKind = iota
	NodeArray
	NodeMap
	NodeObject
	NodeRef
)

// Schema is the root IR node interface.
type Schema interface {
	Kind() NodeKind
	// Expression renders the node in schema expression syntax.
	Expression() string
}

// Primitive is a scalar with a fixed wire form.
type Primitive struct {
	GoType string // Go spelling, e.g. "int32", "[]byte", "time.Time"
	Expr   string // schema expression name, e.g. "int", "raw", "timestamp"
}

func (p *Primitive) Kind() NodeKind     { return NodePrimitive }
func (p *Primitive) Expression() string { return p.Expr }

// Array is a homogeneous sequence.
type Array struct {
	Item Schema
}

func (a *Array) Kind() NodeKind     { return NodeArray }
func (a *Array) Expression() string { return "(array " + a.Item.Expression() + ")" }

// Map is a homogeneous key/value map.
type Map struct {
	Key   Schema
	Value Schema
}

func (m *Map) Kind() NodeKind { return NodeMap }
func (m *Map) Expression() string {
	return "(map " + m.Key.Expression() + " " + m.Value.Expression() + ")"
}

// Object is a record: fields travel as a positional array.
type Object struct {
	Name   string
	Fields []Field
}

func (o *Object) Kind() NodeKind { return NodeObject }

func (o *Object) Expression() string {
	var b strings.Builder
	b.WriteString("(class ")
	b.WriteString(o.Name)
	for _, f := range o.Fields {
		b.WriteString(" (field ")
		b.WriteString(f.WireName)
		b.WriteByte(' ')
		b.WriteString(f.Schema.Expression())
		b.WriteByte(')')
	}
	b.WriteByte(')')
	return b.String()
}

// Field is one position of an Object.
type Field struct {
	GoName   string // struct field name
	WireName string // msgpack tag name or GoName
	GoType   string // Go spelling of the field type
	Schema   Schema
}

// Ref names a type the generator does not expand, typically another record
// resolved through a catalog.
type Ref struct {
	Name string
}

func (r *Ref) Kind() NodeKind     { return NodeRef }
func (r *Ref) Expression() string { return r.Name }

var primitives = map[string]string{
	"bool":      "boolean",
	"int8":      "byte",
	"int16":     "short",
	"int32":     "int",
	"rune":      "int",
	"int64":     "long",
	"int":       "long",
	"uint8":     "ubyte",
	"byte":      "ubyte",
	"uint16":    "ushort",
	"uint32":    "uint",
	"uint64":    "ulong",
	"uint":      "ulong",
	"float32":   "float",
	"float64":   "double",
	"string":    "string",
	"[]byte":    "raw",
	"[]uint8":   "raw",
	"time.Time": "timestamp",
	"uuid.UUID": "uuid",
}

// PrimitiveFor returns the primitive node for a Go type spelling.
func PrimitiveFor(goType string) (*Primitive, bool) {
	expr, ok := primitives[goType]
	if !ok {
		return nil, false
	}
	return &Primitive{GoType: goType, Expr: expr}, true
}
