package dsl

import (
	"fmt"

	msgskema "github.com/reoring/msgskema"
	"github.com/reoring/msgskema/i18n"
)

// ParseError reports a malformed schema expression.
type ParseError struct {
	Offset int // byte offset in the expression
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("dsl: %s at offset %d: %s", i18n.T("parse_error", nil), e.Offset, e.Msg)
}

// Resolver looks up named schemas referenced by an expression.
type Resolver func(name string) (msgskema.Schema, bool)

var scalars = map[string]func() msgskema.Schema{
	"byte":      func() msgskema.Schema { return Int8() },
	"short":     func() msgskema.Schema { return Int16() },
	"int":       func() msgskema.Schema { return Int32() },
	"long":      func() msgskema.Schema { return Int64() },
	"ubyte":     func() msgskema.Schema { return Uint8() },
	"ushort":    func() msgskema.Schema { return Uint16() },
	"uint":      func() msgskema.Schema { return Uint32() },
	"ulong":     func() msgskema.Schema { return Uint64() },
	"float":     func() msgskema.Schema { return Float32() },
	"double":    func() msgskema.Schema { return Float64() },
	"boolean":   Bool,
	"string":    String,
	"raw":       Raw,
	"timestamp": Timestamp,
	"uuid":      UUID,
}

// Parse builds a schema tree from its expression, e.g.
// "(map string (array int))". Parse(s.Expression()) reproduces s.
func Parse(expr string) (msgskema.Schema, error) { return ParseWith(expr, nil) }

// MustParse is Parse that panics on error.
func MustParse(expr string) msgskema.Schema {
	s, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return s
}

// ParseWith is Parse with a resolver for names that are not built-in
// scalars.
func ParseWith(expr string, resolve Resolver) (msgskema.Schema, error) {
	p := &parser{src: expr, resolve: resolve}
	s, err := p.schema()
	if err != nil {
		return nil, err
	}
	if tok := p.next(); tok.kind != tokEOF {
		return nil, p.errorf(tok.off, "unexpected %q after expression", tok.text)
	}
	return s, nil
}

type tokKind int

const (
	tokEOF tokKind = iota
	tokOpen
	tokClose
	tokAtom
)

type token struct {
	kind tokKind
	text string
	off  int
}

type parser struct {
	src     string
	pos     int
	resolve Resolver
	peeked  *token
}

func (p *parser) next() token {
	if p.peeked != nil {
		t := *p.peeked
		p.peeked = nil
		return t
	}
	for p.pos < len(p.src) && isSpace(p.src[p.pos]) {
		p.pos++
	}
	if p.pos >= len(p.src) {
		return token{kind: tokEOF, off: p.pos}
	}
	start := p.pos
	switch p.src[p.pos] {
	case '(':
		p.pos++
		return token{kind: tokOpen, text: "(", off: start}
	case ')':
		p.pos++
		return token{kind: tokClose, text: ")", off: start}
	}
	for p.pos < len(p.src) && !isSpace(p.src[p.pos]) && p.src[p.pos] != '(' && p.src[p.pos] != ')' {
		p.pos++
	}
	return token{kind: tokAtom, text: p.src[start:p.pos], off: start}
}

func (p *parser) peek() token {
	if p.peeked == nil {
		t := p.next()
		p.peeked = &t
	}
	return *p.peeked
}

func (p *parser) errorf(off int, format string, a ...any) error {
	return &ParseError{Offset: off, Msg: fmt.Sprintf(format, a...)}
}

func (p *parser) expect(kind tokKind, what string) (token, error) {
	t := p.next()
	if t.kind != kind {
		if t.kind == tokEOF {
			return t, p.errorf(t.off, "expected %s, got end of input", what)
		}
		return t, p.errorf(t.off, "expected %s, got %q", what, t.text)
	}
	return t, nil
}

func (p *parser) schema() (msgskema.Schema, error) {
	t := p.next()
	switch t.kind {
	case tokAtom:
		if mk, ok := scalars[t.text]; ok {
			return mk(), nil
		}
		if p.resolve != nil {
			if s, ok := p.resolve(t.text); ok {
				return s, nil
			}
		}
		return nil, p.errorf(t.off, "%s", i18n.T("unknown_schema", map[string]string{"target": t.text}))
	case tokOpen:
	case tokEOF:
		return nil, p.errorf(t.off, "unexpected end of input")
	default:
		return nil, p.errorf(t.off, "unexpected %q", t.text)
	}

	head, err := p.expect(tokAtom, "schema constructor")
	if err != nil {
		return nil, err
	}
	var s msgskema.Schema
	switch head.text {
	case "array":
		elem, err := p.schema()
		if err != nil {
			return nil, err
		}
		s = Array(elem)
	case "map":
		key, err := p.schema()
		if err != nil {
			return nil, err
		}
		val, err := p.schema()
		if err != nil {
			return nil, err
		}
		s = Map(key, val)
	case "class":
		name, err := p.expect(tokAtom, "class name")
		if err != nil {
			return nil, err
		}
		var fields []Field
		for p.peek().kind == tokOpen {
			f, err := p.field()
			if err != nil {
				return nil, err
			}
			fields = append(fields, f)
		}
		s = Record(name.text, fields...)
	default:
		return nil, p.errorf(head.off, "unknown constructor %q", head.text)
	}
	if _, err := p.expect(tokClose, "')'"); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *parser) field() (Field, error) {
	if _, err := p.expect(tokOpen, "'('"); err != nil {
		return Field{}, err
	}
	kw, err := p.expect(tokAtom, "'field'")
	if err != nil {
		return Field{}, err
	}
	if kw.text != "field" {
		return Field{}, p.errorf(kw.off, "expected 'field', got %q", kw.text)
	}
	name, err := p.expect(tokAtom, "field name")
	if err != nil {
		return Field{}, err
	}
	s, err := p.schema()
	if err != nil {
		return Field{}, err
	}
	if _, err := p.expect(tokClose, "')'"); err != nil {
		return Field{}, err
	}
	return Field{Name: name.text, Schema: s}, nil
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
