package dsl_test

import (
	"errors"
	"strings"
	"testing"

	msgskema "github.com/reoring/msgskema"
	g "github.com/reoring/msgskema/dsl"
)

func TestParse_ExpressionRoundTrip(t *testing.T) {
	schemas := []msgskema.Schema{
		g.Int8(), g.Uint64(), g.Float32(), g.Bool(), g.String(), g.Raw(),
		g.Timestamp(), g.UUID(),
		g.Array(g.Array(g.Int32())),
		g.Map(g.String(), g.Array(g.Float64())),
		g.Record("Order",
			g.F("id", g.Int64()),
			g.F("at", g.Timestamp()),
			g.F("lines", g.Array(g.Record("Line", g.F("sku", g.String()), g.F("qty", g.Uint16())))),
			g.F("meta", g.Map(g.String(), g.Raw())),
		),
		g.Record("Empty"),
	}
	for _, s := range schemas {
		got, err := g.Parse(s.Expression())
		if err != nil {
			t.Fatalf("parse %q: %v", s.Expression(), err)
		}
		if got.Expression() != s.Expression() {
			t.Fatalf("round trip: got %q, want %q", got.Expression(), s.Expression())
		}
		if got.Name() != s.Name() {
			t.Fatalf("name: got %q, want %q", got.Name(), s.Name())
		}
	}
}

func TestParse_Whitespace(t *testing.T) {
	s, err := g.Parse("  (map\n\tstring   (array  int) )  ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Expression() != "(map string (array int))" {
		t.Fatalf("unexpected expression %q", s.Expression())
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		expr string
		off  int
		msg  string
	}{
		{"", 0, "end of input"},
		{"(array", 6, "end of input"},
		{"(array int", 10, "')'"},
		{"(list int)", 1, "unknown constructor"},
		{"int extra", 4, "after expression"},
		{"(class P (value x int))", 10, "expected 'field'"},
		{"(map string)", 11, "unexpected"},
		{"widget", 0, "widget"},
		{")", 0, "unexpected"},
	}
	for _, tc := range cases {
		_, err := g.Parse(tc.expr)
		var pe *g.ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("%q: expected ParseError, got %v", tc.expr, err)
		}
		if pe.Offset != tc.off {
			t.Fatalf("%q: offset got %d, want %d (%v)", tc.expr, pe.Offset, tc.off, err)
		}
		if !strings.Contains(pe.Msg, tc.msg) {
			t.Fatalf("%q: message %q does not mention %q", tc.expr, pe.Msg, tc.msg)
		}
	}
}

func TestParseWith_Resolver(t *testing.T) {
	point := g.Record("Point", g.F("x", g.Int32()), g.F("y", g.Int32()))
	resolve := func(name string) (msgskema.Schema, bool) {
		if name == "point" {
			return point, true
		}
		return nil, false
	}
	s, err := g.ParseWith("(array point)", resolve)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Expression() != "(array "+point.Expression()+")" {
		t.Fatalf("unexpected expression %q", s.Expression())
	}
	if _, err := g.ParseWith("(array line)", resolve); err == nil {
		t.Fatalf("expected unresolved name to fail")
	}
}

func TestMustParse_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	g.MustParse("(array")
}
