package dsl_test

import (
	"bytes"
	"errors"
	"math"
	"reflect"
	"testing"

	msgskema "github.com/reoring/msgskema"
	g "github.com/reoring/msgskema/dsl"
	"github.com/reoring/msgskema/wire"
)

func packBytes(t *testing.T, s msgskema.Schema, v any) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := s.Pack(wire.NewPacker(&buf), v); err != nil {
		t.Fatalf("pack %v under %s: %v", v, s.Expression(), err)
	}
	return buf.Bytes()
}

func convertBytes(t *testing.T, s msgskema.Schema, data []byte) any {
	t.Helper()
	v, err := msgskema.DecodeValue(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	out, err := s.Convert(v)
	if err != nil {
		t.Fatalf("convert under %s: %v", s.Expression(), err)
	}
	return out
}

func TestScalars_RoundTrip(t *testing.T) {
	cases := []struct {
		s  msgskema.Schema
		in any
	}{
		{g.Int8(), int8(-128)},
		{g.Int8(), int8(127)},
		{g.Int16(), int16(-32768)},
		{g.Int32(), int32(math.MaxInt32)},
		{g.Int64(), int64(math.MinInt64)},
		{g.Uint8(), uint8(255)},
		{g.Uint16(), uint16(65535)},
		{g.Uint32(), uint32(math.MaxUint32)},
		{g.Uint64(), uint64(math.MaxUint64)},
		{g.Float32(), float32(-1.25)},
		{g.Float64(), math.Pi},
		{g.Bool(), true},
		{g.String(), "msgpack"},
		{g.Raw(), []byte{0xde, 0xad}},
	}
	for _, tc := range cases {
		got := convertBytes(t, tc.s, packBytes(t, tc.s, tc.in))
		if !reflect.DeepEqual(got, tc.in) {
			t.Fatalf("%s: round trip %#v -> %#v", tc.s.Expression(), tc.in, got)
		}
	}
}

func TestInt8_NarrowingTruncates(t *testing.T) {
	s := g.Int8()
	cases := []struct {
		in   msgskema.Value
		want int8
	}{
		{wire.Int(300), 44},
		{wire.Int(-129), 127},
		{wire.Int(256), 0},
		{wire.Uint(math.MaxUint64), -1},
		{wire.Float64(300.9), 44},
		{wire.Float32(-1.5), -1},
	}
	for _, tc := range cases {
		got, err := s.Convert(tc.in)
		if err != nil {
			t.Fatalf("convert %s: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("convert %s: got %v, want %d", tc.in, got, tc.want)
		}
	}
}

func TestNumberSchemas_NarrowOnPack(t *testing.T) {
	got := convertBytes(t, g.Int8(), packBytes(t, g.Int8(), 300))
	if got != int8(44) {
		t.Fatalf("packing 300 under byte: got %v", got)
	}
	got = convertBytes(t, g.Uint16(), packBytes(t, g.Uint16(), -1))
	if got != uint16(65535) {
		t.Fatalf("packing -1 under ushort: got %v", got)
	}
}

func TestNumberSchemas_CreateFrom(t *testing.T) {
	s := g.Int8()
	checks := []struct {
		got  any
		want int8
	}{
		{s.CreateFromInt16(300), 44},
		{s.CreateFromInt32(-129), 127},
		{s.CreateFromInt64(1 << 40), 0},
		{s.CreateFromInt8(-5), -5},
		{s.CreateFromUint64(511), -1},
		{s.CreateFromFloat32(12.7), 12},
		{s.CreateFromFloat64(-300.2), -44},
	}
	for i, c := range checks {
		if c.got != c.want {
			t.Fatalf("check %d: got %v, want %d", i, c.got, c.want)
		}
	}
	if got := g.Float64().CreateFromInt64(3); got != float64(3) {
		t.Fatalf("double from long: got %#v", got)
	}
	if got := g.Int32().CreateFromFloat64(math.NaN()); got != int32(0) {
		t.Fatalf("NaN to int: got %#v", got)
	}
}

func TestAllSchemas_NilPacksNilMarker(t *testing.T) {
	var nilMap map[string]int
	var nilSlice []int
	var nilPtr *int
	schemas := []msgskema.Schema{
		g.Int8(), g.Int16(), g.Int32(), g.Int64(),
		g.Uint8(), g.Uint16(), g.Uint32(), g.Uint64(),
		g.Float32(), g.Float64(), g.Bool(), g.String(), g.Raw(),
		g.Timestamp(), g.UUID(),
		g.Array(g.Int32()),
		g.Map(g.String(), g.Int32()),
		g.Record("Point", g.F("x", g.Int32()), g.F("y", g.Int32())),
	}
	for _, s := range schemas {
		for _, in := range []any{nil, nilMap, nilSlice, nilPtr} {
			got := packBytes(t, s, in)
			if !bytes.Equal(got, []byte{0xc0}) {
				t.Fatalf("%s: nil input %T packed as % x", s.Expression(), in, got)
			}
		}
		if v, err := s.Convert(wire.Nil()); err != nil || v != nil {
			t.Fatalf("%s: nil value converted to %v, %v", s.Expression(), v, err)
		}
	}
}

func TestScalars_TypeMismatchWritesNothing(t *testing.T) {
	cases := []struct {
		s  msgskema.Schema
		in any
	}{
		{g.Int8(), "not-a-number"},
		{g.Float64(), true},
		{g.Bool(), 1},
		{g.String(), 3.5},
		{g.Raw(), 7},
		{g.Timestamp(), "2025-01-01"},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		err := tc.s.Pack(wire.NewPacker(&buf), tc.in)
		if !errors.Is(err, msgskema.ErrTypeConversion) {
			t.Fatalf("%s: expected type conversion error, got %v", tc.s.Expression(), err)
		}
		te, _ := msgskema.AsTypeError(err)
		if te.Target != tc.s.Expression() {
			t.Fatalf("error must name the schema %q, got %q", tc.s.Expression(), te.Target)
		}
		if buf.Len() != 0 {
			t.Fatalf("%s: rejected value wrote % x", tc.s.Expression(), buf.Bytes())
		}
	}
}

func TestScalars_ConvertMismatch(t *testing.T) {
	cases := []struct {
		s msgskema.Schema
		v msgskema.Value
	}{
		{g.Int32(), wire.String("1")},
		{g.Bool(), wire.Int(1)},
		{g.String(), wire.Array()},
		{g.Raw(), wire.Bool(false)},
	}
	for _, tc := range cases {
		if _, err := tc.s.Convert(tc.v); !errors.Is(err, msgskema.ErrTypeConversion) {
			t.Fatalf("%s: expected type conversion error for %s, got %v", tc.s.Expression(), tc.v, err)
		}
	}
}

type level int8

func TestScalars_NamedAndPointerInputs(t *testing.T) {
	l := level(3)
	got := convertBytes(t, g.Int8(), packBytes(t, g.Int8(), &l))
	if got != int8(3) {
		t.Fatalf("pointer to named int: got %v", got)
	}
	type name string
	got = convertBytes(t, g.String(), packBytes(t, g.String(), name("x")))
	if got != "x" {
		t.Fatalf("named string: got %v", got)
	}
}

func TestNames(t *testing.T) {
	cases := map[string]string{
		g.Int8().Name():                            "int8",
		g.Float64().Name():                         "float64",
		g.Array(g.String()).Name():                 "[]string",
		g.Map(g.String(), g.Int32()).Name():        "map[string]int32",
		g.Record("User", g.F("id", g.Int64())).Name(): "User",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("name: got %q, want %q", got, want)
		}
	}
}
