package wire

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the category of a decoded Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat32
	KindFloat64
	KindRaw
	KindArray
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindRaw:
		return "raw"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a dynamically typed value read from the wire. The zero Value is nil.
//
// Integers that fit in int64 decode as KindInt; only values above
// math.MaxInt64 decode as KindUint.
type Value struct {
	kind  Kind
	str   bool // raw payload was encoded as str rather than bin
	b     bool
	i     int64
	u     uint64
	f     float64
	raw   []byte
	items []Value
	pairs []Entry
}

// Entry is one key/value pair of a map Value, in wire order.
type Entry struct {
	Key   Value
	Value Value
}

func Nil() Value { return Value{} }
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func Int(i int64) Value { return Value{kind: KindInt, i: i} }
func Float32(f float32) Value { return Value{kind: KindFloat32, f: float64(f)} }
func Float64(f float64) Value { return Value{kind: KindFloat64, f: f} }

// Uint returns an unsigned integer Value. Values that fit in int64 are
// normalized to KindInt so equal integers compare equal.
func Uint(u uint64) Value {
	if u <= math.MaxInt64 {
		return Int(int64(u))
	}
	return Value{kind: KindUint, u: u}
}

// String returns a raw Value flagged as a str on the wire.
func String(s string) Value { return Value{kind: KindRaw, str: true, raw: []byte(s)} }

// Bytes returns a raw Value flagged as bin on the wire.
func Bytes(b []byte) Value { return Value{kind: KindRaw, raw: b} }

func Array(items ...Value) Value { return Value{kind: KindArray, items: items} }
func Map(pairs ...Entry) Value { return Value{kind: KindMap, pairs: pairs} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNil() bool { return v.kind == KindNil }
func (v Value) IsStr() bool { return v.kind == KindRaw && v.str }
func (v Value) Bool() bool { return v.b }
func (v Value) Raw() []byte { return v.raw }
func (v Value) Str() string { return string(v.raw) }
func (v Value) Items() []Value { return v.items }
func (v Value) Pairs() []Entry { return v.pairs }

// IsNumber reports whether v holds an integer or floating point number.
func (v Value) IsNumber() bool {
	switch v.kind {
	case KindInt, KindUint, KindFloat32, KindFloat64:
		return true
	}
	return false
}

// Int64 returns the numeric payload as int64. Unsigned values wrap, floats
// truncate toward zero and saturate.
func (v Value) Int64() int64 {
	switch v.kind {
	case KindInt:
		return v.i
	case KindUint:
		return int64(v.u)
	case KindFloat32, KindFloat64:
		return Int64FromFloat(v.f)
	}
	return 0
}

// Uint64 returns the numeric payload as uint64 with the same rules as Int64.
func (v Value) Uint64() uint64 {
	switch v.kind {
	case KindInt:
		return uint64(v.i)
	case KindUint:
		return v.u
	case KindFloat32, KindFloat64:
		return Uint64FromFloat(v.f)
	}
	return 0
}

func (v Value) Float64() float64 {
	switch v.kind {
	case KindInt:
		return float64(v.i)
	case KindUint:
		return float64(v.u)
	case KindFloat32, KindFloat64:
		return v.f
	}
	return 0
}

// Len returns the element count of arrays and maps and the byte length of raw
// values.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.items)
	case KindMap:
		return len(v.pairs)
	case KindRaw:
		return len(v.raw)
	}
	return 0
}

// Interface converts v to plain Go values: nil, bool, int64, uint64, float32,
// float64, string (str), []byte (bin), []any and map[any]any. Map keys that
// are not comparable are replaced by their textual form.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindUint:
		return v.u
	case KindFloat32:
		return float32(v.f)
	case KindFloat64:
		return v.f
	case KindRaw:
		if v.str {
			return string(v.raw)
		}
		return v.raw
	case KindArray:
		out := make([]any, len(v.items))
		for i, it := range v.items {
			out[i] = it.Interface()
		}
		return out
	case KindMap:
		out := make(map[any]any, len(v.pairs))
		for _, e := range v.pairs {
			var k any
			switch e.Key.kind {
			case KindArray, KindMap:
				k = e.Key.String()
			case KindRaw:
				k = string(e.Key.raw)
			default:
				k = e.Key.Interface()
			}
			out[k] = e.Value.Interface()
		}
		return out
	}
	return nil
}

// String renders v in a compact diagnostic notation.
func (v Value) String() string {
	var b strings.Builder
	v.format(&b)
	return b.String()
}

func (v Value) format(b *strings.Builder) {
	switch v.kind {
	case KindNil:
		b.WriteString("nil")
	case KindBool:
		b.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		b.WriteString(strconv.FormatInt(v.i, 10))
	case KindUint:
		b.WriteString(strconv.FormatUint(v.u, 10))
	case KindFloat32:
		b.WriteString(strconv.FormatFloat(v.f, 'g', -1, 32))
	case KindFloat64:
		b.WriteString(strconv.FormatFloat(v.f, 'g', -1, 64))
	case KindRaw:
		if v.str {
			b.WriteString(strconv.Quote(string(v.raw)))
		} else {
			fmt.Fprintf(b, "bin(%x)", v.raw)
		}
	case KindArray:
		b.WriteByte('[')
		for i, it := range v.items {
			if i > 0 {
				b.WriteString(", ")
			}
			it.format(b)
		}
		b.WriteByte(']')
	case KindMap:
		b.WriteByte('{')
		for i, e := range v.pairs {
			if i > 0 {
				b.WriteString(", ")
			}
			e.Key.format(b)
			b.WriteString(": ")
			e.Value.format(b)
		}
		b.WriteByte('}')
	}
}

// Equal reports whether a and b hold the same value. Map entries are compared
// in order; str and bin payloads with equal bytes are equal.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindUint:
		return a.u == b.u
	case KindFloat32, KindFloat64:
		return a.f == b.f || (math.IsNaN(a.f) && math.IsNaN(b.f))
	case KindRaw:
		return bytes.Equal(a.raw, b.raw)
	case KindArray:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.pairs) != len(b.pairs) {
			return false
		}
		for i := range a.pairs {
			if !Equal(a.pairs[i].Key, b.pairs[i].Key) || !Equal(a.pairs[i].Value, b.pairs[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

// Int64FromFloat truncates f toward zero, saturating at the int64 bounds.
// NaN converts to 0.
func Int64FromFloat(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

// Uint64FromFloat truncates f toward zero. Negative values wrap like their
// int64 counterpart; values beyond the uint64 range saturate.
func Uint64FromFloat(f float64) uint64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f < 0:
		return uint64(Int64FromFloat(f))
	case f >= math.MaxUint64:
		return math.MaxUint64
	}
	return uint64(f)
}
