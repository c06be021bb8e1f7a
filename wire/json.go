package wire

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	j "github.com/goccy/go-json"
)

// MarshalJSON renders v as JSON. bin payloads become base64 strings, map keys
// that are not str values are rendered through their JSON text, and
// non-finite floats become null.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v Value) error {
	switch v.kind {
	case KindNil:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindUint:
		buf.WriteString(strconv.FormatUint(v.u, 10))
	case KindFloat32, KindFloat64:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			buf.WriteString("null")
			return nil
		}
		bits := 64
		if v.kind == KindFloat32 {
			bits = 32
		}
		buf.WriteString(strconv.FormatFloat(v.f, 'g', -1, bits))
	case KindRaw:
		var (
			b   []byte
			err error
		)
		if v.str {
			b, err = j.Marshal(string(v.raw))
		} else {
			b, err = j.Marshal(v.raw)
		}
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindArray:
		buf.WriteByte('[')
		for i, it := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, it); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMap:
		buf.WriteByte('{')
		for i, e := range v.pairs {
			if i > 0 {
				buf.WriteByte(',')
			}
			key := e.Key.Str()
			if !e.Key.IsStr() {
				kb, err := e.Key.MarshalJSON()
				if err != nil {
					return err
				}
				key = string(kb)
			}
			kb, err := j.Marshal(key)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := writeJSON(buf, e.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("wire: cannot render %s as JSON", v.kind)
	}
	return nil
}

// ErrDuplicateKey is returned by ReadJSONStrict for a repeated object member.
var ErrDuplicateKey = errors.New("duplicate object key")

// FromJSON reads one JSON document into a Value. Object member order is
// preserved. Integral numbers become integers, everything else float64.
// Nesting and container sizes are bounded by the same Limits as NewUnpacker,
// adjustable through opts.
func FromJSON(data []byte, opts ...Option) (Value, error) {
	return ReadJSON(bytes.NewReader(data), opts...)
}

// ReadJSON is FromJSON over an io.Reader.
func ReadJSON(r io.Reader, opts ...Option) (Value, error) {
	return readJSON(r, false, opts)
}

// ReadJSONStrict is ReadJSON that fails with ErrDuplicateKey when an object
// repeats a member name.
func ReadJSONStrict(r io.Reader, opts ...Option) (Value, error) {
	return readJSON(r, true, opts)
}

func readJSON(r io.Reader, strict bool, opts []Option) (Value, error) {
	cfg := Unpacker{limits: DefaultLimits}
	for _, o := range opts {
		o(&cfg)
	}
	dec := j.NewDecoder(r)
	dec.UseNumber()
	jr := &jsonReader{dec: dec, strict: strict, limits: cfg.limits}
	v, err := jr.value(1)
	if err != nil {
		return Value{}, fmt.Errorf("wire: json: %w", err)
	}
	return v, nil
}

type jsonReader struct {
	dec    *j.Decoder
	strict bool
	limits Limits
}

func (jr *jsonReader) checkLen(n int) error {
	if n > jr.limits.MaxContainerLen {
		return fmt.Errorf("%w: more than %d elements", ErrContainerTooLarge, jr.limits.MaxContainerLen)
	}
	return nil
}

func (jr *jsonReader) value(depth int) (Value, error) {
	tok, err := jr.dec.Token()
	if err != nil {
		return Value{}, err
	}
	return jr.fromToken(tok, depth)
}

func (jr *jsonReader) fromToken(tok j.Token, depth int) (Value, error) {
	dec := jr.dec
	switch t := tok.(type) {
	case nil:
		return Nil(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case j.Number:
		return numberValue(string(t))
	case float64:
		return Float64(t), nil
	case j.Delim:
		if depth > jr.limits.MaxDepth {
			return Value{}, ErrDepthExceeded
		}
		switch t {
		case '[':
			var items []Value
			for dec.More() {
				if err := jr.checkLen(len(items) + 1); err != nil {
					return Value{}, err
				}
				it, err := jr.value(depth + 1)
				if err != nil {
					return Value{}, err
				}
				items = append(items, it)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Array(items...), nil
		case '{':
			var (
				pairs []Entry
				seen  map[string]struct{}
			)
			if jr.strict {
				seen = map[string]struct{}{}
			}
			for dec.More() {
				if err := jr.checkLen(len(pairs) + 1); err != nil {
					return Value{}, err
				}
				kt, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := kt.(string)
				if !ok {
					return Value{}, fmt.Errorf("unexpected object key %v", kt)
				}
				if seen != nil {
					if _, dup := seen[key]; dup {
						return Value{}, fmt.Errorf("%w %q", ErrDuplicateKey, key)
					}
					seen[key] = struct{}{}
				}
				val, err := jr.value(depth + 1)
				if err != nil {
					return Value{}, err
				}
				pairs = append(pairs, Entry{Key: String(key), Value: val})
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Map(pairs...), nil
		}
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

func numberValue(s string) (Value, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i), nil
	}
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return Uint(u), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, err
	}
	return Float64(f), nil
}
