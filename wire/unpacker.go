package wire

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

var (
	// ErrDepthExceeded is returned when nested containers exceed Limits.MaxDepth.
	ErrDepthExceeded = errors.New("wire: nesting depth exceeded")
	// ErrContainerTooLarge is returned when an array or map header announces
	// more elements than Limits.MaxContainerLen.
	ErrContainerTooLarge = errors.New("wire: container too large")
	// ErrUnsupportedType is returned for wire types outside the value model
	// (extension types).
	ErrUnsupportedType = errors.New("wire: unsupported type")
	// ErrTypeMismatch is returned when the next value is not of the requested kind.
	ErrTypeMismatch = errors.New("wire: type mismatch")
)

// Limits bound the resources an Unpacker spends on untrusted input.
type Limits struct {
	MaxDepth        int
	MaxContainerLen int
}

// DefaultLimits are applied by NewUnpacker unless overridden.
var DefaultLimits = Limits{MaxDepth: 512, MaxContainerLen: 1 << 24}

// Option configures an Unpacker.
type Option func(*Unpacker)

// WithLimits replaces the decoding limits. Non-positive fields keep their
// default.
func WithLimits(l Limits) Option {
	return func(u *Unpacker) {
		if l.MaxDepth > 0 {
			u.limits.MaxDepth = l.MaxDepth
		}
		if l.MaxContainerLen > 0 {
			u.limits.MaxContainerLen = l.MaxContainerLen
		}
	}
}

// Unpacker reads MessagePack values from an io.Reader.
//
// An Unpacker is not safe for concurrent use.
type Unpacker struct {
	dec    *msgpack.Decoder
	limits Limits
}

// NewUnpacker returns an Unpacker reading from r.
func NewUnpacker(r io.Reader, opts ...Option) *Unpacker {
	u := &Unpacker{dec: msgpack.NewDecoder(r), limits: DefaultLimits}
	for _, o := range opts {
		o(u)
	}
	return u
}

// NewUnpackerBytes returns an Unpacker reading from b.
func NewUnpackerBytes(b []byte, opts ...Option) *Unpacker {
	return NewUnpacker(bytes.NewReader(b), opts...)
}

// Reset redirects the Unpacker to r, keeping its limits.
func (u *Unpacker) Reset(r io.Reader) { u.dec.Reset(r) }

// Limits returns the limits in effect.
func (u *Unpacker) Limits() Limits { return u.limits }

// PeekKind reports the kind of the next value without consuming it.
func (u *Unpacker) PeekKind() (Kind, error) {
	c, err := u.dec.PeekCode()
	if err != nil {
		return KindNil, wrap(err)
	}
	return kindOf(c)
}

// TryUnpackNil consumes the next value and returns true if it is nil.
// Otherwise nothing is consumed.
func (u *Unpacker) TryUnpackNil() (bool, error) {
	c, err := u.dec.PeekCode()
	if err != nil {
		return false, wrap(err)
	}
	if c != msgpcode.Nil {
		return false, nil
	}
	return true, wrap(u.dec.DecodeNil())
}

func (u *Unpacker) UnpackBool() (bool, error) {
	c, err := u.dec.PeekCode()
	if err != nil {
		return false, wrap(err)
	}
	if c != msgpcode.True && c != msgpcode.False {
		return false, mismatch(c, KindBool)
	}
	b, err := u.dec.DecodeBool()
	return b, wrap(err)
}

// UnpackInt64 reads any integer or float. Unsigned values above
// math.MaxInt64 wrap; floats convert with Int64FromFloat.
func (u *Unpacker) UnpackInt64() (int64, error) {
	k, err := u.PeekKind()
	if err != nil {
		return 0, err
	}
	switch k {
	case KindInt, KindUint:
		n, err := u.dec.DecodeInt64()
		return n, wrap(err)
	case KindFloat32, KindFloat64:
		f, err := u.dec.DecodeFloat64()
		return Int64FromFloat(f), wrap(err)
	}
	return 0, fmt.Errorf("%w: %s is not a number", ErrTypeMismatch, k)
}

// UnpackUint64 reads any integer or float. Negative values wrap; floats
// convert with Uint64FromFloat.
func (u *Unpacker) UnpackUint64() (uint64, error) {
	k, err := u.PeekKind()
	if err != nil {
		return 0, err
	}
	switch k {
	case KindInt, KindUint:
		n, err := u.dec.DecodeUint64()
		return n, wrap(err)
	case KindFloat32, KindFloat64:
		f, err := u.dec.DecodeFloat64()
		return Uint64FromFloat(f), wrap(err)
	}
	return 0, fmt.Errorf("%w: %s is not a number", ErrTypeMismatch, k)
}

// UnpackFloat64 reads any integer or float.
func (u *Unpacker) UnpackFloat64() (float64, error) {
	k, err := u.PeekKind()
	if err != nil {
		return 0, err
	}
	switch k {
	case KindInt:
		n, err := u.dec.DecodeInt64()
		return float64(n), wrap(err)
	case KindUint:
		n, err := u.dec.DecodeUint64()
		return float64(n), wrap(err)
	case KindFloat32, KindFloat64:
		f, err := u.dec.DecodeFloat64()
		return f, wrap(err)
	}
	return 0, fmt.Errorf("%w: %s is not a number", ErrTypeMismatch, k)
}

// UnpackString reads a str or bin value as a string.
func (u *Unpacker) UnpackString() (string, error) {
	c, err := u.dec.PeekCode()
	if err != nil {
		return "", wrap(err)
	}
	if !msgpcode.IsString(c) && !msgpcode.IsBin(c) {
		return "", mismatch(c, KindRaw)
	}
	s, err := u.dec.DecodeString()
	return s, wrap(err)
}

// UnpackBytes reads a str or bin value as bytes.
func (u *Unpacker) UnpackBytes() ([]byte, error) {
	c, err := u.dec.PeekCode()
	if err != nil {
		return nil, wrap(err)
	}
	if !msgpcode.IsString(c) && !msgpcode.IsBin(c) {
		return nil, mismatch(c, KindRaw)
	}
	b, err := u.dec.DecodeBytes()
	return b, wrap(err)
}

// UnpackArray reads an array header and returns the element count. A nil
// value yields -1.
func (u *Unpacker) UnpackArray() (int, error) {
	c, err := u.dec.PeekCode()
	if err != nil {
		return 0, wrap(err)
	}
	if c != msgpcode.Nil && !isArray(c) {
		return 0, mismatch(c, KindArray)
	}
	n, err := u.dec.DecodeArrayLen()
	if err != nil {
		return 0, wrap(err)
	}
	return n, u.checkLen(n)
}

// UnpackMap reads a map header and returns the pair count. A nil value
// yields -1.
func (u *Unpacker) UnpackMap() (int, error) {
	c, err := u.dec.PeekCode()
	if err != nil {
		return 0, wrap(err)
	}
	if c != msgpcode.Nil && !isMap(c) {
		return 0, mismatch(c, KindMap)
	}
	n, err := u.dec.DecodeMapLen()
	if err != nil {
		return 0, wrap(err)
	}
	return n, u.checkLen(n)
}

// Skip discards the next value.
func (u *Unpacker) Skip() error { return wrap(u.dec.Skip()) }

// UnpackValue reads the next value and everything it contains.
func (u *Unpacker) UnpackValue() (Value, error) { return u.value(1) }

func (u *Unpacker) value(depth int) (Value, error) {
	k, err := u.PeekKind()
	if err != nil {
		return Value{}, err
	}
	switch k {
	case KindNil:
		return Value{}, wrap(u.dec.DecodeNil())
	case KindBool:
		b, err := u.dec.DecodeBool()
		return Bool(b), wrap(err)
	case KindInt:
		n, err := u.dec.DecodeInt64()
		return Int(n), wrap(err)
	case KindUint:
		n, err := u.dec.DecodeUint64()
		return Uint(n), wrap(err)
	case KindFloat32:
		f, err := u.dec.DecodeFloat32()
		return Float32(f), wrap(err)
	case KindFloat64:
		f, err := u.dec.DecodeFloat64()
		return Float64(f), wrap(err)
	case KindRaw:
		c, _ := u.dec.PeekCode()
		b, err := u.dec.DecodeBytes()
		if err != nil {
			return Value{}, wrap(err)
		}
		if b == nil {
			b = []byte{}
		}
		return Value{kind: KindRaw, str: msgpcode.IsString(c), raw: b}, nil
	}
	if depth > u.limits.MaxDepth {
		return Value{}, ErrDepthExceeded
	}
	if k == KindArray {
		n, err := u.UnpackArray()
		if err != nil {
			return Value{}, err
		}
		items := make([]Value, 0, PreallocLen(n))
		for i := 0; i < n; i++ {
			it, err := u.value(depth + 1)
			if err != nil {
				return Value{}, err
			}
			items = append(items, it)
		}
		return Array(items...), nil
	}
	n, err := u.UnpackMap()
	if err != nil {
		return Value{}, err
	}
	pairs := make([]Entry, 0, PreallocLen(n))
	for i := 0; i < n; i++ {
		var e Entry
		if e.Key, err = u.value(depth + 1); err != nil {
			return Value{}, err
		}
		if e.Value, err = u.value(depth + 1); err != nil {
			return Value{}, err
		}
		pairs = append(pairs, e)
	}
	return Map(pairs...), nil
}

// MaxPrealloc caps the capacity reserved from a container header. Larger
// containers grow as their elements are decoded.
const MaxPrealloc = 1024

// PreallocLen returns the capacity to reserve for a container whose header
// announced n elements.
func PreallocLen(n int) int { return min(max(n, 0), MaxPrealloc) }

func (u *Unpacker) checkLen(n int) error {
	if n > u.limits.MaxContainerLen {
		return fmt.Errorf("%w: %d > %d", ErrContainerTooLarge, n, u.limits.MaxContainerLen)
	}
	return nil
}

func kindOf(c byte) (Kind, error) {
	switch {
	case c == msgpcode.Nil:
		return KindNil, nil
	case c == msgpcode.True || c == msgpcode.False:
		return KindBool, nil
	case msgpcode.IsFixedNum(c):
		return KindInt, nil
	case c == msgpcode.Int8 || c == msgpcode.Int16 || c == msgpcode.Int32 || c == msgpcode.Int64:
		return KindInt, nil
	case c == msgpcode.Uint8 || c == msgpcode.Uint16 || c == msgpcode.Uint32:
		return KindInt, nil
	case c == msgpcode.Uint64:
		return KindUint, nil
	case c == msgpcode.Float:
		return KindFloat32, nil
	case c == msgpcode.Double:
		return KindFloat64, nil
	case msgpcode.IsString(c) || msgpcode.IsBin(c):
		return KindRaw, nil
	case isArray(c):
		return KindArray, nil
	case isMap(c):
		return KindMap, nil
	}
	return KindNil, fmt.Errorf("%w: code 0x%02x", ErrUnsupportedType, c)
}

func isArray(c byte) bool {
	return msgpcode.IsFixedArray(c) || c == msgpcode.Array16 || c == msgpcode.Array32
}

func isMap(c byte) bool {
	return msgpcode.IsFixedMap(c) || c == msgpcode.Map16 || c == msgpcode.Map32
}

func mismatch(c byte, want Kind) error {
	got, err := kindOf(c)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: want %s, got %s", ErrTypeMismatch, want, got)
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("wire: %w", err)
}
