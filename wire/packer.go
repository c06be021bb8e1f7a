package wire

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Packer writes MessagePack values to an io.Writer. Integers always use the
// most compact encoding for their value.
//
// A Packer is not safe for concurrent use.
type Packer struct {
	enc *msgpack.Encoder
}

// NewPacker returns a Packer writing to w.
func NewPacker(w io.Writer) *Packer {
	return &Packer{enc: msgpack.NewEncoder(w)}
}

// Reset redirects the Packer to w.
func (p *Packer) Reset(w io.Writer) { p.enc.Reset(w) }

func (p *Packer) PackNil() error          { return p.enc.EncodeNil() }
func (p *Packer) PackBool(b bool) error   { return p.enc.EncodeBool(b) }
func (p *Packer) PackInt8(v int8) error   { return p.enc.EncodeInt(int64(v)) }
func (p *Packer) PackInt16(v int16) error { return p.enc.EncodeInt(int64(v)) }
func (p *Packer) PackInt32(v int32) error { return p.enc.EncodeInt(int64(v)) }
func (p *Packer) PackInt64(v int64) error { return p.enc.EncodeInt(v) }

func (p *Packer) PackUint8(v uint8) error   { return p.enc.EncodeUint(uint64(v)) }
func (p *Packer) PackUint16(v uint16) error { return p.enc.EncodeUint(uint64(v)) }
func (p *Packer) PackUint32(v uint32) error { return p.enc.EncodeUint(uint64(v)) }
func (p *Packer) PackUint64(v uint64) error { return p.enc.EncodeUint(v) }

func (p *Packer) PackFloat32(v float32) error { return p.enc.EncodeFloat32(v) }
func (p *Packer) PackFloat64(v float64) error { return p.enc.EncodeFloat64(v) }

// PackString writes s as a str value.
func (p *Packer) PackString(s string) error { return p.enc.EncodeString(s) }

// PackBytes writes b as a bin value. A nil slice is written as nil.
func (p *Packer) PackBytes(b []byte) error { return p.enc.EncodeBytes(b) }

// PackArray writes an array header announcing n elements.
func (p *Packer) PackArray(n int) error {
	if n < 0 {
		return fmt.Errorf("wire: negative array length %d", n)
	}
	return p.enc.EncodeArrayLen(n)
}

// PackMap writes a map header announcing n key/value pairs.
func (p *Packer) PackMap(n int) error {
	if n < 0 {
		return fmt.Errorf("wire: negative map length %d", n)
	}
	return p.enc.EncodeMapLen(n)
}

// PackValue writes v and everything it contains.
func (p *Packer) PackValue(v Value) error {
	switch v.kind {
	case KindNil:
		return p.PackNil()
	case KindBool:
		return p.PackBool(v.b)
	case KindInt:
		return p.PackInt64(v.i)
	case KindUint:
		return p.PackUint64(v.u)
	case KindFloat32:
		return p.PackFloat32(float32(v.f))
	case KindFloat64:
		return p.PackFloat64(v.f)
	case KindRaw:
		if v.str {
			return p.enc.EncodeString(string(v.raw))
		}
		if v.raw == nil {
			return p.enc.EncodeBytesLen(0)
		}
		return p.enc.EncodeBytes(v.raw)
	case KindArray:
		if err := p.PackArray(len(v.items)); err != nil {
			return err
		}
		for _, it := range v.items {
			if err := p.PackValue(it); err != nil {
				return err
			}
		}
		return nil
	case KindMap:
		if err := p.PackMap(len(v.pairs)); err != nil {
			return err
		}
		for _, e := range v.pairs {
			if err := p.PackValue(e.Key); err != nil {
				return err
			}
			if err := p.PackValue(e.Value); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("wire: cannot pack value of %s", v.kind)
}
