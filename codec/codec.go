package codec

import (
	"bytes"
	"reflect"
	"unsafe"

	msgskema "github.com/reoring/msgskema"
	"github.com/reoring/msgskema/wire"
)

// Codec packs and unpacks values of exactly one Go type. Codecs are
// immutable after generation and safe for concurrent use.
type Codec interface {
	// Type is the Go type the codec is bound to.
	Type() reflect.Type
	// Pack writes v, which must be a T or *T. A nil v writes the nil marker.
	Pack(p msgskema.Packer, v any) error
	// Unpack reads a new T. A nil marker yields (nil, nil).
	Unpack(u msgskema.Unpacker) (any, error)
	// UnpackInto reads into ptr, which must be a non-nil *T. A nil marker
	// zeroes *ptr.
	UnpackInto(u msgskema.Unpacker, ptr any) error
	// Convert builds a T from an already decoded value.
	Convert(v msgskema.Value) (any, error)
}

// fieldOp is the compiled pack/unpack pair for one Go type, operating on a
// pointer to a value of that type.
type fieldOp struct {
	pack   func(p msgskema.Packer, ptr unsafe.Pointer) error
	unpack func(u msgskema.Unpacker, ptr unsafe.Pointer) error
}

// typedCodec binds a fieldOp to its type and implements Codec.
type typedCodec struct {
	typ  reflect.Type
	op   *fieldOp
	kind string // "record", "template" or "packable"
}

var _ Codec = (*typedCodec)(nil)

func (c *typedCodec) Type() reflect.Type { return c.typ }

func (c *typedCodec) Pack(p msgskema.Packer, v any) error {
	if msgskema.IsNil(v) {
		return p.PackNil()
	}
	rv := reflect.ValueOf(v)
	switch rv.Type() {
	case c.typ:
		tmp := reflect.New(c.typ)
		tmp.Elem().Set(rv)
		return c.op.pack(p, tmp.UnsafePointer())
	case reflect.PointerTo(c.typ):
		return c.op.pack(p, rv.UnsafePointer())
	}
	return msgskema.InvalidConvert(v, c.typ.String())
}

func (c *typedCodec) Unpack(u msgskema.Unpacker) (any, error) {
	if isNil, err := u.TryUnpackNil(); err != nil || isNil {
		return nil, err
	}
	out := reflect.New(c.typ)
	if err := c.op.unpack(u, out.UnsafePointer()); err != nil {
		return nil, err
	}
	return out.Elem().Interface(), nil
}

func (c *typedCodec) UnpackInto(u msgskema.Unpacker, ptr any) error {
	rv := reflect.ValueOf(ptr)
	if !rv.IsValid() || rv.Type() != reflect.PointerTo(c.typ) || rv.IsNil() {
		return msgskema.InvalidConvert(ptr, "*"+c.typ.String())
	}
	return c.op.unpack(u, rv.UnsafePointer())
}

func (c *typedCodec) Convert(v msgskema.Value) (any, error) {
	if v.IsNil() {
		return nil, nil
	}
	u, err := reencode(v)
	if err != nil {
		return nil, err
	}
	return c.Unpack(u)
}

// reencode turns a decoded value back into an Unpacker so compiled ops can
// read it.
func reencode(v msgskema.Value) (*wire.Unpacker, error) {
	var buf bytes.Buffer
	if err := wire.NewPacker(&buf).PackValue(v); err != nil {
		return nil, err
	}
	return wire.NewUnpackerBytes(buf.Bytes()), nil
}
