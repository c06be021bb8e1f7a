package msgskema

import (
	"bytes"
	"io"

	"github.com/reoring/msgskema/wire"
)

// Encode packs v under s. Nothing is returned on error, so a failing
// composite never leaks a partial encoding.
func Encode(s Schema, v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.Pack(wire.NewPacker(&buf), v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeTo packs v under s and writes the encoding to w only once packing
// succeeded.
func EncodeTo(w io.Writer, s Schema, v any) error {
	b, err := Encode(s, v)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// Decode reads one value from data and converts it with s.
func Decode(s Schema, data []byte, opts ...wire.Option) (any, error) {
	return DecodeFrom(bytes.NewReader(data), s, opts...)
}

// DecodeFrom reads one value from r and converts it with s.
func DecodeFrom(r io.Reader, s Schema, opts ...wire.Option) (any, error) {
	v, err := wire.NewUnpacker(r, opts...).UnpackValue()
	if err != nil {
		return nil, err
	}
	return s.Convert(v)
}

// DecodeValue reads one value from data without conversion.
func DecodeValue(data []byte, opts ...wire.Option) (Value, error) {
	return wire.NewUnpackerBytes(data, opts...).UnpackValue()
}
