package msgskema

import "github.com/reoring/msgskema/wire"

// Value is a decoded, dynamically typed wire value.
type Value = wire.Value

// Kind identifies the category of a Value.
type Kind = wire.Kind

// Entry is one key/value pair of a map Value.
type Entry = wire.Entry

// Packer writes tagged values. *wire.Packer implements it.
type Packer interface {
	PackNil() error
	PackBool(b bool) error
	PackInt8(v int8) error
	PackInt16(v int16) error
	PackInt32(v int32) error
	PackInt64(v int64) error
	PackUint8(v uint8) error
	PackUint16(v uint16) error
	PackUint32(v uint32) error
	PackUint64(v uint64) error
	PackFloat32(v float32) error
	PackFloat64(v float64) error
	PackString(s string) error
	PackBytes(b []byte) error
	PackArray(n int) error
	PackMap(n int) error
	PackValue(v Value) error
}

// Unpacker reads tagged values. *wire.Unpacker implements it.
type Unpacker interface {
	PeekKind() (Kind, error)
	TryUnpackNil() (bool, error)
	UnpackBool() (bool, error)
	UnpackInt64() (int64, error)
	UnpackUint64() (uint64, error)
	UnpackFloat64() (float64, error)
	UnpackString() (string, error)
	UnpackBytes() ([]byte, error)
	UnpackArray() (int, error)
	UnpackMap() (int, error)
	UnpackValue() (Value, error)
	Skip() error
}

// Schema is the wire contract for one host type. Schemas are immutable and
// safe for concurrent use.
type Schema interface {
	// Name is a human readable name of the host representation.
	Name() string
	// Expression is a deterministic textual description; composite schemas
	// embed the expressions of their children, e.g. "(map string int)".
	Expression() string
	// Pack writes v. A nil v (or a nil pointer, map, slice or interface)
	// is always written as the nil marker.
	Pack(p Packer, v any) error
	// Convert turns a decoded Value into the host representation. A nil
	// Value converts to nil.
	Convert(v Value) (any, error)
}

// NumberCreator narrows numbers of another width or kind into the schema's
// own type using truncating casts.
type NumberCreator interface {
	CreateFromInt8(v int8) any
	CreateFromInt16(v int16) any
	CreateFromInt32(v int32) any
	CreateFromInt64(v int64) any
	CreateFromUint64(v uint64) any
	CreateFromFloat32(v float32) any
	CreateFromFloat64(v float64) any
}

// MapCreator builds a mapping from alternating key, value elements.
type MapCreator interface {
	CreateFromMap(flat []any) (any, error)
}

// Template is a codec bound to exactly one runtime type. Templates are
// stateless and safe for concurrent use.
type Template interface {
	Pack(p Packer, v any) error
	Unpack(u Unpacker) (any, error)
	Convert(v Value) (any, error)
}

// Packable is implemented by types with their own wire encoding, typically
// produced by `msgskema compile`.
type Packable interface {
	PackMsg(p Packer) error
}

// Unpackable is the decoding counterpart of Packable.
type Unpackable interface {
	UnpackMsg(u Unpacker) error
}

var (
	_ Packer   = (*wire.Packer)(nil)
	_ Unpacker = (*wire.Unpacker)(nil)
)
