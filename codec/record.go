package codec

import (
	"errors"
	"fmt"
	"reflect"
	"unsafe"

	msgskema "github.com/reoring/msgskema"
	"github.com/reoring/msgskema/wire"
)

// recordField is one wire position of a struct: the field offset and the op
// compiled for its type.
type recordField struct {
	name   string
	offset uintptr
	op     *fieldOp
}

// recordFields lists the exported fields of t that take part in encoding,
// in declaration order.
func recordFields(t reflect.Type) []reflect.StructField {
	var out []reflect.StructField
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || msgskema.ResolveStructKey(sf) == "-" {
			continue
		}
		out = append(out, sf)
	}
	return out
}

// structOp compiles the record form of struct t: an array holding each
// field in declaration order. Decoding requires exactly that many elements
// and a nil marker zeroes the struct.
func (g *Generator) structOp(t reflect.Type) *fieldOp {
	building := map[reflect.Type]*fieldOp{}
	var fields []recordField
	for _, sf := range recordFields(t) {
		fields = append(fields, recordField{
			name:   msgskema.ResolveStructKey(sf),
			offset: sf.Offset,
			op:     g.compile(sf.Type, building),
		})
	}
	target := t.String()
	n := len(fields)
	return &fieldOp{
		pack: func(p msgskema.Packer, ptr unsafe.Pointer) error {
			if err := p.PackArray(n); err != nil {
				return err
			}
			for i := range fields {
				f := &fields[i]
				if err := f.op.pack(p, unsafe.Add(ptr, f.offset)); err != nil {
					return fieldErr(target, f.name, err)
				}
			}
			return nil
		},
		unpack: func(u msgskema.Unpacker, ptr unsafe.Pointer) error {
			got, err := u.UnpackArray()
			if err != nil {
				return convertErr(err, t)
			}
			if got < 0 {
				reflect.NewAt(t, ptr).Elem().SetZero()
				return nil
			}
			if got != n {
				return msgskema.ArityError(target, n, got)
			}
			for i := range fields {
				f := &fields[i]
				if err := f.op.unpack(u, unsafe.Add(ptr, f.offset)); err != nil {
					return fieldErr(target, f.name, err)
				}
			}
			return nil
		},
	}
}

// fieldErr prefixes err with the field path. Wire-level kind mismatches
// become TypeErrors naming the field.
func fieldErr(target, field string, err error) error {
	if _, ok := msgskema.AsTypeError(err); !ok && errors.Is(err, wire.ErrTypeMismatch) {
		err = &msgskema.TypeError{Code: msgskema.CodeInvalidConvert, Target: target + "." + field, Hint: err.Error()}
	}
	return fmt.Errorf("%s.%s: %w", target, field, err)
}
