package codec

import (
	"errors"
	"fmt"
	"reflect"
	"unsafe"

	msgskema "github.com/reoring/msgskema"
	"github.com/reoring/msgskema/wire"
)

// opFor returns the compiled op for t, checking t first. Only complete ops
// are cached.
func (g *Generator) opFor(t reflect.Type) (*fieldOp, error) {
	if op, ok := g.ops.Load(t); ok {
		return op.(*fieldOp), nil
	}
	if err := g.checkType(t, map[reflect.Type]bool{}); err != nil {
		return nil, &msgskema.GenerationError{Type: t, Cause: err}
	}
	op := g.compile(t, map[reflect.Type]*fieldOp{})
	actual, _ := g.ops.LoadOrStore(t, op)
	return actual.(*fieldOp), nil
}

// compile builds the op for an already checked type. building holds ops of
// the current compilation so self-referencing element types terminate;
// closures dereference element ops at call time.
func (g *Generator) compile(t reflect.Type, building map[reflect.Type]*fieldOp) *fieldOp {
	if op, ok := g.ops.Load(t); ok {
		return op.(*fieldOp)
	}
	if op, ok := building[t]; ok {
		return op
	}
	op := &fieldOp{}
	building[t] = op
	*op = g.build(t, building)
	return op
}

func (g *Generator) build(t reflect.Type, building map[reflect.Type]*fieldOp) fieldOp {
	if tpl := g.templateFor(t); tpl != nil {
		return *templateOp(t, tpl)
	}
	if t == valueType {
		return valueOp
	}
	if isPackable(t) {
		return *packableOp(t)
	}
	switch t.Kind() {
	case reflect.Bool:
		return boolOp
	case reflect.String:
		return stringOp
	case reflect.Int:
		return numberOp(func(p msgskema.Packer, v int) error { return p.PackInt64(int64(v)) })
	case reflect.Int8:
		return numberOp(msgskema.Packer.PackInt8)
	case reflect.Int16:
		return numberOp(msgskema.Packer.PackInt16)
	case reflect.Int32:
		return numberOp(msgskema.Packer.PackInt32)
	case reflect.Int64:
		return numberOp(msgskema.Packer.PackInt64)
	case reflect.Uint:
		return numberOp(func(p msgskema.Packer, v uint) error { return p.PackUint64(uint64(v)) })
	case reflect.Uint8:
		return numberOp(msgskema.Packer.PackUint8)
	case reflect.Uint16:
		return numberOp(msgskema.Packer.PackUint16)
	case reflect.Uint32:
		return numberOp(msgskema.Packer.PackUint32)
	case reflect.Uint64:
		return numberOp(msgskema.Packer.PackUint64)
	case reflect.Float32:
		return numberOp(msgskema.Packer.PackFloat32)
	case reflect.Float64:
		return numberOp(msgskema.Packer.PackFloat64)
	case reflect.Slice:
		if g.isByteElem(t.Elem()) {
			return bytesOp
		}
		return sliceOp(t, g.compile(t.Elem(), building))
	case reflect.Array:
		if g.isByteElem(t.Elem()) {
			return byteArrayOp(t)
		}
		return arrayOp(t, g.compile(t.Elem(), building))
	case reflect.Map:
		return mapOp(t, g.compile(t.Key(), building), g.compile(t.Elem(), building))
	case reflect.Pointer:
		return pointerOp(t, g.compile(t.Elem(), building))
	case reflect.Interface:
		return g.interfaceOp()
	case reflect.Struct:
		return g.nestedOp(t)
	}
	err := &msgskema.GenerationError{Type: t, Cause: fmt.Errorf("unsupported kind %s", t.Kind())}
	return fieldOp{
		pack:   func(msgskema.Packer, unsafe.Pointer) error { return err },
		unpack: func(msgskema.Unpacker, unsafe.Pointer) error { return err },
	}
}

func (g *Generator) isByteElem(t reflect.Type) bool {
	return t.Kind() == reflect.Uint8 && !isPackable(t) && g.templateFor(t) == nil
}

var boolOp = fieldOp{
	pack: func(p msgskema.Packer, ptr unsafe.Pointer) error { return p.PackBool(*(*bool)(ptr)) },
	unpack: func(u msgskema.Unpacker, ptr unsafe.Pointer) error {
		b, err := msgskema.UnpackBool(u)
		if err != nil {
			return err
		}
		*(*bool)(ptr) = b
		return nil
	},
}

var stringOp = fieldOp{
	pack: func(p msgskema.Packer, ptr unsafe.Pointer) error { return p.PackString(*(*string)(ptr)) },
	unpack: func(u msgskema.Unpacker, ptr unsafe.Pointer) error {
		s, err := msgskema.UnpackString(u)
		if err != nil {
			return err
		}
		*(*string)(ptr) = s
		return nil
	},
}

var bytesOp = fieldOp{
	pack: func(p msgskema.Packer, ptr unsafe.Pointer) error { return p.PackBytes(*(*[]byte)(ptr)) },
	unpack: func(u msgskema.Unpacker, ptr unsafe.Pointer) error {
		b, err := msgskema.UnpackBytes(u)
		if err != nil {
			return err
		}
		*(*[]byte)(ptr) = b
		return nil
	},
}

var valueOp = fieldOp{
	pack: func(p msgskema.Packer, ptr unsafe.Pointer) error { return p.PackValue(*(*msgskema.Value)(ptr)) },
	unpack: func(u msgskema.Unpacker, ptr unsafe.Pointer) error {
		v, err := u.UnpackValue()
		if err != nil {
			return err
		}
		*(*msgskema.Value)(ptr) = v
		return nil
	},
}

// numberOp reads through msgskema.UnpackNumber, so any numeric wire value
// narrows into T and a nil marker yields zero.
func numberOp[T msgskema.Number](pack func(p msgskema.Packer, v T) error) fieldOp {
	return fieldOp{
		pack: func(p msgskema.Packer, ptr unsafe.Pointer) error { return pack(p, *(*T)(ptr)) },
		unpack: func(u msgskema.Unpacker, ptr unsafe.Pointer) error {
			n, err := msgskema.UnpackNumber[T](u)
			if err != nil {
				return err
			}
			*(*T)(ptr) = n
			return nil
		},
	}
}

func sliceOp(t reflect.Type, elem *fieldOp) fieldOp {
	size := t.Elem().Size()
	return fieldOp{
		pack: func(p msgskema.Packer, ptr unsafe.Pointer) error {
			rv := reflect.NewAt(t, ptr).Elem()
			if rv.IsNil() {
				return p.PackNil()
			}
			n := rv.Len()
			if err := p.PackArray(n); err != nil {
				return err
			}
			base := rv.UnsafePointer()
			for i := 0; i < n; i++ {
				if err := elem.pack(p, unsafe.Add(base, uintptr(i)*size)); err != nil {
					return err
				}
			}
			return nil
		},
		unpack: func(u msgskema.Unpacker, ptr unsafe.Pointer) error {
			n, err := u.UnpackArray()
			if err != nil {
				return convertErr(err, t)
			}
			rv := reflect.NewAt(t, ptr).Elem()
			if n < 0 {
				rv.SetZero()
				return nil
			}
			s := reflect.MakeSlice(t, 0, wire.PreallocLen(n))
			zero := reflect.Zero(t.Elem())
			for i := 0; i < n; i++ {
				s = reflect.Append(s, zero)
				if err := elem.unpack(u, unsafe.Add(s.UnsafePointer(), uintptr(i)*size)); err != nil {
					return err
				}
			}
			rv.Set(s)
			return nil
		},
	}
}

// byteArrayOp carries [N]byte as a bin value of exactly N bytes.
func byteArrayOp(t reflect.Type) fieldOp {
	n := t.Len()
	return fieldOp{
		pack: func(p msgskema.Packer, ptr unsafe.Pointer) error {
			return p.PackBytes(unsafe.Slice((*byte)(ptr), n))
		},
		unpack: func(u msgskema.Unpacker, ptr unsafe.Pointer) error {
			b, err := msgskema.UnpackBytes(u)
			if err != nil {
				return err
			}
			dst := unsafe.Slice((*byte)(ptr), n)
			if b == nil {
				clear(dst)
				return nil
			}
			if len(b) != n {
				return &msgskema.TypeError{
					Code:   msgskema.CodeInvalidConvert,
					Value:  b,
					Target: t.String(),
					Hint:   fmt.Sprintf("want %d bytes", n),
				}
			}
			copy(dst, b)
			return nil
		},
	}
}

func arrayOp(t reflect.Type, elem *fieldOp) fieldOp {
	n := t.Len()
	size := t.Elem().Size()
	return fieldOp{
		pack: func(p msgskema.Packer, ptr unsafe.Pointer) error {
			if err := p.PackArray(n); err != nil {
				return err
			}
			for i := 0; i < n; i++ {
				if err := elem.pack(p, unsafe.Add(ptr, uintptr(i)*size)); err != nil {
					return err
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
				return msgskema.ArityError(t.String(), n, got)
			}
			for i := 0; i < n; i++ {
				if err := elem.unpack(u, unsafe.Add(ptr, uintptr(i)*size)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// mapOp packs entries in Go map iteration order, which is unspecified.
func mapOp(t reflect.Type, key, val *fieldOp) fieldOp {
	kt, vt := t.Key(), t.Elem()
	return fieldOp{
		pack: func(p msgskema.Packer, ptr unsafe.Pointer) error {
			rv := reflect.NewAt(t, ptr).Elem()
			if rv.IsNil() {
				return p.PackNil()
			}
			if err := p.PackMap(rv.Len()); err != nil {
				return err
			}
			k := reflect.New(kt).Elem()
			v := reflect.New(vt).Elem()
			it := rv.MapRange()
			for it.Next() {
				k.SetIterKey(it)
				v.SetIterValue(it)
				if err := key.pack(p, k.Addr().UnsafePointer()); err != nil {
					return err
				}
				if err := val.pack(p, v.Addr().UnsafePointer()); err != nil {
					return err
				}
			}
			return nil
		},
		unpack: func(u msgskema.Unpacker, ptr unsafe.Pointer) error {
			n, err := u.UnpackMap()
			if err != nil {
				return convertErr(err, t)
			}
			rv := reflect.NewAt(t, ptr).Elem()
			if n < 0 {
				rv.SetZero()
				return nil
			}
			m := reflect.MakeMapWithSize(t, wire.PreallocLen(n))
			for i := 0; i < n; i++ {
				k := reflect.New(kt).Elem()
				if err := key.unpack(u, k.Addr().UnsafePointer()); err != nil {
					return err
				}
				if !k.Comparable() {
					return &msgskema.TypeError{Code: msgskema.CodeUnhashableKey, Value: k.Interface(), Target: t.String()}
				}
				v := reflect.New(vt).Elem()
				if err := val.unpack(u, v.Addr().UnsafePointer()); err != nil {
					return err
				}
				m.SetMapIndex(k, v)
			}
			rv.Set(m)
			return nil
		},
	}
}

// pointerOp allocates a fresh element on unpack; a nil marker stores nil.
func pointerOp(t reflect.Type, elem *fieldOp) fieldOp {
	et := t.Elem()
	return fieldOp{
		pack: func(p msgskema.Packer, ptr unsafe.Pointer) error {
			pp := *(*unsafe.Pointer)(ptr)
			if pp == nil {
				return p.PackNil()
			}
			return elem.pack(p, pp)
		},
		unpack: func(u msgskema.Unpacker, ptr unsafe.Pointer) error {
			isNil, err := u.TryUnpackNil()
			if err != nil {
				return err
			}
			if isNil {
				*(*unsafe.Pointer)(ptr) = nil
				return nil
			}
			nv := reflect.New(et)
			if err := elem.unpack(u, nv.UnsafePointer()); err != nil {
				return err
			}
			*(*unsafe.Pointer)(ptr) = nv.UnsafePointer()
			return nil
		},
	}
}

// interfaceOp handles fields of type any: packing dispatches on the dynamic
// type, unpacking yields the plain Go form of the decoded value.
func (g *Generator) interfaceOp() fieldOp {
	return fieldOp{
		pack: func(p msgskema.Packer, ptr unsafe.Pointer) error { return g.Pack(p, *(*any)(ptr)) },
		unpack: func(u msgskema.Unpacker, ptr unsafe.Pointer) error {
			v, err := u.UnpackValue()
			if err != nil {
				return err
			}
			*(*any)(ptr) = v.Interface()
			return nil
		},
	}
}

// nestedOp resolves the codec of a nested struct on first use, so
// self-referencing types never generate recursively.
func (g *Generator) nestedOp(t reflect.Type) fieldOp {
	resolve := func() (*typedCodec, error) {
		if c, ok := g.codecs.Load(t); ok {
			return c.(*typedCodec), nil
		}
		return g.codecFor(t)
	}
	return fieldOp{
		pack: func(p msgskema.Packer, ptr unsafe.Pointer) error {
			c, err := resolve()
			if err != nil {
				return err
			}
			return c.op.pack(p, ptr)
		},
		unpack: func(u msgskema.Unpacker, ptr unsafe.Pointer) error {
			c, err := resolve()
			if err != nil {
				return err
			}
			return c.op.unpack(u, ptr)
		},
	}
}

// templateOp delegates to a registered template. The template's result must
// be assignable to t, or be a pointer to t.
func templateOp(t reflect.Type, tpl msgskema.Template) *fieldOp {
	return &fieldOp{
		pack: func(p msgskema.Packer, ptr unsafe.Pointer) error {
			return tpl.Pack(p, reflect.NewAt(t, ptr).Elem().Interface())
		},
		unpack: func(u msgskema.Unpacker, ptr unsafe.Pointer) error {
			x, err := tpl.Unpack(u)
			if err != nil {
				return err
			}
			dst := reflect.NewAt(t, ptr).Elem()
			if x == nil {
				dst.SetZero()
				return nil
			}
			xv := reflect.ValueOf(x)
			switch {
			case xv.Type().AssignableTo(t):
				dst.Set(xv)
			case xv.Kind() == reflect.Pointer && xv.Type().Elem() == t && !xv.IsNil():
				dst.Set(xv.Elem())
			default:
				return msgskema.InvalidConvert(x, t.String())
			}
			return nil
		},
	}
}

// packableOp defers to the type's own PackMsg and UnpackMsg. A nil marker
// zeroes the value without calling UnpackMsg.
func packableOp(t reflect.Type) *fieldOp {
	return &fieldOp{
		pack: func(p msgskema.Packer, ptr unsafe.Pointer) error {
			return reflect.NewAt(t, ptr).Interface().(msgskema.Packable).PackMsg(p)
		},
		unpack: func(u msgskema.Unpacker, ptr unsafe.Pointer) error {
			isNil, err := u.TryUnpackNil()
			if err != nil {
				return err
			}
			if isNil {
				reflect.NewAt(t, ptr).Elem().SetZero()
				return nil
			}
			return reflect.NewAt(t, ptr).Interface().(msgskema.Unpackable).UnpackMsg(u)
		},
	}
}

// convertErr reports a container header of the wrong kind as a TypeError.
func convertErr(err error, t reflect.Type) error {
	if errors.Is(err, wire.ErrTypeMismatch) {
		return &msgskema.TypeError{Code: msgskema.CodeInvalidConvert, Target: t.String(), Hint: err.Error()}
	}
	return err
}
