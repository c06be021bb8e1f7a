package codec

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	msgskema "github.com/reoring/msgskema"
	"github.com/reoring/msgskema/wire"
)

var (
	errNilType      = errors.New("type is nil")
	errNotRecord    = errors.New("not a struct, template or Packable type")
	errNilTarget    = errors.New("target must be a non-nil pointer")
	packableType    = reflect.TypeFor[msgskema.Packable]()
	unpackableType  = reflect.TypeFor[msgskema.Unpackable]()
	valueType       = reflect.TypeFor[msgskema.Value]()
	bytesType       = reflect.TypeFor[[]byte]()
	builtinRegistry = msgskema.NewBuiltinRegistry()
)

// Generator synthesizes codecs for Go types on first use and caches them.
// A Generator is safe for concurrent use; concurrent first requests for the
// same type share a single generation.
type Generator struct {
	reg     *msgskema.Registry
	metrics *Metrics
	log     zerolog.Logger

	codecs sync.Map // reflect.Type -> *typedCodec
	ops    sync.Map // reflect.Type -> *fieldOp
	keys   sync.Map // reflect.Type -> singleflight key
	seq    atomic.Uint64
	group  singleflight.Group
}

// Option configures a Generator.
type Option func(*Generator)

// WithRegistry makes the generator consult r for templates. The default is
// msgskema.DefaultRegistry().
func WithRegistry(r *msgskema.Registry) Option {
	return func(g *Generator) {
		if r != nil {
			g.reg = r
		}
	}
}

// WithMetrics records generation counts and timings into m.
func WithMetrics(m *Metrics) Option { return func(g *Generator) { g.metrics = m } }

// WithLogger sets the logger used for generation events. The default
// discards everything.
func WithLogger(l zerolog.Logger) Option { return func(g *Generator) { g.log = l } }

// New returns a Generator with an empty cache.
func New(opts ...Option) *Generator {
	g := &Generator{reg: msgskema.DefaultRegistry(), log: zerolog.Nop()}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Registry returns the template registry the generator consults.
func (g *Generator) Registry() *msgskema.Registry { return g.reg }

// GetOrGenerate returns the codec for t, generating it on first use. Pointer
// types resolve to their element type. t must be a struct, a type with a
// registered template (the built-in scalar and []byte templates included),
// or a type whose pointer implements both msgskema.Packable and
// msgskema.Unpackable.
//
// Failures are returned as *msgskema.GenerationError or
// *msgskema.InstantiationError and are not cached.
func (g *Generator) GetOrGenerate(t reflect.Type) (Codec, error) {
	c, err := g.codecFor(t)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (g *Generator) codecFor(t reflect.Type) (*typedCodec, error) {
	if t == nil {
		return nil, &msgskema.GenerationError{Cause: errNilType}
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if c, ok := g.codecs.Load(t); ok {
		g.metrics.hit()
		return c.(*typedCodec), nil
	}
	v, err, _ := g.group.Do(g.key(t), func() (any, error) {
		if c, ok := g.codecs.Load(t); ok {
			return c, nil
		}
		start := time.Now()
		c, err := g.generate(t)
		took := time.Since(start)
		if err != nil {
			result := ResultGenerationError
			if errors.Is(err, msgskema.ErrCodecInstantiation) {
				result = ResultInstantiationError
			}
			g.metrics.generated(result, took)
			g.log.Warn().Err(err).Str("type", t.String()).Msg("codec generation failed")
			return nil, err
		}
		g.metrics.generated(ResultOK, took)
		g.log.Debug().Str("type", t.String()).Str("kind", c.kind).Dur("took", took).Msg("codec generated")
		g.codecs.Store(t, c)
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*typedCodec), nil
}

// key returns a singleflight key unique to t. Type names are not unique
// across packages, so each type gets a sequence number.
func (g *Generator) key(t reflect.Type) string {
	if k, ok := g.keys.Load(t); ok {
		return k.(string)
	}
	k, _ := g.keys.LoadOrStore(t, strconv.FormatUint(g.seq.Add(1), 36))
	return k.(string)
}

// generate builds the codec for t and checks that it works on the zero value.
func (g *Generator) generate(t reflect.Type) (*typedCodec, error) {
	var c *typedCodec
	switch {
	case g.templateFor(t) != nil:
		c = &typedCodec{typ: t, op: templateOp(t, g.templateFor(t)), kind: "template"}
	case g.builtinScalar(t):
		c = &typedCodec{typ: t, op: g.compile(t, map[reflect.Type]*fieldOp{}), kind: "template"}
	case isPackable(t):
		c = &typedCodec{typ: t, op: packableOp(t), kind: "packable"}
	case t.Kind() == reflect.Struct && t != valueType:
		if err := g.checkType(t, map[reflect.Type]bool{}); err != nil {
			return nil, &msgskema.GenerationError{Type: t, Cause: err}
		}
		c = &typedCodec{typ: t, op: g.structOp(t), kind: "record"}
	default:
		return nil, &msgskema.GenerationError{Type: t, Cause: errNotRecord}
	}
	if err := selfCheck(c); err != nil {
		return nil, &msgskema.InstantiationError{Type: t, Cause: err}
	}
	return c, nil
}

// selfCheck round-trips the zero value through c. Panics raised by
// user-provided templates or Packable implementations become errors.
func selfCheck(c *typedCodec) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	var buf bytes.Buffer
	if err := c.op.pack(wire.NewPacker(&buf), reflect.New(c.typ).UnsafePointer()); err != nil {
		return err
	}
	u := wire.NewUnpackerBytes(buf.Bytes())
	if err := c.op.unpack(u, reflect.New(c.typ).UnsafePointer()); err != nil {
		return err
	}
	if _, err := u.PeekKind(); err == nil {
		return errors.New("zero value left unread bytes")
	}
	return nil
}

// templateFor returns the template registered for t, or nil. Templates that
// are the built-in ones for predeclared scalar types are skipped so those
// types take the direct path.
func (g *Generator) templateFor(t reflect.Type) msgskema.Template {
	tpl, ok := g.reg.Lookup(t)
	if !ok {
		return nil
	}
	if (isScalarKind(t.Kind()) && t.PkgPath() == "") || t == bytesType {
		if b, ok := builtinRegistry.Lookup(t); ok && b == tpl {
			return nil
		}
	}
	return tpl
}

// builtinScalar reports whether t still carries the built-in template that
// templateFor skips. Such types get the direct scalar op.
func (g *Generator) builtinScalar(t reflect.Type) bool {
	tpl, ok := g.reg.Lookup(t)
	return ok && tpl != nil && g.templateFor(t) == nil
}

func isPackable(t reflect.Type) bool {
	pt := reflect.PointerTo(t)
	return pt.Implements(packableType) && pt.Implements(unpackableType)
}

// checkType rejects types no codec can carry, walking struct fields and
// element types eagerly so that errors surface at generation.
func (g *Generator) checkType(t reflect.Type, seen map[reflect.Type]bool) error {
	if seen[t] {
		return nil
	}
	seen[t] = true
	if t == valueType || isPackable(t) || g.templateFor(t) != nil {
		return nil
	}
	switch t.Kind() {
	case reflect.Chan, reflect.Func, reflect.Complex64, reflect.Complex128,
		reflect.UnsafePointer, reflect.Uintptr, reflect.Invalid:
		return fmt.Errorf("unsupported kind %s (%s)", t.Kind(), t)
	case reflect.Interface:
		if t.NumMethod() != 0 {
			return fmt.Errorf("non-empty interface %s", t)
		}
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return g.checkType(t.Elem(), seen)
	case reflect.Map:
		if err := g.checkType(t.Key(), seen); err != nil {
			return err
		}
		return g.checkType(t.Elem(), seen)
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if !sf.IsExported() {
				if _, tagged := sf.Tag.Lookup("msgpack"); tagged {
					return fmt.Errorf("field %s.%s is tagged but unexported", t, sf.Name)
				}
				continue
			}
			if msgskema.ResolveStructKey(sf) == "-" {
				continue
			}
			if err := g.checkType(sf.Type, seen); err != nil {
				return fmt.Errorf("field %s.%s: %w", t, sf.Name, err)
			}
		}
	}
	return nil
}

func isScalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
