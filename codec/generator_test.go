package codec_test

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	msgskema "github.com/reoring/msgskema"
	"github.com/reoring/msgskema/codec"
	"github.com/reoring/msgskema/wire"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name, result string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if result == "" {
				return m.GetCounter().GetValue()
			}
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "result" && lp.GetValue() == result {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

type flat struct {
	A int
	B string
}

func TestGenerator_CachesCodec(t *testing.T) {
	reg := prometheus.NewRegistry()
	g := codec.New(codec.WithMetrics(codec.NewMetrics(reg)))
	c1, err := g.GetOrGenerate(reflect.TypeFor[flat]())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	c2, err := g.GetOrGenerate(reflect.TypeFor[*flat]())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if c1 != c2 {
		t.Fatalf("expected the cached codec to be returned")
	}
	if got := counterValue(t, reg, "msgskema_codec_generations_total", codec.ResultOK); got != 1 {
		t.Fatalf("generations: got %v, want 1", got)
	}
	if got := counterValue(t, reg, "msgskema_codec_cache_hits_total", ""); got != 1 {
		t.Fatalf("cache hits: got %v, want 1", got)
	}
}

func TestGenerator_ConcurrentFirstUseGeneratesOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	g := codec.New(codec.WithMetrics(codec.NewMetrics(reg)))
	const n = 64
	var (
		wg     sync.WaitGroup
		start  = make(chan struct{})
		codecs = make([]codec.Codec, n)
		errs   = make([]error, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			codecs[i], errs[i] = g.GetOrGenerate(reflect.TypeFor[flat]())
		}(i)
	}
	close(start)
	wg.Wait()
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("goroutine %d: %v", i, errs[i])
		}
		if codecs[i] != codecs[0] {
			t.Fatalf("goroutine %d got a different codec", i)
		}
	}
	if got := counterValue(t, reg, "msgskema_codec_generations_total", codec.ResultOK); got != 1 {
		t.Fatalf("generations: got %v, want 1", got)
	}
}

type withChan struct {
	C chan int
}

type withFunc struct {
	Name string
	F    func()
}

type withTaggedUnexported struct {
	Name   string
	secret string `msgpack:"secret"`
}

type withStringer struct {
	S fmt.Stringer
}

type withNested struct {
	Inner struct {
		Z complex128
	}
}

func TestGenerator_GenerationErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	g := codec.New(codec.WithMetrics(codec.NewMetrics(reg)))
	for _, typ := range []reflect.Type{
		reflect.TypeFor[withChan](),
		reflect.TypeFor[withFunc](),
		reflect.TypeFor[withTaggedUnexported](),
		reflect.TypeFor[withStringer](),
		reflect.TypeFor[withNested](),
		reflect.TypeFor[[]int](),
		reflect.TypeFor[map[string]int](),
		nil,
	} {
		_, err := g.GetOrGenerate(typ)
		var ge *msgskema.GenerationError
		if !errors.As(err, &ge) || !errors.Is(err, msgskema.ErrCodecGeneration) {
			t.Fatalf("%v: expected generation error, got %v", typ, err)
		}
		if typ != nil && ge.Type != typ {
			t.Fatalf("%v: error names %v", typ, ge.Type)
		}
	}
	// failures are not cached; the nil type never reaches generation
	_, _ = g.GetOrGenerate(reflect.TypeFor[withChan]())
	if got := counterValue(t, reg, "msgskema_codec_generations_total", codec.ResultGenerationError); got != 8 {
		t.Fatalf("generation errors: got %v, want 8", got)
	}
}

type panicky struct{ N int }

func (p *panicky) PackMsg(msgskema.Packer) error {
	panic("boom")
}

func (p *panicky) UnpackMsg(msgskema.Unpacker) error { return nil }

type lossy struct{ N int }

func (l *lossy) PackMsg(p msgskema.Packer) error { return p.PackInt64(int64(l.N)) }

func (l *lossy) UnpackMsg(u msgskema.Unpacker) error {
	return errors.New("cannot read back")
}

func TestGenerator_InstantiationErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	g := codec.New(codec.WithMetrics(codec.NewMetrics(reg)))
	for _, tc := range []struct {
		typ  reflect.Type
		want string
	}{
		{reflect.TypeFor[panicky](), "boom"},
		{reflect.TypeFor[lossy](), "cannot read back"},
	} {
		_, err := g.GetOrGenerate(tc.typ)
		var ie *msgskema.InstantiationError
		if !errors.As(err, &ie) || !errors.Is(err, msgskema.ErrCodecInstantiation) {
			t.Fatalf("%v: expected instantiation error, got %v", tc.typ, err)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%v: error %q does not mention %q", tc.typ, err, tc.want)
		}
	}
	if got := counterValue(t, reg, "msgskema_codec_generations_total", codec.ResultInstantiationError); got != 2 {
		t.Fatalf("instantiation errors: got %v, want 2", got)
	}
}

// point packs itself as a two element array of int32 with swapped order.
type point struct{ X, Y int32 }

func (p *point) PackMsg(pk msgskema.Packer) error {
	if err := pk.PackArray(2); err != nil {
		return err
	}
	if err := pk.PackInt32(p.Y); err != nil {
		return err
	}
	return pk.PackInt32(p.X)
}

func (p *point) UnpackMsg(u msgskema.Unpacker) error {
	n, err := u.UnpackArray()
	if err != nil {
		return err
	}
	if n != 2 {
		return msgskema.ArityError("point", 2, n)
	}
	if p.Y, err = msgskema.UnpackNumber[int32](u); err != nil {
		return err
	}
	p.X, err = msgskema.UnpackNumber[int32](u)
	return err
}

type shape struct {
	Name   string
	Origin point
	Path   []point
}

func TestGenerator_PrefersPackable(t *testing.T) {
	data, err := codec.Marshal(point{X: 1, Y: 2})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	v, _ := msgskema.DecodeValue(data)
	if !wire.Equal(v, wire.Array(wire.Int(2), wire.Int(1))) {
		t.Fatalf("PackMsg was not used: %s", v)
	}

	in := shape{Name: "tri", Origin: point{X: 1, Y: 2}, Path: []point{{3, 4}, {5, 6}}}
	data, err = codec.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out, err := codec.UnmarshalAs[shape](data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Fatalf("got %#v, want %#v", out, in)
	}
}

// cents is carried as a single integer by a user template.
type cents struct{ Amount int64 }

type centsTemplate struct{}

func (centsTemplate) Pack(p msgskema.Packer, v any) error {
	switch c := v.(type) {
	case cents:
		return p.PackInt64(c.Amount)
	case *cents:
		return p.PackInt64(c.Amount)
	}
	return msgskema.InvalidConvert(v, "cents")
}

func (centsTemplate) Unpack(u msgskema.Unpacker) (any, error) {
	n, err := msgskema.UnpackNumber[int64](u)
	return cents{Amount: n}, err
}

func (t centsTemplate) Convert(v msgskema.Value) (any, error) {
	n, ok := msgskema.ValueNumber[int64](v)
	if !ok {
		return nil, msgskema.InvalidConvert(v, "cents")
	}
	return cents{Amount: n}, nil
}

type invoice struct {
	Total cents
	Lines []cents
}

func TestGenerator_UsesRegistryTemplates(t *testing.T) {
	reg := msgskema.DefaultRegistry().Clone()
	if err := reg.Register(reflect.TypeFor[cents](), centsTemplate{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	g := codec.New(codec.WithRegistry(reg))
	in := invoice{Total: cents{1999}, Lines: []cents{{999}, {1000}}}
	data, err := g.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	v, _ := msgskema.DecodeValue(data)
	want := wire.Array(wire.Int(1999), wire.Array(wire.Int(999), wire.Int(1000)))
	if !wire.Equal(v, want) {
		t.Fatalf("got %s, want %s", v, want)
	}
	var out invoice
	if err := g.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Fatalf("got %#v, want %#v", out, in)
	}

	// the default generator does not know the template and treats cents as a record
	data, err = codec.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	v, _ = msgskema.DecodeValue(data)
	if wire.Equal(v, want) {
		t.Fatalf("default generator must not see the private registry")
	}
}

func TestGenerator_BuiltinScalarTypes(t *testing.T) {
	c, err := codec.GetOrGenerate(reflect.TypeFor[int]())
	if err != nil {
		t.Fatalf("int: %v", err)
	}
	var buf bytes.Buffer
	if err := c.Pack(wire.NewPacker(&buf), 300); err != nil {
		t.Fatalf("pack: %v", err)
	}
	got, err := c.Unpack(wire.NewUnpackerBytes(buf.Bytes()))
	if err != nil || got != 300 {
		t.Fatalf("unpack: got %v, %v", got, err)
	}

	for _, tc := range []struct {
		typ reflect.Type
		in  any
	}{
		{reflect.TypeFor[string](), "héllo"},
		{reflect.TypeFor[bool](), true},
		{reflect.TypeFor[float64](), 2.5},
		{reflect.TypeFor[uint16](), uint16(65535)},
		{reflect.TypeFor[[]byte](), []byte{1, 2, 3}},
	} {
		c, err := codec.GetOrGenerate(tc.typ)
		if err != nil {
			t.Fatalf("%v: %v", tc.typ, err)
		}
		buf.Reset()
		if err := c.Pack(wire.NewPacker(&buf), tc.in); err != nil {
			t.Fatalf("%v: pack: %v", tc.typ, err)
		}
		out, err := c.Unpack(wire.NewUnpackerBytes(buf.Bytes()))
		if err != nil || !reflect.DeepEqual(out, tc.in) {
			t.Fatalf("%v: got %#v, %v", tc.typ, out, err)
		}
	}

	s, err := codec.For[string]()
	if err != nil || s.Type() != reflect.TypeFor[string]() {
		t.Fatalf("For[string]: %v, %v", s, err)
	}
}

func TestGenerator_LogsGeneration(t *testing.T) {
	var buf bytes.Buffer
	g := codec.New(codec.WithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)))
	if _, err := g.GetOrGenerate(reflect.TypeFor[flat]()); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := g.GetOrGenerate(reflect.TypeFor[withChan]()); err == nil {
		t.Fatalf("expected failure")
	}
	out := buf.String()
	for _, want := range []string{`"message":"codec generated"`, `"type":"codec_test.flat"`, `"kind":"record"`, `"message":"codec generation failed"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output %q missing %s", out, want)
		}
	}
}
