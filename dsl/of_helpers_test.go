package dsl_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	msgskema "github.com/reoring/msgskema"
	"github.com/reoring/msgskema/codec"
	g "github.com/reoring/msgskema/dsl"
)

type address struct {
	City string `msgpack:"city"`
	Zip  *string
}

type customer struct {
	ID      uuid.UUID         `msgpack:"id"`
	Since   time.Time         `msgpack:"since"`
	Age     int               `msgpack:"age"`
	Scores  []float32         `msgpack:"scores"`
	Avatar  []byte            `msgpack:"avatar"`
	Home    *address          `msgpack:"home"`
	Labels  map[string]uint16 `msgpack:"labels"`
	Ignored string            `msgpack:"-"`
}

type node struct {
	Next *node
}

func TestOf_Struct(t *testing.T) {
	s, err := g.OfType[customer]()
	if err != nil {
		t.Fatalf("of: %v", err)
	}
	want := "(class customer" +
		" (field id uuid)" +
		" (field since timestamp)" +
		" (field age long)" +
		" (field scores (array float))" +
		" (field avatar raw)" +
		" (field home (class address (field city string) (field Zip string)))" +
		" (field labels (map string ushort)))"
	if s.Expression() != want {
		t.Fatalf("got %q\nwant %q", s.Expression(), want)
	}
}

func TestOf_StructRoundTrip(t *testing.T) {
	s, err := g.OfType[customer]()
	if err != nil {
		t.Fatalf("of: %v", err)
	}
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	since := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	in := customer{ID: id, Since: since, Age: 41, Avatar: []byte{1}, Labels: map[string]uint16{"vip": 1}}
	got := convertBytes(t, s, packBytes(t, s, in)).(map[string]any)
	if got["id"] != id || !got["since"].(time.Time).Equal(since) || got["age"] != int64(41) {
		t.Fatalf("unexpected record %#v", got)
	}
	if got["home"] != nil || got["scores"] != nil {
		t.Fatalf("nil fields must stay nil: %#v", got)
	}
	if !reflect.DeepEqual(got["labels"], map[any]any{"vip": uint16(1)}) {
		t.Fatalf("labels: %#v", got["labels"])
	}
}

func TestOf_Rejects(t *testing.T) {
	for _, typ := range []reflect.Type{
		reflect.TypeFor[node](),
		reflect.TypeFor[chan int](),
		reflect.TypeFor[func()](),
		reflect.TypeFor[any](),
		reflect.TypeFor[struct{ C complex128 }](),
		nil,
	} {
		if _, err := g.Of(typ); err == nil {
			t.Fatalf("%v: expected error", typ)
		}
	}
}

func TestOf_Scalars(t *testing.T) {
	cases := map[reflect.Type]msgskema.Schema{
		reflect.TypeFor[uint]():      g.Uint64(),
		reflect.TypeFor[*int8]():     g.Int8(),
		reflect.TypeFor[[4]byte]():   g.Raw(),
		reflect.TypeFor[[]string](): g.Array(g.String()),
	}
	for typ, want := range cases {
		got, err := g.Of(typ)
		if err != nil {
			t.Fatalf("%v: %v", typ, err)
		}
		if got.Expression() != want.Expression() {
			t.Fatalf("%v: got %q, want %q", typ, got.Expression(), want.Expression())
		}
	}
}

type blob []byte

type checksum struct {
	Digest [4]byte
	Body   blob
	Note   *blob
}

func TestOf_ByteKindsRoundTrip(t *testing.T) {
	s, err := g.OfType[checksum]()
	if err != nil {
		t.Fatalf("of: %v", err)
	}
	if got, want := s.Expression(), "(class checksum (field Digest raw) (field Body raw) (field Note raw))"; got != want {
		t.Fatalf("expression:\n got %s\nwant %s", got, want)
	}

	note := blob("n")
	in := checksum{Digest: [4]byte{0xde, 0xad, 0xbe, 0xef}, Body: blob("payload"), Note: &note}
	data, err := msgskema.Encode(s, in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := msgskema.Decode(s, data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{"Digest": []byte{0xde, 0xad, 0xbe, 0xef}, "Body": []byte("payload"), "Note": []byte("n")}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("decoded %#v, want %#v", out, want)
	}

	back, err := codec.UnmarshalAs[checksum](data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(back, in) {
		t.Fatalf("round trip %+v, want %+v", back, in)
	}

	// nil named slices and pointers pack as nil
	data, err = msgskema.Encode(s, checksum{})
	if err != nil {
		t.Fatalf("encode zero: %v", err)
	}
	out, err = msgskema.Decode(s, data)
	if err != nil {
		t.Fatalf("decode zero: %v", err)
	}
	if m := out.(map[string]any); m["Body"] != nil || m["Note"] != nil {
		t.Fatalf("zero value decoded %#v", m)
	}
}
