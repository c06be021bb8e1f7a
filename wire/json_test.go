package wire_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/reoring/msgskema/wire"
)

func TestFromJSON_PreservesOrder(t *testing.T) {
	v, err := wire.FromJSON([]byte(`{"z":1,"a":[true,null,"s"],"m":{"k":-2.5},"u":18446744073709551615}`))
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	pairs := v.Pairs()
	if len(pairs) != 4 {
		t.Fatalf("expected 4 members, got %d", len(pairs))
	}
	keys := []string{"z", "a", "m", "u"}
	for i, k := range keys {
		if pairs[i].Key.Str() != k {
			t.Fatalf("member %d: got key %q, want %q", i, pairs[i].Key.Str(), k)
		}
	}
	if pairs[0].Value.Kind() != wire.KindInt {
		t.Fatalf("integral number should decode as int, got %s", pairs[0].Value.Kind())
	}
	if pairs[2].Value.Pairs()[0].Value.Float64() != -2.5 {
		t.Fatalf("nested float lost: %s", pairs[2].Value)
	}
	if pairs[3].Value.Kind() != wire.KindUint {
		t.Fatalf("expected uint for max uint64, got %s", pairs[3].Value.Kind())
	}

	// survives a trip through the binary form
	var buf bytes.Buffer
	if err := wire.NewPacker(&buf).PackValue(v); err != nil {
		t.Fatalf("pack: %v", err)
	}
	back, err := wire.NewUnpacker(&buf).UnpackValue()
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if !wire.Equal(v, back) {
		t.Fatalf("mismatch after binary trip: %s vs %s", v, back)
	}
}

func TestValue_MarshalJSON(t *testing.T) {
	v := wire.Map(
		wire.Entry{Key: wire.String("b"), Value: wire.Bytes([]byte("hi"))},
		wire.Entry{Key: wire.Int(7), Value: wire.Array(wire.Float64(0.5), wire.Nil())},
	)
	got, err := v.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"b":"aGk=","7":[0.5,null]}`
	if string(got) != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestFromJSON_Invalid(t *testing.T) {
	if _, err := wire.FromJSON([]byte(`{"a":`)); err == nil {
		t.Fatalf("expected error for truncated document")
	}
}

func TestReadJSONStrict_DuplicateKeys(t *testing.T) {
	doc := `{"a":1,"b":{"x":1,"x":2}}`
	v, err := wire.ReadJSON(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("lenient read: %v", err)
	}
	if got := v.Pairs()[1].Value.Len(); got != 2 {
		t.Fatalf("lenient read must keep both members, got %d", got)
	}
	_, err = wire.ReadJSONStrict(strings.NewReader(doc))
	if !errors.Is(err, wire.ErrDuplicateKey) || !strings.Contains(err.Error(), `"x"`) {
		t.Fatalf("expected duplicate key error naming x, got %v", err)
	}
	// the same name in sibling objects is fine
	if _, err := wire.ReadJSONStrict(strings.NewReader(`[{"x":1},{"x":2}]`)); err != nil {
		t.Fatalf("strict read: %v", err)
	}
}

func TestReadJSON_Limits(t *testing.T) {
	deep := []byte(`[[[1]]]`)
	if _, err := wire.FromJSON(deep); err != nil {
		t.Fatalf("default limits: %v", err)
	}
	shallow := wire.WithLimits(wire.Limits{MaxDepth: 2})
	if _, err := wire.FromJSON(deep, shallow); !errors.Is(err, wire.ErrDepthExceeded) {
		t.Fatalf("expected depth error, got %v", err)
	}
	if _, err := wire.FromJSON([]byte(`[[1]]`), shallow); err != nil {
		t.Fatalf("depth 2: %v", err)
	}
	if _, err := wire.ReadJSONStrict(strings.NewReader(`{"a":{"b":{"c":1}}}`), shallow); !errors.Is(err, wire.ErrDepthExceeded) {
		t.Fatalf("strict: expected depth error, got %v", err)
	}

	short := wire.WithLimits(wire.Limits{MaxContainerLen: 3})
	if _, err := wire.FromJSON([]byte(`[1,2,3]`), short); err != nil {
		t.Fatalf("three items: %v", err)
	}
	if _, err := wire.FromJSON([]byte(`[1,2,3,4]`), short); !errors.Is(err, wire.ErrContainerTooLarge) {
		t.Fatalf("expected container error, got %v", err)
	}
	if _, err := wire.ReadJSON(strings.NewReader(`{"a":1,"b":2,"c":3,"d":4}`), short); !errors.Is(err, wire.ErrContainerTooLarge) {
		t.Fatalf("expected container error for object, got %v", err)
	}
}
