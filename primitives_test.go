package msgskema_test

import (
	"math"
	"testing"

	"github.com/reoring/msgskema"
	"github.com/reoring/msgskema/wire"
)

func TestNarrow_Truncation(t *testing.T) {
	if got := msgskema.Narrow[int8](int64(300)); got != 44 {
		t.Fatalf("300 -> int8: got %d, want 44", got)
	}
	if got := msgskema.Narrow[int8](int64(-129)); got != 127 {
		t.Fatalf("-129 -> int8: got %d, want 127", got)
	}
	if got := msgskema.Narrow[int16](int64(70000)); got != 4464 {
		t.Fatalf("70000 -> int16: got %d, want 4464", got)
	}
	if got := msgskema.Narrow[uint8](int64(-1)); got != 255 {
		t.Fatalf("-1 -> uint8: got %d, want 255", got)
	}
	if got := msgskema.Narrow[int32](uint64(math.MaxUint64)); got != -1 {
		t.Fatalf("max uint64 -> int32: got %d, want -1", got)
	}
}

func TestNarrow_FromFloat(t *testing.T) {
	cases := []struct {
		in   float64
		want int8
	}{
		{3.99, 3},
		{-3.99, -3},
		{300.5, 44},
		{math.NaN(), 0},
		{math.Inf(1), -1}, // saturates to MaxInt64, low byte 0xff
	}
	for _, tc := range cases {
		if got := msgskema.Narrow[int8](tc.in); got != tc.want {
			t.Fatalf("Narrow[int8](%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
	if got := msgskema.Narrow[uint64](1e19); got != 10000000000000000000 {
		t.Fatalf("1e19 -> uint64: got %d", got)
	}
	if got := msgskema.Narrow[float32](float64(1.5)); got != 1.5 {
		t.Fatalf("float64 -> float32: got %v", got)
	}
}

type celsius float64

func TestNumberOf(t *testing.T) {
	n := int16(9)
	cases := []struct {
		in   any
		want int32
		ok   bool
	}{
		{int64(5), 5, true},
		{celsius(-2.5), -2, true},
		{&n, 9, true},
		{(*int16)(nil), 0, false},
		{"7", 0, false},
		{true, 0, false},
		{wire.Int(1 << 40), 0, true},
	}
	for i, tc := range cases {
		got, ok := msgskema.NumberOf[int32](tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("case %d: NumberOf(%v) = %d, %v; want %d, %v", i, tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestUnpackNumber(t *testing.T) {
	data := packAll(t, func(p *wire.Packer) error {
		for _, step := range []func() error{
			func() error { return p.PackInt64(300) },
			func() error { return p.PackNil() },
			func() error { return p.PackFloat64(-7.9) },
			func() error { return p.PackString("x") },
		} {
			if err := step(); err != nil {
				return err
			}
		}
		return nil
	})
	u := wire.NewUnpackerBytes(data)
	if v, err := msgskema.UnpackNumber[int8](u); err != nil || v != 44 {
		t.Fatalf("got %d, %v", v, err)
	}
	if v, err := msgskema.UnpackNumber[int8](u); err != nil || v != 0 {
		t.Fatalf("nil should give zero, got %d, %v", v, err)
	}
	if v, err := msgskema.UnpackNumber[int8](u); err != nil || v != -7 {
		t.Fatalf("got %d, %v", v, err)
	}
	if _, err := msgskema.UnpackNumber[int8](u); err == nil {
		t.Fatalf("expected type error for str")
	}
}
