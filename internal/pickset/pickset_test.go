package pickset

import (
	"reflect"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := [][]uint8{
		{3, 11, 22, 29, 42},
		{1},
		{1, 2, 3, 4, 5, 6, 7},
		{1, 255},
		{250, 251, 252, 253, 254, 255},
	}
	for _, picks := range cases {
		id := Encode(picks)
		got := Decode(id, len(picks))
		if !reflect.DeepEqual(got, picks) {
			t.Errorf("round trip: Encode(%v) -> Decode = %v", picks, got)
		}
		if id.PopCount() != len(picks) {
			t.Errorf("PopCount(%v) = %d, want %d", picks, id.PopCount(), len(picks))
		}
	}
}

func TestEncodeOrderIndependent(t *testing.T) {
	a := Encode([]uint8{3, 11, 22})
	b := Encode([]uint8{22, 3, 11})
	if a != b {
		t.Fatalf("identical members in different order produced different ids: %v vs %v", a, b)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate([]uint8{1, 2, 3}, 3, 69); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Validate([]uint8{1, 2}, 3, 69); err == nil {
		t.Fatal("expected error for wrong length")
	}
	if err := Validate([]uint8{0, 2, 3}, 3, 69); err == nil {
		t.Fatal("expected RangeError for value 0")
	} else if _, ok := err.(*RangeError); !ok {
		t.Fatalf("expected *RangeError, got %T", err)
	}
	if err := Validate([]uint8{1, 2, 70}, 3, 69); err == nil {
		t.Fatal("expected RangeError for value above max")
	}
	if err := Validate([]uint8{3, 2, 1}, 3, 69); err == nil {
		t.Fatal("expected OrderError for descending picks")
	} else if _, ok := err.(*OrderError); !ok {
		t.Fatalf("expected *OrderError, got %T", err)
	}
	if err := Validate([]uint8{1, 1, 2}, 3, 69); err == nil {
		t.Fatal("expected OrderError for duplicate picks (non-strict ascending)")
	}
}

func TestIsZero(t *testing.T) {
	var z ID
	if !z.IsZero() {
		t.Fatal("zero value should be IsZero")
	}
	if Encode([]uint8{1}).IsZero() {
		t.Fatal("non-empty id should not be IsZero")
	}
}

func TestZeroNeverArisesFromValidPick(t *testing.T) {
	// Ball values start at 1, so no valid single-pick encode can equal the
	// zero ID that spec.md §3 reserves for "not yet drawn".
	for b := uint8(1); b < 255; b++ {
		if Encode([]uint8{b}).IsZero() {
			t.Fatalf("Encode([%d]) unexpectedly zero", b)
		}
	}
}
