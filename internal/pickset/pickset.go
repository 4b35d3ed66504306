// Package pickset implements the PickSet codec: the canonical mapping
// between an ordered N-tuple of ball values and a fixed-width identifier.
package pickset

import (
	"fmt"
	"math/bits"
)

// words is the number of 64-bit words backing an ID. 4 words covers ball
// values 0..255 inclusive, matching maxBallValue's 255 ceiling.
const words = 4

// MaxBallValue is the upper bound a ball value may take. Value 0 is never
// a valid pick.
const MaxBallValue = 255

// ID is a canonical, order-independent identifier for a set of ball
// values. Two pick sets with identical members encode to the same ID.
// The zero ID never arises from a valid pick set (pick values start at 1).
type ID [words]uint64

// Encode sets the bit for each value in picks and returns the resulting
// identifier. It does not validate ordering, range, or distinctness; call
// Validate first, the way callers of the codec are expected to per the
// codec's contract.
func Encode(picks []uint8) ID {
	var id ID
	for _, b := range picks {
		word, bit := uint(b)/64, uint(b)%64
		id[word] |= 1 << bit
	}
	return id
}

// Validate checks that picks has exactly n entries, each in [1, maxBall],
// strictly ascending (which forbids duplicates). It reports the same kind
// of failure spec.md §4.1 names so callers can surface InvalidBallValue or
// UnsortedPicks distinctly.
func Validate(picks []uint8, n int, maxBall uint8) error {
	if len(picks) != n {
		return fmt.Errorf("pickset: expected %d picks, got %d", n, len(picks))
	}
	var prev uint8
	for i, b := range picks {
		if b < 1 || b > maxBall {
			return &RangeError{Value: b, Max: maxBall}
		}
		if i > 0 && b <= prev {
			return &OrderError{Index: i, Prev: prev, Value: b}
		}
		prev = b
	}
	return nil
}

// RangeError reports a pick outside [1, Max].
type RangeError struct {
	Value uint8
	Max   uint8
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("pickset: value %d out of range [1,%d]", e.Value, e.Max)
}

// OrderError reports a pick that breaks strict ascending order.
type OrderError struct {
	Index int
	Prev  uint8
	Value uint8
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("pickset: picks[%d]=%d does not exceed previous value %d", e.Index, e.Value, e.Prev)
}

// Decode returns the first n set bit positions of id in ascending order.
// It is the left inverse of Encode for any id produced by a valid n-pick
// set: Decode(Encode(picks), len(picks)) == picks for strictly ascending,
// in-range picks.
func Decode(id ID, n int) []uint8 {
	out := make([]uint8, 0, n)
	for word := 0; word < words && len(out) < n; word++ {
		w := id[word]
		for w != 0 && len(out) < n {
			bit := bits.TrailingZeros64(w)
			out = append(out, uint8(word*64+bit))
			w &^= 1 << uint(bit)
		}
	}
	return out
}

// PopCount returns the number of set bits in id, i.e. the size of the
// decoded pick set.
func (id ID) PopCount() int {
	n := 0
	for _, w := range id {
		n += bits.OnesCount64(w)
	}
	return n
}

// IsZero reports whether id has no bits set, the sentinel value for "not
// yet drawn" per spec.md §3 (winningPickId is 0 until drawn).
func (id ID) IsZero() bool {
	return id == ID{}
}

// String renders id as a fixed-width hex string, useful for logs and
// event attributes.
func (id ID) String() string {
	return fmt.Sprintf("%016x%016x%016x%016x", id[3], id[2], id[1], id[0])
}
