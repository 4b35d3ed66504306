// Package feistel implements the format-preserving shuffle used to draw
// the winning balls from a single random seed without rejection sampling.
//
// A balanced Feistel network is a permutation of its 2^n domain for any
// round function, so a four-round network keyed by the seed is first built
// over the smallest power-of-two-squared domain covering [0, M), then
// cycle-walked back into [0, M): repeatedly apply the same permutation to
// its own output until the result lands inside the target domain. Distinct
// inputs always map to distinct outputs because the cycle-walked map is
// itself a permutation of [0, M).
package feistel

import (
	"crypto/sha256"
	"encoding/binary"
	"math/bits"
	"sort"
)

// Rounds is the fixed round count spec.md §4.2 prescribes.
const Rounds = 4

// roundFunc is H(R || roundIndex || seed || domain), the same primitive
// (sha256) the rest of the system uses for identifier commitments. Its
// output is truncated to the first 8 bytes and masked by the caller.
func roundFunc(r uint64, round int, seed []byte, domain uint64) uint64 {
	h := sha256.New()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], r)
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], uint64(round))
	h.Write(buf[:])
	h.Write(seed)
	binary.BigEndian.PutUint64(buf[:], domain)
	h.Write(buf[:])
	sum := h.Sum(nil)
	return binary.BigEndian.Uint64(sum[:8])
}

// halfBitsFor returns the per-half bit width for a balanced Feistel network
// whose full domain (2^(2*halfBits)) covers [0, m).
func halfBitsFor(m uint64) int {
	if m <= 1 {
		return 0
	}
	needed := bits.Len64(m - 1) // bits to represent values 0..m-1
	return (needed + 1) / 2
}

// permute runs one pass of the balanced Feistel network over x, a value in
// [0, 2^(2*halfBits)).
func permute(x uint64, halfBits int, seed []byte, domain uint64) uint64 {
	mask := uint64(1)<<uint(halfBits) - 1
	l := (x >> uint(halfBits)) & mask
	r := x & mask
	for round := 0; round < Rounds; round++ {
		f := roundFunc(r, round, seed, domain) & mask
		l, r = r, l^f
	}
	return (l << uint(halfBits)) | r
}

// Shuffle maps x, a value in [0, m), to another value in [0, m), keyed by
// seed. It is a bijection: distinct x values (all < m) always produce
// distinct outputs. Deterministic in (x, m, seed).
func Shuffle(x uint64, m uint64, seed []byte) uint64 {
	if m <= 1 {
		return 0
	}
	halfBits := halfBitsFor(m)
	y := x
	for {
		y = permute(y, halfBits, seed, m)
		if y < m {
			return y
		}
	}
}

// DrawBalls produces n distinct ball values in [1, m], deterministic in
// (seed, n, m), sorted ascending. It is the direct implementation of
// spec.md §4.2's drawing algorithm: Shuffle is a permutation of [0, m), so
// feeding it the distinct inputs 0..n-1 yields n distinct outputs with no
// rejection sampling.
func DrawBalls(seed []byte, n int, m uint8) []uint8 {
	balls := make([]uint8, n)
	for i := 0; i < n; i++ {
		balls[i] = uint8(1 + Shuffle(uint64(i), uint64(m), seed))
	}
	sort.Slice(balls, func(i, j int) bool { return balls[i] < balls[j] })
	return balls
}
