// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package bitset implements a fixed-size 256 bit set, the building block
// for the popcount-compressed sparse arrays used at every trie level.
//
// Studied [github.com/bits-and-blooms/bitset] inside out and rewrote the
// needed parts from scratch, specialized to a fixed width of 256 bits so
// every node carries exactly 4 uint64 words, fits a cacheline and unrolls
// well in hot loops.
package bitset

import (
	"fmt"
	"math/bits"
)

// BitSet256 represents a fixed size bitset for values in [0..255].
type BitSet256 [4]uint64

func (b *BitSet256) String() string {
	return fmt.Sprint(b.All())
}

// MustSet sets the bit. The name signals that the caller guarantees the
// bitset/slice coupling in sparse.Array256 is maintained elsewhere;
// callers outside that package should prefer a coupled setter instead.
func (b *BitSet256) MustSet(bit uint8) {
	b[bit>>6] |= 1 << (bit & 63)
}

// MustClear clears the bit.
func (b *BitSet256) MustClear(bit uint8) {
	b[bit>>6] &^= 1 << (bit & 63)
}

// Test reports whether the bit is set.
func (b *BitSet256) Test(bit uint8) bool {
	return b[bit>>6]&(1<<(bit&63)) != 0
}

// FirstSet returns the first bit set, and whether any bit is set at all.
func (b *BitSet256) FirstSet() (first uint8, ok bool) {
	if x := bits.TrailingZeros64(b[0]); x != 64 {
		return uint8(x), true
	} else if x := bits.TrailingZeros64(b[1]); x != 64 {
		return uint8(x + 64), true
	} else if x := bits.TrailingZeros64(b[2]); x != 64 {
		return uint8(x + 128), true
	} else if x := bits.TrailingZeros64(b[3]); x != 64 {
		return uint8(x + 192), true
	}
	return 0, false
}

// NextSet returns the next set bit starting at (and including) bit.
func (b *BitSet256) NextSet(bit uint8) (uint8, bool) {
	wIdx := bit >> 6

	first := b[wIdx] >> (bit & 63)
	if first != 0 {
		return bit + uint8(bits.TrailingZeros64(first)), true
	}

	for wIdx++; wIdx < 4; wIdx++ {
		if word := b[wIdx]; word != 0 {
			return wIdx<<6 + uint8(bits.TrailingZeros64(word)), true
		}
	}
	return 0, false
}

// AsSlice returns all set bits appended to buf, without heap allocation
// if buf has enough capacity. It panics if cap(buf) < Size().
func (b *BitSet256) AsSlice(buf []uint8) []uint8 {
	buf = buf[:cap(buf)]

	size := 0
	for wIdx, word := range b {
		for ; word != 0; size++ {
			buf[size] = uint8(wIdx<<6 + bits.TrailingZeros64(word))
			word &= word - 1 // clear the rightmost set bit
		}
	}

	return buf[:size]
}

// All returns all set bits. Simpler API than AsSlice but always allocates.
func (b *BitSet256) All() []uint8 {
	return b.AsSlice(make([]uint8, 0, 256))
}

// Bits is an alias for All, used where the bitset represents a set of
// octet/idx values rather than an opaque mask.
func (b *BitSet256) Bits() []uint8 {
	return b.All()
}

// IntersectionTop returns the highest set bit of the intersection of b and
// c, and true if the intersection is non-empty. Used for the CBT
// backtracking LPM test: the highest surviving bit is the longest match.
func (b *BitSet256) IntersectionTop(c *BitSet256) (top uint8, ok bool) {
	for wIdx := 3; wIdx >= 0; wIdx-- {
		if word := b[wIdx] & c[wIdx]; word != 0 {
			return uint8(wIdx<<6+bits.Len64(word)) - 1, true
		}
	}
	return 0, false
}

// Rank0 returns the number of set bits up to and including idx, minus 1 -
// i.e. the slot index of idx in a popcount-compressed companion slice.
func (b *BitSet256) Rank0(idx uint8) (rnk int) {
	rnk += bits.OnesCount64(b[0] & rankMask[idx][0])
	rnk += bits.OnesCount64(b[1] & rankMask[idx][1])
	rnk += bits.OnesCount64(b[2] & rankMask[idx][2])
	rnk += bits.OnesCount64(b[3] & rankMask[idx][3])
	rnk--
	return rnk
}

// IsEmpty reports whether no bit is set.
func (b *BitSet256) IsEmpty() bool {
	return b[0] == 0 && b[1] == 0 && b[2] == 0 && b[3] == 0
}

// Intersects reports whether the intersection of b and c is non-empty.
func (b *BitSet256) Intersects(c *BitSet256) bool {
	return b[0]&c[0] != 0 ||
		b[1]&c[1] != 0 ||
		b[2]&c[2] != 0 ||
		b[3]&c[3] != 0
}

// Intersection computes the bitwise AND of b and c.
func (b *BitSet256) Intersection(c *BitSet256) (bs BitSet256) {
	bs[0] = b[0] & c[0]
	bs[1] = b[1] & c[1]
	bs[2] = b[2] & c[2]
	bs[3] = b[3] & c[3]
	return bs
}

// Union computes the bitwise OR of b and c.
func (b *BitSet256) Union(c *BitSet256) (bs BitSet256) {
	bs[0] = b[0] | c[0]
	bs[1] = b[1] | c[1]
	bs[2] = b[2] | c[2]
	bs[3] = b[3] | c[3]
	return bs
}

// IntersectionCardinality returns the popcount of the intersection.
func (b *BitSet256) IntersectionCardinality(c *BitSet256) (cnt int) {
	cnt += bits.OnesCount64(b[0] & c[0])
	cnt += bits.OnesCount64(b[1] & c[1])
	cnt += bits.OnesCount64(b[2] & c[2])
	cnt += bits.OnesCount64(b[3] & c[3])
	return cnt
}

// Size returns the number of set bits.
func (b *BitSet256) Size() (cnt int) {
	cnt += bits.OnesCount64(b[0])
	cnt += bits.OnesCount64(b[1])
	cnt += bits.OnesCount64(b[2])
	cnt += bits.OnesCount64(b[3])
	return cnt
}

// rankMask[i] has all bits [0..i] set, the rest zero:
//
//	rankMask[7] = 0b1111_1111
//
// Used by Rank0 as: popcount(b & rankMask[idx]).
//
// Generated once at package init instead of carried as a literal table.
var rankMask [256]BitSet256

func init() {
	var cur BitSet256
	for i := range rankMask {
		cur.MustSet(uint8(i))
		rankMask[i] = cur
	}
}
