// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package lpm precomputes the backtracking bitset used to do a longest
// prefix match inside a single stride's complete binary tree in O(1):
// for every possible base index, the set of all its ancestors (including
// itself) up to the root.
package lpm

import "github.com/packetflow/triebase/internal/bitset"

// LookupTbl[idx] holds the bitset of idx and all its ancestors in the
// complete binary tree, i.e. idx, idx>>1, idx>>2, ... down to 1.
//
// A node's stored-prefixes bitset intersected with LookupTbl[idx] yields,
// via [bitset.BitSet256.IntersectionTop], the longest matching prefix for
// a search key mapping to idx.
var LookupTbl [256]bitset.BitSet256

func init() {
	for idx := 1; idx < 256; idx++ {
		bs := LookupTbl[idx>>1]
		bs.MustSet(uint8(idx))
		LookupTbl[idx] = bs
	}
}

// BackTrackingBitset returns the precomputed ancestor bitset for idx.
// idx 0 is not a valid base index and returns the empty bitset.
func BackTrackingBitset(idx uint8) *bitset.BitSet256 {
	return &LookupTbl[idx]
}
