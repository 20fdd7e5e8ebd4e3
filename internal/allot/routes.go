// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package allot precomputes the allotment bitsets used by the overlap
// tests: for every base index of the complete binary tree, the set of
// more specific indices it allots (PrefixRoutesTbl) and the set of
// octets at the next stride it covers (FringeRoutesTbl).
//
// Please read the ART paper to understand the allotment algorithm.
package allot

import (
	"github.com/packetflow/triebase/internal/art"
	"github.com/packetflow/triebase/internal/bitset"
)

// PrefixRoutesTbl[idx] is idx and all of its descendants in the complete
// binary tree, i.e. every more specific base index that idx allots.
// Used to test whether a candidate prefix overlaps any already stored,
// more specific prefix in the same node.
var PrefixRoutesTbl [256]bitset.BitSet256

// FringeRoutesTbl[idx] is the octet range [first, last] that idx covers
// at the next stride, i.e. the set of child addresses a prefix at idx
// would shadow. Used to test whether a candidate prefix overlaps an
// existing child (node, leaf or fringe) in the same node.
var FringeRoutesTbl [256]bitset.BitSet256

func init() {
	for idx := 1; idx < 256; idx++ {
		allotRec(&PrefixRoutesTbl[idx], uint8(idx))

		first, last := art.IdxToRange(uint8(idx))
		for octet := int(first); octet <= int(last); octet++ {
			FringeRoutesTbl[idx].MustSet(uint8(octet))
		}
	}
}

// allotRec sets idx and recursively its two children in the complete
// binary tree, stopping at the deepest storable level (idx >= 128,
// prefix length 7 - the last length a node's prefixes array can hold).
func allotRec(bs *bitset.BitSet256, idx uint8) {
	bs.MustSet(idx)
	if idx >= 128 {
		return
	}
	allotRec(bs, idx<<1)
	allotRec(bs, idx<<1+1)
}

// IdxToPrefixRoutes returns the precomputed allotment bitset for idx.
func IdxToPrefixRoutes(idx uint8) *bitset.BitSet256 {
	return &PrefixRoutesTbl[idx]
}

// IdxToFringeRoutes returns the precomputed octet-range bitset for idx.
func IdxToFringeRoutes(idx uint8) *bitset.BitSet256 {
	return &FringeRoutesTbl[idx]
}
