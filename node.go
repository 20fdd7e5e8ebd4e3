// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package triebase

import (
	"cmp"
	"iter"
	"net/netip"
	"slices"

	"github.com/packetflow/triebase/internal/art"
	"github.com/packetflow/triebase/internal/lpm"
	"github.com/packetflow/triebase/internal/sparse"
)

// strideLen is the byte stride length for the multibit trie.
// Each stride processes 8 bits (1 byte) at a time.
const strideLen = 8

// maxItems is the maximum number of prefixes or children a single node
// can hold: 256 possible values for an 8-bit stride.
const maxItems = 256

// maxTreeDepth is the maximum depth of the trie: 16 octets for IPv6.
const maxTreeDepth = 16

// depthMask is used for bounds-check elimination (BCE) when indexing
// depth-sized arrays.
const depthMask = maxTreeDepth - 1

// stridePath is a path through the trie, up to 16 octets for IPv6.
type stridePath [maxTreeDepth]uint8

// node is a trie level in the multibit routing table.
//
// Each node holds two conceptually different arrays:
//   - prefixes: routes stored in a complete binary tree layout, addressed
//     by the ART base-index mapping.
//   - children: subtries or path-compressed leaves/fringes, branching
//     factor 256 (8 bits per stride).
//
// Both arrays are popcount-compressed sparse arrays: no slot is
// pre-allocated, insert/lookup rely on bitset operations and
// precomputed rank.
type node[V any] struct {
	// prefixes holds routing entries (idx -> value) keyed by the
	// complete-binary-tree base index.
	prefixes sparse.Array256[V]

	// children holds, per octet address 0..255:
	//   - *node[V]    an internal child for further traversal
	//   - *leafNode[V]   a path-compressed entry, depth < lastOctet
	//   - *fringeNode[V] a path-compressed entry, depth == lastOctet
	//     (stride-aligned: /8, /16, ... /128)
	//
	// Full-length prefixes (/32, /128) never get a node at depth 4 or
	// maxTreeDepth: they are always stored here, as fringes.
	children sparse.Array256[any]
}

// isEmpty reports whether the node holds no prefixes and no children.
func (n *node[V]) isEmpty() bool {
	if n == nil {
		return true
	}
	return n.prefixes.Len() == 0 && n.children.Len() == 0
}

// prefixCount returns the number of prefixes stored in this node.
func (n *node[V]) prefixCount() int {
	return n.prefixes.Len()
}

// childCount returns the number of children stored in this node.
func (n *node[V]) childCount() int {
	return n.children.Len()
}

// insertPrefix adds val at idx, returning true if idx was already set.
func (n *node[V]) insertPrefix(idx uint8, val V) (exists bool) {
	return n.prefixes.InsertAt(idx, val)
}

// getPrefix retrieves the value stored at idx.
func (n *node[V]) getPrefix(idx uint8) (val V, exists bool) {
	return n.prefixes.Get(idx)
}

// getIndices returns all base indices with a stored prefix in this node.
func (n *node[V]) getIndices() []uint8 {
	var buf [256]uint8
	return n.prefixes.AsSlice(buf[:0])
}

// allIndices iterates over every (idx, value) pair stored in this node.
func (n *node[V]) allIndices() iter.Seq2[uint8, V] {
	return func(yield func(uint8, V) bool) {
		var buf [256]uint8
		for _, idx := range n.prefixes.AsSlice(buf[:0]) {
			if !yield(idx, n.mustGetPrefix(idx)) {
				return
			}
		}
	}
}

// mustGetPrefix retrieves the value at idx without a presence check; the
// result is undefined if idx is absent (see sparse.Array256.MustGet).
func (n *node[V]) mustGetPrefix(idx uint8) (val V) {
	return n.prefixes.MustGet(idx)
}

// deletePrefix removes the prefix at idx, returning its value if present.
func (n *node[V]) deletePrefix(idx uint8) (val V, exists bool) {
	return n.prefixes.DeleteAt(idx)
}

// insertChild sets the child at addr, returning true if one already existed.
func (n *node[V]) insertChild(addr uint8, child any) (exists bool) {
	return n.children.InsertAt(addr, child)
}

// getChild retrieves the child at addr.
func (n *node[V]) getChild(addr uint8) (any, bool) {
	return n.children.Get(addr)
}

// getChildAddrs returns every address with a child in this node.
func (n *node[V]) getChildAddrs() []uint8 {
	var buf [256]uint8
	return n.children.AsSlice(buf[:0])
}

// allChildren iterates over every (addr, child) pair in this node.
func (n *node[V]) allChildren() iter.Seq2[uint8, any] {
	return func(yield func(addr uint8, child any) bool) {
		var buf [256]uint8
		addrs := n.children.AsSlice(buf[:0])
		for i, addr := range addrs {
			if !yield(addr, n.children.Items[i]) {
				return
			}
		}
	}
}

// mustGetChild retrieves the child at addr without a presence check; the
// result is undefined if addr is absent (see sparse.Array256.MustGet).
func (n *node[V]) mustGetChild(addr uint8) any {
	return n.children.MustGet(addr)
}

// deleteChild removes the child at addr. Idempotent.
func (n *node[V]) deleteChild(addr uint8) (exists bool) {
	_, exists = n.children.DeleteAt(addr)
	return exists
}

// contains reports whether idx has any matching ancestor prefix in this
// node's prefix table, without fetching the value.
func (n *node[V]) contains(idx uint8) bool {
	return n.prefixes.Intersects(&lpm.LookupTbl[idx])
}

// lookupIdx performs an in-node longest-prefix-match for idx via CBT
// backtracking against the precomputed ancestor bitset.
func (n *node[V]) lookupIdx(idx uint8) (top uint8, val V, ok bool) {
	if top, ok = n.prefixes.IntersectionTop(&lpm.LookupTbl[idx]); ok {
		return top, n.mustGetPrefix(top), true
	}
	return top, val, ok
}

// lookup is a thin wrapper around lookupIdx.
func (n *node[V]) lookup(idx uint8) (val V, ok bool) {
	_, val, ok = n.lookupIdx(idx)
	return val, ok
}

// leafNode is a path-compressed routing entry storing both prefix and
// value, used when the prefix doesn't land on a stride boundary.
type leafNode[V any] struct {
	value  V
	prefix netip.Prefix
}

func newLeafNode[V any](pfx netip.Prefix, val V) *leafNode[V] {
	return &leafNode[V]{prefix: pfx, value: val}
}

// fringeNode is a path-compressed routing entry storing only a value;
// its prefix is implicit in its trie position (stride-aligned: /8, /16,
// ..., /128). A fringe acts as the default route for everything beneath it.
type fringeNode[V any] struct {
	value V
}

func newFringeNode[V any](val V) *fringeNode[V] {
	return &fringeNode[V]{value: val}
}

// isFringe reports whether pfx, inserted at depth, lands exactly on a
// stride boundary and therefore qualifies for fringe compression rather
// than leaf compression.
//
//	depth <  lastOctetPlusOne-1 : a leaf, path-compressed
//	depth == lastOctetPlusOne-1 : a fringe, path-compressed, iff lastBits == 0
//	depth == lastOctetPlusOne   : a direct prefix entry (octet/0 => idx==1)
func isFringe(depth int, pfx netip.Prefix) bool {
	lastOctetPlusOne, lastBits := lastOctetPlusOneAndLastBits(pfx)
	return depth == lastOctetPlusOne-1 && lastBits == 0
}

// eachLookupPrefix walks the complete binary tree ancestors of pfxIdx in
// this node, yielding every stored covering prefix. Used by Supernets.
func (n *node[V]) eachLookupPrefix(octets []byte, depth int, is4 bool, pfxIdx uint8, yield func(netip.Prefix, V) bool) bool {
	var path stridePath
	copy(path[:], octets)

	for ; pfxIdx > 0; pfxIdx >>= 1 {
		if n.prefixes.Test(pfxIdx) {
			val := n.mustGetPrefix(pfxIdx)
			cidr := cidrFromPath(path, depth, is4, pfxIdx)

			if !yield(cidr, val) {
				return false
			}
		}
	}

	return true
}

// eachSubnet yields every prefix and child entry covered by pfxIdx in
// this node, in CIDR sort order. Used by Subnets.
func (n *node[V]) eachSubnet(octets []byte, depth int, is4 bool, pfxIdx uint8, yield func(netip.Prefix, V) bool) bool {
	var path stridePath
	copy(path[:], octets)

	pfxFirstAddr, pfxLastAddr := art.IdxToRange(pfxIdx)

	var buf [256]uint8

	allCoveredIndices := make([]uint8, 0, maxItems)
	for _, idx := range n.prefixes.AsSlice(buf[:0]) {
		thisFirstAddr, thisLastAddr := art.IdxToRange(idx)
		if thisFirstAddr >= pfxFirstAddr && thisLastAddr <= pfxLastAddr {
			allCoveredIndices = append(allCoveredIndices, idx)
		}
	}
	slices.SortFunc(allCoveredIndices, cmpIndexRank)

	allCoveredChildAddrs := make([]uint8, 0, maxItems)
	for _, addr := range n.children.AsSlice(buf[:0]) {
		if addr >= pfxFirstAddr && addr <= pfxLastAddr {
			allCoveredChildAddrs = append(allCoveredChildAddrs, addr)
		}
	}

	addrCursor := 0

	for _, idx := range allCoveredIndices {
		pfxOctet, _ := art.IdxToPfx(idx)

		for j := addrCursor; j < len(allCoveredChildAddrs); j++ {
			addr := allCoveredChildAddrs[j]
			if addr >= pfxOctet {
				break
			}

			if !n.yieldChild(path, depth, is4, addr, yield) {
				return false
			}
			addrCursor++
		}

		cidr := cidrFromPath(path, depth, is4, idx)
		if !yield(cidr, n.mustGetPrefix(idx)) {
			return false
		}
	}

	for _, addr := range allCoveredChildAddrs[addrCursor:] {
		if !n.yieldChild(path, depth, is4, addr, yield) {
			return false
		}
	}

	return true
}

// allRecSorted yields every prefix and child entry in this subtree, in
// CIDR sort order. Used by eachSubnet's recursive descent and by the
// All/All4/All6 iterators.
func (n *node[V]) allRecSorted(path stridePath, depth int, is4 bool, yield func(netip.Prefix, V) bool) bool {
	var buf [256]uint8

	indices := append([]uint8(nil), n.prefixes.AsSlice(buf[:0])...)
	slices.SortFunc(indices, cmpIndexRank)

	childAddrs := append([]uint8(nil), n.children.AsSlice(buf[:0])...)
	slices.Sort(childAddrs)

	addrCursor := 0

	for _, idx := range indices {
		pfxOctet, _ := art.IdxToPfx(idx)

		for addrCursor < len(childAddrs) && childAddrs[addrCursor] < pfxOctet {
			if !n.yieldChild(path, depth, is4, childAddrs[addrCursor], yield) {
				return false
			}
			addrCursor++
		}

		cidr := cidrFromPath(path, depth, is4, idx)
		if !yield(cidr, n.mustGetPrefix(idx)) {
			return false
		}
	}

	for _, addr := range childAddrs[addrCursor:] {
		if !n.yieldChild(path, depth, is4, addr, yield) {
			return false
		}
	}

	return true
}

// yieldChild dispatches a single child of this node (node/leaf/fringe)
// to yield, recursing into *node[V] children via allRecSorted.
func (n *node[V]) yieldChild(path stridePath, depth int, is4 bool, addr uint8, yield func(netip.Prefix, V) bool) bool {
	switch kid := n.mustGetChild(addr).(type) {
	case *node[V]:
		path[depth] = addr
		return kid.allRecSorted(path, depth+1, is4, yield)
	case *leafNode[V]:
		return yield(kid.prefix, kid.value)
	case *fringeNode[V]:
		return yield(cidrForFringe(path[:], depth, is4, addr), kid.value)
	default:
		panic("logic error, wrong node type")
	}
}

// cmpIndexRank orders base indices in CIDR (prefix) sort order.
func cmpIndexRank(aIdx, bIdx uint8) int {
	aOctet, aBits := art.IdxToPfx(aIdx)
	bOctet, bBits := art.IdxToPfx(bIdx)

	if aOctet == bOctet {
		return cmp.Compare(aBits, bBits)
	}
	return cmp.Compare(aOctet, bOctet)
}

// cidrFromPath reconstructs the netip.Prefix stored at idx, given the
// traversal path and depth it was found at.
func cidrFromPath(path stridePath, depth int, is4 bool, idx uint8) netip.Prefix {
	depth = depth & depthMask // BCE

	octet, pfxLen := art.IdxToPfx(idx)

	path[depth] = octet
	clear(path[depth+1:])

	var ip netip.Addr
	if is4 {
		ip = netip.AddrFrom4([4]byte(path[:4]))
	} else {
		ip = netip.AddrFrom16(path)
	}

	bits := depth<<3 + pfxLen

	return netip.PrefixFrom(ip, bits)
}

// cidrForFringe reconstructs the implicit netip.Prefix of a fringe at
// lastOctet, given the traversal path and depth it was found at.
func cidrForFringe(octets []byte, depth int, is4 bool, lastOctet uint8) netip.Prefix {
	depth = depth & depthMask // BCE

	var path stridePath
	copy(path[:], octets[:depth+1])
	path[depth] = lastOctet

	var ip netip.Addr
	if is4 {
		ip = netip.AddrFrom4([4]byte(path[:4]))
	} else {
		ip = netip.AddrFrom16(path)
	}

	bits := (depth + 1) << 3

	return netip.PrefixFrom(ip, bits)
}
