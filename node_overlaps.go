// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package triebase

import (
	"net/netip"

	"github.com/packetflow/triebase/internal/allot"
	"github.com/packetflow/triebase/internal/art"
	"github.com/packetflow/triebase/internal/lpm"
)

// overlapsRoutes reports whether any stored prefix in n overlaps with any
// stored prefix in o, i.e. one is an ancestor (less specific) of the
// other, or they are the same base index.
func (n *node[V]) overlapsRoutes(o *node[V]) bool {
	if n.prefixCount() == 0 || o.prefixCount() == 0 {
		return false
	}

	if n.prefixes.Intersects(&o.prefixes.BitSet256) {
		return true
	}

	for _, idx := range n.getIndices() {
		if lpm.LookupTbl[idx].Intersects(&o.prefixes.BitSet256) {
			return true
		}
		if allot.PrefixRoutesTbl[idx].Intersects(&o.prefixes.BitSet256) {
			return true
		}
	}

	return false
}

// overlapsChildrenIn reports whether any stored prefix in n shadows a
// child (node, leaf or fringe) held by o, i.e. the octet range covered
// by one of n's prefixes at the next stride intersects one of o's child
// addresses.
func (n *node[V]) overlapsChildrenIn(o *node[V]) bool {
	if n.prefixCount() == 0 || o.childCount() == 0 {
		return false
	}

	for _, idx := range n.getIndices() {
		if allot.FringeRoutesTbl[idx].Intersects(&o.children.BitSet256) {
			return true
		}
	}

	return false
}

// overlapsSameChildren reports whether n and o share a child at the same
// octet address whose subtrees overlap. childDepth is the depth at
// which n's and o's children themselves live (one past n's own depth).
func (n *node[V]) overlapsSameChildren(o *node[V], childDepth int) bool {
	addrBs := n.children.Intersection(&o.children.BitSet256)
	if addrBs.IsEmpty() {
		return false
	}

	for _, addr := range addrBs.All() {
		nKid := n.mustGetChild(addr)
		oKid := o.mustGetChild(addr)

		if !overlapsTwoChildren[V](nKid, oKid, childDepth) {
			continue
		}
		return true
	}

	return false
}

// overlapsTwoChildren dispatches the overlap test for two children found
// at the same octet address, which may be any mix of node, leaf or
// fringe. depth is the depth at which both children live in the trie.
func overlapsTwoChildren[V any](nKid, oKid any, depth int) bool {
	switch nk := nKid.(type) {
	case *node[V]:
		switch ok := oKid.(type) {
		case *node[V]:
			return nk.overlaps(ok, depth)
		case *leafNode[V]:
			return nk.overlapsPrefixAtDepth(ok.prefix, depth)
		case *fringeNode[V]:
			return true // fringe is the default route, it always overlaps a populated node
		}

	case *leafNode[V]:
		switch ok := oKid.(type) {
		case *node[V]:
			return ok.overlapsPrefixAtDepth(nk.prefix, depth)
		case *leafNode[V]:
			return nk.prefix.Overlaps(ok.prefix)
		case *fringeNode[V]:
			return true
		}

	case *fringeNode[V]:
		switch oKid.(type) {
		case *node[V]:
			return true
		case *leafNode[V]:
			return true
		case *fringeNode[V]:
			return true
		}
	}

	panic("logic error, wrong node type")
}

// overlapsPrefixAtDepth reports whether pfx, whose trie path starts at
// depth octets already consumed, overlaps with anything stored in the
// subtree rooted at n.
func (n *node[V]) overlapsPrefixAtDepth(pfx netip.Prefix, depth int) bool {
	ip := pfx.Addr()
	octets := ip.AsSlice()
	lastOctetPlusOne, lastBits := lastOctetPlusOneAndLastBits(pfx)

	for ; depth < len(octets); depth++ {
		if depth == lastOctetPlusOne {
			idx := art.PfxToIdx(octets[depth], int(lastBits))
			return n.overlapsIdxAgainstSelf(idx)
		}

		octet := octets[depth]

		if n.prefixCount() != 0 {
			if lpm.LookupTbl[art.OctetToIdx(octet)].Intersects(&n.prefixes.BitSet256) {
				return true
			}
		}

		if !n.children.Test(octet) {
			return false
		}

		kid := n.mustGetChild(octet)

		switch kid := kid.(type) {
		case *node[V]:
			n = kid
			continue

		case *leafNode[V]:
			return kid.prefix.Overlaps(pfx)

		case *fringeNode[V]:
			return true

		default:
			panic("logic error, wrong node type")
		}
	}

	return false
}

// overlapsIdxAgainstSelf reports whether idx overlaps with anything
// already stored in n, used once depth reaches the prefix's own stride.
func (n *node[V]) overlapsIdxAgainstSelf(idx uint8) bool {
	if n.prefixCount() != 0 {
		if lpm.LookupTbl[idx].Intersects(&n.prefixes.BitSet256) {
			return true
		}
		if allot.PrefixRoutesTbl[idx].Intersects(&n.prefixes.BitSet256) {
			return true
		}
	}

	if n.childCount() != 0 && allot.FringeRoutesTbl[idx].Intersects(&n.children.BitSet256) {
		return true
	}

	return false
}

// overlaps reports whether the subtrees rooted at n and o, both at the
// given depth in the trie, share any overlapping prefix, leaf, or
// fringe.
func (n *node[V]) overlaps(o *node[V], depth int) bool {
	if n.overlapsRoutes(o) {
		return true
	}
	if n.overlapsChildrenIn(o) {
		return true
	}
	if o.overlapsChildrenIn(n) {
		return true
	}
	return n.overlapsSameChildren(o, depth+1)
}
