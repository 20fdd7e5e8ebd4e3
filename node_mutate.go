// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package triebase

import (
	"net/netip"

	"github.com/packetflow/triebase/internal/art"
)

// insert inserts pfx/val into the trie starting at the given byte depth.
//
// It descends the prefix's octets from depth, inserting directly into a
// node's prefix table once the masked octet is reached, or as a
// path-compressed leaf/fringe child if the trie ends early. A
// conflicting leaf/fringe is pushed down into a new intermediate node.
//
// Returns true if the prefix already existed and was updated.
func (n *node[V]) insert(pfx netip.Prefix, val V, depth int) (exists bool) {
	ip := pfx.Addr() // pfx must already be canonical (masked)
	octets := ip.AsSlice()
	lastOctetPlusOne, lastBits := lastOctetPlusOneAndLastBits(pfx)

	for ; depth < len(octets); depth++ {
		octet := octets[depth]

		if depth == lastOctetPlusOne {
			return n.insertPrefix(art.PfxToIdx(octet, int(lastBits)), val)
		}

		if !n.children.Test(octet) {
			if isFringe(depth, pfx) {
				return n.insertChild(octet, newFringeNode(val))
			}
			return n.insertChild(octet, newLeafNode(pfx, val))
		}

		kid := n.mustGetChild(octet)

		switch kid := kid.(type) {
		case *node[V]:
			n = kid

		case *leafNode[V]:
			if kid.prefix == pfx {
				kid.value = val
				return true
			}

			newNode := new(node[V])
			newNode.insert(kid.prefix, kid.value, depth+1)

			n.insertChild(octet, newNode)
			n = newNode

		case *fringeNode[V]:
			if isFringe(depth, pfx) {
				kid.value = val
				return true
			}

			newNode := new(node[V])
			newNode.insertPrefix(1, kid.value)

			n.insertChild(octet, newNode)
			n = newNode

		default:
			panic("logic error, wrong node type")
		}
	}
	panic("unreachable")
}

// insertPersist is insert's copy-on-write variant: every node traversed
// is cloned via cloneFn before being mutated.
func (n *node[V]) insertPersist(cloneFn cloneFunc[V], pfx netip.Prefix, val V, depth int) (exists bool) {
	ip := pfx.Addr()
	octets := ip.AsSlice()
	lastOctetPlusOne, lastBits := lastOctetPlusOneAndLastBits(pfx)

	for ; depth < len(octets); depth++ {
		octet := octets[depth]

		if depth == lastOctetPlusOne {
			return n.insertPrefix(art.PfxToIdx(octet, int(lastBits)), val)
		}

		if !n.children.Test(octet) {
			if isFringe(depth, pfx) {
				return n.insertChild(octet, newFringeNode(val))
			}
			return n.insertChild(octet, newLeafNode(pfx, val))
		}

		kid := n.mustGetChild(octet)

		switch kid := kid.(type) {
		case *node[V]:
			kid = kid.cloneFlat(cloneFn)
			n.insertChild(octet, kid)
			n = kid
			continue

		case *leafNode[V]:
			if kid.prefix == pfx {
				// replace, never mutate a shared leaf in place
				n.insertChild(octet, newLeafNode(pfx, val))
				return true
			}

			newNode := new(node[V])
			newNode.insert(kid.prefix, kid.value, depth+1)

			n.insertChild(octet, newNode)
			n = newNode

		case *fringeNode[V]:
			if isFringe(depth, pfx) {
				// replace, never mutate a shared fringe in place
				n.insertChild(octet, newFringeNode(val))
				return true
			}

			newNode := new(node[V])
			newNode.insertPrefix(1, kid.value)

			n.insertChild(octet, newNode)
			n = newNode

		default:
			panic("logic error, wrong node type")
		}
	}

	panic("unreachable")
}

// purgeAndCompress unwinds stack bottom-up after a delete, collapsing any
// node that became single-prefix/no-children or no-prefix/single-leaf-
// or-fringe-child back into a leaf/fringe at its parent. Empty nodes are
// simply removed.
func (n *node[V]) purgeAndCompress(stack []*node[V], octets []uint8, is4 bool) {
	for depth := len(stack) - 1; depth >= 0; depth-- {
		parent := stack[depth]
		octet := octets[depth]

		pfxCount := n.prefixCount()
		childCount := n.childCount()

		switch {
		case n.isEmpty():
			parent.deleteChild(octet)

		case pfxCount == 0 && childCount == 1:
			addr, _ := n.children.FirstSet()
			anyKid := n.mustGetChild(addr)

			switch kid := anyKid.(type) {
			case *node[V]:
				// intermediate path node, no further compression possible
				return

			case *leafNode[V]:
				parent.deleteChild(octet)
				parent.insert(kid.prefix, kid.value, depth)

			case *fringeNode[V]:
				parent.deleteChild(octet)

				lastOctet, _ := n.children.FirstSet()
				fringePfx := cidrForFringe(octets, depth+1, is4, lastOctet)

				parent.insert(fringePfx, kid.value, depth)
			}

		case pfxCount == 1 && childCount == 0:
			parent.deleteChild(octet)

			idx, _ := n.prefixes.FirstSet()
			val := n.mustGetPrefix(idx)

			var path stridePath
			copy(path[:], octets)

			pfx := cidrFromPath(path, depth+1, is4, idx)
			parent.insert(pfx, val, depth)
		}

		n = parent
	}
}
