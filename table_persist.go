// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package triebase

import (
	"net/netip"

	"github.com/packetflow/triebase/internal/art"
)

// InsertPersist is similar to Insert but the receiver isn't modified.
//
// All nodes touched during insert are cloned and a new Table is returned.
// This is not a full [Table.Clone]: all untouched nodes are still
// referenced from both Tables.
//
// If the payload type V contains pointers or needs deep copying,
// it must implement the [Cloner] interface to support correct cloning.
//
// This is orders of magnitude slower than Insert, typically taking
// microseconds instead of nanoseconds. Bulk-load with [Table.Insert] and
// then switch to InsertPersist, [Table.UpdatePersist] and
// [Table.DeletePersist] once lock-free reads are required.
func (t *Table[V]) InsertPersist(pfx netip.Prefix, val V) *Table[V] {
	if !pfx.IsValid() {
		return t
	}

	pfx = pfx.Masked()
	is4 := pfx.Addr().Is4()

	pt := &Table[V]{
		size4: t.size4,
		size6: t.size6,
	}

	cloneFn := cloneFnFactory[V]()

	if is4 {
		pt.root4 = *t.root4.cloneFlat(cloneFn)
		pt.root6 = t.root6
	} else {
		pt.root4 = t.root4
		pt.root6 = *t.root6.cloneFlat(cloneFn)
	}

	n := pt.rootNodeByVersion(is4)

	if n.insertPersist(cloneFn, pfx, val, 0) {
		return pt
	}

	pt.sizeUpdate(is4, 1)

	return pt
}

// UpdatePersist inserts or updates the value for pfx via cb, like the
// insert/update cases of [Table.Modify], but does not modify the receiver.
//
// It performs a copy-on-write update, cloning all nodes touched during
// the update, and returns a new Table reflecting it. Untouched nodes
// remain shared between the original and returned Tables.
//
// If the payload type V contains pointers or needs deep copying,
// it must implement the [Cloner] interface for correct cloning.
func (t *Table[V]) UpdatePersist(pfx netip.Prefix, cb func(val V, ok bool) V) (pt *Table[V], newVal V) {
	var zero V

	if !pfx.IsValid() {
		return t, zero
	}

	pfx = pfx.Masked()

	ip := pfx.Addr()
	is4 := ip.Is4()
	octets := ip.AsSlice()
	lastOctetPlusOne, lastBits := lastOctetPlusOneAndLastBits(pfx)

	pt = &Table[V]{
		size4: t.size4,
		size6: t.size6,
	}

	cloneFn := cloneFnFactory[V]()

	if is4 {
		pt.root4 = *t.root4.cloneFlat(cloneFn)
		pt.root6 = t.root6
	} else {
		pt.root4 = t.root4
		pt.root6 = *t.root6.cloneFlat(cloneFn)
	}

	n := pt.rootNodeByVersion(is4)

	for depth, octet := range octets {
		if depth == lastOctetPlusOne {
			newVal, exists := n.prefixes.UpdateAt(art.PfxToIdx(octet, int(lastBits)), cb)
			if !exists {
				pt.sizeUpdate(is4, 1)
			}
			return pt, newVal
		}

		addr := octet

		if !n.children.Test(addr) {
			newVal := cb(zero, false)
			if isFringe(depth, pfx) {
				n.children.InsertAt(addr, newFringeNode(newVal))
			} else {
				n.children.InsertAt(addr, newLeafNode(pfx, newVal))
			}

			pt.sizeUpdate(is4, 1)
			return pt, newVal
		}

		kid := n.children.MustGet(addr)

		switch kid := kid.(type) {
		case *node[V]:
			kid = kid.cloneFlat(cloneFn)
			n.children.InsertAt(addr, kid)
			n = kid
			continue

		case *leafNode[V]:
			if kid.prefix == pfx {
				newVal = cb(kid.value, true)
				n.children.InsertAt(addr, newLeafNode(pfx, newVal))
				return pt, newVal
			}

			newNode := new(node[V])
			newNode.insert(kid.prefix, kid.value, depth+1)

			n.children.InsertAt(addr, newNode)
			n = newNode

		case *fringeNode[V]:
			if isFringe(depth, pfx) {
				newVal = cb(kid.value, true)
				n.children.InsertAt(addr, newFringeNode(newVal))
				return pt, newVal
			}

			newNode := new(node[V])
			newNode.insertPrefix(1, kid.value)

			n.children.InsertAt(addr, newNode)
			n = newNode

		default:
			panic("logic error, wrong node type")
		}
	}

	panic("unreachable")
}

// DeletePersist is similar to Delete but does not modify the receiver.
//
// It performs a copy-on-write delete, cloning all nodes touched during
// deletion, and returns a new Table reflecting the change.
//
// If the payload type V contains pointers or needs deep copying,
// it must implement the [Cloner] interface for correct cloning.
func (t *Table[V]) DeletePersist(pfx netip.Prefix) *Table[V] {
	pt, _, _ := t.getAndDeletePersist(pfx)
	return pt
}

// GetAndDeletePersist is similar to GetAndDelete but does not modify the
// receiver.
//
// It performs a copy-on-write delete, cloning all nodes touched during
// deletion, and returns a new Table reflecting the change along with the
// deleted value, if any.
func (t *Table[V]) GetAndDeletePersist(pfx netip.Prefix) (pt *Table[V], val V, ok bool) {
	return t.getAndDeletePersist(pfx)
}

func (t *Table[V]) getAndDeletePersist(pfx netip.Prefix) (pt *Table[V], val V, exists bool) {
	if !pfx.IsValid() {
		return t, val, false
	}

	pfx = pfx.Masked()

	ip := pfx.Addr()
	is4 := ip.Is4()
	octets := ip.AsSlice()
	lastOctetPlusOne, lastBits := lastOctetPlusOneAndLastBits(pfx)

	pt = &Table[V]{
		size4: t.size4,
		size6: t.size6,
	}

	cloneFn := cloneFnFactory[V]()

	if is4 {
		pt.root4 = *t.root4.cloneFlat(cloneFn)
		pt.root6 = t.root6
	} else {
		pt.root4 = t.root4
		pt.root6 = *t.root6.cloneFlat(cloneFn)
	}

	stack := [maxTreeDepth]*node[V]{}

	n := pt.rootNodeByVersion(is4)

	for depth, octet := range octets {
		stack[depth] = n

		if depth == lastOctetPlusOne {
			val, exists = n.prefixes.DeleteAt(art.PfxToIdx(octet, int(lastBits)))
			if !exists {
				return pt, val, false
			}

			pt.sizeUpdate(is4, -1)
			n.purgeAndCompress(stack[:depth], octets, is4)

			return pt, val, exists
		}

		addr := octet

		if !n.children.Test(addr) {
			return pt, val, false
		}

		kid := n.children.MustGet(addr)

		switch kid := kid.(type) {
		case *node[V]:
			kid = kid.cloneFlat(cloneFn)
			n.children.InsertAt(addr, kid)
			n = kid
			continue

		case *fringeNode[V]:
			if !isFringe(depth, pfx) {
				return pt, val, false
			}

			n.children.DeleteAt(addr)
			pt.sizeUpdate(is4, -1)
			n.purgeAndCompress(stack[:depth], octets, is4)

			return pt, kid.value, true

		case *leafNode[V]:
			if kid.prefix != pfx {
				return pt, val, false
			}

			n.children.DeleteAt(addr)
			pt.sizeUpdate(is4, -1)
			n.purgeAndCompress(stack[:depth], octets, is4)

			return pt, kid.value, true

		default:
			panic("logic error, wrong node type")
		}
	}

	panic("unreachable")
}
