// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package triebase

import (
	"iter"
	"net/netip"
	"reflect"
	"sync"

	"github.com/packetflow/triebase/internal/art"
	"github.com/packetflow/triebase/internal/lpm"
)

// Table represents an IPv4 and IPv6 routing table with payload V.
//
// The zero value is ready to use.
//
// The Table is safe for concurrent reads, but concurrent reads and writes
// must be externally synchronized. Mutation via Insert/Delete requires locks,
// or alternatively, use the ...Persist methods which return a modified copy
// without altering the original table (copy-on-write).
//
// A Table must not be copied by value; always pass by pointer.
//
// Performance note: Do not pass IPv4-in-IPv6 addresses (e.g., ::ffff:192.0.2.1)
// as input. The methods do not perform automatic unmapping to avoid unnecessary
// overhead for the common case where native addresses are used.
// Users should unmap IPv4-in-IPv6 addresses to their native IPv4 form
// (e.g., 192.0.2.1) before calling these methods.
type Table[V any] struct {
	// used by -copylocks checker from `go vet`.
	_ [0]sync.Mutex

	// the root nodes, implemented as popcount compressed multibit tries
	root4 node[V]
	root6 node[V]

	// the number of prefixes in the routing table
	size4 int
	size6 int
}

// rootNodeByVersion, root node getter for ip version.
func (t *Table[V]) rootNodeByVersion(is4 bool) *node[V] {
	if is4 {
		return &t.root4
	}
	return &t.root6
}

func (t *Table[V]) sizeUpdate(is4 bool, delta int) {
	if is4 {
		t.size4 += delta
		return
	}
	t.size6 += delta
}

// Size returns the number of prefixes stored in the table, IPv4 and IPv6 combined.
func (t *Table[V]) Size() int {
	return t.size4 + t.size6
}

// Size4 returns the number of IPv4 prefixes stored in the table.
func (t *Table[V]) Size4() int {
	return t.size4
}

// Size6 returns the number of IPv6 prefixes stored in the table.
func (t *Table[V]) Size6() int {
	return t.size6
}

// lastOctetPlusOneAndLastBits returns the count of full 8-bit strides (bits/8)
// and the leftover bits in the final stride (bits%8) for pfx.
//
// lastOctetPlusOne is the count of full 8-bit strides (bits/8).
// lastBits is the remaining bit count in the final stride (bits%8),
//
// ATTENTION: Split the IP prefixes at 8bit borders, count from 0.
//
//	/7, /15, /23, /31, ..., /127
//
//	BitPos: [0-7],[8-15],[16-23],[24-31],[32]
//	BitPos: [0-7],[8-15],[16-23],[24-31],[32-39],[40-47],[48-55],[56-63],...,[120-127],[128]
//
//	0.0.0.0/0      => lastOctetPlusOne:  0, lastBits: 0 (default route)
//	0.0.0.0/7      => lastOctetPlusOne:  0, lastBits: 7
//	0.0.0.0/8      => lastOctetPlusOne:  1, lastBits: 0 (possible fringe)
//	10.0.0.0/8     => lastOctetPlusOne:  1, lastBits: 0 (possible fringe)
//	10.0.0.0/22    => lastOctetPlusOne:  2, lastBits: 6
//	10.0.0.0/29    => lastOctetPlusOne:  3, lastBits: 5
//	10.0.0.0/32    => lastOctetPlusOne:  4, lastBits: 0 (possible fringe)
//
//	::/0           => lastOctetPlusOne:  0, lastBits: 0 (default route)
//	::1/128        => lastOctetPlusOne: 16, lastBits: 0 (possible fringe)
//	2001:db8::/42  => lastOctetPlusOne:  5, lastBits: 2
//	2001:db8::/56  => lastOctetPlusOne:  7, lastBits: 0 (possible fringe)
//
//	/32 and /128 prefixes are special, they never form a new node,
//	At the end of the trie (IPv4: depth 4, IPv6: depth 16) they are always
//	inserted as a path-compressed fringe.
//
// We are not splitting at /8, /16, ..., because this would mean that the
// first node would have 512 prefixes, 9 bits from [0-8]. All remaining nodes
// would then only have 8 bits from [9-16], [17-24], [25..32], ...
// but the algorithm would then require a variable length bitset.
//
// If you can commit to a fixed size of [4]uint64, then the algorithm is
// much faster due to modern CPUs.
func lastOctetPlusOneAndLastBits(pfx netip.Prefix) (lastOctetPlusOne int, lastBits uint8) {
	bits := pfx.Bits()

	//nolint:gosec  // G115: narrowing conversion is safe here (bits in [0..128])
	return bits >> 3, uint8(bits & 7)
}

// Insert adds pfx to the table with the associated value val.
// If pfx already exists, its value is overwritten.
func (t *Table[V]) Insert(pfx netip.Prefix, val V) {
	if !pfx.IsValid() {
		return
	}

	pfx = pfx.Masked()
	is4 := pfx.Addr().Is4()

	n := t.rootNodeByVersion(is4)

	if exists := n.insert(pfx, val, 0); !exists {
		t.sizeUpdate(is4, 1)
	}
}

// Modify applies an insert, update, or delete operation for the value
// associated with the given prefix. The supplied callback decides the
// operation: it is called with the current value (or zero if not found)
// and a boolean indicating whether the prefix exists. The callback must
// return a new value and a delete flag: del == false inserts or updates,
// del == true deletes the entry if it exists (otherwise no-op). Modify
// returns a value (the new value on insert, the old value on update or
// delete, zero on no-op) and a boolean indicating whether the entry was
// actually deleted.
//
//	Operation | cb-input        | cb-return       | Modify-return
//	---------------------------------------------------------------
//	No-op:    | (zero,   false) | (_,      true)  | (zero,   false)
//	Insert:   | (zero,   false) | (newVal, false) | (newVal, false)
//	Update:   | (oldVal, true)  | (newVal, false) | (oldVal, false)
//	Delete:   | (oldVal, true)  | (_,      true)  | (oldVal, true)
func (t *Table[V]) Modify(pfx netip.Prefix, cb func(val V, found bool) (_ V, del bool)) (_ V, deleted bool) {
	var zero V

	if !pfx.IsValid() {
		return
	}

	pfx = pfx.Masked()

	ip := pfx.Addr()
	is4 := ip.Is4()
	octets := ip.AsSlice()
	lastOctetPlusOne, lastBits := lastOctetPlusOneAndLastBits(pfx)

	n := t.rootNodeByVersion(is4)

	// record the nodes on the path, needed to purge and/or path compress
	// nodes after the deletion of a prefix
	stack := [maxTreeDepth]*node[V]{}

	for depth, octet := range octets {
		stack[depth] = n

		if depth == lastOctetPlusOne {
			idx := art.PfxToIdx(octet, int(lastBits))

			oldVal, existed := n.getPrefix(idx)
			newVal, del := cb(oldVal, existed)

			switch {
			case !existed && del: // no-op
				return zero, false

			case existed && del: // delete
				n.deletePrefix(idx)
				t.sizeUpdate(is4, -1)
				n.purgeAndCompress(stack[:depth], octets, is4)
				return oldVal, true

			case !existed: // insert
				n.insertPrefix(idx, newVal)
				t.sizeUpdate(is4, 1)
				return newVal, false

			default: // update
				n.insertPrefix(idx, newVal)
				return oldVal, false
			}
		}

		if !n.children.Test(octet) {
			newVal, del := cb(zero, false)
			if del {
				return zero, false // no-op
			}

			if isFringe(depth, pfx) {
				n.insertChild(octet, newFringeNode(newVal))
			} else {
				n.insertChild(octet, newLeafNode(pfx, newVal))
			}

			t.sizeUpdate(is4, 1)
			return newVal, false
		}

		kid := n.mustGetChild(octet)

		switch kid := kid.(type) {
		case *node[V]:
			n = kid

		case *leafNode[V]:
			oldVal := kid.value

			if kid.prefix == pfx {
				newVal, del := cb(oldVal, true)

				if !del {
					kid.value = newVal
					return oldVal, false
				}

				n.deleteChild(octet)
				t.sizeUpdate(is4, -1)
				n.purgeAndCompress(stack[:depth], octets, is4)

				return oldVal, true
			}

			newNode := new(node[V])
			newNode.insert(kid.prefix, kid.value, depth+1)

			n.insertChild(octet, newNode)
			n = newNode

		case *fringeNode[V]:
			oldVal := kid.value

			if isFringe(depth, pfx) {
				newVal, del := cb(kid.value, true)
				if !del {
					kid.value = newVal
					return oldVal, false
				}

				n.deleteChild(octet)
				t.sizeUpdate(is4, -1)
				n.purgeAndCompress(stack[:depth], octets, is4)

				return oldVal, true
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

// Delete removes pfx from the table and reports whether it existed.
func (t *Table[V]) Delete(pfx netip.Prefix) (val V, found bool) {
	return t.GetAndDelete(pfx)
}

// GetAndDelete deletes pfx from the table and returns the value that was
// associated with it, if any.
func (t *Table[V]) GetAndDelete(pfx netip.Prefix) (val V, found bool) {
	if !pfx.IsValid() {
		return val, false
	}

	pfx = pfx.Masked()

	ip := pfx.Addr()
	is4 := ip.Is4()
	octets := ip.AsSlice()
	lastOctetPlusOne, lastBits := lastOctetPlusOneAndLastBits(pfx)

	n := t.rootNodeByVersion(is4)

	stack := [maxTreeDepth]*node[V]{}

	for depth, octet := range octets {
		stack[depth] = n

		if depth == lastOctetPlusOne {
			val, found = n.deletePrefix(art.PfxToIdx(octet, int(lastBits)))
			if !found {
				return val, false
			}

			t.sizeUpdate(is4, -1)
			n.purgeAndCompress(stack[:depth], octets, is4)
			return val, true
		}

		if !n.children.Test(octet) {
			return val, false
		}

		kid := n.mustGetChild(octet)

		switch kid := kid.(type) {
		case *node[V]:
			n = kid

		case *leafNode[V]:
			if kid.prefix != pfx {
				return val, false
			}

			n.deleteChild(octet)
			t.sizeUpdate(is4, -1)
			n.purgeAndCompress(stack[:depth], octets, is4)
			return kid.value, true

		case *fringeNode[V]:
			if !isFringe(depth, pfx) {
				return val, false
			}

			n.deleteChild(octet)
			t.sizeUpdate(is4, -1)
			n.purgeAndCompress(stack[:depth], octets, is4)
			return kid.value, true

		default:
			panic("logic error, wrong node type")
		}
	}

	return val, false
}

// Get returns the value associated with pfx and true, or the zero value
// and false if pfx is not present in the table.
//
// Unlike Lookup, Get requires an exact prefix match; it does not perform
// longest-prefix matching.
func (t *Table[V]) Get(pfx netip.Prefix) (val V, ok bool) {
	if !pfx.IsValid() {
		return val, false
	}

	pfx = pfx.Masked()

	ip := pfx.Addr()
	is4 := ip.Is4()
	octets := ip.AsSlice()
	lastOctetPlusOne, lastBits := lastOctetPlusOneAndLastBits(pfx)

	n := t.rootNodeByVersion(is4)

	for depth, octet := range octets {
		if depth == lastOctetPlusOne {
			return n.getPrefix(art.PfxToIdx(octet, int(lastBits)))
		}

		if !n.children.Test(octet) {
			return val, false
		}

		kid := n.mustGetChild(octet)

		switch kid := kid.(type) {
		case *node[V]:
			n = kid

		case *leafNode[V]:
			if kid.prefix == pfx {
				return kid.value, true
			}
			return val, false

		case *fringeNode[V]:
			if isFringe(depth, pfx) {
				return kid.value, true
			}
			return val, false

		default:
			panic("logic error, wrong node type")
		}
	}

	return val, false
}

// Contains reports whether any stored prefix covers the given IP address.
// Returns false for invalid IP addresses.
//
// This performs longest-prefix matching and returns true if any prefix
// in the routing table contains the IP address, regardless of the associated value.
//
// It does not return the value nor the prefix of the matching item,
// but as a test against an allow-/deny-list it's often sufficient
// and even few nanoseconds faster than [Table.Lookup].
func (t *Table[V]) Contains(ip netip.Addr) bool {
	is4 := ip.Is4()
	n := t.rootNodeByVersion(is4)

	for _, octet := range ip.AsSlice() {
		if n.prefixCount() != 0 && n.contains(art.OctetToIdx(octet)) {
			return true
		}

		if !n.children.Test(octet) {
			return false
		}
		kid := n.mustGetChild(octet)

		switch kid := kid.(type) {
		case *node[V]:
			n = kid

		case *fringeNode[V]:
			return true

		case *leafNode[V]:
			return kid.prefix.Contains(ip)

		default:
			panic("logic error, wrong node type")
		}
	}

	return false
}

// Lookup performs longest-prefix matching for the given IP address and returns
// the associated value of the most specific matching prefix.
// Returns the zero value of V and false if no prefix matches.
// Returns false for invalid IP addresses.
//
// This is the core routing table operation used for packet forwarding decisions.
func (t *Table[V]) Lookup(ip netip.Addr) (val V, ok bool) {
	if !ip.IsValid() {
		return val, ok
	}

	is4 := ip.Is4()
	octets := ip.AsSlice()

	n := t.rootNodeByVersion(is4)

	stack := [maxTreeDepth]*node[V]{}

	var depth int
	var octet byte

LOOP:
	for depth, octet = range octets {
		depth = depth & depthMask

		stack[depth] = n

		if !n.children.Test(octet) {
			break LOOP
		}
		kid := n.mustGetChild(octet)

		switch kid := kid.(type) {
		case *node[V]:
			n = kid
			continue LOOP

		case *fringeNode[V]:
			return kid.value, true

		case *leafNode[V]:
			if kid.prefix.Contains(ip) {
				return kid.value, true
			}
			break LOOP

		default:
			panic("logic error, wrong node type")
		}
	}

	for ; depth >= 0; depth-- {
		depth = depth & depthMask

		n = stack[depth]

		if n.prefixCount() != 0 {
			idx := art.OctetToIdx(octets[depth])
			if lpmIdx, ok2 := n.prefixes.IntersectionTop(&lpm.LookupTbl[idx]); ok2 {
				return n.mustGetPrefix(lpmIdx), ok2
			}
		}
	}

	return val, ok
}

// LookupPrefix does a route lookup (longest prefix match) for pfx and
// returns the associated value and true, or false if no route matched.
func (t *Table[V]) LookupPrefix(pfx netip.Prefix) (val V, ok bool) {
	_, val, ok = t.lookupPrefixLPM(pfx, false)
	return val, ok
}

// LookupPrefixLPM is similar to [Table.LookupPrefix],
// but it returns the lpm prefix in addition to value,ok.
//
// This method is about 20-30% slower than LookupPrefix and should only
// be used if the matching lpm entry is also required for other reasons.
func (t *Table[V]) LookupPrefixLPM(pfx netip.Prefix) (lpmPfx netip.Prefix, val V, ok bool) {
	return t.lookupPrefixLPM(pfx, true)
}

func (t *Table[V]) lookupPrefixLPM(pfx netip.Prefix, withLPM bool) (lpmPfx netip.Prefix, val V, ok bool) {
	if !pfx.IsValid() {
		return lpmPfx, val, ok
	}

	pfx = pfx.Masked()

	ip := pfx.Addr()
	bits := pfx.Bits()
	is4 := ip.Is4()
	octets := ip.AsSlice()
	lastOctetPlusOne, lastBits := lastOctetPlusOneAndLastBits(pfx)

	n := t.rootNodeByVersion(is4)

	stack := [maxTreeDepth]*node[V]{}

	var depth int
	var octet byte

LOOP:
	for depth, octet = range octets {
		depth = depth & depthMask

		if depth > lastOctetPlusOne {
			depth--
			break
		}
		stack[depth] = n

		if !n.children.Test(octet) {
			break LOOP
		}
		kid := n.mustGetChild(octet)

		switch kid := kid.(type) {
		case *node[V]:
			n = kid
			continue LOOP

		case *leafNode[V]:
			if kid.prefix.Bits() > bits || !kid.prefix.Contains(ip) {
				break LOOP
			}
			return kid.prefix, kid.value, true

		case *fringeNode[V]:
			fringeBits := (depth + 1) << 3
			if fringeBits > bits {
				break LOOP
			}

			if !withLPM {
				return netip.Prefix{}, kid.value, true
			}

			fringePfx := cidrForFringe(octets, depth, is4, octet)
			return fringePfx, kid.value, true

		default:
			panic("logic error, wrong node type")
		}
	}

	for ; depth >= 0; depth-- {
		depth = depth & depthMask

		n = stack[depth]

		if n.prefixes.Len() == 0 {
			continue
		}

		var idx uint8
		octet = octets[depth]
		if depth == lastOctetPlusOne {
			idx = art.PfxToIdx(octet, int(lastBits))
		} else {
			idx = art.OctetToIdx(octet)
		}

		if topIdx, ok2 := n.prefixes.IntersectionTop(&lpm.LookupTbl[idx]); ok2 {
			val = n.mustGetPrefix(topIdx)

			if !withLPM {
				return netip.Prefix{}, val, ok2
			}

			pfxBits := art.PfxBits(depth, topIdx)

			lpmPfx, _ = ip.Prefix(pfxBits)
			return lpmPfx, val, ok2
		}
	}

	return lpmPfx, val, ok
}

// Supernets returns an iterator over all supernet routes that cover the given prefix pfx.
//
// The traversal searches both exact-length and shorter (less specific) prefixes that
// overlap or include pfx. Starting from the most specific position in the trie,
// it walks upward through parent nodes and yields any matching entries found at each level.
//
// The iteration order is reverse-CIDR: from longest prefix match (LPM) towards
// least-specific routes.
//
// The search is protocol-specific (IPv4 or IPv6) and stops immediately if the yield
// function returns false. If pfx is invalid, the function silently returns.
func (t *Table[V]) Supernets(pfx netip.Prefix) iter.Seq2[netip.Prefix, V] {
	return func(yield func(netip.Prefix, V) bool) {
		if !pfx.IsValid() {
			return
		}

		pfx = pfx.Masked()

		ip := pfx.Addr()
		is4 := ip.Is4()
		octets := ip.AsSlice()
		lastOctetPlusOne, lastBits := lastOctetPlusOneAndLastBits(pfx)

		n := t.rootNodeByVersion(is4)

		stack := [maxTreeDepth]*node[V]{}

		var depth int
		var octet byte

	LOOP:
		for depth, octet = range octets {
			if depth > lastOctetPlusOne {
				depth--
				break
			}
			stack[depth] = n

			if !n.children.Test(octet) {
				break LOOP
			}
			kid := n.mustGetChild(octet)

			switch kid := kid.(type) {
			case *node[V]:
				n = kid
				continue LOOP

			case *leafNode[V]:
				if kid.prefix.Bits() > pfx.Bits() {
					break LOOP
				}

				if kid.prefix.Overlaps(pfx) {
					if !yield(kid.prefix, kid.value) {
						return
					}
				}
				break LOOP

			case *fringeNode[V]:
				fringePfx := cidrForFringe(octets, depth, is4, octet)
				if fringePfx.Bits() > pfx.Bits() {
					break LOOP
				}

				if fringePfx.Overlaps(pfx) {
					if !yield(fringePfx, kid.value) {
						return
					}
				}
				break LOOP

			default:
				panic("logic error, wrong node type")
			}
		}

		for ; depth >= 0; depth-- {
			n = stack[depth]

			var idx uint8
			octet = octets[depth]
			if depth == lastOctetPlusOne {
				idx = art.PfxToIdx(octet, int(lastBits))
			} else {
				idx = art.OctetToIdx(octet)
			}

			if !n.contains(idx) {
				continue
			}

			if !n.eachLookupPrefix(octets, depth, is4, idx, yield) {
				return
			}
		}
	}
}

// Subnets returns an iterator over all prefix-value pairs in the routing table
// that are fully contained within the given prefix pfx.
//
// Entries are returned in CIDR sort order.
func (t *Table[V]) Subnets(pfx netip.Prefix) iter.Seq2[netip.Prefix, V] {
	return func(yield func(netip.Prefix, V) bool) {
		if !pfx.IsValid() {
			return
		}

		pfx = pfx.Masked()

		ip := pfx.Addr()
		is4 := ip.Is4()
		octets := ip.AsSlice()
		lastOctetPlusOne, lastBits := lastOctetPlusOneAndLastBits(pfx)

		n := t.rootNodeByVersion(is4)

		for depth, octet := range octets {
			if depth == lastOctetPlusOne {
				idx := art.PfxToIdx(octet, int(lastBits))
				_ = n.eachSubnet(octets, depth, is4, idx, yield)
				return
			}

			if !n.children.Test(octet) {
				return
			}
			kid := n.mustGetChild(octet)

			switch kid := kid.(type) {
			case *node[V]:
				n = kid
				continue

			case *leafNode[V]:
				if pfx.Bits() <= kid.prefix.Bits() && pfx.Overlaps(kid.prefix) {
					_ = yield(kid.prefix, kid.value)
				}
				return

			case *fringeNode[V]:
				fringePfx := cidrForFringe(octets, depth, is4, octet)
				if pfx.Bits() <= fringePfx.Bits() && pfx.Overlaps(fringePfx) {
					_ = yield(fringePfx, kid.value)
				}
				return

			default:
				panic("logic error, wrong node type")
			}
		}
	}
}

// Union merges all prefixes from o into t, mutating t in place. Entries
// present in both tables are overwritten with o's value.
//
// If the payload type V contains pointers or needs deep copying for a
// faithful merge, it must implement the [Cloner] interface.
func (t *Table[V]) Union(o *Table[V]) {
	dups4 := t.root4.unionRec(&o.root4, 0)
	dups6 := t.root6.unionRec(&o.root6, 0)

	t.size4 += o.size4 - dups4
	t.size6 += o.size6 - dups6
}

// UnionPersist is similar to Union but does not modify the receiver or
// o: it returns a new Table holding the merged result. Every node taken
// from o is cloned, as is every node of t on a merge path; untouched
// nodes of t stay shared between t and the returned Table.
//
// If the payload type V contains pointers or needs deep copying, it
// must implement the [Cloner] interface for correct cloning.
func (t *Table[V]) UnionPersist(o *Table[V]) *Table[V] {
	cloneFn := cloneFnFactory[V]()

	pt := &Table[V]{
		size4: t.size4,
		size6: t.size6,
	}

	pt.root4 = *t.root4.cloneFlat(cloneFn)
	pt.root6 = *t.root6.cloneFlat(cloneFn)

	dups4 := pt.root4.unionRecPersist(&o.root4, 0, cloneFn)
	dups6 := pt.root6.unionRecPersist(&o.root6, 0, cloneFn)

	pt.size4 += o.size4 - dups4
	pt.size6 += o.size6 - dups6

	return pt
}

// Overlaps4 reports whether any IPv4 prefix in t overlaps with any IPv4
// prefix in o, i.e. one contains the other or they are identical.
func (t *Table[V]) Overlaps4(o *Table[V]) bool {
	if t.size4 == 0 || o.size4 == 0 {
		return false
	}
	return t.root4.overlaps(&o.root4, 0)
}

// Overlaps6 reports whether any IPv6 prefix in t overlaps with any IPv6
// prefix in o, i.e. one contains the other or they are identical.
func (t *Table[V]) Overlaps6(o *Table[V]) bool {
	if t.size6 == 0 || o.size6 == 0 {
		return false
	}
	return t.root6.overlaps(&o.root6, 0)
}

// Overlaps reports whether any IP prefix in t overlaps with any prefix in
// o, for either address family.
func (t *Table[V]) Overlaps(o *Table[V]) bool {
	return t.Overlaps4(o) || t.Overlaps6(o)
}

// OverlapsPrefix reports whether pfx overlaps with any prefix already
// stored in t.
func (t *Table[V]) OverlapsPrefix(pfx netip.Prefix) bool {
	if !pfx.IsValid() {
		return false
	}

	pfx = pfx.Masked()
	is4 := pfx.Addr().Is4()

	n := t.rootNodeByVersion(is4)
	return n.overlapsPrefixAtDepth(pfx, 0)
}

// All returns an iterator over all prefix-value pairs in the table, IPv4
// followed by IPv6, each family in CIDR sort order.
func (t *Table[V]) All() iter.Seq2[netip.Prefix, V] {
	return func(yield func(netip.Prefix, V) bool) {
		var path stridePath
		if !t.root4.allRecSorted(path, 0, true, yield) {
			return
		}
		t.root6.allRecSorted(path, 0, false, yield)
	}
}

// All4 returns an iterator over all IPv4 prefix-value pairs in CIDR sort order.
func (t *Table[V]) All4() iter.Seq2[netip.Prefix, V] {
	return func(yield func(netip.Prefix, V) bool) {
		var path stridePath
		t.root4.allRecSorted(path, 0, true, yield)
	}
}

// All6 returns an iterator over all IPv6 prefix-value pairs in CIDR sort order.
func (t *Table[V]) All6() iter.Seq2[netip.Prefix, V] {
	return func(yield func(netip.Prefix, V) bool) {
		var path stridePath
		t.root6.allRecSorted(path, 0, false, yield)
	}
}

// Clone returns a deep copy of the table: every node, including all
// prefixes, children, leaves and fringes, is freshly allocated. Mutating
// the clone never affects the receiver, and vice versa.
//
// If the payload type V contains pointers or needs deep copying,
// it must implement the [Cloner] interface for correct cloning.
func (t *Table[V]) Clone() *Table[V] {
	cloneFn := cloneFnFactory[V]()

	ct := &Table[V]{
		size4: t.size4,
		size6: t.size6,
	}

	ct.root4 = *t.root4.cloneRec(cloneFn)
	ct.root6 = *t.root6.cloneRec(cloneFn)

	return ct
}

// Equal reports whether t and o contain the same set of prefixes, each
// mapped to an equal value. Values are compared with [Equaler.Equal] if
// V implements it, otherwise with [reflect.DeepEqual].
func (t *Table[V]) Equal(o *Table[V]) bool {
	if t.size4 != o.size4 || t.size6 != o.size6 {
		return false
	}

	for pfx, val := range t.All4() {
		oVal, ok := o.Get(pfx)
		if !ok || !valuesEqual(val, oVal) {
			return false
		}
	}

	for pfx, val := range t.All6() {
		oVal, ok := o.Get(pfx)
		if !ok || !valuesEqual(val, oVal) {
			return false
		}
	}

	return true
}

func valuesEqual[V any](a, b V) bool {
	if eq, ok := any(a).(Equaler[V]); ok {
		return eq.Equal(b)
	}
	return reflect.DeepEqual(a, b)
}
