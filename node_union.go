// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package triebase

// unionRec merges the prefixes and children of o into the receiver n,
// mutating both n and any of its descendants in place. Values for
// prefixes and children present in both n and o are overwritten with
// o's value. depth is n's own depth in the trie, needed to place any
// leaf/fringe pushed down into a freshly created child node. Returns the
// number of duplicate (already-present) prefixes encountered, so the
// caller can keep its size counter accurate. Values and children taken
// from o are cloned (see [Cloner]), so n shares no state with o.
func (n *node[V]) unionRec(o *node[V], depth int) (duplicates int) {
	cloneFn := cloneFnFactory[V]()

	for idx, val := range o.allIndices() {
		if n.insertPrefix(idx, cloneFn(val)) {
			duplicates++
		}
	}

	for addr, oKid := range o.allChildren() {
		if !n.children.Test(addr) {
			n.insertChild(addr, cloneChildPersist(oKid, cloneFn))
			continue
		}

		nKid := n.mustGetChild(addr)
		duplicates += handleMatrix(n, addr, nKid, oKid, depth+1)
	}

	return duplicates
}

// handleMatrix reconciles two children found at the same octet address
// during a union, dispatching over the 3x3 combination of node, leaf and
// fringe. The merged result replaces n's child at addr. depth is the
// depth of the child itself (one past n's depth). Returns the number of
// duplicate prefixes encountered.
func handleMatrix[V any](n *node[V], addr uint8, nKid, oKid any, depth int) (duplicates int) {
	return handleMatrixImpl(n, addr, nKid, oKid, depth, false, cloneFnFactory[V]())
}

// handleMatrixPersist is handleMatrix's copy-on-write variant: any node
// promoted or descended into is cloned via cloneFn first.
func handleMatrixPersist[V any](n *node[V], addr uint8, nKid, oKid any, depth int, cloneFn cloneFunc[V]) (duplicates int) {
	return handleMatrixImpl(n, addr, nKid, oKid, depth, true, cloneFn)
}

func handleMatrixImpl[V any](n *node[V], addr uint8, nKid, oKid any, depth int, persist bool, cloneFn cloneFunc[V]) (duplicates int) {
	// oVal returns o's payload deep-cloned via cloneFn, so the merged
	// tree shares no mutable payload state with o.
	oVal := cloneFn

	switch nk := nKid.(type) {
	case *node[V]:
		switch ok := oKid.(type) {
		case *node[V]:
			if persist {
				nk = nk.cloneFlat(cloneFn)
				n.insertChild(addr, nk)
				return nk.unionRecPersist(ok, depth, cloneFn)
			}
			return nk.unionRec(ok, depth)

		case *leafNode[V]:
			var exists bool
			if persist {
				nk = nk.cloneFlat(cloneFn)
				n.insertChild(addr, nk)
				exists = nk.insertPersist(cloneFn, ok.prefix, oVal(ok.value), depth)
			} else {
				exists = nk.insert(ok.prefix, oVal(ok.value), depth)
			}
			if exists {
				duplicates++
			}
			return duplicates

		case *fringeNode[V]:
			if persist {
				nk = nk.cloneFlat(cloneFn)
				n.insertChild(addr, nk)
			}
			if nk.insertPrefix(1, oVal(ok.value)) {
				duplicates++
			}
			return duplicates
		}

	case *leafNode[V]:
		switch ok := oKid.(type) {
		case *node[V]:
			newNode := new(node[V])
			newNode.insert(nk.prefix, nk.value, depth)

			if persist {
				duplicates = newNode.unionRecPersist(ok, depth, cloneFn)
			} else {
				duplicates = newNode.unionRec(ok, depth)
			}
			n.insertChild(addr, newNode)
			return duplicates

		case *leafNode[V]:
			if nk.prefix == ok.prefix {
				n.insertChild(addr, newLeafNode(ok.prefix, oVal(ok.value)))
				return 1
			}

			newNode := new(node[V])
			newNode.insert(nk.prefix, nk.value, depth)
			newNode.insert(ok.prefix, oVal(ok.value), depth)
			n.insertChild(addr, newNode)
			return 0

		case *fringeNode[V]:
			newNode := new(node[V])
			newNode.insert(nk.prefix, nk.value, depth)
			newNode.insertPrefix(1, oVal(ok.value))
			n.insertChild(addr, newNode)
			return 0
		}

	case *fringeNode[V]:
		switch ok := oKid.(type) {
		case *node[V]:
			newNode := new(node[V])
			newNode.insertPrefix(1, nk.value)

			if persist {
				duplicates = newNode.unionRecPersist(ok, depth, cloneFn)
			} else {
				duplicates = newNode.unionRec(ok, depth)
			}
			n.insertChild(addr, newNode)
			return duplicates

		case *leafNode[V]:
			newNode := new(node[V])
			newNode.insertPrefix(1, nk.value)
			newNode.insert(ok.prefix, oVal(ok.value), depth)
			n.insertChild(addr, newNode)
			return 0

		case *fringeNode[V]:
			n.insertChild(addr, newFringeNode(oVal(ok.value)))
			return 1
		}
	}

	panic("logic error, wrong node type")
}

// unionRecPersist is unionRec's copy-on-write variant: every node from o
// that gets grafted into n is deep-cloned via cloneFn first, so the
// merged tree shares no mutable state with o.
func (n *node[V]) unionRecPersist(o *node[V], depth int, cloneFn cloneFunc[V]) (duplicates int) {
	for idx, val := range o.allIndices() {
		if n.insertPrefix(idx, cloneFn(val)) {
			duplicates++
		}
	}

	for addr, oKid := range o.allChildren() {
		if !n.children.Test(addr) {
			n.insertChild(addr, cloneChildPersist(oKid, cloneFn))
			continue
		}

		nKid := n.mustGetChild(addr)
		duplicates += handleMatrixPersist(n, addr, nKid, oKid, depth+1, cloneFn)
	}

	return duplicates
}

// cloneChildPersist deep-clones a single child (node, leaf or fringe)
// being grafted from o into n during a persistent union.
func cloneChildPersist[V any](kid any, cloneFn cloneFunc[V]) any {
	switch kid := kid.(type) {
	case *node[V]:
		return kid.cloneRec(cloneFn)
	case *leafNode[V]:
		return &leafNode[V]{prefix: kid.prefix, value: cloneFn(kid.value)}
	case *fringeNode[V]:
		return &fringeNode[V]{value: cloneFn(kid.value)}
	default:
		panic("logic error, wrong node type")
	}
}
