// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package triebase

// cloneFunc clones a payload value of type V. Used to deep-copy values
// that implement Cloner during a copy-on-write mutation.
type cloneFunc[V any] func(V) V

// cloneValue returns a deep copy of v if V implements Cloner[V],
// otherwise v is returned unchanged (a plain-assignment copy).
func cloneValue[V any](v V) V {
	if c, ok := any(v).(Cloner[V]); ok {
		return c.Clone()
	}
	return v
}

// cloneFnFactory returns the cloning function to use for payload type V
// throughout one persistent mutation.
func cloneFnFactory[V any]() cloneFunc[V] {
	return cloneValue[V]
}

// cloneFlat returns a shallow copy of n suitable for copy-on-write:
// the prefixes and children sparse arrays get their own backing slices,
// but *node[V] child pointers are still shared with n until the mutation
// path touches them. Leaf and fringe children are re-allocated. Stored
// values, in prefixes and in leaves/fringes, are deep-copied via cloneFn
// when V implements Cloner.
func (n *node[V]) cloneFlat(cloneFn cloneFunc[V]) *node[V] {
	if n == nil {
		return nil
	}

	c := new(node[V])

	c.prefixes = *n.prefixes.Copy()
	for i, v := range c.prefixes.Items {
		c.prefixes.Items[i] = cloneFn(v)
	}

	c.children = *n.children.Copy()
	for i, kid := range c.children.Items {
		switch kid := kid.(type) {
		case *leafNode[V]:
			c.children.Items[i] = &leafNode[V]{prefix: kid.prefix, value: cloneFn(kid.value)}
		case *fringeNode[V]:
			c.children.Items[i] = &fringeNode[V]{value: cloneFn(kid.value)}
		case *node[V]:
			// left shared, cloned lazily by the mutation path that touches it
		}
	}

	return c
}

// cloneRec returns a full, deep copy of the subtree rooted at n: every
// *node[V] child is recursively cloned too. Used by Table.Clone.
func (n *node[V]) cloneRec(cloneFn cloneFunc[V]) *node[V] {
	if n == nil {
		return nil
	}

	c := n.cloneFlat(cloneFn)

	for i, kid := range c.children.Items {
		if kid, ok := kid.(*node[V]); ok {
			c.children.Items[i] = kid.cloneRec(cloneFn)
		}
	}

	return c
}
