// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package triebase

import "testing"

func TestNodeUnionRecMergesDisjointChildren(t *testing.T) {
	t.Parallel()

	a := new(node[int])
	a.insert(mpp("10.0.0.0/24"), 1, 0)

	b := new(node[int])
	b.insert(mpp("192.168.0.0/24"), 2, 0)

	dups := a.unionRec(b, 0)
	if dups != 0 {
		t.Fatalf("unionRec() dups = %d, want 0", dups)
	}

	if _, ok := a.getChild(10); !ok {
		t.Fatalf("merged node lost its own child at octet 10")
	}
	if _, ok := a.getChild(192); !ok {
		t.Fatalf("merged node missing grafted child at octet 192")
	}
}

func TestNodeUnionRecOverwritesDuplicatePrefix(t *testing.T) {
	t.Parallel()

	a := new(node[int])
	a.insertPrefix(1, 1) // default route idx

	b := new(node[int])
	b.insertPrefix(1, 2)

	dups := a.unionRec(b, 0)
	if dups != 1 {
		t.Fatalf("unionRec() dups = %d, want 1", dups)
	}

	if v, _ := a.getPrefix(1); v != 2 {
		t.Fatalf("unionRec did not overwrite duplicate value: got %d, want 2", v)
	}
}
