// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package triebase

import "testing"

func TestInsertPersistDoesNotMutateReceiver(t *testing.T) {
	t.Parallel()

	t0 := new(Table[int])
	t0.Insert(mpp("10.0.0.0/8"), 1)

	t1 := t0.InsertPersist(mpp("10.1.0.0/16"), 2)

	if _, ok := t0.Get(mpp("10.1.0.0/16")); ok {
		t.Fatalf("InsertPersist mutated the receiver")
	}
	if v, ok := t1.Get(mpp("10.1.0.0/16")); !ok || v != 2 {
		t.Fatalf("t1.Get(10.1.0.0/16) = %d, %v, want 2, true", v, ok)
	}
	if t0.Size() != 1 || t1.Size() != 2 {
		t.Fatalf("sizes after InsertPersist: t0=%d t1=%d, want 1, 2", t0.Size(), t1.Size())
	}
}

func TestInsertPersistReplacesLeafRatherThanMutating(t *testing.T) {
	t.Parallel()

	t0 := new(Table[int])
	t0.Insert(mpp("10.0.0.1/32"), 1)

	t1 := t0.InsertPersist(mpp("10.0.0.1/32"), 2)

	if v, _ := t0.Get(mpp("10.0.0.1/32")); v != 1 {
		t.Fatalf("InsertPersist on existing leaf mutated t0's value: got %d, want 1", v)
	}
	if v, _ := t1.Get(mpp("10.0.0.1/32")); v != 2 {
		t.Fatalf("t1.Get(10.0.0.1/32) = %d, want 2", v)
	}
}

func TestUpdatePersistDoesNotMutateReceiver(t *testing.T) {
	t.Parallel()

	t0 := new(Table[int])
	t0.Insert(mpp("10.0.0.0/8"), 1)

	t1, newVal := t0.UpdatePersist(mpp("10.0.0.0/8"), func(v int, ok bool) int {
		return v + 41
	})

	if newVal != 42 {
		t.Fatalf("UpdatePersist returned %d, want 42", newVal)
	}
	if v, _ := t0.Get(mpp("10.0.0.0/8")); v != 1 {
		t.Fatalf("UpdatePersist mutated receiver: got %d, want 1", v)
	}
	if v, _ := t1.Get(mpp("10.0.0.0/8")); v != 42 {
		t.Fatalf("t1.Get(10.0.0.0/8) = %d, want 42", v)
	}
}

func TestDeletePersistDoesNotMutateReceiver(t *testing.T) {
	t.Parallel()

	t0 := new(Table[int])
	t0.Insert(mpp("10.0.0.0/8"), 1)
	t0.Insert(mpp("10.1.0.0/16"), 2)

	t1, val, ok := t0.GetAndDeletePersist(mpp("10.1.0.0/16"))
	if !ok || val != 2 {
		t.Fatalf("GetAndDeletePersist = %d, %v, want 2, true", val, ok)
	}

	if _, ok := t0.Get(mpp("10.1.0.0/16")); !ok {
		t.Fatalf("DeletePersist mutated the receiver: entry missing in t0")
	}
	if _, ok := t1.Get(mpp("10.1.0.0/16")); ok {
		t.Fatalf("t1 still has the deleted entry")
	}
	if t0.Size() != 2 || t1.Size() != 1 {
		t.Fatalf("sizes after DeletePersist: t0=%d t1=%d, want 2, 1", t0.Size(), t1.Size())
	}
}

func TestUnionPersistDoesNotMutateEitherReceiver(t *testing.T) {
	t.Parallel()

	a := new(Table[int])
	a.Insert(mpp("10.0.0.0/8"), 1)

	b := new(Table[int])
	b.Insert(mpp("192.168.0.0/16"), 2)

	merged := a.UnionPersist(b)

	if a.Size() != 1 || b.Size() != 1 {
		t.Fatalf("UnionPersist mutated an input table: a.Size()=%d b.Size()=%d", a.Size(), b.Size())
	}
	if merged.Size() != 2 {
		t.Fatalf("merged.Size() = %d, want 2", merged.Size())
	}
	if v, ok := merged.Get(mpp("10.0.0.0/8")); !ok || v != 1 {
		t.Fatalf("merged missing a's entry")
	}
	if v, ok := merged.Get(mpp("192.168.0.0/16")); !ok || v != 2 {
		t.Fatalf("merged missing b's entry")
	}
}
