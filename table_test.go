// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package triebase

import (
	"net/netip"
	"testing"
)

var mpp = func(s string) netip.Prefix {
	return netip.MustParsePrefix(s).Masked()
}

var mpa = netip.MustParseAddr

func TestInvalidInputs(t *testing.T) {
	t.Parallel()

	tbl := new(Table[int])
	var zeroPfx netip.Prefix
	var zeroIP netip.Addr

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("operation on invalid input panicked: %v", r)
		}
	}()

	tbl.Insert(zeroPfx, 1)
	tbl.Delete(zeroPfx)
	tbl.Get(zeroPfx)
	tbl.Contains(zeroIP)
	tbl.Lookup(zeroIP)
	tbl.LookupPrefix(zeroPfx)
	_ = tbl.InsertPersist(zeroPfx, 1)
	_ = tbl.DeletePersist(zeroPfx)
}

func TestInsertGetDelete(t *testing.T) {
	t.Parallel()

	tbl := new(Table[string])

	tbl.Insert(mpp("10.0.0.0/8"), "ten")
	tbl.Insert(mpp("10.1.0.0/16"), "ten-one")
	tbl.Insert(mpp("2001:db8::/32"), "doc")

	if v, ok := tbl.Get(mpp("10.0.0.0/8")); !ok || v != "ten" {
		t.Fatalf("Get(10.0.0.0/8) = %q, %v, want ten, true", v, ok)
	}

	if got := tbl.Size(); got != 3 {
		t.Fatalf("Size() = %d, want 3", got)
	}
	if got := tbl.Size4(); got != 2 {
		t.Fatalf("Size4() = %d, want 2", got)
	}
	if got := tbl.Size6(); got != 1 {
		t.Fatalf("Size6() = %d, want 1", got)
	}

	if v, ok := tbl.Delete(mpp("10.1.0.0/16")); !ok || v != "ten-one" {
		t.Fatalf("Delete(10.1.0.0/16) = %q, %v, want ten-one, true", v, ok)
	}
	if _, ok := tbl.Get(mpp("10.1.0.0/16")); ok {
		t.Fatalf("Get(10.1.0.0/16) found after delete")
	}
	if got := tbl.Size(); got != 2 {
		t.Fatalf("Size() after delete = %d, want 2", got)
	}
}

func TestLookupLPM(t *testing.T) {
	t.Parallel()

	tbl := new(Table[string])
	tbl.Insert(mpp("192.168.0.0/16"), "campus")
	tbl.Insert(mpp("192.168.1.0/24"), "floor1")

	val, ok := tbl.Lookup(mpa("192.168.1.5"))
	if !ok || val != "floor1" {
		t.Fatalf("Lookup(192.168.1.5) = %q, %v, want floor1, true", val, ok)
	}

	val, ok = tbl.Lookup(mpa("192.168.2.5"))
	if !ok || val != "campus" {
		t.Fatalf("Lookup(192.168.2.5) = %q, %v, want campus, true", val, ok)
	}

	if _, ok := tbl.Lookup(mpa("10.0.0.1")); ok {
		t.Fatalf("Lookup(10.0.0.1) matched, want no match")
	}
}

func TestLookupPrefixLPM(t *testing.T) {
	t.Parallel()

	tbl := new(Table[int])
	tbl.Insert(mpp("10.0.0.0/8"), 1)
	tbl.Insert(mpp("10.20.0.0/16"), 2)

	lpmPfx, val, ok := tbl.LookupPrefixLPM(mpp("10.20.30.0/24"))
	if !ok || val != 2 || lpmPfx != mpp("10.20.0.0/16") {
		t.Fatalf("LookupPrefixLPM(10.20.30.0/24) = %v, %v, %v, want 10.20.0.0/16, 2, true", lpmPfx, val, ok)
	}
}

func TestContains(t *testing.T) {
	t.Parallel()

	tbl := new(Table[struct{}])
	tbl.Insert(mpp("172.16.0.0/12"), struct{}{})

	if !tbl.Contains(mpa("172.16.5.5")) {
		t.Fatalf("Contains(172.16.5.5) = false, want true")
	}
	if tbl.Contains(mpa("8.8.8.8")) {
		t.Fatalf("Contains(8.8.8.8) = true, want false")
	}
}

func TestSupernetsSubnets(t *testing.T) {
	t.Parallel()

	tbl := new(Table[int])
	tbl.Insert(mpp("10.0.0.0/8"), 1)
	tbl.Insert(mpp("10.0.0.0/16"), 2)
	tbl.Insert(mpp("10.0.0.0/24"), 3)

	var supers []netip.Prefix
	for pfx := range tbl.Supernets(mpp("10.0.0.0/24")) {
		supers = append(supers, pfx)
	}
	want := []netip.Prefix{mpp("10.0.0.0/24"), mpp("10.0.0.0/16"), mpp("10.0.0.0/8")}
	if len(supers) != len(want) {
		t.Fatalf("Supernets returned %v, want %v", supers, want)
	}
	for i := range want {
		if supers[i] != want[i] {
			t.Fatalf("Supernets()[%d] = %v, want %v", i, supers[i], want[i])
		}
	}

	var subs []netip.Prefix
	for pfx := range tbl.Subnets(mpp("10.0.0.0/8")) {
		subs = append(subs, pfx)
	}
	if len(subs) != 3 {
		t.Fatalf("Subnets(10.0.0.0/8) returned %d entries, want 3", len(subs))
	}
}

func TestAllIterators(t *testing.T) {
	t.Parallel()

	tbl := new(Table[int])
	tbl.Insert(mpp("10.0.0.0/8"), 1)
	tbl.Insert(mpp("192.168.0.0/16"), 2)
	tbl.Insert(mpp("2001:db8::/32"), 3)

	var all4, all6 int
	for range tbl.All4() {
		all4++
	}
	for range tbl.All6() {
		all6++
	}
	if all4 != 2 {
		t.Fatalf("All4 yielded %d entries, want 2", all4)
	}
	if all6 != 1 {
		t.Fatalf("All6 yielded %d entries, want 1", all6)
	}

	var all int
	for range tbl.All() {
		all++
	}
	if all != 3 {
		t.Fatalf("All yielded %d entries, want 3", all)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()

	tbl := new(Table[int])
	tbl.Insert(mpp("10.0.0.0/8"), 1)

	clone := tbl.Clone()
	clone.Insert(mpp("10.0.0.0/8"), 2)
	clone.Insert(mpp("192.168.0.0/16"), 3)

	if v, _ := tbl.Get(mpp("10.0.0.0/8")); v != 1 {
		t.Fatalf("original table mutated by clone: got %d, want 1", v)
	}
	if tbl.Size() != 1 {
		t.Fatalf("original table size changed by clone: got %d, want 1", tbl.Size())
	}
}

func TestEqual(t *testing.T) {
	t.Parallel()

	a := new(Table[int])
	a.Insert(mpp("10.0.0.0/8"), 1)
	a.Insert(mpp("192.168.0.0/16"), 2)

	b := new(Table[int])
	b.Insert(mpp("192.168.0.0/16"), 2)
	b.Insert(mpp("10.0.0.0/8"), 1)

	if !a.Equal(b) {
		t.Fatalf("Equal() = false for tables with the same entries")
	}

	b.Insert(mpp("172.16.0.0/12"), 3)
	if a.Equal(b) {
		t.Fatalf("Equal() = true for tables with differing entries")
	}
}

func TestUnion(t *testing.T) {
	t.Parallel()

	a := new(Table[int])
	a.Insert(mpp("10.0.0.0/8"), 1)
	a.Insert(mpp("10.1.0.0/16"), 2)

	b := new(Table[int])
	b.Insert(mpp("10.1.0.0/16"), 99) // overwrites a's value
	b.Insert(mpp("192.168.0.0/16"), 3)

	a.Union(b)

	if v, _ := a.Get(mpp("10.1.0.0/16")); v != 99 {
		t.Fatalf("Union() did not overwrite duplicate: got %d, want 99", v)
	}
	if v, _ := a.Get(mpp("192.168.0.0/16")); v != 3 {
		t.Fatalf("Union() missing merged entry: got %d, want 3", v)
	}
	if a.Size() != 3 {
		t.Fatalf("Union() size = %d, want 3", a.Size())
	}
}

func TestOverlaps(t *testing.T) {
	t.Parallel()

	a := new(Table[int])
	a.Insert(mpp("10.0.0.0/8"), 1)

	b := new(Table[int])
	b.Insert(mpp("10.1.0.0/16"), 2)

	if !a.Overlaps(b) {
		t.Fatalf("Overlaps() = false, want true for 10.1.0.0/16 inside 10.0.0.0/8")
	}

	c := new(Table[int])
	c.Insert(mpp("192.168.0.0/16"), 3)

	if a.Overlaps(c) {
		t.Fatalf("Overlaps() = true, want false for disjoint prefixes")
	}

	if !a.OverlapsPrefix(mpp("10.2.0.0/16")) {
		t.Fatalf("OverlapsPrefix(10.2.0.0/16) = false, want true")
	}
	if a.OverlapsPrefix(mpp("172.16.0.0/16")) {
		t.Fatalf("OverlapsPrefix(172.16.0.0/16) = true, want false")
	}
}
