// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package triebase

import (
	"math/rand/v2"
	"net/netip"
	"testing"
)

type fuzzEntry struct {
	pfx netip.Prefix
	val int
}

func randomFuzzAddr4(prng *rand.Rand) netip.Addr {
	var b [4]byte
	for i := range b {
		b[i] = byte(prng.IntN(256))
	}
	return netip.AddrFrom4(b)
}

func randomFuzzAddr6(prng *rand.Rand) netip.Addr {
	var b [16]byte
	for i := range b {
		b[i] = byte(prng.IntN(256))
	}
	return netip.AddrFrom16(b)
}

// randomFuzzPrefixes returns n distinct prefixes, roughly split between
// IPv4 and IPv6, each carrying a distinct value.
func randomFuzzPrefixes(prng *rand.Rand, n int) []fuzzEntry {
	seen := map[netip.Prefix]bool{}
	out := make([]fuzzEntry, 0, n)

	for len(out) < n {
		var pfx netip.Prefix
		if prng.IntN(2) == 0 {
			pfx, _ = randomFuzzAddr4(prng).Prefix(prng.IntN(33))
		} else {
			pfx, _ = randomFuzzAddr6(prng).Prefix(prng.IntN(129))
		}
		pfx = pfx.Masked()
		if seen[pfx] {
			continue
		}
		seen[pfx] = true
		out = append(out, fuzzEntry{pfx, len(out)})
	}

	return out
}

// isFuzzSubnetOf reports whether p is covered by q (same family, p at
// least as specific, and p's network matches q's once masked to q's
// length) — the brute-force definition Subnets must agree with.
func isFuzzSubnetOf(p, q netip.Prefix) bool {
	if p.Addr().Is4() != q.Addr().Is4() {
		return false
	}
	if p.Bits() < q.Bits() {
		return false
	}
	return netip.PrefixFrom(p.Addr(), q.Bits()).Masked() == q.Masked()
}

// isFuzzSupernetOf is isFuzzSubnetOf with the roles reversed.
func isFuzzSupernetOf(r, p netip.Prefix) bool {
	return isFuzzSubnetOf(p, r)
}

func FuzzTableLookup(f *testing.F) {
	f.Add(uint64(12345), 150, 30)
	f.Add(uint64(67890), 400, 60)
	f.Add(uint64(0), 64, 16)

	f.Fuzz(func(t *testing.T, seed uint64, n, nq int) {
		if n < 1 || n > 2000 || nq < 1 || nq > 200 {
			t.Skip("bounds")
		}

		prng := rand.New(rand.NewPCG(seed, 13))
		entries := randomFuzzPrefixes(prng, n)
		queries := randomFuzzPrefixes(prng, nq)

		tbl := new(Table[int])
		for _, e := range entries {
			tbl.Insert(e.pfx, e.val)
		}

		for _, q := range queries {
			addr := q.pfx.Addr()

			wantVal, wantOK, wantBits := 0, false, -1
			for _, e := range entries {
				if e.pfx.Contains(addr) && e.pfx.Bits() > wantBits {
					wantVal, wantOK, wantBits = e.val, true, e.pfx.Bits()
				}
			}

			gotVal, gotOK := tbl.Lookup(addr)
			if gotOK != wantOK {
				t.Fatalf("Lookup(%v) ok = %v, want %v", addr, gotOK, wantOK)
			}
			if wantOK && gotVal != wantVal {
				t.Fatalf("Lookup(%v) = %d, want %d", addr, gotVal, wantVal)
			}
			if gotOK != tbl.Contains(addr) {
				t.Fatalf("Lookup/Contains disagree for %v", addr)
			}
		}
	})
}

func FuzzTableLookupPrefix(f *testing.F) {
	f.Add(uint64(222), 150, 30)
	f.Add(uint64(333), 400, 60)

	f.Fuzz(func(t *testing.T, seed uint64, n, nq int) {
		if n < 1 || n > 2000 || nq < 1 || nq > 200 {
			t.Skip("bounds")
		}

		prng := rand.New(rand.NewPCG(seed, 17))
		entries := randomFuzzPrefixes(prng, n)
		queries := randomFuzzPrefixes(prng, nq)

		tbl := new(Table[int])
		for _, e := range entries {
			tbl.Insert(e.pfx, e.val)
		}

		for _, q := range queries {
			wantVal, wantOK, wantBits := 0, false, -1
			wantPfx := netip.Prefix{}
			for _, e := range entries {
				if isFuzzSubnetOf(q.pfx, e.pfx) && e.pfx.Bits() > wantBits {
					wantVal, wantOK, wantBits, wantPfx = e.val, true, e.pfx.Bits(), e.pfx
				}
			}

			gotVal, gotOK := tbl.LookupPrefix(q.pfx)
			if gotOK != wantOK {
				t.Fatalf("LookupPrefix(%v) ok = %v, want %v", q.pfx, gotOK, wantOK)
			}
			if wantOK && gotVal != wantVal {
				t.Fatalf("LookupPrefix(%v) = %d, want %d", q.pfx, gotVal, wantVal)
			}

			gotPfx, gotLPMVal, gotLPMOK := tbl.LookupPrefixLPM(q.pfx)
			if gotLPMOK != wantOK || (wantOK && (gotLPMVal != wantVal || gotPfx != wantPfx)) {
				t.Fatalf("LookupPrefixLPM(%v) = (%v, %d, %v), want (%v, %d, %v)",
					q.pfx, gotPfx, gotLPMVal, gotLPMOK, wantPfx, wantVal, wantOK)
			}
		}
	})
}

func FuzzTableSubnets(f *testing.F) {
	f.Add(uint64(12345), 150, 30)
	f.Add(uint64(67890), 400, 60)
	f.Add(uint64(0), 64, 16)

	f.Fuzz(func(t *testing.T, seed uint64, n, nq int) {
		if n < 1 || n > 2000 || nq < 1 || nq > 200 {
			t.Skip("bounds")
		}

		prng := rand.New(rand.NewPCG(seed, 13))
		entries := randomFuzzPrefixes(prng, n)
		queries := randomFuzzPrefixes(prng, nq)

		tbl := new(Table[int])
		for _, e := range entries {
			tbl.Insert(e.pfx, e.val)
		}

		for _, q := range queries {
			want := map[netip.Prefix]bool{}
			for _, e := range entries {
				if isFuzzSubnetOf(e.pfx, q.pfx) {
					want[e.pfx] = true
				}
			}

			got := map[netip.Prefix]bool{}
			for pfx := range tbl.Subnets(q.pfx) {
				if got[pfx] {
					t.Fatalf("Subnets(%v) duplicate %v", q.pfx, pfx)
				}
				got[pfx] = true
			}

			if len(got) != len(want) {
				t.Fatalf("Subnets(%v) size mismatch: got %d, want %d", q.pfx, len(got), len(want))
			}
			for pfx := range want {
				if !got[pfx] {
					t.Fatalf("Subnets(%v) missing %v", q.pfx, pfx)
				}
			}
		}
	})
}

func FuzzTableSupernets(f *testing.F) {
	f.Add(uint64(222), 150, 30)
	f.Add(uint64(333), 400, 60)

	f.Fuzz(func(t *testing.T, seed uint64, n, nq int) {
		if n < 1 || n > 2000 || nq < 1 || nq > 200 {
			t.Skip("bounds")
		}

		prng := rand.New(rand.NewPCG(seed, 17))
		entries := randomFuzzPrefixes(prng, n)
		queries := randomFuzzPrefixes(prng, nq)

		tbl := new(Table[int])
		for _, e := range entries {
			tbl.Insert(e.pfx, e.val)
		}

		for _, q := range queries {
			want := map[netip.Prefix]bool{}
			for _, e := range entries {
				if isFuzzSupernetOf(e.pfx, q.pfx) {
					want[e.pfx] = true
				}
			}

			got := map[netip.Prefix]bool{}
			for pfx := range tbl.Supernets(q.pfx) {
				if got[pfx] {
					t.Fatalf("Supernets(%v) duplicate %v", q.pfx, pfx)
				}
				got[pfx] = true
			}

			if len(got) != len(want) {
				t.Fatalf("Supernets(%v) size mismatch: got %d, want %d", q.pfx, len(got), len(want))
			}
			for pfx := range want {
				if !got[pfx] {
					t.Fatalf("Supernets(%v) missing %v", q.pfx, pfx)
				}
			}
		}
	})
}

func FuzzTableOverlaps(f *testing.F) {
	f.Add(uint64(12345), 50, 50)
	f.Add(uint64(67890), 150, 75)

	f.Fuzz(func(t *testing.T, seed uint64, n1, n2 int) {
		if n1 < 1 || n1 > 1000 || n2 < 1 || n2 > 1000 {
			t.Skip("bounds")
		}

		prng := rand.New(rand.NewPCG(seed, 42))
		aEntries := randomFuzzPrefixes(prng, n1)
		bEntries := randomFuzzPrefixes(prng, n2)

		want := false
		for _, a := range aEntries {
			for _, b := range bEntries {
				if a.pfx.Overlaps(b.pfx) {
					want = true
					break
				}
			}
			if want {
				break
			}
		}

		a, b := new(Table[int]), new(Table[int])
		for _, e := range aEntries {
			a.Insert(e.pfx, e.val)
		}
		for _, e := range bEntries {
			b.Insert(e.pfx, e.val)
		}

		gotAB := a.Overlaps(b)
		gotBA := b.Overlaps(a)

		if gotAB != want {
			t.Fatalf("a.Overlaps(b) = %v, want %v", gotAB, want)
		}
		if gotAB != gotBA {
			t.Fatalf("Overlaps is not symmetric: a.Overlaps(b) = %v, b.Overlaps(a) = %v", gotAB, gotBA)
		}
	})
}

// TestOverlapsDefaultRoute covers S5 from spec.md §8: a default route
// (0-length prefix) overlaps every other prefix of the same family, and
// Overlaps is symmetric regardless of which table holds the default
// route.
func TestOverlapsDefaultRoute(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		deflt   netip.Prefix
		other   netip.Prefix
		overlap bool
	}{
		{"v4 default vs host", mpp("0.0.0.0/0"), mpp("192.0.2.1/32"), true},
		{"v4 default vs default", mpp("0.0.0.0/0"), mpp("0.0.0.0/0"), true},
		{"v6 default vs host", mpp("::/0"), mpp("2001:db8::1/128"), true},
		{"v4 default vs v6 host", mpp("0.0.0.0/0"), mpp("2001:db8::1/128"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			a := new(Table[int])
			a.Insert(tc.deflt, 1)

			b := new(Table[int])
			b.Insert(tc.other, 2)

			if got := a.Overlaps(b); got != tc.overlap {
				t.Fatalf("a.Overlaps(b) = %v, want %v", got, tc.overlap)
			}
			if got := b.Overlaps(a); got != tc.overlap {
				t.Fatalf("b.Overlaps(a) = %v, want %v (Overlaps must be symmetric)", got, tc.overlap)
			}
		})
	}
}

// TestOverlapsSymmetricNonTrivial exercises property 8's symmetry
// requirement (a.Overlaps(b) == b.Overlaps(a)) on a non-trivial,
// deliberately asymmetric pair of prefix sets, rather than relying on
// a single direction as table_test.go's TestOverlaps does.
func TestOverlapsSymmetricNonTrivial(t *testing.T) {
	t.Parallel()

	a := new(Table[int])
	a.Insert(mpp("10.0.0.0/8"), 1)
	a.Insert(mpp("2001:db8::/32"), 2)

	b := new(Table[int])
	b.Insert(mpp("10.1.2.0/24"), 3)
	b.Insert(mpp("192.168.0.0/16"), 4)

	if got, want := a.Overlaps(b), true; got != want {
		t.Fatalf("a.Overlaps(b) = %v, want %v", got, want)
	}
	if got, want := b.Overlaps(a), true; got != want {
		t.Fatalf("b.Overlaps(a) = %v, want %v", got, want)
	}

	c := new(Table[int])
	c.Insert(mpp("172.16.0.0/12"), 5)

	if got, want := a.Overlaps(c), false; got != want {
		t.Fatalf("a.Overlaps(c) = %v, want %v", got, want)
	}
	if got, want := c.Overlaps(a), false; got != want {
		t.Fatalf("c.Overlaps(a) = %v, want %v (Overlaps must be symmetric)", got, want)
	}
}
