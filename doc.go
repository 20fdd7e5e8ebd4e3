// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package triebase provides a high-performance longest-prefix-match
// routing table for IPv4 and IPv6 addresses.
//
// Table stores prefixes with an associated payload, popcount-compressed
// sparse arrays at every trie level. Lite is a convenience wrapper around
// Table for plain prefix sets (ACLs) without a payload.
//
// The implementation is a multibit trie with an 8-bit stride, based on
// Knuth's ART (Allotment Routing Table) base-index mapping, with Leaf and
// Fringe path compression to keep memory proportional to the number of
// stored prefixes rather than the depth of the address space.
//
// Table excels at efficient set operations on routing tables including
// Union, Overlaps, Equal, Subnets, and Supernets with optimal complexity,
// making it well suited for large-scale IP prefix matching in ACLs, RIBs,
// FIBs, firewalls, and routers.
//
// Both Table and Lite support copy-on-write persistence via their
// *Persist method family, trading raw mutation speed for lock-free reads
// during concurrent use.
package triebase
