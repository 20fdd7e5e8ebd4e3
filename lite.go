// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package triebase

import "net/netip"

// Lite adapts Table[struct{}] for callers that only need membership —
// allow/deny lists, "is this route already present" checks — and have
// no payload to carry. Every read-only Table method (Contains,
// LookupPrefix, Supernets, Subnets, All, Size, ...) is promoted
// unmodified through the embedded field; only the methods below that
// take or hand back a payload need a struct{}-shaped adapter.
type Lite struct {
	Table[struct{}]
}

// noPayload is the panic message for the shadowed Table methods below:
// Lite has nothing to update, return, or look up a value for.
const noPayload = "triebase: Lite carries no payload"

// Insert masks pfx and adds it to the set, routed through Modify so a
// re-insert of an already-present prefix is a genuine no-op rather than
// an overwrite of a value that doesn't exist.
func (l *Lite) Insert(pfx netip.Prefix) {
	l.Table.Modify(pfx, func(struct{}, bool) (struct{}, bool) {
		return struct{}{}, false
	})
}

// InsertPersist is Insert without touching the receiver: it returns a
// new *Lite that shares every node untouched by the insert with l.
func (l *Lite) InsertPersist(pfx netip.Prefix) *Lite {
	pt, _ := l.Table.UpdatePersist(pfx, func(struct{}, bool) struct{} {
		return struct{}{}
	})
	//nolint:govet // copy of *pt is intentional, Lite just re-wraps it
	return &Lite{*pt}
}

// DeletePersist removes pfx without touching the receiver.
func (l *Lite) DeletePersist(pfx netip.Prefix) *Lite {
	pt := l.Table.DeletePersist(pfx)
	//nolint:govet
	return &Lite{*pt}
}

// Clone returns a set that shares no mutable state with l.
func (l *Lite) Clone() *Lite {
	pt := l.Table.Clone()
	//nolint:govet
	return &Lite{*pt}
}

// Union folds every member of o into l, mutating the receiver.
func (l *Lite) Union(o *Lite) {
	l.Table.Union(&o.Table)
}

// Overlaps4 reports whether l and o share an overlapping IPv4 route.
func (l *Lite) Overlaps4(o *Lite) bool {
	return l.Table.Overlaps4(&o.Table)
}

// Overlaps6 reports whether l and o share an overlapping IPv6 route.
func (l *Lite) Overlaps6(o *Lite) bool {
	return l.Table.Overlaps6(&o.Table)
}

// Overlaps reports whether l and o share an overlapping route of
// either family.
func (l *Lite) Overlaps(o *Lite) bool {
	return l.Table.Overlaps(&o.Table)
}

// The methods below all take or hand back a struct{} payload on the
// embedded Table and have no sensible meaning for a membership-only
// set; shadowing them here turns an accidental call into a clear panic
// instead of a silent, pointless round-trip through an empty struct.

// Get panics: Lite has no payload to return.
func (l *Lite) Get() { panic(noPayload) }

// GetAndDelete panics: Lite has no payload to return.
func (l *Lite) GetAndDelete() { panic(noPayload) }

// GetAndDeletePersist panics: Lite has no payload to return.
func (l *Lite) GetAndDeletePersist() { panic(noPayload) }

// Lookup panics: Lite has no payload to return, use Contains instead.
func (l *Lite) Lookup() { panic(noPayload) }

// UpdatePersist panics: use InsertPersist, there is no payload to pass
// a callback.
func (l *Lite) UpdatePersist() { panic(noPayload) }
