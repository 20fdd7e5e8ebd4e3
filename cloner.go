// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package triebase

// Cloner is an interface that enables deep cloning of values of type V.
// If a value implements Cloner[V], Table methods such as InsertPersist,
// UpdatePersist, DeletePersist, Union and Clone will use its Clone
// method to perform deep copies instead of a plain assignment.
type Cloner[V any] interface {
	Clone() V
}
