// Package util holds small generic helpers shared across bindinc packages.
package util

import (
	"cmp"
	"maps"
	"slices"
)

// SortedKeys returns the keys of a map in sorted order.
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	return slices.Sorted(maps.Keys(m))
}

// SortedUnique returns a sorted copy of s without duplicates.
func SortedUnique[K cmp.Ordered](s []K) []K {
	out := slices.Clone(s)
	slices.Sort(out)
	return slices.Compact(out)
}

// SetOf builds a set from a slice.
func SetOf[K comparable](s []K) map[K]struct{} {
	set := make(map[K]struct{}, len(s))
	for _, v := range s {
		set[v] = struct{}{}
	}
	return set
}
