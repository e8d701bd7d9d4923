package util

import (
	"cmp"
	"slices"
)

// SortedKeys returns the keys of a map in ascending order.
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SumBy adds up f over the values of a map.
func SumBy[K comparable, V any](m map[K]V, f func(V) int) int {
	total := 0
	for _, v := range m {
		total += f(v)
	}
	return total
}
