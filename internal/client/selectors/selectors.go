// Package selectors derives views from a store's cache: the filtered and
// sorted list, and aggregate statistics. Every function is pure; inputs are
// never modified and results are freshly allocated.
package selectors

import (
	"slices"

	"github.com/dmitrijs2005/taskmark/internal/models"
)

// Filter returns the items that satisfy every set predicate of f, in their
// original order.
func Filter[E models.Entity[E]](items []E, f models.Filter) []E {
	out := make([]E, 0, len(items))
	for _, it := range items {
		if it.Matches(f) {
			out = append(out, it)
		}
	}
	return out
}

// Sort returns a stably sorted copy of items.
func Sort[E models.Entity[E]](items []E, s models.Sort) []E {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b E) int { return a.Compare(b, s) })
	return out
}

// Visible is Filter followed by Sort: what a list view shows.
func Visible[E models.Entity[E]](items []E, f models.Filter, s models.Sort) []E {
	out := Filter(items, f)
	slices.SortStableFunc(out, func(a, b E) int { return a.Compare(b, s) })
	return out
}

// CountBy builds a histogram of items keyed by key.
func CountBy[E any, K comparable](items []E, key func(E) K) map[K]int {
	out := make(map[K]int)
	for _, it := range items {
		out[key(it)]++
	}
	return out
}
