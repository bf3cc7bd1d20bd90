package models

import "strings"

// Table names double as realtime channel names.
const (
	TableTasks     = "tasks"
	TableBookmarks = "bookmarks"
)

// Entity is the constraint the generic store and selectors work with.
type Entity[E any] interface {
	GetID() string
	// Matches reports whether the entity satisfies every set predicate of f.
	Matches(f Filter) bool
	// Compare orders the receiver against other under s, breaking ties by id.
	Compare(other E, s Sort) int
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// directed applies the tie-break and the sort direction to a field comparison.
func directed(c int, id, otherID string, order SortOrder) int {
	if c == 0 {
		c = strings.Compare(id, otherID)
	}
	if order == SortDesc {
		return -c
	}
	return c
}
