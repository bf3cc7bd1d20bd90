package store

import (
	"slices"

	"github.com/dmitrijs2005/taskmark/internal/models"
)

func indexOf[E models.Entity[E]](items []E, id string) int {
	return slices.IndexFunc(items, func(e E) bool { return e.GetID() == id })
}

// insertSorted places row at its position under s. items must already be
// ordered by s.
func insertSorted[E models.Entity[E]](items []E, row E, s models.Sort) []E {
	i, _ := slices.BinarySearchFunc(items, row, func(a, b E) int { return a.Compare(b, s) })
	return slices.Insert(items, i, row)
}

// mergeInsert adds row unless a row with its id is already cached. It reports
// whether the cache changed.
func mergeInsert[E models.Entity[E]](items []E, row E, s models.Sort) ([]E, bool) {
	if indexOf(items, row.GetID()) >= 0 {
		return items, false
	}
	return insertSorted(items, row, s), true
}

// mergeUpdate replaces the row with the same id and moves it to its new
// position. Unknown ids are ignored.
func mergeUpdate[E models.Entity[E]](items []E, row E, s models.Sort) ([]E, bool) {
	i := indexOf(items, row.GetID())
	if i < 0 {
		return items, false
	}
	items = slices.Delete(items, i, i+1)
	return insertSorted(items, row, s), true
}

func mergeDelete[E models.Entity[E]](items []E, id string) ([]E, bool) {
	i := indexOf(items, id)
	if i < 0 {
		return items, false
	}
	return slices.Delete(items, i, i+1), true
}
