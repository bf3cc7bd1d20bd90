package models

import (
	"fmt"
	"slices"
)

// Filter is a set of optional predicates; a zero field is unset.
// Status and Priority only apply to tasks.
type Filter struct {
	Status   TaskStatus   `json:"status,omitempty"`
	Priority TaskPriority `json:"priority,omitempty"`
	Search   string       `json:"search,omitempty"`
}

func (f Filter) IsZero() bool {
	return f == Filter{}
}

type SortField string

const (
	SortCreatedAt SortField = "created_at"
	SortUpdatedAt SortField = "updated_at"
	SortTitle     SortField = "title"
	SortDueDate   SortField = "due_date"
	SortPriority  SortField = "priority"
	SortStatus    SortField = "status"
	SortURL       SortField = "url"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

type Sort struct {
	By    SortField `json:"by"`
	Order SortOrder `json:"order"`
}

// DefaultSort is newest first.
var DefaultSort = Sort{By: SortCreatedAt, Order: SortDesc}

// Query is what a fetch sends to the backend for one table.
type Query struct {
	Filter Filter `json:"filter"`
	Sort   Sort   `json:"sort"`
}

var sortFields = map[string][]SortField{
	TableTasks:     {SortCreatedAt, SortUpdatedAt, SortTitle, SortDueDate, SortPriority, SortStatus},
	TableBookmarks: {SortCreatedAt, SortUpdatedAt, SortTitle, SortURL},
}

// SortFields lists the fields table can be ordered by.
func SortFields(table string) []SortField {
	return sortFields[table]
}

// ValidateSort rejects fields the table does not declare and unknown orders.
func ValidateSort(table string, s Sort) error {
	fields, ok := sortFields[table]
	if !ok {
		return fmt.Errorf("unknown table %q", table)
	}
	if !slices.Contains(fields, s.By) {
		return fmt.Errorf("%s cannot be sorted by %q", table, s.By)
	}
	if s.Order != SortAsc && s.Order != SortDesc {
		return fmt.Errorf("unknown sort order %q", s.Order)
	}
	return nil
}

// ValidateFilter rejects predicates the table cannot satisfy and unknown
// enum values.
func ValidateFilter(table string, f Filter) error {
	switch table {
	case TableTasks:
		if f.Status != "" && !f.Status.Valid() {
			return fmt.Errorf("unknown status %q", f.Status)
		}
		if f.Priority != "" && !f.Priority.Valid() {
			return fmt.Errorf("unknown priority %q", f.Priority)
		}
	case TableBookmarks:
		if f.Status != "" || f.Priority != "" {
			return fmt.Errorf("bookmarks can only be filtered by search")
		}
	default:
		return fmt.Errorf("unknown table %q", table)
	}
	return nil
}
