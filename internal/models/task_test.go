package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTask_Matches(t *testing.T) {
	task := Task{
		ID:          "t1",
		Title:       "Buy milk",
		Description: "Whole, not skimmed",
		Priority:    PriorityLow,
		Status:      StatusPending,
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{name: "empty filter", filter: Filter{}, want: true},
		{name: "status equal", filter: Filter{Status: StatusPending}, want: true},
		{name: "status differs", filter: Filter{Status: StatusCompleted}, want: false},
		{name: "priority equal", filter: Filter{Priority: PriorityLow}, want: true},
		{name: "priority differs", filter: Filter{Priority: PriorityHigh}, want: false},
		{name: "search title case-insensitive", filter: Filter{Search: "MILK"}, want: true},
		{name: "search description", filter: Filter{Search: "skimmed"}, want: true},
		{name: "search misses", filter: Filter{Search: "bread"}, want: false},
		{name: "all predicates must hold", filter: Filter{Status: StatusPending, Priority: PriorityHigh, Search: "milk"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, task.Matches(tt.filter))
		})
	}
}

func TestTask_Compare(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	later := day.Add(24 * time.Hour)

	a := Task{ID: "a", Title: "alpha", Priority: PriorityHigh, Status: StatusCompleted, CreatedAt: day, DueDate: &day}
	b := Task{ID: "b", Title: "Beta", Priority: PriorityLow, Status: StatusPending, CreatedAt: later, DueDate: &later}
	noDue := Task{ID: "c", Title: "gamma", CreatedAt: later}

	tests := []struct {
		name string
		x, y Task
		sort Sort
		want int
	}{
		{name: "created asc", x: a, y: b, sort: Sort{SortCreatedAt, SortAsc}, want: -1},
		{name: "created desc", x: a, y: b, sort: Sort{SortCreatedAt, SortDesc}, want: 1},
		{name: "title ignores case", x: a, y: b, sort: Sort{SortTitle, SortAsc}, want: -1},
		{name: "priority by rank", x: a, y: b, sort: Sort{SortPriority, SortAsc}, want: 1},
		{name: "status by rank", x: b, y: a, sort: Sort{SortStatus, SortAsc}, want: -1},
		{name: "missing due date last asc", x: noDue, y: a, sort: Sort{SortDueDate, SortAsc}, want: 1},
		{name: "missing due date last desc", x: noDue, y: a, sort: Sort{SortDueDate, SortDesc}, want: 1},
		{name: "present due date first", x: a, y: noDue, sort: Sort{SortDueDate, SortDesc}, want: -1},
		{name: "tie broken by id", x: Task{ID: "1", CreatedAt: day}, y: Task{ID: "2", CreatedAt: day}, sort: Sort{SortCreatedAt, SortAsc}, want: -1},
		{name: "tie broken by id desc", x: Task{ID: "1", CreatedAt: day}, y: Task{ID: "2", CreatedAt: day}, sort: Sort{SortCreatedAt, SortDesc}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.x.Compare(tt.y, tt.sort))
		})
	}
}

func TestTaskInput_WithDefaults(t *testing.T) {
	in := TaskInput{Title: "x"}.WithDefaults()
	assert.Equal(t, PriorityMedium, in.Priority)
	assert.Equal(t, StatusPending, in.Status)

	in = TaskInput{Title: "x", Priority: PriorityHigh, Status: StatusInProgress}.WithDefaults()
	assert.Equal(t, PriorityHigh, in.Priority)
	assert.Equal(t, StatusInProgress, in.Status)
}

func TestTaskPatch_IsEmpty(t *testing.T) {
	assert.True(t, TaskPatch{}.IsEmpty())

	done := StatusCompleted
	assert.False(t, TaskPatch{Status: &done}.IsEmpty())
	assert.False(t, TaskPatch{ClearDueDate: true}.IsEmpty())
}

func TestTask_Overdue(t *testing.T) {
	now := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)

	assert.True(t, Task{DueDate: &past, Status: StatusPending}.Overdue(now))
	assert.False(t, Task{DueDate: &past, Status: StatusCompleted}.Overdue(now))
	assert.False(t, Task{Status: StatusPending}.Overdue(now))
}

func TestEnums_Valid(t *testing.T) {
	for _, s := range TaskStatuses {
		assert.True(t, s.Valid(), s)
	}
	for _, p := range TaskPriorities {
		assert.True(t, p.Valid(), p)
	}
	assert.False(t, TaskStatus("done").Valid())
	assert.False(t, TaskPriority("urgent").Valid())
}
