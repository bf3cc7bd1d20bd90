package models

import "time"

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in-progress"
	StatusCompleted  TaskStatus = "completed"
)

// TaskStatuses is in workflow order.
var TaskStatuses = []TaskStatus{StatusPending, StatusInProgress, StatusCompleted}

func (s TaskStatus) Valid() bool {
	return s.Rank() > 0
}

// Rank is the workflow position used for ordering, 0 when unknown.
func (s TaskStatus) Rank() int {
	switch s {
	case StatusPending:
		return 1
	case StatusInProgress:
		return 2
	case StatusCompleted:
		return 3
	}
	return 0
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

var TaskPriorities = []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh}

func (p TaskPriority) Valid() bool {
	return p.Rank() > 0
}

func (p TaskPriority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	}
	return 0
}

type Task struct {
	ID          string       `json:"id" db:"id"`
	UserID      string       `json:"user_id" db:"user_id"`
	Title       string       `json:"title" db:"title"`
	Description string       `json:"description" db:"description"`
	Priority    TaskPriority `json:"priority" db:"priority"`
	Status      TaskStatus   `json:"status" db:"status"`
	DueDate     *time.Time   `json:"due_date" db:"due_date"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

func (t Task) GetID() string { return t.ID }

// Matches searches title and description.
func (t Task) Matches(f Filter) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Search != "" && !containsFold(t.Title, f.Search) && !containsFold(t.Description, f.Search) {
		return false
	}
	return true
}

// Compare orders priority and status by rank. Tasks without a due date sort
// last in both directions, matching NULLS LAST on the server.
func (t Task) Compare(o Task, s Sort) int {
	var c int
	switch s.By {
	case SortUpdatedAt:
		c = t.UpdatedAt.Compare(o.UpdatedAt)
	case SortTitle:
		c = compareFold(t.Title, o.Title)
	case SortPriority:
		c = compareInt(t.Priority.Rank(), o.Priority.Rank())
	case SortStatus:
		c = compareInt(t.Status.Rank(), o.Status.Rank())
	case SortDueDate:
		switch {
		case t.DueDate == nil && o.DueDate == nil:
		case t.DueDate == nil:
			return 1
		case o.DueDate == nil:
			return -1
		default:
			c = t.DueDate.Compare(*o.DueDate)
		}
	default:
		c = t.CreatedAt.Compare(o.CreatedAt)
	}
	return directed(c, t.ID, o.ID, s.Order)
}

// Overdue reports whether an open task is past its due date.
func (t Task) Overdue(now time.Time) bool {
	return t.DueDate != nil && t.Status != StatusCompleted && t.DueDate.Before(now)
}

// TaskInput is the create payload. Zero Priority and Status take defaults.
type TaskInput struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Priority    TaskPriority `json:"priority,omitempty"`
	Status      TaskStatus   `json:"status,omitempty"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
}

func (in TaskInput) WithDefaults() TaskInput {
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if in.Status == "" {
		in.Status = StatusPending
	}
	return in
}

// TaskPatch is a partial update; nil fields are left unchanged.
type TaskPatch struct {
	Title        *string       `json:"title,omitempty"`
	Description  *string       `json:"description,omitempty"`
	Priority     *TaskPriority `json:"priority,omitempty"`
	Status       *TaskStatus   `json:"status,omitempty"`
	DueDate      *time.Time    `json:"due_date,omitempty"`
	ClearDueDate bool          `json:"clear_due_date,omitempty"`
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.Status == nil && p.DueDate == nil && !p.ClearDueDate
}
