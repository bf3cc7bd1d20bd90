package models

import "math"

type TaskStats struct {
	Total      int
	ByStatus   map[TaskStatus]int
	ByPriority map[TaskPriority]int
	// HighPriorityOpen counts high-priority tasks that are not completed.
	HighPriorityOpen int
	// CompletionRate is completed/total as a rounded percentage.
	CompletionRate int
}

func (s TaskStats) Pending() int    { return s.ByStatus[StatusPending] }
func (s TaskStats) InProgress() int { return s.ByStatus[StatusInProgress] }
func (s TaskStats) Completed() int  { return s.ByStatus[StatusCompleted] }

// Percent rounds part/total*100 half away from zero; 0 when total is 0.
func Percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

type BookmarkStats struct {
	Total  int
	ByHost map[string]int
}
