package selectors

import "github.com/dmitrijs2005/taskmark/internal/models"

func TaskStats(tasks []models.Task) models.TaskStats {
	s := models.TaskStats{
		Total:      len(tasks),
		ByStatus:   CountBy(tasks, func(t models.Task) models.TaskStatus { return t.Status }),
		ByPriority: CountBy(tasks, func(t models.Task) models.TaskPriority { return t.Priority }),
	}
	for _, t := range tasks {
		if t.Priority == models.PriorityHigh && t.Status != models.StatusCompleted {
			s.HighPriorityOpen++
		}
	}
	s.CompletionRate = models.Percent(s.Completed(), s.Total)
	return s
}

func BookmarkStats(bookmarks []models.Bookmark) models.BookmarkStats {
	return models.BookmarkStats{
		Total:  len(bookmarks),
		ByHost: CountBy(bookmarks, models.Bookmark.Host),
	}
}
