package store

import (
	"taskboard/backend/internal/models"

	"github.com/gofrs/uuid"
)

// CategoryCount pairs a category with the number of tasks assigned to it.
type CategoryCount struct {
	Category models.Category `json:"category"`
	Count    int             `json:"count"`
}

// Stats is a point-in-time summary of the task collection. It is
// recomputed from current state on every call, never stored.
type Stats struct {
	Total          int             `json:"total"`
	Completed      int             `json:"completed"`
	CompletionRate float64         `json:"completion_rate"`
	PerCategory    []CategoryCount `json:"per_category"`
}

// CompletedCount returns the number of completed tasks.
func (s *TaskStore) CompletedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return completed(s.tasks)
}

// CompletionRate returns completed/total, and exactly 0 when the task
// collection is empty.
func (s *TaskStore) CompletionRate() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.tasks) == 0 {
		return 0
	}
	return float64(completed(s.tasks)) / float64(len(s.tasks))
}

// PerCategoryCount returns the number of tasks whose category snapshot
// carries the given category ID.
func (s *TaskStore) PerCategoryCount(categoryID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, t := range s.tasks {
		if t.Category.ID == categoryID {
			n++
		}
	}
	return n
}

// Stats assembles the full summary in category insertion order.
func (s *TaskStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		Total:     len(s.tasks),
		Completed: completed(s.tasks),
	}
	if stats.Total > 0 {
		stats.CompletionRate = float64(stats.Completed) / float64(stats.Total)
	}

	counts := make(map[uuid.UUID]int, len(s.categories))
	for _, t := range s.tasks {
		counts[t.Category.ID]++
	}
	for _, c := range s.categories {
		stats.PerCategory = append(stats.PerCategory, CategoryCount{
			Category: c,
			Count:    counts[c.ID],
		})
	}
	return stats
}

func completed(tasks []models.Task) int {
	n := 0
	for _, t := range tasks {
		if t.IsCompleted {
			n++
		}
	}
	return n
}
