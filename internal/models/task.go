package models

import (
	"time"

	"github.com/gofrs/uuid"
)

// Task is a single unit of work on the board. The ID is assigned once at
// creation and is the only equality key; Category is held by value, a
// snapshot of the category at assignment time.
type Task struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	IsCompleted bool      `json:"is_completed"`
	Category    Category  `json:"category"`
}
