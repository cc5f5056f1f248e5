package handlers

import (
	"net/http"
	"time"

	"taskboard/backend/internal/models"
	"taskboard/backend/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"
)

// ReminderScheduler schedules a due-date reminder for a task. A nil
// scheduler disables reminders.
type ReminderScheduler interface {
	ScheduleReminder(task models.Task) error
}

type TaskHandler struct {
	store     *store.TaskStore
	reminders ReminderScheduler
	log       *logrus.Logger
}

func NewTaskHandler(st *store.TaskStore, reminders ReminderScheduler, log *logrus.Logger) *TaskHandler {
	return &TaskHandler{store: st, reminders: reminders, log: log}
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	var taskInput struct {
		Title       string    `json:"title" binding:"required"`
		Description string    `json:"description"`
		DueDate     time.Time `json:"due_date"`
		CategoryID  string    `json:"category_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&taskInput); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// The store performs no validation; the save gate lives here.
	category, ok := h.store.CategoryByID(uuid.FromStringOrNil(taskInput.CategoryID))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
		return
	}

	taskID, err := uuid.NewV4()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to generate task ID",
			"details": err.Error(),
		})
		return
	}

	task := models.Task{
		ID:          taskID,
		Title:       taskInput.Title,
		Description: taskInput.Description,
		DueDate:     taskInput.DueDate,
		Category:    category,
	}
	h.store.AddTask(task)

	if h.reminders != nil && !task.DueDate.IsZero() {
		if err := h.reminders.ScheduleReminder(task); err != nil {
			h.log.WithError(err).WithField("task_id", task.ID).Warn("failed to schedule reminder")
		}
	}

	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id := uuid.FromStringOrNil(c.Param("id"))
	var taskInput struct {
		Title       string    `json:"title"`
		Description string    `json:"description"`
		DueDate     time.Time `json:"due_date"`
		IsCompleted bool      `json:"is_completed"`
		CategoryID  string    `json:"category_id"`
	}
	if err := c.ShouldBindJSON(&taskInput); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, ok := h.store.CategoryByID(uuid.FromStringOrNil(taskInput.CategoryID))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
		return
	}

	// A stale ID is deliberately not an error: the detail view commits
	// back a working copy that may refer to an already-deleted task.
	h.store.UpdateTask(models.Task{
		ID:          id,
		Title:       taskInput.Title,
		Description: taskInput.Description,
		DueDate:     taskInput.DueDate,
		IsCompleted: taskInput.IsCompleted,
		Category:    category,
	})
	c.JSON(http.StatusOK, gin.H{"message": "task updated"})
}

func (h *TaskHandler) DeleteTasks(c *gin.Context) {
	var deleteInput struct {
		Positions []int `json:"positions" binding:"required"`
	}
	if err := c.ShouldBindJSON(&deleteInput); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	total := len(h.store.Tasks())
	seen := make(map[int]struct{}, len(deleteInput.Positions))
	for _, p := range deleteInput.Positions {
		if p < 0 || p >= total {
			c.JSON(http.StatusBadRequest, gin.H{"error": "position out of range"})
			return
		}
		if _, dup := seen[p]; dup {
			c.JSON(http.StatusBadRequest, gin.H{"error": "duplicate position"})
			return
		}
		seen[p] = struct{}{}
	}

	h.store.DeleteTasksAt(deleteInput.Positions)
	c.JSON(http.StatusNoContent, nil)
}

func (h *TaskHandler) GetTasks(c *gin.Context) {
	tasks := h.store.Tasks()
	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"total": len(tasks),
	})
}
