package store

import (
	"sort"
	"sync"

	"taskboard/backend/internal/models"

	"github.com/gofrs/uuid"
)

// ChangeKind names the collection a mutation touched.
type ChangeKind string

const (
	ChangeTasks      ChangeKind = "tasks"
	ChangeCategories ChangeKind = "categories"
)

// Change is the snapshot delivered to observers after a mutation. Only the
// field matching Kind is populated.
type Change struct {
	Kind       ChangeKind        `json:"kind"`
	Tasks      []models.Task     `json:"tasks,omitempty"`
	Categories []models.Category `json:"categories,omitempty"`
}

// Observer receives a Change synchronously, within the mutating call,
// after the collections have been updated.
type Observer func(Change)

// TaskStore is the single source of truth for tasks and categories. Both
// collections keep insertion order, which is the only ordering. The store
// performs no input validation; callers gate their own input.
type TaskStore struct {
	mu         sync.RWMutex
	tasks      []models.Task
	categories []models.Category

	obsMu     sync.Mutex
	observers map[int]Observer
	nextObsID int
}

// New constructs a store with the three default categories seeded and an
// empty task collection.
func New() *TaskStore {
	s := &TaskStore{
		observers: make(map[int]Observer),
	}
	for _, c := range []struct {
		name  string
		color string
	}{
		{"Work", "#4A90E2"},
		{"Personal", "#7ED321"},
		{"Errands", "#F5A623"},
	} {
		s.categories = append(s.categories, models.Category{
			ID:    uuid.Must(uuid.NewV4()),
			Name:  c.name,
			Color: c.color,
		})
	}
	return s
}

// Subscribe registers an observer and returns a cancel function. Observers
// are invoked in subscription order.
func (s *TaskStore) Subscribe(fn Observer) func() {
	s.obsMu.Lock()
	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = fn
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

// notify runs outside the write lock so observers may read the store, but
// still before the mutating call returns.
func (s *TaskStore) notify(change Change) {
	s.obsMu.Lock()
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]Observer, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.observers[id])
	}
	s.obsMu.Unlock()

	for _, fn := range fns {
		fn(change)
	}
}

// AddTask appends a task to the end of the task collection.
func (s *TaskStore) AddTask(task models.Task) {
	s.mu.Lock()
	s.tasks = append(s.tasks, task)
	snapshot := copyTasks(s.tasks)
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeTasks, Tasks: snapshot})
}

// UpdateTask replaces the stored task with the same ID in place,
// preserving its position. A missing ID is a silent no-op: the editing
// client commits back a working copy that may already be stale.
func (s *TaskStore) UpdateTask(task models.Task) {
	s.mu.Lock()
	replaced := false
	for i := range s.tasks {
		if s.tasks[i].ID == task.ID {
			s.tasks[i] = task
			replaced = true
			break
		}
	}
	var snapshot []models.Task
	if replaced {
		snapshot = copyTasks(s.tasks)
	}
	s.mu.Unlock()

	if replaced {
		s.notify(Change{Kind: ChangeTasks, Tasks: snapshot})
	}
}

// DeleteTasksAt removes the tasks at the given positions in one atomic
// update. All positions refer to the pre-removal ordering, so the set is
// not order-dependent; the relative order of survivors is preserved.
// Out-of-range positions are a caller precondition violation and are
// skipped.
func (s *TaskStore) DeleteTasksAt(positions []int) {
	s.mu.Lock()
	drop := make(map[int]struct{}, len(positions))
	for _, p := range positions {
		drop[p] = struct{}{}
	}
	remaining := make([]models.Task, 0, len(s.tasks))
	for i, t := range s.tasks {
		if _, ok := drop[i]; ok {
			continue
		}
		remaining = append(remaining, t)
	}
	s.tasks = remaining
	snapshot := copyTasks(s.tasks)
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeTasks, Tasks: snapshot})
}

// AddCategory appends a category to the end of the category collection.
// No duplicate-name check is performed.
func (s *TaskStore) AddCategory(category models.Category) {
	s.mu.Lock()
	s.categories = append(s.categories, category)
	snapshot := copyCategories(s.categories)
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeCategories, Categories: snapshot})
}

// Tasks returns a snapshot of the task collection in insertion order.
func (s *TaskStore) Tasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyTasks(s.tasks)
}

// Categories returns a snapshot of the category collection in insertion
// order.
func (s *TaskStore) Categories() []models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyCategories(s.categories)
}

// CategoryByID looks up a category by ID.
func (s *TaskStore) CategoryByID(id uuid.UUID) (models.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.categories {
		if c.ID == id {
			return c, true
		}
	}
	return models.Category{}, false
}

func copyTasks(tasks []models.Task) []models.Task {
	out := make([]models.Task, len(tasks))
	copy(out, tasks)
	return out
}

func copyCategories(categories []models.Category) []models.Category {
	out := make([]models.Category, len(categories))
	copy(out, categories)
	return out
}
