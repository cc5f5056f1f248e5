package store_test

import (
	"testing"
	"time"

	"taskboard/backend/internal/models"
	"taskboard/backend/internal/store"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTask(title string, category models.Category) models.Task {
	return models.Task{
		ID:       uuid.Must(uuid.NewV4()),
		Title:    title,
		DueDate:  time.Now().Add(24 * time.Hour),
		Category: category,
	}
}

func TestNew_SeedsDefaultCategories(t *testing.T) {
	s := store.New()

	categories := s.Categories()
	require.Len(t, categories, 3)
	assert.Equal(t, "Work", categories[0].Name)
	assert.Equal(t, "Personal", categories[1].Name)
	assert.Equal(t, "Errands", categories[2].Name)
	for _, c := range categories {
		assert.NotEqual(t, uuid.Nil, c.ID)
		assert.NotEmpty(t, c.Color)
	}

	assert.Empty(t, s.Tasks())
}

func TestAddTask_PreservesInsertionOrder(t *testing.T) {
	s := store.New()
	work := s.Categories()[0]

	titles := []string{"first", "second", "third"}
	for i, title := range titles {
		s.AddTask(newTask(title, work))
		assert.Len(t, s.Tasks(), i+1)
	}

	tasks := s.Tasks()
	for i, title := range titles {
		assert.Equal(t, title, tasks[i].Title)
	}
}

func TestUpdateTask_ReplacesInPlace(t *testing.T) {
	s := store.New()
	work := s.Categories()[0]

	first := newTask("first", work)
	second := newTask("second", work)
	s.AddTask(first)
	s.AddTask(second)

	first.Title = "first, revised"
	first.IsCompleted = true
	s.UpdateTask(first)

	tasks := s.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "first, revised", tasks[0].Title)
	assert.True(t, tasks[0].IsCompleted)
	assert.Equal(t, "second", tasks[1].Title)
}

func TestUpdateTask_MissingIDIsSilentNoOp(t *testing.T) {
	s := store.New()
	work := s.Categories()[0]
	s.AddTask(newTask("only", work))

	stale := newTask("ghost", work)
	s.UpdateTask(stale)

	tasks := s.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "only", tasks[0].Title)
}

func TestDeleteTasksAt_UsesPreRemovalPositions(t *testing.T) {
	s := store.New()
	work := s.Categories()[0]
	for _, title := range []string{"a", "b", "c", "d", "e"} {
		s.AddTask(newTask(title, work))
	}

	// Positions refer to the original list regardless of order given.
	s.DeleteTasksAt([]int{3, 0, 1})

	tasks := s.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "c", tasks[0].Title)
	assert.Equal(t, "e", tasks[1].Title)
}

func TestDeleteTasksAt_SingleAndAll(t *testing.T) {
	s := store.New()
	work := s.Categories()[0]
	s.AddTask(newTask("a", work))
	s.AddTask(newTask("b", work))

	s.DeleteTasksAt([]int{1})
	tasks := s.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "a", tasks[0].Title)

	s.DeleteTasksAt([]int{0})
	assert.Empty(t, s.Tasks())
}

func TestAddCategory_AppendsWithoutDuplicateCheck(t *testing.T) {
	s := store.New()

	s.AddCategory(models.Category{ID: uuid.Must(uuid.NewV4()), Name: "Work", Color: "#000000"})

	categories := s.Categories()
	require.Len(t, categories, 4)
	assert.Equal(t, "Work", categories[3].Name)
}

func TestCompletionRate_EmptyIsZero(t *testing.T) {
	s := store.New()
	assert.Equal(t, float64(0), s.CompletionRate())
	assert.Equal(t, 0, s.CompletedCount())
}

func TestCompletionRate_KOfN(t *testing.T) {
	s := store.New()
	work := s.Categories()[0]

	tasks := make([]models.Task, 4)
	for i := range tasks {
		tasks[i] = newTask("t", work)
		s.AddTask(tasks[i])
	}

	for i := 0; i < 3; i++ {
		tasks[i].IsCompleted = true
		s.UpdateTask(tasks[i])
	}

	assert.Equal(t, 3, s.CompletedCount())
	assert.InDelta(t, 0.75, s.CompletionRate(), 1e-9)
}

func TestPerCategoryCount_SumsToTotal(t *testing.T) {
	s := store.New()
	categories := s.Categories()
	work, personal, errands := categories[0], categories[1], categories[2]

	s.AddTask(newTask("a", work))
	s.AddTask(newTask("b", work))
	s.AddTask(newTask("c", personal))
	s.AddTask(newTask("d", errands))

	sum := 0
	for _, c := range categories {
		sum += s.PerCategoryCount(c.ID)
	}
	assert.Equal(t, len(s.Tasks()), sum)
	assert.Equal(t, 2, s.PerCategoryCount(work.ID))
}

func TestStats_Summary(t *testing.T) {
	s := store.New()
	work := s.Categories()[0]

	done := newTask("done", work)
	done.IsCompleted = true
	s.AddTask(done)
	s.AddTask(newTask("open", work))

	stats := s.Stats()
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Completed)
	assert.InDelta(t, 0.5, stats.CompletionRate, 1e-9)
	require.Len(t, stats.PerCategory, 3)
	assert.Equal(t, 2, stats.PerCategory[0].Count)
	assert.Equal(t, 0, stats.PerCategory[1].Count)
}

func TestSubscribe_NotifiesSynchronously(t *testing.T) {
	s := store.New()
	work := s.Categories()[0]

	var changes []store.Change
	cancel := s.Subscribe(func(c store.Change) {
		changes = append(changes, c)
	})
	defer cancel()

	s.AddTask(newTask("a", work))
	require.Len(t, changes, 1)
	assert.Equal(t, store.ChangeTasks, changes[0].Kind)
	require.Len(t, changes[0].Tasks, 1)

	s.AddCategory(models.Category{ID: uuid.Must(uuid.NewV4()), Name: "Health", Color: "#AA3366"})
	require.Len(t, changes, 2)
	assert.Equal(t, store.ChangeCategories, changes[1].Kind)
	assert.Len(t, changes[1].Categories, 4)
}

func TestSubscribe_NoNotifyOnMissingUpdate(t *testing.T) {
	s := store.New()
	work := s.Categories()[0]
	s.AddTask(newTask("a", work))

	notified := 0
	cancel := s.Subscribe(func(store.Change) { notified++ })
	defer cancel()

	s.UpdateTask(newTask("stale", work))
	assert.Equal(t, 0, notified)
}

func TestSubscribe_ObserverMayReadStore(t *testing.T) {
	s := store.New()
	work := s.Categories()[0]

	var seenTotal int
	cancel := s.Subscribe(func(store.Change) {
		seenTotal = len(s.Tasks())
	})
	defer cancel()

	s.AddTask(newTask("a", work))
	assert.Equal(t, 1, seenTotal)
}

func TestSubscribe_CancelStopsNotifications(t *testing.T) {
	s := store.New()
	work := s.Categories()[0]

	notified := 0
	cancel := s.Subscribe(func(store.Change) { notified++ })
	cancel()

	s.AddTask(newTask("a", work))
	assert.Equal(t, 0, notified)
}

// The end-to-end scenario from the product walkthrough: seed, add two
// tasks, complete one, delete the first, check the counters.
func TestScenario_Walkthrough(t *testing.T) {
	s := store.New()
	categories := s.Categories()
	work, errands := categories[0], categories[2]

	require.Empty(t, s.Tasks())

	milk := newTask("Buy milk", errands)
	s.AddTask(milk)
	assert.Len(t, s.Tasks(), 1)

	report := newTask("Write report", work)
	s.AddTask(report)
	assert.Len(t, s.Tasks(), 2)

	milk.IsCompleted = true
	s.UpdateTask(milk)
	assert.Equal(t, 1, s.CompletedCount())
	assert.InDelta(t, 0.5, s.CompletionRate(), 1e-9)

	s.DeleteTasksAt([]int{0})
	tasks := s.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "Write report", tasks[0].Title)

	assert.Equal(t, 1, s.PerCategoryCount(work.ID))
	assert.Equal(t, 0, s.PerCategoryCount(errands.ID))
}
