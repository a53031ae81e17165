package viewmodel

import (
	"context"
	"strings"

	"github.com/knotcraft/Pre-production/internal/calculator"
	"github.com/knotcraft/Pre-production/internal/docstore"
	"github.com/knotcraft/Pre-production/internal/models"
)

// PreviewSize is how many tasks the home page shows.
const PreviewSize = 3

// Tasks mirrors users/{uid}/tasks.
type Tasks struct {
	*Mirror[[]models.Task]
	act actions
}

// TaskInput is the add/edit task form.
type TaskInput struct {
	Title   string
	DueDate string
	Notes   string
}

// NewTasks creates an unmounted checklist view model for uid.
func NewTasks(store docstore.Store, uid string, opts Options) *Tasks {
	act := newActions(store, uid, opts)
	return &Tasks{
		Mirror: NewMirror(store, docstore.UserPath(uid, "tasks"), decodeTasks, act.logger),
		act:    act,
	}
}

func decodeTasks(snap docstore.Snapshot) ([]models.Task, []string) {
	return collect(models.DecodeTasks(snap))
}

// Today is the local calendar date the buckets are computed against.
func (t *Tasks) Today() string {
	return calculator.DateOf(t.act.now())
}

// Buckets groups the checklist into overdue, today, upcoming and completed.
func (t *Tasks) Buckets() calculator.TaskBuckets {
	return calculator.BucketTasks(t.Value(), t.Today())
}

// Progress is the completed percentage.
func (t *Tasks) Progress() float64 {
	return calculator.TaskProgress(t.Value())
}

// Preview returns the home page task list.
func (t *Tasks) Preview() []models.Task {
	return calculator.PreviewTasks(t.Value(), PreviewSize)
}

func (t *Tasks) find(id string) (models.Task, bool) {
	for _, task := range t.Value() {
		if task.ID == id {
			return task, true
		}
	}
	return models.Task{}, false
}

func (t *Tasks) validate(in TaskInput) (models.Task, error) {
	title, okTitle := required(in.Title)
	due, okDue := required(in.DueDate)
	switch {
	case !okTitle:
		return models.Task{}, t.act.reject("title", "task title is required")
	case !okDue:
		return models.Task{}, t.act.reject("dueDate", "due date is required")
	case !validDate(due):
		return models.Task{}, t.act.reject("dueDate", "due date must be YYYY-MM-DD")
	}
	return models.Task{Title: title, DueDate: due, Notes: strings.TrimSpace(in.Notes)}, nil
}

// AddTask creates an incomplete task and returns its id.
func (t *Tasks) AddTask(ctx context.Context, in TaskInput) (string, error) {
	task, err := t.validate(in)
	if err != nil {
		return "", err
	}
	id := t.act.store.GenerateKey(t.Path())
	err = t.act.run(ctx, "save task", "Task added.", func(ctx context.Context) error {
		return t.act.store.Write(ctx, docstore.Join(t.Path(), id), task.Fields())
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateTask merges edited fields into an existing task. Completion is left alone.
func (t *Tasks) UpdateTask(ctx context.Context, id string, in TaskInput) error {
	if _, ok := t.find(id); !ok {
		return t.act.reject("task", "no such task")
	}
	task, err := t.validate(in)
	if err != nil {
		return err
	}
	return t.act.run(ctx, "save task", "Task updated.", func(ctx context.Context) error {
		return t.act.store.Merge(ctx, docstore.Join(t.Path(), id), map[string]any{
			"title":   task.Title,
			"dueDate": task.DueDate,
			"notes":   optional(task.Notes),
		})
	})
}

// ToggleTask flips completion relative to the mirrored value.
func (t *Tasks) ToggleTask(ctx context.Context, id string) error {
	task, ok := t.find(id)
	if !ok {
		return t.act.reject("task", "no such task")
	}
	return t.act.run(ctx, "update task status", "", func(ctx context.Context) error {
		return t.act.store.Merge(ctx, docstore.Join(t.Path(), id), map[string]any{"completed": !task.Completed})
	})
}

// DeleteTask removes a task.
func (t *Tasks) DeleteTask(ctx context.Context, id string) error {
	return t.act.run(ctx, "delete task", "Task deleted.", func(ctx context.Context) error {
		return t.act.store.Delete(ctx, docstore.Join(t.Path(), id))
	})
}
