package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date format used for due dates and wedding dates.
const DateLayout = "2006-01-02"

// Task is one checklist item at users/{uid}/tasks/{id}.
type Task struct {
	ID        string
	Title     string
	DueDate   string // YYYY-MM-DD; lexical order is chronological order
	Notes     string
	Completed bool
}

// Fields encodes the complete task record.
func (t Task) Fields() map[string]any {
	f := map[string]any{
		"title":     t.Title,
		"dueDate":   t.DueDate,
		"completed": t.Completed,
	}
	if t.Notes != "" {
		f["notes"] = t.Notes
	}
	return f
}

// DecodeTasks decodes the task collection.
func DecodeTasks(snap any) []Result[Task] {
	return decodeCollection(snap, func(id string, r record) (Task, error) {
		title, errTitle := r.requiredString("title")
		due, errDue := r.requiredString("dueDate")
		notes, errNotes := r.optionalString("notes")
		completed, errCompleted := r.optionalBool("completed")
		if err := firstErr(errTitle, errDue, errNotes, errCompleted); err != nil {
			return Task{}, err
		}
		if _, err := time.Parse(DateLayout, due); err != nil {
			return Task{}, fmt.Errorf("dueDate %q is not a YYYY-MM-DD date", due)
		}
		return Task{ID: id, Title: title, DueDate: due, Notes: notes, Completed: completed}, nil
	})
}
