package calculator

import (
	"sort"
	"time"

	"github.com/knotcraft/Pre-production/internal/models"
)

// TaskBuckets partitions a checklist for display. Every task lands in exactly one bucket.
type TaskBuckets struct {
	Overdue   []models.Task
	Today     []models.Task
	Upcoming  []models.Task
	Completed []models.Task
}

// Len returns the number of tasks across all buckets.
func (b TaskBuckets) Len() int {
	return len(b.Overdue) + len(b.Today) + len(b.Upcoming) + len(b.Completed)
}

// DateOf formats t as a calendar date in t's location.
func DateOf(t time.Time) string {
	return t.Format(models.DateLayout)
}

// AddDays shifts a YYYY-MM-DD date by n calendar days.
func AddDays(date string, n int) (string, error) {
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return "", err
	}
	return d.AddDate(0, 0, n).Format(models.DateLayout), nil
}

// BucketTasks sorts tasks into overdue, today, upcoming and completed relative to
// today (YYYY-MM-DD). Completed tasks always go to Completed whatever their date.
// Each bucket is ordered by due date.
func BucketTasks(tasks []models.Task, today string) TaskBuckets {
	var b TaskBuckets
	for _, t := range tasks {
		switch {
		case t.Completed:
			b.Completed = append(b.Completed, t)
		case t.DueDate == today:
			b.Today = append(b.Today, t)
		case t.DueDate < today:
			b.Overdue = append(b.Overdue, t)
		default:
			b.Upcoming = append(b.Upcoming, t)
		}
	}
	for _, bucket := range [][]models.Task{b.Overdue, b.Today, b.Upcoming, b.Completed} {
		sortByDueDate(bucket)
	}
	return b
}

// TaskProgress returns the completed share of tasks as a percentage, 0 when empty.
func TaskProgress(tasks []models.Task) float64 {
	if len(tasks) == 0 {
		return 0
	}
	done := 0
	for _, t := range tasks {
		if t.Completed {
			done++
		}
	}
	return float64(done) / float64(len(tasks)) * 100
}

// PreviewTasks returns up to n tasks for the home page: incomplete first, then by due date.
func PreviewTasks(tasks []models.Task, n int) []models.Task {
	sorted := append([]models.Task(nil), tasks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Completed != sorted[j].Completed {
			return !sorted[i].Completed
		}
		return lessByDue(sorted[i], sorted[j])
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// IncompleteDueOn returns the incomplete tasks due on date.
func IncompleteDueOn(tasks []models.Task, date string) []models.Task {
	var due []models.Task
	for _, t := range tasks {
		if !t.Completed && t.DueDate == date {
			due = append(due, t)
		}
	}
	return due
}

// DaysUntil returns whole calendar days from today to date. ok is false when date
// does not parse.
func DaysUntil(today, date string) (days int, ok bool) {
	from, err := time.Parse(models.DateLayout, today)
	if err != nil {
		return 0, false
	}
	to, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return 0, false
	}
	return int(to.Sub(from).Hours() / 24), true
}

func sortByDueDate(tasks []models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool { return lessByDue(tasks[i], tasks[j]) })
}

func lessByDue(a, b models.Task) bool {
	if a.DueDate != b.DueDate {
		return a.DueDate < b.DueDate
	}
	return a.ID < b.ID
}
