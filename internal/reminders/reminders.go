// Package reminders writes due-date reminder notifications.
//
// A scan runs at most once per calendar day per user on this device, guarded by a
// local marker. The marker is only a cache: the check against existing notifications
// is what prevents duplicates when the marker is lost or another device scans too.
package reminders

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/knotcraft/Pre-production/internal/calculator"
	"github.com/knotcraft/Pre-production/internal/docstore"
	"github.com/knotcraft/Pre-production/internal/models"
	"github.com/knotcraft/Pre-production/internal/storage"
)

// TaskListLink is where every reminder points.
const TaskListLink = "/tasks"

// Outcome describes what a scan did.
type Outcome string

const (
	// OutcomeDisabled means the user switched due-date reminders off.
	OutcomeDisabled Outcome = "disabled"
	// OutcomeAlreadyScanned means today's scan already happened on this device.
	OutcomeAlreadyScanned Outcome = "already_scanned"
	// OutcomeScanned means the scan ran to completion, possibly creating nothing.
	OutcomeScanned Outcome = "scanned"
)

// Result is the outcome of one Run.
type Result struct {
	Outcome Outcome
	Created int
}

// MarkerKey is the local marker holding uid's last scan date.
func MarkerKey(uid string) string {
	return "lastDueDateScan:" + uid
}

// Config holds the generator's collaborators.
type Config struct {
	Store   docstore.Store
	Markers storage.MarkerStore
	// Now defaults to time.Now. Calendar days are taken in its location.
	Now    func() time.Time
	Logger *slog.Logger
	// Created, if set, is incremented by the number of reminders written.
	Created prometheus.Counter
}

// Generator creates reminders for incomplete tasks due tomorrow.
type Generator struct {
	store   docstore.Store
	markers storage.MarkerStore
	now     func() time.Time
	logger  *slog.Logger
	created prometheus.Counter

	// mu keeps two scans of this device from racing each other.
	mu sync.Mutex
}

// New creates a Generator.
func New(cfg Config) *Generator {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Generator{
		store:   cfg.Store,
		markers: cfg.Markers,
		now:     cfg.Now,
		logger:  cfg.Logger,
		created: cfg.Created,
	}
}

// Run performs today's scan for uid. The marker advances only after the
// notifications are written, so a failed write is retried by the next Run.
func (g *Generator) Run(ctx context.Context, uid string) (Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	logger := g.logger.With("user_id", uid)

	settingsSnap, err := g.store.Read(ctx, docstore.UserPath(uid, "notificationSettings"))
	if err != nil {
		return Result{}, fmt.Errorf("failed to read notification settings: %w", err)
	}
	settings, err := models.DecodeNotificationSettings(settingsSnap)
	if err != nil {
		logger.Warn("malformed notification settings, using defaults", "error", err)
	}
	if !settings.DueDateReminder {
		return Result{Outcome: OutcomeDisabled}, nil
	}

	now := g.now()
	today := calculator.DateOf(now)
	last, err := g.markers.GetMarker(ctx, MarkerKey(uid))
	if err != nil {
		return Result{}, fmt.Errorf("failed to read scan marker: %w", err)
	}
	if last == today {
		return Result{Outcome: OutcomeAlreadyScanned}, nil
	}

	tasksSnap, err := g.store.Read(ctx, docstore.UserPath(uid, "tasks"))
	if err != nil {
		return Result{}, fmt.Errorf("failed to read tasks: %w", err)
	}
	tasks, _ := models.Partition(models.DecodeTasks(tasksSnap))
	tomorrow, err := calculator.AddDays(today, 1)
	if err != nil {
		return Result{}, err
	}
	due := calculator.IncompleteDueOn(tasks, tomorrow)

	created := 0
	if len(due) > 0 {
		created, err = g.notify(ctx, uid, due, now)
		if err != nil {
			return Result{}, err
		}
	}

	if err := g.markers.SetMarker(ctx, MarkerKey(uid), today); err != nil {
		return Result{}, fmt.Errorf("failed to record scan: %w", err)
	}
	logger.Info("due-date scan complete", "due_tomorrow", len(due), "created", created)
	return Result{Outcome: OutcomeScanned, Created: created}, nil
}

// notify writes one reminder per task not already reminded today, in one batch.
func (g *Generator) notify(ctx context.Context, uid string, due []models.Task, now time.Time) (int, error) {
	inboxSnap, err := g.store.Read(ctx, docstore.NotificationsPath(uid))
	if err != nil {
		return 0, fmt.Errorf("failed to read notifications: %w", err)
	}
	// malformed records still count, so a bad field cannot cause a duplicate
	today := calculator.DateOf(now)
	remindedToday := make(map[string]bool)
	for _, n := range models.DecodeNotificationRefs(inboxSnap) {
		if n.Type == models.NotificationDueDateReminder && calculator.DateOf(n.CreatedAt.In(now.Location())) == today {
			remindedToday[n.RelatedID] = true
		}
	}

	updates := make(map[string]any)
	for _, task := range due {
		if remindedToday[task.ID] {
			continue
		}
		n := models.Notification{
			Message:   fmt.Sprintf("Reminder: '%s' is due tomorrow.", task.Title),
			Link:      TaskListLink,
			CreatedAt: now,
			Type:      models.NotificationDueDateReminder,
			RelatedID: task.ID,
		}
		key := g.store.GenerateKey(docstore.NotificationsPath(uid))
		updates[docstore.NotificationsPath(uid, key)] = n.Fields()
	}
	if len(updates) == 0 {
		return 0, nil
	}

	if err := g.store.BatchedMerge(ctx, updates); err != nil {
		return 0, fmt.Errorf("failed to write reminders: %w", err)
	}
	if g.created != nil {
		g.created.Add(float64(len(updates)))
	}
	return len(updates), nil
}
