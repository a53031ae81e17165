package reminders

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/knotcraft/Pre-production/internal/docstore"
	"github.com/knotcraft/Pre-production/internal/docstore/memory"
	"github.com/knotcraft/Pre-production/internal/models"
)

// memoryMarkers is an in-memory storage.MarkerStore.
type memoryMarkers struct {
	mu     sync.Mutex
	values map[string]string
	setErr error
}

func newMarkers() *memoryMarkers {
	return &memoryMarkers{values: make(map[string]string)}
}

func (m *memoryMarkers) GetMarker(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *memoryMarkers) SetMarker(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func clock(ts string) func() time.Time {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func seed(t *testing.T, store *memory.Store) {
	t.Helper()
	err := store.Write(context.Background(), docstore.UserPath("u1", "tasks"), map[string]any{
		"t1": map[string]any{"title": "Book venue", "dueDate": "2024-03-02", "completed": false},
		"t2": map[string]any{"title": "Order cake", "dueDate": "2024-03-02", "completed": true},
		"t3": map[string]any{"title": "Send invites", "dueDate": "2024-03-05", "completed": false},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func newStore() *memory.Store {
	var n atomic.Int64
	return memory.New().WithKeyGenerator(func() string { return fmt.Sprintf("n%03d", n.Add(1)) })
}

func reminders(t *testing.T, store *memory.Store) []models.Notification {
	t.Helper()
	snap, err := store.Read(context.Background(), docstore.NotificationsPath("u1"))
	if err != nil {
		t.Fatal(err)
	}
	list, _ := models.Partition(models.DecodeNotifications(snap))
	return list
}

func TestRunCreatesOneReminderPerTaskPerDay(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	seed(t, store)
	markers := newMarkers()
	g := New(Config{Store: store, Markers: markers, Now: clock("2024-03-01T09:00:00Z")})

	res, err := g.Run(ctx, "u1")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Outcome != OutcomeScanned || res.Created != 1 {
		t.Fatalf("first run = %+v, want one reminder", res)
	}

	list := reminders(t, store)
	if len(list) != 1 {
		t.Fatalf("got %d notifications, want 1", len(list))
	}
	n := list[0]
	if n.RelatedID != "t1" || n.Read || n.Link != TaskListLink || n.Type != models.NotificationDueDateReminder {
		t.Errorf("notification = %+v", n)
	}

	res, _ = g.Run(ctx, "u1")
	if res.Outcome != OutcomeAlreadyScanned {
		t.Errorf("second run = %+v, want already scanned", res)
	}

	// a lost marker must not produce a duplicate
	markers.values = map[string]string{}
	res, err = g.Run(ctx, "u1")
	if err != nil || res.Created != 0 {
		t.Fatalf("rerun without marker = %+v, %v; want nothing created", res, err)
	}
	if got := len(reminders(t, store)); got != 1 {
		t.Fatalf("after rerun got %d notifications, want 1", got)
	}
}

func TestRunNextDayRemindsAgain(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	seed(t, store)
	markers := newMarkers()

	_, _ = New(Config{Store: store, Markers: markers, Now: clock("2024-03-01T09:00:00Z")}).Run(ctx, "u1")
	res, err := New(Config{Store: store, Markers: markers, Now: clock("2024-03-04T09:00:00Z")}).Run(ctx, "u1")
	if err != nil || res.Created != 1 {
		t.Fatalf("next-day run = %+v, %v; want reminder for t3", res, err)
	}
	if markers.values[MarkerKey("u1")] != "2024-03-04" {
		t.Errorf("marker = %q", markers.values[MarkerKey("u1")])
	}
}

func TestRunNothingDueStillRecordsScan(t *testing.T) {
	store := newStore()
	markers := newMarkers()
	res, err := New(Config{Store: store, Markers: markers, Now: clock("2024-03-01T09:00:00Z")}).Run(context.Background(), "u1")
	if err != nil || res.Outcome != OutcomeScanned || res.Created != 0 {
		t.Fatalf("Run = %+v, %v", res, err)
	}
	if markers.values[MarkerKey("u1")] != "2024-03-01" {
		t.Errorf("marker not recorded")
	}
}

func TestRunDisabled(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	seed(t, store)
	_ = store.Write(ctx, docstore.UserPath("u1", "notificationSettings"), map[string]any{"dueDateReminder": false})
	markers := newMarkers()

	res, err := New(Config{Store: store, Markers: markers, Now: clock("2024-03-01T09:00:00Z")}).Run(ctx, "u1")
	if err != nil || res.Outcome != OutcomeDisabled {
		t.Fatalf("Run = %+v, %v; want disabled", res, err)
	}
	if len(reminders(t, store)) != 0 || len(markers.values) != 0 {
		t.Error("disabled scan wrote something")
	}
}

func TestRunFailedWriteKeepsMarker(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	seed(t, store)
	markers := newMarkers()
	g := New(Config{Store: store, Markers: markers, Now: clock("2024-03-01T09:00:00Z")})

	store.WithWriteError(errors.New("offline"))
	if _, err := g.Run(ctx, "u1"); err == nil {
		t.Fatal("expected write failure")
	}
	if _, ok := markers.values[MarkerKey("u1")]; ok {
		t.Fatal("marker advanced after failed write")
	}

	store.WithWriteError(nil)
	res, err := g.Run(ctx, "u1")
	if err != nil || res.Created != 1 {
		t.Fatalf("retry = %+v, %v; want one reminder", res, err)
	}
}

func TestRunMarkersArePerUser(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	seed(t, store)
	_ = store.Write(ctx, docstore.UserPath("u2", "tasks", "x1"), map[string]any{"title": "Fittings", "dueDate": "2024-03-02"})
	markers := newMarkers()
	g := New(Config{Store: store, Markers: markers, Now: clock("2024-03-01T09:00:00Z")})

	if _, err := g.Run(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	res, err := g.Run(ctx, "u2")
	if err != nil || res.Created != 1 {
		t.Fatalf("second user = %+v, %v; want own scan", res, err)
	}
}

func TestRunCountsMalformedReminderAsSent(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	seed(t, store)
	err := store.Write(ctx, docstore.NotificationsPath("u1", "old"), map[string]any{
		"message":   "Reminder: 'Book venue' is due tomorrow.",
		"read":      "no",
		"createdAt": "2024-03-01T07:00:00Z",
		"type":      string(models.NotificationDueDateReminder),
		"relatedId": "t1",
	})
	if err != nil {
		t.Fatal(err)
	}

	res, err := New(Config{Store: store, Markers: newMarkers(), Now: clock("2024-03-01T09:00:00Z")}).Run(ctx, "u1")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Created != 0 {
		t.Errorf("created %d reminders, want 0 since t1 was already reminded today", res.Created)
	}
}
