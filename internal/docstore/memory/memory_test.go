package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/knotcraft/Pre-production/internal/docstore"
)

func recv(t *testing.T, ch <-chan docstore.Event) docstore.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for subscription event")
		return docstore.Event{}
	}
}

func TestSubscribeDeliversCurrentValueAndChanges(t *testing.T) {
	ctx := context.Background()
	store := New()

	if err := store.Write(ctx, "users/u1/tasks/t1", map[string]any{"title": "Book venue"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	events := make(chan docstore.Event, 8)
	sub, err := store.Subscribe(ctx, "users/u1/tasks", func(ev docstore.Event) { events <- ev })
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Close()

	first := recv(t, events)
	tasks, ok := first.Snapshot.(map[string]any)
	if !ok || len(tasks) != 1 {
		t.Fatalf("initial snapshot = %#v, want one task", first.Snapshot)
	}

	if err := store.Merge(ctx, "users/u1/tasks/t1", map[string]any{"completed": true}); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	second := recv(t, events)
	task := docstore.Lookup(second.Snapshot, "t1").(map[string]any)
	if task["completed"] != true || task["title"] != "Book venue" {
		t.Errorf("merged task = %#v, want title kept and completed=true", task)
	}
}

func TestSubscribeIgnoresUnrelatedPaths(t *testing.T) {
	ctx := context.Background()
	store := New()

	events := make(chan docstore.Event, 8)
	sub, err := store.Subscribe(ctx, "users/u1/guests", func(ev docstore.Event) { events <- ev })
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Close()
	if ev := recv(t, events); ev.Snapshot != nil {
		t.Fatalf("expected empty initial snapshot, got %#v", ev.Snapshot)
	}

	if err := store.Write(ctx, "users/u10/guests/g1", map[string]any{"name": "Sam"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	select {
	case ev := <-events:
		t.Fatalf("unexpected event for unrelated path: %#v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCloseReleasesSubscription(t *testing.T) {
	store := New()
	sub, err := store.Subscribe(context.Background(), "users/u1", func(docstore.Event) {})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if got := store.Subscribers(); got != 1 {
		t.Fatalf("Subscribers = %d, want 1", got)
	}
	sub.Close()
	sub.Close()
	if got := store.Subscribers(); got != 0 {
		t.Fatalf("Subscribers after close = %d, want 0", got)
	}
}

func TestContextCancelReleasesSubscription(t *testing.T) {
	store := New()
	ctx, cancel := context.WithCancel(context.Background())
	if _, err := store.Subscribe(ctx, "users/u1", func(docstore.Event) {}); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for store.Subscribers() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription not released after context cancel")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBatchedMergeIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	store := New()

	err := store.BatchedMerge(ctx, map[string]any{
		"notifications/u1/n1/read": true,
		"notifications/u1/n1":      map[string]any{"message": "x"},
	})
	if !errors.Is(err, docstore.ErrOverlappingPaths) {
		t.Fatalf("BatchedMerge error = %v, want ErrOverlappingPaths", err)
	}
	if snap, _ := store.Read(ctx, "notifications"); snap != nil {
		t.Fatalf("rejected batch left data behind: %#v", snap)
	}

	store.WithWriteError(errors.New("offline"))
	if err := store.BatchedMerge(ctx, map[string]any{"a/b": 1}); err == nil {
		t.Fatal("expected injected write error")
	}
	if len(store.Writes()) != 0 {
		t.Fatalf("failed write was recorded: %v", store.Writes())
	}
}

func TestDeleteRemovesValue(t *testing.T) {
	ctx := context.Background()
	store := New()
	_ = store.Write(ctx, "users/u1/myVendors/vendor-1", map[string]any{"savedAt": "2026-01-01T00:00:00Z"})

	if err := store.Delete(ctx, "users/u1/myVendors/vendor-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	snap, err := store.Read(ctx, "users/u1")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if snap != nil {
		t.Fatalf("expected pruned tree, got %#v", snap)
	}
}
