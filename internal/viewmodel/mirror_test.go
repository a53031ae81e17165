package viewmodel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/knotcraft/Pre-production/internal/docstore"
)

func countChildren(snap docstore.Snapshot) (int, []string) {
	m, _ := snap.(map[string]any)
	return len(m), nil
}

func TestMirrorLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	m := NewMirror(store, "users/u1/tasks", countChildren, nil)

	if m.State() != Unmounted {
		t.Fatalf("initial state = %v, want unmounted", m.State())
	}
	if err := m.WaitReady(ctx); !errors.Is(err, ErrNotMounted) {
		t.Fatalf("WaitReady before mount = %v, want ErrNotMounted", err)
	}

	if err := m.Mount(ctx); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	if err := m.Mount(ctx); err != nil {
		t.Fatalf("second Mount failed: %v", err)
	}
	if got := store.Subscribers(); got != 1 {
		t.Fatalf("Subscribers = %d, want exactly 1", got)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := m.WaitReady(waitCtx); err != nil {
		t.Fatalf("WaitReady failed: %v", err)
	}
	if v, s := m.Current(); s != Ready || v != 0 {
		t.Fatalf("Current = %d, %v; want empty and ready", v, s)
	}

	_ = store.Write(ctx, "users/u1/tasks/t1", map[string]any{"title": "x"})
	eventually(t, "mirror to see the write", func() bool { return m.Value() == 1 })

	m.Unmount()
	if got := store.Subscribers(); got != 0 {
		t.Fatalf("Subscribers after Unmount = %d, want 0", got)
	}
	if m.State() != Unmounted || m.Value() != 0 {
		t.Fatalf("after Unmount: %d, %v", m.Value(), m.State())
	}
}

func TestMirrorRapidRemount(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	m := NewMirror(store, "users/u1/tasks", countChildren, nil)

	for i := 0; i < 20; i++ {
		if err := m.Mount(ctx); err != nil {
			t.Fatalf("Mount failed: %v", err)
		}
		m.Unmount()
	}
	if got := store.Subscribers(); got != 0 {
		t.Fatalf("Subscribers = %d after remount cycles, want 0", got)
	}
}

func TestMirrorSubscriptionFailureStaysLoading(t *testing.T) {
	ctx := context.Background()
	store := newStore().WithSubscribeError(errors.New("permission denied"))
	m := NewMirror(store, "users/u1/tasks", countChildren, nil)

	if err := m.Mount(ctx); err == nil {
		t.Fatal("expected Mount to report the subscription failure")
	}
	if m.State() != Loading || m.LastError() == nil {
		t.Fatalf("state = %v, lastErr = %v; want loading with an error", m.State(), m.LastError())
	}

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := m.WaitReady(waitCtx); err == nil {
		t.Fatal("WaitReady succeeded while stuck loading")
	}

	store.WithSubscribeError(nil)
	if err := m.Retry(ctx); err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	eventually(t, "ready after retry", func() bool { return m.State() == Ready })
	m.Unmount()
}

func TestMirrorDroppedSubscriptionKeepsLastValue(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	_ = store.Write(ctx, "users/u1/tasks/t1", map[string]any{"title": "x"})
	m := NewMirror(store, "users/u1/tasks", countChildren, nil)
	mount(t, m)

	store.FailSubscriptions(errors.New("connection lost"))
	eventually(t, "error to be recorded", func() bool { return m.LastError() != nil })
	if v, s := m.Current(); v != 1 || s != Ready {
		t.Fatalf("Current = %d, %v; want last good value", v, s)
	}
}

func TestMirrorReportsMalformedRecords(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	_ = store.Write(ctx, "users/u1/tasks", map[string]any{
		"t1": map[string]any{"title": "Book venue", "dueDate": "2024-03-01"},
		"t2": map[string]any{"title": "No date"},
	})
	tasks := NewTasks(store, uid, Options{})
	mount(t, tasks)

	if got := len(tasks.Value()); got != 1 {
		t.Fatalf("tasks = %d, want 1", got)
	}
	if got := tasks.Problems(); len(got) != 1 {
		t.Fatalf("Problems = %v, want one", got)
	}
}
