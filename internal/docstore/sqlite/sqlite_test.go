package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/knotcraft/Pre-production/internal/docstore"
)

func TestSQLiteStore(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "knotcraft-docstore-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "tree.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer func() { store.Close() }()

	ctx := context.Background()

	t.Run("Write then Read returns the subtree", func(t *testing.T) {
		err := store.Write(ctx, "users/u1/budget", map[string]any{
			"total": 35000,
			"categories": map[string]any{
				"c1": map[string]any{"name": "Venue", "allocated": 15000, "spent": 12750},
			},
		})
		if err != nil {
			t.Fatalf("Write failed: %v", err)
		}

		snap, err := store.Read(ctx, "users/u1/budget")
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if got := docstore.Lookup(snap, "total"); got != 35000.0 {
			t.Errorf("total = %v, want 35000", got)
		}
		if got := docstore.Lookup(snap, "categories/c1/name"); got != "Venue" {
			t.Errorf("category name = %v, want Venue", got)
		}
	})

	t.Run("Merge keeps sibling fields", func(t *testing.T) {
		if err := store.Merge(ctx, "users/u1/budget/categories/c1", map[string]any{"allocated": 16000}); err != nil {
			t.Fatalf("Merge failed: %v", err)
		}
		snap, _ := store.Read(ctx, "users/u1/budget/categories/c1")
		if docstore.Lookup(snap, "allocated") != 16000.0 || docstore.Lookup(snap, "spent") != 12750.0 {
			t.Errorf("merged category = %#v", snap)
		}
	})

	t.Run("Write replaces instead of merging", func(t *testing.T) {
		if err := store.Write(ctx, "users/u1/budget/categories/c1", map[string]any{"name": "Hall"}); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		snap, _ := store.Read(ctx, "users/u1/budget/categories/c1")
		m := snap.(map[string]any)
		if len(m) != 1 || m["name"] != "Hall" {
			t.Errorf("replaced category = %#v, want only name", m)
		}
	})

	t.Run("Sibling prefixes are not read together", func(t *testing.T) {
		_ = store.Write(ctx, "users/u10/profile/name", "Other")
		snap, _ := store.Read(ctx, "users/u1/profile")
		if snap != nil {
			t.Errorf("expected nothing at users/u1/profile, got %#v", snap)
		}
	})

	t.Run("Writing below a leaf replaces the leaf", func(t *testing.T) {
		_ = store.Write(ctx, "scratch", "leaf")
		if err := store.Write(ctx, "scratch/child", "value"); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		snap, _ := store.Read(ctx, "scratch")
		if docstore.Lookup(snap, "child") != "value" {
			t.Errorf("scratch = %#v", snap)
		}
	})

	t.Run("Delete removes subtree", func(t *testing.T) {
		if err := store.Delete(ctx, "users/u1/budget"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		snap, _ := store.Read(ctx, "users/u1/budget")
		if snap != nil {
			t.Errorf("expected deleted budget, got %#v", snap)
		}
	})

	t.Run("Subscribers see batched writes", func(t *testing.T) {
		events := make(chan docstore.Event, 4)
		sub, err := store.Subscribe(ctx, "notifications/u1", func(ev docstore.Event) { events <- ev })
		if err != nil {
			t.Fatalf("Subscribe failed: %v", err)
		}
		defer sub.Close()
		<-events

		err = store.BatchedMerge(ctx, map[string]any{
			"notifications/u1/n1": map[string]any{"message": "a", "read": false},
			"notifications/u1/n2": map[string]any{"message": "b", "read": false},
		})
		if err != nil {
			t.Fatalf("BatchedMerge failed: %v", err)
		}

		select {
		case ev := <-events:
			if n := len(ev.Snapshot.(map[string]any)); n != 2 {
				t.Errorf("snapshot has %d notifications, want 2", n)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for push")
		}
	})

	t.Run("Data survives reopen", func(t *testing.T) {
		_ = store.Write(ctx, "users/u2/profile", map[string]any{"name": "Alex"})
		store.Close()

		reopened, err := New(dbPath)
		if err != nil {
			t.Fatalf("reopen failed: %v", err)
		}
		store = reopened
		snap, _ := store.Read(ctx, "users/u2/profile/name")
		if snap != "Alex" {
			t.Errorf("name after reopen = %v, want Alex", snap)
		}
	})
}
