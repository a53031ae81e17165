package viewmodel

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/knotcraft/Pre-production/internal/docstore/memory"
)

const uid = "u1"

func newStore() *memory.Store {
	var n atomic.Int64
	return memory.New().WithKeyGenerator(func() string {
		return fmt.Sprintf("k%03d", n.Add(1))
	})
}

func fixedClock(date string) func() time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" 10:00", time.Local)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

// eventually polls cond until it holds, since mirrors update asynchronously.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func mount(t *testing.T, m interface {
	Mount(context.Context) error
	WaitReady(context.Context) error
	Unmount()
}) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.Mount(context.Background()); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	if err := m.WaitReady(ctx); err != nil {
		t.Fatalf("WaitReady failed: %v", err)
	}
	t.Cleanup(m.Unmount)
}
