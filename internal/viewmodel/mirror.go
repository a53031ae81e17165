// Package viewmodel keeps live local mirrors of per-user store paths and derives
// what each dashboard page shows from them.
//
// A view model never edits its mirror after a write. Writes go to the store, and the
// mirror changes only when the store pushes the new value back through the
// subscription.
package viewmodel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/knotcraft/Pre-production/internal/docstore"
	"github.com/knotcraft/Pre-production/internal/models"
)

// State is a mirror's lifecycle state.
type State int

const (
	Unmounted State = iota
	// Loading means subscribed but no snapshot has arrived yet.
	Loading
	// Ready means at least one snapshot has been received. It may be empty.
	Ready
)

func (s State) String() string {
	switch s {
	case Unmounted:
		return "unmounted"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// DecodeFunc turns a raw snapshot into a typed value and a list of rejected records.
type DecodeFunc[T any] func(docstore.Snapshot) (T, []string)

// Mirror holds the latest decoded value at one store path.
type Mirror[T any] struct {
	store  docstore.Store
	path   string
	decode DecodeFunc[T]
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	value    T
	problems []string
	lastErr  error
	sub      docstore.Subscription
	// gen changes on every mount and unmount so late deliveries from a released
	// subscription are dropped.
	gen     uint64
	changed chan struct{}
}

// NewMirror creates an unmounted mirror of path.
func NewMirror[T any](store docstore.Store, path string, decode DecodeFunc[T], logger *slog.Logger) *Mirror[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mirror[T]{
		store:   store,
		path:    path,
		decode:  decode,
		logger:  logger,
		changed: make(chan struct{}),
	}
}

// Path returns the mirrored store path.
func (m *Mirror[T]) Path() string {
	return m.path
}

// Mount subscribes to the path. Mounting a mounted mirror does nothing. The
// subscription lives until Unmount or until ctx is cancelled.
//
// A failed subscription leaves the mirror in Loading with LastError set; call Retry.
func (m *Mirror[T]) Mount(ctx context.Context) error {
	m.mu.Lock()
	if m.state != Unmounted {
		m.mu.Unlock()
		return nil
	}
	m.gen++
	gen := m.gen
	m.state = Loading
	m.lastErr = nil
	m.notifyLocked()
	m.mu.Unlock()

	sub, err := m.store.Subscribe(ctx, m.path, func(ev docstore.Event) { m.receive(gen, ev) })

	m.mu.Lock()
	if err != nil {
		if m.gen == gen {
			m.lastErr = err
			m.notifyLocked()
		}
		m.mu.Unlock()
		m.logger.Warn("subscription failed", "path", m.path, "error", err)
		return fmt.Errorf("failed to subscribe to %s: %w", m.path, err)
	}
	if m.gen != gen {
		// Unmounted while the subscription was being set up.
		m.mu.Unlock()
		sub.Close()
		return nil
	}
	m.sub = sub
	m.mu.Unlock()
	return nil
}

// Unmount releases the subscription and forgets the mirrored value.
func (m *Mirror[T]) Unmount() {
	m.mu.Lock()
	sub := m.sub
	m.sub = nil
	m.gen++
	m.state = Unmounted
	var zero T
	m.value = zero
	m.problems = nil
	m.lastErr = nil
	m.notifyLocked()
	m.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
}

// Retry unmounts and mounts again.
func (m *Mirror[T]) Retry(ctx context.Context) error {
	m.Unmount()
	return m.Mount(ctx)
}

func (m *Mirror[T]) receive(gen uint64, ev docstore.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return
	}

	if ev.Err != nil {
		m.lastErr = ev.Err
		m.notifyLocked()
		m.logger.Warn("subscription error", "path", m.path, "error", ev.Err)
		return
	}

	value, problems := m.decode(ev.Snapshot)
	m.value = value
	m.problems = problems
	m.state = Ready
	m.lastErr = nil
	m.notifyLocked()

	for _, p := range problems {
		m.logger.Warn("dropping malformed record", "path", m.path, "problem", p)
	}
}

// notifyLocked wakes everyone waiting on Changed. m.mu must be held.
func (m *Mirror[T]) notifyLocked() {
	close(m.changed)
	m.changed = make(chan struct{})
}

// Current returns the mirrored value and the state it was read in.
func (m *Mirror[T]) Current() (T, State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, m.state
}

// Value returns the mirrored value. It is the zero value until Ready.
func (m *Mirror[T]) Value() T {
	v, _ := m.Current()
	return v
}

// State returns the lifecycle state.
func (m *Mirror[T]) State() State {
	_, s := m.Current()
	return s
}

// Problems lists the records dropped from the latest snapshot.
func (m *Mirror[T]) Problems() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.problems...)
}

// LastError returns the latest subscription failure, if any.
func (m *Mirror[T]) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Changed returns a channel that is closed on the next state or value change.
func (m *Mirror[T]) Changed() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.changed
}

// WaitReady blocks until the first snapshot arrives or ctx is done.
func (m *Mirror[T]) WaitReady(ctx context.Context) error {
	for {
		m.mu.Lock()
		state, changed, lastErr := m.state, m.changed, m.lastErr
		m.mu.Unlock()

		switch state {
		case Ready:
			return nil
		case Unmounted:
			return ErrNotMounted
		}

		select {
		case <-changed:
		case <-ctx.Done():
			if lastErr != nil {
				return fmt.Errorf("still loading %s: %w", m.path, lastErr)
			}
			return ctx.Err()
		}
	}
}

// collect splits decode results into values and human-readable problems.
func collect[T any](results []models.Result[T]) ([]T, []string) {
	valid, invalid := models.Partition(results)
	var problems []string
	for _, r := range invalid {
		problems = append(problems, fmt.Sprintf("%s: %s", r.ID, r.Invalid))
	}
	return valid, problems
}
