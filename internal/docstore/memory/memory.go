// Package memory provides an in-process implementation of docstore.Store.
// It backs tests and single-process setups; state is lost when the process exits.
package memory

import (
	"context"
	"sync"

	"github.com/knotcraft/Pre-production/internal/docstore"
)

// Ensure Store implements docstore.Store
var _ docstore.Store = (*Store)(nil)

// Store keeps the whole document tree in memory.
type Store struct {
	mu       sync.RWMutex
	root     any
	hub      *docstore.Hub
	writeErr error
	readErr  error
	subErr   error
	writes   []map[string]any
	newKey   func() string
}

// New creates an empty store.
func New() *Store {
	return &Store{hub: docstore.NewHub(), newKey: docstore.NewKey}
}

// WithWriteError makes every subsequent write fail with err. Pass nil to recover.
func (s *Store) WithWriteError(err error) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
	return s
}

// WithReadError makes every subsequent point read fail with err. Pass nil to recover.
func (s *Store) WithReadError(err error) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
	return s
}

// WithSubscribeError makes every subsequent Subscribe fail with err. Pass nil to recover.
func (s *Store) WithSubscribeError(err error) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subErr = err
	return s
}

// WithKeyGenerator replaces the key generator, for deterministic tests.
func (s *Store) WithKeyGenerator(fn func() string) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.newKey = fn
	return s
}

// Writes returns every applied write request as a batched update, oldest first.
func (s *Store) Writes() []map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]map[string]any(nil), s.writes...)
}

// Subscribers reports the number of live subscriptions.
func (s *Store) Subscribers() int {
	return s.hub.Len()
}

// Subscribe registers fn for path and delivers the current value.
func (s *Store) Subscribe(ctx context.Context, path string, fn docstore.Listener) (docstore.Subscription, error) {
	if err := docstore.ValidatePath(path); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.subErr != nil {
		return nil, s.subErr
	}
	sub := s.hub.Add(ctx, path, fn)
	sub.Offer(docstore.Event{Snapshot: docstore.Clone(docstore.Lookup(s.root, path))})
	return sub, nil
}

// Read returns a copy of the value at path.
func (s *Store) Read(_ context.Context, path string) (docstore.Snapshot, error) {
	if err := docstore.ValidatePath(path); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	return docstore.Clone(docstore.Lookup(s.root, path)), nil
}

// Write replaces the value at path.
func (s *Store) Write(ctx context.Context, path string, value any) error {
	if docstore.Clean(path) == "" {
		return s.replaceRoot(value)
	}
	return s.BatchedMerge(ctx, map[string]any{path: value})
}

// Merge sets each field as a child of path.
func (s *Store) Merge(ctx context.Context, path string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return s.BatchedMerge(ctx, docstore.MergeUpdates(path, fields))
}

// GenerateKey returns a fresh child key.
func (s *Store) GenerateKey(string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.newKey()
}

// Delete removes the value at path.
func (s *Store) Delete(ctx context.Context, path string) error {
	return s.Write(ctx, path, nil)
}

// BatchedMerge applies all updates atomically and then notifies overlapping subscribers.
func (s *Store) BatchedMerge(_ context.Context, updates map[string]any) error {
	paths, prepared, err := docstore.PrepareUpdates(updates)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	root := s.root
	for _, p := range paths {
		root = docstore.Put(root, p, prepared[p])
	}
	s.root = root
	s.writes = append(s.writes, prepared)
	s.hub.Publish(paths, s.lookupClone)
	return nil
}

// FailSubscriptions delivers err to every live subscription, as a dropped
// connection would.
func (s *Store) FailSubscriptions(err error) {
	s.hub.Broadcast(docstore.Event{Err: err})
}

// Close releases every subscription.
func (s *Store) Close() error {
	s.hub.CloseAll()
	return nil
}

func (s *Store) replaceRoot(value any) error {
	n, err := docstore.Normalize(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.root = n
	s.writes = append(s.writes, map[string]any{"": n})
	s.hub.Publish([]string{""}, s.lookupClone)
	return nil
}

func (s *Store) lookupClone(path string) docstore.Snapshot {
	return docstore.Clone(docstore.Lookup(s.root, path))
}
