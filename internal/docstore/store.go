// Package docstore defines the realtime document store contract the dashboard is built on.
//
// The store is a path-addressable tree of JSON-like values (maps, strings, float64 numbers,
// booleans). Writing nil, or an empty map, removes a value. Subscribers receive the full
// value at their path immediately and again after every change at, above, or below it.
package docstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrInvalidPath indicates a path segment that cannot be stored.
	ErrInvalidPath = errors.New("invalid path")
	// ErrUnsupportedValue indicates a value outside the JSON-like value model.
	ErrUnsupportedValue = errors.New("unsupported value")
	// ErrOverlappingPaths indicates a batched update that touches a path and one of its ancestors.
	ErrOverlappingPaths = errors.New("batched update paths overlap")
	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("store is closed")
)

// Snapshot is the complete value at a path at one point in time. A nil Snapshot means no data.
type Snapshot = any

// Event is one subscription delivery: either a fresh snapshot or a subscription failure.
type Event struct {
	Snapshot Snapshot
	Err      error
}

// Listener receives subscription events. Events for one subscription are delivered serially.
type Listener func(Event)

// Subscription is a live listener registration. Close releases it and is safe to call more than once.
type Subscription interface {
	Close()
}

// Store is the remote document store contract.
type Store interface {
	// Subscribe registers fn for path. fn is called with the current value and again on
	// every subsequent change at or below path.
	Subscribe(ctx context.Context, path string, fn Listener) (Subscription, error)

	// Read fetches the current value at path once.
	Read(ctx context.Context, path string) (Snapshot, error)

	// Write replaces the entire value at path.
	Write(ctx context.Context, path string, value any) error

	// Merge sets each field of fields as a child of path, leaving siblings untouched.
	Merge(ctx context.Context, path string, fields map[string]any) error

	// GenerateKey produces a new unique child key under path without writing anything.
	GenerateKey(path string) string

	// Delete removes the value at path.
	Delete(ctx context.Context, path string) error

	// BatchedMerge applies every root-relative path write in one request.
	BatchedMerge(ctx context.Context, updates map[string]any) error
}

// NewKey returns a time-ordered unique key, so generated children sort chronologically.
func NewKey() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// SubscriptionFunc adapts a plain function to the Subscription interface.
type SubscriptionFunc func()

// Close calls f.
func (f SubscriptionFunc) Close() { f() }
