// Package sqlite provides a SQLite-backed implementation of docstore.Store.
//
// The tree is stored flattened: one row per leaf, keyed by its full path. Reads
// reassemble the subtree from a path-prefix range scan.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/knotcraft/Pre-production/internal/docstore"
)

// Ensure Store implements docstore.Store
var _ docstore.Store = (*Store)(nil)

// Store implements docstore.Store using SQLite.
type Store struct {
	db  *sql.DB
	hub *docstore.Hub

	// mu serializes write+publish so subscribers observe one linear history.
	mu sync.Mutex
}

// New opens (or creates) the database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps write transactions from tripping over SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db, hub: docstore.NewHub()}, nil
}

// Close releases subscriptions and closes the database connection.
func (s *Store) Close() error {
	s.hub.CloseAll()
	return s.db.Close()
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
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.read(ctx, s.db, path)
	if err != nil {
		return nil, err
	}
	sub := s.hub.Add(ctx, path, fn)
	sub.Offer(docstore.Event{Snapshot: snap})
	return sub, nil
}

// Read returns the value at path.
func (s *Store) Read(ctx context.Context, path string) (docstore.Snapshot, error) {
	if err := docstore.ValidatePath(path); err != nil {
		return nil, err
	}
	return s.read(ctx, s.db, path)
}

// Write replaces the value at path.
func (s *Store) Write(ctx context.Context, path string, value any) error {
	path = docstore.Clean(path)
	if path == "" {
		n, err := docstore.Normalize(value)
		if err != nil {
			return err
		}
		return s.apply(ctx, []string{""}, map[string]any{"": n})
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

// GenerateKey returns a fresh time-ordered child key.
func (s *Store) GenerateKey(string) string {
	return docstore.NewKey()
}

// Delete removes the value at path.
func (s *Store) Delete(ctx context.Context, path string) error {
	return s.Write(ctx, path, nil)
}

// BatchedMerge applies all updates in one transaction and then notifies subscribers.
func (s *Store) BatchedMerge(ctx context.Context, updates map[string]any) error {
	paths, prepared, err := docstore.PrepareUpdates(updates)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return nil
	}
	return s.apply(ctx, paths, prepared)
}

func (s *Store) apply(ctx context.Context, paths []string, values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range paths {
		if err := replaceSubtree(ctx, tx, p, values[p]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.hub.Publish(paths, func(path string) docstore.Snapshot {
		snap, err := s.read(context.Background(), s.db, path)
		if err != nil {
			return nil
		}
		return snap
	})
	return nil
}

// replaceSubtree removes everything at and below path, any leaf stored at an ancestor
// of path, and then inserts the leaves of value.
func replaceSubtree(ctx context.Context, tx *sql.Tx, path string, value any) error {
	if path == "" {
		if _, err := tx.ExecContext(ctx, "DELETE FROM nodes"); err != nil {
			return fmt.Errorf("failed to clear tree: %w", err)
		}
	} else {
		lo, hi := subtreeRange(path)
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM nodes WHERE path = ? OR (path >= ? AND path < ?)",
			path, lo, hi,
		); err != nil {
			return fmt.Errorf("failed to delete subtree %s: %w", path, err)
		}
		for a := docstore.Parent(path); a != ""; a = docstore.Parent(a) {
			if _, err := tx.ExecContext(ctx, "DELETE FROM nodes WHERE path = ?", a); err != nil {
				return fmt.Errorf("failed to delete ancestor leaf %s: %w", a, err)
			}
		}
	}

	for leafPath, leaf := range docstore.Flatten(path, value) {
		encoded, err := json.Marshal(leaf)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", leafPath, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO nodes (path, value) VALUES (?, ?)",
			leafPath, string(encoded),
		); err != nil {
			return fmt.Errorf("failed to insert %s: %w", leafPath, err)
		}
	}
	return nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) read(ctx context.Context, q querier, path string) (docstore.Snapshot, error) {
	path = docstore.Clean(path)

	var (
		rows *sql.Rows
		err  error
	)
	if path == "" {
		rows, err = q.QueryContext(ctx, "SELECT path, value FROM nodes")
	} else {
		lo, hi := subtreeRange(path)
		rows, err = q.QueryContext(ctx,
			"SELECT path, value FROM nodes WHERE path = ? OR (path >= ? AND path < ?)",
			path, lo, hi,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer rows.Close()

	var root any
	for rows.Next() {
		var leafPath, encoded string
		if err := rows.Scan(&leafPath, &encoded); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		var leaf any
		if err := json.Unmarshal([]byte(encoded), &leaf); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", leafPath, err)
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(leafPath, path), "/")
		root = docstore.Put(root, rel, leaf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate nodes: %w", err)
	}
	return root, nil
}

// subtreeRange returns the half-open key range holding every path strictly below path.
// '0' is the byte after '/', so [path+"/", path+"0") covers exactly the descendants.
func subtreeRange(path string) (string, string) {
	return path + "/", path + "0"
}
