package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// GetMarker returns the stored value for key, or "" if there is none.
func (s *SQLiteStore) GetMarker(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM markers WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get marker %s: %w", key, err)
	}
	return value, nil
}

// SetMarker upserts the value for key.
func (s *SQLiteStore) SetMarker(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO markers (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set marker %s: %w", key, err)
	}
	return nil
}
