package db

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSetting returns the stored value for key. On first use it stores the
// value produced by create; when two processes race, both read the one row
// that won the insert.
func EnsureSetting(ctx context.Context, database *sql.DB, key string, create func() (string, error)) (string, error) {
	var value string
	err := database.QueryRowContext(ctx, `SELECT value FROM system_settings WHERE key = ?`, key).Scan(&value)
	if err == nil && value != "" {
		return value, nil
	}
	if err != nil && err != sql.ErrNoRows {
		return "", fmt.Errorf("read setting %s: %w", key, err)
	}
	fresh, err := create()
	if err != nil {
		return "", fmt.Errorf("create setting %s: %w", key, err)
	}
	if _, err := database.ExecContext(ctx, `
INSERT INTO system_settings (key, value, updated_at) VALUES (?, ?, datetime('now'))
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
WHERE system_settings.value = ''`, key, fresh); err != nil {
		return "", fmt.Errorf("store setting %s: %w", key, err)
	}
	if err := database.QueryRowContext(ctx, `SELECT value FROM system_settings WHERE key = ?`, key).Scan(&value); err != nil {
		return "", fmt.Errorf("read setting %s: %w", key, err)
	}
	return value, nil
}
