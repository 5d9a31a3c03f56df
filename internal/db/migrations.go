package db

import (
	"context"
	"database/sql"
	"fmt"
)

type migration struct {
	version int
	name    string
	sql     string
}

// schema is applied in order; versions are never renumbered.
var schema = []migration{
	{1, "users_and_tags", identitySchemaV1},
	{2, "spaces_and_subscriptions", spacesSchemaV2},
	{3, "threads_and_comments", threadsSchemaV3},
	{4, "editor_invites", invitesSchemaV4},
}

const versionTable = `
CREATE TABLE IF NOT EXISTS schema_version (
	version     INTEGER PRIMARY KEY,
	name        TEXT NOT NULL,
	applied_at  TEXT NOT NULL
);`

// Migrate brings the store up to the latest schema and reports how many
// migrations ran.
func Migrate(ctx context.Context, database *sql.DB) (int, error) {
	if _, err := database.ExecContext(ctx, versionTable); err != nil {
		return 0, fmt.Errorf("schema_version: %w", err)
	}
	done, err := appliedVersions(ctx, database)
	if err != nil {
		return 0, err
	}
	ran := 0
	for _, m := range schema {
		if done[m.version] {
			continue
		}
		if err := runMigration(ctx, database, m); err != nil {
			return ran, fmt.Errorf("migration %d %s: %w", m.version, m.name, err)
		}
		ran++
	}
	return ran, nil
}

func appliedVersions(ctx context.Context, database *sql.DB) (map[int]bool, error) {
	rows, err := database.QueryContext(ctx, `SELECT version FROM schema_version`)
	if err != nil {
		return nil, fmt.Errorf("schema_version: %w", err)
	}
	defer rows.Close()
	done := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		done[v] = true
	}
	return done, rows.Err()
}

func runMigration(ctx context.Context, database *sql.DB, m migration) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, m.sql); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_version (version, name, applied_at) VALUES (?, ?, ?)`,
		m.version, m.name, nowRFC3339()); err != nil {
		return err
	}
	return tx.Commit()
}
