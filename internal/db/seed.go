package db

import (
	"context"
	"database/sql"
	"fmt"

	"inkyspace/internal/models"
)

type defaultTagSeed struct {
	id   string
	name string
}

var defaultTagSeeds = []defaultTagSeed{
	{id: "technology", name: "Technology"},
	{id: "design", name: "Design"},
	{id: "science", name: "Science"},
	{id: "business", name: "Business"},
	{id: "culture", name: "Culture"},
	{id: "writing", name: "Writing"},
	{id: "travel", name: "Travel"},
	{id: "health", name: "Health"},
}

func SeedDefaultTags(ctx context.Context, database *sql.DB) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, tag := range defaultTagSeeds {
		if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO tags (id, name)
VALUES (?, ?)`, tag.id, tag.name); err != nil {
			return fmt.Errorf("seed tag %q: %w", tag.id, err)
		}
	}

	return tx.Commit()
}

func ListTags(ctx context.Context, database *sql.DB) ([]models.Tag, error) {
	rows, err := database.QueryContext(ctx, `SELECT id, name FROM tags ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTags(rows)
}

func scanTags(rows *sql.Rows) ([]models.Tag, error) {
	out := make([]models.Tag, 0)
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func threadTags(ctx context.Context, q queryer, threadID string) ([]models.Tag, error) {
	rows, err := q.QueryContext(ctx, `
SELECT t.id, t.name
FROM thread_tags tt
JOIN tags t ON t.id = tt.tag_id
WHERE tt.thread_id = ?
ORDER BY t.name ASC`, threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTags(rows)
}

func replaceThreadTagsTx(ctx context.Context, tx *sql.Tx, threadID string, tags []models.Tag) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM thread_tags WHERE thread_id = ?`, threadID); err != nil {
		return err
	}
	for _, id := range dedupeTagIDs(tags) {
		if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO thread_tags (thread_id, tag_id)
SELECT ?, id FROM tags WHERE id = ?`, threadID, id); err != nil {
			return err
		}
	}
	return nil
}

func dedupeTagIDs(tags []models.Tag) []string {
	ids := make([]string, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}
	return dedupe(ids)
}

func dedupe(values []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
