package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned for missing rows.
var ErrNotFound = sql.ErrNoRows

var ErrConflict = errors.New("already exists")

// connPragmas run on every new connection through the DSN.
var connPragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(ON)",
	"busy_timeout(5000)",
}

func dsn(path string) string {
	q := url.Values{}
	for _, p := range connPragmas {
		q.Add("_pragma", p)
	}
	return "file:" + path + "?" + q.Encode()
}

// Open connects to the store at path. Writes are serialized through one
// connection so ids and page offsets stay consistent under concurrent handlers.
func Open(path string) (*sql.DB, error) {
	database, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	database.SetMaxOpenConns(1)
	database.SetConnMaxIdleTime(30 * time.Minute)

	var fk int
	if err := database.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if fk != 1 {
		_ = database.Close()
		return nil, fmt.Errorf("open %s: foreign keys are disabled", path)
	}
	return database, nil
}

// Init opens the store, applies migrations and seeds the default tags.
func Init(ctx context.Context, path string) (*sql.DB, error) {
	database, err := Open(path)
	if err != nil {
		return nil, err
	}
	if _, err := Migrate(ctx, database); err != nil {
		_ = database.Close()
		return nil, err
	}
	if err := SeedDefaultTags(ctx, database); err != nil {
		_ = database.Close()
		return nil, err
	}
	return database, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func nullableString(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueConstraint(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}

func expectAffected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
