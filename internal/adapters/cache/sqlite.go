package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteBackend persists cache entries in a single-table SQLite database.
type SQLiteBackend struct {
	db *sql.DB
}

const createEntriesTable = `
	CREATE TABLE IF NOT EXISTS cache_entries (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		expires_at TEXT NOT NULL
	)
`

func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("cache: open database: %w", err)
	}

	if _, err := db.Exec(createEntriesTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: create schema: %w", err)
	}

	return &SQLiteBackend{db: db}, nil
}

func (b *SQLiteBackend) Load(ctx context.Context, key string) (Entry, bool, error) {
	query := `
		SELECT key, value, expires_at
		FROM cache_entries
		WHERE key = ?
	`

	var entry Entry
	var expiresAtStr string

	err := b.db.QueryRowContext(ctx, query, key).Scan(&entry.Key, &entry.Value, &expiresAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("cache: load entry: %w", err)
	}

	expiresAt, err := time.Parse(time.RFC3339Nano, expiresAtStr)
	if err != nil {
		return Entry{}, false, fmt.Errorf("cache: parse expires_at: %w", err)
	}
	entry.ExpiresAt = expiresAt

	return entry, true, nil
}

func (b *SQLiteBackend) Save(ctx context.Context, entry Entry) error {
	query := `
		INSERT INTO cache_entries (key, value, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at
	`

	_, err := b.db.ExecContext(ctx, query, entry.Key, entry.Value, entry.ExpiresAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("cache: save entry: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
