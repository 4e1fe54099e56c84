// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Index persists accepted keys in a SQLite database so a later run over
// the same output directory skips documents it already holds.
type Index struct {
	db *sql.DB
}

// OpenIndex opens or creates the index database at path.
func OpenIndex(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS accepted (
		key TEXT PRIMARY KEY,
		recorded_at TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Index{db: db}, nil
}

// Close releases the database connection.
func (i *Index) Close() error {
	return i.db.Close()
}

// Keys returns every recorded key.
func (i *Index) Keys(ctx context.Context) ([]Key, error) {
	rows, err := i.db.QueryContext(ctx, `SELECT key FROM accepted ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("querying keys: %w", err)
	}
	defer rows.Close()

	var keys []Key
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, Key(k))
	}
	return keys, rows.Err()
}

// Add records keys in one transaction. Existing keys are left untouched.
func (i *Index) Add(ctx context.Context, keys ...Key) error {
	if len(keys) == 0 {
		return nil
	}
	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO accepted (key, recorded_at) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, k := range keys {
		if _, err := stmt.ExecContext(ctx, string(k), now); err != nil {
			return fmt.Errorf("recording key %s: %w", k, err)
		}
	}
	return tx.Commit()
}
