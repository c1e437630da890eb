package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB with knowledge-base specific methods.
type DB struct {
	*sql.DB
}

// Open opens a SQLite knowledge base at the given path.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("pinging database %s: %w", path, err)
	}

	return &DB{DB: sqlDB}, nil
}

// OpenAndInit opens the knowledge base and brings its schema up to date.
func OpenAndInit(ctx context.Context, path string) (*DB, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}

	if err := InitSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

// InTransaction executes fn within a transaction, committing on success
// and rolling back when fn fails.
func (db *DB) InTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetSyncMetadata returns the metadata value stored under key, or "" when
// the key was never written.
func (db *DB) GetSyncMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM sync_metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying sync metadata %s: %w", key, err)
	}
	return value, nil
}

// SetSyncMetadata upserts a metadata value.
func (db *DB) SetSyncMetadata(ctx context.Context, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO sync_metadata (key, value, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("setting sync metadata %s: %w", key, err)
	}
	return nil
}

// knowledgeTables are the tables reported by Counts.
var knowledgeTables = []string{"items", "resources", "workshops", "map_tiles"}

// Counts returns the row count of every knowledge table.
func (db *DB) Counts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(knowledgeTables))
	for _, table := range knowledgeTables {
		var n int
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("counting %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

// Status summarizes what the knowledge base holds and when each part was
// last synced.
type Status struct {
	SchemaVersion int               `json:"schema_version"`
	Counts        map[string]int    `json:"counts"`
	LastSync      map[string]string `json:"last_sync,omitempty"`
}

// Status reports table counts and the *_last_sync metadata entries, keyed
// by data kind.
func (db *DB) Status(ctx context.Context) (*Status, error) {
	counts, err := db.Counts(ctx)
	if err != nil {
		return nil, err
	}

	version, err := db.schemaVersion(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT key, value FROM sync_metadata
		WHERE key LIKE '%\_last\_sync' ESCAPE '\'
		ORDER BY key
	`)
	if err != nil {
		return nil, fmt.Errorf("querying sync metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	status := &Status{SchemaVersion: version, Counts: counts, LastSync: make(map[string]string)}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning sync metadata: %w", err)
		}
		status.LastSync[strings.TrimSuffix(key, "_last_sync")] = value
	}

	return status, rows.Err()
}
