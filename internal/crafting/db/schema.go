// Package db provides the SQLite knowledge base of observed game data.
package db

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
)

// SchemaVersion is bumped whenever schema.sql changes shape. Knowledge
// bases stamped with an older version are rebuilt from scratch on open.
const SchemaVersion = 1

//go:embed schema.sql
var schemaSQL string

const schemaVersionKey = "schema_version"

// InitSchema creates the knowledge tables. A knowledge base written by an
// older schema is dropped first; its data is cheap to re-import.
func InitSchema(ctx context.Context, db *DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS sync_metadata (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating sync_metadata: %w", err)
	}

	current, err := db.schemaVersion(ctx)
	if err != nil {
		return err
	}
	if current != 0 && current != SchemaVersion {
		if err := dropKnowledgeTables(ctx, db); err != nil {
			return err
		}
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}

	return db.SetSyncMetadata(ctx, schemaVersionKey, strconv.Itoa(SchemaVersion))
}

// schemaVersion returns the stamped schema version, 0 for a fresh database.
func (db *DB) schemaVersion(ctx context.Context) (int, error) {
	raw, err := db.GetSyncMetadata(ctx, schemaVersionKey)
	if err != nil || raw == "" {
		return 0, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid schema version %q: %w", raw, err)
	}
	return v, nil
}

func dropKnowledgeTables(ctx context.Context, db *DB) error {
	// Children first so foreign keys never block the drop.
	for _, table := range []string{"item_craft_components", "items", "resource_drops", "resources", "workshops", "map_tiles"} {
		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS `+table); err != nil {
			return fmt.Errorf("dropping %s: %w", table, err)
		}
	}
	return nil
}
