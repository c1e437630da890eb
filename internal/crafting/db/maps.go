package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rsned/artifactsmmo-crafting-planner/pkg/crafting"
)

// MapStore handles map tile data access.
type MapStore struct {
	db *DB
}

// NewMapStore creates a new MapStore.
func NewMapStore(db *DB) *MapStore {
	return &MapStore{db: db}
}

// FindLocationsByContent returns the tiles holding contentCode.
func (s *MapStore) FindLocationsByContent(ctx context.Context, contentCode string) ([]crafting.MapLocation, error) {
	return s.queryTiles(ctx, `
		SELECT name, skin, x, y, content_type, content_code
		FROM map_tiles
		WHERE content_code = ?
		ORDER BY x, y
	`, contentCode)
}

// FindLocationsByType returns the tiles whose content is of contentType.
func (s *MapStore) FindLocationsByType(ctx context.Context, contentType string) ([]crafting.MapLocation, error) {
	return s.queryTiles(ctx, `
		SELECT name, skin, x, y, content_type, content_code
		FROM map_tiles
		WHERE content_type = ?
		ORDER BY content_code, x, y
	`, contentType)
}

func (s *MapStore) queryTiles(ctx context.Context, query string, args ...any) ([]crafting.MapLocation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying map tiles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tiles []crafting.MapLocation
	for rows.Next() {
		var t crafting.MapLocation
		if err := rows.Scan(&t.Name, &t.Skin, &t.X, &t.Y, &t.ContentType, &t.ContentCode); err != nil {
			return nil, fmt.Errorf("scanning map tile: %w", err)
		}
		tiles = append(tiles, t)
	}

	return tiles, rows.Err()
}

// BulkInsertTiles inserts or replaces map tiles in a transaction.
func (s *MapStore) BulkInsertTiles(ctx context.Context, tiles []crafting.MapLocation) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO map_tiles (x, y, name, skin, content_type, content_code)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing tile statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, t := range tiles {
			if _, err := stmt.ExecContext(ctx, t.X, t.Y, t.Name, t.Skin, t.ContentType, t.ContentCode); err != nil {
				return fmt.Errorf("inserting tile (%d,%d): %w", t.X, t.Y, err)
			}
		}

		return nil
	})
}

// ClearMaps removes all map data.
func (s *MapStore) ClearMaps(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM map_tiles`)
	if err != nil {
		return fmt.Errorf("clearing map tiles: %w", err)
	}
	return nil
}
