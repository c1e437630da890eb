package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rsned/artifactsmmo-crafting-planner/pkg/crafting"
)

// WorkshopStore handles workshop data access. Entries imported from the
// old "facilities" section are kept with legacy set.
type WorkshopStore struct {
	db *DB
}

// NewWorkshopStore creates a new WorkshopStore.
func NewWorkshopStore(db *DB) *WorkshopStore {
	return &WorkshopStore{db: db}
}

// ListWorkshops returns workshops in code order, either the current
// entries or the legacy facility entries.
func (s *WorkshopStore) ListWorkshops(ctx context.Context, legacy bool) ([]crafting.Workshop, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, name, craft_skill, facility_type, legacy
		FROM workshops
		WHERE legacy = ?
		ORDER BY code
	`, legacy)
	if err != nil {
		return nil, fmt.Errorf("listing workshops: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var workshops []crafting.Workshop
	for rows.Next() {
		var w crafting.Workshop
		if err := rows.Scan(&w.Code, &w.Name, &w.CraftSkill, &w.FacilityType, &w.Legacy); err != nil {
			return nil, fmt.Errorf("scanning workshop: %w", err)
		}
		workshops = append(workshops, w)
	}

	return workshops, rows.Err()
}

// BulkInsertWorkshops inserts or replaces workshops in a transaction.
func (s *WorkshopStore) BulkInsertWorkshops(ctx context.Context, workshops []crafting.Workshop) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO workshops (code, name, craft_skill, facility_type, legacy)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing workshop statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, w := range workshops {
			facilityType := w.FacilityType
			if facilityType == "" {
				facilityType = crafting.FacilityTypeWorkshop
			}
			if _, err := stmt.ExecContext(ctx, w.Code, w.Name, w.CraftSkill, facilityType, w.Legacy); err != nil {
				return fmt.Errorf("inserting workshop %s: %w", w.Code, err)
			}
		}

		return nil
	})
}

// ClearWorkshops removes all workshop data.
func (s *WorkshopStore) ClearWorkshops(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM workshops`)
	if err != nil {
		return fmt.Errorf("clearing workshops: %w", err)
	}
	return nil
}
