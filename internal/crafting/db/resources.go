package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rsned/artifactsmmo-crafting-planner/pkg/crafting"
)

// ResourceStore handles gatherable resource data access.
type ResourceStore struct {
	db *DB
}

// NewResourceStore creates a new ResourceStore.
func NewResourceStore(db *DB) *ResourceStore {
	return &ResourceStore{db: db}
}

// GetResource retrieves a single resource by code with its drops.
// Returns nil if the resource is unknown.
func (s *ResourceStore) GetResource(ctx context.Context, code string) (*crafting.Resource, error) {
	res := &crafting.Resource{Code: code}

	err := s.db.QueryRowContext(ctx, `
		SELECT name, skill, level
		FROM resources WHERE code = ?
	`, code).Scan(&res.Name, &res.Skill, &res.Level)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying resource: %w", err)
	}

	drops, err := s.getDrops(ctx, code)
	if err != nil {
		return nil, err
	}
	res.Drops = drops

	return res, nil
}

// getDrops retrieves the items a resource yields.
func (s *ResourceStore) getDrops(ctx context.Context, resourceCode string) ([]crafting.ResourceDrop, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_code, rate, min_quantity, max_quantity
		FROM resource_drops
		WHERE resource_code = ?
		ORDER BY item_code
	`, resourceCode)
	if err != nil {
		return nil, fmt.Errorf("querying resource drops: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var drops []crafting.ResourceDrop
	for rows.Next() {
		var d crafting.ResourceDrop
		if err := rows.Scan(&d.Code, &d.Rate, &d.MinQuantity, &d.MaxQuantity); err != nil {
			return nil, fmt.Errorf("scanning resource drop: %w", err)
		}
		drops = append(drops, d)
	}

	return drops, rows.Err()
}

// FindResourcesDropping returns the resources that yield itemCode,
// lowest required level first.
func (s *ResourceStore) FindResourcesDropping(ctx context.Context, itemCode string) ([]crafting.Resource, error) {
	codes, err := queryCodes(ctx, s.db, `
		SELECT r.code
		FROM resources r
		JOIN resource_drops d ON d.resource_code = r.code
		WHERE d.item_code = ?
		ORDER BY r.level ASC, r.code ASC
	`, itemCode)
	if err != nil {
		return nil, fmt.Errorf("finding resources dropping %s: %w", itemCode, err)
	}

	resources := make([]crafting.Resource, 0, len(codes))
	for _, code := range codes {
		res, err := s.GetResource(ctx, code)
		if err != nil {
			return nil, err
		}
		if res != nil {
			resources = append(resources, *res)
		}
	}

	return resources, nil
}

// BulkInsertResources inserts or replaces resources in a transaction.
func (s *ResourceStore) BulkInsertResources(ctx context.Context, resources []crafting.Resource) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		resStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO resources (code, name, skill, level)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(code) DO UPDATE SET
				name = excluded.name,
				skill = excluded.skill,
				level = excluded.level
		`)
		if err != nil {
			return fmt.Errorf("preparing resource statement: %w", err)
		}
		defer func() { _ = resStmt.Close() }()

		clearStmt, err := tx.PrepareContext(ctx, `DELETE FROM resource_drops WHERE resource_code = ?`)
		if err != nil {
			return fmt.Errorf("preparing clear statement: %w", err)
		}
		defer func() { _ = clearStmt.Close() }()

		dropStmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO resource_drops (resource_code, item_code, rate, min_quantity, max_quantity)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing drop statement: %w", err)
		}
		defer func() { _ = dropStmt.Close() }()

		for _, r := range resources {
			if _, err := resStmt.ExecContext(ctx, r.Code, r.Name, r.Skill, r.Level); err != nil {
				return fmt.Errorf("inserting resource %s: %w", r.Code, err)
			}
			if _, err := clearStmt.ExecContext(ctx, r.Code); err != nil {
				return fmt.Errorf("clearing drops for %s: %w", r.Code, err)
			}
			for _, d := range r.Drops {
				if _, err := dropStmt.ExecContext(ctx, r.Code, d.Code, d.Rate, d.MinQuantity, d.MaxQuantity); err != nil {
					return fmt.Errorf("inserting drop for %s: %w", r.Code, err)
				}
			}
		}

		return nil
	})
}

// ClearResources removes all resource data.
func (s *ResourceStore) ClearResources(ctx context.Context) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM resources`)
		return err
	})
}
