package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rsned/artifactsmmo-crafting-planner/pkg/crafting"
)

// ItemStore handles item and recipe data access.
type ItemStore struct {
	db *DB
}

// NewItemStore creates a new ItemStore.
func NewItemStore(db *DB) *ItemStore {
	return &ItemStore{db: db}
}

const itemColumns = `code, name, level, type, subtype, craft_skill, craft_level, craft_quantity`

// scanItem scans one items row. The recipe inputs are loaded separately.
func scanItem(row interface{ Scan(...any) error }) (*crafting.Item, error) {
	var (
		item       crafting.Item
		craftSkill sql.NullString
		craftLevel sql.NullInt64
		craftQty   sql.NullInt64
	)
	if err := row.Scan(
		&item.Code, &item.Name, &item.Level, &item.Type, &item.Subtype,
		&craftSkill, &craftLevel, &craftQty,
	); err != nil {
		return nil, err
	}
	if craftSkill.Valid && craftSkill.String != "" {
		item.Craft = &crafting.CraftRecipe{
			Skill:    craftSkill.String,
			Level:    int(craftLevel.Int64),
			Quantity: int(craftQty.Int64),
		}
		if item.Craft.Quantity <= 0 {
			item.Craft.Quantity = 1
		}
	}
	return &item, nil
}

// GetItem retrieves one item by code with its recipe inputs.
// Returns nil if the item is unknown.
func (s *ItemStore) GetItem(ctx context.Context, code string) (*crafting.Item, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE code = ?`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying item: %w", err)
	}

	if item.Craft != nil {
		components, err := s.getCraftComponents(ctx, code)
		if err != nil {
			return nil, err
		}
		item.Craft.Items = components
	}

	return item, nil
}

// getCraftComponents retrieves recipe inputs in recipe order.
func (s *ItemStore) getCraftComponents(ctx context.Context, itemCode string) ([]crafting.RecipeItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT component_code, quantity
		FROM item_craft_components
		WHERE item_code = ?
		ORDER BY position ASC
	`, itemCode)
	if err != nil {
		return nil, fmt.Errorf("querying craft components: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var components []crafting.RecipeItem
	for rows.Next() {
		var c crafting.RecipeItem
		if err := rows.Scan(&c.Code, &c.Quantity); err != nil {
			return nil, fmt.Errorf("scanning craft component: %w", err)
		}
		components = append(components, c)
	}

	return components, rows.Err()
}

// FindItemsUsing returns the codes of items whose recipe consumes code.
func (s *ItemStore) FindItemsUsing(ctx context.Context, code string) ([]string, error) {
	return queryCodes(ctx, s.db, `
		SELECT DISTINCT item_code
		FROM item_craft_components
		WHERE component_code = ?
		ORDER BY item_code
	`, code)
}

// ListItemsBySkill returns every item crafted with skill, lowest level first.
func (s *ItemStore) ListItemsBySkill(ctx context.Context, skill string) ([]crafting.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE craft_skill = ? COLLATE NOCASE
		ORDER BY craft_level ASC, code ASC
	`, skill)
	if err != nil {
		return nil, fmt.Errorf("listing items by skill: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []crafting.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range items {
		if items[i].Craft == nil {
			continue
		}
		components, err := s.getCraftComponents(ctx, items[i].Code)
		if err != nil {
			return nil, fmt.Errorf("loading components for %s: %w", items[i].Code, err)
		}
		items[i].Craft.Items = components
	}

	return items, nil
}

// CountItems returns the number of known items.
func (s *ItemStore) CountItems(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return count, nil
}

// BulkInsertItems inserts or replaces items and their recipes in a transaction.
func (s *ItemStore) BulkInsertItems(ctx context.Context, items []crafting.Item) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		itemStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO items (`+itemColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(code) DO UPDATE SET
				name = excluded.name,
				level = excluded.level,
				type = excluded.type,
				subtype = excluded.subtype,
				craft_skill = excluded.craft_skill,
				craft_level = excluded.craft_level,
				craft_quantity = excluded.craft_quantity
		`)
		if err != nil {
			return fmt.Errorf("preparing item statement: %w", err)
		}
		defer func() { _ = itemStmt.Close() }()

		clearStmt, err := tx.PrepareContext(ctx, `DELETE FROM item_craft_components WHERE item_code = ?`)
		if err != nil {
			return fmt.Errorf("preparing clear statement: %w", err)
		}
		defer func() { _ = clearStmt.Close() }()

		compStmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO item_craft_components (item_code, position, component_code, quantity)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing component statement: %w", err)
		}
		defer func() { _ = compStmt.Close() }()

		for _, it := range items {
			var craftSkill, craftLevel, craftQty any
			if it.Craft != nil && it.Craft.Skill != "" {
				craftSkill, craftLevel, craftQty = it.Craft.Skill, it.Craft.Level, it.Craft.Quantity
			}
			if _, err := itemStmt.ExecContext(ctx,
				it.Code, it.Name, it.Level, it.Type, it.Subtype,
				craftSkill, craftLevel, craftQty,
			); err != nil {
				return fmt.Errorf("inserting item %s: %w", it.Code, err)
			}

			if _, err := clearStmt.ExecContext(ctx, it.Code); err != nil {
				return fmt.Errorf("clearing components for %s: %w", it.Code, err)
			}
			if it.Craft == nil {
				continue
			}
			for pos, c := range it.Craft.Items {
				if _, err := compStmt.ExecContext(ctx, it.Code, pos, c.Code, c.Quantity); err != nil {
					return fmt.Errorf("inserting component for %s: %w", it.Code, err)
				}
			}
		}

		return nil
	})
}

// ClearItems removes all item data (for re-sync).
func (s *ItemStore) ClearItems(ctx context.Context) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM items`)
		return err
	})
}

// queryCodes runs a query returning a single text column.
func queryCodes(ctx context.Context, db *DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying codes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scanning code: %w", err)
		}
		codes = append(codes, code)
	}

	return codes, rows.Err()
}
