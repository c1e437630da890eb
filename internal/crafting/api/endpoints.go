package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/rsned/artifactsmmo-crafting-planner/internal/metrics"
	"github.com/rsned/artifactsmmo-crafting-planner/pkg/crafting"
)

// GetItem fetches one item. Returns ErrNotFound for unknown codes.
// Results, including misses, are cached when the client has a cache.
func (c *Client) GetItem(ctx context.Context, code string) (*crafting.Item, error) {
	if c.items != nil {
		if item, ok := c.items.Get(code); ok {
			metrics.APICacheLookups.WithLabelValues(metrics.ResultHit).Inc()
			if item == nil {
				return nil, ErrNotFound
			}
			return item.Clone(), nil
		}
		metrics.APICacheLookups.WithLabelValues(metrics.ResultMiss).Inc()
	}

	var s itemSchema
	err := c.getData(ctx, "/items/{code}", "/items/"+url.PathEscape(code), nil, &s)
	if errors.Is(err, ErrNotFound) {
		if c.items != nil {
			c.items.Add(code, nil)
		}
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting item %s: %w", code, err)
	}

	item := s.toItem()
	if c.items != nil {
		c.items.Add(code, item.Clone())
	}

	return &item, nil
}

// GetCharacter fetches a character snapshot: skills, inventory and equipment.
func (c *Client) GetCharacter(ctx context.Context, name string) (*crafting.Character, error) {
	body, err := c.get(ctx, "/characters/{name}", "/characters/"+url.PathEscape(name), nil)
	if err != nil {
		return nil, fmt.Errorf("getting character %s: %w", name, err)
	}

	data := gjson.GetBytes(body, "data")
	if !data.IsObject() {
		return nil, fmt.Errorf("getting character %s: %w", name, ErrNotFound)
	}

	return parseCharacter(data), nil
}

// ListItems fetches the whole item catalog.
func (c *Client) ListItems(ctx context.Context) ([]crafting.Item, error) {
	var items []crafting.Item
	err := c.getPages(ctx, "/items", "/items", func(raw json.RawMessage) error {
		var page []itemSchema
		if err := json.Unmarshal(raw, &page); err != nil {
			return err
		}
		for _, s := range page {
			items = append(items, s.toItem())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return items, nil
}

// ListResources fetches every gatherable resource.
func (c *Client) ListResources(ctx context.Context) ([]crafting.Resource, error) {
	var resources []crafting.Resource
	err := c.getPages(ctx, "/resources", "/resources", func(raw json.RawMessage) error {
		var page []resourceSchema
		if err := json.Unmarshal(raw, &page); err != nil {
			return err
		}
		for _, s := range page {
			resources = append(resources, s.toResource())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing resources: %w", err)
	}
	return resources, nil
}

// ListMaps fetches every map tile.
func (c *Client) ListMaps(ctx context.Context) ([]crafting.MapLocation, error) {
	var tiles []crafting.MapLocation
	err := c.getPages(ctx, "/maps", "/maps", func(raw json.RawMessage) error {
		var page []mapSchema
		if err := json.Unmarshal(raw, &page); err != nil {
			return err
		}
		for _, s := range page {
			tiles = append(tiles, s.toLocation())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing maps: %w", err)
	}
	return tiles, nil
}
