package db

import (
	"context"

	"github.com/rsned/artifactsmmo-crafting-planner/pkg/crafting"
)

// KnowledgeBase is the read view over all stores that the planning engine
// queries. It never writes.
type KnowledgeBase struct {
	items     *ItemStore
	resources *ResourceStore
	workshops *WorkshopStore
	maps      *MapStore
}

// NewKnowledgeBase creates a KnowledgeBase over database.
func NewKnowledgeBase(database *DB) *KnowledgeBase {
	return &KnowledgeBase{
		items:     NewItemStore(database),
		resources: NewResourceStore(database),
		workshops: NewWorkshopStore(database),
		maps:      NewMapStore(database),
	}
}

// Item returns the item with code, or nil if it was never observed.
func (kb *KnowledgeBase) Item(ctx context.Context, code string) (*crafting.Item, error) {
	return kb.items.GetItem(ctx, code)
}

// ItemsUsing returns the codes of items crafted from code.
func (kb *KnowledgeBase) ItemsUsing(ctx context.Context, code string) ([]string, error) {
	return kb.items.FindItemsUsing(ctx, code)
}

// ItemsBySkill returns every item crafted with skill.
func (kb *KnowledgeBase) ItemsBySkill(ctx context.Context, skill string) ([]crafting.Item, error) {
	return kb.items.ListItemsBySkill(ctx, skill)
}

// ResourcesDropping returns the resources that yield itemCode.
func (kb *KnowledgeBase) ResourcesDropping(ctx context.Context, itemCode string) ([]crafting.Resource, error) {
	return kb.resources.FindResourcesDropping(ctx, itemCode)
}

// Workshops returns the current workshop entries.
func (kb *KnowledgeBase) Workshops(ctx context.Context) ([]crafting.Workshop, error) {
	return kb.workshops.ListWorkshops(ctx, false)
}

// Facilities returns the legacy facility entries.
func (kb *KnowledgeBase) Facilities(ctx context.Context) ([]crafting.Workshop, error) {
	return kb.workshops.ListWorkshops(ctx, true)
}

// Locations returns the map tiles holding contentCode.
func (kb *KnowledgeBase) Locations(ctx context.Context, contentCode string) ([]crafting.MapLocation, error) {
	return kb.maps.FindLocationsByContent(ctx, contentCode)
}
