package engine

import (
	"context"

	"github.com/rsned/artifactsmmo-crafting-planner/pkg/crafting"
)

// ItemLookup executes the item_lookup tool logic.
func (e *Engine) ItemLookup(ctx context.Context, req crafting.ItemLookupRequest) (*crafting.ItemLookupResponse, error) {
	if err := e.validate.Struct(req); err != nil {
		return nil, err
	}

	resp := &crafting.ItemLookupResponse{}

	item, source := e.lookupItem(ctx, req.Code)
	if item == nil {
		return resp, nil
	}
	resp.Item = item
	resp.Source = source

	if item.HasRecipe() {
		resp.WorkshopType = e.SkillToWorkshopType(ctx, item.Craft.Skill)
	}

	usedIn, err := e.kb.ItemsUsing(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	resp.UsedIn = usedIn

	resources, err := e.kb.ResourcesDropping(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	for _, r := range resources {
		resp.DroppedBy = append(resp.DroppedBy, r.Code)
	}

	return resp, nil
}
