package engine

import (
	"context"
	"sort"

	"github.com/rsned/artifactsmmo-crafting-planner/pkg/crafting"
)

// MaterialUses executes the material_uses tool logic.
func (e *Engine) MaterialUses(ctx context.Context, req crafting.MaterialUsesRequest) (*crafting.MaterialUsesResponse, error) {
	if err := e.validate.Struct(req); err != nil {
		return nil, err
	}

	codes, err := e.kb.ItemsUsing(ctx, req.Code)
	if err != nil {
		return nil, err
	}

	var uses []crafting.MaterialUse
	for _, code := range codes {
		item, err := e.kb.Item(ctx, code)
		if err != nil {
			return nil, err
		}
		if !item.HasRecipe() {
			continue
		}

		uses = append(uses, crafting.MaterialUse{
			Item:             *item,
			QuantityPerCraft: item.Craft.QuantityOf(req.Code),
			LevelReady:       req.SkillLevel <= 0 || item.Craft.Level <= req.SkillLevel,
		})
	}

	// Recipes the character can make first, then simpler recipes.
	sort.SliceStable(uses, func(i, j int) bool {
		if uses[i].LevelReady != uses[j].LevelReady {
			return uses[i].LevelReady
		}
		return len(uses[i].Item.Craft.Items) < len(uses[j].Item.Craft.Items)
	})

	return &crafting.MaterialUsesResponse{
		Code:      req.Code,
		UsedIn:    uses,
		TotalUses: len(uses),
	}, nil
}
