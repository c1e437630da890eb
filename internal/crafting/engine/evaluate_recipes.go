package engine

import (
	"context"
	"sort"

	"github.com/rsned/artifactsmmo-crafting-planner/pkg/crafting"
)

// EvaluateRecipes executes the evaluate_recipes tool logic. It scores every
// recipe of a skill that the character's level allows against an inventory.
func (e *Engine) EvaluateRecipes(ctx context.Context, req crafting.EvaluateRecipesRequest) (*crafting.EvaluateRecipesResponse, error) {
	if err := e.validate.Struct(req); err != nil {
		return nil, err
	}

	// Apply defaults
	if req.Limit <= 0 {
		req.Limit = 20
	}

	items, err := e.kb.ItemsBySkill(ctx, req.Skill)
	if err != nil {
		return nil, err
	}

	var craftable, partial []crafting.RecipeEvaluation
	scored := 0

	for _, item := range items {
		if !item.HasRecipe() || item.Craft.Level > req.SkillLevel {
			continue
		}
		scored++

		have, missing, canCraft := calculateComponentMatch(item.Craft, req.Inventory)
		eval := crafting.RecipeEvaluation{
			Item:             item,
			MaterialsHave:    have,
			MaterialsMissing: missing,
			MatchRatio:       calculateMatchRatio(len(item.Craft.Items)-len(missing), len(item.Craft.Items)),
			CanCraftQuantity: canCraft,
		}

		if len(missing) == 0 {
			craftable = append(craftable, eval)
		} else {
			partial = append(partial, eval)
		}
	}

	sortEvaluations(craftable)
	sortEvaluations(partial)

	if len(craftable) > req.Limit {
		craftable = craftable[:req.Limit]
	}
	if len(partial) > req.Limit {
		partial = partial[:req.Limit]
	}

	return &crafting.EvaluateRecipesResponse{
		Skill:       req.Skill,
		Craftable:   craftable,
		Partial:     partial,
		TotalScored: scored,
	}, nil
}

// calculateComponentMatch calculates how well an inventory covers a recipe.
func calculateComponentMatch(
	recipe *crafting.CraftRecipe,
	inventory map[string]int,
) (have []crafting.RecipeItem, missing []crafting.RecipeItem, canCraft int) {
	if len(recipe.Items) == 0 {
		return nil, nil, 0
	}

	canCraft = -1 // minimum over inputs

	for _, req := range recipe.Items {
		available := inventory[req.Code]

		switch {
		case available >= req.Quantity:
			have = append(have, req)
			if n := available / max(1, req.Quantity); canCraft < 0 || n < canCraft {
				canCraft = n
			}
		case available > 0:
			have = append(have, crafting.RecipeItem{Code: req.Code, Quantity: available})
			missing = append(missing, crafting.RecipeItem{Code: req.Code, Quantity: req.Quantity - available})
			canCraft = 0
		default:
			missing = append(missing, req)
			canCraft = 0
		}
	}

	if canCraft < 0 {
		canCraft = 0
	}

	return have, missing, canCraft
}

// calculateMatchRatio returns the ratio of satisfied inputs to total inputs.
func calculateMatchRatio(have, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(have) / float64(total)
}

// sortEvaluations orders by match ratio, then higher level, then code.
func sortEvaluations(evals []crafting.RecipeEvaluation) {
	sort.SliceStable(evals, func(i, j int) bool {
		if evals[i].MatchRatio != evals[j].MatchRatio {
			return evals[i].MatchRatio > evals[j].MatchRatio
		}
		if evals[i].Item.Craft.Level != evals[j].Item.Craft.Level {
			return evals[i].Item.Craft.Level > evals[j].Item.Craft.Level
		}
		return evals[i].Item.Code < evals[j].Item.Code
	})
}
