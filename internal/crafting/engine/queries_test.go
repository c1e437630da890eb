package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsned/artifactsmmo-crafting-planner/pkg/crafting"
)

func queryKB() *memKB {
	kb := copperKB()
	kb.items["copper_helmet"] = crafting.Item{Code: "copper_helmet", Type: "helmet",
		Craft: &crafting.CraftRecipe{Skill: "gearcrafting", Level: 1, Quantity: 1, Items: []crafting.RecipeItem{in("copper_bar", 6)}}}
	kb.items["copper_ring"] = crafting.Item{Code: "copper_ring", Type: "ring",
		Craft: &crafting.CraftRecipe{Skill: "gearcrafting", Level: 5, Quantity: 1, Items: []crafting.RecipeItem{in("copper_bar", 4), in("feather", 1)}}}
	kb.items["iron_helmet"] = crafting.Item{Code: "iron_helmet", Type: "helmet",
		Craft: &crafting.CraftRecipe{Skill: "gearcrafting", Level: 2, Quantity: 1, Items: []crafting.RecipeItem{in("iron_bar", 6)}}}
	kb.items["feather"] = crafting.Item{Code: "feather", Type: "resource"}
	return kb
}

func TestItemLookup(t *testing.T) {
	e := New(queryKB(), nil)

	resp, err := e.ItemLookup(context.Background(), crafting.ItemLookupRequest{Code: "copper_bar"})
	require.NoError(t, err)
	require.NotNil(t, resp.Item)
	assert.Equal(t, "forge", resp.WorkshopType)
	assert.Equal(t, []string{"copper_dagger", "copper_helmet", "copper_ring"}, resp.UsedIn)

	resp, err = e.ItemLookup(context.Background(), crafting.ItemLookupRequest{Code: "copper_ore"})
	require.NoError(t, err)
	assert.Equal(t, []string{"copper_rocks"}, resp.DroppedBy)

	resp, err = e.ItemLookup(context.Background(), crafting.ItemLookupRequest{Code: "ghost"})
	require.NoError(t, err)
	assert.Nil(t, resp.Item)

	_, err = e.ItemLookup(context.Background(), crafting.ItemLookupRequest{})
	assert.Error(t, err)
}

func TestEvaluateRecipes(t *testing.T) {
	e := New(queryKB(), nil)

	resp, err := e.EvaluateRecipes(context.Background(), crafting.EvaluateRecipesRequest{
		Skill:      "gearcrafting",
		SkillLevel: 5,
		Inventory:  map[string]int{"copper_bar": 13},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.TotalScored)

	require.Len(t, resp.Craftable, 1)
	assert.Equal(t, "copper_helmet", resp.Craftable[0].Item.Code)
	assert.Equal(t, 2, resp.Craftable[0].CanCraftQuantity)

	require.Len(t, resp.Partial, 2)
	assert.Equal(t, "copper_ring", resp.Partial[0].Item.Code)
	assert.InDelta(t, 0.5, resp.Partial[0].MatchRatio, 1e-9)
	assert.Equal(t, "iron_helmet", resp.Partial[1].Item.Code)
	assert.Equal(t, []crafting.RecipeItem{in("iron_bar", 6)}, resp.Partial[1].MaterialsMissing)
}

func TestEvaluateRecipes_LevelFilter(t *testing.T) {
	e := New(queryKB(), nil)

	resp, err := e.EvaluateRecipes(context.Background(), crafting.EvaluateRecipesRequest{Skill: "gearcrafting", SkillLevel: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalScored)
}

func TestMaterialUses(t *testing.T) {
	e := New(queryKB(), nil)

	resp, err := e.MaterialUses(context.Background(), crafting.MaterialUsesRequest{Code: "copper_bar", SkillLevel: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.TotalUses)
	assert.False(t, resp.UsedIn[len(resp.UsedIn)-1].LevelReady)
	assert.Equal(t, "copper_ring", resp.UsedIn[len(resp.UsedIn)-1].Item.Code)
	assert.Equal(t, 4, resp.UsedIn[len(resp.UsedIn)-1].QuantityPerCraft)
}

func TestSkillUnlocks(t *testing.T) {
	e := New(queryKB(), nil)

	resp, err := e.SkillUnlocks(context.Background(), crafting.SkillUnlocksRequest{Skill: "gearcrafting", CurrentLevel: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.NextLevel)
	assert.Equal(t, []string{"iron_helmet"}, resp.ItemsUnlocked)
	assert.Equal(t, 2, resp.ItemsLocked)
}

func TestBillOfMaterials(t *testing.T) {
	kb := queryKB()
	kb.items["fine_dagger"] = crafting.Item{Code: "fine_dagger", Type: "weapon",
		Craft: recipe("weaponcrafting", in("copper_dagger", 2), in("copper_bar", 1), in("feather", 3))}
	e := New(kb, nil)

	resp, err := e.BillOfMaterials(context.Background(), crafting.BillOfMaterialsRequest{Code: "fine_dagger", Quantity: 2})
	require.NoError(t, err)

	// 4 daggers * 6 bars + 2 bars = 26 bars = 260 ore
	assert.Equal(t, []crafting.BOMItem{
		{ItemCode: "copper_ore", Quantity: 260},
		{ItemCode: "feather", Quantity: 6},
	}, resp.RawMaterials)

	require.Len(t, resp.CraftSteps, 3)
	assert.Equal(t, "copper_bar", resp.CraftSteps[0].ItemCode)
	assert.Equal(t, crafting.KindTransformable, resp.CraftSteps[0].Kind)
	assert.Equal(t, 26, resp.CraftSteps[0].CraftRuns)
	assert.Equal(t, "copper_dagger", resp.CraftSteps[1].ItemCode)
	assert.Equal(t, "fine_dagger", resp.CraftSteps[2].ItemCode)
	assert.Equal(t, []string{"forge", "weaponcrafting"}, resp.Workshops)
}

func TestBillOfMaterials_YieldRoundsUp(t *testing.T) {
	kb := newMemKB(
		crafting.Item{Code: "flour", Type: "resource"},
		crafting.Item{Code: "bread", Type: "consumable",
			Craft: &crafting.CraftRecipe{Skill: "cooking", Quantity: 4, Items: []crafting.RecipeItem{in("flour", 2), in("flour_extra", 1)}}},
		crafting.Item{Code: "flour_extra", Type: "resource"},
	)
	e := New(kb, nil)

	resp, err := e.BillOfMaterials(context.Background(), crafting.BillOfMaterialsRequest{Code: "bread", Quantity: 5})
	require.NoError(t, err)
	require.Len(t, resp.CraftSteps, 1)
	assert.Equal(t, 2, resp.CraftSteps[0].CraftRuns)
	assert.Equal(t, 8, resp.CraftSteps[0].Produced)
	assert.Equal(t, "cooking", resp.CraftSteps[0].WorkshopType)
}

func TestBillOfMaterials_Cycle(t *testing.T) {
	kb := newMemKB(
		crafting.Item{Code: "a", Type: "weapon", Craft: recipe("x", in("b", 1), in("c", 1))},
		crafting.Item{Code: "b", Type: "weapon", Craft: recipe("x", in("a", 1), in("c", 1))},
		crafting.Item{Code: "c"},
	)
	e := New(kb, nil)

	_, err := e.BillOfMaterials(context.Background(), crafting.BillOfMaterialsRequest{Code: "a"})
	assert.ErrorContains(t, err, "cycle")
}
