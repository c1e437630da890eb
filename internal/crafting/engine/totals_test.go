package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rsned/artifactsmmo-crafting-planner/pkg/crafting"
)

func TestCalculateTotalMaterials_BaseChild(t *testing.T) {
	node := &crafting.ChainNode{Kind: crafting.KindCraftable, RequiredMaterials: []crafting.RequiredMaterial{
		{Code: "ash_wood", Quantity: 7, Node: &crafting.ChainNode{ItemCode: "ash_wood", Kind: crafting.KindBaseResource}},
	}}
	assert.Equal(t, map[string]int{"ash_wood": 7}, CalculateTotalMaterials(node))
}

func TestCalculateTotalMaterials_NestedQuantities(t *testing.T) {
	bar := &crafting.ChainNode{ItemCode: "copper_bar", Kind: crafting.KindTransformable, RawMaterial: "copper_ore", TransformRatio: 10}
	node := &crafting.ChainNode{Kind: crafting.KindCraftable, RequiredMaterials: []crafting.RequiredMaterial{
		{Code: "copper_bar", Quantity: 2, Node: bar},
	}}
	assert.Equal(t, map[string]int{"copper_ore": 20}, CalculateTotalMaterials(node))

	parent := &crafting.ChainNode{Kind: crafting.KindCraftable, RequiredMaterials: []crafting.RequiredMaterial{
		{Code: "gadget", Quantity: 3, Node: &crafting.ChainNode{Kind: crafting.KindCraftable, TotalMaterialsNeeded: CalculateTotalMaterials(node)}},
		{Code: "copper_ore", Quantity: 1, Node: &crafting.ChainNode{ItemCode: "copper_ore", Kind: crafting.KindBaseResource}},
		{Code: "loop", Quantity: 4, Node: &crafting.ChainNode{ItemCode: "loop", Kind: crafting.KindAlreadyAnalyzed}},
	}}
	assert.Equal(t, map[string]int{"copper_ore": 61, "loop": 4}, CalculateTotalMaterials(parent))
}

func TestCalculateTotalMaterials_Nil(t *testing.T) {
	assert.Empty(t, CalculateTotalMaterials(nil))
}
