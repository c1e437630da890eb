package engine

import "github.com/rsned/artifactsmmo-crafting-planner/pkg/crafting"

// CalculateTotalMaterials sums the raw materials one unit of node needs.
// Resource and stub children count directly, transformable children count
// as their raw material times the ratio, and craftable children contribute
// their own totals scaled by the quantity required.
func CalculateTotalMaterials(node *crafting.ChainNode) map[string]int {
	totals := make(map[string]int)
	if node == nil {
		return totals
	}

	for _, m := range node.RequiredMaterials {
		child := m.Node
		if child == nil {
			continue
		}
		switch child.Kind {
		case crafting.KindTransformable:
			totals[child.RawMaterial] += m.Quantity * child.TransformRatio
		case crafting.KindCraftable:
			for code, qty := range child.TotalMaterialsNeeded {
				totals[code] += m.Quantity * qty
			}
		default:
			totals[m.Code] += m.Quantity
		}
	}

	return totals
}

// rawMaterialsFor returns the raw materials needed for one unit of node,
// whatever its kind.
func rawMaterialsFor(node *crafting.ChainNode) map[string]int {
	switch node.Kind {
	case crafting.KindCraftable:
		return node.TotalMaterialsNeeded
	case crafting.KindTransformable:
		return map[string]int{node.RawMaterial: node.TransformRatio}
	default:
		return map[string]int{node.ItemCode: 1}
	}
}
