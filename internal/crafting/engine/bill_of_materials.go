package engine

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rsned/artifactsmmo-crafting-planner/pkg/crafting"
)

// BillOfMaterials executes the bill_of_materials tool logic.
// It performs recursive dependency resolution, accounting for recipe yields,
// and returns the raw materials plus workshop steps in dependency order.
func (e *Engine) BillOfMaterials(ctx context.Context, req crafting.BillOfMaterialsRequest) (*crafting.BillOfMaterialsResponse, error) {
	if err := e.validate.Struct(req); err != nil {
		return nil, err
	}

	// Apply defaults
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	target, _ := e.lookupItem(ctx, req.Code)
	if target == nil {
		return nil, fmt.Errorf("item not found: %s", req.Code)
	}

	// Discover craftable items via DFS starting from the target.
	// Diamond dependencies are allowed, cycles are not.
	craftableItems := make(map[string]*crafting.Item)
	visited := make(map[string]bool)
	pathStack := make(map[string]bool)

	var dfs func(code string, depth int) error
	dfs = func(code string, depth int) error {
		if depth > MaxDepth {
			return fmt.Errorf("recipe chain of %s deeper than %d", req.Code, MaxDepth)
		}
		if pathStack[code] {
			return fmt.Errorf("cycle detected: item %s has circular dependency", code)
		}
		if visited[code] {
			return nil
		}

		visited[code] = true
		pathStack[code] = true
		defer delete(pathStack, code)

		item, _ := e.lookupItem(ctx, code)
		if !item.HasRecipe() {
			return nil // raw material
		}
		craftableItems[code] = item

		for _, comp := range item.Craft.Items {
			if err := dfs(comp.Code, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	if err := dfs(target.Code, 0); err != nil {
		return nil, err
	}

	// Topological sort (deepest dependencies first)
	sortedBottomUp, err := topologicalSort(craftableItems)
	if err != nil {
		return nil, fmt.Errorf("topological sort: %w", err)
	}

	// Propagate demand top-down
	demand := map[string]int{target.Code: req.Quantity}
	craftRuns := make(map[string]int)
	for i := len(sortedBottomUp) - 1; i >= 0; i-- {
		code := sortedBottomUp[i]
		item := craftableItems[code]
		itemDemand := demand[code]
		if itemDemand == 0 {
			continue
		}

		runs := int(math.Ceil(float64(itemDemand) / float64(max(1, item.Craft.Quantity))))
		craftRuns[code] = runs

		for _, comp := range item.Craft.Items {
			demand[comp.Code] += runs * comp.Quantity
		}
	}

	resp := &crafting.BillOfMaterialsResponse{
		ItemCode:     target.Code,
		Quantity:     req.Quantity,
		RawMaterials: []crafting.BOMItem{},
		CraftSteps:   []crafting.BOMCraftStep{},
		Workshops:    []string{},
	}

	for code, qty := range demand {
		if craftableItems[code] == nil && qty > 0 {
			resp.RawMaterials = append(resp.RawMaterials, crafting.BOMItem{ItemCode: code, Quantity: qty})
		}
	}
	sort.Slice(resp.RawMaterials, func(i, j int) bool {
		return resp.RawMaterials[i].ItemCode < resp.RawMaterials[j].ItemCode
	})

	seenWorkshops := make(map[string]bool)
	for _, code := range sortedBottomUp {
		item := craftableItems[code]
		runs := craftRuns[code]
		if runs == 0 {
			continue
		}

		kind := crafting.KindCraftable
		if isTransformable(item) {
			kind = crafting.KindTransformable
		}
		workshop := e.SkillToWorkshopType(ctx, item.Craft.Skill)

		resp.CraftSteps = append(resp.CraftSteps, crafting.BOMCraftStep{
			StepNumber:   len(resp.CraftSteps) + 1,
			ItemCode:     code,
			Kind:         kind,
			WorkshopType: workshop,
			CraftRuns:    runs,
			Produced:     runs * max(1, item.Craft.Quantity),
		})

		if !seenWorkshops[workshop] {
			seenWorkshops[workshop] = true
			resp.Workshops = append(resp.Workshops, workshop)
		}
	}
	sort.Strings(resp.Workshops)

	return resp, nil
}

// topologicalSort orders craftable items so that every item comes after the
// craftable items it consumes. Ties are broken by code for determinism.
func topologicalSort(craftable map[string]*crafting.Item) ([]string, error) {
	inDegree := make(map[string]int)
	adjacency := make(map[string][]string)

	for code, item := range craftable {
		if _, exists := inDegree[code]; !exists {
			inDegree[code] = 0
		}
		for _, comp := range item.Craft.Items {
			if craftable[comp.Code] != nil {
				adjacency[comp.Code] = append(adjacency[comp.Code], code)
				inDegree[code]++
			}
		}
	}

	var queue []string
	for code, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, code)
		}
	}
	sort.Strings(queue)

	var sorted []string
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		sorted = append(sorted, current)

		next := adjacency[current]
		sort.Strings(next)
		for _, dependent := range next {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(sorted) != len(craftable) {
		return nil, fmt.Errorf("cycle detected in recipe dependencies")
	}

	return sorted, nil
}
