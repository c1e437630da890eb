package engine

import (
	"context"
	"strings"

	"github.com/rsned/artifactsmmo-crafting-planner/internal/logger"
	"github.com/rsned/artifactsmmo-crafting-planner/internal/metrics"
	"github.com/rsned/artifactsmmo-crafting-planner/pkg/crafting"
)

// MaxDepth is the deepest recursion level the resolver will expand.
const MaxDepth = 10

// ResolutionContext carries the state of one analysis run. It must not be
// reused across runs.
type ResolutionContext struct {
	Visited   map[string]bool
	Inventory map[string]int

	// Missing holds the visited codes that had no item data.
	Missing map[string]bool
}

// NewResolutionContext creates a fresh context over an inventory snapshot.
func NewResolutionContext(inventory map[string]int) *ResolutionContext {
	if inventory == nil {
		inventory = map[string]int{}
	}
	return &ResolutionContext{
		Visited:   make(map[string]bool),
		Inventory: inventory,
		Missing:   make(map[string]bool),
	}
}

// Resolve builds the chain node for code at the given depth. It returns nil
// when the branch cannot be resolved: depth exhausted or no item data. An
// item already seen during this run yields an already_analyzed stub.
func (e *Engine) Resolve(ctx context.Context, rc *ResolutionContext, code string, depth int) *crafting.ChainNode {
	log := logger.FromContext(ctx)

	if depth > MaxDepth {
		log.Warn("crafting chain too deep, dropping branch", "item", code, "depth", depth)
		return nil
	}
	if rc == nil {
		rc = NewResolutionContext(nil)
	}

	if rc.Visited[code] {
		metrics.ChainNodesTotal.WithLabelValues(string(crafting.KindAlreadyAnalyzed)).Inc()
		return &crafting.ChainNode{ItemCode: code, Kind: crafting.KindAlreadyAnalyzed}
	}
	rc.Visited[code] = true

	item, source := e.lookupItem(ctx, code)
	if item == nil {
		log.Debug("no data for item", "item", code, "depth", depth)
		rc.Missing[code] = true
		return nil
	}

	var node *crafting.ChainNode
	switch {
	case !item.HasRecipe():
		node = &crafting.ChainNode{
			ItemCode:  code,
			Kind:      crafting.KindBaseResource,
			Source:    source,
			ItemType:  item.Type,
			Gathering: e.gatheringInfo(ctx, code),
		}
	case isTransformable(item):
		node = e.transformableNode(ctx, item, source)
	default:
		node = e.craftableNode(ctx, rc, item, source, depth)
	}

	metrics.ChainNodesTotal.WithLabelValues(string(node.Kind)).Inc()
	return node
}

// isTransformable reports whether a recipe refines a single raw material,
// like ore into bars. Equipment with a single input is still craftable.
func isTransformable(item *crafting.Item) bool {
	if !item.HasRecipe() || len(item.Craft.Items) != 1 {
		return false
	}
	t := strings.ToLower(item.Type)
	return t == "" || t == "resource"
}

func (e *Engine) transformableNode(ctx context.Context, item *crafting.Item, source crafting.DataSource) *crafting.ChainNode {
	input := item.Craft.Items[0]
	ratio := input.Quantity
	if ratio < 1 {
		ratio = 1
	}

	return &crafting.ChainNode{
		ItemCode:       item.Code,
		Kind:           crafting.KindTransformable,
		Source:         source,
		ItemType:       item.Type,
		CraftSkill:     item.Craft.Skill,
		WorkshopType:   e.SkillToWorkshopType(ctx, item.Craft.Skill),
		LevelRequired:  item.Craft.Level,
		RawMaterial:    input.Code,
		TransformRatio: ratio,
		Gathering:      e.gatheringInfo(ctx, input.Code),
	}
}

func (e *Engine) craftableNode(ctx context.Context, rc *ResolutionContext, item *crafting.Item, source crafting.DataSource, depth int) *crafting.ChainNode {
	node := &crafting.ChainNode{
		ItemCode:      item.Code,
		Kind:          crafting.KindCraftable,
		Source:        source,
		ItemType:      item.Type,
		CraftSkill:    item.Craft.Skill,
		WorkshopType:  e.SkillToWorkshopType(ctx, item.Craft.Skill),
		LevelRequired: item.Craft.Level,
	}

	for _, input := range item.Craft.Items {
		child := e.Resolve(ctx, rc, input.Code, depth+1)
		// A stub for an item without data is as unresolved as its first use.
		if child == nil || (child.Kind == crafting.KindAlreadyAnalyzed && rc.Missing[input.Code]) {
			node.Unresolved = append(node.Unresolved, input)
			continue
		}
		node.RequiredMaterials = append(node.RequiredMaterials, crafting.RequiredMaterial{
			Code:     input.Code,
			Quantity: input.Quantity,
			Node:     child,
		})
	}

	node.TotalMaterialsNeeded = CalculateTotalMaterials(node)
	return node
}
