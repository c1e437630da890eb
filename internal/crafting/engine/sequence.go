package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/rsned/artifactsmmo-crafting-planner/internal/logger"
	"github.com/rsned/artifactsmmo-crafting-planner/pkg/crafting"
)

// Gap reasons.
const (
	GapCircular   = "circular dependency"
	GapUnresolved = "no item data"
)

// Sequence is the output of the builder: the ordered actions and any
// shortages it could not plan for.
type Sequence struct {
	Actions []crafting.PlannedAction
	Gaps    []crafting.MaterialGap
}

// SequenceBuilder turns a resolved chain into primitive game actions.
// Materials are always planned before the step consuming them. Inventory is
// read but never decremented, and each gather or transform step is assumed
// to cover its whole shortage.
type SequenceBuilder struct {
	inventory map[string]int
	equipment map[crafting.EquipmentSlot]string

	index map[string]*crafting.ChainNode // fully expanded node per code
	path  map[string]bool                // craftables being planned
	seq   *Sequence
}

// NewSequenceBuilder creates a builder over inventory and equipment snapshots.
func NewSequenceBuilder(inventory map[string]int, equipment map[crafting.EquipmentSlot]string) *SequenceBuilder {
	if inventory == nil {
		inventory = map[string]int{}
	}
	if equipment == nil {
		equipment = map[crafting.EquipmentSlot]string{}
	}
	return &SequenceBuilder{inventory: inventory, equipment: equipment}
}

// Build plans the actions that produce one unit of target.
func (b *SequenceBuilder) Build(ctx context.Context, target *crafting.ChainNode) (*Sequence, error) {
	if target == nil {
		return nil, errors.New("no chain to build from")
	}
	if target.Kind == crafting.KindAlreadyAnalyzed {
		return nil, fmt.Errorf("target %s is an unexpanded reference", target.ItemCode)
	}

	b.seq = &Sequence{}
	b.index = make(map[string]*crafting.ChainNode)
	b.path = make(map[string]bool)
	indexChain(target, b.index)

	if target.Kind != crafting.KindCraftable {
		b.resolveMaterialShortage(ctx, target.ItemCode, b.shortage(target.ItemCode, 1), target)
		return b.seq, nil
	}

	b.path[target.ItemCode] = true
	b.planInputs(ctx, target, 1)

	b.add(crafting.ActionFindWorkshop,
		map[string]any{"workshop_type": target.WorkshopType, "item_code": target.ItemCode},
		fmt.Sprintf("Find %s workshop for %s", target.WorkshopType, target.ItemCode))
	b.addMove(target.WorkshopType + " workshop")

	materials := make(map[string]bool)
	for _, m := range target.RequiredMaterials {
		materials[m.Code] = true
	}
	for _, u := range target.Unresolved {
		materials[u.Code] = true
	}
	for _, slot := range crafting.AllSlots() {
		if code := b.equipment[slot]; code != "" && materials[code] {
			b.add(crafting.ActionUnequipItem,
				map[string]any{"slot": string(slot)},
				fmt.Sprintf("Unequip %s from %s to use it as material", code, slot))
		}
	}

	b.add(crafting.ActionCraftItem,
		map[string]any{"item_code": target.ItemCode, "quantity": 1},
		fmt.Sprintf("Craft %s", target.ItemCode))

	if slot, ok := crafting.SlotForItemType(target.ItemType); ok {
		b.add(crafting.ActionEquipItem,
			map[string]any{"item_code": target.ItemCode, "slot": string(slot)},
			fmt.Sprintf("Equip %s in %s slot", target.ItemCode, slot))
	}

	logger.FromContext(ctx).Debug("action sequence built",
		"target", target.ItemCode, "actions", len(b.seq.Actions), "gaps", len(b.seq.Gaps))
	return b.seq, nil
}

// planInputs plans every input of a craftable node for crafts crafts.
func (b *SequenceBuilder) planInputs(ctx context.Context, node *crafting.ChainNode, crafts int) {
	for _, m := range node.RequiredMaterials {
		if short := b.shortage(m.Code, m.Quantity*crafts); short > 0 {
			b.resolveMaterialShortage(ctx, m.Code, short, m.Node)
		}
	}
	for _, u := range node.Unresolved {
		if short := b.shortage(u.Code, u.Quantity*crafts); short > 0 {
			b.gap(u.Code, short, GapUnresolved)
		}
	}
}

// resolveMaterialShortage emits the actions that produce shortage units of code.
func (b *SequenceBuilder) resolveMaterialShortage(ctx context.Context, code string, shortage int, node *crafting.ChainNode) {
	if shortage <= 0 || node == nil {
		return
	}

	if node.Kind == crafting.KindAlreadyAnalyzed {
		full := b.index[code]
		switch {
		case full == nil:
			b.gap(code, shortage, GapUnresolved)
			return
		case b.path[code]:
			b.gap(code, shortage, GapCircular)
			return
		}
		node = full
	}

	switch node.Kind {
	case crafting.KindBaseResource:
		b.addGather(code, shortage, node.Gathering)

	case crafting.KindTransformable:
		if raw := b.shortage(node.RawMaterial, shortage*node.TransformRatio); raw > 0 {
			b.addGather(node.RawMaterial, raw, node.Gathering)
		}
		b.add(crafting.ActionFindWorkshop,
			map[string]any{"workshop_type": node.WorkshopType},
			fmt.Sprintf("Find %s workshop", node.WorkshopType))
		b.addMove(node.WorkshopType + " workshop")
		b.add(crafting.ActionTransformMaterial,
			map[string]any{"raw_material": node.RawMaterial, "target_material": code, "quantity": shortage},
			fmt.Sprintf("Transform %s into %d %s", node.RawMaterial, shortage, code))

	case crafting.KindCraftable:
		b.path[code] = true
		b.planInputs(ctx, node, shortage)
		delete(b.path, code)

		b.add(crafting.ActionFindWorkshop,
			map[string]any{"workshop_type": node.WorkshopType},
			fmt.Sprintf("Find %s workshop", node.WorkshopType))
		b.addMove(node.WorkshopType + " workshop")
		b.add(crafting.ActionCraftItem,
			map[string]any{"item_code": code, "quantity": shortage},
			fmt.Sprintf("Craft %d %s", shortage, code))
	}
}

func (b *SequenceBuilder) addGather(code string, quantity int, info *crafting.GatheringInfo) {
	resourceCode := code
	if info != nil && info.ResourceCode != "" {
		resourceCode = info.ResourceCode
	}

	b.add(crafting.ActionFindResources,
		map[string]any{"resource_type": code, "resource_code": resourceCode, "quantity": quantity},
		fmt.Sprintf("Find %s to gather %s", resourceCode, code))
	b.addMove(resourceCode)
	b.add(crafting.ActionGatherResources,
		map[string]any{"resource_type": code, "quantity": quantity},
		fmt.Sprintf("Gather %d %s", quantity, code))
}

func (b *SequenceBuilder) addMove(where string) {
	b.add(crafting.ActionMove,
		map[string]any{"use_target_coordinates": true},
		"Move to "+where)
}

func (b *SequenceBuilder) add(name crafting.ActionName, params map[string]any, desc string) {
	b.seq.Actions = append(b.seq.Actions, crafting.PlannedAction{Name: name, Params: params, Description: desc})
}

// gap records a shortage the builder cannot plan. Repeated gaps for the same
// item and reason are merged.
func (b *SequenceBuilder) gap(code string, shortage int, reason string) {
	for i := range b.seq.Gaps {
		if g := &b.seq.Gaps[i]; g.ItemCode == code && g.Reason == reason {
			g.Shortage += shortage
			return
		}
	}
	b.seq.Gaps = append(b.seq.Gaps, crafting.MaterialGap{ItemCode: code, Shortage: shortage, Reason: reason})
}

func (b *SequenceBuilder) shortage(code string, required int) int {
	return max(0, required-b.inventory[code])
}

// indexChain records the first fully expanded node for each code in the tree.
func indexChain(node *crafting.ChainNode, index map[string]*crafting.ChainNode) {
	if node == nil || node.Kind == crafting.KindAlreadyAnalyzed {
		return
	}
	if _, ok := index[node.ItemCode]; !ok {
		index[node.ItemCode] = node
	}
	for _, m := range node.RequiredMaterials {
		indexChain(m.Node, index)
	}
}
