package action

import (
	"context"

	"github.com/rsned/artifactsmmo-crafting-planner/pkg/crafting"
)

// Context keys read and written by AnalyzeCraftingChain.
const (
	KeyTargetItem     = "target_item"
	KeyCraftingPlan   = "crafting_plan"
	KeyActionSequence = "crafting_action_sequence"
)

// State flags.
const (
	StateCharacterAlive    = "character_alive"
	StateNeedCraftingPlan  = "need_crafting_plan"
	StateCraftingPlanReady = "crafting_plan_ready"
)

// Analyzer runs a crafting chain analysis. *engine.Engine implements it.
type Analyzer interface {
	AnalyzeCraftingChain(ctx context.Context, req crafting.AnalyzeRequest) *crafting.AnalysisResult
}

// AnalyzeCraftingChain is the GOAP action that produces a crafting plan for
// the item stored under target_item.
type AnalyzeCraftingChain struct {
	analyzer Analyzer
}

// NewAnalyzeCraftingChain creates the action over analyzer.
func NewAnalyzeCraftingChain(analyzer Analyzer) *AnalyzeCraftingChain {
	return &AnalyzeCraftingChain{analyzer: analyzer}
}

// Name returns the action name.
func (a *AnalyzeCraftingChain) Name() string { return "analyze_crafting_chain" }

// Conditions returns the state required before the action can run.
func (a *AnalyzeCraftingChain) Conditions() WorldState {
	return WorldState{
		StateCharacterAlive:   true,
		StateNeedCraftingPlan: true,
	}
}

// Reactions returns the state the action produces.
func (a *AnalyzeCraftingChain) Reactions() WorldState {
	return WorldState{
		StateCraftingPlanReady: true,
		StateNeedCraftingPlan:  false,
	}
}

// Weight is the planning cost of the action.
func (a *AnalyzeCraftingChain) Weight() float64 { return 1.0 }

// Execute runs the analysis. A successful plan is stored in ac for the
// actions that follow.
func (a *AnalyzeCraftingChain) Execute(ctx context.Context, ac *ActionContext) *crafting.AnalysisResult {
	if ac == nil {
		result := crafting.ErrorResult("No character name provided")
		result.Outcome = crafting.OutcomeInvalid
		return result
	}

	result := a.analyzer.AnalyzeCraftingChain(ctx, crafting.AnalyzeRequest{
		CharacterName: ac.CharacterName,
		TargetItem:    ac.GetString(KeyTargetItem),
		Inventory:     ac.CharacterInventory(),
		Equipment:     ac.Equipment,
	})

	if result.Success {
		ac.Set(KeyCraftingPlan, result)
		ac.Set(KeyActionSequence, result.ActionSequence)
	}

	return result
}
