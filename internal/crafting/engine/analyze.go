package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rsned/artifactsmmo-crafting-planner/internal/logger"
	"github.com/rsned/artifactsmmo-crafting-planner/internal/metrics"
	"github.com/rsned/artifactsmmo-crafting-planner/pkg/crafting"
)

// Messages of failed analyses.
const (
	MsgNoCharacter    = "No character name provided"
	MsgNoTarget       = "No target item specified"
	MsgAnalysisFailed = "Crafting chain analysis failed"
)

// AnalyzeCraftingChain resolves the target's crafting chain and plans the
// actions that take the character from its inventory to the target item.
// It never returns an error: every failure becomes a result with Success
// false.
func (e *Engine) AnalyzeCraftingChain(ctx context.Context, req crafting.AnalyzeRequest) (result *crafting.AnalysisResult) {
	req.CharacterName = strings.TrimSpace(req.CharacterName)
	req.TargetItem = strings.TrimSpace(req.TargetItem)

	if msg := e.validateAnalyzeRequest(req); msg != "" {
		metrics.AnalysesTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		result = crafting.ErrorResult(msg)
		result.Outcome = crafting.OutcomeInvalid
		return result
	}

	if _, ok := logger.RunIDFromContext(ctx); !ok {
		ctx = logger.WithRunID(ctx, logger.NewRunID())
	}
	log := logger.FromContext(ctx)
	log.Info("crafting chain analysis started", "character", req.CharacterName, "target", req.TargetItem)

	defer func() {
		if r := recover(); r != nil {
			log.Error("crafting chain analysis panicked", "panic", r)
			metrics.AnalysesTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
			result = failed(fmt.Errorf("%v", r))
		}
	}()

	result, err := e.analyze(ctx, req)
	if err != nil {
		log.Warn("crafting chain analysis failed", "target", req.TargetItem, "error", err)
		outcome := metrics.OutcomeFailed
		result = failed(err)
		if errors.Is(err, ErrUnresolvedTarget) {
			outcome = metrics.OutcomeUnresolved
			result.Outcome = crafting.OutcomeUnresolved
		}
		metrics.AnalysesTotal.WithLabelValues(outcome).Inc()
		return result
	}

	metrics.AnalysesTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	log.Info("crafting chain analysis finished",
		"target", req.TargetItem, "steps", result.TotalSteps, "gaps", len(result.Gaps))
	return result
}

// ErrUnresolvedTarget marks an analysis whose target item has no data.
var ErrUnresolvedTarget = errors.New("could not resolve item")

func (e *Engine) analyze(ctx context.Context, req crafting.AnalyzeRequest) (*crafting.AnalysisResult, error) {
	inventory, equipment, err := e.characterSnapshot(ctx, req)
	if err != nil {
		return nil, err
	}

	rc := NewResolutionContext(inventory)
	chain := e.Resolve(ctx, rc, req.TargetItem, 0)
	if chain == nil {
		return nil, fmt.Errorf("%w %s", ErrUnresolvedTarget, req.TargetItem)
	}

	seq, err := NewSequenceBuilder(rc.Inventory, equipment).Build(ctx, chain)
	if err != nil {
		return nil, fmt.Errorf("building action sequence: %w", err)
	}

	resources, workshops := summarizeActions(seq.Actions)

	return &crafting.AnalysisResult{
		Success:               true,
		Outcome:               crafting.OutcomeSuccess,
		TargetItem:            req.TargetItem,
		ChainAnalysis:         chain,
		ActionSequence:        seq.Actions,
		ResourceNodesRequired: resources,
		WorkshopsRequired:     workshops,
		TotalSteps:            len(seq.Actions),
		RawMaterialsNeeded:    rawMaterialsFor(chain),
		Gaps:                  seq.Gaps,
	}, nil
}

// validateAnalyzeRequest returns the user-facing message for a missing
// field, or "" when the request is complete.
func (e *Engine) validateAnalyzeRequest(req crafting.AnalyzeRequest) string {
	err := e.validate.Struct(req)
	if err == nil {
		return ""
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return MsgNoTarget
	}
	if verrs[0].Field() == "CharacterName" {
		return MsgNoCharacter
	}
	return MsgNoTarget
}

// characterSnapshot returns the inventory and equipment for the run. Request
// snapshots are used as-is; missing ones are fetched with one API call.
func (e *Engine) characterSnapshot(ctx context.Context, req crafting.AnalyzeRequest) (map[string]int, map[crafting.EquipmentSlot]string, error) {
	inventory, equipment := req.Inventory, req.Equipment
	if inventory != nil && equipment != nil {
		return inventory, equipment, nil
	}

	if e.gateway != nil {
		ch, err := e.gateway.GetCharacter(ctx, req.CharacterName)
		if err != nil {
			return nil, nil, fmt.Errorf("getting character %s: %w", req.CharacterName, err)
		}
		if inventory == nil {
			inventory = ch.Inventory
		}
		if equipment == nil {
			equipment = ch.Equipment
		}
	}

	if inventory == nil {
		inventory = map[string]int{}
	}
	if equipment == nil {
		equipment = map[crafting.EquipmentSlot]string{}
	}
	return inventory, equipment, nil
}

// summarizeActions collects the sorted, distinct resource nodes and
// workshops an action sequence visits.
func summarizeActions(actions []crafting.PlannedAction) (resources, workshops []string) {
	seenRes := make(map[string]bool)
	seenWs := make(map[string]bool)

	for _, a := range actions {
		switch a.Name {
		case crafting.ActionFindResources:
			if code, _ := a.Params["resource_code"].(string); code != "" && !seenRes[code] {
				seenRes[code] = true
				resources = append(resources, code)
			}
		case crafting.ActionFindWorkshop:
			if ws, _ := a.Params["workshop_type"].(string); ws != "" && !seenWs[ws] {
				seenWs[ws] = true
				workshops = append(workshops, ws)
			}
		}
	}

	sort.Strings(resources)
	sort.Strings(workshops)
	return resources, workshops
}

func failed(err error) *crafting.AnalysisResult {
	return crafting.ErrorResult(fmt.Sprintf("%s: %v", MsgAnalysisFailed, err))
}
