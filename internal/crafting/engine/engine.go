// Package engine resolves crafting chains and turns them into action
// sequences, plus the catalog queries built on the same lookups.
package engine

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/rsned/artifactsmmo-crafting-planner/internal/logger"
	"github.com/rsned/artifactsmmo-crafting-planner/internal/metrics"
	"github.com/rsned/artifactsmmo-crafting-planner/pkg/crafting"
)

// KnowledgeBase is the read-only store of observed game data.
type KnowledgeBase interface {
	Item(ctx context.Context, code string) (*crafting.Item, error)
	ItemsUsing(ctx context.Context, code string) ([]string, error)
	ItemsBySkill(ctx context.Context, skill string) ([]crafting.Item, error)
	ResourcesDropping(ctx context.Context, itemCode string) ([]crafting.Resource, error)
	Workshops(ctx context.Context) ([]crafting.Workshop, error)
	Facilities(ctx context.Context) ([]crafting.Workshop, error)
	Locations(ctx context.Context, contentCode string) ([]crafting.MapLocation, error)
}

// Gateway is the live game API, consulted when the knowledge base misses.
type Gateway interface {
	GetItem(ctx context.Context, code string) (*crafting.Item, error)
	GetCharacter(ctx context.Context, name string) (*crafting.Character, error)
}

// Engine is the main planning engine.
type Engine struct {
	kb       KnowledgeBase
	gateway  Gateway
	validate *validator.Validate
}

// New creates an Engine. gateway may be nil, in which case only the
// knowledge base is consulted.
func New(kb KnowledgeBase, gateway Gateway) *Engine {
	return &Engine{
		kb:       kb,
		gateway:  gateway,
		validate: validator.New(),
	}
}

// lookupItem finds an item in the knowledge base, falling back to a single
// API call. Errors from either source are treated as "no data".
func (e *Engine) lookupItem(ctx context.Context, code string) (*crafting.Item, crafting.DataSource) {
	log := logger.FromContext(ctx)

	item, err := e.kb.Item(ctx, code)
	if err != nil {
		log.Debug("knowledge base lookup failed", "item", code, "error", err)
	}
	if item != nil {
		metrics.KnowledgeLookups.WithLabelValues(metrics.ResultHit).Inc()
		return item, crafting.SourceKnowledgeBase
	}
	metrics.KnowledgeLookups.WithLabelValues(metrics.ResultMiss).Inc()

	if e.gateway == nil {
		return nil, ""
	}

	item, err = e.gateway.GetItem(ctx, code)
	if err != nil {
		log.Debug("api item lookup failed", "item", code, "error", err)
		return nil, ""
	}
	if item == nil {
		return nil, ""
	}

	return item, crafting.SourceAPI
}
