package engine

import (
	"context"
	"strings"

	"github.com/rsned/artifactsmmo-crafting-planner/internal/logger"
	"github.com/rsned/artifactsmmo-crafting-planner/pkg/crafting"
)

// SkillToWorkshopType returns the workshop code serving a crafting skill.
// Current workshops are searched before legacy facilities. When neither
// knows the skill, the skill name itself is used.
func (e *Engine) SkillToWorkshopType(ctx context.Context, skill string) string {
	if skill == "" {
		return ""
	}

	sources := []func(context.Context) ([]crafting.Workshop, error){
		e.kb.Workshops,
		e.kb.Facilities,
	}
	for _, list := range sources {
		entries, err := list(ctx)
		if err != nil {
			logger.FromContext(ctx).Debug("listing workshops failed", "error", err)
			continue
		}
		for _, w := range entries {
			if strings.EqualFold(w.CraftSkill, skill) && w.FacilityType == crafting.FacilityTypeWorkshop {
				return w.Code
			}
		}
	}

	return skill
}

// gatheringInfo describes where code is gathered. The first known resource
// dropping it wins; without one, the item code stands in for the resource.
func (e *Engine) gatheringInfo(ctx context.Context, code string) *crafting.GatheringInfo {
	log := logger.FromContext(ctx)
	info := &crafting.GatheringInfo{
		ResourceCode:   code,
		KnownLocations: []crafting.MapLocation{},
	}

	resources, err := e.kb.ResourcesDropping(ctx, code)
	if err != nil {
		log.Debug("resource lookup failed", "item", code, "error", err)
	}
	if len(resources) > 0 {
		info.ResourceCode = resources[0].Code
		info.SkillRequired = resources[0].Skill
		info.LevelRequired = resources[0].Level
	}

	locations, err := e.kb.Locations(ctx, info.ResourceCode)
	if err != nil {
		log.Debug("location lookup failed", "resource", info.ResourceCode, "error", err)
	}
	if len(locations) > 0 {
		info.KnownLocations = locations
	}

	return info
}
