package engine

import (
	"context"

	"github.com/rsned/artifactsmmo-crafting-planner/pkg/crafting"
)

// SkillUnlocks executes the skill_unlocks tool logic: the items that become
// craftable at the next level of a skill, and how many remain locked.
func (e *Engine) SkillUnlocks(ctx context.Context, req crafting.SkillUnlocksRequest) (*crafting.SkillUnlocksResponse, error) {
	if err := e.validate.Struct(req); err != nil {
		return nil, err
	}

	items, err := e.kb.ItemsBySkill(ctx, req.Skill)
	if err != nil {
		return nil, err
	}

	resp := &crafting.SkillUnlocksResponse{
		Skill:         req.Skill,
		NextLevel:     req.CurrentLevel + 1,
		ItemsUnlocked: []string{},
	}

	for _, item := range items {
		if item.Craft == nil || item.Craft.Level <= req.CurrentLevel {
			continue
		}
		resp.ItemsLocked++
		if item.Craft.Level == resp.NextLevel {
			resp.ItemsUnlocked = append(resp.ItemsUnlocked, item.Code)
		}
	}

	return resp, nil
}
