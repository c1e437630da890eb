package engine

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/rsned/artifactsmmo-crafting-planner/pkg/crafting"
)

// memKB is an in-memory KnowledgeBase.
type memKB struct {
	items      map[string]crafting.Item
	resources  []crafting.Resource
	workshops  []crafting.Workshop
	facilities []crafting.Workshop
	tiles      []crafting.MapLocation
}

func newMemKB(items ...crafting.Item) *memKB {
	kb := &memKB{items: make(map[string]crafting.Item)}
	for _, it := range items {
		kb.items[it.Code] = it
	}
	return kb
}

func (kb *memKB) Item(_ context.Context, code string) (*crafting.Item, error) {
	it, ok := kb.items[code]
	if !ok {
		return nil, nil
	}
	return &it, nil
}

func (kb *memKB) ItemsUsing(_ context.Context, code string) ([]string, error) {
	var out []string
	for c, it := range kb.items {
		if it.Craft.QuantityOf(code) > 0 {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (kb *memKB) ItemsBySkill(_ context.Context, skill string) ([]crafting.Item, error) {
	var out []crafting.Item
	for _, it := range kb.items {
		if it.Craft != nil && strings.EqualFold(it.Craft.Skill, skill) {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (kb *memKB) ResourcesDropping(_ context.Context, code string) ([]crafting.Resource, error) {
	var out []crafting.Resource
	for _, r := range kb.resources {
		for _, d := range r.Drops {
			if d.Code == code {
				out = append(out, r)
				break
			}
		}
	}
	return out, nil
}

func (kb *memKB) Workshops(context.Context) ([]crafting.Workshop, error)  { return kb.workshops, nil }
func (kb *memKB) Facilities(context.Context) ([]crafting.Workshop, error) { return kb.facilities, nil }

func (kb *memKB) Locations(_ context.Context, code string) ([]crafting.MapLocation, error) {
	var out []crafting.MapLocation
	for _, t := range kb.tiles {
		if t.ContentCode == code {
			out = append(out, t)
		}
	}
	return out, nil
}

// fakeGateway counts calls and serves a fixed catalog.
type fakeGateway struct {
	items          map[string]crafting.Item
	character      *crafting.Character
	itemCalls      int
	characterCalls int
	panicOn        string
}

var errNoSuchItem = errors.New("not found")

func (g *fakeGateway) GetItem(_ context.Context, code string) (*crafting.Item, error) {
	g.itemCalls++
	if code == g.panicOn {
		panic("gateway exploded")
	}
	it, ok := g.items[code]
	if !ok {
		return nil, errNoSuchItem
	}
	return &it, nil
}

func (g *fakeGateway) GetCharacter(_ context.Context, name string) (*crafting.Character, error) {
	g.characterCalls++
	if g.character == nil {
		return nil, errNoSuchItem
	}
	return g.character, nil
}

func recipe(skill string, inputs ...crafting.RecipeItem) *crafting.CraftRecipe {
	return &crafting.CraftRecipe{Skill: skill, Level: 1, Quantity: 1, Items: inputs}
}

func in(code string, qty int) crafting.RecipeItem {
	return crafting.RecipeItem{Code: code, Quantity: qty}
}

// copperKB is the copper dagger catalog used by most tests.
func copperKB() *memKB {
	kb := newMemKB(
		crafting.Item{Code: "copper_ore", Type: "resource"},
		crafting.Item{Code: "copper_bar", Type: "resource", Craft: recipe("mining", in("copper_ore", 10))},
		crafting.Item{Code: "copper_dagger", Type: "weapon", Craft: recipe("weaponcrafting", in("copper_bar", 6))},
	)
	kb.resources = []crafting.Resource{{
		Code: "copper_rocks", Skill: "mining", Level: 1,
		Drops: []crafting.ResourceDrop{{Code: "copper_ore", Rate: 1}},
	}}
	kb.workshops = []crafting.Workshop{
		{Code: "forge", CraftSkill: "Mining", FacilityType: crafting.FacilityTypeWorkshop},
		{Code: "weaponcrafting", CraftSkill: "weaponcrafting", FacilityType: crafting.FacilityTypeWorkshop},
	}
	kb.tiles = []crafting.MapLocation{{X: 2, Y: 0, ContentType: "resource", ContentCode: "copper_rocks"}}
	return kb
}

func actionNames(actions []crafting.PlannedAction) []crafting.ActionName {
	out := make([]crafting.ActionName, len(actions))
	for i, a := range actions {
		out[i] = a.Name
	}
	return out
}

func findAction(actions []crafting.PlannedAction, name crafting.ActionName) []crafting.PlannedAction {
	var out []crafting.PlannedAction
	for _, a := range actions {
		if a.Name == name {
			out = append(out, a)
		}
	}
	return out
}
