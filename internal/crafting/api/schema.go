package api

import (
	"github.com/tidwall/gjson"

	"github.com/rsned/artifactsmmo-crafting-planner/pkg/crafting"
)

// itemSchema is the API shape of an item.
type itemSchema struct {
	Code    string       `json:"code"`
	Name    string       `json:"name"`
	Level   int          `json:"level"`
	Type    string       `json:"type"`
	Subtype string       `json:"subtype"`
	Craft   *craftSchema `json:"craft"`
}

type craftSchema struct {
	Skill    string                `json:"skill"`
	Level    int                   `json:"level"`
	Quantity int                   `json:"quantity"`
	Items    []crafting.RecipeItem `json:"items"`
}

func (s itemSchema) toItem() crafting.Item {
	item := crafting.Item{
		Code:    s.Code,
		Name:    s.Name,
		Level:   s.Level,
		Type:    s.Type,
		Subtype: s.Subtype,
	}
	if s.Craft != nil && s.Craft.Skill != "" {
		qty := s.Craft.Quantity
		if qty <= 0 {
			qty = 1
		}
		item.Craft = &crafting.CraftRecipe{
			Skill:    s.Craft.Skill,
			Level:    s.Craft.Level,
			Quantity: qty,
			Items:    s.Craft.Items,
		}
	}
	return item
}

// resourceSchema is the API shape of a gatherable resource.
type resourceSchema struct {
	Code  string                  `json:"code"`
	Name  string                  `json:"name"`
	Skill string                  `json:"skill"`
	Level int                     `json:"level"`
	Drops []crafting.ResourceDrop `json:"drops"`
}

func (s resourceSchema) toResource() crafting.Resource {
	return crafting.Resource(s)
}

// mapSchema is the API shape of a map tile.
type mapSchema struct {
	Name    string `json:"name"`
	Skin    string `json:"skin"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Content *struct {
		Type string `json:"type"`
		Code string `json:"code"`
	} `json:"content"`
}

func (s mapSchema) toLocation() crafting.MapLocation {
	loc := crafting.MapLocation{Name: s.Name, Skin: s.Skin, X: s.X, Y: s.Y}
	if s.Content != nil {
		loc.ContentType = s.Content.Type
		loc.ContentCode = s.Content.Code
	}
	return loc
}

// characterSkills are the skills whose levels are reported as <skill>_level.
var characterSkills = []string{
	"mining", "woodcutting", "fishing", "weaponcrafting", "gearcrafting",
	"jewelrycrafting", "cooking", "alchemy",
}

// parseCharacter converts a character's "data" object. Equipment is
// reported as flat <slot>_slot fields and inventory as a slot list.
func parseCharacter(data gjson.Result) *crafting.Character {
	c := &crafting.Character{
		Name:      data.Get("name").String(),
		Level:     int(data.Get("level").Int()),
		X:         int(data.Get("x").Int()),
		Y:         int(data.Get("y").Int()),
		Skills:    make(map[string]int),
		Inventory: make(map[string]int),
		Equipment: make(map[crafting.EquipmentSlot]string),
	}

	for _, skill := range characterSkills {
		if lvl := data.Get(skill + "_level"); lvl.Exists() {
			c.Skills[skill] = int(lvl.Int())
		}
	}

	for _, slot := range crafting.AllSlots() {
		if code := data.Get(string(slot) + "_slot").String(); code != "" {
			c.Equipment[slot] = code
		}
	}

	data.Get("inventory").ForEach(func(_, v gjson.Result) bool {
		code := v.Get("code").String()
		if code != "" {
			c.Inventory[code] += int(v.Get("quantity").Int())
		}
		return true
	})

	return c
}
