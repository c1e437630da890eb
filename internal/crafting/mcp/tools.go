package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rsned/artifactsmmo-crafting-planner/internal/crafting/engine"
	"github.com/rsned/artifactsmmo-crafting-planner/pkg/crafting"
)

// ToolDefinition describes an MCP tool.
type ToolDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	InputSchema JSONSchema `json:"inputSchema"`
}

// JSONSchema is the subset of JSON Schema used for tool inputs.
type JSONSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes one input field.
type Property struct {
	Type                 string    `json:"type,omitempty"`
	Description          string    `json:"description,omitempty"`
	Default              any       `json:"default,omitempty"`
	Enum                 []string  `json:"enum,omitempty"`
	Minimum              *float64  `json:"minimum,omitempty"`
	Maximum              *float64  `json:"maximum,omitempty"`
	AdditionalProperties *Property `json:"additionalProperties,omitempty"`
}

func ptr(f float64) *float64 { return &f }

func str(desc string) Property { return Property{Type: "string", Description: desc} }

func integer(desc string) Property { return Property{Type: "integer", Description: desc} }

func quantities(desc string) Property {
	return Property{Type: "object", Description: desc, AdditionalProperties: &Property{Type: "integer"}}
}

// tool binds a definition to the engine call that serves it.
type tool struct {
	def  ToolDefinition
	call func(ctx context.Context, args json.RawMessage) (any, error)
}

// bind decodes the arguments into Req before calling fn.
func bind[Req any, Resp any](fn func(context.Context, Req) (Resp, error)) func(context.Context, json.RawMessage) (any, error) {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		var req Req
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		return fn(ctx, req)
	}
}

type registry struct {
	order []string
	tools map[string]tool
}

func (r *registry) add(t tool) {
	r.order = append(r.order, t.def.Name)
	r.tools[t.def.Name] = t
}

func (r *registry) definitions() []ToolDefinition {
	defs := make([]ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].def)
	}
	return defs
}

func (r *registry) call(ctx context.Context, name string, args json.RawMessage) (any, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
	return t.call(ctx, args)
}

// newRegistry lists the planner tools in the order tools/list reports them.
func newRegistry(eng *engine.Engine) *registry {
	r := &registry{tools: make(map[string]tool)}

	slots := make([]string, 0, len(crafting.AllSlots()))
	for _, s := range crafting.AllSlots() {
		slots = append(slots, string(s))
	}

	r.add(tool{
		def: ToolDefinition{
			Name:        "analyze_crafting_chain",
			Description: "Resolve the full crafting chain of an item and build the ordered action sequence (gather, transform, craft, equip) that produces it from the character's current state.",
			InputSchema: JSONSchema{
				Type: "object",
				Properties: map[string]Property{
					"character_name": str("Character the plan is built for"),
					"target_item":    str("Item code to produce"),
					"inventory":      quantities("Inventory snapshot (item code -> quantity). Fetched from the API when omitted."),
					"equipment": {
						Type:                 "object",
						Description:          "Equipment snapshot (slot -> item code). Slots: " + strings.Join(slots, ", "),
						AdditionalProperties: &Property{Type: "string"},
					},
				},
				Required: []string{"character_name", "target_item"},
			},
		},
		call: bind(func(ctx context.Context, req crafting.AnalyzeRequest) (*crafting.AnalysisResult, error) {
			return eng.AnalyzeCraftingChain(ctx, req), nil
		}),
	})

	r.add(tool{
		def: ToolDefinition{
			Name:        "item_lookup",
			Description: "Look up an item by code. Returns its recipe, the workshop it is crafted at, the recipes that use it and the resources that drop it.",
			InputSchema: JSONSchema{
				Type:       "object",
				Properties: map[string]Property{"code": str("Item code")},
				Required:   []string{"code"},
			},
		},
		call: bind(eng.ItemLookup),
	})

	r.add(tool{
		def: ToolDefinition{
			Name:        "evaluate_recipes",
			Description: "Score every recipe of a crafting skill against an inventory. Returns fully craftable recipes and partial matches, best first.",
			InputSchema: JSONSchema{
				Type: "object",
				Properties: map[string]Property{
					"skill":       str("Crafting skill (e.g. weaponcrafting, cooking)"),
					"skill_level": integer("Current level in the skill"),
					"inventory":   quantities("Items on hand (item code -> quantity)"),
					"limit": {
						Type:        "integer",
						Description: "Max results per section",
						Default:     20,
						Minimum:     ptr(1),
						Maximum:     ptr(100),
					},
				},
				Required: []string{"skill", "skill_level"},
			},
		},
		call: bind(eng.EvaluateRecipes),
	})

	r.add(tool{
		def: ToolDefinition{
			Name:        "material_uses",
			Description: "Find all recipes that consume a material. Useful when a new item lands in the inventory.",
			InputSchema: JSONSchema{
				Type: "object",
				Properties: map[string]Property{
					"code":        str("Material item code"),
					"skill_level": integer("Level used to flag recipes as ready"),
				},
				Required: []string{"code"},
			},
		},
		call: bind(eng.MaterialUses),
	})

	r.add(tool{
		def: ToolDefinition{
			Name:        "skill_unlocks",
			Description: "List the recipes a crafting skill unlocks at the next level.",
			InputSchema: JSONSchema{
				Type: "object",
				Properties: map[string]Property{
					"skill":         str("Crafting skill"),
					"current_level": {Type: "integer", Description: "Current level in the skill", Minimum: ptr(0)},
				},
				Required: []string{"skill", "current_level"},
			},
		},
		call: bind(eng.SkillUnlocks),
	})

	r.add(tool{
		def: ToolDefinition{
			Name:        "bill_of_materials",
			Description: "Calculate the complete recursive bill of materials for an item. Returns raw materials, workshop steps in dependency order and the workshops visited.",
			InputSchema: JSONSchema{
				Type: "object",
				Properties: map[string]Property{
					"code":     str("Item code to calculate the BOM for"),
					"quantity": {Type: "integer", Description: "How many to produce", Default: 1, Minimum: ptr(1)},
				},
				Required: []string{"code"},
			},
		},
		call: bind(eng.BillOfMaterials),
	})

	return r
}
