// Package crafting contains the core types for the ArtifactsMMO crafting planner.
package crafting

import "strings"

// ============================================
// CATALOG TYPES
// ============================================

// Item is the canonical item record. Knowledge base rows and API responses
// are both normalized into this shape right after lookup.
type Item struct {
	Code    string       `json:"code"`
	Name    string       `json:"name,omitempty"`
	Level   int          `json:"level"`
	Type    string       `json:"type,omitempty"`
	Subtype string       `json:"subtype,omitempty"`
	Craft   *CraftRecipe `json:"craft,omitempty"`
}

// HasRecipe reports whether the item can be produced at a workshop.
func (i *Item) HasRecipe() bool {
	return i != nil && i.Craft != nil && len(i.Craft.Items) > 0
}

// Clone returns a copy of i that shares no recipe storage with it.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	c := *i
	if i.Craft != nil {
		craft := *i.Craft
		craft.Items = append([]RecipeItem(nil), i.Craft.Items...)
		c.Craft = &craft
	}
	return &c
}

// CraftRecipe describes how an item is produced.
type CraftRecipe struct {
	Skill    string       `json:"skill"`
	Level    int          `json:"level"`
	Quantity int          `json:"quantity"` // units produced per craft
	Items    []RecipeItem `json:"items"`
}

// RecipeItem is one input of a recipe.
type RecipeItem struct {
	Code     string `json:"code"`
	Quantity int    `json:"quantity"`
}

// QuantityOf returns how many units of code one craft consumes.
func (r *CraftRecipe) QuantityOf(code string) int {
	if r == nil {
		return 0
	}
	for _, it := range r.Items {
		if it.Code == code {
			return it.Quantity
		}
	}
	return 0
}

// Resource is a gatherable map resource (a tree, a rock, a fishing spot).
type Resource struct {
	Code  string         `json:"code"`
	Name  string         `json:"name,omitempty"`
	Skill string         `json:"skill"`
	Level int            `json:"level"`
	Drops []ResourceDrop `json:"drops,omitempty"`
}

// ResourceDrop is an item obtainable by gathering a resource.
type ResourceDrop struct {
	Code        string `json:"code"`
	Rate        int    `json:"rate,omitempty"`
	MinQuantity int    `json:"min_quantity,omitempty"`
	MaxQuantity int    `json:"max_quantity,omitempty"`
}

// Workshop is a crafting facility. Legacy entries come from the old
// "facilities" section of the knowledge base.
type Workshop struct {
	Code         string `json:"code"`
	Name         string `json:"name,omitempty"`
	CraftSkill   string `json:"craft_skill"`
	FacilityType string `json:"facility_type"`
	Legacy       bool   `json:"legacy,omitempty"`
}

// FacilityTypeWorkshop is the facility type of crafting workshops.
const FacilityTypeWorkshop = "workshop"

// MapLocation is a map tile with optional content.
type MapLocation struct {
	Name        string `json:"name,omitempty"`
	Skin        string `json:"skin,omitempty"`
	X           int    `json:"x"`
	Y           int    `json:"y"`
	ContentType string `json:"content_type,omitempty"`
	ContentCode string `json:"content_code,omitempty"`
}

// ============================================
// CHARACTER TYPES
// ============================================

// EquipmentSlot names a character equipment slot.
type EquipmentSlot string

const (
	SlotWeapon    EquipmentSlot = "weapon"
	SlotShield    EquipmentSlot = "shield"
	SlotHelmet    EquipmentSlot = "helmet"
	SlotBodyArmor EquipmentSlot = "body_armor"
	SlotLegArmor  EquipmentSlot = "leg_armor"
	SlotBoots     EquipmentSlot = "boots"
	SlotRing1     EquipmentSlot = "ring1"
	SlotRing2     EquipmentSlot = "ring2"
	SlotAmulet    EquipmentSlot = "amulet"
	SlotArtifact1 EquipmentSlot = "artifact1"
	SlotArtifact2 EquipmentSlot = "artifact2"
	SlotArtifact3 EquipmentSlot = "artifact3"
)

// AllSlots returns every equipment slot in display order.
func AllSlots() []EquipmentSlot {
	return []EquipmentSlot{
		SlotWeapon, SlotShield, SlotHelmet, SlotBodyArmor, SlotLegArmor, SlotBoots,
		SlotRing1, SlotRing2, SlotAmulet, SlotArtifact1, SlotArtifact2, SlotArtifact3,
	}
}

// SlotForItemType maps an item type to the slot it is equipped in.
// Rings and artifacts default to their first slot.
func SlotForItemType(itemType string) (EquipmentSlot, bool) {
	switch strings.ToLower(strings.TrimSpace(itemType)) {
	case "weapon":
		return SlotWeapon, true
	case "shield":
		return SlotShield, true
	case "helmet":
		return SlotHelmet, true
	case "body_armor":
		return SlotBodyArmor, true
	case "leg_armor":
		return SlotLegArmor, true
	case "boots":
		return SlotBoots, true
	case "ring":
		return SlotRing1, true
	case "amulet":
		return SlotAmulet, true
	case "artifact":
		return SlotArtifact1, true
	default:
		return "", false
	}
}

// Character is a snapshot of a player character.
type Character struct {
	Name      string                   `json:"name"`
	Level     int                      `json:"level"`
	X         int                      `json:"x"`
	Y         int                      `json:"y"`
	Skills    map[string]int           `json:"skills,omitempty"`
	Inventory map[string]int           `json:"inventory,omitempty"`
	Equipment map[EquipmentSlot]string `json:"equipment,omitempty"`
}

// ============================================
// CHAIN TYPES
// ============================================

// NodeKind classifies a node of a resolved crafting chain.
type NodeKind string

const (
	KindCraftable       NodeKind = "craftable"
	KindTransformable   NodeKind = "transformable_resource"
	KindBaseResource    NodeKind = "base_resource"
	KindAlreadyAnalyzed NodeKind = "already_analyzed"
)

// DataSource records where an item's data came from.
type DataSource string

const (
	SourceKnowledgeBase DataSource = "knowledge_base"
	SourceAPI           DataSource = "api"
)

// ChainNode is a node of the resolved dependency tree for an item.
type ChainNode struct {
	ItemCode string     `json:"item_code"`
	Kind     NodeKind   `json:"type"`
	Source   DataSource `json:"source,omitempty"`
	ItemType string     `json:"item_type,omitempty"`

	// craftable
	CraftSkill           string             `json:"craft_skill,omitempty"`
	WorkshopType         string             `json:"workshop_type,omitempty"`
	LevelRequired        int                `json:"level_required,omitempty"`
	RequiredMaterials    []RequiredMaterial `json:"required_materials,omitempty"`
	TotalMaterialsNeeded map[string]int     `json:"total_materials_needed,omitempty"`
	Unresolved           []RecipeItem       `json:"unresolved_materials,omitempty"`

	// transformable_resource
	RawMaterial    string `json:"raw_material,omitempty"`
	TransformRatio int    `json:"transformation_ratio,omitempty"`

	// transformable_resource and base_resource
	Gathering *GatheringInfo `json:"gathering_info,omitempty"`
}

// RequiredMaterial is one resolved input of a craftable node.
type RequiredMaterial struct {
	Code     string     `json:"material_code"`
	Quantity int        `json:"quantity"`
	Node     *ChainNode `json:"chain"`
}

// GatheringInfo describes where and how a resource is gathered.
type GatheringInfo struct {
	ResourceCode   string        `json:"resource_code"`
	KnownLocations []MapLocation `json:"known_locations"`
	SkillRequired  string        `json:"skill_required,omitempty"`
	LevelRequired  int           `json:"level_required,omitempty"`
}

// ============================================
// ACTION TYPES
// ============================================

// ActionName names a primitive game action understood by the executor.
type ActionName string

const (
	ActionFindResources     ActionName = "find_resources"
	ActionMove              ActionName = "move"
	ActionGatherResources   ActionName = "gather_resources"
	ActionFindWorkshop      ActionName = "find_correct_workshop"
	ActionTransformMaterial ActionName = "transform_raw_materials"
	ActionCraftItem         ActionName = "craft_item"
	ActionEquipItem         ActionName = "equip_item"
	ActionUnequipItem       ActionName = "unequip_item"
)

// PlannedAction is one step of an action sequence.
type PlannedAction struct {
	Name        ActionName     `json:"name"`
	Params      map[string]any `json:"params"`
	Description string         `json:"description"`
}

// MaterialGap is a material shortage the builder could not source.
type MaterialGap struct {
	ItemCode string `json:"item_code"`
	Shortage int    `json:"shortage"`
	Reason   string `json:"reason"`
}

// ============================================
// ANALYSIS TYPES
// ============================================

// AnalyzeRequest is the input of a crafting chain analysis.
type AnalyzeRequest struct {
	CharacterName string `json:"character_name" validate:"required"`
	TargetItem    string `json:"target_item" validate:"required"`

	// Optional snapshots. When nil the character is fetched from the API.
	Inventory map[string]int           `json:"inventory,omitempty"`
	Equipment map[EquipmentSlot]string `json:"equipment,omitempty"`
}

// AnalysisResult is the payload returned to the planner.
type AnalysisResult struct {
	Success               bool            `json:"success"`
	Error                 string          `json:"error,omitempty"`
	TargetItem            string          `json:"target_item,omitempty"`
	ChainAnalysis         *ChainNode      `json:"chain_analysis,omitempty"`
	ActionSequence        []PlannedAction `json:"action_sequence,omitempty"`
	ResourceNodesRequired []string        `json:"resource_nodes_required,omitempty"`
	WorkshopsRequired     []string        `json:"workshops_required,omitempty"`
	TotalSteps            int             `json:"total_steps"`
	RawMaterialsNeeded    map[string]int  `json:"raw_materials_needed,omitempty"`
	Gaps                  []MaterialGap   `json:"gaps,omitempty"`

	// Outcome classifies the run for callers that map it onto their own
	// status codes. It is not part of the wire format.
	Outcome AnalysisOutcome `json:"-"`
}

// AnalysisOutcome tells why an analysis succeeded or failed.
type AnalysisOutcome string

const (
	OutcomeSuccess    AnalysisOutcome = "success"
	OutcomeInvalid    AnalysisOutcome = "invalid"
	OutcomeUnresolved AnalysisOutcome = "unresolved"
	OutcomeFailed     AnalysisOutcome = "failed"
)

// ErrorResult builds a failed analysis result.
func ErrorResult(msg string) *AnalysisResult {
	return &AnalysisResult{Success: false, Error: msg, Outcome: OutcomeFailed}
}

// ============================================
// QUERY TYPES
// ============================================

// ItemLookupRequest is the input of an item lookup.
type ItemLookupRequest struct {
	Code string `json:"code" validate:"required"`
}

// ItemLookupResponse describes an item and where it is used.
type ItemLookupResponse struct {
	Item         *Item      `json:"item,omitempty"`
	Source       DataSource `json:"source,omitempty"`
	WorkshopType string     `json:"workshop_type,omitempty"`
	UsedIn       []string   `json:"used_in,omitempty"`
	DroppedBy    []string   `json:"dropped_by,omitempty"`
}

// EvaluateRecipesRequest asks which recipes of a skill are worth crafting.
type EvaluateRecipesRequest struct {
	Skill      string         `json:"skill" validate:"required"`
	SkillLevel int            `json:"skill_level" validate:"gte=0"`
	Inventory  map[string]int `json:"inventory,omitempty"`
	Limit      int            `json:"limit,omitempty"`
}

// RecipeEvaluation scores one recipe against an inventory.
type RecipeEvaluation struct {
	Item             Item         `json:"item"`
	MaterialsHave    []RecipeItem `json:"materials_have,omitempty"`
	MaterialsMissing []RecipeItem `json:"materials_missing,omitempty"`
	MatchRatio       float64      `json:"match_ratio"`
	CanCraftQuantity int          `json:"can_craft_quantity"`
}

// EvaluateRecipesResponse lists evaluated recipes, best first.
type EvaluateRecipesResponse struct {
	Skill       string             `json:"skill"`
	Craftable   []RecipeEvaluation `json:"craftable"`
	Partial     []RecipeEvaluation `json:"partial"`
	TotalScored int                `json:"total_scored"`
}

// MaterialUsesRequest asks which recipes consume a material.
type MaterialUsesRequest struct {
	Code       string `json:"code" validate:"required"`
	SkillLevel int    `json:"skill_level,omitempty"`
}

// MaterialUse is one recipe that consumes a material.
type MaterialUse struct {
	Item             Item `json:"item"`
	QuantityPerCraft int  `json:"quantity_per_craft"`
	LevelReady       bool `json:"level_ready"`
}

// MaterialUsesResponse lists the recipes consuming a material.
type MaterialUsesResponse struct {
	Code      string        `json:"code"`
	UsedIn    []MaterialUse `json:"used_in"`
	TotalUses int           `json:"total_uses"`
}

// SkillUnlocksRequest asks what the next skill level unlocks.
type SkillUnlocksRequest struct {
	Skill        string `json:"skill" validate:"required"`
	CurrentLevel int    `json:"current_level" validate:"gte=0"`
}

// SkillUnlocksResponse lists items unlocked at the next level.
type SkillUnlocksResponse struct {
	Skill         string   `json:"skill"`
	NextLevel     int      `json:"next_level"`
	ItemsUnlocked []string `json:"items_unlocked"`
	ItemsLocked   int      `json:"items_locked"`
}

// BillOfMaterialsRequest asks for the full material breakdown of an item.
type BillOfMaterialsRequest struct {
	Code     string `json:"code" validate:"required"`
	Quantity int    `json:"quantity,omitempty"`
}

// BOMItem is a raw material and its total quantity.
type BOMItem struct {
	ItemCode string `json:"item_code"`
	Quantity int    `json:"quantity"`
}

// BOMCraftStep is one workshop step, deepest dependencies first.
type BOMCraftStep struct {
	StepNumber   int      `json:"step_number"`
	ItemCode     string   `json:"item_code"`
	Kind         NodeKind `json:"type"`
	WorkshopType string   `json:"workshop_type"`
	CraftRuns    int      `json:"craft_runs"`
	Produced     int      `json:"produced"`
}

// BillOfMaterialsResponse is the recursive breakdown of an item.
type BillOfMaterialsResponse struct {
	ItemCode     string         `json:"item_code"`
	Quantity     int            `json:"quantity"`
	RawMaterials []BOMItem      `json:"raw_materials"`
	CraftSteps   []BOMCraftStep `json:"craft_steps"`
	Workshops    []string       `json:"workshops"`
}
