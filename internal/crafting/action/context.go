// Package action exposes crafting chain analysis as a GOAP action.
package action

import (
	"maps"
	"sync"

	"github.com/rsned/artifactsmmo-crafting-planner/pkg/crafting"
)

// WorldState is a set of GOAP state flags.
type WorldState map[string]any

// ActionContext is the per-execution context handed to an action by the
// GOAP executor.
type ActionContext struct {
	CharacterName string

	// Inventory and Equipment are snapshots of the character, when the
	// executor has them. Nil means unknown.
	Inventory map[string]int
	Equipment map[crafting.EquipmentSlot]string

	mu     sync.RWMutex
	values map[string]any
}

// NewActionContext creates a context for characterName.
func NewActionContext(characterName string) *ActionContext {
	return &ActionContext{
		CharacterName: characterName,
		values:        make(map[string]any),
	}
}

// Get returns the value stored under key, or def if there is none.
func (c *ActionContext) Get(key string, def any) any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := c.values[key]; ok {
		return v
	}
	return def
}

// GetString returns the string stored under key, or "" if absent or not a string.
func (c *ActionContext) GetString(key string) string {
	s, _ := c.Get(key, "").(string)
	return s
}

// Set stores value under key.
func (c *ActionContext) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.values == nil {
		c.values = make(map[string]any)
	}
	c.values[key] = value
}

// CharacterInventory returns a copy of the inventory snapshot, or nil when
// the executor did not provide one.
func (c *ActionContext) CharacterInventory() map[string]int {
	if c.Inventory == nil {
		return nil
	}
	return maps.Clone(c.Inventory)
}
