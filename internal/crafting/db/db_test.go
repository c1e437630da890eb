package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsned/artifactsmmo-crafting-planner/pkg/crafting"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := OpenAndInit(context.Background(), filepath.Join(t.TempDir(), "knowledge.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func seedCopper(t *testing.T, database *DB) {
	t.Helper()
	ctx := context.Background()

	items := []crafting.Item{
		{Code: "copper_ore", Name: "Copper Ore", Level: 1, Type: "resource", Subtype: "mining"},
		{Code: "copper_bar", Name: "Copper Bar", Level: 1, Type: "resource", Subtype: "bar",
			Craft: &crafting.CraftRecipe{Skill: "mining", Level: 1, Quantity: 1, Items: []crafting.RecipeItem{{Code: "copper_ore", Quantity: 10}}}},
		{Code: "copper_dagger", Name: "Copper Dagger", Level: 1, Type: "weapon",
			Craft: &crafting.CraftRecipe{Skill: "weaponcrafting", Level: 1, Quantity: 1, Items: []crafting.RecipeItem{{Code: "copper_bar", Quantity: 6}}}},
		{Code: "copper_helmet", Name: "Copper Helmet", Level: 1, Type: "helmet",
			Craft: &crafting.CraftRecipe{Skill: "gearcrafting", Level: 1, Quantity: 1, Items: []crafting.RecipeItem{{Code: "copper_bar", Quantity: 6}}}},
	}
	require.NoError(t, NewItemStore(database).BulkInsertItems(ctx, items))

	resources := []crafting.Resource{
		{Code: "copper_rocks", Name: "Copper Rocks", Skill: "mining", Level: 1,
			Drops: []crafting.ResourceDrop{{Code: "copper_ore", Rate: 1, MinQuantity: 1, MaxQuantity: 1}}},
	}
	require.NoError(t, NewResourceStore(database).BulkInsertResources(ctx, resources))

	workshops := []crafting.Workshop{
		{Code: "weaponcrafting", Name: "Weaponcrafting Workshop", CraftSkill: "weaponcrafting", FacilityType: "workshop"},
		{Code: "old_forge", Name: "Old Forge", CraftSkill: "mining", FacilityType: "workshop", Legacy: true},
	}
	require.NoError(t, NewWorkshopStore(database).BulkInsertWorkshops(ctx, workshops))

	tiles := []crafting.MapLocation{
		{Name: "Mine", X: 2, Y: 0, ContentType: "resource", ContentCode: "copper_rocks"},
		{Name: "Mine", X: 5, Y: -1, ContentType: "resource", ContentCode: "copper_rocks"},
		{Name: "City", X: 2, Y: 1, ContentType: "workshop", ContentCode: "weaponcrafting"},
	}
	require.NoError(t, NewMapStore(database).BulkInsertTiles(ctx, tiles))
}

func TestItemStore_RoundTripKeepsRecipeOrder(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	store := NewItemStore(database)

	require.NoError(t, store.BulkInsertItems(ctx, []crafting.Item{{
		Code: "iron_sword", Type: "weapon", Level: 10,
		Craft: &crafting.CraftRecipe{Skill: "weaponcrafting", Level: 10, Items: []crafting.RecipeItem{
			{Code: "iron_bar", Quantity: 6},
			{Code: "feather", Quantity: 2},
			{Code: "ash_plank", Quantity: 1},
		}},
	}}))

	item, err := store.GetItem(ctx, "iron_sword")
	require.NoError(t, err)
	require.NotNil(t, item)
	require.True(t, item.HasRecipe())
	assert.Equal(t, "weaponcrafting", item.Craft.Skill)
	assert.Equal(t, 1, item.Craft.Quantity, "missing craft quantity defaults to one")
	assert.Equal(t, []crafting.RecipeItem{
		{Code: "iron_bar", Quantity: 6},
		{Code: "feather", Quantity: 2},
		{Code: "ash_plank", Quantity: 1},
	}, item.Craft.Items)
}

func TestItemStore_ReinsertReplacesComponents(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	store := NewItemStore(database)

	first := crafting.Item{Code: "x", Craft: &crafting.CraftRecipe{Skill: "cooking", Items: []crafting.RecipeItem{{Code: "a", Quantity: 1}, {Code: "b", Quantity: 2}}}}
	second := crafting.Item{Code: "x", Craft: &crafting.CraftRecipe{Skill: "cooking", Items: []crafting.RecipeItem{{Code: "c", Quantity: 3}}}}
	require.NoError(t, store.BulkInsertItems(ctx, []crafting.Item{first}))
	require.NoError(t, store.BulkInsertItems(ctx, []crafting.Item{second}))

	item, err := store.GetItem(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, []crafting.RecipeItem{{Code: "c", Quantity: 3}}, item.Craft.Items)
}

func TestItemStore_UnknownItemIsNil(t *testing.T) {
	database := openTestDB(t)

	item, err := NewItemStore(database).GetItem(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestKnowledgeBase_Queries(t *testing.T) {
	database := openTestDB(t)
	seedCopper(t, database)
	ctx := context.Background()
	kb := NewKnowledgeBase(database)

	ore, err := kb.Item(ctx, "copper_ore")
	require.NoError(t, err)
	require.NotNil(t, ore)
	assert.False(t, ore.HasRecipe())

	users, err := kb.ItemsUsing(ctx, "copper_bar")
	require.NoError(t, err)
	assert.Equal(t, []string{"copper_dagger", "copper_helmet"}, users)

	bySkill, err := kb.ItemsBySkill(ctx, "WeaponCrafting")
	require.NoError(t, err)
	require.Len(t, bySkill, 1)
	assert.Equal(t, "copper_dagger", bySkill[0].Code)
	assert.Equal(t, 6, bySkill[0].Craft.QuantityOf("copper_bar"))

	res, err := kb.ResourcesDropping(ctx, "copper_ore")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "copper_rocks", res[0].Code)
	assert.Equal(t, "mining", res[0].Skill)

	workshops, err := kb.Workshops(ctx)
	require.NoError(t, err)
	require.Len(t, workshops, 1)
	assert.Equal(t, "weaponcrafting", workshops[0].Code)

	facilities, err := kb.Facilities(ctx)
	require.NoError(t, err)
	require.Len(t, facilities, 1)
	assert.True(t, facilities[0].Legacy)

	locs, err := kb.Locations(ctx, "copper_rocks")
	require.NoError(t, err)
	assert.Len(t, locs, 2)
}

func TestDB_SyncMetadataAndCounts(t *testing.T) {
	database := openTestDB(t)
	seedCopper(t, database)
	ctx := context.Background()

	v, err := database.GetSyncMetadata(ctx, "items_last_sync")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, database.SetSyncMetadata(ctx, "items_last_sync", "2026-01-01T00:00:00Z"))
	require.NoError(t, database.SetSyncMetadata(ctx, "items_last_sync", "2026-01-02T00:00:00Z"))
	v, err = database.GetSyncMetadata(ctx, "items_last_sync")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-02T00:00:00Z", v)

	counts, err := database.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"items": 4, "resources": 1, "workshops": 2, "map_tiles": 3}, counts)
}

func TestClearResourcesCascadesDrops(t *testing.T) {
	database := openTestDB(t)
	seedCopper(t, database)
	ctx := context.Background()

	require.NoError(t, NewResourceStore(database).ClearResources(ctx))

	res, err := NewKnowledgeBase(database).ResourcesDropping(ctx, "copper_ore")
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestDB_Status(t *testing.T) {
	database := openTestDB(t)
	seedCopper(t, database)
	ctx := context.Background()

	require.NoError(t, database.SetSyncMetadata(ctx, "items_last_sync", "2026-01-02T00:00:00Z"))
	require.NoError(t, database.SetSyncMetadata(ctx, "items_count", "4"))

	status, err := database.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, status.SchemaVersion)
	assert.Equal(t, 4, status.Counts["items"])
	assert.Equal(t, map[string]string{"items": "2026-01-02T00:00:00Z"}, status.LastSync)
}

func TestInitSchema_RebuildsOutdatedKnowledgeBase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge.db")
	ctx := context.Background()

	database, err := OpenAndInit(ctx, path)
	require.NoError(t, err)
	seedCopper(t, database)
	require.NoError(t, database.SetSyncMetadata(ctx, schemaVersionKey, "0"))
	require.NoError(t, database.Close())

	// Version 0 reads as a fresh database, so nothing is dropped.
	database, err = OpenAndInit(ctx, path)
	require.NoError(t, err)
	counts, err := database.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, counts["items"])

	require.NoError(t, database.SetSyncMetadata(ctx, schemaVersionKey, "999"))
	require.NoError(t, database.Close())

	database, err = OpenAndInit(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	counts, err = database.Counts(ctx)
	require.NoError(t, err)
	assert.Zero(t, counts["items"])

	v, err := database.GetSyncMetadata(ctx, schemaVersionKey)
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}
