package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsned/artifactsmmo-crafting-planner/internal/logger"
	"github.com/rsned/artifactsmmo-crafting-planner/pkg/crafting"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, cacheSize int) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL, Token: "secret", CacheSize: cacheSize, CacheTTL: time.Minute})
}

const copperBarJSON = `{"data": {
	"name": "Copper Bar", "code": "copper_bar", "level": 1, "type": "resource", "subtype": "bar",
	"craft": {"skill": "mining", "level": 1, "items": [{"code": "copper_ore", "quantity": 10}], "quantity": 1}
}}`

func TestGetItem_DecodesAndSendsToken(t *testing.T) {
	var auth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.Equal(t, "/items/copper_bar", r.URL.Path)
		_, _ = fmt.Fprint(w, copperBarJSON)
	}, 0)

	item, err := c.GetItem(context.Background(), "copper_bar")
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "resource", item.Type)
	require.True(t, item.HasRecipe())
	assert.Equal(t, "mining", item.Craft.Skill)
	assert.Equal(t, []crafting.RecipeItem{{Code: "copper_ore", Quantity: 10}}, item.Craft.Items)
}

func TestGetItem_NoCraftIsBaseItem(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"data": {"code": "copper_ore", "type": "resource", "craft": null}}`)
	}, 0)

	item, err := c.GetItem(context.Background(), "copper_ore")
	require.NoError(t, err)
	assert.False(t, item.HasRecipe())
}

func TestGetItem_CacheAvoidsSecondRequest(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = fmt.Fprint(w, copperBarJSON)
	}, 16)

	for i := 0; i < 3; i++ {
		_, err := c.GetItem(context.Background(), "copper_bar")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetItem_CachedItemIsNotShared(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, copperBarJSON)
	}, 16)
	ctx := context.Background()

	first, err := c.GetItem(ctx, "copper_bar")
	require.NoError(t, err)
	first.Type = "junk"
	first.Craft.Items[0].Quantity = 99

	second, err := c.GetItem(ctx, "copper_bar")
	require.NoError(t, err)
	second.Craft.Skill = "cooking"

	third, err := c.GetItem(ctx, "copper_bar")
	require.NoError(t, err)
	assert.Equal(t, "resource", third.Type)
	assert.Equal(t, "mining", third.Craft.Skill)
	assert.Equal(t, 10, third.Craft.Items[0].Quantity)
}

func TestListMaps_LogsWithRunID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"data": [], "page": 1, "pages": 1}`)
	}, 0)

	_, err := c.ListMaps(logger.WithRunID(context.Background(), "run-42"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "fetched page")
	assert.Contains(t, buf.String(), "run_id=run-42")
}

func TestGetItem_NotFound(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = fmt.Fprint(w, `{"error": {"code": 404, "message": "Item not found."}}`)
	}, 16)

	_, err := c.GetItem(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = c.GetItem(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), calls.Load(), "misses are cached too")
}

func TestGet_ErrorBodyParsed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = fmt.Fprint(w, `{"error": {"code": 429, "message": "Too many requests."}}`)
	}, 0)

	_, err := c.GetItem(context.Background(), "copper_bar")
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	assert.Equal(t, 429, apiErr.Code)
	assert.Equal(t, "Too many requests.", apiErr.Message)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestGetCharacter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/characters/hero", r.URL.Path)
		_, _ = fmt.Fprint(w, `{"data": {
			"name": "hero", "level": 7, "x": 1, "y": 2,
			"mining_level": 5, "weaponcrafting_level": 3,
			"weapon_slot": "wooden_stick", "helmet_slot": "", "ring1_slot": "copper_ring",
			"inventory": [
				{"slot": 1, "code": "copper_ore", "quantity": 12},
				{"slot": 2, "code": "", "quantity": 0},
				{"slot": 3, "code": "copper_ore", "quantity": 3}
			]
		}}`)
	}, 0)

	ch, err := c.GetCharacter(context.Background(), "hero")
	require.NoError(t, err)
	assert.Equal(t, 7, ch.Level)
	assert.Equal(t, map[string]int{"copper_ore": 15}, ch.Inventory)
	assert.Equal(t, map[crafting.EquipmentSlot]string{
		crafting.SlotWeapon: "wooden_stick",
		crafting.SlotRing1:  "copper_ring",
	}, ch.Equipment)
	assert.Equal(t, 5, ch.Skills["mining"])
	assert.Equal(t, 3, ch.Skills["weaponcrafting"])
}

func TestListMaps_FollowsPages(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("size"))
		switch r.URL.Query().Get("page") {
		case "1":
			_, _ = fmt.Fprint(w, `{"data": [{"name": "Mine", "x": 2, "y": 0, "content": {"type": "resource", "code": "copper_rocks"}}], "page": 1, "pages": 2}`)
		case "2":
			_, _ = fmt.Fprint(w, `{"data": [{"name": "Field", "x": 0, "y": 0, "content": null}], "page": 2, "pages": 2}`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}, 0)

	tiles, err := c.ListMaps(context.Background())
	require.NoError(t, err)
	require.Len(t, tiles, 2)
	assert.Equal(t, "copper_rocks", tiles[0].ContentCode)
	assert.Empty(t, tiles[1].ContentType)
}

func TestListResources(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"data": [{"code": "copper_rocks", "skill": "mining", "level": 1,
			"drops": [{"code": "copper_ore", "rate": 1, "min_quantity": 1, "max_quantity": 1}]}], "pages": 1}`)
	}, 0)

	res, err := c.ListResources(context.Background())
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "copper_ore", res[0].Drops[0].Code)
}
