package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsned/artifactsmmo-crafting-planner/internal/crafting/db"
	"github.com/rsned/artifactsmmo-crafting-planner/internal/crafting/engine"
	"github.com/rsned/artifactsmmo-crafting-planner/pkg/crafting"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return newTestRouterWithGateway(t, nil)
}

// downGateway fails every call like an unreachable API.
type downGateway struct{}

func (downGateway) GetItem(context.Context, string) (*crafting.Item, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func (downGateway) GetCharacter(context.Context, string) (*crafting.Character, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func newTestRouterWithGateway(t *testing.T, gateway engine.Gateway) http.Handler {
	t.Helper()
	ctx := context.Background()

	database, err := db.OpenAndInit(ctx, filepath.Join(t.TempDir(), "knowledge.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, db.NewItemStore(database).BulkInsertItems(ctx, []crafting.Item{
		{Code: "copper_ore", Level: 1, Type: "resource"},
		{Code: "copper_bar", Level: 1, Type: "resource",
			Craft: &crafting.CraftRecipe{Skill: "mining", Level: 1, Quantity: 1, Items: []crafting.RecipeItem{{Code: "copper_ore", Quantity: 10}}}},
		{Code: "copper_dagger", Level: 1, Type: "weapon",
			Craft: &crafting.CraftRecipe{Skill: "weaponcrafting", Level: 1, Quantity: 1, Items: []crafting.RecipeItem{{Code: "copper_bar", Quantity: 6}}}},
		{Code: "iron_dagger", Level: 10, Type: "weapon",
			Craft: &crafting.CraftRecipe{Skill: "weaponcrafting", Level: 10, Quantity: 1, Items: []crafting.RecipeItem{{Code: "iron_bar", Quantity: 6}}}},
	}))
	require.NoError(t, db.NewWorkshopStore(database).BulkInsertWorkshops(ctx, []crafting.Workshop{
		{Code: "mining", CraftSkill: "mining"},
		{Code: "weaponcrafting", CraftSkill: "weaponcrafting"},
	}))

	return NewRouter(engine.New(db.NewKnowledgeBase(database), gateway), database, "test")
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := do(t, newTestRouter(t), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "test", resp.Version)
}

func TestMetricsExposed(t *testing.T) {
	router := newTestRouter(t)
	do(t, router, http.MethodGet, "/v1/items/copper_bar", "")

	rec := do(t, router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestAnalyze(t *testing.T) {
	rec := do(t, newTestRouter(t), http.MethodPost, "/v1/analyze",
		`{"character_name":"hero","target_item":"copper_dagger","inventory":{"copper_bar":6},"equipment":{}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result crafting.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	require.NotEmpty(t, result.ActionSequence)
	last := result.ActionSequence[len(result.ActionSequence)-1]
	assert.Equal(t, crafting.ActionEquipItem, last.Name)
}

func TestAnalyze_ValidationIsBadRequest(t *testing.T) {
	router := newTestRouter(t)

	for name, body := range map[string]string{
		"no character": `{"target_item":"copper_dagger"}`,
		"no target":    `{"character_name":"hero","target_item":"  "}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/v1/analyze", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var result crafting.AnalysisResult
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
			assert.False(t, result.Success)
			assert.NotEmpty(t, result.Error)
		})
	}
}

func TestAnalyze_MalformedBody(t *testing.T) {
	rec := do(t, newTestRouter(t), http.MethodPost, "/v1/analyze", `{"character_name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyze_UnknownTargetIsUnprocessable(t *testing.T) {
	rec := do(t, newTestRouter(t), http.MethodPost, "/v1/analyze",
		`{"character_name":"hero","target_item":"mystery","inventory":{},"equipment":{}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "could not resolve item mystery")
}

func TestAnalyze_GatewayFailureIsServerError(t *testing.T) {
	rec := do(t, newTestRouterWithGateway(t, downGateway{}), http.MethodPost, "/v1/analyze",
		`{"character_name":"hero","target_item":"copper_dagger"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var result crafting.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "connection refused")
}

func TestItemLookup(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/v1/items/copper_bar", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp crafting.ItemLookupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "mining", resp.WorkshopType)

	rec = do(t, router, http.MethodGet, "/v1/items/mystery", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBillOfMaterials(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/v1/items/copper_dagger/bom?quantity=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var bom crafting.BillOfMaterialsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bom))
	assert.Equal(t, []crafting.BOMItem{{ItemCode: "copper_ore", Quantity: 180}}, bom.RawMaterials)

	rec = do(t, router, http.MethodGet, "/v1/items/copper_dagger/bom?quantity=lots", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMaterialUses(t *testing.T) {
	rec := do(t, newTestRouter(t), http.MethodGet, "/v1/items/copper_bar/uses?skill_level=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp crafting.MaterialUsesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.UsedIn, 1)
	assert.True(t, resp.UsedIn[0].LevelReady)
}

func TestSkillRoutes(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/v1/skills/weaponcrafting/unlocks?level=9", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var unlocks crafting.SkillUnlocksResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &unlocks))
	assert.Equal(t, []string{"iron_dagger"}, unlocks.ItemsUnlocked)

	rec = do(t, router, http.MethodGet, "/v1/skills/weaponcrafting/unlocks?level=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/v1/skills/weaponcrafting/recipes",
		`{"skill_level":1,"inventory":{"copper_bar":12}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var eval crafting.EvaluateRecipesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &eval))
	require.Len(t, eval.Craftable, 1)
	assert.Equal(t, 2, eval.Craftable[0].CanCraftQuantity)
}

func TestKnowledgeStatus(t *testing.T) {
	rec := do(t, newTestRouter(t), http.MethodGet, "/v1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var status db.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, db.SchemaVersion, status.SchemaVersion)
	assert.Equal(t, 4, status.Counts["items"])
	assert.Equal(t, 2, status.Counts["workshops"])
}
