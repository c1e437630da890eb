package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/rsned/artifactsmmo-crafting-planner/internal/crafting/engine"
	"github.com/rsned/artifactsmmo-crafting-planner/internal/logger"
	"github.com/rsned/artifactsmmo-crafting-planner/pkg/crafting"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type handlers struct {
	engine  *engine.Engine
	status  StatusSource
	version string
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: h.version})
}

func (h *handlers) knowledgeStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.status.Status(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// analyze runs a full crafting chain analysis. Missing request fields are a
// 400 and a target that cannot be resolved is a 422. Other failures, such as
// an unreachable API, are a 500. Every status carries the analysis result.
func (h *handlers) analyze(w http.ResponseWriter, r *http.Request) {
	var req crafting.AnalyzeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result := h.engine.AnalyzeCraftingChain(r.Context(), req)
	respondJSON(w, analysisStatus(result.Outcome), result)
}

func analysisStatus(outcome crafting.AnalysisOutcome) int {
	switch outcome {
	case crafting.OutcomeSuccess:
		return http.StatusOK
	case crafting.OutcomeInvalid:
		return http.StatusBadRequest
	case crafting.OutcomeUnresolved:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *handlers) itemLookup(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	resp, err := h.engine.ItemLookup(r.Context(), crafting.ItemLookupRequest{Code: code})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if resp.Item == nil {
		respondError(w, http.StatusNotFound, fmt.Sprintf("item %s not found", code))
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *handlers) materialUses(w http.ResponseWriter, r *http.Request) {
	level, ok := intQuery(w, r, "skill_level", 0)
	if !ok {
		return
	}
	resp, err := h.engine.MaterialUses(r.Context(), crafting.MaterialUsesRequest{
		Code:       chi.URLParam(r, "code"),
		SkillLevel: level,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *handlers) billOfMaterials(w http.ResponseWriter, r *http.Request) {
	qty, ok := intQuery(w, r, "quantity", 1)
	if !ok {
		return
	}
	resp, err := h.engine.BillOfMaterials(r.Context(), crafting.BillOfMaterialsRequest{
		Code:     chi.URLParam(r, "code"),
		Quantity: qty,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// evaluateRecipes scores a skill's recipes against the inventory posted in
// the body.
func (h *handlers) evaluateRecipes(w http.ResponseWriter, r *http.Request) {
	var req crafting.EvaluateRecipesRequest
	if r.ContentLength != 0 {
		if !decodeBody(w, r, &req) {
			return
		}
	}
	req.Skill = chi.URLParam(r, "skill")

	resp, err := h.engine.EvaluateRecipes(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *handlers) skillUnlocks(w http.ResponseWriter, r *http.Request) {
	level, ok := intQuery(w, r, "level", 0)
	if !ok {
		return
	}
	resp, err := h.engine.SkillUnlocks(r.Context(), crafting.SkillUnlocksRequest{
		Skill:        chi.URLParam(r, "skill"),
		CurrentLevel: level,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// decodeBody decodes a bounded JSON body into v, answering 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// intQuery reads an integer query parameter, answering 400 when malformed.
func intQuery(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s: %q", name, raw))
		return 0, false
	}
	return v, true
}

func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s (%s)", verrs[0].Field(), verrs[0].Tag()))
		return
	}
	logger.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
	respondError(w, http.StatusInternalServerError, "Something went wrong")
}

// respondJSON sends a JSON response with the given status code and payload.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}
