package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/govmapmy/govgraph"
	"github.com/govmapmy/govgraph/catalogue"
	"github.com/govmapmy/govgraph/semantic"
)

type handler struct {
	engine *govgraph.Engine
}

func newHandler(e *govgraph.Engine) *handler {
	return &handler{engine: e}
}

// GET /entities?name=
func (h *handler) handleFindEntities(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	hits, err := h.engine.Queries().FindEntities(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "entity search failed")
		slog.Error("entity search error", "name", name, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entities": hits})
}

// GET /entities/{id}/hierarchy
func (h *handler) handleHierarchy(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	tree, err := h.engine.Queries().Hierarchy(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "hierarchy lookup failed")
		slog.Error("hierarchy error", "entity_id", id, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

// GET /entities/{id}/people
func (h *handler) handlePeople(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	people, err := h.engine.Queries().PeopleFor(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "personnel lookup failed")
		slog.Error("personnel error", "entity_id", id, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"people": people})
}

// GET /entities/{id}/partners
func (h *handler) handlePartners(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	partners, err := h.engine.Queries().PartnersFor(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "partner lookup failed")
		slog.Error("partner error", "entity_id", id, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"partners": partners})
}

// GET /entities/{id}/similar?n=
func (h *handler) handleSimilar(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	n := intQuery(r, "n", 5, 50)
	results, err := h.engine.Index().FindSimilar(r.Context(), id, n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "similarity lookup failed")
		slog.Error("similar error", "entity_id", id, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// GET /decision-makers?focus_area=
func (h *handler) handleDecisionMakers(w http.ResponseWriter, r *http.Request) {
	people, err := h.engine.Queries().DecisionMakers(r.Context(), r.URL.Query().Get("focus_area"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "decision-maker lookup failed")
		slog.Error("decision-maker error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"people": people})
}

// GET /policies/{name}/ecosystem
func (h *handler) handlePolicyEcosystem(w http.ResponseWriter, r *http.Request) {
	policy := r.PathValue("name")
	entries, err := h.engine.Queries().PolicyEcosystem(r.Context(), policy)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "policy ecosystem failed")
		slog.Error("policy ecosystem error", "policy", policy, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"policy": policy, "ecosystem": entries})
}

// GET /companies/network?name=
func (h *handler) handleCompanyNetwork(w http.ResponseWriter, r *http.Request) {
	networks, err := h.engine.Queries().CompanyNetwork(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "company network failed")
		slog.Error("company network error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"companies": networks})
}

// GET /procurement?min_value=
func (h *handler) handleProcurement(w http.ResponseWriter, r *http.Request) {
	minValue := int64(0)
	if raw := r.URL.Query().Get("min_value"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			writeError(w, http.StatusBadRequest, "min_value must be a non-negative integer")
			return
		}
		minValue = v
	}
	edges, err := h.engine.Queries().ProcurementFlow(r.Context(), minValue)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "procurement flow failed")
		slog.Error("procurement error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"edges": edges})
}

// GET /paths?from=&focus=
func (h *handler) handlePaths(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	focus := r.URL.Query().Get("focus")
	if from == "" || focus == "" {
		writeError(w, http.StatusBadRequest, "from and focus are required")
		return
	}
	paths, err := h.engine.Queries().ShortestPaths(r.Context(), from, focus)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "path search failed")
		slog.Error("path error", "from", from, "focus", focus, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"paths": paths})
}

// GET /most-connected?kind=
func (h *handler) handleMostConnected(w http.ResponseWriter, r *http.Request) {
	kind := catalogue.Kind(r.URL.Query().Get("kind"))
	nodes, err := h.engine.Queries().MostConnected(r.Context(), kind)
	if errors.Is(err, catalogue.ErrUnknownKind) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown kind %q", kind))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "most-connected failed")
		slog.Error("most-connected error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"nodes": nodes})
}

// GET /statistics
func (h *handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.Statistics(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "statistics failed")
		slog.Error("statistics error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GET /export/nodes and GET /export/edges
func (h *handler) handleExportNodes(w http.ResponseWriter, r *http.Request) {
	rows, err := h.engine.Queries().ExportNodes(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		slog.Error("export nodes error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"nodes": rows})
}

func (h *handler) handleExportEdges(w http.ResponseWriter, r *http.Request) {
	rows, err := h.engine.Queries().ExportEdges(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		slog.Error("export edges error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"edges": rows})
}

// POST /search
// Semantic search over one collection, with optional metadata filters.
func (h *handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query            string  `json:"query"`
		Collection       string  `json:"collection,omitempty"` // entities, people, partners, or empty for all
		N                int     `json:"n,omitempty"`
		EntityType       string  `json:"entity_type,omitempty"`
		RoleType         string  `json:"role_type,omitempty"`
		RelationshipType string  `json:"relationship_type,omitempty"`
		MinConfidence    float64 `json:"min_confidence,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.N <= 0 || req.N > 50 {
		req.N = 5
	}
	filters := semantic.Filters{
		EntityType:       req.EntityType,
		RoleType:         req.RoleType,
		RelationshipType: req.RelationshipType,
		MinConfidence:    req.MinConfidence,
	}

	ix := h.engine.Index()
	var (
		payload any
		err     error
	)
	switch req.Collection {
	case "entities":
		payload, err = ix.SearchEntities(r.Context(), req.Query, req.N, filters)
	case "people":
		payload, err = ix.SearchPeople(r.Context(), req.Query, req.N, filters)
	case "partners":
		payload, err = ix.SearchPartners(r.Context(), req.Query, req.N, filters)
	case "":
		payload, err = ix.SearchAll(r.Context(), req.Query, req.N)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown collection %q", req.Collection))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "search failed")
		slog.Error("search error", "query", req.Query, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": payload})
}

// POST /search/hybrid
func (h *handler) handleHybridSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query        string  `json:"query"`
		KeywordBoost float64 `json:"keyword_boost,omitempty"`
		N            int     `json:"n,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.N <= 0 || req.N > 50 {
		req.N = 10
	}
	results, err := h.engine.Index().HybridSearch(r.Context(), req.Query, req.KeywordBoost, req.N)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "hybrid search failed")
		slog.Error("hybrid search error", "query", req.Query, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// POST /ask
func (h *handler) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	answer, err := h.engine.Index().AnswerQuestion(r.Context(), req.Question)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "question answering failed")
		slog.Error("ask error", "question", req.Question, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func intQuery(r *http.Request, key string, def, max int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 || v > max {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
