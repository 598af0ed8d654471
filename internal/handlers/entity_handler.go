// Package handlers is the HTTP framing layer. Handlers parse and validate
// the wire shapes, delegate to the services, and translate results into the
// response envelope plus advisory headers. No mediation logic lives here.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storygraph-backend/internal/domain"
	"storygraph-backend/internal/graph"
	"storygraph-backend/internal/service"
	"storygraph-backend/pkg/api"
	"storygraph-backend/pkg/errors"
)

// HeaderIfVersion carries the optimistic-concurrency precondition for
// updates. The body key "version" is accepted as an alternative.
const HeaderIfVersion = "If-Match"

const maxListLimit = 100

// EntityHandler serves the per-kind CRUD routes. One handler covers all four
// kinds; the kind arrives as a route parameter.
type EntityHandler struct {
	entities *service.EntityService
	logger   *zap.Logger
}

// NewEntityHandler creates the CRUD handler.
func NewEntityHandler(entities *service.EntityService, logger *zap.Logger) *EntityHandler {
	return &EntityHandler{
		entities: entities,
		logger:   logger,
	}
}

// entityEnvelope frames a single-entity read.
type entityEnvelope struct {
	Data domain.Entity `json:"data"`
}

// mutationEnvelope frames a create, update, or archive outcome. The delta
// tells the client how to patch its in-memory graph; warnings report
// non-fatal problems such as restored fields or failed inverse updates.
type mutationEnvelope struct {
	Data                 domain.Entity `json:"data,omitempty"`
	Delta                *graph.Delta  `json:"delta,omitempty"`
	Warnings             []api.Warning `json:"warnings,omitempty"`
	FailedInverseUpdates int           `json:"failedInverseUpdates,omitempty"`
}

// List handles GET /api/v1/{kind}.
func (h *EntityHandler) List(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	params, err := listParams(r)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	result, err := h.entities.List(r.Context(), kind, params)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	w.Header().Set(api.HeaderCacheHit, strconv.FormatBool(result.CacheHit))
	setVersionHeader(w, result.Version)
	w.Header().Set(api.HeaderEntityType, string(kind))
	api.Success(w, http.StatusOK, result)
}

// Get handles GET /api/v1/{kind}/{id}.
func (h *EntityHandler) Get(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	id, err := idParam(r)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	result, err := h.entities.Get(r.Context(), kind, id, bypassCache(r))
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	w.Header().Set(api.HeaderCacheHit, strconv.FormatBool(result.CacheHit))
	setVersionHeader(w, result.Version)
	w.Header().Set(api.HeaderEntityType, string(kind))
	if result.EntityVersion != "" {
		w.Header().Set(api.HeaderEntityVersion, result.EntityVersion)
	}
	api.Success(w, http.StatusOK, entityEnvelope{Data: result.Entity})
}

// Create handles POST /api/v1/{kind}.
func (h *EntityHandler) Create(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	body, err := decodeBody(r)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	result, err := h.entities.Create(r.Context(), kind, body)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	setVersionHeader(w, result.Version)
	w.Header().Set(api.HeaderEntityType, string(kind))
	api.Success(w, http.StatusCreated, mutationEnvelope{
		Data:                 result.Entity,
		Delta:                result.Delta,
		Warnings:             result.Warnings,
		FailedInverseUpdates: result.FailedInverseUpdates,
	})
}

// Update handles PUT /api/v1/{kind}/{id}.
func (h *EntityHandler) Update(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	id, err := idParam(r)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	body, err := decodeBody(r)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	result, err := h.entities.Update(r.Context(), kind, id, body, ifVersion(r, body))
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	setVersionHeader(w, result.Version)
	w.Header().Set(api.HeaderEntityType, string(kind))
	api.Success(w, http.StatusOK, mutationEnvelope{
		Data:                 result.Entity,
		Delta:                result.Delta,
		Warnings:             result.Warnings,
		FailedInverseUpdates: result.FailedInverseUpdates,
	})
}

// Archive handles DELETE /api/v1/{kind}/{id}. The upstream never deletes,
// it archives; every subsequent read treats the entity as gone.
func (h *EntityHandler) Archive(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	id, err := idParam(r)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	result, err := h.entities.Archive(r.Context(), kind, id)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	setVersionHeader(w, result.Version)
	w.Header().Set(api.HeaderEntityType, string(kind))
	api.Success(w, http.StatusOK, mutationEnvelope{
		Delta:                result.Delta,
		Warnings:             result.Warnings,
		FailedInverseUpdates: result.FailedInverseUpdates,
	})
}

// kindParam resolves the {kind} route segment. The router constrains the
// segment to the four collections, so failure here means a routing bug.
func kindParam(r *http.Request) (domain.EntityKind, error) {
	kind, err := domain.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		return "", errors.NewValidationError(err.Error())
	}
	return kind, nil
}

// idParam validates the {id} route segment as a canonical UUID.
func idParam(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		return "", errors.NewValidationError("invalid entity id").
			WithDetail("id", id)
	}
	return id, nil
}

// listParams parses limit, cursor, filter and bypassCache. Malformed or
// out-of-range limits are rejected, not clamped.
func listParams(r *http.Request) (service.ListParams, error) {
	params := service.ListParams{
		Cursor:      r.URL.Query().Get("cursor"),
		Filter:      r.URL.Query().Get("filter"),
		BypassCache: bypassCache(r),
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxListLimit {
			return params, errors.NewValidationError("limit must be an integer between 1 and 100").
				WithDetail("limit", raw)
		}
		params.Limit = limit
	}

	return params, nil
}

func bypassCache(r *http.Request) bool {
	return r.URL.Query().Get("bypassCache") == "true"
}

// decodeBody reads a JSON object body as raw fields; field-level decoding
// belongs to the transform layer.
func decodeBody(r *http.Request) (map[string]json.RawMessage, error) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if err == io.EOF {
			return nil, errors.NewValidationError("request body is required")
		}
		return nil, errors.NewValidationError("invalid JSON body").
			WithDetail("error", err.Error())
	}
	return body, nil
}

// ifVersion extracts the optional update precondition: the If-Match header
// first, then the reserved "version" body key.
func ifVersion(r *http.Request, body map[string]json.RawMessage) string {
	if v := r.Header.Get(HeaderIfVersion); v != "" {
		return v
	}
	if raw, ok := body["version"]; ok {
		var v string
		if err := json.Unmarshal(raw, &v); err == nil {
			return v
		}
	}
	return ""
}

func setVersionHeader(w http.ResponseWriter, version string) {
	if version != "" {
		w.Header().Set(api.HeaderCacheVersion, version)
	}
}
