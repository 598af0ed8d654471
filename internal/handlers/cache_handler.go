package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"storygraph-backend/internal/cache"
	"storygraph-backend/pkg/api"
)

// CacheHandler exposes the coordinator's operational surface: counters for
// dashboards and a clear-all escape hatch.
type CacheHandler struct {
	cache  *cache.Coordinator
	logger *zap.Logger
}

// NewCacheHandler creates the cache operations handler.
func NewCacheHandler(coordinator *cache.Coordinator, logger *zap.Logger) *CacheHandler {
	return &CacheHandler{
		cache:  coordinator,
		logger: logger,
	}
}

// Stats handles GET /api/v1/cache/stats.
func (h *CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, h.cache.Stats())
}

// Clear handles DELETE /api/v1/cache. Clearing bumps the global version so
// clients holding stale version tokens refetch.
func (h *CacheHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.cache.ClearAll()
	version := h.cache.Version()

	h.logger.Info("cache cleared", zap.String("version", version))

	setVersionHeader(w, version)
	api.Success(w, http.StatusOK, map[string]interface{}{
		"cleared": true,
		"version": version,
	})
}
