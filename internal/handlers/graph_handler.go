package handlers

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"storygraph-backend/internal/service"
	"storygraph-backend/pkg/api"
)

// GraphHandler serves the complete-graph materialization route.
type GraphHandler struct {
	graphs *service.GraphService
	logger *zap.Logger
}

// NewGraphHandler creates the graph handler.
func NewGraphHandler(graphs *service.GraphService, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{
		graphs: graphs,
		logger: logger,
	}
}

// Complete handles GET /api/v1/graph/complete.
func (h *GraphHandler) Complete(w http.ResponseWriter, r *http.Request) {
	result, err := h.graphs.CompleteGraph(r.Context(), bypassCache(r))
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	w.Header().Set(api.HeaderCacheHit, strconv.FormatBool(result.CacheHit))
	setVersionHeader(w, result.Version)
	w.Header().Set(api.HeaderGraphBuildTime, result.BuildTime.Round(time.Millisecond).String())
	w.Header().Set(api.HeaderTotalNodes, strconv.Itoa(result.Graph.Metadata.TotalNodes))
	w.Header().Set(api.HeaderTotalEdges, strconv.Itoa(result.Graph.Metadata.TotalEdges))
	api.Success(w, http.StatusOK, result.Graph)
}
