package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"storygraph-backend/internal/cache"
	"storygraph-backend/internal/config"
	"storygraph-backend/internal/csrf"
	"storygraph-backend/internal/middleware"
	"storygraph-backend/internal/service"
	"storygraph-backend/pkg/api"
	"storygraph-backend/pkg/observability"
)

// kindPattern constrains the {kind} route segment to the four collections,
// keeping literal siblings like /graph and /cache unambiguous. The
// alternation is grouped because the router anchors the pattern as ^pat$.
const kindPattern = "{kind:(characters|elements|puzzles|timeline)}"

// Router assembles the HTTP surface: middleware stack, operational routes,
// and the /api/v1 mediation API.
type Router struct {
	cfg      *config.Config
	entities *service.EntityService
	graphs   *service.GraphService
	cache    *cache.Coordinator
	csrf     *csrf.Store
	metrics  *observability.Collector
	logger   *zap.Logger
}

// NewRouter creates a router over the wired services.
func NewRouter(
	cfg *config.Config,
	entities *service.EntityService,
	graphs *service.GraphService,
	coordinator *cache.Coordinator,
	csrfStore *csrf.Store,
	metrics *observability.Collector,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:      cfg,
		entities: entities,
		graphs:   graphs,
		cache:    coordinator,
		csrf:     csrfStore,
		metrics:  metrics,
		logger:   logger,
	}
}

// Setup configures all routes and middleware.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Recovery sits inside Timeout: the handler runs on Timeout's goroutine,
	// so an outer recoverer would never see its panics.
	router.Use(middleware.RequestID)
	router.Use(middleware.Logging(rt.logger, rt.metrics))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept", "Authorization", "Content-Type",
			api.HeaderRequestID, api.HeaderCSRFToken, middleware.SessionHeader, HeaderIfVersion,
		},
		ExposedHeaders: []string{
			api.HeaderRequestID, api.HeaderCSRFToken,
			api.HeaderCacheHit, api.HeaderCacheVersion,
			api.HeaderEntityType, api.HeaderEntityVersion,
			api.HeaderGraphBuildTime, api.HeaderTotalNodes, api.HeaderTotalEdges,
		},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(apiVersion)
	router.Use(middleware.Timeout(rt.cfg.RequestTimeout, rt.logger))
	router.Use(middleware.Recovery(rt.logger))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.ErrorMessage(w, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.ErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.cfg.EnableMetrics && rt.metrics != nil {
		router.Handle("/metrics", rt.metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CSRF(rt.csrf, rt.cfg.EnableCSRF, rt.logger))

		r.Get("/csrf-token", NewCSRFHandler(rt.csrf, rt.logger).Token)

		r.Route("/graph", func(r chi.Router) {
			r.Get("/complete", NewGraphHandler(rt.graphs, rt.logger).Complete)
		})

		r.Route("/cache", func(r chi.Router) {
			cacheHandler := NewCacheHandler(rt.cache, rt.logger)
			r.Get("/stats", cacheHandler.Stats)
			r.Delete("/", cacheHandler.Clear)
		})

		r.Route("/"+kindPattern, func(r chi.Router) {
			entityHandler := NewEntityHandler(rt.entities, rt.logger)
			r.Get("/", entityHandler.List)
			r.Post("/", entityHandler.Create)
			r.Get("/{id}", entityHandler.Get)
			r.Put("/{id}", entityHandler.Update)
			r.Delete("/{id}", entityHandler.Archive)
		})
	})

	return router
}

// healthCheck handles liveness probes.
func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// readinessCheck handles readiness probes. It does not probe the upstream;
// a probe per check would spend the shared rate budget.
func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, map[string]string{"status": "ready"})
}

// apiVersion advertises the API version on every response.
func apiVersion(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-API-Version", "v1")
		next.ServeHTTP(w, r)
	})
}
