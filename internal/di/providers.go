// Package di wires the application together. Providers construct each
// long-lived collaborator; Wire generates the injector that orders them.
package di

import (
	"net/http"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"storygraph-backend/internal/cache"
	"storygraph-backend/internal/config"
	"storygraph-backend/internal/csrf"
	"storygraph-backend/internal/handlers"
	"storygraph-backend/internal/notion"
	"storygraph-backend/internal/service"
	"storygraph-backend/internal/transform"
	"storygraph-backend/pkg/observability"
)

// ProvideLogger creates the process logger for the configured environment.
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	if cfg.Environment == config.Production {
		zapCfg = zap.NewProductionConfig()
	}
	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}
	return zapCfg.Build()
}

// ProvideMetrics creates the Prometheus collector.
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector("storygraph")
}

// ProvideLimiter creates the upstream rate limiter. With rate limiting
// disabled, tokens are granted immediately.
func ProvideLimiter(cfg *config.Config) *notion.ReservoirLimiter {
	if !cfg.EnableRateLimit {
		return notion.NewDisabledLimiter()
	}
	return notion.NewReservoirLimiter(cfg.RateLimitReservoir, cfg.RateLimitInterval)
}

// ProvideGateway creates the upstream workspace client.
func ProvideGateway(cfg *config.Config, limiter *notion.ReservoirLimiter, metrics *observability.Collector, logger *zap.Logger) notion.Gateway {
	return notion.NewClient(cfg, limiter, metrics, logger)
}

// ProvideRegistry builds the per-kind property mapping tables.
func ProvideRegistry(cfg *config.Config) *transform.Registry {
	return transform.NewRegistry(cfg)
}

// ProvideCache creates the cache coordinator and starts its sweeper.
func ProvideCache(cfg *config.Config, metrics *observability.Collector, logger *zap.Logger) *cache.Coordinator {
	coordinator := cache.NewCoordinator(cfg.CacheTTL, cfg.CacheMaxEntries, metrics, logger)
	if cfg.CacheCleanupPeriod > 0 {
		coordinator.StartCleanup(cfg.CacheCleanupPeriod)
	}
	return coordinator
}

// ProvideCSRFStore creates the per-session token store.
func ProvideCSRFStore() *csrf.Store {
	return csrf.NewStore(csrf.DefaultMaxSessions, csrf.DefaultTTL)
}

// ProvideEntityService creates the CRUD service.
func ProvideEntityService(cfg *config.Config, gateway notion.Gateway, registry *transform.Registry, coordinator *cache.Coordinator, metrics *observability.Collector, logger *zap.Logger) *service.EntityService {
	return service.NewEntityService(cfg, gateway, registry, coordinator, metrics, logger)
}

// ProvideGraphService creates the graph materialization service.
func ProvideGraphService(cfg *config.Config, gateway notion.Gateway, registry *transform.Registry, coordinator *cache.Coordinator, metrics *observability.Collector, logger *zap.Logger) *service.GraphService {
	return service.NewGraphService(cfg, gateway, registry, coordinator, metrics, logger)
}

// ProvideRouter creates the HTTP router over the wired services.
func ProvideRouter(cfg *config.Config, entities *service.EntityService, graphs *service.GraphService, coordinator *cache.Coordinator, csrfStore *csrf.Store, metrics *observability.Collector, logger *zap.Logger) *handlers.Router {
	return handlers.NewRouter(cfg, entities, graphs, coordinator, csrfStore, metrics, logger)
}

// ProvideHandler assembles the router into a servable handler.
func ProvideHandler(router *handlers.Router) http.Handler {
	return router.Setup()
}
