//go:build wireinject
// +build wireinject

package di

import (
	"net/http"

	"github.com/google/wire"
	"go.uber.org/zap"

	"storygraph-backend/internal/cache"
	"storygraph-backend/internal/config"
	"storygraph-backend/internal/csrf"
	"storygraph-backend/internal/handlers"
	"storygraph-backend/internal/notion"
	"storygraph-backend/internal/service"
	"storygraph-backend/internal/transform"
	"storygraph-backend/pkg/observability"
)

// Container holds every long-lived collaborator of the service.
type Container struct {
	Config        *config.Config
	Logger        *zap.Logger
	Metrics       *observability.Collector
	Gateway       notion.Gateway
	Registry      *transform.Registry
	Cache         *cache.Coordinator
	CSRF          *csrf.Store
	EntityService *service.EntityService
	GraphService  *service.GraphService
	Router        *handlers.Router
	Handler       http.Handler
}

// SuperSet is the provider set covering the whole application.
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideLimiter,
	ProvideGateway,
	ProvideRegistry,
	ProvideCache,
	ProvideCSRFStore,
	ProvideEntityService,
	ProvideGraphService,
	ProvideRouter,
	ProvideHandler,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container.
func InitializeContainer(cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
