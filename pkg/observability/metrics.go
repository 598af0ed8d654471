package observability

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Global metrics instance for singleton pattern
	globalCollector *Collector
	collectorMutex  sync.Mutex
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Upstream gateway metrics
	GatewayRequests  *prometheus.CounterVec
	GatewayDuration  *prometheus.HistogramVec
	GatewayRetries   *prometheus.CounterVec
	GatewayTokenWait prometheus.Histogram

	// Cache metrics
	CacheHits          prometheus.Counter
	CacheMisses        prometheus.Counter
	CacheEvictions     prometheus.Counter
	CacheInvalidations *prometheus.CounterVec
	CacheEntries       prometheus.Gauge

	// Graph pipeline metrics
	GraphBuilds       prometheus.Counter
	GraphBuildSeconds prometheus.Histogram
	GraphNodes        prometheus.Gauge
	GraphEdges        prometheus.Gauge
	GraphPlaceholders prometheus.Gauge

	// Write-path metrics
	InverseUpdates    *prometheus.CounterVec
	DeltaComputations *prometheus.CounterVec
}

// NewCollector creates a new metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
	// Use singleton pattern to avoid duplicate registration in tests
	collectorMutex.Lock()
	defer collectorMutex.Unlock()

	if globalCollector != nil {
		return globalCollector
	}

	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	gatewayRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_requests_total",
			Help:      "Total number of upstream workspace API calls",
		},
		[]string{"operation", "status"},
	)

	gatewayDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_request_duration_seconds",
			Help:      "Upstream call duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	gatewayRetries := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_retries_total",
			Help:      "Total number of retried upstream calls",
		},
		[]string{"operation"},
	)

	gatewayTokenWait := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_token_wait_seconds",
			Help:      "Time spent waiting for a rate-limit token",
			Buckets:   []float64{.001, .01, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	cacheHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
	)

	cacheMisses := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
	)

	cacheEvictions := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_evictions_total",
			Help:      "Total number of entries evicted by TTL or capacity",
		},
	)

	cacheInvalidations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_invalidations_total",
			Help:      "Total number of cache invalidation operations",
		},
		[]string{"reason"},
	)

	cacheEntries := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_entries",
			Help:      "Current number of live cache entries",
		},
	)

	graphBuilds := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_builds_total",
			Help:      "Total number of complete graph materializations",
		},
	)

	graphBuildSeconds := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_build_duration_seconds",
			Help:      "Complete graph build duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	graphNodes := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Node count of the most recent graph build",
		},
	)

	graphEdges := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_edges",
			Help:      "Edge count of the most recent graph build",
		},
	)

	graphPlaceholders := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_placeholder_nodes",
			Help:      "Placeholder node count of the most recent graph build",
		},
	)

	inverseUpdates := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inverse_updates_total",
			Help:      "Total number of inverse-relation target updates",
		},
		[]string{"result"},
	)

	deltaComputations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delta_computations_total",
			Help:      "Total number of graph delta computations",
		},
		[]string{"result"},
	)

	registry.MustRegister(
		httpRequests,
		httpDuration,
		gatewayRequests,
		gatewayDuration,
		gatewayRetries,
		gatewayTokenWait,
		cacheHits,
		cacheMisses,
		cacheEvictions,
		cacheInvalidations,
		cacheEntries,
		graphBuilds,
		graphBuildSeconds,
		graphNodes,
		graphEdges,
		graphPlaceholders,
		inverseUpdates,
		deltaComputations,
	)

	globalCollector = &Collector{
		registry:           registry,
		HTTPRequests:       httpRequests,
		HTTPDuration:       httpDuration,
		GatewayRequests:    gatewayRequests,
		GatewayDuration:    gatewayDuration,
		GatewayRetries:     gatewayRetries,
		GatewayTokenWait:   gatewayTokenWait,
		CacheHits:          cacheHits,
		CacheMisses:        cacheMisses,
		CacheEvictions:     cacheEvictions,
		CacheInvalidations: cacheInvalidations,
		CacheEntries:       cacheEntries,
		GraphBuilds:        graphBuilds,
		GraphBuildSeconds:  graphBuildSeconds,
		GraphNodes:         graphNodes,
		GraphEdges:         graphEdges,
		GraphPlaceholders:  graphPlaceholders,
		InverseUpdates:     inverseUpdates,
		DeltaComputations:  deltaComputations,
	}

	return globalCollector
}

// ResetForTesting resets the global collector for testing purposes
func ResetForTesting() {
	collectorMutex.Lock()
	defer collectorMutex.Unlock()
	globalCollector = nil
}

// ObserveHTTPRequest records one handled HTTP request.
func (c *Collector) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveGatewayRequest records one upstream API call attempt.
func (c *Collector) ObserveGatewayRequest(operation string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.GatewayRequests.WithLabelValues(operation, strconv.Itoa(status)).Inc()
	c.GatewayDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// ObserveGatewayRetry records a retried upstream call.
func (c *Collector) ObserveGatewayRetry(operation string) {
	if c == nil {
		return
	}
	c.GatewayRetries.WithLabelValues(operation).Inc()
}

// ObserveTokenWait records time spent blocked on the rate-limit reservoir.
func (c *Collector) ObserveTokenWait(d time.Duration) {
	if c == nil {
		return
	}
	c.GatewayTokenWait.Observe(d.Seconds())
}

// CacheHit increments the hit counter.
func (c *Collector) CacheHit() {
	if c != nil {
		c.CacheHits.Inc()
	}
}

// CacheMiss increments the miss counter.
func (c *Collector) CacheMiss() {
	if c != nil {
		c.CacheMisses.Inc()
	}
}

// CacheEviction increments the eviction counter.
func (c *Collector) CacheEviction() {
	if c != nil {
		c.CacheEvictions.Inc()
	}
}

// CacheInvalidation records one invalidation operation by reason.
func (c *Collector) CacheInvalidation(reason string) {
	if c != nil {
		c.CacheInvalidations.WithLabelValues(reason).Inc()
	}
}

// SetCacheEntries sets the live entry gauge.
func (c *Collector) SetCacheEntries(n int) {
	if c != nil {
		c.CacheEntries.Set(float64(n))
	}
}

// ObserveGraphBuild records one complete graph materialization.
func (c *Collector) ObserveGraphBuild(d time.Duration, nodes, edges, placeholders int) {
	if c == nil {
		return
	}
	c.GraphBuilds.Inc()
	c.GraphBuildSeconds.Observe(d.Seconds())
	c.GraphNodes.Set(float64(nodes))
	c.GraphEdges.Set(float64(edges))
	c.GraphPlaceholders.Set(float64(placeholders))
}

// ObserveInverseUpdate records one inverse-relation target update outcome.
func (c *Collector) ObserveInverseUpdate(ok bool) {
	if c == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	c.InverseUpdates.WithLabelValues(result).Inc()
}

// ObserveDeltaComputation records one delta computation outcome.
func (c *Collector) ObserveDeltaComputation(fallback bool) {
	if c == nil {
		return
	}
	result := "ok"
	if fallback {
		result = "fallback"
	}
	c.DeltaComputations.WithLabelValues(result).Inc()
}

// Handler returns an HTTP handler exposing this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// GetRegistry returns the Prometheus registry for this collector
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}
