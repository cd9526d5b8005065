package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the engine
type Registry struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Snapshot Metrics
	SnapshotVersion     prometheus.Gauge
	SnapshotCommunities prometheus.Gauge
	SnapshotBridges     prometheus.Gauge
	SnapshotAgeSeconds  prometheus.Gauge

	// Recompute Metrics
	RecomputesTotal      *prometheus.CounterVec
	RecomputeDuration    prometheus.Histogram
	CommitConflictsTotal prometheus.Counter
	BridgesDetected      *prometheus.GaugeVec

	// Read-side Metrics
	RecommendationRequests prometheus.Counter
	ImpactRequests         prometheus.Counter

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initHTTPMetrics()
	r.initEngineMetrics()

	return r
}

// PrometheusRegistry returns the underlying Prometheus registry, used to
// mount the /metrics handler and by tests to gather metric families.
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.registry
}
