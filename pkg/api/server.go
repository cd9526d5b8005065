// Package api exposes the engine's read endpoints over HTTP. All data
// endpoints are non-mutating reads against the current snapshot; the only
// write-ish endpoint is a manual recompute trigger.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/communeos/bridgenet/pkg/graph"
	"github.com/communeos/bridgenet/pkg/health"
	"github.com/communeos/bridgenet/pkg/impact"
	"github.com/communeos/bridgenet/pkg/logging"
	"github.com/communeos/bridgenet/pkg/metrics"
	"github.com/communeos/bridgenet/pkg/recommend"
	"github.com/communeos/bridgenet/pkg/scheduler"
)

// Server wires the engine components behind HTTP handlers.
type Server struct {
	store      *graph.Store
	calculator *impact.Calculator
	engine     *recommend.Engine
	sched      *scheduler.Scheduler
	checker    *health.Checker
	registry   *metrics.Registry
	limiter    *rate.Limiter
	gqlHandler http.Handler
	log        logging.Logger
	startTime  time.Time
	version    string
	port       int
}

// Options configures optional server collaborators.
type Options struct {
	Scheduler       *scheduler.Scheduler
	HealthChecker   *health.Checker
	MetricsRegistry *metrics.Registry
	GraphQLHandler  http.Handler
	RateLimitPerSec float64
	RateLimitBurst  int
	Logger          logging.Logger
}

// NewServer creates an API server over the engine components.
func NewServer(store *graph.Store, calculator *impact.Calculator, engine *recommend.Engine, port int, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}

	var limiter *rate.Limiter
	if opts.RateLimitPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimitPerSec), opts.RateLimitBurst)
	}

	return &Server{
		store:      store,
		calculator: calculator,
		engine:     engine,
		sched:      opts.Scheduler,
		checker:    opts.HealthChecker,
		registry:   opts.MetricsRegistry,
		limiter:    limiter,
		gqlHandler: opts.GraphQLHandler,
		log:        log.With(logging.Component("api")),
		startTime:  time.Now(),
		version:    "1.0.0",
		port:       port,
	}
}

// Handler builds the route table with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Read endpoints
	mux.HandleFunc("/bridges/", s.handleBridges)                 // /bridges/{communityId}
	mux.HandleFunc("/impact/", s.handleImpact)                   // /impact/{communityId}
	mux.HandleFunc("/recommendations/", s.handleRecommendations) // /recommendations/{communityId}?top_k=N
	mux.HandleFunc("/snapshot/version", s.handleSnapshotVersion)
	mux.HandleFunc("/communities", s.handleCommunities)

	// Control
	mux.HandleFunc("/recompute", s.handleRecompute)

	// Operational endpoints
	if s.checker != nil {
		mux.HandleFunc("/health", s.checker.HTTPHandler())
		mux.HandleFunc("/ready", s.checker.ReadinessHandler())
	}
	if s.registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.registry.PrometheusRegistry(), promhttp.HandlerOpts{}))
	}
	if s.gqlHandler != nil {
		mux.Handle("/graphql", s.gqlHandler)
	}

	return s.withLogging(s.withMetrics(s.withRateLimit(mux)))
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf(":%d", s.port)
}
