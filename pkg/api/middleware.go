package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/communeos/bridgenet/pkg/logging"
)

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// withLogging logs one line per request.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.log.Debug("request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", rec.status),
			logging.Latency(time.Since(start)))
	})
}

// withMetrics records request counters and latency histograms. Paths are
// bucketed by route prefix to keep label cardinality bounded.
func (s *Server) withMetrics(next http.Handler) http.Handler {
	if s.registry == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		s.registry.HTTPRequestsInFlight.Inc()
		next.ServeHTTP(rec, r)
		s.registry.HTTPRequestsInFlight.Dec()

		s.registry.RecordHTTPRequest(r.Method, routeLabel(r.URL.Path),
			strconv.Itoa(rec.status), time.Since(start))
	})
}

// withRateLimit applies a shared token bucket across all endpoints.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// routeLabel strips ids from paths so metric labels stay low-cardinality.
func routeLabel(path string) string {
	for _, prefix := range []string{"/bridges/", "/impact/", "/recommendations/"} {
		if len(path) > len(prefix) && path[:len(prefix)] == prefix {
			return prefix + ":id"
		}
	}
	return path
}
