// Package metrics exposes the engine's Prometheus instrumentation.
package metrics

import (
	"time"
)

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordSnapshot updates the snapshot gauges after a commit.
func (r *Registry) RecordSnapshot(version uint64, communities, bridges int) {
	r.SnapshotVersion.Set(float64(version))
	r.SnapshotCommunities.Set(float64(communities))
	r.SnapshotBridges.Set(float64(bridges))
	r.SnapshotAgeSeconds.Set(0)
}

// RecordRecompute records one recompute run.
func (r *Registry) RecordRecompute(trigger, status string, duration time.Duration) {
	r.RecomputesTotal.WithLabelValues(trigger, status).Inc()
	r.RecomputeDuration.Observe(duration.Seconds())
}

// RecordBridgeCounts sets the per-type detection gauges.
func (r *Registry) RecordBridgeCounts(counts map[string]int) {
	for bridgeType, n := range counts {
		r.BridgesDetected.WithLabelValues(bridgeType).Set(float64(n))
	}
}
