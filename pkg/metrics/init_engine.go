package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initEngineMetrics() {
	r.SnapshotVersion = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "bridgenet_snapshot_version",
			Help: "Version counter of the current network snapshot",
		},
	)

	r.SnapshotCommunities = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "bridgenet_snapshot_communities",
			Help: "Communities in the current network snapshot",
		},
	)

	r.SnapshotBridges = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "bridgenet_snapshot_bridges",
			Help: "Bridge edges in the current network snapshot",
		},
	)

	r.SnapshotAgeSeconds = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "bridgenet_snapshot_age_seconds",
			Help: "Seconds since the current snapshot was committed",
		},
	)

	r.RecomputesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridgenet_recomputes_total",
			Help: "Recompute runs by trigger and outcome",
		},
		[]string{"trigger", "status"},
	)

	r.RecomputeDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bridgenet_recompute_duration_seconds",
			Help:    "Wall-clock duration of recompute runs",
			Buckets: prometheus.DefBuckets,
		},
	)

	r.CommitConflictsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "bridgenet_commit_conflicts_total",
			Help: "Snapshot commits rejected for a stale base version",
		},
	)

	r.BridgesDetected = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bridgenet_bridges_detected",
			Help: "Bridges emitted by the last detection run, by type",
		},
		[]string{"bridge_type"},
	)

	r.RecommendationRequests = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "bridgenet_recommendation_requests_total",
			Help: "Recommendation list requests served",
		},
	)

	r.ImpactRequests = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "bridgenet_impact_requests_total",
			Help: "Impact record requests served",
		},
	)
}
