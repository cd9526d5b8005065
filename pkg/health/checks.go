package health

import (
	"context"
	"fmt"
	"time"

	"github.com/communeos/bridgenet/pkg/graph"
	"github.com/communeos/bridgenet/pkg/source"
)

// SnapshotCheck reports degraded when the current snapshot is older than
// maxAge, and unhealthy when no snapshot has ever been committed.
func SnapshotCheck(store *graph.Store, maxAge time.Duration) CheckFunc {
	return func() Check {
		snap := store.Current()
		check := Check{
			Name:   "snapshot",
			Status: StatusHealthy,
			Details: map[string]any{
				"version":     snap.Version(),
				"communities": snap.NodeCount(),
				"bridges":     snap.EdgeCount(),
			},
		}

		if snap.Version() == 0 {
			check.Status = StatusUnhealthy
			check.Message = "no snapshot committed yet"
			return check
		}

		age := time.Since(snap.CreatedAt())
		check.Details["age_seconds"] = int(age.Seconds())
		if maxAge > 0 && age > maxAge {
			check.Status = StatusDegraded
			check.Message = fmt.Sprintf("snapshot is %s old", age.Round(time.Second))
		}
		return check
	}
}

// FeedCheck reports whether the platform data source is reachable.
func FeedCheck(feed source.Feed) CheckFunc {
	return func() Check {
		check := Check{Name: "source_feed", Status: StatusHealthy}

		p, ok := feed.(source.Pinger)
		if !ok {
			check.Message = "feed does not support ping"
			return check
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			check.Status = StatusDegraded // reads still work off the last snapshot
			check.Message = err.Error()
		}
		return check
	}
}
