package source

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/communeos/bridgenet/pkg/detect"
	"github.com/communeos/bridgenet/pkg/graph"
	"github.com/communeos/bridgenet/pkg/logging"
)

// BreakerFeed wraps another feed with a circuit breaker so a flapping
// platform database degrades recomputation to the last good snapshot
// instead of hammering the backend. All three pulls share one breaker:
// they hit the same backend.
type BreakerFeed struct {
	inner   Feed
	breaker *gobreaker.CircuitBreaker
	log     logging.Logger
}

// NewBreakerFeed wraps inner with a circuit breaker. The breaker opens
// after five consecutive failures and probes again after 30 seconds.
func NewBreakerFeed(inner Feed, log logging.Logger) *BreakerFeed {
	if log == nil {
		log = logging.NewNopLogger()
	}
	bf := &BreakerFeed{
		inner: inner,
		log:   log.With(logging.Component("source")),
	}
	bf.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "source-feed",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			bf.log.Warn("source feed breaker state change",
				logging.String("from", from.String()),
				logging.String("to", to.String()))
		},
	})
	return bf
}

// ListCommunities pulls community records through the breaker.
func (f *BreakerFeed) ListCommunities(ctx context.Context) ([]graph.CommunityNode, error) {
	out, err := f.breaker.Execute(func() (any, error) {
		return f.inner.ListCommunities(ctx)
	})
	if err != nil {
		return nil, err
	}
	return out.([]graph.CommunityNode), nil
}

// MembershipOverlaps pulls overlap counts through the breaker.
func (f *BreakerFeed) MembershipOverlaps(ctx context.Context) ([]detect.MembershipOverlap, error) {
	out, err := f.breaker.Execute(func() (any, error) {
		return f.inner.MembershipOverlaps(ctx)
	})
	if err != nil {
		return nil, err
	}
	return out.([]detect.MembershipOverlap), nil
}

// ExplicitLinkages pulls linkage events through the breaker.
func (f *BreakerFeed) ExplicitLinkages(ctx context.Context) ([]detect.Linkage, error) {
	out, err := f.breaker.Execute(func() (any, error) {
		return f.inner.ExplicitLinkages(ctx)
	})
	if err != nil {
		return nil, err
	}
	return out.([]detect.Linkage), nil
}

// Ping delegates to the inner feed when it supports connectivity checks.
func (f *BreakerFeed) Ping(ctx context.Context) error {
	if p, ok := f.inner.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
