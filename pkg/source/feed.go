// Package source pulls the engine's inputs from the surrounding community
// platform: community records, membership-overlap counts and declared
// linkage events. The engine consumes these read-only; nothing is owed back.
package source

import (
	"context"

	"github.com/communeos/bridgenet/pkg/detect"
	"github.com/communeos/bridgenet/pkg/graph"
)

// Feed is the pull contract against the platform. Every recompute cycle
// fetches fresh data through it.
type Feed interface {
	// ListCommunities returns all community records.
	ListCommunities(ctx context.Context) ([]graph.CommunityNode, error)

	// MembershipOverlaps returns shared-member counts for community pairs
	// with at least one member in common.
	MembershipOverlaps(ctx context.Context) ([]detect.MembershipOverlap, error)

	// ExplicitLinkages returns declared mentorship, supply-chain and
	// federation events.
	ExplicitLinkages(ctx context.Context) ([]detect.Linkage, error)
}

// Pinger is implemented by feeds that can report backend connectivity,
// used by readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Pull fetches a complete detection input from the feed.
func Pull(ctx context.Context, feed Feed) (detect.Input, error) {
	communities, err := feed.ListCommunities(ctx)
	if err != nil {
		return detect.Input{}, err
	}
	overlaps, err := feed.MembershipOverlaps(ctx)
	if err != nil {
		return detect.Input{}, err
	}
	linkages, err := feed.ExplicitLinkages(ctx)
	if err != nil {
		return detect.Input{}, err
	}
	return detect.Input{
		Communities: communities,
		Overlaps:    overlaps,
		Linkages:    linkages,
	}, nil
}
