package source

import (
	"context"
	"sync"

	"github.com/communeos/bridgenet/pkg/detect"
	"github.com/communeos/bridgenet/pkg/graph"
)

// StaticFeed serves a fixed data set from memory. Used in tests and by the
// terminal dashboard demo mode.
type StaticFeed struct {
	mu          sync.RWMutex
	communities []graph.CommunityNode
	overlaps    []detect.MembershipOverlap
	linkages    []detect.Linkage
}

// NewStaticFeed creates a feed over the given data set.
func NewStaticFeed(communities []graph.CommunityNode, overlaps []detect.MembershipOverlap, linkages []detect.Linkage) *StaticFeed {
	return &StaticFeed{
		communities: communities,
		overlaps:    overlaps,
		linkages:    linkages,
	}
}

// ListCommunities returns a copy of the community records.
func (f *StaticFeed) ListCommunities(ctx context.Context) ([]graph.CommunityNode, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]graph.CommunityNode, len(f.communities))
	copy(out, f.communities)
	return out, nil
}

// MembershipOverlaps returns a copy of the overlap records.
func (f *StaticFeed) MembershipOverlaps(ctx context.Context) ([]detect.MembershipOverlap, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]detect.MembershipOverlap, len(f.overlaps))
	copy(out, f.overlaps)
	return out, nil
}

// ExplicitLinkages returns a copy of the linkage records.
func (f *StaticFeed) ExplicitLinkages(ctx context.Context) ([]detect.Linkage, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]detect.Linkage, len(f.linkages))
	copy(out, f.linkages)
	return out, nil
}

// Replace swaps the entire data set, simulating upstream change.
func (f *StaticFeed) Replace(communities []graph.CommunityNode, overlaps []detect.MembershipOverlap, linkages []detect.Linkage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.communities = communities
	f.overlaps = overlaps
	f.linkages = linkages
}

// Ping always succeeds.
func (f *StaticFeed) Ping(ctx context.Context) error { return nil }
