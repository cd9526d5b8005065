package detect

import (
	"sort"
	"sync"
	"time"

	"github.com/communeos/bridgenet/pkg/graph"
	"github.com/communeos/bridgenet/pkg/logging"
)

// Detector turns community records, membership overlaps and declared
// linkages into bridge edges. Detect is deterministic: given equal inputs
// and an equal clock reading it emits byte-identical edge sets, which keeps
// recomputation reproducible and testable.
type Detector struct {
	mu  sync.RWMutex
	cfg Config
	log logging.Logger

	// Now supplies the LastComputedAt stamp for emitted edges. Tests inject
	// a fixed clock.
	Now func() time.Time
}

// NewDetector creates a detector with the given thresholds.
func NewDetector(cfg Config, log logging.Logger) *Detector {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Detector{
		cfg: cfg,
		log: log.With(logging.Component("detect")),
		Now: time.Now,
	}
}

// SetConfig swaps the detection thresholds; the next Detect call uses them.
// Config changes apply on the following recompute cycle, never mid-run.
func (d *Detector) SetConfig(cfg Config) {
	d.mu.Lock()
	d.cfg = cfg
	d.mu.Unlock()
}

// Detect computes the full bridge edge set for the input. Malformed records
// are skipped with a warning; detection never aborts part-way. Within a
// bridge type at most one edge exists per community pair (later linkage
// declarations replace earlier ones); across types a pair may carry several
// edges.
func (d *Detector) Detect(input Input) []graph.BridgeEdge {
	d.mu.RLock()
	defer d.mu.RUnlock()

	now := d.Now()
	byID := d.indexCommunities(input.Communities)

	edges := make(map[graph.EdgeKey]graph.BridgeEdge)

	d.detectGeographic(byID, now, edges)
	d.detectThematic(byID, now, edges)
	d.detectSpontaneous(byID, input.Overlaps, now, edges)
	d.detectLinkages(byID, input.Linkages, now, edges)

	out := make([]graph.BridgeEdge, 0, len(edges))
	for _, e := range edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key().Less(out[j].Key()) })
	return out
}

// indexCommunities builds the id lookup, dropping records that cannot be
// used for any bridge type.
func (d *Detector) indexCommunities(communities []graph.CommunityNode) map[uint64]graph.CommunityNode {
	byID := make(map[uint64]graph.CommunityNode, len(communities))
	for _, c := range communities {
		if c.ID == 0 {
			d.log.Warn("skipping community with zero id", logging.String("name", c.Name))
			continue
		}
		if c.MemberCount < 0 {
			d.log.Warn("skipping community with negative member count",
				logging.CommunityID(c.ID), logging.Int("member_count", c.MemberCount))
			continue
		}
		byID[c.ID] = c
	}
	return byID
}

// detectGeographic emits an edge for every pair of located communities
// within the configured radius. Strength decays linearly with distance and
// is identical in both directions.
func (d *Detector) detectGeographic(byID map[uint64]graph.CommunityNode, now time.Time, edges map[graph.EdgeKey]graph.BridgeEdge) {
	ids := sortedIDs(byID)
	for i := 0; i < len(ids); i++ {
		a := byID[ids[i]]
		if a.Location == nil {
			continue
		}
		for j := i + 1; j < len(ids); j++ {
			b := byID[ids[j]]
			if b.Location == nil {
				continue
			}

			dist := a.Location.DistanceKm(*b.Location)
			if dist > d.cfg.GeoRadiusKm {
				continue
			}

			put(edges, graph.BridgeEdge{
				Source:         a.ID,
				Target:         b.ID,
				Type:           graph.BridgeGeographic,
				Strength:       graph.Clamp01(1 - dist/d.cfg.GeoRadiusKm),
				LastComputedAt: now,
			})
		}
	}
}

// detectThematic emits an edge for every pair sharing a non-empty pack
// type. Shared feature tags raise the strength above the base.
func (d *Detector) detectThematic(byID map[uint64]graph.CommunityNode, now time.Time, edges map[graph.EdgeKey]graph.BridgeEdge) {
	ids := sortedIDs(byID)
	for i := 0; i < len(ids); i++ {
		a := byID[ids[i]]
		if a.PackType == "" {
			continue
		}
		for j := i + 1; j < len(ids); j++ {
			b := byID[ids[j]]
			if b.PackType != a.PackType {
				continue
			}

			strength := d.cfg.ThematicBase +
				d.cfg.ThematicTagBonus*float64(sharedTags(a.FeatureTags, b.FeatureTags))

			put(edges, graph.BridgeEdge{
				Source:         a.ID,
				Target:         b.ID,
				Type:           graph.BridgeThematic,
				Strength:       graph.Clamp01(strength),
				LastComputedAt: now,
			})
		}
	}
}

// detectSpontaneous emits an edge for every overlap record with shared
// members. Strength is the overlap as a fraction of the smaller community.
func (d *Detector) detectSpontaneous(byID map[uint64]graph.CommunityNode, overlaps []MembershipOverlap, now time.Time, edges map[graph.EdgeKey]graph.BridgeEdge) {
	for _, ov := range overlaps {
		if ov.SharedMembers <= 0 {
			continue
		}
		if ov.CommunityA == ov.CommunityB {
			d.log.Warn("skipping self-overlap record", logging.CommunityID(ov.CommunityA))
			continue
		}

		a, okA := byID[ov.CommunityA]
		b, okB := byID[ov.CommunityB]
		if !okA || !okB {
			d.log.Warn("skipping overlap for unknown community",
				logging.Uint64("community_a", ov.CommunityA),
				logging.Uint64("community_b", ov.CommunityB))
			continue
		}

		smaller := a.MemberCount
		if b.MemberCount < smaller {
			smaller = b.MemberCount
		}
		if smaller <= 0 {
			d.log.Warn("skipping overlap with empty community",
				logging.Uint64("community_a", ov.CommunityA),
				logging.Uint64("community_b", ov.CommunityB))
			continue
		}

		put(edges, graph.BridgeEdge{
			Source:         ov.CommunityA,
			Target:         ov.CommunityB,
			Type:           graph.BridgeSpontaneous,
			Strength:       graph.Clamp01(float64(ov.SharedMembers) / float64(smaller)),
			SharedMembers:  ov.SharedMembers,
			LastComputedAt: now,
		})
	}
}

// put canonicalises the edge key and stores the edge, replacing any earlier
// edge with the same composite key.
func put(edges map[graph.EdgeKey]graph.BridgeEdge, e graph.BridgeEdge) {
	key := e.Key().Canonical()
	e.Source, e.Target = key.Source, key.Target
	edges[key] = e
}

func sortedIDs(byID map[uint64]graph.CommunityNode) []uint64 {
	ids := make([]uint64, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sharedTags(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, tag := range a {
		set[tag] = true
	}
	n := 0
	for _, tag := range b {
		if set[tag] {
			n++
			set[tag] = false // count each tag once
		}
	}
	return n
}
