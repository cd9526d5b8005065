// Package recommend ranks non-connected community pairs by a weighted blend
// of geographic, thematic, size-compatibility and mutual-connection signals.
// Scoring is rule-based and every recommendation carries reason codes, so
// results stay explainable.
package recommend

import (
	"math"
	"sort"

	"github.com/communeos/bridgenet/pkg/graph"
)

// Engine computes recommendations against a snapshot. Stateless apart from
// configuration; safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine creates a recommendation engine.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// signals holds the four normalised component scores for one candidate.
type signals struct {
	geographic float64
	thematic   float64
	size       float64
	mutual     float64
}

// Recommend returns up to topK suggestions for communityID, best first.
// Candidates already bridged to the community (any type, either direction)
// and the community itself are excluded. Ties are broken by ascending
// target id so identical inputs always produce the identical list.
func (e *Engine) Recommend(snap *graph.NetworkSnapshot, communityID uint64, topK int) []Recommendation {
	if topK <= 0 {
		topK = e.cfg.DefaultTopK
	}

	self, ok := snap.Node(communityID)
	if !ok {
		// Not yet in the network: nothing to score against.
		return []Recommendation{}
	}

	maxMembers := 0
	for _, n := range snap.Nodes() {
		if n.MemberCount > maxMembers {
			maxMembers = n.MemberCount
		}
	}

	selfNeighbors := snap.NeighborSet(communityID)

	recs := make([]Recommendation, 0)
	for _, candidate := range snap.Nodes() {
		if candidate.ID == communityID || snap.HasBridge(communityID, candidate.ID) {
			continue
		}

		sig := e.score(snap, self, candidate, selfNeighbors, maxMembers)
		score := graph.Clamp01(e.cfg.Weights.Geographic*sig.geographic +
			e.cfg.Weights.Thematic*sig.thematic +
			e.cfg.Weights.Size*sig.size +
			e.cfg.Weights.Mutual*sig.mutual)
		if score <= 0 {
			continue
		}

		recs = append(recs, Recommendation{
			TargetID:             candidate.ID,
			TargetName:           candidate.Name,
			Score:                score,
			Reasons:              reasons(sig),
			PotentialBridgeTypes: potentialTypes(sig),
			EstimatedStrength:    e.estimatedStrength(sig),
		})
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].TargetID < recs[j].TargetID
	})

	if len(recs) > topK {
		recs = recs[:topK]
	}
	return recs
}

func (e *Engine) score(snap *graph.NetworkSnapshot, self, candidate graph.CommunityNode, selfNeighbors map[uint64]bool, maxMembers int) signals {
	var sig signals

	// Geographic: the detector's strength formula evaluated hypothetically.
	if self.Location != nil && candidate.Location != nil {
		dist := self.Location.DistanceKm(*candidate.Location)
		if dist <= e.cfg.GeoRadiusKm {
			sig.geographic = graph.Clamp01(1 - dist/e.cfg.GeoRadiusKm)
		}
	}

	if self.PackType != "" && self.PackType == candidate.PackType {
		sig.thematic = 1
	}

	// Size compatibility rewards comparably sized communities on a log
	// scale, so a 10-member and a 10k-member community score low together.
	if maxMembers > 0 {
		diff := math.Abs(math.Log(float64(self.MemberCount)+1) - math.Log(float64(candidate.MemberCount)+1))
		sig.size = graph.Clamp01(1 - diff/math.Log(float64(maxMembers)+1))
	}

	sig.mutual = jaccard(selfNeighbors, snap.NeighborSet(candidate.ID))

	return sig
}

// jaccard is |A∩B| / |A∪B|, zero when both sets are empty.
func jaccard(a, b map[uint64]bool) float64 {
	intersection := 0
	for id := range a {
		if b[id] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union < 1 {
		union = 1
	}
	return float64(intersection) / float64(union)
}

// reasons maps each qualifying signal to its code, in fixed signal order.
func reasons(sig signals) []ReasonCode {
	out := make([]ReasonCode, 0, 4)
	if sig.geographic > 0 {
		out = append(out, ReasonNearby)
	}
	if sig.thematic == 1 {
		out = append(out, ReasonSamePackType)
	}
	if sig.size >= 0.8 {
		out = append(out, ReasonSimilarSize)
	}
	if sig.mutual > 0 {
		out = append(out, ReasonMutualConnections)
	}
	return out
}

// potentialTypes lists the inferable bridge types this pair could plausibly
// form. Mutual connections suggest a spontaneous bridge pending real
// membership-overlap data.
func potentialTypes(sig signals) []graph.BridgeType {
	out := make([]graph.BridgeType, 0, 3)
	if sig.geographic > 0 {
		out = append(out, graph.BridgeGeographic)
	}
	if sig.thematic == 1 {
		out = append(out, graph.BridgeThematic)
	}
	if sig.mutual > 0 {
		out = append(out, graph.BridgeSpontaneous)
	}
	return out
}

// estimatedStrength is the strongest bridge the pair could form if
// connected today, using the detector's strength scales: the full
// geographic decay, the thematic base strength, or the mutual overlap.
func (e *Engine) estimatedStrength(sig signals) float64 {
	est := sig.geographic
	if sig.thematic == 1 && e.cfg.ThematicBaseStrength > est {
		est = e.cfg.ThematicBaseStrength
	}
	if sig.mutual > est {
		est = sig.mutual
	}
	return graph.Clamp01(est)
}
