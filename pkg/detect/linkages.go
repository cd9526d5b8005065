package detect

import (
	"time"

	"github.com/communeos/bridgenet/pkg/graph"
	"github.com/communeos/bridgenet/pkg/logging"
)

// detectLinkages handles the bridge types that only exist by explicit
// declaration: mentorship, supply-chain and federation. All three are
// directional as declared.
func (d *Detector) detectLinkages(byID map[uint64]graph.CommunityNode, linkages []Linkage, now time.Time, edges map[graph.EdgeKey]graph.BridgeEdge) {
	// Supply-chain and federation strengths are normalised against the
	// largest volume declared for that type across the whole network.
	maxVolume := map[graph.BridgeType]float64{}
	for _, l := range linkages {
		if l.Type == graph.BridgeSupplyChain || l.Type == graph.BridgeFederation {
			if l.Volume > maxVolume[l.Type] {
				maxVolume[l.Type] = l.Volume
			}
		}
	}

	for _, l := range linkages {
		if l.Source == l.Target {
			d.log.Warn("skipping self-linkage", logging.CommunityID(l.Source),
				logging.BridgeType(l.Type.String()))
			continue
		}
		src, okS := byID[l.Source]
		dst, okT := byID[l.Target]
		if !okS || !okT {
			d.log.Warn("skipping linkage for unknown community",
				logging.Uint64("source", l.Source), logging.Uint64("target", l.Target),
				logging.BridgeType(l.Type.String()))
			continue
		}

		switch l.Type {
		case graph.BridgeMentorship:
			// A mentorship bridge only holds while the mentor has finished
			// its pack setup and the mentee is still below the completion
			// threshold. Source is the mentor.
			if src.SetupCompletion < d.cfg.MentorSetupMin || dst.SetupCompletion >= d.cfg.MenteeSetupMax {
				continue
			}
			put(edges, graph.BridgeEdge{
				Source:         l.Source,
				Target:         l.Target,
				Type:           graph.BridgeMentorship,
				Strength:       graph.Clamp01(d.cfg.MentorshipStrength),
				LastComputedAt: now,
			})

		case graph.BridgeSupplyChain, graph.BridgeFederation:
			max := maxVolume[l.Type]
			if max <= 0 || l.Volume <= 0 {
				d.log.Warn("skipping linkage with unusable volume",
					logging.Uint64("source", l.Source), logging.Uint64("target", l.Target),
					logging.Float64("volume", l.Volume))
				continue
			}
			put(edges, graph.BridgeEdge{
				Source:         l.Source,
				Target:         l.Target,
				Type:           l.Type,
				Strength:       graph.Clamp01(l.Volume / max),
				LastComputedAt: now,
			})

		default:
			// Geographic, thematic and spontaneous bridges are inferred,
			// never declared.
			d.log.Warn("skipping linkage with non-declarable type",
				logging.Uint64("source", l.Source), logging.Uint64("target", l.Target),
				logging.BridgeType(l.Type.String()))
		}
	}
}
