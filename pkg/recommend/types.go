package recommend

import (
	"github.com/communeos/bridgenet/pkg/graph"
)

// ReasonCode identifies why a connection was recommended. Codes are stable
// wire values; human-readable rendering is a presentation concern so the
// engine stays free of locale handling.
type ReasonCode string

const (
	ReasonNearby            ReasonCode = "NEARBY"
	ReasonSamePackType      ReasonCode = "SAME_PACK_TYPE"
	ReasonSimilarSize       ReasonCode = "SIMILAR_SIZE"
	ReasonMutualConnections ReasonCode = "MUTUAL_CONNECTIONS"
)

// ReasonText returns the default English rendering of a reason code.
// Dashboards with localisation requirements map the codes themselves.
func ReasonText(code ReasonCode) string {
	switch code {
	case ReasonNearby:
		return "located nearby"
	case ReasonSamePackType:
		return "runs the same pack type"
	case ReasonSimilarSize:
		return "has a comparably sized membership"
	case ReasonMutualConnections:
		return "shares bridges with your network"
	default:
		return string(code)
	}
}

// Recommendation is an ephemeral ranked suggestion to connect with another
// community. Never persisted; computed per request against one snapshot.
type Recommendation struct {
	TargetID             uint64             `json:"target_id"`
	TargetName           string             `json:"target_name"`
	Score                float64            `json:"score"`
	Reasons              []ReasonCode       `json:"reasons"`
	PotentialBridgeTypes []graph.BridgeType `json:"potential_bridge_types"`
	EstimatedStrength    float64            `json:"estimated_strength"`
}

// Weights are the relative contributions of the four scoring signals.
// They should sum to 1 so the combined score stays in [0,1].
type Weights struct {
	Geographic float64 `yaml:"geographic"`
	Thematic   float64 `yaml:"thematic"`
	Size       float64 `yaml:"size"`
	Mutual     float64 `yaml:"mutual"`
}

// Config holds the recommendation tuning knobs.
type Config struct {
	Weights Weights `yaml:"weights"`

	// GeoRadiusKm mirrors the detector's geographic radius so the
	// hypothetical geographic signal matches what detection would emit.
	GeoRadiusKm float64 `yaml:"geo_radius_km"`

	// ThematicBaseStrength mirrors the detector's thematic base so the
	// estimated strength of a pack-type match stays on the same scale.
	ThematicBaseStrength float64 `yaml:"thematic_base_strength"`

	// DefaultTopK applies when a request does not specify a limit.
	DefaultTopK int `yaml:"default_top_k"`
}

// DefaultConfig returns the production recommendation tuning.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Geographic: 0.3,
			Thematic:   0.25,
			Size:       0.25,
			Mutual:     0.2,
		},
		GeoRadiusKm:          50,
		ThematicBaseStrength: 0.5,
		DefaultTopK:          10,
	}
}
