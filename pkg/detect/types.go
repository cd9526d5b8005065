package detect

import (
	"time"

	"github.com/communeos/bridgenet/pkg/graph"
)

// MembershipOverlap is the precomputed count of members shared by a pair of
// communities, pulled from the membership tables by the source feed.
type MembershipOverlap struct {
	CommunityA    uint64 `json:"community_a" validate:"required"`
	CommunityB    uint64 `json:"community_b" validate:"required"`
	SharedMembers int    `json:"shared_members" validate:"gte=0"`
}

// Linkage is an explicitly declared relationship event between two
// communities: mentorship, supply-chain or federation. Volume is an
// interaction-volume metric with meaning only for supply-chain and
// federation linkages.
type Linkage struct {
	Source     uint64           `json:"source" validate:"required"`
	Target     uint64           `json:"target" validate:"required"`
	Type       graph.BridgeType `json:"type"`
	Volume     float64          `json:"volume" validate:"gte=0"`
	DeclaredAt time.Time        `json:"declared_at"`
}

// Input bundles everything bridge detection needs. Detection is a pure
// function of an Input value, so two runs over equal inputs emit identical
// edge sets.
type Input struct {
	Communities []graph.CommunityNode
	Overlaps    []MembershipOverlap
	Linkages    []Linkage
}

// Config holds the detection thresholds. Zero value is not usable; start
// from DefaultConfig.
type Config struct {
	// GeoRadiusKm is the maximum great-circle distance for a geographic
	// bridge. Strength decays linearly to zero at this radius.
	GeoRadiusKm float64 `yaml:"geo_radius_km"`

	// ThematicBase is the strength of a bare pack-type match.
	ThematicBase float64 `yaml:"thematic_base"`

	// ThematicTagBonus is added per shared feature tag, capped at 1.0.
	ThematicTagBonus float64 `yaml:"thematic_tag_bonus"`

	// MentorshipStrength is the fixed strength of a mentorship edge.
	MentorshipStrength float64 `yaml:"mentorship_strength"`

	// MentorSetupMin is the setup completion a mentor must have reached.
	MentorSetupMin float64 `yaml:"mentor_setup_min"`

	// MenteeSetupMax is the setup completion a mentee must be below.
	MenteeSetupMax float64 `yaml:"mentee_setup_max"`
}

// DefaultConfig returns the production detection thresholds.
func DefaultConfig() Config {
	return Config{
		GeoRadiusKm:        50,
		ThematicBase:       0.5,
		ThematicTagBonus:   0.1,
		MentorshipStrength: 0.7,
		MentorSetupMin:     1.0,
		MenteeSetupMax:     0.5,
	}
}
