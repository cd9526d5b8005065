package graph

import (
	"fmt"
	"time"
)

// BridgeType identifies the kind of relationship an edge represents.
// The set is closed: scoring and presentation code switch exhaustively on it.
type BridgeType uint8

const (
	BridgeGeographic BridgeType = iota
	BridgeThematic
	BridgeSpontaneous
	BridgeMentorship
	BridgeSupplyChain
	BridgeFederation
)

// String returns the wire name of the bridge type.
func (t BridgeType) String() string {
	switch t {
	case BridgeGeographic:
		return "GEOGRAPHIC"
	case BridgeThematic:
		return "THEMATIC"
	case BridgeSpontaneous:
		return "SPONTANEOUS"
	case BridgeMentorship:
		return "MENTORSHIP"
	case BridgeSupplyChain:
		return "SUPPLY_CHAIN"
	case BridgeFederation:
		return "FEDERATION"
	default:
		return "UNKNOWN"
	}
}

// ParseBridgeType converts a wire name to a BridgeType.
func ParseBridgeType(s string) (BridgeType, error) {
	switch s {
	case "GEOGRAPHIC":
		return BridgeGeographic, nil
	case "THEMATIC":
		return BridgeThematic, nil
	case "SPONTANEOUS":
		return BridgeSpontaneous, nil
	case "MENTORSHIP":
		return BridgeMentorship, nil
	case "SUPPLY_CHAIN":
		return BridgeSupplyChain, nil
	case "FEDERATION":
		return BridgeFederation, nil
	default:
		return 0, fmt.Errorf("unknown bridge type %q", s)
	}
}

// Directional reports whether edges of this type distinguish source from
// target. Symmetric types are stored once with canonical (low, high) id order.
func (t BridgeType) Directional() bool {
	switch t {
	case BridgeMentorship, BridgeSupplyChain, BridgeFederation:
		return true
	default:
		return false
	}
}

// MarshalJSON encodes the type as its wire name.
func (t BridgeType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON decodes the type from its wire name.
func (t *BridgeType) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("bridge type must be a JSON string, got %s", data)
	}
	parsed, err := ParseBridgeType(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CommunityNode is the engine's read-only view of a community record.
// It is refreshed from the external community service on every recompute
// cycle; the engine never mutates or persists it.
type CommunityNode struct {
	ID              uint64    `json:"id"`
	Name            string    `json:"name"`
	Slug            string    `json:"slug"`
	Location        *GeoPoint `json:"location,omitempty"`
	PackType        string    `json:"pack_type,omitempty"`
	FeatureTags     []string  `json:"feature_tags,omitempty"`
	MemberCount     int       `json:"member_count"`
	SetupCompletion float64   `json:"setup_completion"`
	CreatedAt       time.Time `json:"created_at"`
}

// EdgeKey is the composite identity of a bridge edge. Recomputing a type for
// a pair replaces the prior edge with the same key.
type EdgeKey struct {
	Source uint64     `json:"source"`
	Target uint64     `json:"target"`
	Type   BridgeType `json:"type"`
}

// Canonical returns the key with symmetric-type endpoints in (low, high)
// order. Directional keys are returned unchanged.
func (k EdgeKey) Canonical() EdgeKey {
	if !k.Type.Directional() && k.Source > k.Target {
		k.Source, k.Target = k.Target, k.Source
	}
	return k
}

// Less orders keys by (source, target, type) for deterministic edge listings.
func (k EdgeKey) Less(other EdgeKey) bool {
	if k.Source != other.Source {
		return k.Source < other.Source
	}
	if k.Target != other.Target {
		return k.Target < other.Target
	}
	return k.Type < other.Type
}

// BridgeEdge is a typed, weighted relationship between two communities.
// Values are immutable once placed in a snapshot; recomputation produces a
// replacement edge rather than mutating in place.
type BridgeEdge struct {
	Source         uint64     `json:"source"`
	Target         uint64     `json:"target"`
	Type           BridgeType `json:"type"`
	Strength       float64    `json:"strength"`
	SharedMembers  int        `json:"shared_members,omitempty"`
	LastComputedAt time.Time  `json:"last_computed_at"`
}

// Key returns the composite key of the edge.
func (e BridgeEdge) Key() EdgeKey {
	return EdgeKey{Source: e.Source, Target: e.Target, Type: e.Type}
}

// Touches reports whether the edge has the community at either endpoint.
func (e BridgeEdge) Touches(communityID uint64) bool {
	return e.Source == communityID || e.Target == communityID
}

// Other returns the endpoint opposite to communityID. The caller must ensure
// the edge touches communityID.
func (e BridgeEdge) Other(communityID uint64) uint64 {
	if e.Source == communityID {
		return e.Target
	}
	return e.Source
}

// Clamp01 bounds v to [0,1]. Strengths and scores throughout the engine are
// clamped with this before they leave a component.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
