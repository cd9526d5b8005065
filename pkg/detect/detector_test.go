package detect

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/communeos/bridgenet/pkg/graph"
)

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestDetector(t *testing.T) *Detector {
	t.Helper()
	d := NewDetector(DefaultConfig(), nil)
	d.Now = func() time.Time { return fixedNow }
	return d
}

// pointAtKm returns a coordinate roughly km kilometres north of origin.
// One degree of latitude spans ~111.19 km.
func pointAtKm(origin graph.GeoPoint, km float64) *graph.GeoPoint {
	return &graph.GeoPoint{Lat: origin.Lat + km/111.19, Lng: origin.Lng}
}

func findEdge(edges []graph.BridgeEdge, a, b uint64, bt graph.BridgeType) (graph.BridgeEdge, bool) {
	for _, e := range edges {
		if e.Type == bt && e.Touches(a) && e.Touches(b) {
			return e, true
		}
	}
	return graph.BridgeEdge{}, false
}

func TestDetectGeographicWithinRadius(t *testing.T) {
	d := newTestDetector(t)
	origin := graph.GeoPoint{Lat: 48.2082, Lng: 16.3738}

	edges := d.Detect(Input{Communities: []graph.CommunityNode{
		{ID: 1, MemberCount: 10, Location: &origin},
		{ID: 2, MemberCount: 20, Location: pointAtKm(origin, 10)},
	}})

	e, ok := findEdge(edges, 1, 2, graph.BridgeGeographic)
	if !ok {
		t.Fatal("expected a geographic bridge for communities 10km apart")
	}
	// 10km inside a 50km radius decays linearly to 0.8.
	if math.Abs(e.Strength-0.8) > 0.01 {
		t.Errorf("strength = %v, want ~0.8", e.Strength)
	}
	if e.LastComputedAt != fixedNow {
		t.Error("edge not stamped with the detector clock")
	}
}

func TestDetectGeographicOutsideRadius(t *testing.T) {
	d := newTestDetector(t)
	origin := graph.GeoPoint{Lat: 48.2082, Lng: 16.3738}

	edges := d.Detect(Input{Communities: []graph.CommunityNode{
		{ID: 1, MemberCount: 10, Location: &origin},
		{ID: 2, MemberCount: 20, Location: pointAtKm(origin, 80)},
	}})

	if _, ok := findEdge(edges, 1, 2, graph.BridgeGeographic); ok {
		t.Error("communities 80km apart must not form a geographic bridge")
	}
}

func TestDetectGeographicSkipsUnlocated(t *testing.T) {
	d := newTestDetector(t)
	origin := graph.GeoPoint{Lat: 48.2082, Lng: 16.3738}

	edges := d.Detect(Input{Communities: []graph.CommunityNode{
		{ID: 1, MemberCount: 10, Location: &origin},
		{ID: 2, MemberCount: 20}, // no coordinates
	}})

	if len(edges) != 0 {
		t.Errorf("expected no edges, got %d", len(edges))
	}
}

func TestDetectThematic(t *testing.T) {
	d := newTestDetector(t)

	edges := d.Detect(Input{Communities: []graph.CommunityNode{
		{ID: 1, MemberCount: 10, PackType: "food-coop", FeatureTags: []string{"organic", "delivery"}},
		{ID: 2, MemberCount: 20, PackType: "food-coop", FeatureTags: []string{"organic", "bulk"}},
		{ID: 3, MemberCount: 30, PackType: "makerspace"},
	}})

	e, ok := findEdge(edges, 1, 2, graph.BridgeThematic)
	if !ok {
		t.Fatal("expected a thematic bridge for matching pack types")
	}
	// Base 0.5 plus one shared tag bonus.
	if math.Abs(e.Strength-0.6) > 1e-9 {
		t.Errorf("strength = %v, want 0.6", e.Strength)
	}

	if _, ok := findEdge(edges, 1, 3, graph.BridgeThematic); ok {
		t.Error("different pack types must not form a thematic bridge")
	}
}

func TestDetectThematicIgnoresEmptyPackType(t *testing.T) {
	d := newTestDetector(t)

	edges := d.Detect(Input{Communities: []graph.CommunityNode{
		{ID: 1, MemberCount: 10},
		{ID: 2, MemberCount: 20},
	}})

	if len(edges) != 0 {
		t.Errorf("empty pack types matched each other: %d edges", len(edges))
	}
}

func TestDetectSpontaneous(t *testing.T) {
	d := newTestDetector(t)

	edges := d.Detect(Input{
		Communities: []graph.CommunityNode{
			{ID: 1, MemberCount: 8},
			{ID: 2, MemberCount: 40},
		},
		Overlaps: []MembershipOverlap{
			{CommunityA: 1, CommunityB: 2, SharedMembers: 5},
		},
	})

	e, ok := findEdge(edges, 1, 2, graph.BridgeSpontaneous)
	if !ok {
		t.Fatal("expected a spontaneous bridge for shared members")
	}
	// 5 shared of the smaller community's 8 members.
	if math.Abs(e.Strength-0.625) > 1e-9 {
		t.Errorf("strength = %v, want 0.625", e.Strength)
	}
	if e.SharedMembers != 5 {
		t.Errorf("shared members = %d, want 5", e.SharedMembers)
	}
}

func TestDetectSpontaneousSkipsBadRecords(t *testing.T) {
	d := newTestDetector(t)

	edges := d.Detect(Input{
		Communities: []graph.CommunityNode{
			{ID: 1, MemberCount: 10},
			{ID: 2, MemberCount: 0},
		},
		Overlaps: []MembershipOverlap{
			{CommunityA: 1, CommunityB: 1, SharedMembers: 3}, // self overlap
			{CommunityA: 1, CommunityB: 99, SharedMembers: 3}, // unknown community
			{CommunityA: 1, CommunityB: 2, SharedMembers: 3},  // empty smaller side
			{CommunityA: 1, CommunityB: 2, SharedMembers: 0},  // no sharing
		},
	})

	if len(edges) != 0 {
		t.Errorf("expected all overlap records skipped, got %d edges", len(edges))
	}
}

func TestDetectSkipsInvalidCommunities(t *testing.T) {
	d := newTestDetector(t)
	origin := graph.GeoPoint{Lat: 48.2082, Lng: 16.3738}

	edges := d.Detect(Input{Communities: []graph.CommunityNode{
		{ID: 0, MemberCount: 10, Location: &origin},  // zero id
		{ID: 2, MemberCount: -5, Location: &origin},  // negative members
		{ID: 3, MemberCount: 10, Location: &origin},
	}})

	if len(edges) != 0 {
		t.Errorf("invalid communities produced %d edges", len(edges))
	}
}

func TestDetectIsDeterministic(t *testing.T) {
	d := newTestDetector(t)
	origin := graph.GeoPoint{Lat: 48.2082, Lng: 16.3738}

	input := Input{
		Communities: []graph.CommunityNode{
			{ID: 3, MemberCount: 30, PackType: "food-coop", Location: &origin},
			{ID: 1, MemberCount: 10, PackType: "food-coop", Location: pointAtKm(origin, 5)},
			{ID: 2, MemberCount: 20, Location: pointAtKm(origin, 12)},
		},
		Overlaps: []MembershipOverlap{
			{CommunityA: 2, CommunityB: 3, SharedMembers: 4},
		},
	}

	first := d.Detect(input)
	if len(first) == 0 {
		t.Fatal("expected some edges")
	}
	for i := 0; i < 5; i++ {
		if again := d.Detect(input); !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d produced a different edge set", i)
		}
	}
}

func TestDetectEmitsCanonicalSymmetricEdges(t *testing.T) {
	d := newTestDetector(t)

	edges := d.Detect(Input{
		Communities: []graph.CommunityNode{
			{ID: 9, MemberCount: 10, PackType: "makerspace"},
			{ID: 3, MemberCount: 10, PackType: "makerspace"},
		},
	})

	if len(edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(edges))
	}
	if edges[0].Source != 3 || edges[0].Target != 9 {
		t.Errorf("edge = (%d,%d), want canonical (3,9)", edges[0].Source, edges[0].Target)
	}
}

func TestSetConfigAppliesOnNextDetect(t *testing.T) {
	d := newTestDetector(t)
	origin := graph.GeoPoint{Lat: 48.2082, Lng: 16.3738}
	input := Input{Communities: []graph.CommunityNode{
		{ID: 1, MemberCount: 10, Location: &origin},
		{ID: 2, MemberCount: 10, Location: pointAtKm(origin, 10)},
	}}

	if _, ok := findEdge(d.Detect(input), 1, 2, graph.BridgeGeographic); !ok {
		t.Fatal("expected geographic edge at 10km under default radius")
	}

	cfg := DefaultConfig()
	cfg.GeoRadiusKm = 5
	d.SetConfig(cfg)

	if _, ok := findEdge(d.Detect(input), 1, 2, graph.BridgeGeographic); ok {
		t.Error("edge at 10km survived a 5km radius")
	}
}
