package detect

import (
	"math"
	"testing"

	"github.com/communeos/bridgenet/pkg/graph"
)

func TestDetectMentorship(t *testing.T) {
	d := newTestDetector(t)

	edges := d.Detect(Input{
		Communities: []graph.CommunityNode{
			{ID: 1, MemberCount: 50, SetupCompletion: 1.0},
			{ID: 2, MemberCount: 5, SetupCompletion: 0.2},
		},
		Linkages: []Linkage{
			{Source: 1, Target: 2, Type: graph.BridgeMentorship},
		},
	})

	e, ok := findEdge(edges, 1, 2, graph.BridgeMentorship)
	if !ok {
		t.Fatal("expected a mentorship bridge")
	}
	if e.Source != 1 || e.Target != 2 {
		t.Errorf("mentorship must keep its direction, got (%d,%d)", e.Source, e.Target)
	}
	if math.Abs(e.Strength-0.7) > 1e-9 {
		t.Errorf("strength = %v, want 0.7", e.Strength)
	}
}

func TestDetectMentorshipGating(t *testing.T) {
	d := newTestDetector(t)

	cases := []struct {
		name           string
		mentorSetup    float64
		menteeSetup    float64
		expectMentored bool
	}{
		{"mentor incomplete", 0.9, 0.2, false},
		{"mentee too advanced", 1.0, 0.5, false},
		{"both thresholds met", 1.0, 0.49, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			edges := d.Detect(Input{
				Communities: []graph.CommunityNode{
					{ID: 1, MemberCount: 50, SetupCompletion: tc.mentorSetup},
					{ID: 2, MemberCount: 5, SetupCompletion: tc.menteeSetup},
				},
				Linkages: []Linkage{
					{Source: 1, Target: 2, Type: graph.BridgeMentorship},
				},
			})

			_, got := findEdge(edges, 1, 2, graph.BridgeMentorship)
			if got != tc.expectMentored {
				t.Errorf("mentorship bridge present = %v, want %v", got, tc.expectMentored)
			}
		})
	}
}

func TestDetectSupplyChainVolumeNormalisation(t *testing.T) {
	d := newTestDetector(t)

	edges := d.Detect(Input{
		Communities: []graph.CommunityNode{
			{ID: 1, MemberCount: 10},
			{ID: 2, MemberCount: 10},
			{ID: 3, MemberCount: 10},
		},
		Linkages: []Linkage{
			{Source: 1, Target: 2, Type: graph.BridgeSupplyChain, Volume: 200},
			{Source: 2, Target: 3, Type: graph.BridgeSupplyChain, Volume: 50},
		},
	})

	strongest, ok := findEdge(edges, 1, 2, graph.BridgeSupplyChain)
	if !ok || strongest.Strength != 1 {
		t.Errorf("largest-volume linkage strength = %v, want 1", strongest.Strength)
	}

	weaker, ok := findEdge(edges, 2, 3, graph.BridgeSupplyChain)
	if !ok || math.Abs(weaker.Strength-0.25) > 1e-9 {
		t.Errorf("smaller-volume linkage strength = %v, want 0.25", weaker.Strength)
	}
}

func TestDetectFederationNormalisedSeparately(t *testing.T) {
	d := newTestDetector(t)

	// Federation volumes normalise against the federation maximum, not the
	// supply-chain maximum.
	edges := d.Detect(Input{
		Communities: []graph.CommunityNode{
			{ID: 1, MemberCount: 10},
			{ID: 2, MemberCount: 10},
		},
		Linkages: []Linkage{
			{Source: 1, Target: 2, Type: graph.BridgeSupplyChain, Volume: 1000},
			{Source: 1, Target: 2, Type: graph.BridgeFederation, Volume: 10},
		},
	})

	fed, ok := findEdge(edges, 1, 2, graph.BridgeFederation)
	if !ok || fed.Strength != 1 {
		t.Errorf("sole federation linkage strength = %v, want 1", fed.Strength)
	}
}

func TestDetectLinkagesSkipsBadRecords(t *testing.T) {
	d := newTestDetector(t)

	edges := d.Detect(Input{
		Communities: []graph.CommunityNode{
			{ID: 1, MemberCount: 10},
			{ID: 2, MemberCount: 10},
		},
		Linkages: []Linkage{
			{Source: 1, Target: 1, Type: graph.BridgeSupplyChain, Volume: 10},  // self
			{Source: 1, Target: 99, Type: graph.BridgeSupplyChain, Volume: 10}, // unknown
			{Source: 1, Target: 2, Type: graph.BridgeGeographic},               // non-declarable
			{Source: 1, Target: 2, Type: graph.BridgeSupplyChain, Volume: 0},   // zero volume
		},
	})

	if len(edges) != 0 {
		t.Errorf("expected all linkages skipped, got %d edges", len(edges))
	}
}

func TestDetectLatestLinkageWins(t *testing.T) {
	d := newTestDetector(t)

	edges := d.Detect(Input{
		Communities: []graph.CommunityNode{
			{ID: 1, MemberCount: 10},
			{ID: 2, MemberCount: 10},
		},
		Linkages: []Linkage{
			{Source: 1, Target: 2, Type: graph.BridgeSupplyChain, Volume: 100},
			{Source: 1, Target: 2, Type: graph.BridgeSupplyChain, Volume: 25},
		},
	})

	e, ok := findEdge(edges, 1, 2, graph.BridgeSupplyChain)
	if !ok {
		t.Fatal("expected a supply-chain bridge")
	}
	// The later declaration replaces the earlier one for the same pair.
	if math.Abs(e.Strength-0.25) > 1e-9 {
		t.Errorf("strength = %v, want 0.25 from the later declaration", e.Strength)
	}
}
