package recommend

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/communeos/bridgenet/pkg/graph"
)

func buildSnapshot(t *testing.T, nodes []graph.CommunityNode, edges []graph.BridgeEdge) *graph.NetworkSnapshot {
	t.Helper()
	return graph.NewSnapshot(1, time.Now(), nodes, edges)
}

func TestRecommendExcludesSelfAndBridged(t *testing.T) {
	e := NewEngine(DefaultConfig())
	nodes := []graph.CommunityNode{
		{ID: 1, Name: "one", PackType: "food-coop", MemberCount: 10},
		{ID: 2, Name: "two", PackType: "food-coop", MemberCount: 10},
		{ID: 3, Name: "three", PackType: "food-coop", MemberCount: 10},
	}
	snap := buildSnapshot(t, nodes, []graph.BridgeEdge{
		{Source: 1, Target: 2, Type: graph.BridgeThematic, Strength: 0.5},
	})

	recs := e.Recommend(snap, 1, 10)

	for _, r := range recs {
		if r.TargetID == 1 {
			t.Error("recommended the community to itself")
		}
		if r.TargetID == 2 {
			t.Error("recommended an already-bridged community")
		}
	}
	if len(recs) != 1 || recs[0].TargetID != 3 {
		t.Errorf("recs = %+v, want only community 3", recs)
	}
}

func TestRecommendUnknownCommunity(t *testing.T) {
	e := NewEngine(DefaultConfig())
	snap := buildSnapshot(t, []graph.CommunityNode{{ID: 1, MemberCount: 10}}, nil)

	recs := e.Recommend(snap, 99, 10)
	if recs == nil || len(recs) != 0 {
		t.Errorf("expected an empty list for an unknown community, got %v", recs)
	}
}

func TestRecommendOrderingAndTies(t *testing.T) {
	e := NewEngine(DefaultConfig())

	// Communities 2 and 3 are identical candidates; 4 differs in pack type
	// and scores lower. Ties break by ascending id.
	nodes := []graph.CommunityNode{
		{ID: 1, Name: "seed", PackType: "food-coop", MemberCount: 100},
		{ID: 3, Name: "b", PackType: "food-coop", MemberCount: 100},
		{ID: 2, Name: "a", PackType: "food-coop", MemberCount: 100},
		{ID: 4, Name: "c", PackType: "makerspace", MemberCount: 100},
	}
	snap := buildSnapshot(t, nodes, nil)

	recs := e.Recommend(snap, 1, 10)
	if len(recs) != 3 {
		t.Fatalf("expected 3 recommendations, got %d", len(recs))
	}
	if recs[0].TargetID != 2 || recs[1].TargetID != 3 {
		t.Errorf("tie not broken by ascending id: %d then %d", recs[0].TargetID, recs[1].TargetID)
	}
	if recs[2].TargetID != 4 {
		t.Errorf("lowest scorer = %d, want 4", recs[2].TargetID)
	}
	if recs[0].Score < recs[1].Score || recs[1].Score < recs[2].Score {
		t.Error("recommendations not sorted by descending score")
	}
}

func TestRecommendTopK(t *testing.T) {
	e := NewEngine(DefaultConfig())

	nodes := []graph.CommunityNode{{ID: 1, PackType: "p", MemberCount: 10}}
	for id := uint64(2); id <= 30; id++ {
		nodes = append(nodes, graph.CommunityNode{ID: id, PackType: "p", MemberCount: 10})
	}
	snap := buildSnapshot(t, nodes, nil)

	if got := len(e.Recommend(snap, 1, 5)); got != 5 {
		t.Errorf("topK=5 returned %d", got)
	}
	// Zero falls back to the configured default.
	if got := len(e.Recommend(snap, 1, 0)); got != DefaultConfig().DefaultTopK {
		t.Errorf("topK=0 returned %d, want %d", got, DefaultConfig().DefaultTopK)
	}
}

func TestRecommendReasons(t *testing.T) {
	e := NewEngine(DefaultConfig())
	origin := graph.GeoPoint{Lat: 48.2, Lng: 16.37}
	near := graph.GeoPoint{Lat: 48.21, Lng: 16.37}

	nodes := []graph.CommunityNode{
		{ID: 1, PackType: "food-coop", MemberCount: 100, Location: &origin},
		{ID: 2, PackType: "food-coop", MemberCount: 100, Location: &near},
		{ID: 3, MemberCount: 100},
		{ID: 4, MemberCount: 100},
	}
	// 2 and 1 both bridge to 3, giving them a mutual connection; 4 is the
	// candidate scored here.
	snap := buildSnapshot(t, nodes, []graph.BridgeEdge{
		{Source: 2, Target: 3, Type: graph.BridgeSpontaneous, Strength: 0.4},
		{Source: 1, Target: 3, Type: graph.BridgeSpontaneous, Strength: 0.4},
	})

	recs := e.Recommend(snap, 1, 10)
	var forTwo *Recommendation
	for i := range recs {
		if recs[i].TargetID == 2 {
			forTwo = &recs[i]
		}
	}
	if forTwo == nil {
		t.Fatal("community 2 not recommended")
	}

	want := map[ReasonCode]bool{
		ReasonNearby:            true,
		ReasonSamePackType:      true,
		ReasonSimilarSize:       true,
		ReasonMutualConnections: true,
	}
	for _, code := range forTwo.Reasons {
		if !want[code] {
			t.Errorf("unexpected reason %q", code)
		}
		delete(want, code)
	}
	for code := range want {
		t.Errorf("missing reason %q", code)
	}

	types := forTwo.PotentialBridgeTypes
	wantTypes := []graph.BridgeType{graph.BridgeGeographic, graph.BridgeThematic, graph.BridgeSpontaneous}
	if !reflect.DeepEqual(types, wantTypes) {
		t.Errorf("potential types = %v, want %v", types, wantTypes)
	}
}

func TestRecommendEstimatedStrength(t *testing.T) {
	e := NewEngine(DefaultConfig())

	// Same pack type, no locations, no shared bridges: the estimate is the
	// thematic base strength.
	nodes := []graph.CommunityNode{
		{ID: 1, PackType: "food-coop", MemberCount: 10},
		{ID: 2, PackType: "food-coop", MemberCount: 10},
	}
	snap := buildSnapshot(t, nodes, nil)

	recs := e.Recommend(snap, 1, 10)
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(recs))
	}
	if math.Abs(recs[0].EstimatedStrength-0.5) > 1e-9 {
		t.Errorf("estimated strength = %v, want the 0.5 thematic base", recs[0].EstimatedStrength)
	}
}

func TestRecommendScoreBounds(t *testing.T) {
	e := NewEngine(DefaultConfig())
	origin := graph.GeoPoint{Lat: 48.2, Lng: 16.37}

	nodes := []graph.CommunityNode{
		{ID: 1, PackType: "p", MemberCount: 100, Location: &origin},
		{ID: 2, PackType: "p", MemberCount: 100, Location: &origin},
	}
	snap := buildSnapshot(t, nodes, nil)

	for _, r := range e.Recommend(snap, 1, 10) {
		if r.Score <= 0 || r.Score > 1 {
			t.Errorf("score %v outside (0,1]", r.Score)
		}
		if r.EstimatedStrength < 0 || r.EstimatedStrength > 1 {
			t.Errorf("estimated strength %v outside [0,1]", r.EstimatedStrength)
		}
	}
}

func TestRecommendDeterminism(t *testing.T) {
	e := NewEngine(DefaultConfig())
	origin := graph.GeoPoint{Lat: 48.2, Lng: 16.37}

	nodes := []graph.CommunityNode{
		{ID: 5, PackType: "a", MemberCount: 40, Location: &origin},
		{ID: 2, PackType: "a", MemberCount: 10},
		{ID: 9, PackType: "b", MemberCount: 40},
		{ID: 1, PackType: "a", MemberCount: 35, Location: &origin},
	}
	snap := buildSnapshot(t, nodes, nil)

	first := e.Recommend(snap, 5, 10)
	for i := 0; i < 5; i++ {
		if again := e.Recommend(snap, 5, 10); !reflect.DeepEqual(first, again) {
			t.Fatal("identical inputs produced different recommendation lists")
		}
	}
}
