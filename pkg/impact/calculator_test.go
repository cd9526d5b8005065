package impact

import (
	"testing"

	"github.com/communeos/bridgenet/pkg/graph"
)

func TestCalculatorCachesPerVersion(t *testing.T) {
	c := NewCalculator(DefaultConfig())
	snap := buildSnapshot(t, 1, tenNodes(), []graph.BridgeEdge{
		{Source: 1, Target: 2, Type: graph.BridgeGeographic, Strength: 0.8},
	})

	first := c.Impact(snap, 1)
	second := c.Impact(snap, 1)
	if first != second {
		t.Error("repeated lookups on one snapshot must return the same record")
	}

	c.mu.RLock()
	_, cached := c.cache[1][1]
	c.mu.RUnlock()
	if !cached {
		t.Error("record not cached after first lookup")
	}
}

func TestCalculatorNewVersionRecomputes(t *testing.T) {
	c := NewCalculator(DefaultConfig())

	v1 := buildSnapshot(t, 1, tenNodes(), []graph.BridgeEdge{
		{Source: 1, Target: 2, Type: graph.BridgeGeographic, Strength: 0.8},
	})
	v2 := buildSnapshot(t, 2, tenNodes(), nil)

	if got := c.Impact(v1, 1).BridgeCount; got != 1 {
		t.Fatalf("v1 bridge count = %d", got)
	}
	if got := c.Impact(v2, 1).BridgeCount; got != 0 {
		t.Errorf("v2 bridge count = %d, cache leaked across versions", got)
	}
}

func TestCalculatorEvictsOldVersions(t *testing.T) {
	c := NewCalculator(DefaultConfig())

	for v := uint64(1); v <= 5; v++ {
		snap := buildSnapshot(t, v, tenNodes(), nil)
		c.Impact(snap, 1)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.cache) > c.keepVersions {
		t.Errorf("%d cached versions, retention window is %d", len(c.cache), c.keepVersions)
	}
	if _, ok := c.cache[5]; !ok {
		t.Error("latest version missing from cache")
	}
	if _, ok := c.cache[1]; ok {
		t.Error("oldest version not evicted")
	}
}

func TestCalculatorAll(t *testing.T) {
	c := NewCalculator(DefaultConfig())
	nodes := []graph.CommunityNode{
		{ID: 3, MemberCount: 10},
		{ID: 1, MemberCount: 10},
		{ID: 2, MemberCount: 10},
	}
	snap := buildSnapshot(t, 1, nodes, []graph.BridgeEdge{
		{Source: 1, Target: 2, Type: graph.BridgeGeographic, Strength: 0.5},
	})

	records := c.All(snap)
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i, id := range []uint64{1, 2, 3} {
		if records[i].CommunityID != id {
			t.Errorf("record %d is for community %d, want %d", i, records[i].CommunityID, id)
		}
	}
	if records[2].Reputation != ReputationEmerging {
		t.Errorf("unbridged community reputation = %q", records[2].Reputation)
	}
}
