package graph

import (
	"testing"
	"time"
)

func testNodes(ids ...uint64) []CommunityNode {
	nodes := make([]CommunityNode, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, CommunityNode{ID: id, MemberCount: int(id) * 10})
	}
	return nodes
}

func TestNewSnapshotDropsSelfEdges(t *testing.T) {
	snap := NewSnapshot(1, time.Now(), testNodes(1, 2), []BridgeEdge{
		{Source: 1, Target: 1, Type: BridgeThematic, Strength: 0.5},
		{Source: 1, Target: 2, Type: BridgeThematic, Strength: 0.5},
	})

	if snap.EdgeCount() != 1 {
		t.Fatalf("expected 1 edge, got %d", snap.EdgeCount())
	}
}

func TestNewSnapshotDropsUnknownEndpoints(t *testing.T) {
	snap := NewSnapshot(1, time.Now(), testNodes(1, 2), []BridgeEdge{
		{Source: 1, Target: 99, Type: BridgeGeographic, Strength: 0.5},
		{Source: 99, Target: 2, Type: BridgeGeographic, Strength: 0.5},
		{Source: 1, Target: 2, Type: BridgeGeographic, Strength: 0.5},
	})

	if snap.EdgeCount() != 1 {
		t.Fatalf("expected 1 edge, got %d", snap.EdgeCount())
	}
}

func TestNewSnapshotCanonicalisesSymmetricEdges(t *testing.T) {
	snap := NewSnapshot(1, time.Now(), testNodes(1, 2), []BridgeEdge{
		{Source: 2, Target: 1, Type: BridgeGeographic, Strength: 0.5},
	})

	edges := snap.Edges()
	if len(edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(edges))
	}
	if edges[0].Source != 1 || edges[0].Target != 2 {
		t.Errorf("edge stored as (%d,%d), want (1,2)", edges[0].Source, edges[0].Target)
	}

	// The reversed flavour of the same symmetric pair replaces, not adds.
	snap = NewSnapshot(1, time.Now(), testNodes(1, 2), []BridgeEdge{
		{Source: 2, Target: 1, Type: BridgeGeographic, Strength: 0.5},
		{Source: 1, Target: 2, Type: BridgeGeographic, Strength: 0.9},
	})
	if snap.EdgeCount() != 1 {
		t.Errorf("symmetric duplicates stored separately: %d edges", snap.EdgeCount())
	}
}

func TestNewSnapshotClampsStrength(t *testing.T) {
	snap := NewSnapshot(1, time.Now(), testNodes(1, 2, 3), []BridgeEdge{
		{Source: 1, Target: 2, Type: BridgeGeographic, Strength: 1.7},
		{Source: 2, Target: 3, Type: BridgeGeographic, Strength: -0.2},
	})

	for _, e := range snap.Edges() {
		if e.Strength < 0 || e.Strength > 1 {
			t.Errorf("edge (%d,%d) strength %v outside [0,1]", e.Source, e.Target, e.Strength)
		}
	}
}

func TestSnapshotAdjacency(t *testing.T) {
	snap := NewSnapshot(1, time.Now(), testNodes(1, 2, 3, 4), []BridgeEdge{
		{Source: 1, Target: 2, Type: BridgeGeographic, Strength: 0.5},
		{Source: 1, Target: 3, Type: BridgeThematic, Strength: 0.5},
		{Source: 2, Target: 1, Type: BridgeMentorship, Strength: 0.7},
	})

	edges := snap.EdgesOf(1)
	if len(edges) != 3 {
		t.Fatalf("expected 3 edges touching 1, got %d", len(edges))
	}

	// Directional edges are visible from both endpoints.
	found := false
	for _, e := range snap.EdgesOf(1) {
		if e.Type == BridgeMentorship && e.Source == 2 && e.Target == 1 {
			found = true
		}
	}
	if !found {
		t.Error("mentorship edge not visible from target endpoint")
	}

	neighbors := snap.Neighbors(1)
	if len(neighbors) != 2 || neighbors[0] != 2 || neighbors[1] != 3 {
		t.Errorf("Neighbors(1) = %v, want [2 3]", neighbors)
	}

	if snap.EdgesOf(4) != nil {
		t.Error("unconnected community should have no adjacency entry")
	}
	if snap.EdgesOf(99) != nil {
		t.Error("unknown community should have no adjacency entry")
	}
}

func TestSnapshotHasBridge(t *testing.T) {
	snap := NewSnapshot(1, time.Now(), testNodes(1, 2, 3), []BridgeEdge{
		{Source: 3, Target: 1, Type: BridgeSupplyChain, Strength: 0.4},
	})

	if !snap.HasBridge(1, 3) || !snap.HasBridge(3, 1) {
		t.Error("HasBridge must hold in both directions")
	}
	if snap.HasBridge(1, 2) {
		t.Error("HasBridge reported a bridge that does not exist")
	}
}

func TestSnapshotListingsAreSorted(t *testing.T) {
	snap := NewSnapshot(1, time.Now(), testNodes(5, 1, 3), []BridgeEdge{
		{Source: 5, Target: 3, Type: BridgeGeographic, Strength: 0.5},
		{Source: 3, Target: 1, Type: BridgeGeographic, Strength: 0.5},
	})

	nodes := snap.Nodes()
	for i := 1; i < len(nodes); i++ {
		if nodes[i-1].ID >= nodes[i].ID {
			t.Fatalf("Nodes not sorted: %d before %d", nodes[i-1].ID, nodes[i].ID)
		}
	}

	edges := snap.Edges()
	for i := 1; i < len(edges); i++ {
		if !edges[i-1].Key().Less(edges[i].Key()) {
			t.Fatalf("Edges not sorted at index %d", i)
		}
	}
}

func TestSnapshotPairCarriesMultipleTypes(t *testing.T) {
	snap := NewSnapshot(1, time.Now(), testNodes(1, 2), []BridgeEdge{
		{Source: 1, Target: 2, Type: BridgeGeographic, Strength: 0.8},
		{Source: 1, Target: 2, Type: BridgeThematic, Strength: 0.5},
		{Source: 1, Target: 2, Type: BridgeSpontaneous, Strength: 0.3},
	})

	if snap.EdgeCount() != 3 {
		t.Errorf("expected 3 typed edges for the pair, got %d", snap.EdgeCount())
	}
	if n := snap.Neighbors(1); len(n) != 1 {
		t.Errorf("Neighbors must deduplicate across types, got %v", n)
	}
}
