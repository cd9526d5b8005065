package graph

import (
	"sort"
	"time"

	"golang.org/x/exp/maps"
)

// NetworkSnapshot is an immutable, versioned view of the whole community
// graph. Readers that hold a snapshot keep seeing it unchanged even after a
// newer version is committed; there are no locks on the read path.
type NetworkSnapshot struct {
	version   uint64
	createdAt time.Time

	nodes map[uint64]CommunityNode
	edges map[EdgeKey]BridgeEdge

	// adjacency lists every edge touching a node, both directions.
	adjacency map[uint64][]BridgeEdge
}

// NewSnapshot builds a snapshot from node and edge sets. Self-edges are
// discarded, symmetric edge keys are canonicalised to (low, high) order,
// strengths are clamped to [0,1], and edges referencing unknown communities
// are dropped. The input slices are copied; callers may reuse them.
func NewSnapshot(version uint64, createdAt time.Time, nodes []CommunityNode, edges []BridgeEdge) *NetworkSnapshot {
	s := &NetworkSnapshot{
		version:   version,
		createdAt: createdAt,
		nodes:     make(map[uint64]CommunityNode, len(nodes)),
		edges:     make(map[EdgeKey]BridgeEdge, len(edges)),
		adjacency: make(map[uint64][]BridgeEdge),
	}

	for _, n := range nodes {
		s.nodes[n.ID] = n
	}

	for _, e := range edges {
		if e.Source == e.Target {
			continue
		}
		if _, ok := s.nodes[e.Source]; !ok {
			continue
		}
		if _, ok := s.nodes[e.Target]; !ok {
			continue
		}

		key := e.Key().Canonical()
		e.Source, e.Target = key.Source, key.Target
		e.Strength = Clamp01(e.Strength)
		s.edges[key] = e
	}

	for _, e := range s.edges {
		s.adjacency[e.Source] = append(s.adjacency[e.Source], e)
		s.adjacency[e.Target] = append(s.adjacency[e.Target], e)
	}
	for id := range s.adjacency {
		sortEdges(s.adjacency[id])
	}

	return s
}

// Version returns the snapshot's version counter.
func (s *NetworkSnapshot) Version() uint64 { return s.version }

// CreatedAt returns the commit time of the snapshot.
func (s *NetworkSnapshot) CreatedAt() time.Time { return s.createdAt }

// NodeCount returns the number of communities in the snapshot.
func (s *NetworkSnapshot) NodeCount() int { return len(s.nodes) }

// EdgeCount returns the number of bridge edges in the snapshot.
func (s *NetworkSnapshot) EdgeCount() int { return len(s.edges) }

// Node returns the community with the given id.
func (s *NetworkSnapshot) Node(id uint64) (CommunityNode, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// Nodes returns all communities ordered by id.
func (s *NetworkSnapshot) Nodes() []CommunityNode {
	ids := maps.Keys(s.nodes)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]CommunityNode, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.nodes[id])
	}
	return out
}

// Edges returns all bridge edges in deterministic key order.
func (s *NetworkSnapshot) Edges() []BridgeEdge {
	out := maps.Values(s.edges)
	sortEdges(out)
	return out
}

// EdgesOf returns every edge touching communityID, either direction,
// ordered by key. The returned slice must not be modified.
func (s *NetworkSnapshot) EdgesOf(communityID uint64) []BridgeEdge {
	return s.adjacency[communityID]
}

// Neighbors returns the distinct communities bridged to communityID by any
// edge type, either direction, ordered by id.
func (s *NetworkSnapshot) Neighbors(communityID uint64) []uint64 {
	seen := make(map[uint64]bool)
	for _, e := range s.adjacency[communityID] {
		seen[e.Other(communityID)] = true
	}

	out := maps.Keys(seen)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NeighborSet returns the set of communities bridged to communityID.
func (s *NetworkSnapshot) NeighborSet(communityID uint64) map[uint64]bool {
	set := make(map[uint64]bool)
	for _, e := range s.adjacency[communityID] {
		set[e.Other(communityID)] = true
	}
	return set
}

// HasBridge reports whether any edge of any type connects a and b, in
// either direction.
func (s *NetworkSnapshot) HasBridge(a, b uint64) bool {
	for _, e := range s.adjacency[a] {
		if e.Other(a) == b {
			return true
		}
	}
	return false
}

func sortEdges(edges []BridgeEdge) {
	sort.Slice(edges, func(i, j int) bool { return edges[i].Key().Less(edges[j].Key()) })
}
