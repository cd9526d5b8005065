package api

import (
	"net/http"

	"github.com/communeos/bridgenet/pkg/graph"
	"github.com/communeos/bridgenet/pkg/logging"
)

type bridgesResponse struct {
	CommunityID     uint64             `json:"community_id"`
	SnapshotVersion uint64             `json:"snapshot_version"`
	Bridges         []graph.BridgeEdge `json:"bridges"`
}

// handleBridges serves GET /bridges/{communityId}.
func (s *Server) handleBridges(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id, ok := pathID(w, r, "/bridges/")
	if !ok {
		return
	}

	snap := s.store.Current()
	edges := snap.EdgesOf(id)
	if edges == nil {
		// Unknown or unconnected community: an empty list, not an error.
		edges = []graph.BridgeEdge{}
	}

	writeJSON(w, http.StatusOK, bridgesResponse{
		CommunityID:     id,
		SnapshotVersion: snap.Version(),
		Bridges:         edges,
	})
}

// handleImpact serves GET /impact/{communityId}.
func (s *Server) handleImpact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id, ok := pathID(w, r, "/impact/")
	if !ok {
		return
	}

	if s.registry != nil {
		s.registry.ImpactRequests.Inc()
	}
	writeJSON(w, http.StatusOK, s.calculator.Impact(s.store.Current(), id))
}

// handleRecommendations serves GET /recommendations/{communityId}?top_k=N.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id, ok := pathID(w, r, "/recommendations/")
	if !ok {
		return
	}
	topK, ok := queryInt(w, r, "top_k", 0)
	if !ok {
		return
	}

	if s.registry != nil {
		s.registry.RecommendationRequests.Inc()
	}
	snap := s.store.Current()
	writeJSON(w, http.StatusOK, map[string]any{
		"community_id":     id,
		"snapshot_version": snap.Version(),
		"recommendations":  s.engine.Recommend(snap, id, topK),
	})
}

// handleSnapshotVersion serves GET /snapshot/version. Pollers use it to
// notice that a new snapshot was committed.
func (s *Server) handleSnapshotVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	snap := s.store.Current()
	writeJSON(w, http.StatusOK, map[string]any{
		"version":      snap.Version(),
		"committed_at": snap.CreatedAt(),
		"communities":  snap.NodeCount(),
		"bridges":      snap.EdgeCount(),
	})
}

// handleCommunities serves GET /communities: the snapshot's node list.
func (s *Server) handleCommunities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	snap := s.store.Current()
	writeJSON(w, http.StatusOK, map[string]any{
		"snapshot_version": snap.Version(),
		"communities":      snap.Nodes(),
	})
}

// handleRecompute serves POST /recompute: a manual trigger, answered with
// the job id before the run completes.
func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.sched == nil {
		writeError(w, http.StatusServiceUnavailable, "scheduler not running")
		return
	}

	jobID, err := s.sched.TriggerRecompute("manual")
	if err != nil {
		s.log.Error("manual recompute trigger failed", logging.Error(err))
		writeError(w, http.StatusServiceUnavailable, "recompute unavailable")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}
