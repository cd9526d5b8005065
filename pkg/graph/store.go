package graph

import (
	"sync"
	"sync/atomic"
	"time"
)

// Store owns the current snapshot pointer. Reads are lock-free atomic loads;
// commits are serialised through a single-writer mutex and rejected when the
// caller's base version no longer matches the current one (optimistic
// concurrency). Superseded snapshots stay valid for readers still holding
// them and are reclaimed by the garbage collector once unreferenced.
type Store struct {
	current atomic.Pointer[NetworkSnapshot]

	mu     sync.Mutex // serialises Commit
	closed bool
	now    func() time.Time
}

// NewStore creates a store initialised with an empty version-0 snapshot.
func NewStore() *Store {
	s := &Store{now: time.Now}
	s.current.Store(NewSnapshot(0, s.now(), nil, nil))
	return s
}

// Current returns the current snapshot. Non-blocking, O(1).
func (s *Store) Current() *NetworkSnapshot {
	return s.current.Load()
}

// Commit replaces the current snapshot with one built from nodes and edges,
// provided the caller's baseVersion still matches the current version.
// Returns the new version on success and ErrStaleSnapshot when another
// commit happened since the caller read its base; the caller must re-run
// detection against the new current snapshot and retry.
func (s *Store) Commit(baseVersion uint64, nodes []CommunityNode, edges []BridgeEdge) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, NewError("Commit").Snapshot(baseVersion).Wrap(ErrStoreClosed)
	}

	cur := s.current.Load()
	if cur.Version() != baseVersion {
		return 0, NewError("Commit").Snapshot(cur.Version()).Wrap(ErrStaleSnapshot)
	}

	next := NewSnapshot(cur.Version()+1, s.now(), nodes, edges)
	s.current.Store(next)
	return next.Version(), nil
}

// Close marks the store closed. Reads keep working against the last
// committed snapshot; further commits fail with ErrStoreClosed.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
