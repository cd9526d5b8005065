package impact

import (
	"sync"

	"github.com/communeos/bridgenet/pkg/graph"
)

// Calculator computes impact records with a per-snapshot-version cache.
// Records for a version never change, so a hit is always valid; caches for
// superseded versions are dropped as new versions arrive.
type Calculator struct {
	cfg Config

	mu    sync.RWMutex
	cache map[uint64]map[uint64]ImpactRecord // version -> community -> record

	// keepVersions bounds how many snapshot versions stay cached. Readers
	// may still hold a slightly older snapshot mid-request.
	keepVersions int
}

// NewCalculator creates a calculator with the given thresholds.
func NewCalculator(cfg Config) *Calculator {
	return &Calculator{
		cfg:          cfg,
		cache:        make(map[uint64]map[uint64]ImpactRecord),
		keepVersions: 2,
	}
}

// Impact returns the impact record for communityID derived from snap.
func (c *Calculator) Impact(snap *graph.NetworkSnapshot, communityID uint64) ImpactRecord {
	version := snap.Version()

	c.mu.RLock()
	if byCommunity, ok := c.cache[version]; ok {
		if rec, ok := byCommunity[communityID]; ok {
			c.mu.RUnlock()
			return rec
		}
	}
	c.mu.RUnlock()

	rec := compute(c.cfg, snap, communityID)

	c.mu.Lock()
	byCommunity, ok := c.cache[version]
	if !ok {
		byCommunity = make(map[uint64]ImpactRecord)
		c.cache[version] = byCommunity
		c.evictLocked(version)
	}
	byCommunity[communityID] = rec
	c.mu.Unlock()

	return rec
}

// All returns records for every community in the snapshot, ordered by id.
func (c *Calculator) All(snap *graph.NetworkSnapshot) []ImpactRecord {
	nodes := snap.Nodes()
	out := make([]ImpactRecord, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, c.Impact(snap, n.ID))
	}
	return out
}

// evictLocked drops cached versions older than the retention window.
// Caller holds c.mu.
func (c *Calculator) evictLocked(latest uint64) {
	for v := range c.cache {
		if v+uint64(c.keepVersions) <= latest {
			delete(c.cache, v)
		}
	}
}
