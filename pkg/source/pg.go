package source

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/communeos/bridgenet/pkg/detect"
	"github.com/communeos/bridgenet/pkg/graph"
)

// PGFeed pulls engine inputs from the platform's PostgreSQL schema.
// The engine only reads; the community service owns the tables.
type PGFeed struct {
	pool *pgxpool.Pool
}

// NewPGFeed connects to the platform database.
func NewPGFeed(ctx context.Context, databaseURL string) (*PGFeed, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pooling configuration
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &PGFeed{pool: pool}, nil
}

// Ping checks database connectivity.
func (f *PGFeed) Ping(ctx context.Context) error {
	return f.pool.Ping(ctx)
}

// Close closes the connection pool.
func (f *PGFeed) Close() {
	f.pool.Close()
}

// ListCommunities returns all community records.
func (f *PGFeed) ListCommunities(ctx context.Context) ([]graph.CommunityNode, error) {
	rows, err := f.pool.Query(ctx, `
		SELECT id, name, slug, latitude, longitude, pack_type,
		       COALESCE(feature_tags, '{}'), member_count,
		       COALESCE(setup_completion, 0), created_at
		FROM communities
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query communities: %w", err)
	}
	defer rows.Close()

	var out []graph.CommunityNode
	for rows.Next() {
		var (
			c        graph.CommunityNode
			lat, lng *float64
			packType *string
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &lat, &lng, &packType,
			&c.FeatureTags, &c.MemberCount, &c.SetupCompletion, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan community: %w", err)
		}
		if lat != nil && lng != nil {
			c.Location = &graph.GeoPoint{Lat: *lat, Lng: *lng}
		}
		if packType != nil {
			c.PackType = *packType
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// MembershipOverlaps computes shared-member counts as an exact set
// intersection over the membership table. Exact intersection is O(total
// memberships) with the pairwise self-join bounded by members in more than
// one community; if communities grow past tens of thousands of members the
// query should move to a sampled or sketch-based estimate.
func (f *PGFeed) MembershipOverlaps(ctx context.Context) ([]detect.MembershipOverlap, error) {
	rows, err := f.pool.Query(ctx, `
		SELECT a.community_id, b.community_id, COUNT(*)
		FROM community_members a
		JOIN community_members b
		  ON a.user_id = b.user_id AND a.community_id < b.community_id
		GROUP BY a.community_id, b.community_id
		HAVING COUNT(*) > 0`)
	if err != nil {
		return nil, fmt.Errorf("query membership overlaps: %w", err)
	}
	defer rows.Close()

	var out []detect.MembershipOverlap
	for rows.Next() {
		var ov detect.MembershipOverlap
		if err := rows.Scan(&ov.CommunityA, &ov.CommunityB, &ov.SharedMembers); err != nil {
			return nil, fmt.Errorf("scan overlap: %w", err)
		}
		out = append(out, ov)
	}
	return out, rows.Err()
}

// ExplicitLinkages returns declared linkage events.
func (f *PGFeed) ExplicitLinkages(ctx context.Context) ([]detect.Linkage, error) {
	rows, err := f.pool.Query(ctx, `
		SELECT source_id, target_id, linkage_type,
		       COALESCE(volume_metric, 0), declared_at
		FROM community_linkages
		ORDER BY declared_at`)
	if err != nil {
		return nil, fmt.Errorf("query linkages: %w", err)
	}
	defer rows.Close()

	var out []detect.Linkage
	for rows.Next() {
		var (
			l        detect.Linkage
			typeName string
		)
		if err := rows.Scan(&l.Source, &l.Target, &typeName, &l.Volume, &l.DeclaredAt); err != nil {
			return nil, fmt.Errorf("scan linkage: %w", err)
		}
		parsed, err := graph.ParseBridgeType(typeName)
		if err != nil {
			// Unknown declarations are the platform's problem, not ours;
			// the detector would drop them anyway.
			continue
		}
		l.Type = parsed
		out = append(out, l)
	}
	return out, rows.Err()
}
