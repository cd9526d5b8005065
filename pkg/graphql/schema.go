// Package graphql exposes a read-only GraphQL schema over the engine for
// dashboard consumers that prefer one round-trip over several REST calls.
package graphql

import (
	"github.com/graphql-go/graphql"

	"github.com/communeos/bridgenet/pkg/graph"
	"github.com/communeos/bridgenet/pkg/impact"
	"github.com/communeos/bridgenet/pkg/recommend"
)

// Resolver bundles the engine components the schema reads from.
type Resolver struct {
	Store      *graph.Store
	Calculator *impact.Calculator
	Engine     *recommend.Engine
}

// NewSchema builds the read-only query schema.
func NewSchema(r *Resolver) (graphql.Schema, error) {
	locationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Location",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	communityType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Community",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return int(p.Source.(graph.CommunityNode).ID), nil
				},
			},
			"name": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(graph.CommunityNode).Name, nil
				},
			},
			"slug": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(graph.CommunityNode).Slug, nil
				},
			},
			"packType": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(graph.CommunityNode).PackType, nil
				},
			},
			"memberCount": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(graph.CommunityNode).MemberCount, nil
				},
			},
			"location": &graphql.Field{
				Type: locationType,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					loc := p.Source.(graph.CommunityNode).Location
					if loc == nil {
						return nil, nil
					}
					return *loc, nil
				},
			},
		},
	})

	bridgeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bridge",
		Fields: graphql.Fields{
			"source": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return int(p.Source.(graph.BridgeEdge).Source), nil
				},
			},
			"target": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return int(p.Source.(graph.BridgeEdge).Target), nil
				},
			},
			"type": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(graph.BridgeEdge).Type.String(), nil
				},
			},
			"strength": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(graph.BridgeEdge).Strength, nil
				},
			},
			"sharedMembers": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(graph.BridgeEdge).SharedMembers, nil
				},
			},
		},
	})

	impactType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Impact",
		Fields: graphql.Fields{
			"communityId": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return int(p.Source.(impact.ImpactRecord).CommunityID), nil
				},
			},
			"bridgeCount": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(impact.ImpactRecord).BridgeCount, nil
				},
			},
			"networkReach": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(impact.ImpactRecord).NetworkReach, nil
				},
			},
			"centralityScore": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(impact.ImpactRecord).CentralityScore, nil
				},
			},
			"influenceScore": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(impact.ImpactRecord).InfluenceScore, nil
				},
			},
			"reputation": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return string(p.Source.(impact.ImpactRecord).Reputation), nil
				},
			},
		},
	})

	recommendationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Recommendation",
		Fields: graphql.Fields{
			"targetId": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return int(p.Source.(recommend.Recommendation).TargetID), nil
				},
			},
			"targetName": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(recommend.Recommendation).TargetName, nil
				},
			},
			"score": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(recommend.Recommendation).Score, nil
				},
			},
			"estimatedStrength": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(recommend.Recommendation).EstimatedStrength, nil
				},
			},
			"reasons": &graphql.Field{
				Type: graphql.NewList(graphql.String),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					codes := p.Source.(recommend.Recommendation).Reasons
					out := make([]string, len(codes))
					for i, c := range codes {
						out[i] = string(c)
					}
					return out, nil
				},
			},
			"potentialBridgeTypes": &graphql.Field{
				Type: graphql.NewList(graphql.String),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					types := p.Source.(recommend.Recommendation).PotentialBridgeTypes
					out := make([]string, len(types))
					for i, t := range types {
						out[i] = t.String()
					}
					return out, nil
				},
			},
		},
	})

	idArg := graphql.FieldConfigArgument{
		"communityId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"snapshotVersion": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return int(r.Store.Current().Version()), nil
				},
			},
			"communities": &graphql.Field{
				Type: graphql.NewList(communityType),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return r.Store.Current().Nodes(), nil
				},
			},
			"community": &graphql.Field{
				Type: communityType,
				Args: idArg,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					node, ok := r.Store.Current().Node(argID(p))
					if !ok {
						return nil, nil
					}
					return node, nil
				},
			},
			"bridges": &graphql.Field{
				Type: graphql.NewList(bridgeType),
				Args: idArg,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return r.Store.Current().EdgesOf(argID(p)), nil
				},
			},
			"impact": &graphql.Field{
				Type: impactType,
				Args: idArg,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return r.Calculator.Impact(r.Store.Current(), argID(p)), nil
				},
			},
			"recommendations": &graphql.Field{
				Type: graphql.NewList(recommendationType),
				Args: graphql.FieldConfigArgument{
					"communityId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"topK":        &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					topK, _ := p.Args["topK"].(int)
					return r.Engine.Recommend(r.Store.Current(), argID(p), topK), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: queryType})
}

func argID(p graphql.ResolveParams) uint64 {
	id, _ := p.Args["communityId"].(int)
	if id < 0 {
		return 0
	}
	return uint64(id)
}
