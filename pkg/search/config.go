package search

import (
	"github.com/soundprediction/recall/pkg/types"
)

// SearchMethod selects one retrieval channel.
type SearchMethod string

const (
	// MethodCosineSimilarity retrieves by embedding similarity.
	MethodCosineSimilarity SearchMethod = "cosine_similarity"

	// MethodBM25 retrieves by lexical term relevance.
	MethodBM25 SearchMethod = "bm25"

	// MethodBFS retrieves by breadth-first graph traversal from center nodes.
	MethodBFS SearchMethod = "bfs"
)

// Reranker selects the fusion strategy applied to channel results.
type Reranker string

const (
	RerankerRRF             Reranker = "rrf"
	RerankerNodeDistance    Reranker = "node_distance"
	RerankerEpisodeMentions Reranker = "episode_mentions"
	RerankerMMR             Reranker = "mmr"
	RerankerCrossEncoder    Reranker = "cross_encoder"
)

// Defaults applied when a config value is zero.
const (
	DefaultLimit            = 10
	DefaultMMRLambda        = 0.5
	DefaultBFSMaxDepth      = 3
	DefaultSimMinScore      = 0.0
	DefaultRerankerMinScore = 0.0
	DefaultRankConstant     = 60
)

// Allowed method and reranker sets per kind. These enumerations are closed:
// the planner rejects anything outside them.
var (
	edgeSearchMethods = map[SearchMethod]bool{
		MethodCosineSimilarity: true,
		MethodBM25:             true,
		MethodBFS:              true,
	}
	nodeSearchMethods = map[SearchMethod]bool{
		MethodCosineSimilarity: true,
		MethodBM25:             true,
		MethodBFS:              true,
	}
	episodeSearchMethods = map[SearchMethod]bool{
		MethodBM25: true,
	}
	communitySearchMethods = map[SearchMethod]bool{
		MethodCosineSimilarity: true,
		MethodBM25:             true,
	}

	edgeRerankers = map[Reranker]bool{
		RerankerRRF:             true,
		RerankerNodeDistance:    true,
		RerankerEpisodeMentions: true,
		RerankerMMR:             true,
		RerankerCrossEncoder:    true,
	}
	nodeRerankers = map[Reranker]bool{
		RerankerRRF:             true,
		RerankerNodeDistance:    true,
		RerankerEpisodeMentions: true,
		RerankerMMR:             true,
		RerankerCrossEncoder:    true,
	}
	episodeRerankers = map[Reranker]bool{
		RerankerRRF:          true,
		RerankerCrossEncoder: true,
	}
	communityRerankers = map[Reranker]bool{
		RerankerRRF:          true,
		RerankerMMR:          true,
		RerankerCrossEncoder: true,
	}
)

// Float64 returns a pointer to v, for optional float fields such as
// KindConfig.MMRLambda where zero carries meaning.
func Float64(v float64) *float64 {
	return &v
}

func allowedMethods(kind types.Kind) map[SearchMethod]bool {
	switch kind {
	case types.EdgeKind:
		return edgeSearchMethods
	case types.NodeKind:
		return nodeSearchMethods
	case types.EpisodeKind:
		return episodeSearchMethods
	case types.CommunityKind:
		return communitySearchMethods
	}
	return nil
}

func allowedRerankers(kind types.Kind) map[Reranker]bool {
	switch kind {
	case types.EdgeKind:
		return edgeRerankers
	case types.NodeKind:
		return nodeRerankers
	case types.EpisodeKind:
		return episodeRerankers
	case types.CommunityKind:
		return communityRerankers
	}
	return nil
}

// KindConfig selects channels and the reranker for one entity kind.
type KindConfig struct {
	SearchMethods []SearchMethod `json:"search_methods"`
	Reranker      Reranker       `json:"reranker"`

	// SimMinScore drops cosine channel results below this similarity.
	SimMinScore float64 `json:"sim_min_score,omitempty"`

	// MMRLambda balances relevance against diversity for the MMR reranker,
	// in [0, 1]. Zero is a deliberate pure-diversity pass; nil applies the
	// default of DefaultMMRLambda.
	MMRLambda *float64 `json:"mmr_lambda,omitempty"`

	// BFSMaxDepth bounds graph traversal depth for the BFS channel.
	BFSMaxDepth int `json:"bfs_max_depth,omitempty"`
}

// SearchConfig configures one request. A nil per-kind section skips that
// kind entirely.
type SearchConfig struct {
	Edge      *KindConfig `json:"edge,omitempty"`
	Node      *KindConfig `json:"node,omitempty"`
	Episode   *KindConfig `json:"episode,omitempty"`
	Community *KindConfig `json:"community,omitempty"`

	// Limit caps the ranked results returned per kind.
	Limit int `json:"limit,omitempty"`

	// RerankerMinScore drops fused results below this score.
	RerankerMinScore float64 `json:"reranker_min_score,omitempty"`

	// RankConstant is the RRF k constant.
	RankConstant int `json:"rank_constant,omitempty"`
}

// DefaultKindConfig returns the default channels and reranker for a kind.
func DefaultKindConfig(kind types.Kind) *KindConfig {
	switch kind {
	case types.EpisodeKind:
		return &KindConfig{
			SearchMethods: []SearchMethod{MethodBM25},
			Reranker:      RerankerRRF,
		}
	default:
		return &KindConfig{
			SearchMethods: []SearchMethod{MethodCosineSimilarity, MethodBM25},
			Reranker:      RerankerRRF,
			SimMinScore:   DefaultSimMinScore,
			MMRLambda:     Float64(DefaultMMRLambda),
			BFSMaxDepth:   DefaultBFSMaxDepth,
		}
	}
}

// DefaultSearchConfig returns the hybrid cosine+BM25/RRF configuration over
// all four kinds.
func DefaultSearchConfig() *SearchConfig {
	return &SearchConfig{
		Edge:      DefaultKindConfig(types.EdgeKind),
		Node:      DefaultKindConfig(types.NodeKind),
		Episode:   DefaultKindConfig(types.EpisodeKind),
		Community: DefaultKindConfig(types.CommunityKind),
		Limit:     DefaultLimit,
	}
}

// EdgeOnlySearchConfig returns the configuration used by simple fact search.
func EdgeOnlySearchConfig(limit int) *SearchConfig {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &SearchConfig{
		Edge:  DefaultKindConfig(types.EdgeKind),
		Limit: limit,
	}
}

func (c *SearchConfig) kindConfig(kind types.Kind) *KindConfig {
	switch kind {
	case types.EdgeKind:
		return c.Edge
	case types.NodeKind:
		return c.Node
	case types.EpisodeKind:
		return c.Episode
	case types.CommunityKind:
		return c.Community
	}
	return nil
}
