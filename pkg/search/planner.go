package search

import (
	"fmt"

	"github.com/soundprediction/recall/pkg/types"
)

// Query is one search request.
type Query struct {
	// Text is the natural-language query.
	Text string `json:"text"`

	// GroupIDs scopes the search; no cross-group read is ever performed.
	GroupIDs []string `json:"group_ids"`

	// Config selects channels and rerankers. Nil applies the defaults.
	Config *SearchConfig `json:"config,omitempty"`

	// Filters prune the fused candidate set.
	Filters *SearchFilters `json:"filters,omitempty"`

	// CenterNodeUUIDs seed BFS traversal and anchor node-distance reranking.
	CenterNodeUUIDs []string `json:"center_node_uuids,omitempty"`
}

// channelTask is one independent retrieval channel execution.
type channelTask struct {
	kind   types.Kind
	method SearchMethod
}

// plan is the validated, default-resolved execution plan for one query.
type plan struct {
	config  SearchConfig
	kinds   []types.Kind
	tasks   []channelTask
	filters *SearchFilters
	centers []string

	// needsEmbedding is set when any cosine channel or MMR reranker runs.
	needsEmbedding bool

	// needsTraversal is set when any BFS channel or node-distance reranker
	// runs; the traversal itself is shared across consumers.
	needsTraversal bool
}

// buildPlan validates the query and resolves defaults. Pure: no collaborator
// calls, no side effects.
func buildPlan(q Query) (*plan, error) {
	if len(q.GroupIDs) == 0 {
		return nil, fmt.Errorf("at least one group id is required: %w", ErrInvalidConfig)
	}
	if err := q.Filters.Validate(); err != nil {
		return nil, err
	}

	config := SearchConfig{}
	if q.Config != nil {
		config = *q.Config
	} else {
		config = *DefaultSearchConfig()
	}
	if config.Limit <= 0 {
		config.Limit = DefaultLimit
	}
	if config.RankConstant <= 0 {
		config.RankConstant = DefaultRankConstant
	}

	p := &plan{
		config:  config,
		filters: q.Filters,
		centers: q.CenterNodeUUIDs,
	}

	for _, kind := range types.Kinds() {
		kindConfig := config.kindConfig(kind)
		if kindConfig == nil {
			continue
		}

		resolved := *kindConfig
		if len(resolved.SearchMethods) == 0 {
			resolved.SearchMethods = DefaultKindConfig(kind).SearchMethods
		}
		if resolved.Reranker == "" {
			resolved.Reranker = RerankerRRF
		}
		if resolved.MMRLambda == nil {
			resolved.MMRLambda = Float64(DefaultMMRLambda)
		} else if *resolved.MMRLambda < 0 || *resolved.MMRLambda > 1 {
			return nil, fmt.Errorf("mmr lambda %v must be in [0, 1]: %w", *resolved.MMRLambda, ErrInvalidConfig)
		}
		if resolved.BFSMaxDepth <= 0 {
			resolved.BFSMaxDepth = DefaultBFSMaxDepth
		}

		methods := allowedMethods(kind)
		for _, method := range resolved.SearchMethods {
			if !methods[method] {
				return nil, fmt.Errorf("search method %q is not valid for kind %s: %w", method, kind, ErrInvalidConfig)
			}
		}
		if !allowedRerankers(kind)[resolved.Reranker] {
			return nil, fmt.Errorf("reranker %q is not valid for kind %s: %w", resolved.Reranker, kind, ErrInvalidConfig)
		}
		if resolved.Reranker == RerankerNodeDistance && len(q.CenterNodeUUIDs) == 0 {
			return nil, fmt.Errorf("node distance reranker requires center node uuids: %w", ErrInvalidConfig)
		}

		setKindConfig(&p.config, kind, &resolved)
		p.kinds = append(p.kinds, kind)

		for _, method := range resolved.SearchMethods {
			p.tasks = append(p.tasks, channelTask{kind: kind, method: method})
			if method == MethodCosineSimilarity {
				p.needsEmbedding = true
			}
			if method == MethodBFS {
				p.needsTraversal = true
			}
		}
		if resolved.Reranker == RerankerMMR {
			p.needsEmbedding = true
		}
		if resolved.Reranker == RerankerNodeDistance {
			p.needsTraversal = true
		}
	}

	return p, nil
}

func setKindConfig(config *SearchConfig, kind types.Kind, kindConfig *KindConfig) {
	switch kind {
	case types.EdgeKind:
		config.Edge = kindConfig
	case types.NodeKind:
		config.Node = kindConfig
	case types.EpisodeKind:
		config.Episode = kindConfig
	case types.CommunityKind:
		config.Community = kindConfig
	}
}
