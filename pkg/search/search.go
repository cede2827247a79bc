package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/soundprediction/recall/pkg/crossencoder"
	"github.com/soundprediction/recall/pkg/driver"
	"github.com/soundprediction/recall/pkg/embedder"
	"github.com/soundprediction/recall/pkg/types"
	"github.com/soundprediction/recall/pkg/utils"
)

// Searcher orchestrates multi-channel retrieval and reranking over the
// graph read path. It never writes; its collaborators are the graph reader,
// the embedding client, and an optional cross-encoder.
type Searcher struct {
	reader       driver.GraphReader
	embedder     embedder.Client
	crossEncoder crossencoder.Client
	limiter      *utils.Limiter
	logger       *slog.Logger
}

// NewSearcher creates a Searcher. The limiter is shared across all queries
// served by this instance; nil falls back to a GOMAXPROCS-derived limit.
func NewSearcher(reader driver.GraphReader, embedderClient embedder.Client, crossEncoderClient crossencoder.Client, limiter *utils.Limiter, logger *slog.Logger) *Searcher {
	if limiter == nil {
		limiter = utils.NewLimiter(utils.DefaultSemaphoreLimit())
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{
		reader:       reader,
		embedder:     embedderClient,
		crossEncoder: crossEncoderClient,
		limiter:      limiter,
		logger:       logger,
	}
}

// SearchResults holds per-kind ranked items with parallel score arrays of
// matching length. Arrays are empty, never nil, so an empty match set
// serializes as [] rather than null.
type SearchResults struct {
	Edges      []*types.EntityEdge `json:"edges"`
	EdgeScores []float64           `json:"edge_scores"`

	Nodes      []*types.EntityNode `json:"nodes"`
	NodeScores []float64           `json:"node_scores"`

	Episodes      []*types.EpisodicNode `json:"episodes"`
	EpisodeScores []float64             `json:"episode_scores"`

	Communities     []*types.CommunityNode `json:"communities"`
	CommunityScores []float64              `json:"community_scores"`

	// Degraded is set when a reranking collaborator failed and the request
	// fell back to RRF. Not an error.
	Degraded bool `json:"degraded,omitempty"`
}

func newSearchResults() *SearchResults {
	return &SearchResults{
		Edges:           []*types.EntityEdge{},
		EdgeScores:      []float64{},
		Nodes:           []*types.EntityNode{},
		NodeScores:      []float64{},
		Episodes:        []*types.EpisodicNode{},
		EpisodeScores:   []float64{},
		Communities:     []*types.CommunityNode{},
		CommunityScores: []float64{},
	}
}

// channelOutcome is one channel's ranked uuid list, or its failure.
type channelOutcome struct {
	task  channelTask
	uuids []string
	err   error
}

// Search runs the full plan: fan out channels, fuse, filter, rerank,
// truncate. Per-kind failures are joined into the returned error while
// surviving kinds still populate the results.
func (s *Searcher) Search(ctx context.Context, q Query) (*SearchResults, error) {
	p, err := buildPlan(q)
	if err != nil {
		return nil, err
	}

	results := newSearchResults()

	// Over-fetch so filtering cannot artificially under-fill a page.
	candidateLimit := p.config.Limit * 2

	var queryVector []float32
	var embedErr error
	if p.needsEmbedding {
		queryVector, embedErr = s.embedQuery(ctx, q.Text)
		if embedErr != nil {
			s.logger.Warn("query embedding failed", "error", embedErr)
		}
	}

	// Phase 1: every non-BFS channel, concurrently under the shared limiter.
	outcomes := s.runChannels(ctx, p, q, queryVector, embedErr, candidateLimit)
	if ctx.Err() != nil {
		return nil, fmt.Errorf("search cancelled: %w", ErrTimeout)
	}

	// Phase 2: one shared traversal feeds BFS channels and the
	// node-distance reranker. Without explicit centers it is seeded from
	// the node uuids the other channels discovered.
	var trav *traversal
	var travErr error
	if p.needsTraversal {
		seeds := p.centers
		if len(seeds) == 0 {
			seeds = nodeSeeds(outcomes)
		}
		trav, travErr = breadthFirstSearch(ctx, s.reader, seeds, q.GroupIDs, maxTraversalDepth(p))
		if travErr != nil {
			s.logger.Warn("graph traversal failed", "error", travErr)
		}
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("search cancelled: %w", ErrTimeout)
	}

	var kindErrors []error
	for _, kind := range p.kinds {
		kindConfig := p.config.kindConfig(kind)
		rankings, channelErrs := collectKind(outcomes, kind, kindConfig, trav, travErr)

		for _, channelErr := range channelErrs {
			s.logger.Error("search channel failed", "kind", string(kind), "error", channelErr)
		}
		if len(rankings) == 0 {
			kindErrors = append(kindErrors, &KindError{Kind: kind, Errs: channelErrs})
			continue
		}

		if err := s.resolveKind(ctx, kind, kindConfig, &p.config, q, rankings, queryVector, trav, results); err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("search cancelled: %w", ErrTimeout)
			}
			kindErrors = append(kindErrors, &KindError{Kind: kind, Errs: append(channelErrs, err)})
		}
	}

	return results, errors.Join(kindErrors...)
}

func (s *Searcher) embedQuery(ctx context.Context, text string) ([]float32, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("no embedding client configured")
	}
	return s.embedder.EmbedSingle(ctx, text)
}

// runChannels executes every non-BFS task concurrently and returns one
// outcome per task, in task order.
func (s *Searcher) runChannels(ctx context.Context, p *plan, q Query, queryVector []float32, embedErr error, limit int) []channelOutcome {
	tasks := make([]channelTask, 0, len(p.tasks))
	for _, task := range p.tasks {
		if task.method != MethodBFS {
			tasks = append(tasks, task)
		}
	}

	functions := make([]func() ([]string, error), len(tasks))
	for i, task := range tasks {
		task := task
		kindConfig := p.config.kindConfig(task.kind)
		functions[i] = func() ([]string, error) {
			return s.runChannel(ctx, task, q, kindConfig, queryVector, embedErr, limit)
		}
	}

	uuidLists, errs := utils.GatherWithResults(ctx, s.limiter, functions...)

	outcomes := make([]channelOutcome, len(tasks))
	for i, task := range tasks {
		outcome := channelOutcome{task: task, uuids: uuidLists[i], err: errs[i]}
		if outcome.err != nil {
			outcome.err = &ChannelError{Kind: task.kind, Method: task.method, Err: outcome.err}
		}
		outcomes[i] = outcome
	}
	return outcomes
}

func (s *Searcher) runChannel(ctx context.Context, task channelTask, q Query, kindConfig *KindConfig, queryVector []float32, embedErr error, limit int) ([]string, error) {
	switch task.method {
	case MethodCosineSimilarity:
		if embedErr != nil {
			return nil, fmt.Errorf("query embedding unavailable: %w", embedErr)
		}
		scored, err := s.reader.VectorSearch(ctx, task.kind, queryVector, q.GroupIDs, limit)
		if err != nil {
			return nil, err
		}
		uuids := make([]string, 0, len(scored))
		for _, item := range scored {
			if item.Score < kindConfig.SimMinScore {
				continue
			}
			uuids = append(uuids, item.UUID)
		}
		return uuids, nil

	case MethodBM25:
		scored, err := s.reader.LexicalSearch(ctx, task.kind, q.Text, q.GroupIDs, limit)
		if err != nil {
			return nil, err
		}
		uuids := make([]string, len(scored))
		for i, item := range scored {
			uuids[i] = item.UUID
		}
		return uuids, nil
	}
	return nil, fmt.Errorf("unknown search method %q", task.method)
}

// collectKind gathers the kind's successful channel rankings, resolving the
// BFS channel from the shared traversal.
func collectKind(outcomes []channelOutcome, kind types.Kind, kindConfig *KindConfig, trav *traversal, travErr error) ([][]string, []error) {
	var rankings [][]string
	var errs []error

	for _, method := range kindConfig.SearchMethods {
		if method == MethodBFS {
			switch {
			case travErr != nil:
				errs = append(errs, &ChannelError{Kind: kind, Method: method, Err: travErr})
			case trav == nil:
				errs = append(errs, &ChannelError{Kind: kind, Method: method, Err: fmt.Errorf("no traversal seeds available")})
			case kind == types.EdgeKind:
				rankings = append(rankings, trav.edgeRanking())
			default:
				rankings = append(rankings, trav.nodeRanking())
			}
			continue
		}
		for _, outcome := range outcomes {
			if outcome.task.kind != kind || outcome.task.method != method {
				continue
			}
			if outcome.err != nil {
				errs = append(errs, outcome.err)
			} else {
				rankings = append(rankings, outcome.uuids)
			}
		}
	}
	return rankings, errs
}

// resolveKind hydrates, filters, reranks, and truncates one kind's fused
// candidates into the results.
func (s *Searcher) resolveKind(ctx context.Context, kind types.Kind, kindConfig *KindConfig, config *SearchConfig, q Query, rankings [][]string, queryVector []float32, trav *traversal, results *SearchResults) error {
	candidates := unionInOrder(rankings)
	if len(candidates) == 0 {
		return nil
	}

	hydrated, err := s.hydrate(ctx, kind, candidates)
	if err != nil {
		return fmt.Errorf("failed to fetch candidates: %w", err)
	}

	// Prune with filters before any truncation.
	surviving := make(map[string]bool, len(hydrated.byUUID))
	for uuid, record := range hydrated.byUUID {
		if record.matches(q.Filters) {
			surviving[uuid] = true
		}
	}

	filteredRankings := make([][]string, len(rankings))
	for i, ranking := range rankings {
		kept := make([]string, 0, len(ranking))
		for _, uuid := range ranking {
			if surviving[uuid] {
				kept = append(kept, uuid)
			}
		}
		filteredRankings[i] = kept
	}
	filteredCandidates := unionInOrder(filteredRankings)

	uuids, scores := s.rerank(ctx, kind, kindConfig, config, q, filteredRankings, filteredCandidates, queryVector, trav, hydrated, results)

	if len(uuids) > config.Limit {
		uuids = uuids[:config.Limit]
		scores = scores[:config.Limit]
	}

	hydrated.appendTo(results, kind, uuids, scores)
	return nil
}

func (s *Searcher) rerank(ctx context.Context, kind types.Kind, kindConfig *KindConfig, config *SearchConfig, q Query, rankings [][]string, candidates []string, queryVector []float32, trav *traversal, hydrated *hydratedKind, results *SearchResults) ([]string, []float64) {
	minScore := config.RerankerMinScore

	switch kindConfig.Reranker {
	case RerankerNodeDistance:
		if trav == nil {
			s.logger.Warn("graph traversal unavailable, falling back to rrf", "kind", string(kind))
			results.Degraded = true
			return RRF(rankings, config.RankConstant, minScore)
		}
		hops := trav.nodeHops
		if kind == types.EdgeKind {
			hops = trav.edgeHops
		}
		return NodeDistanceRerank(candidates, hops, minScore)

	case RerankerEpisodeMentions:
		mentions, err := s.episodeMentions(ctx, kind, candidates, hydrated)
		if err != nil {
			s.logger.Warn("episode mention lookup failed, falling back to rrf", "kind", string(kind), "error", err)
			results.Degraded = true
			return RRF(rankings, config.RankConstant, minScore)
		}
		return EpisodeMentionsRerank(candidates, mentions, minScore)

	case RerankerMMR:
		if len(queryVector) == 0 {
			s.logger.Warn("query embedding unavailable, falling back to rrf", "kind", string(kind))
			results.Degraded = true
			return RRF(rankings, config.RankConstant, minScore)
		}
		mmrLambda := DefaultMMRLambda
		if kindConfig.MMRLambda != nil {
			mmrLambda = *kindConfig.MMRLambda
		}
		return MaximalMarginalRelevance(queryVector, candidates, hydrated.embeddings(), mmrLambda, minScore)

	case RerankerCrossEncoder:
		uuids, scores, err := s.crossEncode(ctx, q.Text, candidates, hydrated, minScore)
		if err != nil {
			s.logger.Warn("cross-encoder rerank failed, falling back to rrf", "kind", string(kind), "error", err)
			results.Degraded = true
			return RRF(rankings, config.RankConstant, minScore)
		}
		return uuids, scores

	default:
		return RRF(rankings, config.RankConstant, minScore)
	}
}

func (s *Searcher) episodeMentions(ctx context.Context, kind types.Kind, candidates []string, hydrated *hydratedKind) (map[string]int, error) {
	if kind == types.EdgeKind {
		mentions := make(map[string]int, len(candidates))
		for _, uuid := range candidates {
			if record, exists := hydrated.byUUID[uuid]; exists && record.edge != nil {
				mentions[uuid] = len(record.edge.Episodes)
			}
		}
		return mentions, nil
	}
	return s.reader.EpisodeMentions(ctx, candidates)
}

func (s *Searcher) crossEncode(ctx context.Context, query string, candidates []string, hydrated *hydratedKind, minScore float64) ([]string, []float64, error) {
	if s.crossEncoder == nil {
		return nil, nil, fmt.Errorf("no cross-encoder client configured")
	}

	passages := make([]string, 0, len(candidates))
	passageUUIDs := make(map[string]string, len(candidates))
	for _, uuid := range candidates {
		record, exists := hydrated.byUUID[uuid]
		if !exists {
			continue
		}
		passage := record.passage()
		if passage == "" {
			continue
		}
		if _, duplicate := passageUUIDs[passage]; duplicate {
			continue
		}
		passageUUIDs[passage] = uuid
		passages = append(passages, passage)
	}

	ranked, err := s.crossEncoder.Rank(ctx, query, passages)
	if err != nil {
		return nil, nil, err
	}

	uuids := make([]string, 0, len(ranked))
	scores := make([]float64, 0, len(ranked))
	for _, passage := range ranked {
		if passage.Score < minScore {
			continue
		}
		uuid, exists := passageUUIDs[passage.Passage]
		if !exists {
			continue
		}
		uuids = append(uuids, uuid)
		scores = append(scores, passage.Score)
	}
	return uuids, scores, nil
}

// nodeSeeds collects node uuids discovered by non-BFS node channels, used
// to seed traversal when no explicit centers are given.
func nodeSeeds(outcomes []channelOutcome) []string {
	var seeds []string
	seen := make(map[string]bool)
	for _, outcome := range outcomes {
		if outcome.task.kind != types.NodeKind || outcome.err != nil {
			continue
		}
		for _, uuid := range outcome.uuids {
			if !seen[uuid] {
				seen[uuid] = true
				seeds = append(seeds, uuid)
			}
		}
	}
	return seeds
}

func maxTraversalDepth(p *plan) int {
	depth := 0
	for _, kind := range p.kinds {
		if kindConfig := p.config.kindConfig(kind); kindConfig != nil && kindConfig.BFSMaxDepth > depth {
			depth = kindConfig.BFSMaxDepth
		}
	}
	if depth <= 0 {
		depth = DefaultBFSMaxDepth
	}
	return depth
}

// unionInOrder merges rankings preserving first-discovery order.
func unionInOrder(rankings [][]string) []string {
	var union []string
	seen := make(map[string]bool)
	for _, ranking := range rankings {
		for _, uuid := range ranking {
			if !seen[uuid] {
				seen[uuid] = true
				union = append(union, uuid)
			}
		}
	}
	return union
}
