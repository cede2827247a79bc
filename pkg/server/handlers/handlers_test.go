package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/recall"
	"github.com/soundprediction/recall/pkg/search"
	"github.com/soundprediction/recall/pkg/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubRecall returns canned results and records the arguments it was
// called with.
type stubRecall struct {
	results  *search.SearchResults
	edgePage *recall.EdgePage
	nodePage *recall.NodePage
	epPage   *recall.EpisodePage
	commPage *recall.CommunityPage
	episodes []*types.EpisodicNode
	edges    []*types.EntityEdge
	nodes    []*types.EntityNode
	err      error

	lastQuery     string
	lastGroupIDs  []string
	lastCursor    string
	lastUUID      string
	lastUUIDs     []string
	lastReference time.Time
}

func (s *stubRecall) Search(ctx context.Context, query string, groupIDs []string, limit int) (*search.SearchResults, error) {
	s.lastQuery = query
	s.lastGroupIDs = groupIDs
	return s.results, s.err
}

func (s *stubRecall) SearchAdvanced(ctx context.Context, q search.Query) (*search.SearchResults, error) {
	s.lastQuery = q.Text
	s.lastGroupIDs = q.GroupIDs
	return s.results, s.err
}

func (s *stubRecall) StreamSearch(ctx context.Context, q search.Query) (<-chan search.Chunk, error) {
	if s.err != nil {
		return nil, s.err
	}
	return search.Stream(ctx, s.results), nil
}

func (s *stubRecall) EdgeByUUID(ctx context.Context, uuid string) (*types.EntityEdge, error) {
	s.lastUUID = uuid
	if s.err != nil {
		return nil, s.err
	}
	for _, edge := range s.edges {
		if edge.Uuid == uuid {
			return edge, nil
		}
	}
	return nil, fmt.Errorf("edge %s: %w", uuid, recall.ErrNotFound)
}

func (s *stubRecall) NodeByUUID(ctx context.Context, uuid string) (*types.EntityNode, error) {
	s.lastUUID = uuid
	if s.err != nil {
		return nil, s.err
	}
	for _, node := range s.nodes {
		if node.Uuid == uuid {
			return node, nil
		}
	}
	return nil, fmt.Errorf("node %s: %w", uuid, recall.ErrNotFound)
}

func (s *stubRecall) EdgesByUUIDs(ctx context.Context, uuids []string) ([]*types.EntityEdge, error) {
	s.lastUUIDs = uuids
	if s.err != nil {
		return nil, s.err
	}
	return s.edges, nil
}

func (s *stubRecall) NodesByUUIDs(ctx context.Context, uuids []string) ([]*types.EntityNode, error) {
	s.lastUUIDs = uuids
	if s.err != nil {
		return nil, s.err
	}
	return s.nodes, nil
}

func (s *stubRecall) EdgesByGroup(ctx context.Context, groupIDs []string, cursor string) (*recall.EdgePage, error) {
	s.lastGroupIDs = groupIDs
	s.lastCursor = cursor
	if s.err != nil {
		return nil, s.err
	}
	return s.edgePage, nil
}

func (s *stubRecall) NodesByGroup(ctx context.Context, groupIDs []string, cursor string) (*recall.NodePage, error) {
	s.lastGroupIDs = groupIDs
	s.lastCursor = cursor
	if s.err != nil {
		return nil, s.err
	}
	return s.nodePage, nil
}

func (s *stubRecall) EpisodesByGroup(ctx context.Context, groupIDs []string, cursor string) (*recall.EpisodePage, error) {
	s.lastGroupIDs = groupIDs
	s.lastCursor = cursor
	if s.err != nil {
		return nil, s.err
	}
	return s.epPage, nil
}

func (s *stubRecall) CommunitiesByGroup(ctx context.Context, groupIDs []string, cursor string) (*recall.CommunityPage, error) {
	s.lastGroupIDs = groupIDs
	s.lastCursor = cursor
	if s.err != nil {
		return nil, s.err
	}
	return s.commPage, nil
}

func (s *stubRecall) EpisodesBefore(ctx context.Context, groupIDs []string, reference time.Time, limit int) ([]*types.EpisodicNode, error) {
	s.lastGroupIDs = groupIDs
	s.lastReference = reference
	if s.err != nil {
		return nil, s.err
	}
	return s.episodes, nil
}

func (s *stubRecall) Close(ctx context.Context) error { return nil }

func edgeResults(facts ...string) *search.SearchResults {
	results := &search.SearchResults{
		Edges:           []*types.EntityEdge{},
		EdgeScores:      []float64{},
		Nodes:           []*types.EntityNode{},
		NodeScores:      []float64{},
		Episodes:        []*types.EpisodicNode{},
		EpisodeScores:   []float64{},
		Communities:     []*types.CommunityNode{},
		CommunityScores: []float64{},
	}
	for i, fact := range facts {
		results.Edges = append(results.Edges, &types.EntityEdge{
			Uuid:    fact + "-uuid",
			GroupID: "g1",
			Fact:    fact,
		})
		results.EdgeScores = append(results.EdgeScores, 1.0/float64(i+1))
	}
	return results
}
