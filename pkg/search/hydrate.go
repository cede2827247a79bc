package search

import (
	"context"
	"fmt"

	"github.com/soundprediction/recall/pkg/types"
)

// record is one hydrated candidate of any kind; exactly one field is set.
type record struct {
	edge      *types.EntityEdge
	node      *types.EntityNode
	episode   *types.EpisodicNode
	community *types.CommunityNode
}

func (r record) matches(filters *SearchFilters) bool {
	switch {
	case r.edge != nil:
		return filters.MatchEdge(r.edge)
	case r.node != nil:
		return filters.MatchNode(r.node)
	case r.episode != nil:
		return filters.MatchEpisode(r.episode)
	case r.community != nil:
		return filters.MatchCommunity(r.community)
	}
	return false
}

// passage is the text a cross-encoder scores for this record.
func (r record) passage() string {
	switch {
	case r.edge != nil:
		return r.edge.Fact
	case r.node != nil:
		if r.node.Summary != "" {
			return r.node.Summary
		}
		return r.node.Name
	case r.episode != nil:
		return r.episode.Content
	case r.community != nil:
		if r.community.Summary != "" {
			return r.community.Summary
		}
		return r.community.Name
	}
	return ""
}

func (r record) embedding() []float32 {
	switch {
	case r.edge != nil:
		return r.edge.FactEmbedding
	case r.node != nil:
		return r.node.NameEmbedding
	case r.community != nil:
		return r.community.NameEmbedding
	}
	return nil
}

// hydratedKind maps candidate uuids to their fetched records for one kind.
type hydratedKind struct {
	byUUID map[string]record
}

func (h *hydratedKind) embeddings() map[string][]float32 {
	embeddings := make(map[string][]float32, len(h.byUUID))
	for uuid, record := range h.byUUID {
		if embedding := record.embedding(); len(embedding) > 0 {
			embeddings[uuid] = embedding
		}
	}
	return embeddings
}

// appendTo writes the final ranked records into the per-kind parallel
// arrays. A uuid the store no longer has is silently skipped.
func (h *hydratedKind) appendTo(results *SearchResults, kind types.Kind, uuids []string, scores []float64) {
	for i, uuid := range uuids {
		record, exists := h.byUUID[uuid]
		if !exists {
			continue
		}
		switch kind {
		case types.EdgeKind:
			results.Edges = append(results.Edges, record.edge)
			results.EdgeScores = append(results.EdgeScores, scores[i])
		case types.NodeKind:
			results.Nodes = append(results.Nodes, record.node)
			results.NodeScores = append(results.NodeScores, scores[i])
		case types.EpisodeKind:
			results.Episodes = append(results.Episodes, record.episode)
			results.EpisodeScores = append(results.EpisodeScores, scores[i])
		case types.CommunityKind:
			results.Communities = append(results.Communities, record.community)
			results.CommunityScores = append(results.CommunityScores, scores[i])
		}
	}
}

func (s *Searcher) hydrate(ctx context.Context, kind types.Kind, uuids []string) (*hydratedKind, error) {
	hydrated := &hydratedKind{byUUID: make(map[string]record, len(uuids))}

	switch kind {
	case types.EdgeKind:
		edges, err := s.reader.EdgesByUUIDs(ctx, uuids)
		if err != nil {
			return nil, err
		}
		for _, edge := range edges {
			hydrated.byUUID[edge.Uuid] = record{edge: edge}
		}
	case types.NodeKind:
		nodes, err := s.reader.NodesByUUIDs(ctx, uuids)
		if err != nil {
			return nil, err
		}
		for _, node := range nodes {
			hydrated.byUUID[node.Uuid] = record{node: node}
		}
	case types.EpisodeKind:
		episodes, err := s.reader.EpisodesByUUIDs(ctx, uuids)
		if err != nil {
			return nil, err
		}
		for _, episode := range episodes {
			hydrated.byUUID[episode.Uuid] = record{episode: episode}
		}
	case types.CommunityKind:
		communities, err := s.reader.CommunitiesByUUIDs(ctx, uuids)
		if err != nil {
			return nil, err
		}
		for _, community := range communities {
			hydrated.byUUID[community.Uuid] = record{community: community}
		}
	default:
		return nil, fmt.Errorf("unknown kind %q", kind)
	}

	return hydrated, nil
}
