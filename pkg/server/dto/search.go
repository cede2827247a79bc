package dto

import (
	"time"

	"github.com/soundprediction/recall/pkg/search"
	"github.com/soundprediction/recall/pkg/types"
)

// SearchRequest is the body of the simple fact search endpoint.
type SearchRequest struct {
	Query    string   `json:"query" binding:"required"`
	GroupIDs []string `json:"group_ids" binding:"required"`
	MaxFacts int      `json:"max_facts"`
}

// SearchResponse carries ranked facts plus a prompt-ready context block.
type SearchResponse struct {
	Facts   []FactResult `json:"facts"`
	Context string       `json:"context,omitempty"`
	Total   int          `json:"total"`
}

// GetMemoryRequest composes a search query from conversation messages.
type GetMemoryRequest struct {
	GroupIDs []string  `json:"group_ids" binding:"required"`
	Messages []Message `json:"messages" binding:"required"`
	MaxFacts int       `json:"max_facts"`
}

// GetMemoryResponse mirrors SearchResponse for the memory endpoint.
type GetMemoryResponse struct {
	Facts   []FactResult `json:"facts"`
	Context string       `json:"context,omitempty"`
	Total   int          `json:"total"`
}

// AdvancedSearchRequest exposes the full query surface: per-kind channels,
// rerankers, temporal filters, and center nodes.
type AdvancedSearchRequest struct {
	search.Query
}

// AdvancedSearchResponse carries the per-kind results. Errors lists the
// kinds whose channels all failed while other kinds survived.
type AdvancedSearchResponse struct {
	*search.SearchResults
	Errors map[string]string `json:"errors,omitempty"`
}

// EdgesPageResponse is one page of a group-scoped edge scan.
type EdgesPageResponse struct {
	Edges      []*types.EntityEdge `json:"edges"`
	NextCursor string              `json:"next_cursor,omitempty"`
}

// NodesPageResponse is one page of a group-scoped node scan.
type NodesPageResponse struct {
	Nodes      []*types.EntityNode `json:"nodes"`
	NextCursor string              `json:"next_cursor,omitempty"`
}

// EpisodesPageResponse is one page of a group-scoped episode scan.
type EpisodesPageResponse struct {
	Episodes   []*types.EpisodicNode `json:"episodes"`
	NextCursor string                `json:"next_cursor,omitempty"`
}

// CommunitiesPageResponse is one page of a group-scoped community scan.
type CommunitiesPageResponse struct {
	Communities []*types.CommunityNode `json:"communities"`
	NextCursor  string                 `json:"next_cursor,omitempty"`
}

// EpisodesBeforeResponse lists episodes at or before a reference time,
// newest first.
type EpisodesBeforeResponse struct {
	Episodes  []*types.EpisodicNode `json:"episodes"`
	Reference time.Time             `json:"reference"`
}
