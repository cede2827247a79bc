package recall

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/soundprediction/recall/pkg/search"
	"github.com/soundprediction/recall/pkg/types"
)

// ErrNotFound is returned by the single-entity lookups when no entity with
// the requested uuid exists.
var ErrNotFound = errors.New("entity not found")

// EdgePage is one page of a group-scoped edge scan. NextCursor is empty on
// the final page.
type EdgePage struct {
	Edges      []*types.EntityEdge `json:"edges"`
	NextCursor string              `json:"next_cursor,omitempty"`
}

// NodePage is one page of a group-scoped entity node scan.
type NodePage struct {
	Nodes      []*types.EntityNode `json:"nodes"`
	NextCursor string              `json:"next_cursor,omitempty"`
}

// EpisodePage is one page of a group-scoped episode scan.
type EpisodePage struct {
	Episodes   []*types.EpisodicNode `json:"episodes"`
	NextCursor string                `json:"next_cursor,omitempty"`
}

// CommunityPage is one page of a group-scoped community scan.
type CommunityPage struct {
	Communities []*types.CommunityNode `json:"communities"`
	NextCursor  string                 `json:"next_cursor,omitempty"`
}

// Search performs hybrid fact search over edges with the default channel
// configuration. Limit values at or below zero use the default page size.
func (c *Client) Search(ctx context.Context, query string, groupIDs []string, limit int) (*search.SearchResults, error) {
	return c.searcher.Search(ctx, search.Query{
		Text:     query,
		GroupIDs: groupIDs,
		Config:   search.EdgeOnlySearchConfig(limit),
	})
}

// SearchAdvanced runs a fully configured query. A nil query config applies
// the client's default search configuration.
func (c *Client) SearchAdvanced(ctx context.Context, q search.Query) (*search.SearchResults, error) {
	if q.Config == nil {
		q.Config = c.config.SearchConfig
	}
	return c.searcher.Search(ctx, q)
}

// StreamSearch runs a query and emits the ranked results as ordered chunks.
// A partially failed search still streams the surviving kinds; only a search
// that produced nothing at all returns an error.
func (c *Client) StreamSearch(ctx context.Context, q search.Query) (<-chan search.Chunk, error) {
	results, err := c.SearchAdvanced(ctx, q)
	if results == nil {
		return nil, err
	}
	if err != nil {
		c.logger.Warn("streaming degraded search results", "error", err)
	}
	return search.Stream(ctx, results), nil
}

// EdgeByUUID fetches a single edge by uuid.
func (c *Client) EdgeByUUID(ctx context.Context, uuid string) (*types.EntityEdge, error) {
	edges, err := c.reader.EdgesByUUIDs(ctx, []string{uuid})
	if err != nil {
		return nil, err
	}
	if len(edges) == 0 {
		return nil, fmt.Errorf("edge %s: %w", uuid, ErrNotFound)
	}
	return edges[0], nil
}

// NodeByUUID fetches a single entity node by uuid.
func (c *Client) NodeByUUID(ctx context.Context, uuid string) (*types.EntityNode, error) {
	nodes, err := c.reader.NodesByUUIDs(ctx, []string{uuid})
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("node %s: %w", uuid, ErrNotFound)
	}
	return nodes[0], nil
}

// EdgesByUUIDs batch-fetches edges, skipping unknown uuids.
func (c *Client) EdgesByUUIDs(ctx context.Context, uuids []string) ([]*types.EntityEdge, error) {
	if len(uuids) == 0 {
		return []*types.EntityEdge{}, nil
	}
	return c.reader.EdgesByUUIDs(ctx, uuids)
}

// NodesByUUIDs batch-fetches entity nodes, skipping unknown uuids.
func (c *Client) NodesByUUIDs(ctx context.Context, uuids []string) ([]*types.EntityNode, error) {
	if len(uuids) == 0 {
		return []*types.EntityNode{}, nil
	}
	return c.reader.NodesByUUIDs(ctx, uuids)
}

// EdgesByGroup pages through a group's edges in ascending uuid order.
func (c *Client) EdgesByGroup(ctx context.Context, groupIDs []string, cursor string) (*EdgePage, error) {
	cur, err := search.DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	edges, err := c.reader.EdgesByGroup(ctx, groupIDs, cur.LastUUID, cur.Limit)
	if err != nil {
		return nil, err
	}
	page := &EdgePage{Edges: edges}
	if len(edges) == cur.Limit {
		page.NextCursor = search.EncodeCursor(edges[len(edges)-1].Uuid, cur.Limit)
	}
	return page, nil
}

// NodesByGroup pages through a group's entity nodes in ascending uuid order.
func (c *Client) NodesByGroup(ctx context.Context, groupIDs []string, cursor string) (*NodePage, error) {
	cur, err := search.DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	nodes, err := c.reader.NodesByGroup(ctx, groupIDs, cur.LastUUID, cur.Limit)
	if err != nil {
		return nil, err
	}
	page := &NodePage{Nodes: nodes}
	if len(nodes) == cur.Limit {
		page.NextCursor = search.EncodeCursor(nodes[len(nodes)-1].Uuid, cur.Limit)
	}
	return page, nil
}

// EpisodesByGroup pages through a group's episodes in ascending uuid order.
func (c *Client) EpisodesByGroup(ctx context.Context, groupIDs []string, cursor string) (*EpisodePage, error) {
	cur, err := search.DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	episodes, err := c.reader.EpisodesByGroup(ctx, groupIDs, cur.LastUUID, cur.Limit)
	if err != nil {
		return nil, err
	}
	page := &EpisodePage{Episodes: episodes}
	if len(episodes) == cur.Limit {
		page.NextCursor = search.EncodeCursor(episodes[len(episodes)-1].Uuid, cur.Limit)
	}
	return page, nil
}

// CommunitiesByGroup pages through a group's communities in ascending uuid
// order.
func (c *Client) CommunitiesByGroup(ctx context.Context, groupIDs []string, cursor string) (*CommunityPage, error) {
	cur, err := search.DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	communities, err := c.reader.CommunitiesByGroup(ctx, groupIDs, cur.LastUUID, cur.Limit)
	if err != nil {
		return nil, err
	}
	page := &CommunityPage{Communities: communities}
	if len(communities) == cur.Limit {
		page.NextCursor = search.EncodeCursor(communities[len(communities)-1].Uuid, cur.Limit)
	}
	return page, nil
}

// EpisodesBefore retrieves the most recent episodes occurring at or before
// the reference time, newest first.
func (c *Client) EpisodesBefore(ctx context.Context, groupIDs []string, reference time.Time, limit int) ([]*types.EpisodicNode, error) {
	if limit <= 0 {
		limit = search.DefaultLimit
	}
	return c.reader.EpisodesBefore(ctx, groupIDs, reference, limit)
}
