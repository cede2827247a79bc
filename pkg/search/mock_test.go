package search

import (
	"context"
	"sort"
	"time"

	"github.com/soundprediction/recall/pkg/driver"
	"github.com/soundprediction/recall/pkg/types"
)

// mockReader is a hand-rolled in-memory GraphReader for tests.
type mockReader struct {
	lexical    map[types.Kind][]driver.ScoredID
	vector     map[types.Kind][]driver.ScoredID
	lexicalErr map[types.Kind]error
	vectorErr  map[types.Kind]error

	neighbors    map[string][]driver.Neighbor
	neighborsErr error
	mentions     map[string]int

	edges       map[string]*types.EntityEdge
	nodes       map[string]*types.EntityNode
	episodes    map[string]*types.EpisodicNode
	communities map[string]*types.CommunityNode
}

func newMockReader() *mockReader {
	return &mockReader{
		lexical:     map[types.Kind][]driver.ScoredID{},
		vector:      map[types.Kind][]driver.ScoredID{},
		lexicalErr:  map[types.Kind]error{},
		vectorErr:   map[types.Kind]error{},
		neighbors:   map[string][]driver.Neighbor{},
		mentions:    map[string]int{},
		edges:       map[string]*types.EntityEdge{},
		nodes:       map[string]*types.EntityNode{},
		episodes:    map[string]*types.EpisodicNode{},
		communities: map[string]*types.CommunityNode{},
	}
}

func (m *mockReader) addEdge(edge *types.EntityEdge)      { m.edges[edge.Uuid] = edge }
func (m *mockReader) addNode(node *types.EntityNode)      { m.nodes[node.Uuid] = node }
func (m *mockReader) addEpisode(ep *types.EpisodicNode)   { m.episodes[ep.Uuid] = ep }
func (m *mockReader) addCommunity(c *types.CommunityNode) { m.communities[c.Uuid] = c }

func (m *mockReader) LexicalSearch(ctx context.Context, kind types.Kind, query string, groupIDs []string, limit int) ([]driver.ScoredID, error) {
	if err := m.lexicalErr[kind]; err != nil {
		return nil, err
	}
	return m.lexical[kind], nil
}

func (m *mockReader) VectorSearch(ctx context.Context, kind types.Kind, vector []float32, groupIDs []string, limit int) ([]driver.ScoredID, error) {
	if err := m.vectorErr[kind]; err != nil {
		return nil, err
	}
	return m.vector[kind], nil
}

func (m *mockReader) Neighbors(ctx context.Context, nodeUUIDs []string, groupIDs []string) (map[string][]driver.Neighbor, error) {
	if m.neighborsErr != nil {
		return nil, m.neighborsErr
	}
	result := map[string][]driver.Neighbor{}
	for _, uuid := range nodeUUIDs {
		result[uuid] = m.neighbors[uuid]
	}
	return result, nil
}

func (m *mockReader) EdgesByUUIDs(ctx context.Context, uuids []string) ([]*types.EntityEdge, error) {
	var out []*types.EntityEdge
	for _, uuid := range uuids {
		if edge, exists := m.edges[uuid]; exists {
			out = append(out, edge)
		}
	}
	return out, nil
}

func (m *mockReader) NodesByUUIDs(ctx context.Context, uuids []string) ([]*types.EntityNode, error) {
	var out []*types.EntityNode
	for _, uuid := range uuids {
		if node, exists := m.nodes[uuid]; exists {
			out = append(out, node)
		}
	}
	return out, nil
}

func (m *mockReader) EpisodesByUUIDs(ctx context.Context, uuids []string) ([]*types.EpisodicNode, error) {
	var out []*types.EpisodicNode
	for _, uuid := range uuids {
		if episode, exists := m.episodes[uuid]; exists {
			out = append(out, episode)
		}
	}
	return out, nil
}

func (m *mockReader) CommunitiesByUUIDs(ctx context.Context, uuids []string) ([]*types.CommunityNode, error) {
	var out []*types.CommunityNode
	for _, uuid := range uuids {
		if community, exists := m.communities[uuid]; exists {
			out = append(out, community)
		}
	}
	return out, nil
}

func (m *mockReader) EdgesByGroup(ctx context.Context, groupIDs []string, afterUUID string, limit int) ([]*types.EntityEdge, error) {
	uuids := make([]string, 0, len(m.edges))
	for uuid := range m.edges {
		if uuid > afterUUID {
			uuids = append(uuids, uuid)
		}
	}
	sort.Strings(uuids)
	if len(uuids) > limit {
		uuids = uuids[:limit]
	}
	return m.EdgesByUUIDs(ctx, uuids)
}

func (m *mockReader) NodesByGroup(ctx context.Context, groupIDs []string, afterUUID string, limit int) ([]*types.EntityNode, error) {
	uuids := make([]string, 0, len(m.nodes))
	for uuid := range m.nodes {
		if uuid > afterUUID {
			uuids = append(uuids, uuid)
		}
	}
	sort.Strings(uuids)
	if len(uuids) > limit {
		uuids = uuids[:limit]
	}
	return m.NodesByUUIDs(ctx, uuids)
}

func (m *mockReader) EpisodesByGroup(ctx context.Context, groupIDs []string, afterUUID string, limit int) ([]*types.EpisodicNode, error) {
	uuids := make([]string, 0, len(m.episodes))
	for uuid := range m.episodes {
		if uuid > afterUUID {
			uuids = append(uuids, uuid)
		}
	}
	sort.Strings(uuids)
	if len(uuids) > limit {
		uuids = uuids[:limit]
	}
	return m.EpisodesByUUIDs(ctx, uuids)
}

func (m *mockReader) CommunitiesByGroup(ctx context.Context, groupIDs []string, afterUUID string, limit int) ([]*types.CommunityNode, error) {
	uuids := make([]string, 0, len(m.communities))
	for uuid := range m.communities {
		if uuid > afterUUID {
			uuids = append(uuids, uuid)
		}
	}
	sort.Strings(uuids)
	if len(uuids) > limit {
		uuids = uuids[:limit]
	}
	return m.CommunitiesByUUIDs(ctx, uuids)
}

func (m *mockReader) EpisodesBefore(ctx context.Context, groupIDs []string, reference time.Time, limit int) ([]*types.EpisodicNode, error) {
	var out []*types.EpisodicNode
	for _, episode := range m.episodes {
		if episode.ValidAt != nil && !episode.ValidAt.After(reference) {
			out = append(out, episode)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ValidAt.After(*out[j].ValidAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockReader) EpisodeMentions(ctx context.Context, nodeUUIDs []string) (map[string]int, error) {
	result := map[string]int{}
	for _, uuid := range nodeUUIDs {
		result[uuid] = m.mentions[uuid]
	}
	return result, nil
}

func (m *mockReader) Close(ctx context.Context) error { return nil }
