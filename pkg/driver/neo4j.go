package driver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"

	"github.com/soundprediction/recall/pkg/types"
)

// Fulltext and vector index names expected in the backing database. The
// ingestion side owns index creation; this reader only queries them.
const (
	edgeFulltextIndex      = "edge_name_and_fact"
	nodeFulltextIndex      = "node_name_and_summary"
	episodeFulltextIndex   = "episode_content"
	communityFulltextIndex = "community_name"

	edgeVectorIndex      = "fact_embedding"
	nodeVectorIndex      = "entity_name_embedding"
	communityVectorIndex = "community_name_embedding"
)

// maxQueryTerms bounds fulltext queries; longer queries return no results
// rather than an index error.
const maxQueryTerms = 128

// Neo4jReader implements GraphReader against a Neo4j database.
type Neo4jReader struct {
	client   neo4j.DriverWithContext
	database string
}

// NewNeo4jReader creates a read-only graph client for the given database.
func NewNeo4jReader(uri, username, password, database string) (*Neo4jReader, error) {
	client, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	if database == "" {
		database = "neo4j"
	}

	return &Neo4jReader{
		client:   client,
		database: database,
	}, nil
}

// Close releases the underlying driver connections.
func (r *Neo4jReader) Close(ctx context.Context) error {
	return r.client.Close(ctx)
}

// read runs a single read query and collects all records.
func (r *Neo4jReader) read(ctx context.Context, query string, params map[string]any) ([]*db.Record, error) {
	session := r.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: r.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}

	records, ok := result.([]*db.Record)
	if !ok {
		return nil, fmt.Errorf("unexpected result type %T", result)
	}
	return records, nil
}

// LexicalSearch runs a BM25 fulltext query against the kind's index.
func (r *Neo4jReader) LexicalSearch(ctx context.Context, kind types.Kind, query string, groupIDs []string, limit int) ([]ScoredID, error) {
	sanitized := sanitizeLucene(query)
	if sanitized == "" {
		return []ScoredID{}, nil
	}

	params := map[string]any{
		"query":     sanitized,
		"group_ids": groupIDs,
		"limit":     limit,
	}

	var cypher string
	switch kind {
	case types.EdgeKind:
		cypher = fmt.Sprintf(`
			CALL db.index.fulltext.queryRelationships(%q, $query)
			YIELD relationship AS rel, score
			WHERE rel.group_id IN $group_ids
			RETURN rel.uuid AS uuid, score
			ORDER BY score DESC
			LIMIT $limit
		`, edgeFulltextIndex)
	case types.NodeKind:
		cypher = fulltextNodeQuery(nodeFulltextIndex)
	case types.EpisodeKind:
		cypher = fulltextNodeQuery(episodeFulltextIndex)
	case types.CommunityKind:
		cypher = fulltextNodeQuery(communityFulltextIndex)
	default:
		return nil, fmt.Errorf("unknown kind %q", kind)
	}

	records, err := r.read(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("fulltext search for %s failed: %w", kind, err)
	}
	return scoredIDsFromRecords(records)
}

// VectorSearch runs a cosine-similarity query against the kind's vector
// index. Episodes have no embedding index.
func (r *Neo4jReader) VectorSearch(ctx context.Context, kind types.Kind, vector []float32, groupIDs []string, limit int) ([]ScoredID, error) {
	params := map[string]any{
		"vector":    vector,
		"group_ids": groupIDs,
		// Over-fetch before the group filter so a page of foreign-tenant
		// hits cannot blank out the result.
		"scan":  limit * 4,
		"limit": limit,
	}

	var cypher string
	switch kind {
	case types.EdgeKind:
		cypher = fmt.Sprintf(`
			CALL db.index.vector.queryRelationships(%q, $scan, $vector)
			YIELD relationship AS rel, score
			WHERE rel.group_id IN $group_ids
			RETURN rel.uuid AS uuid, score
			ORDER BY score DESC
			LIMIT $limit
		`, edgeVectorIndex)
	case types.NodeKind:
		cypher = vectorNodeQuery(nodeVectorIndex)
	case types.CommunityKind:
		cypher = vectorNodeQuery(communityVectorIndex)
	default:
		return nil, fmt.Errorf("no vector index for kind %q", kind)
	}

	records, err := r.read(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("vector search for %s failed: %w", kind, err)
	}
	return scoredIDsFromRecords(records)
}

// Neighbors returns one hop of adjacency for the given entity nodes.
func (r *Neo4jReader) Neighbors(ctx context.Context, nodeUUIDs []string, groupIDs []string) (map[string][]Neighbor, error) {
	if len(nodeUUIDs) == 0 {
		return map[string][]Neighbor{}, nil
	}

	records, err := r.read(ctx, `
		MATCH (n:Entity)-[e:RELATES_TO]-(m:Entity)
		WHERE n.uuid IN $uuids AND e.group_id IN $group_ids
		RETURN n.uuid AS source, m.uuid AS neighbor, e.uuid AS edge
	`, map[string]any{
		"uuids":     nodeUUIDs,
		"group_ids": groupIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("adjacency query failed: %w", err)
	}

	adjacency := make(map[string][]Neighbor, len(nodeUUIDs))
	for _, record := range records {
		source, _ := stringValue(record, "source")
		neighbor, _ := stringValue(record, "neighbor")
		edge, _ := stringValue(record, "edge")
		if source == "" || neighbor == "" {
			continue
		}
		adjacency[source] = append(adjacency[source], Neighbor{NodeUUID: neighbor, EdgeUUID: edge})
	}
	return adjacency, nil
}

// EdgesByUUIDs hydrates entity edges, preserving no particular order.
func (r *Neo4jReader) EdgesByUUIDs(ctx context.Context, uuids []string) ([]*types.EntityEdge, error) {
	if len(uuids) == 0 {
		return []*types.EntityEdge{}, nil
	}

	records, err := r.read(ctx, `
		MATCH (n:Entity)-[e:RELATES_TO]->(m:Entity)
		WHERE e.uuid IN $uuids
		RETURN e.uuid AS uuid, e.group_id AS group_id, e.name AS name, e.fact AS fact,
		       e.fact_embedding AS fact_embedding, e.episodes AS episodes,
		       e.created_at AS created_at, e.valid_at AS valid_at,
		       e.invalid_at AS invalid_at, e.expired_at AS expired_at,
		       properties(e) AS attributes,
		       n.uuid AS source_node_uuid, m.uuid AS target_node_uuid
	`, map[string]any{"uuids": uuids})
	if err != nil {
		return nil, fmt.Errorf("edge fetch failed: %w", err)
	}

	edges := make([]*types.EntityEdge, 0, len(records))
	for _, record := range records {
		edges = append(edges, edgeFromRecord(record))
	}
	return edges, nil
}

// NodesByUUIDs hydrates entity nodes.
func (r *Neo4jReader) NodesByUUIDs(ctx context.Context, uuids []string) ([]*types.EntityNode, error) {
	if len(uuids) == 0 {
		return []*types.EntityNode{}, nil
	}

	records, err := r.read(ctx, `
		MATCH (n:Entity)
		WHERE n.uuid IN $uuids
		RETURN n.uuid AS uuid, n.group_id AS group_id, n.name AS name,
		       labels(n) AS labels, n.summary AS summary,
		       n.name_embedding AS name_embedding, n.created_at AS created_at,
		       properties(n) AS attributes
	`, map[string]any{"uuids": uuids})
	if err != nil {
		return nil, fmt.Errorf("node fetch failed: %w", err)
	}

	nodes := make([]*types.EntityNode, 0, len(records))
	for _, record := range records {
		nodes = append(nodes, nodeFromRecord(record))
	}
	return nodes, nil
}

// EpisodesByUUIDs hydrates episodic nodes.
func (r *Neo4jReader) EpisodesByUUIDs(ctx context.Context, uuids []string) ([]*types.EpisodicNode, error) {
	if len(uuids) == 0 {
		return []*types.EpisodicNode{}, nil
	}

	records, err := r.read(ctx, `
		MATCH (ep:Episodic)
		WHERE ep.uuid IN $uuids
		RETURN ep.uuid AS uuid, ep.group_id AS group_id, ep.name AS name,
		       ep.source AS source, ep.content AS content,
		       ep.valid_at AS valid_at, ep.created_at AS created_at
	`, map[string]any{"uuids": uuids})
	if err != nil {
		return nil, fmt.Errorf("episode fetch failed: %w", err)
	}

	episodes := make([]*types.EpisodicNode, 0, len(records))
	for _, record := range records {
		episodes = append(episodes, episodeFromRecord(record))
	}
	return episodes, nil
}

// CommunitiesByUUIDs hydrates community nodes.
func (r *Neo4jReader) CommunitiesByUUIDs(ctx context.Context, uuids []string) ([]*types.CommunityNode, error) {
	if len(uuids) == 0 {
		return []*types.CommunityNode{}, nil
	}

	records, err := r.read(ctx, `
		MATCH (c:Community)
		WHERE c.uuid IN $uuids
		RETURN c.uuid AS uuid, c.group_id AS group_id, c.name AS name,
		       c.summary AS summary, c.name_embedding AS name_embedding,
		       c.created_at AS created_at
	`, map[string]any{"uuids": uuids})
	if err != nil {
		return nil, fmt.Errorf("community fetch failed: %w", err)
	}

	communities := make([]*types.CommunityNode, 0, len(records))
	for _, record := range records {
		communities = append(communities, communityFromRecord(record))
	}
	return communities, nil
}

// EdgesByGroup pages edges in ascending uuid order, resuming after afterUUID.
func (r *Neo4jReader) EdgesByGroup(ctx context.Context, groupIDs []string, afterUUID string, limit int) ([]*types.EntityEdge, error) {
	records, err := r.read(ctx, `
		MATCH (n:Entity)-[e:RELATES_TO]->(m:Entity)
		WHERE e.group_id IN $group_ids AND ($after = '' OR e.uuid > $after)
		RETURN e.uuid AS uuid, e.group_id AS group_id, e.name AS name, e.fact AS fact,
		       e.fact_embedding AS fact_embedding, e.episodes AS episodes,
		       e.created_at AS created_at, e.valid_at AS valid_at,
		       e.invalid_at AS invalid_at, e.expired_at AS expired_at,
		       properties(e) AS attributes,
		       n.uuid AS source_node_uuid, m.uuid AS target_node_uuid
		ORDER BY e.uuid
		LIMIT $limit
	`, map[string]any{"group_ids": groupIDs, "after": afterUUID, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("edge page fetch failed: %w", err)
	}

	edges := make([]*types.EntityEdge, 0, len(records))
	for _, record := range records {
		edges = append(edges, edgeFromRecord(record))
	}
	return edges, nil
}

// NodesByGroup pages entity nodes in ascending uuid order.
func (r *Neo4jReader) NodesByGroup(ctx context.Context, groupIDs []string, afterUUID string, limit int) ([]*types.EntityNode, error) {
	records, err := r.read(ctx, `
		MATCH (n:Entity)
		WHERE n.group_id IN $group_ids AND ($after = '' OR n.uuid > $after)
		RETURN n.uuid AS uuid, n.group_id AS group_id, n.name AS name,
		       labels(n) AS labels, n.summary AS summary,
		       n.name_embedding AS name_embedding, n.created_at AS created_at,
		       properties(n) AS attributes
		ORDER BY n.uuid
		LIMIT $limit
	`, map[string]any{"group_ids": groupIDs, "after": afterUUID, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("node page fetch failed: %w", err)
	}

	nodes := make([]*types.EntityNode, 0, len(records))
	for _, record := range records {
		nodes = append(nodes, nodeFromRecord(record))
	}
	return nodes, nil
}

// EpisodesByGroup pages episodes in ascending uuid order.
func (r *Neo4jReader) EpisodesByGroup(ctx context.Context, groupIDs []string, afterUUID string, limit int) ([]*types.EpisodicNode, error) {
	records, err := r.read(ctx, `
		MATCH (ep:Episodic)
		WHERE ep.group_id IN $group_ids AND ($after = '' OR ep.uuid > $after)
		RETURN ep.uuid AS uuid, ep.group_id AS group_id, ep.name AS name,
		       ep.source AS source, ep.content AS content,
		       ep.valid_at AS valid_at, ep.created_at AS created_at
		ORDER BY ep.uuid
		LIMIT $limit
	`, map[string]any{"group_ids": groupIDs, "after": afterUUID, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("episode page fetch failed: %w", err)
	}

	episodes := make([]*types.EpisodicNode, 0, len(records))
	for _, record := range records {
		episodes = append(episodes, episodeFromRecord(record))
	}
	return episodes, nil
}

// CommunitiesByGroup pages communities in ascending uuid order.
func (r *Neo4jReader) CommunitiesByGroup(ctx context.Context, groupIDs []string, afterUUID string, limit int) ([]*types.CommunityNode, error) {
	records, err := r.read(ctx, `
		MATCH (c:Community)
		WHERE c.group_id IN $group_ids AND ($after = '' OR c.uuid > $after)
		RETURN c.uuid AS uuid, c.group_id AS group_id, c.name AS name,
		       c.summary AS summary, c.name_embedding AS name_embedding,
		       c.created_at AS created_at
		ORDER BY c.uuid
		LIMIT $limit
	`, map[string]any{"group_ids": groupIDs, "after": afterUUID, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("community page fetch failed: %w", err)
	}

	communities := make([]*types.CommunityNode, 0, len(records))
	for _, record := range records {
		communities = append(communities, communityFromRecord(record))
	}
	return communities, nil
}

// EpisodesBefore returns episodes whose event time is at or before the
// reference, newest first.
func (r *Neo4jReader) EpisodesBefore(ctx context.Context, groupIDs []string, reference time.Time, limit int) ([]*types.EpisodicNode, error) {
	records, err := r.read(ctx, `
		MATCH (ep:Episodic)
		WHERE ep.group_id IN $group_ids AND ep.valid_at <= $reference
		RETURN ep.uuid AS uuid, ep.group_id AS group_id, ep.name AS name,
		       ep.source AS source, ep.content AS content,
		       ep.valid_at AS valid_at, ep.created_at AS created_at
		ORDER BY ep.valid_at DESC
		LIMIT $limit
	`, map[string]any{"group_ids": groupIDs, "reference": reference, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("reference-time episode fetch failed: %w", err)
	}

	episodes := make([]*types.EpisodicNode, 0, len(records))
	for _, record := range records {
		episodes = append(episodes, episodeFromRecord(record))
	}
	return episodes, nil
}

// EpisodeMentions counts distinct episodes mentioning each node.
func (r *Neo4jReader) EpisodeMentions(ctx context.Context, nodeUUIDs []string) (map[string]int, error) {
	if len(nodeUUIDs) == 0 {
		return map[string]int{}, nil
	}

	records, err := r.read(ctx, `
		MATCH (ep:Episodic)-[:MENTIONS]->(n:Entity)
		WHERE n.uuid IN $uuids
		RETURN n.uuid AS uuid, count(DISTINCT ep.uuid) AS mentions
	`, map[string]any{"uuids": nodeUUIDs})
	if err != nil {
		return nil, fmt.Errorf("episode mention count failed: %w", err)
	}

	mentions := make(map[string]int, len(records))
	for _, record := range records {
		uuid, _ := stringValue(record, "uuid")
		count, _ := intValue(record, "mentions")
		if uuid != "" {
			mentions[uuid] = count
		}
	}
	return mentions, nil
}

func fulltextNodeQuery(index string) string {
	return fmt.Sprintf(`
		CALL db.index.fulltext.queryNodes(%q, $query)
		YIELD node, score
		WHERE node.group_id IN $group_ids
		RETURN node.uuid AS uuid, score
		ORDER BY score DESC
		LIMIT $limit
	`, index)
}

func vectorNodeQuery(index string) string {
	return fmt.Sprintf(`
		CALL db.index.vector.queryNodes(%q, $scan, $vector)
		YIELD node, score
		WHERE node.group_id IN $group_ids
		RETURN node.uuid AS uuid, score
		ORDER BY score DESC
		LIMIT $limit
	`, index)
}

// sanitizeLucene escapes Lucene operators so user text cannot break the
// fulltext query. Over-long queries collapse to the empty string, which the
// caller treats as a no-result search.
func sanitizeLucene(query string) string {
	query = strings.TrimSpace(query)
	if query == "" || len(strings.Fields(query)) > maxQueryTerms {
		return ""
	}

	replacer := strings.NewReplacer(
		"+", "\\+",
		"-", "\\-",
		"&&", "\\&&",
		"||", "\\||",
		"!", "\\!",
		"(", "\\(",
		")", "\\)",
		"{", "\\{",
		"}", "\\}",
		"[", "\\[",
		"]", "\\]",
		"^", "\\^",
		"~", "\\~",
		"*", "\\*",
		"?", "\\?",
		":", "\\:",
		"\"", "\\\"",
		"/", "\\/",
	)
	return replacer.Replace(query)
}

func scoredIDsFromRecords(records []*db.Record) ([]ScoredID, error) {
	results := make([]ScoredID, 0, len(records))
	for _, record := range records {
		uuid, ok := stringValue(record, "uuid")
		if !ok {
			continue
		}
		score, _ := floatValue(record, "score")
		results = append(results, ScoredID{UUID: uuid, Score: score})
	}
	return results, nil
}
