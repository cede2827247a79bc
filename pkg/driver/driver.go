// Package driver defines the read-path storage collaborators consumed by the
// search core, together with a Neo4j implementation.
//
// The core never writes to the graph; every method here is a concurrent-safe
// read. All queries are scoped to explicit group IDs, so no call can cross a
// tenant boundary.
package driver

import (
	"context"
	"time"

	"github.com/soundprediction/recall/pkg/types"
)

// ScoredID is an (id, score) pair returned by index-backed searches, ordered
// best first.
type ScoredID struct {
	UUID  string
	Score float64
}

// Neighbor is one adjacency entry: the node reached and the edge traversed.
type Neighbor struct {
	NodeUUID string
	EdgeUUID string
}

// GraphReader is the storage collaborator interface for the search core.
//
// LexicalSearch and VectorSearch return ranked candidate ids for the given
// kind; Neighbors exposes one hop of adjacency for breadth-first traversal;
// the ByUUIDs methods hydrate candidates; the ByGroup methods serve paginated
// bulk reads in ascending uuid order, resuming after afterUUID.
type GraphReader interface {
	LexicalSearch(ctx context.Context, kind types.Kind, query string, groupIDs []string, limit int) ([]ScoredID, error)
	VectorSearch(ctx context.Context, kind types.Kind, vector []float32, groupIDs []string, limit int) ([]ScoredID, error)

	Neighbors(ctx context.Context, nodeUUIDs []string, groupIDs []string) (map[string][]Neighbor, error)

	EdgesByUUIDs(ctx context.Context, uuids []string) ([]*types.EntityEdge, error)
	NodesByUUIDs(ctx context.Context, uuids []string) ([]*types.EntityNode, error)
	EpisodesByUUIDs(ctx context.Context, uuids []string) ([]*types.EpisodicNode, error)
	CommunitiesByUUIDs(ctx context.Context, uuids []string) ([]*types.CommunityNode, error)

	EdgesByGroup(ctx context.Context, groupIDs []string, afterUUID string, limit int) ([]*types.EntityEdge, error)
	NodesByGroup(ctx context.Context, groupIDs []string, afterUUID string, limit int) ([]*types.EntityNode, error)
	EpisodesByGroup(ctx context.Context, groupIDs []string, afterUUID string, limit int) ([]*types.EpisodicNode, error)
	CommunitiesByGroup(ctx context.Context, groupIDs []string, afterUUID string, limit int) ([]*types.CommunityNode, error)

	// EpisodesBefore returns the most recent episodes whose valid_at is at or
	// before the reference time, newest first.
	EpisodesBefore(ctx context.Context, groupIDs []string, reference time.Time, limit int) ([]*types.EpisodicNode, error)

	// EpisodeMentions returns, per node uuid, the count of distinct episodes
	// mentioning that node.
	EpisodeMentions(ctx context.Context, nodeUUIDs []string) (map[string]int, error)

	Close(ctx context.Context) error
}
