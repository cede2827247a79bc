package recall

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/soundprediction/recall/pkg/crossencoder"
	"github.com/soundprediction/recall/pkg/driver"
	"github.com/soundprediction/recall/pkg/embedder"
	"github.com/soundprediction/recall/pkg/search"
	"github.com/soundprediction/recall/pkg/types"
	"github.com/soundprediction/recall/pkg/utils"
)

// Recall is the main interface for querying temporal knowledge graphs.
// It is strictly a read path: nothing here mutates the graph.
type Recall interface {
	// Search performs hybrid fact search over edges using the default
	// cosine+BM25 channels fused with RRF.
	Search(ctx context.Context, query string, groupIDs []string, limit int) (*search.SearchResults, error)

	// SearchAdvanced runs a fully configured query across any combination
	// of edges, nodes, episodes, and communities.
	SearchAdvanced(ctx context.Context, q search.Query) (*search.SearchResults, error)

	// StreamSearch runs a query and emits the ranked results as ordered
	// chunks. Per-kind failures degrade the stream rather than aborting it.
	StreamSearch(ctx context.Context, q search.Query) (<-chan search.Chunk, error)

	// EdgeByUUID fetches a single edge, returning ErrNotFound when no
	// edge with that uuid exists.
	EdgeByUUID(ctx context.Context, uuid string) (*types.EntityEdge, error)

	// NodeByUUID fetches a single entity node, returning ErrNotFound when
	// no node with that uuid exists.
	NodeByUUID(ctx context.Context, uuid string) (*types.EntityNode, error)

	// EdgesByUUIDs batch-fetches edges. Unknown uuids are skipped, not
	// errors.
	EdgesByUUIDs(ctx context.Context, uuids []string) ([]*types.EntityEdge, error)

	// NodesByUUIDs batch-fetches entity nodes, skipping unknown uuids.
	NodesByUUIDs(ctx context.Context, uuids []string) ([]*types.EntityNode, error)

	// EdgesByGroup pages through a group's edges in stable uuid order.
	// An empty cursor starts from the beginning.
	EdgesByGroup(ctx context.Context, groupIDs []string, cursor string) (*EdgePage, error)

	// NodesByGroup pages through a group's entity nodes.
	NodesByGroup(ctx context.Context, groupIDs []string, cursor string) (*NodePage, error)

	// EpisodesByGroup pages through a group's episodes.
	EpisodesByGroup(ctx context.Context, groupIDs []string, cursor string) (*EpisodePage, error)

	// CommunitiesByGroup pages through a group's communities.
	CommunitiesByGroup(ctx context.Context, groupIDs []string, cursor string) (*CommunityPage, error)

	// EpisodesBefore retrieves the most recent episodes whose occurrence
	// time is at or before the reference time.
	EpisodesBefore(ctx context.Context, groupIDs []string, reference time.Time, limit int) ([]*types.EpisodicNode, error)

	// Close closes all client connections.
	Close(ctx context.Context) error
}

var _ Recall = (*Client)(nil)

// Client is the main implementation of the Recall interface.
type Client struct {
	reader       driver.GraphReader
	embedder     embedder.Client
	crossEncoder crossencoder.Client
	searcher     *search.Searcher
	config       *Config
	logger       *slog.Logger
}

// Config holds configuration for the Recall client.
type Config struct {
	// SearchConfig is the default configuration applied when a query
	// carries none of its own.
	SearchConfig *search.SearchConfig

	// MaxConcurrency bounds concurrently running search channels across
	// all queries served by this client. Zero picks a CPU-based default.
	MaxConcurrency int
}

// NewClient creates a new Recall client. The cross-encoder client may be
// nil, in which case cross-encoder reranking degrades to RRF.
func NewClient(reader driver.GraphReader, embedderClient embedder.Client, crossEncoderClient crossencoder.Client, config *Config, logger *slog.Logger) (*Client, error) {
	if reader == nil {
		return nil, errors.New("graph reader is required")
	}
	if embedderClient == nil {
		return nil, errors.New("embedder client is required")
	}
	if config == nil {
		config = &Config{}
	}
	if config.SearchConfig == nil {
		config.SearchConfig = search.DefaultSearchConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	var limiter *utils.Limiter
	if config.MaxConcurrency > 0 {
		limiter = utils.NewLimiter(int64(config.MaxConcurrency))
	}
	searcher := search.NewSearcher(reader, embedderClient, crossEncoderClient, limiter, logger)

	return &Client{
		reader:       reader,
		embedder:     embedderClient,
		crossEncoder: crossEncoderClient,
		searcher:     searcher,
		config:       config,
		logger:       logger,
	}, nil
}

// Searcher exposes the underlying searcher for callers that need channel
// level control.
func (c *Client) Searcher() *search.Searcher {
	return c.searcher
}

// Close closes the graph reader and the embedding and reranking clients.
func (c *Client) Close(ctx context.Context) error {
	errs := []error{c.reader.Close(ctx)}
	errs = append(errs, c.embedder.Close())
	if c.crossEncoder != nil {
		errs = append(errs, c.crossEncoder.Close())
	}
	return errors.Join(errs...)
}
