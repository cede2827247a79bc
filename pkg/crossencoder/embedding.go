package crossencoder

import (
	"context"
	"fmt"
	"sort"

	"github.com/soundprediction/recall/pkg/embedder"
	"github.com/soundprediction/recall/pkg/utils"
)

// EmbeddingRerankerClient implements cross-encoder functionality using embeddings.
// This reranker computes cosine similarity between query and passage embeddings
// to generate relevance scores. While not a true cross-encoder (which processes
// query-document pairs together), it provides good reranking performance using
// bi-encoder embeddings.
type EmbeddingRerankerClient struct {
	embedder embedder.Client
	config   Config
}

// NewEmbeddingRerankerClient creates a new embedding-based reranker client
func NewEmbeddingRerankerClient(embedderClient embedder.Client, config Config) *EmbeddingRerankerClient {
	return &EmbeddingRerankerClient{
		embedder: embedderClient,
		config:   config,
	}
}

// Rank ranks the given passages based on their relevance to the query using embeddings
func (c *EmbeddingRerankerClient) Rank(ctx context.Context, query string, passages []string) ([]RankedPassage, error) {
	if len(passages) == 0 {
		return []RankedPassage{}, nil
	}

	if c.embedder == nil {
		return nil, fmt.Errorf("embedder client is nil")
	}

	queryEmbedding, err := c.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to create query embedding: %w", err)
	}
	if len(queryEmbedding) == 0 {
		return nil, fmt.Errorf("query embedding is empty")
	}

	passageEmbeddings, err := c.embedder.Embed(ctx, passages)
	if err != nil {
		return nil, fmt.Errorf("failed to create passage embeddings: %w", err)
	}
	if len(passageEmbeddings) != len(passages) {
		return nil, fmt.Errorf("expected %d passage embeddings, got %d", len(passages), len(passageEmbeddings))
	}

	results := make([]RankedPassage, 0, len(passages))
	for i, passage := range passages {
		results = append(results, RankedPassage{
			Passage: passage,
			Score:   utils.CosineSimilarity(queryEmbedding, passageEmbeddings[i]),
		})
	}

	// Normalize to 0-1 when there is variance so scores from different
	// embedding models stay comparable.
	minScore := results[0].Score
	maxScore := results[0].Score
	for _, result := range results[1:] {
		if result.Score < minScore {
			minScore = result.Score
		}
		if result.Score > maxScore {
			maxScore = result.Score
		}
	}
	if maxScore > minScore {
		scoreRange := maxScore - minScore
		for i := range results {
			results[i].Score = (results[i].Score - minScore) / scoreRange
		}
	} else {
		for i := range results {
			results[i].Score = 1.0
		}
	}

	// Sort by score (descending)
	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results, nil
}

// Close cleans up any resources used by the client
func (c *EmbeddingRerankerClient) Close() error {
	if c.embedder != nil {
		return c.embedder.Close()
	}
	return nil
}
