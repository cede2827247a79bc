/*
Package crossencoder provides cross-encoder functionality for ranking passages
based on their relevance to a query.

Cross-encoders are used in information retrieval to rerank search results by
computing relevance scores between a query and candidate passages. This package
provides an OpenAI-based implementation using boolean classification with
log-probabilities, an embedding-similarity implementation, and a mock
implementation for testing. Any client can be wrapped with a circuit breaker
so a failing reranking backend degrades gracefully.

Usage:

	reranker := crossencoder.NewOpenAIRerankerClient(crossencoder.Config{
		APIKey:         "api-key",
		MaxConcurrency: 5,
	})

	results, err := reranker.Rank(ctx, "search query", []string{
		"passage 1 text",
		"passage 2 text",
	})
*/
package crossencoder

import (
	"context"
	"fmt"

	"github.com/soundprediction/recall/pkg/embedder"
)

// Client ranks passages by relevance to a query.
type Client interface {
	// Rank scores the given passages against the query and returns them
	// ordered by descending relevance.
	Rank(ctx context.Context, query string, passages []string) ([]RankedPassage, error)

	// Close cleans up any resources used by the client.
	Close() error
}

// RankedPassage is a passage with its relevance score.
type RankedPassage struct {
	Passage string  `json:"passage"`
	Score   float64 `json:"score"`
}

// Provider represents the type of cross-encoder provider
type Provider string

const (
	// ProviderOpenAI uses OpenAI API for reranking
	ProviderOpenAI Provider = "openai"

	// ProviderEmbedding uses embedding-based similarity for reranking
	ProviderEmbedding Provider = "embedding"

	// ProviderMock uses mock implementation for testing
	ProviderMock Provider = "mock"
)

// Config holds configuration shared by cross-encoder clients.
type Config struct {
	Provider       Provider `json:"provider"`
	Model          string   `json:"model"`
	BatchSize      int      `json:"batch_size"`
	MaxConcurrency int      `json:"max_concurrency"`
	APIKey         string   `json:"-"`
	BaseURL        string   `json:"base_url,omitempty"`
}

// NewClient creates a cross-encoder client based on the provider type. The
// embedder client is only required for the embedding provider.
func NewClient(config Config, embedderClient embedder.Client) (Client, error) {
	switch config.Provider {
	case ProviderOpenAI:
		return NewOpenAIRerankerClient(config), nil

	case ProviderEmbedding:
		if embedderClient == nil {
			return nil, fmt.Errorf("embedder client is required for embedding provider")
		}
		return NewEmbeddingRerankerClient(embedderClient, config), nil

	case ProviderMock:
		return NewMockRerankerClient(config), nil

	default:
		return nil, fmt.Errorf("unsupported cross-encoder provider: %s", config.Provider)
	}
}

// DefaultConfig returns a default configuration for the given provider
func DefaultConfig(provider Provider) Config {
	switch provider {
	case ProviderOpenAI:
		return Config{
			Provider:       ProviderOpenAI,
			Model:          "gpt-4o-mini",
			BatchSize:      10,
			MaxConcurrency: 5,
		}
	case ProviderEmbedding:
		return Config{
			Provider:       ProviderEmbedding,
			BatchSize:      50,
			MaxConcurrency: 10,
		}
	case ProviderMock:
		return Config{
			Provider:  ProviderMock,
			BatchSize: 100,
		}
	default:
		return Config{Provider: provider}
	}
}
