// Package embedder turns query text into dense vectors for similarity
// search. It supports OpenAI's embedding API, local models through
// go-embedeverything, and a deterministic mock for tests, with an optional
// Badger-backed cache in front of any of them.
package embedder

import (
	"context"
	"fmt"
)

// Client generates embeddings for text.
type Client interface {
	// Embed generates embeddings for the given texts, one vector per input.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle generates an embedding for a single text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the vector width produced by this client.
	Dimensions() int

	// Close cleans up any resources.
	Close() error
}

// Provider selects an embedding backend.
type Provider string

const (
	// ProviderOpenAI uses the OpenAI embeddings API.
	ProviderOpenAI Provider = "openai"

	// ProviderEmbedEverything runs a local model via go-embedeverything.
	ProviderEmbedEverything Provider = "embedeverything"

	// ProviderMock produces deterministic vectors for testing.
	ProviderMock Provider = "mock"
)

// Config holds embedding client configuration.
type Config struct {
	Provider   Provider `json:"provider"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions"`
	APIKey     string   `json:"-"`
	BaseURL    string   `json:"base_url,omitempty"`
}

// NewClient creates an embedding client for the configured provider.
func NewClient(config Config) (Client, error) {
	switch config.Provider {
	case ProviderOpenAI:
		return NewOpenAIClient(config)
	case ProviderEmbedEverything:
		return NewEmbedEverythingClient(config)
	case ProviderMock:
		return NewMockClient(config.Dimensions), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", config.Provider)
	}
}
