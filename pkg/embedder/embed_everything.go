package embedder

import (
	"context"
	"fmt"

	eembedder "github.com/soundprediction/go-embedeverything/pkg/embedder"
)

// EmbedEverythingClient implements Client using a local model loaded
// through go-embedeverything.
type EmbedEverythingClient struct {
	client *eembedder.Embedder
	config Config
}

// NewEmbedEverythingClient loads the configured local embedding model.
func NewEmbedEverythingClient(config Config) (*EmbedEverythingClient, error) {
	client, err := eembedder.NewEmbedder(config.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	return &EmbedEverythingClient{
		client: client,
		config: config,
	}, nil
}

// Embed generates embeddings for the given texts.
func (e *EmbedEverythingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	// go-embedeverything does not support context yet
	embeddings, err := e.client.Embed(texts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	return embeddings, nil
}

// EmbedSingle generates an embedding for a single text.
func (e *EmbedEverythingClient) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return embeddings[0], nil
}

// Dimensions returns the configured vector width.
func (e *EmbedEverythingClient) Dimensions() int {
	return e.config.Dimensions
}

// Close unloads the model.
func (e *EmbedEverythingClient) Close() error {
	e.client.Close()
	return nil
}
