package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"

	"github.com/soundprediction/recall/pkg/utils"
)

// MockClient produces deterministic unit vectors derived from the input
// text. Identical texts always embed identically, so tests can assert on
// similarity orderings without a model.
type MockClient struct {
	dimensions int
}

// NewMockClient creates a mock embedding client with the given width.
func NewMockClient(dimensions int) *MockClient {
	if dimensions <= 0 {
		dimensions = 8
	}
	return &MockClient{dimensions: dimensions}
}

// Embed generates deterministic embeddings for the given texts.
func (m *MockClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = m.vectorFor(text)
	}
	return embeddings, nil
}

// EmbedSingle generates a deterministic embedding for a single text.
func (m *MockClient) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return m.vectorFor(text), nil
}

// Dimensions returns the configured vector width.
func (m *MockClient) Dimensions() int {
	return m.dimensions
}

// Close is a no-op.
func (m *MockClient) Close() error {
	return nil
}

func (m *MockClient) vectorFor(text string) []float32 {
	digest := sha256.Sum256([]byte(text))
	vector := make([]float32, m.dimensions)
	for i := range vector {
		offset := (i * 4) % (len(digest) - 4)
		bits := binary.LittleEndian.Uint32(digest[offset : offset+4])
		// Spread hash bits over [-1, 1).
		vector[i] = float32(int32(bits)) / float32(1<<31)
	}
	return utils.Normalize(vector)
}
