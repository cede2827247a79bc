package embedder

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingClient struct {
	*MockClient
	calls atomic.Int64
}

func (c *countingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls.Add(int64(len(texts)))
	return c.MockClient.Embed(ctx, texts)
}

func TestCachingClientServesHitsWithoutEmbedding(t *testing.T) {
	inner := &countingClient{MockClient: NewMockClient(8)}
	cache, err := NewCachingClient(inner, "test-model", CacheConfig{})
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()

	first, err := cache.EmbedSingle(ctx, "alpha")
	require.NoError(t, err)
	require.Len(t, first, 8)
	assert.Equal(t, int64(1), inner.calls.Load())

	second, err := cache.EmbedSingle(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), inner.calls.Load(), "cache hit should not call the inner client")
}

func TestCachingClientEmbedsOnlyMisses(t *testing.T) {
	inner := &countingClient{MockClient: NewMockClient(8)}
	cache, err := NewCachingClient(inner, "test-model", CacheConfig{})
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()

	_, err = cache.EmbedSingle(ctx, "alpha")
	require.NoError(t, err)

	vectors, err := cache.Embed(ctx, []string{"alpha", "beta", "gamma"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	for _, vector := range vectors {
		assert.Len(t, vector, 8)
	}
	assert.Equal(t, int64(3), inner.calls.Load(), "only beta and gamma should reach the inner client")
}

func TestVectorRoundTrip(t *testing.T) {
	original := []float32{0.25, -1.5, 0, 3.75}
	assert.Equal(t, original, decodeVector(encodeVector(original)))
}

func TestMockClientIsDeterministic(t *testing.T) {
	client := NewMockClient(16)
	ctx := context.Background()

	a, err := client.EmbedSingle(ctx, "same text")
	require.NoError(t, err)
	b, err := client.EmbedSingle(ctx, "same text")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	other, err := client.EmbedSingle(ctx, "different text")
	require.NoError(t, err)
	assert.NotEqual(t, a, other)
}
