package crossencoder

import (
	"context"
	"errors"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/recall/pkg/embedder"
)

func TestMockRerankerOrdersByTermOverlap(t *testing.T) {
	client := NewMockRerankerClient(DefaultConfig(ProviderMock))
	defer client.Close()

	results, err := client.Rank(context.Background(), "alice acme", []string{
		"bob works at globex",
		"alice works at acme",
		"alice is an engineer",
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "alice works at acme", results[0].Passage)
	assert.Equal(t, 1.0, results[0].Score)
	assert.Equal(t, "alice is an engineer", results[1].Passage)
	assert.Equal(t, "bob works at globex", results[2].Passage)
	assert.Equal(t, 0.0, results[2].Score)
}

func TestMockRerankerEmptyPassages(t *testing.T) {
	client := NewMockRerankerClient(Config{})
	results, err := client.Rank(context.Background(), "query", nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEmbeddingRerankerRanksBySimilarity(t *testing.T) {
	client := NewEmbeddingRerankerClient(embedder.NewMockClient(16), DefaultConfig(ProviderEmbedding))
	defer client.Close()

	// The mock embedder maps identical text to identical vectors, so the
	// passage equal to the query must rank first with a normalized score of 1.
	results, err := client.Rank(context.Background(), "the target passage", []string{
		"something unrelated",
		"the target passage",
		"another distractor",
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "the target passage", results[0].Passage)
	assert.Equal(t, 1.0, results[0].Score)
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{Provider: ProviderEmbedding}, nil)
	require.Error(t, err)

	_, err = NewClient(Config{Provider: "bogus"}, nil)
	require.Error(t, err)

	client, err := NewClient(Config{Provider: ProviderMock}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MockRerankerClient{}, client)
}

func TestCircuitBreakerFailsFastWhenOpen(t *testing.T) {
	failing := NewMockRerankerClient(Config{})
	failing.RankErr = errors.New("backend down")

	wrapped := NewCircuitBreakerClient(failing, BreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Timeout:          60,
		ReadyToTripRatio: 0.5,
	}, nil, "test")

	ctx := context.Background()
	passages := []string{"a", "b"}

	// Three consecutive failures trip the breaker.
	for i := 0; i < 3; i++ {
		_, err := wrapped.Rank(ctx, "query", passages)
		require.Error(t, err)
	}

	_, err := wrapped.Rank(ctx, "query", passages)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestCircuitBreakerPassesThroughSuccess(t *testing.T) {
	wrapped := NewCircuitBreakerClient(NewMockRerankerClient(Config{}), BreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Timeout:          60,
		ReadyToTripRatio: 0.5,
	}, nil, "test")

	results, err := wrapped.Rank(context.Background(), "alpha", []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "alpha", results[0].Passage)
}
