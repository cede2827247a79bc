package crossencoder

import (
	"context"
	"sort"
	"strings"
)

// MockRerankerClient provides a deterministic reranker for testing. Scores
// are term-overlap ratios between query and passage, so tests can predict
// the ordering.
type MockRerankerClient struct {
	config Config

	// RankErr, when set, is returned by every Rank call. Used to exercise
	// fallback paths.
	RankErr error
}

// NewMockRerankerClient creates a new mock reranker client
func NewMockRerankerClient(config Config) *MockRerankerClient {
	return &MockRerankerClient{config: config}
}

// Rank scores passages by the fraction of query terms they contain.
func (c *MockRerankerClient) Rank(ctx context.Context, query string, passages []string) ([]RankedPassage, error) {
	if c.RankErr != nil {
		return nil, c.RankErr
	}
	if len(passages) == 0 {
		return []RankedPassage{}, nil
	}

	queryTerms := strings.Fields(strings.ToLower(query))

	results := make([]RankedPassage, 0, len(passages))
	for _, passage := range passages {
		lowered := strings.ToLower(passage)
		matched := 0
		for _, term := range queryTerms {
			if strings.Contains(lowered, term) {
				matched++
			}
		}
		score := 0.0
		if len(queryTerms) > 0 {
			score = float64(matched) / float64(len(queryTerms))
		}
		results = append(results, RankedPassage{Passage: passage, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results, nil
}

// Close cleans up any resources used by the client
func (c *MockRerankerClient) Close() error {
	return nil
}
