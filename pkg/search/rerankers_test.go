package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRRFCombinesChannels(t *testing.T) {
	uuids, scores := RRF([][]string{
		{"a", "b", "c"},
		{"b", "a"},
	}, DefaultRankConstant, 0)

	require.Len(t, uuids, 3)
	require.Len(t, scores, 3)

	// a: 1/60 + 1/61, b: 1/61 + 1/60 — tied, so ascending uuid breaks it.
	assert.Equal(t, "a", uuids[0])
	assert.Equal(t, "b", uuids[1])
	assert.Equal(t, "c", uuids[2])
	assert.Equal(t, scores[0], scores[1])
	assert.Greater(t, scores[0], scores[2])
}

func TestRRFScoreImprovesWithRank(t *testing.T) {
	scoreOf := func(rankings [][]string, target string) float64 {
		uuids, scores := RRF(rankings, DefaultRankConstant, 0)
		for i, uuid := range uuids {
			if uuid == target {
				return scores[i]
			}
		}
		return 0
	}

	// Moving x up in one channel while the other stays fixed must not
	// decrease its fused score.
	worse := scoreOf([][]string{{"a", "b", "x"}, {"x", "a"}}, "x")
	better := scoreOf([][]string{{"a", "x", "b"}, {"x", "a"}}, "x")
	assert.Greater(t, better, worse)
}

func TestRRFMinScoreThreshold(t *testing.T) {
	uuids, _ := RRF([][]string{{"a"}, {"a"}, {"b"}}, DefaultRankConstant, 0.02)

	// a scores 2/60, b only 1/60.
	require.Len(t, uuids, 1)
	assert.Equal(t, "a", uuids[0])
}

func TestNodeDistanceRerankOrdersByHops(t *testing.T) {
	hops := map[string]int{"near": 1, "far": 2}

	uuids, scores := NodeDistanceRerank([]string{"far", "near", "unreached"}, hops, 0)

	require.Equal(t, []string{"near", "far"}, uuids)
	assert.Equal(t, 0.5, scores[0])
	assert.InDelta(t, 1.0/3.0, scores[1], 1e-9)
}

func TestEpisodeMentionsRerankNormalizes(t *testing.T) {
	mentions := map[string]int{"a": 4, "b": 2, "c": 0}

	uuids, scores := EpisodeMentionsRerank([]string{"c", "b", "a"}, mentions, 0)

	require.Equal(t, []string{"a", "b", "c"}, uuids)
	assert.Equal(t, []float64{1.0, 0.5, 0.0}, scores)
}

func TestEpisodeMentionsRerankAllZero(t *testing.T) {
	uuids, scores := EpisodeMentionsRerank([]string{"b", "a"}, map[string]int{}, 0)

	require.Equal(t, []string{"a", "b"}, uuids)
	assert.Equal(t, []float64{0, 0}, scores)
}

func TestMMRSelectsRelevantThenDiverse(t *testing.T) {
	query := []float32{1, 0}
	embeddings := map[string][]float32{
		"relevant":  {0.9, 0.1},
		"duplicate": {0.8, 0.2},
		"diverse":   {0, 1},
	}

	// A low lambda weights diversity heavily, so the near-duplicate of the
	// first pick loses to the orthogonal candidate.
	uuids, scores := MaximalMarginalRelevance(query, []string{"relevant", "duplicate", "diverse"}, embeddings, 0.3, -1)

	require.Len(t, uuids, 3)
	assert.Equal(t, "relevant", uuids[0])
	// Near-duplicate is penalized below the orthogonal candidate.
	assert.Equal(t, "diverse", uuids[1])
	assert.Equal(t, "duplicate", uuids[2])

	// Greedy scores never select a lower-scoring candidate first.
	for i := 1; i < len(scores); i++ {
		assert.LessOrEqual(t, scores[i], scores[i-1]+1e-9)
	}
}

func TestMMRPureDiversityLambdaZero(t *testing.T) {
	query := []float32{1, 0}
	embeddings := map[string][]float32{
		"first":     {1, 0},
		"duplicate": {1, 0},
		"diverse":   {0, 1},
	}

	// Lambda 0 ignores relevance entirely: after the order-breaking first
	// pick, the orthogonal candidate beats the exact duplicate.
	uuids, _ := MaximalMarginalRelevance(query, []string{"first", "duplicate", "diverse"}, embeddings, 0, -2)

	require.Len(t, uuids, 3)
	assert.Equal(t, "first", uuids[0])
	assert.Equal(t, "diverse", uuids[1])
	assert.Equal(t, "duplicate", uuids[2])
}

func TestMMRSkipsCandidatesWithoutEmbeddings(t *testing.T) {
	uuids, _ := MaximalMarginalRelevance([]float32{1, 0}, []string{"a", "b"}, map[string][]float32{
		"a": {1, 0},
	}, 0.5, -1)

	assert.Equal(t, []string{"a"}, uuids)
}

func TestMMRTiesBrokenByDiscoveryOrder(t *testing.T) {
	embeddings := map[string][]float32{
		"second": {0, 1},
		"first":  {0, 1},
	}

	uuids, _ := MaximalMarginalRelevance([]float32{1, 0}, []string{"second", "first"}, embeddings, 0.5, -1)

	require.Len(t, uuids, 2)
	assert.Equal(t, "second", uuids[0], "earliest-discovered candidate wins ties")
}
