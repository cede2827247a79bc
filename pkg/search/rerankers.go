package search

import (
	"sort"

	"github.com/soundprediction/recall/pkg/utils"
)

// RRF (Reciprocal Rank Fusion) combines multiple ranked uuid lists. Each
// channel contributes 1/(k + rank) with 0-based ranks; items absent from a
// channel contribute nothing for it.
func RRF(results [][]string, rankConstant int, minScore float64) ([]string, []float64) {
	if rankConstant <= 0 {
		rankConstant = DefaultRankConstant
	}

	scores := make(map[string]float64)
	for _, result := range results {
		for i, uuid := range result {
			scores[uuid] += 1.0 / float64(i+rankConstant)
		}
	}

	return sortScored(scores, minScore)
}

// NodeDistanceRerank scores candidates as 1/(1 + minimum hop distance to any
// center node). Candidates the traversal never reached are excluded.
func NodeDistanceRerank(candidates []string, hops map[string]int, minScore float64) ([]string, []float64) {
	scores := make(map[string]float64)
	for _, uuid := range candidates {
		hop, reached := hops[uuid]
		if !reached {
			continue
		}
		score := 1.0 / (1.0 + float64(hop))
		if score >= minScore {
			scores[uuid] = score
		}
	}
	return sortScored(scores, minScore)
}

// EpisodeMentionsRerank scores candidates by their distinct-episode mention
// count, normalized by the maximum count in the candidate set.
func EpisodeMentionsRerank(candidates []string, mentions map[string]int, minScore float64) ([]string, []float64) {
	maxMentions := 0
	for _, uuid := range candidates {
		if mentions[uuid] > maxMentions {
			maxMentions = mentions[uuid]
		}
	}

	scores := make(map[string]float64)
	for _, uuid := range candidates {
		score := 0.0
		if maxMentions > 0 {
			score = float64(mentions[uuid]) / float64(maxMentions)
		}
		scores[uuid] = score
	}
	return sortScored(scores, minScore)
}

// MaximalMarginalRelevance greedily selects candidates balancing relevance
// against redundancy: at each step the unselected candidate maximizing
// lambda*relevance - (1-lambda)*maxSimilarityToSelected wins, with ties
// broken by earliest discovery order. A lambda of 0 selects purely for
// diversity, 1 purely for relevance. Candidates without an embedding are
// excluded. Selection stops once the best marginal score falls below
// minScore.
func MaximalMarginalRelevance(queryVector []float32, candidates []string, embeddings map[string][]float32, mmrLambda float64, minScore float64) ([]string, []float64) {
	normalizedQuery := utils.Normalize(queryVector)

	type mmrCandidate struct {
		uuid      string
		vector    []float32
		relevance float64
	}

	remaining := make([]mmrCandidate, 0, len(candidates))
	for _, uuid := range candidates {
		embedding, exists := embeddings[uuid]
		if !exists || len(embedding) == 0 {
			continue
		}
		normalized := utils.Normalize(embedding)
		remaining = append(remaining, mmrCandidate{
			uuid:      uuid,
			vector:    normalized,
			relevance: utils.CosineSimilarity(normalizedQuery, normalized),
		})
	}

	var selected []mmrCandidate
	uuids := make([]string, 0, len(remaining))
	scores := make([]float64, 0, len(remaining))

	for len(remaining) > 0 {
		bestIdx := -1
		bestScore := 0.0

		for i, candidate := range remaining {
			maxSim := 0.0
			for _, chosen := range selected {
				sim := utils.CosineSimilarity(candidate.vector, chosen.vector)
				if sim > maxSim {
					maxSim = sim
				}
			}
			score := mmrLambda*candidate.relevance - (1-mmrLambda)*maxSim
			// Strict comparison keeps the earliest-discovered candidate on ties.
			if bestIdx == -1 || score > bestScore {
				bestIdx = i
				bestScore = score
			}
		}

		if bestScore < minScore {
			break
		}

		chosen := remaining[bestIdx]
		selected = append(selected, chosen)
		uuids = append(uuids, chosen.uuid)
		scores = append(scores, bestScore)
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return uuids, scores
}

// sortScored orders uuids by descending score, breaking ties by ascending
// uuid so rankings stay deterministic.
func sortScored(scores map[string]float64, minScore float64) ([]string, []float64) {
	type uuidScore struct {
		uuid  string
		score float64
	}

	scoredUUIDs := make([]uuidScore, 0, len(scores))
	for uuid, score := range scores {
		if score >= minScore {
			scoredUUIDs = append(scoredUUIDs, uuidScore{uuid: uuid, score: score})
		}
	}

	sort.Slice(scoredUUIDs, func(i, j int) bool {
		if scoredUUIDs[i].score != scoredUUIDs[j].score {
			return scoredUUIDs[i].score > scoredUUIDs[j].score
		}
		return scoredUUIDs[i].uuid < scoredUUIDs[j].uuid
	})

	uuids := make([]string, len(scoredUUIDs))
	scoreList := make([]float64, len(scoredUUIDs))
	for i, item := range scoredUUIDs {
		uuids[i] = item.uuid
		scoreList[i] = item.score
	}
	return uuids, scoreList
}
