package search

import (
	"context"

	"github.com/soundprediction/recall/pkg/types"
)

// Chunk is one element of a streamed result sequence. Exactly one chunk in
// a successful stream carries IsLast; a cancelled stream ends with a chunk
// whose Error is set instead.
type Chunk struct {
	Kind   types.Kind `json:"kind,omitempty"`
	Item   any        `json:"item,omitempty"`
	Score  float64    `json:"score"`
	IsLast bool       `json:"is_last,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// Stream emits the final ranked results as ordered chunks: edges, nodes,
// episodes, then communities, each in ranking order. Emission order is
// fixed before the first send; nothing is reordered mid-stream. On context
// cancellation the stream terminates early with an explicit error chunk.
func Stream(ctx context.Context, results *SearchResults) <-chan Chunk {
	out := make(chan Chunk)

	go func() {
		defer close(out)

		chunks := make([]Chunk, 0,
			len(results.Edges)+len(results.Nodes)+len(results.Episodes)+len(results.Communities))
		for i, edge := range results.Edges {
			chunks = append(chunks, Chunk{Kind: types.EdgeKind, Item: edge, Score: results.EdgeScores[i]})
		}
		for i, node := range results.Nodes {
			chunks = append(chunks, Chunk{Kind: types.NodeKind, Item: node, Score: results.NodeScores[i]})
		}
		for i, episode := range results.Episodes {
			chunks = append(chunks, Chunk{Kind: types.EpisodeKind, Item: episode, Score: results.EpisodeScores[i]})
		}
		for i, community := range results.Communities {
			chunks = append(chunks, Chunk{Kind: types.CommunityKind, Item: community, Score: results.CommunityScores[i]})
		}

		if len(chunks) == 0 {
			// Empty result: a bare terminal marker.
			chunks = append(chunks, Chunk{IsLast: true})
		} else {
			chunks[len(chunks)-1].IsLast = true
		}

		for _, chunk := range chunks {
			select {
			case out <- chunk:
			case <-ctx.Done():
				// Best-effort error chunk; the receiver may already be gone.
				select {
				case out <- Chunk{Error: ctx.Err().Error()}:
				default:
				}
				return
			}
		}
	}()

	return out
}
