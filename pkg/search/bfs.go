package search

import (
	"context"
	"sort"

	"github.com/soundprediction/recall/pkg/driver"
)

// traversal holds the hop distances discovered by one breadth-first pass.
// Seeds sit at hop 0; an id absent from a map was not reached within the
// depth bound.
type traversal struct {
	nodeHops map[string]int
	edgeHops map[string]int
}

// breadthFirstSearch expands level by level from the seed nodes up to
// maxDepth hops. Adjacency is fetched one frontier at a time and an explicit
// visited set guarantees termination on cyclic graphs.
func breadthFirstSearch(ctx context.Context, reader driver.GraphReader, seeds []string, groupIDs []string, maxDepth int) (*traversal, error) {
	result := &traversal{
		nodeHops: make(map[string]int),
		edgeHops: make(map[string]int),
	}
	if len(seeds) == 0 || maxDepth <= 0 {
		return result, nil
	}

	frontier := make([]string, 0, len(seeds))
	for _, seed := range seeds {
		if _, visited := result.nodeHops[seed]; visited {
			continue
		}
		result.nodeHops[seed] = 0
		frontier = append(frontier, seed)
	}

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		adjacency, err := reader.Neighbors(ctx, frontier, groupIDs)
		if err != nil {
			return nil, err
		}

		var next []string
		for _, source := range frontier {
			for _, neighbor := range adjacency[source] {
				if _, seen := result.edgeHops[neighbor.EdgeUUID]; !seen && neighbor.EdgeUUID != "" {
					result.edgeHops[neighbor.EdgeUUID] = depth
				}
				if _, visited := result.nodeHops[neighbor.NodeUUID]; visited {
					continue
				}
				result.nodeHops[neighbor.NodeUUID] = depth
				next = append(next, neighbor.NodeUUID)
			}
		}
		frontier = next
	}

	return result, nil
}

// nodeRanking returns reached nodes ordered by hop distance, excluding the
// seeds themselves. Ties are broken by ascending uuid for determinism.
func (t *traversal) nodeRanking() []string {
	return rankByHops(t.nodeHops, true)
}

// edgeRanking returns reached edges ordered by hop distance.
func (t *traversal) edgeRanking() []string {
	return rankByHops(t.edgeHops, false)
}

func rankByHops(hops map[string]int, skipSeeds bool) []string {
	uuids := make([]string, 0, len(hops))
	for uuid, hop := range hops {
		if skipSeeds && hop == 0 {
			continue
		}
		uuids = append(uuids, uuid)
	}
	sort.Slice(uuids, func(i, j int) bool {
		if hops[uuids[i]] != hops[uuids[j]] {
			return hops[uuids[i]] < hops[uuids[j]]
		}
		return uuids[i] < uuids[j]
	})
	return uuids
}
