package search

import (
	"fmt"
	"strings"
)

// ResultsToContextString renders search results as a prompt-ready context
// block, most relevant entries first.
func ResultsToContextString(results *SearchResults) string {
	var sb strings.Builder

	if len(results.Edges) > 0 {
		sb.WriteString("FACTS:\n")
		for _, edge := range results.Edges {
			sb.WriteString(fmt.Sprintf("  - %s", edge.Fact))
			if edge.ValidAt != nil {
				sb.WriteString(fmt.Sprintf(" (valid from %s", edge.ValidAt.Format("2006-01-02")))
				if edge.InvalidAt != nil {
					sb.WriteString(fmt.Sprintf(" to %s", edge.InvalidAt.Format("2006-01-02")))
				}
				sb.WriteString(")")
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if len(results.Nodes) > 0 {
		sb.WriteString("ENTITIES:\n")
		for _, node := range results.Nodes {
			if node.Summary != "" {
				sb.WriteString(fmt.Sprintf("  - %s: %s\n", node.Name, node.Summary))
			} else {
				sb.WriteString(fmt.Sprintf("  - %s\n", node.Name))
			}
		}
		sb.WriteString("\n")
	}

	if len(results.Episodes) > 0 {
		sb.WriteString("EPISODES:\n")
		for _, episode := range results.Episodes {
			sb.WriteString(fmt.Sprintf("  - %s\n", episode.Content))
		}
		sb.WriteString("\n")
	}

	if len(results.Communities) > 0 {
		sb.WriteString("COMMUNITIES:\n")
		for _, community := range results.Communities {
			sb.WriteString(fmt.Sprintf("  - %s: %s\n", community.Name, community.Summary))
		}
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}
