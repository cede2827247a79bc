// Package recall provides a retrieval engine for bi-temporal knowledge
// graphs.
//
// Recall is the read path of a knowledge graph: it fans a query out over
// multiple retrieval channels (embedding similarity, BM25 lexical search,
// and breadth-first graph traversal), applies temporal and property
// filters, fuses the candidate rankings, and returns ranked edges, nodes,
// episodes, and communities. Nothing here mutates the graph.
//
// # Basic Usage
//
// Create a new Recall client with the required components:
//
//	// Create the Neo4j reader
//	reader, err := driver.NewNeo4jReader("bolt://localhost:7687", "neo4j", "password", "neo4j")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer reader.Close(ctx)
//
//	// Create the embedder
//	embedderClient, err := embedder.NewClient(embedder.Config{
//		Provider: embedder.ProviderOpenAI,
//		APIKey:   "your-api-key",
//	})
//
//	// Create the Recall client
//	client, err := recall.NewClient(reader, embedderClient, nil, nil, nil)
//
// # Searching
//
// Perform hybrid fact search over edges:
//
//	results, err := client.Search(ctx, "project timeline", []string{"my-group"}, 10)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for i, edge := range results.Edges {
//		fmt.Printf("%.3f %s\n", results.EdgeScores[i], edge.Fact)
//	}
//
// Advanced queries select channels, rerankers, and filters per kind:
//
//	results, err := client.SearchAdvanced(ctx, search.Query{
//		Text:     "project timeline",
//		GroupIDs: []string{"my-group"},
//		Config: &search.SearchConfig{
//			Node: &search.KindConfig{
//				SearchMethods: []search.SearchMethod{search.MethodCosineSimilarity, search.MethodBFS},
//				Reranker:      search.RerankerMMR,
//			},
//			Limit: 20,
//		},
//		CenterNodeUUIDs: []string{"node-uuid"},
//	})
//
// # Entity Kinds
//
// Four kinds of graph entities are searchable:
//
//   - EntityEdge: facts connecting two entities, with bi-temporal validity
//   - EntityNode: entities extracted from ingested content
//   - EpisodicNode: raw units of ingested content
//   - CommunityNode: clusters of closely related entities
//
// # Temporal Awareness
//
// Edges carry a bi-temporal record: created_at is system time, while
// valid_at and invalid_at bound the event-time window in which the fact
// holds. expired_at marks supersession. Date filters match against any of
// these timestamps with OR-of-AND group semantics.
//
// # Multi-tenancy
//
// Every query is scoped to explicit group IDs; no operation ever reads
// across a group boundary.
//
// # Architecture
//
//   - pkg/driver: graph database read-path abstraction and Neo4j implementation
//   - pkg/search: planner, channels, filters, rerankers, cursors, streaming
//   - pkg/embedder: embedding clients with optional on-disk caching
//   - pkg/crossencoder: reranking clients with circuit breaking
//   - pkg/types: core entity definitions
package recall
