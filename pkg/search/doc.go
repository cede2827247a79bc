/*
Package search implements hybrid retrieval over the knowledge graph: a
query fans out to retrieval channels (cosine similarity, BM25, graph BFS)
per entity kind, candidates are pruned by temporal and attribute filters,
and a configurable reranker (RRF, node distance, episode mentions, MMR, or
cross-encoder) fuses them into one ranked list per kind.

The flow for one request:

 1. buildPlan validates the configuration and resolves defaults.
 2. Channels run concurrently under a semaphore shared across all
    in-flight queries; a failed channel is logged and excluded, and a kind
    only fails when every one of its channels failed.
 3. Fused candidates are hydrated, filtered, reranked in uuid space,
    thresholded, and truncated to the configured limit.

A degraded cross-encoder or missing query embedding falls back to RRF and
marks the response Degraded rather than failing.

Cursor provides stable uuid-ordered pagination for by-group reads, and
Stream delivers final rankings as ordered chunks with a terminal marker.
*/
package search
