package driver

import (
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord(keys []string, values []any) *db.Record {
	return &db.Record{Keys: keys, Values: values}
}

func TestSanitizeLucene(t *testing.T) {
	assert.Equal(t, "who is Alice", sanitizeLucene("  who is Alice "))
	assert.Equal(t, `\(a\) AND \-b\:c`, sanitizeLucene(`(a) AND -b:c`))
	assert.Equal(t, "", sanitizeLucene("   "))

	long := ""
	for i := 0; i < maxQueryTerms+1; i++ {
		long += "word "
	}
	assert.Equal(t, "", sanitizeLucene(long))
}

func TestEdgeFromRecord(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	valid := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)

	record := newRecord(
		[]string{
			"uuid", "group_id", "name", "fact", "fact_embedding", "episodes",
			"created_at", "valid_at", "invalid_at", "expired_at", "attributes",
			"source_node_uuid", "target_node_uuid",
		},
		[]any{
			"edge-1", "tenant-a", "WORKS_AT", "Alice works at Acme",
			[]any{0.5, 0.25}, []any{"ep-1", "ep-2"},
			created, valid, nil, nil,
			map[string]any{
				"uuid":       "edge-1",
				"fact":       "Alice works at Acme",
				"confidence": 0.9,
			},
			"node-a", "node-b",
		},
	)

	edge := edgeFromRecord(record)
	assert.Equal(t, "edge-1", edge.Uuid)
	assert.Equal(t, "tenant-a", edge.GroupID)
	assert.Equal(t, "node-a", edge.SourceNodeUuid)
	assert.Equal(t, "node-b", edge.TargetNodeUuid)
	assert.Equal(t, []float32{0.5, 0.25}, edge.FactEmbedding)
	assert.Equal(t, []string{"ep-1", "ep-2"}, edge.Episodes)
	assert.Equal(t, created, edge.CreatedAt)
	require.NotNil(t, edge.ValidAt)
	assert.Equal(t, valid, *edge.ValidAt)
	assert.Nil(t, edge.InvalidAt)

	// Reserved property keys must not leak into attributes.
	assert.Equal(t, map[string]interface{}{"confidence": 0.9}, edge.Attributes)
}

func TestNodeFromRecord(t *testing.T) {
	record := newRecord(
		[]string{"uuid", "group_id", "name", "labels", "summary", "name_embedding", "created_at", "attributes"},
		[]any{
			"node-1", "tenant-a", "Alice", []any{"Entity", "Person"},
			"an engineer", []any{1.0, 0.0},
			time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), nil,
		},
	)

	node := nodeFromRecord(record)
	assert.Equal(t, "node-1", node.Uuid)
	assert.Equal(t, []string{"Entity", "Person"}, node.Labels)
	assert.Equal(t, "an engineer", node.Summary)
	assert.Equal(t, []float32{1.0, 0.0}, node.NameEmbedding)
	assert.Nil(t, node.Attributes)
}

func TestScoredIDsFromRecords(t *testing.T) {
	records := []*db.Record{
		newRecord([]string{"uuid", "score"}, []any{"a", 0.9}),
		newRecord([]string{"uuid", "score"}, []any{nil, 0.5}),
		newRecord([]string{"uuid", "score"}, []any{"b", int64(1)}),
	}

	scored, err := scoredIDsFromRecords(records)
	require.NoError(t, err)
	require.Len(t, scored, 2)
	assert.Equal(t, ScoredID{UUID: "a", Score: 0.9}, scored[0])
	assert.Equal(t, ScoredID{UUID: "b", Score: 1.0}, scored[1])
}
