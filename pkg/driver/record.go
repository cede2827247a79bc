package driver

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/soundprediction/recall/pkg/types"
)

// Property keys that map to typed struct fields; everything else in a
// properties() map lands in Attributes.
var reservedEdgeKeys = map[string]bool{
	"uuid": true, "group_id": true, "name": true, "fact": true,
	"fact_embedding": true, "episodes": true, "created_at": true,
	"valid_at": true, "invalid_at": true, "expired_at": true,
}

var reservedNodeKeys = map[string]bool{
	"uuid": true, "group_id": true, "name": true, "summary": true,
	"name_embedding": true, "created_at": true,
}

func edgeFromRecord(record *db.Record) *types.EntityEdge {
	edge := &types.EntityEdge{}
	edge.Uuid, _ = stringValue(record, "uuid")
	edge.GroupID, _ = stringValue(record, "group_id")
	edge.SourceNodeUuid, _ = stringValue(record, "source_node_uuid")
	edge.TargetNodeUuid, _ = stringValue(record, "target_node_uuid")
	edge.Name, _ = stringValue(record, "name")
	edge.Fact, _ = stringValue(record, "fact")
	edge.FactEmbedding = float32SliceValue(record, "fact_embedding")
	edge.Episodes = stringSliceValue(record, "episodes")
	edge.CreatedAt = timeValue(record, "created_at")
	edge.ValidAt = optionalTimeValue(record, "valid_at")
	edge.InvalidAt = optionalTimeValue(record, "invalid_at")
	edge.ExpiredAt = optionalTimeValue(record, "expired_at")
	edge.Attributes = attributesValue(record, reservedEdgeKeys)
	return edge
}

func nodeFromRecord(record *db.Record) *types.EntityNode {
	node := &types.EntityNode{}
	node.Uuid, _ = stringValue(record, "uuid")
	node.GroupID, _ = stringValue(record, "group_id")
	node.Name, _ = stringValue(record, "name")
	node.Labels = stringSliceValue(record, "labels")
	node.Summary, _ = stringValue(record, "summary")
	node.NameEmbedding = float32SliceValue(record, "name_embedding")
	node.CreatedAt = timeValue(record, "created_at")
	node.Attributes = attributesValue(record, reservedNodeKeys)
	return node
}

func episodeFromRecord(record *db.Record) *types.EpisodicNode {
	episode := &types.EpisodicNode{}
	episode.Uuid, _ = stringValue(record, "uuid")
	episode.GroupID, _ = stringValue(record, "group_id")
	episode.Name, _ = stringValue(record, "name")
	episode.Source, _ = stringValue(record, "source")
	episode.Content, _ = stringValue(record, "content")
	episode.ValidAt = optionalTimeValue(record, "valid_at")
	episode.CreatedAt = timeValue(record, "created_at")
	return episode
}

func communityFromRecord(record *db.Record) *types.CommunityNode {
	community := &types.CommunityNode{}
	community.Uuid, _ = stringValue(record, "uuid")
	community.GroupID, _ = stringValue(record, "group_id")
	community.Name, _ = stringValue(record, "name")
	community.Summary, _ = stringValue(record, "summary")
	community.NameEmbedding = float32SliceValue(record, "name_embedding")
	community.CreatedAt = timeValue(record, "created_at")
	return community
}

func stringValue(record *db.Record, key string) (string, bool) {
	raw, ok := record.Get(key)
	if !ok || raw == nil {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}

func floatValue(record *db.Record, key string) (float64, bool) {
	raw, ok := record.Get(key)
	if !ok || raw == nil {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func intValue(record *db.Record, key string) (int, bool) {
	raw, ok := record.Get(key)
	if !ok || raw == nil {
		return 0, false
	}
	switch v := raw.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

func timeValue(record *db.Record, key string) time.Time {
	if t := optionalTimeValue(record, key); t != nil {
		return *t
	}
	return time.Time{}
}

func optionalTimeValue(record *db.Record, key string) *time.Time {
	raw, ok := record.Get(key)
	if !ok || raw == nil {
		return nil
	}
	return asTime(raw)
}

func asTime(raw any) *time.Time {
	switch v := raw.(type) {
	case time.Time:
		return &v
	case dbtype.Time:
		t := v.Time()
		return &t
	case dbtype.LocalDateTime:
		t := v.Time()
		return &t
	case dbtype.Date:
		t := v.Time()
		return &t
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return &t
		}
	}
	return nil
}

func stringSliceValue(record *db.Record, key string) []string {
	raw, ok := record.Get(key)
	if !ok || raw == nil {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func float32SliceValue(record *db.Record, key string) []float32 {
	raw, ok := record.Get(key)
	if !ok || raw == nil {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]float32, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case float64:
			out = append(out, float32(v))
		case float32:
			out = append(out, v)
		case int64:
			out = append(out, float32(v))
		}
	}
	return out
}

func attributesValue(record *db.Record, reserved map[string]bool) map[string]interface{} {
	raw, ok := record.Get("attributes")
	if !ok || raw == nil {
		return nil
	}
	props, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	attributes := make(map[string]interface{})
	for key, value := range props {
		if reserved[key] {
			continue
		}
		attributes[key] = value
	}
	if len(attributes) == 0 {
		return nil
	}
	return attributes
}
