package search

import (
	"fmt"
	"time"

	"github.com/soundprediction/recall/pkg/types"
)

// ComparisonOperator defines comparison operators for filtering
type ComparisonOperator string

const (
	Equals           ComparisonOperator = "="
	NotEquals        ComparisonOperator = "<>"
	GreaterThan      ComparisonOperator = ">"
	LessThan         ComparisonOperator = "<"
	GreaterThanEqual ComparisonOperator = ">="
	LessThanEqual    ComparisonOperator = "<="
	IsNull           ComparisonOperator = "IS NULL"
	IsNotNull        ComparisonOperator = "IS NOT NULL"
)

// DateFilter represents a date-based filter with comparison operator
type DateFilter struct {
	Date               *time.Time         `json:"date,omitempty"`
	ComparisonOperator ComparisonOperator `json:"comparison_operator"`
}

// PropertyFilter applies a typed comparison to a named attribute. The value
// must be a string, int, float, or bool; an attribute of a different type is
// a non-match, not an error.
type PropertyFilter struct {
	Name     string             `json:"name"`
	Operator ComparisonOperator `json:"operator"`
	Value    any                `json:"value,omitempty"`
}

// SearchFilters prunes the fused candidate set before truncation. Date
// filter groups are OR-ed together; filters within one group are AND-ed.
type SearchFilters struct {
	// NodeLabels keeps only nodes carrying at least one of these labels.
	NodeLabels []string `json:"node_labels,omitempty"`

	// EdgeTypes keeps only edges whose relation name is listed.
	EdgeTypes []string `json:"edge_types,omitempty"`

	// EdgeUUIDs keeps only the listed edges.
	EdgeUUIDs []string `json:"edge_uuids,omitempty"`

	ValidAt   [][]DateFilter `json:"valid_at,omitempty"`
	InvalidAt [][]DateFilter `json:"invalid_at,omitempty"`
	CreatedAt [][]DateFilter `json:"created_at,omitempty"`
	ExpiredAt [][]DateFilter `json:"expired_at,omitempty"`

	Properties []PropertyFilter `json:"properties,omitempty"`
}

// Validate rejects malformed filters: any comparison other than IS NULL /
// IS NOT NULL requires a date.
func (f *SearchFilters) Validate() error {
	if f == nil {
		return nil
	}
	for _, groups := range [][][]DateFilter{f.ValidAt, f.InvalidAt, f.CreatedAt, f.ExpiredAt} {
		for _, group := range groups {
			for _, filter := range group {
				switch filter.ComparisonOperator {
				case IsNull, IsNotNull:
				case Equals, NotEquals, GreaterThan, LessThan, GreaterThanEqual, LessThanEqual:
					if filter.Date == nil {
						return fmt.Errorf("date filter with operator %q requires a date: %w", filter.ComparisonOperator, ErrInvalidConfig)
					}
				default:
					return fmt.Errorf("unknown comparison operator %q: %w", filter.ComparisonOperator, ErrInvalidConfig)
				}
			}
		}
	}
	for _, property := range f.Properties {
		switch property.Operator {
		case IsNull, IsNotNull, Equals, NotEquals, GreaterThan, LessThan, GreaterThanEqual, LessThanEqual:
		default:
			return fmt.Errorf("unknown comparison operator %q: %w", property.Operator, ErrInvalidConfig)
		}
	}
	return nil
}

// MatchEdge reports whether an edge passes every configured filter.
func (f *SearchFilters) MatchEdge(edge *types.EntityEdge) bool {
	if f == nil {
		return true
	}
	if len(f.EdgeUUIDs) > 0 && !contains(f.EdgeUUIDs, edge.Uuid) {
		return false
	}
	if len(f.EdgeTypes) > 0 && !contains(f.EdgeTypes, edge.Name) {
		return false
	}
	createdAt := edge.CreatedAt
	if !matchDateGroups(f.CreatedAt, &createdAt) {
		return false
	}
	if !matchDateGroups(f.ValidAt, edge.ValidAt) {
		return false
	}
	if !matchDateGroups(f.InvalidAt, edge.InvalidAt) {
		return false
	}
	if !matchDateGroups(f.ExpiredAt, edge.ExpiredAt) {
		return false
	}
	return matchProperties(f.Properties, edge.Attributes)
}

// MatchNode reports whether a node passes every configured filter.
func (f *SearchFilters) MatchNode(node *types.EntityNode) bool {
	if f == nil {
		return true
	}
	if len(f.NodeLabels) > 0 {
		matched := false
		for _, label := range node.Labels {
			if contains(f.NodeLabels, label) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	createdAt := node.CreatedAt
	if !matchDateGroups(f.CreatedAt, &createdAt) {
		return false
	}
	return matchProperties(f.Properties, node.Attributes)
}

// MatchEpisode reports whether an episode passes every configured filter.
func (f *SearchFilters) MatchEpisode(episode *types.EpisodicNode) bool {
	if f == nil {
		return true
	}
	createdAt := episode.CreatedAt
	if !matchDateGroups(f.CreatedAt, &createdAt) {
		return false
	}
	return matchDateGroups(f.ValidAt, episode.ValidAt)
}

// MatchCommunity reports whether a community passes every configured filter.
func (f *SearchFilters) MatchCommunity(community *types.CommunityNode) bool {
	if f == nil {
		return true
	}
	createdAt := community.CreatedAt
	return matchDateGroups(f.CreatedAt, &createdAt)
}

// matchDateGroups evaluates OR-of-AND date filter groups against a
// timestamp that may be absent.
func matchDateGroups(groups [][]DateFilter, value *time.Time) bool {
	if len(groups) == 0 {
		return true
	}
	for _, group := range groups {
		if matchDateGroup(group, value) {
			return true
		}
	}
	return false
}

func matchDateGroup(group []DateFilter, value *time.Time) bool {
	for _, filter := range group {
		if !matchDateFilter(filter, value) {
			return false
		}
	}
	return true
}

func matchDateFilter(filter DateFilter, value *time.Time) bool {
	switch filter.ComparisonOperator {
	case IsNull:
		return value == nil
	case IsNotNull:
		return value != nil
	}

	// An absent timestamp never satisfies a value comparison.
	if value == nil || filter.Date == nil {
		return false
	}

	switch filter.ComparisonOperator {
	case Equals:
		return value.Equal(*filter.Date)
	case NotEquals:
		return !value.Equal(*filter.Date)
	case GreaterThan:
		return value.After(*filter.Date)
	case LessThan:
		return value.Before(*filter.Date)
	case GreaterThanEqual:
		return !value.Before(*filter.Date)
	case LessThanEqual:
		return !value.After(*filter.Date)
	}
	return false
}

func matchProperties(filters []PropertyFilter, attributes map[string]interface{}) bool {
	for _, filter := range filters {
		if !matchProperty(filter, attributes) {
			return false
		}
	}
	return true
}

func matchProperty(filter PropertyFilter, attributes map[string]interface{}) bool {
	value, exists := attributes[filter.Name]

	switch filter.Operator {
	case IsNull:
		return !exists
	case IsNotNull:
		return exists
	}
	if !exists {
		return false
	}

	switch expected := filter.Value.(type) {
	case string:
		actual, ok := value.(string)
		if !ok {
			return false
		}
		return compareOrdered(actual, expected, filter.Operator)
	case bool:
		actual, ok := value.(bool)
		if !ok {
			return false
		}
		switch filter.Operator {
		case Equals:
			return actual == expected
		case NotEquals:
			return actual != expected
		}
		return false
	case int, int32, int64, float32, float64:
		expectedNum, _ := asFloat64(expected)
		actualNum, ok := asFloat64(value)
		if !ok {
			return false
		}
		return compareOrdered(actualNum, expectedNum, filter.Operator)
	}
	return false
}

func asFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

func compareOrdered[T string | float64](actual, expected T, operator ComparisonOperator) bool {
	switch operator {
	case Equals:
		return actual == expected
	case NotEquals:
		return actual != expected
	case GreaterThan:
		return actual > expected
	case LessThan:
		return actual < expected
	case GreaterThanEqual:
		return actual >= expected
	case LessThanEqual:
		return actual <= expected
	}
	return false
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
