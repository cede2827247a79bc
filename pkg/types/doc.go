// Package types defines the core data types for the recall retrieval engine.
//
// This package contains the four searchable entity kinds:
//   - EntityEdge: Facts (relationships) with a bi-temporal record
//   - EntityNode: Entities extracted from content
//   - EpisodicNode: Units of ingested content with event-time validity
//   - CommunityNode: Clusters of closely related entities
//
// # Bi-temporal Model
//
// Facts track system time and event time independently: created_at records
// when the fact entered the graph, valid_at/invalid_at bound the period in
// which the fact holds in the world, and expired_at is set once when the
// fact is superseded by newer information.
//
// # Validation
//
// Types provide Validate() methods for input validation:
//
//	edge := &types.EntityEdge{Uuid: "e1", GroupID: "group-1"}
//	if err := edge.Validate(); err != nil {
//	    // Handle validation error
//	}
//
// # Tenancy
//
// Every record is owned by exactly one group_id. No operation in this
// module reads across group boundaries.
package types
