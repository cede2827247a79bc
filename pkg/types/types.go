package types

import (
	"errors"
	"time"
)

// Validation errors
var (
	ErrEmptyUUID          = errors.New("uuid cannot be empty")
	ErrEmptyGroupID       = errors.New("group_id cannot be empty")
	ErrEmptyName          = errors.New("name cannot be empty")
	ErrEmptyLabels        = errors.New("labels cannot be empty")
	ErrEmptyContent       = errors.New("content cannot be empty")
	ErrInvalidValidWindow = errors.New("valid_at must not be after invalid_at")
	ErrExpiredAtCleared   = errors.New("expired_at cannot be cleared once set")
)

// Kind identifies one of the four searchable entity kinds.
type Kind string

const (
	EdgeKind      Kind = "edge"
	NodeKind      Kind = "node"
	EpisodeKind   Kind = "episode"
	CommunityKind Kind = "community"
)

// Kinds lists every searchable kind in canonical order.
func Kinds() []Kind {
	return []Kind{EdgeKind, NodeKind, EpisodeKind, CommunityKind}
}

// EntityEdge is a fact connecting two entity nodes. Facts carry a bi-temporal
// record: created_at is system time, valid_at/invalid_at bound the event-time
// window in which the fact holds, and expired_at marks supersession.
type EntityEdge struct {
	Uuid           string    `json:"uuid"`
	GroupID        string    `json:"group_id"`
	SourceNodeUuid string    `json:"source_node_uuid"`
	TargetNodeUuid string    `json:"target_node_uuid"`
	Name           string    `json:"name"`
	Fact           string    `json:"fact"`
	FactEmbedding  []float32 `json:"fact_embedding,omitempty"`
	Episodes       []string  `json:"episodes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`

	ValidAt   *time.Time `json:"valid_at,omitempty"`
	InvalidAt *time.Time `json:"invalid_at,omitempty"`
	ExpiredAt *time.Time `json:"expired_at,omitempty"`

	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// Validate checks identity fields and the temporal window invariant.
func (e *EntityEdge) Validate() error {
	if e.Uuid == "" {
		return ErrEmptyUUID
	}
	if e.GroupID == "" {
		return ErrEmptyGroupID
	}
	if e.ValidAt != nil && e.InvalidAt != nil && e.ValidAt.After(*e.InvalidAt) {
		return ErrInvalidValidWindow
	}
	return nil
}

// Expire sets expired_at once. Clearing or overwriting an existing
// expiration is rejected.
func (e *EntityEdge) Expire(at time.Time) error {
	if e.ExpiredAt != nil {
		return ErrExpiredAtCleared
	}
	e.ExpiredAt = &at
	return nil
}

// EntityNode is an entity extracted from ingested content.
type EntityNode struct {
	Uuid          string                 `json:"uuid"`
	GroupID       string                 `json:"group_id"`
	Name          string                 `json:"name"`
	Labels        []string               `json:"labels"`
	Summary       string                 `json:"summary,omitempty"`
	NameEmbedding []float32              `json:"name_embedding,omitempty"`
	Attributes    map[string]interface{} `json:"attributes,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// Validate checks identity fields. Every entity carries at least one label.
func (n *EntityNode) Validate() error {
	if n.Uuid == "" {
		return ErrEmptyUUID
	}
	if n.GroupID == "" {
		return ErrEmptyGroupID
	}
	if n.Name == "" {
		return ErrEmptyName
	}
	if len(n.Labels) == 0 {
		return ErrEmptyLabels
	}
	return nil
}

// EpisodicNode is a unit of ingested content. ValidAt is the event
// occurrence time, distinct from the system CreatedAt.
type EpisodicNode struct {
	Uuid      string     `json:"uuid"`
	GroupID   string     `json:"group_id"`
	Name      string     `json:"name"`
	Source    string     `json:"source"`
	Content   string     `json:"content"`
	ValidAt   *time.Time `json:"valid_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Validate checks identity fields and that the episode has content.
func (ep *EpisodicNode) Validate() error {
	if ep.Uuid == "" {
		return ErrEmptyUUID
	}
	if ep.GroupID == "" {
		return ErrEmptyGroupID
	}
	if ep.Content == "" {
		return ErrEmptyContent
	}
	return nil
}

// CommunityNode is a cluster of closely related entities.
type CommunityNode struct {
	Uuid          string    `json:"uuid"`
	GroupID       string    `json:"group_id"`
	Name          string    `json:"name"`
	Summary       string    `json:"summary,omitempty"`
	NameEmbedding []float32 `json:"name_embedding,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Validate checks identity fields.
func (c *CommunityNode) Validate() error {
	if c.Uuid == "" {
		return ErrEmptyUUID
	}
	if c.GroupID == "" {
		return ErrEmptyGroupID
	}
	return nil
}
