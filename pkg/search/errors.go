package search

import (
	"errors"
	"fmt"
	"strings"

	"github.com/soundprediction/recall/pkg/types"
)

// Sentinel errors for the search error taxonomy. Typed errors below carry
// detail and match the sentinels through errors.Is.
var (
	// ErrInvalidConfig indicates a request that can never succeed as
	// written: unknown method or reranker, a node-distance reranker with no
	// center nodes, or a malformed filter. Never retried.
	ErrInvalidConfig = errors.New("invalid search configuration")

	// ErrChannelUnavailable indicates a single retrieval channel failed.
	// Recovered locally: the channel is excluded from fusion and logged.
	ErrChannelUnavailable = errors.New("search channel unavailable")

	// ErrAllChannelsFailed indicates every channel for one entity kind
	// failed. Other kinds in the same request may still succeed.
	ErrAllChannelsFailed = errors.New("all search channels failed")

	// ErrTimeout indicates the request deadline expired while channels
	// were in flight.
	ErrTimeout = errors.New("search timed out")
)

// ChannelError reports the failure of one retrieval channel.
type ChannelError struct {
	Kind   types.Kind
	Method SearchMethod
	Err    error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("%s channel %q failed: %v", e.Kind, e.Method, e.Err)
}

func (e *ChannelError) Unwrap() error {
	return e.Err
}

// Is matches ErrChannelUnavailable so callers can test with errors.Is.
func (e *ChannelError) Is(target error) bool {
	return target == ErrChannelUnavailable
}

// KindError reports that every channel for one entity kind failed.
type KindError struct {
	Kind types.Kind
	Errs []error
}

func (e *KindError) Error() string {
	messages := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		messages[i] = err.Error()
	}
	return fmt.Sprintf("all channels failed for kind %s: %s", e.Kind, strings.Join(messages, "; "))
}

func (e *KindError) Unwrap() []error {
	return e.Errs
}

// Is matches ErrAllChannelsFailed so callers can test with errors.Is.
func (e *KindError) Is(target error) bool {
	return target == ErrAllChannelsFailed
}

// FailedKinds extracts the per-kind failures carried by a Search error,
// walking through errors.Join wrappers. The order of the returned slice
// follows the join order.
func FailedKinds(err error) []*KindError {
	if err == nil {
		return nil
	}
	var failures []*KindError
	queue := []error{err}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if kindErr, ok := current.(*KindError); ok {
			failures = append(failures, kindErr)
			continue
		}
		switch wrapped := current.(type) {
		case interface{ Unwrap() []error }:
			queue = append(queue, wrapped.Unwrap()...)
		case interface{ Unwrap() error }:
			if inner := wrapped.Unwrap(); inner != nil {
				queue = append(queue, inner)
			}
		}
	}
	return failures
}
