package search

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/recall/pkg/types"
)

func TestFailedKindsExtractsJoinedFailures(t *testing.T) {
	edgeFailure := &KindError{Kind: types.EdgeKind, Errs: []error{errors.New("vector index down")}}
	nodeFailure := &KindError{Kind: types.NodeKind, Errs: []error{errors.New("fulltext index down")}}

	joined := errors.Join(edgeFailure, nodeFailure)
	failures := FailedKinds(fmt.Errorf("search failed: %w", joined))

	require.Len(t, failures, 2)
	assert.Equal(t, types.EdgeKind, failures[0].Kind)
	assert.Equal(t, types.NodeKind, failures[1].Kind)
}

func TestFailedKindsNilAndUnrelatedErrors(t *testing.T) {
	assert.Nil(t, FailedKinds(nil))
	assert.Empty(t, FailedKinds(errors.New("plain failure")))
	assert.Empty(t, FailedKinds(&ChannelError{Kind: types.EdgeKind, Method: MethodBM25, Err: errors.New("down")}))
}
