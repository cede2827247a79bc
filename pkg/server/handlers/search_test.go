package handlers

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/recall/pkg/search"
	"github.com/soundprediction/recall/pkg/server/dto"
	"github.com/soundprediction/recall/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSearchRouter(stub *stubRecall) *gin.Engine {
	router := gin.New()
	handler := NewSearchHandler(stub)
	router.POST("/search", handler.Search)
	router.POST("/search/advanced", handler.SearchAdvanced)
	router.POST("/search/stream", handler.SearchStream)
	router.POST("/get-memory", handler.GetMemory)
	return router
}

// closeNotifyRecorder adds the http.CloseNotifier implementation that
// gin's Context.Stream requires but httptest.ResponseRecorder lacks.
type closeNotifyRecorder struct {
	*httptest.ResponseRecorder
}

func (c *closeNotifyRecorder) CloseNotify() <-chan bool {
	return make(chan bool)
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(&closeNotifyRecorder{w}, req)
	return w
}

func TestSearchEndpoint(t *testing.T) {
	stub := &stubRecall{results: edgeResults("Alice leads platform", "Bob reports to Alice")}
	router := newSearchRouter(stub)

	w := postJSON(t, router, "/search", dto.SearchRequest{
		Query:    "who leads platform",
		GroupIDs: []string{"g1"},
		MaxFacts: 5,
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Facts, 2)
	assert.Equal(t, "Alice leads platform", resp.Facts[0].Fact)
	assert.Greater(t, resp.Facts[0].Score, resp.Facts[1].Score)
	assert.Contains(t, resp.Context, "FACTS:")
	assert.Equal(t, []string{"g1"}, stub.lastGroupIDs)
}

func TestSearchEndpointRejectsEmptyQuery(t *testing.T) {
	router := newSearchRouter(&stubRecall{results: edgeResults()})

	w := postJSON(t, router, "/search", map[string]any{
		"query":     "   ",
		"group_ids": []string{"g1"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchEndpointMapsErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid config", search.ErrInvalidConfig, http.StatusBadRequest},
		{"timeout", search.ErrTimeout, http.StatusGatewayTimeout},
		{"all channels failed", search.ErrAllChannelsFailed, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newSearchRouter(&stubRecall{err: tt.err})
			w := postJSON(t, router, "/search", dto.SearchRequest{
				Query:    "q",
				GroupIDs: []string{"g1"},
			})
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestSearchEndpointTotalChannelFailureIsServiceError(t *testing.T) {
	// Production returns empty-but-non-nil results alongside the joined
	// kind failure; that must not be served as an ordinary empty page.
	stub := &stubRecall{
		results: edgeResults(),
		err:     &search.KindError{Kind: types.EdgeKind, Errs: []error{errors.New("vector index down"), errors.New("fulltext index down")}},
	}
	router := newSearchRouter(stub)

	w := postJSON(t, router, "/search", dto.SearchRequest{
		Query:    "q",
		GroupIDs: []string{"g1"},
	})

	require.Equal(t, http.StatusBadGateway, w.Code)
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "all_channels_failed", resp.Error)
}

func TestSearchAdvancedPartialFailureAnnotatesKinds(t *testing.T) {
	results := edgeResults("fact one")
	stub := &stubRecall{
		results: results,
		err:     &search.KindError{Kind: types.CommunityKind, Errs: []error{errors.New("vector index down")}},
	}
	router := newSearchRouter(stub)

	w := postJSON(t, router, "/search/advanced", map[string]any{
		"text":      "fact",
		"group_ids": []string{"g1"},
		"config": map[string]any{
			"edge":      map[string]any{"search_methods": []string{"bm25"}},
			"community": map[string]any{"search_methods": []string{"bm25"}},
		},
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.AdvancedSearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Edges, 1)
	require.Contains(t, resp.Errors, "community")
	assert.Contains(t, resp.Errors["community"], "all channels failed")
	assert.NotContains(t, resp.Errors, "edge")
}

func TestSearchAdvancedAllKindsFailedIsServiceError(t *testing.T) {
	stub := &stubRecall{
		results: edgeResults(),
		err:     &search.KindError{Kind: types.EdgeKind, Errs: []error{errors.New("index down")}},
	}
	router := newSearchRouter(stub)

	w := postJSON(t, router, "/search/advanced", map[string]any{
		"text":      "fact",
		"group_ids": []string{"g1"},
		"config": map[string]any{
			"edge": map[string]any{"search_methods": []string{"bm25"}},
		},
	})

	require.Equal(t, http.StatusBadGateway, w.Code)
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "all_channels_failed", resp.Error)
}

func TestGetMemoryComposesRolePrefixedQuery(t *testing.T) {
	stub := &stubRecall{results: edgeResults("Alice leads platform")}
	router := newSearchRouter(stub)

	w := postJSON(t, router, "/get-memory", dto.GetMemoryRequest{
		GroupIDs: []string{"g1"},
		Messages: []dto.Message{
			{Role: "user", Content: "who runs the platform team?"},
			{Role: "assistant", Content: "let me check"},
		},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user: who runs the platform team?\nassistant: let me check", stub.lastQuery)

	var resp dto.GetMemoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
}

func TestGetMemoryRejectsInvalidRole(t *testing.T) {
	router := newSearchRouter(&stubRecall{results: edgeResults()})

	w := postJSON(t, router, "/get-memory", dto.GetMemoryRequest{
		GroupIDs: []string{"g1"},
		Messages: []dto.Message{{Role: "robot", Content: "hello"}},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchAdvancedEndpoint(t *testing.T) {
	stub := &stubRecall{results: edgeResults("fact one")}
	router := newSearchRouter(stub)

	w := postJSON(t, router, "/search/advanced", map[string]any{
		"text":      "fact",
		"group_ids": []string{"g1"},
		"config": map[string]any{
			"edge": map[string]any{
				"search_methods": []string{"bm25"},
				"reranker":       "rrf",
			},
			"limit": 5,
		},
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp search.SearchResults
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Edges, 1)
	assert.Equal(t, "fact", stub.lastQuery)
}

func TestSearchStreamEmitsSSE(t *testing.T) {
	stub := &stubRecall{results: edgeResults("fact one", "fact two")}
	router := newSearchRouter(stub)

	w := postJSON(t, router, "/search/stream", map[string]any{
		"text":      "fact",
		"group_ids": []string{"g1"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")

	var events int
	scanner := bufio.NewScanner(w.Body)
	var sawLast bool
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data:") {
			events++
			if strings.Contains(line, `"is_last":true`) {
				sawLast = true
			}
		}
	}
	assert.Equal(t, 2, events)
	assert.True(t, sawLast, "final chunk should carry the terminal marker")
}
