package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/recall"
	"github.com/soundprediction/recall/pkg/search"
	"github.com/soundprediction/recall/pkg/server/dto"
	"github.com/soundprediction/recall/pkg/types"
)

// SearchHandler serves the search endpoints.
type SearchHandler struct {
	recall recall.Recall
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(r recall.Recall) *SearchHandler {
	return &SearchHandler{recall: r}
}

func writeError(c *gin.Context, status int, errCode, message string) {
	c.JSON(status, dto.ErrorResponse{
		Error:   errCode,
		Message: message,
	})
}

// statusForSearchError maps the search error taxonomy onto HTTP statuses.
func statusForSearchError(err error) (int, string) {
	switch {
	case errors.Is(err, search.ErrInvalidConfig):
		return http.StatusBadRequest, "invalid_config"
	case errors.Is(err, search.ErrTimeout):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, search.ErrAllChannelsFailed):
		return http.StatusBadGateway, "all_channels_failed"
	case errors.Is(err, search.ErrChannelUnavailable):
		return http.StatusBadGateway, "channel_unavailable"
	default:
		return http.StatusInternalServerError, "search_failed"
	}
}

// Search handles POST /search
func (h *SearchHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(c, http.StatusBadRequest, "invalid_request", "query field is required and cannot be empty")
		return
	}

	results, err := h.recall.Search(c.Request.Context(), req.Query, req.GroupIDs, req.MaxFacts)
	if err != nil && (results == nil || len(results.Edges) == 0) {
		status, code := statusForSearchError(err)
		writeError(c, status, code, err.Error())
		return
	}

	facts := edgesToFacts(results)
	c.JSON(http.StatusOK, dto.SearchResponse{
		Facts:   facts,
		Context: search.ResultsToContextString(results),
		Total:   len(facts),
	})
}

// GetMemory handles POST /get-memory. The query is composed from the
// conversation messages, each prefixed with its role.
func (h *SearchHandler) GetMemory(c *gin.Context) {
	var req dto.GetMemoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if len(req.Messages) == 0 {
		writeError(c, http.StatusBadRequest, "invalid_request", "messages array is required and cannot be empty")
		return
	}

	var queryParts []string
	for i := range req.Messages {
		msg := &req.Messages[i]
		if err := msg.Validate(); err != nil {
			writeError(c, http.StatusBadRequest, "invalid_request", fmt.Sprintf("message %d: %v", i, err))
			return
		}
		queryParts = append(queryParts, fmt.Sprintf("%s: %s", msg.Role, msg.Content))
	}
	combinedQuery := strings.Join(queryParts, "\n")

	results, err := h.recall.Search(c.Request.Context(), combinedQuery, req.GroupIDs, req.MaxFacts)
	if err != nil && (results == nil || len(results.Edges) == 0) {
		status, code := statusForSearchError(err)
		writeError(c, status, code, err.Error())
		return
	}

	facts := edgesToFacts(results)
	c.JSON(http.StatusOK, dto.GetMemoryResponse{
		Facts:   facts,
		Context: search.ResultsToContextString(results),
		Total:   len(facts),
	})
}

// SearchAdvanced handles POST /search/advanced
func (h *SearchHandler) SearchAdvanced(c *gin.Context) {
	var req dto.AdvancedSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	results, err := h.recall.SearchAdvanced(c.Request.Context(), req.Query)
	if err != nil && results == nil {
		status, code := statusForSearchError(err)
		writeError(c, status, code, err.Error())
		return
	}

	response := dto.AdvancedSearchResponse{SearchResults: results}
	if err != nil {
		// A partial failure still serves the surviving kinds, annotated
		// per failed kind. Everything failing is a service error.
		failures := search.FailedKinds(err)
		if len(failures) == 0 || len(failures) >= requestedKindCount(req.Query.Config) {
			status, code := statusForSearchError(err)
			writeError(c, status, code, err.Error())
			return
		}
		response.Errors = make(map[string]string, len(failures))
		for _, failure := range failures {
			response.Errors[string(failure.Kind)] = failure.Error()
		}
	}

	c.JSON(http.StatusOK, response)
}

// requestedKindCount counts the kinds a query's config enables. A nil
// config applies the client defaults, which cover every kind.
func requestedKindCount(cfg *search.SearchConfig) int {
	if cfg == nil {
		return len(types.Kinds())
	}
	count := 0
	for _, kindConfig := range []*search.KindConfig{cfg.Edge, cfg.Node, cfg.Episode, cfg.Community} {
		if kindConfig != nil {
			count++
		}
	}
	return count
}

// SearchStream handles POST /search/stream, emitting results as
// server-sent events in rank order.
func (h *SearchHandler) SearchStream(c *gin.Context) {
	var req dto.AdvancedSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	chunks, err := h.recall.StreamSearch(c.Request.Context(), req.Query)
	if err != nil {
		status, code := statusForSearchError(err)
		writeError(c, status, code, err.Error())
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		chunk, ok := <-chunks
		if !ok {
			return false
		}
		c.SSEvent("result", chunk)
		return !chunk.IsLast && chunk.Error == ""
	})
}

// edgesToFacts converts ranked edges into the fact DTO. Score arrays are
// parallel to the edge array by construction.
func edgesToFacts(results *search.SearchResults) []dto.FactResult {
	facts := make([]dto.FactResult, 0, len(results.Edges))
	for i, edge := range results.Edges {
		facts = append(facts, dto.FactResult{
			UUID:           edge.Uuid,
			Fact:           edge.Fact,
			Name:           edge.Name,
			SourceNodeUUID: edge.SourceNodeUuid,
			TargetNodeUUID: edge.TargetNodeUuid,
			ValidAt:        edge.ValidAt,
			InvalidAt:      edge.InvalidAt,
			ExpiredAt:      edge.ExpiredAt,
			CreatedAt:      edge.CreatedAt,
			Score:          results.EdgeScores[i],
		})
	}
	return facts
}
