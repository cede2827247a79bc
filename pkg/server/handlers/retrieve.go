package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/recall"
	"github.com/soundprediction/recall/pkg/search"
	"github.com/soundprediction/recall/pkg/server/dto"
)

// RetrieveHandler serves the paginated by-group read endpoints.
type RetrieveHandler struct {
	recall recall.Recall
}

// NewRetrieveHandler creates a new retrieve handler
func NewRetrieveHandler(r recall.Recall) *RetrieveHandler {
	return &RetrieveHandler{recall: r}
}

// queryList parses a list-valued query parameter, accepting either repeated
// parameters or a single comma-separated value.
func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.QueryArray(key) {
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

// groupIDs parses the required group_ids query parameter.
func groupIDs(c *gin.Context) []string {
	return queryList(c, "group_ids")
}

// cursorParam builds the opaque cursor from the request. A limit without a
// cursor starts a fresh scan with that page size; a cursor carries its own
// limit and wins.
func cursorParam(c *gin.Context) (string, bool) {
	if cursor := c.Query("cursor"); cursor != "" {
		return cursor, true
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			return "", false
		}
		return search.EncodeCursor("", limit), true
	}
	return "", true
}

// GetEdge handles GET /edges/:uuid
func (h *RetrieveHandler) GetEdge(c *gin.Context) {
	edge, err := h.recall.EdgeByUUID(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		if errors.Is(err, recall.ErrNotFound) {
			writeError(c, http.StatusNotFound, "not_found", err.Error())
			return
		}
		status, code := statusForSearchError(err)
		writeError(c, status, code, err.Error())
		return
	}
	c.JSON(http.StatusOK, edge)
}

// GetNode handles GET /nodes/:uuid
func (h *RetrieveHandler) GetNode(c *gin.Context) {
	node, err := h.recall.NodeByUUID(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		if errors.Is(err, recall.ErrNotFound) {
			writeError(c, http.StatusNotFound, "not_found", err.Error())
			return
		}
		status, code := statusForSearchError(err)
		writeError(c, status, code, err.Error())
		return
	}
	c.JSON(http.StatusOK, node)
}

// GetEdges handles GET /edges. A uuids parameter switches from group-scoped
// paging to direct batch fetch.
func (h *RetrieveHandler) GetEdges(c *gin.Context) {
	if uuids := queryList(c, "uuids"); len(uuids) > 0 {
		edges, err := h.recall.EdgesByUUIDs(c.Request.Context(), uuids)
		if err != nil {
			status, code := statusForSearchError(err)
			writeError(c, status, code, err.Error())
			return
		}
		c.JSON(http.StatusOK, dto.EdgesPageResponse{Edges: edges})
		return
	}

	groups := groupIDs(c)
	if len(groups) == 0 {
		writeError(c, http.StatusBadRequest, "invalid_request", "group_ids parameter is required")
		return
	}
	cursor, ok := cursorParam(c)
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
		return
	}

	page, err := h.recall.EdgesByGroup(c.Request.Context(), groups, cursor)
	if err != nil {
		status, code := statusForSearchError(err)
		writeError(c, status, code, err.Error())
		return
	}
	c.JSON(http.StatusOK, dto.EdgesPageResponse{Edges: page.Edges, NextCursor: page.NextCursor})
}

// GetNodes handles GET /nodes. A uuids parameter switches from group-scoped
// paging to direct batch fetch.
func (h *RetrieveHandler) GetNodes(c *gin.Context) {
	if uuids := queryList(c, "uuids"); len(uuids) > 0 {
		nodes, err := h.recall.NodesByUUIDs(c.Request.Context(), uuids)
		if err != nil {
			status, code := statusForSearchError(err)
			writeError(c, status, code, err.Error())
			return
		}
		c.JSON(http.StatusOK, dto.NodesPageResponse{Nodes: nodes})
		return
	}

	groups := groupIDs(c)
	if len(groups) == 0 {
		writeError(c, http.StatusBadRequest, "invalid_request", "group_ids parameter is required")
		return
	}
	cursor, ok := cursorParam(c)
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
		return
	}

	page, err := h.recall.NodesByGroup(c.Request.Context(), groups, cursor)
	if err != nil {
		status, code := statusForSearchError(err)
		writeError(c, status, code, err.Error())
		return
	}
	c.JSON(http.StatusOK, dto.NodesPageResponse{Nodes: page.Nodes, NextCursor: page.NextCursor})
}

// GetEpisodes handles GET /episodes. With a reference_time parameter it
// switches from uuid-ordered paging to newest-first retrieval at or before
// that time.
func (h *RetrieveHandler) GetEpisodes(c *gin.Context) {
	groups := groupIDs(c)
	if len(groups) == 0 {
		writeError(c, http.StatusBadRequest, "invalid_request", "group_ids parameter is required")
		return
	}

	if refStr := c.Query("reference_time"); refStr != "" {
		reference, err := time.Parse(time.RFC3339, refStr)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid_request", "reference_time must be RFC3339")
			return
		}
		limit := 0
		if limitStr := c.Query("limit"); limitStr != "" {
			limit, err = strconv.Atoi(limitStr)
			if err != nil || limit <= 0 {
				writeError(c, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
				return
			}
		}
		episodes, err := h.recall.EpisodesBefore(c.Request.Context(), groups, reference, limit)
		if err != nil {
			status, code := statusForSearchError(err)
			writeError(c, status, code, err.Error())
			return
		}
		c.JSON(http.StatusOK, dto.EpisodesBeforeResponse{Episodes: episodes, Reference: reference})
		return
	}

	cursor, ok := cursorParam(c)
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
		return
	}

	page, err := h.recall.EpisodesByGroup(c.Request.Context(), groups, cursor)
	if err != nil {
		status, code := statusForSearchError(err)
		writeError(c, status, code, err.Error())
		return
	}
	c.JSON(http.StatusOK, dto.EpisodesPageResponse{Episodes: page.Episodes, NextCursor: page.NextCursor})
}

// GetCommunities handles GET /communities
func (h *RetrieveHandler) GetCommunities(c *gin.Context) {
	groups := groupIDs(c)
	if len(groups) == 0 {
		writeError(c, http.StatusBadRequest, "invalid_request", "group_ids parameter is required")
		return
	}
	cursor, ok := cursorParam(c)
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
		return
	}

	page, err := h.recall.CommunitiesByGroup(c.Request.Context(), groups, cursor)
	if err != nil {
		status, code := statusForSearchError(err)
		writeError(c, status, code, err.Error())
		return
	}
	c.JSON(http.StatusOK, dto.CommunitiesPageResponse{Communities: page.Communities, NextCursor: page.NextCursor})
}
