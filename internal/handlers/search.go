package handlers

import (
	"net/http"
	"strings"

	"github.com/chronically/chronically/internal/util"
	"github.com/gin-gonic/gin"
)

// SearchContent matches articles and tweets, newest first.
// POST /search_content
func (h *Handlers) SearchContent(c *gin.Context) {
	var req struct {
		SearchQuery string `json:"searchQuery" form:"searchQuery"`
	}
	if !bindRequest(c, &req) {
		return
	}
	query := strings.TrimSpace(req.SearchQuery)
	if query == "" {
		util.RespondBadRequest(c, "Search query is required.")
		return
	}

	refs, err := h.search.Search(c.Request.Context(), query, 0)
	if err != nil {
		util.RespondInternalError(c, "Failed to search content", err)
		return
	}
	util.RespondData(c, http.StatusOK, statusSuccess, refs)
}
