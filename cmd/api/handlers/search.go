package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/clipvault/clipvault/cmd/api/middleware"
	"github.com/clipvault/clipvault/cmd/api/service"
)

// SearchHandler handles library search requests
type SearchHandler struct {
	search *service.SearchService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(search *service.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

// Search runs a full-text and tag-filtered query over the caller's library
// GET /api/v1/search?q=...&tags=a,b&page=1&page_size=40
func (h *SearchHandler) Search(c echo.Context) error {
	scope, err := middleware.RequireScope(c)
	if err != nil {
		return err
	}

	query := strings.TrimSpace(c.QueryParam("q"))

	var tags []string
	if raw := c.QueryParam("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(tag); trimmed != "" {
				tags = append(tags, trimmed)
			}
		}
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	result, err := h.search.Search(c.Request().Context(), scope, query, tags, page, pageSize)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, result)
}
