package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/clipvault/clipvault/cmd/api/middleware"
	"github.com/clipvault/clipvault/cmd/api/service"
)

// TagHandler serves the shared tag catalog
type TagHandler struct {
	tags *service.TagService
}

// NewTagHandler creates a new tag handler
func NewTagHandler(tags *service.TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

// ListTags lists catalog tags by usage
// GET /api/v1/tags?limit=100
func (h *TagHandler) ListTags(c echo.Context) error {
	if _, err := middleware.RequireScope(c); err != nil {
		return err
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	tags, err := h.tags.List(c.Request().Context(), limit)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"tags": tags,
	})
}

// GetTag retrieves a catalog tag by name
// GET /api/v1/tags/:name
func (h *TagHandler) GetTag(c echo.Context) error {
	if _, err := middleware.RequireScope(c); err != nil {
		return err
	}

	tag, err := h.tags.GetByName(c.Request().Context(), c.Param("name"))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, tag)
}
