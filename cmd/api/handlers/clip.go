package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/clipvault/clipvault/cmd/api/middleware"
	"github.com/clipvault/clipvault/cmd/api/service"
	"github.com/clipvault/clipvault/common/clerr"
	"github.com/clipvault/clipvault/common/models"
)

// ClipHandler handles clip ingestion and library requests
type ClipHandler struct {
	clips *service.ClipService
}

// NewClipHandler creates a new clip handler
func NewClipHandler(clips *service.ClipService) *ClipHandler {
	return &ClipHandler{clips: clips}
}

// SaveClip saves a source reference into the caller's library
// POST /api/v1/clips
func (h *ClipHandler) SaveClip(c echo.Context) error {
	scope, err := middleware.RequireScope(c)
	if err != nil {
		return err
	}

	var req service.SaveClipRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, clerr.Invalidf("invalid request body: %v", err))
	}
	if err := c.Validate(&req); err != nil {
		return errorResponse(c, err)
	}

	result, err := h.clips.Save(c.Request().Context(), scope, req)
	if errors.Is(err, clerr.ErrDuplicateSave) {
		// The existing id travels in a header so clients can link to the
		// item they already hold without re-fetching.
		c.Response().Header().Set("X-Content-Id", result.ContentID.String())
		return c.JSON(http.StatusConflict, map[string]interface{}{
			"error":      "already saved",
			"content_id": result.ContentID,
		})
	}
	if err != nil {
		return errorResponse(c, err)
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	return c.JSON(status, result)
}

// GetClip retrieves a clip with the caller's saved association and tags
// GET /api/v1/clips/:id
func (h *ClipHandler) GetClip(c echo.Context) error {
	scope, err := middleware.RequireScope(c)
	if err != nil {
		return err
	}

	contentID, err := pathUUID(c, "id")
	if err != nil {
		return errorResponse(c, err)
	}

	view, err := h.clips.Get(c.Request().Context(), scope, contentID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, view)
}

// ListClips lists the caller's saved clips by save recency
// GET /api/v1/clips?limit=40&offset=0
func (h *ClipHandler) ListClips(c echo.Context) error {
	scope, err := middleware.RequireScope(c)
	if err != nil {
		return err
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	views, err := h.clips.ListSaved(c.Request().Context(), scope, limit, offset)
	if err != nil {
		return errorResponse(c, err)
	}

	if views == nil {
		views = []*models.ContentView{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"clips": views,
		"count": len(views),
	})
}

// UnsaveClip removes the clip from the caller's library
// DELETE /api/v1/clips/:id
func (h *ClipHandler) UnsaveClip(c echo.Context) error {
	scope, err := middleware.RequireScope(c)
	if err != nil {
		return err
	}

	contentID, err := pathUUID(c, "id")
	if err != nil {
		return errorResponse(c, err)
	}

	if err := h.clips.Unsave(c.Request().Context(), scope, contentID); err != nil {
		return errorResponse(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
