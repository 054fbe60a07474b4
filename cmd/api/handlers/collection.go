package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/clipvault/clipvault/cmd/api/middleware"
	"github.com/clipvault/clipvault/cmd/api/service"
	"github.com/clipvault/clipvault/common/clerr"
)

// CollectionHandler handles collection CRUD and membership requests
type CollectionHandler struct {
	collections *service.CollectionService
}

// NewCollectionHandler creates a new collection handler
func NewCollectionHandler(collections *service.CollectionService) *CollectionHandler {
	return &CollectionHandler{collections: collections}
}

// CreateCollection creates a collection for the caller
// POST /api/v1/collections
func (h *CollectionHandler) CreateCollection(c echo.Context) error {
	scope, err := middleware.RequireScope(c)
	if err != nil {
		return err
	}

	var req service.CreateCollectionRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, clerr.Invalidf("invalid request body: %v", err))
	}
	if err := c.Validate(&req); err != nil {
		return errorResponse(c, err)
	}

	coll, err := h.collections.Create(c.Request().Context(), scope, req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusCreated, coll)
}

// ListCollections lists the caller's collections with membership counts
// GET /api/v1/collections?limit=40&offset=0
func (h *CollectionHandler) ListCollections(c echo.Context) error {
	scope, err := middleware.RequireScope(c)
	if err != nil {
		return err
	}

	limit, offset := pagination(c)

	colls, total, err := h.collections.List(c.Request().Context(), scope, limit, offset)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"collections": colls,
		"total":       total,
	})
}

// GetCollection retrieves an owned or public collection
// GET /api/v1/collections/:id
func (h *CollectionHandler) GetCollection(c echo.Context) error {
	scope, err := middleware.RequireScope(c)
	if err != nil {
		return err
	}

	collectionID, err := pathUUID(c, "id")
	if err != nil {
		return errorResponse(c, err)
	}

	coll, err := h.collections.Get(c.Request().Context(), scope, collectionID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, coll)
}

// UpdateCollection merge-patches a collection's mutable fields
// PATCH /api/v1/collections/:id
func (h *CollectionHandler) UpdateCollection(c echo.Context) error {
	scope, err := middleware.RequireScope(c)
	if err != nil {
		return err
	}

	collectionID, err := pathUUID(c, "id")
	if err != nil {
		return errorResponse(c, err)
	}

	patch, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return errorResponse(c, clerr.Invalidf("failed to read patch body: %v", err))
	}

	coll, err := h.collections.Update(c.Request().Context(), scope, collectionID, patch)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, coll)
}

// DeleteCollection deletes a collection the caller owns
// DELETE /api/v1/collections/:id
func (h *CollectionHandler) DeleteCollection(c echo.Context) error {
	scope, err := middleware.RequireScope(c)
	if err != nil {
		return err
	}

	collectionID, err := pathUUID(c, "id")
	if err != nil {
		return errorResponse(c, err)
	}

	if err := h.collections.Delete(c.Request().Context(), scope, collectionID); err != nil {
		return errorResponse(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// AddContent adds a clip to a curated collection
// POST /api/v1/collections/:id/content/:contentId
func (h *CollectionHandler) AddContent(c echo.Context) error {
	scope, err := middleware.RequireScope(c)
	if err != nil {
		return err
	}

	collectionID, err := pathUUID(c, "id")
	if err != nil {
		return errorResponse(c, err)
	}
	contentID, err := pathUUID(c, "contentId")
	if err != nil {
		return errorResponse(c, err)
	}

	added, err := h.collections.AddContent(c.Request().Context(), scope, collectionID, contentID)
	if err != nil {
		return errorResponse(c, err)
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	return c.JSON(status, map[string]interface{}{
		"added": added,
	})
}

// RemoveContent removes a clip from a curated collection
// DELETE /api/v1/collections/:id/content/:contentId
func (h *CollectionHandler) RemoveContent(c echo.Context) error {
	scope, err := middleware.RequireScope(c)
	if err != nil {
		return err
	}

	collectionID, err := pathUUID(c, "id")
	if err != nil {
		return errorResponse(c, err)
	}
	contentID, err := pathUUID(c, "contentId")
	if err != nil {
		return errorResponse(c, err)
	}

	if err := h.collections.RemoveContent(c.Request().Context(), scope, collectionID, contentID); err != nil {
		return errorResponse(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// ListContent lists a collection's membership (curated order or smart rule)
// GET /api/v1/collections/:id/content?limit=40&offset=0
func (h *CollectionHandler) ListContent(c echo.Context) error {
	scope, err := middleware.RequireScope(c)
	if err != nil {
		return err
	}

	collectionID, err := pathUUID(c, "id")
	if err != nil {
		return errorResponse(c, err)
	}

	limit, offset := pagination(c)

	items, total, err := h.collections.ListContent(c.Request().Context(), scope, collectionID, limit, offset)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"content": items,
		"total":   total,
	})
}

// pagination parses limit/offset query params with sane bounds.
func pagination(c echo.Context) (int, int) {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	if limit < 1 || limit > 100 {
		limit = 40
	}
	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
