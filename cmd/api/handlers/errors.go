package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clipvault/clipvault/common/clerr"
)

// errorResponse maps the store error taxonomy onto HTTP statuses. Scoping
// exclusions already arrive as not-found, so nothing here can reveal that
// another tenant's row exists.
func errorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, clerr.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"error": "not found",
		})
	case errors.Is(err, clerr.ErrDuplicateName):
		return c.JSON(http.StatusConflict, map[string]interface{}{
			"error": err.Error(),
		})
	case errors.Is(err, clerr.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
	case errors.Is(err, clerr.ErrTransientStore):
		return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
			"error": "temporarily unavailable, retry",
		})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "internal error",
		})
	}
}

// pathUUID parses a UUID path parameter, reporting invalid ids as 400.
func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, clerr.Invalidf("invalid %s: %v", name, err)
	}
	return id, nil
}
