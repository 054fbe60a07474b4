package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clipvault/clipvault/cmd/api/middleware"
)

// AuthHandler echoes the verified identity back to the caller
type AuthHandler struct{}

// NewAuthHandler creates a new auth handler
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// Verify confirms the identity headers resolved to a bound tenant scope
// GET /auth/verify
func (h *AuthHandler) Verify(c echo.Context) error {
	scope, err := middleware.RequireScope(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"tenant_id": scope.TenantID(),
		"verified":  true,
	})
}
