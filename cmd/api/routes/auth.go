package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/clipvault/clipvault/cmd/api/container"
	"github.com/clipvault/clipvault/cmd/api/handlers"
)

// RegisterAuthRoutes registers the identity verification route
func RegisterAuthRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewAuthHandler()

	auth := e.Group("/auth", c.TenantMiddleware()...)
	{
		auth.GET("/verify", h.Verify) // GET /auth/verify
	}
}
