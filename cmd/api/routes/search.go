package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/clipvault/clipvault/cmd/api/container"
	"github.com/clipvault/clipvault/cmd/api/handlers"
)

// RegisterSearchRoutes registers the library search route
func RegisterSearchRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewSearchHandler(c.SearchService)

	search := e.Group("/api/v1/search", c.TenantMiddleware()...)
	{
		search.GET("", h.Search) // GET /api/v1/search
	}
}
