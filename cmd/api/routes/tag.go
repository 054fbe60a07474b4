package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/clipvault/clipvault/cmd/api/container"
	"github.com/clipvault/clipvault/cmd/api/handlers"
)

// RegisterTagRoutes registers tag catalog routes
func RegisterTagRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewTagHandler(c.TagService)

	tags := e.Group("/api/v1/tags", c.TenantMiddleware()...)
	{
		tags.GET("", h.ListTags)      // GET /api/v1/tags
		tags.GET("/:name", h.GetTag)  // GET /api/v1/tags/golang
	}
}
