package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/clipvault/clipvault/cmd/api/container"
	"github.com/clipvault/clipvault/cmd/api/handlers"
)

// RegisterCollectionRoutes registers all collection routes
func RegisterCollectionRoutes(e *echo.Echo, c *container.Container) {
	// Create handler with dependencies
	h := handlers.NewCollectionHandler(c.CollectionService)

	// Collection routes
	collections := e.Group("/api/v1/collections", c.TenantMiddleware()...)
	{
		collections.POST("", h.CreateCollection)                            // POST /api/v1/collections
		collections.GET("", h.ListCollections)                              // GET /api/v1/collections
		collections.GET("/:id", h.GetCollection)                            // GET /api/v1/collections/:id
		collections.PATCH("/:id", h.UpdateCollection)                       // PATCH /api/v1/collections/:id
		collections.DELETE("/:id", h.DeleteCollection)                      // DELETE /api/v1/collections/:id
		collections.GET("/:id/content", h.ListContent)                      // GET /api/v1/collections/:id/content
		collections.POST("/:id/content/:contentId", h.AddContent)           // POST /api/v1/collections/:id/content/:contentId
		collections.DELETE("/:id/content/:contentId", h.RemoveContent)      // DELETE /api/v1/collections/:id/content/:contentId
	}
}
