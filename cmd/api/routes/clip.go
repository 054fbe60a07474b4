package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/clipvault/clipvault/cmd/api/container"
	"github.com/clipvault/clipvault/cmd/api/handlers"
)

// RegisterClipRoutes registers all clip ingestion and library routes
func RegisterClipRoutes(e *echo.Echo, c *container.Container) {
	// Create handlers with dependencies
	h := handlers.NewClipHandler(c.ClipService)
	jobs := handlers.NewJobHandler(c.JobService)

	// Clip routes
	clips := e.Group("/api/v1/clips", c.TenantMiddleware()...)
	{
		clips.POST("", h.SaveClip)            // POST /api/v1/clips
		clips.GET("", h.ListClips)            // GET /api/v1/clips
		clips.GET("/:id", h.GetClip)          // GET /api/v1/clips/:id
		clips.DELETE("/:id", h.UnsaveClip)    // DELETE /api/v1/clips/:id
		clips.GET("/:id/jobs", jobs.ListJobs) // GET /api/v1/clips/:id/jobs
	}
}
