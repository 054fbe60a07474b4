package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/clipvault/clipvault/cmd/api/container"
	"github.com/clipvault/clipvault/cmd/api/handlers"
)

// RegisterAdminRoutes registers operational pipeline routes.
// These sit outside the tenant surface and are expected to be reachable
// only from inside the deployment.
func RegisterAdminRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewAdminHandler(c.Components.Dispatcher, c.JobService)

	internal := e.Group("/internal")
	{
		internal.GET("/dispatcher/stats", h.DispatcherStats) // GET /internal/dispatcher/stats
		internal.POST("/dispatcher/replay", h.ReplayDLQ)     // POST /internal/dispatcher/replay
		internal.POST("/jobs/:id/cancel", h.CancelJob)       // POST /internal/jobs/:id/cancel
	}
}
