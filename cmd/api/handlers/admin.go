package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/clipvault/clipvault/cmd/api/service"
	"github.com/clipvault/clipvault/common/dispatcher"
)

// AdminHandler exposes operational endpoints for the enrichment pipeline.
// Nothing here carries a tenant scope; job mutation stays off the tenant
// surface entirely.
type AdminHandler struct {
	dispatcher *dispatcher.Dispatcher
	jobs       *service.JobService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(d *dispatcher.Dispatcher, jobs *service.JobService) *AdminHandler {
	return &AdminHandler{dispatcher: d, jobs: jobs}
}

// DispatcherStats returns delivery counters
// GET /internal/dispatcher/stats
func (h *AdminHandler) DispatcherStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.dispatcher.Stats())
}

// ReplayDLQ re-publishes dead-lettered events to the primary stream
// POST /internal/dispatcher/replay?max=100
func (h *AdminHandler) ReplayDLQ(c echo.Context) error {
	max, err := strconv.ParseInt(c.QueryParam("max"), 10, 64)
	if err != nil || max < 1 {
		max = 100
	}

	replayed, err := h.dispatcher.ReplayDLQ(c.Request().Context(), max)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"replayed": replayed,
	})
}

// CancelJob aborts a pending or running enrichment job. Jobs are
// system-owned, so this is an operator action, not a tenant one.
// POST /internal/jobs/:id/cancel
func (h *AdminHandler) CancelJob(c echo.Context) error {
	jobID, err := pathUUID(c, "id")
	if err != nil {
		return errorResponse(c, err)
	}

	if err := h.jobs.Cancel(c.Request().Context(), jobID); err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "cancelled",
	})
}
