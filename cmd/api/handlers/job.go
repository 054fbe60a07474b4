package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clipvault/clipvault/cmd/api/middleware"
	"github.com/clipvault/clipvault/cmd/api/service"
)

// JobHandler exposes enrichment job status. Job rows are system-owned, so
// the tenant surface is read-only; cancellation lives on the internal
// surface with the other pipeline controls.
type JobHandler struct {
	jobs *service.JobService
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobs *service.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// ListJobs lists the enrichment job lineages for a clip
// GET /api/v1/clips/:id/jobs
func (h *JobHandler) ListJobs(c echo.Context) error {
	if _, err := middleware.RequireScope(c); err != nil {
		return err
	}

	contentID, err := pathUUID(c, "id")
	if err != nil {
		return errorResponse(c, err)
	}

	jobs, err := h.jobs.ListForContent(c.Request().Context(), contentID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"jobs": jobs,
	})
}
