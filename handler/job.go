package handler

import (
	"net/http"
	"strconv"

	"github.com/nsiqueira/sfmcli/helper"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// GetJobs retrieves a paginated list of jobs
func (h *SyncHandler) GetJobs(c echo.Context) error {
	lastIdStr := c.QueryParam("lastId")
	limitStr := c.QueryParam("limit")

	// Parse lastId with default
	lastId := 0
	if lastIdStr != "" {
		parsedLastId, err := strconv.Atoi(lastIdStr)
		if err != nil || parsedLastId < 0 {
			return c.String(http.StatusBadRequest, "Invalid lastId format")
		}
		lastId = parsedLastId
	}

	// Parse limit with default
	limit := 10
	if limitStr != "" {
		parsedLimit, err := strconv.Atoi(limitStr)
		if err != nil || parsedLimit <= 0 || parsedLimit > 100 {
			return c.String(http.StatusBadRequest, "Invalid limit (must be 1-100)")
		}
		limit = parsedLimit
	}

	jobs, err := helper.Queuer.GetJobs(lastId, limit)
	if err != nil {
		return c.String(http.StatusInternalServerError, "Failed to retrieve jobs")
	}

	return c.JSON(http.StatusOK, jobs)
}

// GetJob retrieves one job by RID, falling back to the archive for jobs
// that already ended.
func (h *SyncHandler) GetJob(c echo.Context) error {
	ridStr := c.Param("rid")
	rid, err := uuid.Parse(ridStr)
	if err != nil {
		return c.String(http.StatusBadRequest, "Invalid job RID format")
	}

	job, err := helper.Queuer.GetJob(rid)
	if err != nil {
		job, err = helper.Queuer.GetJobEnded(rid)
		if err != nil {
			return c.String(http.StatusNotFound, "Job not found")
		}
	}

	return c.JSON(http.StatusOK, job)
}

// CancelJob cancels a specific job by RID
func (h *SyncHandler) CancelJob(c echo.Context) error {
	ridStr := c.Param("rid")
	rid, err := uuid.Parse(ridStr)
	if err != nil {
		return c.String(http.StatusBadRequest, "Invalid job RID format")
	}

	cancelledJob, err := helper.Queuer.CancelJob(rid)
	if err != nil {
		return c.String(http.StatusInternalServerError, "Failed to cancel job")
	}

	return c.JSON(http.StatusOK, cancelledJob)
}
