package handler

import (
	"fmt"
	"net/http"

	"github.com/nsiqueira/sfmcli/helper"

	"github.com/labstack/echo/v4"
)

// Populate runs the synchronous part of a populate run, syncing the
// catalogs and planning the rowset pages, and enqueues one copy job per
// planned page. The response lists the enqueued job RIDs so the run can be
// followed via the job API.
func (h *SyncHandler) Populate(c echo.Context) error {
	originName := c.Param("origin")
	targetName := c.Param("target")
	updateOnly := c.QueryParam("updateOnly") == "true"

	origin, err := h.client(originName)
	if err != nil {
		return c.String(http.StatusNotFound, "Origin environment not found")
	}
	target, err := h.client(targetName)
	if err != nil {
		return c.String(http.StatusNotFound, "Target environment not found")
	}

	ctx := c.Request().Context()

	if err := h.populator.SyncCatalog(ctx, origin); err != nil {
		return c.String(http.StatusBadGateway, fmt.Sprintf("Failed to sync origin catalog: %v", err))
	}
	if err := h.populator.AttachTargets(ctx, originName, target); err != nil {
		return c.String(http.StatusBadGateway, fmt.Sprintf("Failed to attach target catalog: %v", err))
	}

	planned, err := h.populator.PlanPages(ctx, origin)
	if err != nil {
		return c.String(http.StatusInternalServerError, fmt.Sprintf("Failed to plan pages: %v", err))
	}

	pages, err := h.populator.NewPages(updateOnly)
	if err != nil {
		return c.String(http.StatusInternalServerError, fmt.Sprintf("Failed to load planned pages: %v", err))
	}

	jobRIDs := make([]string, 0, len(pages))
	for _, page := range pages {
		job, err := helper.Queuer.AddJob(TaskCopyPage, nil, page.RID.String(), originName, targetName)
		if err != nil {
			return c.String(http.StatusInternalServerError, fmt.Sprintf("Failed to enqueue copy job: %v", err))
		}
		jobRIDs = append(jobRIDs, job.RID.String())
	}

	h.logger.Info("Populate run started", "origin", originName, "target", targetName, "planned", planned, "enqueued", len(jobRIDs))

	return c.JSON(http.StatusAccepted, map[string]any{
		"planned":  planned,
		"enqueued": len(jobRIDs),
		"jobs":     jobRIDs,
	})
}

// Clean enqueues one clear job per tracked extension of the target
// environment.
func (h *SyncHandler) Clean(c echo.Context) error {
	targetName := c.Param("target")

	if _, err := h.client(targetName); err != nil {
		return c.String(http.StatusNotFound, "Target environment not found")
	}

	dataExtensions, err := h.populator.TrackedDataExtensions(targetName)
	if err != nil {
		return c.String(http.StatusInternalServerError, "Failed to retrieve tracked data extensions")
	}

	jobRIDs := make([]string, 0, len(dataExtensions))
	for _, dataExtension := range dataExtensions {
		job, err := helper.Queuer.AddJob(TaskClearDataExtension, nil, dataExtension.RID.String(), targetName)
		if err != nil {
			return c.String(http.StatusInternalServerError, fmt.Sprintf("Failed to enqueue clear job: %v", err))
		}
		jobRIDs = append(jobRIDs, job.RID.String())
	}

	h.logger.Info("Clean run started", "target", targetName, "enqueued", len(jobRIDs))

	return c.JSON(http.StatusAccepted, map[string]any{
		"enqueued": len(jobRIDs),
		"jobs":     jobRIDs,
	})
}
