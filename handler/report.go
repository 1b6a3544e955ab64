package handler

import (
	"fmt"
	"net/http"

	"github.com/nsiqueira/sfmcli/helper"

	"github.com/labstack/echo/v4"
)

// GetReport builds the error report of a target environment from the async
// results of its copied pages and returns it as JSON.
func (h *SyncHandler) GetReport(c echo.Context) error {
	targetName := c.Param("target")

	target, err := h.client(targetName)
	if err != nil {
		return c.String(http.StatusNotFound, "Target environment not found")
	}

	reports, err := h.populator.BuildReport(c.Request().Context(), target)
	if err != nil {
		return c.String(http.StatusBadGateway, fmt.Sprintf("Failed to build report: %v", err))
	}

	return c.JSON(http.StatusOK, reports)
}

// ExportReport enqueues a report export job for a target environment. The
// resulting CSV lands in the report storage.
func (h *SyncHandler) ExportReport(c echo.Context) error {
	targetName := c.Param("target")

	if _, err := h.client(targetName); err != nil {
		return c.String(http.StatusNotFound, "Target environment not found")
	}

	job, err := helper.Queuer.AddJob(TaskExportReport, nil, targetName)
	if err != nil {
		return c.String(http.StatusInternalServerError, fmt.Sprintf("Failed to enqueue export job: %v", err))
	}

	return c.JSON(http.StatusAccepted, map[string]string{"job": job.RID.String()})
}

// GetReportFiles lists the exported report files.
func (h *SyncHandler) GetReportFiles(c echo.Context) error {
	files, err := h.filesystem.ListFiles()
	if err != nil {
		return c.String(http.StatusInternalServerError, "Failed to list report files")
	}

	return c.JSON(http.StatusOK, files)
}

// DownloadReportFile streams one exported report file.
func (h *SyncHandler) DownloadReportFile(c echo.Context) error {
	filename := c.Param("filename")

	file, err := h.filesystem.Open(filename)
	if err != nil {
		return c.String(http.StatusNotFound, "Report file not found")
	}
	defer file.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))

	return c.Stream(http.StatusOK, "text/csv", file)
}
