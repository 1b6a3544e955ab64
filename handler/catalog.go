package handler

import (
	"net/http"
	"time"

	"github.com/nsiqueira/sfmcli/catalog"
	"github.com/nsiqueira/sfmcli/model"

	"github.com/labstack/echo/v4"
)

// ListDataExtensions serves the legacy catalog listing for the default
// environment. It takes no parameters and always answers 200 with a JSON
// body: the filtered catalog on success, the serialized fault otherwise,
// the contract the consuming automations were built against. Per-environment
// listings live under /api/catalog/:environment.
func (h *SyncHandler) ListDataExtensions(c echo.Context) error {
	environmentName := h.defaultEnvironment

	client, err := h.client(environmentName)
	if err != nil {
		return c.JSON(http.StatusOK, model.NewFault(err))
	}

	start := time.Now()
	rows, err := client.RetrieveDataExtensions(c.Request().Context())
	if err != nil {
		if h.metrics != nil {
			h.metrics.RetrieveErrors.Inc()
		}
		h.logger.Error("Failed to retrieve data extension catalog", "environment", environmentName, "error", err)
		return c.JSON(http.StatusOK, model.NewFault(err))
	}
	if h.metrics != nil {
		h.metrics.RetrieveDuration.Observe(time.Since(start).Seconds())
	}

	records := catalog.Filter(catalog.Project(rows))

	c.Response().Header().Set("Access-Control-Allow-Methods", http.MethodGet)

	return c.JSON(http.StatusOK, records)
}

// GetCatalog lists the filtered catalog of a named environment with regular
// HTTP error semantics.
func (h *SyncHandler) GetCatalog(c echo.Context) error {
	environmentName := c.Param("environment")

	client, err := h.client(environmentName)
	if err != nil {
		return c.String(http.StatusNotFound, "Environment not found")
	}

	rows, err := client.RetrieveDataExtensions(c.Request().Context())
	if err != nil {
		if h.metrics != nil {
			h.metrics.RetrieveErrors.Inc()
		}
		return c.String(http.StatusBadGateway, "Failed to retrieve data extension catalog")
	}

	return c.JSON(http.StatusOK, catalog.Filter(catalog.Project(rows)))
}

// GetTrackedDataExtensions lists the extensions tracked for a target
// environment in the database.
func (h *SyncHandler) GetTrackedDataExtensions(c echo.Context) error {
	targetName := c.Param("target")

	dataExtensions, err := h.populator.TrackedDataExtensions(targetName)
	if err != nil {
		return c.String(http.StatusInternalServerError, "Failed to retrieve tracked data extensions")
	}

	return c.JSON(http.StatusOK, dataExtensions)
}
