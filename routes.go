package main

import (
	"github.com/nsiqueira/sfmcli/handler"
	mw "github.com/nsiqueira/sfmcli/middleware"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all API routes for the sync service
func SetupRoutes(e *echo.Echo, h *handler.SyncHandler) {
	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Custom Middleware
	m := mw.NewMiddleware(h.Metrics())
	e.Use(m.RequestContextMiddleware)
	e.Use(m.MetricsMiddleware)

	e.GET("/health", h.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Legacy catalog listing, kept byte-compatible for the consuming
	// automations.
	e.GET("/dataextensions", h.ListDataExtensions)

	// API routes
	api := e.Group("/api")

	environments := api.Group("/environment")
	environments.POST("/addEnvironment", h.AddEnvironment)
	environments.GET("/getEnvironments", h.GetEnvironments)
	environments.POST("/deleteEnvironment/:name", h.DeleteEnvironment)

	catalogs := api.Group("/catalog")
	catalogs.GET("/:environment", h.GetCatalog)
	catalogs.GET("/tracked/:target", h.GetTrackedDataExtensions)

	api.POST("/populate/:origin/:target", h.Populate)
	api.POST("/clean/:target", h.Clean)

	reports := api.Group("/report")
	reports.GET("/files", h.GetReportFiles)
	reports.GET("/files/:filename", h.DownloadReportFile)
	reports.GET("/:target", h.GetReport)
	reports.POST("/:target/export", h.ExportReport)

	jobs := api.Group("/job")
	jobs.GET("/getJobs", h.GetJobs)
	jobs.GET("/getJob/:rid", h.GetJob)
	jobs.POST("/cancelJob/:rid", h.CancelJob)
}
