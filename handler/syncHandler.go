package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/nsiqueira/sfmcli/database"
	"github.com/nsiqueira/sfmcli/environment"
	"github.com/nsiqueira/sfmcli/metrics"
	"github.com/nsiqueira/sfmcli/model"
	"github.com/nsiqueira/sfmcli/populate"
	"github.com/nsiqueira/sfmcli/sfmc"
	"github.com/nsiqueira/sfmcli/upload"

	"github.com/labstack/echo/v4"
	"github.com/siherrmann/validator"
)

type SyncHandler struct {
	environments       *environment.Store
	dataExtensionDB    database.DataExtensionDBHandlerFunctions
	pageDB             database.PageDBHandlerFunctions
	filesystem         upload.Filesystem
	validator          *validator.Validator
	populator          *populate.Populator
	metrics            *metrics.Manager
	logger             *slog.Logger
	defaultEnvironment string

	// clients holds one client per environment so cached access tokens
	// survive across requests and queued jobs.
	clientMu sync.Mutex
	clients  map[string]*sfmc.Client

	// newClient is swapped in tests to point clients at test servers.
	newClient func(model.Environment) *sfmc.Client
}

func NewSyncHandler(
	environments *environment.Store,
	dataExtensionDB database.DataExtensionDBHandlerFunctions,
	pageDB database.PageDBHandlerFunctions,
	filesystem upload.Filesystem,
	populator *populate.Populator,
	manager *metrics.Manager,
	logger *slog.Logger,
	defaultEnvironment string,
) *SyncHandler {
	h := &SyncHandler{
		environments:       environments,
		dataExtensionDB:    dataExtensionDB,
		pageDB:             pageDB,
		filesystem:         filesystem,
		validator:          validator.NewValidator(),
		populator:          populator,
		metrics:            manager,
		logger:             logger,
		defaultEnvironment: defaultEnvironment,
		clients:            map[string]*sfmc.Client{},
	}
	h.newClient = func(env model.Environment) *sfmc.Client {
		return sfmc.NewClient(env, logger)
	}
	return h
}

// client resolves an environment by name and returns its SFMC client,
// creating and caching it on first use.
func (h *SyncHandler) client(name string) (*sfmc.Client, error) {
	h.clientMu.Lock()
	defer h.clientMu.Unlock()

	if client, ok := h.clients[name]; ok {
		return client, nil
	}

	env, err := h.environments.Get(name)
	if err != nil {
		return nil, fmt.Errorf("environment %s: %w", name, err)
	}

	client := h.newClient(env)
	h.clients[name] = client

	return client, nil
}

// dropClient forgets the cached client of an environment, along with its
// access token.
func (h *SyncHandler) dropClient(name string) {
	h.clientMu.Lock()
	defer h.clientMu.Unlock()
	delete(h.clients, name)
}

// Metrics exposes the metrics manager for middleware wiring.
func (h *SyncHandler) Metrics() *metrics.Manager {
	return h.metrics
}

// Health check handler
func (h *SyncHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "sfmcli",
	})
}
