package handler

import (
	"fmt"
	"net/http"

	"github.com/nsiqueira/sfmcli/model"

	"github.com/labstack/echo/v4"
	vm "github.com/siherrmann/validator/model"
)

var environmentValidations = []vm.Validation{
	{Key: "name", Type: vm.String, Requirement: "min1"},
	{Key: "subdomain", Type: vm.String, Requirement: "min1"},
	{Key: "client_id", Type: vm.String, Requirement: "min1"},
	{Key: "client_secret", Type: vm.String, Requirement: "min1"},
	{Key: "mid", Type: vm.String, Requirement: "min1"},
}

// AddEnvironment registers a new SFMC environment with its credentials.
func (h *SyncHandler) AddEnvironment(c echo.Context) error {
	parameters := map[string]any{}
	err := h.validator.UnmapOrUnmarshalValidateAndUpdateWithValidation(c.Request(), &parameters, environmentValidations)
	if err != nil {
		return c.String(http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
	}

	environment := model.Environment{
		Name:         fmt.Sprint(parameters["name"]),
		Subdomain:    fmt.Sprint(parameters["subdomain"]),
		ClientID:     fmt.Sprint(parameters["client_id"]),
		ClientSecret: fmt.Sprint(parameters["client_secret"]),
		MID:          fmt.Sprint(parameters["mid"]),
	}

	if err := h.environments.Add(environment); err != nil {
		return c.String(http.StatusConflict, fmt.Sprintf("Failed to add environment: %v", err))
	}

	return c.JSON(http.StatusCreated, environment.Redacted())
}

// GetEnvironments lists the registered environments without their secrets.
func (h *SyncHandler) GetEnvironments(c echo.Context) error {
	environments, err := h.environments.List()
	if err != nil {
		return c.String(http.StatusInternalServerError, "Failed to list environments")
	}

	redacted := make([]model.Environment, 0, len(environments))
	for _, environment := range environments {
		redacted = append(redacted, environment.Redacted())
	}

	return c.JSON(http.StatusOK, redacted)
}

// DeleteEnvironment removes a registered environment.
func (h *SyncHandler) DeleteEnvironment(c echo.Context) error {
	name := c.Param("name")

	if err := h.environments.Remove(name); err != nil {
		return c.String(http.StatusNotFound, fmt.Sprintf("Failed to delete environment: %v", err))
	}

	h.dropClient(name)

	return c.JSON(http.StatusOK, map[string]string{"message": "Environment deleted successfully"})
}
