package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nsiqueira/sfmcli/model"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddEnvironment(t *testing.T) {
	h, _ := newTestSyncHandler(t)
	e := echo.New()

	body := `{"name":"staging","subdomain":"mc-staging","client_id":"client-id","client_secret":"client-secret","mid":"123456"}`

	req := httptest.NewRequest(http.MethodPost, "/api/environment/addEnvironment", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.AddEnvironment(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code, "Adding a valid environment should answer 201")
	assert.NotContains(t, rec.Body.String(), "client-secret", "Secrets should never appear in responses")

	t.Run("duplicate names are rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/environment/addEnvironment", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := h.AddEnvironment(c)
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, rec.Code, "Duplicate environments should answer 409")
	})

	t.Run("missing fields are rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/environment/addEnvironment", strings.NewReader(`{"name":"incomplete"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := h.AddEnvironment(c)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "Incomplete environments should answer 400")
	})
}

func TestGetEnvironments(t *testing.T) {
	h, _ := newTestSyncHandler(t)
	addTestEnvironment(t, h, "origin")
	addTestEnvironment(t, h, "target")
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/environment/getEnvironments", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.GetEnvironments(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var environments []model.Environment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &environments))
	require.Len(t, environments, 2, "All registered environments should be listed")
	for _, environment := range environments {
		assert.Empty(t, environment.ClientSecret, "Secrets should be redacted in listings")
	}
}

func TestDeleteEnvironment(t *testing.T) {
	h, _ := newTestSyncHandler(t)
	addTestEnvironment(t, h, "origin")
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/api/environment/deleteEnvironment/origin", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("name")
	c.SetParamValues("origin")

	err := h.DeleteEnvironment(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code, "Deleting a known environment should answer 200")

	t.Run("unknown environment answers 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/environment/deleteEnvironment/unknown", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("name")
		c.SetParamValues("unknown")

		err := h.DeleteEnvironment(c)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, rec.Code, "Deleting an unknown environment should answer 404")
	})
}
