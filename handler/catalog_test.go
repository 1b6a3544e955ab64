package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nsiqueira/sfmcli/catalog"
	"github.com/nsiqueira/sfmcli/model"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListDataExtensions(t *testing.T) {
	h, mux := newTestSyncHandler(t)
	addTestEnvironment(t, h, "origin")
	e := echo.New()

	retrieveStatus := "OK"
	retrieveRows := [][2]string{
		{"CustomersMaster", "key-1"},
		{"_hiddenWorkTable", "key-2"},
		{"QueryStudioResults at 2023", "key-3"},
		{"OrdersMaster", "key-4"},
	}
	mux.HandleFunc("/Service.asmx", func(w http.ResponseWriter, r *http.Request) {
		if retrieveStatus != "OK" {
			fmt.Fprint(w, `<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope"><s:Body><RetrieveResponseMsg xmlns="http://exacttarget.com/wsdl/partnerAPI"><OverallStatus>Error</OverallStatus></RetrieveResponseMsg></s:Body></s:Envelope>`)
			return
		}
		fmt.Fprint(w, retrieveResponseBody(retrieveRows))
	})

	t.Run("returns the filtered catalog", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dataextensions", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := h.ListDataExtensions(c)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, rec.Code, "Listing should answer 200")
		assert.Equal(t, http.MethodGet, rec.Header().Get("Access-Control-Allow-Methods"), "Allowed methods header should be set")
		assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "application/json", "Body should be JSON")

		var records []catalog.Record
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records), "Body should be a JSON array")
		require.Len(t, records, 2, "Excluded extensions should be filtered out")
		assert.Equal(t, catalog.Record{Name: "CustomersMaster", ExternalKey: "key-1"}, records[0], "Order should follow the catalog")
		assert.Equal(t, catalog.Record{Name: "OrdersMaster", ExternalKey: "key-4"}, records[1], "Order should follow the catalog")
	})

	t.Run("empty catalog answers 200 with an empty JSON array", func(t *testing.T) {
		retrieveRows = nil
		defer func() {
			retrieveRows = [][2]string{{"CustomersMaster", "key-1"}}
		}()

		req := httptest.NewRequest(http.MethodGet, "/dataextensions", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := h.ListDataExtensions(c)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, rec.Code, "An empty catalog is still a success")
		assert.Equal(t, http.MethodGet, rec.Header().Get("Access-Control-Allow-Methods"), "Allowed methods header should be set")
		assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "application/json", "Body should be JSON")
		assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()), "Body should be the empty array, not null")
	})

	t.Run("retrieve faults answer 200 with the fault name", func(t *testing.T) {
		retrieveStatus = "Error"
		defer func() { retrieveStatus = "OK" }()

		req := httptest.NewRequest(http.MethodGet, "/dataextensions", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := h.ListDataExtensions(c)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, rec.Code, "Faults should still answer 200")

		var fault model.Fault
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fault), "Body should be a serialized fault")
		assert.Equal(t, "RetrieveError", fault.Name, "Fault name should carry the error group")
	})
}

func TestListDataExtensionsUnregisteredEnvironment(t *testing.T) {
	// A handler whose default environment was never registered still
	// answers 200, with the fault serialized as the body.
	h, _ := newTestSyncHandler(t)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/dataextensions", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.ListDataExtensions(c)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rec.Code, "Faults should still answer 200")

	var fault model.Fault
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fault), "Body should be a serialized fault")
	assert.NotEmpty(t, fault.Message, "Fault message should be set")
}

func TestGetCatalog(t *testing.T) {
	h, mux := newTestSyncHandler(t)
	addTestEnvironment(t, h, "origin")
	e := echo.New()

	mux.HandleFunc("/Service.asmx", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, retrieveResponseBody([][2]string{{"CustomersMaster", "key-1"}}))
	})

	t.Run("returns the catalog of a known environment", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/catalog/origin", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("environment")
		c.SetParamValues("origin")

		err := h.GetCatalog(c)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "CustomersMaster")
	})

	t.Run("unknown environment answers 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/catalog/unknown", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("environment")
		c.SetParamValues("unknown")

		err := h.GetCatalog(c)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
