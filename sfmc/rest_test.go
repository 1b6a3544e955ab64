package sfmc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v2/token" {
			fmt.Fprint(w, `{"access_token":"rest-token","expires_in":3600}`)
			return
		}
		require.Equal(t, "Bearer rest-token", r.Header.Get("Authorization"))
		handler(w, r)
	}))
}

func TestPageSizeFor(t *testing.T) {
	t.Run("Large records get small pages", func(t *testing.T) {
		sample := RowsetItem{Values: map[string]any{"html": strings.Repeat("x", 4000)}}
		assert.Equal(t, 100, PageSizeFor(sample))
	})

	t.Run("Medium records", func(t *testing.T) {
		sample := RowsetItem{Values: map[string]any{"text": strings.Repeat("x", 2000)}}
		assert.Equal(t, 500, PageSizeFor(sample))
	})

	t.Run("Wide records", func(t *testing.T) {
		values := map[string]any{}
		for i := 0; i < 25; i++ {
			values[fmt.Sprintf("c%d", i)] = "v"
		}
		sample := RowsetItem{Values: values}
		assert.Equal(t, 1000, PageSizeFor(sample))
	})

	t.Run("Default page size", func(t *testing.T) {
		sample := RowsetItem{Values: map[string]any{"email": "a@b.c"}}
		assert.Equal(t, 2500, PageSizeFor(sample))
	})
}

func TestRowsetInfo(t *testing.T) {
	t.Run("Derives count, key presence and page size", func(t *testing.T) {
		server := restTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/data/v1/customobjectdata/key/de-key/rowset", r.URL.Path)
			assert.Equal(t, "1", r.URL.Query().Get("$pageSize"))
			fmt.Fprint(w, `{"count":5200,"items":[{"keys":{"id":"1"},"values":{"email":"a@b.c"}}]}`)
		})
		defer server.Close()

		client := testClient(t, server)

		info, err := client.RowsetInfo(context.Background(), "de-key")
		require.NoError(t, err)
		assert.Equal(t, 5200, info.Count)
		assert.True(t, info.HasSFMCKey)
		assert.Equal(t, 2500, info.PageSize)
	})

	t.Run("Empty extension", func(t *testing.T) {
		server := restTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"count":0,"items":[]}`)
		})
		defer server.Close()

		client := testClient(t, server)

		info, err := client.RowsetInfo(context.Background(), "de-key")
		require.NoError(t, err)
		assert.Equal(t, 0, info.Count)
		assert.False(t, info.HasSFMCKey)
	})
}

func TestFetchPage(t *testing.T) {
	server := restTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"count":2,"items":[
			{"keys":{"id":"1"},"values":{"email":"a@b.c"}},
			{"keys":{},"values":{"email":"d@e.f"}}
		]}`)
	})
	defer server.Close()

	client := testClient(t, server)

	items, err := client.FetchPage(context.Background(), server.URL+"/data/v1/customobjectdata/key/de-key/rowset?$pageSize=2500&$page=1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, map[string]any{"id": "1", "email": "a@b.c"}, items[0])
	assert.Equal(t, map[string]any{"email": "d@e.f"}, items[1])
}

func TestUpsertRows(t *testing.T) {
	t.Run("PUT for keyed extensions", func(t *testing.T) {
		var method string
		server := restTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			method = r.Method
			assert.Equal(t, "/data/v1/async/dataextensions/key:target-key/rows", r.URL.Path)

			var payload struct {
				Items []map[string]any `json:"items"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Len(t, payload.Items, 1)

			fmt.Fprint(w, `{"requestId":"req-42"}`)
		})
		defer server.Close()

		client := testClient(t, server)

		requestID, err := client.UpsertRows(context.Background(), "target-key", []map[string]any{{"id": "1"}}, true)
		require.NoError(t, err)
		assert.Equal(t, "req-42", requestID)
		assert.Equal(t, http.MethodPut, method)
	})

	t.Run("POST for keyless extensions", func(t *testing.T) {
		var method string
		server := restTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			method = r.Method
			fmt.Fprint(w, `{"requestId":"req-43"}`)
		})
		defer server.Close()

		client := testClient(t, server)

		_, err := client.UpsertRows(context.Background(), "target-key", []map[string]any{{"email": "a@b.c"}}, false)
		require.NoError(t, err)
		assert.Equal(t, http.MethodPost, method)
	})

	t.Run("Missing requestId is an error", func(t *testing.T) {
		server := restTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{}`)
		})
		defer server.Close()

		client := testClient(t, server)

		_, err := client.UpsertRows(context.Background(), "target-key", nil, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing requestId")
	})
}

func TestAsyncResults(t *testing.T) {
	server := restTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/v1/async/req-42/results", r.URL.Path)
		fmt.Fprint(w, `{"items":[
			{"status":"OK"},
			{"status":"Error","errorCode":30006,"message":"Errors Occurred","errors":[
				{"name":"email","errorCode":30006,"errorMessage":"Invalid email"}
			]}
		]}`)
	})
	defer server.Close()

	client := testClient(t, server)

	results, err := client.AsyncResults(context.Background(), "req-42")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "OK", results[0].Status)
	assert.Equal(t, "Error", results[1].Status)
	require.Len(t, results[1].Errors, 1)
	assert.Equal(t, "email", results[1].Errors[0].Name)
	assert.Equal(t, "Invalid email", results[1].Errors[0].ErrorMessage)
}
