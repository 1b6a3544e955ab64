package sfmc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// MaxCopyRows is the row count above which a data extension is skipped
// during populate planning.
const MaxCopyRows = 5000000

// RowsetItem is one record of a rowset page. Keys holds the primary key
// columns of extensions that have an SFMC primary key, Values the rest.
type RowsetItem struct {
	Keys   map[string]any `json:"keys"`
	Values map[string]any `json:"values"`
}

// Merged flattens keys and values into the shape the async rows API accepts.
func (i RowsetItem) Merged() map[string]any {
	merged := make(map[string]any, len(i.Keys)+len(i.Values))
	for k, v := range i.Keys {
		merged[k] = v
	}
	for k, v := range i.Values {
		merged[k] = v
	}
	return merged
}

type rowsetResponse struct {
	Count int          `json:"count"`
	Items []RowsetItem `json:"items"`
}

// RowsetInfo describes a data extension's rowset before paging: total row
// count, whether records carry an SFMC primary key and the page size chosen
// from a sample record.
type RowsetInfo struct {
	Count      int
	HasSFMCKey bool
	PageSize   int
}

// AsyncResultError is one field-level error of an async rows result record.
type AsyncResultError struct {
	Name         string `json:"name"`
	ErrorCode    any    `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// AsyncResult is the per-record outcome of an async rows request.
type AsyncResult struct {
	Status    string             `json:"status"`
	ErrorCode any                `json:"errorCode"`
	Message   string             `json:"message"`
	Errors    []AsyncResultError `json:"errors"`
}

type asyncResultsResponse struct {
	Items []AsyncResult `json:"items"`
}

type asyncRequestResponse struct {
	RequestID string `json:"requestId"`
}

// PageSizeFor picks a rowset page size from a sample record: large records
// get small pages to keep request bodies bounded.
func PageSizeFor(sample RowsetItem) int {
	encoded, err := json.Marshal(sample)
	if err != nil {
		return 100
	}

	if len(encoded) > 3000 {
		return 100
	}
	if len(encoded) > 1500 {
		return 500
	}
	if len(sample.Values) > 20 {
		return 1000
	}
	return 2500
}

// RowsetURL builds the paged rowset URL of a data extension.
func (c *Client) RowsetURL(externalKey string, pageSize, page int) string {
	return fmt.Sprintf("%s/data/v1/customobjectdata/key/%s/rowset?$pageSize=%d&$page=%d", c.RESTBaseURL, externalKey, pageSize, page)
}

// RowsetInfo fetches a single-record sample page and derives count, key
// presence and page size from it. A zero Count means the extension is empty.
func (c *Client) RowsetInfo(ctx context.Context, externalKey string) (*RowsetInfo, error) {
	sampleURL := fmt.Sprintf("%s/data/v1/customobjectdata/key/%s/rowset?$pageSize=1", c.RESTBaseURL, externalKey)

	var response rowsetResponse
	if err := c.restGet(ctx, sampleURL, &response); err != nil {
		return nil, newError("RowsetError", fmt.Sprintf("sample rowset %s", externalKey), err)
	}

	info := &RowsetInfo{Count: response.Count}
	if len(response.Items) > 0 {
		sample := response.Items[0]
		info.HasSFMCKey = len(sample.Keys) > 0
		info.PageSize = PageSizeFor(sample)
	}

	return info, nil
}

// FetchPage downloads one rowset page and returns its records flattened for
// re-insertion.
func (c *Client) FetchPage(ctx context.Context, pageURL string) ([]map[string]any, error) {
	var response rowsetResponse
	if err := c.restGet(ctx, pageURL, &response); err != nil {
		return nil, newError("RowsetError", "fetch rowset page", err)
	}

	items := make([]map[string]any, 0, len(response.Items))
	for _, item := range response.Items {
		items = append(items, item.Merged())
	}

	return items, nil
}

// UpsertRows hands a batch of records to the async rows API of the target
// data extension and returns the async request id. Extensions with an SFMC
// primary key take PUT (upsert), the rest POST (append).
func (c *Client) UpsertRows(ctx context.Context, externalKey string, items []map[string]any, hasSFMCKey bool) (string, error) {
	method := http.MethodPost
	if hasSFMCKey {
		method = http.MethodPut
	}

	payload, err := json.Marshal(map[string]any{"items": items})
	if err != nil {
		return "", newError("UpsertError", "marshal rows payload", err)
	}

	rowsURL := fmt.Sprintf("%s/data/v1/async/dataextensions/key:%s/rows", c.RESTBaseURL, externalKey)

	var response asyncRequestResponse
	if err := c.restCall(ctx, method, rowsURL, payload, &response); err != nil {
		return "", newError("UpsertError", fmt.Sprintf("upsert rows %s", externalKey), err)
	}
	if response.RequestID == "" {
		return "", newError("UpsertError", fmt.Sprintf("upsert rows %s", externalKey), fmt.Errorf("missing requestId in response"))
	}

	return response.RequestID, nil
}

// AsyncResults fetches the per-record outcomes of an async rows request.
func (c *Client) AsyncResults(ctx context.Context, requestID string) ([]AsyncResult, error) {
	resultsURL := fmt.Sprintf("%s/data/v1/async/%s/results", c.RESTBaseURL, requestID)

	var response asyncResultsResponse
	if err := c.restGet(ctx, resultsURL, &response); err != nil {
		return nil, newError("ResultsError", fmt.Sprintf("async results %s", requestID), err)
	}

	return response.Items, nil
}

func (c *Client) restGet(ctx context.Context, callURL string, out any) error {
	return c.restCall(ctx, http.MethodGet, callURL, nil, out)
}

func (c *Client) restCall(ctx context.Context, method, callURL string, payload []byte, out any) error {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return err
	}

	var body *bytes.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, callURL, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
