// Package sfmc is a client for the Salesforce Marketing Cloud auth, SOAP and
// REST APIs, scoped to the operations this service needs: catalog retrieves,
// rowset paging, async row upserts, ClearData performs and async results.
package sfmc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nsiqueira/sfmcli/model"
)

// Error wraps any fault raised while talking to SFMC. Name groups faults the
// way the legacy cloud page did ("AuthError", "RetrieveError", ...), so they
// can be serialized into a response body as-is.
type Error struct {
	Name string
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// FaultName implements model.Namer.
func (e *Error) FaultName() string {
	return e.Name
}

func newError(name, op string, err error) *Error {
	return &Error{Name: name, Op: op, Err: err}
}

// Client talks to one SFMC environment. Access tokens are cached per client
// and refreshed on expiry; the client is safe for concurrent use.
type Client struct {
	Environment model.Environment

	// Base URLs are derived from the environment subdomain and only
	// overridden in tests.
	AuthBaseURL string
	RESTBaseURL string
	SOAPBaseURL string

	httpClient *http.Client
	logger     *slog.Logger

	mu             sync.Mutex
	accessToken    string
	tokenExpiresAt time.Time
}

// NewClient creates a client for the given environment.
func NewClient(environment model.Environment, logger *slog.Logger) *Client {
	return &Client{
		Environment: environment,
		AuthBaseURL: fmt.Sprintf("https://%s.auth.marketingcloudapis.com", environment.Subdomain),
		RESTBaseURL: fmt.Sprintf("https://%s.rest.marketingcloudapis.com", environment.Subdomain),
		SOAPBaseURL: fmt.Sprintf("https://%s.soap.marketingcloudapis.com", environment.Subdomain),
		httpClient:  &http.Client{Timeout: 120 * time.Second},
		logger:      logger,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// AccessToken returns a valid access token, requesting a new one via the
// client credentials grant when the cached token expired.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiresAt) {
		return c.accessToken, nil
	}

	payload := url.Values{}
	payload.Set("grant_type", "client_credentials")
	payload.Set("client_id", c.Environment.ClientID)
	payload.Set("client_secret", c.Environment.ClientSecret)
	payload.Set("account_id", c.Environment.MID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.AuthBaseURL+"/v2/token", strings.NewReader(payload.Encode()))
	if err != nil {
		return "", newError("AuthError", "build token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", newError("AuthError", "request token", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", newError("AuthError", "request token", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", newError("AuthError", "decode token response", err)
	}
	if token.AccessToken == "" {
		return "", newError("AuthError", "request token", fmt.Errorf("empty access token for environment %s", c.Environment.Name))
	}

	c.accessToken = token.AccessToken
	c.tokenExpiresAt = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)

	c.logger.Info("Fetched access token", "environment", c.Environment.Name, "expires_in", token.ExpiresIn)

	return c.accessToken, nil
}
