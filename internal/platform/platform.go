// Package platform has the REST client for the monitoring platform API.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/kpitree/kpitree/internal/contract"
)

// Error bodies are kept for diagnostics but never slurped unbounded.
const maxErrorBodyBytes = 1 << 16

// Client talks to the platform REST API. It implements both the metadata
// read side and the function registry write side, so one client serves the
// render and deploy flows alike.
type Client struct {
	baseURL  string
	apiKey   string
	apiToken string
	tenant   string
	site     string
	http     *http.Client

	mu     sync.Mutex
	siteID string // Resolved site UUID, cached for the client's lifetime
}

var _ contract.MetadataSource = &Client{}   // Compile-time check
var _ contract.FunctionRegistry = &Client{} // Compile-time check

// NewClient creates a platform client from the run configuration.
func NewClient(cfg *contract.Config) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		apiToken: cfg.APIToken,
		tenant:   cfg.Tenant,
		site:     cfg.Site,
		http:     &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

// do performs one API request. A non-nil payload is sent as JSON. The
// caller owns the response body.
func (c *Client) do(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-api-key", c.apiKey)
	req.Header.Set("X-api-token", c.apiToken)
	req.Header.Set("tenantid", c.tenant)
	req.Header.Set("Content-type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	return resp, nil
}

// getJSON performs a GET and decodes a 2xx response into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	return decodeBody(resp.Body, out)
}

// decodeBody decodes a JSON response body into out.
func decodeBody(body io.Reader, out any) error {
	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// checkStatus turns a non-2xx response into an APIError.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	return &contract.APIError{Status: resp.StatusCode, Body: string(raw)}
}

// isNotFound reports whether an error is a 404 from the platform.
func isNotFound(err error) bool {
	var apiErr *contract.APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
