// Package postgrest is a small client for PostgREST-style REST APIs
// such as Supabase's /rest/v1 endpoint.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	internalstrings "github.com/amonks/tracker/internal/strings"
)

// DefaultTimeout bounds every request when Options.Timeout is unset.
const DefaultTimeout = 20 * time.Second

// Options configures a Client.
type Options struct {
	// APIKey is sent as the apikey header.
	APIKey string
	// Bearer is sent as the Authorization bearer token. Defaults to APIKey.
	Bearer string
	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// Client calls a PostgREST API.
type Client struct {
	restURL string
	apiKey  string
	bearer  string
	client  *http.Client
}

// NewClient returns a client for the project at baseURL. Tables are served
// under baseURL + "/rest/v1".
func NewClient(baseURL string, opts Options) *Client {
	restURL := internalstrings.TrimTrailingSlash(strings.TrimSpace(baseURL))
	if !strings.HasSuffix(restURL, "/rest/v1") {
		restURL += "/rest/v1"
	}
	bearer := opts.Bearer
	if bearer == "" {
		bearer = opts.APIKey
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{restURL: restURL, apiKey: opts.APIKey, bearer: bearer, client: client}
}

// Select fetches rows from table into dest, which must be a slice pointer.
func (c *Client) Select(ctx context.Context, table string, query *Query, dest any) error {
	return c.do(ctx, http.MethodGet, table, query, nil, dest)
}

// Insert creates rows and decodes the stored representation into dest.
func (c *Client) Insert(ctx context.Context, table string, body any, dest any) error {
	return c.do(ctx, http.MethodPost, table, nil, body, dest)
}

// Update patches the rows matching query and decodes the updated rows.
func (c *Client) Update(ctx context.Context, table string, query *Query, body any, dest any) error {
	return c.do(ctx, http.MethodPatch, table, query, body, dest)
}

// Delete removes the rows matching query and decodes the removed rows.
func (c *Client) Delete(ctx context.Context, table string, query *Query, dest any) error {
	return c.do(ctx, http.MethodDelete, table, query, nil, dest)
}

func (c *Client) do(ctx context.Context, method, table string, query *Query, body any, dest any) error {
	endpoint := c.restURL + "/" + table
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", table, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.bearer)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, table, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", table, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readError(resp.StatusCode, data)
	}
	if dest == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode %s response: %w", table, err)
	}
	return nil
}

// Error is a non-2xx response from the API.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
	Body    string `json:"-"`
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("postgrest: status=%d %s", e.Status, e.Message)
	}
	return fmt.Sprintf("postgrest: status=%d body=%s", e.Status, e.Body)
}

func readError(status int, data []byte) error {
	apiErr := &Error{Status: status, Body: strings.TrimSpace(string(data))}
	_ = json.Unmarshal(data, apiErr)
	return apiErr
}
