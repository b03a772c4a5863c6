package atlassian

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/junyeong-ai/mcp-atlassian/internal/config"
)

// Backend is the outbound boundary the tool handlers call through. It is an
// interface so handler tests can substitute a recording fake for the real
// HTTP client.
type Backend interface {
	GetJSON(ctx context.Context, path string, query url.Values) (interface{}, error)
	PostJSON(ctx context.Context, path string, query url.Values, body interface{}) (interface{}, error)
	PutJSON(ctx context.Context, path string, query url.Values, body interface{}) (interface{}, error)
}

// Client talks to the Atlassian Cloud REST APIs with basic auth.
type Client struct {
	hc      *http.Client
	baseURL string
	auth    string
}

// NewClient builds a client from the configuration. The request timeout is
// the only timeout at this layer; callers own cancellation via ctx.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		hc: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeoutMS) * time.Millisecond,
		},
		baseURL: cfg.BaseURL(),
		auth:    AuthHeader(cfg.AtlassianEmail, cfg.AtlassianAPIToken),
	}
}

// AuthHeader builds the Basic authorization header value for an Atlassian
// API token.
func AuthHeader(email, token string) string {
	credentials := fmt.Sprintf("%s:%s", email, token)
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials))
}

func (c *Client) GetJSON(ctx context.Context, path string, query url.Values) (interface{}, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

func (c *Client) PostJSON(ctx context.Context, path string, query url.Values, body interface{}) (interface{}, error) {
	return c.do(ctx, http.MethodPost, path, query, body)
}

func (c *Client) PutJSON(ctx context.Context, path string, query url.Values, body interface{}) (interface{}, error) {
	return c.do(ctx, http.MethodPut, path, query, body)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}) (interface{}, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.auth)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Status: resp.StatusCode, Body: string(data)}
	}

	// Some write endpoints respond 204 with no body.
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var decoded interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return decoded, nil
}

// StatusError is a non-2xx response from the remote API.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d", e.Status)
	}
	return fmt.Sprintf("status %d: %s", e.Status, e.Body)
}
