// Package backend is the HTTP client for the crawl monitoring REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxErrorBodySize = 4 << 10 // 4KB

// DefaultBaseURL is the API origin used when none is configured.
const DefaultBaseURL = "http://localhost:8000/api/v1"

// HTTPDoer is the subset of *http.Client the Client needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the crawl monitoring API. It holds no session state; the
// caller passes the bearer token on every authenticated call.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(d HTTPDoer) Option {
	return func(c *Client) { c.httpClient = d }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client for baseURL. A zero timeout disables the per-request
// deadline.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API origin the client targets.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) do(ctx context.Context, method, path, token string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshalling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	reqID := uuid.New().String()
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("backend request failed", "method", method, "path", path, "request_id", reqID, "error", err)
		return nil, &NetworkError{Method: method, Path: path, Err: err}
	}
	c.logger.Debug("backend request", "method", method, "path", path, "status", resp.StatusCode,
		"request_id", reqID, "duration", time.Since(start))
	return resp, nil
}

// errorMessage extracts a short message from an error body. FastAPI style
// {"detail": "..."} bodies are unwrapped; anything else is returned trimmed.
func errorMessage(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		return ""
	}
	var envelope struct {
		Detail any `json:"detail"`
	}
	if json.Unmarshal(data, &envelope) == nil {
		if s, ok := envelope.Detail.(string); ok {
			return s
		}
	}
	return strings.TrimSpace(string(data))
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
	resp.Body.Close()
}

func ok(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
