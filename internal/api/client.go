// Package api provides the client for the SubFlow REST backend.
package api

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
	"time"

	"github.com/google/uuid"
)

const (
	defaultBaseURL = "http://localhost:4000/api"
	requestTimeout = 15 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
)

var (
	// ErrUnauthorized indicates the bearer token is missing, expired, or invalid.
	ErrUnauthorized = errors.New("api: unauthorized")
	// ErrNotFound indicates the resource does not exist. Callers treat this
	// as an expected empty state for budgets and plan assignments.
	ErrNotFound = errors.New("api: not found")
)

// Error is a non-2xx response carrying the server's message verbatim.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("api: unexpected status %d", e.Status)
}

// Client talks to the SubFlow backend. A bearer token is injected into
// every request; any 401 clears the token and fires the unauthorized hook
// exactly once per token, which is how logout is broadcast to the rest of
// the app.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string

	onUnauthorized func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying transport.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithUnauthorizedHook registers the logout broadcast fired on any 401.
func WithUnauthorizedHook(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// New creates a client for the given base URL and bearer token. An empty
// baseURL falls back to the local development default.
func New(baseURL, token string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	c := &Client{
		baseURL: baseURL,
		token:   strings.TrimSpace(token),
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token, e.g. after login.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = strings.TrimSpace(token)
	c.mu.Unlock()
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// HasToken reports whether a bearer token is set.
func (c *Client) HasToken() bool {
	return c.Token() != ""
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do performs a JSON request and decodes the response into out (when
// non-nil). in is marshaled as the JSON body when non-nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("api: encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	raw, err := c.roundTrip(ctx, method, path, body, "application/json")
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("api: parsing %s %s response: %w", method, path, err)
	}
	return nil
}

// roundTrip sends the request with auth headers and maps error statuses.
func (c *Client) roundTrip(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("api: creating request: %w", err)
	}

	if body != nil && contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("api: reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.broadcastUnauthorized()
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &Error{Status: resp.StatusCode, Message: serverMessage(raw)}
	}

	return raw, nil
}

// broadcastUnauthorized clears the token and fires the logout hook once.
func (c *Client) broadcastUnauthorized() {
	c.mu.Lock()
	hadToken := c.token != ""
	c.token = ""
	c.mu.Unlock()

	if hadToken && c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

// serverMessage extracts the message field from an error body, if any.
func serverMessage(raw []byte) string {
	var probe struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	if probe.Message != "" {
		return probe.Message
	}
	return probe.Error
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, in, out)
}

func (c *Client) put(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPut, path, in, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}
