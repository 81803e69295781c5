// Package api is the REST client for the hub backend. Every request passes
// through one interceptor that injects the bearer token and tracing headers,
// and every 401 clears the token and announces the failure on the bus.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/go-ports/stride/internal/buildinfo"
	"github.com/go-ports/stride/internal/events"
	"github.com/go-ports/stride/internal/redaction"
)

// ErrUnauthorized is matched by errors.Is for any 401 response.
var ErrUnauthorized = errors.New("unauthorized")

// StatusError is returned for non-2xx responses. Body is a redacted snippet.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Unwrap lets errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *StatusError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// Client talks to the hub backend. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	bus     *events.Bus

	mu    sync.RWMutex
	token string
}

// New builds a client for baseURL. bus may be nil, in which case 401s only
// clear the token.
func New(baseURL string, timeout time.Duration, bus *events.Bus) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		bus:     bus,
	}
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string { return c.baseURL }

// SetToken replaces the token read by the interceptor.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the token the next request will carry.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// intercept decorates every outgoing request.
func (c *Client) intercept(req *http.Request) {
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	req.Header.Set("X-Request-ID", uuid.NewString())
}

// unauthorized clears the token and publishes one auth-failed event.
func (c *Client) unauthorized(path string) {
	c.SetToken("")
	slog.Warn("api: unauthorized, token cleared", "path", path)
	if c.bus != nil {
		c.bus.Publish(events.AuthFailed, path)
	}
}

// doJSON executes a request against path, marshalling body as JSON and
// unmarshalling the response into out. Pass nil body for GET requests. Pass
// nil out to discard the response body. headers are applied after the
// interceptor and win over it. Returns a *StatusError on non-2xx status codes.
func (c *Client) doJSON(ctx context.Context, method, path string, headers map[string]string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api.doJSON marshal: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("api.doJSON new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.intercept(req)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	slog.Debug("api: request", "method", method, "path", path, "request_id", req.Header.Get("X-Request-ID"))
	resp, err := c.http.Do(req) // #nosec G704 -- URL is the user-configured hub endpoint
	if err != nil {
		return fmt.Errorf("api.doJSON %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		if resp.StatusCode == http.StatusUnauthorized {
			c.unauthorized(path)
		}
		return &StatusError{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Body:   redaction.Redact(string(bytes.TrimSpace(snippet))),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("api.doJSON decode %s: %w", path, err)
		}
	}
	return nil
}

// Raw performs an authenticated GET of path and returns the decoded JSON
// document without mapping it onto a model.
func (c *Client) Raw(ctx context.Context, path string) (any, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	var out any
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
