// Package fetch is the network collaborator for the binding engine: a
// JSON client that attaches bearer-token auth when a session is available,
// surfaces non-2xx responses as typed failures, and fans out over multiple
// named endpoints concurrently.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-databind/pkg/session"
)

const defaultTimeout = 30 * time.Second

// StatusError reports a non-2xx HTTP response. Callers distinguish 404
// (empty state) from other failures (error state) via IsNotFound.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch: unexpected status %d: %s", e.Code, e.Message)
}

// IsNotFound reports whether err is a StatusError carrying 404.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound
}

// Client fetches JSON payloads from a backend, attaching Authorization
// headers when its session holds a token.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    session.Session
	logger     zerolog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying *http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithSession attaches the session whose token authenticates requests.
func WithSession(sess session.Session) Option {
	return func(c *Client) {
		c.session = sess
	}
}

// WithLogger injects a zerolog logger for request diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient builds a Client rooted at baseURL.
func NewClient(baseURL string, options ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     zerolog.Nop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// Get fetches one endpoint and decodes the JSON object it returns. A
// non-2xx response yields a *StatusError; transport errors pass through
// wrapped.
func (c *Client) Get(ctx context.Context, endpoint string) (map[string]any, error) {
	body, err := c.Do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("fetch: decode %s: %w", endpoint, err)
	}
	return payload, nil
}

// Do performs one request against the backend and returns the raw body.
// The bearer token is attached when the session has one.
func (c *Client) Do(ctx context.Context, method, endpoint string, body io.Reader) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	url := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("fetch: build request for %s: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil {
		if token, ok := c.session.AccessToken(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %s %s: %w", method, endpoint, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch: read %s: %w", endpoint, err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("request complete")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Message: statusMessage(data, resp.Status)}
	}
	return data, nil
}

// All fetches every named endpoint concurrently and returns payloads keyed
// by the same names. Any single failure fails the whole call; no partial
// result is returned.
func (c *Client) All(ctx context.Context, endpointsByKey map[string]string) (map[string]map[string]any, error) {
	if len(endpointsByKey) == 0 {
		return map[string]map[string]any{}, nil
	}

	var mu sync.Mutex
	results := make(map[string]map[string]any, len(endpointsByKey))

	group, groupCtx := errgroup.WithContext(ctx)
	for key, endpoint := range endpointsByKey {
		key, endpoint := key, endpoint
		group.Go(func() error {
			payload, err := c.Get(groupCtx, endpoint)
			if err != nil {
				return fmt.Errorf("fetch: endpoint %q: %w", key, err)
			}
			mu.Lock()
			results[key] = payload
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// statusMessage prefers an error/message field from a JSON error body,
// falling back to the HTTP status line.
func statusMessage(body []byte, fallback string) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"error", "message"} {
			if msg, ok := payload[key].(string); ok && msg != "" {
				return msg
			}
		}
	}
	return fallback
}
