// Package upstream wraps outbound JSON calls with a fixed retry policy.
package upstream

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

	"github.com/sethvargo/go-retry"
)

const (
	// DefaultTimeout bounds a single attempt.
	DefaultTimeout = 10 * time.Second
	// DefaultAttempts is the total number of tries per call.
	DefaultAttempts = 3

	defaultBaseDelay = 500 * time.Millisecond
	defaultMaxDelay  = 4 * time.Second

	maxBodyBytes  = 8 << 20
	maxErrorBytes = 512
)

// Observer is notified after every attempt. status is 0 when no response was received.
type Observer interface {
	ObserveUpstream(service string, status int, elapsed time.Duration)
}

// Request describes one outbound call.
type Request struct {
	// Service labels the call in logs, metrics and errors.
	Service  string
	URL      string
	RawQuery string
	Header   http.Header
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.StatusCode, e.Body)
}

// Client issues JSON requests. Network failures and non-2xx responses are retried alike.
type Client struct {
	http      *http.Client
	attempts  uint64
	baseDelay time.Duration
	maxDelay  time.Duration
	observer  Observer
	logger    *slog.Logger
}

// Option configures the Client during construction.
type Option func(*Client)

// WithAttempts sets the total number of tries per call.
func WithAttempts(n uint64) Option {
	return func(c *Client) {
		if n > 0 {
			c.attempts = n
		}
	}
}

// WithBackoff overrides the exponential backoff bounds.
func WithBackoff(base, max time.Duration) Option {
	return func(c *Client) {
		c.baseDelay = base
		c.maxDelay = max
	}
}

// WithObserver reports each attempt to o.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// WithLogger logs retried attempts at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New constructs a Client. A nil httpClient gets DefaultTimeout.
func New(httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	c := &Client{
		http:      httpClient,
		attempts:  DefaultAttempts,
		baseDelay: defaultBaseDelay,
		maxDelay:  defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// With returns a copy of c with opts applied. The underlying http.Client is shared.
func (c *Client) With(opts ...Option) *Client {
	clone := *c
	for _, opt := range opts {
		opt(&clone)
	}
	return &clone
}

// GetJSON issues a GET and returns the response body unmodified.
func (c *Client) GetJSON(ctx context.Context, req Request) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, req, nil)
}

// PostJSON encodes body as JSON, POSTs it and returns the response body unmodified.
func (c *Client) PostJSON(ctx context.Context, req Request, body any) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", req.Service, err)
	}
	return c.do(ctx, http.MethodPost, req, payload)
}

func (c *Client) backoff() retry.Backoff {
	b := retry.NewExponential(c.baseDelay)
	b = retry.WithCappedDuration(c.maxDelay, b)
	return retry.WithMaxRetries(c.attempts-1, b)
}

func (c *Client) do(ctx context.Context, method string, req Request, payload []byte) (json.RawMessage, error) {
	var (
		body    json.RawMessage
		attempt int
	)

	err := retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		attempt++
		out, err := c.attempt(ctx, method, req, payload)
		if err != nil {
			if c.logger != nil {
				c.logger.Debug("upstream attempt failed", "service", req.Service, "attempt", attempt, "error", err)
			}
			return retry.RetryableError(err)
		}
		body = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) attempt(ctx context.Context, method string, req Request, payload []byte) (json.RawMessage, error) {
	target := req.URL
	if req.RawQuery != "" {
		target += "?" + req.RawQuery
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", req.Service, err)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.observe(req.Service, 0, started)
		return nil, fmt.Errorf("%s: call: %w", req.Service, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	c.observe(req.Service, resp.StatusCode, started)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", req.Service, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := strings.TrimSpace(string(data))
		if len(snippet) > maxErrorBytes {
			snippet = snippet[:maxErrorBytes]
		}
		return nil, &StatusError{Service: req.Service, StatusCode: resp.StatusCode, Body: snippet}
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("%s: response is not valid JSON", req.Service)
	}
	return json.RawMessage(data), nil
}

func (c *Client) observe(service string, status int, started time.Time) {
	if c.observer != nil {
		c.observer.ObserveUpstream(service, status, time.Since(started))
	}
}
