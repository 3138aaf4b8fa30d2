// Package httpapi is the JSON-over-HTTP transport shared by the model
// provider adapters (Ollama, OpenAI, Anthropic).
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 512

// Client sends JSON requests to one provider.
type Client struct {
	provider    string
	baseURL     string
	http        *http.Client
	header      http.Header
	unavailable error
}

// Option configures a Client.
type Option func(*Client)

// WithHeader sets a header on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.header.Set(key, value) }
}

// WithBearer authenticates every request with an Authorization bearer token.
func WithBearer(token string) Option {
	return WithHeader("Authorization", "Bearer "+token)
}

// New creates a client for provider rooted at baseURL.
// Transport failures and non-2xx responses wrap unavailable, so callers can
// match them against the domain's availability sentinels.
func New(provider, baseURL string, timeout time.Duration, unavailable error, opts ...Option) *Client {
	c := &Client{
		provider:    provider,
		baseURL:     strings.TrimRight(baseURL, "/"),
		http:        &http.Client{Timeout: timeout},
		header:      make(http.Header),
		unavailable: unavailable,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Provider returns the provider name used in error messages.
func (c *Client) Provider() string {
	return c.provider
}

// BaseURL returns the base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Post sends in as JSON to path and decodes the response into out.
// A nil out discards the body.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", c.provider, err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(body), out)
}

// Get fetches path and decodes the response into out.
// A nil out discards the body.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, http.NoBody, out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", c.provider, err)
	}
	for k, v := range c.header {
		req.Header[k] = v
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", c.unavailable, c.provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Provider:   c.provider,
			Code:       resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
			RetryAfter: resp.Header.Get("Retry-After"),
			err:        c.unavailable,
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.provider, err)
	}
	return nil
}

// StatusError is a non-2xx provider response.
type StatusError struct {
	Provider   string
	Code       int
	Body       string
	RetryAfter string

	err error
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s (status %d)", e.Provider, e.Code)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	if e.err != nil {
		return e.err.Error() + ": " + msg
	}
	return msg
}

// Unwrap returns the availability sentinel the client was created with.
func (e *StatusError) Unwrap() error {
	return e.err
}

// TooManyRequests reports whether the provider rate limited the request.
func (e *StatusError) TooManyRequests() bool {
	return e.Code == http.StatusTooManyRequests
}
