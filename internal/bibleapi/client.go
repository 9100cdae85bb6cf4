// Package bibleapi resolves lookup keys to passage text using the public
// bible-api.com service.
package bibleapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"daily-scripture/internal/scripture"
)

const (
	DefaultBaseURL = "https://bible-api.com"
	DefaultTimeout = 8 * time.Second
)

// passage is the subset of the bible-api.com response we use.
type passage struct {
	Reference string `json:"reference"`
	Text      string `json:"text"`
	Error     string `json:"error"`
}

// Client fetches passage text. It never returns errors: any failure is
// logged and reported as absent text.
type Client struct {
	baseURL   string
	client    *http.Client
	userAgent string
	logger    *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header sent with each request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a Client.
func New(logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: DefaultTimeout},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns the passage text for key, or ok == false when the text
// could not be retrieved.
func (c *Client) Resolve(ctx context.Context, key scripture.LookupKey) (text string, ok bool) {
	url := c.baseURL + "/" + key.Path()
	log := c.logger.With(zap.String("passage", key.String()), zap.String("url", url))

	p, err := c.fetch(ctx, url)
	if err != nil {
		log.Warn("passage lookup failed", zap.Error(err))
		return "", false
	}

	text = strings.TrimSpace(p.Text)
	if text == "" {
		log.Warn("passage lookup returned no text", zap.String("api_error", p.Error))
		return "", false
	}

	return text, true
}

func (c *Client) fetch(ctx context.Context, url string) (passage, error) {
	var p passage

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return p, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return p, fmt.Errorf("fetching passage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return p, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return p, fmt.Errorf("reading response: %w", err)
	}
	if err := json.Unmarshal(body, &p); err != nil {
		return p, fmt.Errorf("decoding response: %w", err)
	}

	return p, nil
}
