// Package scraper fetches daily readings pages and extracts the scripture
// citations they list.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (compatible; Daily Readings Seeder/1.0)"
)

// PageFetcher retrieves the raw markup behind a URL.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: unexpected status %d", e.URL, e.Code)
}

// HTTPFetcher is a PageFetcher backed by net/http.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates a fetcher with the given timeout and User-Agent.
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Fetch fetches the content of a URL and returns the response body as bytes.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return data, nil
}

// PageCache stores fetched pages by URL.
type PageCache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
	Invalidate(key string) error
}

// CachingFetcher serves pages from a PageCache, fetching and storing misses.
type CachingFetcher struct {
	next  PageFetcher
	cache PageCache
}

// NewCachingFetcher wraps next with a cache.
func NewCachingFetcher(next PageFetcher, cache PageCache) *CachingFetcher {
	return &CachingFetcher{next: next, cache: cache}
}

func (f *CachingFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if data, ok := f.cache.Get(url); ok {
		return data, nil
	}

	data, err := f.next.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	// A failed cache write only costs a refetch next time.
	_ = f.cache.Set(url, data)
	return data, nil
}

// Invalidate drops url from the cache so the next Fetch goes to the network.
func (f *CachingFetcher) Invalidate(url string) error {
	return f.cache.Invalidate(url)
}
