// Package cache keeps fetched pages on disk for a limited time so repeated
// runs over the same dates do not hit the source site again.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry represents a cached page with metadata.
type Entry struct {
	URL       string    `json:"url"`
	Body      []byte    `json:"body"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Cache provides disk-based caching for fetched pages.
type Cache struct {
	dir string
	ttl time.Duration
	mu  sync.RWMutex
	now func() time.Time
}

// New creates a new disk-based cache.
func New(cacheDir string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, err
	}
	return &Cache{
		dir: cacheDir,
		ttl: ttl,
		now: time.Now,
	}, nil
}

// Get retrieves a cached page if it exists and isn't expired.
func (c *Cache) Get(url string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.filePath(url))
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}

	if entry.URL != url || c.now().Sub(entry.FetchedAt) > c.ttl {
		return nil, false
	}

	return entry.Body, true
}

// Set stores a page in the cache.
func (c *Cache) Set(url string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := Entry{
		URL:       url,
		Body:      body,
		FetchedAt: c.now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return os.WriteFile(c.filePath(url), data, 0644)
}

// Invalidate removes a single page from the cache.
func (c *Cache) Invalidate(url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.Remove(c.filePath(url)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// InvalidateAll removes all cached entries.
func (c *Cache) InvalidateAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".json" {
			os.Remove(filepath.Join(c.dir, entry.Name()))
		}
	}
	return nil
}

func (c *Cache) filePath(url string) string {
	// Sanitize URL to be filesystem-safe
	safeName := make([]rune, 0, len(url))
	for _, r := range url {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			safeName = append(safeName, r)
		} else {
			safeName = append(safeName, '_')
		}
	}
	return filepath.Join(c.dir, string(safeName)+".json")
}
