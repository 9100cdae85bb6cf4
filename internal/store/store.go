package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// Store is the interface for a persistent key-value store of fetched pages
// and extraction results. Keys may contain slashes to group entries, for
// example "usccb/2025-11-05". Unlike cache, it has no TTL.
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
	GetJSON(key string, v any) bool
	SetJSON(key string, v any) error
	GetWithExtension(key, ext string) ([]byte, bool)
	SetWithExtension(key, ext string, value []byte) error
}

// LocalStore is a file-based implementation of Store.
type LocalStore struct {
	dir string
	mu  sync.RWMutex
}

// NewLocal creates a new LocalStore with the specified directory.
func NewLocal(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &LocalStore{dir: dir}, nil
}

// Get retrieves a JSON value by key. Returns the value and true if found,
// or nil and false if not found.
func (s *LocalStore) Get(key string) ([]byte, bool) {
	return s.GetWithExtension(key, ".json")
}

// Set stores a JSON value with the given key.
func (s *LocalStore) Set(key string, value []byte) error {
	return s.SetWithExtension(key, ".json", value)
}

// GetJSON retrieves and unmarshals a JSON value.
func (s *LocalStore) GetJSON(key string, v any) bool {
	data, ok := s.Get(key)
	if !ok {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

// SetJSON marshals and stores a value as JSON.
func (s *LocalStore) SetJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(key, data)
}

// GetWithExtension retrieves raw bytes stored under a custom file extension.
func (s *LocalStore) GetWithExtension(key, ext string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.keyPath(key, ext))
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetWithExtension stores raw bytes with a custom file extension.
func (s *LocalStore) SetWithExtension(key, ext string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.keyPath(key, ext)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, value, 0644)
}

func (s *LocalStore) keyPath(key, ext string) string {
	return filepath.Join(s.dir, filepath.FromSlash(filepath.Clean("/"+key))+ext)
}
