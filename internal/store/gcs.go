package store

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"cloud.google.com/go/storage"
)

const gcsTimeout = 30 * time.Second

// GCSStore is a Cloud Storage-backed implementation of Store.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCS creates a new GCSStore with the specified bucket.
func NewGCS(ctx context.Context, bucket string) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GCSStore{
		client: client,
		bucket: bucket,
	}, nil
}

// Get retrieves a JSON value by key. Returns the value and true if found,
// or nil and false if not found.
func (s *GCSStore) Get(key string) ([]byte, bool) {
	return s.GetWithExtension(key, ".json")
}

// Set stores a JSON value with the given key.
func (s *GCSStore) Set(key string, value []byte) error {
	return s.SetWithExtension(key, ".json", value)
}

// GetJSON retrieves and unmarshals a JSON value.
func (s *GCSStore) GetJSON(key string, v any) bool {
	data, ok := s.Get(key)
	if !ok {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

// SetJSON marshals and stores a value as JSON.
func (s *GCSStore) SetJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(key, data)
}

// GetWithExtension retrieves raw bytes stored under a custom file extension.
func (s *GCSStore) GetWithExtension(key, ext string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), gcsTimeout)
	defer cancel()

	reader, err := s.client.Bucket(s.bucket).Object(key + ext).NewReader(ctx)
	if err != nil {
		return nil, false
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetWithExtension stores raw bytes with a custom file extension.
func (s *GCSStore) SetWithExtension(key, ext string, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), gcsTimeout)
	defer cancel()

	writer := s.client.Bucket(s.bucket).Object(key + ext).NewWriter(ctx)
	writer.ContentType = contentType(ext)

	if _, err := writer.Write(value); err != nil {
		writer.Close()
		return err
	}
	return writer.Close()
}

// Close closes the GCS client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

func contentType(ext string) string {
	switch ext {
	case ".json":
		return "application/json"
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
