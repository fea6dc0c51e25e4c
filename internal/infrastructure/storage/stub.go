package storage

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var _ ImageStore = (*StubImageStore)(nil)

// StubImageStore serves placeholder image URLs and keeps uploads in
// memory. It backs the demo deployment where no object store runs.
type StubImageStore struct {
	baseURL string

	mu      sync.RWMutex
	objects map[string]struct{}
}

// NewStubImageStore creates a stub store. An empty baseURL falls back to
// a placeholder host.
func NewStubImageStore(baseURL string) *StubImageStore {
	if baseURL == "" {
		baseURL = "https://images.zava.example.com"
	}
	return &StubImageStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		objects: make(map[string]struct{}),
	}
}

// ImageURL returns a URL under the configured base.
func (s *StubImageStore) ImageURL(_ context.Context, key string) (string, error) {
	if key == "" {
		return "", errors.New("image key is required")
	}
	return s.baseURL + "/" + key, nil
}

// Upload records the key so Exists reflects it.
func (s *StubImageStore) Upload(_ context.Context, key string, _ []byte, _ string) error {
	if key == "" {
		return errors.New("image key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = struct{}{}
	return nil
}

// Exists reports true for uploaded keys. Keys never uploaded also report
// true so seeded image references keep resolving in the demo.
func (s *StubImageStore) Exists(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("image key is required")
	}
	return true, nil
}

// Delete forgets the key.
func (s *StubImageStore) Delete(_ context.Context, key string) error {
	if key == "" {
		return errors.New("image key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}
