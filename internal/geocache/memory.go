package geocache

import (
	"context"
	"sync"
	"time"

	"github.com/couchcryptid/geo-sitemap-service/internal/domain"
)

// MemoryStore is a process-local Store. Nothing survives a restart.
type MemoryStore struct {
	mu           sync.RWMutex
	entries      map[string]domain.GeoResolution
	lastModified time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]domain.GeoResolution)}
}

func (s *MemoryStore) Get(_ context.Context, signature string) (domain.GeoResolution, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.entries[signature]
	return res, ok, nil
}

func (s *MemoryStore) Put(_ context.Context, res domain.GeoResolution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[res.Signature] = res
	return nil
}

func (s *MemoryStore) LastModified(context.Context) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastModified, !s.lastModified.IsZero(), nil
}

func (s *MemoryStore) SetLastModified(_ context.Context, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastModified = t
	return nil
}

func (s *MemoryStore) Close() error { return nil }
