// Package tokenstore records revoked session tokens until they expire.
package tokenstore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps revoked keys in process memory. It is used when no Redis
// server is configured and in tests.
type MemoryStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke records key until ttl has passed.
func (s *MemoryStore) Revoke(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.revoked[key] = now.Add(ttl)
	s.sweep(now)
	return nil
}

// IsRevoked reports whether key was revoked and has not yet expired.
func (s *MemoryStore) IsRevoked(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.revoked[key]
	if !ok {
		return false, nil
	}
	if !s.now().Before(until) {
		delete(s.revoked, key)
		return false, nil
	}
	return true, nil
}

// sweep drops expired entries. Callers hold mu.
func (s *MemoryStore) sweep(now time.Time) {
	for k, until := range s.revoked {
		if !now.Before(until) {
			delete(s.revoked, k)
		}
	}
}
