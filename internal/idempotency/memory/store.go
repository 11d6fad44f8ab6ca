package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dejobratic/shop/internal/shop/ports"
)

type entry struct {
	response ports.StoredResponse
	storedAt time.Time
}

// Store retains idempotency responses for replaying duplicate requests.
type Store struct {
	mu    sync.RWMutex
	items map[string]entry
	ttl   time.Duration
	now   func() time.Time
}

// NewStore creates an in-memory idempotency store. Entries older than ttl
// are ignored; a zero ttl keeps them forever.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		items: make(map[string]entry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns the stored response for a given key if present.
func (s *Store) Get(_ context.Context, key string) (*ports.StoredResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.items[key]
	if !ok || s.expired(value) {
		return nil, nil
	}
	resp := value.response
	resp.Body = append([]byte(nil), value.response.Body...)
	return &resp, nil
}

// Save keeps the first live response stored for a key.
func (s *Store) Save(_ context.Context, key string, response ports.StoredResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.items[key]; ok && !s.expired(existing) {
		return nil
	}
	response.Body = append([]byte(nil), response.Body...)
	s.items[key] = entry{response: response, storedAt: s.now()}
	s.evictExpired()
	return nil
}

func (s *Store) expired(e entry) bool {
	return s.ttl > 0 && s.now().Sub(e.storedAt) >= s.ttl
}

// evictExpired drops stale entries. Callers hold the write lock.
func (s *Store) evictExpired() {
	if s.ttl <= 0 {
		return
	}
	for key, e := range s.items {
		if s.expired(e) {
			delete(s.items, key)
		}
	}
}
