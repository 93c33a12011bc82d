package memory

import (
	"context"
	"sync"
	"time"

	"github.com/quietpost/quietpost/internal/ratelimit"
)

type entry struct {
	value     int64
	expiresAt time.Time
}

// Store is an in-process counter store. Window state is lost on restart
// and not shared across processes. Used when Redis is not configured, and
// by tests.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry

	// Now is the clock; tests override it.
	Now func() time.Time
}

// NewStore creates an empty in-memory counter store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]entry),
		Now:     time.Now,
	}
}

func (s *Store) Get(_ context.Context, key string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || !s.Now().Before(e.expiresAt) {
		delete(s.entries, key)
		return 0, false, nil
	}
	return e.value, true, nil
}

func (s *Store) Create(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{value: 1, expiresAt: s.Now().Add(ttl)}
	return nil
}

func (s *Store) Incr(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || !s.Now().Before(e.expiresAt) {
		// Window expired between the caller's Get and this Incr.
		delete(s.entries, key)
		return nil
	}
	e.value++
	s.entries[key] = e
	return nil
}

func (s *Store) TTL(_ context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return -2 * time.Second, nil
	}
	ttl := e.expiresAt.Sub(s.Now())
	if ttl < 0 {
		return -2 * time.Second, nil
	}
	return ttl, nil
}

// Sweep removes expired counters. The daemon calls this periodically so
// idle senders do not accumulate state.
func (s *Store) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.Now()
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

// Ensure Store implements ratelimit.CounterStore
var _ ratelimit.CounterStore = (*Store)(nil)
