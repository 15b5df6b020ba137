package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Entry is a cached value with its expiry. Entries written with a zero TTL
// carry ExpiresAt == write time and are stale on the next read; they exist
// for durable storage, not for serving.
type Entry struct {
	Key       string
	Value     []byte
	ExpiresAt time.Time
}

// Backend durably stores entries so they survive a process restart.
type Backend interface {
	Load(ctx context.Context, key string) (Entry, bool, error)
	Save(ctx context.Context, entry Entry) error
	Close() error
}

// Store is a TTL key/value store with get-or-compute semantics. Concurrent
// misses on the same key are coalesced into a single compute invocation.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Entry

	group   singleflight.Group
	backend Backend
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithBackend attaches a persistent backend consulted on in-memory misses
// and written through on every store.
func WithBackend(b Backend) Option {
	return func(s *Store) { s.backend = b }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrCompute returns the cached value for key if an unexpired entry
// exists, without invoking compute. Otherwise it invokes compute, stores the
// result with expiresAt = now + ttl, and returns it. A ttl of zero never
// serves a stored entry, fresh or not: the value is recomputed and written
// with immediate expiry, so it is durable but stale on the next read.
// Compute failures propagate to the caller uncaught and nothing is stored.
// Overlapping calls for the same key share one in-flight compute.
func (s *Store) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) ([]byte, error)) ([]byte, error) {
	if ttl > 0 {
		if value, ok := s.lookup(ctx, key); ok {
			return value, nil
		}
	}

	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		// Re-check under the flight: a concurrent caller may have
		// stored the value between our miss and this callback.
		if ttl > 0 {
			if value, ok := s.lookup(ctx, key); ok {
				return value, nil
			}
		}

		value, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.store(ctx, key, value, ttl); err != nil {
			return nil, err
		}
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func (s *Store) lookup(ctx context.Context, key string) ([]byte, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok && s.backend != nil {
		loaded, found, err := s.backend.Load(ctx, key)
		if err != nil || !found {
			return nil, false
		}
		entry, ok = loaded, true
		s.mu.Lock()
		s.entries[key] = entry
		s.mu.Unlock()
	}

	if !ok || !entry.ExpiresAt.After(s.now()) {
		return nil, false
	}
	return entry.Value, true
}

func (s *Store) store(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	entry := Entry{
		Key:       key,
		Value:     value,
		ExpiresAt: s.now().Add(ttl),
	}

	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()

	if s.backend != nil {
		return s.backend.Save(ctx, entry)
	}
	return nil
}

// GetOrCompute is the typed variant: values are JSON-encoded through the
// store so they round-trip the persistent backend.
func GetOrCompute[T any](ctx context.Context, s *Store, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	var zero T

	raw, err := s.GetOrCompute(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		value, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(value)
	})
	if err != nil {
		return zero, err
	}

	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return zero, err
	}
	return value, nil
}
