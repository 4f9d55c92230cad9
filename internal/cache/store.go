package cache

import (
	"context"
	"errors"
	"time"

	"retroprofile-api/internal/logging"
	"retroprofile-api/internal/metrics"

	"github.com/goccy/go-json"
)

// Entry is the persisted shape of a typed cache value.
type Entry[T any] struct {
	Timestamp int64 `json:"timestamp"` // unix milliseconds at write time
	Data      T     `json:"data"`
}

// Store is a typed, namespaced view over a Cache. An entry is valid while
// now - timestamp < ttl; stale entries stay in the backend until overwritten
// or swept.
type Store[T any] struct {
	backend Cache
	name    string
	prefix  string
	ttl     time.Duration
	now     func() time.Time
}

// NewStore creates a store named name whose keys are prefix+key.
func NewStore[T any](backend Cache, name, prefix string, ttl time.Duration) *Store[T] {
	return &Store[T]{
		backend: backend,
		name:    name,
		prefix:  prefix,
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock replaces the clock used for freshness checks.
func (s *Store[T]) WithClock(now func() time.Time) *Store[T] {
	s.now = now
	return s
}

// TTL returns the freshness window.
func (s *Store[T]) TTL() time.Duration {
	return s.ttl
}

// Key returns the backend key for key.
func (s *Store[T]) Key(key string) string {
	return s.prefix + key
}

// Get returns the cached value for key if it is still fresh.
func (s *Store[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T

	raw, err := s.backend.Get(ctx, s.Key(key))
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			logging.Ctx(ctx).Warn().Err(err).Str("cache", s.name).Str("key", key).Msg("[Cache] read failed")
			metrics.CacheLookups.WithLabelValues(s.name, "error").Inc()
			return zero, false
		}
		metrics.CacheLookups.WithLabelValues(s.name, "miss").Inc()
		return zero, false
	}

	var entry Entry[T]
	if err := json.Unmarshal(raw, &entry); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("cache", s.name).Str("key", key).Msg("[Cache] corrupt entry")
		metrics.CacheLookups.WithLabelValues(s.name, "error").Inc()
		return zero, false
	}

	if s.now().UnixMilli()-entry.Timestamp >= s.ttl.Milliseconds() {
		metrics.CacheLookups.WithLabelValues(s.name, "expired").Inc()
		return zero, false
	}

	metrics.CacheLookups.WithLabelValues(s.name, "hit").Inc()
	return entry.Data, true
}

// Set replaces the value for key and stamps it with the current time.
func (s *Store[T]) Set(ctx context.Context, key string, value T) error {
	raw, err := json.Marshal(Entry[T]{Timestamp: s.now().UnixMilli(), Data: value})
	if err != nil {
		return err
	}
	return s.backend.Set(ctx, s.Key(key), raw, s.ttl)
}

// Delete removes key.
func (s *Store[T]) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, s.Key(key))
}

// GetOrLoad returns the fresh cached value or calls load and caches its
// result. Load errors are returned and nothing is cached.
func (s *Store[T]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	if v, ok := s.Get(ctx, key); ok {
		return v, nil
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	if err := s.Set(ctx, key, v); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("cache", s.name).Str("key", key).Msg("[Cache] write failed")
	}
	return v, nil
}
