// Package cache implements a bounded, TTL-expiring key/value store with
// deterministic least-recently-used eviction. Every service cache (search
// responses, track probes) is its own Store instance with independent
// capacity and TTL; instances share nothing.
package cache

import (
	"container/list"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrInvalidMaxSize = errors.New("max size must be at least 1")

const (
	defaultMaxSize    = 1024
	defaultTTL        = 5 * time.Minute
	defaultSweepEvery = 32
)

type options struct {
	maxSize    int
	defaultTTL time.Duration
	sweepEvery int
	logger     *zap.Logger
}

// Option configures a Store at construction time.
type Option func(*options)

// WithMaxSize caps the number of entries the store may hold.
func WithMaxSize(n int) Option {
	return func(o *options) { o.maxSize = n }
}

// WithDefaultTTL sets the expiry applied by Set.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(o *options) { o.defaultTTL = ttl }
}

// WithSweepEvery sets how many writes elapse between expiry sweeps.
func WithSweepEvery(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.sweepEvery = n
		}
	}
}

// WithLogger sets the store's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Stats is a point-in-time snapshot of a store.
type Stats struct {
	TotalEntries   int   `json:"totalEntries"`
	ActiveEntries  int   `json:"activeEntries"`
	ExpiredEntries int   `json:"expiredEntries"`
	Hits           int64 `json:"hits"`
	Misses         int64 `json:"misses"`
	Evictions      int64 `json:"evictions"`
}

// Store is a thread-safe, size- and time-bounded map. The zero value is not
// usable; construct with New.
type Store[V any] struct {
	mu      sync.Mutex
	entries map[string]*entry[V]
	// recency keeps keys ordered most- to least-recently accessed.
	recency *list.List
	writes  int

	maxSize    int
	defaultTTL time.Duration
	sweepEvery int

	metrics *Metrics
	logger  *zap.Logger
}

// New builds a Store for values of type V.
func New[V any](opts ...Option) (*Store[V], error) {
	o := &options{
		maxSize:    defaultMaxSize,
		defaultTTL: defaultTTL,
		sweepEvery: defaultSweepEvery,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.maxSize < 1 {
		return nil, ErrInvalidMaxSize
	}

	return &Store[V]{
		entries:    make(map[string]*entry[V]),
		recency:    list.New(),
		maxSize:    o.maxSize,
		defaultTTL: o.defaultTTL,
		sweepEvery: o.sweepEvery,
		metrics:    NewMetrics(),
		logger:     o.logger,
	}, nil
}

// Get returns the live value for key. An expired entry is deleted on the
// spot and reported as a miss; a hit refreshes the entry's recency.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		s.metrics.Misses.Inc()
		var zero V
		return zero, false
	}
	if e.expired(time.Now()) {
		s.remove(key, e)
		s.metrics.Misses.Inc()
		var zero V
		return zero, false
	}

	e.touch()
	s.recency.MoveToFront(e.elem)
	s.metrics.Hits.Inc()
	return e.value, true
}

// Set stores value under key with the default TTL.
func (s *Store[V]) Set(key string, value V) {
	s.SetTTL(key, value, s.defaultTTL)
}

// SetTTL stores value under key, always overwriting. Every sweepEvery-th
// write triggers an expiry sweep; if the store still overflows afterwards,
// least-recently-accessed entries are evicted synchronously until the size
// drops below capacity with a little headroom to spare.
func (s *Store[V]) SetTTL(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.writes++
	if s.writes%s.sweepEvery == 0 {
		s.sweep(time.Now())
	}

	if old, ok := s.entries[key]; ok {
		s.remove(key, old)
	}

	e := newEntry(value, time.Now().Add(ttl))
	e.elem = s.recency.PushFront(key)
	s.entries[key] = e

	if len(s.entries) > s.maxSize {
		// Expired entries must not count against capacity.
		s.sweep(time.Now())
		s.evictLRU()
	}
}

// Invalidate removes key if present.
func (s *Store[V]) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		s.remove(key, e)
	}
}

// Len reports the current entry count, expired entries included until the
// next sweep touches them.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Keys returns a snapshot of all stored keys.
func (s *Store[V]) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys
}

// Stats reports entry counts and access metrics.
func (s *Store[V]) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	active := 0
	for _, e := range s.entries {
		if !e.expired(now) {
			active++
		}
	}
	return Stats{
		TotalEntries:   len(s.entries),
		ActiveEntries:  active,
		ExpiredEntries: len(s.entries) - active,
		Hits:           s.metrics.Hits.Load(),
		Misses:         s.metrics.Misses.Load(),
		Evictions:      s.metrics.Evictions.Load(),
	}
}

// sweep removes every expired entry. Caller holds the lock.
func (s *Store[V]) sweep(now time.Time) {
	for key, e := range s.entries {
		if e.expired(now) {
			s.remove(key, e)
		}
	}
}

// evictLRU drains least-recently-accessed entries until the store is below
// capacity minus a headroom buffer, so a burst of writes does not evict on
// every single insertion. Caller holds the lock.
func (s *Store[V]) evictLRU() {
	target := s.maxSize - s.maxSize/16
	for len(s.entries) > target {
		back := s.recency.Back()
		if back == nil {
			return
		}
		key := back.Value.(string)
		e, ok := s.entries[key]
		if !ok {
			s.recency.Remove(back)
			continue
		}
		s.remove(key, e)
		s.metrics.Evictions.Inc()
		s.logger.Debug("evicted cache entry", zap.String("key", key))
	}
}

// remove deletes the entry and its recency node. Caller holds the lock.
func (s *Store[V]) remove(key string, e *entry[V]) {
	delete(s.entries, key)
	if e.elem != nil {
		s.recency.Remove(e.elem)
		e.elem = nil
	}
}
