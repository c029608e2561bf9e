package cache

import (
	"container/list"
	"time"

	"go.uber.org/atomic"
)

// entry holds one cached value together with its access bookkeeping.
// All mutation goes through the owning Store under its lock; the atomic
// counters exist so Stats can be read without copying entries out.
type entry[V any] struct {
	value          V
	createdAt      time.Time
	expiresAt      time.Time
	accessCount    *atomic.Int64
	lastAccessTime *atomic.Time

	// position in the store's recency list; nil once removed.
	elem *list.Element
}

func newEntry[V any](value V, expiresAt time.Time) *entry[V] {
	now := time.Now()
	return &entry[V]{
		value:          value,
		createdAt:      now,
		expiresAt:      expiresAt,
		accessCount:    atomic.NewInt64(0),
		lastAccessTime: atomic.NewTime(now),
	}
}

// expired reports whether the entry must not be served at the given instant.
func (e *entry[V]) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

func (e *entry[V]) touch() {
	e.accessCount.Inc()
	e.lastAccessTime.Store(time.Now())
}
