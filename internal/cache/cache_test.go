package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestStore(t *testing.T, opts ...Option) *Store[string] {
	t.Helper()
	s, err := New[string](opts...)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func TestSetGet(t *testing.T) {
	s := newTestStore(t)

	s.Set("k", "v")
	got, ok := s.Get("k")
	if !ok || got != "v" {
		t.Fatalf("got %q, %v; want v, true", got, ok)
	}

	if _, ok := s.Get("missing"); ok {
		t.Fatal("expected miss for unknown key")
	}
}

func TestGetHonorsTTL(t *testing.T) {
	s := newTestStore(t)

	s.SetTTL("k", "v", 50*time.Millisecond)
	if _, ok := s.Get("k"); !ok {
		t.Fatal("entry expired before its TTL elapsed")
	}

	time.Sleep(80 * time.Millisecond)
	if _, ok := s.Get("k"); ok {
		t.Fatal("entry served after its TTL elapsed")
	}
	if s.Len() != 0 {
		t.Fatalf("expired entry not deleted on read, len=%d", s.Len())
	}
}

func TestOverwriteResetsTTL(t *testing.T) {
	s := newTestStore(t)

	s.SetTTL("k", "old", 50*time.Millisecond)
	s.SetTTL("k", "new", time.Minute)
	time.Sleep(80 * time.Millisecond)

	got, ok := s.Get("k")
	if !ok || got != "new" {
		t.Fatalf("got %q, %v; want new, true", got, ok)
	}
}

func TestSizeNeverExceedsMaxAfterEviction(t *testing.T) {
	s := newTestStore(t, WithMaxSize(8))

	for i := 0; i < 100; i++ {
		s.Set(fmt.Sprintf("k%d", i), "v")
		if n := s.Len(); n > 8 {
			t.Fatalf("store grew to %d entries, max is 8", n)
		}
	}
}

func TestEvictionDropsLeastRecentlyAccessed(t *testing.T) {
	s := newTestStore(t, WithMaxSize(4))

	s.Set("a", "1")
	s.Set("b", "2")
	s.Set("c", "3")
	s.Set("d", "4")

	// Touch a so b becomes the coldest entry.
	if _, ok := s.Get("a"); !ok {
		t.Fatal("a missing before eviction")
	}

	s.Set("e", "5")

	if _, ok := s.Get("b"); ok {
		t.Fatal("b survived eviction despite being least recently accessed")
	}
	for _, key := range []string{"a", "c", "d", "e"} {
		if _, ok := s.Get(key); !ok {
			t.Fatalf("%s evicted out of LRU order", key)
		}
	}
}

func TestOverflowSweepsExpiredBeforeEvicting(t *testing.T) {
	s := newTestStore(t, WithMaxSize(2))

	s.SetTTL("stale", "v", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	s.Set("x", "1")
	s.Set("y", "2")

	for _, key := range []string{"x", "y"} {
		if _, ok := s.Get(key); !ok {
			t.Fatalf("live entry %s lost; expired entries should not count against capacity", key)
		}
	}
	if n := s.Stats().Evictions; n != 0 {
		t.Fatalf("evicted %d live entries instead of sweeping the expired one", n)
	}
}

func TestInvalidate(t *testing.T) {
	s := newTestStore(t)

	s.Set("k", "v")
	s.Invalidate("k")
	if _, ok := s.Get("k"); ok {
		t.Fatal("invalidated entry still served")
	}
	// Invalidating an absent key is a no-op.
	s.Invalidate("missing")
}

func TestStats(t *testing.T) {
	s := newTestStore(t)

	s.Set("live", "v")
	s.SetTTL("dead", "v", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	stats := s.Stats()
	if stats.TotalEntries != 2 {
		t.Fatalf("total = %d, want 2", stats.TotalEntries)
	}
	if stats.ActiveEntries != 1 {
		t.Fatalf("active = %d, want 1", stats.ActiveEntries)
	}
	if stats.ExpiredEntries != 1 {
		t.Fatalf("expired = %d, want 1", stats.ExpiredEntries)
	}
}

func TestNewRejectsInvalidMaxSize(t *testing.T) {
	if _, err := New[string](WithMaxSize(0)); err == nil {
		t.Fatal("expected error for zero max size")
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := newTestStore(t, WithMaxSize(64))

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", i%100)
				s.Set(key, "v")
				s.Get(key)
				if i%10 == 0 {
					s.Invalidate(key)
				}
			}
		}(w)
	}
	wg.Wait()

	if n := s.Len(); n > 64 {
		t.Fatalf("store grew to %d entries under concurrency, max is 64", n)
	}
}
