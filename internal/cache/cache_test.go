package cache

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCache[T any](size int, ttl time.Duration) (*LRUCache[T], *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[T](size, ttl)
	c.now = clock.Now
	return c, clock
}

func TestLRUCache_GetSet(t *testing.T) {
	c, _ := newTestCache[string](2, time.Minute)

	c.Set("a", "1")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("Get(a) = %q, %v", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss")
	}

	c.Set("a", "2")
	if v, _ := c.Get("a"); v != "2" {
		t.Fatalf("overwrite failed, got %q", v)
	}
	if c.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", c.Size())
	}
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should still be cached")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("c should be cached")
	}
}

func TestLRUCache_TTL(t *testing.T) {
	c, clock := newTestCache[int](4, time.Second)

	c.Set("a", 1)
	clock.Advance(500 * time.Millisecond)
	c.Set("b", 2)
	clock.Advance(600 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Error("a should have expired")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("b should still be valid")
	}

	clock.Advance(time.Second)
	if n := c.CleanExpired(); n != 1 {
		t.Errorf("CleanExpired() = %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0", c.Size())
	}
}

func TestLRUCache_ZeroTTLNeverExpires(t *testing.T) {
	c, clock := newTestCache[int](1, 0)
	c.Set("a", 1)
	clock.Advance(24 * time.Hour)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("entry with zero TTL expired")
	}
	if n := c.CleanExpired(); n != 0 {
		t.Fatalf("CleanExpired() = %d, want 0", n)
	}
}

func TestLRUCache_DeleteAndPurge(t *testing.T) {
	c, _ := newTestCache[int](4, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	c.Delete("a")
	c.Delete("missing")
	if c.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", c.Size())
	}
	if n := c.Purge(); n != 2 {
		t.Fatalf("Purge() = %d, want 2", n)
	}
	if _, ok := c.Get("b"); ok {
		t.Fatal("b survived purge")
	}
	c.Set("d", 4)
	if c.Size() != 1 {
		t.Fatalf("cache unusable after purge, Size() = %d", c.Size())
	}
}

func TestLRUCache_Concurrent(t *testing.T) {
	c := NewLRUCache[int](8, time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := string(rune('a' + i%10))
			c.Set(key, i)
			c.Get(key)
			c.CleanExpired()
		}(i)
	}
	wg.Wait()
	if c.Size() > 8 {
		t.Fatalf("Size() = %d exceeds max", c.Size())
	}
}

func TestManager_Sweep(t *testing.T) {
	c, clock := newTestCache[int](4, time.Second)
	c.Set("a", 1)
	c.Set("b", 2)
	clock.Advance(2 * time.Second)

	m := NewManager(nil)
	m.Register(c)
	var cleaned int
	m.OnCleaned(func(n int) { cleaned += n })

	if n := m.Sweep(); n != 2 {
		t.Fatalf("Sweep() = %d, want 2", n)
	}
	if cleaned != 2 {
		t.Fatalf("hook saw %d, want 2", cleaned)
	}
	if n := m.Sweep(); n != 0 {
		t.Fatalf("second Sweep() = %d, want 0", n)
	}
}

func TestManager_StartStop(t *testing.T) {
	m := NewManager(nil)
	m.Register(NewLRUCache[int](1, time.Millisecond))
	m.StartCleanup(5 * time.Millisecond)
	m.StartCleanup(5 * time.Millisecond)
	time.Sleep(15 * time.Millisecond)
	m.Stop()
	m.Stop()
}

func TestManager_StopWithoutStart(t *testing.T) {
	m := NewManager(nil)
	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked without a running cleanup")
	}
}
