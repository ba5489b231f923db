package cache

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func newTestCache(opts Options[string]) *Cache[string] {
	opts.DisableSweep = true
	return New(opts)
}

func TestSetGet(t *testing.T) {
	c := newTestCache(Options[string]{})
	defer c.Close()

	c.Set("a", "1")
	v, ok := c.Get("a")
	if !ok || v != "1" {
		t.Fatalf("Get(a) = %q, %v; want 1, true", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatal("Get(missing) should not hit")
	}
}

func TestTTLExpiry(t *testing.T) {
	c := newTestCache(Options[string]{})
	defer c.Close()

	c.SetWithTTL("a", "1", 10*time.Millisecond)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("entry should be readable before expiry")
	}
	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Fatal("entry should be gone after expiry")
	}
	if got := c.Stats().Expired; got != 1 {
		t.Errorf("Expired = %d, want 1", got)
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

func TestDefaultTTL(t *testing.T) {
	c := newTestCache(Options[string]{DefaultTTL: 10 * time.Millisecond})
	defer c.Close()

	c.Set("a", "1")
	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Fatal("entry with default TTL should expire")
	}
}

func TestLRUEviction(t *testing.T) {
	c := newTestCache(Options[string]{MaxEntries: 2})
	defer c.Close()

	c.Set("a", "1")
	time.Sleep(2 * time.Millisecond)
	c.Set("b", "2")
	time.Sleep(2 * time.Millisecond)
	// 访问a使其比b更新
	c.Get("a")
	time.Sleep(2 * time.Millisecond)

	c.Set("c", "3")
	if _, ok := c.Get("a"); !ok {
		t.Error("a was accessed recently, should survive")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("b is the least recently used, should be evicted")
	}
	if got := c.Stats().Evictions; got != 1 {
		t.Errorf("Evictions = %d, want 1", got)
	}
}

func TestLFUEviction(t *testing.T) {
	c := newTestCache(Options[string]{MaxEntries: 2, Policy: PolicyLFU})
	defer c.Close()

	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a")
	c.Get("a")

	c.Set("c", "3")
	if _, ok := c.Get("a"); !ok {
		t.Error("a has the most hits, should survive")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("b has no hits, should be evicted")
	}
}

func TestTTLPolicyEviction(t *testing.T) {
	c := newTestCache(Options[string]{MaxEntries: 2, Policy: PolicyTTL})
	defer c.Close()

	c.SetWithTTL("long", "1", time.Hour)
	c.SetWithTTL("short", "2", time.Minute)

	c.Set("c", "3")
	if _, ok := c.Get("long"); !ok {
		t.Error("long expires last, should survive")
	}
	if _, ok := c.Get("short"); ok {
		t.Error("short is closest to expiry, should be evicted")
	}
}

func TestMemoryBoundEviction(t *testing.T) {
	c := newTestCache(Options[string]{
		MaxMemory: 25,
		SizeOf:    func(string) int64 { return 10 },
	})
	defer c.Close()

	c.Set("a", "1")
	time.Sleep(2 * time.Millisecond)
	c.Set("b", "2")
	time.Sleep(2 * time.Millisecond)
	c.Set("c", "3")

	stats := c.Stats()
	if stats.Entries != 2 {
		t.Errorf("Entries = %d, want 2", stats.Entries)
	}
	if stats.MemoryUsed > 25 {
		t.Errorf("MemoryUsed = %d, exceeds budget 25", stats.MemoryUsed)
	}
	if stats.Evictions == 0 {
		t.Error("expected at least one eviction")
	}
	if _, ok := c.Get("a"); ok {
		t.Error("a is the oldest entry, should be evicted")
	}
}

func TestGetOrSet(t *testing.T) {
	c := newTestCache(Options[string]{})
	defer c.Close()

	calls := 0
	factory := func() (string, error) {
		calls++
		return "v", nil
	}

	v, err := c.GetOrSet("k", factory)
	if err != nil || v != "v" {
		t.Fatalf("GetOrSet = %q, %v; want v, nil", v, err)
	}
	if _, err := c.GetOrSet("k", factory); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("factory called %d times, want 1", calls)
	}
}

func TestGetOrSetErrorNotCached(t *testing.T) {
	c := newTestCache(Options[string]{})
	defer c.Close()

	wantErr := errors.New("boom")
	if _, err := c.GetOrSet("k", func() (string, error) { return "", wantErr }); err != wantErr {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("failed factory result should not be cached")
	}
}

func TestMGetMSet(t *testing.T) {
	c := newTestCache(Options[string]{})
	defer c.Close()

	c.MSet(map[string]string{"a": "1", "b": "2"})
	got := c.MGet([]string{"a", "b", "c"})
	if len(got) != 2 || got["a"] != "1" || got["b"] != "2" {
		t.Errorf("MGet = %v, want a:1 b:2", got)
	}
}

func TestDeleteFunc(t *testing.T) {
	c := newTestCache(Options[string]{})
	defer c.Close()

	c.Set("chain:1:3", "a")
	c.Set("chain:1:5", "b")
	c.Set("chain:2:3", "c")

	removed := c.DeleteFunc(func(key string) bool {
		return strings.HasPrefix(key, "chain:1:")
	})
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if _, ok := c.Get("chain:2:3"); !ok {
		t.Error("chain:2:3 should survive")
	}
}

func TestStatsHitRate(t *testing.T) {
	c := newTestCache(Options[string]{})
	defer c.Close()

	c.Set("a", "1")
	c.Get("a")
	c.Get("a")
	c.Get("missing")

	stats := c.Stats()
	if stats.Hits != 2 || stats.Misses != 1 {
		t.Fatalf("hits=%d misses=%d, want 2/1", stats.Hits, stats.Misses)
	}
	want := 2.0 / 3.0
	if diff := stats.HitRate - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("HitRate = %v, want %v", stats.HitRate, want)
	}
}

func TestHealthDegradedOnMemory(t *testing.T) {
	c := newTestCache(Options[string]{
		MaxMemory: 100,
		SizeOf:    func(string) int64 { return 95 },
	})
	defer c.Close()

	c.Set("a", "1")
	h := c.Health()
	if !h.Degraded {
		t.Fatal("cache above 90% of memory budget should be degraded")
	}
}

func TestHealthDegradedOnHitRate(t *testing.T) {
	c := newTestCache(Options[string]{})
	defer c.Close()

	for i := 0; i < healthMinSamples; i++ {
		c.Get(fmt.Sprintf("missing:%d", i))
	}
	h := c.Health()
	if !h.Degraded {
		t.Fatal("cache with zero hit rate after enough samples should be degraded")
	}
}

func TestHealthNotDegradedBeforeMinSamples(t *testing.T) {
	c := newTestCache(Options[string]{})
	defer c.Close()

	for i := 0; i < healthMinSamples-1; i++ {
		c.Get(fmt.Sprintf("missing:%d", i))
	}
	if h := c.Health(); h.Degraded {
		t.Fatalf("cold cache should not be degraded yet: %+v", h)
	}
}

func TestExportImport(t *testing.T) {
	src := newTestCache(Options[string]{})
	defer src.Close()

	src.SetWithTTL("a", "1", time.Hour)
	src.SetWithTTL("expired", "x", 5*time.Millisecond)
	src.Set("b", "2")
	time.Sleep(10 * time.Millisecond)

	dst := newTestCache(Options[string]{})
	defer dst.Close()
	dst.Import(src.Export())

	if v, ok := dst.Get("a"); !ok || v != "1" {
		t.Errorf("a not imported, got %q %v", v, ok)
	}
	if v, ok := dst.Get("b"); !ok || v != "2" {
		t.Errorf("b not imported, got %q %v", v, ok)
	}
	if _, ok := dst.Get("expired"); ok {
		t.Error("expired entry should not be imported")
	}
}

func TestRemoveExpired(t *testing.T) {
	c := newTestCache(Options[string]{})
	defer c.Close()

	c.SetWithTTL("a", "1", 5*time.Millisecond)
	c.SetWithTTL("b", "2", 5*time.Millisecond)
	c.Set("keep", "3")
	time.Sleep(10 * time.Millisecond)

	if removed := c.RemoveExpired(); removed != 2 {
		t.Errorf("RemoveExpired = %d, want 2", removed)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestManager(t *testing.T) {
	m := NewManager()
	defer m.CloseAll()

	a := newTestCache(Options[string]{})
	b := newTestCache(Options[string]{})
	m.Register("a", a)
	m.Register("b", b)

	a.Set("k", "v")
	a.Get("k")

	if _, ok := m.Get("a"); !ok {
		t.Fatal("registered cache not found")
	}
	stats := m.StatsAll()
	if len(stats) != 2 {
		t.Fatalf("StatsAll returned %d instances, want 2", len(stats))
	}
	if stats["a"].Hits != 1 {
		t.Errorf("a.Hits = %d, want 1", stats["a"].Hits)
	}
	if health := m.HealthAll(); len(health) != 2 {
		t.Errorf("HealthAll returned %d instances, want 2", len(health))
	}

	m.ClearAll()
	if a.Len() != 0 {
		t.Errorf("a.Len after ClearAll = %d, want 0", a.Len())
	}

	m.CloseAll()
	if _, ok := m.Get("a"); ok {
		t.Error("Get after CloseAll should miss")
	}
}
