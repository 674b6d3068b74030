package kgraph

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCacheSetGetHitAndMiss(t *testing.T) {
	c := NewMemoryCache(10, time.Minute)
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = (_, %v, %v), want (_, false, nil)", ok, err)
	}

	if err := c.Set(ctx, "k1", "v1", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	val, ok, err := c.Get(ctx, "k1")
	if err != nil || !ok || val != "v1" {
		t.Fatalf("Get(k1) = (%q, %v, %v), want (v1, true, nil)", val, ok, err)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.TotalWrites != 1 {
		t.Fatalf("Stats() = %+v, want Hits=1 Misses=1 TotalWrites=1", stats)
	}
}

func TestMemoryCacheExpiresEntries(t *testing.T) {
	c := NewMemoryCache(10, time.Minute)
	ctx := context.Background()

	if err := c.Set(ctx, "k1", "v1", time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(time.Millisecond)

	if _, ok, _ := c.Get(ctx, "k1"); ok {
		t.Fatal("Get(k1) returned a value past its TTL")
	}
}

func TestMemoryCacheEvictsLRUWhenFull(t *testing.T) {
	c := NewMemoryCache(1, time.Minute)
	ctx := context.Background()

	c.Set(ctx, "k1", "v1", 0)
	c.Set(ctx, "k2", "v2", 0)

	if _, ok, _ := c.Get(ctx, "k1"); ok {
		t.Fatal("k1 should have been evicted once the cache exceeded maxSize")
	}
	val, ok, _ := c.Get(ctx, "k2")
	if !ok || val != "v2" {
		t.Fatalf("k2 should still be present, got (%q, %v)", val, ok)
	}
	if c.Stats().Evictions != 1 {
		t.Fatalf("Evictions = %d, want 1", c.Stats().Evictions)
	}
}

func TestMemoryCacheClearResetsStateAndStats(t *testing.T) {
	c := NewMemoryCache(10, time.Minute)
	ctx := context.Background()
	c.Set(ctx, "k1", "v1", 0)
	c.Get(ctx, "k1")

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "k1"); ok {
		t.Fatal("Get after Clear should miss")
	}
	stats := c.Stats()
	if stats.Hits != 0 || stats.TotalWrites != 0 {
		t.Fatalf("Stats() after Clear = %+v, want zeroed (except the Get-after-Clear miss)", stats)
	}
}

func TestGenerateCacheKeyDeterministicAndSensitiveToInputs(t *testing.T) {
	a := GenerateCacheKey("model-1", "prompt", 0.5)
	b := GenerateCacheKey("model-1", "prompt", 0.5)
	if a != b {
		t.Fatalf("GenerateCacheKey not deterministic: %q != %q", a, b)
	}

	c := GenerateCacheKey("model-2", "prompt", 0.5)
	if a == c {
		t.Fatal("GenerateCacheKey should vary with model")
	}

	d := GenerateCacheKey("model-1", "prompt", 0.9)
	if a == d {
		t.Fatal("GenerateCacheKey should vary with temperature")
	}
}
