package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 2, 4, 10, 0, 0, 0, time.UTC)
	c := NewMemory()
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if v, ok, _ := c.Get(ctx, "k"); !ok || string(v) != "v" {
		t.Fatalf("expected hit, got %q %v", v, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestMemoryCacheDeletePrefix(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	_ = c.Set(ctx, "availability:c1:2026-02-04:45", []byte("a"), 0)
	_ = c.Set(ctx, "availability:c1:2026-02-05:45", []byte("b"), 0)
	_ = c.Set(ctx, "availability:c2:2026-02-04:45", []byte("c"), 0)

	if err := c.DeletePrefix(ctx, "availability:c1:"); err != nil {
		t.Fatalf("DeletePrefix error: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "availability:c1:2026-02-04:45"); ok {
		t.Fatalf("expected c1 entries removed")
	}
	if _, ok, _ := c.Get(ctx, "availability:c2:2026-02-04:45"); !ok {
		t.Fatalf("expected c2 entry kept")
	}
}
