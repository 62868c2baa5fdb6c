package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kestrelhq/arbscope/internal/domain"
)

func TestMemoryHit(t *testing.T) {
	c := NewMemory(30 * time.Second)
	ctx := context.Background()

	markets := []domain.Market{{Platform: domain.PlatformKalshi, ID: "A", YesPrice: 0.4}}
	if err := c.Set(ctx, "k", markets); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 1 || got[0].ID != "A" {
		t.Errorf("got %v", got)
	}
}

func TestMemoryMiss(t *testing.T) {
	c := NewMemory(30 * time.Second)
	if _, err := c.Get(context.Background(), "absent"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("want ErrCacheMiss, got %v", err)
	}
}

func TestMemoryExpiry(t *testing.T) {
	c := NewMemory(30 * time.Second)
	ctx := context.Background()

	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	if err := c.Set(ctx, "k", []domain.Market{{ID: "A"}}); err != nil {
		t.Fatalf("set: %v", err)
	}

	c.now = func() time.Time { return base.Add(29 * time.Second) }
	if _, err := c.Get(ctx, "k"); err != nil {
		t.Fatalf("get before expiry: %v", err)
	}

	c.now = func() time.Time { return base.Add(31 * time.Second) }
	if _, err := c.Get(ctx, "k"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("want ErrCacheMiss after expiry, got %v", err)
	}

	// Expired entries are deleted on read, not just skipped.
	c.mu.Lock()
	_, still := c.entries["k"]
	c.mu.Unlock()
	if still {
		t.Error("expired entry not evicted")
	}
}

func TestMemoryDefaultTTL(t *testing.T) {
	c := NewMemory(0)
	if c.ttl != DefaultTTL {
		t.Errorf("ttl = %v, want %v", c.ttl, DefaultTTL)
	}
}
