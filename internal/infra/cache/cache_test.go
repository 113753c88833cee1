package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreSetGetDel(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.Get(ctx, "missing"); !errors.Is(err, ErrMiss) {
		t.Errorf("Expected ErrMiss for unknown key, got %v", err)
	}

	if err := m.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := m.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Errorf("Expected v back, got %q (err %v)", got, err)
	}

	if err := m.Del(ctx, "k"); err != nil {
		t.Fatalf("Del failed: %v", err)
	}
	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Errorf("Expected ErrMiss after delete, got %v", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Errorf("Expected ErrMiss for expired key, got %v", err)
	}
}

func TestStateCacheRoundTrip(t *testing.T) {
	c := NewStateCache(NewMemory())
	ctx := context.Background()

	type state struct {
		Level int     `json:"level"`
		Cash  float64 `json:"cash"`
	}
	if err := c.SetState(ctx, "p1", state{Level: 3, Cash: 1200}); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}

	var out state
	if err := c.GetState(ctx, "p1", &out); err != nil {
		t.Fatalf("GetState failed: %v", err)
	}
	if out.Level != 3 || out.Cash != 1200 {
		t.Errorf("Expected cached state back, got %+v", out)
	}

	if err := c.Invalidate(ctx, "p1"); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	if err := c.GetState(ctx, "p1", &out); !errors.Is(err, ErrMiss) {
		t.Errorf("Expected ErrMiss after invalidate, got %v", err)
	}
}
