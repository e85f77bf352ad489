package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("t:", time.Minute)

	if _, err := m.Get(ctx, "missing"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := m.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	b, err := m.Get(ctx, "k")
	if err != nil || string(b) != "v" {
		t.Fatalf("get = %q, %v", b, err)
	}

	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.Get(ctx, "k"); !IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestMemory_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("t:", time.Minute)

	if err := m.Set(ctx, "k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, err := m.Get(ctx, "k"); !IsNotFound(err) {
		t.Fatalf("expected expiry, got %v", err)
	}
}

func TestNew_SelectsBackend(t *testing.T) {
	c := New(Config{Kind: "memory", Prefix: "x:"})
	if _, ok := c.(*Memory); !ok {
		t.Fatalf("expected memory backend, got %T", c)
	}
	c = New(Config{}) // default
	if _, ok := c.(*Memory); !ok {
		t.Fatalf("expected memory backend by default, got %T", c)
	}
}
