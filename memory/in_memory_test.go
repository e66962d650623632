package memory

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryStoreGetAndPut(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryStore()

	m, err := svc.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m) != 0 {
		t.Fatalf("expected empty memory, got %#v", m)
	}

	if err := svc.Put(ctx, "u1", map[string]any{"k1": "v1", "k2": 2}); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	m2, _ := svc.Get(ctx, "u1")
	if len(m2) != 2 || m2["k1"] != "v1" || m2["k2"].(int) != 2 {
		t.Fatalf("unexpected memory contents: %#v", m2)
	}

	m2["k1"] = "changed"
	m3, _ := svc.Get(ctx, "u1")
	if m3["k1"] != "v1" {
		t.Fatalf("returned map must be a copy, got %#v", m3)
	}

	other, _ := svc.Get(ctx, "u2")
	if len(other) != 0 {
		t.Fatalf("scopes must be isolated, got %#v", other)
	}
}

func TestInMemoryStoreTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	svc := NewInMemoryStore(func(o *Options) {
		o.TTL = time.Hour
		o.Now = func() time.Time { return now }
	})

	if err := svc.Put(ctx, "u1", map[string]any{"search:q": "answer"}); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	now = now.Add(59 * time.Minute)
	if m, _ := svc.Get(ctx, "u1"); m["search:q"] != "answer" {
		t.Fatalf("entry expired too early: %#v", m)
	}

	now = now.Add(2 * time.Minute)
	if m, _ := svc.Get(ctx, "u1"); len(m) != 0 {
		t.Fatalf("entry should have expired: %#v", m)
	}
}

func TestInMemoryStoreCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewInMemoryStore().Get(ctx, "u1"); err == nil {
		t.Fatal("expected context error")
	}
}
