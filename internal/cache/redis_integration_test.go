//go:build integration

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestIntegration_RedisRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping integration test")
	}
	ctx := context.Background()
	r := NewRedis(addr, time.Minute)
	defer r.Close()

	key := "credence-test:" + uuid.NewString()
	if _, ok, err := r.Get(ctx, key); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}
	if err := r.Set(ctx, key, []byte("payload")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok, err := r.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(got) != "payload" {
		t.Errorf("unexpected value %q", got)
	}
}
