package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestMemory_SetGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(4, time.Minute)

	if _, ok, _ := m.Get(ctx, "missing"); ok {
		t.Fatal("expected miss on empty cache")
	}

	val := []byte(`{"rows":[]}`)
	if err := m.Set(ctx, "k", val); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val[0] = 'X' // caller mutation must not leak in

	got, ok, err := m.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(got) != `{"rows":[]}` {
		t.Errorf("unexpected value %q", got)
	}

	got[0] = 'Y' // nor returned-slice mutation
	again, _, _ := m.Get(ctx, "k")
	if again[0] != '{' {
		t.Error("cached value was mutated through a returned slice")
	}
}

func TestMemory_Eviction(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2, time.Minute)
	m.Set(ctx, "a", []byte("1"))
	m.Set(ctx, "b", []byte("2"))
	m.Set(ctx, "c", []byte("3"))

	if m.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", m.Len())
	}
	if _, ok, _ := m.Get(ctx, "a"); ok {
		t.Error("expected least recently used entry to be evicted")
	}
}

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2, 20*time.Millisecond)
	m.Set(ctx, "a", []byte("1"))
	time.Sleep(60 * time.Millisecond)
	if _, ok, _ := m.Get(ctx, "a"); ok {
		t.Error("expected entry to expire")
	}
}

func TestKey(t *testing.T) {
	type req struct {
		N    int
		Name string
	}
	a, err := Key("simulation", req{N: 5, Name: "x"})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Key("simulation", req{N: 5, Name: "x"})
	c, _ := Key("simulation", req{N: 6, Name: "x"})
	d, _ := Key("comparison", req{N: 5, Name: "x"})

	if a != b {
		t.Error("equal requests produced different keys")
	}
	if a == c || a == d {
		t.Error("distinct requests collided")
	}
	if !strings.HasPrefix(a, "simulation:") {
		t.Errorf("key missing kind prefix: %s", a)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		backend string
		wantErr bool
	}{
		{"memory", false},
		{"", false},
		{"none", false},
		{"redis", false},
		{"memcached", true},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			c, err := New(tt.backend, 8, time.Minute, "localhost:6379")
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownBackend) {
					t.Errorf("expected ErrUnknownBackend, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			c.Close()
		})
	}
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var c Cache = Noop{}
	c.Set(ctx, "k", []byte("v"))
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("noop cache returned a hit")
	}
}
