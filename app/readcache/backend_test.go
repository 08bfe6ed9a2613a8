package readcache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/boardswallah/boards-press/app/content"
	"github.com/boardswallah/boards-press/app/database"
)

func TestMemoryBackendEviction(t *testing.T) {
	backend, err := NewMemoryBackend(2, nil)
	if err != nil {
		t.Fatalf("Failed to create backend: %v", err)
	}
	ctx := context.Background()

	backend.Set(ctx, "a", []byte("1"), time.Minute)
	backend.Set(ctx, "b", []byte("2"), time.Minute)
	backend.Set(ctx, "c", []byte("3"), time.Minute)

	if _, ok, _ := backend.Get(ctx, "a"); ok {
		t.Error("Expected least recently used entry to be evicted")
	}
	if backend.Len() != 2 {
		t.Errorf("Expected 2 entries, got %d", backend.Len())
	}
}

func TestMemoryBackendExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	backend, _ := NewMemoryBackend(8, clock.Now)
	ctx := context.Background()

	backend.Set(ctx, "k", []byte("v"), 10*time.Second)

	clock.Advance(9 * time.Second)
	if value, ok, _ := backend.Get(ctx, "k"); !ok || string(value) != "v" {
		t.Errorf("Expected live entry, got %q (%v)", value, ok)
	}

	clock.Advance(time.Second)
	if _, ok, _ := backend.Get(ctx, "k"); ok {
		t.Error("Expected entry to be stale at its TTL")
	}
	if backend.Len() != 0 {
		t.Errorf("Expected stale entry to be dropped, got %d entries", backend.Len())
	}
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mr, client
}

func TestRedisBackend(t *testing.T) {
	mr, client := newTestRedis(t)
	backend := NewRedisBackend(client, DefaultRedisPrefix)
	ctx := context.Background()

	if _, ok, err := backend.Get(ctx, "list:"); ok || err != nil {
		t.Errorf("Expected clean miss, got ok=%v err=%v", ok, err)
	}

	if err := backend.Set(ctx, "list:", []byte(`[]`), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if !mr.Exists("boards:list:") {
		t.Error("Expected prefixed key in redis")
	}

	value, ok, err := backend.Get(ctx, "list:")
	if err != nil || !ok || string(value) != "[]" {
		t.Errorf("Expected stored value, got %q ok=%v err=%v", value, ok, err)
	}

	mr.FastForward(61 * time.Second)
	if _, ok, _ := backend.Get(ctx, "list:"); ok {
		t.Error("Expected key to expire")
	}
}

func TestRedisBackendFailureDegradesToStore(t *testing.T) {
	mr, client := newTestRedis(t)
	store := database.NewMemoryStore()
	ctx := context.Background()
	store.UpsertArticle(ctx, content.Article{Slug: "x", Title: "X", Category: content.CategoryClass10, Type: content.TypeNews})

	cache := New(store, NewRedisBackend(client, DefaultRedisPrefix), DefaultTTLs())
	mr.Close()

	result := cache.Articles(ctx, content.ListFilter{})
	if result.Err != nil || len(result.Data) != 1 {
		t.Errorf("Expected store result despite redis outage, got (%+v, %v)", result.Data, result.Err)
	}
}

func TestConnectRedis(t *testing.T) {
	mr, _ := newTestRedis(t)

	client, err := ConnectRedis(context.Background(), mr.Addr())
	if err != nil {
		t.Fatalf("ConnectRedis failed: %v", err)
	}
	client.Close()

	if _, err := ConnectRedis(context.Background(), "127.0.0.1:1"); err == nil {
		t.Error("Expected error for unreachable redis")
	}
}
