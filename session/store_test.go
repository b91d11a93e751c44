package session

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func exerciseStore(t *testing.T, store FlagStore) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "isAdmin"); err != nil || ok {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}
	if err := store.Set(ctx, "isAdmin", "true"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	v, ok, err := store.Get(ctx, "isAdmin")
	if err != nil || !ok || v != "true" {
		t.Fatalf("Get = %q ok=%v err=%v", v, ok, err)
	}
	if err := store.Set(ctx, "isAdmin", "false"); err != nil {
		t.Fatalf("Set overwrite failed: %v", err)
	}
	if v, _, _ := store.Get(ctx, "isAdmin"); v != "false" {
		t.Fatalf("expected overwrite, got %q", v)
	}
	if err := store.Delete(ctx, "isAdmin"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "isAdmin"); ok {
		t.Fatal("expected key deleted")
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisStore(client, "tab")
	exerciseStore(t, store)

	if err := store.Set(context.Background(), "isAdmin", "true"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got, err := mr.Get("tab:flag:isAdmin"); err != nil || got != "true" {
		t.Fatalf("expected namespaced key, got %q err=%v", got, err)
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisStore(client, "")
	mr.Close()

	err := store.Set(context.Background(), "isAdmin", "true")
	if !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
	if _, _, err := store.Get(context.Background(), "isAdmin"); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable from Get, got %v", err)
	}
}

func TestSessionValid(t *testing.T) {
	var nilSession *Session
	if nilSession.Valid() {
		t.Fatal("nil session must be invalid")
	}
	if (&Session{}).Valid() {
		t.Fatal("session without identity must be invalid")
	}
	if !(&Session{Identity: Identity{ID: "u1"}}).Valid() {
		t.Fatal("session with identity must be valid")
	}
}
