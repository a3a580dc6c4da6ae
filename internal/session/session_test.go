package session

import (
	"context"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/Joseda-hg/lazytodo/internal/db"
	"github.com/Joseda-hg/lazytodo/internal/model"
)

func TestSetTokenPersists(t *testing.T) {
	backend := NewMemoryBackend()
	s := New(backend)
	ctx := context.Background()

	if _, ok := s.Token(); ok {
		t.Fatalf("expected no token before login")
	}
	if err := s.SetToken(ctx, "abc"); err != nil {
		t.Fatalf("set token: %v", err)
	}

	reloaded := New(backend)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	token, ok := reloaded.Token()
	if !ok || token != "abc" {
		t.Fatalf("expected persisted token 'abc', got %q (ok=%v)", token, ok)
	}
}

func TestClearRemovesTokenAndUser(t *testing.T) {
	backend := NewMemoryBackend()
	s := New(backend)
	ctx := context.Background()

	if err := s.SetToken(ctx, "abc"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	s.SetUser(&model.User{ID: "u1", Name: "Ada"})

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok := s.Token(); ok {
		t.Fatalf("expected token to be cleared")
	}
	if _, ok := s.User(); ok {
		t.Fatalf("expected user to be cleared")
	}
	if _, ok, _ := backend.Get(ctx, TokenKey); ok {
		t.Fatalf("expected persisted token to be deleted")
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("second clear should be a no-op: %v", err)
	}
}

type failingBackend struct{ *MemoryBackend }

func (failingBackend) Delete(context.Context, string) error { return errors.New("disk full") }

func TestClearDropsTokenEvenWhenBackendFails(t *testing.T) {
	s := New(failingBackend{NewMemoryBackend()})
	ctx := context.Background()
	if err := s.SetToken(ctx, "abc"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	if err := s.Clear(ctx); err == nil {
		t.Fatalf("expected backend error to be reported")
	}
	if _, ok := s.Token(); ok {
		t.Fatalf("expected in-memory token to be dropped")
	}
}

func TestSQLiteBackend(t *testing.T) {
	conn, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	s := New(db.NewStore(conn))
	ctx := context.Background()
	if err := s.SetToken(ctx, "sqlite-token"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	if err := s.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if token, _ := s.Token(); token != "sqlite-token" {
		t.Fatalf("expected sqlite-token, got %q", token)
	}
}

func TestRedisBackend(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := New(NewRedisBackend(client))
	ctx := context.Background()
	if err := s.SetToken(ctx, "redis-token"); err != nil {
		t.Fatalf("set token: %v", err)
	}

	stored, err := mr.Get(redisKeyPrefix + TokenKey)
	if err != nil {
		t.Fatalf("read miniredis: %v", err)
	}
	if stored != "redis-token" {
		t.Fatalf("expected redis-token in redis, got %q", stored)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if mr.Exists(redisKeyPrefix + TokenKey) {
		t.Fatalf("expected redis key to be deleted")
	}
	if err := s.Load(ctx); err != nil {
		t.Fatalf("load after clear: %v", err)
	}
	if _, ok := s.Token(); ok {
		t.Fatalf("expected no token after clear")
	}
}

func TestDialRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client, err := DialRedis(context.Background(), "redis://"+mr.Addr()+"/0")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	_ = client.Close()

	if _, err := DialRedis(context.Background(), "not a url"); err == nil {
		t.Fatalf("expected invalid url to fail")
	}
}
