package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"delivery-fee-service/internal/config"
	"delivery-fee-service/internal/logger"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/go-redis/redis/v8"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis, context.Context) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	log := logger.New(&config.LoggerConfig{Level: "error", Format: "json"})
	return &Client{client: rdb, log: log}, mr, context.Background()
}

func TestConnectSuccess(t *testing.T) {
	mr := miniredis.RunT(t)
	log := logger.New(&config.LoggerConfig{Level: "error", Format: "json"})
	cfg := &config.RedisConfig{Host: "127.0.0.1", Port: mr.Port(), DB: 0}

	client, err := Connect(cfg, log)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

func TestConnectFailure(t *testing.T) {
	log := logger.New(&config.LoggerConfig{Level: "error", Format: "json"})
	cfg := &config.RedisConfig{Host: "127.0.0.1", Port: "0", DB: 0}
	if _, err := Connect(cfg, log); err == nil {
		t.Fatalf("expected connect error")
	}
}

func TestCloseNil(t *testing.T) {
	var client *Client
	if err := client.Close(); err != nil {
		t.Fatalf("expected nil error on nil client close, got %v", err)
	}
}

func TestHealthNil(t *testing.T) {
	var client *Client
	if err := client.Health(context.Background()); err == nil {
		t.Fatalf("expected error for nil client health")
	}
}

func TestGenerateKey(t *testing.T) {
	if key := GenerateKey("ratelimit", "10.0.0.1"); key != "ratelimit:10.0.0.1" {
		t.Fatalf("unexpected key: %s", key)
	}
}

func TestIncrExpireTTL(t *testing.T) {
	client, mr, ctx := newTestClient(t)

	val, err := client.Incr(ctx, "hits")
	if err != nil || val != 1 {
		t.Fatalf("expected incr to 1, got %d err=%v", val, err)
	}
	val, _ = client.Incr(ctx, "hits")
	if val != 2 {
		t.Fatalf("expected incr to 2, got %d", val)
	}

	if err := client.Expire(ctx, "hits", 2*time.Second); err != nil {
		t.Fatalf("expire failed: %v", err)
	}
	ttl, err := client.TTL(ctx, "hits")
	if err != nil || ttl <= 0 {
		t.Fatalf("expected positive ttl, got %v err=%v", ttl, err)
	}

	got, err := client.GetInt(ctx, "hits")
	if err != nil || got != 2 {
		t.Fatalf("expected counter 2, got %d err=%v", got, err)
	}

	mr.FastForward(3 * time.Second)
	if _, err := client.GetInt(ctx, "hits"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound for expired key, got %v", err)
	}
}

func TestGetInt_NotANumber(t *testing.T) {
	client, mr, ctx := newTestClient(t)
	_ = mr.Set("word", "abc")

	_, err := client.GetInt(ctx, "word")
	if err == nil || errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	client, mr, ctx := newTestClient(t)
	if err := client.Health(ctx); err != nil {
		t.Fatalf("health failed: %v", err)
	}

	mr.Close()
	if err := client.Health(ctx); err == nil {
		t.Fatalf("expected health error after server close")
	}
}
