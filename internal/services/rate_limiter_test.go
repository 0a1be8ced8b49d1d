package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"delivery-fee-service/internal/config"
	"delivery-fee-service/internal/logger"
	"delivery-fee-service/internal/redis"
)

type fakeCounterStore struct {
	data   map[string]int64
	expire map[string]time.Time
	getErr error
}

func newFakeCounterStore() *fakeCounterStore {
	return &fakeCounterStore{
		data:   make(map[string]int64),
		expire: make(map[string]time.Time),
	}
}

func (f *fakeCounterStore) Incr(ctx context.Context, key string) (int64, error) {
	f.cleanup()
	f.data[key]++
	return f.data[key], nil
}

func (f *fakeCounterStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	f.expire[key] = time.Now().Add(ttl)
	return nil
}

func (f *fakeCounterStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	f.cleanup()
	if exp, ok := f.expire[key]; ok {
		return time.Until(exp), nil
	}
	return -1, nil
}

func (f *fakeCounterStore) GetInt(ctx context.Context, key string) (int64, error) {
	if f.getErr != nil {
		return 0, f.getErr
	}
	f.cleanup()
	val, ok := f.data[key]
	if !ok {
		return 0, fmt.Errorf("%s: %w", key, redis.ErrKeyNotFound)
	}
	return val, nil
}

func (f *fakeCounterStore) cleanup() {
	now := time.Now()
	for k, exp := range f.expire {
		if now.After(exp) {
			delete(f.expire, k)
			delete(f.data, k)
		}
	}
}

type failingCounterStore struct{ fakeCounterStore }

func (f *failingCounterStore) Incr(ctx context.Context, key string) (int64, error) {
	return 0, errors.New("redis down")
}

func testLogger() *logger.Logger {
	return logger.New(&config.LoggerConfig{Level: "error", Format: "json"})
}

func TestRateLimiter_Allow(t *testing.T) {
	limiter := newRateLimiter(newFakeCounterStore(), testLogger(), &config.RateLimitConfig{Enabled: true, Requests: 2, WindowSeconds: 60, KeyPrefix: "test"})
	ctx := context.Background()

	allowed, remaining, resetAt, err := limiter.Allow(ctx, "ip1")
	if err != nil || !allowed || remaining != 1 {
		t.Fatalf("first request should be allowed, remaining=1, got allowed=%v remaining=%d err=%v", allowed, remaining, err)
	}
	if !resetAt.After(time.Now()) {
		t.Fatalf("expected reset in the future, got %v", resetAt)
	}

	allowed, remaining, _, err = limiter.Allow(ctx, "ip1")
	if err != nil || !allowed || remaining != 0 {
		t.Fatalf("second request should be allowed, remaining=0, got allowed=%v remaining=%d err=%v", allowed, remaining, err)
	}

	allowed, remaining, _, err = limiter.Allow(ctx, "ip1")
	if err != nil || allowed || remaining != 0 {
		t.Fatalf("third request should be blocked, got allowed=%v remaining=%d err=%v", allowed, remaining, err)
	}

	// Другой клиент считается отдельно
	if allowed, _, _, _ := limiter.Allow(ctx, "ip2"); !allowed {
		t.Fatalf("expected separate window for another key")
	}
}

func TestRateLimiter_AllowStoreError(t *testing.T) {
	limiter := newRateLimiter(&failingCounterStore{}, testLogger(), &config.RateLimitConfig{Enabled: true, Requests: 1, WindowSeconds: 1})
	if _, _, _, err := limiter.Allow(context.Background(), "ip1"); err == nil {
		t.Fatalf("expected error from failing store")
	}
}

func TestRateLimiter_NewDisabled(t *testing.T) {
	if limiter := NewRateLimiter(nil, nil, nil); limiter.Enabled() {
		t.Fatalf("expected limiter disabled without cfg/redis")
	}
	if limiter := NewRateLimiter(nil, nil, &config.RateLimitConfig{Enabled: true, Requests: 1, WindowSeconds: 1}); limiter.Enabled() {
		t.Fatalf("expected limiter disabled without redis")
	}
	if limiter := NewRateLimiter(&redis.Client{}, nil, &config.RateLimitConfig{Enabled: false}); limiter.Enabled() {
		t.Fatalf("expected limiter disabled when cfg disabled")
	}

	disabled := NewRateLimiter(nil, nil, nil)
	allowed, _, _, err := disabled.Allow(context.Background(), "ip")
	if err != nil || !allowed {
		t.Fatalf("disabled limiter must allow, got allowed=%v err=%v", allowed, err)
	}
}

func TestRateLimiter_NewEnabled(t *testing.T) {
	cfg := &config.RateLimitConfig{Enabled: true, Requests: 10, WindowSeconds: 60}
	limiter := NewRateLimiter(&redis.Client{}, testLogger(), cfg)
	if !limiter.Enabled() || limiter.Limit() != 10 || limiter.Window() != time.Minute {
		t.Fatalf("expected enabled limiter with limit 10 and 1m window")
	}
	if limiter.makeKey("::1") != "ratelimit:__1" {
		t.Fatalf("unexpected key: %s", limiter.makeKey("::1"))
	}
}

func TestRateLimiter_Usage(t *testing.T) {
	store := newFakeCounterStore()
	limiter := newRateLimiter(store, testLogger(), &config.RateLimitConfig{Enabled: true, Requests: 3, WindowSeconds: 60, KeyPrefix: "rl"})
	ctx := context.Background()

	used, remaining, resetAt, err := limiter.Usage(ctx, "ip1")
	if err != nil || used != 0 || remaining != 3 || resetAt != nil {
		t.Fatalf("unexpected usage before requests: used=%d remaining=%d reset=%v err=%v", used, remaining, resetAt, err)
	}

	_, _, _, _ = limiter.Allow(ctx, "ip1")
	_, _, _, _ = limiter.Allow(ctx, "ip1")

	used, remaining, resetAt, err = limiter.Usage(ctx, "ip1")
	if err != nil || used != 2 || remaining != 1 || resetAt == nil {
		t.Fatalf("unexpected usage: used=%d remaining=%d reset=%v err=%v", used, remaining, resetAt, err)
	}

	store.getErr = errors.New("redis down")
	if _, _, _, err := limiter.Usage(ctx, "ip1"); err == nil {
		t.Fatalf("expected usage error when store fails")
	}
}

func TestExtractClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Real-IP", "10.0.0.1")
	if ip := ExtractClientIP(r); ip != "10.0.0.1" {
		t.Fatalf("expected real ip, got %s", ip)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "10.0.0.2, 10.0.0.3")
	if ip := ExtractClientIP(r); ip != "10.0.0.2" {
		t.Fatalf("expected first forwarded ip, got %s", ip)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.168.0.1:1234"
	if ip := ExtractClientIP(r); ip != "192.168.0.1" {
		t.Fatalf("expected remote addr ip, got %s", ip)
	}
}
