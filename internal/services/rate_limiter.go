package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"delivery-fee-service/internal/config"
	"delivery-fee-service/internal/logger"
	"delivery-fee-service/internal/redis"
)

// RateLimiter ограничивает число расчётов в фиксированном окне на клиента (IP).
// Счётчики хранятся в Redis, поэтому лимит общий для всех экземпляров сервиса.
type RateLimiter struct {
	redis   counterStore
	log     *logger.Logger
	enabled bool
	limit   int64
	window  time.Duration
	prefix  string
}

type counterStore interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
	GetInt(ctx context.Context, key string) (int64, error)
}

// NewRateLimiter создаёт rate limiter; без Redis или при выключенной настройке он пропускает все запросы
func NewRateLimiter(redisClient *redis.Client, log *logger.Logger, cfg *config.RateLimitConfig) *RateLimiter {
	if redisClient == nil || cfg == nil || !cfg.Enabled || cfg.Requests <= 0 || cfg.WindowSeconds <= 0 {
		return &RateLimiter{enabled: false}
	}
	return newRateLimiter(redisClient, log, cfg)
}

func newRateLimiter(store counterStore, log *logger.Logger, cfg *config.RateLimitConfig) *RateLimiter {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "ratelimit"
	}

	return &RateLimiter{
		redis:   store,
		log:     log,
		enabled: true,
		limit:   int64(cfg.Requests),
		window:  time.Duration(cfg.WindowSeconds) * time.Second,
		prefix:  prefix,
	}
}

// Allow учитывает запрос и возвращает признак разрешения, остаток лимита и время сброса окна
func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, int64, time.Time, error) {
	if !r.enabled {
		return true, r.limit, time.Now().Add(r.window), nil
	}

	now := time.Now()
	redisKey := r.makeKey(key)

	count, err := r.redis.Incr(ctx, redisKey)
	if err != nil {
		return false, 0, time.Time{}, fmt.Errorf("rate limiter incr failed: %w", err)
	}

	// Первый запрос в окне открывает его
	if count == 1 {
		if err := r.redis.Expire(ctx, redisKey, r.window); err != nil {
			r.log.WithError(err).WithField("key", redisKey).Warn("Failed to set rate limit ttl")
		}
	}

	ttl := r.ttlOrWindow(ctx, redisKey)
	return count <= r.limit, r.remaining(count), now.Add(ttl), nil
}

// Usage возвращает число использованных запросов, остаток и время сброса окна (nil, если окно не открыто)
func (r *RateLimiter) Usage(ctx context.Context, key string) (int64, int64, *time.Time, error) {
	if !r.enabled {
		return 0, r.limit, nil, nil
	}

	redisKey := r.makeKey(key)
	count, err := r.redis.GetInt(ctx, redisKey)
	if err != nil {
		if errors.Is(err, redis.ErrKeyNotFound) {
			return 0, r.limit, nil, nil
		}
		return 0, 0, nil, fmt.Errorf("rate limiter usage failed: %w", err)
	}

	resetAt := time.Now().Add(r.ttlOrWindow(ctx, redisKey))
	return count, r.remaining(count), &resetAt, nil
}

func (r *RateLimiter) ttlOrWindow(ctx context.Context, redisKey string) time.Duration {
	ttl, err := r.redis.TTL(ctx, redisKey)
	if err != nil || ttl <= 0 {
		if err != nil {
			r.log.WithError(err).WithField("key", redisKey).Warn("Failed to get rate limit ttl")
		}
		return r.window
	}
	return ttl
}

func (r *RateLimiter) remaining(count int64) int64 {
	if left := r.limit - count; left > 0 {
		return left
	}
	return 0
}

func (r *RateLimiter) makeKey(key string) string {
	return redis.GenerateKey(r.prefix, strings.ReplaceAll(key, ":", "_"))
}

// Limit возвращает лимит для текущего окна
func (r *RateLimiter) Limit() int64 {
	return r.limit
}

// Window возвращает длительность окна
func (r *RateLimiter) Window() time.Duration {
	return r.window
}

// Enabled сообщает, включён ли rate limiting
func (r *RateLimiter) Enabled() bool {
	return r.enabled
}

// ExtractClientIP получает IP клиента из X-Real-IP, X-Forwarded-For или RemoteAddr
func ExtractClientIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first := strings.TrimSpace(strings.Split(forwarded, ",")[0]); first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
