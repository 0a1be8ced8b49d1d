package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"delivery-fee-service/internal/logger"
	"delivery-fee-service/internal/services"
)

// MiddlewareLimiter описывает контракт для rate limiter.
type MiddlewareLimiter interface {
	Allow(ctx context.Context, key string) (bool, int64, time.Time, error)
	Enabled() bool
	Limit() int64
}

// RateLimitStatusProvider расширяет интерфейс для эндпоинта статуса.
type RateLimitStatusProvider interface {
	MiddlewareLimiter
	Usage(ctx context.Context, key string) (int64, int64, *time.Time, error)
	Window() time.Duration
}

// RateLimitStatusResponse описывает текущее состояние окна клиента
type RateLimitStatusResponse struct {
	Enabled       bool    `json:"enabled"`
	Limit         int64   `json:"limit,omitempty"`
	WindowSeconds int64   `json:"window_seconds,omitempty"`
	Used          int64   `json:"used"`
	Remaining     int64   `json:"remaining,omitempty"`
	Key           string  `json:"key,omitempty"`
	ResetAt       *string `json:"reset_at,omitempty"`
}

// RateLimitHandler отдаёт статус лимита для клиента.
type RateLimitHandler struct {
	limiter RateLimitStatusProvider
	log     *logger.Logger
}

// NewRateLimitHandler создает новый RateLimitHandler.
func NewRateLimitHandler(limiter RateLimitStatusProvider, log *logger.Logger) *RateLimitHandler {
	return &RateLimitHandler{limiter: limiter, log: log}
}

// Status возвращает текущие значения лимита для клиента.
func (h *RateLimitHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	if h.limiter == nil || !h.limiter.Enabled() {
		writeJSONResponse(w, http.StatusOK, RateLimitStatusResponse{Enabled: false})
		return
	}

	key := services.ExtractClientIP(r)
	used, remaining, resetAt, err := h.limiter.Usage(r.Context(), key)
	if err != nil {
		h.log.WithError(err).Error("Failed to fetch rate limit usage")
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to fetch rate limit usage")
		return
	}

	resp := RateLimitStatusResponse{
		Enabled:       true,
		Limit:         h.limiter.Limit(),
		WindowSeconds: int64(h.limiter.Window() / time.Second),
		Used:          used,
		Remaining:     remaining,
		Key:           key,
	}
	if resetAt != nil {
		formatted := resetAt.UTC().Format(time.RFC3339)
		resp.ResetAt = &formatted
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

// RateLimitMiddleware применяет rate limiting к хендлеру.
func RateLimitMiddleware(limiter MiddlewareLimiter, log *logger.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if limiter == nil || !limiter.Enabled() {
			next(w, r)
			return
		}

		allowed, remaining, resetAt, err := limiter.Allow(r.Context(), services.ExtractClientIP(r))
		if err != nil {
			log.WithError(err).Error("Rate limiter failed")
			writeErrorResponse(w, http.StatusInternalServerError, "Rate limiter error")
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(limiter.Limit(), 10))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if !resetAt.IsZero() {
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
		}

		if !allowed {
			writeErrorResponse(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}

		next(w, r)
	}
}
