package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/IBM/sarama"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDisabled  = "disabled"
)

// HealthHandler представляет обработчик для проверки здоровья сервиса.
// Redis и Kafka необязательны: nil-зависимость отображается как disabled.
type HealthHandler struct {
	redisClient  RedisHealth
	kafkaBrokers []string
	kafkaCheck   KafkaHealthCheck
	events       EventStats
}

// NewHealthHandler создает новый обработчик здоровья
func NewHealthHandler(redisClient RedisHealth, kafkaBrokers []string, kafkaCheck KafkaHealthCheck) *HealthHandler {
	return &HealthHandler{
		redisClient:  redisClient,
		kafkaBrokers: kafkaBrokers,
		kafkaCheck:   kafkaCheck,
	}
}

// WithEventStats подключает счётчик событий, прочитанных консьюмером
func (h *HealthHandler) WithEventStats(events EventStats) *HealthHandler {
	h.events = events
	return h
}

// HealthResponse представляет ответ проверки здоровья
type HealthResponse struct {
	Status          string            `json:"status"`
	Services        map[string]string `json:"services"`
	Version         string            `json:"version"`
	Uptime          string            `json:"uptime"`
	ProcessedEvents *int64            `json:"processed_events,omitempty"`
}

var startTime = time.Now()

// Health проверяет состояние всех компонентов
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	services := map[string]string{
		"calculator": statusHealthy,
		"redis":      describe(h.checkRedis(ctx)),
		"kafka":      describe(h.checkKafka()),
	}

	overallStatus := statusHealthy
	for _, status := range services {
		if status != statusHealthy && status != statusDisabled {
			overallStatus = statusUnhealthy
		}
	}

	statusCode := http.StatusOK
	if overallStatus == statusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	resp := HealthResponse{
		Status:   overallStatus,
		Services: services,
		Version:  "1.0.0",
		Uptime:   time.Since(startTime).String(),
	}
	if h.events != nil {
		processed := h.events.Processed()
		resp.ProcessedEvents = &processed
	}

	writeJSONResponse(w, statusCode, resp)
}

// Readiness проверяет готовность сервиса к обработке запросов
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if _, err := h.checkRedis(ctx); err != nil {
		writeErrorResponse(w, http.StatusServiceUnavailable, "Redis not ready")
		return
	}

	if _, err := h.checkKafka(); err != nil {
		writeErrorResponse(w, http.StatusServiceUnavailable, "Kafka not ready")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Liveness проверяет, что сервис жив
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{
		"status": "alive",
		"uptime": time.Since(startTime).String(),
	})
}

// checkRedis возвращает enabled=false, если Redis не подключён
func (h *HealthHandler) checkRedis(ctx context.Context) (bool, error) {
	if h.redisClient == nil {
		return false, nil
	}
	return true, h.redisClient.Health(ctx)
}

func (h *HealthHandler) checkKafka() (bool, error) {
	if h.kafkaCheck == nil {
		return false, nil
	}
	return true, h.kafkaCheck(h.kafkaBrokers)
}

func describe(enabled bool, err error) string {
	switch {
	case !enabled:
		return statusDisabled
	case err != nil:
		return statusUnhealthy + ": " + err.Error()
	default:
		return statusHealthy
	}
}

// CheckKafkaHealth проверяет доступность Kafka брокеров
func CheckKafkaHealth(brokers []string) error {
	return checkKafkaHealth(brokers)
}

func checkKafkaHealth(brokers []string) error {
	if len(brokers) == 0 {
		return fmt.Errorf("no brokers configured")
	}

	cfg := sarama.NewConfig()
	cfg.Net.DialTimeout = 3 * time.Second
	cfg.Net.ReadTimeout = 5 * time.Second
	cfg.Net.WriteTimeout = 5 * time.Second
	cfg.Metadata.Retry.Max = 1
	cfg.Metadata.Retry.Backoff = 500 * time.Millisecond

	client, err := sarama.NewClient(brokers, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	return nil
}
