package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"delivery-fee-service/internal/config"
	"delivery-fee-service/internal/handlers"
	"delivery-fee-service/internal/kafka"
	"delivery-fee-service/internal/logger"
	"delivery-fee-service/internal/models"
	"delivery-fee-service/internal/redis"
	"delivery-fee-service/internal/services"
)

// Фабричные функции для подключения внешних сервисов (подменяемые в тестах).
var (
	redisConnect     = redis.Connect
	newKafkaProducer = kafka.NewProducer
	newKafkaConsumer = kafka.NewConsumer
	kafkaHealthCheck = handlers.CheckKafkaHealth
	loadConfig       = config.Load
	newLogger        = logger.New
)

// application агрегирует собранные зависимости.
// redis, producer и consumer равны nil, если соответствующая интеграция выключена.
type application struct {
	cfg      *config.Config
	log      *logger.Logger
	redis    *redis.Client
	producer *kafka.Producer
	consumer *kafka.Consumer
	events   *kafka.EventCounter
	handler  http.Handler
	server   *http.Server
}

func main() {
	app, err := buildApplication()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build app: %v\n", err)
		os.Exit(1)
	}
	app.log.Info("Starting delivery fee server...")

	go func() {
		app.log.WithField("address", app.server.Addr).Info("HTTP server starting")
		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	app.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(app.cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := app.server.Shutdown(ctx); err != nil {
		app.log.WithError(err).Error("Server forced to shutdown")
	}
	app.close()
	app.log.Info("Server exited")
}

// buildApplication создает все зависимости (подменяемые в тестах).
func buildApplication() (*application, error) {
	cfg := loadConfig()
	log := newLogger(&cfg.Logger)
	app := &application{cfg: cfg, log: log}

	if cfg.RateLimit.Enabled {
		redisClient, err := redisConnect(&cfg.Redis, log)
		if err != nil {
			return nil, fmt.Errorf("redis connect: %w", err)
		}
		app.redis = redisClient
	}

	if cfg.Kafka.Enabled {
		producer, err := newKafkaProducer(&cfg.Kafka, log)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		app.producer = producer

		consumer, err := newKafkaConsumer(&cfg.Kafka, log)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("kafka consumer: %w", err)
		}
		app.consumer = consumer

		app.events = &kafka.EventCounter{}
		registerEventHandlers(consumer, app.events, log)
		if err := consumer.Start(); err != nil {
			app.close()
			return nil, fmt.Errorf("kafka consumer start: %w", err)
		}
	}

	// Интерфейсы заполняются только живыми зависимостями, чтобы не получить typed nil
	var (
		publisher   handlers.FeeEventPublisher
		redisHealth handlers.RedisHealth
		kafkaCheck  handlers.KafkaHealthCheck
	)
	if app.producer != nil {
		publisher = app.producer
		kafkaCheck = kafkaHealthCheck
	}
	if app.redis != nil {
		redisHealth = app.redis
	}

	rateLimiter := services.NewRateLimiter(app.redis, log, &cfg.RateLimit)
	feeHandler := handlers.NewDeliveryFeeHandler(services.NewDeliveryFeeService(), publisher, log)
	healthHandler := handlers.NewHealthHandler(redisHealth, cfg.Kafka.Brokers, kafkaCheck)
	if app.events != nil {
		healthHandler.WithEventStats(app.events)
	}
	rateLimitHandler := handlers.NewRateLimitHandler(rateLimiter, log)

	app.handler = setupRoutes(feeHandler, healthHandler, rateLimitHandler, rateLimiter, log)
	app.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      app.handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	return app, nil
}

// close освобождает внешние подключения; безопасен для частично собранного приложения
func (a *application) close() {
	if err := a.consumer.Stop(); err != nil {
		a.log.WithError(err).Error("Failed to stop kafka consumer")
	}
	if err := a.producer.Close(); err != nil {
		a.log.WithError(err).Error("Failed to close kafka producer")
	}
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Error("Failed to close redis client")
	}
}

// setupRoutes настраивает маршруты HTTP сервера
func setupRoutes(feeHandler *handlers.DeliveryFeeHandler, healthHandler *handlers.HealthHandler, rateLimitHandler *handlers.RateLimitHandler, rateLimiter handlers.MiddlewareLimiter, log *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	applyAPI := func(h http.HandlerFunc) http.HandlerFunc {
		return corsMiddleware(handlers.RateLimitMiddleware(rateLimiter, log, h))
	}

	// Delivery fee: только корневой путь, метод проверяет сам обработчик
	mux.HandleFunc("/{$}", applyAPI(feeHandler.GetDeliveryFee))

	// Health check endpoints
	mux.HandleFunc("/health", corsMiddleware(healthHandler.Health))
	mux.HandleFunc("/health/readiness", corsMiddleware(healthHandler.Readiness))
	mux.HandleFunc("/health/liveness", corsMiddleware(healthHandler.Liveness))

	// Rate limit status
	mux.HandleFunc("/api/rate-limit/status", corsMiddleware(rateLimitHandler.Status))

	return handlers.RecoveryMiddleware(log, handlers.LoggingMiddleware(log, mux))
}

// registerEventHandlers регистрирует обработчики событий Kafka.
// Расчёты, прочитанные из собственного топика, учитываются в счётчике для /health.
func registerEventHandlers(consumer *kafka.Consumer, counter *kafka.EventCounter, log *logger.Logger) {
	consumer.RegisterHandler(models.EventTypeFeeCalculated, func(ctx context.Context, event *models.Event) error {
		log.WithField("event_id", event.ID).WithField("source", event.Source).Debug("Delivery fee event received")
		return counter.Handle(ctx, event)
	})
}

func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}
