package handlers

import (
	"context"

	"delivery-fee-service/internal/models"
)

// ----- Delivery fee -----

type FeeCalculator interface {
	Calculate(q models.FeeQuote) models.FeeBreakdown
}

type FeeEventPublisher interface {
	PublishFeeCalculated(data *models.FeeCalculatedData) error
}

// ----- Health -----

type RedisHealth interface {
	Health(ctx context.Context) error
}

// KafkaHealthCheck проверяет доступность брокеров
type KafkaHealthCheck func(brokers []string) error

// EventStats отдаёт число событий, обработанных консьюмером
type EventStats interface {
	Processed() int64
}
