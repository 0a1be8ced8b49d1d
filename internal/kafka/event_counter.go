package kafka

import (
	"context"
	"sync/atomic"

	"delivery-fee-service/internal/models"
)

// EventCounter считает события, прочитанные консьюмером из топика расчётов.
// Значение отдаётся в /health и показывает, что цепочка producer → topic → consumer жива.
type EventCounter struct {
	processed atomic.Int64
}

// Handle учитывает событие; подходит как EventHandler
func (c *EventCounter) Handle(_ context.Context, _ *models.Event) error {
	c.processed.Add(1)
	return nil
}

// Processed возвращает число учтённых событий
func (c *EventCounter) Processed() int64 {
	return c.processed.Load()
}
