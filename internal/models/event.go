package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType представляет тип события в Kafka
type EventType string

const (
	EventTypeFeeCalculated EventType = "delivery_fee.calculated"
)

// Event представляет событие, публикуемое в Kafka
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Type      EventType       `json:"type"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// FeeCalculatedData представляет полезную нагрузку события delivery_fee.calculated
type FeeCalculatedData struct {
	CartValue        int       `json:"cart_value"`
	DeliveryDistance int       `json:"delivery_distance"`
	NumberOfItems    int       `json:"number_of_items"`
	OrderTime        time.Time `json:"time"`
	RushHour         bool      `json:"rush_hour"`
	FreeDelivery     bool      `json:"free_delivery"`
	DeliveryFee      float64   `json:"delivery_fee"`
}
