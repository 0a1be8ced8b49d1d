package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"delivery-fee-service/internal/config"
	"delivery-fee-service/internal/logger"
	"delivery-fee-service/internal/models"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

const eventSource = "delivery-fee-service"

// Producer публикует события о расчётах стоимости доставки
type Producer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
	topics   *config.Topics
}

// NewProducer создает синхронного продюсера Kafka
func NewProducer(cfg *config.KafkaConfig, log *logger.Logger) (*Producer, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Retry.Max = 3
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Net.DialTimeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	log.WithField("brokers", cfg.Brokers).Info("Kafka producer created")

	return &Producer{
		producer: producer,
		log:      log,
		topics:   &cfg.Topics,
	}, nil
}

// PublishFeeCalculated публикует событие delivery_fee.calculated
func (p *Producer) PublishFeeCalculated(data *models.FeeCalculatedData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	event := models.Event{
		ID:        uuid.New(),
		Type:      models.EventTypeFeeCalculated,
		Source:    eventSource,
		Timestamp: time.Now().UTC(),
		Data:      payload,
	}
	return p.publishEvent(p.topics.Fees, event)
}

// publishEvent сериализует событие и отправляет его в топик, ключом сообщения служит ID события
func (p *Producer) publishEvent(topic string, event models.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(event.ID.String()),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send event %s: %w", event.ID, err)
	}

	p.log.WithFields(map[string]interface{}{
		"event_id":   event.ID,
		"event_type": event.Type,
		"topic":      topic,
		"partition":  partition,
		"offset":     offset,
	}).Debug("Event published")

	return nil
}

// Close закрывает продюсера
func (p *Producer) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
