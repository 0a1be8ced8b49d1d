package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"

	"delivery-fee-service/internal/apperror"
	"delivery-fee-service/internal/logger"
	"delivery-fee-service/internal/models"
	"delivery-fee-service/internal/services"
)

// Поля тела запроса в порядке проверки
const (
	fieldCartValue        = "cart_value"
	fieldDeliveryDistance = "delivery_distance"
	fieldNumberOfItems    = "number_of_items"
	fieldTime             = "time"
)

const maxRequestBodyBytes = 1 << 16

// DeliveryFeeHandler обрабатывает запросы расчёта стоимости доставки
type DeliveryFeeHandler struct {
	calculator FeeCalculator
	publisher  FeeEventPublisher
	log        *logger.Logger
}

// NewDeliveryFeeHandler создает обработчик; publisher может быть nil, тогда события не публикуются
func NewDeliveryFeeHandler(calculator FeeCalculator, publisher FeeEventPublisher, log *logger.Logger) *DeliveryFeeHandler {
	return &DeliveryFeeHandler{
		calculator: calculator,
		publisher:  publisher,
		log:        log,
	}
}

// GetDeliveryFee считает стоимость доставки по JSON телу GET запроса
func (h *DeliveryFeeHandler) GetDeliveryFee(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	if r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	}

	quote, err := decodeFeeQuote(r.Body)
	if err != nil {
		h.log.WithError(err).WithField("field", apperror.FieldOf(err)).Debug("Rejected delivery fee request")
		writeServiceError(w, h.log, err, "Failed to read delivery fee request")
		return
	}

	breakdown := h.calculator.Calculate(quote)
	fee := roundToCents(breakdown.Total)

	h.publish(quote, breakdown, fee)

	h.log.WithFields(map[string]interface{}{
		"cart_value":        quote.CartValue,
		"delivery_distance": quote.Distance,
		"number_of_items":   quote.ItemAmount,
		"rush_hour":         breakdown.RushHour,
		"free_delivery":     breakdown.FreeDelivery,
		"delivery_fee":      fee,
	}).Info("Delivery fee calculated")

	writeJSONResponse(w, http.StatusOK, models.DeliveryFeeResponse{DeliveryFee: fee})
}

// publish отправляет событие о расчёте; ошибка не влияет на ответ клиенту
func (h *DeliveryFeeHandler) publish(quote models.FeeQuote, breakdown models.FeeBreakdown, fee float64) {
	if h.publisher == nil {
		return
	}

	err := h.publisher.PublishFeeCalculated(&models.FeeCalculatedData{
		CartValue:        quote.CartValue,
		DeliveryDistance: quote.Distance,
		NumberOfItems:    quote.ItemAmount,
		OrderTime:        quote.OrderTime,
		RushHour:         breakdown.RushHour,
		FreeDelivery:     breakdown.FreeDelivery,
		DeliveryFee:      fee,
	})
	if err != nil {
		h.log.WithError(err).Error("Failed to publish delivery fee event")
	}
}

// decodeFeeQuote читает и валидирует тело запроса. Время разбирается один раз
// и передаётся калькулятору уже в виде time.Time.
func decodeFeeQuote(body io.Reader) (models.FeeQuote, error) {
	if body == nil {
		return models.FeeQuote{}, apperror.Validation(msgBadRequest, nil)
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return models.FeeQuote{}, apperror.TooLarge(msgPayloadTooLarge, err)
		}
		return models.FeeQuote{}, apperror.Validation(msgBadRequest, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return models.FeeQuote{}, apperror.Validation(msgBadRequest, nil)
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return models.FeeQuote{}, apperror.Validation(msgBadRequest, err)
	}
	if len(payload) == 0 {
		return models.FeeQuote{}, apperror.Validation(msgBadRequest, nil)
	}

	var quote models.FeeQuote
	if quote.CartValue, err = intField(payload, fieldCartValue); err != nil {
		return models.FeeQuote{}, err
	}
	if quote.Distance, err = intField(payload, fieldDeliveryDistance); err != nil {
		return models.FeeQuote{}, err
	}
	if quote.ItemAmount, err = intField(payload, fieldNumberOfItems); err != nil {
		return models.FeeQuote{}, err
	}

	value, ok := payload[fieldTime]
	if !ok || isJSONNull(value) {
		return models.FeeQuote{}, apperror.MissingField(fieldTime)
	}
	var timeText string
	if err := json.Unmarshal(value, &timeText); err != nil {
		return models.FeeQuote{}, apperror.Malformed(fieldTime, err)
	}
	if quote.OrderTime, err = services.ParseOrderTime(timeText); err != nil {
		return models.FeeQuote{}, err
	}

	return quote, nil
}

// intField извлекает обязательное целочисленное поле
func intField(payload map[string]json.RawMessage, name string) (int, error) {
	value, ok := payload[name]
	if !ok || isJSONNull(value) {
		return 0, apperror.MissingField(name)
	}

	var n int
	if err := json.Unmarshal(value, &n); err != nil {
		return 0, apperror.Malformed(name, err)
	}
	return n, nil
}

func isJSONNull(value json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(value), []byte("null"))
}

func roundToCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}
