package services

import (
	"time"

	"delivery-fee-service/internal/models"
)

// Тарифные константы (евро, если не указано иное)
const (
	freeDeliveryCartValue = 10000 // центов, граница включительно
	smallOrderMinimum     = 10.0
	baseDistance          = 1000 // метров, покрываются базовой ставкой
	distanceStep          = 500  // метров за каждый дополнительный евро
	minimumDistanceFee    = 1
	baseDistanceFee       = 2
	freeItems             = 4
	itemSurcharge         = 0.5
	rushMultiplier        = 1.1
	maxFee                = 15.0
)

var (
	rushStart = 15 * time.Hour
	rushEnd   = 19 * time.Hour
)

// SmallOrderSurcharge возвращает доплату за малый заказ: разницу до 10€.
// Для корзины от 10€ и для неположительных значений доплаты нет.
func SmallOrderSurcharge(cartValue int) float64 {
	value := float64(cartValue) / 100
	if value >= smallOrderMinimum || value <= 0 {
		return 0
	}
	return smallOrderMinimum - value
}

// DistanceFee возвращает плату за расстояние в целых евро.
// Первые 1000 м стоят 2€, далее 1€ за каждые начатые 500 м.
// Расстояние короче 1000 м (включая отрицательное) стоит 1€.
func DistanceFee(distance int) int {
	if distance < baseDistance {
		return minimumDistanceFee
	}

	remaining := distance - baseDistance
	// Ровно на границе 500 м следующий евро ещё не начисляется
	if remaining%distanceStep == 0 {
		remaining--
	}
	if remaining < 0 {
		return baseDistanceFee
	}
	return baseDistanceFee + remaining/distanceStep + 1
}

// ItemSurcharge возвращает доплату 0.50€ за каждый товар сверх четырёх
func ItemSurcharge(itemAmount int) float64 {
	if itemAmount <= freeItems {
		return 0
	}
	return itemSurcharge * float64(itemAmount-freeItems)
}

// IsFridayRush сообщает, попадает ли момент в пятничный час пик с 15:00 до 19:00 UTC (границы включены)
func IsFridayRush(t time.Time) bool {
	t = t.UTC()
	if t.Weekday() != time.Friday {
		return false
	}

	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	sinceMidnight := t.Sub(midnight)
	return sinceMidnight >= rushStart && sinceMidnight <= rushEnd
}

// MaximumFee ограничивает сумму интервалом [0, 15]
func MaximumFee(amount float64) float64 {
	switch {
	case amount < 0:
		return 0
	case amount > maxFee:
		return maxFee
	default:
		return amount
	}
}

// DeliveryFeeService рассчитывает стоимость доставки. Не хранит состояния
// и безопасен для конкурентного использования.
type DeliveryFeeService struct{}

// NewDeliveryFeeService создаёт сервис расчёта
func NewDeliveryFeeService() *DeliveryFeeService {
	return &DeliveryFeeService{}
}

// Calculate считает стоимость доставки по провалидированному запросу и возвращает разбивку
func (s *DeliveryFeeService) Calculate(q models.FeeQuote) models.FeeBreakdown {
	if q.CartValue >= freeDeliveryCartValue {
		return models.FeeBreakdown{FreeDelivery: true}
	}

	b := models.FeeBreakdown{
		SmallOrderSurcharge: SmallOrderSurcharge(q.CartValue),
		DistanceFee:         DistanceFee(q.Distance),
		ItemSurcharge:       ItemSurcharge(q.ItemAmount),
		RushHour:            IsFridayRush(q.OrderTime),
	}

	total := b.SmallOrderSurcharge + float64(b.DistanceFee) + b.ItemSurcharge
	if b.RushHour {
		total *= rushMultiplier
	}
	b.Total = MaximumFee(total)

	return b
}

// CalculateFee возвращает только итоговую стоимость доставки
func CalculateFee(q models.FeeQuote) float64 {
	return (&DeliveryFeeService{}).Calculate(q).Total
}

// DeliveryFee считает стоимость для прямого вызова со значениями по умолчанию.
// Время разбирается только если бесплатная доставка не применяется;
// ошибка разбора возвращается как ошибка валидации.
func DeliveryFee(in models.FeeInput) (float64, error) {
	if in.CartValue >= freeDeliveryCartValue {
		return 0, nil
	}

	orderTime, err := ParseOrderTime(in.OrderTime)
	if err != nil {
		return 0, err
	}

	return CalculateFee(models.FeeQuote{
		CartValue:  in.CartValue,
		Distance:   in.Distance,
		ItemAmount: in.ItemAmount,
		OrderTime:  orderTime,
	}), nil
}
