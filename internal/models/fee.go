package models

import "time"

// FeeInput содержит входные данные прямого вызова калькулятора.
// Нулевое значение соответствует значениям по умолчанию: пустая корзина,
// нулевое расстояние, ноль товаров и пустая строка времени.
type FeeInput struct {
	CartValue  int    // стоимость корзины в центах
	Distance   int    // расстояние доставки в метрах
	ItemAmount int    // количество товаров
	OrderTime  string // время заказа в ISO-8601
}

// FeeQuote содержит провалидированные данные запроса с уже разобранным временем
type FeeQuote struct {
	CartValue  int
	Distance   int
	ItemAmount int
	OrderTime  time.Time
}

// FeeBreakdown описывает составляющие итоговой стоимости доставки (в евро)
type FeeBreakdown struct {
	SmallOrderSurcharge float64 `json:"small_order_surcharge"`
	DistanceFee         int     `json:"distance_fee"`
	ItemSurcharge       float64 `json:"item_surcharge"`
	RushHour            bool    `json:"rush_hour"`
	FreeDelivery        bool    `json:"free_delivery"`
	Total               float64 `json:"total"`
}

// DeliveryFeeResponse представляет успешный ответ эндпоинта расчёта
type DeliveryFeeResponse struct {
	DeliveryFee float64 `json:"delivery_fee"`
}
