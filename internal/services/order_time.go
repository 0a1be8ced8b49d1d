package services

import (
	"time"

	"delivery-fee-service/internal/apperror"

	"github.com/nav-inc/datetime"
)

// reducedPrecisionLayouts покрывают сокращённые формы (смещение только в часах,
// время без секунд или без минут, одна дата), на которых datetime.Parse строже isoparse.
// Время без смещения считается UTC.
var reducedPrecisionLayouts = []string{
	"2006-01-02T15:04:05Z07",
	"2006-01-02T15:04",
	"2006-01-02T15",
	"2006-01-02",
}

// ParseOrderTime разбирает время заказа в формате ISO-8601 (расширенном и базовом,
// включая 24:00 и дробные секунды). Разделителем даты и времени может быть 'T' или один пробел.
func ParseOrderTime(value string) (time.Time, error) {
	if len(value) > 10 && value[10] == ' ' {
		value = value[:10] + "T" + value[11:]
	}

	t, err := datetime.Parse(value, time.UTC)
	if err == nil {
		return t, nil
	}

	for _, layout := range reducedPrecisionLayouts {
		if t, layoutErr := time.Parse(layout, value); layoutErr == nil {
			return t, nil
		}
	}
	return time.Time{}, apperror.Malformed("time", err)
}
