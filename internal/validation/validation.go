// Package validation содержит функции валидации входных данных.
package validation

import "github.com/google/uuid"

// IsValidListingID проверяет, что идентификатор объявления — корректный UUID.
func IsValidListingID(id string) bool {
	if id == "" {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// IsValidSeverity проверяет тег важности уведомления.
func IsValidSeverity(severity string) bool {
	switch severity {
	case "info", "success", "warning", "danger":
		return true
	}
	return false
}

// OrderTotalMatches проверяет, что заявленная сумма заказа в центах
// совпадает с суммой цен позиций.
func OrderTotalMatches(priceCents []int64, totalCents int64) bool {
	var sum int64
	for _, p := range priceCents {
		if p < 0 {
			return false
		}
		sum += p
	}
	return sum == totalCents && totalCents > 0
}
