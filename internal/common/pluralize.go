// Package common — pluralize.go содержит вспомогательные функции
// форматирования чисел для сообщений бота.
// Основная логика плюрализации реализована в helpers.go.
package common

import "fmt"

// FormatSignedPoints создаёт строку вида "+3 очка" или "-5 очков".
// Знак «+» добавляется автоматически.
//
// Примеры:
//
//	FormatSignedPoints(1)   → "+1 очко"
//	FormatSignedPoints(-5)  → "-5 очков"
func FormatSignedPoints(amount int64) string {
	if amount >= 0 {
		return fmt.Sprintf("+%d %s", amount, PluralizePoints(amount))
	}
	return fmt.Sprintf("%d %s", amount, PluralizePoints(amount))
}

// FormatNumber форматирует число с разделителями тысяч (пробелами).
// Пример: FormatNumber(2350) → "2 350"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s %03d", FormatNumber(n/1000), n%1000)
}
