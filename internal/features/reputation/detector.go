// Package reputation — detector.go определяет, содержит ли сообщение «спасибо».
package reputation

import "strings"

var thankYouWords = map[string]struct{}{
	"спасибо":   {},
	"спс":       {},
	"благодарю": {},
	"пасиб":     {},
	"спасибки":  {},
	"thanks":    {},
	"thank you": {},
	"thx":       {},
}

// IsThankYou проверяет, является ли текст благодарностью.
// Регистр не важен. Пунктуация и смайлы-скобки в конце допускаются.
func IsThankYou(text string) bool {
	cleaned := strings.ToLower(strings.TrimSpace(text))
	cleaned = strings.TrimRight(cleaned, "!.,;:)")
	_, ok := thankYouWords[cleaned]
	return ok
}
