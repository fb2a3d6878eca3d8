// Package admin реализует вход администратора по паролю.
// Админские команды репутации (корректировка, аудит, настройки) доступны
// только пользователям из ADMIN_IDS с активной сессией.
// models.go описывает структуры сессий.
package admin

import "time"

// Session — активная сессия администратора.
type Session struct {
	UserID          int64     `db:"user_id"`
	SessionToken    string    `db:"session_token"`
	AuthenticatedAt time.Time `db:"authenticated_at"`
	ExpiresAt       time.Time `db:"expires_at"`
}

// Параметры входа
const (
	SessionTTL       = 24 * time.Hour // Время жизни сессии
	MaxFailedLogins  = 3              // Неудачных попыток до блокировки
	FailedLoginsTerm = 1 * time.Hour  // Окно подсчёта неудачных попыток
)
