// Package members ведёт справочник участников чатов: Telegram ID, @username, имя.
// Нужен, чтобы показывать имена в рейтингах и находить получателя по @username.
package members

import (
	"strconv"
	"time"
)

// Member — участник, которого бот видел хотя бы в одном разрешённом чате.
type Member struct {
	UserID    int64     `db:"user_id"`    // Telegram user ID (уникальный)
	Username  string    `db:"username"`   // @username (может быть пустым)
	FirstName string    `db:"first_name"` // Имя пользователя
	LastName  string    `db:"last_name"`  // Фамилия (может быть пустой)
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// DisplayName возвращает отображаемое имя пользователя.
// Если есть @username — возвращает его, иначе имя + фамилию,
// а если нет и имени — числовой ID.
func (m *Member) DisplayName() string {
	if m.Username != "" {
		return "@" + m.Username
	}
	name := m.FirstName
	if m.LastName != "" {
		name += " " + m.LastName
	}
	if name == "" {
		return "id" + strconv.FormatInt(m.UserID, 10)
	}
	return name
}
