// Package members — service.go связывает обработчики Telegram-событий
// со справочником участников.
package members

import (
	"context"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Store — операции справочника, которые нужны сервису.
type Store interface {
	Upsert(ctx context.Context, m *Member) error
	GetByUsername(ctx context.Context, username string) (*Member, error)
	GetByUserIDs(ctx context.Context, userIDs []int64) ([]*Member, error)
}

// Service управляет справочником участников.
type Service struct {
	repo Store
}

// NewService создаёт новый сервис участников.
func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// EnsureMember запоминает участника или обновляет его имя.
// Вызывается на каждое сообщение из разрешённого чата.
func (s *Service) EnsureMember(ctx context.Context, userID int64, username, firstName, lastName string) error {
	return s.repo.Upsert(ctx, &Member{
		UserID:    userID,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
	})
}

// FindByUsername ищет участника по @username (с @ или без).
func (s *Service) FindByUsername(ctx context.Context, username string) (*Member, error) {
	return s.repo.GetByUsername(ctx, strings.TrimPrefix(username, "@"))
}

// DisplayNames возвращает отображаемые имена для ID (ключи — строковые ID,
// как их хранит репутация). Неизвестные участники показываются как «id123».
// Ошибка БД не фатальна: имена просто будут числовыми.
func (s *Service) DisplayNames(ctx context.Context, userIDs []string) map[string]string {
	out := make(map[string]string, len(userIDs))
	ids := make([]int64, 0, len(userIDs))
	for _, raw := range userIDs {
		out[raw] = "id" + raw
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return out
	}

	found, err := s.repo.GetByUserIDs(ctx, ids)
	if err != nil {
		log.WithError(err).Warn("Не удалось получить имена участников")
		return out
	}
	for _, m := range found {
		out[strconv.FormatInt(m.UserID, 10)] = m.DisplayName()
	}
	return out
}
