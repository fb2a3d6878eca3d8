// Package admin — service.go содержит логику входа и проверки сессий.
package admin

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/reputation-bot/internal/common"
)

// SessionStore — хранилище сессий и попыток входа.
type SessionStore interface {
	OpenSession(ctx context.Context, session *Session) error
	HasActiveSession(ctx context.Context, userID int64, now time.Time) (bool, error)
	DeactivateSessions(ctx context.Context, userID int64) error
	LogAttempt(ctx context.Context, userID int64, success bool, at time.Time) error
	CountFailedAttempts(ctx context.Context, userID int64, since time.Time) (int, error)
}

// Service управляет входом администраторов.
type Service struct {
	repo         SessionStore
	adminIDs     map[int64]struct{}
	passwordHash string
	now          func() time.Time
}

// NewService создаёт сервис админки.
func NewService(repo SessionStore, adminIDs []int64, passwordHash string) *Service {
	ids := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		ids[id] = struct{}{}
	}
	return &Service{
		repo:         repo,
		adminIDs:     ids,
		passwordHash: passwordHash,
		now:          time.Now,
	}
}

// IsAdmin проверяет, есть ли пользователь в ADMIN_IDS.
func (s *Service) IsAdmin(userID int64) bool {
	_, ok := s.adminIDs[userID]
	return ok
}

// Login проверяет пароль и открывает сессию на 24 часа.
// Защита от brute-force: 3 неудачные попытки за час = блокировка.
func (s *Service) Login(ctx context.Context, userID int64, password string) error {
	if !s.IsAdmin(userID) {
		return common.ErrNotAdmin
	}

	now := s.now()
	attempts, err := s.repo.CountFailedAttempts(ctx, userID, now.Add(-FailedLoginsTerm))
	if err != nil {
		return err
	}
	if attempts >= MaxFailedLogins {
		return common.ErrTooManyAttempts
	}

	match := VerifyPassword(password, s.passwordHash)
	if err := s.repo.LogAttempt(ctx, userID, match, now); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Не удалось записать попытку входа")
	}
	if !match {
		return common.ErrWrongPassword
	}

	return s.repo.OpenSession(ctx, &Session{
		UserID:          userID,
		SessionToken:    generateSecureToken(),
		AuthenticatedAt: now,
		ExpiresAt:       now.Add(SessionTTL),
	})
}

// Logout закрывает все сессии пользователя.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	return s.repo.DeactivateSessions(ctx, userID)
}

// Authorize разрешает админское действие: пользователь в ADMIN_IDS
// и у него есть активная сессия.
func (s *Service) Authorize(ctx context.Context, userID int64) error {
	if !s.IsAdmin(userID) {
		return common.ErrNotAdmin
	}
	ok, err := s.repo.HasActiveSession(ctx, userID, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrSessionExpired
	}
	return nil
}
