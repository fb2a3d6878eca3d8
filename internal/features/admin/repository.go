// Package admin — repository.go хранит сессии и попытки входа в PostgreSQL.
package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository — SessionStore поверх admin_sessions и admin_login_attempts.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий сессий.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// OpenSession закрывает прежние сессии пользователя и открывает новую.
// У администратора одновременно не больше одной активной сессии.
func (r *Repository) OpenSession(ctx context.Context, session *Session) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции сессии: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE admin_sessions SET is_active = FALSE WHERE user_id = $1 AND is_active`,
		session.UserID,
	); err != nil {
		return fmt.Errorf("ошибка закрытия прежних сессий: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO admin_sessions (user_id, session_token, authenticated_at, expires_at, is_active)
		VALUES ($1, $2, $3, $4, TRUE)`,
		session.UserID, session.SessionToken, session.AuthenticatedAt, session.ExpiresAt,
	); err != nil {
		return fmt.Errorf("ошибка открытия сессии: %w", err)
	}
	return tx.Commit(ctx)
}

// HasActiveSession — есть ли у пользователя сессия, не истёкшая к моменту now.
func (r *Repository) HasActiveSession(ctx context.Context, userID int64, now time.Time) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM admin_sessions
			WHERE user_id = $1 AND is_active AND expires_at > $2
		)`, userID, now,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки сессии (user_id=%d): %w", userID, err)
	}
	return ok, nil
}

// DeactivateSessions закрывает все сессии пользователя (/logout).
func (r *Repository) DeactivateSessions(ctx context.Context, userID int64) error {
	if _, err := r.db.Exec(ctx,
		`UPDATE admin_sessions SET is_active = FALSE WHERE user_id = $1 AND is_active`, userID,
	); err != nil {
		return fmt.Errorf("ошибка закрытия сессий (user_id=%d): %w", userID, err)
	}
	return nil
}

// LogAttempt записывает попытку входа с временем at.
func (r *Repository) LogAttempt(ctx context.Context, userID int64, success bool, at time.Time) error {
	if _, err := r.db.Exec(ctx,
		`INSERT INTO admin_login_attempts (user_id, success, attempt_time) VALUES ($1, $2, $3)`,
		userID, success, at,
	); err != nil {
		return fmt.Errorf("ошибка записи попытки входа: %w", err)
	}
	return nil
}

// CountFailedAttempts — число неудачных попыток начиная с since.
func (r *Repository) CountFailedAttempts(ctx context.Context, userID int64, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM admin_login_attempts
		WHERE user_id = $1 AND NOT success AND attempt_time >= $2`,
		userID, since,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта попыток входа: %w", err)
	}
	return n, nil
}
