// Package reputation — repository.go работает с таблицами reputation_settings
// и reputation_snapshots.
package reputation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository хранит настройки чатов и снимки состояния в PostgreSQL.
// Реализует SettingsProvider и SnapshotStore.
type Repository struct {
	db        *pgxpool.Pool
	defaults  Settings
	retention time.Duration
}

// NewRepository создаёт репозиторий репутации.
// defaults используются для чатов без своей строки настроек,
// retention ограничивает кулдаун, который можно задать чату.
func NewRepository(db *pgxpool.Pool, defaults Settings, retention time.Duration) *Repository {
	return &Repository{db: db, defaults: defaults, retention: retention}
}

// GetSettings возвращает настройки чата или значения по умолчанию.
func (r *Repository) GetSettings(ctx context.Context, scope string) (Settings, error) {
	query := `
		SELECT enabled, cooldown_minutes, daily_limit, allow_negative
		FROM reputation_settings WHERE scope = $1
	`
	var s Settings
	err := r.db.QueryRow(ctx, query, scope).Scan(
		&s.Enabled, &s.CooldownMinutes, &s.DailyLimit, &s.AllowNegative,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.defaults, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("ошибка получения настроек: %w", err)
	}
	return s, nil
}

// UpdateSettings частично обновляет настройки чата и возвращает итоговые.
// Чтение и запись идут в одной транзакции БД.
func (r *Repository) UpdateSettings(ctx context.Context, scope string, patch SettingsPatch) (Settings, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	current := r.defaults
	err = tx.QueryRow(ctx, `
		SELECT enabled, cooldown_minutes, daily_limit, allow_negative
		FROM reputation_settings WHERE scope = $1 FOR UPDATE
	`, scope).Scan(&current.Enabled, &current.CooldownMinutes, &current.DailyLimit, &current.AllowNegative)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return Settings{}, fmt.Errorf("ошибка получения настроек: %w", err)
	}

	next := patch.Apply(current)
	if err := ValidateSettings(next, r.retention); err != nil {
		return Settings{}, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO reputation_settings (scope, enabled, cooldown_minutes, daily_limit, allow_negative, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (scope) DO UPDATE
		SET enabled = EXCLUDED.enabled,
		    cooldown_minutes = EXCLUDED.cooldown_minutes,
		    daily_limit = EXCLUDED.daily_limit,
		    allow_negative = EXCLUDED.allow_negative,
		    updated_at = NOW()
	`, scope, next.Enabled, next.CooldownMinutes, next.DailyLimit, next.AllowNegative)
	if err != nil {
		return Settings{}, fmt.Errorf("ошибка сохранения настроек: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Settings{}, fmt.Errorf("ошибка фиксации настроек: %w", err)
	}
	return next, nil
}

// LoadSnapshot возвращает последний снимок или nil, если его нет.
func (r *Repository) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot
	err := r.db.QueryRow(ctx, `SELECT data FROM reputation_snapshots WHERE id = 1`).Scan(&snap)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки снимка: %w", err)
	}
	return &snap, nil
}

// SaveSnapshot записывает снимок. Версия должна быть больше сохранённой,
// иначе запись отклоняется (защита от отката более старым процессом).
func (r *Repository) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	query := `
		INSERT INTO reputation_snapshots (id, version, saved_at, data)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET version = EXCLUDED.version, saved_at = EXCLUDED.saved_at, data = EXCLUDED.data
		WHERE reputation_snapshots.version < EXCLUDED.version
	`
	tag, err := r.db.Exec(ctx, query, snap.Version, snap.SavedAt, snap)
	if err != nil {
		return fmt.Errorf("ошибка сохранения снимка: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("снимок v%d устарел: в БД уже более новая версия", snap.Version)
	}
	return nil
}

// ErrCooldownBeyondRetention — кулдаун длиннее горизонта, после которого
// Sweep забывает передачи.
var ErrCooldownBeyondRetention = errors.New("кулдаун длиннее горизонта хранения")

// ValidateSettings проверяет значения настроек.
// retention > 0 ограничивает кулдаун сверху: запись пары живёт не дольше retention.
func ValidateSettings(s Settings, retention time.Duration) error {
	if s.CooldownMinutes < 0 {
		return fmt.Errorf("кулдаун не может быть отрицательным")
	}
	if s.DailyLimit < 0 {
		return fmt.Errorf("дневной лимит не может быть отрицательным")
	}
	if retention > 0 && time.Duration(s.CooldownMinutes)*time.Minute > retention {
		return fmt.Errorf("%w: максимум %d мин", ErrCooldownBeyondRetention, int64(retention/time.Minute))
	}
	return nil
}
