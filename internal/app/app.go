// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, репозитории, сервисы, обработчики,
// фильтры и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/reputation-bot/internal/bot"
	"serotonyl.ru/reputation-bot/internal/bot/filters"
	"serotonyl.ru/reputation-bot/internal/common"
	"serotonyl.ru/reputation-bot/internal/config"
	"serotonyl.ru/reputation-bot/internal/db/postgres"
	"serotonyl.ru/reputation-bot/internal/features/admin"
	"serotonyl.ru/reputation-bot/internal/features/members"
	"serotonyl.ru/reputation-bot/internal/features/reputation"
	"serotonyl.ru/reputation-bot/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Bot        *bot.Bot
	Scheduler  *jobs.Scheduler
	DB         *pgxpool.Pool
	BotAPI     *telego.Bot
	Reputation *reputation.Service
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	loc := common.LoadLocation(cfg.AppTimezone)

	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	if err := postgres.RunMigrations(ctx, pool, migrations); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Telegram Bot API ===
	var botOpts []telego.BotOption
	if cfg.AppEnv == "development" {
		botOpts = append(botOpts, telego.WithDefaultDebugLogger())
	}
	botAPI, err := telego.NewBot(cfg.TelegramBotToken, botOpts...)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	me, err := botAPI.GetMe(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка авторизации в Telegram: %w", err)
	}
	log.Infof("Авторизован как @%s", me.Username)

	// === 3. Репозитории ===
	memberRepo := members.NewRepository(pool)
	adminRepo := admin.NewRepository(pool)
	reputationRepo := reputation.NewRepository(pool, reputation.Settings{
		Enabled:         cfg.ReputationEnabled,
		CooldownMinutes: cfg.ReputationCooldownMinutes,
		DailyLimit:      cfg.ReputationDailyLimit,
		AllowNegative:   cfg.ReputationAllowNegative,
	}, cfg.ReputationRetention)

	// === 4. Сервисы ===
	memberService := members.NewService(memberRepo)
	adminService := admin.NewService(adminRepo, cfg.AdminIDs, cfg.AdminPasswordHash)
	reputationService := reputation.NewService(reputationRepo, reputationRepo, reputation.Options{
		Location:       loc,
		Retention:      cfg.ReputationRetention,
		PersistTimeout: cfg.ReputationPersistTimeout,
		Notifier:       reputation.NewAuditNotifier(botAPI, cfg.LogChatID, loc),
	})
	if err := reputationService.Load(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка загрузки репутации: %w", err)
	}

	// === 5. Обработчики ===
	reputationHandler := reputation.NewHandler(reputationService, reputationRepo, memberService, adminService, botAPI, loc)
	adminHandler := admin.NewHandler(adminService, botAPI)

	// === 6. Фильтры ===
	chatFilter := filters.NewChatFilter(cfg.AllowedChatIDs)

	// === 7. Собираем бота ===
	b := bot.New(botAPI, cfg, memberService, reputationHandler, adminHandler, chatFilter)

	// === 8. Планировщик задач ===
	scheduler := jobs.NewScheduler(reputationService, cfg.ReputationSweepCron, loc)

	return &App{
		Bot:        b,
		Scheduler:  scheduler,
		DB:         pool,
		BotAPI:     botAPI,
		Reputation: reputationService,
	}, nil
}

// SQL-миграции встроены в код для упрощения деплоя.
var migrations = []postgres.Migration{
	{Version: 1, SQL: migration001Members},
	{Version: 2, SQL: migration002Admin},
	{Version: 3, SQL: migration003ReputationSettings},
	{Version: 4, SQL: migration004ReputationSnapshots},
}

var migration001Members = `
CREATE TABLE IF NOT EXISTS members (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT UNIQUE NOT NULL,
    username VARCHAR(255) NOT NULL DEFAULT '',
    first_name VARCHAR(255) NOT NULL DEFAULT '',
    last_name VARCHAR(255) NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ DEFAULT NOW(),
    updated_at TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_members_username ON members(LOWER(username));
`

var migration002Admin = `
CREATE TABLE IF NOT EXISTS admin_sessions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    session_token VARCHAR(255) UNIQUE,
    authenticated_at TIMESTAMPTZ DEFAULT NOW(),
    expires_at TIMESTAMPTZ,
    is_active BOOLEAN DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_admin_sessions_user_id ON admin_sessions(user_id);
CREATE TABLE IF NOT EXISTS admin_login_attempts (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT,
    attempt_time TIMESTAMPTZ DEFAULT NOW(),
    success BOOLEAN DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_admin_login_attempts_user ON admin_login_attempts(user_id, attempt_time DESC);
`

var migration003ReputationSettings = `
CREATE TABLE IF NOT EXISTS reputation_settings (
    scope TEXT PRIMARY KEY,
    enabled BOOLEAN NOT NULL DEFAULT TRUE,
    cooldown_minutes INTEGER NOT NULL DEFAULT 60 CHECK (cooldown_minutes >= 0),
    daily_limit INTEGER NOT NULL DEFAULT 10 CHECK (daily_limit >= 0),
    allow_negative BOOLEAN NOT NULL DEFAULT FALSE,
    updated_at TIMESTAMPTZ DEFAULT NOW()
);
`

var migration004ReputationSnapshots = `
CREATE TABLE IF NOT EXISTS reputation_snapshots (
    id SMALLINT PRIMARY KEY CHECK (id = 1),
    version BIGINT NOT NULL,
    saved_at TIMESTAMPTZ NOT NULL,
    data JSONB NOT NULL
);
`
