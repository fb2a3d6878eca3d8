// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string  `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	AdminIDsRaw      string  `envconfig:"ADMIN_IDS" required:"true"`
	AdminIDs         []int64 `envconfig:"-"` // заполним вручную
	// Чаты, в которых работает репутация. Каждый чат — отдельный scope.
	AllowedChatIDsRaw string  `envconfig:"ALLOWED_CHAT_IDS" required:"true"`
	AllowedChatIDs    []int64 `envconfig:"-"`
	// Чат для уведомлений аудита (0 — не отправлять)
	LogChatID int64 `envconfig:"LOG_CHAT_ID" default:"0"`

	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"telegram_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Europe/Moscow"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно. Иначе "go на каждый апдейт" = утечка памяти при флуде.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Admin ---
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH" required:"true"`

	// --- Reputation ---
	// Значения по умолчанию для чатов без своей строки в reputation_settings.
	ReputationEnabled         bool `envconfig:"REPUTATION_ENABLED" default:"true"`
	ReputationCooldownMinutes int  `envconfig:"REPUTATION_COOLDOWN_MINUTES" default:"60"`
	ReputationDailyLimit      int  `envconfig:"REPUTATION_DAILY_LIMIT" default:"10"`
	ReputationAllowNegative   bool `envconfig:"REPUTATION_ALLOW_NEGATIVE" default:"false"`
	// Горизонт хранения кулдаунов и дневных счётчиков.
	// Кулдаун чата не может быть длиннее (см. reputation.ValidateSettings).
	ReputationRetention      time.Duration `envconfig:"REPUTATION_RETENTION" default:"168h"`
	ReputationSweepCron      string        `envconfig:"REPUTATION_SWEEP_CRON" default:"0 * * * *"`
	ReputationPersistTimeout time.Duration `envconfig:"REPUTATION_PERSIST_TIMEOUT" default:"5s"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Metrics ---
	// Адрес HTTP-эндпоинта /metrics для Prometheus; пусто — выключено
	MetricsAddr string `envconfig:"METRICS_ADDR" default:""`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// IsAdmin проверяет, есть ли пользователь в ADMIN_IDS.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Config) Validate() error {
	if len(c.AllowedChatIDs) == 0 {
		return fmt.Errorf("ALLOWED_CHAT_IDS не задан")
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.ReputationCooldownMinutes < 0 || c.ReputationDailyLimit < 0 {
		return fmt.Errorf("REPUTATION_COOLDOWN_MINUTES и REPUTATION_DAILY_LIMIT не могут быть отрицательными")
	}
	if c.ReputationRetention < time.Duration(c.ReputationCooldownMinutes)*time.Minute {
		return fmt.Errorf("REPUTATION_RETENTION меньше кулдауна по умолчанию")
	}
	if c.ReputationRetention < 48*time.Hour {
		// дневные счётчики должны пережить смену суток в любом часовом поясе
		return fmt.Errorf("REPUTATION_RETENTION должен быть не меньше 48h")
	}
	if c.ReputationPersistTimeout <= 0 {
		return fmt.Errorf("REPUTATION_PERSIST_TIMEOUT должен быть > 0")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	ids, err := parseInt64CSV(cfg.AdminIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS parse: %w", err)
	}
	cfg.AdminIDs = ids

	chats, err := parseInt64CSV(cfg.AllowedChatIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("ALLOWED_CHAT_IDS parse: %w", err)
	}
	cfg.AllowedChatIDs = chats

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
