// Package reputation реализует систему репутации: журнал очков по категориям,
// антиабуз-лимиты, рейтинги и журнал аудита.
// models.go описывает структуры записей, событий и настроек.
package reputation

import (
	"time"

	"serotonyl.ru/reputation-bot/internal/common"
)

// Category — категория репутации. Набор закрыт: произвольные строки не принимаются.
type Category string

const (
	Helpfulness Category = "helpfulness"
	Creativity  Category = "creativity"
	Reliability Category = "reliability"
	Community   Category = "community"
	Legacy      Category = "legacy"

	// CategoryTotal — псевдокатегория для рейтинга по сумме.
	CategoryTotal Category = "total"
)

// Categories — все категории в каноническом порядке.
var Categories = []Category{Helpfulness, Creativity, Reliability, Community, Legacy}

// Valid сообщает, входит ли категория в фиксированный набор.
func (c Category) Valid() bool {
	switch c {
	case Helpfulness, Creativity, Reliability, Community, Legacy:
		return true
	}
	return false
}

// ParseCategory проверяет строку и возвращает категорию.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", common.ErrInvalidCategory
	}
	return c, nil
}

// Origin — откуда пришла передача.
type Origin string

const (
	OriginCommand  Origin = "command"
	OriginReaction Origin = "reaction"
	OriginThanks   Origin = "thanks"
	OriginAdmin    Origin = "admin"
)

// Action — тип события аудита.
type Action string

const (
	ActionTransfer    Action = "transfer"
	ActionAdminAdjust Action = "admin-adjust"
)

// Record — репутация одного пользователя в одном scope.
// Инвариант: Total == сумма Categories.
type Record struct {
	Total      int64              `json:"total"`
	Categories map[Category]int64 `json:"categories"`
	Given      int64              `json:"given"`
	Received   int64              `json:"received"`
	LastReset  time.Time          `json:"last_reset"`
}

// newRecord создаёт нулевую запись со всеми категориями.
func newRecord(now time.Time) Record {
	cats := make(map[Category]int64, len(Categories))
	for _, c := range Categories {
		cats[c] = 0
	}
	return Record{Categories: cats, LastReset: now}
}

// clone возвращает глубокую копию (map не делится между копиями).
func (r Record) clone() Record {
	cats := make(map[Category]int64, len(r.Categories))
	for k, v := range r.Categories {
		cats[k] = v
	}
	r.Categories = cats
	return r
}

// sum считает сумму по категориям.
func (r Record) sum() int64 {
	var s int64
	for _, v := range r.Categories {
		s += v
	}
	return s
}

// Details — подробности события аудита.
type Details struct {
	Category Category `json:"category"`
	Amount   int64    `json:"amount"`
	Reason   string   `json:"reason"`
	Origin   Origin   `json:"origin"`
}

// AuditEvent — неизменяемая запись журнала аудита.
// FromUser == nil для системных и админских изменений.
type AuditEvent struct {
	ID        string    `json:"id"`
	Scope     string    `json:"scope"`
	Action    Action    `json:"action"`
	FromUser  *string   `json:"from_user,omitempty"`
	ToUser    string    `json:"to_user"`
	Details   Details   `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

// Settings — настройки репутации для scope (только чтение для движка).
type Settings struct {
	Enabled         bool `json:"enabled"`
	CooldownMinutes int  `json:"cooldown_minutes"`
	DailyLimit      int  `json:"daily_limit"`
	AllowNegative   bool `json:"allow_negative"`
}

// SettingsPatch — частичное обновление настроек; nil-поля не меняются.
type SettingsPatch struct {
	Enabled         *bool
	CooldownMinutes *int
	DailyLimit      *int
	AllowNegative   *bool
}

// Apply накладывает патч на настройки.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.Enabled != nil {
		s.Enabled = *p.Enabled
	}
	if p.CooldownMinutes != nil {
		s.CooldownMinutes = *p.CooldownMinutes
	}
	if p.DailyLimit != nil {
		s.DailyLimit = *p.DailyLimit
	}
	if p.AllowNegative != nil {
		s.AllowNegative = *p.AllowNegative
	}
	return s
}

// TransferRequest — параметры одной передачи репутации.
// Пустой GiverID означает системную передачу (без отправителя).
type TransferRequest struct {
	Scope      string
	GiverID    string
	ReceiverID string
	Category   Category
	Amount     int64
	Reason     string
	Origin     Origin
}

// LeaderboardEntry — строка рейтинга.
type LeaderboardEntry struct {
	UserID     string             `json:"user_id"`
	Score      int64              `json:"score"`
	Total      int64              `json:"total"`
	Categories map[Category]int64 `json:"categories"`
}

// ScopeStats — сводная статистика по scope.
type ScopeStats struct {
	UserCount          int                `json:"user_count"`
	TotalReputation    int64              `json:"total_reputation"`
	AverageReputation  float64            `json:"average_reputation"`
	PerCategoryTotals  map[Category]int64 `json:"per_category_totals"`
	MostActiveCategory Category           `json:"most_active_category"`
}

// UserRecord — запись вместе с ID пользователя (для снимков и рейтингов).
type UserRecord struct {
	UserID string `json:"user_id"`
	Record Record `json:"record"`
}

// CooldownSnapshot — сохранённая запись кулдауна.
type CooldownSnapshot struct {
	Scope       string    `json:"scope"`
	GiverID     string    `json:"giver_id"`
	ReceiverID  string    `json:"receiver_id"`
	LastGivenAt time.Time `json:"last_given_at"`
}

// DailySnapshot — сохранённый дневной счётчик.
type DailySnapshot struct {
	Scope   string `json:"scope"`
	GiverID string `json:"giver_id"`
	Day     string `json:"day"`
	Count   int    `json:"count"`
}

// LimitsSnapshot — состояние лимитера.
type LimitsSnapshot struct {
	Cooldowns []CooldownSnapshot `json:"cooldowns"`
	Daily     []DailySnapshot    `json:"daily"`
}

// Snapshot — версионированный снимок всего состояния движка.
// Ledger хранит записи каждого scope в порядке их создания,
// Audit — от новых к старым.
type Snapshot struct {
	Version int64                   `json:"version"`
	SavedAt time.Time               `json:"saved_at"`
	Ledger  map[string][]UserRecord `json:"ledger"`
	Limits  LimitsSnapshot          `json:"limits"`
	Audit   []AuditEvent            `json:"audit"`
}
