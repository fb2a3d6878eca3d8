package reputation

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"serotonyl.ru/reputation-bot/internal/common"
)

func TestParseCategoryAlias(t *testing.T) {
	tests := map[string]Category{
		"помощь":      Helpfulness,
		"Helpfulness": Helpfulness,
		" креатив ":   Creativity,
		"надежность":  Reliability,
		"комьюнити":   Community,
		"легаси":      Legacy,
		"total":       CategoryTotal,
		"всего":       CategoryTotal,
	}
	for in, want := range tests {
		got, ok := ParseCategoryAlias(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParseCategoryAlias("карма")
	assert.False(t, ok)
}

func TestErrorMessage(t *testing.T) {
	cooldown := &common.RateLimitedError{Reason: common.DenyCooldown, RetryAfter: 60 * time.Minute}
	assert.Contains(t, ErrorMessage(cooldown), "60 минут")

	one := &common.RateLimitedError{Reason: common.DenyCooldown, RetryAfter: time.Minute}
	assert.Contains(t, ErrorMessage(one), "1 минуту")

	daily := &common.RateLimitedError{Reason: common.DenyDailyLimit}
	assert.Contains(t, ErrorMessage(daily), "Лимит")

	wrapped := fmt.Errorf("handler: %w", common.ErrSelfTransfer)
	assert.Contains(t, ErrorMessage(wrapped), "самому себе")

	persist := &common.PersistenceError{Err: errors.New("timeout")}
	assert.Contains(t, ErrorMessage(persist), "сохранить")

	assert.Contains(t, ErrorMessage(common.ErrInvalidCategory), "помощь, креатив")
	assert.Equal(t, "❌ Ошибка репутации", ErrorMessage(errors.New("???")))
}

func TestFormatLeaderboard(t *testing.T) {
	assert.Contains(t, FormatLeaderboard(Creativity, nil, nil), "пока никого нет")

	text := FormatLeaderboard(CategoryTotal, []LeaderboardEntry{
		{UserID: "1", Score: 5},
		{UserID: "2", Score: 1},
	}, map[string]string{"1": "@alice"})
	assert.Equal(t, "🏆 Топ — Всего:\n1. @alice — 5 очков\n2. id2 — 1 очко", text)
}

func TestFormatAuditLine(t *testing.T) {
	from := "1"
	e := AuditEvent{
		FromUser:  &from,
		ToUser:    "2",
		Details:   Details{Category: Helpfulness, Amount: 1, Reason: "помог", Origin: OriginCommand},
		Timestamp: time.Date(2026, 3, 10, 9, 5, 0, 0, time.UTC),
	}
	names := map[string]string{"1": "@alice", "2": "@bob"}
	assert.Equal(t, "10.03.2026 09:05 | @alice → @bob | Помощь +1 очко | command | помог",
		FormatAuditLine(e, names, time.UTC))

	sys := AuditEvent{
		ToUser:    "2",
		Details:   Details{Category: Legacy, Amount: -3, Origin: OriginAdmin},
		Timestamp: e.Timestamp,
	}
	assert.Equal(t, "10.03.2026 09:05 | система → id2 | Наследие -3 очка | admin",
		FormatAuditLine(sys, nil, time.UTC))
}

func TestFormatStats(t *testing.T) {
	text := FormatStats(ScopeStats{
		UserCount:          3,
		TotalReputation:    2350,
		AverageReputation:  783.3,
		PerCategoryTotals:  map[Category]int64{Helpfulness: 2350},
		MostActiveCategory: Helpfulness,
	})
	assert.Contains(t, text, "Участников: 3")
	assert.Contains(t, text, "Всего: 2 350")
	assert.Contains(t, text, "В среднем: 783.3")
	assert.Contains(t, text, "Самая активная категория: Помощь")
}

func TestFormatRecord(t *testing.T) {
	rec := newRecord(t0)
	rec.Categories[Community] = 2
	rec.Total = 2
	rec.Given = 4
	rec.Received = 2

	text := FormatRecord("@bob", rec)
	assert.Contains(t, text, "Репутация @bob: 2 очка")
	assert.Contains(t, text, "Сообщество: 2")
	assert.Contains(t, text, "Отдано: 4, получено: 2")
}
