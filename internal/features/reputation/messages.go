// Package reputation — messages.go собирает тексты ответов бота.
package reputation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"serotonyl.ru/reputation-bot/internal/common"
)

var categoryTitles = map[Category]string{
	Helpfulness:   "Помощь",
	Creativity:    "Креатив",
	Reliability:   "Надёжность",
	Community:     "Сообщество",
	Legacy:        "Наследие",
	CategoryTotal: "Всего",
}

// Русские и короткие названия категорий для команд чата.
// Сам движок принимает только Category.
var categoryAliases = map[string]Category{
	"помощь":     Helpfulness,
	"полезность": Helpfulness,
	"креатив":    Creativity,
	"творчество": Creativity,
	"надежность": Reliability,
	"надёжность": Reliability,
	"сообщество": Community,
	"комьюнити":  Community,
	"наследие":   Legacy,
	"легаси":     Legacy,
	"всего":      CategoryTotal,
	"сумма":      CategoryTotal,
}

// ParseCategoryAlias разбирает название категории из команды.
// Принимает идентификаторы (helpfulness, total) и русские названия.
func ParseCategoryAlias(s string) (Category, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c := Category(s); c.Valid() || c == CategoryTotal {
		return c, true
	}
	c, ok := categoryAliases[s]
	return c, ok
}

// CategoryTitle возвращает русское название категории.
func CategoryTitle(c Category) string {
	if t, ok := categoryTitles[c]; ok {
		return t
	}
	return string(c)
}

// FormatRecord показывает запись пользователя.
func FormatRecord(name string, rec Record) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("⭐ Репутация %s: %s\n", name, common.FormatPoints(rec.Total)))
	for _, c := range Categories {
		sb.WriteString(fmt.Sprintf("  %s: %d\n", CategoryTitle(c), rec.Categories[c]))
	}
	sb.WriteString(fmt.Sprintf("Отдано: %d, получено: %d", rec.Given, rec.Received))
	return sb.String()
}

// FormatLeaderboard показывает рейтинг. names — отображаемые имена по ID.
func FormatLeaderboard(category Category, entries []LeaderboardEntry, names map[string]string) string {
	if len(entries) == 0 {
		return fmt.Sprintf("🏆 %s: пока никого нет", CategoryTitle(category))
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🏆 Топ — %s:\n", CategoryTitle(category)))
	for i, e := range entries {
		name, ok := names[e.UserID]
		if !ok {
			name = "id" + e.UserID
		}
		sb.WriteString(fmt.Sprintf("%d. %s — %s\n", i+1, name, common.FormatPoints(e.Score)))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatStats показывает сводку по чату.
func FormatStats(stats ScopeStats) string {
	var sb strings.Builder
	sb.WriteString("📊 Репутация в чате\n")
	sb.WriteString(fmt.Sprintf("Участников: %d\n", stats.UserCount))
	sb.WriteString(fmt.Sprintf("Всего: %s\n", common.FormatNumber(stats.TotalReputation)))
	sb.WriteString(fmt.Sprintf("В среднем: %.1f\n", stats.AverageReputation))
	for _, c := range Categories {
		sb.WriteString(fmt.Sprintf("  %s: %s\n", CategoryTitle(c), common.FormatNumber(stats.PerCategoryTotals[c])))
	}
	sb.WriteString(fmt.Sprintf("Самая активная категория: %s", CategoryTitle(stats.MostActiveCategory)))
	return sb.String()
}

// FormatAuditLine — одна строка события аудита.
func FormatAuditLine(e AuditEvent, names map[string]string, loc *time.Location) string {
	from := "система"
	if e.FromUser != nil {
		from = displayName(*e.FromUser, names)
	}
	line := fmt.Sprintf("%s | %s → %s | %s %s | %s",
		common.FormatDateTime(e.Timestamp, loc),
		from,
		displayName(e.ToUser, names),
		CategoryTitle(e.Details.Category),
		common.FormatSignedPoints(e.Details.Amount),
		e.Details.Origin,
	)
	if e.Details.Reason != "" {
		line += " | " + e.Details.Reason
	}
	return line
}

// FormatAudit показывает последние события.
func FormatAudit(events []AuditEvent, names map[string]string, loc *time.Location) string {
	if len(events) == 0 {
		return "📋 Журнал пуст"
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 Последние события (%d):\n", len(events)))
	for i, e := range events {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, FormatAuditLine(e, names, loc)))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// ErrorMessage превращает ошибку движка в понятный пользователю текст.
func ErrorMessage(err error) string {
	var rl *common.RateLimitedError
	switch {
	case errors.As(err, &rl):
		if rl.Reason == common.DenyCooldown {
			minutes := int64(rl.RetryAfter / time.Minute)
			return fmt.Sprintf("⏳ Этому участнику уже давали репутацию. Попробуй через %d %s", minutes, common.PluralizeMinutes(minutes))
		}
		return "⏳ Лимит репутации на сегодня исчерпан"
	case errors.Is(err, common.ErrSystemDisabled):
		return "🚫 Репутация в этом чате отключена"
	case errors.Is(err, common.ErrInvalidCategory):
		return "❌ Неизвестная категория. Доступны: " + categoryList()
	case errors.Is(err, common.ErrSelfTransfer):
		return "❌ Нельзя давать репутацию самому себе"
	case errors.Is(err, common.ErrInvalidAmount):
		return "❌ Некорректное количество очков"
	case errors.Is(err, common.ErrInvalidUser):
		return "❌ Не понял, кому. Ответь на сообщение участника или укажи @username"
	case errors.Is(err, common.ErrNegativeNotAllowed):
		return "❌ Отрицательная репутация запрещена настройками чата"
	case errors.Is(err, common.ErrPersistence):
		return "⚠️ Не удалось сохранить, попробуй ещё раз"
	}
	return "❌ Ошибка репутации"
}

func categoryList() string {
	titles := make([]string, 0, len(Categories))
	for _, c := range Categories {
		titles = append(titles, strings.ToLower(CategoryTitle(c)))
	}
	return strings.Join(titles, ", ")
}

func displayName(id string, names map[string]string) string {
	if n, ok := names[id]; ok {
		return n
	}
	return "id" + id
}
