// Package reputation — limiter.go отвечает за антиабуз-лимиты:
// кулдаун между передачами одной пары и дневной лимит отправителя.
package reputation

import (
	"time"

	"serotonyl.ru/reputation-bot/internal/common"
)

// Decision — решение лимитера. Allowed == false означает отказ с причиной.
type Decision struct {
	Allowed    bool
	Reason     common.DenyReason
	RetryAfter time.Duration
}

// Err превращает отказ в ошибку для вызывающего кода.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &common.RateLimitedError{Reason: d.Reason, RetryAfter: d.RetryAfter}
}

type pairKey struct {
	scope, giver, receiver string
}

type dayKey struct {
	scope, giver, day string
}

// Limiter хранит кулдауны пар и дневные счётчики.
// Не потокобезопасен: проверку и запись сериализует Service.
type Limiter struct {
	cooldowns map[pairKey]time.Time
	daily     map[dayKey]int
	loc       *time.Location
	retention time.Duration
}

// NewLimiter создаёт лимитер. loc задаёт границу календарного дня,
// retention — сколько хранить записи до очистки Sweep.
func NewLimiter(loc *time.Location, retention time.Duration) *Limiter {
	if loc == nil {
		loc = time.UTC
	}
	return &Limiter{
		cooldowns: make(map[pairKey]time.Time),
		daily:     make(map[dayKey]int),
		loc:       loc,
		retention: retention,
	}
}

// Admit решает, можно ли провести передачу.
//
// Алгоритм:
//  1. Админские передачи и передачи без отправителя проходят всегда
//  2. Кулдаун пары: now - lastGivenAt < cooldownMinutes → отказ
//  3. Дневной лимит отправителя: count >= dailyLimit → отказ
//
// Нулевой кулдаун и нулевой лимит означают «без ограничения».
func (l *Limiter) Admit(scope, giverID, receiverID string, origin Origin, settings Settings, now time.Time) Decision {
	if origin == OriginAdmin || giverID == "" {
		return Decision{Allowed: true}
	}

	if settings.CooldownMinutes > 0 {
		window := time.Duration(settings.CooldownMinutes) * time.Minute
		if last, ok := l.cooldowns[pairKey{scope, giverID, receiverID}]; ok {
			elapsed := now.Sub(last)
			if elapsed < window {
				remaining := window - elapsed
				minutes := (remaining + time.Minute - 1) / time.Minute
				return Decision{
					Reason:     common.DenyCooldown,
					RetryAfter: minutes * time.Minute,
				}
			}
		}
	}

	if settings.DailyLimit > 0 {
		if l.daily[dayKey{scope, giverID, common.DayKey(now, l.loc)}] >= settings.DailyLimit {
			return Decision{Reason: common.DenyDailyLimit}
		}
	}

	return Decision{Allowed: true}
}

// Record фиксирует принятую передачу: время кулдауна и +1 к дневному счётчику.
// Возвращает функцию отката.
func (l *Limiter) Record(scope, giverID, receiverID string, now time.Time) func() {
	if giverID == "" {
		return func() {}
	}
	pk := pairKey{scope, giverID, receiverID}
	dk := dayKey{scope, giverID, common.DayKey(now, l.loc)}

	prevAt, hadCooldown := l.cooldowns[pk]
	prevCount, hadCount := l.daily[dk]

	l.cooldowns[pk] = now
	l.daily[dk] = prevCount + 1

	return func() {
		if hadCooldown {
			l.cooldowns[pk] = prevAt
		} else {
			delete(l.cooldowns, pk)
		}
		if hadCount {
			l.daily[dk] = prevCount
		} else {
			delete(l.daily, dk)
		}
	}
}

// DailyCount возвращает число передач отправителя за календарный день now.
func (l *Limiter) DailyCount(scope, giverID string, now time.Time) int {
	return l.daily[dayKey{scope, giverID, common.DayKey(now, l.loc)}]
}

// Sweep удаляет кулдауны старше горизонта хранения и счётчики дней до него.
// Возвращает число удалённых записей.
func (l *Limiter) Sweep(now time.Time) int {
	if l.retention <= 0 {
		return 0
	}
	cutoff := now.Add(-l.retention)
	cutoffDay := common.DayKey(cutoff, l.loc)

	removed := 0
	for k, at := range l.cooldowns {
		if at.Before(cutoff) {
			delete(l.cooldowns, k)
			removed++
		}
	}
	for k := range l.daily {
		// формат 2006-01-02 сравнивается лексикографически
		if k.day < cutoffDay {
			delete(l.daily, k)
			removed++
		}
	}
	return removed
}

// Size возвращает число кулдаунов и дневных счётчиков.
func (l *Limiter) Size() (cooldowns, daily int) {
	return len(l.cooldowns), len(l.daily)
}

// Snapshot копирует состояние лимитера.
func (l *Limiter) Snapshot() LimitsSnapshot {
	s := LimitsSnapshot{
		Cooldowns: make([]CooldownSnapshot, 0, len(l.cooldowns)),
		Daily:     make([]DailySnapshot, 0, len(l.daily)),
	}
	for k, at := range l.cooldowns {
		s.Cooldowns = append(s.Cooldowns, CooldownSnapshot{
			Scope: k.scope, GiverID: k.giver, ReceiverID: k.receiver, LastGivenAt: at,
		})
	}
	for k, n := range l.daily {
		s.Daily = append(s.Daily, DailySnapshot{Scope: k.scope, GiverID: k.giver, Day: k.day, Count: n})
	}
	return s
}

// Restore заменяет состояние лимитера данными снимка.
func (l *Limiter) Restore(s LimitsSnapshot) {
	l.cooldowns = make(map[pairKey]time.Time, len(s.Cooldowns))
	l.daily = make(map[dayKey]int, len(s.Daily))
	for _, c := range s.Cooldowns {
		l.cooldowns[pairKey{c.Scope, c.GiverID, c.ReceiverID}] = c.LastGivenAt
	}
	for _, d := range s.Daily {
		l.daily[dayKey{d.Scope, d.GiverID, d.Day}] = d.Count
	}
}
