package reputation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/reputation-bot/internal/common"
)

var limiterSettings = Settings{Enabled: true, CooldownMinutes: 60, DailyLimit: 10}

func TestLimiter_Cooldown(t *testing.T) {
	l := NewLimiter(time.UTC, 168*time.Hour)
	l.Record("chat", "a", "b", t0)

	d := l.Admit("chat", "a", "b", OriginCommand, limiterSettings, t0)
	assert.False(t, d.Allowed)
	assert.Equal(t, common.DenyCooldown, d.Reason)
	assert.Equal(t, 60*time.Minute, d.RetryAfter)

	d = l.Admit("chat", "a", "b", OriginCommand, limiterSettings, t0.Add(59*time.Minute))
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Minute, d.RetryAfter)

	// остаток округляется вверх до минуты
	d = l.Admit("chat", "a", "b", OriginCommand, limiterSettings, t0.Add(30*time.Minute+10*time.Second))
	assert.Equal(t, 30*time.Minute, d.RetryAfter)

	d = l.Admit("chat", "a", "b", OriginCommand, limiterSettings, t0.Add(60*time.Minute))
	assert.True(t, d.Allowed)
	assert.NoError(t, d.Err())
}

func TestLimiter_CooldownIsPerPairAndScope(t *testing.T) {
	l := NewLimiter(time.UTC, 168*time.Hour)
	l.Record("chat", "a", "b", t0)

	assert.True(t, l.Admit("chat", "a", "c", OriginCommand, limiterSettings, t0).Allowed)
	assert.True(t, l.Admit("chat", "b", "a", OriginCommand, limiterSettings, t0).Allowed)
	assert.True(t, l.Admit("other", "a", "b", OriginCommand, limiterSettings, t0).Allowed)
}

func TestLimiter_DailyLimit(t *testing.T) {
	l := NewLimiter(time.UTC, 168*time.Hour)
	for i := 0; i < 10; i++ {
		receiver := string(rune('b' + i))
		require.True(t, l.Admit("chat", "a", receiver, OriginCommand, limiterSettings, t0).Allowed)
		l.Record("chat", "a", receiver, t0)
	}
	assert.Equal(t, 10, l.DailyCount("chat", "a", t0))

	d := l.Admit("chat", "a", "z", OriginCommand, limiterSettings, t0)
	assert.False(t, d.Allowed)
	assert.Equal(t, common.DenyDailyLimit, d.Reason)
	assert.Zero(t, d.RetryAfter)

	var rl *common.RateLimitedError
	require.ErrorAs(t, d.Err(), &rl)
	assert.ErrorIs(t, d.Err(), common.ErrRateLimited)

	// новый календарный день
	assert.True(t, l.Admit("chat", "a", "z", OriginCommand, limiterSettings, t0.Add(12*time.Hour)).Allowed)
}

func TestLimiter_DayBoundaryFollowsLocation(t *testing.T) {
	msk := time.FixedZone("MSK", 3*60*60)
	l := NewLimiter(msk, 168*time.Hour)
	s := Settings{Enabled: true, DailyLimit: 1}

	// 20:30 UTC — 23:30 10 марта по Москве
	before := time.Date(2026, 3, 10, 20, 30, 0, 0, time.UTC)
	// 21:30 UTC — 00:30 11 марта по Москве
	after := time.Date(2026, 3, 10, 21, 30, 0, 0, time.UTC)

	l.Record("chat", "a", "b", before)
	assert.False(t, l.Admit("chat", "a", "c", OriginCommand, s, before.Add(10*time.Minute)).Allowed)
	assert.True(t, l.Admit("chat", "a", "c", OriginCommand, s, after).Allowed)
}

func TestLimiter_ZeroMeansUnlimited(t *testing.T) {
	l := NewLimiter(time.UTC, 168*time.Hour)
	s := Settings{Enabled: true}
	for i := 0; i < 50; i++ {
		require.True(t, l.Admit("chat", "a", "b", OriginCommand, s, t0).Allowed)
		l.Record("chat", "a", "b", t0)
	}
}

func TestLimiter_AdminAndSystemBypass(t *testing.T) {
	l := NewLimiter(time.UTC, 168*time.Hour)
	l.Record("chat", "a", "b", t0)
	s := Settings{Enabled: true, CooldownMinutes: 60, DailyLimit: 1}

	assert.True(t, l.Admit("chat", "a", "b", OriginAdmin, s, t0).Allowed)
	assert.True(t, l.Admit("chat", "", "b", OriginReaction, s, t0).Allowed)

	l.Record("chat", "", "b", t0)
	cooldowns, daily := l.Size()
	assert.Equal(t, 1, cooldowns)
	assert.Equal(t, 1, daily)
}

func TestLimiter_RecordUndo(t *testing.T) {
	l := NewLimiter(time.UTC, 168*time.Hour)
	l.Record("chat", "a", "b", t0)

	undo := l.Record("chat", "a", "b", t0.Add(2*time.Hour))
	assert.Equal(t, 2, l.DailyCount("chat", "a", t0))
	undo()
	assert.Equal(t, 1, l.DailyCount("chat", "a", t0))
	// кулдаун вернулся к первой передаче
	assert.True(t, l.Admit("chat", "a", "b", OriginCommand, limiterSettings, t0.Add(time.Hour)).Allowed)

	undo = l.Record("chat", "x", "y", t0)
	undo()
	cooldowns, daily := l.Size()
	assert.Equal(t, 1, cooldowns)
	assert.Equal(t, 1, daily)
}

func TestLimiter_Sweep(t *testing.T) {
	l := NewLimiter(time.UTC, 48*time.Hour)
	l.Record("chat", "a", "b", t0)
	l.Record("chat", "a", "c", t0.Add(40*time.Hour))

	assert.Equal(t, 0, l.Sweep(t0.Add(47*time.Hour)))

	// cutoff = 11 марта 00:00: старый кулдаун и счётчик 10 марта уходят
	removed := l.Sweep(t0.Add(60 * time.Hour))
	assert.Equal(t, 2, removed)
	cooldowns, daily := l.Size()
	assert.Equal(t, 1, cooldowns)
	assert.Equal(t, 1, daily)
}

func TestLimiter_SnapshotRestore(t *testing.T) {
	l := NewLimiter(time.UTC, 168*time.Hour)
	l.Record("chat", "a", "b", t0)
	l.Record("chat", "a", "c", t0)

	restored := NewLimiter(time.UTC, 168*time.Hour)
	restored.Restore(l.Snapshot())

	assert.Equal(t, 2, restored.DailyCount("chat", "a", t0))
	assert.False(t, restored.Admit("chat", "a", "b", OriginCommand, limiterSettings, t0.Add(time.Minute)).Allowed)
}
