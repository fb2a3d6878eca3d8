package common

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPluralizePoints(t *testing.T) {
	tests := map[int64]string{
		0:   "очков",
		1:   "очко",
		2:   "очка",
		4:   "очка",
		5:   "очков",
		11:  "очков",
		12:  "очков",
		21:  "очко",
		22:  "очка",
		111: "очков",
		-1:  "очко",
		-3:  "очка",
	}
	for n, want := range tests {
		assert.Equal(t, want, PluralizePoints(n), n)
	}
}

func TestPluralizeMinutes(t *testing.T) {
	assert.Equal(t, "минуту", PluralizeMinutes(1))
	assert.Equal(t, "минуты", PluralizeMinutes(3))
	assert.Equal(t, "минут", PluralizeMinutes(60))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", FormatNumber(0))
	assert.Equal(t, "999", FormatNumber(999))
	assert.Equal(t, "2 350", FormatNumber(2350))
	assert.Equal(t, "1 000 005", FormatNumber(1000005))
	assert.Equal(t, "-12 000", FormatNumber(-12000))
}

func TestFormatSignedPoints(t *testing.T) {
	assert.Equal(t, "+1 очко", FormatSignedPoints(1))
	assert.Equal(t, "-5 очков", FormatSignedPoints(-5))
	assert.Equal(t, "+0 очков", FormatSignedPoints(0))
}

func TestDayKey(t *testing.T) {
	msk := time.FixedZone("MSK", 3*60*60)
	ts := time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026-03-10", DayKey(ts, time.UTC))
	assert.Equal(t, "2026-03-11", DayKey(ts, msk))
	assert.Equal(t, "2026-03-10", DayKey(ts, nil))

	start := StartOfDay(ts, msk)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, msk), start)
}

func TestLoadLocationFallback(t *testing.T) {
	assert.Equal(t, time.UTC, LoadLocation("Nowhere/Atlantis"))
}

func TestRateLimitedError(t *testing.T) {
	err := fmt.Errorf("transfer: %w", &RateLimitedError{Reason: DenyCooldown, RetryAfter: 5 * time.Minute})
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Contains(t, err.Error(), "5 мин")

	var rl *RateLimitedError
	assert.True(t, errors.As(err, &rl))
	assert.Equal(t, DenyCooldown, rl.Reason)
}

func TestPersistenceError(t *testing.T) {
	cause := errors.New("conn reset")
	err := &PersistenceError{Err: cause}
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrRateLimited)
}
