package reputation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/reputation-bot/internal/common"
)

func TestParseGiveArgs(t *testing.T) {
	got, err := parseGiveArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, giveArgs{Category: Helpfulness}, got)

	got, err = parseGiveArgs([]string{"креатив", "@bob", "за", "идею"})
	require.NoError(t, err)
	assert.Equal(t, giveArgs{Username: "@bob", Category: Creativity, Reason: "за идею"}, got)

	got, err = parseGiveArgs([]string{"@bob"})
	require.NoError(t, err)
	assert.Equal(t, "@bob", got.Username)
	assert.Equal(t, Helpfulness, got.Category)

	_, err = parseGiveArgs([]string{"всего"})
	assert.ErrorIs(t, err, common.ErrInvalidCategory)
	_, err = parseGiveArgs([]string{"карма"})
	assert.ErrorIs(t, err, common.ErrInvalidCategory)
}

func TestParseAdjustArgs(t *testing.T) {
	got, err := parseAdjustArgs([]string{"@bob", "помощь", "-5", "спам", "в", "чате"})
	require.NoError(t, err)
	assert.Equal(t, adjustArgs{Username: "@bob", Category: Helpfulness, Amount: -5, Reason: "спам в чате"}, got)

	got, err = parseAdjustArgs([]string{"legacy", "+3"})
	require.NoError(t, err)
	assert.Equal(t, Legacy, got.Category)
	assert.Equal(t, int64(3), got.Amount)

	_, err = parseAdjustArgs([]string{"помощь"})
	assert.Error(t, err)
	_, err = parseAdjustArgs([]string{"помощь", "0"})
	assert.ErrorIs(t, err, common.ErrInvalidAmount)
	_, err = parseAdjustArgs([]string{"помощь", "много"})
	assert.ErrorIs(t, err, common.ErrInvalidAmount)
	_, err = parseAdjustArgs([]string{"сумма", "1"})
	assert.ErrorIs(t, err, common.ErrInvalidCategory)
}

func TestParseTopArgs(t *testing.T) {
	tests := []struct {
		args     []string
		category Category
		limit    int
	}{
		{nil, CategoryTotal, DefaultTopLimit},
		{[]string{"креатив"}, Creativity, DefaultTopLimit},
		{[]string{"5", "надёжность"}, Reliability, 5},
		{[]string{"1000"}, CategoryTotal, MaxTopLimit},
	}
	for _, tt := range tests {
		category, limit, err := parseTopArgs(tt.args)
		require.NoError(t, err, tt.args)
		assert.Equal(t, tt.category, category, tt.args)
		assert.Equal(t, tt.limit, limit, tt.args)
	}

	_, _, err := parseTopArgs([]string{"0"})
	assert.Error(t, err)
	_, _, err = parseTopArgs([]string{"карма"})
	assert.ErrorIs(t, err, common.ErrInvalidCategory)
}

func TestParseSettingsArgs(t *testing.T) {
	patch, err := parseSettingsArgs([]string{"кулдаун", "30"})
	require.NoError(t, err)
	require.NotNil(t, patch.CooldownMinutes)
	assert.Equal(t, 30, *patch.CooldownMinutes)
	assert.Nil(t, patch.DailyLimit)

	patch, err = parseSettingsArgs([]string{"Репутация", "ВЫКЛ"})
	require.NoError(t, err)
	require.NotNil(t, patch.Enabled)
	assert.False(t, *patch.Enabled)

	patch, err = parseSettingsArgs([]string{"минус", "да"})
	require.NoError(t, err)
	require.NotNil(t, patch.AllowNegative)
	assert.True(t, *patch.AllowNegative)

	applied := patch.Apply(Settings{Enabled: true, CooldownMinutes: 60, DailyLimit: 10})
	assert.Equal(t, Settings{Enabled: true, CooldownMinutes: 60, DailyLimit: 10, AllowNegative: true}, applied)

	for _, args := range [][]string{
		{"лимит", "-1"},
		{"лимит"},
		{"репутация", "может"},
		{"цвет", "синий"},
	} {
		_, err := parseSettingsArgs(args)
		assert.Error(t, err, args)
	}
}

func TestFormatSettings(t *testing.T) {
	text := FormatSettings(Settings{Enabled: true, CooldownMinutes: 15, DailyLimit: 3})
	assert.Contains(t, text, "Репутация: вкл")
	assert.Contains(t, text, "Кулдаун: 15 мин")
	assert.Contains(t, text, "Лимит в день: 3")
	assert.Contains(t, text, "Минус: выкл")
}
