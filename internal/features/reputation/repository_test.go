package reputation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateSettings(t *testing.T) {
	tests := []struct {
		name      string
		settings  Settings
		retention time.Duration
		wantErr   bool
	}{
		{"defaults", defaultSettings, 168 * time.Hour, false},
		{"cooldown equals retention", Settings{CooldownMinutes: 48 * 60}, 48 * time.Hour, false},
		{"cooldown beyond retention", Settings{CooldownMinutes: 48*60 + 1}, 48 * time.Hour, true},
		{"no retention bound", Settings{CooldownMinutes: 7 * 24 * 60}, 0, false},
		{"negative cooldown", Settings{CooldownMinutes: -1}, 0, true},
		{"negative daily limit", Settings{DailyLimit: -1}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSettings(tt.settings, tt.retention)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	err := ValidateSettings(Settings{CooldownMinutes: 7 * 24 * 60}, 48*time.Hour)
	assert.ErrorIs(t, err, ErrCooldownBeyondRetention)
	assert.ErrorContains(t, err, "2880 мин")
}
