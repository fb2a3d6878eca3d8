package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	p := NewCommandParser()

	tests := []struct {
		text  string
		cmd   string
		args  []string
		isCmd bool
	}{
		{"!реп @bob креатив", "реп", []string{"@bob", "креатив"}, true},
		{"  .ТОП 5 ", "топ", []string{"5"}, true},
		{"/login secret", "login", []string{"secret"}, true},
		{"/top@reputation_bot", "top", nil, true},
		{"спасибо", "", nil, false},
		{"!", "", nil, false},
		{"", "", nil, false},
	}
	for _, tt := range tests {
		cmd, args, ok := p.ParseCommand(tt.text)
		assert.Equal(t, tt.isCmd, ok, tt.text)
		assert.Equal(t, tt.cmd, cmd, tt.text)
		assert.Equal(t, tt.args, args, tt.text)
	}
}
