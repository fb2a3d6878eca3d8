package reputation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsThankYou(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"спасибо", true},
		{"Спасибо!", true},
		{"  спс)) ", true},
		{"благодарю.", true},
		{"Thank you!", true},
		{"thx", true},
		{"спасибо, но нет", false},
		{"не спасибо", false},
		{"", false},
		{"!!!", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsThankYou(tt.text), tt.text)
	}
}
