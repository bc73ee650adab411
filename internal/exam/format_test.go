package exam

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatTime(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{9, "0:09"},
		{245, "4:05"},
		{3599, "59:59"},
		{3600, "1:00:00"},
		{3845, "1:04:05"},
		{36000, "10:00:00"},
		{-3, "0:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTime(tt.seconds), "FormatTime(%d)", tt.seconds)
	}
}

func TestTimeUrgencyFor(t *testing.T) {
	tests := []struct {
		remaining, total int
		want             TimeUrgency
	}{
		{600, 600, TimeNormal},
		{151, 600, TimeNormal},
		{150, 600, TimeWarning},
		{61, 600, TimeWarning},
		{60, 600, TimeCritical},
		{0, 600, TimeCritical},
		{0, 0, TimeCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TimeUrgencyFor(tt.remaining, tt.total), "%d/%d", tt.remaining, tt.total)
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "breathing_pause", StateBreathingPause.String())
	assert.Equal(t, "unknown", State(42).String())
	assert.True(t, StateSubmitted.Terminal())
	assert.False(t, StateInProgress.Terminal())

	text, err := StateInProgress.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "in_progress", string(text))
}
