package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"SERVER_PORT", "LOG_LEVEL", "MAX_DB_CONNS", "ALLOWED_ORIGINS",
		"EXAM_BREATHING_PAUSE", "EXAM_AUTOSAVE_INTERVAL", "EXAM_WEBCAM_TIMEOUT",
		"SCHOOL_TIMEZONE", "ANALYTICS_WINDOW_DAYS",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, int32(16), cfg.MaxDBConns)
	assert.Nil(t, cfg.AllowedOrigins)
	assert.Equal(t, 10*time.Second, cfg.BreathingPause)
	assert.Equal(t, 30*time.Second, cfg.AutosaveInterval)
	assert.Equal(t, 15*time.Second, cfg.WebcamTimeout)
	assert.Equal(t, time.UTC, cfg.SchoolLocation)
	assert.Equal(t, 7, cfg.AnalyticsWindowDays)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("MAX_DB_CONNS", "4")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("EXAM_BREATHING_PAUSE", "3s")
	t.Setenv("EXAM_AUTOSAVE_INTERVAL", "45")
	t.Setenv("SCHOOL_TIMEZONE", "Asia/Jakarta")
	t.Setenv("ANALYTICS_WINDOW_DAYS", "14")

	cfg := Load()

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, int32(4), cfg.MaxDBConns)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.BreathingPause)
	assert.Equal(t, 45*time.Second, cfg.AutosaveInterval)
	assert.Equal(t, "Asia/Jakarta", cfg.SchoolLocation.String())
	assert.Equal(t, 14, cfg.AnalyticsWindowDays)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("MAX_DB_CONNS", "many")
	t.Setenv("EXAM_WEBCAM_TIMEOUT", "-5s")
	t.Setenv("SCHOOL_TIMEZONE", "Mars/Olympus")

	cfg := Load()

	assert.Equal(t, int32(16), cfg.MaxDBConns)
	assert.Equal(t, 15*time.Second, cfg.WebcamTimeout)
	assert.Equal(t, time.UTC, cfg.SchoolLocation)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "class:c1:intervention_suggestions:all", CacheKey.ClassSuggestionsKey("c1", "all"))
	assert.Equal(t, "exam:e1:monitor", CacheKey.ExamMonitorChannel("e1"))
	assert.Equal(t, "persist_security_events_queue", WorkerKey.PersistSecurityEventsQueue)
}
