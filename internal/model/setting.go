package model

import (
	"strings"
	"time"
)

// AppSetting represents a key-value pair for global application configuration.
type AppSetting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AssistantSettingsKey is the app_settings key holding the AI assistant
// configuration as JSON.
const AssistantSettingsKey = "ai_assistant"

// AssistantSettings configures the AI assistant used by the wellbeing tools.
type AssistantSettings struct {
	APIKey              string  `json:"api_key"`
	Model               string  `json:"model"`
	IsConfigured        bool    `json:"is_configured"`
	Temperature         float64 `json:"temperature"`
	MaxTokens           int     `json:"max_tokens"`
	ResponseTimeoutMS   int     `json:"response_timeout_ms"`
	EnableLogging       bool    `json:"enable_logging"`
	EnableCache         bool    `json:"enable_cache"`
	RateLimitPerMinute  int     `json:"rate_limit_per_minute"`
	EnableContentFilter bool    `json:"enable_content_filter"`
	AutoRetry           bool    `json:"auto_retry"`
	FallbackModel       string  `json:"fallback_model"`
}

// DefaultAssistantSettings is used until settings are first saved.
func DefaultAssistantSettings() AssistantSettings {
	return AssistantSettings{
		Model:               "google/flan-t5-large",
		Temperature:         0.7,
		MaxTokens:           512,
		ResponseTimeoutMS:   30000,
		EnableLogging:       true,
		EnableCache:         true,
		RateLimitPerMinute:  60,
		EnableContentFilter: true,
		AutoRetry:           true,
		FallbackModel:       "microsoft/DialoGPT-medium",
	}
}

// Masked returns a copy safe to send to clients.
func (s AssistantSettings) Masked() AssistantSettings {
	s.APIKey = MaskSecret(s.APIKey)
	return s
}

// MaskSecret keeps the first and last four characters of long secrets.
func MaskSecret(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

// UpdateAssistantSettingsRequest is the payload for saving assistant settings.
type UpdateAssistantSettingsRequest struct {
	APIKey              string   `json:"api_key" binding:"omitempty,max=256"`
	Model               string   `json:"model" binding:"omitempty,max=128"`
	Temperature         *float64 `json:"temperature" binding:"omitempty,min=0,max=2"`
	MaxTokens           int      `json:"max_tokens" binding:"omitempty,min=1,max=8192"`
	ResponseTimeoutMS   int      `json:"response_timeout_ms" binding:"omitempty,min=1000,max=120000"`
	EnableLogging       *bool    `json:"enable_logging"`
	EnableCache         *bool    `json:"enable_cache"`
	RateLimitPerMinute  int      `json:"rate_limit_per_minute" binding:"omitempty,min=1,max=1000"`
	EnableContentFilter *bool    `json:"enable_content_filter"`
	AutoRetry           *bool    `json:"auto_retry"`
	FallbackModel       string   `json:"fallback_model" binding:"omitempty,max=128"`
}

// BlankAPIKey reports a key made only of whitespace.
func (r UpdateAssistantSettingsRequest) BlankAPIKey() bool {
	return r.APIKey != "" && strings.TrimSpace(r.APIKey) == ""
}

// Apply merges the request over current. An empty key, or the masked form of
// the current key as returned to clients, keeps the stored key.
func (r UpdateAssistantSettingsRequest) Apply(current AssistantSettings) AssistantSettings {
	out := current
	if key := strings.TrimSpace(r.APIKey); key != "" && key != MaskSecret(current.APIKey) {
		out.APIKey = key
	}
	out.IsConfigured = out.APIKey != ""
	if r.Model != "" {
		out.Model = r.Model
	}
	if r.Temperature != nil {
		out.Temperature = *r.Temperature
	}
	if r.MaxTokens > 0 {
		out.MaxTokens = r.MaxTokens
	}
	if r.ResponseTimeoutMS > 0 {
		out.ResponseTimeoutMS = r.ResponseTimeoutMS
	}
	if r.EnableLogging != nil {
		out.EnableLogging = *r.EnableLogging
	}
	if r.EnableCache != nil {
		out.EnableCache = *r.EnableCache
	}
	if r.RateLimitPerMinute > 0 {
		out.RateLimitPerMinute = r.RateLimitPerMinute
	}
	if r.EnableContentFilter != nil {
		out.EnableContentFilter = *r.EnableContentFilter
	}
	if r.AutoRetry != nil {
		out.AutoRetry = *r.AutoRetry
	}
	if r.FallbackModel != "" {
		out.FallbackModel = r.FallbackModel
	}
	return out
}
