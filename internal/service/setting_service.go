package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/model"
)

// ErrBlankAPIKey rejects an assistant key made only of whitespace.
var ErrBlankAPIKey = errors.New("api key must not be blank")

// SettingStore persists key-value application settings.
type SettingStore interface {
	GetByKey(ctx context.Context, key string) (*model.AppSetting, error)
	Upsert(ctx context.Context, key, value string) error
}

// SettingService loads and saves the AI assistant configuration. Callers get
// an explicit value back; nothing is cached process-wide.
type SettingService struct {
	store SettingStore
	log   zerolog.Logger
}

func NewSettingService(store SettingStore, log zerolog.Logger) *SettingService {
	return &SettingService{
		store: store,
		log:   log.With().Str("component", "setting_service").Logger(),
	}
}

// LoadAssistant returns the stored settings laid over the defaults.
func (s *SettingService) LoadAssistant(ctx context.Context) (model.AssistantSettings, error) {
	settings := model.DefaultAssistantSettings()

	row, err := s.store.GetByKey(ctx, model.AssistantSettingsKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return settings, nil
		}
		return settings, fmt.Errorf("load assistant settings: %w", err)
	}
	if err := json.Unmarshal([]byte(row.Value), &settings); err != nil {
		s.log.Error().Err(err).Msg("Stored assistant settings are corrupt, using defaults")
		return model.DefaultAssistantSettings(), nil
	}
	return settings, nil
}

// SaveAssistant applies the request over the current settings and stores
// the result.
func (s *SettingService) SaveAssistant(ctx context.Context, req model.UpdateAssistantSettingsRequest) (model.AssistantSettings, error) {
	if req.BlankAPIKey() {
		return model.AssistantSettings{}, ErrBlankAPIKey
	}
	current, err := s.LoadAssistant(ctx)
	if err != nil {
		return current, err
	}
	next := req.Apply(current)

	data, err := json.Marshal(next)
	if err != nil {
		return current, fmt.Errorf("encode assistant settings: %w", err)
	}
	if err := s.store.Upsert(ctx, model.AssistantSettingsKey, string(data)); err != nil {
		s.log.Error().Err(err).Msg("Failed to save assistant settings")
		return current, fmt.Errorf("save assistant settings: %w", err)
	}
	s.log.Info().Str("model", next.Model).Bool("configured", next.IsConfigured).Msg("Assistant settings updated")
	return next, nil
}
