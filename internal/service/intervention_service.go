package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/analytics"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/config"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/intervention"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/model"
)

var (
	ErrClassNotFound    = errors.New("class not found")
	ErrActivityNotFound = errors.New("activity not found")
)

const suggestionCacheTTL = 2 * time.Minute

// ErrCacheMiss is returned by SuggestionCache.Get when nothing is cached.
var ErrCacheMiss = errors.New("cache miss")

// SuggestionCache holds encoded suggestion passes under expiring keys.
type SuggestionCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// RedisSuggestionCache is a SuggestionCache on plain redis strings.
type RedisSuggestionCache struct {
	rdb *redis.Client
}

func NewRedisSuggestionCache(rdb *redis.Client) *RedisSuggestionCache {
	return &RedisSuggestionCache{rdb: rdb}
}

func (c *RedisSuggestionCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return data, err
}

func (c *RedisSuggestionCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

func (c *RedisSuggestionCache) Delete(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

// ClassStore loads classes and their students' moods.
type ClassStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Class, error)
	ListMoodEntries(ctx context.Context, classID uuid.UUID, since time.Time) ([]analytics.MoodEntry, error)
}

// ActivityStore holds the catalog and the implementation log.
type ActivityStore interface {
	ListActivities(ctx context.Context) ([]intervention.Activity, error)
	RecordImplementation(ctx context.Context, impl *model.InterventionImplementation) error
	RecentActivityIDs(ctx context.Context, classID uuid.UUID, since time.Time) ([]string, error)
}

// InterventionService builds class snapshots and ranks wellbeing activities
// against them.
type InterventionService struct {
	classes    ClassStore
	activities ActivityStore
	cache      SuggestionCache
	loc        *time.Location
	window     time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

// NewInterventionService creates a new InterventionService. cache may be nil,
// in which case suggestion passes are not cached.
func NewInterventionService(classes ClassStore, activities ActivityStore, cache SuggestionCache, loc *time.Location, windowDays int, log zerolog.Logger) *InterventionService {
	if loc == nil {
		loc = time.UTC
	}
	if windowDays <= 0 {
		windowDays = 7
	}
	return &InterventionService{
		classes:    classes,
		activities: activities,
		cache:      cache,
		loc:        loc,
		window:     time.Duration(windowDays) * 24 * time.Hour,
		now:        time.Now,
		log:        log.With().Str("component", "intervention_service").Logger(),
	}
}

// Catalog returns the stored activity catalog, or the built-in one when
// nothing has been stored.
func (s *InterventionService) Catalog(ctx context.Context) ([]intervention.Activity, error) {
	activities, err := s.activities.ListActivities(ctx)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	if len(activities) == 0 {
		return intervention.DefaultCatalog(), nil
	}
	return activities, nil
}

// Activities returns the catalog restricted to one category.
func (s *InterventionService) Activities(ctx context.Context, category intervention.Category) ([]intervention.Activity, error) {
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return intervention.FilterByCategory(catalog, category), nil
}

// ClassSuggestions computes the class's current analytics and ranks the
// catalog against them.
func (s *InterventionService) ClassSuggestions(ctx context.Context, classID uuid.UUID, category intervention.Category) (*model.ClassSuggestions, error) {
	if _, err := s.class(ctx, classID); err != nil {
		return nil, err
	}

	if cached, ok := s.cached(ctx, classID, category); ok {
		return cached, nil
	}

	now := s.now().In(s.loc)
	from := now.Add(-s.window)

	entries, err := s.classes.ListMoodEntries(ctx, classID, from)
	if err != nil {
		return nil, fmt.Errorf("list mood entries: %w", err)
	}
	recent, err := s.activities.RecentActivityIDs(ctx, classID, from)
	if err != nil {
		return nil, fmt.Errorf("recent activities: %w", err)
	}
	catalog, err := s.Activities(ctx, category)
	if err != nil {
		return nil, err
	}

	metrics := analytics.Compute(entries, from, now)
	snap := analytics.BuildSnapshot(metrics, recent, now)

	result := &model.ClassSuggestions{
		ClassID:     classID,
		Metrics:     metrics,
		Snapshot:    snap,
		Suggestions: intervention.Suggest(catalog, snap),
		GeneratedAt: now,
	}
	s.store(ctx, classID, category, result)

	s.log.Debug().
		Str("class_id", classID.String()).
		Str("risk_level", string(snap.RiskLevel)).
		Int("suggestions", len(result.Suggestions)).
		Msg("Suggestion pass computed")
	return result, nil
}

// RecordImplementation logs that a teacher ran a catalog activity with the
// class. Later suggestion passes penalise it as recently used.
func (s *InterventionService) RecordImplementation(ctx context.Context, classID uuid.UUID, teacherID string, req model.RecordImplementationRequest) (*model.InterventionImplementation, error) {
	if _, err := s.class(ctx, classID); err != nil {
		return nil, err
	}

	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := intervention.FindActivity(catalog, req.ActivityID); !ok {
		return nil, ErrActivityNotFound
	}

	impl := &model.InterventionImplementation{
		ClassID:       classID,
		TeacherID:     teacherID,
		ActivityID:    req.ActivityID,
		Notes:         req.Notes,
		ImplementedAt: s.now(),
	}
	if err := s.activities.RecordImplementation(ctx, impl); err != nil {
		return nil, fmt.Errorf("record implementation: %w", err)
	}
	s.invalidate(ctx, classID)
	return impl, nil
}

// Suggest scores a caller-supplied snapshot. Without supplied activities the
// catalog is used; without an hour the current school hour is used.
func (s *InterventionService) Suggest(ctx context.Context, req model.SuggestRequest) ([]intervention.Suggestion, error) {
	catalog := req.Activities
	if len(catalog) == 0 {
		var err error
		if catalog, err = s.Catalog(ctx); err != nil {
			return nil, err
		}
	}

	hour := s.now().In(s.loc).Hour()
	if req.TimeOfDayHour != nil {
		hour = *req.TimeOfDayHour
	}

	snap := intervention.Snapshot{
		RiskLevel:         intervention.RiskLevel(req.RiskLevel),
		DominantMoods:     req.DominantMoods,
		RecentActivityIDs: req.RecentActivityIDs,
		TimeOfDayHour:     hour,
	}
	return intervention.Suggest(catalog, snap), nil
}

func (s *InterventionService) class(ctx context.Context, classID uuid.UUID) (*model.Class, error) {
	c, err := s.classes.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("load class: %w", err)
	}
	return c, nil
}

func suggestionsKey(classID uuid.UUID, category intervention.Category) string {
	field := string(category)
	if category == "" {
		field = "all"
	}
	return config.CacheKey.ClassSuggestionsKey(classID.String(), field)
}

func (s *InterventionService) cached(ctx context.Context, classID uuid.UUID, category intervention.Category) (*model.ClassSuggestions, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, suggestionsKey(classID, category))
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			s.log.Warn().Err(err).Msg("Suggestion cache read failed")
		}
		return nil, false
	}
	var out model.ClassSuggestions
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return &out, true
}

func (s *InterventionService) store(ctx context.Context, classID uuid.UUID, category intervention.Category, result *model.ClassSuggestions) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, suggestionsKey(classID, category), data, suggestionCacheTTL); err != nil {
		s.log.Warn().Err(err).Msg("Suggestion cache write failed")
	}
}

// invalidate drops every cached category of the class.
func (s *InterventionService) invalidate(ctx context.Context, classID uuid.UUID) {
	if s.cache == nil {
		return
	}
	keys := []string{suggestionsKey(classID, "")}
	for _, c := range intervention.Categories {
		keys = append(keys, suggestionsKey(classID, c))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.Warn().Err(err).Msg("Suggestion cache invalidation failed")
	}
}
