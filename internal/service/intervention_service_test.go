package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/analytics"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/intervention"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/model"
)

type interventionFixture struct {
	svc        *InterventionService
	classes    *fakeClassStore
	activities *fakeActivityStore
	classID    uuid.UUID
	now        time.Time
}

func newInterventionFixture(t *testing.T) *interventionFixture {
	t.Helper()

	loc := time.FixedZone("school", 7*3600)
	f := &interventionFixture{
		classID:    uuid.New(),
		activities: &fakeActivityStore{},
		// 02:00 UTC is 09:00 at the school
		now: time.Date(2026, 3, 2, 2, 0, 0, 0, time.UTC),
	}
	f.classes = &fakeClassStore{classes: map[uuid.UUID]*model.Class{
		f.classID: {ID: f.classID, Name: "7B"},
	}}
	f.svc = NewInterventionService(f.classes, f.activities, nil, loc, 7, zerolog.Nop())
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *interventionFixture) mood(mood string, ago time.Duration) {
	f.classes.entries = append(f.classes.entries, analytics.MoodEntry{
		StudentID:  "s",
		Mood:       mood,
		RecordedAt: f.now.Add(-ago),
	})
}

func TestInterventionService_CatalogFallsBackToDefault(t *testing.T) {
	f := newInterventionFixture(t)

	got, err := f.svc.Catalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, intervention.DefaultCatalog(), got)

	f.activities.catalog = []intervention.Activity{{ID: "custom", Category: intervention.CategorySocial}}
	got, err = f.svc.Catalog(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "custom", got[0].ID)
}

func TestInterventionService_ClassSuggestions(t *testing.T) {
	f := newInterventionFixture(t)
	for range 3 {
		f.mood("😰", time.Hour)
		f.mood("sad", time.Hour)
	}
	f.mood("happy", 6*24*time.Hour)
	f.activities.recent = []string{"emotional-check-in-1"}

	got, err := f.svc.ClassSuggestions(context.Background(), f.classID, "")
	require.NoError(t, err)

	assert.Equal(t, f.classID, got.ClassID)
	assert.Equal(t, intervention.RiskHigh, got.Snapshot.RiskLevel)
	assert.Equal(t, []string{"anxious", "sad", "happy"}, got.Snapshot.DominantMoods)
	assert.Equal(t, 9, got.Snapshot.TimeOfDayHour)
	assert.Equal(t, []string{"emotional-check-in-1"}, got.Snapshot.RecentActivityIDs)
	assert.Equal(t, f.now.Add(-7*24*time.Hour), f.classes.since.UTC())

	require.NotEmpty(t, got.Suggestions)
	assert.LessOrEqual(t, len(got.Suggestions), intervention.MaxSuggestions)
	// three activities tie at 70 and keep catalog order
	top := make([]string, 3)
	for i := range top {
		top[i] = got.Suggestions[i].Activity.ID
		assert.Equal(t, 70, got.Suggestions[i].RelevanceScore)
	}
	assert.Equal(t, []string{"movement-break-1", "emotional-check-in-1", "creative-expression-1"}, top)
	for _, s := range got.Suggestions {
		assert.Equal(t, intervention.UrgencyHigh, s.Urgency)
	}
}

func TestInterventionService_ClassSuggestionsByCategory(t *testing.T) {
	f := newInterventionFixture(t)

	got, err := f.svc.ClassSuggestions(context.Background(), f.classID, intervention.CategoryMovement)
	require.NoError(t, err)

	require.NotEmpty(t, got.Suggestions)
	for _, s := range got.Suggestions {
		assert.Equal(t, intervention.CategoryMovement, s.Activity.Category)
	}
	assert.Equal(t, intervention.RiskLow, got.Snapshot.RiskLevel)
}

func TestInterventionService_UnknownClass(t *testing.T) {
	f := newInterventionFixture(t)

	_, err := f.svc.ClassSuggestions(context.Background(), uuid.New(), "")
	assert.ErrorIs(t, err, ErrClassNotFound)

	_, err = f.svc.RecordImplementation(context.Background(), uuid.New(), "t1", model.RecordImplementationRequest{ActivityID: "movement-break-1"})
	assert.ErrorIs(t, err, ErrClassNotFound)
}

func TestInterventionService_RecordImplementation(t *testing.T) {
	f := newInterventionFixture(t)

	impl, err := f.svc.RecordImplementation(context.Background(), f.classID, "teacher-1", model.RecordImplementationRequest{
		ActivityID: "movement-break-1",
		Notes:      "after lunch",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, impl.ID)
	assert.Equal(t, "teacher-1", impl.TeacherID)
	assert.Equal(t, f.now, impl.ImplementedAt)
	require.Len(t, f.activities.implemented, 1)

	_, err = f.svc.RecordImplementation(context.Background(), f.classID, "teacher-1", model.RecordImplementationRequest{ActivityID: "nope"})
	assert.ErrorIs(t, err, ErrActivityNotFound)
}

func TestInterventionService_AdHocSuggest(t *testing.T) {
	f := newInterventionFixture(t)
	hour := 9

	got, err := f.svc.Suggest(context.Background(), model.SuggestRequest{
		RiskLevel:     "high",
		DominantMoods: []string{"anxious"},
		TimeOfDayHour: &hour,
		Activities: []intervention.Activity{{
			ID:              "A",
			Category:        intervention.CategoryEmotional,
			TargetMoods:     []string{"anxious"},
			DurationMinutes: 5,
			Effectiveness:   5,
		}},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 85, got[0].RelevanceScore)
	assert.Equal(t, intervention.UrgencyHigh, got[0].Urgency)

	// default catalog and school hour
	got, err = f.svc.Suggest(context.Background(), model.SuggestRequest{RiskLevel: "low"})
	require.NoError(t, err)
	assert.NotEmpty(t, got)
}

func TestInterventionService_CachedCategoriesExpireIndependently(t *testing.T) {
	f := newInterventionFixture(t)
	cache := newFakeSuggestionCache(func() time.Time { return f.now })
	f.svc.cache = cache
	f.mood("sad", time.Hour)
	ctx := context.Background()
	start := f.now

	_, err := f.svc.ClassSuggestions(ctx, f.classID, intervention.CategoryMindfulness)
	require.NoError(t, err)

	f.now = start.Add(90 * time.Second)
	_, err = f.svc.ClassSuggestions(ctx, f.classID, "")
	require.NoError(t, err)
	require.Equal(t, 2, cache.sets)

	f.now = start.Add(150 * time.Second)

	mindful, err := f.svc.ClassSuggestions(ctx, f.classID, intervention.CategoryMindfulness)
	require.NoError(t, err)
	assert.True(t, mindful.GeneratedAt.Equal(f.now), "mindfulness pass should be recomputed")

	all, err := f.svc.ClassSuggestions(ctx, f.classID, "")
	require.NoError(t, err)
	assert.True(t, all.GeneratedAt.Equal(start.Add(90*time.Second)), "unfiltered pass should still be cached")
	assert.Equal(t, 3, cache.sets)
}

func TestInterventionService_RecordImplementationDropsCachedPasses(t *testing.T) {
	f := newInterventionFixture(t)
	cache := newFakeSuggestionCache(func() time.Time { return f.now })
	f.svc.cache = cache
	ctx := context.Background()

	_, err := f.svc.ClassSuggestions(ctx, f.classID, "")
	require.NoError(t, err)
	_, err = f.svc.ClassSuggestions(ctx, f.classID, intervention.CategoryMovement)
	require.NoError(t, err)
	require.Len(t, cache.entries, 2)

	_, err = f.svc.RecordImplementation(ctx, f.classID, "teacher-1", model.RecordImplementationRequest{ActivityID: "movement-break-1"})
	require.NoError(t, err)

	assert.Empty(t, cache.entries)
}
