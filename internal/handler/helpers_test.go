package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/analytics"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/intervention"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/middleware"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/model"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/response"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/service"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

var testLog = zerolog.Nop()

// asUser injects claims the way RequireAuth would.
func asUser(userID string, role service.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := &service.Claims{AppMetadata: service.AppMetadata{Role: role}}
		claims.Subject = userID
		c.Set(middleware.ContextKeyClaims, claims)
		c.Next()
	}
}

type envelope struct {
	Data  json.RawMessage     `json:"data"`
	Error *response.ErrorBody `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

// ─── Exam fakes ────────────────────────────────────────────────────────

type examStore struct {
	exams map[uuid.UUID]*model.Exam
}

func (s *examStore) GetByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	e, ok := s.exams[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return e, nil
}

type sessionStore struct{}

func (sessionStore) Open(_ context.Context, examID uuid.UUID, studentID string) (*model.ExamSession, error) {
	return &model.ExamSession{
		ID:        uuid.New(),
		ExamID:    examID,
		StudentID: studentID,
		StartedAt: time.Now(),
		Status:    model.SessionStatusInProgress,
	}, nil
}

type enqueuer struct {
	mu   sync.Mutex
	jobs map[string]int
}

func (e *enqueuer) Enqueue(queue string, _ any) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.jobs == nil {
		e.jobs = make(map[string]int)
	}
	e.jobs[queue]++
	return true
}

func (e *enqueuer) Broadcast(string, any) bool { return true }

func (e *enqueuer) count(queue string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.jobs[queue]
}

func publishedExam(questions ...string) *model.Exam {
	return &model.Exam{
		ID:               uuid.New(),
		Title:            "Biology",
		DurationMinutes:  30,
		AntiCheatEnabled: true,
		QuestionIDs:      questions,
		Status:           model.ExamStatusPublished,
	}
}

// ─── Intervention fakes ────────────────────────────────────────────────

type classStore struct {
	classes map[uuid.UUID]*model.Class
	moods   []analytics.MoodEntry
}

func (s *classStore) GetByID(_ context.Context, id uuid.UUID) (*model.Class, error) {
	c, ok := s.classes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return c, nil
}

func (s *classStore) ListMoodEntries(context.Context, uuid.UUID, time.Time) ([]analytics.MoodEntry, error) {
	return s.moods, nil
}

type activityStore struct {
	mu       sync.Mutex
	recorded []model.InterventionImplementation
}

func (s *activityStore) ListActivities(context.Context) ([]intervention.Activity, error) {
	return intervention.DefaultCatalog(), nil
}

func (s *activityStore) RecordImplementation(_ context.Context, impl *model.InterventionImplementation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	impl.ID = uuid.New()
	s.recorded = append(s.recorded, *impl)
	return nil
}

func (s *activityStore) RecentActivityIDs(context.Context, uuid.UUID, time.Time) ([]string, error) {
	return nil, nil
}

// ─── Setting fake ──────────────────────────────────────────────────────

type settingStore struct {
	mu   sync.Mutex
	rows map[string]string
}

func (s *settingStore) GetByKey(_ context.Context, key string) (*model.AppSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.rows[key]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &model.AppSetting{Key: key, Value: v}, nil
}

func (s *settingStore) Upsert(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rows == nil {
		s.rows = make(map[string]string)
	}
	s.rows[key] = value
	return nil
}
