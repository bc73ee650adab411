package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/config"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/model"
)

// examCacheTTL bounds how stale a cached exam definition may get.
const examCacheTTL = 10 * time.Minute

// ExamRepository reads exam definitions, caching them in Redis.
type ExamRepository struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewExamRepository creates a new ExamRepository. rdb may be nil to disable
// caching.
func NewExamRepository(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *ExamRepository {
	return &ExamRepository{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "exam_repository").Logger(),
	}
}

// GetByID returns the exam with its question IDs in display order.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	if e, ok := r.cached(ctx, id); ok {
		return e, nil
	}

	e := &model.Exam{}
	err := r.pool.QueryRow(ctx,
		`SELECT e.id, e.title, e.class_id, e.duration_minutes, e.anti_cheat_enabled,
		        e.require_webcam, e.status, e.starts_at, e.ends_at,
		        COALESCE(array_agg(q.question_id ORDER BY q.position)
		                 FILTER (WHERE q.question_id IS NOT NULL), '{}')
		 FROM exams e
		 LEFT JOIN exam_questions q ON q.exam_id = e.id
		 WHERE e.id = $1
		 GROUP BY e.id`, id,
	).Scan(&e.ID, &e.Title, &e.ClassID, &e.DurationMinutes, &e.AntiCheatEnabled,
		&e.RequireWebcam, &e.Status, &e.StartsAt, &e.EndsAt, &e.QuestionIDs)
	if err != nil {
		return nil, err
	}

	r.store(ctx, e)
	return e, nil
}

func (r *ExamRepository) cached(ctx context.Context, id uuid.UUID) (*model.Exam, bool) {
	if r.rdb == nil {
		return nil, false
	}
	raw, err := r.rdb.Get(ctx, config.CacheKey.ExamPayloadKey(id.String())).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn().Err(err).Msg("Exam cache read failed")
		}
		return nil, false
	}
	var e model.Exam
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, false
	}
	return &e, true
}

func (r *ExamRepository) store(ctx context.Context, e *model.Exam) {
	if r.rdb == nil {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := r.rdb.Set(ctx, config.CacheKey.ExamPayloadKey(e.ID.String()), data, examCacheTTL).Err(); err != nil {
		r.log.Warn().Err(err).Msg("Exam cache write failed")
	}
}
