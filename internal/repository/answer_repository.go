package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AnswerRepository persists in-progress answers.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// Upsert writes every answer of the snapshot. Rows saved later than savedAt
// are kept so an out-of-order autosave cannot roll an answer back.
func (r *AnswerRepository) Upsert(ctx context.Context, sessionID uuid.UUID, answers map[string]string, savedAt time.Time) error {
	return upsertAnswers(ctx, r.pool, sessionID, answers, savedAt)
}

func upsertAnswers(ctx context.Context, q batcher, sessionID uuid.UUID, answers map[string]string, savedAt time.Time) error {
	b := &pgx.Batch{}
	for qid, ans := range answers {
		b.Queue(
			`INSERT INTO exam_answers (session_id, question_id, answer, updated_at)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (session_id, question_id) DO UPDATE
			 SET answer = EXCLUDED.answer, updated_at = EXCLUDED.updated_at
			 WHERE exam_answers.updated_at <= EXCLUDED.updated_at`,
			sessionID, qid, ans, savedAt,
		)
	}
	return execBatch(ctx, q, b)
}
