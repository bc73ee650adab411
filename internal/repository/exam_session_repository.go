package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/model"
)

// ExamSessionRepository handles exam session data access.
type ExamSessionRepository struct {
	pool *pgxpool.Pool
}

// NewExamSessionRepository creates a new ExamSessionRepository.
func NewExamSessionRepository(pool *pgxpool.Pool) *ExamSessionRepository {
	return &ExamSessionRepository{pool: pool}
}

const sessionColumns = `id, exam_id, student_id, started_at, submitted_at, COALESCE(submit_reason, ''), status`

func scanSession(row pgx.Row) (*model.ExamSession, error) {
	s := &model.ExamSession{}
	if err := row.Scan(&s.ID, &s.ExamID, &s.StudentID, &s.StartedAt, &s.SubmittedAt, &s.SubmitReason, &s.Status); err != nil {
		return nil, err
	}
	return s, nil
}

// Open returns the student's session for the exam, creating it on first join.
func (r *ExamSessionRepository) Open(ctx context.Context, examID uuid.UUID, studentID string) (*model.ExamSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`INSERT INTO exam_sessions (exam_id, student_id, status)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (exam_id, student_id) DO UPDATE SET exam_id = EXCLUDED.exam_id
		 RETURNING `+sessionColumns,
		examID, studentID, model.SessionStatusInProgress,
	))
}

// Finalize stores the final answers and marks the session submitted in one
// transaction. Already submitted sessions are left untouched.
func (r *ExamSessionRepository) Finalize(ctx context.Context, sessionID uuid.UUID, answers map[string]string, reason string, at time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE exam_sessions
		 SET status = $1, submitted_at = $2, submit_reason = $3
		 WHERE id = $4 AND status <> $1`,
		model.SessionStatusSubmitted, at, reason, sessionID)
	if err != nil {
		return fmt.Errorf("mark submitted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil
	}

	if err := upsertAnswers(ctx, tx, sessionID, answers, at); err != nil {
		return fmt.Errorf("store answers: %w", err)
	}
	return tx.Commit(ctx)
}
