package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/model"
)

// SecurityEventRepository stores the proctoring audit trail.
type SecurityEventRepository struct {
	pool *pgxpool.Pool
}

// NewSecurityEventRepository creates a new SecurityEventRepository.
func NewSecurityEventRepository(pool *pgxpool.Pool) *SecurityEventRepository {
	return &SecurityEventRepository{pool: pool}
}

var securityEventColumns = []string{"session_id", "exam_id", "student_id", "event_type", "event_data", "recorded_at"}

// CopyFrom bulk-inserts events with the COPY protocol.
func (r *SecurityEventRepository) CopyFrom(ctx context.Context, events []model.SecurityEventRecord) (int64, error) {
	rows := make([][]any, 0, len(events))
	for _, ev := range events {
		data, err := json.Marshal(ev.Data)
		if err != nil {
			return 0, err
		}
		rows = append(rows, []any{ev.SessionID, ev.ExamID, ev.StudentID, ev.EventType, data, ev.RecordedAt})
	}

	return r.pool.CopyFrom(ctx,
		pgx.Identifier{"exam_security_events"},
		securityEventColumns,
		pgx.CopyFromRows(rows),
	)
}

// Insert stores a single event.
func (r *SecurityEventRepository) Insert(ctx context.Context, ev model.SecurityEventRecord) error {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO exam_security_events (session_id, exam_id, student_id, event_type, event_data, recorded_at)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6)`,
		ev.SessionID, ev.ExamID, ev.StudentID, ev.EventType, data, ev.RecordedAt,
	)
	return err
}

// CountByExam returns the number of recorded events of the exam per event type.
func (r *SecurityEventRepository) CountByExam(ctx context.Context, examID uuid.UUID) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT event_type, COUNT(*) FROM exam_security_events
		 WHERE exam_id = $1 GROUP BY event_type`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var eventType string
		var n int64
		if err := rows.Scan(&eventType, &n); err != nil {
			return nil, err
		}
		counts[eventType] = n
	}
	return counts, rows.Err()
}
