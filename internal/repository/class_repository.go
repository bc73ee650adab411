package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/analytics"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/model"
)

// ClassRepository handles class and class mood data access.
type ClassRepository struct {
	pool *pgxpool.Pool
}

// NewClassRepository creates a new ClassRepository.
func NewClassRepository(pool *pgxpool.Pool) *ClassRepository {
	return &ClassRepository{pool: pool}
}

// GetByID retrieves a class by its ID.
func (r *ClassRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Class, error) {
	c := &model.Class{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, school_id FROM classes WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.SchoolID)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListMoodEntries returns the moods recorded by the class's students since
// the given time, oldest first.
func (r *ClassRepository) ListMoodEntries(ctx context.Context, classID uuid.UUID, since time.Time) ([]analytics.MoodEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT m.student_id, m.mood, m.recorded_at
		 FROM mood_entries m
		 JOIN class_students cs ON cs.student_id = m.student_id
		 WHERE cs.class_id = $1 AND m.recorded_at >= $2
		 ORDER BY m.recorded_at ASC`, classID, since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []analytics.MoodEntry
	for rows.Next() {
		var e analytics.MoodEntry
		if err := rows.Scan(&e.StudentID, &e.Mood, &e.RecordedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
