package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/intervention"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/model"
)

// InterventionRepository handles the activity catalog and the log of
// activities teachers ran.
type InterventionRepository struct {
	pool *pgxpool.Pool
}

// NewInterventionRepository creates a new InterventionRepository.
func NewInterventionRepository(pool *pgxpool.Pool) *InterventionRepository {
	return &InterventionRepository{pool: pool}
}

// ListActivities returns the catalog in its stored order.
func (r *InterventionRepository) ListActivities(ctx context.Context) ([]intervention.Activity, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, description, category, target_moods, duration_minutes,
		        effectiveness, difficulty, materials, instructions, benefits
		 FROM intervention_activities
		 ORDER BY position ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []intervention.Activity
	for rows.Next() {
		var a intervention.Activity
		if err := rows.Scan(&a.ID, &a.Title, &a.Description, &a.Category, &a.TargetMoods,
			&a.DurationMinutes, &a.Effectiveness, &a.Difficulty, &a.Materials,
			&a.Instructions, &a.Benefits); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// UpsertActivities replaces catalog entries by ID, keeping the slice order.
func (r *InterventionRepository) UpsertActivities(ctx context.Context, activities []intervention.Activity) error {
	b := &pgx.Batch{}
	for i, a := range activities {
		b.Queue(
			`INSERT INTO intervention_activities
			   (id, title, description, category, target_moods, duration_minutes,
			    effectiveness, difficulty, materials, instructions, benefits, position, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
			 ON CONFLICT (id) DO UPDATE SET
			   title = EXCLUDED.title, description = EXCLUDED.description,
			   category = EXCLUDED.category, target_moods = EXCLUDED.target_moods,
			   duration_minutes = EXCLUDED.duration_minutes, effectiveness = EXCLUDED.effectiveness,
			   difficulty = EXCLUDED.difficulty, materials = EXCLUDED.materials,
			   instructions = EXCLUDED.instructions, benefits = EXCLUDED.benefits,
			   position = EXCLUDED.position, updated_at = NOW()`,
			a.ID, a.Title, a.Description, a.Category, nonNil(a.TargetMoods), a.DurationMinutes,
			a.Effectiveness, a.Difficulty, nonNil(a.Materials), nonNil(a.Instructions), nonNil(a.Benefits), i,
		)
	}
	return execBatch(ctx, r.pool, b)
}

// RecordImplementation logs that a teacher ran an activity with a class.
func (r *InterventionRepository) RecordImplementation(ctx context.Context, impl *model.InterventionImplementation) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO intervention_implementations (class_id, teacher_id, activity_id, notes)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, implemented_at`,
		impl.ClassID, impl.TeacherID, impl.ActivityID, impl.Notes,
	).Scan(&impl.ID, &impl.ImplementedAt)
}

// RecentActivityIDs returns the activities run with the class since the
// given time, most recent first.
func (r *InterventionRepository) RecentActivityIDs(ctx context.Context, classID uuid.UUID, since time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT activity_id
		 FROM intervention_implementations
		 WHERE class_id = $1 AND implemented_at >= $2
		 GROUP BY activity_id
		 ORDER BY MAX(implemented_at) DESC`, classID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
