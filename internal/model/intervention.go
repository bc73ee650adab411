package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/analytics"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/intervention"
)

// Class is the subset of class data the intervention tools need.
type Class struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	SchoolID uuid.UUID `json:"school_id"`
}

// InterventionImplementation records that a teacher ran an activity.
type InterventionImplementation struct {
	ID            uuid.UUID `json:"id"`
	ClassID       uuid.UUID `json:"class_id"`
	TeacherID     string    `json:"teacher_id"`
	ActivityID    string    `json:"activity_id"`
	Notes         string    `json:"notes,omitempty"`
	ImplementedAt time.Time `json:"implemented_at"`
}

// RecordImplementationRequest is the payload for logging a used activity.
type RecordImplementationRequest struct {
	ActivityID string `json:"activity_id" binding:"required,max=64"`
	Notes      string `json:"notes" binding:"omitempty,max=1000"`
}

// SuggestRequest scores a caller-supplied snapshot, optionally against a
// caller-supplied catalog.
type SuggestRequest struct {
	RiskLevel         string                  `json:"risk_level" binding:"required,risk_level"`
	DominantMoods     []string                `json:"dominant_moods" binding:"omitempty,max=10"`
	RecentActivityIDs []string                `json:"recent_activity_ids" binding:"omitempty,max=50"`
	TimeOfDayHour     *int                    `json:"time_of_day_hour" binding:"omitempty,min=0,max=23"`
	Activities        []intervention.Activity `json:"activities" binding:"omitempty,max=200"`
}

// ClassSuggestions is the response of a class suggestion pass.
type ClassSuggestions struct {
	ClassID     uuid.UUID                 `json:"class_id"`
	Metrics     analytics.Metrics         `json:"metrics"`
	Snapshot    intervention.Snapshot     `json:"snapshot"`
	Suggestions []intervention.Suggestion `json:"suggestions"`
	GeneratedAt time.Time                 `json:"generated_at"`
}
