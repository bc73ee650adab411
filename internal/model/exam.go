package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamStatus enumerates the possible states of an exam.
type ExamStatus string

const (
	ExamStatusDraft     ExamStatus = "DRAFT"
	ExamStatusPublished ExamStatus = "PUBLISHED"
	ExamStatusArchived  ExamStatus = "ARCHIVED"
)

// Exam is the definition a student's exam session is built from. Questions
// are referenced by ID only; their content is served separately.
type Exam struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	ClassID          uuid.UUID  `json:"class_id"`
	DurationMinutes  int        `json:"duration_minutes"`
	AntiCheatEnabled bool       `json:"anti_cheat_enabled"`
	RequireWebcam    bool       `json:"require_webcam"`
	QuestionIDs      []string   `json:"question_ids"`
	Status           ExamStatus `json:"status"`
	StartsAt         *time.Time `json:"starts_at,omitempty"`
	EndsAt           *time.Time `json:"ends_at,omitempty"`
}

// DurationSeconds is the countdown length of a session of this exam.
func (e *Exam) DurationSeconds() int {
	return e.DurationMinutes * 60
}

// Available reports whether students may sit the exam at t.
func (e *Exam) Available(t time.Time) bool {
	if e.Status != ExamStatusPublished {
		return false
	}
	if e.StartsAt != nil && t.Before(*e.StartsAt) {
		return false
	}
	if e.EndsAt != nil && !t.Before(*e.EndsAt) {
		return false
	}
	return true
}
