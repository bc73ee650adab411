package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates exam session states.
type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusSubmitted  SessionStatus = "SUBMITTED"
)

// ExamSession is a student's attempt at an exam.
type ExamSession struct {
	ID           uuid.UUID     `json:"id"`
	ExamID       uuid.UUID     `json:"exam_id"`
	StudentID    string        `json:"student_id"`
	StartedAt    time.Time     `json:"started_at"`
	SubmittedAt  *time.Time    `json:"submitted_at,omitempty"`
	SubmitReason string        `json:"submit_reason,omitempty"`
	Status       SessionStatus `json:"status"`
}

// SecurityEventRecord is the persisted form of a proctoring event.
type SecurityEventRecord struct {
	SessionID  uuid.UUID      `json:"session_id"`
	ExamID     uuid.UUID      `json:"exam_id"`
	StudentID  string         `json:"student_id"`
	EventType  string         `json:"event_type"`
	Data       map[string]any `json:"data,omitempty"`
	RecordedAt time.Time      `json:"recorded_at"`
}
