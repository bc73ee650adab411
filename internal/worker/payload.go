package worker

import (
	"time"

	"github.com/google/uuid"
)

// AnswersPayload is an autosave of a session's in-progress answers.
type AnswersPayload struct {
	SessionID uuid.UUID         `json:"session_id"`
	ExamID    uuid.UUID         `json:"exam_id"`
	StudentID string            `json:"student_id"`
	Answers   map[string]string `json:"answers"`
	SavedAt   time.Time         `json:"saved_at"`
}

// SubmissionPayload carries the final answers of a submitted session.
type SubmissionPayload struct {
	SessionID   uuid.UUID         `json:"session_id"`
	ExamID      uuid.UUID         `json:"exam_id"`
	StudentID   string            `json:"student_id"`
	Answers     map[string]string `json:"answers"`
	Reason      string            `json:"reason"`
	SubmittedAt time.Time         `json:"submitted_at"`
}
