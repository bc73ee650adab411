package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/config"
)

// SessionFinalizer closes a session with its final answers.
type SessionFinalizer interface {
	Finalize(ctx context.Context, sessionID uuid.UUID, answers map[string]string, reason string, at time.Time) error
}

// SubmissionWorker consumes persist_submissions_queue. Each item stores the
// final answers and marks the session submitted in one transaction.
type SubmissionWorker struct {
	store SessionFinalizer
	consumer
}

func NewSubmissionWorker(queue Queue, store SessionFinalizer, log zerolog.Logger) *SubmissionWorker {
	w := &SubmissionWorker{store: store}
	w.consumer = newConsumer(queue, config.WorkerKey.PersistSubmissionsQueue, w.persist,
		log.With().Str("component", "submission_worker").Logger())
	return w
}

// Start begins the worker loop. Call in a goroutine.
func (w *SubmissionWorker) Start(ctx context.Context) {
	w.run(ctx)
}

func (w *SubmissionWorker) persist(ctx context.Context, raw string) error {
	var p SubmissionPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return fmt.Errorf("%w: %v", errDiscard, err)
	}
	if p.SessionID == uuid.Nil {
		return fmt.Errorf("%w: missing session id", errDiscard)
	}
	if err := w.store.Finalize(ctx, p.SessionID, p.Answers, p.Reason, p.SubmittedAt); err != nil {
		return fmt.Errorf("finalize session %s: %w", p.SessionID, err)
	}
	w.log.Info().
		Str("session_id", p.SessionID.String()).
		Str("student_id", p.StudentID).
		Str("reason", p.Reason).
		Int("answered", len(p.Answers)).
		Msg("Session finalized")
	return nil
}
