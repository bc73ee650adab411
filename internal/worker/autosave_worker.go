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

// AnswerStore persists answer snapshots.
type AnswerStore interface {
	Upsert(ctx context.Context, sessionID uuid.UUID, answers map[string]string, savedAt time.Time) error
}

// AutosaveWorker consumes persist_answers_queue and UPSERTs answers to PostgreSQL.
type AutosaveWorker struct {
	store AnswerStore
	consumer
}

// NewAutosaveWorker creates a new AutosaveWorker.
func NewAutosaveWorker(queue Queue, store AnswerStore, log zerolog.Logger) *AutosaveWorker {
	w := &AutosaveWorker{store: store}
	w.consumer = newConsumer(queue, config.WorkerKey.PersistAnswersQueue, w.persist,
		log.With().Str("component", "autosave_worker").Logger())
	return w
}

// Start begins the worker loop. Call in a goroutine.
func (w *AutosaveWorker) Start(ctx context.Context) {
	w.run(ctx)
}

func (w *AutosaveWorker) persist(ctx context.Context, raw string) error {
	var p AnswersPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return fmt.Errorf("%w: %v", errDiscard, err)
	}
	if p.SessionID == uuid.Nil {
		return fmt.Errorf("%w: missing session id", errDiscard)
	}
	if len(p.Answers) == 0 {
		return nil
	}
	if err := w.store.Upsert(ctx, p.SessionID, p.Answers, p.SavedAt); err != nil {
		return fmt.Errorf("upsert answers for session %s: %w", p.SessionID, err)
	}
	return nil
}
