package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/config"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/model"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
)

// SecurityEventStore writes proctoring events.
type SecurityEventStore interface {
	CopyFrom(ctx context.Context, events []model.SecurityEventRecord) (int64, error)
	Insert(ctx context.Context, ev model.SecurityEventRecord) error
}

// SecurityEventWorker batches persist_security_events_queue into
// exam_security_events.
type SecurityEventWorker struct {
	queue Queue
	store SecurityEventStore
	log   zerolog.Logger

	pollTimeout  time.Duration
	errorBackoff time.Duration
	requeueDelay time.Duration
}

func NewSecurityEventWorker(queue Queue, store SecurityEventStore, log zerolog.Logger) *SecurityEventWorker {
	return &SecurityEventWorker{
		queue:        queue,
		store:        store,
		log:          log.With().Str("component", "security_event_worker").Logger(),
		pollTimeout:  PollTimeout,
		errorBackoff: ErrorBackoff,
		requeueDelay: 2 * time.Second,
	}
}

// Start begins the worker loop. Call in a goroutine.
func (w *SecurityEventWorker) Start(ctx context.Context) {
	w.log.Info().Msg("SecurityEventWorker started")

	buffer := make([]model.SecurityEventRecord, 0, BatchSize)
	lastFlush := time.Now()

	for {
		// 1. Flush on size or age
		if len(buffer) > 0 && (len(buffer) >= BatchSize || time.Since(lastFlush) >= BatchTimeout) {
			w.flushSafe(ctx, buffer)
			buffer = buffer[:0]
			lastFlush = time.Now()
		}

		// 2. Graceful shutdown
		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		// 3. Fetch
		raw, err := w.queue.Pop(ctx, config.WorkerKey.PersistSecurityEventsQueue, w.pollTimeout)
		if err != nil {
			if errors.Is(err, ErrEmpty) || ctx.Err() != nil {
				continue
			}
			w.log.Error().Err(err).Msg("Queue connection error, backing off")
			sleep(ctx, w.errorBackoff)
			continue
		}

		var ev model.SecurityEventRecord
		if err := json.Unmarshal([]byte(raw), &ev); err != nil || ev.SessionID == uuid.Nil || ev.EventType == "" {
			// Malformed items can never succeed.
			w.log.Error().Err(err).Str("data", raw).Msg("Discarding malformed security event")
			continue
		}
		buffer = append(buffer, ev)
	}
}

// flushSafe attempts a bulk copy, then row-by-row inserts, then requeues.
func (w *SecurityEventWorker) flushSafe(ctx context.Context, batch []model.SecurityEventRecord) {
	n, err := w.store.CopyFrom(ctx, batch)
	if err == nil {
		w.log.Debug().Int64("count", n).Msg("Security events persisted")
		return
	}
	w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")
	w.fallbackInsert(ctx, batch)
}

func (w *SecurityEventWorker) fallbackInsert(ctx context.Context, batch []model.SecurityEventRecord) {
	var failed []model.SecurityEventRecord
	for _, ev := range batch {
		if err := w.store.Insert(ctx, ev); err != nil {
			w.log.Error().Err(err).
				Str("session_id", ev.SessionID.String()).
				Str("event_type", ev.EventType).
				Msg("Insert failed, requeueing")
			failed = append(failed, ev)
		}
	}
	if len(failed) > 0 {
		w.requeue(ctx, failed)
	}
}

func (w *SecurityEventWorker) requeue(ctx context.Context, items []model.SecurityEventRecord) {
	payloads := make([]string, 0, len(items))
	for _, ev := range items {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		payloads = append(payloads, string(data))
	}

	if err := w.queue.Push(context.WithoutCancel(ctx), config.WorkerKey.PersistSecurityEventsQueue, payloads...); err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue items. Data loss occurred.")
		return
	}
	w.log.Info().Int("count", len(payloads)).Msg("Requeued failed items")
	// Avoid thrashing while the database is down.
	sleep(ctx, w.requeueDelay)
}

func (w *SecurityEventWorker) shutdown(buffer []model.SecurityEventRecord) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownDeadline)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(ctx, buffer)
	}
}
