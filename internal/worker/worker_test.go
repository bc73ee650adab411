package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/config"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/model"
)

// ─── Fakes ─────────────────────────────────────────────────────────────

type fakeQueue struct {
	mu      sync.Mutex
	items   map[string][]string
	popErr  error
	onEmpty func()
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{items: make(map[string][]string)}
}

func (q *fakeQueue) Pop(ctx context.Context, queue string, _ time.Duration) (string, error) {
	item, err := q.TryPop(ctx, queue)
	if errors.Is(err, ErrEmpty) {
		q.mu.Lock()
		hook := q.onEmpty
		q.mu.Unlock()
		if hook != nil {
			hook()
		}
	}
	return item, err
}

func (q *fakeQueue) TryPop(_ context.Context, queue string) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.popErr != nil {
		err := q.popErr
		q.popErr = nil
		return "", err
	}
	list := q.items[queue]
	if len(list) == 0 {
		return "", ErrEmpty
	}
	q.items[queue] = list[1:]
	return list[0], nil
}

func (q *fakeQueue) Push(_ context.Context, queue string, payloads ...string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items[queue] = append(q.items[queue], payloads...)
	return nil
}

func (q *fakeQueue) pushJSON(t *testing.T, queue string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, q.Push(context.Background(), queue, string(data)))
}

func (q *fakeQueue) len(queue string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items[queue])
}

type fakeAnswerStore struct {
	mu    sync.Mutex
	saved map[uuid.UUID]map[string]string
	err   error
}

func (s *fakeAnswerStore) Upsert(_ context.Context, sessionID uuid.UUID, answers map[string]string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.saved == nil {
		s.saved = make(map[uuid.UUID]map[string]string)
	}
	s.saved[sessionID] = answers
	return nil
}

type fakeFinalizer struct {
	reasons map[uuid.UUID]string
}

func (f *fakeFinalizer) Finalize(_ context.Context, sessionID uuid.UUID, _ map[string]string, reason string, _ time.Time) error {
	if f.reasons == nil {
		f.reasons = make(map[uuid.UUID]string)
	}
	f.reasons[sessionID] = reason
	return nil
}

type fakeEventStore struct {
	mu        sync.Mutex
	copyErr   error
	badType   string
	copied    []model.SecurityEventRecord
	inserted  []model.SecurityEventRecord
	copyCalls int
}

func (s *fakeEventStore) CopyFrom(_ context.Context, events []model.SecurityEventRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.copyCalls++
	if s.copyErr != nil {
		return 0, s.copyErr
	}
	s.copied = append(s.copied, events...)
	return int64(len(events)), nil
}

func (s *fakeEventStore) Insert(_ context.Context, ev model.SecurityEventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.EventType == s.badType {
		return errors.New("insert failed")
	}
	s.inserted = append(s.inserted, ev)
	return nil
}

type fakeSink struct {
	mu        sync.Mutex
	delivered []Message
	batches   int
}

func (s *fakeSink) Deliver(_ context.Context, msgs []Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches++
	s.delivered = append(s.delivered, msgs...)
	return nil
}

func securityEvent(eventType string) model.SecurityEventRecord {
	return model.SecurityEventRecord{
		SessionID:  uuid.New(),
		ExamID:     uuid.New(),
		StudentID:  "student-1",
		EventType:  eventType,
		RecordedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
}

// ─── Autosave ──────────────────────────────────────────────────────────

func TestAutosaveWorker_PersistsPayload(t *testing.T) {
	q := newFakeQueue()
	store := &fakeAnswerStore{}
	w := NewAutosaveWorker(q, store, zerolog.Nop())

	sessionID := uuid.New()
	q.pushJSON(t, config.WorkerKey.PersistAnswersQueue, AnswersPayload{
		SessionID: sessionID,
		Answers:   map[string]string{"q1": "a"},
		SavedAt:   time.Now(),
	})

	w.processNext(context.Background())

	assert.Equal(t, map[string]string{"q1": "a"}, store.saved[sessionID])
	assert.Zero(t, q.len(config.WorkerKey.PersistAnswersQueue))
}

func TestAutosaveWorker_DiscardsMalformed(t *testing.T) {
	q := newFakeQueue()
	store := &fakeAnswerStore{}
	w := NewAutosaveWorker(q, store, zerolog.Nop())

	require.NoError(t, q.Push(context.Background(), config.WorkerKey.PersistAnswersQueue, "{not json", `{"answers":{"q1":"a"}}`))

	w.processNext(context.Background())
	w.processNext(context.Background())

	assert.Empty(t, store.saved)
	assert.Zero(t, q.len(config.WorkerKey.PersistAnswersQueue))
}

func TestAutosaveWorker_RequeuesOnStoreFailure(t *testing.T) {
	q := newFakeQueue()
	store := &fakeAnswerStore{err: errors.New("db down")}
	w := NewAutosaveWorker(q, store, zerolog.Nop())
	w.retryDelay = 0

	q.pushJSON(t, config.WorkerKey.PersistAnswersQueue, AnswersPayload{
		SessionID: uuid.New(),
		Answers:   map[string]string{"q1": "a"},
	})

	w.processNext(context.Background())

	assert.Equal(t, 1, q.len(config.WorkerKey.PersistAnswersQueue))
}

func TestAutosaveWorker_DrainsOnShutdown(t *testing.T) {
	q := newFakeQueue()
	store := &fakeAnswerStore{}
	w := NewAutosaveWorker(q, store, zerolog.Nop())

	for range 3 {
		q.pushJSON(t, config.WorkerKey.PersistAnswersQueue, AnswersPayload{
			SessionID: uuid.New(),
			Answers:   map[string]string{"q1": "a"},
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Start(ctx)

	assert.Len(t, store.saved, 3)
}

func TestAutosaveWorker_BacksOffOnQueueError(t *testing.T) {
	q := newFakeQueue()
	q.popErr = errors.New("connection reset")
	w := NewAutosaveWorker(q, &fakeAnswerStore{}, zerolog.Nop())
	w.errorBackoff = 0

	w.processNext(context.Background())

	assert.Nil(t, q.popErr)
}

// ─── Submission ────────────────────────────────────────────────────────

func TestSubmissionWorker_Finalizes(t *testing.T) {
	q := newFakeQueue()
	store := &fakeFinalizer{}
	w := NewSubmissionWorker(q, store, zerolog.Nop())

	sessionID := uuid.New()
	q.pushJSON(t, config.WorkerKey.PersistSubmissionsQueue, SubmissionPayload{
		SessionID:   sessionID,
		Answers:     map[string]string{},
		Reason:      "timeout",
		SubmittedAt: time.Now(),
	})

	w.processNext(context.Background())

	assert.Equal(t, "timeout", store.reasons[sessionID])
}

// ─── Security events ───────────────────────────────────────────────────

func TestSecurityEventWorker_BulkCopy(t *testing.T) {
	store := &fakeEventStore{}
	w := NewSecurityEventWorker(newFakeQueue(), store, zerolog.Nop())

	w.flushSafe(context.Background(), []model.SecurityEventRecord{
		securityEvent("tab_switch"),
		securityEvent("right_click"),
	})

	assert.Len(t, store.copied, 2)
	assert.Empty(t, store.inserted)
}

func TestSecurityEventWorker_FallbackAndRequeue(t *testing.T) {
	q := newFakeQueue()
	store := &fakeEventStore{copyErr: errors.New("copy failed"), badType: "webcam_denied"}
	w := NewSecurityEventWorker(q, store, zerolog.Nop())
	w.requeueDelay = 0

	w.flushSafe(context.Background(), []model.SecurityEventRecord{
		securityEvent("tab_switch"),
		securityEvent("webcam_denied"),
		securityEvent("right_click"),
	})

	require.Len(t, store.inserted, 2)
	assert.Equal(t, "tab_switch", store.inserted[0].EventType)
	assert.Equal(t, "right_click", store.inserted[1].EventType)

	require.Equal(t, 1, q.len(config.WorkerKey.PersistSecurityEventsQueue))
	raw, err := q.TryPop(context.Background(), config.WorkerKey.PersistSecurityEventsQueue)
	require.NoError(t, err)
	var requeued model.SecurityEventRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &requeued))
	assert.Equal(t, "webcam_denied", requeued.EventType)
}

func TestSecurityEventWorker_FlushesBufferOnShutdown(t *testing.T) {
	q := newFakeQueue()
	store := &fakeEventStore{}
	w := NewSecurityEventWorker(q, store, zerolog.Nop())

	for _, typ := range []string{"tab_switch", "right_click", "keyboard_shortcut"} {
		q.pushJSON(t, config.WorkerKey.PersistSecurityEventsQueue, securityEvent(typ))
	}
	require.NoError(t, q.Push(context.Background(), config.WorkerKey.PersistSecurityEventsQueue, "garbage"))

	ctx, cancel := context.WithCancel(context.Background())
	q.onEmpty = cancel
	w.Start(ctx)

	assert.Equal(t, 1, store.copyCalls)
	assert.Len(t, store.copied, 3)
}

// ─── Publisher ─────────────────────────────────────────────────────────

func TestPublisher_DeliversOnShutdown(t *testing.T) {
	sink := &fakeSink{}
	p := NewPublisher(sink, 8, zerolog.Nop())

	assert.True(t, p.Enqueue("jobs", map[string]int{"n": 1}))
	assert.True(t, p.Broadcast("exam:e1:monitor", map[string]string{"type": "state"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Start(ctx)

	require.Len(t, sink.delivered, 2)
	assert.Equal(t, Message{Kind: KindQueue, Key: "jobs", Payload: `{"n":1}`}, sink.delivered[0])
	assert.Equal(t, KindChannel, sink.delivered[1].Kind)
	assert.Equal(t, "exam:e1:monitor", sink.delivered[1].Key)
}

func TestPublisher_BatchesWaitingMessages(t *testing.T) {
	sink := &fakeSink{}
	p := NewPublisher(sink, 8, zerolog.Nop())
	for i := range 5 {
		require.True(t, p.Enqueue("jobs", i))
	}

	p.flushRemaining(nil)

	assert.Equal(t, 1, sink.batches)
	assert.Len(t, sink.delivered, 5)
}

func TestPublisher_DropsWhenFullOrUnencodable(t *testing.T) {
	p := NewPublisher(&fakeSink{}, 1, zerolog.Nop())

	assert.True(t, p.Enqueue("jobs", 1))
	assert.False(t, p.Enqueue("jobs", 2))
	assert.False(t, p.Broadcast("ch", make(chan int)))
}
