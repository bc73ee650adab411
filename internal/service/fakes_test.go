package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/analytics"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/exam"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/intervention"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/model"
)

// ─── Clock ─────────────────────────────────────────────────────────────

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock *fakeClock
	at    time.Time
	f     func()
	done  bool
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) exam.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.done
	t.done = true
	return active
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.done && !t.at.After(c.now) {
			t.done = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

// ─── Exam stores ───────────────────────────────────────────────────────

type fakeExamStore struct {
	exams map[uuid.UUID]*model.Exam
}

func (s *fakeExamStore) GetByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	e, ok := s.exams[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return e, nil
}

type fakeSessionStore struct {
	mu     sync.Mutex
	status model.SessionStatus
	opened int
}

func (s *fakeSessionStore) Open(_ context.Context, examID uuid.UUID, studentID string) (*model.ExamSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened++
	status := s.status
	if status == "" {
		status = model.SessionStatusInProgress
	}
	return &model.ExamSession{
		ID:        uuid.New(),
		ExamID:    examID,
		StudentID: studentID,
		StartedAt: time.Now(),
		Status:    status,
	}, nil
}

type enqueued struct {
	key string
	v   any
}

type fakeEnqueuer struct {
	mu         sync.Mutex
	jobs       []enqueued
	broadcasts []enqueued
}

func (f *fakeEnqueuer) Enqueue(queue string, v any) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, enqueued{key: queue, v: v})
	return true
}

func (f *fakeEnqueuer) Broadcast(channel string, v any) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcasts = append(f.broadcasts, enqueued{key: channel, v: v})
	return true
}

func (f *fakeEnqueuer) on(queue string) []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []any
	for _, j := range f.jobs {
		if j.key == queue {
			out = append(out, j.v)
		}
	}
	return out
}

func (f *fakeEnqueuer) broadcastCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.broadcasts)
}

// ─── Intervention stores ───────────────────────────────────────────────

type fakeClassStore struct {
	classes map[uuid.UUID]*model.Class
	entries []analytics.MoodEntry
	since   time.Time
}

func (s *fakeClassStore) GetByID(_ context.Context, id uuid.UUID) (*model.Class, error) {
	c, ok := s.classes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return c, nil
}

func (s *fakeClassStore) ListMoodEntries(_ context.Context, _ uuid.UUID, since time.Time) ([]analytics.MoodEntry, error) {
	s.since = since
	return s.entries, nil
}

type fakeActivityStore struct {
	catalog     []intervention.Activity
	recent      []string
	implemented []*model.InterventionImplementation
}

func (s *fakeActivityStore) ListActivities(context.Context) ([]intervention.Activity, error) {
	return s.catalog, nil
}

func (s *fakeActivityStore) RecordImplementation(_ context.Context, impl *model.InterventionImplementation) error {
	impl.ID = uuid.New()
	s.implemented = append(s.implemented, impl)
	return nil
}

func (s *fakeActivityStore) RecentActivityIDs(context.Context, uuid.UUID, time.Time) ([]string, error) {
	return s.recent, nil
}

// ─── Settings ──────────────────────────────────────────────────────────

type fakeSettingStore struct {
	values map[string]string
	err    error
}

func (s *fakeSettingStore) GetByKey(_ context.Context, key string) (*model.AppSetting, error) {
	if s.err != nil {
		return nil, s.err
	}
	v, ok := s.values[key]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &model.AppSetting{Key: key, Value: v}, nil
}

func (s *fakeSettingStore) Upsert(_ context.Context, key, value string) error {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
	return nil
}

type cachedEntry struct {
	data    []byte
	expires time.Time
}

// fakeSuggestionCache expires entries against the fixture's clock.
type fakeSuggestionCache struct {
	now     func() time.Time
	entries map[string]cachedEntry
	sets    int
}

func newFakeSuggestionCache(now func() time.Time) *fakeSuggestionCache {
	return &fakeSuggestionCache{now: now, entries: make(map[string]cachedEntry)}
}

func (c *fakeSuggestionCache) Get(_ context.Context, key string) ([]byte, error) {
	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expires) {
		return nil, ErrCacheMiss
	}
	return e.data, nil
}

func (c *fakeSuggestionCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	c.entries[key] = cachedEntry{data: data, expires: c.now().Add(ttl)}
	c.sets++
	return nil
}

func (c *fakeSuggestionCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}
