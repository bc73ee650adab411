package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/config"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/exam"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/model"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/worker"
)

var (
	ErrExamNotFound     = errors.New("exam not found")
	ErrExamNotAvailable = errors.New("exam is not available")
	ErrNoQuestions      = errors.New("exam has no questions")
	ErrSessionNotFound  = errors.New("exam session not found")
	ErrSessionClosed    = errors.New("exam session already submitted")
)

const (
	subscriberBuffer = 32
	// submittedRetention keeps a finished session readable for late reconnects.
	submittedRetention = 5 * time.Minute
)

// ExamStore loads exam definitions.
type ExamStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
}

// SessionStore opens the persistent row behind a live session.
type SessionStore interface {
	Open(ctx context.Context, examID uuid.UUID, studentID string) (*model.ExamSession, error)
}

// Enqueuer hands work to the background workers without blocking.
type Enqueuer interface {
	Enqueue(queue string, v any) bool
	Broadcast(channel string, v any) bool
}

// ExamTimings are the per-deployment exam pacing settings.
type ExamTimings struct {
	BreathingPause   time.Duration
	AutosaveInterval time.Duration
	WebcamTimeout    time.Duration
	TickInterval     time.Duration
}

// ExamSessionService keeps one live controller per (exam, student) and
// connects it to the persistence queues and the teacher monitor.
type ExamSessionService struct {
	exams    ExamStore
	sessions SessionStore
	pub      Enqueuer
	timings  ExamTimings
	clock    exam.Clock
	log      zerolog.Logger

	mu   sync.Mutex
	live map[sessionKey]*LiveSession

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type sessionKey struct {
	examID    uuid.UUID
	studentID string
}

// NewExamSessionService creates a new ExamSessionService.
func NewExamSessionService(exams ExamStore, sessions SessionStore, pub Enqueuer, timings ExamTimings, log zerolog.Logger) *ExamSessionService {
	if timings.TickInterval <= 0 {
		timings.TickInterval = time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ExamSessionService{
		exams:    exams,
		sessions: sessions,
		pub:      pub,
		timings:  timings,
		clock:    exam.SystemClock(),
		log:      log.With().Str("component", "exam_session_service").Logger(),
		live:     make(map[sessionKey]*LiveSession),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SetClock replaces the clock used by new sessions.
func (s *ExamSessionService) SetClock(clk exam.Clock) {
	s.clock = clk
}

// Join returns the student's live session for the exam, creating it on
// first use. A session that has been submitted cannot be joined again.
func (s *ExamSessionService) Join(ctx context.Context, examID uuid.UUID, studentID string) (*LiveSession, error) {
	key := sessionKey{examID: examID, studentID: studentID}
	if ls, ok := s.lookup(key); ok {
		if ls.Controller().State().Terminal() {
			return nil, ErrSessionClosed
		}
		return ls, nil
	}

	e, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("load exam: %w", err)
	}
	if !e.Available(s.clock.Now()) {
		return nil, ErrExamNotAvailable
	}
	if len(e.QuestionIDs) == 0 {
		return nil, ErrNoQuestions
	}

	row, err := s.sessions.Open(ctx, examID, studentID)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	if row.Status == model.SessionStatusSubmitted {
		return nil, ErrSessionClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another connection may have won the race while we were loading.
	if ls, ok := s.live[key]; ok {
		return ls, nil
	}
	if s.ctx.Err() != nil {
		return nil, ErrSessionClosed
	}

	ls := s.newLiveSession(e, row)
	s.live[key] = ls
	s.log.Info().
		Str("exam_id", examID.String()).
		Str("student_id", studentID).
		Str("session_id", row.ID.String()).
		Msg("Exam session opened")
	return ls, nil
}

// Get returns the live session of a student without creating one.
func (s *ExamSessionService) Get(examID uuid.UUID, studentID string) (*LiveSession, error) {
	ls, ok := s.lookup(sessionKey{examID: examID, studentID: studentID})
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ls, nil
}

// LiveCount returns how many sessions of the exam are held in memory.
func (s *ExamSessionService) LiveCount(examID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key := range s.live {
		if key.examID == examID {
			n++
		}
	}
	return n
}

func (s *ExamSessionService) lookup(key sessionKey) (*LiveSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls, ok := s.live[key]
	return ls, ok
}

// Shutdown stops every countdown and releases the live controllers.
// Submitted answers already handed to the publisher are not affected.
func (s *ExamSessionService) Shutdown() {
	s.mu.Lock()
	s.cancel()
	sessions := make([]*LiveSession, 0, len(s.live))
	for _, ls := range s.live {
		sessions = append(sessions, ls)
	}
	s.live = make(map[sessionKey]*LiveSession)
	s.mu.Unlock()

	for _, ls := range sessions {
		ls.close()
	}
	s.wg.Wait()
	s.log.Info().Int("sessions", len(sessions)).Msg("Exam sessions released")
}

func (s *ExamSessionService) newLiveSession(e *model.Exam, row *model.ExamSession) *LiveSession {
	ls := &LiveSession{
		SessionID: row.ID,
		ExamID:    e.ID,
		StudentID: row.StudentID,
		Title:     e.Title,
		duration:  e.DurationSeconds(),
		service:   s,
		pub:       s.pub,
		monitor:   config.CacheKey.ExamMonitorChannel(e.ID.String()),
		subs:      make(map[int]chan SessionEvent),
		webcam:    make(chan error, 1),
		log: s.log.With().
			Str("session_id", row.ID.String()).
			Str("student_id", row.StudentID).
			Logger(),
	}

	cfg := exam.Config{
		QuestionIDs:      e.QuestionIDs,
		DurationSeconds:  e.DurationSeconds(),
		AntiCheatEnabled: e.AntiCheatEnabled,
		RequireWebcam:    e.RequireWebcam,
		BreathingPause:   s.timings.BreathingPause,
		AutosaveInterval: s.timings.AutosaveInterval,
		WebcamTimeout:    s.timings.WebcamTimeout,
	}
	ls.ctrl = exam.New(cfg, exam.Collaborators{
		Autosaver: ls,
		Submitter: finalSubmitter{ls},
		Security:  ls,
		Proctor:   ls,
		States:    ls,
	}, exam.WithClock(s.clock), exam.WithLogger(ls.log))
	return ls
}

// startCountdown drives the session clock until submission or shutdown.
// The check and the Add share s.mu with Shutdown's cancel, so no countdown is
// added once Shutdown has started waiting.
func (s *ExamSessionService) startCountdown(ls *LiveSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		exam.RunCountdown(s.ctx, ls.ctrl, s.timings.TickInterval, ls.onTick)
	}()
}

// retire drops a submitted session from memory after the retention period.
func (s *ExamSessionService) retire(ls *LiveSession) {
	key := sessionKey{examID: ls.ExamID, studentID: ls.StudentID}
	s.clock.AfterFunc(submittedRetention, func() {
		s.mu.Lock()
		if s.live[key] == ls {
			delete(s.live, key)
		}
		s.mu.Unlock()
		ls.close()
	})
}

// ─── Live session ──────────────────────────────────────────────────────

// Session event types pushed to the student's stream.
const (
	EventState         = "state"
	EventTick          = "tick"
	EventSubmitted     = "submitted"
	EventFullscreen    = "fullscreen"
	EventWebcamRequest = "webcam_request"
)

// SessionEvent is a server-initiated notification for the student client.
type SessionEvent struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// TickData accompanies EventTick.
type TickData struct {
	TimeRemaining int              `json:"time_remaining"`
	TimeDisplay   string           `json:"time_display"`
	TimeUrgency   exam.TimeUrgency `json:"time_urgency"`
}

// SubmittedData accompanies EventSubmitted.
type SubmittedData struct {
	Reason   exam.SubmitReason `json:"reason"`
	Answered int               `json:"answered"`
}

// MonitorEvent is published on the exam's monitor channel for teachers.
type MonitorEvent struct {
	Type      string         `json:"type"`
	SessionID uuid.UUID      `json:"session_id"`
	StudentID string         `json:"student_id"`
	State     string         `json:"state,omitempty"`
	EventType string         `json:"event_type,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	At        time.Time      `json:"at"`
}

// LiveSession is one student's running exam. It implements every exam
// collaborator; those callbacks run under the controller lock, so they only
// enqueue work and emit events.
type LiveSession struct {
	SessionID uuid.UUID
	ExamID    uuid.UUID
	StudentID string
	Title     string

	ctrl     *exam.Controller
	duration int
	service  *ExamSessionService
	pub      Enqueuer
	monitor  string
	log      zerolog.Logger

	webcamPending atomic.Bool
	webcam        chan error
	closeOnce     sync.Once

	mu      sync.Mutex
	subs    map[int]chan SessionEvent
	nextSub int
}

// Controller exposes the session's exam controller.
func (ls *LiveSession) Controller() *exam.Controller {
	return ls.ctrl
}

// Submit ends the session on the student's confirmed request.
func (ls *LiveSession) Submit() bool {
	return ls.ctrl.Submit()
}

// Subscribe registers a listener for session events. Slow listeners miss
// events rather than stall the session. The returned func unsubscribes.
func (ls *LiveSession) Subscribe() (<-chan SessionEvent, func()) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	id := ls.nextSub
	ls.nextSub++
	ch := make(chan SessionEvent, subscriberBuffer)
	ls.subs[id] = ch

	return ch, func() {
		ls.mu.Lock()
		defer ls.mu.Unlock()
		if c, ok := ls.subs[id]; ok {
			delete(ls.subs, id)
			close(c)
		}
	}
}

// ResolveWebcam reports the outcome of a webcam_request from the client.
// It returns false when no request is outstanding.
func (ls *LiveSession) ResolveWebcam(granted bool, reason string) bool {
	if !ls.webcamPending.Load() {
		return false
	}
	var err error
	if !granted {
		if reason == "" {
			reason = "permission denied"
		}
		err = errors.New(reason)
	}
	select {
	case ls.webcam <- err:
		return true
	default:
		return false
	}
}

func (ls *LiveSession) emit(ev SessionEvent) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	for _, ch := range ls.subs {
		select {
		case ch <- ev:
		default:
			ls.log.Debug().Str("event", ev.Type).Msg("Subscriber lagging, event dropped")
		}
	}
}

func (ls *LiveSession) broadcast(ev MonitorEvent) {
	ev.SessionID = ls.SessionID
	ev.StudentID = ls.StudentID
	if ev.At.IsZero() {
		ev.At = ls.service.clock.Now()
	}
	ls.pub.Broadcast(ls.monitor, ev)
}

func (ls *LiveSession) onTick(remaining int) {
	ls.emit(SessionEvent{Type: EventTick, Data: TickData{
		TimeRemaining: remaining,
		TimeDisplay:   exam.FormatTime(remaining),
		TimeUrgency:   exam.TimeUrgencyFor(remaining, ls.duration),
	}})
}

func (ls *LiveSession) close() {
	ls.closeOnce.Do(func() {
		ls.ctrl.Close()

		ls.mu.Lock()
		for id, ch := range ls.subs {
			delete(ls.subs, id)
			close(ch)
		}
		ls.mu.Unlock()
	})
}

// Save implements exam.Autosaver.
func (ls *LiveSession) Save(answers exam.Answers) {
	ok := ls.pub.Enqueue(config.WorkerKey.PersistAnswersQueue, worker.AnswersPayload{
		SessionID: ls.SessionID,
		ExamID:    ls.ExamID,
		StudentID: ls.StudentID,
		Answers:   answers,
		SavedAt:   ls.service.clock.Now(),
	})
	if !ok {
		ls.log.Warn().Msg("Autosave not queued")
	}
}

// finalSubmitter adapts LiveSession to exam.Submitter.
type finalSubmitter struct{ ls *LiveSession }

func (f finalSubmitter) Submit(answers exam.Answers, reason exam.SubmitReason) {
	f.ls.submitFinal(answers, reason)
}

func (ls *LiveSession) submitFinal(answers exam.Answers, reason exam.SubmitReason) {
	now := ls.service.clock.Now()

	ok := ls.pub.Enqueue(config.WorkerKey.PersistSubmissionsQueue, worker.SubmissionPayload{
		SessionID:   ls.SessionID,
		ExamID:      ls.ExamID,
		StudentID:   ls.StudentID,
		Answers:     answers,
		Reason:      string(reason),
		SubmittedAt: now,
	})
	if !ok {
		ls.log.Error().Msg("CRITICAL: Submission not queued")
	}

	ls.emit(SessionEvent{Type: EventSubmitted, Data: SubmittedData{Reason: reason, Answered: len(answers)}})
	ls.broadcast(MonitorEvent{Type: EventSubmitted, Data: map[string]any{"reason": reason, "answered": len(answers)}, At: now})
}

// OnSecurityEvent implements exam.SecurityListener.
func (ls *LiveSession) OnSecurityEvent(ev exam.SecurityEvent) {
	ok := ls.pub.Enqueue(config.WorkerKey.PersistSecurityEventsQueue, model.SecurityEventRecord{
		SessionID:  ls.SessionID,
		ExamID:     ls.ExamID,
		StudentID:  ls.StudentID,
		EventType:  string(ev.Type),
		Data:       ev.Data,
		RecordedAt: ev.Timestamp,
	})
	if !ok {
		ls.log.Warn().Str("event_type", string(ev.Type)).Msg("Security event not queued")
	}
	ls.broadcast(MonitorEvent{Type: "security_event", EventType: string(ev.Type), Data: ev.Data, At: ev.Timestamp})
}

// RequestFullscreen implements exam.Proctor.
func (ls *LiveSession) RequestFullscreen() {
	ls.emit(SessionEvent{Type: EventFullscreen})
}

// AcquireWebcam implements exam.Proctor. It asks the client for camera
// access and waits for ResolveWebcam or ctx.
func (ls *LiveSession) AcquireWebcam(ctx context.Context) error {
	ls.webcamPending.Store(true)
	defer ls.webcamPending.Store(false)

	ls.emit(SessionEvent{Type: EventWebcamRequest})
	select {
	case err := <-ls.webcam:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnStateChange implements exam.StateListener.
func (ls *LiveSession) OnStateChange(from, to exam.State) {
	ls.emit(SessionEvent{Type: EventState, Data: map[string]string{"from": from.String(), "to": to.String()}})
	ls.broadcast(MonitorEvent{Type: EventState, State: to.String()})

	switch to {
	case exam.StateInProgress:
		ls.service.startCountdown(ls)
	case exam.StateSubmitted:
		ls.service.retire(ls)
	}
}
