package exam

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultBreathingPause   = 10 * time.Second
	DefaultAutosaveInterval = 30 * time.Second
	DefaultWebcamTimeout    = 15 * time.Second
)

// SubmitReason records what ended the session.
type SubmitReason string

const (
	SubmitManual  SubmitReason = "manual"
	SubmitTimeout SubmitReason = "timeout"
)

// Answers maps question ID to the candidate's answer.
type Answers map[string]string

// Autosaver receives periodic copies of the in-progress answers.
type Autosaver interface {
	Save(answers Answers)
}

// Submitter receives the final answers and what ended the session, exactly
// once per session.
type Submitter interface {
	Submit(answers Answers, reason SubmitReason)
}

// SecurityListener is notified of every recorded security event, in order.
type SecurityListener interface {
	OnSecurityEvent(ev SecurityEvent)
}

// Proctor performs the host-side device requests made when the exam begins.
// AcquireWebcam must return once ctx is done.
type Proctor interface {
	RequestFullscreen()
	AcquireWebcam(ctx context.Context) error
}

// StateListener is notified of every state transition.
type StateListener interface {
	OnStateChange(from, to State)
}

// Collaborators bundles the controller's outbound dependencies. Any of them
// may be nil. They are invoked with the controller lock held and must not
// call back into the controller; slow work belongs behind a queue.
type Collaborators struct {
	Autosaver Autosaver
	Submitter Submitter
	Security  SecurityListener
	Proctor   Proctor
	States    StateListener
}

// Config fixes the parameters of one exam session.
type Config struct {
	QuestionIDs      []string
	DurationSeconds  int
	AntiCheatEnabled bool
	RequireWebcam    bool

	BreathingPause   time.Duration
	AutosaveInterval time.Duration
	WebcamTimeout    time.Duration
}

func (c Config) withDefaults() Config {
	if c.DurationSeconds < 0 {
		c.DurationSeconds = 0
	}
	if c.BreathingPause <= 0 {
		c.BreathingPause = DefaultBreathingPause
	}
	if c.AutosaveInterval <= 0 {
		c.AutosaveInterval = DefaultAutosaveInterval
	}
	if c.WebcamTimeout <= 0 {
		c.WebcamTimeout = DefaultWebcamTimeout
	}
	return c
}

// Option customises a Controller.
type Option func(*Controller)

// WithClock replaces the system clock.
func WithClock(clk Clock) Option {
	return func(c *Controller) { c.clock = clk }
}

// WithLogger attaches a logger for transition tracing.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// Controller owns the countdown, answers, flags and proctoring trail of a
// single candidate's exam. All methods are safe for concurrent use.
// Operations attempted in the wrong state are silent no-ops.
type Controller struct {
	mu     sync.Mutex
	cfg    Config
	collab Collaborators
	clock  Clock
	log    zerolog.Logger

	questionOrder []string
	questions     map[string]struct{}

	state         State
	timeRemaining int
	answers       Answers
	flagged       map[string]struct{}
	events        []SecurityEvent
	tabSwitches   int
	current       int
	submitReason  SubmitReason

	autosaved    bool
	lastAutosave time.Time

	pauseTimer Timer
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// New creates a controller in the instructions state.
func New(cfg Config, collab Collaborators, opts ...Option) *Controller {
	cfg = cfg.withDefaults()

	c := &Controller{
		cfg:           cfg,
		collab:        collab,
		clock:         SystemClock(),
		log:           zerolog.Nop(),
		questions:     make(map[string]struct{}, len(cfg.QuestionIDs)),
		state:         StateInstructions,
		timeRemaining: cfg.DurationSeconds,
		answers:       make(Answers),
		flagged:       make(map[string]struct{}),
	}
	for _, id := range cfg.QuestionIDs {
		if id == "" {
			continue
		}
		if _, dup := c.questions[id]; dup {
			continue
		}
		c.questions[id] = struct{}{}
		c.questionOrder = append(c.questionOrder, id)
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return c
}

// Start leaves the instructions screen and begins the breathing pause. The
// exam itself starts automatically once the pause has elapsed.
func (c *Controller) Start() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateInstructions || c.ctx.Err() != nil {
		return false
	}
	c.transition(StateBreathingPause)
	c.pauseTimer = c.clock.AfterFunc(c.cfg.BreathingPause, c.begin)
	return true
}

// begin moves the session from the breathing pause into the exam proper.
func (c *Controller) begin() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateBreathingPause || c.ctx.Err() != nil {
		return
	}
	c.pauseTimer = nil
	c.transition(StateInProgress)

	proctor := c.collab.Proctor
	if proctor == nil {
		return
	}
	if c.cfg.AntiCheatEnabled {
		proctor.RequestFullscreen()
	}
	if c.cfg.RequireWebcam {
		c.wg.Add(1)
		go c.acquireWebcam(proctor)
	}
}

// acquireWebcam negotiates camera access within WebcamTimeout. Denial or
// timeout is recorded but never blocks the exam.
func (c *Controller) acquireWebcam(proctor Proctor) {
	defer c.wg.Done()

	ctx, cancel := context.WithTimeout(c.ctx, c.cfg.WebcamTimeout)
	defer cancel()

	result := make(chan error, 1)
	go func() { result <- proctor.AcquireWebcam(ctx) }()

	var err error
	select {
	case err = <-result:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err == nil || c.ctx.Err() != nil {
		return
	}

	c.log.Warn().Err(err).Msg("Webcam unavailable")
	c.RecordSecurityEvent(SecurityEvent{
		Type: EventWebcamDenied,
		Data: map[string]any{"reason": err.Error()},
	})
}

// RecordAnswer stores the answer for a known question and dispatches an
// autosave when AutosaveInterval has passed since the previous one.
// Unknown question IDs are ignored.
func (c *Controller) RecordAnswer(questionID, value string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateInProgress {
		return false
	}
	if _, ok := c.questions[questionID]; !ok {
		c.log.Debug().Str("question_id", questionID).Msg("Ignoring answer for unknown question")
		return false
	}

	c.answers[questionID] = value

	now := c.clock.Now()
	if !c.autosaved || now.Sub(c.lastAutosave) >= c.cfg.AutosaveInterval {
		c.autosaved = true
		c.lastAutosave = now
		if c.collab.Autosaver != nil {
			c.collab.Autosaver.Save(maps.Clone(c.answers))
		}
	}
	return true
}

// ToggleFlag marks or unmarks a question for review.
func (c *Controller) ToggleFlag(questionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateInProgress {
		return false
	}
	if _, ok := c.questions[questionID]; !ok {
		return false
	}
	if _, on := c.flagged[questionID]; on {
		delete(c.flagged, questionID)
	} else {
		c.flagged[questionID] = struct{}{}
	}
	return true
}

// Tick advances the countdown by one second. When the countdown reaches
// zero the session is submitted. Returns the time remaining.
func (c *Controller) Tick() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateInProgress {
		return c.timeRemaining
	}
	if c.timeRemaining > 0 {
		c.timeRemaining--
	}
	if c.timeRemaining == 0 {
		c.submit(SubmitTimeout)
	}
	return c.timeRemaining
}

// Submit ends the session on the candidate's confirmed request.
func (c *Controller) Submit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateInProgress {
		return false
	}
	c.submit(SubmitManual)
	return true
}

func (c *Controller) submit(reason SubmitReason) {
	c.submitReason = reason
	c.transition(StateSubmitted)
	c.cancel()

	if c.collab.Submitter != nil {
		c.collab.Submitter.Submit(maps.Clone(c.answers), reason)
	}
}

// RecordSecurityEvent appends a proctoring event to the audit trail. It never
// changes the exam state regardless of how many violations accumulate.
func (c *Controller) RecordSecurityEvent(ev SecurityEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record(ev)
}

func (c *Controller) record(ev SecurityEvent) bool {
	if c.state != StateInProgress || !ev.Type.Valid() {
		return false
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = c.clock.Now()
	}
	ev = ev.clone()
	if ev.Type == EventTabSwitch {
		c.tabSwitches++
	}
	c.events = append(c.events, ev)

	if c.collab.Security != nil {
		c.collab.Security.OnSecurityEvent(ev.clone())
	}
	return true
}

func (c *Controller) monitoring() bool {
	return c.state == StateInProgress && c.cfg.AntiCheatEnabled
}

// HandleVisibilityChange logs a tab switch when the exam page is hidden.
func (c *Controller) HandleVisibilityChange(hidden bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !hidden || !c.monitoring() {
		return false
	}
	return c.record(SecurityEvent{
		Type: EventTabSwitch,
		Data: map[string]any{"total_switches": c.tabSwitches + 1},
	})
}

// HandleContextMenu reports whether the host must cancel the context menu.
// A cancelled menu is always logged.
func (c *Controller) HandleContextMenu() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.monitoring() {
		return false
	}
	return c.record(SecurityEvent{Type: EventRightClick})
}

// HandleKeyDown reports whether the host must cancel the key's default
// action. Every cancelled shortcut is logged; nothing else is.
func (c *Controller) HandleKeyDown(k KeyPress) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.monitoring() || !IsBlockedShortcut(k) {
		return false
	}
	return c.record(SecurityEvent{
		Type: EventBlockedShortcut,
		Data: map[string]any{"key": k.Key, "ctrlKey": k.Ctrl, "shiftKey": k.Shift},
	})
}

// ProgressPercentage is the share of questions answered, 0 to 100.
func (c *Controller) ProgressPercentage() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress()
}

func (c *Controller) progress() float64 {
	if len(c.questionOrder) == 0 {
		return 0
	}
	return float64(len(c.answers)) / float64(len(c.questionOrder)) * 100
}

// CurrentIndex returns the position of the question on screen.
func (c *Controller) CurrentIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// GoTo jumps to the question at index i.
func (c *Controller) GoTo(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateInProgress || i < 0 || i >= len(c.questionOrder) {
		return false
	}
	c.current = i
	return true
}

// Next moves to the following question, stopping at the last one.
func (c *Controller) Next() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateInProgress && c.current < len(c.questionOrder)-1 {
		c.current++
	}
	return c.current
}

// Previous moves to the preceding question, stopping at the first one.
func (c *Controller) Previous() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateInProgress && c.current > 0 {
		c.current--
	}
	return c.current
}

// State returns the current phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// TimeRemaining returns the countdown in seconds.
func (c *Controller) TimeRemaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeRemaining
}

// TabSwitchCount returns how many times the candidate left the exam page.
func (c *Controller) TabSwitchCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tabSwitches
}

// Answers returns a copy of the recorded answers.
func (c *Controller) Answers() Answers {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.answers)
}

// IsFlagged reports whether a question is marked for review.
func (c *Controller) IsFlagged(questionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.flagged[questionID]
	return ok
}

// Flagged returns the flagged question IDs in sorted order.
func (c *Controller) Flagged() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flaggedIDs()
}

func (c *Controller) flaggedIDs() []string {
	ids := make([]string, 0, len(c.flagged))
	for id := range c.flagged {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// SecurityEvents returns a copy of the audit trail in chronological order.
func (c *Controller) SecurityEvents() []SecurityEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]SecurityEvent, len(c.events))
	for i, ev := range c.events {
		out[i] = ev.clone()
	}
	return out
}

// Snapshot is a point-in-time view of the session for transport.
type Snapshot struct {
	State              State        `json:"state"`
	TimeRemaining      int          `json:"time_remaining"`
	TimeDisplay        string       `json:"time_display"`
	TimeUrgency        TimeUrgency  `json:"time_urgency"`
	TotalQuestions     int          `json:"total_questions"`
	CurrentIndex       int          `json:"current_index"`
	CurrentQuestionID  string       `json:"current_question_id,omitempty"`
	Answers            Answers      `json:"answers"`
	Flagged            []string     `json:"flagged"`
	Progress           float64      `json:"progress"`
	TabSwitchCount     int          `json:"tab_switch_count"`
	SecurityEventCount int          `json:"security_event_count"`
	SubmitReason       SubmitReason `json:"submit_reason,omitempty"`
}

// Snapshot captures the current session view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		State:              c.state,
		TimeRemaining:      c.timeRemaining,
		TimeDisplay:        FormatTime(c.timeRemaining),
		TimeUrgency:        TimeUrgencyFor(c.timeRemaining, c.cfg.DurationSeconds),
		TotalQuestions:     len(c.questionOrder),
		CurrentIndex:       c.current,
		Answers:            maps.Clone(c.answers),
		Flagged:            c.flaggedIDs(),
		Progress:           c.progress(),
		TabSwitchCount:     c.tabSwitches,
		SecurityEventCount: len(c.events),
		SubmitReason:       c.submitReason,
	}
	if c.current < len(c.questionOrder) {
		s.CurrentQuestionID = c.questionOrder[c.current]
	}
	return s
}

// Close cancels the breathing-pause timer and any webcam negotiation, then
// waits for background work to finish. The session state is left as is.
func (c *Controller) Close() {
	c.mu.Lock()
	c.cancel()
	if c.pauseTimer != nil {
		c.pauseTimer.Stop()
		c.pauseTimer = nil
	}
	c.mu.Unlock()

	c.wg.Wait()
}

func (c *Controller) transition(to State) {
	from := c.state
	c.state = to
	c.log.Debug().
		Str("from", from.String()).
		Str("to", to.String()).
		Int("time_remaining", c.timeRemaining).
		Msg("Exam state changed")

	if c.collab.States != nil {
		c.collab.States.OnStateChange(from, to)
	}
}
