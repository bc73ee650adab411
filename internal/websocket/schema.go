package websocket

import (
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/exam"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionStart       Action = "start"
	ActionAnswer      Action = "answer"
	ActionFlag        Action = "flag"
	ActionNavigate    Action = "navigate"
	ActionSecurity    Action = "security"
	ActionKey         Action = "key"
	ActionContextMenu Action = "context_menu"
	ActionVisibility  Action = "visibility"
	ActionWebcam      Action = "webcam"
	ActionSubmit      Action = "submit"
	ActionPing        Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// AnswerRequest records an answer for one question.
type AnswerRequest struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

// FlagRequest toggles the review flag of one question.
type FlagRequest struct {
	QuestionID string `json:"question_id"`
}

// NavigateRequest moves between questions. Index wins over Direction.
type NavigateRequest struct {
	Direction string `json:"direction"` // "next" or "previous"
	Index     *int   `json:"index"`
}

// SecurityRequest reports a proctoring signal detected by the client.
type SecurityRequest struct {
	Type exam.SecurityEventType `json:"type"`
	Data map[string]any         `json:"data"`
}

// KeyRequest reports a keydown.
type KeyRequest struct {
	Key   string `json:"key"`
	Ctrl  bool   `json:"ctrl"`
	Shift bool   `json:"shift"`
}

// VisibilityRequest reports the page becoming hidden or visible.
type VisibilityRequest struct {
	Hidden bool `json:"hidden"`
}

// WebcamRequest answers a webcam_request event.
type WebcamRequest struct {
	Granted bool   `json:"granted"`
	Reason  string `json:"reason"`
}

// SubmitRequest finishes the exam. The client must have asked the student
// to confirm.
type SubmitRequest struct {
	Confirmed bool `json:"confirmed"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState         Event = "state"
	EventTick          Event = "tick"
	EventPrevent       Event = "prevent"
	EventSubmitted     Event = "submitted"
	EventFullscreen    Event = "fullscreen"
	EventWebcamRequest Event = "webcam_request"
	EventError         Event = "error"
	EventPong          Event = "pong"
)

type StateResponse struct {
	Event    Event         `json:"event"`
	Snapshot exam.Snapshot `json:"snapshot"`
}

type TickResponse struct {
	Event         Event            `json:"event"`
	TimeRemaining int              `json:"time_remaining"`
	TimeDisplay   string           `json:"time_display"`
	TimeUrgency   exam.TimeUrgency `json:"time_urgency"`
}

// PreventResponse tells the client whether to cancel the default action of
// a key or context menu it reported.
type PreventResponse struct {
	Event   Event  `json:"event"`
	Action  Action `json:"action"`
	Prevent bool   `json:"prevent"`
}

type SubmittedResponse struct {
	Event    Event             `json:"event"`
	Reason   exam.SubmitReason `json:"reason"`
	Answered int               `json:"answered"`
}

// SignalResponse carries no payload: fullscreen, webcam_request and pong.
type SignalResponse struct {
	Event Event `json:"event"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}
