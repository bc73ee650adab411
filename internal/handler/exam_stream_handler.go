package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/exam"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/middleware"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/response"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/service"
	ws "github.com/rowanberg/catalyst-wellbeing2-sub012/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// sessionError maps exam session errors to HTTP responses.
func sessionError(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, service.ErrExamNotFound):
		return http.StatusNotFound, response.ErrNotFound
	case errors.Is(err, service.ErrExamNotAvailable):
		return http.StatusForbidden, response.ErrExamNotAvailable
	case errors.Is(err, service.ErrNoQuestions):
		return http.StatusConflict, response.ErrNoQuestions
	case errors.Is(err, service.ErrSessionClosed):
		return http.StatusConflict, response.ErrSessionClosed
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, response.ErrSessionNotFound
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}

// ExamStreamHandler drives a student's exam over a WebSocket.
type ExamStreamHandler struct {
	sessions *service.ExamSessionService
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewExamStreamHandler creates a new ExamStreamHandler.
func NewExamStreamHandler(sessions *service.ExamSessionService, log zerolog.Logger, allowedOrigins []string) *ExamStreamHandler {
	return &ExamStreamHandler{
		sessions: sessions,
		log:      log.With().Str("component", "exam_stream_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// Stream godoc
// WS /ws/v1/student/exams/:exam_id/stream
func (h *ExamStreamHandler) Stream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	ls, err := h.sessions.Join(c.Request.Context(), examID, claims.UserID())
	if err != nil {
		status, code := sessionError(err)
		if status == http.StatusInternalServerError {
			h.log.Error().Err(err).Str("exam_id", examID.String()).Msg("Join failed")
		}
		response.Fail(c, status, code)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Str("student_id", ls.StudentID).
		Str("exam_id", examID.String()).
		Str("session_id", ls.SessionID.String()).
		Logger()
	wsLog.Info().Msg("Student connected")

	w := ws.NewWriter(conn)
	events, unsubscribe := ls.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		forward(w, ls, events)
	}()

	writeState(w, ls.Controller())

	for {
		raw, err := ws.ReadMessage(conn)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}
		h.dispatch(w, ls, raw, wsLog)
	}

	unsubscribe()
	<-done
}

// forward relays session events until the subscription closes.
func forward(w *ws.Writer, ls *service.LiveSession, events <-chan service.SessionEvent) {
	for ev := range events {
		switch ev.Type {
		case service.EventState:
			writeState(w, ls.Controller())
		case service.EventTick:
			if d, ok := ev.Data.(service.TickData); ok {
				_ = w.WriteTyped(ws.TickResponse{
					Event:         ws.EventTick,
					TimeRemaining: d.TimeRemaining,
					TimeDisplay:   d.TimeDisplay,
					TimeUrgency:   d.TimeUrgency,
				})
			}
		case service.EventSubmitted:
			if d, ok := ev.Data.(service.SubmittedData); ok {
				_ = w.WriteTyped(ws.SubmittedResponse{Event: ws.EventSubmitted, Reason: d.Reason, Answered: d.Answered})
			}
		case service.EventFullscreen:
			_ = w.WriteTyped(ws.SignalResponse{Event: ws.EventFullscreen})
		case service.EventWebcamRequest:
			_ = w.WriteTyped(ws.SignalResponse{Event: ws.EventWebcamRequest})
		}
	}
}

func writeState(w *ws.Writer, ctrl *exam.Controller) {
	_ = w.WriteTyped(ws.StateResponse{Event: ws.EventState, Snapshot: ctrl.Snapshot()})
}

func decode(w *ws.Writer, raw []byte, v any) bool {
	if err := json.Unmarshal(raw, v); err != nil {
		_ = w.WriteError("invalid payload")
		return false
	}
	return true
}

func (h *ExamStreamHandler) dispatch(w *ws.Writer, ls *service.LiveSession, raw []byte, log zerolog.Logger) {
	var env ws.RequestEnvelope
	if !decode(w, raw, &env) {
		return
	}
	ctrl := ls.Controller()

	switch env.Action {
	case ws.ActionStart:
		if !ctrl.Start() {
			_ = w.WriteError("exam already started")
		}

	case ws.ActionAnswer:
		var req ws.AnswerRequest
		if !decode(w, raw, &req) {
			return
		}
		if !ctrl.RecordAnswer(req.QuestionID, req.Answer) {
			_ = w.WriteError("answer not accepted")
			return
		}
		writeState(w, ctrl)

	case ws.ActionFlag:
		var req ws.FlagRequest
		if !decode(w, raw, &req) {
			return
		}
		if !ctrl.ToggleFlag(req.QuestionID) {
			_ = w.WriteError("flag not accepted")
			return
		}
		writeState(w, ctrl)

	case ws.ActionNavigate:
		var req ws.NavigateRequest
		if !decode(w, raw, &req) {
			return
		}
		switch {
		case req.Index != nil:
			if !ctrl.GoTo(*req.Index) {
				_ = w.WriteError("question index out of range")
				return
			}
		case req.Direction == "next":
			ctrl.Next()
		case req.Direction == "previous":
			ctrl.Previous()
		default:
			_ = w.WriteError("direction must be next or previous")
			return
		}
		writeState(w, ctrl)

	case ws.ActionSecurity:
		var req ws.SecurityRequest
		if !decode(w, raw, &req) {
			return
		}
		if !ctrl.RecordSecurityEvent(exam.SecurityEvent{Type: req.Type, Data: req.Data}) {
			_ = w.WriteError("security event rejected")
			return
		}
		writeState(w, ctrl)

	case ws.ActionKey:
		var req ws.KeyRequest
		if !decode(w, raw, &req) {
			return
		}
		prevent := ctrl.HandleKeyDown(exam.KeyPress{Key: req.Key, Ctrl: req.Ctrl, Shift: req.Shift})
		_ = w.WriteTyped(ws.PreventResponse{Event: ws.EventPrevent, Action: ws.ActionKey, Prevent: prevent})

	case ws.ActionContextMenu:
		prevent := ctrl.HandleContextMenu()
		_ = w.WriteTyped(ws.PreventResponse{Event: ws.EventPrevent, Action: ws.ActionContextMenu, Prevent: prevent})

	case ws.ActionVisibility:
		var req ws.VisibilityRequest
		if !decode(w, raw, &req) {
			return
		}
		if ctrl.HandleVisibilityChange(req.Hidden) {
			writeState(w, ctrl)
		}

	case ws.ActionWebcam:
		var req ws.WebcamRequest
		if !decode(w, raw, &req) {
			return
		}
		if !ls.ResolveWebcam(req.Granted, req.Reason) {
			_ = w.WriteError("no webcam request pending")
		}

	case ws.ActionSubmit:
		var req ws.SubmitRequest
		if !decode(w, raw, &req) {
			return
		}
		if !req.Confirmed {
			_ = w.WriteError("submission must be confirmed")
			return
		}
		if !ls.Submit() {
			_ = w.WriteError("exam is not in progress")
			return
		}
		log.Info().Msg("Exam submitted by student")

	case ws.ActionPing:
		_ = w.WriteTyped(ws.SignalResponse{Event: ws.EventPong})

	default:
		log.Warn().Str("action", string(env.Action)).Msg("Unknown action")
		_ = w.WriteError("unknown action: " + string(env.Action))
	}
}

// State godoc
// GET /api/v1/student/exams/:exam_id/state
func (h *ExamStreamHandler) State(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	ls, err := h.sessions.Get(examID, claims.UserID())
	if err != nil {
		status, code := sessionError(err)
		response.Fail(c, status, code)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"session_id": ls.SessionID,
		"title":      ls.Title,
		"snapshot":   ls.Controller().Snapshot(),
	})
}
