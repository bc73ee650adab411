package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/response"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/service"
)

const (
	refreshInterval   = 15 * time.Second
	keepAliveInterval = 30 * time.Second
	refreshTimeout    = 5 * time.Second
)

var pingPayload = []byte(`{"type":"ping"}`)

type MonitorHandler struct {
	monitor *service.MonitorService
	log     zerolog.Logger

	refreshEvery   time.Duration
	keepAliveEvery time.Duration
}

func NewMonitorHandler(monitor *service.MonitorService, log zerolog.Logger) *MonitorHandler {
	return &MonitorHandler{
		monitor:        monitor,
		log:            log.With().Str("component", "monitor_handler").Logger(),
		refreshEvery:   refreshInterval,
		keepAliveEvery: keepAliveInterval,
	}
}

// MonitorExamSSE godoc
// GET /api/v1/teacher/exams/:exam_id/monitor
func (h *MonitorHandler) MonitorExamSSE(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	reqCtx := c.Request.Context()

	summary, err := h.monitor.Summary(reqCtx, examID)
	if err != nil {
		if errors.Is(err, service.ErrExamNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		h.log.Error().Err(err).Str("exam_id", examID.String()).Msg("Monitor summary failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.SSEvent("message", gin.H{"type": "snapshot", "data": summary})
	c.Writer.Flush()

	feed, unsubscribe := h.monitor.Watch(reqCtx, examID)
	defer unsubscribe()

	keepAlive := time.NewTicker(h.keepAliveEvery)
	defer keepAlive.Stop()
	refresh := time.NewTicker(h.refreshEvery)
	defer refresh.Stop()

	// Skip refreshes until something happens on the exam.
	active := false

	h.log.Info().Str("exam_id", examID.String()).Msg("Teacher attached to live monitor SSE")

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Str("exam_id", examID.String()).Msg("Teacher detached from live monitor SSE")
			return

		case msg, ok := <-feed:
			if !ok {
				return
			}
			writeSSEData(c, []byte(msg))
			active = true

		case <-refresh.C:
			if !active {
				continue
			}
			h.sendRefresh(c, reqCtx, examID)
			active = false

		case <-keepAlive.C:
			writeSSEData(c, pingPayload)
		}
	}
}

// sendRefresh re-reads the aggregated counts.
func (h *MonitorHandler) sendRefresh(c *gin.Context, parent context.Context, examID uuid.UUID) {
	ctx, cancel := context.WithTimeout(parent, refreshTimeout)
	defer cancel()

	summary, err := h.monitor.Summary(ctx, examID)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to refresh monitor summary")
		return
	}
	c.SSEvent("message", gin.H{"type": "refresh", "data": summary})
	c.Writer.Flush()
}

// writeSSEData forwards a raw JSON payload without re-encoding it.
func writeSSEData(c *gin.Context, payload []byte) {
	c.Writer.Write([]byte("data: "))
	c.Writer.Write(payload)
	c.Writer.Write([]byte("\n\n"))
	c.Writer.Flush()
}
