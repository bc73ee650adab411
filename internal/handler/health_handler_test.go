package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type depths map[string]int64

func (d depths) Depths(_ context.Context, queues ...string) (map[string]int64, error) {
	out := make(map[string]int64, len(queues))
	for _, q := range queues {
		out[q] = d[q]
	}
	return out, nil
}

func serveHealth(h *HealthHandler) (*httptest.ResponseRecorder, healthReport) {
	r := gin.New()
	r.GET("/health", h.Health)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var report healthReport
	_ = json.Unmarshal(w.Body.Bytes(), &report)
	return w, report
}

func TestHealthHandler(t *testing.T) {
	up := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	w, report := serveHealth(NewHealthHandler(map[string]HealthCheck{"postgres": up, "redis": up},
		depths{"persist_answers_queue": 4}, testLog))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", report.Status)
	assert.Equal(t, map[string]string{"postgres": "up", "redis": "up"}, report.Checks)
	assert.Equal(t, int64(4), report.Queues["persist_answers_queue"])
	assert.Contains(t, report.Queues, "persist_submissions_queue")

	w, report = serveHealth(NewHealthHandler(map[string]HealthCheck{"postgres": up, "redis": down}, nil, testLog))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "degraded", report.Status)
	assert.Equal(t, "down", report.Checks["redis"])
	assert.Empty(t, report.Queues)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0m 42s", formatDuration(42*time.Second))
	assert.Equal(t, "2h 5m 0s", formatDuration(2*time.Hour+5*time.Minute))
	assert.Equal(t, "1d 1h 0m 0s", formatDuration(25*time.Hour))
}
