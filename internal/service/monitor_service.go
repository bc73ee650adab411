package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/config"
)

// SecurityEventCounter aggregates the persisted proctoring trail.
type SecurityEventCounter interface {
	CountByExam(ctx context.Context, examID uuid.UUID) (map[string]int64, error)
}

// LiveCounter reports how many sessions are running in this process.
type LiveCounter interface {
	LiveCount(examID uuid.UUID) int
}

// MonitorFeed streams raw messages published on a channel. The returned
// func stops the subscription and closes the channel.
type MonitorFeed interface {
	Subscribe(ctx context.Context, channel string) (<-chan string, func() error)
}

// RedisMonitorFeed is a MonitorFeed on redis pub/sub.
type RedisMonitorFeed struct {
	rdb *redis.Client
}

func NewRedisMonitorFeed(rdb *redis.Client) *RedisMonitorFeed {
	return &RedisMonitorFeed{rdb: rdb}
}

func (f *RedisMonitorFeed) Subscribe(ctx context.Context, channel string) (<-chan string, func() error) {
	pubsub := f.rdb.Subscribe(ctx, channel)
	out := make(chan string)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			select {
			case out <- msg.Payload:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, pubsub.Close
}

// MonitorSummary is the initial view a teacher gets when attaching.
type MonitorSummary struct {
	ExamID              uuid.UUID        `json:"exam_id"`
	Title               string           `json:"title"`
	TotalQuestions      int              `json:"total_questions"`
	LiveSessions        int              `json:"live_sessions"`
	SecurityEventCounts map[string]int64 `json:"security_event_counts"`
	TotalSecurityEvents int64            `json:"total_security_events"`
}

// MonitorService orchestrates live exam monitoring for teachers.
type MonitorService struct {
	exams  ExamStore
	events SecurityEventCounter
	live   LiveCounter
	feed   MonitorFeed
	log    zerolog.Logger
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(exams ExamStore, events SecurityEventCounter, live LiveCounter, feed MonitorFeed, log zerolog.Logger) *MonitorService {
	return &MonitorService{
		exams:  exams,
		events: events,
		live:   live,
		feed:   feed,
		log:    log.With().Str("component", "monitor_service").Logger(),
	}
}

// Summary returns the exam header plus aggregated proctoring counts.
// Counts are best-effort; a failed count query leaves them empty.
func (s *MonitorService) Summary(ctx context.Context, examID uuid.UUID) (*MonitorSummary, error) {
	e, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("load exam: %w", err)
	}

	summary := &MonitorSummary{
		ExamID:              e.ID,
		Title:               e.Title,
		TotalQuestions:      len(e.QuestionIDs),
		LiveSessions:        s.live.LiveCount(examID),
		SecurityEventCounts: map[string]int64{},
	}

	counts, err := s.events.CountByExam(ctx, examID)
	if err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Security event counts unavailable")
		return summary, nil
	}
	for eventType, n := range counts {
		summary.SecurityEventCounts[eventType] = n
		summary.TotalSecurityEvents += n
	}
	return summary, nil
}

// Watch subscribes to the exam's monitor channel.
func (s *MonitorService) Watch(ctx context.Context, examID uuid.UUID) (<-chan string, func() error) {
	return s.feed.Subscribe(ctx, config.CacheKey.ExamMonitorChannel(examID.String()))
}
