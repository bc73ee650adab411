package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

const (
	PollTimeout      = 1 * time.Second // Must be >= 1s to satisfy Redis
	RetryDelay       = 5 * time.Second
	ErrorBackoff     = 3 * time.Second
	ShutdownDeadline = 5 * time.Second
)

// errDiscard marks an item that can never succeed and must not be retried.
var errDiscard = errors.New("discard")

// handleFunc persists one raw queue item.
type handleFunc func(ctx context.Context, raw string) error

// consumer is the single-item BLPOP loop shared by the answer and
// submission workers.
type consumer struct {
	queue        Queue
	name         string
	handle       handleFunc
	log          zerolog.Logger
	pollTimeout  time.Duration
	retryDelay   time.Duration
	errorBackoff time.Duration
}

func newConsumer(queue Queue, name string, handle handleFunc, log zerolog.Logger) consumer {
	return consumer{
		queue:        queue,
		name:         name,
		handle:       handle,
		log:          log,
		pollTimeout:  PollTimeout,
		retryDelay:   RetryDelay,
		errorBackoff: ErrorBackoff,
	}
}

func (c *consumer) run(ctx context.Context) {
	c.log.Info().Str("queue", c.name).Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("Worker stopping...")
			drainCtx, cancel := context.WithTimeout(context.Background(), ShutdownDeadline)
			c.drain(drainCtx)
			cancel()
			c.log.Info().Msg("Worker stopped")
			return
		default:
			c.processNext(ctx)
		}
	}
}

func (c *consumer) processNext(ctx context.Context) {
	raw, err := c.queue.Pop(ctx, c.name, c.pollTimeout)
	if err != nil {
		if errors.Is(err, ErrEmpty) || ctx.Err() != nil {
			return
		}
		c.log.Error().Err(err).Msg("Queue error, backing off")
		sleep(ctx, c.errorBackoff)
		return
	}

	if err := c.handle(ctx, raw); err != nil {
		if errors.Is(err, errDiscard) {
			c.log.Error().Err(err).Str("data", raw).Msg("Discarding malformed item")
			return
		}
		c.log.Error().Err(err).Dur("retry_in", c.retryDelay).Msg("Persist error, requeueing")
		if pushErr := c.queue.Push(context.WithoutCancel(ctx), c.name, raw); pushErr != nil {
			c.log.Error().Err(pushErr).Msg("CRITICAL: Failed to requeue item. Data loss occurred.")
		}
		sleep(ctx, c.retryDelay)
	}
}

// drain persists everything still queued before shutdown. It stops at the
// first persist failure and puts that item back.
func (c *consumer) drain(ctx context.Context) {
	drained := 0
	for {
		raw, err := c.queue.TryPop(ctx, c.name)
		if err != nil {
			break
		}
		if err := c.handle(ctx, raw); err != nil {
			if errors.Is(err, errDiscard) {
				c.log.Error().Err(err).Msg("Drain discarded malformed item")
				continue
			}
			c.log.Error().Err(err).Msg("Drain persist error")
			if pushErr := c.queue.Push(ctx, c.name, raw); pushErr != nil {
				c.log.Error().Err(pushErr).Msg("CRITICAL: Failed to requeue item. Data loss occurred.")
			}
			break
		}
		drained++
	}

	if drained > 0 {
		c.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
