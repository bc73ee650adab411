package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultPublisherBuffer = 4096
	publishBatchSize       = 128
	publishTimeout         = 5 * time.Second
)

// Publisher hands queue jobs and monitor broadcasts to a Sink from a single
// goroutine. Enqueue and Broadcast never block, so they are safe to call
// while holding locks.
type Publisher struct {
	sink Sink
	msgs chan Message
	log  zerolog.Logger
}

// NewPublisher creates a Publisher with room for buffer pending messages.
func NewPublisher(sink Sink, buffer int, log zerolog.Logger) *Publisher {
	if buffer <= 0 {
		buffer = DefaultPublisherBuffer
	}
	return &Publisher{
		sink: sink,
		msgs: make(chan Message, buffer),
		log:  log.With().Str("component", "publisher").Logger(),
	}
}

// Enqueue schedules v as a JSON job on queue. It returns false when v cannot
// be encoded or the buffer is full.
func (p *Publisher) Enqueue(queue string, v any) bool {
	return p.offer(KindQueue, queue, v)
}

// Broadcast schedules v as a JSON message on a pub/sub channel.
func (p *Publisher) Broadcast(channel string, v any) bool {
	return p.offer(KindChannel, channel, v)
}

func (p *Publisher) offer(kind MessageKind, key string, v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		p.log.Error().Err(err).Str("key", key).Msg("Dropping unencodable message")
		return false
	}
	select {
	case p.msgs <- Message{Kind: kind, Key: key, Payload: string(data)}:
		return true
	default:
		p.log.Warn().Str("key", key).Msg("Publisher buffer full, dropping message")
		return false
	}
}

// Start delivers messages until ctx is done, then flushes what is left.
// Call in a goroutine.
func (p *Publisher) Start(ctx context.Context) {
	p.log.Info().Msg("Publisher started")

	batch := make([]Message, 0, publishBatchSize)
	for {
		select {
		case <-ctx.Done():
			p.flushRemaining(batch)
			p.log.Info().Msg("Publisher stopped")
			return
		case m := <-p.msgs:
			batch = p.collect(append(batch, m))
			p.deliver(ctx, batch)
			batch = batch[:0]
		}
	}
}

// collect appends whatever is already waiting, up to one batch.
func (p *Publisher) collect(batch []Message) []Message {
	for len(batch) < publishBatchSize {
		select {
		case m := <-p.msgs:
			batch = append(batch, m)
		default:
			return batch
		}
	}
	return batch
}

func (p *Publisher) deliver(ctx context.Context, batch []Message) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.sink.Deliver(ctx, batch); err != nil {
		p.log.Error().Err(err).Int("count", len(batch)).Msg("CRITICAL: Failed to deliver messages. Data loss occurred.")
	}
}

func (p *Publisher) flushRemaining(batch []Message) {
	for {
		batch = p.collect(batch)
		if len(batch) == 0 {
			return
		}
		p.deliver(context.Background(), batch)
		batch = batch[:0]
	}
}
