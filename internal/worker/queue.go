package worker

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrEmpty is returned by Queue.Pop and Queue.TryPop when no item is waiting.
var ErrEmpty = errors.New("queue empty")

// Queue is the list-backed job queue the workers consume.
type Queue interface {
	// Pop blocks up to timeout for the next item of queue.
	Pop(ctx context.Context, queue string, timeout time.Duration) (string, error)
	// TryPop returns the next item without blocking.
	TryPop(ctx context.Context, queue string) (string, error)
	// Push appends payloads to the tail of queue.
	Push(ctx context.Context, queue string, payloads ...string) error
}

// MessageKind tells a Sink where a message goes.
type MessageKind int

const (
	KindQueue   MessageKind = iota // RPUSH onto a worker queue
	KindChannel                    // PUBLISH on a pub/sub channel
)

// Message is one delivery handed to a Sink.
type Message struct {
	Kind    MessageKind
	Key     string
	Payload string
}

// Sink delivers messages in one round trip.
type Sink interface {
	Deliver(ctx context.Context, msgs []Message) error
}

// RedisQueue implements Queue and Sink on redis lists and pub/sub.
type RedisQueue struct {
	rdb *redis.Client
}

// NewRedisQueue wraps a redis client.
func NewRedisQueue(rdb *redis.Client) *RedisQueue {
	return &RedisQueue{rdb: rdb}
}

// Pop uses BLPOP. Redis rounds timeouts below one second up to one second.
func (q *RedisQueue) Pop(ctx context.Context, queue string, timeout time.Duration) (string, error) {
	result, err := q.rdb.BLPop(ctx, timeout, queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrEmpty
		}
		return "", err
	}
	if len(result) < 2 {
		return "", ErrEmpty
	}
	return result[1], nil
}

func (q *RedisQueue) TryPop(ctx context.Context, queue string) (string, error) {
	item, err := q.rdb.LPop(ctx, queue).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrEmpty
	}
	return item, err
}

func (q *RedisQueue) Push(ctx context.Context, queue string, payloads ...string) error {
	if len(payloads) == 0 {
		return nil
	}
	pipe := q.rdb.Pipeline()
	for _, p := range payloads {
		pipe.RPush(ctx, queue, p)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Deliver pipelines every message into a single round trip.
func (q *RedisQueue) Deliver(ctx context.Context, msgs []Message) error {
	if len(msgs) == 0 {
		return nil
	}
	pipe := q.rdb.Pipeline()
	for _, m := range msgs {
		switch m.Kind {
		case KindChannel:
			pipe.Publish(ctx, m.Key, m.Payload)
		default:
			pipe.RPush(ctx, m.Key, m.Payload)
		}
	}
	_, err := pipe.Exec(ctx)
	return err
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Depths returns the length of each queue using one pipelined round trip.
func (q *RedisQueue) Depths(ctx context.Context, queues ...string) (map[string]int64, error) {
	pipe := q.rdb.Pipeline()
	cmds := make(map[string]*redis.IntCmd, len(queues))
	for _, name := range queues {
		cmds[name] = pipe.LLen(ctx, name)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(cmds))
	for name, cmd := range cmds {
		out[name] = cmd.Val()
	}
	return out, nil
}
