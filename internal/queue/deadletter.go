package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// DeadLetter wraps a message that could not be processed. Payload is the
// original message as received, so a replay pushes back the same bytes.
type DeadLetter struct {
	Queue    string    `json:"queue"`
	Reason   string    `json:"reason"`
	FailedAt time.Time `json:"failed_at"`
	Payload  string    `json:"payload"`
}

func encodeDeadLetter(queueName string, payload []byte, reason error, at time.Time) ([]byte, error) {
	dl := DeadLetter{Queue: queueName, FailedAt: at.UTC(), Payload: string(payload)}
	if reason != nil {
		dl.Reason = reason.Error()
	}
	return json.Marshal(dl)
}

func decodeDeadLetter(data []byte) (DeadLetter, error) {
	var dl DeadLetter
	if err := json.Unmarshal(data, &dl); err != nil {
		return dl, fmt.Errorf("failed to decode dead letter: %w", err)
	}
	if dl.Queue == "" {
		return dl, fmt.Errorf("dead letter has no source queue")
	}
	return dl, nil
}

// DeadLetters inspects and replays the DLQ of one pipeline.
type DeadLetters struct {
	client *redis.Client
	lists  deadLetterLists
	queues Queues
}

func NewDeadLetters(redisClient *RedisClient) *DeadLetters {
	return &DeadLetters{
		client: redisClient.client,
		lists:  redisLists{client: redisClient.client},
		queues: redisClient.queues,
	}
}

// List returns up to limit dead letters, oldest first.
func (d *DeadLetters) List(ctx context.Context, queueName string, limit int64) ([]DeadLetter, error) {
	if limit <= 0 {
		limit = 50
	}
	raw, err := d.client.LRange(ctx, d.queues.DeadLetter(queueName), -limit, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", d.queues.DeadLetter(queueName), err)
	}

	out := make([]DeadLetter, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		dl, err := decodeDeadLetter([]byte(raw[i]))
		if err != nil {
			return nil, err
		}
		out = append(out, dl)
	}
	return out, nil
}

// Replay moves up to limit dead letters back onto their source queue,
// oldest first, and returns how many were moved. A letter leaves the DLQ
// only in the same transaction that requeues its payload.
func (d *DeadLetters) Replay(ctx context.Context, queueName string, limit int) (int, error) {
	dlq := d.queues.DeadLetter(queueName)
	moved := 0
	for moved < limit {
		raw, err := d.lists.oldest(ctx, dlq)
		if err != nil {
			return moved, fmt.Errorf("failed to read %s: %w", dlq, err)
		}
		if raw == nil {
			return moved, nil
		}

		dl, err := decodeDeadLetter(raw)
		if err != nil {
			return moved, err
		}
		if err := d.lists.requeue(ctx, dlq, raw, dl.Queue, dl.Payload); err != nil {
			return moved, fmt.Errorf("failed to requeue on %s: %w", dl.Queue, err)
		}
		moved++
	}
	return moved, nil
}

type deadLetterLists interface {
	// oldest returns the tail of the DLQ, or nil when it is empty.
	oldest(ctx context.Context, dlq string) ([]byte, error)
	requeue(ctx context.Context, dlq string, raw []byte, queueName, payload string) error
}

type redisLists struct {
	client *redis.Client
}

func (r redisLists) oldest(ctx context.Context, dlq string) ([]byte, error) {
	raw, err := r.client.LIndex(ctx, dlq, -1).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return raw, err
}

// requeue pushes the payload and removes that exact letter in one
// MULTI/EXEC, so a failure leaves the letter where it was.
func (r redisLists) requeue(ctx context.Context, dlq string, raw []byte, queueName, payload string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, queueName, payload)
		pipe.LRem(ctx, dlq, -1, raw)
		return nil
	})
	return err
}
