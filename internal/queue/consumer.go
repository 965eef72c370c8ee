package queue

import (
	"context"
	"time"

	"cafeteria-meals/internal/logger"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

const (
	popTimeout = 5 * time.Second
	maxBackoff = 30 * time.Second
)

type MessageHandler func(ctx context.Context, data []byte) error

type Consumer struct {
	client *redis.Client
	queues Queues
	log    zerolog.Logger
}

func NewConsumer(redisClient *RedisClient) *Consumer {
	return &Consumer{
		client: redisClient.client,
		queues: redisClient.queues,
		log:    logger.Component("queue"),
	}
}

func (c *Consumer) ConsumeClaimQueue(ctx context.Context, handler MessageHandler) error {
	return c.consume(ctx, c.queues.Claims, handler)
}

func (c *Consumer) ConsumeIngestionQueue(ctx context.Context, handler MessageHandler) error {
	return c.consume(ctx, c.queues.Rosters, handler)
}

// DeadLetterClaim parks a claim message that failed after it was accepted.
func (c *Consumer) DeadLetterClaim(ctx context.Context, data []byte, reason error) error {
	return c.deadLetter(ctx, c.queues.Claims, data, reason)
}

// consume pops until ctx is done. Redis errors back off exponentially up to
// maxBackoff; a handler error sends the message to the DLQ.
func (c *Consumer) consume(ctx context.Context, name string, handler MessageHandler) error {
	log := c.log.With().Str("queue", name).Logger()
	backoff := time.Second

	for ctx.Err() == nil {
		result, err := c.client.BRPop(ctx, popTimeout, name).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Error().Err(err).Dur("backoff", backoff).Msg("Failed to pop message")
			if !sleep(ctx, backoff) {
				break
			}
			backoff = nextBackoff(backoff)
			continue
		}
		backoff = time.Second

		// BRPOP replies with [list, value].
		if len(result) < 2 {
			continue
		}
		message := []byte(result[1])

		// The message is off the list now, so shutdown must not abandon it.
		msgCtx := context.WithoutCancel(ctx)
		if err := handler(msgCtx, message); err != nil {
			log.Error().Err(err).Msg("Failed to process message")
			if dlqErr := c.deadLetter(msgCtx, name, message, err); dlqErr != nil {
				log.Error().Err(dlqErr).Msg("Failed to move message to DLQ")
			}
		}
	}
	return ctx.Err()
}

func (c *Consumer) deadLetter(ctx context.Context, name string, data []byte, reason error) error {
	record, err := encodeDeadLetter(name, data, reason, time.Now())
	if err != nil {
		return err
	}
	return c.client.LPush(ctx, c.queues.DeadLetter(name), record).Err()
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
