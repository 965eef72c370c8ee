package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"cafeteria-meals/internal/model"

	"github.com/go-redis/redis/v8"
)

// Producer pushes jobs on the left of a list; consumers pop from the right,
// so each list is FIFO.
type Producer struct {
	client *redis.Client
	queues Queues
}

func NewProducer(redisClient *RedisClient) *Producer {
	return &Producer{client: redisClient.client, queues: redisClient.queues}
}

func (p *Producer) EnqueueClaim(ctx context.Context, job model.ClaimJob) error {
	return p.push(ctx, p.queues.Claims, job)
}

func (p *Producer) EnqueueIngestionJob(ctx context.Context, job model.IngestionJob) error {
	return p.push(ctx, p.queues.Rosters, job)
}

func (p *Producer) push(ctx context.Context, name string, job interface{}) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job for %s: %w", name, err)
	}
	if err := p.client.LPush(ctx, name, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue on %s: %w", name, err)
	}
	return nil
}
