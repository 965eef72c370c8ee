package queue

import (
	"context"
	"fmt"
	"time"

	"cafeteria-meals/internal/config"

	"github.com/go-redis/redis/v8"
)

// Queues names the Redis lists behind the claim and roster pipelines.
type Queues struct {
	Claims    string
	Rosters   string
	DLQSuffix string
}

func QueuesFrom(cfg config.RedisConfig) Queues {
	return Queues{Claims: cfg.ClaimQueue, Rosters: cfg.IngestionQueue, DLQSuffix: cfg.DLQSuffix}
}

func (q Queues) DeadLetter(name string) string {
	return name + q.DLQSuffix
}

// Resolve maps an operator-facing alias ("claims", "rosters") to its list.
func (q Queues) Resolve(alias string) (string, error) {
	switch alias {
	case "claims", q.Claims:
		return q.Claims, nil
	case "rosters", q.Rosters:
		return q.Rosters, nil
	default:
		return "", fmt.Errorf("unknown queue %q", alias)
	}
}

type RedisClient struct {
	client *redis.Client
	queues Queues
}

func NewRedisClient(cfg *config.Config) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.RedisAddr(),
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		PoolSize:    cfg.Redis.PoolSize,
		DialTimeout: 5 * time.Second,
		// BRPOP blocks for popTimeout; reads must outlast it.
		ReadTimeout: popTimeout + 5*time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping Redis at %s: %w", cfg.RedisAddr(), err)
	}

	return &RedisClient{client: rdb, queues: QueuesFrom(cfg.Redis)}, nil
}

func (r *RedisClient) Queues() Queues {
	return r.queues
}

// Depth returns the number of messages waiting on a list.
func (r *RedisClient) Depth(ctx context.Context, name string) (int64, error) {
	return r.client.LLen(ctx, name).Result()
}

func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
