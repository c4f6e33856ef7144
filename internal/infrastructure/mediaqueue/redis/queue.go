// Package redis delivers media curation jobs to a Redis list.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ersonp/lore-sync/internal/domain/entities"
	"github.com/ersonp/lore-sync/internal/infrastructure/config"
)

// DefaultKey is the list media jobs are pushed to.
const DefaultKey = "lore-sync:media-jobs"

// Queue implements ports.MediaQueue with LPUSH. Consumers BRPOP the same key.
type Queue struct {
	client *redis.Client
	key    string
}

// NewQueue wraps an existing client.
func NewQueue(client *redis.Client, key string) *Queue {
	if key == "" {
		key = DefaultKey
	}
	return &Queue{client: client, key: key}
}

// Open connects to the Redis server in cfg.RedisURL.
func Open(ctx context.Context, cfg config.MediaConfig) (*Queue, error) {
	if cfg.RedisURL == "" {
		return nil, errors.New("media redis_url is required")
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opts.DialTimeout = 2 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewQueue(client, cfg.Key), nil
}

// Enqueue pushes one job.
func (q *Queue) Enqueue(ctx context.Context, job entities.MediaJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshaling media job: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("pushing media job %s/%s: %w", job.EntityType, job.EntityID, err)
	}
	return nil
}

// Len returns the number of queued jobs.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

// Close closes the Redis connection.
func (q *Queue) Close() error {
	return q.client.Close()
}
