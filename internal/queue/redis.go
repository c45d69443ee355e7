package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const (
	syncQueueKey   = "draftsync:sync:queue"
	syncPendingKey = "draftsync:sync:pending"
)

var _ SyncQueue = (*RedisSyncQueue)(nil)

// RedisSyncQueue keeps the queue in a redis list and the de-duplication
// set next to it.
type RedisSyncQueue struct {
	client *redis.Client
}

// NewRedisSyncQueue connects to redisURL, e.g. redis://localhost:6379/0.
func NewRedisSyncQueue(redisURL string) (*RedisSyncQueue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisSyncQueue{client: client}, nil
}

// NewRedisSyncQueueWithClient creates a queue from an existing client.
func NewRedisSyncQueueWithClient(client *redis.Client) *RedisSyncQueue {
	return &RedisSyncQueue{client: client}
}

func (q *RedisSyncQueue) Enqueue(ctx context.Context, postID uuid.UUID) error {
	id := postID.String()

	added, err := q.client.SAdd(ctx, syncPendingKey, id).Result()
	if err != nil {
		return err
	}
	if added == 0 {
		// already waiting
		return nil
	}

	if err := q.client.RPush(ctx, syncQueueKey, id).Err(); err != nil {
		q.client.SRem(ctx, syncPendingKey, id)
		return err
	}
	return nil
}

func (q *RedisSyncQueue) Dequeue(ctx context.Context, timeout time.Duration) (uuid.UUID, error) {
	res, err := q.client.BLPop(ctx, timeout, syncQueueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, ErrEmpty
		}
		return uuid.Nil, err
	}

	// BLPOP returns the key followed by the value
	raw := res[1]
	if err := q.client.SRem(ctx, syncPendingKey, raw).Err(); err != nil {
		return uuid.Nil, err
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("queue: malformed id %q: %w", raw, err)
	}
	return id, nil
}

func (q *RedisSyncQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, syncQueueKey).Result()
}

// Ping checks the connection.
func (q *RedisSyncQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (q *RedisSyncQueue) Close() error {
	return q.client.Close()
}
