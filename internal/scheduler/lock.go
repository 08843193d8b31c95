package scheduler

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisLock implements Locker with SET NX and a TTL, so a crashed holder
// frees the lock on its own
type RedisLock struct {
	client *redis.Client
}

// NewRedisLock creates a new redis-backed lock
func NewRedisLock(client *redis.Client) *RedisLock {
	return &RedisLock{client: client}
}

// Acquire attempts to take the lock, reporting whether we got it
func (l *RedisLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, key, "1", ttl).Result()
}

// Release frees the lock
func (l *RedisLock) Release(ctx context.Context, key string) error {
	return l.client.Del(ctx, key).Err()
}
