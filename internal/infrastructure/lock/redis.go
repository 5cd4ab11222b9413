// Package lock provides distributed document locks on Redis.
package lock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"forestledger/internal/core/apperror"
)

// DefaultTTL bounds how long a crashed holder can block a document.
const DefaultTTL = 30 * time.Second

type obtainer interface {
	Obtain(ctx context.Context, key string, ttl time.Duration, opt *redislock.Options) (*redislock.Lock, error)
}

// RedisLocker takes short-lived exclusive locks keyed by document.
type RedisLocker struct {
	client obtainer
	ttl    time.Duration
	retry  redislock.RetryStrategy
}

// NewRedisLocker creates a locker on rdb. Acquire waits up to three short backoffs
// before giving up with DocumentLocked.
func NewRedisLocker(rdb redis.UniversalClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLocker{
		client: redislock.New(rdb),
		ttl:    ttl,
		retry:  redislock.LimitRetry(redislock.ExponentialBackoff(50*time.Millisecond, 500*time.Millisecond), 3),
	}
}

// Connect opens a Redis client and verifies it answers.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		PoolSize: 20,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return rdb, nil
}

// Acquire obtains the lock for key. The returned func releases it.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	lk, err := l.client.Obtain(ctx, key, l.ttl, &redislock.Options{RetryStrategy: l.retry})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, apperror.NewDocumentLocked(documentID(key))
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}

	return func(ctx context.Context) error {
		err := lk.Release(ctx)
		if errors.Is(err, redislock.ErrLockNotHeld) {
			// Expired before release; nothing left to free.
			return nil
		}
		return err
	}, nil
}

func documentID(key string) string {
	if i := strings.LastIndex(key, ":"); i >= 0 {
		return key[i+1:]
	}
	return key
}
