package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotObtained is returned when another holder owns the lock.
var ErrLockNotObtained = errors.New("lock is held by another process")

// Locker hands out named, expiring locks. The returned func releases the lock.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

type redisLocker struct {
	client *redislock.Client
}

func NewRedisLocker(rdb *redis.Client) Locker {
	return &redisLocker{client: redislock.New(rdb)}
}

func (l *redisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	lock, err := l.client.Obtain(ctx, key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(200*time.Millisecond), 10),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLockNotObtained
	}
	if err != nil {
		return nil, err
	}
	return lock.Release, nil
}

// localLocker serializes holders inside one process when redis is absent.
type localLocker struct {
	mu    sync.Mutex
	held  map[string]bool
	retry time.Duration
}

func NewLocalLocker() Locker {
	return &localLocker{held: make(map[string]bool), retry: 50 * time.Millisecond}
}

func (l *localLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	deadline := time.Now().Add(ttl)
	for {
		l.mu.Lock()
		if !l.held[key] {
			l.held[key] = true
			l.mu.Unlock()
			return func(context.Context) error {
				l.mu.Lock()
				delete(l.held, key)
				l.mu.Unlock()
				return nil
			}, nil
		}
		l.mu.Unlock()

		if time.Now().After(deadline) {
			return nil, ErrLockNotObtained
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}
