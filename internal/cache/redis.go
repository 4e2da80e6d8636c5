// Package cache holds the redis backed helpers: the per-day sellable snapshot
// read at the register and the distributed lock used by import commits.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"bakerypos/internal/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sellableTTL = 36 * time.Hour

// Connect dials redis and pings it once. Callers fall back to the noop
// implementations when this fails.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, errors.New("REDIS_ADDRESS is not set")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: 50,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Address, err)
	}
	return rdb, nil
}

// StockCache keeps the latest sellable quantity per product per day.
type StockCache interface {
	GetSellable(ctx context.Context, dateKey string, productID uuid.UUID) (qty int, ok bool, err error)
	SetSellable(ctx context.Context, dateKey string, productID uuid.UUID, qty int) error
	Invalidate(ctx context.Context, dateKey string) error
}

type redisStockCache struct {
	rdb *redis.Client
}

func NewRedisStockCache(rdb *redis.Client) StockCache {
	return &redisStockCache{rdb: rdb}
}

func sellableKey(dateKey string) string {
	return "sellable:" + dateKey
}

func (c *redisStockCache) GetSellable(ctx context.Context, dateKey string, productID uuid.UUID) (int, bool, error) {
	val, err := c.rdb.HGet(ctx, sellableKey(dateKey), productID.String()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, err
	}
	qty, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt sellable entry %q: %w", val, err)
	}
	return qty, true, nil
}

func (c *redisStockCache) SetSellable(ctx context.Context, dateKey string, productID uuid.UUID, qty int) error {
	key := sellableKey(dateKey)
	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, key, productID.String(), qty)
	pipe.Expire(ctx, key, sellableTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *redisStockCache) Invalidate(ctx context.Context, dateKey string) error {
	return c.rdb.Del(ctx, sellableKey(dateKey)).Err()
}

type noopStockCache struct{}

// NewNoopStockCache is used when redis is not configured; every read misses.
func NewNoopStockCache() StockCache {
	return noopStockCache{}
}

func (noopStockCache) GetSellable(context.Context, string, uuid.UUID) (int, bool, error) {
	return 0, false, nil
}

func (noopStockCache) SetSellable(context.Context, string, uuid.UUID, int) error { return nil }

func (noopStockCache) Invalidate(context.Context, string) error { return nil }
