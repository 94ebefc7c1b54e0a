// Package cache holds the optional Redis-backed quote cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ndewijer/stock-tracker/internal/config"
	"github.com/ndewijer/stock-tracker/internal/model"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "quote:"

// NewRedisClient connects to Redis and verifies the connection with a PING.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pong, err := rdb.Ping(ctx).Result()
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	slog.Info("Redis connected", slog.String("pong", pong))

	return rdb, nil
}

// RedisQuoteCache stores quotes as JSON under "quote:<SYMBOL>" with a TTL.
//
// Cache failures are never fatal: a failed read is a miss and a failed write
// is logged and dropped.
type RedisQuoteCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisQuoteCache wraps an existing client.
func NewRedisQuoteCache(client *redis.Client, ttl time.Duration) *RedisQuoteCache {
	return &RedisQuoteCache{redis: client, ttl: ttl}
}

// Get returns the cached quote of symbol.
func (c *RedisQuoteCache) Get(ctx context.Context, symbol string) (model.PriceQuote, bool) {
	res, err := c.redis.Get(ctx, keyPrefix+symbol).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("failed on redis.Get", slog.String("err", err.Error()), slog.String("symbol", symbol))
		}
		return model.PriceQuote{}, false
	}

	var q model.PriceQuote
	if err := json.Unmarshal([]byte(res), &q); err != nil {
		slog.Warn("can't unmarshal cached quote", slog.String("err", err.Error()), slog.String("symbol", symbol))
		return model.PriceQuote{}, false
	}

	return q, true
}

// Set caches quote until the TTL expires.
func (c *RedisQuoteCache) Set(ctx context.Context, quote model.PriceQuote) {
	data, err := json.Marshal(quote)
	if err != nil {
		slog.Warn("can't marshal quote", slog.String("err", err.Error()), slog.String("symbol", quote.Symbol))
		return
	}

	if err := c.redis.Set(ctx, keyPrefix+quote.Symbol, data, c.ttl).Err(); err != nil {
		slog.Warn("failed on redis.Set", slog.String("err", err.Error()), slog.String("symbol", quote.Symbol))
	}
}
