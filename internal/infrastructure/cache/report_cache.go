package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "ledger:dre:"

// RedisReportCache stores income statements in Redis. Keys embed a
// generation counter; Invalidate bumps it so older entries are never read
// again and expire on their own TTL.
type RedisReportCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisReportCache connects to Redis and verifies the connection
func NewRedisReportCache(ctx context.Context, opts *redis.Options, ttl time.Duration) (*RedisReportCache, error) {
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisReportCacheWithClient(client, "", ttl), nil
}

// NewRedisReportCacheWithClient wraps an existing client
func NewRedisReportCacheWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisReportCache {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisReportCache{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

func (c *RedisReportCache) generationKey() string {
	return c.keyPrefix + "generation"
}

func (c *RedisReportCache) entryKey(generation int64, start, end string) string {
	return fmt.Sprintf("%s%d:%s:%s", c.keyPrefix, generation, start, end)
}

func (c *RedisReportCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Get returns the cached statement for [start, end]
func (c *RedisReportCache) Get(ctx context.Context, start, end string) (*finance.IncomeStatement, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("read cache generation: %w", err)
	}
	data, err := c.client.Get(ctx, c.entryKey(gen, start, end)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached statement: %w", err)
	}
	var stmt finance.IncomeStatement
	if err := json.Unmarshal(data, &stmt); err != nil {
		return nil, false, fmt.Errorf("decode cached statement: %w", err)
	}
	return &stmt, true, nil
}

// Set stores the statement under the current generation
func (c *RedisReportCache) Set(ctx context.Context, start, end string, stmt *finance.IncomeStatement) error {
	gen, err := c.generation(ctx)
	if err != nil {
		return fmt.Errorf("read cache generation: %w", err)
	}
	data, err := json.Marshal(stmt)
	if err != nil {
		return fmt.Errorf("encode statement: %w", err)
	}
	return c.client.Set(ctx, c.entryKey(gen, start, end), data, c.ttl).Err()
}

// Invalidate bumps the generation counter
func (c *RedisReportCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, c.generationKey()).Err()
}

// Close closes the Redis client
func (c *RedisReportCache) Close() error {
	return c.client.Close()
}

var _ finance.IncomeStatementCache = (*RedisReportCache)(nil)
