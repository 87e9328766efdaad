package cache

import (
	"context"
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInMemoryReportCache(t *testing.T) {
	ctx := context.Background()
	stmt := &finance.IncomeStatement{Periods: []string{"2024-01"}}

	t.Run("hit until ttl expires", func(t *testing.T) {
		c := NewInMemoryReportCache(time.Minute)
		now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		c.now = func() time.Time { return now }

		require.NoError(t, c.Set(ctx, "2024-01", "2024-03", stmt))
		got, ok, err := c.Get(ctx, "2024-01", "2024-03")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Same(t, stmt, got)

		now = now.Add(time.Minute)
		_, ok, err = c.Get(ctx, "2024-01", "2024-03")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("range is part of the key", func(t *testing.T) {
		c := NewInMemoryReportCache(0)
		require.NoError(t, c.Set(ctx, "2024-01", "2024-03", stmt))
		_, ok, _ := c.Get(ctx, "2024-01", "2024-02")
		assert.False(t, ok)
	})

	t.Run("invalidate drops everything", func(t *testing.T) {
		c := NewInMemoryReportCache(0)
		require.NoError(t, c.Set(ctx, "2024-01", "2024-03", stmt))
		require.NoError(t, c.Set(ctx, "2024-04", "2024-06", stmt))
		require.NoError(t, c.Invalidate(ctx))
		assert.Zero(t, c.Len())
	})
}

func TestRedisReportCache_Keys(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()

	c := NewRedisReportCacheWithClient(client, "", time.Minute)
	assert.Equal(t, "ledger:dre:generation", c.generationKey())
	assert.Equal(t, "ledger:dre:3:2024-01:2024-12", c.entryKey(3, "2024-01", "2024-12"))

	custom := NewRedisReportCacheWithClient(client, "test:", time.Minute)
	assert.Equal(t, "test:0:a:b", custom.entryKey(0, "a", "b"))
}

func TestReportCacheFactory(t *testing.T) {
	ctx := context.Background()
	unreachable := config.RedisConfig{Host: "127.0.0.1", Port: 1}

	t.Run("disabled returns nil", func(t *testing.T) {
		c, err := NewReportCacheFactory(config.CacheConfig{Enabled: false}, unreachable).Create(ctx)
		require.NoError(t, err)
		assert.Nil(t, c)
	})

	t.Run("memory backend", func(t *testing.T) {
		c, err := NewReportCacheFactory(config.CacheConfig{Enabled: true, Backend: "memory"}, unreachable).Create(ctx)
		require.NoError(t, err)
		assert.IsType(t, &InMemoryReportCache{}, c)
	})

	t.Run("unreachable redis falls back with a warning", func(t *testing.T) {
		core, recorded := observer.New(zapcore.WarnLevel)
		f := NewReportCacheFactory(config.CacheConfig{Enabled: true, Backend: "redis"}, unreachable, WithLogger(zap.New(core)))

		c, err := f.Create(ctx)
		require.NoError(t, err)
		assert.IsType(t, &InMemoryReportCache{}, c)
		assert.Equal(t, 1, recorded.Len())
	})

	t.Run("fallback can be disabled", func(t *testing.T) {
		f := NewReportCacheFactory(config.CacheConfig{Enabled: true, Backend: "redis"}, unreachable, WithInMemoryFallback(false))
		_, err := f.Create(ctx)
		assert.Error(t, err)
	})
}
