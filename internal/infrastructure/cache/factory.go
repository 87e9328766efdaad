package cache

import (
	"context"
	"fmt"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ReportCacheFactory creates the income statement cache selected by configuration
type ReportCacheFactory struct {
	cacheConfig           config.CacheConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// ReportCacheFactoryOption is a functional option for configuring the factory
type ReportCacheFactoryOption func(*ReportCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) ReportCacheFactoryOption {
	return func(f *ReportCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to
// the in-memory cache. Default is true.
func WithInMemoryFallback(allow bool) ReportCacheFactoryOption {
	return func(f *ReportCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewReportCacheFactory creates a new factory
func NewReportCacheFactory(cacheCfg config.CacheConfig, redisCfg config.RedisConfig, opts ...ReportCacheFactoryOption) *ReportCacheFactory {
	f := &ReportCacheFactory{
		cacheConfig:           cacheCfg,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns nil when caching is disabled. The caller must treat a nil
// cache as "always miss".
func (f *ReportCacheFactory) Create(ctx context.Context) (finance.IncomeStatementCache, error) {
	if !f.cacheConfig.Enabled {
		return nil, nil
	}
	if f.cacheConfig.Backend != "redis" {
		f.logger.Info("using in-memory income statement cache", zap.Duration("ttl", f.cacheConfig.TTL))
		return NewInMemoryReportCache(f.cacheConfig.TTL), nil
	}

	store, err := NewRedisReportCache(ctx, &redis.Options{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}, f.cacheConfig.TTL)
	if err == nil {
		f.logger.Info("using Redis income statement cache", zap.String("addr", f.redisConfig.Addr()))
		return store, nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis report cache unavailable: %w", err)
	}
	f.logger.Warn("Redis unavailable, falling back to in-memory income statement cache", zap.Error(err))
	return NewInMemoryReportCache(f.cacheConfig.TTL), nil
}
