// Package cache keeps trained models in process and optionally mirrors them to redis
// so api replicas and the cli share one model
package cache

import (
	"context"
	"errors"
	"time"

	"trendflow/internal/core/predict"
	"trendflow/internal/platform/logger"
	"trendflow/internal/platform/metrics"
	"trendflow/internal/services/trends/domain"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix   = "trendflow:trends:model:"
	allScope    = "all"
	defaultSize = 16
	defaultTTL  = 6 * time.Hour
)

// Options configures the cache, a nil Redis keeps models in process only
type Options struct {
	Size  int
	TTL   time.Duration
	Redis *redis.Client
}

// Cache is a two layer domain.ModelCache
type Cache struct {
	mem *expirable.LRU[string, *predict.Model]
	rdb *redis.Client
	ttl time.Duration
	log logger.Logger
}

var _ domain.ModelCache = (*Cache)(nil)

// New builds a cache, zero options take a 16 entry LRU with a 6h TTL
func New(o Options) *Cache {
	if o.Size <= 0 {
		o.Size = defaultSize
	}
	if o.TTL <= 0 {
		o.TTL = defaultTTL
	}
	return &Cache{
		mem: expirable.NewLRU[string, *predict.Model](o.Size, nil, o.TTL),
		rdb: o.Redis,
		ttl: o.TTL,
		log: *logger.Named("trends.cache"),
	}
}

// Key returns the redis key of a scope
func Key(scope string) string {
	if scope == "" {
		scope = allScope
	}
	return keyPrefix + scope
}

// Get checks memory first and falls back to redis, a redis hit is promoted to memory
// redis errors count as a miss
func (c *Cache) Get(ctx context.Context, scope string) (*predict.Model, bool) {
	k := Key(scope)
	if m, ok := c.mem.Get(k); ok {
		metrics.ModelCache.WithLabelValues("memory", "hit").Inc()
		return m, true
	}
	metrics.ModelCache.WithLabelValues("memory", "miss").Inc()
	if c.rdb == nil {
		return nil, false
	}

	b, err := c.rdb.Get(ctx, k).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		metrics.ModelCache.WithLabelValues("redis", "miss").Inc()
		return nil, false
	case err != nil:
		metrics.ModelCache.WithLabelValues("redis", "error").Inc()
		c.log.Warn().Err(err).Str("key", k).Msg("model cache read failed")
		return nil, false
	}
	m, err := predict.Unmarshal(b)
	if err != nil {
		metrics.ModelCache.WithLabelValues("redis", "error").Inc()
		c.log.Warn().Err(err).Str("key", k).Msg("cached model is unreadable, dropping it")
		c.rdb.Del(ctx, k)
		return nil, false
	}
	metrics.ModelCache.WithLabelValues("redis", "hit").Inc()
	c.mem.Add(k, m)
	return m, true
}

// Put stores m in both layers, a redis failure is logged only
func (c *Cache) Put(ctx context.Context, scope string, m *predict.Model) {
	if m == nil {
		return
	}
	k := Key(scope)
	c.mem.Add(k, m)
	if c.rdb == nil {
		return
	}
	b, err := m.Marshal()
	if err != nil {
		c.log.Warn().Err(err).Msg("model not serialisable, kept in memory only")
		return
	}
	if err := c.rdb.Set(ctx, k, b, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", k).Msg("model cache write failed")
	}
}

// Invalidate drops the scope from both layers
func (c *Cache) Invalidate(ctx context.Context, scope string) {
	k := Key(scope)
	c.mem.Remove(k)
	if c.rdb != nil {
		if err := c.rdb.Del(ctx, k).Err(); err != nil {
			c.log.Warn().Err(err).Str("key", k).Msg("model cache delete failed")
		}
	}
}
