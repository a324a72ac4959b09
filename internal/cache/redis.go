package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultProductTTL = 10 * time.Minute

// Cache wraps Redis for product details and rate-limit counters.
// A Cache built from a nil client is disabled: reads miss and writes are dropped.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func New(client *redis.Client, ttl time.Duration, log *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultProductTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{client: client, ttl: ttl, log: log}
}

func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

func productKey(id uint) string {
	return fmt.Sprintf("product:%d", id)
}

func rateLimitKey(scope, subject string) string {
	return fmt.Sprintf("ratelimit:%s:%s", scope, subject)
}

// GetProduct decodes the cached detail of product id into dest. It reports whether there was a hit.
func (c *Cache) GetProduct(ctx context.Context, id uint, dest interface{}) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	data, err := c.client.Get(ctx, productKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read product %d from cache: %w", id, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		// A stale layout is a miss, not a failure.
		c.log.Warn("dropping undecodable cache entry", zap.Uint("product_id", id), zap.Error(err))
		_ = c.client.Del(ctx, productKey(id)).Err()
		return false, nil
	}
	return true, nil
}

func (c *Cache) SetProduct(ctx context.Context, id uint, value interface{}) error {
	if !c.Enabled() {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode product %d: %w", id, err)
	}
	return c.client.Set(ctx, productKey(id), data, c.ttl).Err()
}

// InvalidateProducts drops cached details. Failures are logged; the TTL bounds staleness.
func (c *Cache) InvalidateProducts(ctx context.Context, ids ...uint) {
	if !c.Enabled() || len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("product cache invalidation failed", zap.Uints("product_ids", ids), zap.Error(err))
	}
}

// IncrementRateLimit bumps the counter for (scope, subject) and returns the count in the current window.
func (c *Cache) IncrementRateLimit(ctx context.Context, scope, subject string, window time.Duration) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}
	key := rateLimitKey(scope, subject)
	pipe := c.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
