package lookupregistry

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// resultCache stores successful lookups. A nil client disables it.
type resultCache struct {
	client *redis.Client
	ttl    time.Duration
}

func cacheKey(lookupType, digits string) string {
	return "lookup:" + lookupType + ":" + digits
}

func (c *resultCache) get(ctx context.Context, key string) ([]byte, bool, error) {
	if c.client == nil {
		return nil, false, nil
	}
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *resultCache) set(ctx context.Context, key string, data []byte) error {
	if c.client == nil || c.ttl <= 0 {
		return nil
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}
