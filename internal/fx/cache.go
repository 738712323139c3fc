package fx

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores a day's rates keyed by calendar date. Implementations must
// tolerate concurrent readers; the service never mutates a stored day.
type Cache interface {
	GetDay(ctx context.Context, day string) (map[Currency]float64, bool, error)
	SetDay(ctx context.Context, day string, rates map[Currency]float64) error
}

// cacheTTL keeps cached days around long enough for the fallback lookback.
const cacheTTL = 45 * 24 * time.Hour

// RedisCache persists daily rates in a redis hash per day.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps a redis client as a rate cache.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func dayKey(day string) string {
	return "fx:rates:" + day
}

// GetDay loads a cached day. The second return is false when the day was
// never stored.
func (c *RedisCache) GetDay(ctx context.Context, day string) (map[Currency]float64, bool, error) {
	raw, err := c.client.HGetAll(ctx, dayKey(day)).Result()
	if err != nil {
		return nil, false, fmt.Errorf("fx: redis get day %s: %w", day, err)
	}
	if len(raw) == 0 {
		return nil, false, nil
	}
	rates := make(map[Currency]float64, len(raw))
	for code, val := range raw {
		rate, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, false, fmt.Errorf("fx: corrupt cached rate %s=%q: %w", code, val, err)
		}
		rates[Currency(code)] = rate
	}
	return rates, true, nil
}

// SetDay stores a day's rates atomically with an expiry.
func (c *RedisCache) SetDay(ctx context.Context, day string, rates map[Currency]float64) error {
	fields := make(map[string]any, len(rates))
	for code, rate := range rates {
		fields[string(code)] = strconv.FormatFloat(rate, 'f', -1, 64)
	}
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, dayKey(day), fields)
	pipe.Expire(ctx, dayKey(day), cacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("fx: redis set day %s: %w", day, err)
	}
	return nil
}
