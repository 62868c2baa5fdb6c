package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kestrelhq/arbscope/internal/domain"
)

// QuoteCache implements domain.QuoteCache on Redis. Entries are JSON-encoded
// market slices with a server-side TTL, so expiry needs no lazy eviction on
// the client.
type QuoteCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewQuoteCache creates a QuoteCache with the given entry TTL. A
// non-positive ttl falls back to 30 seconds.
func NewQuoteCache(c *Client, ttl time.Duration) *QuoteCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &QuoteCache{rdb: c.Underlying(), ttl: ttl}
}

// Get returns the cached markets for key, or domain.ErrCacheMiss when the
// key is absent or expired. Transport failures are reported as errors so
// callers can fall through to the upstream fetch.
func (q *QuoteCache) Get(ctx context.Context, key string) ([]domain.Market, error) {
	data, err := q.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis: get %s: %w", key, err)
	}

	var markets []domain.Market
	if err := json.Unmarshal(data, &markets); err != nil {
		return nil, fmt.Errorf("redis: unmarshal %s: %w", key, err)
	}
	return markets, nil
}

// Set stores markets under key with the configured TTL.
func (q *QuoteCache) Set(ctx context.Context, key string, markets []domain.Market) error {
	data, err := json.Marshal(markets)
	if err != nil {
		return fmt.Errorf("redis: marshal %s: %w", key, err)
	}
	if err := q.rdb.Set(ctx, key, data, q.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}
