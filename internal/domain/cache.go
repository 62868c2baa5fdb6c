package domain

import (
	"context"
	"fmt"
)

// QuoteCache coalesces repeated identical provider queries within a short
// TTL window. Staleness within the window is acceptable for this domain;
// the cache exists to cut upstream call volume, not for correctness, so
// concurrent recomputation of the same key is tolerated.
type QuoteCache interface {
	// Get returns the cached markets for key, or ErrCacheMiss if the key
	// is absent or its entry has expired.
	Get(ctx context.Context, key string) ([]Market, error)
	// Set stores markets under key with the cache's configured TTL.
	Set(ctx context.Context, key string, markets []Market) error
}

// QuoteCacheKey builds the cache key for one provider query.
func QuoteCacheKey(platform Platform, op, query string, limit int) string {
	return fmt.Sprintf("quotes:%s:%s:%s:%d", platform, op, query, limit)
}
