// Package cache provides the in-process TTL quote cache. A Redis-backed
// implementation of the same interface lives in the redis subpackage for
// deployments that share a cache across instances.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/kestrelhq/arbscope/internal/domain"
)

// DefaultTTL is the window within which identical provider queries are
// coalesced.
const DefaultTTL = 30 * time.Second

type entry struct {
	markets []domain.Market
	expires time.Time
}

// Memory is a process-local TTL cache. Expiry is checked lazily on read;
// there is no background sweeper. It is safe for concurrent use.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

// NewMemory creates a Memory cache. A non-positive ttl falls back to
// DefaultTTL.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// Get returns the cached markets for key. Expired entries are evicted on
// read and reported as a miss.
func (m *Memory) Get(_ context.Context, key string) ([]domain.Market, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	if !m.now().Before(e.expires) {
		delete(m.entries, key)
		return nil, domain.ErrCacheMiss
	}
	return e.markets, nil
}

// Set stores markets under key with expiry = now + TTL.
func (m *Memory) Set(_ context.Context, key string, markets []domain.Market) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = entry{markets: markets, expires: m.now().Add(m.ttl)}
	return nil
}
