package domain

import (
	"context"
	"time"
)

// SortBy selects the ordering of provider search results.
type SortBy string

const (
	SortByVolume    SortBy = "volume"
	SortByLiquidity SortBy = "liquidity"
	SortByEndDate   SortBy = "end_date"
)

// SearchOptions narrows a provider search. The zero value means no
// filtering beyond the provider's own defaults.
type SearchOptions struct {
	Limit        int
	Status       MarketStatus // empty matches any status
	Category     string
	MinVolume    float64
	MinLiquidity float64
	Sort         SortBy
}

// Provider is the uniform adapter contract each platform implements.
//
// Whether filtering happens server-side (when the upstream API supports it)
// or client-side over a larger fetched page is a per-platform detail, not
// part of the contract. All list-returning methods absorb upstream failures
// and timeouts into empty results; only GetByID surfaces ErrNotFound, and
// HealthCheck always returns a health record instead of an error.
type Provider interface {
	// Platform returns the platform this adapter serves.
	Platform() Platform

	// IsConfigured reports whether network prerequisites are met.
	// Platforms with public APIs are always configured.
	IsConfigured() bool

	// HealthCheck issues a lightweight probe under a bounded timeout.
	// It never returns an error: failures come back as Healthy=false
	// with the error string set.
	HealthCheck(ctx context.Context) ProviderHealth

	Search(ctx context.Context, query string, opts SearchOptions) ([]Market, error)
	GetHot(ctx context.Context, limit int) ([]Market, error)
	GetByID(ctx context.Context, id string) (Market, error)
	GetByIDs(ctx context.Context, ids []string) ([]Market, error)
	GetByCategory(ctx context.Context, category string, limit int) ([]Market, error)
	GetClosingSoon(ctx context.Context, within time.Duration, limit int) ([]Market, error)
	GetRecentlyResolved(ctx context.Context, limit int) ([]Market, error)
	GetCategories(ctx context.Context) ([]string, error)
}

// ProviderHealth is an ephemeral diagnostic record for one platform.
// It is recomputed on demand and never persisted.
type ProviderHealth struct {
	Platform  Platform      `json:"platform"`
	Healthy   bool          `json:"healthy"`
	Latency   time.Duration `json:"latency"`
	CheckedAt time.Time     `json:"checked_at"`
	Error     string        `json:"error,omitempty"`
}
