// Package aggregate presents a platform-agnostic view over the configured
// provider adapters: concurrent fan-out, failure isolation, deduplication,
// and cross-platform comparison.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kestrelhq/arbscope/internal/domain"
	"github.com/kestrelhq/arbscope/internal/match"
)

// compareFetchLimit bounds the per-platform pull feeding a comparison, which
// keeps the O(n^2) grouping pass cheap.
const compareFetchLimit = 50

// Aggregator fans queries out to every configured provider concurrently.
// Each provider call is failure-isolated: an erroring or timed-out adapter
// contributes an empty list plus an informational error string, and the
// overall call still succeeds with whatever subset responded.
type Aggregator struct {
	providers map[domain.Platform]domain.Provider
	order     []domain.Platform
	minSpread float64
	logger    *slog.Logger
}

// New creates an Aggregator over the given providers. minSpread is the
// spread at which a comparison group is flagged as carrying arbitrage.
func New(providers []domain.Provider, minSpread float64, logger *slog.Logger) *Aggregator {
	a := &Aggregator{
		providers: make(map[domain.Platform]domain.Provider, len(providers)),
		minSpread: minSpread,
		logger:    logger.With(slog.String("component", "aggregator")),
	}
	for _, p := range providers {
		if !p.IsConfigured() {
			continue
		}
		if _, dup := a.providers[p.Platform()]; dup {
			continue
		}
		a.providers[p.Platform()] = p
		a.order = append(a.order, p.Platform())
	}
	return a
}

// Platforms returns the configured platforms in fan-out order.
func (a *Aggregator) Platforms() []domain.Platform {
	out := make([]domain.Platform, len(a.order))
	copy(out, a.order)
	return out
}

// SearchAll searches every configured platform concurrently. Results are
// flattened, deduplicated by (platform, id) keeping the first occurrence,
// and sorted by volume descending. The string slice carries per-source
// failure descriptions; it is informational, never fatal.
func (a *Aggregator) SearchAll(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.Market, []string) {
	return a.SearchPlatforms(ctx, a.order, query, opts)
}

// SearchPlatforms is SearchAll restricted to a caller-supplied subset.
// Unknown platforms in the subset are reported in the error strings.
func (a *Aggregator) SearchPlatforms(ctx context.Context, subset []domain.Platform, query string, opts domain.SearchOptions) ([]domain.Market, []string) {
	markets, errs := a.fanOut(ctx, subset, func(ctx context.Context, p domain.Provider) ([]domain.Market, error) {
		return p.Search(ctx, query, opts)
	})
	sortByVolume(markets)
	return markets, errs
}

// GetHotAll returns the top markets by volume across all platforms,
// limitPerPlatform from each, merged and re-sorted.
func (a *Aggregator) GetHotAll(ctx context.Context, limitPerPlatform int) ([]domain.Market, []string) {
	markets, errs := a.fanOut(ctx, a.order, func(ctx context.Context, p domain.Provider) ([]domain.Market, error) {
		return p.GetHot(ctx, limitPerPlatform)
	})
	sortByVolume(markets)
	return markets, errs
}

// GetClosingSoonAll returns markets closing within the window across all
// platforms, soonest first.
func (a *Aggregator) GetClosingSoonAll(ctx context.Context, within time.Duration, limitPerPlatform int) ([]domain.Market, []string) {
	markets, errs := a.fanOut(ctx, a.order, func(ctx context.Context, p domain.Provider) ([]domain.Market, error) {
		return p.GetClosingSoon(ctx, within, limitPerPlatform)
	})
	sort.SliceStable(markets, func(i, j int) bool {
		switch {
		case markets[i].EndDate == nil:
			return false
		case markets[j].EndDate == nil:
			return true
		default:
			return markets[i].EndDate.Before(*markets[j].EndDate)
		}
	})
	return markets, errs
}

// GetByCategoryAll returns markets in the category across all platforms,
// sorted by volume.
func (a *Aggregator) GetByCategoryAll(ctx context.Context, category string, limitPerPlatform int) ([]domain.Market, []string) {
	markets, errs := a.fanOut(ctx, a.order, func(ctx context.Context, p domain.Provider) ([]domain.Market, error) {
		return p.GetByCategory(ctx, category, limitPerPlatform)
	})
	sortByVolume(markets)
	return markets, errs
}

// GetCategoriesAll returns the union of every platform's categories,
// sorted and deduplicated.
func (a *Aggregator) GetCategoriesAll(ctx context.Context) ([]string, []string) {
	type result struct {
		cats []string
		err  error
	}
	results := make([]result, len(a.order))

	g, gctx := errgroup.WithContext(ctx)
	for i, platform := range a.order {
		p := a.providers[platform]
		i := i
		g.Go(func() error {
			cats, err := p.GetCategories(gctx)
			results[i] = result{cats: cats, err: err}
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]bool)
	var cats []string
	var errs []string
	for i, platform := range a.order {
		if results[i].err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", platform, results[i].err))
			continue
		}
		for _, c := range results[i].cats {
			if !seen[c] {
				seen[c] = true
				cats = append(cats, c)
			}
		}
	}
	sort.Strings(cats)
	return cats, errs
}

// GetMarket delegates directly to the named platform's adapter. Unlike the
// fan-out paths this surfaces explicit errors: the caller named a platform
// that should exist, so silence would hide a real fault.
func (a *Aggregator) GetMarket(ctx context.Context, platform domain.Platform, id string) (domain.Market, error) {
	p, ok := a.providers[platform]
	if !ok {
		return domain.Market{}, fmt.Errorf("aggregate: %s: %w", platform, domain.ErrPlatformNotConfigured)
	}
	return p.GetByID(ctx, id)
}

// HealthCheckAll probes every configured provider concurrently.
func (a *Aggregator) HealthCheckAll(ctx context.Context) []domain.ProviderHealth {
	healths := make([]domain.ProviderHealth, len(a.order))

	g, gctx := errgroup.WithContext(ctx)
	for i, platform := range a.order {
		p := a.providers[platform]
		i := i
		g.Go(func() error {
			healths[i] = p.HealthCheck(gctx)
			return nil
		})
	}
	_ = g.Wait()

	return healths
}

// CompareMarkets searches all platforms for the query and groups the
// results by title similarity at the given confidence floor. Each group
// becomes one MarketComparison; hasArbitrage requires at least two members
// and a max pairwise spread at or above the aggregator's threshold.
func (a *Aggregator) CompareMarkets(ctx context.Context, query string, minConfidence float64) ([]domain.MarketComparison, []string) {
	if minConfidence <= 0 {
		minConfidence = match.DefaultFloor
	}

	markets, errs := a.SearchAll(ctx, query, domain.SearchOptions{
		Limit:  compareFetchLimit,
		Status: domain.MarketStatusOpen,
	})

	groups := match.Group(markets, minConfidence)
	comparisons := make([]domain.MarketComparison, 0, len(groups))
	for _, group := range groups {
		titles := make([]string, len(group))
		for i, m := range group {
			titles[i] = m.Title
		}

		maxSpread := 0.0
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if s := group[i].YesPrice.SpreadFrom(group[j].YesPrice); s > maxSpread {
					maxSpread = s
				}
			}
		}

		comparisons = append(comparisons, domain.MarketComparison{
			Topic:        match.Topic(titles...),
			Markets:      group,
			MaxSpread:    maxSpread,
			HasArbitrage: len(group) >= 2 && maxSpread >= a.minSpread,
			Confidence:   match.GroupConfidence(group),
		})
	}
	return comparisons, errs
}

// fanOut runs fn against each requested platform concurrently, then merges
// results in platform order, deduplicating by (platform, id) first-wins.
func (a *Aggregator) fanOut(ctx context.Context, platforms []domain.Platform, fn func(context.Context, domain.Provider) ([]domain.Market, error)) ([]domain.Market, []string) {
	type result struct {
		markets []domain.Market
		err     error
	}
	results := make([]result, len(platforms))

	g, gctx := errgroup.WithContext(ctx)
	for i, platform := range platforms {
		p, ok := a.providers[platform]
		i := i
		if !ok {
			results[i] = result{err: domain.ErrPlatformNotConfigured}
			continue
		}
		g.Go(func() error {
			markets, err := fn(gctx, p)
			results[i] = result{markets: markets, err: err}
			// Failures are isolated per adapter; never fail the group.
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]bool)
	var merged []domain.Market
	var errs []string
	for i, platform := range platforms {
		if results[i].err != nil {
			a.logger.WarnContext(ctx, "provider call failed",
				slog.String("platform", string(platform)),
				slog.String("error", results[i].err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", platform, results[i].err))
			continue
		}
		for _, m := range results[i].markets {
			if seen[m.Key()] {
				continue
			}
			seen[m.Key()] = true
			merged = append(merged, m)
		}
	}
	return merged, errs
}

func sortByVolume(markets []domain.Market) {
	sort.SliceStable(markets, func(i, j int) bool {
		return markets[i].Volume > markets[j].Volume
	})
}
