package kalshi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kestrelhq/arbscope/internal/domain"
	"github.com/kestrelhq/arbscope/internal/platform"
)

const (
	// DefaultTimeout bounds every upstream call. Kalshi is usually fast;
	// 4s leaves headroom for slow pagination.
	DefaultTimeout = 4 * time.Second

	// fetchLimit is the page size pulled for client-side query filtering.
	fetchLimit = 200
)

// Adapter implements domain.Provider for Kalshi.
//
// Kalshi filters status server-side; text search, category, and volume
// filters are applied client-side over a larger fetched page.
type Adapter struct {
	client  *Client
	cache   domain.QuoteCache
	timeout time.Duration
	logger  *slog.Logger
}

// NewAdapter creates a Kalshi adapter. cache may be nil to disable
// coalescing, e.g. in tests.
func NewAdapter(client *Client, cache domain.QuoteCache, timeout time.Duration, logger *slog.Logger) *Adapter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Adapter{
		client:  client,
		cache:   cache,
		timeout: timeout,
		logger:  logger.With(slog.String("platform", string(domain.PlatformKalshi))),
	}
}

// Platform returns domain.PlatformKalshi.
func (a *Adapter) Platform() domain.Platform { return domain.PlatformKalshi }

// IsConfigured always reports true: market data is public.
func (a *Adapter) IsConfigured() bool { return true }

// HealthCheck probes the markets endpoint and reports latency. It never
// returns an error; failures come back as Healthy=false.
func (a *Adapter) HealthCheck(ctx context.Context) domain.ProviderHealth {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	_, _, err := a.client.GetMarkets(ctx, MarketsParams{Limit: 1})
	health := domain.ProviderHealth{
		Platform:  domain.PlatformKalshi,
		Healthy:   err == nil,
		Latency:   time.Since(start),
		CheckedAt: time.Now().UTC(),
	}
	if err != nil {
		health.Error = err.Error()
	}
	return health
}

// Search returns markets matching the query and options.
func (a *Adapter) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.Market, error) {
	markets, err := a.fetchPage(ctx, opts.Status)
	if err != nil {
		return nil, err
	}

	matched := markets[:0:0]
	for _, m := range markets {
		if platform.MatchesQuery(m, query) {
			matched = append(matched, m)
		}
	}
	return platform.ApplyOptions(matched, opts), nil
}

// GetHot returns the top open markets by volume.
func (a *Adapter) GetHot(ctx context.Context, limit int) ([]domain.Market, error) {
	markets, err := a.fetchPage(ctx, domain.MarketStatusOpen)
	if err != nil {
		return nil, err
	}
	return platform.ApplyOptions(markets, domain.SearchOptions{Limit: limit, Sort: domain.SortByVolume}), nil
}

// GetByID returns a single market by ticker. A missing ticker surfaces
// domain.ErrNotFound.
func (a *Adapter) GetByID(ctx context.Context, id string) (domain.Market, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	api, err := a.client.GetMarket(ctx, id)
	if err != nil {
		return domain.Market{}, err
	}
	m, ok := a.convert(api, time.Now().UTC())
	if !ok {
		return domain.Market{}, fmt.Errorf("kalshi: market %s has no price data: %w", id, domain.ErrNotFound)
	}
	return m, nil
}

// GetByIDs batches GetByID; Kalshi has no bulk market endpoint. Tickers
// that fail to resolve are skipped.
func (a *Adapter) GetByIDs(ctx context.Context, ids []string) ([]domain.Market, error) {
	out := make([]domain.Market, 0, len(ids))
	for _, id := range ids {
		m, err := a.GetByID(ctx, id)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				a.logger.DebugContext(ctx, "get by id failed",
					slog.String("ticker", id),
					slog.String("error", err.Error()),
				)
			}
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// GetByCategory returns open markets in the given Kalshi category.
func (a *Adapter) GetByCategory(ctx context.Context, category string, limit int) ([]domain.Market, error) {
	markets, err := a.fetchPage(ctx, domain.MarketStatusOpen)
	if err != nil {
		return nil, err
	}
	return platform.ApplyOptions(markets, domain.SearchOptions{Category: category, Limit: limit}), nil
}

// GetClosingSoon returns open markets closing within the window, soonest
// first.
func (a *Adapter) GetClosingSoon(ctx context.Context, within time.Duration, limit int) ([]domain.Market, error) {
	markets, err := a.fetchPage(ctx, domain.MarketStatusOpen)
	if err != nil {
		return nil, err
	}
	return platform.ClosingWithin(markets, time.Now().UTC(), within, limit), nil
}

// GetRecentlyResolved returns settled markets, most recently closed first.
func (a *Adapter) GetRecentlyResolved(ctx context.Context, limit int) ([]domain.Market, error) {
	markets, err := a.fetchPage(ctx, domain.MarketStatusResolved)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(markets, func(i, j int) bool {
		switch {
		case markets[i].EndDate == nil:
			return false
		case markets[j].EndDate == nil:
			return true
		default:
			return markets[i].EndDate.After(*markets[j].EndDate)
		}
	})
	if limit > 0 && len(markets) > limit {
		markets = markets[:limit]
	}
	return markets, nil
}

// GetCategories returns the distinct categories present in the current
// open-market page.
func (a *Adapter) GetCategories(ctx context.Context) ([]string, error) {
	markets, err := a.fetchPage(ctx, domain.MarketStatusOpen)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var cats []string
	for _, m := range markets {
		if m.Category != "" && !seen[m.Category] {
			seen[m.Category] = true
			cats = append(cats, m.Category)
		}
	}
	sort.Strings(cats)
	return cats, nil
}

// fetchPage pulls one page for the canonical status, going through the
// quote cache when one is configured.
func (a *Adapter) fetchPage(ctx context.Context, status domain.MarketStatus) ([]domain.Market, error) {
	key := domain.QuoteCacheKey(domain.PlatformKalshi, "page", string(status), fetchLimit)
	if a.cache != nil {
		if cached, err := a.cache.Get(ctx, key); err == nil {
			return cached, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	apiMarkets, _, err := a.client.GetMarkets(ctx, MarketsParams{
		Limit:  fetchLimit,
		Status: apiStatus(status),
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	markets := make([]domain.Market, 0, len(apiMarkets))
	for _, api := range apiMarkets {
		if m, ok := a.convert(api, now); ok {
			markets = append(markets, m)
		}
	}

	if a.cache != nil {
		if err := a.cache.Set(ctx, key, markets); err != nil {
			a.logger.DebugContext(ctx, "cache set failed", slog.String("error", err.Error()))
		}
	}
	return markets, nil
}

// convert maps a Kalshi wire market to the canonical model. Markets with no
// price signal at all are dropped: Kalshi distinguishes "no data yet" from
// "market exists", so returning them at 0.5 would fabricate a quote.
func (a *Adapter) convert(api APIMarket, fetchedAt time.Time) (domain.Market, bool) {
	status := canonicalStatus(api.Status)

	if api.YesBid == 0 && api.YesAsk == 0 && api.LastPrice == 0 && status == domain.MarketStatusOpen {
		return domain.Market{}, false
	}

	yes := platform.DeriveYesPrice(api.YesBid/100, api.YesAsk/100, api.LastPrice/100)
	no := platform.DeriveYesPrice(api.NoBid/100, api.NoAsk/100, 0)
	if api.NoBid == 0 && api.NoAsk == 0 {
		no = yes.Complement()
	}

	// Settled markets price at their result.
	if status == domain.MarketStatusResolved {
		switch api.Result {
		case "yes":
			yes, no = 1, 0
		case "no":
			yes, no = 0, 1
		}
	}

	m := domain.Market{
		Platform:  domain.PlatformKalshi,
		ID:        api.Ticker,
		Title:     api.Title,
		Question:  strings.TrimSpace(api.Title + " " + api.Subtitle),
		YesPrice:  yes,
		NoPrice:   no,
		Volume:    api.Volume,
		Liquidity: api.Liquidity / 100,
		Status:    status,
		URL:       "https://kalshi.com/markets/" + strings.ToLower(api.EventTicker),
		Category:  api.Category,
		Metadata: map[string]string{
			"event_ticker":  api.EventTicker,
			"open_interest": strconv.FormatFloat(api.OpenInterest, 'f', -1, 64),
		},
		FetchedAt: fetchedAt,
	}
	if t, err := time.Parse(time.RFC3339, api.CloseTime); err == nil {
		m.EndDate = &t
	}
	return m, true
}

// canonicalStatus maps Kalshi's status vocabulary onto the canonical one.
func canonicalStatus(s string) domain.MarketStatus {
	switch strings.ToLower(s) {
	case "open", "active":
		return domain.MarketStatusOpen
	case "settled", "finalized", "determined":
		return domain.MarketStatusResolved
	case "cancelled", "canceled":
		return domain.MarketStatusCancelled
	default:
		return domain.MarketStatusClosed
	}
}

// apiStatus maps a canonical status filter to Kalshi's query value. An empty
// status defaults to open markets.
func apiStatus(s domain.MarketStatus) string {
	switch s {
	case domain.MarketStatusClosed:
		return "closed"
	case domain.MarketStatusResolved:
		return "settled"
	case "":
		return "open"
	default:
		return "open"
	}
}
