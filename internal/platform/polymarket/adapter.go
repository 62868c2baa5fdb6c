package polymarket

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/kestrelhq/arbscope/internal/domain"
	"github.com/kestrelhq/arbscope/internal/platform"
)

const (
	// DefaultTimeout bounds every upstream call. Gamma can be slow under
	// load, so it gets the top of the 4-5s band.
	DefaultTimeout = 5 * time.Second

	fetchLimit = 200
)

// Adapter implements domain.Provider for Polymarket via the Gamma API.
//
// Gamma filters active/closed server-side and orders by volume; text
// search, category, and liquidity filters run client-side.
type Adapter struct {
	client  *GammaClient
	cache   domain.QuoteCache
	timeout time.Duration
	logger  *slog.Logger
}

// NewAdapter creates a Polymarket adapter. cache may be nil.
func NewAdapter(client *GammaClient, cache domain.QuoteCache, timeout time.Duration, logger *slog.Logger) *Adapter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Adapter{
		client:  client,
		cache:   cache,
		timeout: timeout,
		logger:  logger.With(slog.String("platform", string(domain.PlatformPolymarket))),
	}
}

// Platform returns domain.PlatformPolymarket.
func (a *Adapter) Platform() domain.Platform { return domain.PlatformPolymarket }

// IsConfigured always reports true: the Gamma API is public.
func (a *Adapter) IsConfigured() bool { return true }

// HealthCheck probes the markets endpoint and reports latency.
func (a *Adapter) HealthCheck(ctx context.Context) domain.ProviderHealth {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	_, err := a.client.GetMarkets(ctx, MarketsParams{Limit: 1})
	health := domain.ProviderHealth{
		Platform:  domain.PlatformPolymarket,
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

// GetByID returns a single market by its Gamma ID.
func (a *Adapter) GetByID(ctx context.Context, id string) (domain.Market, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	api, err := a.client.GetMarket(ctx, id)
	if err != nil {
		return domain.Market{}, err
	}
	m, ok := a.convert(api, time.Now().UTC())
	if !ok {
		return domain.Market{}, domain.ErrNotFound
	}
	return m, nil
}

// GetByIDs batches GetByID; markets that fail to resolve are skipped.
func (a *Adapter) GetByIDs(ctx context.Context, ids []string) ([]domain.Market, error) {
	out := make([]domain.Market, 0, len(ids))
	for _, id := range ids {
		m, err := a.GetByID(ctx, id)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				a.logger.DebugContext(ctx, "get by id failed",
					slog.String("market_id", id),
					slog.String("error", err.Error()),
				)
			}
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// GetByCategory returns open markets in the given category.
func (a *Adapter) GetByCategory(ctx context.Context, category string, limit int) ([]domain.Market, error) {
	markets, err := a.fetchPage(ctx, domain.MarketStatusOpen)
	if err != nil {
		return nil, err
	}
	return platform.ApplyOptions(markets, domain.SearchOptions{Category: category, Limit: limit}), nil
}

// GetClosingSoon returns open markets closing within the window.
func (a *Adapter) GetClosingSoon(ctx context.Context, within time.Duration, limit int) ([]domain.Market, error) {
	markets, err := a.fetchPage(ctx, domain.MarketStatusOpen)
	if err != nil {
		return nil, err
	}
	return platform.ClosingWithin(markets, time.Now().UTC(), within, limit), nil
}

// GetRecentlyResolved returns closed markets, most recently ended first.
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

// GetCategories returns the distinct categories in the current open page.
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

func (a *Adapter) fetchPage(ctx context.Context, status domain.MarketStatus) ([]domain.Market, error) {
	key := domain.QuoteCacheKey(domain.PlatformPolymarket, "page", string(status), fetchLimit)
	if a.cache != nil {
		if cached, err := a.cache.Get(ctx, key); err == nil {
			return cached, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	active, closed := true, false
	if status == domain.MarketStatusResolved || status == domain.MarketStatusClosed {
		active, closed = false, true
	}
	apiMarkets, err := a.client.GetMarkets(ctx, MarketsParams{
		Limit:  fetchLimit,
		Active: &active,
		Closed: &closed,
		Order:  "volume",
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

// convert maps a Gamma wire market to the canonical model. Markets without
// an order book are dropped: those are AMM-legacy or broken derivative
// listings whose quoted prices are not executable.
func (a *Adapter) convert(api APIMarket, fetchedAt time.Time) (domain.Market, bool) {
	if !api.EnableOrderBook {
		return domain.Market{}, false
	}

	outYes, outNo, hasOutcomes := api.OutcomePricePair()

	yes := platform.DeriveYesPrice(float64(api.BestBid), float64(api.BestAsk), outYes)

	// The NO side comes from the upstream outcome array when present; it
	// need not sum to 1 with the YES book midpoint, and that gap is
	// meaningful downstream.
	var no domain.Price
	if hasOutcomes && outNo > 0 {
		no, _ = domain.NewPrice(outNo)
	} else {
		no = yes.Complement()
	}

	m := domain.Market{
		Platform:  domain.PlatformPolymarket,
		ID:        api.ID,
		Title:     api.Question,
		Question:  api.Question,
		YesPrice:  yes,
		NoPrice:   no,
		Volume:    float64(api.Volume),
		Liquidity: float64(api.Liquidity),
		Status:    canonicalStatus(api),
		URL:       "https://polymarket.com/market/" + api.Slug,
		Category:  api.Category,
		Metadata: map[string]string{
			"condition_id": api.ConditionID,
			"slug":         api.Slug,
		},
		FetchedAt: fetchedAt,
	}
	if ids := api.TokenIDs(); len(ids) == 2 {
		m.Metadata["yes_token_id"] = ids[0]
		m.Metadata["no_token_id"] = ids[1]
	}
	if t, err := time.Parse(time.RFC3339, api.EndDate); err == nil {
		m.EndDate = &t
	}
	return m, true
}

// canonicalStatus maps Gamma flags onto the canonical status vocabulary.
func canonicalStatus(api APIMarket) domain.MarketStatus {
	switch {
	case api.Archived:
		return domain.MarketStatusCancelled
	case api.Closed:
		return domain.MarketStatusResolved
	case bool(api.Active):
		return domain.MarketStatusOpen
	default:
		return domain.MarketStatusClosed
	}
}
