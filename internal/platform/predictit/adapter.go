package predictit

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kestrelhq/arbscope/internal/domain"
	"github.com/kestrelhq/arbscope/internal/platform"
)

// DefaultTimeout bounds every upstream call. The bulk endpoint returns the
// whole exchange in one payload and can take a while.
const DefaultTimeout = 5 * time.Second

// defaultCategory: PredictIt lists politics markets exclusively and its API
// carries no category field.
const defaultCategory = "Politics"

// Adapter implements domain.Provider for PredictIt. Every filter runs
// client-side over the bulk endpoint; each contract of a PredictIt market
// becomes one canonical Market identified as "<marketID>-<contractID>".
type Adapter struct {
	client  *Client
	cache   domain.QuoteCache
	timeout time.Duration
	logger  *slog.Logger
}

// NewAdapter creates a PredictIt adapter. cache may be nil.
func NewAdapter(client *Client, cache domain.QuoteCache, timeout time.Duration, logger *slog.Logger) *Adapter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Adapter{
		client:  client,
		cache:   cache,
		timeout: timeout,
		logger:  logger.With(slog.String("platform", string(domain.PlatformPredictIt))),
	}
}

// Platform returns domain.PlatformPredictIt.
func (a *Adapter) Platform() domain.Platform { return domain.PlatformPredictIt }

// IsConfigured always reports true: the API is public.
func (a *Adapter) IsConfigured() bool { return true }

// HealthCheck probes the bulk endpoint and reports latency.
func (a *Adapter) HealthCheck(ctx context.Context) domain.ProviderHealth {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	_, err := a.client.GetAll(ctx)
	health := domain.ProviderHealth{
		Platform:  domain.PlatformPredictIt,
		Healthy:   err == nil,
		Latency:   time.Since(start),
		CheckedAt: time.Now().UTC(),
	}
	if err != nil {
		health.Error = err.Error()
	}
	return health
}

// Search returns contracts matching the query and options.
func (a *Adapter) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.Market, error) {
	markets, err := a.fetchAll(ctx)
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

// GetHot returns top open contracts. PredictIt reports no volume, so
// "hot" falls back to the most contested prices (closest to 50%).
func (a *Adapter) GetHot(ctx context.Context, limit int) ([]domain.Market, error) {
	markets, err := a.fetchAll(ctx)
	if err != nil {
		return nil, err
	}
	open := markets[:0:0]
	for _, m := range markets {
		if m.IsOpen() {
			open = append(open, m)
		}
	}
	sort.SliceStable(open, func(i, j int) bool {
		di := open[i].YesPrice.SpreadFrom(0.5)
		dj := open[j].YesPrice.SpreadFrom(0.5)
		return di < dj
	})
	if limit > 0 && len(open) > limit {
		open = open[:limit]
	}
	return open, nil
}

// GetByID returns a single contract by its "<marketID>-<contractID>" ID.
func (a *Adapter) GetByID(ctx context.Context, id string) (domain.Market, error) {
	marketID, contractID, err := splitID(id)
	if err != nil {
		return domain.Market{}, fmt.Errorf("predictit: %w: %s", domain.ErrNotFound, id)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	api, err := a.client.GetMarket(ctx, marketID)
	if err != nil {
		return domain.Market{}, err
	}
	now := time.Now().UTC()
	for _, c := range api.Contracts {
		if c.ID == contractID {
			return a.convert(api, c, now), nil
		}
	}
	return domain.Market{}, fmt.Errorf("predictit: contract %d in market %d: %w", contractID, marketID, domain.ErrNotFound)
}

// GetByIDs batches GetByID, grouping by parent market so each market is
// fetched once.
func (a *Adapter) GetByIDs(ctx context.Context, ids []string) ([]domain.Market, error) {
	wanted := make(map[int]map[int]bool)
	for _, id := range ids {
		marketID, contractID, err := splitID(id)
		if err != nil {
			continue
		}
		if wanted[marketID] == nil {
			wanted[marketID] = make(map[int]bool)
		}
		wanted[marketID][contractID] = true
	}

	now := time.Now().UTC()
	out := make([]domain.Market, 0, len(ids))
	for marketID, contracts := range wanted {
		fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
		api, err := a.client.GetMarket(fetchCtx, marketID)
		cancel()
		if err != nil {
			a.logger.DebugContext(ctx, "get market failed",
				slog.Int("market_id", marketID),
				slog.String("error", err.Error()),
			)
			continue
		}
		for _, c := range api.Contracts {
			if contracts[c.ID] {
				out = append(out, a.convert(api, c, now))
			}
		}
	}
	return out, nil
}

// GetByCategory returns open contracts in the category; PredictIt has a
// single category.
func (a *Adapter) GetByCategory(ctx context.Context, category string, limit int) ([]domain.Market, error) {
	if !strings.EqualFold(category, defaultCategory) {
		return nil, nil
	}
	markets, err := a.fetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return platform.ApplyOptions(markets, domain.SearchOptions{
		Status: domain.MarketStatusOpen,
		Limit:  limit,
	}), nil
}

// GetClosingSoon returns open contracts ending within the window.
func (a *Adapter) GetClosingSoon(ctx context.Context, within time.Duration, limit int) ([]domain.Market, error) {
	markets, err := a.fetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return platform.ClosingWithin(markets, time.Now().UTC(), within, limit), nil
}

// GetRecentlyResolved returns nothing: the PredictIt API delists resolved
// contracts, so there is no way to enumerate them.
func (a *Adapter) GetRecentlyResolved(_ context.Context, _ int) ([]domain.Market, error) {
	return nil, nil
}

// GetCategories returns PredictIt's single category.
func (a *Adapter) GetCategories(_ context.Context) ([]string, error) {
	return []string{defaultCategory}, nil
}

func (a *Adapter) fetchAll(ctx context.Context) ([]domain.Market, error) {
	key := domain.QuoteCacheKey(domain.PlatformPredictIt, "all", "", 0)
	if a.cache != nil {
		if cached, err := a.cache.Get(ctx, key); err == nil {
			return cached, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	apiMarkets, err := a.client.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var markets []domain.Market
	for _, api := range apiMarkets {
		for _, c := range api.Contracts {
			// No trades and an empty book on both sides means the
			// contract has no price data yet; the API cannot tell
			// us more, so quote maximum uncertainty rather than
			// dropping a listed contract.
			markets = append(markets, a.convert(api, c, now))
		}
	}

	if a.cache != nil {
		if err := a.cache.Set(ctx, key, markets); err != nil {
			a.logger.DebugContext(ctx, "cache set failed", slog.String("error", err.Error()))
		}
	}
	return markets, nil
}

func (a *Adapter) convert(api APIMarket, c APIContract, fetchedAt time.Time) domain.Market {
	yes := platform.DeriveYesPrice(deref(c.BestSellYesCost), deref(c.BestBuyYesCost), c.LastTradePrice)
	no := platform.DeriveYesPrice(deref(c.BestSellNoCost), deref(c.BestBuyNoCost), 0)
	if deref(c.BestSellNoCost) == 0 && deref(c.BestBuyNoCost) == 0 {
		no = yes.Complement()
	}

	title := api.ShortName
	if c.ShortName != "" && !strings.EqualFold(c.ShortName, api.ShortName) {
		title = api.ShortName + ": " + c.ShortName
	}

	m := domain.Market{
		Platform: domain.PlatformPredictIt,
		ID:       strconv.Itoa(api.ID) + "-" + strconv.Itoa(c.ID),
		Title:    title,
		Question: api.Name,
		YesPrice: yes,
		NoPrice:  no,
		Status:   canonicalStatus(c.Status, api.Status),
		URL:      api.URL,
		Category: defaultCategory,
		Metadata: map[string]string{
			"market_id":   strconv.Itoa(api.ID),
			"contract_id": strconv.Itoa(c.ID),
		},
		FetchedAt: fetchedAt,
	}
	if t, err := time.Parse(time.RFC3339, c.DateEnd); err == nil {
		m.EndDate = &t
	}
	return m
}

// canonicalStatus maps PredictIt's status vocabulary onto the canonical
// one; the contract status wins over its parent market's.
func canonicalStatus(contract, market string) domain.MarketStatus {
	s := contract
	if s == "" {
		s = market
	}
	switch strings.ToLower(s) {
	case "open":
		return domain.MarketStatusOpen
	case "closed", "tradingsuspended":
		return domain.MarketStatusClosed
	default:
		return domain.MarketStatusClosed
	}
}

func splitID(id string) (marketID, contractID int, err error) {
	left, right, ok := strings.Cut(id, "-")
	if !ok {
		return 0, 0, fmt.Errorf("malformed predictit id %q", id)
	}
	marketID, err = strconv.Atoi(left)
	if err != nil {
		return 0, 0, err
	}
	contractID, err = strconv.Atoi(right)
	return marketID, contractID, err
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
