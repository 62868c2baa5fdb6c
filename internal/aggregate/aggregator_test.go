package aggregate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/kestrelhq/arbscope/internal/domain"
)

// fakeProvider serves canned markets, or fails every call when broken.
type fakeProvider struct {
	platform domain.Platform
	markets  []domain.Market
	broken   bool
}

var errUpstream = errors.New("upstream unavailable")

func (f *fakeProvider) Platform() domain.Platform { return f.platform }
func (f *fakeProvider) IsConfigured() bool        { return true }

func (f *fakeProvider) HealthCheck(context.Context) domain.ProviderHealth {
	return domain.ProviderHealth{
		Platform:  f.platform,
		Healthy:   !f.broken,
		CheckedAt: time.Now(),
	}
}

func (f *fakeProvider) list() ([]domain.Market, error) {
	if f.broken {
		return nil, errUpstream
	}
	return f.markets, nil
}

func (f *fakeProvider) Search(context.Context, string, domain.SearchOptions) ([]domain.Market, error) {
	return f.list()
}

func (f *fakeProvider) GetHot(context.Context, int) ([]domain.Market, error) { return f.list() }

func (f *fakeProvider) GetByID(_ context.Context, id string) (domain.Market, error) {
	if f.broken {
		return domain.Market{}, errUpstream
	}
	for _, m := range f.markets {
		if m.ID == id {
			return m, nil
		}
	}
	return domain.Market{}, domain.ErrNotFound
}

func (f *fakeProvider) GetByIDs(context.Context, []string) ([]domain.Market, error) {
	return f.list()
}

func (f *fakeProvider) GetByCategory(context.Context, string, int) ([]domain.Market, error) {
	return f.list()
}

func (f *fakeProvider) GetClosingSoon(context.Context, time.Duration, int) ([]domain.Market, error) {
	return f.list()
}

func (f *fakeProvider) GetRecentlyResolved(context.Context, int) ([]domain.Market, error) {
	return f.list()
}

func (f *fakeProvider) GetCategories(context.Context) ([]string, error) {
	if f.broken {
		return nil, errUpstream
	}
	return []string{"Politics"}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mk(platform domain.Platform, id, title string, yes float64, volume float64) domain.Market {
	return domain.Market{
		Platform: platform,
		ID:       id,
		Title:    title,
		YesPrice: domain.Price(yes),
		Volume:   volume,
		Status:   domain.MarketStatusOpen,
	}
}

func TestSearchAllMergesAndSortsByVolume(t *testing.T) {
	agg := New([]domain.Provider{
		&fakeProvider{platform: domain.PlatformKalshi, markets: []domain.Market{
			mk(domain.PlatformKalshi, "K1", "Bitcoin above 100k", 0.40, 1_000),
		}},
		&fakeProvider{platform: domain.PlatformPolymarket, markets: []domain.Market{
			mk(domain.PlatformPolymarket, "P1", "Bitcoin above 100k", 0.55, 9_000),
		}},
	}, 0.03, testLogger())

	markets, errs := agg.SearchAll(context.Background(), "bitcoin", domain.SearchOptions{})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(markets) != 2 {
		t.Fatalf("got %d markets, want 2", len(markets))
	}
	if markets[0].ID != "P1" {
		t.Errorf("expected highest-volume market first, got %s", markets[0].ID)
	}
}

func TestSearchAllDedupesByPlatformAndID(t *testing.T) {
	dup := mk(domain.PlatformKalshi, "K1", "Bitcoin above 100k", 0.40, 1_000)
	agg := New([]domain.Provider{
		&fakeProvider{platform: domain.PlatformKalshi, markets: []domain.Market{dup, dup, dup}},
	}, 0.03, testLogger())

	markets, _ := agg.SearchAll(context.Background(), "", domain.SearchOptions{})
	if len(markets) != 1 {
		t.Errorf("got %d markets, want 1 after dedupe", len(markets))
	}
}

func TestSearchAllPartialFailure(t *testing.T) {
	agg := New([]domain.Provider{
		&fakeProvider{platform: domain.PlatformKalshi, broken: true},
		&fakeProvider{platform: domain.PlatformPolymarket, broken: true},
		&fakeProvider{platform: domain.PlatformPredictIt, markets: []domain.Market{
			mk(domain.PlatformPredictIt, "1234-5678", "Election winner", 0.5, 100),
		}},
	}, 0.03, testLogger())

	markets, errs := agg.SearchAll(context.Background(), "", domain.SearchOptions{})
	if len(markets) != 1 {
		t.Fatalf("surviving adapter's markets lost: got %d", len(markets))
	}
	if len(errs) != 2 {
		t.Errorf("got %d error strings, want 2", len(errs))
	}
}

func TestGetMarketUnconfiguredPlatform(t *testing.T) {
	agg := New([]domain.Provider{
		&fakeProvider{platform: domain.PlatformKalshi},
	}, 0.03, testLogger())

	_, err := agg.GetMarket(context.Background(), domain.PlatformPredictIt, "x")
	if !errors.Is(err, domain.ErrPlatformNotConfigured) {
		t.Errorf("want ErrPlatformNotConfigured, got %v", err)
	}
}

func TestHealthCheckAll(t *testing.T) {
	agg := New([]domain.Provider{
		&fakeProvider{platform: domain.PlatformKalshi},
		&fakeProvider{platform: domain.PlatformPolymarket, broken: true},
	}, 0.03, testLogger())

	healths := agg.HealthCheckAll(context.Background())
	if len(healths) != 2 {
		t.Fatalf("got %d health records, want 2", len(healths))
	}
	byPlatform := map[domain.Platform]bool{}
	for _, h := range healths {
		byPlatform[h.Platform] = h.Healthy
	}
	if !byPlatform[domain.PlatformKalshi] || byPlatform[domain.PlatformPolymarket] {
		t.Errorf("health flags wrong: %v", byPlatform)
	}
}

func TestCompareMarkets(t *testing.T) {
	agg := New([]domain.Provider{
		&fakeProvider{platform: domain.PlatformKalshi, markets: []domain.Market{
			mk(domain.PlatformKalshi, "K1", "Will Bitcoin reach $100k by 2025?", 0.40, 5_000),
		}},
		&fakeProvider{platform: domain.PlatformPolymarket, markets: []domain.Market{
			mk(domain.PlatformPolymarket, "P1", "BTC to hit 100k this year", 0.55, 8_000),
		}},
		&fakeProvider{platform: domain.PlatformPredictIt, markets: []domain.Market{
			mk(domain.PlatformPredictIt, "9-1", "Who wins the 2028 election? Bitcoin", 0.10, 200),
		}},
	}, 0.03, testLogger())

	comparisons, errs := agg.CompareMarkets(context.Background(), "bitcoin", 0.35)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	var arb *domain.MarketComparison
	for i := range comparisons {
		if comparisons[i].HasArbitrage {
			arb = &comparisons[i]
		}
	}
	if arb == nil {
		t.Fatal("expected one comparison flagged with arbitrage")
	}
	if len(arb.Markets) != 2 {
		t.Fatalf("arb group has %d members, want 2", len(arb.Markets))
	}
	if spread := arb.MaxSpread; spread < 0.149 || spread > 0.151 {
		t.Errorf("MaxSpread = %v, want 0.15", spread)
	}
	if arb.Confidence <= 0 || arb.Confidence > 1 {
		t.Errorf("Confidence = %v out of range", arb.Confidence)
	}
}
