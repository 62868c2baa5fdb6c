package arb

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/kestrelhq/arbscope/internal/aggregate"
	"github.com/kestrelhq/arbscope/internal/domain"
)

type fakeProvider struct {
	platform domain.Platform
	markets  []domain.Market
}

func (f *fakeProvider) Platform() domain.Platform { return f.platform }
func (f *fakeProvider) IsConfigured() bool        { return true }

func (f *fakeProvider) HealthCheck(context.Context) domain.ProviderHealth {
	return domain.ProviderHealth{Platform: f.platform, Healthy: true}
}

func (f *fakeProvider) Search(context.Context, string, domain.SearchOptions) ([]domain.Market, error) {
	return f.markets, nil
}

func (f *fakeProvider) GetHot(context.Context, int) ([]domain.Market, error) {
	return f.markets, nil
}

func (f *fakeProvider) GetByID(context.Context, string) (domain.Market, error) {
	return domain.Market{}, domain.ErrNotFound
}

func (f *fakeProvider) GetByIDs(context.Context, []string) ([]domain.Market, error) {
	return f.markets, nil
}

func (f *fakeProvider) GetByCategory(context.Context, string, int) ([]domain.Market, error) {
	return f.markets, nil
}

func (f *fakeProvider) GetClosingSoon(context.Context, time.Duration, int) ([]domain.Market, error) {
	return f.markets, nil
}

func (f *fakeProvider) GetRecentlyResolved(context.Context, int) ([]domain.Market, error) {
	return nil, nil
}

func (f *fakeProvider) GetCategories(context.Context) ([]string, error) {
	return nil, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pairDetector(t *testing.T, yesA, yesB float64) *Detector {
	t.Helper()
	agg := aggregate.New([]domain.Provider{
		&fakeProvider{platform: domain.PlatformKalshi, markets: []domain.Market{{
			Platform: domain.PlatformKalshi, ID: "K1",
			Title: "Will Bitcoin reach $100k by 2025?", YesPrice: domain.Price(yesA),
			Volume: 5_000, Status: domain.MarketStatusOpen,
		}}},
		&fakeProvider{platform: domain.PlatformPolymarket, markets: []domain.Market{{
			Platform: domain.PlatformPolymarket, ID: "P1",
			Title: "BTC to hit 100k this year", YesPrice: domain.Price(yesB),
			Volume: 8_000, Status: domain.MarketStatusOpen,
		}}},
	}, 0.03, testLogger())
	return NewDetector(agg, Config{}, testLogger())
}

func TestScanFindsCrossPlatformSpread(t *testing.T) {
	d := pairDetector(t, 0.40, 0.55)

	result, err := d.Scan(context.Background(), "bitcoin", 0)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(result.Opportunities) != 1 {
		t.Fatalf("got %d opportunities, want 1", len(result.Opportunities))
	}

	opp := result.Opportunities[0]
	if math.Abs(opp.Spread-0.15) > 1e-9 {
		t.Errorf("Spread = %v, want 0.15", opp.Spread)
	}
	if opp.LegA.Platform == opp.LegB.Platform {
		t.Error("legs on same platform")
	}
	if opp.ID == "" {
		t.Error("missing opportunity ID")
	}
	if !opp.ExpiresAt.Equal(opp.DetectedAt.Add(time.Hour)) {
		t.Errorf("expiry window wrong: %v -> %v", opp.DetectedAt, opp.ExpiresAt)
	}
	want := 0.15 / 0.475 * 100
	if math.Abs(opp.ProfitPercent-want) > 0.001 {
		t.Errorf("ProfitPercent = %v, want %v", opp.ProfitPercent, want)
	}
}

func TestScanHardFloor(t *testing.T) {
	// 0.019 spread sits below the noise floor even with a loose caller
	// threshold.
	d := pairDetector(t, 0.500, 0.519)
	result, err := d.Scan(context.Background(), "bitcoin", 0.001)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(result.Opportunities) != 0 {
		t.Errorf("0.019 spread produced %d opportunities", len(result.Opportunities))
	}

	// 0.03 at the default threshold does construct.
	d = pairDetector(t, 0.50, 0.53)
	result, err = d.Scan(context.Background(), "bitcoin", 0)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(result.Opportunities) != 1 {
		t.Errorf("0.03 spread produced %d opportunities, want 1", len(result.Opportunities))
	}
}

func TestScanNoQueryBucketsByTopicKey(t *testing.T) {
	agg := aggregate.New([]domain.Provider{
		&fakeProvider{platform: domain.PlatformKalshi, markets: []domain.Market{
			{Platform: domain.PlatformKalshi, ID: "K1", Title: "Bitcoin above 100k in 2025",
				YesPrice: 0.40, Volume: 5_000, Status: domain.MarketStatusOpen},
			{Platform: domain.PlatformKalshi, ID: "K2", Title: "Fed cuts rates in December",
				YesPrice: 0.30, Volume: 2_000, Status: domain.MarketStatusOpen},
			// Same topic key as K2 but same platform: never an opportunity.
			{Platform: domain.PlatformKalshi, ID: "K3", Title: "Fed cuts rates in December",
				YesPrice: 0.60, Volume: 1_000, Status: domain.MarketStatusOpen},
		}},
		&fakeProvider{platform: domain.PlatformPolymarket, markets: []domain.Market{
			{Platform: domain.PlatformPolymarket, ID: "P1", Title: "2025: Bitcoin above 100k",
				YesPrice: 0.55, Volume: 8_000, Status: domain.MarketStatusOpen},
		}},
	}, 0.03, testLogger())
	d := NewDetector(agg, Config{}, testLogger())

	result, err := d.Scan(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(result.Opportunities) != 1 {
		t.Fatalf("got %d opportunities, want 1", len(result.Opportunities))
	}
	opp := result.Opportunities[0]
	ids := map[string]bool{opp.LegA.MarketID: true, opp.LegB.MarketID: true}
	if !ids["K1"] || !ids["P1"] {
		t.Errorf("wrong pair: %v %v", opp.LegA.MarketID, opp.LegB.MarketID)
	}
	if result.MarketsScanned != 4 {
		t.Errorf("MarketsScanned = %d, want 4", result.MarketsScanned)
	}
}

func TestScanPairsExtremesInLargerGroup(t *testing.T) {
	// Three same-topic markets, volume-ordered so the expensive extreme
	// arrives first and a middle-priced market arrives last. Only the
	// cheapest and most expensive quotes may become legs.
	agg := aggregate.New([]domain.Provider{
		&fakeProvider{platform: domain.PlatformKalshi, markets: []domain.Market{
			{Platform: domain.PlatformKalshi, ID: "K-EXP", Title: "Bitcoin above 100k in 2025",
				YesPrice: 0.60, Volume: 300, Status: domain.MarketStatusOpen},
			{Platform: domain.PlatformKalshi, ID: "K-MID", Title: "2025: Bitcoin above 100k",
				YesPrice: 0.50, Volume: 100, Status: domain.MarketStatusOpen},
		}},
		&fakeProvider{platform: domain.PlatformPolymarket, markets: []domain.Market{
			{Platform: domain.PlatformPolymarket, ID: "P-CHEAP", Title: "Bitcoin above 100k in 2025",
				YesPrice: 0.40, Volume: 200, Status: domain.MarketStatusOpen},
		}},
	}, 0.03, testLogger())
	d := NewDetector(agg, Config{}, testLogger())

	result, err := d.Scan(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(result.Opportunities) != 1 {
		t.Fatalf("got %d opportunities, want 1", len(result.Opportunities))
	}

	opp := result.Opportunities[0]
	if opp.LegA.MarketID == opp.LegB.MarketID && opp.LegA.Platform == opp.LegB.Platform {
		t.Fatalf("both legs are the same market %s:%s", opp.LegA.Platform, opp.LegA.MarketID)
	}
	if opp.LegA.MarketID != "P-CHEAP" || opp.LegB.MarketID != "K-EXP" {
		t.Errorf("legs = %s/%s, want cheap extreme P-CHEAP and expensive extreme K-EXP",
			opp.LegA.MarketID, opp.LegB.MarketID)
	}
	if !opp.LegA.YesPrice.Less(opp.LegB.YesPrice) {
		t.Errorf("leg A (%v) should be cheaper than leg B (%v)", opp.LegA.YesPrice, opp.LegB.YesPrice)
	}
	if opp.Strategy != domain.StrategyBuyYesHedgeNo {
		t.Errorf("Strategy = %q, want buy YES on the cheap leg", opp.Strategy)
	}
	if math.Abs(opp.Spread-0.20) > 1e-9 {
		t.Errorf("Spread = %v, want 0.20 between the extremes", opp.Spread)
	}
}

func TestActiveOpportunitiesExpiry(t *testing.T) {
	d := pairDetector(t, 0.40, 0.55)

	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return base }

	if _, err := d.Scan(context.Background(), "bitcoin", 0); err != nil {
		t.Fatalf("scan: %v", err)
	}

	d.now = func() time.Time { return base.Add(59 * time.Minute) }
	if got := d.ActiveOpportunities(); len(got) != 1 {
		t.Errorf("at T+59min: %d active, want 1", len(got))
	}

	d.now = func() time.Time { return base.Add(61 * time.Minute) }
	if got := d.ActiveOpportunities(); len(got) != 0 {
		t.Errorf("at T+61min: %d active, want 0", len(got))
	}
}

func TestPotentialProfitWorkedExample(t *testing.T) {
	d := pairDetector(t, 0.40, 0.55)
	opp := domain.ArbitrageOpportunity{
		LegA: domain.OpportunityLeg{Platform: domain.PlatformKalshi, YesPrice: 0.40},
		LegB: domain.OpportunityLeg{Platform: domain.PlatformPolymarket, YesPrice: 0.55},
	}

	calc, err := d.PotentialProfit(opp, 100)
	if err != nil {
		t.Fatalf("profit: %v", err)
	}

	approx := func(got, want float64) bool { return math.Abs(got-want) < 0.01 }
	if calc.StakePerLeg != 50 {
		t.Errorf("StakePerLeg = %v, want 50", calc.StakePerLeg)
	}
	if !approx(calc.YesShares, 125) {
		t.Errorf("YesShares = %v, want 125", calc.YesShares)
	}
	if !approx(calc.NoShares, 111.11) {
		t.Errorf("NoShares = %v, want ~111.11", calc.NoShares)
	}
	if !approx(calc.GuaranteedPayout, 111.11) {
		t.Errorf("GuaranteedPayout = %v, want ~111.11", calc.GuaranteedPayout)
	}
	if !approx(calc.GrossProfit, 11.11) {
		t.Errorf("GrossProfit = %v, want ~11.11", calc.GrossProfit)
	}
	if calc.EstimatedFees != 2 {
		t.Errorf("EstimatedFees = %v, want 2", calc.EstimatedFees)
	}
	if !approx(calc.NetProfit, 9.11) {
		t.Errorf("NetProfit = %v, want ~9.11", calc.NetProfit)
	}
	if !approx(calc.BreakEvenPrice, 0.4235) {
		t.Errorf("BreakEvenPrice = %v, want ~0.4235", calc.BreakEvenPrice)
	}
}

func TestPotentialProfitRejectsBadStake(t *testing.T) {
	d := pairDetector(t, 0.40, 0.55)
	opp := domain.ArbitrageOpportunity{
		LegA: domain.OpportunityLeg{YesPrice: 0.40},
		LegB: domain.OpportunityLeg{YesPrice: 0.55},
	}

	if _, err := d.PotentialProfit(opp, 0); !errors.Is(err, domain.ErrInvalidStake) {
		t.Errorf("stake 0: want ErrInvalidStake, got %v", err)
	}
	if _, err := d.PotentialProfit(opp, -5); !errors.Is(err, domain.ErrInvalidStake) {
		t.Errorf("negative stake: want ErrInvalidStake, got %v", err)
	}
}
