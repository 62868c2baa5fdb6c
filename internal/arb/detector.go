// Package arb detects cross-platform arbitrage: pairs of markets about the
// same question whose yes-prices disagree enough to profit from taking
// opposite sides on two platforms.
package arb

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kestrelhq/arbscope/internal/aggregate"
	"github.com/kestrelhq/arbscope/internal/domain"
	"github.com/kestrelhq/arbscope/internal/match"
)

const (
	// DefaultMinSpread is the configurable detection threshold: 3
	// percentage points between the two yes-prices.
	DefaultMinSpread = 0.03

	// hardFloorSpread is the noise tolerance below which an opportunity
	// is never constructed, regardless of how loose the caller's
	// threshold is.
	hardFloorSpread = 0.02

	// DefaultValidity is how long a detected opportunity stays in the
	// active set before lazy eviction.
	DefaultValidity = time.Hour

	// DefaultScanFloor is the loose similarity floor used by broad
	// arbitrage scans; targeted comparisons typically run tighter.
	DefaultScanFloor = 0.35

	// estimatedFeeRate is the flat fee estimate applied to the stake in
	// profit calculations.
	estimatedFeeRate = 0.02

	// hotScanLimit is the per-platform pull for the no-query scan path.
	hotScanLimit = 50
)

// Config tunes a Detector. Zero values fall back to the package defaults.
type Config struct {
	MinSpread float64
	Validity  time.Duration
	ScanFloor float64
}

// Detector maintains the short-lived set of active opportunities and runs
// scans over the aggregator's output. The active set is guarded by a
// mutex: scans append, reads lazily prune expired entries.
type Detector struct {
	agg    *aggregate.Aggregator
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	active map[string]domain.ArbitrageOpportunity
}

// NewDetector creates a Detector over the aggregator.
func NewDetector(agg *aggregate.Aggregator, cfg Config, logger *slog.Logger) *Detector {
	if cfg.MinSpread <= 0 {
		cfg.MinSpread = DefaultMinSpread
	}
	if cfg.Validity <= 0 {
		cfg.Validity = DefaultValidity
	}
	if cfg.ScanFloor <= 0 {
		cfg.ScanFloor = DefaultScanFloor
	}
	return &Detector{
		agg:    agg,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "arb_detector")),
		now:    time.Now,
		active: make(map[string]domain.ArbitrageOpportunity),
	}
}

// Scan looks for arbitrage across platforms. With a query it runs the
// pairwise-similarity comparison path; without one it pulls hot markets
// everywhere and buckets them by normalized title key, which is cheaper
// for the "scan everything" case. minSpread <= 0 uses the configured
// default. Per-source failures are collected as informational errors; a
// scan only comes back empty-handed when every provider failed.
func (d *Detector) Scan(ctx context.Context, query string, minSpread float64) (domain.ArbitrageScanResult, error) {
	if minSpread <= 0 {
		minSpread = d.cfg.MinSpread
	}

	var (
		comparisons []domain.MarketComparison
		errs        []string
		scanned     int
	)
	if query != "" {
		comparisons, errs = d.agg.CompareMarkets(ctx, query, d.cfg.ScanFloor)
		for _, c := range comparisons {
			scanned += len(c.Markets)
		}
	} else {
		var markets []domain.Market
		markets, errs = d.agg.GetHotAll(ctx, hotScanLimit)
		scanned = len(markets)
		comparisons = bucketByTopicKey(markets)
	}

	now := d.now().UTC()
	var found []domain.ArbitrageOpportunity
	for _, c := range comparisons {
		opp, ok := d.buildOpportunity(c, minSpread, now)
		if !ok {
			// Groups that cannot resolve into a valid pair are
			// skipped, not reported.
			continue
		}
		found = append(found, opp)
	}

	d.register(found)

	sortByProfit(found)
	result := domain.ArbitrageScanResult{
		ScannedAt:      now,
		MarketsScanned: scanned,
		Opportunities:  found,
		Errors:         errs,
	}
	d.logger.InfoContext(ctx, "scan complete",
		slog.Int("markets_scanned", scanned),
		slog.Int("opportunities", len(found)),
		slog.Int("source_errors", len(errs)),
	)
	return result, nil
}

// ActiveOpportunities evicts expired entries and returns the remainder
// sorted by profit percent descending.
func (d *Detector) ActiveOpportunities() []domain.ArbitrageOpportunity {
	now := d.now().UTC()

	d.mu.Lock()
	out := make([]domain.ArbitrageOpportunity, 0, len(d.active))
	for id, opp := range d.active {
		if !opp.IsValid(now) {
			delete(d.active, id)
			continue
		}
		out = append(out, opp)
	}
	d.mu.Unlock()

	sortByProfit(out)
	return out
}

// PotentialProfit models splitting stake evenly across both legs of the
// opportunity: buy YES on the cheaper leg, buy NO on the expensive one.
// Only one leg pays out $1/share, so the guaranteed payout is bounded by
// whichever leg bought fewer shares. The model assumes both legs fill at
// the quoted price with no slippage.
func (d *Detector) PotentialProfit(opp domain.ArbitrageOpportunity, stake float64) (domain.ProfitCalculation, error) {
	if stake <= 0 {
		return domain.ProfitCalculation{}, fmt.Errorf("stake %.2f: %w", stake, domain.ErrInvalidStake)
	}

	cheap, expensive := opp.LegA, opp.LegB
	if expensive.YesPrice.Less(cheap.YesPrice) {
		cheap, expensive = expensive, cheap
	}

	yesEntry := cheap.YesPrice.Value()
	noEntry := expensive.YesPrice.Complement().Value()
	if yesEntry <= 0 || noEntry <= 0 {
		return domain.ProfitCalculation{}, fmt.Errorf("leg priced at zero: %w", domain.ErrInvalidPrice)
	}

	half := stake / 2
	yesShares := half / yesEntry
	noShares := half / noEntry

	minPayout := yesShares
	if noShares < minPayout {
		minPayout = noShares
	}

	fees := stake * estimatedFeeRate
	gross := minPayout - stake

	return domain.ProfitCalculation{
		Stake:            stake,
		StakePerLeg:      half,
		YesShares:        yesShares,
		NoShares:         noShares,
		GuaranteedPayout: minPayout,
		GrossProfit:      gross,
		EstimatedFees:    fees,
		NetProfit:        gross - fees,
		BreakEvenPrice:   stake / (yesShares + noShares),
	}, nil
}

// buildOpportunity resolves one comparison group into an opportunity, or
// reports false when the group cannot produce a valid pair.
func (d *Detector) buildOpportunity(c domain.MarketComparison, minSpread float64, now time.Time) (domain.ArbitrageOpportunity, bool) {
	if !c.HasArbitrage || len(c.Markets) < 2 {
		return domain.ArbitrageOpportunity{}, false
	}

	// Only the price extremes are paired; middle-priced members of a
	// larger group are not separately matched.
	members := make([]domain.Market, len(c.Markets))
	copy(members, c.Markets)
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].YesPrice < members[j].YesPrice
	})
	cheap, expensive := members[0], members[len(members)-1]

	// Arbitrage needs two venues: a spread within one platform is a
	// stale quote, not an opportunity.
	if cheap.Platform == expensive.Platform {
		return domain.ArbitrageOpportunity{}, false
	}

	spread := cheap.YesPrice.SpreadFrom(expensive.YesPrice)
	if spread < minSpread || spread < hardFloorSpread {
		return domain.ArbitrageOpportunity{}, false
	}

	// Leg A is always the cheap extreme and leg B the expensive one, so
	// the strategy is fixed: buy YES where it is cheap, hedge NO where
	// YES is expensive.
	a, b := cheap, expensive
	strategy := domain.StrategyBuyYesHedgeNo

	return domain.ArbitrageOpportunity{
		ID:    uuid.NewString(),
		Topic: c.Topic,
		LegA: domain.OpportunityLeg{
			Platform: a.Platform,
			MarketID: a.ID,
			Title:    a.Title,
			URL:      a.URL,
			YesPrice: a.YesPrice,
		},
		LegB: domain.OpportunityLeg{
			Platform: b.Platform,
			MarketID: b.ID,
			Title:    b.Title,
			URL:      b.URL,
			YesPrice: b.YesPrice,
		},
		Spread:          spread,
		ProfitPercent:   cheap.YesPrice.ArbitrageProfitPercent(expensive.YesPrice),
		Strategy:        strategy,
		MatchConfidence: c.Confidence,
		DetectedAt:      now,
		ExpiresAt:       now.Add(d.cfg.Validity),
	}, true
}

func (d *Detector) register(opps []domain.ArbitrageOpportunity) {
	if len(opps) == 0 {
		return
	}
	d.mu.Lock()
	for _, opp := range opps {
		d.active[opp.ID] = opp
	}
	d.mu.Unlock()
}

// bucketByTopicKey groups markets whose normalized sorted-token title keys
// collide exactly, keeping only buckets that span at least two distinct
// platforms. This is the cheap grouping used by the no-query scan path.
func bucketByTopicKey(markets []domain.Market) []domain.MarketComparison {
	buckets := make(map[string][]domain.Market)
	var order []string
	for _, m := range markets {
		key := match.TopicKey(m.Title)
		if key == "" {
			continue
		}
		if _, ok := buckets[key]; !ok {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], m)
	}

	var comparisons []domain.MarketComparison
	for _, key := range order {
		group := buckets[key]
		platforms := make(map[domain.Platform]bool)
		for _, m := range group {
			platforms[m.Platform] = true
		}
		if len(platforms) < 2 {
			continue
		}

		maxSpread := 0.0
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if s := group[i].YesPrice.SpreadFrom(group[j].YesPrice); s > maxSpread {
					maxSpread = s
				}
			}
		}

		titles := make([]string, len(group))
		for i, m := range group {
			titles[i] = m.Title
		}
		comparisons = append(comparisons, domain.MarketComparison{
			Topic:        match.Topic(titles...),
			Markets:      group,
			MaxSpread:    maxSpread,
			HasArbitrage: maxSpread >= hardFloorSpread,
			Confidence:   match.GroupConfidence(group),
		})
	}
	return comparisons
}

func sortByProfit(opps []domain.ArbitrageOpportunity) {
	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].ProfitPercent > opps[j].ProfitPercent
	})
}
