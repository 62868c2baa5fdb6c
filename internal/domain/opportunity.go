package domain

import "time"

// ArbStrategy names the two-leg position that captures a detected spread,
// expressed from the perspective of leg A.
type ArbStrategy string

const (
	// StrategyBuyYesHedgeNo: buy YES on market A (the cheaper yes-price),
	// hedge with NO on market B.
	StrategyBuyYesHedgeNo ArbStrategy = "buy_yes_hedge_no"
	// StrategyBuyNoHedgeYes: buy NO on market A, buy YES on market B
	// (B has the cheaper yes-price).
	StrategyBuyNoHedgeYes ArbStrategy = "buy_no_hedge_yes"
)

// OpportunityLeg is one side of an arbitrage pair.
type OpportunityLeg struct {
	Platform Platform `json:"platform"`
	MarketID string   `json:"market_id"`
	Title    string   `json:"title"`
	URL      string   `json:"url,omitempty"`
	YesPrice Price    `json:"yes_price"`
}

// ArbitrageOpportunity is a detected pricing mismatch between two market
// snapshots believed to represent the same question. Instances are never
// mutated after construction; re-detection produces a new one with a new ID.
type ArbitrageOpportunity struct {
	ID              string         `json:"id"`
	Topic           string         `json:"topic"`
	LegA            OpportunityLeg `json:"leg_a"`
	LegB            OpportunityLeg `json:"leg_b"`
	Spread          float64        `json:"spread"`
	ProfitPercent   float64        `json:"profit_percent"`
	Strategy        ArbStrategy    `json:"strategy"`
	MatchConfidence float64        `json:"match_confidence"`
	DetectedAt      time.Time      `json:"detected_at"`
	ExpiresAt       time.Time      `json:"expires_at"`
}

// IsValid reports whether the opportunity is still inside its validity
// window at the given instant.
func (o ArbitrageOpportunity) IsValid(now time.Time) bool {
	return now.Before(o.ExpiresAt)
}

// ArbitrageScanResult is the full outcome of one detector scan. Errors are
// informational per-source failure strings; a scan that lost some providers
// still succeeds with whatever subset responded.
type ArbitrageScanResult struct {
	ScannedAt      time.Time              `json:"scanned_at"`
	MarketsScanned int                    `json:"markets_scanned"`
	Opportunities  []ArbitrageOpportunity `json:"opportunities"`
	Errors         []string               `json:"errors,omitempty"`
}

// ProfitCalculation models the payout of splitting a stake across both legs
// of an opportunity. It assumes both legs fill at the quoted price with no
// slippage and does not model partial fills.
type ProfitCalculation struct {
	Stake            float64 `json:"stake"`
	StakePerLeg      float64 `json:"stake_per_leg"`
	YesShares        float64 `json:"yes_shares"` // bought on the cheap leg
	NoShares         float64 `json:"no_shares"`  // bought on the expensive leg
	GuaranteedPayout float64 `json:"guaranteed_payout"`
	GrossProfit      float64 `json:"gross_profit"`
	EstimatedFees    float64 `json:"estimated_fees"`
	NetProfit        float64 `json:"net_profit"`
	BreakEvenPrice   float64 `json:"break_even_price"`
}

// MarketComparison is one similarity group produced by the aggregator's
// cross-platform comparison view.
type MarketComparison struct {
	Topic        string   `json:"topic"`
	Markets      []Market `json:"markets"`
	MaxSpread    float64  `json:"max_spread"`
	HasArbitrage bool     `json:"has_arbitrage"`
	Confidence   float64  `json:"confidence"` // mean pairwise similarity, 1 for a singleton
}
