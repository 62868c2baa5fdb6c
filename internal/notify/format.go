package notify

import (
	"fmt"
	"strings"

	"github.com/kestrelhq/arbscope/internal/domain"
)

// FormatOpportunity renders an opportunity as an alert title and body.
// Platform emoji make the two venues scannable at a glance in chat.
func FormatOpportunity(opp domain.ArbitrageOpportunity) (title, message string) {
	title = fmt.Sprintf("Arbitrage: %s (%.1f%% spread)", opp.Topic, opp.Spread*100)

	var b strings.Builder
	writeLeg(&b, opp.LegA)
	writeLeg(&b, opp.LegB)
	fmt.Fprintf(&b, "Strategy: %s\n", strategyLabel(opp.Strategy))
	fmt.Fprintf(&b, "Est. profit: %.2f%%  Confidence: %.0f%%\n", opp.ProfitPercent, opp.MatchConfidence*100)
	fmt.Fprintf(&b, "Valid until %s", opp.ExpiresAt.Format("15:04 MST"))
	return title, b.String()
}

// FormatScanFailure summarizes per-platform fetch errors for an alert body.
func FormatScanFailure(errs []string) (title, message string) {
	title = fmt.Sprintf("Scan degraded: %d source error(s)", len(errs))
	return title, strings.Join(errs, "\n")
}

func writeLeg(b *strings.Builder, leg domain.OpportunityLeg) {
	fmt.Fprintf(b, "%s %s: YES %s\n%s\n",
		leg.Platform.Emoji(), leg.Platform.DisplayName(), leg.YesPrice, leg.URL)
}

func strategyLabel(s domain.ArbStrategy) string {
	switch s {
	case domain.StrategyBuyYesHedgeNo:
		return "buy YES on leg A, hedge NO on leg B"
	case domain.StrategyBuyNoHedgeYes:
		return "buy NO on leg A, hedge YES on leg B"
	default:
		return string(s)
	}
}
