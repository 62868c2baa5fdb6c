package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kestrelhq/arbscope/internal/domain"
	"github.com/kestrelhq/arbscope/internal/feed"
	"github.com/kestrelhq/arbscope/internal/notify"
)

// feedMoveThreshold is the live quote move, in probability, that triggers
// a rescan ahead of the polling interval.
const feedMoveThreshold = 0.02

// ScanMode runs one scan, reports the findings, and exits.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	result, err := deps.Detector.Scan(ctx, a.cfg.Watch.Query, a.cfg.Arbitrage.MinSpread)
	if err != nil {
		return fmt.Errorf("app: scan: %w", err)
	}

	a.handleResult(ctx, deps, result)

	fmt.Printf("Scanned %d markets across %d platform(s), found %d opportunit(ies)\n",
		result.MarketsScanned, len(deps.Aggregator.Platforms()), len(result.Opportunities))
	for _, e := range result.Errors {
		fmt.Printf("  warning: %s\n", e)
	}
	for _, opp := range result.Opportunities {
		title, body := notify.FormatOpportunity(opp)
		fmt.Printf("\n%s\n%s\n", title, body)
		if calc, err := deps.Detector.PotentialProfit(opp, a.cfg.Watch.Stake); err == nil {
			fmt.Printf("At $%.2f stake: net $%.2f (break even %.4f)\n",
				calc.Stake, calc.NetProfit, calc.BreakEvenPrice)
		}
	}
	return nil
}

// WatchMode scans on an interval until shutdown. A live Polymarket quote
// feed can trigger an early rescan when a watched asset moves sharply.
func (a *App) WatchMode(ctx context.Context, deps *Dependencies) error {
	rescan := make(chan struct{}, 1)

	seen := make(map[string]bool)
	runScan := func() {
		result, err := deps.Detector.Scan(ctx, a.cfg.Watch.Query, a.cfg.Arbitrage.MinSpread)
		if err != nil {
			a.logger.ErrorContext(ctx, "scan failed", slog.String("error", err.Error()))
			return
		}
		a.handleResult(ctx, deps, result)

		// Alert once per leg pair; rediscoveries get fresh IDs every
		// scan, so dedupe on the markets involved.
		for _, opp := range result.Opportunities {
			pairKey := string(opp.LegA.Platform) + ":" + opp.LegA.MarketID +
				"|" + string(opp.LegB.Platform) + ":" + opp.LegB.MarketID
			if seen[pairKey] {
				continue
			}
			seen[pairKey] = true
			title, body := notify.FormatOpportunity(opp)
			if err := deps.Notifier.Notify(ctx, notify.EventArbDetected, title, body); err != nil {
				a.logger.WarnContext(ctx, "notify failed", slog.String("error", err.Error()))
			}
		}
	}

	runScan()
	a.startQuoteFeed(ctx, deps, rescan)

	ticker := time.NewTicker(a.cfg.Watch.Interval.Duration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			runScan()
		case <-rescan:
			a.logger.InfoContext(ctx, "live quote move, rescanning early")
			runScan()
		}
	}
}

// HealthMode probes every configured platform once and reports latency.
func (a *App) HealthMode(ctx context.Context, deps *Dependencies) error {
	statuses := deps.Aggregator.HealthCheckAll(ctx)

	healthy := 0
	for _, st := range statuses {
		if st.Healthy {
			healthy++
			fmt.Printf("%s %s: ok (%s)\n", st.Platform.Emoji(), st.Platform.DisplayName(), st.Latency.Round(time.Millisecond))
			continue
		}
		fmt.Printf("%s %s: UNHEALTHY: %s\n", st.Platform.Emoji(), st.Platform.DisplayName(), st.Error)
	}

	if healthy == 0 {
		return fmt.Errorf("app: no healthy platforms")
	}
	return nil
}

// handleResult journals and archives scan output when those backends are
// configured. Failures degrade to warnings; persistence never blocks
// detection.
func (a *App) handleResult(ctx context.Context, deps *Dependencies, result domain.ArbitrageScanResult) {
	if deps.Journal != nil {
		for _, opp := range result.Opportunities {
			if err := deps.Journal.Insert(ctx, opp); err != nil {
				a.logger.WarnContext(ctx, "journal insert failed",
					slog.String("opportunity", opp.ID),
					slog.String("error", err.Error()),
				)
			}
		}
	}
	if deps.Archiver != nil {
		if err := deps.Archiver.ArchiveScan(ctx, result); err != nil {
			a.logger.WarnContext(ctx, "scan archive failed", slog.String("error", err.Error()))
		}
	}
}

// startQuoteFeed launches the Polymarket WebSocket feed for the yes-side
// CLOB tokens of currently hot markets. Runs only when Polymarket is
// configured; failure to gather assets just leaves the feed off.
func (a *App) startQuoteFeed(ctx context.Context, deps *Dependencies, rescan chan<- struct{}) {
	hot, _ := deps.Aggregator.GetHotAll(ctx, 50)

	var assetIDs []string
	for _, m := range hot {
		if m.Platform != domain.PlatformPolymarket {
			continue
		}
		if id := m.Metadata["yes_token_id"]; id != "" {
			assetIDs = append(assetIDs, id)
		}
	}
	if len(assetIDs) == 0 {
		a.logger.Info("no polymarket assets to watch, feed disabled")
		return
	}

	lastMid := make(map[string]float64)
	handler := func(u feed.QuoteUpdate) {
		mid := u.BestBid.Value()
		if u.BestAsk > 0 {
			if u.BestBid > 0 {
				mid = (u.BestBid.Value() + u.BestAsk.Value()) / 2
			} else {
				mid = u.BestAsk.Value()
			}
		}
		prev, ok := lastMid[u.AssetID]
		lastMid[u.AssetID] = mid
		if !ok {
			return
		}
		if diff := mid - prev; diff >= feedMoveThreshold || diff <= -feedMoveThreshold {
			select {
			case rescan <- struct{}{}:
			default:
			}
		}
	}

	quoteFeed := feed.NewPolymarketFeed(a.cfg.Polymarket.WSURL, assetIDs, handler, a.logger)
	a.closers = append(a.closers, quoteFeed.Close)

	go func() {
		if err := quoteFeed.Run(ctx); err != nil && ctx.Err() == nil {
			a.logger.WarnContext(ctx, "quote feed stopped", slog.String("error", err.Error()))
		}
	}()
}
