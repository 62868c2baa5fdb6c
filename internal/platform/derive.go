// Package platform holds helpers shared by the per-exchange adapters:
// yes-price derivation from partial quote data and the client-side
// filtering used when an upstream API cannot filter server-side.
package platform

import (
	"sort"
	"strings"
	"time"

	"github.com/kestrelhq/arbscope/internal/domain"
)

// DeriveYesPrice derives a YES probability from whatever price signals a
// platform exposes, most trustworthy first:
//
//  1. bid/ask midpoint when both sides of the book are present and non-zero
//  2. whichever single side is non-zero
//  3. the last traded price, if any
//  4. 0.5, maximum uncertainty, rather than failing
//
// All inputs are probabilities in [0,1]; callers convert cent quotes first.
func DeriveYesPrice(bid, ask, last float64) domain.Price {
	v := 0.5
	switch {
	case bid > 0 && ask > 0:
		v = (bid + ask) / 2
	case ask > 0:
		v = ask
	case bid > 0:
		v = bid
	case last > 0:
		v = last
	}
	p, err := domain.NewPrice(v)
	if err != nil {
		// NaN from a malformed feed: fall back to maximum uncertainty.
		return domain.Price(0.5)
	}
	return p
}

// MatchesQuery reports whether every whitespace-separated term of query
// appears in the market's title or question, case-insensitively. An empty
// query matches everything.
func MatchesQuery(m domain.Market, query string) bool {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return true
	}
	haystack := strings.ToLower(m.Title + " " + m.Question)
	for _, term := range strings.Fields(query) {
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}

// ApplyOptions filters and sorts markets client-side per opts, then
// truncates to opts.Limit. The input slice is not modified.
func ApplyOptions(markets []domain.Market, opts domain.SearchOptions) []domain.Market {
	out := make([]domain.Market, 0, len(markets))
	for _, m := range markets {
		if opts.Status != "" && m.Status != opts.Status {
			continue
		}
		if opts.Category != "" && !strings.EqualFold(m.Category, opts.Category) {
			continue
		}
		if m.Volume < opts.MinVolume {
			continue
		}
		if m.Liquidity < opts.MinLiquidity {
			continue
		}
		out = append(out, m)
	}

	SortMarkets(out, opts.Sort)

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

// SortMarkets orders markets in place. The default (and fallback) order is
// volume descending.
func SortMarkets(markets []domain.Market, by domain.SortBy) {
	sort.SliceStable(markets, func(i, j int) bool {
		a, b := markets[i], markets[j]
		switch by {
		case domain.SortByLiquidity:
			return a.Liquidity > b.Liquidity
		case domain.SortByEndDate:
			switch {
			case a.EndDate == nil:
				return false
			case b.EndDate == nil:
				return true
			default:
				return a.EndDate.Before(*b.EndDate)
			}
		default:
			return a.Volume > b.Volume
		}
	})
}

// ClosingWithin filters to open markets whose end date falls inside the
// window, ordered soonest first.
func ClosingWithin(markets []domain.Market, now time.Time, within time.Duration, limit int) []domain.Market {
	out := make([]domain.Market, 0, len(markets))
	for _, m := range markets {
		if m.ClosingSoon(now, within) {
			out = append(out, m)
		}
	}
	SortMarkets(out, domain.SortByEndDate)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
