package platform

import (
	"math"
	"testing"
	"time"

	"github.com/kestrelhq/arbscope/internal/domain"
)

func TestDeriveYesPrice(t *testing.T) {
	cases := []struct {
		name           string
		bid, ask, last float64
		want           domain.Price
	}{
		{"midpoint", 0.40, 0.50, 0.43, 0.45},
		{"ask only", 0, 0.60, 0.43, 0.60},
		{"bid only", 0.30, 0, 0.43, 0.30},
		{"last trade only", 0, 0, 0.72, 0.72},
		{"no signal at all", 0, 0, 0, 0.5},
		{"nan input", math.NaN(), math.NaN(), 0, 0.5},
	}
	for _, tc := range cases {
		if got := DeriveYesPrice(tc.bid, tc.ask, tc.last); !got.Equal(tc.want) {
			t.Errorf("%s: DeriveYesPrice(%v, %v, %v) = %v, want %v",
				tc.name, tc.bid, tc.ask, tc.last, got, tc.want)
		}
	}
}

func TestMatchesQuery(t *testing.T) {
	m := domain.Market{
		Title:    "Will Bitcoin reach $100k by 2025?",
		Question: "Bitcoin price target",
	}
	cases := []struct {
		query string
		want  bool
	}{
		{"", true},
		{"bitcoin", true},
		{"BITCOIN 100k", true},
		{"bitcoin target", true}, // terms may match title and question separately
		{"ethereum", false},
		{"bitcoin ethereum", false}, // every term must match
	}
	for _, tc := range cases {
		if got := MatchesQuery(m, tc.query); got != tc.want {
			t.Errorf("MatchesQuery(%q) = %v, want %v", tc.query, got, tc.want)
		}
	}
}

func TestApplyOptionsFiltersAndLimits(t *testing.T) {
	markets := []domain.Market{
		{ID: "a", Status: domain.MarketStatusOpen, Category: "Crypto", Volume: 100},
		{ID: "b", Status: domain.MarketStatusOpen, Category: "Crypto", Volume: 300},
		{ID: "c", Status: domain.MarketStatusClosed, Category: "Crypto", Volume: 500},
		{ID: "d", Status: domain.MarketStatusOpen, Category: "Politics", Volume: 400},
	}

	out := ApplyOptions(markets, domain.SearchOptions{
		Status:   domain.MarketStatusOpen,
		Category: "crypto",
		Sort:     domain.SortByVolume,
		Limit:    1,
	})
	if len(out) != 1 || out[0].ID != "b" {
		t.Fatalf("got %v, want single market b", out)
	}

	if got := ApplyOptions(markets, domain.SearchOptions{MinVolume: 350}); len(got) != 2 {
		t.Errorf("MinVolume filter kept %d markets, want 2", len(got))
	}
}

func TestClosingWithinOrdersSoonestFirst(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		t := now.Add(d)
		return &t
	}
	markets := []domain.Market{
		{ID: "late", Status: domain.MarketStatusOpen, EndDate: at(20 * time.Hour)},
		{ID: "soon", Status: domain.MarketStatusOpen, EndDate: at(2 * time.Hour)},
		{ID: "far", Status: domain.MarketStatusOpen, EndDate: at(72 * time.Hour)},
		{ID: "dateless", Status: domain.MarketStatusOpen},
	}

	out := ClosingWithin(markets, now, 24*time.Hour, 0)
	if len(out) != 2 {
		t.Fatalf("got %d markets, want 2 inside the window", len(out))
	}
	if out[0].ID != "soon" || out[1].ID != "late" {
		t.Errorf("order = %s, %s; want soon, late", out[0].ID, out[1].ID)
	}
}
