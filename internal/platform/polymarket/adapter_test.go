package polymarket

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kestrelhq/arbscope/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serveMarkets(t *testing.T, markets []APIMarket) *Adapter {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/markets", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(markets)
	})
	mux.HandleFunc("/markets/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/markets/"):]
		for _, m := range markets {
			if m.ID == id {
				json.NewEncoder(w).Encode(m)
				return
			}
		}
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewAdapter(NewGammaClient(srv.URL, srv.Client()), nil, 0, testLogger())
}

func TestSearchDropsMarketsWithoutOrderBook(t *testing.T) {
	a := serveMarkets(t, []APIMarket{
		{
			ID:              "101",
			Question:        "Will Bitcoin reach $100k by 2025?",
			Slug:            "bitcoin-100k-2025",
			Active:          true,
			EnableOrderBook: true,
			BestBid:         0.58,
			BestAsk:         0.62,
			Volume:          250000,
		},
		{
			ID:              "102",
			Question:        "Legacy AMM market",
			Active:          true,
			EnableOrderBook: false,
			BestBid:         0.40,
			BestAsk:         0.44,
		},
	})

	markets, err := a.Search(context.Background(), "", domain.SearchOptions{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(markets) != 1 {
		t.Fatalf("got %d markets, want 1 (no-order-book market dropped)", len(markets))
	}

	m := markets[0]
	if m.ID != "101" {
		t.Errorf("ID = %q, want 101", m.ID)
	}
	if !m.YesPrice.Equal(0.60) {
		t.Errorf("YesPrice = %v, want 0.60 midpoint", m.YesPrice)
	}
	if m.URL != "https://polymarket.com/market/bitcoin-100k-2025" {
		t.Errorf("URL = %q", m.URL)
	}
}

func TestConvertDecodesStringEncodedFields(t *testing.T) {
	raw := `[{
		"id": "201",
		"question": "Will ETH flip BTC in 2026?",
		"slug": "eth-flip-btc",
		"active": "true",
		"enableOrderBook": true,
		"outcomePrices": "[\"0.07\", \"0.93\"]",
		"volume": "12345.5",
		"liquidity": "678.9",
		"clobTokenIds": "[\"tok-yes\", \"tok-no\"]",
		"conditionId": "0xabc",
		"endDate": "2026-12-31T23:59:59Z"
	}]`

	var markets []APIMarket
	if err := json.Unmarshal([]byte(raw), &markets); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	a := serveMarkets(t, markets)
	got, err := a.Search(context.Background(), "eth", domain.SearchOptions{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d markets, want 1", len(got))
	}

	m := got[0]
	// No book quotes, so yes falls back to the outcome price.
	if !m.YesPrice.Equal(0.07) {
		t.Errorf("YesPrice = %v, want 0.07 from outcomePrices", m.YesPrice)
	}
	if !m.NoPrice.Equal(0.93) {
		t.Errorf("NoPrice = %v, want 0.93 from outcomePrices", m.NoPrice)
	}
	if m.Volume != 12345.5 {
		t.Errorf("Volume = %v, want 12345.5", m.Volume)
	}
	if m.Metadata["yes_token_id"] != "tok-yes" || m.Metadata["no_token_id"] != "tok-no" {
		t.Errorf("token metadata = %v", m.Metadata)
	}
	if m.Metadata["condition_id"] != "0xabc" {
		t.Errorf("condition_id = %q", m.Metadata["condition_id"])
	}
	if m.EndDate == nil || m.EndDate.Year() != 2026 {
		t.Errorf("EndDate = %v, want 2026", m.EndDate)
	}
}

func TestCanonicalStatusFlags(t *testing.T) {
	cases := []struct {
		name string
		api  APIMarket
		want domain.MarketStatus
	}{
		{"archived wins", APIMarket{Archived: true, Closed: true, Active: true}, domain.MarketStatusCancelled},
		{"closed is resolved", APIMarket{Closed: true}, domain.MarketStatusResolved},
		{"active is open", APIMarket{Active: true}, domain.MarketStatusOpen},
		{"inactive defaults closed", APIMarket{}, domain.MarketStatusClosed},
	}
	for _, tc := range cases {
		if got := canonicalStatus(tc.api); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestGetByIDNotFound(t *testing.T) {
	a := serveMarkets(t, nil)

	_, err := a.GetByID(context.Background(), "999")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestHealthCheck(t *testing.T) {
	a := serveMarkets(t, []APIMarket{})

	health := a.HealthCheck(context.Background())
	if !health.Healthy {
		t.Errorf("Healthy = false, want true: %s", health.Error)
	}
	if health.Platform != domain.PlatformPolymarket {
		t.Errorf("Platform = %q", health.Platform)
	}
	if health.Latency <= 0 {
		t.Errorf("Latency = %v, want > 0", health.Latency)
	}
	if health.CheckedAt.IsZero() {
		t.Error("CheckedAt is zero")
	}
}
