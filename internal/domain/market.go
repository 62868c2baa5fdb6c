package domain

import "time"

// MarketStatus is the canonical lifecycle state of a market. Adapters map
// each platform's status vocabulary onto these four values.
type MarketStatus string

const (
	MarketStatusOpen      MarketStatus = "open"
	MarketStatusClosed    MarketStatus = "closed"
	MarketStatusResolved  MarketStatus = "resolved"
	MarketStatusCancelled MarketStatus = "cancelled"
)

// Derived-flag thresholds.
const (
	// highVolumeThreshold is the cumulative traded volume (USD) above
	// which a market counts as high-volume.
	highVolumeThreshold = 100_000

	// Contentious markets trade near maximum uncertainty.
	contentiousLow  = 0.40
	contentiousHigh = 0.60
)

// Market is one quote snapshot from one platform at one instant. It is
// immutable once constructed: a price update produces a new Market via
// WithPrices, never an in-place mutation, so snapshots can be shared freely
// across concurrent readers.
//
// YesPrice and NoPrice are independent quotes. Some platforms populate
// NoPrice from a separate order-book side that need not sum to 1 with
// YesPrice; the gap between them is itself meaningful, so NoPrice is never
// derived as the strict complement when the upstream supplies both sides.
type Market struct {
	Platform  Platform          `json:"platform"`
	ID        string            `json:"id"` // platform-native ticker or slug
	Title     string            `json:"title"`
	Question  string            `json:"question,omitempty"`
	YesPrice  Price             `json:"yes_price"`
	NoPrice   Price             `json:"no_price"`
	Volume    float64           `json:"volume"`
	Liquidity float64           `json:"liquidity"`
	EndDate   *time.Time        `json:"end_date,omitempty"` // nil means no known close time
	Status    MarketStatus      `json:"status"`
	URL       string            `json:"url,omitempty"`
	Category  string            `json:"category,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"` // platform-specific extras
	FetchedAt time.Time         `json:"fetched_at"`
}

// Key returns the (platform, id) identity used for deduplication.
func (m Market) Key() string {
	return string(m.Platform) + ":" + m.ID
}

// IsOpen reports whether the market is still tradeable.
func (m Market) IsOpen() bool {
	return m.Status == MarketStatusOpen
}

// ClosingSoon reports whether the market has a known end date within the
// given window of now. Markets without an end date never close soon.
func (m Market) ClosingSoon(now time.Time, within time.Duration) bool {
	if m.EndDate == nil || !m.IsOpen() {
		return false
	}
	return m.EndDate.After(now) && m.EndDate.Sub(now) <= within
}

// HighVolume reports whether cumulative traded volume clears the
// high-volume threshold.
func (m Market) HighVolume() bool {
	return m.Volume >= highVolumeThreshold
}

// Contentious reports whether the YES price sits in the maximum-uncertainty
// band around 50%.
func (m Market) Contentious() bool {
	v := m.YesPrice.Value()
	return v >= contentiousLow && v <= contentiousHigh
}

// WithPrices returns a copy of the market carrying new price quotes and
// fetch time. The receiver is unchanged.
func (m Market) WithPrices(yes, no Price, fetchedAt time.Time) Market {
	out := m
	out.YesPrice = yes
	out.NoPrice = no
	out.FetchedAt = fetchedAt
	return out
}
