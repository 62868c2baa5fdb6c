package kalshi

// APIMarket represents a market as returned by the Kalshi REST API.
// Price fields are quoted in cents (0-100).
type APIMarket struct {
	Ticker         string  `json:"ticker"`
	EventTicker    string  `json:"event_ticker"`
	Title          string  `json:"title"`
	Subtitle       string  `json:"subtitle"`
	Status         string  `json:"status"` // "unopened", "open", "closed", "settled"
	YesBid         float64 `json:"yes_bid"`
	YesAsk         float64 `json:"yes_ask"`
	NoBid          float64 `json:"no_bid"`
	NoAsk          float64 `json:"no_ask"`
	LastPrice      float64 `json:"last_price"`
	Volume         float64 `json:"volume"`
	Liquidity      float64 `json:"liquidity"` // cents
	OpenInterest   float64 `json:"open_interest"`
	ExpirationTime string  `json:"expiration_time"`
	CloseTime      string  `json:"close_time"`
	Category       string  `json:"category"`
	Result         string  `json:"result"` // "yes", "no", "" while unsettled
	CanCloseEarly  bool    `json:"can_close_early"`
}

// APIErrorResponse represents a Kalshi API error body.
type APIErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
