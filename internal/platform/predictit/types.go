package predictit

// APIMarket represents a market as returned by the PredictIt API. A
// PredictIt "market" is a question group; each of its contracts is a
// separately tradeable binary outcome.
type APIMarket struct {
	ID        int           `json:"id"`
	Name      string        `json:"name"`
	ShortName string        `json:"shortName"`
	URL       string        `json:"url"`
	Status    string        `json:"status"` // "Open", "Closed"
	Contracts []APIContract `json:"contracts"`
}

// APIContract is a single binary contract. Prices are dollar quotes in
// [0,1]; the bestBuy/bestSell fields are null when that book side is empty.
type APIContract struct {
	ID              int      `json:"id"`
	Name            string   `json:"name"`
	ShortName       string   `json:"shortName"`
	Status          string   `json:"status"`
	DateEnd         string   `json:"dateEnd"` // RFC3339, or "N/A"/"NaT" when open-ended
	LastTradePrice  float64  `json:"lastTradePrice"`
	BestBuyYesCost  *float64 `json:"bestBuyYesCost"`  // ask side of YES
	BestBuyNoCost   *float64 `json:"bestBuyNoCost"`   // ask side of NO
	BestSellYesCost *float64 `json:"bestSellYesCost"` // bid side of YES
	BestSellNoCost  *float64 `json:"bestSellNoCost"`  // bid side of NO
	LastClosePrice  float64  `json:"lastClosePrice"`
}

// AllMarketsResponse is the envelope of the bulk marketdata endpoint.
type AllMarketsResponse struct {
	Markets []APIMarket `json:"markets"`
}
