package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// flexFloat unmarshals from a JSON number or a numeric string; Gamma quotes
// volume and liquidity as strings on some endpoints.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(n)
	return nil
}

// APIMarket represents a market as returned by the Polymarket Gamma API.
type APIMarket struct {
	ID              string    `json:"id"`
	Question        string    `json:"question"`
	Slug            string    `json:"slug"`
	Active          flexBool  `json:"active"`
	Closed          bool      `json:"closed"`
	Archived        bool      `json:"archived"`
	EnableOrderBook bool      `json:"enableOrderBook"`
	Outcomes        string    `json:"outcomes"`      // JSON-encoded, e.g. "[\"Yes\",\"No\"]"
	OutcomePrices   string    `json:"outcomePrices"` // JSON-encoded, e.g. "[\"0.6\",\"0.4\"]"
	BestBid         flexFloat `json:"bestBid"`
	BestAsk         flexFloat `json:"bestAsk"`
	Volume          flexFloat `json:"volume"`
	Liquidity       flexFloat `json:"liquidity"`
	EndDate         string    `json:"endDate"`
	Category        string    `json:"category"`
	ConditionID     string    `json:"conditionId"`
	ClobTokenIDs    string    `json:"clobTokenIds"` // JSON-encoded token ID pair
}

// OutcomePricePair decodes the JSON-encoded outcomePrices field into
// (yes, no). Missing or malformed entries come back as (0, 0, false).
func (m *APIMarket) OutcomePricePair() (yes, no float64, ok bool) {
	var raw []string
	if err := json.Unmarshal([]byte(m.OutcomePrices), &raw); err != nil || len(raw) == 0 {
		return 0, 0, false
	}
	yes, err := strconv.ParseFloat(raw[0], 64)
	if err != nil {
		return 0, 0, false
	}
	if len(raw) > 1 {
		if v, err := strconv.ParseFloat(raw[1], 64); err == nil {
			no = v
		}
	}
	return yes, no, true
}

// TokenIDs decodes the JSON-encoded clobTokenIds field.
func (m *APIMarket) TokenIDs() []string {
	var ids []string
	if err := json.Unmarshal([]byte(m.ClobTokenIDs), &ids); err != nil {
		return nil
	}
	return ids
}
