package domain

import (
	"fmt"
	"math"
)

// priceTolerance absorbs floating-point rounding introduced by upstream
// feeds that quote in cents or decimal strings.
const priceTolerance = 0.001

// Price is the market-implied probability of the YES outcome, always in
// [0,1]. It is a pure value type: operations return new values and never
// mutate.
type Price float64

// NewPrice builds a Price from v, clamping values slightly outside [0,1]
// into range. NaN is rejected with ErrInvalidPrice rather than clamped.
func NewPrice(v float64) (Price, error) {
	if math.IsNaN(v) {
		return 0, fmt.Errorf("price %v: %w", v, ErrInvalidPrice)
	}
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return Price(v), nil
}

// PriceFromCents builds a Price from a cent quote (0-100), the convention
// used by Kalshi and PredictIt.
func PriceFromCents(cents float64) (Price, error) {
	return NewPrice(cents / 100)
}

// Value returns the underlying probability.
func (p Price) Value() float64 { return float64(p) }

// Complement returns 1-p, the implied probability of the NO outcome.
func (p Price) Complement() Price { return Price(1 - float64(p)) }

// SpreadFrom returns the absolute difference between p and other.
// It is symmetric: a.SpreadFrom(b) == b.SpreadFrom(a).
func (p Price) SpreadFrom(other Price) float64 {
	return math.Abs(float64(p) - float64(other))
}

// ArbitrageProfitPercent returns the spread between p and other normalized
// by their average, as a percentage. A zero average (both prices zero)
// yields 0 rather than dividing by zero.
func (p Price) ArbitrageProfitPercent(other Price) float64 {
	avg := (float64(p) + float64(other)) / 2
	if avg == 0 {
		return 0
	}
	return p.SpreadFrom(other) / avg * 100
}

// Equal reports approximate equality within priceTolerance.
func (p Price) Equal(other Price) bool {
	return p.SpreadFrom(other) < priceTolerance
}

// Less reports whether p is strictly below other (beyond tolerance).
func (p Price) Less(other Price) bool {
	return float64(p) < float64(other) && !p.Equal(other)
}

// String renders the price as an implied percentage, e.g. "42.5%".
func (p Price) String() string {
	return fmt.Sprintf("%.1f%%", float64(p)*100)
}
