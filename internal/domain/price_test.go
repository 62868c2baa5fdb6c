package domain

import (
	"math"
	"testing"
)

func TestNewPriceClamping(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"in range", 0.42, 0.42},
		{"zero", 0, 0},
		{"one", 1, 1},
		{"below range", -0.05, 0},
		{"above range", 1.2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPrice(tt.in)
			if err != nil {
				t.Fatalf("NewPrice(%v): %v", tt.in, err)
			}
			if p.Value() != tt.want {
				t.Errorf("NewPrice(%v) = %v, want %v", tt.in, p.Value(), tt.want)
			}
		})
	}
}

func TestNewPriceRejectsNaN(t *testing.T) {
	if _, err := NewPrice(math.NaN()); err == nil {
		t.Fatal("NewPrice(NaN): want error, got nil")
	}
}

func TestPriceFromCents(t *testing.T) {
	p, err := PriceFromCents(42.5)
	if err != nil {
		t.Fatalf("PriceFromCents: %v", err)
	}
	if !p.Equal(Price(0.425)) {
		t.Errorf("PriceFromCents(42.5) = %v, want 0.425", p.Value())
	}
}

func TestPriceComplement(t *testing.T) {
	p := Price(0.3)
	if got := p.Complement(); !got.Equal(Price(0.7)) {
		t.Errorf("Complement(0.3) = %v, want 0.7", got.Value())
	}
}

func TestSpreadFromSymmetric(t *testing.T) {
	a, b := Price(0.40), Price(0.55)
	if a.SpreadFrom(b) != b.SpreadFrom(a) {
		t.Errorf("spread not symmetric: %v vs %v", a.SpreadFrom(b), b.SpreadFrom(a))
	}
	if got := a.SpreadFrom(b); math.Abs(got-0.15) > 1e-9 {
		t.Errorf("SpreadFrom = %v, want 0.15", got)
	}
}

func TestArbitrageProfitPercent(t *testing.T) {
	a, b := Price(0.40), Price(0.55)
	// 0.15 / 0.475 * 100.
	want := 31.5789
	if got := a.ArbitrageProfitPercent(b); math.Abs(got-want) > 0.001 {
		t.Errorf("ArbitrageProfitPercent = %v, want ~%v", got, want)
	}
	if got := Price(0).ArbitrageProfitPercent(Price(0)); got != 0 {
		t.Errorf("ArbitrageProfitPercent(0,0) = %v, want 0", got)
	}
}

func TestPriceEqualTolerance(t *testing.T) {
	if !Price(0.5).Equal(Price(0.5004)) {
		t.Error("prices within tolerance should be equal")
	}
	if Price(0.5).Equal(Price(0.502)) {
		t.Error("prices outside tolerance should not be equal")
	}
}

func TestPriceLess(t *testing.T) {
	if !Price(0.4).Less(Price(0.5)) {
		t.Error("0.4 should be less than 0.5")
	}
	if Price(0.5).Less(Price(0.5004)) {
		t.Error("prices within tolerance are not strictly ordered")
	}
}

func TestPriceString(t *testing.T) {
	if got := Price(0.425).String(); got != "42.5%" {
		t.Errorf("String = %q, want %q", got, "42.5%")
	}
}
