// Package vol provides Black implied-volatility surfaces for FX option
// pricing: a flat surface and a term-structure surface with strike smiles.
package vol

import (
	"errors"
	"fmt"
	"time"

	"github.com/meenmo/fxolib/currency"
	"github.com/meenmo/fxolib/daycount"
)

var (
	// ErrUnsupportedPair is returned when a surface is queried for a pair
	// it does not cover.
	ErrUnsupportedPair = errors.New("currency pair not covered by surface")
)

// Surface is a Black implied-volatility surface for one currency pair.
//
// Queries for the inverse pair are served by inverting strike and forward,
// so an EUR/USD surface answers USD/EUR queries consistently.
type Surface interface {
	// CurrencyPair returns the pair the surface was built for.
	CurrencyPair() currency.Pair
	// ValuationDateTime anchors the surface's relative times.
	ValuationDateTime() time.Time
	// RelativeTime converts an instant to a year fraction from the
	// valuation date under ACT/365F. Negative for past instants.
	RelativeTime(t time.Time) float64
	// Volatility returns the Black volatility for the pair at the given
	// expiry year fraction, strike and forward.
	Volatility(pair currency.Pair, expiryTime, strike, forward float64) (float64, error)
}

// FlatSurface quotes one volatility for every expiry and strike.
type FlatSurface struct {
	pair          currency.Pair
	valuationTime time.Time
	vol           float64
}

// NewFlatSurface builds a flat surface at the given Black volatility.
func NewFlatSurface(pair currency.Pair, valuationTime time.Time, vol float64) (FlatSurface, error) {
	if valuationTime.IsZero() {
		return FlatSurface{}, fmt.Errorf("NewFlatSurface: valuation time is required")
	}
	if vol <= 0 {
		return FlatSurface{}, fmt.Errorf("NewFlatSurface: volatility must be positive, got %v", vol)
	}
	return FlatSurface{pair: pair, valuationTime: valuationTime, vol: vol}, nil
}

func (s FlatSurface) CurrencyPair() currency.Pair  { return s.pair }
func (s FlatSurface) ValuationDateTime() time.Time { return s.valuationTime }

func (s FlatSurface) RelativeTime(t time.Time) float64 {
	return daycount.YearFraction(s.valuationTime, t, daycount.Act365Fixed)
}

func (s FlatSurface) Volatility(pair currency.Pair, expiryTime, strike, forward float64) (float64, error) {
	if pair != s.pair && pair != s.pair.Inverse() {
		return 0, fmt.Errorf("Volatility: %w: surface is %s, queried %s", ErrUnsupportedPair, s.pair, pair)
	}
	return s.vol, nil
}
