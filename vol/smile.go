package vol

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/meenmo/fxolib/currency"
	"github.com/meenmo/fxolib/daycount"
)

// SmileTerm is one expiry slice of a smile surface: Black volatilities
// quoted at absolute strikes. A single strike quotes a smileless level.
type SmileTerm struct {
	// Time is the expiry year fraction from the valuation date.
	Time float64
	// Strikes are the quoted strikes, strictly increasing.
	Strikes []float64
	// Vols are the Black volatilities per strike.
	Vols []float64
}

// SmileSurface interpolates a term structure of strike smiles.
//
// In strike it interpolates volatility linearly with flat wings. In time
// it interpolates total variance sigma^2*t linearly between terms, which
// keeps forward variance between quoted expiries constant and
// non-negative whenever the quoted total variances are increasing,
// which is the quantity the implied-tree calibration differences.
// Before the first and beyond the last term the volatility is flat.
type SmileSurface struct {
	pair          currency.Pair
	valuationTime time.Time
	terms         []SmileTerm
}

// NewSmileSurface validates the terms and builds a surface.
func NewSmileSurface(pair currency.Pair, valuationTime time.Time, terms []SmileTerm) (SmileSurface, error) {
	if valuationTime.IsZero() {
		return SmileSurface{}, fmt.Errorf("NewSmileSurface: valuation time is required")
	}
	if len(terms) == 0 {
		return SmileSurface{}, fmt.Errorf("NewSmileSurface: at least one term is required")
	}
	copied := make([]SmileTerm, len(terms))
	for i, term := range terms {
		if term.Time <= 0 {
			return SmileSurface{}, fmt.Errorf("NewSmileSurface: term %d time must be positive, got %v", i, term.Time)
		}
		if i > 0 && term.Time <= terms[i-1].Time {
			return SmileSurface{}, fmt.Errorf("NewSmileSurface: term times must be strictly increasing at index %d", i)
		}
		if len(term.Strikes) == 0 || len(term.Strikes) != len(term.Vols) {
			return SmileSurface{}, fmt.Errorf("NewSmileSurface: term %d has %d strikes vs %d vols", i, len(term.Strikes), len(term.Vols))
		}
		for j, k := range term.Strikes {
			if k <= 0 {
				return SmileSurface{}, fmt.Errorf("NewSmileSurface: term %d strike %d must be positive, got %v", i, j, k)
			}
			if j > 0 && k <= term.Strikes[j-1] {
				return SmileSurface{}, fmt.Errorf("NewSmileSurface: term %d strikes must be strictly increasing at index %d", i, j)
			}
			if term.Vols[j] <= 0 {
				return SmileSurface{}, fmt.Errorf("NewSmileSurface: term %d vol %d must be positive, got %v", i, j, term.Vols[j])
			}
		}
		copied[i] = SmileTerm{
			Time:    term.Time,
			Strikes: append([]float64(nil), term.Strikes...),
			Vols:    append([]float64(nil), term.Vols...),
		}
	}
	return SmileSurface{pair: pair, valuationTime: valuationTime, terms: copied}, nil
}

func (s SmileSurface) CurrencyPair() currency.Pair  { return s.pair }
func (s SmileSurface) ValuationDateTime() time.Time { return s.valuationTime }

func (s SmileSurface) RelativeTime(t time.Time) float64 {
	return daycount.YearFraction(s.valuationTime, t, daycount.Act365Fixed)
}

func (s SmileSurface) Volatility(pair currency.Pair, expiryTime, strike, forward float64) (float64, error) {
	k := strike
	switch pair {
	case s.pair:
	case s.pair.Inverse():
		// Inverse-pair queries price the same event on the reciprocal
		// rate, so the strike maps to its reciprocal.
		if strike <= 0 {
			return 0, fmt.Errorf("Volatility: non-positive strike %v for inverse pair query", strike)
		}
		k = 1 / strike
	default:
		return 0, fmt.Errorf("Volatility: %w: surface is %s, queried %s", ErrUnsupportedPair, s.pair, pair)
	}

	n := len(s.terms)
	if expiryTime <= s.terms[0].Time {
		return s.terms[0].volAtStrike(k), nil
	}
	if expiryTime >= s.terms[n-1].Time {
		return s.terms[n-1].volAtStrike(k), nil
	}
	i := sort.Search(n, func(i int) bool { return s.terms[i].Time >= expiryTime })
	t0, t1 := s.terms[i-1].Time, s.terms[i].Time
	v0 := s.terms[i-1].volAtStrike(k)
	v1 := s.terms[i].volAtStrike(k)
	w := (expiryTime - t0) / (t1 - t0)
	totalVar := (1-w)*v0*v0*t0 + w*v1*v1*t1
	return math.Sqrt(totalVar / expiryTime), nil
}

// volAtStrike interpolates the term's smile linearly with flat wings.
func (term SmileTerm) volAtStrike(k float64) float64 {
	strikes := term.Strikes
	n := len(strikes)
	if k <= strikes[0] {
		return term.Vols[0]
	}
	if k >= strikes[n-1] {
		return term.Vols[n-1]
	}
	i := sort.SearchFloat64s(strikes, k)
	k0, k1 := strikes[i-1], strikes[i]
	w := (k - k0) / (k1 - k0)
	return term.Vols[i-1] + w*(term.Vols[i]-term.Vols[i-1])
}
