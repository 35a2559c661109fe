// Package marketdata loads market snapshots and trade portfolios from
// CSV files or a Postgres store and assembles them into the rate
// environments, volatility surfaces and portfolio rows the pricers
// consume. The CSV and database paths share one set of record types, so
// assembly is validated once and exercised by both.
package marketdata

import (
	"fmt"
	"sort"
	"time"

	"github.com/meenmo/fxolib/calc"
	"github.com/meenmo/fxolib/calendar"
	"github.com/meenmo/fxolib/currency"
	"github.com/meenmo/fxolib/daycount"
	"github.com/meenmo/fxolib/rates"
	"github.com/meenmo/fxolib/vol"
)

// CurveNode is one quoted zero-curve node. Label is a market tenor
// ("6M", "1Y") resolved against the valuation date on the currency's
// calendar.
type CurveNode struct {
	CurveName string
	Currency  currency.Currency
	Label     string
	Zero      float64
}

// FxQuote is one quoted spot rate.
type FxQuote struct {
	Pair currency.Pair
	Rate float64
}

// VolQuote is one quoted Black volatility. A zero strike quotes a
// smileless level; a pair quoted with a single row assembles into a
// flat surface.
type VolQuote struct {
	Pair   currency.Pair
	Label  string
	Strike float64
	Vol    float64
}

// resolveTenor turns a tenor label into a year fraction from the
// valuation date.
func resolveTenor(cal calendar.CalendarID, valuationDate time.Time, label string) (float64, error) {
	end, err := calendar.AddTenor(cal, valuationDate, label)
	if err != nil {
		return 0, err
	}
	t := daycount.YearFraction(valuationDate, end, daycount.Act365Fixed)
	if t <= 0 {
		return 0, fmt.Errorf("tenor %q resolves to non-positive time %v", label, t)
	}
	return t, nil
}

// AssembleCurves groups the nodes by curve name and builds one discount
// curve per currency: a constant curve from a single node, an
// interpolated curve otherwise.
func AssembleCurves(nodes []CurveNode, valuationDate time.Time) (map[currency.Currency]rates.Curve, error) {
	type group struct {
		ccy   currency.Currency
		times []float64
		zeros []float64
	}
	groups := make(map[string]*group)
	var order []string
	for _, node := range nodes {
		if node.CurveName == "" || node.Currency == "" {
			return nil, fmt.Errorf("AssembleCurves: node %+v is missing curve name or currency", node)
		}
		t, err := resolveTenor(calendar.ForCurrency(node.Currency), valuationDate, node.Label)
		if err != nil {
			return nil, fmt.Errorf("AssembleCurves: curve %s: %w", node.CurveName, err)
		}
		g, ok := groups[node.CurveName]
		if !ok {
			g = &group{ccy: node.Currency}
			groups[node.CurveName] = g
			order = append(order, node.CurveName)
		}
		if g.ccy != node.Currency {
			return nil, fmt.Errorf("AssembleCurves: curve %s mixes currencies %s and %s",
				node.CurveName, g.ccy, node.Currency)
		}
		g.times = append(g.times, t)
		g.zeros = append(g.zeros, node.Zero)
	}

	curves := make(map[currency.Currency]rates.Curve, len(groups))
	for _, name := range order {
		g := groups[name]
		if _, exists := curves[g.ccy]; exists {
			return nil, fmt.Errorf("AssembleCurves: duplicate discount curve for %s", g.ccy)
		}
		if len(g.times) == 1 {
			curves[g.ccy] = rates.NewConstantCurve(name, g.zeros[0])
			continue
		}
		sort.Sort(&nodeSorter{times: g.times, zeros: g.zeros})
		curve, err := rates.NewInterpolatedCurve(name, g.times, g.zeros)
		if err != nil {
			return nil, fmt.Errorf("AssembleCurves: curve %s: %w", name, err)
		}
		curves[g.ccy] = curve
	}
	return curves, nil
}

// nodeSorter sorts curve nodes by time keeping rates aligned.
type nodeSorter struct {
	times []float64
	zeros []float64
}

func (s *nodeSorter) Len() int           { return len(s.times) }
func (s *nodeSorter) Less(i, j int) bool { return s.times[i] < s.times[j] }
func (s *nodeSorter) Swap(i, j int) {
	s.times[i], s.times[j] = s.times[j], s.times[i]
	s.zeros[i], s.zeros[j] = s.zeros[j], s.zeros[i]
}

// AssembleFxRates builds the spot map, rejecting duplicate pairs.
func AssembleFxRates(quotes []FxQuote) (map[currency.Pair]float64, error) {
	fx := make(map[currency.Pair]float64, len(quotes))
	for _, q := range quotes {
		if _, dup := fx[q.Pair]; dup {
			return nil, fmt.Errorf("AssembleFxRates: duplicate rate for %s", q.Pair)
		}
		if q.Rate <= 0 {
			return nil, fmt.Errorf("AssembleFxRates: non-positive rate %v for %s", q.Rate, q.Pair)
		}
		fx[q.Pair] = q.Rate
	}
	return fx, nil
}

// AssembleSurfaces builds one volatility surface per quoted pair: a
// flat surface from a single quote, a smile surface otherwise.
func AssembleSurfaces(quotes []VolQuote, valuationTime time.Time) (map[currency.Pair]vol.Surface, error) {
	byPair := make(map[currency.Pair][]VolQuote)
	var order []currency.Pair
	for _, q := range quotes {
		if _, ok := byPair[q.Pair]; !ok {
			order = append(order, q.Pair)
		}
		byPair[q.Pair] = append(byPair[q.Pair], q)
	}

	surfaces := make(map[currency.Pair]vol.Surface, len(byPair))
	for _, pair := range order {
		pairQuotes := byPair[pair]
		if len(pairQuotes) == 1 {
			surface, err := vol.NewFlatSurface(pair, valuationTime, pairQuotes[0].Vol)
			if err != nil {
				return nil, fmt.Errorf("AssembleSurfaces: %s: %w", pair, err)
			}
			surfaces[pair] = surface
			continue
		}
		surface, err := assembleSmile(pair, valuationTime, pairQuotes)
		if err != nil {
			return nil, fmt.Errorf("AssembleSurfaces: %s: %w", pair, err)
		}
		surfaces[pair] = surface
	}
	return surfaces, nil
}

func assembleSmile(pair currency.Pair, valuationTime time.Time, quotes []VolQuote) (vol.Surface, error) {
	cal := calendar.ForPair(pair)
	byTime := make(map[float64]*vol.SmileTerm)
	var times []float64
	for _, q := range quotes {
		t, err := resolveTenor(cal, valuationTime, q.Label)
		if err != nil {
			return nil, err
		}
		if q.Strike <= 0 {
			return nil, fmt.Errorf("strike must be positive in smile quotes, got %v at %s", q.Strike, q.Label)
		}
		term, ok := byTime[t]
		if !ok {
			term = &vol.SmileTerm{Time: t}
			byTime[t] = term
			times = append(times, t)
		}
		term.Strikes = append(term.Strikes, q.Strike)
		term.Vols = append(term.Vols, q.Vol)
	}
	sort.Float64s(times)
	terms := make([]vol.SmileTerm, len(times))
	for i, t := range times {
		term := byTime[t]
		sort.Sort(&smileSorter{strikes: term.Strikes, vols: term.Vols})
		terms[i] = *term
	}
	return vol.NewSmileSurface(pair, valuationTime, terms)
}

// smileSorter sorts one term's quotes by strike keeping vols aligned.
type smileSorter struct {
	strikes []float64
	vols    []float64
}

func (s *smileSorter) Len() int           { return len(s.strikes) }
func (s *smileSorter) Less(i, j int) bool { return s.strikes[i] < s.strikes[j] }
func (s *smileSorter) Swap(i, j int) {
	s.strikes[i], s.strikes[j] = s.strikes[j], s.strikes[i]
	s.vols[i], s.vols[j] = s.vols[j], s.vols[i]
}

// AssembleMarket builds the full calc market from quoted records.
func AssembleMarket(valuationDate time.Time, nodes []CurveNode, fx []FxQuote, vols []VolQuote) (calc.Market, error) {
	curves, err := AssembleCurves(nodes, valuationDate)
	if err != nil {
		return calc.Market{}, err
	}
	fxRates, err := AssembleFxRates(fx)
	if err != nil {
		return calc.Market{}, err
	}
	surfaces, err := AssembleSurfaces(vols, valuationDate)
	if err != nil {
		return calc.Market{}, err
	}
	provider, err := rates.NewProvider(rates.ProviderParams{
		ValuationDate:  valuationDate,
		FxRates:        fxRates,
		DiscountCurves: curves,
	})
	if err != nil {
		return calc.Market{}, err
	}
	return calc.Market{Rates: provider, Vols: surfaces}, nil
}
