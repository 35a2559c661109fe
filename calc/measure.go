// Package calc runs pricing measures over portfolios of FX option
// trades on a bounded worker pool. Each (trade, measure) cell is
// computed independently; a failing cell carries its error in the
// result grid without aborting the batch.
package calc

import (
	"fmt"

	"github.com/meenmo/fxolib/currency"
	"github.com/meenmo/fxolib/fxopt"
	"github.com/meenmo/fxolib/rates"
	"github.com/meenmo/fxolib/vol"
)

// Measure identifies one calculated column.
type Measure string

const (
	// MeasurePresentValue is the trade present value per currency,
	// premium included.
	MeasurePresentValue Measure = "PresentValue"
	// MeasureUnitPrice is the product price per unit notional.
	MeasureUnitPrice Measure = "UnitPrice"
	// MeasureCurrencyExposure is the replicating decomposition into
	// base and counter currency positions.
	MeasureCurrencyExposure Measure = "CurrencyExposure"
	// MeasurePv01Sum is the parallel rates sensitivity: all curve
	// parameter bumps summed.
	MeasurePv01Sum Measure = "Pv01Sum"
	// MeasurePv01Bucketed is the rates sensitivity per curve parameter.
	MeasurePv01Bucketed Measure = "Pv01Bucketed"
	// MeasureCurrentCash is the premium settling on the valuation date.
	MeasureCurrentCash Measure = "CurrentCash"
)

func (m Measure) valid() bool {
	switch m {
	case MeasurePresentValue, MeasureUnitPrice, MeasureCurrencyExposure,
		MeasurePv01Sum, MeasurePv01Bucketed, MeasureCurrentCash:
		return true
	}
	return false
}

// ParseMeasure resolves a measure name.
func ParseMeasure(s string) (Measure, error) {
	m := Measure(s)
	if !m.valid() {
		return "", fmt.Errorf("calc: unknown measure %q", s)
	}
	return m, nil
}

// Method selects the pricing engine for a row.
type Method string

const (
	// MethodTrinomialTree prices on the implied trinomial tree. It is
	// the default and covers every product variant.
	MethodTrinomialTree Method = "TrinomialTree"
	// MethodBlack prices with the closed-form Black formula. Vanillas
	// only; other variants fail per cell.
	MethodBlack Method = "Black"
)

// ParseMethod resolves a method name; empty selects the tree.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodTrinomialTree, Method(""):
		return MethodTrinomialTree, nil
	case MethodBlack:
		return MethodBlack, nil
	}
	return "", fmt.Errorf("calc: unknown method %q", s)
}

// Row is one portfolio line: an identifier, the trade and the engine
// that prices it.
type Row struct {
	Id     string
	Trade  fxopt.Trade
	Method Method
}

// Market bundles the rate environment with one volatility surface per
// currency pair.
type Market struct {
	Rates *rates.Provider
	Vols  map[currency.Pair]vol.Surface
}

// Surface returns the surface quoted for the pair.
func (m Market) Surface(pair currency.Pair) (vol.Surface, error) {
	surface, ok := m.Vols[pair]
	if !ok {
		return nil, fmt.Errorf("calc: no volatility surface for %s", pair)
	}
	return surface, nil
}
