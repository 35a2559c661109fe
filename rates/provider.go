package rates

import (
	"fmt"
	"time"

	"github.com/meenmo/fxolib/currency"
)

// DiscountFactors couples a currency with its discount curve.
type DiscountFactors struct {
	ccy   currency.Currency
	curve Curve
}

// NewDiscountFactors wraps a curve for a currency.
func NewDiscountFactors(ccy currency.Currency, curve Curve) (DiscountFactors, error) {
	if curve == nil {
		return DiscountFactors{}, fmt.Errorf("NewDiscountFactors: %w for %s", ErrNilCurve, ccy)
	}
	return DiscountFactors{ccy: ccy, curve: curve}, nil
}

// Currency returns the discounted currency.
func (d DiscountFactors) Currency() currency.Currency { return d.ccy }

// Curve returns the underlying zero curve.
func (d DiscountFactors) Curve() Curve { return d.curve }

// DiscountFactor returns the discount factor at year fraction t.
func (d DiscountFactors) DiscountFactor(t float64) float64 {
	return d.curve.DiscountFactor(t)
}

// ZeroRate returns the continuously compounded zero rate at year fraction t.
func (d DiscountFactors) ZeroRate(t float64) float64 {
	return d.curve.ZeroRate(t)
}

// ProviderParams defines the inputs for a market rate environment.
type ProviderParams struct {
	// ValuationDate anchors every year fraction the curves are queried at.
	ValuationDate time.Time

	// FxRates holds spot rates keyed by pair. Inverse lookups are served
	// automatically.
	FxRates map[currency.Pair]float64

	// DiscountCurves holds one zero curve per currency.
	DiscountCurves map[currency.Currency]Curve
}

// Provider is an immutable market rate environment: a valuation date, FX
// spot rates and one discount curve per currency.
type Provider struct {
	valuationDate  time.Time
	fxRates        map[currency.Pair]float64
	discountCurves map[currency.Currency]Curve
}

// NewProvider validates and copies the params into a provider.
func NewProvider(params ProviderParams) (*Provider, error) {
	if params.ValuationDate.IsZero() {
		return nil, fmt.Errorf("NewProvider: ValuationDate is required")
	}
	fx := make(map[currency.Pair]float64, len(params.FxRates))
	for p, r := range params.FxRates {
		if r <= 0 {
			return nil, fmt.Errorf("NewProvider: non-positive fx rate %v for %s", r, p)
		}
		fx[p] = r
	}
	curves := make(map[currency.Currency]Curve, len(params.DiscountCurves))
	for c, cv := range params.DiscountCurves {
		if cv == nil {
			return nil, fmt.Errorf("NewProvider: %w for %s", ErrNilCurve, c)
		}
		curves[c] = cv
	}
	return &Provider{
		valuationDate:  params.ValuationDate,
		fxRates:        fx,
		discountCurves: curves,
	}, nil
}

// ValuationDate returns the environment's valuation date.
func (p *Provider) ValuationDate() time.Time { return p.valuationDate }

// FxRate returns the spot rate for the pair, serving the inverse quote
// when only the reversed pair is held.
func (p *Provider) FxRate(pair currency.Pair) (float64, error) {
	if r, ok := p.fxRates[pair]; ok {
		return r, nil
	}
	if r, ok := p.fxRates[pair.Inverse()]; ok {
		return 1 / r, nil
	}
	return 0, fmt.Errorf("FxRate: %w for %s", ErrNoFxRate, pair)
}

// DiscountCurve returns the curve discounting the currency.
func (p *Provider) DiscountCurve(c currency.Currency) (Curve, error) {
	cv, ok := p.discountCurves[c]
	if !ok {
		return nil, fmt.Errorf("DiscountCurve: %w for %s", ErrNoDiscountCurve, c)
	}
	return cv, nil
}

// DiscountFactors returns the currency's curve wrapped with its currency.
func (p *Provider) DiscountFactors(c currency.Currency) (DiscountFactors, error) {
	cv, err := p.DiscountCurve(c)
	if err != nil {
		return DiscountFactors{}, err
	}
	return DiscountFactors{ccy: c, curve: cv}, nil
}

// WithDiscountCurve returns a copy of the provider with the currency's
// curve replaced. The receiver is unchanged; bump-and-reprice builds one
// copy per bumped parameter.
func (p *Provider) WithDiscountCurve(c currency.Currency, curve Curve) *Provider {
	curves := make(map[currency.Currency]Curve, len(p.discountCurves)+1)
	for k, v := range p.discountCurves {
		curves[k] = v
	}
	curves[c] = curve
	return &Provider{
		valuationDate:  p.valuationDate,
		fxRates:        p.fxRates,
		discountCurves: curves,
	}
}
