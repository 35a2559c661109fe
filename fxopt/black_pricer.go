package fxopt

import (
	"fmt"

	"github.com/meenmo/fxolib/black"
	"github.com/meenmo/fxolib/currency"
	"github.com/meenmo/fxolib/rates"
	"github.com/meenmo/fxolib/vol"
)

// BlackPricer prices vanilla FX options with the closed-form Black
// formula. It serves as the non-tree measure path for vanillas and as a
// convergence cross-check on the tree pricer; any other variant is
// reported as unsupported.
type BlackPricer struct{}

// NewBlackPricer returns a stateless Black pricer.
func NewBlackPricer() *BlackPricer { return &BlackPricer{} }

// Price returns the option price per unit of base notional in counter
// currency. An option at or past expiry prices to zero.
func (p *BlackPricer) Price(option ResolvedOption, provider *rates.Provider, vols vol.Surface) (float64, error) {
	price, _, _, err := p.priceDelta(option, provider, vols)
	return price, err
}

// PresentValue returns the price scaled by the signed notional.
func (p *BlackPricer) PresentValue(option ResolvedOption, provider *rates.Provider, vols vol.Surface) (currency.Amount, error) {
	price, _, _, err := p.priceDelta(option, provider, vols)
	if err != nil {
		return currency.Amount{}, err
	}
	return option.SignedNotional().MultipliedBy(price), nil
}

// SpotDelta returns the derivative of the unit price with respect to
// spot: the forward delta carried to spot through the base currency
// discount factor.
func (p *BlackPricer) SpotDelta(option ResolvedOption, provider *rates.Provider, vols vol.Surface) (float64, error) {
	_, delta, _, err := p.priceDelta(option, provider, vols)
	return delta, err
}

// CurrencyExposure decomposes the present value into delta units of
// base currency plus a counter currency cash leg.
func (p *BlackPricer) CurrencyExposure(option ResolvedOption, provider *rates.Provider, vols vol.Surface) (currency.MultiAmount, error) {
	price, delta, spot, err := p.priceDelta(option, provider, vols)
	if err != nil {
		return currency.MultiAmount{}, err
	}
	return exposureLegs(option, spot, price, delta), nil
}

// PresentValueSensitivityRates computes bump-and-reprice curve
// sensitivities through the closed form.
func (p *BlackPricer) PresentValueSensitivityRates(option ResolvedOption, provider *rates.Provider, vols vol.Surface) (rates.ParameterSensitivities, error) {
	if err := validateProviders(provider, vols); err != nil {
		return rates.ParameterSensitivities{}, err
	}
	if _, ok := option.(VanillaOption); !ok {
		return rates.ParameterSensitivities{}, &UnsupportedVariantError{Variant: fmt.Sprintf("%T", option)}
	}
	return curveSensitivities(option.Pair(), provider, func(bumped *rates.Provider) (currency.Amount, error) {
		return p.PresentValue(option, bumped, vols)
	})
}

func (p *BlackPricer) priceDelta(option ResolvedOption, provider *rates.Provider, vols vol.Surface) (float64, float64, float64, error) {
	if err := validateProviders(provider, vols); err != nil {
		return 0, 0, 0, err
	}
	vanilla, ok := option.(VanillaOption)
	if !ok {
		return 0, 0, 0, &UnsupportedVariantError{Variant: fmt.Sprintf("%T", option)}
	}
	pair := vanilla.Pair()
	spot, err := provider.FxRate(pair)
	if err != nil {
		return 0, 0, 0, err
	}
	timeToExpiry := vols.RelativeTime(vanilla.Expiry())
	if timeToExpiry <= 0 {
		return 0, 0, spot, nil
	}
	dfBase, err := provider.DiscountFactors(pair.Base())
	if err != nil {
		return 0, 0, 0, err
	}
	dfCounter, err := provider.DiscountFactors(pair.Counter())
	if err != nil {
		return 0, 0, 0, err
	}
	baseFactor := dfBase.DiscountFactor(timeToExpiry)
	counterFactor := dfCounter.DiscountFactor(timeToExpiry)
	forward := spot * baseFactor / counterFactor
	sigma, err := vols.Volatility(pair, timeToExpiry, vanilla.Strike(), forward)
	if err != nil {
		return 0, 0, 0, err
	}
	isCall := vanilla.PutCall().IsCall()
	price := black.Price(forward, vanilla.Strike(), timeToExpiry, sigma, counterFactor, isCall)
	delta := black.ForwardDelta(forward, vanilla.Strike(), timeToExpiry, sigma, isCall) * baseFactor
	return price, delta, spot, nil
}
