package fxopt

import (
	"fmt"
	"sync"

	"github.com/meenmo/fxolib/currency"
	"github.com/meenmo/fxolib/fxopt/config"
	"github.com/meenmo/fxolib/rates"
	"github.com/meenmo/fxolib/vol"
)

// ProductPricer is the product-level measure set shared by the pricing
// engines. TreePricer serves every resolved variant; BlackPricer serves
// vanillas and reports other variants as unsupported.
type ProductPricer interface {
	// Price returns the option price per unit notional in counter
	// currency.
	Price(option ResolvedOption, provider *rates.Provider, vols vol.Surface) (float64, error)
	// PresentValue returns the unit price scaled by the signed
	// notional.
	PresentValue(option ResolvedOption, provider *rates.Provider, vols vol.Surface) (currency.Amount, error)
	// CurrencyExposure decomposes the present value into a base
	// currency position and a counter currency cash leg.
	CurrencyExposure(option ResolvedOption, provider *rates.Provider, vols vol.Surface) (currency.MultiAmount, error)
	// PresentValueSensitivityRates bumps each parameter of the pair's
	// discount curves and reprices.
	PresentValueSensitivityRates(option ResolvedOption, provider *rates.Provider, vols vol.Surface) (rates.ParameterSensitivities, error)
}

// exposureLegs assembles the replicating decomposition from a unit
// price and spot derivative: delta units of base currency and the
// remaining counter currency cash.
func exposureLegs(option ResolvedOption, spot, value, delta float64) currency.MultiAmount {
	notional := option.SignedNotional()
	counterLeg := currency.NewAmount(notional.Currency, (value-delta*spot)*notional.Value)
	baseLeg := currency.NewAmount(option.Pair().Base(), delta*notional.Value)
	return currency.NewMultiAmount(counterLeg, baseLeg)
}

// curveSensitivities runs bump-and-reprice over every parameter of the
// pair's two discount curves, one goroutine per parameter. reprice is
// called once per bumped provider and must be safe for concurrent use.
func curveSensitivities(pair currency.Pair, provider *rates.Provider,
	reprice func(*rates.Provider) (currency.Amount, error)) (rates.ParameterSensitivities, error) {
	basePV, err := reprice(provider)
	if err != nil {
		return rates.ParameterSensitivities{}, err
	}
	shift := config.GetConfig().CurveShift

	var sens []rates.ParameterSensitivity
	for _, ccy := range []currency.Currency{pair.Base(), pair.Counter()} {
		curve, err := provider.DiscountCurve(ccy)
		if err != nil {
			return rates.ParameterSensitivities{}, err
		}
		count := curve.ParameterCount()
		values := make([]float64, count)
		errs := make([]error, count)
		var wg sync.WaitGroup
		for k := 0; k < count; k++ {
			wg.Add(1)
			go func(k int) {
				defer wg.Done()
				bumped := curve.WithParameter(k, curve.Parameter(k)+shift)
				pv, err := reprice(provider.WithDiscountCurve(ccy, bumped))
				if err != nil {
					errs[k] = err
					return
				}
				values[k] = (pv.Value - basePV.Value) / shift
			}(k)
		}
		wg.Wait()
		for _, err := range errs {
			if err != nil {
				return rates.ParameterSensitivities{}, fmt.Errorf("curve sensitivities: %w", err)
			}
		}
		sens = append(sens, rates.ParameterSensitivity{
			CurveName:     curve.Name(),
			CurveCurrency: ccy,
			Currency:      basePV.Currency,
			Values:        values,
		})
	}
	return rates.NewParameterSensitivities(sens...), nil
}
