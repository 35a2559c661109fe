package fxopt

import (
	"fmt"
	"time"

	"github.com/meenmo/fxolib/currency"
	"github.com/meenmo/fxolib/daycount"
	"github.com/meenmo/fxolib/fxopt/config"
	"github.com/meenmo/fxolib/rates"
	"github.com/meenmo/fxolib/vol"
)

// TradePricer prices option trades: the product measures plus the
// premium payment. Premiums are discounted on their own currency's
// curve with an ACT/365F year fraction; a premium settling before the
// valuation date has no value, one settling on it is current cash.
type TradePricer struct {
	pricer ProductPricer
}

// NewTradePricer builds a trade pricer delegating product measures to
// the given engine.
func NewTradePricer(pricer ProductPricer) (*TradePricer, error) {
	if pricer == nil {
		return nil, fmt.Errorf("NewTradePricer: product pricer is required")
	}
	return &TradePricer{pricer: pricer}, nil
}

// PresentValue returns the product present value and the discounted
// premium, merged per currency.
func (p *TradePricer) PresentValue(trade Trade, provider *rates.Provider, vols vol.Surface) (currency.MultiAmount, error) {
	productPV, err := p.pricer.PresentValue(trade.Product(), provider, vols)
	if err != nil {
		return currency.MultiAmount{}, err
	}
	premiumPV, err := premiumPresentValue(trade, provider)
	if err != nil {
		return currency.MultiAmount{}, err
	}
	return currency.NewMultiAmount(productPV, premiumPV), nil
}

// CurrencyExposure returns the product's replicating decomposition with
// the discounted premium merged in.
func (p *TradePricer) CurrencyExposure(trade Trade, provider *rates.Provider, vols vol.Surface) (currency.MultiAmount, error) {
	exposure, err := p.pricer.CurrencyExposure(trade.Product(), provider, vols)
	if err != nil {
		return currency.MultiAmount{}, err
	}
	premiumPV, err := premiumPresentValue(trade, provider)
	if err != nil {
		return currency.MultiAmount{}, err
	}
	return exposure.Plus(premiumPV), nil
}

// CurrentCash returns the premium amount when it settles on the
// valuation date, otherwise zero in the premium currency.
func (p *TradePricer) CurrentCash(trade Trade, valuationDate time.Time) currency.Amount {
	premium := trade.Premium()
	if dateOf(premium.Date).Equal(dateOf(valuationDate)) {
		return premium.Amount
	}
	return currency.NewAmount(premium.Amount.Currency, 0)
}

// PresentValueSensitivityRates returns the trade's bump-and-reprice
// curve sensitivities: the product sensitivities plus the premium
// discounting sensitivity, merged into the premium currency's entry
// when the value currencies align and appended as its own entry
// otherwise.
func (p *TradePricer) PresentValueSensitivityRates(trade Trade, provider *rates.Provider, vols vol.Surface) (rates.ParameterSensitivities, error) {
	productSens, err := p.pricer.PresentValueSensitivityRates(trade.Product(), provider, vols)
	if err != nil {
		return rates.ParameterSensitivities{}, err
	}
	premium := trade.Premium()
	if dateOf(premium.Date).Before(dateOf(provider.ValuationDate())) {
		return productSens, nil
	}
	curve, err := provider.DiscountCurve(premium.Amount.Currency)
	if err != nil {
		return rates.ParameterSensitivities{}, err
	}
	basePV, err := premiumPresentValue(trade, provider)
	if err != nil {
		return rates.ParameterSensitivities{}, err
	}
	shift := config.GetConfig().CurveShift
	values := make([]float64, curve.ParameterCount())
	for k := range values {
		bumped := curve.WithParameter(k, curve.Parameter(k)+shift)
		bumpedPV, err := premiumPresentValue(trade, provider.WithDiscountCurve(premium.Amount.Currency, bumped))
		if err != nil {
			return rates.ParameterSensitivities{}, err
		}
		values[k] = (bumpedPV.Value - basePV.Value) / shift
	}
	premiumSens := rates.ParameterSensitivity{
		CurveName:     curve.Name(),
		CurveCurrency: premium.Amount.Currency,
		Currency:      premium.Amount.Currency,
		Values:        values,
	}

	merged := make([]rates.ParameterSensitivity, 0, 3)
	added := false
	for _, s := range productSens.Sensitivities() {
		if !added && s.CurveCurrency == premiumSens.CurveCurrency && s.Currency == premiumSens.Currency {
			combined := append([]float64(nil), s.Values...)
			for k := range combined {
				combined[k] += premiumSens.Values[k]
			}
			s.Values = combined
			added = true
		}
		merged = append(merged, s)
	}
	if !added {
		merged = append(merged, premiumSens)
	}
	return rates.NewParameterSensitivities(merged...), nil
}

// premiumPresentValue discounts the premium payment, zero once it has
// settled.
func premiumPresentValue(trade Trade, provider *rates.Provider) (currency.Amount, error) {
	premium := trade.Premium()
	if dateOf(premium.Date).Before(dateOf(provider.ValuationDate())) {
		return currency.NewAmount(premium.Amount.Currency, 0), nil
	}
	df, err := provider.DiscountFactors(premium.Amount.Currency)
	if err != nil {
		return currency.Amount{}, err
	}
	t := daycount.YearFraction(provider.ValuationDate(), premium.Date, daycount.Act365Fixed)
	return premium.Amount.MultipliedBy(df.DiscountFactor(t)), nil
}
