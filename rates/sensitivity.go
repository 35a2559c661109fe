package rates

import "github.com/meenmo/fxolib/currency"

// ParameterSensitivity holds the sensitivity of a currency amount to each
// parameter of one discount curve, in value-currency units per unit shift
// of the parameter.
type ParameterSensitivity struct {
	// CurveName identifies the bumped curve.
	CurveName string
	// CurveCurrency is the currency the bumped curve discounts.
	CurveCurrency currency.Currency
	// Currency is the currency of the sensitivity values.
	Currency currency.Currency
	// Values has one entry per curve parameter.
	Values []float64
}

// Total sums the per-parameter sensitivities.
func (s ParameterSensitivity) Total() currency.Amount {
	sum := 0.0
	for _, v := range s.Values {
		sum += v
	}
	return currency.NewAmount(s.Currency, sum)
}

// ParameterSensitivities aggregates sensitivities across curves.
type ParameterSensitivities struct {
	sens []ParameterSensitivity
}

// NewParameterSensitivities bundles per-curve sensitivities.
func NewParameterSensitivities(sens ...ParameterSensitivity) ParameterSensitivities {
	return ParameterSensitivities{sens: append([]ParameterSensitivity(nil), sens...)}
}

// Sensitivities returns the per-curve entries in insertion order.
func (s ParameterSensitivities) Sensitivities() []ParameterSensitivity {
	return append([]ParameterSensitivity(nil), s.sens...)
}

// FindByCurveCurrency returns the entry for the curve discounting c.
func (s ParameterSensitivities) FindByCurveCurrency(c currency.Currency) (ParameterSensitivity, bool) {
	for _, e := range s.sens {
		if e.CurveCurrency == c {
			return e, true
		}
	}
	return ParameterSensitivity{}, false
}

// Total sums every entry into a multi-currency amount keyed by the value
// currency.
func (s ParameterSensitivities) Total() currency.MultiAmount {
	total := currency.NewMultiAmount()
	for _, e := range s.sens {
		total = total.Plus(e.Total())
	}
	return total
}
