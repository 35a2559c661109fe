package fxopt

import (
	"fmt"
	"math"

	"github.com/meenmo/fxolib/currency"
	"github.com/meenmo/fxolib/fxopt/config"
	"github.com/meenmo/fxolib/fxopt/tree"
	"github.com/meenmo/fxolib/rates"
	"github.com/meenmo/fxolib/vol"
)

// TreePricer prices resolved FX options on the implied trinomial tree.
// It is stateless apart from its calibrator and safe for concurrent
// use; every measure is a pure function of the option and the market
// data snapshots.
//
// Each measure comes in two forms: one that calibrates a fresh lattice
// and a WithData form that reuses lattice data the caller calibrated
// once for several measures. Curve sensitivities always recalibrate,
// because the lattice drift and discounting depend on the bumped
// curves.
type TreePricer struct {
	calibrator *tree.Calibrator
}

// NewTreePricer builds a pricer around the given calibrator.
func NewTreePricer(calibrator *tree.Calibrator) (*TreePricer, error) {
	if calibrator == nil {
		return nil, fmt.Errorf("NewTreePricer: calibrator is required")
	}
	return &TreePricer{calibrator: calibrator}, nil
}

// NewDefaultTreePricer builds a pricer with the configured default step
// count.
func NewDefaultTreePricer() (*TreePricer, error) {
	calibrator, err := tree.NewCalibrator(config.GetConfig().DefaultTreeSteps)
	if err != nil {
		return nil, fmt.Errorf("NewDefaultTreePricer: %w", err)
	}
	return NewTreePricer(calibrator)
}

// NumberOfSteps returns the lattice step count the pricer calibrates
// with.
func (p *TreePricer) NumberOfSteps() int { return p.calibrator.NumberOfSteps() }

// Calibrate builds lattice data for the option, for reuse across the
// WithData measures.
func (p *TreePricer) Calibrate(option ResolvedOption, provider *rates.Provider, vols vol.Surface) (*tree.Data, error) {
	if err := validateProviders(provider, vols); err != nil {
		return nil, err
	}
	return p.calibrator.Calibrate(option.Expiry(), option.Pair(), provider, vols)
}

// Price calibrates a lattice and returns the option price per unit
// notional, in counter currency per unit of base notional for vanilla
// and barrier options and per unit of payment for digitals.
func (p *TreePricer) Price(option ResolvedOption, provider *rates.Provider, vols vol.Surface) (float64, error) {
	data, err := p.Calibrate(option, provider, vols)
	if err != nil {
		return 0, err
	}
	return p.PriceWithData(option, provider, vols, data)
}

// PriceWithData prices the option on previously calibrated lattice
// data.
func (p *TreePricer) PriceWithData(option ResolvedOption, provider *rates.Provider, vols vol.Surface, data *tree.Data) (float64, error) {
	vd, err := p.priceDerivatives(option, provider, vols, data, false)
	if err != nil {
		return 0, err
	}
	return vd.Value, nil
}

// PriceDerivatives calibrates a lattice and returns the unit price
// together with its derivative with respect to spot.
func (p *TreePricer) PriceDerivatives(option ResolvedOption, provider *rates.Provider, vols vol.Surface) (tree.ValueDerivatives, error) {
	data, err := p.Calibrate(option, provider, vols)
	if err != nil {
		return tree.ValueDerivatives{}, err
	}
	return p.PriceDerivativesWithData(option, provider, vols, data)
}

// PriceDerivativesWithData computes the unit price and spot derivative
// on previously calibrated lattice data.
func (p *TreePricer) PriceDerivativesWithData(option ResolvedOption, provider *rates.Provider, vols vol.Surface, data *tree.Data) (tree.ValueDerivatives, error) {
	return p.priceDerivatives(option, provider, vols, data, true)
}

// PresentValue calibrates a lattice and returns the option present
// value, the unit price scaled by the signed notional.
func (p *TreePricer) PresentValue(option ResolvedOption, provider *rates.Provider, vols vol.Surface) (currency.Amount, error) {
	data, err := p.Calibrate(option, provider, vols)
	if err != nil {
		return currency.Amount{}, err
	}
	return p.PresentValueWithData(option, provider, vols, data)
}

// PresentValueWithData computes the present value on previously
// calibrated lattice data.
func (p *TreePricer) PresentValueWithData(option ResolvedOption, provider *rates.Provider, vols vol.Surface, data *tree.Data) (currency.Amount, error) {
	vd, err := p.priceDerivatives(option, provider, vols, data, false)
	if err != nil {
		return currency.Amount{}, err
	}
	return option.SignedNotional().MultipliedBy(vd.Value), nil
}

// CurrencyExposure calibrates a lattice and decomposes the present
// value into a replicating position: delta units of base currency plus
// a counter currency cash leg.
func (p *TreePricer) CurrencyExposure(option ResolvedOption, provider *rates.Provider, vols vol.Surface) (currency.MultiAmount, error) {
	data, err := p.Calibrate(option, provider, vols)
	if err != nil {
		return currency.MultiAmount{}, err
	}
	return p.CurrencyExposureWithData(option, provider, vols, data)
}

// CurrencyExposureWithData computes the currency exposure on
// previously calibrated lattice data.
func (p *TreePricer) CurrencyExposureWithData(option ResolvedOption, provider *rates.Provider, vols vol.Surface, data *tree.Data) (currency.MultiAmount, error) {
	vd, err := p.priceDerivatives(option, provider, vols, data, true)
	if err != nil {
		return currency.MultiAmount{}, err
	}
	return exposureLegs(option, data.Spot(), vd.Value, vd.Derivatives[0]), nil
}

// PresentValueSensitivityRates computes the sensitivity of the present
// value to each parameter of the pair's two discount curves by
// bump-and-reprice: every bump shifts one parameter by the configured
// amount and recalibrates the whole lattice, so the sensitivity sees
// the bump's effect on drift and local volatility fitting as well as on
// discounting. Bumps run concurrently, one goroutine per parameter.
func (p *TreePricer) PresentValueSensitivityRates(option ResolvedOption, provider *rates.Provider, vols vol.Surface) (rates.ParameterSensitivities, error) {
	if err := validateProviders(provider, vols); err != nil {
		return rates.ParameterSensitivities{}, err
	}
	return curveSensitivities(option.Pair(), provider, func(bumped *rates.Provider) (currency.Amount, error) {
		return p.PresentValue(option, bumped, vols)
	})
}

// priceDerivatives validates the inputs, maps the option variant to its
// payoff function and runs the backward induction.
func (p *TreePricer) priceDerivatives(option ResolvedOption, provider *rates.Provider, vols vol.Surface, data *tree.Data, computeDerivative bool) (tree.ValueDerivatives, error) {
	if err := validateProviders(provider, vols); err != nil {
		return tree.ValueDerivatives{}, err
	}
	if err := validateData(option, provider, vols, data); err != nil {
		return tree.ValueDerivatives{}, err
	}
	switch opt := option.(type) {
	case VanillaOption:
		return p.priceVanilla(opt, data, computeDerivative)
	case DigitalOption:
		return p.priceDigital(opt, data, computeDerivative)
	case SingleBarrierOption:
		return p.priceBarrier(opt, provider, data, computeDerivative)
	default:
		return tree.ValueDerivatives{}, &UnsupportedVariantError{Variant: fmt.Sprintf("%T", option)}
	}
}

func (p *TreePricer) priceVanilla(option VanillaOption, data *tree.Data, computeDerivative bool) (tree.ValueDerivatives, error) {
	fn, err := tree.NewVanillaFunction(option.Strike(), data.TimeToExpiry(), data.NumberOfSteps(), option.PutCall().IsCall())
	if err != nil {
		return tree.ValueDerivatives{}, err
	}
	return run(fn, data, computeDerivative)
}

func (p *TreePricer) priceDigital(option DigitalOption, data *tree.Data, computeDerivative bool) (tree.ValueDerivatives, error) {
	switch option.Style() {
	case European:
		fn, err := tree.NewDigitalFunction(option.Level(), data.TimeToExpiry(), data.NumberOfSteps(), option.Direction() == Up)
		if err != nil {
			return tree.ValueDerivatives{}, err
		}
		return run(fn, data, computeDerivative)
	case OneTouch:
		fn, err := oneTouchFunction(option, data)
		if err != nil {
			return tree.ValueDerivatives{}, err
		}
		return run(fn, data, computeDerivative)
	default:
		return tree.ValueDerivatives{}, &UnsupportedVariantError{Variant: fmt.Sprintf("digital style %q", option.Style())}
	}
}

// oneTouchFunction reduces a one-touch payment to a barrier knockout
// whose vanilla leg cannot pay: the strike is driven out of reach, so
// only the unit rebate stream at the touch level remains, paid on
// touch.
func oneTouchFunction(option DigitalOption, data *tree.Data) (*tree.BarrierKnockoutFunction, error) {
	n := data.NumberOfSteps()
	rebates := make([]float64, n+1)
	for i := range rebates {
		rebates[i] = 1
	}
	if option.Direction() == Up {
		return tree.NewBarrierKnockoutFunction(math.MaxFloat64, data.TimeToExpiry(), n, true,
			tree.BarrierUp, option.Level(), rebates)
	}
	return tree.NewBarrierKnockoutFunction(math.SmallestNonzeroFloat64, data.TimeToExpiry(), n, false,
		tree.BarrierDown, option.Level(), rebates)
}

func (p *TreePricer) priceBarrier(option SingleBarrierOption, provider *rates.Provider, data *tree.Data, computeDerivative bool) (tree.ValueDerivatives, error) {
	vanilla := option.Underlying()
	pair := option.Pair()
	n := data.NumberOfSteps()
	timeToExpiry := data.TimeToExpiry()
	level := option.Barrier().Level()
	notional := math.Abs(vanilla.Underlying().BaseAmount().Value)
	barrierType := tree.BarrierDown
	if option.Barrier().Direction() == Up {
		barrierType = tree.BarrierUp
	}
	dfBase, err := provider.DiscountFactors(pair.Base())
	if err != nil {
		return tree.ValueDerivatives{}, err
	}
	dfCounter, err := provider.DiscountFactors(pair.Counter())
	if err != nil {
		return tree.ValueDerivatives{}, err
	}

	switch option.Barrier().KnockType() {
	case KnockOut:
		// A knock-out rebate pays on touch. A base currency rebate
		// converts at the barrier level, where the touch happens.
		rebates := make([]float64, n+1)
		if rebate, ok := option.Rebate(); ok {
			perUnit := rebate.Value / notional
			if rebate.Currency == pair.Base() {
				perUnit *= level
			}
			for i := range rebates {
				rebates[i] = perUnit
			}
		}
		fn, err := tree.NewBarrierKnockoutFunction(vanilla.Strike(), timeToExpiry, n,
			vanilla.PutCall().IsCall(), barrierType, level, rebates)
		if err != nil {
			return tree.ValueDerivatives{}, err
		}
		return run(fn, data, computeDerivative)

	case KnockIn:
		// In-out parity: knock-in = vanilla + rebate paid at expiry
		// − knockout whose rebate stream repays that expiry rebate on
		// touch. The middle term prices the rebate unconditionally; the
		// knockout leg takes it back on the paths that knock in.
		vanillaFn, err := tree.NewVanillaFunction(vanilla.Strike(), timeToExpiry, n, vanilla.PutCall().IsCall())
		if err != nil {
			return tree.ValueDerivatives{}, err
		}
		vanillaVD, err := run(vanillaFn, data, computeDerivative)
		if err != nil {
			return tree.ValueDerivatives{}, err
		}

		rebates := make([]float64, n+1)
		expiryLeg := 0.0
		expiryLegDerivative := 0.0
		if rebate, ok := option.Rebate(); ok {
			perUnit := rebate.Value / notional
			if rebate.Currency == pair.Counter() {
				// One counter unit at expiry is worth its forward
				// discount factor at the touch time.
				dfExpiry := dfCounter.DiscountFactor(timeToExpiry)
				for i := range rebates {
					rebates[i] = perUnit * dfExpiry / dfCounter.DiscountFactor(data.Time(i))
				}
				expiryLeg = perUnit * dfExpiry
			} else {
				// One base unit at expiry is worth spot times the base
				// forward discount factor, so the expiry leg carries
				// spot sensitivity.
				dfExpiry := dfBase.DiscountFactor(timeToExpiry)
				for i := range rebates {
					rebates[i] = perUnit * level * dfExpiry / dfBase.DiscountFactor(data.Time(i))
				}
				expiryLeg = perUnit * data.Spot() * dfExpiry
				expiryLegDerivative = perUnit * dfExpiry
			}
		}
		koFn, err := tree.NewBarrierKnockoutFunction(vanilla.Strike(), timeToExpiry, n,
			vanilla.PutCall().IsCall(), barrierType, level, rebates)
		if err != nil {
			return tree.ValueDerivatives{}, err
		}
		koVD, err := run(koFn, data, computeDerivative)
		if err != nil {
			return tree.ValueDerivatives{}, err
		}

		result := tree.ValueDerivatives{Value: vanillaVD.Value + expiryLeg - koVD.Value}
		if computeDerivative {
			result.Derivatives = []float64{vanillaVD.Derivatives[0] + expiryLegDerivative - koVD.Derivatives[0]}
		}
		return result, nil

	default:
		return tree.ValueDerivatives{}, &UnsupportedVariantError{Variant: fmt.Sprintf("knock type %q", option.Barrier().KnockType())}
	}
}

func run(fn tree.OptionFunction, data *tree.Data, computeDerivative bool) (tree.ValueDerivatives, error) {
	if computeDerivative {
		return tree.OptionPriceAdjoint(fn, data)
	}
	value, err := tree.OptionPrice(fn, data)
	if err != nil {
		return tree.ValueDerivatives{}, err
	}
	return tree.ValueDerivatives{Value: value}, nil
}

// validateProviders checks that the rate and volatility snapshots were
// taken on the same valuation date.
func validateProviders(provider *rates.Provider, vols vol.Surface) error {
	if provider == nil {
		return fmt.Errorf("tree pricer: rates provider is required")
	}
	if vols == nil {
		return fmt.Errorf("tree pricer: volatility surface is required")
	}
	rd := dateOf(provider.ValuationDate())
	vd := dateOf(vols.ValuationDateTime())
	if !rd.Equal(vd) {
		return &ConsistencyError{Reason: fmt.Sprintf("rates valued on %s but volatilities on %s",
			rd.Format("2006-01-02"), vd.Format("2006-01-02"))}
	}
	return nil
}

// validateData re-checks the lattice invariants at use time: cached
// data may have been calibrated for another option or an older market
// snapshot.
func validateData(option ResolvedOption, provider *rates.Provider, vols vol.Surface, data *tree.Data) error {
	if data == nil {
		return &StaleDataError{Reason: "lattice data is nil"}
	}
	cfg := config.GetConfig()
	timeToExpiry := vols.RelativeTime(option.Expiry())
	if math.Abs(data.TimeToExpiry()-timeToExpiry) > cfg.FuzzyTolerance {
		return &StaleDataError{Reason: fmt.Sprintf("lattice expiry %v does not match option expiry %v",
			data.TimeToExpiry(), timeToExpiry)}
	}
	spot, err := provider.FxRate(option.Pair())
	if err != nil {
		return err
	}
	if math.Abs(data.Spot()-spot) > cfg.FuzzyTolerance*math.Max(1, spot) {
		return &StaleDataError{Reason: fmt.Sprintf("lattice spot %v does not match market spot %v",
			data.Spot(), spot)}
	}
	return nil
}
