package tree_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/meenmo/fxolib/black"
	"github.com/meenmo/fxolib/currency"
	"github.com/meenmo/fxolib/fxopt/tree"
	"github.com/meenmo/fxolib/rates"
	"github.com/meenmo/fxolib/vol"
)

var calibValuation = time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)

func eurusd(t *testing.T) currency.Pair {
	t.Helper()
	pair, err := currency.NewPair(currency.EUR, currency.USD)
	if err != nil {
		t.Fatalf("NewPair: %v", err)
	}
	return pair
}

func constProvider(t *testing.T, pair currency.Pair, spot, baseRate, counterRate float64) *rates.Provider {
	t.Helper()
	provider, err := rates.NewProvider(rates.ProviderParams{
		ValuationDate: calibValuation,
		FxRates:       map[currency.Pair]float64{pair: spot},
		DiscountCurves: map[currency.Currency]rates.Curve{
			pair.Base():    rates.NewConstantCurve(string(pair.Base())+"-Disc", baseRate),
			pair.Counter(): rates.NewConstantCurve(string(pair.Counter())+"-Disc", counterRate),
		},
	})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	return provider
}

func flatVols(t *testing.T, pair currency.Pair, sigma float64) vol.FlatSurface {
	t.Helper()
	surface, err := vol.NewFlatSurface(pair, calibValuation, sigma)
	if err != nil {
		t.Fatalf("NewFlatSurface: %v", err)
	}
	return surface
}

// oneYear is 365 days after the valuation date, an ACT/365F year
// fraction of exactly one.
func oneYear() time.Time { return calibValuation.AddDate(0, 0, 365) }

func TestCalibrateFlatLattice(t *testing.T) {
	t.Parallel()
	pair := eurusd(t)
	provider := constProvider(t, pair, 1.25, 0, 0)
	calibrator, err := tree.NewCalibrator(10)
	if err != nil {
		t.Fatalf("NewCalibrator: %v", err)
	}
	data, err := calibrator.Calibrate(oneYear(), pair, provider, flatVols(t, pair, 0.10))
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}

	if got := data.NumberOfSteps(); got != 10 {
		t.Fatalf("NumberOfSteps mismatch: got %d want 10", got)
	}
	if got := data.Spot(); got != 1.25 {
		t.Fatalf("Spot mismatch: got %v want 1.25", got)
	}
	if got := data.TimeToExpiry(); math.Abs(got-1) > 1e-12 {
		t.Fatalf("TimeToExpiry mismatch: got %v want 1", got)
	}
	for i := 0; i <= 10; i++ {
		if got := data.Time(i); math.Abs(got-float64(i)*0.1) > 1e-12 {
			t.Fatalf("Time(%d) mismatch: got %v want %v", i, got, float64(i)*0.1)
		}
	}

	for i := 0; i < 10; i++ {
		states := data.StateValues(i)
		next := data.StateValues(i + 1)
		for j, s := range states {
			// The lattice recombines: node (i, j) has the same level as
			// node (i+1, j+1).
			if math.Abs(s-next[j+1]) > 1e-12*s {
				t.Fatalf("recombination mismatch at (%d,%d): got %v want %v", i, j, next[j+1], s)
			}
		}
		if got := data.DiscountFactor(i); math.Abs(got-1) > 1e-12 {
			t.Fatalf("DiscountFactor(%d) mismatch: got %v want 1", i, got)
		}
		for j, p := range data.Probabilities(i) {
			sum := p[0] + p[1] + p[2]
			if math.Abs(sum-1) > 1e-9 {
				t.Fatalf("probability sum at (%d,%d): got %v want 1", i, j, sum)
			}
			for k, q := range p {
				if q < 0 || q > 1 {
					t.Fatalf("probability %d at (%d,%d) out of range: %v", k, i, j, q)
				}
			}
			// A flat surface with sqrt(3 dt) spacing sits near the
			// canonical (1/6, 2/3, 1/6) triple.
			if math.Abs(p[0]-1.0/6) > 0.01 || math.Abs(p[1]-2.0/3) > 0.01 || math.Abs(p[2]-1.0/6) > 0.01 {
				t.Fatalf("flat-surface triple at (%d,%d) off canon: %v", i, j, p)
			}
		}
	}
}

func TestCalibrateDiscountFactors(t *testing.T) {
	t.Parallel()
	pair := eurusd(t)
	provider := constProvider(t, pair, 1.25, 0.01, 0.03)
	calibrator, err := tree.NewCalibrator(4)
	if err != nil {
		t.Fatalf("NewCalibrator: %v", err)
	}
	data, err := calibrator.Calibrate(oneYear(), pair, provider, flatVols(t, pair, 0.10))
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	want := math.Exp(-0.03 * 0.25)
	for i := 0; i < 4; i++ {
		if got := data.DiscountFactor(i); math.Abs(got-want) > 1e-12 {
			t.Fatalf("DiscountFactor(%d) mismatch: got %v want %v", i, got, want)
		}
	}
}

func TestCalibrateDeepInTheMoneyCall(t *testing.T) {
	t.Parallel()
	pair := eurusd(t)
	spot := 1.25
	provider := constProvider(t, pair, spot, 0.01, 0.03)
	calibrator, err := tree.NewCalibrator(101)
	if err != nil {
		t.Fatalf("NewCalibrator: %v", err)
	}
	data, err := calibrator.Calibrate(oneYear(), pair, provider, flatVols(t, pair, 0.10))
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	strike := 0.5 * spot
	fn, err := tree.NewVanillaFunction(strike, data.TimeToExpiry(), 101, true)
	if err != nil {
		t.Fatalf("NewVanillaFunction: %v", err)
	}
	got, err := tree.OptionPrice(fn, data)
	if err != nil {
		t.Fatalf("OptionPrice: %v", err)
	}
	// Far in the money the optionality is worthless and the lattice
	// reproduces the discounted forward exactly.
	forward := spot * math.Exp(0.03-0.01)
	want := math.Exp(-0.03) * (forward - strike)
	if math.Abs(got-want) > 1e-9*want {
		t.Fatalf("deep ITM price mismatch: got %v want %v", got, want)
	}
}

func TestDeepInTheMoneyConvergence(t *testing.T) {
	t.Parallel()
	pair := eurusd(t)
	spot := 1.25
	provider := constProvider(t, pair, spot, 0.01, 0.03)
	strike := 0.5 * spot
	forward := spot * math.Exp(0.03-0.01)
	want := math.Exp(-0.03) * (forward - strike)
	for _, steps := range []int{51, 201} {
		calibrator, err := tree.NewCalibrator(steps)
		if err != nil {
			t.Fatalf("NewCalibrator(%d): %v", steps, err)
		}
		data, err := calibrator.Calibrate(oneYear(), pair, provider, flatVols(t, pair, 0.10))
		if err != nil {
			t.Fatalf("Calibrate(%d steps): %v", steps, err)
		}
		fn, err := tree.NewVanillaFunction(strike, data.TimeToExpiry(), steps, true)
		if err != nil {
			t.Fatalf("NewVanillaFunction: %v", err)
		}
		got, err := tree.OptionPrice(fn, data)
		if err != nil {
			t.Fatalf("OptionPrice: %v", err)
		}
		// The intrinsic-value error shrinks at least like 1/n.
		if tol := 0.5 / float64(steps) * want; math.Abs(got-want) > tol {
			t.Fatalf("%d steps: got %v want %v within %v", steps, got, want, tol)
		}
	}
}

func TestCalibrateVanillaMatchesBlack(t *testing.T) {
	t.Parallel()
	pair := eurusd(t)
	provider := constProvider(t, pair, 1.08, 0, 0)
	calibrator, err := tree.NewCalibrator(101)
	if err != nil {
		t.Fatalf("NewCalibrator: %v", err)
	}
	data, err := calibrator.Calibrate(oneYear(), pair, provider, flatVols(t, pair, 0.10))
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	fn, err := tree.NewVanillaFunction(1.10, data.TimeToExpiry(), 101, true)
	if err != nil {
		t.Fatalf("NewVanillaFunction: %v", err)
	}
	got, err := tree.OptionPrice(fn, data)
	if err != nil {
		t.Fatalf("OptionPrice: %v", err)
	}
	want := black.Price(1.08, 1.10, 1, 0.10, 1, true)
	if rel := math.Abs(got-want) / want; rel > 1e-3 {
		t.Fatalf("tree vs Black mismatch: got %v want %v (rel %v)", got, want, rel)
	}
}

func TestAdjointDeltaMatchesBump(t *testing.T) {
	t.Parallel()
	pair := eurusd(t)
	spot := 1.25
	vols := flatVols(t, pair, 0.10)
	expiry := oneYear()

	price := func(s, strike float64, isCall bool) float64 {
		t.Helper()
		calibrator, err := tree.NewCalibrator(101)
		if err != nil {
			t.Fatalf("NewCalibrator: %v", err)
		}
		data, err := calibrator.Calibrate(expiry, pair, constProvider(t, pair, s, 0.01, 0.02), vols)
		if err != nil {
			t.Fatalf("Calibrate: %v", err)
		}
		fn, err := tree.NewVanillaFunction(strike, data.TimeToExpiry(), 101, isCall)
		if err != nil {
			t.Fatalf("NewVanillaFunction: %v", err)
		}
		p, err := tree.OptionPrice(fn, data)
		if err != nil {
			t.Fatalf("OptionPrice: %v", err)
		}
		return p
	}

	tests := []struct {
		name      string
		moneyness float64
		isCall    bool
	}{
		{"itm call", 0.95, true},
		{"near atm call", 1.03, true},
		{"otm call", 1.12, true},
		{"near atm put", 1.03, false},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			strike := tc.moneyness * spot
			calibrator, err := tree.NewCalibrator(101)
			if err != nil {
				t.Fatalf("NewCalibrator: %v", err)
			}
			data, err := calibrator.Calibrate(expiry, pair, constProvider(t, pair, spot, 0.01, 0.02), vols)
			if err != nil {
				t.Fatalf("Calibrate: %v", err)
			}
			fn, err := tree.NewVanillaFunction(strike, data.TimeToExpiry(), 101, tc.isCall)
			if err != nil {
				t.Fatalf("NewVanillaFunction: %v", err)
			}
			adjoint, err := tree.OptionPriceAdjoint(fn, data)
			if err != nil {
				t.Fatalf("OptionPriceAdjoint: %v", err)
			}
			h := spot * 1e-5
			bump := (price(spot+h, strike, tc.isCall) - price(spot-h, strike, tc.isCall)) / (2 * h)
			if rel := math.Abs(adjoint.Derivatives[0]-bump) / math.Abs(bump); rel > 1e-4 {
				t.Fatalf("adjoint vs bump delta mismatch: got %v want %v (rel %v)", adjoint.Derivatives[0], bump, rel)
			}
		})
	}
}

func TestCalibrateSmileLattice(t *testing.T) {
	t.Parallel()
	pair := eurusd(t)
	provider := constProvider(t, pair, 1.25, 0, 0)
	surface, err := vol.NewSmileSurface(pair, calibValuation, []vol.SmileTerm{
		{Time: 0.5, Strikes: []float64{1.15, 1.25, 1.35}, Vols: []float64{0.14, 0.11, 0.13}},
		{Time: 1.0, Strikes: []float64{1.10, 1.25, 1.40}, Vols: []float64{0.15, 0.12, 0.14}},
	})
	if err != nil {
		t.Fatalf("NewSmileSurface: %v", err)
	}
	calibrator, err := tree.NewCalibrator(12)
	if err != nil {
		t.Fatalf("NewCalibrator: %v", err)
	}
	data, err := calibrator.Calibrate(oneYear(), pair, provider, surface)
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	for i := 0; i < data.NumberOfSteps(); i++ {
		for j, p := range data.Probabilities(i) {
			if sum := p[0] + p[1] + p[2]; math.Abs(sum-1) > 1e-9 {
				t.Fatalf("probability sum at (%d,%d): got %v want 1", i, j, sum)
			}
			for k, q := range p {
				if q < 0 || q > 1 {
					t.Fatalf("probability %d at (%d,%d) out of range: %v", k, i, j, q)
				}
			}
		}
	}
}

func TestCalibrateFailureCarriesStep(t *testing.T) {
	t.Parallel()
	pair := eurusd(t)
	provider := constProvider(t, pair, 1.25, 0, 0)
	// A violent forward-variance surge between 0.45y and 0.55y against a
	// 10% expiry volatility: the spacing set at expiry cannot absorb the
	// local variance of the step spanning [0.4, 0.5].
	surface, err := vol.NewSmileSurface(pair, calibValuation, []vol.SmileTerm{
		{Time: 0.45, Strikes: []float64{1.25}, Vols: []float64{0.08}},
		{Time: 0.55, Strikes: []float64{1.25}, Vols: []float64{0.45}},
		{Time: 1.0, Strikes: []float64{1.25}, Vols: []float64{0.10}},
	})
	if err != nil {
		t.Fatalf("NewSmileSurface: %v", err)
	}
	calibrator, err := tree.NewCalibrator(10)
	if err != nil {
		t.Fatalf("NewCalibrator: %v", err)
	}
	_, err = calibrator.Calibrate(oneYear(), pair, provider, surface)
	var calErr *tree.CalibrationError
	if !errors.As(err, &calErr) {
		t.Fatalf("error mismatch: got %v want *CalibrationError", err)
	}
	if calErr.Step != 4 {
		t.Fatalf("failing step mismatch: got %d want 4", calErr.Step)
	}
}

func TestCalibrateValidation(t *testing.T) {
	t.Parallel()
	pair := eurusd(t)
	provider := constProvider(t, pair, 1.25, 0, 0)
	vols := flatVols(t, pair, 0.10)
	calibrator, err := tree.NewCalibrator(10)
	if err != nil {
		t.Fatalf("NewCalibrator: %v", err)
	}

	if _, err := tree.NewCalibrator(0); !errors.Is(err, tree.ErrTooFewSteps) {
		t.Fatalf("error mismatch: got %v want ErrTooFewSteps", err)
	}
	if _, err := calibrator.Calibrate(calibValuation, pair, provider, vols); err == nil {
		t.Fatalf("Calibrate accepted an expiry on the valuation date")
	}

	gbp, err := currency.NewPair(currency.GBP, currency.USD)
	if err != nil {
		t.Fatalf("NewPair: %v", err)
	}
	if _, err := calibrator.Calibrate(oneYear(), gbp, provider, vols); !errors.Is(err, rates.ErrNoFxRate) {
		t.Fatalf("error mismatch: got %v want ErrNoFxRate", err)
	}

	noCurve, err := rates.NewProvider(rates.ProviderParams{
		ValuationDate: calibValuation,
		FxRates:       map[currency.Pair]float64{pair: 1.25},
		DiscountCurves: map[currency.Currency]rates.Curve{
			pair.Counter(): rates.NewConstantCurve("USD-Disc", 0.02),
		},
	})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	if _, err := calibrator.Calibrate(oneYear(), pair, noCurve, vols); !errors.Is(err, rates.ErrNoDiscountCurve) {
		t.Fatalf("error mismatch: got %v want ErrNoDiscountCurve", err)
	}

	otherVols := flatVols(t, gbp, 0.10)
	if _, err := calibrator.Calibrate(oneYear(), pair, provider, otherVols); !errors.Is(err, vol.ErrUnsupportedPair) {
		t.Fatalf("error mismatch: got %v want ErrUnsupportedPair", err)
	}
}
