package tree

import (
	"fmt"
	"math"
	"time"

	"github.com/meenmo/fxolib/currency"
	"github.com/meenmo/fxolib/fxopt/config"
	"github.com/meenmo/fxolib/rates"
	"github.com/meenmo/fxolib/vol"
)

// Calibrator builds an implied trinomial tree from a rate environment
// and a Black volatility surface. The lattice spacing comes from a
// single reference volatility; the transition probabilities at each
// node are then fitted so every one-step conditional distribution
// matches the forward growth and the forward variance the surface
// implies for that node's level and time slice.
type Calibrator struct {
	numberOfSteps int
}

// NewCalibrator returns a calibrator for the given number of equal time
// steps.
func NewCalibrator(numberOfSteps int) (*Calibrator, error) {
	if numberOfSteps < 1 {
		return nil, fmt.Errorf("NewCalibrator: %w, got %d", ErrTooFewSteps, numberOfSteps)
	}
	return &Calibrator{numberOfSteps: numberOfSteps}, nil
}

// NumberOfSteps returns the step count the calibrator builds with.
func (c *Calibrator) NumberOfSteps() int { return c.numberOfSteps }

// Calibrate builds the lattice for options on the pair expiring at the
// given time. The spot, both discount curves and the surface are read
// from the providers; the returned Data discounts in the counter
// currency of the pair.
//
// A *CalibrationError is returned when a step's fitted probabilities
// fall outside [0,1] by more than the configured tolerance.
func (c *Calibrator) Calibrate(expiry time.Time, pair currency.Pair, provider *rates.Provider, vols vol.Surface) (*Data, error) {
	cfg := config.GetConfig()
	n := c.numberOfSteps

	timeToExpiry := vols.RelativeTime(expiry)
	if timeToExpiry <= 0 {
		return nil, fmt.Errorf("Calibrate: expiry %s is not after the surface valuation time", expiry.Format(time.RFC3339))
	}
	spot, err := provider.FxRate(pair)
	if err != nil {
		return nil, fmt.Errorf("Calibrate: %w", err)
	}
	dfBase, err := provider.DiscountFactors(pair.Base())
	if err != nil {
		return nil, fmt.Errorf("Calibrate: %w", err)
	}
	dfCounter, err := provider.DiscountFactors(pair.Counter())
	if err != nil {
		return nil, fmt.Errorf("Calibrate: %w", err)
	}

	dt := timeToExpiry / float64(n)
	times := make([]float64, n+1)
	for i := 1; i < n; i++ {
		times[i] = float64(i) * dt
	}
	times[n] = timeToExpiry

	// Node spacing from the at-the-money-forward volatility over the
	// whole expiry. The sqrt(3 dt) factor keeps a flat surface near the
	// (1/6, 2/3, 1/6) triple, leaving headroom for the local
	// volatilities the smile implies.
	expiryForward := spot * dfBase.DiscountFactor(timeToExpiry) / dfCounter.DiscountFactor(timeToExpiry)
	refVol, err := vols.Volatility(pair, timeToExpiry, expiryForward, expiryForward)
	if err != nil {
		return nil, fmt.Errorf("Calibrate: %w", err)
	}
	if refVol <= 0 || math.IsNaN(refVol) {
		return nil, fmt.Errorf("Calibrate: non-positive reference volatility %v", refVol)
	}
	dx := refVol * math.Sqrt(3*dt)
	up := math.Exp(dx)
	down := math.Exp(-dx)

	states := make([][]float64, n+1)
	for i := range states {
		layer := make([]float64, 2*i+1)
		for j := range layer {
			layer[j] = spot * math.Exp(float64(j-i)*dx)
		}
		states[i] = layer
	}

	probabilities := make([][][3]float64, n)
	discountFactors := make([]float64, n)
	for i := 0; i < n; i++ {
		t0, t1 := times[i], times[i+1]
		baseRatio := dfBase.DiscountFactor(t1) / dfBase.DiscountFactor(t0)
		counterRatio := dfCounter.DiscountFactor(t1) / dfCounter.DiscountFactor(t0)
		growth := baseRatio / counterRatio
		discountFactors[i] = counterRatio
		forward0 := spot * dfBase.DiscountFactor(t0) / dfCounter.DiscountFactor(t0)
		forward1 := spot * dfBase.DiscountFactor(t1) / dfCounter.DiscountFactor(t1)

		layer := make([][3]float64, 2*i+1)
		for j := range layer {
			s := states[i][j]
			variance0 := 0.0
			if i > 0 {
				vol0, err := vols.Volatility(pair, t0, s, forward0)
				if err != nil {
					return nil, fmt.Errorf("Calibrate: %w", err)
				}
				variance0 = vol0 * vol0 * t0
			}
			vol1, err := vols.Volatility(pair, t1, s, forward1)
			if err != nil {
				return nil, fmt.Errorf("Calibrate: %w", err)
			}
			forwardVariance := vol1*vol1*t1 - variance0
			if forwardVariance < cfg.MinForwardVariance {
				forwardVariance = cfg.MinForwardVariance
			}

			// Match the first two moments of the one-step ratio
			// S(t1)/S(t0): mean growth and mean square
			// growth^2 exp(forward variance).
			meanSquare := growth * growth * math.Exp(forwardVariance)
			pu := (meanSquare - 1 - (growth-1)*(down+1)) / ((up - 1) * (up - down))
			pd := (meanSquare - 1 - (growth-1)*(up+1)) / ((down - 1) * (down - up))
			pm := 1 - pu - pd

			triple, err := stabilizeProbabilities(pd, pm, pu, cfg.ProbabilityTolerance)
			if err != nil {
				return nil, &CalibrationError{Step: i, Reason: fmt.Sprintf("node %d: %v", j, err)}
			}
			layer[j] = triple
		}
		probabilities[i] = layer
	}

	return NewData(DataParams{
		Spot:            spot,
		Times:           times,
		StateValues:     states,
		Probabilities:   probabilities,
		DiscountFactors: discountFactors,
	})
}

// stabilizeProbabilities repairs a [down, mid, up] triple whose entries
// stray from [0,1] by at most tol: entries are clamped and the triple
// renormalized so it sums to one. Larger breaches are an error.
func stabilizeProbabilities(pd, pm, pu, tol float64) ([3]float64, error) {
	for _, p := range []struct {
		name  string
		value float64
	}{{"down", pd}, {"mid", pm}, {"up", pu}} {
		if math.IsNaN(p.value) || p.value < -tol || p.value > 1+tol {
			return [3]float64{}, fmt.Errorf("%s probability %v outside [0,1]", p.name, p.value)
		}
	}
	pd = clampUnit(pd)
	pm = clampUnit(pm)
	pu = clampUnit(pu)
	total := pd + pm + pu
	pd /= total
	pu /= total
	pm = 1 - pd - pu
	if pm < 0 {
		pm = 0
	}
	return [3]float64{pd, pm, pu}, nil
}

func clampUnit(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
