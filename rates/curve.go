// Package rates provides discount curves, discount factors and the market
// rate environment (valuation date, FX rates, curves per currency) that
// option pricing consumes.
package rates

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrNilCurve is returned when a required curve argument is nil.
	ErrNilCurve = errors.New("nil curve")
	// ErrNoDiscountCurve is returned when a provider holds no curve for a currency.
	ErrNoDiscountCurve = errors.New("no discount curve")
	// ErrNoFxRate is returned when a provider holds no FX rate for a pair.
	ErrNoFxRate = errors.New("no fx rate")
)

// Curve is a continuously compounded zero-rate curve over year fractions.
//
// Curves are immutable; WithParameter returns a bumped copy, which is how
// bump-and-reprice sensitivities walk the curve's parameters.
type Curve interface {
	// Name identifies the curve in sensitivity output.
	Name() string
	// ParameterCount returns the number of bumpable parameters.
	ParameterCount() int
	// Parameter returns the i-th parameter. Panics when i is out of range.
	Parameter(i int) float64
	// WithParameter returns a copy with the i-th parameter replaced.
	// Panics when i is out of range.
	WithParameter(i int, value float64) Curve
	// ZeroRate returns the continuously compounded zero rate at year
	// fraction t.
	ZeroRate(t float64) float64
	// DiscountFactor returns exp(-ZeroRate(t)*t).
	DiscountFactor(t float64) float64
}

// ConstantCurve is a flat zero-rate curve with a single parameter.
type ConstantCurve struct {
	name string
	rate float64
}

// NewConstantCurve builds a flat curve at the given continuously
// compounded zero rate.
func NewConstantCurve(name string, rate float64) ConstantCurve {
	return ConstantCurve{name: name, rate: rate}
}

func (c ConstantCurve) Name() string        { return c.name }
func (c ConstantCurve) ParameterCount() int { return 1 }

func (c ConstantCurve) Parameter(i int) float64 {
	if i != 0 {
		panic(fmt.Sprintf("Parameter: index %d out of range for constant curve", i))
	}
	return c.rate
}

func (c ConstantCurve) WithParameter(i int, value float64) Curve {
	if i != 0 {
		panic(fmt.Sprintf("WithParameter: index %d out of range for constant curve", i))
	}
	return ConstantCurve{name: c.name, rate: value}
}

func (c ConstantCurve) ZeroRate(t float64) float64 { return c.rate }

func (c ConstantCurve) DiscountFactor(t float64) float64 {
	return math.Exp(-c.rate * t)
}

// InterpolatedCurve interpolates zero rates linearly between nodes with
// flat extrapolation beyond the first and last node. Each node's zero
// rate is one bumpable parameter.
type InterpolatedCurve struct {
	name  string
	times []float64
	zeros []float64
}

// NewInterpolatedCurve builds a zero curve from node year fractions and
// zero rates. Times must be strictly increasing and non-negative.
func NewInterpolatedCurve(name string, times, zeros []float64) (InterpolatedCurve, error) {
	if len(times) == 0 {
		return InterpolatedCurve{}, fmt.Errorf("NewInterpolatedCurve: at least one node is required")
	}
	if len(times) != len(zeros) {
		return InterpolatedCurve{}, fmt.Errorf("NewInterpolatedCurve: %d times vs %d rates", len(times), len(zeros))
	}
	for i, t := range times {
		if t < 0 || math.IsNaN(t) {
			return InterpolatedCurve{}, fmt.Errorf("NewInterpolatedCurve: bad node time %v at index %d", t, i)
		}
		if i > 0 && t <= times[i-1] {
			return InterpolatedCurve{}, fmt.Errorf("NewInterpolatedCurve: node times must be strictly increasing at index %d", i)
		}
		if math.IsNaN(zeros[i]) {
			return InterpolatedCurve{}, fmt.Errorf("NewInterpolatedCurve: NaN zero rate at index %d", i)
		}
	}
	c := InterpolatedCurve{
		name:  name,
		times: append([]float64(nil), times...),
		zeros: append([]float64(nil), zeros...),
	}
	return c, nil
}

func (c InterpolatedCurve) Name() string        { return c.name }
func (c InterpolatedCurve) ParameterCount() int { return len(c.zeros) }

func (c InterpolatedCurve) Parameter(i int) float64 {
	if i < 0 || i >= len(c.zeros) {
		panic(fmt.Sprintf("Parameter: index %d out of range [0,%d)", i, len(c.zeros)))
	}
	return c.zeros[i]
}

func (c InterpolatedCurve) WithParameter(i int, value float64) Curve {
	if i < 0 || i >= len(c.zeros) {
		panic(fmt.Sprintf("WithParameter: index %d out of range [0,%d)", i, len(c.zeros)))
	}
	zeros := append([]float64(nil), c.zeros...)
	zeros[i] = value
	return InterpolatedCurve{name: c.name, times: c.times, zeros: zeros}
}

// NodeTimes returns a copy of the node year fractions.
func (c InterpolatedCurve) NodeTimes() []float64 {
	return append([]float64(nil), c.times...)
}

func (c InterpolatedCurve) ZeroRate(t float64) float64 {
	n := len(c.times)
	if t <= c.times[0] {
		return c.zeros[0]
	}
	if t >= c.times[n-1] {
		return c.zeros[n-1]
	}
	// First node with time >= t.
	i := sort.SearchFloat64s(c.times, t)
	t0, t1 := c.times[i-1], c.times[i]
	z0, z1 := c.zeros[i-1], c.zeros[i]
	w := (t - t0) / (t1 - t0)
	return z0 + w*(z1-z0)
}

func (c InterpolatedCurve) DiscountFactor(t float64) float64 {
	return math.Exp(-c.ZeroRate(t) * t)
}
