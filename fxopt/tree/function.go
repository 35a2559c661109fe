package tree

import "fmt"

// BarrierType tells on which side of the barrier an option knocks out.
type BarrierType int

const (
	// BarrierDown knocks out at or below the barrier level.
	BarrierDown BarrierType = iota
	// BarrierUp knocks out at or above the barrier level.
	BarrierUp
)

// String implements fmt.Stringer.
func (b BarrierType) String() string {
	switch b {
	case BarrierDown:
		return "Down"
	case BarrierUp:
		return "Up"
	default:
		return fmt.Sprintf("BarrierType(%d)", int(b))
	}
}

// OptionFunction describes a payoff priced on a calibrated lattice. The
// engine owns the backward recombination; a function contributes the
// terminal payoff and any per-layer overrides.
type OptionFunction interface {
	// TimeToExpiry returns the payoff's year fraction to expiry.
	TimeToExpiry() float64
	// NumberOfSteps returns the step count the function was built for.
	NumberOfSteps() int
	// TerminalPayoff returns the payoff values at the terminal state
	// values together with the payoff slopes with respect to the state,
	// used to seed the adjoint derivative.
	TerminalPayoff(stateValues []float64) (values, slopes []float64)
	// AdjustValues overrides values (and, when non-nil, the running
	// spot derivatives) in place at the given layer, after the layer's
	// values have been assembled. The engine calls it on every layer
	// from the terminal one down to the root.
	AdjustValues(step int, stateValues []float64, values, derivatives []float64)
}

// VanillaFunction prices a European call or put.
type VanillaFunction struct {
	strike        float64
	timeToExpiry  float64
	numberOfSteps int
	isCall        bool
}

// NewVanillaFunction returns a vanilla payoff function.
func NewVanillaFunction(strike, timeToExpiry float64, numberOfSteps int, isCall bool) (*VanillaFunction, error) {
	if strike <= 0 {
		return nil, fmt.Errorf("NewVanillaFunction: strike must be positive, got %v", strike)
	}
	if timeToExpiry <= 0 {
		return nil, fmt.Errorf("NewVanillaFunction: time to expiry must be positive, got %v", timeToExpiry)
	}
	if numberOfSteps < 1 {
		return nil, ErrTooFewSteps
	}
	return &VanillaFunction{
		strike:        strike,
		timeToExpiry:  timeToExpiry,
		numberOfSteps: numberOfSteps,
		isCall:        isCall,
	}, nil
}

// Strike returns the strike.
func (f *VanillaFunction) Strike() float64 { return f.strike }

// TimeToExpiry implements OptionFunction.
func (f *VanillaFunction) TimeToExpiry() float64 { return f.timeToExpiry }

// NumberOfSteps implements OptionFunction.
func (f *VanillaFunction) NumberOfSteps() int { return f.numberOfSteps }

// TerminalPayoff implements OptionFunction.
func (f *VanillaFunction) TerminalPayoff(stateValues []float64) (values, slopes []float64) {
	sign := 1.0
	if !f.isCall {
		sign = -1.0
	}
	values = make([]float64, len(stateValues))
	slopes = make([]float64, len(stateValues))
	for j, s := range stateValues {
		if intrinsic := sign * (s - f.strike); intrinsic > 0 {
			values[j] = intrinsic
			slopes[j] = sign
		}
	}
	return values, slopes
}

// AdjustValues implements OptionFunction; a vanilla payoff has no
// path-dependent overrides.
func (f *VanillaFunction) AdjustValues(step int, stateValues []float64, values, derivatives []float64) {
}

// DigitalFunction prices a cash-or-nothing payoff of one unit of
// counter currency, paid when the terminal state ends strictly on the
// agreed side of the strike.
type DigitalFunction struct {
	strike        float64
	timeToExpiry  float64
	numberOfSteps int
	above         bool
}

// NewDigitalFunction returns a digital payoff function paying one unit
// when the terminal state is strictly above (or below) the strike.
func NewDigitalFunction(strike, timeToExpiry float64, numberOfSteps int, above bool) (*DigitalFunction, error) {
	if strike <= 0 {
		return nil, fmt.Errorf("NewDigitalFunction: strike must be positive, got %v", strike)
	}
	if timeToExpiry <= 0 {
		return nil, fmt.Errorf("NewDigitalFunction: time to expiry must be positive, got %v", timeToExpiry)
	}
	if numberOfSteps < 1 {
		return nil, ErrTooFewSteps
	}
	return &DigitalFunction{
		strike:        strike,
		timeToExpiry:  timeToExpiry,
		numberOfSteps: numberOfSteps,
		above:         above,
	}, nil
}

// Strike returns the strike.
func (f *DigitalFunction) Strike() float64 { return f.strike }

// TimeToExpiry implements OptionFunction.
func (f *DigitalFunction) TimeToExpiry() float64 { return f.timeToExpiry }

// NumberOfSteps implements OptionFunction.
func (f *DigitalFunction) NumberOfSteps() int { return f.numberOfSteps }

// TerminalPayoff implements OptionFunction. A state exactly at the
// strike pays nothing, and the payoff slope is zero everywhere.
func (f *DigitalFunction) TerminalPayoff(stateValues []float64) (values, slopes []float64) {
	values = make([]float64, len(stateValues))
	slopes = make([]float64, len(stateValues))
	for j, s := range stateValues {
		if (f.above && s > f.strike) || (!f.above && s < f.strike) {
			values[j] = 1
		}
	}
	return values, slopes
}

// AdjustValues implements OptionFunction; a digital payoff has no
// path-dependent overrides.
func (f *DigitalFunction) AdjustValues(step int, stateValues []float64, values, derivatives []float64) {
}

// BarrierKnockoutFunction prices a vanilla payoff that knocks out when
// a node lies at or beyond the barrier, replacing the node value with
// the layer's rebate. Knock-in valuation is assembled from knockout
// prices by in-out parity outside this package.
type BarrierKnockoutFunction struct {
	strike        float64
	timeToExpiry  float64
	numberOfSteps int
	isCall        bool
	barrierType   BarrierType
	barrier       float64
	rebates       []float64
}

// NewBarrierKnockoutFunction returns a knockout payoff function. The
// rebates slice needs one entry per layer, numberOfSteps+1 in total,
// each the amount paid at that layer's time when the option is knocked
// out there.
func NewBarrierKnockoutFunction(strike, timeToExpiry float64, numberOfSteps int, isCall bool, barrierType BarrierType, barrier float64, rebates []float64) (*BarrierKnockoutFunction, error) {
	if strike <= 0 {
		return nil, fmt.Errorf("NewBarrierKnockoutFunction: strike must be positive, got %v", strike)
	}
	if timeToExpiry <= 0 {
		return nil, fmt.Errorf("NewBarrierKnockoutFunction: time to expiry must be positive, got %v", timeToExpiry)
	}
	if numberOfSteps < 1 {
		return nil, ErrTooFewSteps
	}
	if barrierType != BarrierDown && barrierType != BarrierUp {
		return nil, fmt.Errorf("NewBarrierKnockoutFunction: unknown barrier type %v", barrierType)
	}
	if barrier <= 0 {
		return nil, fmt.Errorf("NewBarrierKnockoutFunction: barrier must be positive, got %v", barrier)
	}
	if len(rebates) != numberOfSteps+1 {
		return nil, fmt.Errorf("NewBarrierKnockoutFunction: %d rebates for %d steps, want %d", len(rebates), numberOfSteps, numberOfSteps+1)
	}
	return &BarrierKnockoutFunction{
		strike:        strike,
		timeToExpiry:  timeToExpiry,
		numberOfSteps: numberOfSteps,
		isCall:        isCall,
		barrierType:   barrierType,
		barrier:       barrier,
		rebates:       append([]float64(nil), rebates...),
	}, nil
}

// Strike returns the strike.
func (f *BarrierKnockoutFunction) Strike() float64 { return f.strike }

// Barrier returns the barrier level.
func (f *BarrierKnockoutFunction) Barrier() float64 { return f.barrier }

// TimeToExpiry implements OptionFunction.
func (f *BarrierKnockoutFunction) TimeToExpiry() float64 { return f.timeToExpiry }

// NumberOfSteps implements OptionFunction.
func (f *BarrierKnockoutFunction) NumberOfSteps() int { return f.numberOfSteps }

// TerminalPayoff implements OptionFunction. The knockout override is
// applied separately through AdjustValues, which the engine also calls
// on the terminal layer.
func (f *BarrierKnockoutFunction) TerminalPayoff(stateValues []float64) (values, slopes []float64) {
	sign := 1.0
	if !f.isCall {
		sign = -1.0
	}
	values = make([]float64, len(stateValues))
	slopes = make([]float64, len(stateValues))
	for j, s := range stateValues {
		if intrinsic := sign * (s - f.strike); intrinsic > 0 {
			values[j] = intrinsic
			slopes[j] = sign
		}
	}
	return values, slopes
}

// AdjustValues implements OptionFunction, forcing knocked-out nodes to
// the layer rebate. A knocked-out value no longer moves with spot, so
// its running derivative is zeroed.
func (f *BarrierKnockoutFunction) AdjustValues(step int, stateValues []float64, values, derivatives []float64) {
	rebate := f.rebates[step]
	for j, s := range stateValues {
		if f.knockedOut(s) {
			values[j] = rebate
			if derivatives != nil {
				derivatives[j] = 0
			}
		}
	}
}

func (f *BarrierKnockoutFunction) knockedOut(state float64) bool {
	if f.barrierType == BarrierDown {
		return state <= f.barrier
	}
	return state >= f.barrier
}
