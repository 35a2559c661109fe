package tree

import "fmt"

// ValueDerivatives bundles a present value with its first derivatives.
// For the adjoint engine the single entry is the derivative of the
// value with respect to the calibrated spot.
type ValueDerivatives struct {
	Value       float64
	Derivatives []float64
}

// OptionPrice rolls the payoff function backward through the calibrated
// lattice and returns the value per unit notional at the root node,
// discounted in the counter currency.
func OptionPrice(fn OptionFunction, data *Data) (float64, error) {
	vd, err := optionPrice(fn, data, false)
	if err != nil {
		return 0, err
	}
	return vd.Value, nil
}

// OptionPriceAdjoint computes the option value together with its exact
// derivative with respect to spot, propagated through the same backward
// induction as the value itself rather than by finite differencing.
//
// The derivative at a node tracks how the node value moves when spot is
// bumped with the lattice geometry held fixed: every state value scales
// by the same factor, so the terminal seed at node j is the payoff
// slope times stateValue[j]/spot, and interior nodes recombine the
// seeds with the node's own transition probabilities and discount
// factor. Knockout overrides pin a node's value, zeroing its
// derivative.
func OptionPriceAdjoint(fn OptionFunction, data *Data) (ValueDerivatives, error) {
	return optionPrice(fn, data, true)
}

func optionPrice(fn OptionFunction, data *Data, computeDerivative bool) (ValueDerivatives, error) {
	n := data.NumberOfSteps()
	if fn.NumberOfSteps() != n {
		return ValueDerivatives{}, fmt.Errorf("tree: lattice has %d steps but payoff function has %d: %w",
			n, fn.NumberOfSteps(), ErrStepMismatch)
	}

	terminal := data.StateValues(n)
	values, slopes := fn.TerminalPayoff(terminal)
	if len(values) != len(terminal) || len(slopes) != len(terminal) {
		return ValueDerivatives{}, fmt.Errorf("tree: payoff returned %d values and %d slopes for %d terminal nodes",
			len(values), len(slopes), len(terminal))
	}

	var derivatives []float64
	if computeDerivative {
		derivatives = make([]float64, len(terminal))
		spot := data.Spot()
		for j, s := range terminal {
			derivatives[j] = slopes[j] * s / spot
		}
	}
	fn.AdjustValues(n, terminal, values, derivatives)

	for i := n - 1; i >= 0; i-- {
		states := data.StateValues(i)
		probs := data.Probabilities(i)
		df := data.DiscountFactor(i)
		next := make([]float64, len(states))
		var nextDerivatives []float64
		if computeDerivative {
			nextDerivatives = make([]float64, len(states))
		}
		for j := range states {
			p := probs[j]
			next[j] = df * (p[0]*values[j] + p[1]*values[j+1] + p[2]*values[j+2])
			if computeDerivative {
				nextDerivatives[j] = df * (p[0]*derivatives[j] + p[1]*derivatives[j+1] + p[2]*derivatives[j+2])
			}
		}
		values, derivatives = next, nextDerivatives
		fn.AdjustValues(i, states, values, derivatives)
	}

	result := ValueDerivatives{Value: values[0]}
	if computeDerivative {
		result.Derivatives = []float64{derivatives[0]}
	}
	return result, nil
}
