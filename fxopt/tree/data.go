// Package tree implements the implied recombining trinomial tree: the
// calibrated lattice data, the payoff function family and the
// backward-induction engine with adjoint spot derivatives.
package tree

import (
	"fmt"
	"math"
)

// probSumTolerance bounds how far a stored probability triple may drift
// from summing to one.
const probSumTolerance = 1e-9

// Data is an immutable calibrated description of a recombining trinomial
// tree. Layer i has 2i+1 nodes in ascending state order; the children of
// node (i, j) are nodes j, j+1 and j+2 of layer i+1.
//
// Slices returned by accessors are the backing arrays and must not be
// modified.
type Data struct {
	numberOfSteps   int
	spot            float64
	times           []float64
	stateValues     [][]float64
	probabilities   [][][3]float64
	discountFactors []float64
}

// DataParams carries the arrays of a calibrated lattice into NewData.
type DataParams struct {
	// Spot is the valuation-date FX rate the lattice was calibrated at.
	Spot float64
	// Times holds numberOfSteps+1 non-decreasing year fractions starting
	// at zero; the last entry is the time to expiry.
	Times []float64
	// StateValues holds one ascending slice of 2i+1 node values per layer.
	StateValues [][]float64
	// Probabilities holds, for layers 0..n-1, one [down, mid, up] triple
	// per node.
	Probabilities [][][3]float64
	// DiscountFactors holds the n one-step counter-currency discount
	// factors.
	DiscountFactors []float64
}

// NewData validates the lattice structure and its no-arbitrage
// invariants (probabilities in [0,1] summing to one) and returns an
// immutable Data. The inputs are deep-copied.
func NewData(params DataParams) (*Data, error) {
	n := len(params.Times) - 1
	if n < 1 {
		return nil, fmt.Errorf("NewData: at least two time points are required")
	}
	if params.Spot <= 0 || math.IsNaN(params.Spot) {
		return nil, fmt.Errorf("NewData: spot must be positive, got %v", params.Spot)
	}
	if len(params.StateValues) != n+1 {
		return nil, fmt.Errorf("NewData: %d state layers for %d steps", len(params.StateValues), n)
	}
	if len(params.Probabilities) != n {
		return nil, fmt.Errorf("NewData: %d probability layers for %d steps", len(params.Probabilities), n)
	}
	if len(params.DiscountFactors) != n {
		return nil, fmt.Errorf("NewData: %d discount factors for %d steps", len(params.DiscountFactors), n)
	}

	times := append([]float64(nil), params.Times...)
	for i, t := range times {
		if math.IsNaN(t) || (i == 0 && t != 0) {
			return nil, fmt.Errorf("NewData: times must start at zero, got %v", times[0])
		}
		if i > 0 && t < times[i-1] {
			return nil, fmt.Errorf("NewData: times must be non-decreasing at index %d", i)
		}
	}

	states := make([][]float64, n+1)
	for i := range states {
		layer := params.StateValues[i]
		if len(layer) != 2*i+1 {
			return nil, fmt.Errorf("NewData: layer %d has %d nodes, want %d", i, len(layer), 2*i+1)
		}
		for j, s := range layer {
			if s <= 0 || math.IsNaN(s) {
				return nil, fmt.Errorf("NewData: non-positive state %v at node (%d,%d)", s, i, j)
			}
			if j > 0 && s <= layer[j-1] {
				return nil, fmt.Errorf("NewData: states must be ascending at node (%d,%d)", i, j)
			}
		}
		states[i] = append([]float64(nil), layer...)
	}
	if math.Abs(states[0][0]-params.Spot) > 1e-12*params.Spot {
		return nil, fmt.Errorf("NewData: root state %v does not match spot %v", states[0][0], params.Spot)
	}

	probs := make([][][3]float64, n)
	for i := range probs {
		layer := params.Probabilities[i]
		if len(layer) != 2*i+1 {
			return nil, fmt.Errorf("NewData: probability layer %d has %d nodes, want %d", i, len(layer), 2*i+1)
		}
		for j, p := range layer {
			sum := 0.0
			for _, q := range p {
				if q < 0 || q > 1 || math.IsNaN(q) {
					return nil, fmt.Errorf("NewData: probability %v out of [0,1] at node (%d,%d)", q, i, j)
				}
				sum += q
			}
			if math.Abs(sum-1) > probSumTolerance {
				return nil, fmt.Errorf("NewData: probabilities sum to %v at node (%d,%d)", sum, i, j)
			}
		}
		probs[i] = append([][3]float64(nil), layer...)
	}

	dfs := append([]float64(nil), params.DiscountFactors...)
	for i, df := range dfs {
		if df <= 0 || math.IsNaN(df) {
			return nil, fmt.Errorf("NewData: non-positive discount factor %v at step %d", df, i)
		}
	}

	return &Data{
		numberOfSteps:   n,
		spot:            params.Spot,
		times:           times,
		stateValues:     states,
		probabilities:   probs,
		discountFactors: dfs,
	}, nil
}

// NumberOfSteps returns the number of time steps.
func (d *Data) NumberOfSteps() int { return d.numberOfSteps }

// Spot returns the FX rate the lattice was calibrated at.
func (d *Data) Spot() float64 { return d.spot }

// Time returns the year fraction of layer i.
func (d *Data) Time(i int) float64 { return d.times[i] }

// TimeToExpiry returns the year fraction of the terminal layer.
func (d *Data) TimeToExpiry() float64 { return d.times[d.numberOfSteps] }

// StateValues returns the ascending node values of layer i.
func (d *Data) StateValues(i int) []float64 { return d.stateValues[i] }

// Probabilities returns the [down, mid, up] triples of layer i.
func (d *Data) Probabilities(i int) [][3]float64 { return d.probabilities[i] }

// DiscountFactor returns the one-step counter-currency discount factor
// from layer i to layer i+1.
func (d *Data) DiscountFactor(i int) float64 { return d.discountFactors[i] }
