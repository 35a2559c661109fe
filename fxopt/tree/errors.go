package tree

import (
	"errors"
	"fmt"
)

// ErrTooFewSteps reports a non-positive step count.
var ErrTooFewSteps = errors.New("number of steps must be at least one")

// ErrStepMismatch reports a payoff function rolled through a lattice
// calibrated with a different step count.
var ErrStepMismatch = errors.New("step count mismatch between lattice and payoff function")

// CalibrationError reports a lattice step whose local volatility and
// drift produce transition probabilities that cannot be repaired into a
// valid triple. It usually means the tree spacing cannot support the
// local volatility implied by the surface at that step.
type CalibrationError struct {
	// Step is the zero-based index of the offending time step.
	Step int
	// Reason describes the failing quantity.
	Reason string
}

// Error implements the error interface.
func (e *CalibrationError) Error() string {
	return fmt.Sprintf("tree calibration failed at step %d: %s", e.Step, e.Reason)
}
