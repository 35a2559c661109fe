package fxopt

import "fmt"

// ConsistencyError reports pricing inputs that disagree with each
// other, such as rate and volatility snapshots taken on different
// valuation dates.
type ConsistencyError struct {
	Reason string
}

// Error implements the error interface.
func (e *ConsistencyError) Error() string {
	return "inconsistent pricing inputs: " + e.Reason
}

// StaleDataError reports cached lattice data whose embedded spot or
// expiry no longer matches the option and market data it is used with.
type StaleDataError struct {
	Reason string
}

// Error implements the error interface.
func (e *StaleDataError) Error() string {
	return "stale lattice data: " + e.Reason
}

// UnsupportedVariantError reports an option variant no payoff function
// is mapped for.
type UnsupportedVariantError struct {
	Variant string
}

// Error implements the error interface.
func (e *UnsupportedVariantError) Error() string {
	return fmt.Sprintf("no payoff function mapped for option variant %s", e.Variant)
}
