// Package config holds numeric tuning parameters for the trinomial-tree
// pricers.
package config

// Config holds lattice and sensitivity tuning parameters.
// These were previously hardcoded magic numbers throughout the codebase.
type Config struct {
	// DefaultTreeSteps is the step count used when a pricer is built
	// without an explicit one. 51 steps balances accuracy and cost for
	// expiries up to a few years.
	DefaultTreeSteps int

	// ProbabilityTolerance bounds how far a transition probability may
	// fall outside [0,1] before calibration fails instead of clamping.
	ProbabilityTolerance float64

	// MinForwardVariance floors the per-step forward variance so flat or
	// inverted volatility term structures cannot produce a degenerate
	// local variance.
	MinForwardVariance float64

	// CurveShift is the absolute zero-rate shift used by bump-and-reprice
	// curve sensitivities.
	CurveShift float64

	// FuzzyTolerance is the absolute tolerance used when checking a
	// cached lattice against an option and rate environment.
	FuzzyTolerance float64
}

// DefaultConfig provides production-ready default values.
var DefaultConfig = Config{
	DefaultTreeSteps:     51,
	ProbabilityTolerance: 1e-8,
	MinForwardVariance:   1e-10,
	CurveShift:           1e-5,
	FuzzyTolerance:       1e-12,
}

// cfg is the active configuration. Defaults to DefaultConfig.
var cfg = DefaultConfig

// SetConfig replaces the active configuration.
func SetConfig(c Config) {
	cfg = c
}

// GetConfig returns the active configuration.
func GetConfig() Config {
	return cfg
}
