// Package black provides Black closed-form prices used for non-tree
// valuation and as analytic comparators: vanilla options on the forward,
// cash-or-nothing digitals, and pay-at-hit one-touch options.
//
// All functions work on raw floats (forward, strike, year fraction,
// volatility, discount factor); currency handling stays with the caller.
package black

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// Price returns the Black-76 price of a European vanilla option on the
// forward, discounted with the given discount factor.
//
// Zero volatility or zero time to expiry collapse to discounted intrinsic
// value on the forward.
func Price(forward, strike, timeToExpiry, vol, discountFactor float64, isCall bool) float64 {
	sign := 1.0
	if !isCall {
		sign = -1.0
	}
	if timeToExpiry <= 0 || vol <= 0 {
		return discountFactor * math.Max(sign*(forward-strike), 0)
	}
	sqrtVar := vol * math.Sqrt(timeToExpiry)
	d1 := (math.Log(forward/strike) + 0.5*sqrtVar*sqrtVar) / sqrtVar
	d2 := d1 - sqrtVar
	return discountFactor * sign * (forward*stdNormal.CDF(sign*d1) - strike*stdNormal.CDF(sign*d2))
}

// ForwardDelta returns the Black forward delta N(d1) (or N(d1)-1 for a
// put). The spot delta is the forward delta times the base-currency
// discount factor.
func ForwardDelta(forward, strike, timeToExpiry, vol float64, isCall bool) float64 {
	sign := 1.0
	if !isCall {
		sign = -1.0
	}
	if timeToExpiry <= 0 || vol <= 0 {
		if sign*(forward-strike) > 0 {
			return sign
		}
		return 0
	}
	sqrtVar := vol * math.Sqrt(timeToExpiry)
	d1 := (math.Log(forward/strike) + 0.5*sqrtVar*sqrtVar) / sqrtVar
	return sign * stdNormal.CDF(sign*d1)
}

// CashOrNothing returns the price per unit payment of a European digital
// paying one counter-currency unit when the option finishes in the money:
// df*N(d2) for a call, df*N(-d2) for a put.
func CashOrNothing(forward, strike, timeToExpiry, vol, discountFactor float64, isCall bool) float64 {
	sign := 1.0
	if !isCall {
		sign = -1.0
	}
	if timeToExpiry <= 0 || vol <= 0 {
		if sign*(forward-strike) > 0 {
			return discountFactor
		}
		return 0
	}
	sqrtVar := vol * math.Sqrt(timeToExpiry)
	d2 := (math.Log(forward/strike) - 0.5*sqrtVar*sqrtVar) / sqrtVar
	return discountFactor * stdNormal.CDF(sign*d2)
}

// OneTouch returns the value per unit payment of a one-touch paying one
// counter-currency unit at the first time spot touches the barrier
// (pay-at-hit), under domestic rate rd and foreign rate rf
// (Reiner-Rubinstein). A barrier already touched is worth one unit.
func OneTouch(spot, barrier, timeToExpiry, vol, rd, rf float64) float64 {
	eta := 1.0 // down barrier
	if barrier > spot {
		eta = -1.0 // up barrier
	}
	if eta*(spot-barrier) <= 0 {
		return 1
	}
	if timeToExpiry <= 0 {
		return 0
	}
	sqrtVar := vol * math.Sqrt(timeToExpiry)
	carry := rd - rf
	mu := (carry - 0.5*vol*vol) / (vol * vol)
	disc := mu*mu + 2*rd/(vol*vol)
	if disc < 0 {
		// Strongly negative domestic rates fall outside the supported
		// regime of the closed form.
		disc = 0
	}
	lambda := math.Sqrt(disc)
	z := math.Log(barrier/spot)/sqrtVar + lambda*sqrtVar
	ratio := barrier / spot
	return math.Pow(ratio, mu+lambda)*stdNormal.CDF(eta*z) +
		math.Pow(ratio, mu-lambda)*stdNormal.CDF(eta*z-2*eta*lambda*sqrtVar)
}
