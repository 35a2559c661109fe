// Package daycount provides day count conventions for converting date
// ranges into year fractions.
package daycount

import "time"

// Convention identifies a day count convention.
type Convention string

const (
	// Act365Fixed divides actual days by 365. Standard for FX option expiry
	// times and the zero curves in this library.
	Act365Fixed Convention = "ACT/365F"
	// Act360 divides actual days by 360. Common for money market rates.
	Act360 Convention = "ACT/360"
)

// YearFraction computes the year fraction between two dates under the
// convention. Unknown conventions fall back to ACT/365F.
func YearFraction(start, end time.Time, convention Convention) float64 {
	days := end.Sub(start).Hours() / 24
	switch convention {
	case Act360:
		return days / 360.0
	default:
		return days / 365.0
	}
}
