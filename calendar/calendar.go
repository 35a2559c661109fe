// Package calendar provides business-day calendars, date adjustment and
// tenor arithmetic for FX quote and expiry dates.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/meenmo/fxolib/currency"
)

// CalendarID identifies a business-day calendar.
type CalendarID string

const (
	// Weekend treats Saturday and Sunday as non-business days. Used for
	// fiat currency pairs when no holiday feed is wired in.
	Weekend CalendarID = "WEEKEND"
	// AllDays treats every day as a business day. Crypto pairs trade and
	// settle seven days a week.
	AllDays CalendarID = "ALL_DAYS"
)

// cryptoCurrencies marks currencies that settle on the AllDays calendar.
var cryptoCurrencies = map[currency.Currency]struct{}{
	currency.BTC: {},
	currency.ETH: {},
	currency.BNB: {},
}

// ForCurrency returns the calendar governing dates quoted in a single
// currency.
func ForCurrency(c currency.Currency) CalendarID {
	if _, ok := cryptoCurrencies[c]; ok {
		return AllDays
	}
	return Weekend
}

// ForPair returns the calendar governing settlement dates of the pair.
func ForPair(p currency.Pair) CalendarID {
	if ForCurrency(p.Base()) == AllDays || ForCurrency(p.Counter()) == AllDays {
		return AllDays
	}
	return Weekend
}

// IsBusinessDay reports whether t is a business day on the calendar.
func IsBusinessDay(cal CalendarID, t time.Time) bool {
	if cal == AllDays {
		return true
	}
	return t.Weekday() != time.Saturday && t.Weekday() != time.Sunday
}

// Adjust applies Modified Following: roll forward to a business day, but
// fall back if that crosses a month end.
func Adjust(cal CalendarID, t time.Time) time.Time {
	origMonth := t.Month()
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	if t.Month() != origMonth {
		t = t.AddDate(0, 0, -1)
		for !IsBusinessDay(cal, t) {
			t = t.AddDate(0, 0, -1)
		}
	}
	return t
}

// AdjustFollowing rolls forward to the next business day with no month
// preservation.
func AdjustFollowing(cal CalendarID, t time.Time) time.Time {
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// AddBusinessDays advances n business days (n can be negative).
func AddBusinessDays(cal CalendarID, t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if IsBusinessDay(cal, t) {
			n -= step
		}
	}
	return t
}

// SpotDate returns the spot settlement date for a trade date, T+2 business
// days by market convention.
func SpotDate(cal CalendarID, tradeDate time.Time) time.Time {
	return AddBusinessDays(cal, tradeDate, 2)
}

// AddMonths behaves like Excel's EDATE, clamping to month end instead of
// letting Go normalize Jan 31 + 1M into March.
func AddMonths(t time.Time, months int) time.Time {
	d := t.AddDate(0, months, 0)
	target := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	if d.Month() == target.Month() {
		return d
	}
	origMonth := d.Month()
	for d.Month() == origMonth {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// AddTenor resolves a market tenor label ("ON", "1W", "3M", "1Y", ...)
// from a start date, applying Modified Following on the calendar.
func AddTenor(cal CalendarID, start time.Time, tenor string) (time.Time, error) {
	label := strings.ToUpper(strings.TrimSpace(tenor))
	if label == "ON" || label == "TN" {
		return AddBusinessDays(cal, start, 1), nil
	}
	if len(label) < 2 {
		return time.Time{}, fmt.Errorf("AddTenor: malformed tenor %q", tenor)
	}
	n, err := strconv.Atoi(label[:len(label)-1])
	if err != nil || n <= 0 {
		return time.Time{}, fmt.Errorf("AddTenor: malformed tenor %q", tenor)
	}
	var raw time.Time
	switch label[len(label)-1] {
	case 'D':
		return AddBusinessDays(cal, start, n), nil
	case 'W':
		raw = start.AddDate(0, 0, 7*n)
	case 'M':
		raw = AddMonths(start, n)
	case 'Y':
		raw = AddMonths(start, 12*n)
	default:
		return time.Time{}, fmt.Errorf("AddTenor: unknown tenor unit in %q", tenor)
	}
	return Adjust(cal, raw), nil
}
