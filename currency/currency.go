// Package currency provides currencies, currency pairs and monetary
// amounts used throughout the valuation library.
package currency

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBadPair is returned when a currency pair cannot be built or parsed.
	ErrBadPair = errors.New("invalid currency pair")
)

// Currency is an ISO-4217 style currency code. Crypto assets use their
// conventional ticker in place of an ISO code.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	JPY Currency = "JPY"
	GBP Currency = "GBP"
	CHF Currency = "CHF"
	AUD Currency = "AUD"
	KRW Currency = "KRW"

	// Crypto assets quoted and settled like currencies.
	BTC Currency = "BTC"
	ETH Currency = "ETH"
	BNB Currency = "BNB"
)

// minorUnits is the number of decimal places conventionally used when
// reporting an amount of the currency. Unlisted currencies report with 2.
var minorUnits = map[Currency]int32{
	JPY: 0,
	KRW: 0,
	BTC: 8,
	ETH: 8,
	BNB: 8,
}

// MinorUnits returns the number of decimal places used to report amounts
// of the given currency.
func MinorUnits(c Currency) int32 {
	if u, ok := minorUnits[c]; ok {
		return u
	}
	return 2
}

// Pair is an ordered currency pair. Rates on the pair are quoted as the
// number of counter currency units per one unit of the base currency.
type Pair struct {
	base    Currency
	counter Currency
}

// NewPair builds a currency pair from distinct, non-empty currencies.
func NewPair(base, counter Currency) (Pair, error) {
	if base == "" || counter == "" {
		return Pair{}, fmt.Errorf("NewPair: %w: both currencies are required", ErrBadPair)
	}
	if base == counter {
		return Pair{}, fmt.Errorf("NewPair: %w: base and counter must differ, got %s", ErrBadPair, base)
	}
	return Pair{base: base, counter: counter}, nil
}

// ParsePair parses "EUR/USD" style notation.
func ParsePair(s string) (Pair, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 {
		return Pair{}, fmt.Errorf("ParsePair: %w: want BASE/COUNTER, got %q", ErrBadPair, s)
	}
	return NewPair(Currency(strings.ToUpper(parts[0])), Currency(strings.ToUpper(parts[1])))
}

// Base returns the base currency of the pair.
func (p Pair) Base() Currency { return p.base }

// Counter returns the counter (quote) currency of the pair.
func (p Pair) Counter() Currency { return p.counter }

// Inverse returns the pair with base and counter swapped.
func (p Pair) Inverse() Pair { return Pair{base: p.counter, counter: p.base} }

// Contains reports whether c is either side of the pair.
func (p Pair) Contains(c Currency) bool { return c == p.base || c == p.counter }

// Other returns the pair's other currency given one side, or an error when
// c is not part of the pair.
func (p Pair) Other(c Currency) (Currency, error) {
	switch c {
	case p.base:
		return p.counter, nil
	case p.counter:
		return p.base, nil
	}
	return "", fmt.Errorf("Other: currency %s is not in pair %s", c, p)
}

func (p Pair) String() string { return string(p.base) + "/" + string(p.counter) }
