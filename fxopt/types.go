// Package fxopt models resolved FX option products and prices them on
// the implied trinomial tree: vanilla, digital and one-touch payoffs
// and single continuous-barrier options with knock-in/knock-out parity,
// with present value, currency exposure and bump-and-reprice curve
// sensitivities.
package fxopt

// PutCall distinguishes calls from puts on the base currency.
type PutCall string

const (
	Call PutCall = "Call"
	Put  PutCall = "Put"
)

// IsCall reports whether the option is a call.
func (p PutCall) IsCall() bool { return p == Call }

func (p PutCall) valid() bool { return p == Call || p == Put }

// LongShort tells whether the trade holds or has written the option.
type LongShort string

const (
	Long  LongShort = "Long"
	Short LongShort = "Short"
)

// Sign returns +1 for long and -1 for short.
func (l LongShort) Sign() float64 {
	if l == Short {
		return -1
	}
	return 1
}

func (l LongShort) valid() bool { return l == Long || l == Short }

// BarrierDirection tells on which side of spot a level is monitored: an
// Up level is touched from below, a Down level from above. For a
// European digital it is the side of the strike that pays.
type BarrierDirection string

const (
	Up   BarrierDirection = "Up"
	Down BarrierDirection = "Down"
)

func (b BarrierDirection) valid() bool { return b == Up || b == Down }

// KnockType tells whether touching the barrier activates or
// extinguishes the underlying option.
type KnockType string

const (
	KnockIn  KnockType = "In"
	KnockOut KnockType = "Out"
)

func (k KnockType) valid() bool { return k == KnockIn || k == KnockOut }

// DigitalStyle distinguishes a payment on the expiry fixing from a
// payment on the first touch of the level.
type DigitalStyle string

const (
	European DigitalStyle = "European"
	OneTouch DigitalStyle = "OneTouch"
)

func (s DigitalStyle) valid() bool { return s == European || s == OneTouch }
