package fxopt

import (
	"fmt"
	"math"
	"time"

	"github.com/meenmo/fxolib/currency"
)

// ResolvedOption is the closed set of option variants the pricers
// dispatch on. Adding a variant means adding a dispatch arm, checked at
// compile time rather than discovered at runtime.
type ResolvedOption interface {
	// Pair returns the option's currency pair.
	Pair() currency.Pair
	// Expiry returns the expiry date and time.
	Expiry() time.Time
	// SignedNotional returns the amount a unit price is scaled by for
	// present value, in the pair's counter currency, signed by
	// long/short.
	SignedNotional() currency.Amount

	resolvedOption()
}

// dateOf strips the clock from a timestamp for date-level comparisons.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FxSingle is a single FX exchange: two opposite payments in different
// currencies settling on one date.
type FxSingle struct {
	baseAmount    currency.Amount
	counterAmount currency.Amount
	paymentDate   time.Time
}

// NewFxSingle builds an exchange of base against counter. The amounts
// must be non-zero, of opposite sign and in currencies forming a valid
// pair.
func NewFxSingle(base, counter currency.Amount, paymentDate time.Time) (FxSingle, error) {
	if _, err := currency.NewPair(base.Currency, counter.Currency); err != nil {
		return FxSingle{}, fmt.Errorf("NewFxSingle: %w", err)
	}
	if base.Value == 0 || counter.Value == 0 {
		return FxSingle{}, fmt.Errorf("NewFxSingle: amounts must be non-zero")
	}
	if base.Value*counter.Value > 0 {
		return FxSingle{}, fmt.Errorf("NewFxSingle: amounts must have opposite signs, got %v and %v", base.Value, counter.Value)
	}
	if paymentDate.IsZero() {
		return FxSingle{}, fmt.Errorf("NewFxSingle: payment date is required")
	}
	return FxSingle{baseAmount: base, counterAmount: counter, paymentDate: paymentDate}, nil
}

// BaseAmount returns the payment in the pair's base currency.
func (f FxSingle) BaseAmount() currency.Amount { return f.baseAmount }

// CounterAmount returns the payment in the pair's counter currency.
func (f FxSingle) CounterAmount() currency.Amount { return f.counterAmount }

// PaymentDate returns the settlement date.
func (f FxSingle) PaymentDate() time.Time { return f.paymentDate }

// Pair returns the exchange's currency pair, base over counter.
func (f FxSingle) Pair() currency.Pair {
	pair, _ := currency.NewPair(f.baseAmount.Currency, f.counterAmount.Currency)
	return pair
}

// VanillaOption is a resolved European FX option: the right to enter
// the underlying exchange at expiry.
type VanillaOption struct {
	longShort  LongShort
	expiry     time.Time
	underlying FxSingle
}

// NewVanillaOption builds a vanilla option. The underlying must not
// settle before the expiry date.
func NewVanillaOption(longShort LongShort, expiry time.Time, underlying FxSingle) (VanillaOption, error) {
	if !longShort.valid() {
		return VanillaOption{}, fmt.Errorf("NewVanillaOption: unknown long/short %q", longShort)
	}
	if expiry.IsZero() {
		return VanillaOption{}, fmt.Errorf("NewVanillaOption: expiry is required")
	}
	if dateOf(underlying.PaymentDate()).Before(dateOf(expiry)) {
		return VanillaOption{}, fmt.Errorf("NewVanillaOption: payment date %s is before expiry %s",
			underlying.PaymentDate().Format("2006-01-02"), expiry.Format("2006-01-02"))
	}
	return VanillaOption{longShort: longShort, expiry: expiry, underlying: underlying}, nil
}

// LongShort returns whether the option is held or written.
func (o VanillaOption) LongShort() LongShort { return o.longShort }

// Expiry implements ResolvedOption.
func (o VanillaOption) Expiry() time.Time { return o.expiry }

// Underlying returns the exchange delivered on exercise.
func (o VanillaOption) Underlying() FxSingle { return o.underlying }

// Pair implements ResolvedOption.
func (o VanillaOption) Pair() currency.Pair { return o.underlying.Pair() }

// Strike returns the counter amount per unit of base notional.
func (o VanillaOption) Strike() float64 {
	return math.Abs(o.underlying.counterAmount.Value) / math.Abs(o.underlying.baseAmount.Value)
}

// PutCall derives the option style from the underlying: receiving the
// base currency is a call on the pair.
func (o VanillaOption) PutCall() PutCall {
	if o.underlying.baseAmount.Value > 0 {
		return Call
	}
	return Put
}

// SignedNotional returns the base notional magnitude signed by
// long/short, denominated in the counter currency the tree price is
// expressed in.
func (o VanillaOption) SignedNotional() currency.Amount {
	return currency.NewAmount(o.underlying.counterAmount.Currency,
		o.longShort.Sign()*math.Abs(o.underlying.baseAmount.Value))
}

func (o VanillaOption) resolvedOption() {}

// DigitalOptionParams defines the inputs of NewDigitalOption.
type DigitalOptionParams struct {
	// LongShort tells whether the payment is received or owed.
	LongShort LongShort
	// Pair is the observed currency pair.
	Pair currency.Pair
	// Expiry is the expiry date and time.
	Expiry time.Time
	// Style selects a payment on the expiry fixing or on first touch.
	Style DigitalStyle
	// Direction is the side of the level that pays: Up pays above the
	// level (or on touching it from below), Down the reverse.
	Direction BarrierDirection
	// Level is the strike for European style, the touch level for
	// one-touch style.
	Level float64
	// Payment is the fixed amount paid, in the pair's counter currency.
	Payment currency.Amount
}

// DigitalOption is a resolved cash-or-nothing option: a fixed counter
// currency payment made when the spot fixing (European) or any spot
// observation (one-touch) lies on the agreed side of the level.
// One-touch payments settle on touch.
type DigitalOption struct {
	longShort LongShort
	pair      currency.Pair
	expiry    time.Time
	style     DigitalStyle
	direction BarrierDirection
	level     float64
	payment   currency.Amount
}

// NewDigitalOption validates the params and builds a digital option.
func NewDigitalOption(params DigitalOptionParams) (DigitalOption, error) {
	if !params.LongShort.valid() {
		return DigitalOption{}, fmt.Errorf("NewDigitalOption: unknown long/short %q", params.LongShort)
	}
	if params.Pair.Base() == "" || params.Pair.Counter() == "" {
		return DigitalOption{}, fmt.Errorf("NewDigitalOption: Pair is required")
	}
	if params.Expiry.IsZero() {
		return DigitalOption{}, fmt.Errorf("NewDigitalOption: Expiry is required")
	}
	if !params.Style.valid() {
		return DigitalOption{}, fmt.Errorf("NewDigitalOption: unknown style %q", params.Style)
	}
	if !params.Direction.valid() {
		return DigitalOption{}, fmt.Errorf("NewDigitalOption: unknown direction %q", params.Direction)
	}
	if params.Level <= 0 {
		return DigitalOption{}, fmt.Errorf("NewDigitalOption: Level must be positive, got %v", params.Level)
	}
	if params.Payment.Value <= 0 {
		return DigitalOption{}, fmt.Errorf("NewDigitalOption: Payment must be positive, got %v", params.Payment.Value)
	}
	if params.Payment.Currency != params.Pair.Counter() {
		return DigitalOption{}, fmt.Errorf("NewDigitalOption: payment currency %s is not the counter currency of %s",
			params.Payment.Currency, params.Pair)
	}
	return DigitalOption{
		longShort: params.LongShort,
		pair:      params.Pair,
		expiry:    params.Expiry,
		style:     params.Style,
		direction: params.Direction,
		level:     params.Level,
		payment:   params.Payment,
	}, nil
}

// LongShort returns whether the payment is received or owed.
func (o DigitalOption) LongShort() LongShort { return o.longShort }

// Pair implements ResolvedOption.
func (o DigitalOption) Pair() currency.Pair { return o.pair }

// Expiry implements ResolvedOption.
func (o DigitalOption) Expiry() time.Time { return o.expiry }

// Style returns the digital style.
func (o DigitalOption) Style() DigitalStyle { return o.style }

// Direction returns the paying side of the level.
func (o DigitalOption) Direction() BarrierDirection { return o.direction }

// Level returns the strike or touch level.
func (o DigitalOption) Level() float64 { return o.level }

// Payment returns the fixed payment amount.
func (o DigitalOption) Payment() currency.Amount { return o.payment }

// SignedNotional returns the payment amount signed by long/short.
func (o DigitalOption) SignedNotional() currency.Amount {
	return o.payment.MultipliedBy(o.longShort.Sign())
}

func (o DigitalOption) resolvedOption() {}

// Barrier is a continuously monitored knock specification.
type Barrier struct {
	direction BarrierDirection
	knockType KnockType
	level     float64
}

// NewBarrier builds a barrier at a positive level.
func NewBarrier(direction BarrierDirection, knockType KnockType, level float64) (Barrier, error) {
	if !direction.valid() {
		return Barrier{}, fmt.Errorf("NewBarrier: unknown direction %q", direction)
	}
	if !knockType.valid() {
		return Barrier{}, fmt.Errorf("NewBarrier: unknown knock type %q", knockType)
	}
	if level <= 0 {
		return Barrier{}, fmt.Errorf("NewBarrier: level must be positive, got %v", level)
	}
	return Barrier{direction: direction, knockType: knockType, level: level}, nil
}

// Direction returns the monitored side.
func (b Barrier) Direction() BarrierDirection { return b.direction }

// KnockType returns whether touch activates or extinguishes.
func (b Barrier) KnockType() KnockType { return b.knockType }

// Level returns the barrier level.
func (b Barrier) Level() float64 { return b.level }

// SingleBarrierOption wraps a vanilla option with one continuously
// monitored barrier and an optional rebate. A knock-out rebate pays on
// touch; a knock-in rebate pays at expiry when the barrier was never
// touched.
type SingleBarrierOption struct {
	underlying VanillaOption
	barrier    Barrier
	rebate     *currency.Amount
}

// NewSingleBarrierOption builds a barrier option without rebate.
func NewSingleBarrierOption(underlying VanillaOption, barrier Barrier) (SingleBarrierOption, error) {
	if !underlying.longShort.valid() {
		return SingleBarrierOption{}, fmt.Errorf("NewSingleBarrierOption: underlying is required")
	}
	if barrier.level == 0 {
		return SingleBarrierOption{}, fmt.Errorf("NewSingleBarrierOption: barrier is required")
	}
	return SingleBarrierOption{underlying: underlying, barrier: barrier}, nil
}

// NewSingleBarrierOptionWithRebate builds a barrier option paying the
// given positive rebate, in either currency of the pair.
func NewSingleBarrierOptionWithRebate(underlying VanillaOption, barrier Barrier, rebate currency.Amount) (SingleBarrierOption, error) {
	option, err := NewSingleBarrierOption(underlying, barrier)
	if err != nil {
		return SingleBarrierOption{}, err
	}
	if rebate.Value <= 0 {
		return SingleBarrierOption{}, fmt.Errorf("NewSingleBarrierOptionWithRebate: rebate must be positive, got %v", rebate.Value)
	}
	if !underlying.Pair().Contains(rebate.Currency) {
		return SingleBarrierOption{}, fmt.Errorf("NewSingleBarrierOptionWithRebate: rebate currency %s is not part of %s",
			rebate.Currency, underlying.Pair())
	}
	option.rebate = &rebate
	return option, nil
}

// Underlying returns the wrapped vanilla option.
func (o SingleBarrierOption) Underlying() VanillaOption { return o.underlying }

// Barrier returns the knock specification.
func (o SingleBarrierOption) Barrier() Barrier { return o.barrier }

// Rebate returns the rebate amount and whether one was agreed.
func (o SingleBarrierOption) Rebate() (currency.Amount, bool) {
	if o.rebate == nil {
		return currency.Amount{}, false
	}
	return *o.rebate, true
}

// Pair implements ResolvedOption.
func (o SingleBarrierOption) Pair() currency.Pair { return o.underlying.Pair() }

// Expiry implements ResolvedOption.
func (o SingleBarrierOption) Expiry() time.Time { return o.underlying.Expiry() }

// SignedNotional implements ResolvedOption, delegating to the wrapped
// vanilla option.
func (o SingleBarrierOption) SignedNotional() currency.Amount {
	return o.underlying.SignedNotional()
}

func (o SingleBarrierOption) resolvedOption() {}
