package currency

import (
	"fmt"
	"sort"
	"time"
)

// Amount is a monetary amount in a single currency. Negative values
// represent amounts payable.
type Amount struct {
	Currency Currency
	Value    float64
}

// NewAmount builds an amount.
func NewAmount(c Currency, value float64) Amount {
	return Amount{Currency: c, Value: value}
}

// Plus adds an amount in the same currency.
func (a Amount) Plus(b Amount) (Amount, error) {
	if a.Currency != b.Currency {
		return Amount{}, fmt.Errorf("Plus: currency mismatch: %s vs %s", a.Currency, b.Currency)
	}
	return Amount{Currency: a.Currency, Value: a.Value + b.Value}, nil
}

// MultipliedBy scales the amount.
func (a Amount) MultipliedBy(f float64) Amount {
	return Amount{Currency: a.Currency, Value: a.Value * f}
}

// Negated flips the sign of the amount.
func (a Amount) Negated() Amount {
	return Amount{Currency: a.Currency, Value: -a.Value}
}

func (a Amount) String() string {
	return fmt.Sprintf("%s %.*f", a.Currency, MinorUnits(a.Currency), a.Value)
}

// MultiAmount is an immutable set of amounts in distinct currencies.
// The zero value is an empty set.
type MultiAmount struct {
	amounts map[Currency]float64
}

// NewMultiAmount builds a multi-currency amount, merging duplicates.
func NewMultiAmount(amounts ...Amount) MultiAmount {
	m := MultiAmount{amounts: make(map[Currency]float64, len(amounts))}
	for _, a := range amounts {
		m.amounts[a.Currency] += a.Value
	}
	return m
}

// Plus returns a new set with the amount merged in.
func (m MultiAmount) Plus(a Amount) MultiAmount {
	out := make(map[Currency]float64, len(m.amounts)+1)
	for c, v := range m.amounts {
		out[c] = v
	}
	out[a.Currency] += a.Value
	return MultiAmount{amounts: out}
}

// PlusMulti merges two sets.
func (m MultiAmount) PlusMulti(o MultiAmount) MultiAmount {
	out := m
	for _, c := range o.Currencies() {
		out = out.Plus(Amount{Currency: c, Value: o.amounts[c]})
	}
	return out
}

// Amount returns the amount held in c, zero when absent.
func (m MultiAmount) Amount(c Currency) Amount {
	return Amount{Currency: c, Value: m.amounts[c]}
}

// Currencies lists the held currencies in code order.
func (m MultiAmount) Currencies() []Currency {
	out := make([]Currency, 0, len(m.amounts))
	for c := range m.amounts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (m MultiAmount) String() string {
	s := ""
	for i, c := range m.Currencies() {
		if i > 0 {
			s += " + "
		}
		s += m.Amount(c).String()
	}
	if s == "" {
		return "(empty)"
	}
	return s
}

// Payment is a monetary amount paid on a date. Negative amounts are paid
// away, positive amounts are received.
type Payment struct {
	Amount Amount
	Date   time.Time
}
