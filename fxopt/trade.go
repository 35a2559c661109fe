package fxopt

import (
	"fmt"

	"github.com/meenmo/fxolib/currency"
)

// Trade pairs a resolved option product with its premium payment. The
// premium is signed from the trade's point of view: negative when paid
// away.
type Trade struct {
	product ResolvedOption
	premium currency.Payment
}

// NewTrade builds a trade from a product and its premium.
func NewTrade(product ResolvedOption, premium currency.Payment) (Trade, error) {
	if product == nil {
		return Trade{}, fmt.Errorf("NewTrade: product is required")
	}
	if premium.Date.IsZero() {
		return Trade{}, fmt.Errorf("NewTrade: premium date is required")
	}
	if premium.Amount.Currency == "" {
		return Trade{}, fmt.Errorf("NewTrade: premium currency is required")
	}
	return Trade{product: product, premium: premium}, nil
}

// Product returns the resolved option.
func (t Trade) Product() ResolvedOption { return t.product }

// Premium returns the premium payment.
func (t Trade) Premium() currency.Payment { return t.premium }
