package currency

import (
	"math"
	"testing"
)

func TestParsePair(t *testing.T) {
	t.Parallel()

	p, err := ParsePair("eur/usd")
	if err != nil {
		t.Fatalf("ParsePair: %v", err)
	}
	if p.Base() != EUR || p.Counter() != USD {
		t.Fatalf("pair mismatch: got %s want EUR/USD", p)
	}
	if got := p.Inverse().String(); got != "USD/EUR" {
		t.Fatalf("inverse mismatch: got %s want USD/EUR", got)
	}
	if !p.Contains(USD) || p.Contains(JPY) {
		t.Fatalf("Contains misbehaves for %s", p)
	}

	other, err := p.Other(EUR)
	if err != nil || other != USD {
		t.Fatalf("Other(EUR) = %s, %v; want USD", other, err)
	}
	if _, err := p.Other(KRW); err == nil {
		t.Fatal("Other(KRW) should fail for EUR/USD")
	}
}

func TestParsePairRejectsMalformed(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", "EURUSD", "EUR/", "EUR/EUR", "EUR/USD/JPY"} {
		if _, err := ParsePair(s); err == nil {
			t.Fatalf("ParsePair(%q) should fail", s)
		}
	}
}

func TestMinorUnits(t *testing.T) {
	t.Parallel()

	cases := []struct {
		ccy  Currency
		want int32
	}{
		{USD, 2},
		{JPY, 0},
		{KRW, 0},
		{BTC, 8},
		{Currency("NOK"), 2},
	}
	for _, c := range cases {
		if got := MinorUnits(c.ccy); got != c.want {
			t.Fatalf("MinorUnits(%s) mismatch: got %d want %d", c.ccy, got, c.want)
		}
	}
}

func TestAmountArithmetic(t *testing.T) {
	t.Parallel()

	a := NewAmount(USD, 100)
	b := NewAmount(USD, -40)
	sum, err := a.Plus(b)
	if err != nil {
		t.Fatalf("Plus: %v", err)
	}
	if math.Abs(sum.Value-60) > 1e-12 {
		t.Fatalf("sum mismatch: got %v want 60", sum.Value)
	}
	if _, err := a.Plus(NewAmount(EUR, 1)); err == nil {
		t.Fatal("Plus across currencies should fail")
	}
	if got := a.MultipliedBy(-2).Value; got != -200 {
		t.Fatalf("MultipliedBy mismatch: got %v want -200", got)
	}
	if got := a.Negated().Value; got != -100 {
		t.Fatalf("Negated mismatch: got %v want -100", got)
	}
}

func TestMultiAmount(t *testing.T) {
	t.Parallel()

	m := NewMultiAmount(NewAmount(USD, 10), NewAmount(EUR, 5), NewAmount(USD, 2.5))
	if got := m.Amount(USD).Value; math.Abs(got-12.5) > 1e-12 {
		t.Fatalf("USD amount mismatch: got %v want 12.5", got)
	}
	if got := m.Amount(JPY).Value; got != 0 {
		t.Fatalf("absent currency should be zero, got %v", got)
	}

	m2 := m.Plus(NewAmount(JPY, 1000))
	if got := m.Amount(JPY).Value; got != 0 {
		t.Fatalf("Plus must not mutate the receiver, got %v", got)
	}
	ccys := m2.Currencies()
	if len(ccys) != 3 || ccys[0] != EUR || ccys[1] != JPY || ccys[2] != USD {
		t.Fatalf("Currencies mismatch: got %v", ccys)
	}

	merged := m.PlusMulti(NewMultiAmount(NewAmount(EUR, -5)))
	if got := merged.Amount(EUR).Value; got != 0 {
		t.Fatalf("PlusMulti mismatch: got %v want 0", got)
	}
}
