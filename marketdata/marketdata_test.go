package marketdata

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/meenmo/fxolib/calc"
	"github.com/meenmo/fxolib/currency"
	"github.com/meenmo/fxolib/fxopt"
	"github.com/meenmo/fxolib/vol"
)

var loaderValuation = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

func mustPair(t *testing.T, base, counter currency.Currency) currency.Pair {
	t.Helper()
	pair, err := currency.NewPair(base, counter)
	if err != nil {
		t.Fatalf("NewPair: %v", err)
	}
	return pair
}

func TestLoadMarket(t *testing.T) {
	t.Parallel()

	market, err := LoadMarket("testdata", loaderValuation)
	if err != nil {
		t.Fatalf("LoadMarket: %v", err)
	}
	if !market.Rates.ValuationDate().Equal(loaderValuation) {
		t.Fatalf("valuation date mismatch: got %v", market.Rates.ValuationDate())
	}

	eurUsd := mustPair(t, currency.EUR, currency.USD)
	btcUsd := mustPair(t, currency.BTC, currency.USD)
	if spot, err := market.Rates.FxRate(eurUsd); err != nil || spot != 1.25 {
		t.Fatalf("EUR/USD spot mismatch: got %v err %v", spot, err)
	}
	if spot, err := market.Rates.FxRate(btcUsd); err != nil || spot != 11235.00 {
		t.Fatalf("BTC/USD spot mismatch: got %v err %v", spot, err)
	}

	// EUR-Disc has two nodes at 6M and 1Y; beyond the last node the
	// zero rate extrapolates flat.
	eurCurve, err := market.Rates.DiscountCurve(currency.EUR)
	if err != nil {
		t.Fatalf("DiscountCurve(EUR): %v", err)
	}
	if got := eurCurve.ParameterCount(); got != 2 {
		t.Fatalf("EUR curve parameter count mismatch: got %d want 2", got)
	}
	sixMonths := 184.0 / 365.0
	if got := eurCurve.ZeroRate(sixMonths); got != 0.0100 {
		t.Fatalf("EUR 6M zero mismatch: got %v want 0.0100", got)
	}
	if got := eurCurve.ZeroRate(2.0); got != 0.0120 {
		t.Fatalf("EUR long zero mismatch: got %v want 0.0120", got)
	}
	usdCurve, err := market.Rates.DiscountCurve(currency.USD)
	if err != nil {
		t.Fatalf("DiscountCurve(USD): %v", err)
	}
	if got := usdCurve.ParameterCount(); got != 1 {
		t.Fatalf("USD curve parameter count mismatch: got %d want 1", got)
	}
	if got := usdCurve.ZeroRate(0.7); got != 0.0200 {
		t.Fatalf("USD zero mismatch: got %v want 0.0200", got)
	}

	if len(market.Vols) != 2 {
		t.Fatalf("surface count mismatch: got %d want 2", len(market.Vols))
	}
	smile, err := market.Surface(eurUsd)
	if err != nil {
		t.Fatalf("Surface(EUR/USD): %v", err)
	}
	if got, err := smile.Volatility(eurUsd, sixMonths, 1.30, 1.25); err != nil || got != 0.095 {
		t.Fatalf("6M 1.30 vol mismatch: got %v err %v", got, err)
	}
	if got, err := smile.Volatility(eurUsd, 1.0, 1.20, 1.25); err != nil || got != 0.115 {
		t.Fatalf("1Y 1.20 vol mismatch: got %v err %v", got, err)
	}
	mid, err := smile.Volatility(eurUsd, sixMonths, 1.25, 1.25)
	if err != nil {
		t.Fatalf("Volatility: %v", err)
	}
	if math.Abs(mid-0.100) > 1e-12 {
		t.Fatalf("6M 1.25 vol mismatch: got %v want 0.100", mid)
	}

	// A single quoted row yields a flat surface.
	btcSurface, err := market.Surface(btcUsd)
	if err != nil {
		t.Fatalf("Surface(BTC/USD): %v", err)
	}
	if _, ok := btcSurface.(vol.FlatSurface); !ok {
		t.Fatalf("BTC/USD surface type mismatch: got %T", btcSurface)
	}
	if got, err := btcSurface.Volatility(btcUsd, 0.25, 9000, 11000); err != nil || got != 0.70 {
		t.Fatalf("BTC/USD vol mismatch: got %v err %v", got, err)
	}
}

func TestLoadMarketMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := LoadMarket(filepath.Join(t.TempDir(), "nope"), loaderValuation); err == nil {
		t.Fatalf("expected error for missing data directory")
	}
}

func TestReadTrades(t *testing.T) {
	t.Parallel()

	rows, err := ReadTrades(filepath.Join("testdata", "trades.csv"))
	if err != nil {
		t.Fatalf("ReadTrades: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("row count mismatch: got %d want 3", len(rows))
	}

	vanillaRow := rows[0]
	if vanillaRow.Id != "FXO-1" || vanillaRow.Method != calc.MethodBlack {
		t.Fatalf("vanilla row mismatch: got %+v", vanillaRow)
	}
	vanilla, ok := vanillaRow.Trade.Product().(fxopt.VanillaOption)
	if !ok {
		t.Fatalf("product type mismatch: got %T", vanillaRow.Trade.Product())
	}
	if vanilla.Strike() != 1.30 || vanilla.PutCall() != fxopt.Call {
		t.Fatalf("vanilla terms mismatch: strike %v putcall %s", vanilla.Strike(), vanilla.PutCall())
	}
	if got := vanilla.SignedNotional(); got.Currency != currency.USD || got.Value != 1e6 {
		t.Fatalf("signed notional mismatch: got %v", got)
	}
	if !vanilla.Expiry().Equal(time.Date(2027, time.March, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expiry mismatch: got %v", vanilla.Expiry())
	}
	premium := vanillaRow.Trade.Premium()
	if premium.Amount.Currency != currency.USD || premium.Amount.Value != -25000.50 {
		t.Fatalf("premium mismatch: got %v", premium.Amount)
	}
	if !premium.Date.Equal(time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("premium date mismatch: got %v", premium.Date)
	}

	digitalRow := rows[1]
	if digitalRow.Id != "FXO-2" || digitalRow.Method != calc.MethodTrinomialTree {
		t.Fatalf("digital row mismatch: got %+v", digitalRow)
	}
	digital, ok := digitalRow.Trade.Product().(fxopt.DigitalOption)
	if !ok {
		t.Fatalf("product type mismatch: got %T", digitalRow.Trade.Product())
	}
	if digital.Style() != fxopt.European || digital.Direction() != fxopt.Up || digital.Level() != 1.30 {
		t.Fatalf("digital terms mismatch: %s %s %v", digital.Style(), digital.Direction(), digital.Level())
	}
	if got := digital.SignedNotional(); got.Currency != currency.USD || got.Value != -100000 {
		t.Fatalf("digital signed notional mismatch: got %v", got)
	}

	barrierRow := rows[2]
	barrier, ok := barrierRow.Trade.Product().(fxopt.SingleBarrierOption)
	if !ok {
		t.Fatalf("product type mismatch: got %T", barrierRow.Trade.Product())
	}
	if barrier.Barrier().Direction() != fxopt.Down || barrier.Barrier().KnockType() != fxopt.KnockOut {
		t.Fatalf("barrier terms mismatch: %+v", barrier.Barrier())
	}
	if barrier.Barrier().Level() != 1.10 || barrier.Underlying().Strike() != 1.25 {
		t.Fatalf("barrier levels mismatch: %v %v", barrier.Barrier().Level(), barrier.Underlying().Strike())
	}
	rebate, hasRebate := barrier.Rebate()
	if !hasRebate || rebate.Currency != currency.USD || rebate.Value != 10000 {
		t.Fatalf("rebate mismatch: got %v %v", rebate, hasRebate)
	}
}

func writeTradesCSV(t *testing.T, row string) string {
	t.Helper()
	header := "Id,Type,Long/Short,Pair,Expiry,Payment Date,Call/Put,Notional,Strike," +
		"Style,Direction,Knock,Level,Payment,Rebate,Rebate Currency," +
		"Premium,Premium Currency,Premium Date,Method"
	path := filepath.Join(t.TempDir(), "trades.csv")
	if err := os.WriteFile(path, []byte(header+"\n"+row+"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestReadTradesRejectsMalformedRows(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		row  string
		want string
	}{
		{
			name: "unknown product type",
			row:  "FXO-9,Swap,Long,EUR/USD,2027-03-02,,,,,,,,,,,,0,USD,2026-03-04,",
			want: "unknown product type",
		},
		{
			name: "bad expiry",
			row:  "FXO-9,Vanilla,Long,EUR/USD,soon,2027-03-04,Call,1000000,1.30,,,,,,,,0,USD,2026-03-04,",
			want: "unparseable date",
		},
		{
			name: "bad notional",
			row:  "FXO-9,Vanilla,Long,EUR/USD,2027-03-02,2027-03-04,Call,1x0,1.30,,,,,,,,0,USD,2026-03-04,",
			want: "Notional",
		},
		{
			name: "bad pair",
			row:  "FXO-9,Vanilla,Long,EURUSD,2027-03-02,2027-03-04,Call,1000000,1.30,,,,,,,,0,USD,2026-03-04,",
			want: "invalid currency pair",
		},
		{
			name: "unknown method",
			row:  "FXO-9,Vanilla,Long,EUR/USD,2027-03-02,2027-03-04,Call,1000000,1.30,,,,,,,,0,USD,2026-03-04,MonteCarlo",
			want: "unknown method",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ReadTrades(writeTradesCSV(t, tc.row))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), "FXO-9") || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error mismatch: got %v", err)
			}
		})
	}
}

func TestAssembleCurves(t *testing.T) {
	t.Parallel()

	// Nodes arrive unsorted; assembly orders them by resolved time.
	nodes := []CurveNode{
		{CurveName: "EUR-Disc", Currency: currency.EUR, Label: "1Y", Zero: 0.012},
		{CurveName: "EUR-Disc", Currency: currency.EUR, Label: "6M", Zero: 0.010},
	}
	curves, err := AssembleCurves(nodes, loaderValuation)
	if err != nil {
		t.Fatalf("AssembleCurves: %v", err)
	}
	curve, ok := curves[currency.EUR]
	if !ok {
		t.Fatalf("missing EUR curve")
	}
	if got := curve.ZeroRate(184.0 / 365.0); got != 0.010 {
		t.Fatalf("6M zero mismatch: got %v want 0.010", got)
	}
	if got := curve.ZeroRate(1.0); got != 0.012 {
		t.Fatalf("1Y zero mismatch: got %v want 0.012", got)
	}

	mixed := []CurveNode{
		{CurveName: "X", Currency: currency.EUR, Label: "6M", Zero: 0.01},
		{CurveName: "X", Currency: currency.USD, Label: "1Y", Zero: 0.02},
	}
	if _, err := AssembleCurves(mixed, loaderValuation); err == nil || !strings.Contains(err.Error(), "mixes currencies") {
		t.Fatalf("mixed-currency error mismatch: got %v", err)
	}

	duplicate := []CurveNode{
		{CurveName: "A", Currency: currency.EUR, Label: "6M", Zero: 0.01},
		{CurveName: "B", Currency: currency.EUR, Label: "1Y", Zero: 0.02},
	}
	if _, err := AssembleCurves(duplicate, loaderValuation); err == nil || !strings.Contains(err.Error(), "duplicate discount curve") {
		t.Fatalf("duplicate-currency error mismatch: got %v", err)
	}

	badTenor := []CurveNode{
		{CurveName: "A", Currency: currency.EUR, Label: "soon", Zero: 0.01},
	}
	if _, err := AssembleCurves(badTenor, loaderValuation); err == nil {
		t.Fatalf("expected error for malformed tenor")
	}
}

func TestAssembleFxRates(t *testing.T) {
	t.Parallel()

	eurUsd := mustPair(t, currency.EUR, currency.USD)
	fx, err := AssembleFxRates([]FxQuote{{Pair: eurUsd, Rate: 1.25}})
	if err != nil || fx[eurUsd] != 1.25 {
		t.Fatalf("AssembleFxRates mismatch: got %v err %v", fx, err)
	}
	if _, err := AssembleFxRates([]FxQuote{{Pair: eurUsd, Rate: 1.25}, {Pair: eurUsd, Rate: 1.26}}); err == nil {
		t.Fatalf("expected error for duplicate pair")
	}
	if _, err := AssembleFxRates([]FxQuote{{Pair: eurUsd, Rate: 0}}); err == nil {
		t.Fatalf("expected error for non-positive rate")
	}
}

func TestAssembleSurfaces(t *testing.T) {
	t.Parallel()

	eurUsd := mustPair(t, currency.EUR, currency.USD)

	// Quotes arrive strike-unsorted within a term.
	quotes := []VolQuote{
		{Pair: eurUsd, Label: "6M", Strike: 1.30, Vol: 0.095},
		{Pair: eurUsd, Label: "6M", Strike: 1.20, Vol: 0.105},
		{Pair: eurUsd, Label: "1Y", Strike: 1.20, Vol: 0.115},
		{Pair: eurUsd, Label: "1Y", Strike: 1.30, Vol: 0.100},
	}
	surfaces, err := AssembleSurfaces(quotes, loaderValuation)
	if err != nil {
		t.Fatalf("AssembleSurfaces: %v", err)
	}
	surface, ok := surfaces[eurUsd]
	if !ok {
		t.Fatalf("missing EUR/USD surface")
	}
	if got, err := surface.Volatility(eurUsd, 184.0/365.0, 1.20, 1.25); err != nil || got != 0.105 {
		t.Fatalf("6M 1.20 vol mismatch: got %v err %v", got, err)
	}

	dup := append(quotes, VolQuote{Pair: eurUsd, Label: "6M", Strike: 1.30, Vol: 0.09})
	if _, err := AssembleSurfaces(dup, loaderValuation); err == nil {
		t.Fatalf("expected error for duplicate strike quote")
	}

	smileless := []VolQuote{{Pair: eurUsd, Label: "1Y", Strike: 0, Vol: 0.10}}
	flat, err := AssembleSurfaces(smileless, loaderValuation)
	if err != nil {
		t.Fatalf("AssembleSurfaces: %v", err)
	}
	if _, ok := flat[eurUsd].(vol.FlatSurface); !ok {
		t.Fatalf("surface type mismatch: got %T", flat[eurUsd])
	}
}
