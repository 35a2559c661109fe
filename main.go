// Demo: prices a small crypto and FX option portfolio on the implied
// trinomial tree and prints the measure table.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/meenmo/fxolib/calc"
	"github.com/meenmo/fxolib/currency"
	"github.com/meenmo/fxolib/fxopt"
	"github.com/meenmo/fxolib/rates"
	"github.com/meenmo/fxolib/vol"
)

var (
	valuationDate = time.Date(2014, 1, 22, 0, 0, 0, 0, time.UTC)
	btcExpiry     = time.Date(2015, 1, 22, 12, 0, 0, 0, time.UTC)
	btcUsd        = mustPair("BTC/USD")
	eurUsd        = mustPair("EUR/USD")
)

func main() {
	fmt.Println("================================================================================")
	fmt.Println("FX OPTION PORTFOLIO ON THE IMPLIED TRINOMIAL TREE")
	fmt.Println("================================================================================")
	fmt.Println("Valuation Date:", valuationDate.Format("2006-01-02"))
	fmt.Println()

	market, err := buildMarket()
	if err != nil {
		fatal(err)
	}
	rows, err := buildPortfolio()
	if err != nil {
		fatal(err)
	}

	fmt.Printf("Portfolio: %d trades\n", len(rows))
	fmt.Println("Market: BTC/USD 11235.00 at 70% flat vol, EUR/USD 1.3550 with smile")
	fmt.Println()

	runner, err := calc.NewRunner(calc.RunnerParams{})
	if err != nil {
		fatal(err)
	}
	measures := []calc.Measure{
		calc.MeasurePresentValue,
		calc.MeasurePv01Sum,
		calc.MeasurePv01Bucketed,
		calc.MeasureCurrencyExposure,
		calc.MeasureCurrentCash,
	}
	results, err := runner.Run(rows, measures, market)
	if err != nil {
		fatal(err)
	}
	if err := results.WriteTable(os.Stdout); err != nil {
		fatal(err)
	}
	fmt.Println("================================================================================")
}

func buildMarket() (calc.Market, error) {
	provider, err := rates.NewProvider(rates.ProviderParams{
		ValuationDate: valuationDate,
		FxRates: map[currency.Pair]float64{
			btcUsd: 11235.00,
			eurUsd: 1.3550,
		},
		DiscountCurves: map[currency.Currency]rates.Curve{
			currency.USD: rates.NewConstantCurve("USD-Disc", 0.0150),
			currency.BTC: rates.NewConstantCurve("BTC-Disc", 0),
			currency.EUR: rates.NewConstantCurve("EUR-Disc", 0.0025),
		},
	})
	if err != nil {
		return calc.Market{}, err
	}
	btcVol, err := vol.NewFlatSurface(btcUsd, valuationDate, 0.70)
	if err != nil {
		return calc.Market{}, err
	}
	eurVol, err := vol.NewSmileSurface(eurUsd, valuationDate, []vol.SmileTerm{
		{Time: 0.5, Strikes: []float64{1.25, 1.35, 1.45}, Vols: []float64{0.108, 0.096, 0.102}},
		{Time: 1.0, Strikes: []float64{1.25, 1.35, 1.45}, Vols: []float64{0.112, 0.100, 0.106}},
	})
	if err != nil {
		return calc.Market{}, err
	}
	return calc.Market{
		Rates: provider,
		Vols: map[currency.Pair]vol.Surface{
			btcUsd: btcVol,
			eurUsd: eurVol,
		},
	}, nil
}

func buildPortfolio() ([]calc.Row, error) {
	var rows []calc.Row

	// Cash-or-nothing digitals around the 11000 level, both positions
	// and both directions.
	for _, direction := range []fxopt.BarrierDirection{fxopt.Up, fxopt.Down} {
		for _, position := range []fxopt.LongShort{fxopt.Long, fxopt.Short} {
			digital, err := fxopt.NewDigitalOption(fxopt.DigitalOptionParams{
				LongShort: position,
				Pair:      btcUsd,
				Expiry:    btcExpiry,
				Style:     fxopt.European,
				Direction: direction,
				Level:     11000,
				Payment:   currency.NewAmount(currency.USD, 10000),
			})
			if err != nil {
				return nil, err
			}
			trade, err := fxopt.NewTrade(digital, zeroPremium())
			if err != nil {
				return nil, err
			}
			id := fmt.Sprintf("digital-%s-%s",
				strings.ToLower(string(position)), strings.ToLower(string(direction)))
			rows = append(rows, calc.Row{Id: id, Trade: trade})
		}
	}

	// Calls on one bitcoin struck at 11000 and 11010.
	for _, strike := range []float64{11000, 11010} {
		underlying, err := fxopt.NewFxSingle(
			currency.NewAmount(currency.BTC, 1),
			currency.NewAmount(currency.USD, -strike),
			time.Date(2015, 1, 22, 0, 0, 0, 0, time.UTC),
		)
		if err != nil {
			return nil, err
		}
		vanilla, err := fxopt.NewVanillaOption(fxopt.Long, btcExpiry, underlying)
		if err != nil {
			return nil, err
		}
		trade, err := fxopt.NewTrade(vanilla, zeroPremium())
		if err != nil {
			return nil, err
		}
		rows = append(rows, calc.Row{Id: fmt.Sprintf("call-%.0f", strike), Trade: trade})
	}

	barrierTrade, err := buildBarrierTrade()
	if err != nil {
		return nil, err
	}
	rows = append(rows, calc.Row{Id: "eurusd-dko", Trade: barrierTrade})

	return rows, nil
}

// buildBarrierTrade sets up a six month EUR/USD down-and-out call with
// a USD rebate paid when the barrier knocks the option out.
func buildBarrierTrade() (fxopt.Trade, error) {
	expiry := time.Date(2014, 7, 22, 10, 0, 0, 0, time.UTC)
	underlying, err := fxopt.NewFxSingle(
		currency.NewAmount(currency.EUR, 1_000_000),
		currency.NewAmount(currency.USD, -1_350_000),
		time.Date(2014, 7, 24, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		return fxopt.Trade{}, err
	}
	vanilla, err := fxopt.NewVanillaOption(fxopt.Long, expiry, underlying)
	if err != nil {
		return fxopt.Trade{}, err
	}
	barrier, err := fxopt.NewBarrier(fxopt.Down, fxopt.KnockOut, 1.3000)
	if err != nil {
		return fxopt.Trade{}, err
	}
	option, err := fxopt.NewSingleBarrierOptionWithRebate(vanilla, barrier, currency.NewAmount(currency.USD, 10000))
	if err != nil {
		return fxopt.Trade{}, err
	}
	return fxopt.NewTrade(option, currency.Payment{
		Amount: currency.NewAmount(currency.USD, -25000),
		Date:   time.Date(2014, 1, 24, 0, 0, 0, 0, time.UTC),
	})
}

func zeroPremium() currency.Payment {
	return currency.Payment{Amount: currency.NewAmount(currency.USD, 0), Date: valuationDate}
}

func mustPair(s string) currency.Pair {
	p, err := currency.ParsePair(s)
	if err != nil {
		panic(err)
	}
	return p
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
