// Command fxoptprice prices a single FX option on the implied
// trinomial tree and prints the unit price, present value, spot delta
// and currency exposure, with optional bucketed curve sensitivities.
//
// Market data comes either from a directory of CSV snapshots (-data,
// default $FXOLIB_DATA_DIR) or from inline flat-market flags.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/meenmo/fxolib/calc"
	"github.com/meenmo/fxolib/calendar"
	"github.com/meenmo/fxolib/currency"
	"github.com/meenmo/fxolib/fxopt"
	"github.com/meenmo/fxolib/fxopt/tree"
	"github.com/meenmo/fxolib/marketdata"
	"github.com/meenmo/fxolib/rates"
	"github.com/meenmo/fxolib/vol"
)

const usageText = `fxoptprice prices a single FX option on the implied trinomial tree.

Usage:
  fxoptprice <command> [flags]

Commands:
  vanilla   European vanilla option
  digital   European cash-or-nothing digital
  touch     one-touch digital
  barrier   single barrier option

Market data comes from -data (a directory holding curves.csv,
fx_rates.csv and vols.csv, default $FXOLIB_DATA_DIR) or, when -data is
empty, from the inline flat market flags -spot, -vol, -rate-base and
-rate-counter.

Run 'fxoptprice <command> -h' for the command's flags.
`

func main() {
	godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "vanilla":
		err = runVanilla(os.Args[2:])
	case "digital":
		err = runDigital(os.Args[2:])
	case "touch":
		err = runTouch(os.Args[2:])
	case "barrier":
		err = runBarrier(os.Args[2:])
	case "help", "-h", "-help", "--help":
		fmt.Print(usageText)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// commonFlags are the market, engine and output flags every command
// shares.
type commonFlags struct {
	data        string
	date        string
	pair        string
	spot        float64
	vol         float64
	rateBase    float64
	rateCounter float64
	steps       int
	pv01        bool
}

func (f *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.data, "data", os.Getenv("FXOLIB_DATA_DIR"), "market data directory with curves.csv, fx_rates.csv and vols.csv")
	fs.StringVar(&f.date, "date", "", "valuation date, YYYY-MM-DD (default today)")
	fs.StringVar(&f.pair, "pair", "EUR/USD", "currency pair as BASE/COUNTER")
	fs.Float64Var(&f.spot, "spot", 0, "spot rate for the inline flat market (used when -data is empty)")
	fs.Float64Var(&f.vol, "vol", 0.10, "flat Black volatility for the inline market")
	fs.Float64Var(&f.rateBase, "rate-base", 0, "base currency zero rate for the inline market")
	fs.Float64Var(&f.rateCounter, "rate-counter", 0, "counter currency zero rate for the inline market")
	fs.IntVar(&f.steps, "steps", 0, "tree time steps, 0 for the default")
	fs.BoolVar(&f.pv01, "pv01", false, "print curve sensitivities")
}

// resolve parses the pair and valuation date and builds the market,
// either loaded from the CSV directory or assembled inline.
func (f *commonFlags) resolve() (currency.Pair, calc.Market, error) {
	pair, err := currency.ParsePair(f.pair)
	if err != nil {
		return currency.Pair{}, calc.Market{}, err
	}

	valuation := time.Now().UTC().Truncate(24 * time.Hour)
	if f.date != "" {
		valuation, err = time.Parse("2006-01-02", f.date)
		if err != nil {
			return currency.Pair{}, calc.Market{}, fmt.Errorf("bad -date %q: %w", f.date, err)
		}
	}

	if f.data != "" {
		market, err := marketdata.LoadMarket(f.data, valuation)
		if err != nil {
			return currency.Pair{}, calc.Market{}, err
		}
		return pair, market, nil
	}

	if f.spot <= 0 {
		return currency.Pair{}, calc.Market{}, fmt.Errorf("no -data directory given: the inline market needs -spot > 0")
	}
	base, counter := pair.Base(), pair.Counter()
	provider, err := rates.NewProvider(rates.ProviderParams{
		ValuationDate: valuation,
		FxRates:       map[currency.Pair]float64{pair: f.spot},
		DiscountCurves: map[currency.Currency]rates.Curve{
			base:    rates.NewConstantCurve(string(base)+"-Disc", f.rateBase),
			counter: rates.NewConstantCurve(string(counter)+"-Disc", f.rateCounter),
		},
	})
	if err != nil {
		return currency.Pair{}, calc.Market{}, err
	}
	surface, err := vol.NewFlatSurface(pair, valuation, f.vol)
	if err != nil {
		return currency.Pair{}, calc.Market{}, err
	}
	market := calc.Market{
		Rates: provider,
		Vols:  map[currency.Pair]vol.Surface{pair: surface},
	}
	return pair, market, nil
}

func runVanilla(args []string) error {
	fs := flag.NewFlagSet("vanilla", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	expiry := fs.String("expiry", "", "expiry, YYYY-MM-DD or RFC3339 (required)")
	strike := fs.Float64("strike", 0, "strike in counter units per base unit (required)")
	notional := fs.Float64("notional", 1_000_000, "base currency notional")
	callPut := fs.String("callput", "Call", "Call or Put")
	longShort := fs.String("longshort", "Long", "Long or Short")
	payment := fs.String("payment-date", "", "settlement date (default the expiry spot date)")
	fs.Parse(args)

	pair, market, err := common.resolve()
	if err != nil {
		return err
	}
	option, err := buildVanilla(pair, *expiry, *strike, *notional, *callPut, *longShort, *payment)
	if err != nil {
		return err
	}
	return printMeasures(option, market, &common)
}

func runDigital(args []string) error { return runDigitalStyle("digital", fxopt.European, args) }

func runTouch(args []string) error { return runDigitalStyle("touch", fxopt.OneTouch, args) }

func runDigitalStyle(name string, style fxopt.DigitalStyle, args []string) error {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	expiry := fs.String("expiry", "", "expiry, YYYY-MM-DD or RFC3339 (required)")
	level := fs.Float64("level", 0, "digital level (required)")
	payment := fs.Float64("payment", 0, "counter currency payment amount (required)")
	direction := fs.String("direction", "Up", "Up or Down")
	longShort := fs.String("longshort", "Long", "Long or Short")
	fs.Parse(args)

	pair, market, err := common.resolve()
	if err != nil {
		return err
	}
	expiryTime, err := parseDate(*expiry, "-expiry")
	if err != nil {
		return err
	}
	option, err := fxopt.NewDigitalOption(fxopt.DigitalOptionParams{
		LongShort: fxopt.LongShort(*longShort),
		Pair:      pair,
		Expiry:    expiryTime,
		Style:     style,
		Direction: fxopt.BarrierDirection(*direction),
		Level:     *level,
		Payment:   currency.NewAmount(pair.Counter(), *payment),
	})
	if err != nil {
		return err
	}
	return printMeasures(option, market, &common)
}

func runBarrier(args []string) error {
	fs := flag.NewFlagSet("barrier", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	expiry := fs.String("expiry", "", "expiry, YYYY-MM-DD or RFC3339 (required)")
	strike := fs.Float64("strike", 0, "strike in counter units per base unit (required)")
	notional := fs.Float64("notional", 1_000_000, "base currency notional")
	callPut := fs.String("callput", "Call", "Call or Put")
	longShort := fs.String("longshort", "Long", "Long or Short")
	payment := fs.String("payment-date", "", "settlement date (default the expiry spot date)")
	direction := fs.String("direction", "", "barrier direction, Up or Down (required)")
	knock := fs.String("knock", "", "In or Out (required)")
	level := fs.Float64("level", 0, "barrier level (required)")
	rebate := fs.Float64("rebate", 0, "rebate amount, 0 for none")
	rebateCcy := fs.String("rebate-ccy", "", "rebate currency (default the counter currency)")
	fs.Parse(args)

	pair, market, err := common.resolve()
	if err != nil {
		return err
	}
	underlying, err := buildVanilla(pair, *expiry, *strike, *notional, *callPut, *longShort, *payment)
	if err != nil {
		return err
	}
	barrier, err := fxopt.NewBarrier(fxopt.BarrierDirection(*direction), fxopt.KnockType(*knock), *level)
	if err != nil {
		return err
	}
	var option fxopt.SingleBarrierOption
	if *rebate == 0 {
		option, err = fxopt.NewSingleBarrierOption(underlying, barrier)
	} else {
		ccy := pair.Counter()
		if *rebateCcy != "" {
			ccy = currency.Currency(*rebateCcy)
		}
		option, err = fxopt.NewSingleBarrierOptionWithRebate(underlying, barrier, currency.NewAmount(ccy, *rebate))
	}
	if err != nil {
		return err
	}
	return printMeasures(option, market, &common)
}

// buildVanilla assembles the exchange of notionals behind a vanilla
// quote: a call buys the base amount, a put sells it.
func buildVanilla(pair currency.Pair, expiryStr string, strike, notional float64, callPut, longShort, paymentStr string) (fxopt.VanillaOption, error) {
	expiry, err := parseDate(expiryStr, "-expiry")
	if err != nil {
		return fxopt.VanillaOption{}, err
	}
	if strike <= 0 {
		return fxopt.VanillaOption{}, fmt.Errorf("-strike must be positive, got %v", strike)
	}
	var baseSign float64
	switch callPut {
	case "Call":
		baseSign = 1
	case "Put":
		baseSign = -1
	default:
		return fxopt.VanillaOption{}, fmt.Errorf("-callput must be Call or Put, got %q", callPut)
	}
	paymentDate := calendar.SpotDate(calendar.ForPair(pair), expiry)
	if paymentStr != "" {
		paymentDate, err = parseDate(paymentStr, "-payment-date")
		if err != nil {
			return fxopt.VanillaOption{}, err
		}
	}
	underlying, err := fxopt.NewFxSingle(
		currency.NewAmount(pair.Base(), baseSign*notional),
		currency.NewAmount(pair.Counter(), -baseSign*strike*notional),
		paymentDate,
	)
	if err != nil {
		return fxopt.VanillaOption{}, err
	}
	return fxopt.NewVanillaOption(fxopt.LongShort(longShort), expiry, underlying)
}

// printMeasures calibrates the lattice once and prices every requested
// measure off the shared data.
func printMeasures(option fxopt.ResolvedOption, market calc.Market, common *commonFlags) error {
	surface, err := market.Surface(option.Pair())
	if err != nil {
		return err
	}
	pricer, err := newPricer(common.steps)
	if err != nil {
		return err
	}
	data, err := pricer.Calibrate(option, market.Rates, surface)
	if err != nil {
		return err
	}
	vd, err := pricer.PriceDerivativesWithData(option, market.Rates, surface, data)
	if err != nil {
		return err
	}
	pv, err := pricer.PresentValueWithData(option, market.Rates, surface, data)
	if err != nil {
		return err
	}
	exposure, err := pricer.CurrencyExposureWithData(option, market.Rates, surface, data)
	if err != nil {
		return err
	}

	fmt.Printf("Pair:           %s\n", option.Pair())
	fmt.Printf("Expiry:         %s\n", option.Expiry().Format(time.RFC3339))
	fmt.Printf("Tree steps:     %d\n", pricer.NumberOfSteps())
	fmt.Printf("Unit price:     %.6f\n", vd.Value)
	fmt.Printf("Spot delta:     %.6f\n", vd.Derivatives[0])
	fmt.Printf("Present value:  %s\n", pv)
	fmt.Printf("Exposure:       %s\n", exposure)

	if common.pv01 {
		sens, err := pricer.PresentValueSensitivityRates(option, market.Rates, surface)
		if err != nil {
			return err
		}
		fmt.Printf("PV01 total:     %s\n", sens.Total())
		for _, entry := range sens.Sensitivities() {
			fmt.Printf("  %s (%s):", entry.CurveName, entry.Currency)
			for _, v := range entry.Values {
				fmt.Printf(" %.4f", v)
			}
			fmt.Println()
		}
	}
	return nil
}

func newPricer(steps int) (*fxopt.TreePricer, error) {
	if steps <= 0 {
		return fxopt.NewDefaultTreePricer()
	}
	calibrator, err := tree.NewCalibrator(steps)
	if err != nil {
		return nil, err
	}
	return fxopt.NewTreePricer(calibrator)
}

func parseDate(s, flagName string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%s is required", flagName)
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%s: unparseable date %q", flagName, s)
}
