package marketdata

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/meenmo/fxolib/calc"
	"github.com/meenmo/fxolib/currency"
	"github.com/meenmo/fxolib/fxopt"
)

// Default file names LoadMarket reads from a data directory.
const (
	CurvesFile  = "curves.csv"
	FxRatesFile = "fx_rates.csv"
	VolsFile    = "vols.csv"
)

type curveRow struct {
	CurveName string  `csv:"Curve Name"`
	Currency  string  `csv:"Currency"`
	Label     string  `csv:"Label"`
	ZeroRate  float64 `csv:"Zero Rate"`
}

type fxRow struct {
	Pair string  `csv:"Pair"`
	Rate float64 `csv:"Rate"`
}

type volRow struct {
	Pair       string  `csv:"Pair"`
	Expiry     string  `csv:"Expiry"`
	Strike     float64 `csv:"Strike"`
	Volatility float64 `csv:"Volatility"`
}

type tradeRow struct {
	Id              string `csv:"Id"`
	Type            string `csv:"Type"`
	LongShort       string `csv:"Long/Short"`
	Pair            string `csv:"Pair"`
	Expiry          string `csv:"Expiry"`
	PaymentDate     string `csv:"Payment Date"`
	CallPut         string `csv:"Call/Put"`
	Notional        string `csv:"Notional"`
	Strike          string `csv:"Strike"`
	Style           string `csv:"Style"`
	Direction       string `csv:"Direction"`
	Knock           string `csv:"Knock"`
	Level           string `csv:"Level"`
	Payment         string `csv:"Payment"`
	Rebate          string `csv:"Rebate"`
	RebateCurrency  string `csv:"Rebate Currency"`
	Premium         string `csv:"Premium"`
	PremiumCurrency string `csv:"Premium Currency"`
	PremiumDate     string `csv:"Premium Date"`
	Method          string `csv:"Method"`
}

func readCSV(path string, out interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := gocsv.UnmarshalFile(file, out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// ReadCurves reads zero-curve nodes from a CSV file.
func ReadCurves(path string) ([]CurveNode, error) {
	var rows []curveRow
	if err := readCSV(path, &rows); err != nil {
		return nil, fmt.Errorf("ReadCurves: %w", err)
	}
	nodes := make([]CurveNode, len(rows))
	for i, row := range rows {
		nodes[i] = CurveNode{
			CurveName: row.CurveName,
			Currency:  currency.Currency(row.Currency),
			Label:     row.Label,
			Zero:      row.ZeroRate,
		}
	}
	return nodes, nil
}

// ReadFxRates reads spot quotes from a CSV file.
func ReadFxRates(path string) ([]FxQuote, error) {
	var rows []fxRow
	if err := readCSV(path, &rows); err != nil {
		return nil, fmt.Errorf("ReadFxRates: %w", err)
	}
	quotes := make([]FxQuote, len(rows))
	for i, row := range rows {
		pair, err := currency.ParsePair(row.Pair)
		if err != nil {
			return nil, fmt.Errorf("ReadFxRates: row %d: %w", i+1, err)
		}
		quotes[i] = FxQuote{Pair: pair, Rate: row.Rate}
	}
	return quotes, nil
}

// ReadVolQuotes reads volatility quotes from a CSV file.
func ReadVolQuotes(path string) ([]VolQuote, error) {
	var rows []volRow
	if err := readCSV(path, &rows); err != nil {
		return nil, fmt.Errorf("ReadVolQuotes: %w", err)
	}
	quotes := make([]VolQuote, len(rows))
	for i, row := range rows {
		pair, err := currency.ParsePair(row.Pair)
		if err != nil {
			return nil, fmt.Errorf("ReadVolQuotes: row %d: %w", i+1, err)
		}
		quotes[i] = VolQuote{
			Pair:   pair,
			Label:  row.Expiry,
			Strike: row.Strike,
			Vol:    row.Volatility,
		}
	}
	return quotes, nil
}

// LoadMarket reads curves.csv, fx_rates.csv and vols.csv from the data
// directory and assembles the market for the valuation date.
func LoadMarket(dir string, valuationDate time.Time) (calc.Market, error) {
	nodes, err := ReadCurves(filepath.Join(dir, CurvesFile))
	if err != nil {
		return calc.Market{}, err
	}
	fx, err := ReadFxRates(filepath.Join(dir, FxRatesFile))
	if err != nil {
		return calc.Market{}, err
	}
	vols, err := ReadVolQuotes(filepath.Join(dir, VolsFile))
	if err != nil {
		return calc.Market{}, err
	}
	return AssembleMarket(valuationDate, nodes, fx, vols)
}

// ReadTrades reads a trade portfolio from a CSV file into calc rows.
// Monetary columns are parsed as decimals so amounts written with minor
// units survive exactly.
func ReadTrades(path string) ([]calc.Row, error) {
	var rows []tradeRow
	if err := readCSV(path, &rows); err != nil {
		return nil, fmt.Errorf("ReadTrades: %w", err)
	}
	out := make([]calc.Row, len(rows))
	for i, row := range rows {
		parsed, err := buildRow(row)
		if err != nil {
			return nil, fmt.Errorf("ReadTrades: row %d (%s): %w", i+1, row.Id, err)
		}
		out[i] = parsed
	}
	return out, nil
}

func buildRow(row tradeRow) (calc.Row, error) {
	pair, err := currency.ParsePair(row.Pair)
	if err != nil {
		return calc.Row{}, err
	}
	expiry, err := parseTime(row.Expiry)
	if err != nil {
		return calc.Row{}, fmt.Errorf("Expiry: %w", err)
	}

	var product fxopt.ResolvedOption
	switch row.Type {
	case "Vanilla":
		product, err = buildVanilla(row, pair, expiry)
	case "Digital":
		product, err = buildDigital(row, pair, expiry)
	case "Barrier":
		product, err = buildBarrier(row, pair, expiry)
	default:
		return calc.Row{}, fmt.Errorf("unknown product type %q", row.Type)
	}
	if err != nil {
		return calc.Row{}, err
	}

	premium, err := parseMoney(row.Premium)
	if err != nil {
		return calc.Row{}, fmt.Errorf("Premium: %w", err)
	}
	premiumDate, err := parseTime(row.PremiumDate)
	if err != nil {
		return calc.Row{}, fmt.Errorf("Premium Date: %w", err)
	}
	trade, err := fxopt.NewTrade(product, currency.Payment{
		Amount: currency.NewAmount(currency.Currency(row.PremiumCurrency), premium),
		Date:   premiumDate,
	})
	if err != nil {
		return calc.Row{}, err
	}
	method, err := calc.ParseMethod(row.Method)
	if err != nil {
		return calc.Row{}, err
	}
	return calc.Row{Id: row.Id, Trade: trade, Method: method}, nil
}

func buildVanilla(row tradeRow, pair currency.Pair, expiry time.Time) (fxopt.VanillaOption, error) {
	notional, err := parseMoney(row.Notional)
	if err != nil {
		return fxopt.VanillaOption{}, fmt.Errorf("Notional: %w", err)
	}
	strike, err := parseMoney(row.Strike)
	if err != nil {
		return fxopt.VanillaOption{}, fmt.Errorf("Strike: %w", err)
	}
	paymentDate, err := parseTime(row.PaymentDate)
	if err != nil {
		return fxopt.VanillaOption{}, fmt.Errorf("Payment Date: %w", err)
	}
	baseSign := 1.0
	switch fxopt.PutCall(row.CallPut) {
	case fxopt.Call:
	case fxopt.Put:
		baseSign = -1
	default:
		return fxopt.VanillaOption{}, fmt.Errorf("unknown call/put %q", row.CallPut)
	}
	underlying, err := fxopt.NewFxSingle(
		currency.NewAmount(pair.Base(), baseSign*notional),
		currency.NewAmount(pair.Counter(), -baseSign*strike*notional),
		paymentDate,
	)
	if err != nil {
		return fxopt.VanillaOption{}, err
	}
	return fxopt.NewVanillaOption(fxopt.LongShort(row.LongShort), expiry, underlying)
}

func buildDigital(row tradeRow, pair currency.Pair, expiry time.Time) (fxopt.ResolvedOption, error) {
	level, err := parseMoney(row.Level)
	if err != nil {
		return nil, fmt.Errorf("Level: %w", err)
	}
	payment, err := parseMoney(row.Payment)
	if err != nil {
		return nil, fmt.Errorf("Payment: %w", err)
	}
	return fxopt.NewDigitalOption(fxopt.DigitalOptionParams{
		LongShort: fxopt.LongShort(row.LongShort),
		Pair:      pair,
		Expiry:    expiry,
		Style:     fxopt.DigitalStyle(row.Style),
		Direction: fxopt.BarrierDirection(row.Direction),
		Level:     level,
		Payment:   currency.NewAmount(pair.Counter(), payment),
	})
}

func buildBarrier(row tradeRow, pair currency.Pair, expiry time.Time) (fxopt.ResolvedOption, error) {
	underlying, err := buildVanilla(row, pair, expiry)
	if err != nil {
		return nil, err
	}
	level, err := parseMoney(row.Level)
	if err != nil {
		return nil, fmt.Errorf("Level: %w", err)
	}
	barrier, err := fxopt.NewBarrier(fxopt.BarrierDirection(row.Direction), fxopt.KnockType(row.Knock), level)
	if err != nil {
		return nil, err
	}
	if row.Rebate == "" {
		return fxopt.NewSingleBarrierOption(underlying, barrier)
	}
	rebate, err := parseMoney(row.Rebate)
	if err != nil {
		return nil, fmt.Errorf("Rebate: %w", err)
	}
	return fxopt.NewSingleBarrierOptionWithRebate(underlying, barrier,
		currency.NewAmount(currency.Currency(row.RebateCurrency), rebate))
}

// timeLayouts are tried in order when parsing date columns.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

func parseMoney(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}
