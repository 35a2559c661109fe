// Command fxoptreport prices a portfolio of FX option trades against a
// market data snapshot and prints one table row per trade with the
// requested measure columns.
//
// The portfolio and the market snapshot are CSV files; defaults come
// from the environment (FXOLIB_DATA_DIR, FXOLIB_LOG_FILE), optionally
// loaded from a .env file.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/meenmo/fxolib/calc"
	"github.com/meenmo/fxolib/marketdata"
)

type reportConfig struct {
	portfolio string
	data      string
	date      string
	measures  string
	method    string
	logFile   string
	workers   int
	steps     int
	verbose   bool
}

func main() {
	godotenv.Load()

	var cfg reportConfig
	flag.StringVar(&cfg.portfolio, "portfolio", "", "trades CSV file (required)")
	flag.StringVar(&cfg.data, "data", os.Getenv("FXOLIB_DATA_DIR"), "market data directory with curves.csv, fx_rates.csv and vols.csv")
	flag.StringVar(&cfg.date, "date", "", "valuation date, YYYY-MM-DD (default today)")
	flag.StringVar(&cfg.measures, "measures", "PresentValue,Pv01Sum,CurrencyExposure,CurrentCash", "comma separated measure columns")
	flag.StringVar(&cfg.method, "method", "", "override every row's pricing method (TrinomialTree or Black)")
	flag.StringVar(&cfg.logFile, "log", os.Getenv("FXOLIB_LOG_FILE"), "log file with rotation, empty logs to stderr")
	flag.IntVar(&cfg.workers, "workers", 0, "worker goroutines, 0 for GOMAXPROCS")
	flag.IntVar(&cfg.steps, "steps", 0, "tree time steps, 0 for the default")
	flag.BoolVar(&cfg.verbose, "v", false, "debug logging")
	flag.Parse()

	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(cfg reportConfig) error {
	if cfg.portfolio == "" {
		return fmt.Errorf("-portfolio is required")
	}
	if cfg.data == "" {
		return fmt.Errorf("-data (or FXOLIB_DATA_DIR) is required")
	}

	valuation := time.Now().UTC().Truncate(24 * time.Hour)
	if cfg.date != "" {
		parsed, err := time.Parse("2006-01-02", cfg.date)
		if err != nil {
			return fmt.Errorf("bad -date %q: %w", cfg.date, err)
		}
		valuation = parsed
	}

	measures, err := parseMeasures(cfg.measures)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.logFile, cfg.verbose)
	defer logger.Sync()

	market, err := marketdata.LoadMarket(cfg.data, valuation)
	if err != nil {
		return err
	}
	rows, err := marketdata.ReadTrades(cfg.portfolio)
	if err != nil {
		return err
	}
	if cfg.method != "" {
		method, err := calc.ParseMethod(cfg.method)
		if err != nil {
			return err
		}
		for i := range rows {
			rows[i].Method = method
		}
	}

	logger.Info("pricing portfolio",
		zap.Int("trades", len(rows)),
		zap.Int("measures", len(measures)),
		zap.Time("valuation", valuation),
	)

	runner, err := calc.NewRunner(calc.RunnerParams{
		Workers:   cfg.workers,
		TreeSteps: cfg.steps,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	start := time.Now()
	results, err := runner.Run(rows, measures, market)
	if err != nil {
		return err
	}
	logger.Info("portfolio priced", zap.Duration("elapsed", time.Since(start)))

	return results.WriteTable(os.Stdout)
}

// newLogger builds a console logger on stderr or, when path is set, a
// buffered logger on a size-rotated file.
func newLogger(path string, verbose bool) *zap.Logger {
	encConfig := zap.NewProductionEncoderConfig()
	encConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	var ws zapcore.WriteSyncer
	if path != "" {
		fileLogger := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     30,
			Compress:   true,
		}
		ws = zapcore.AddSync(&zapcore.BufferedWriteSyncer{
			WS:            zapcore.AddSync(fileLogger),
			FlushInterval: time.Second,
		})
	} else {
		ws = zapcore.AddSync(os.Stderr)
		encConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	atom := zap.NewAtomicLevel()
	if verbose {
		atom.SetLevel(zap.DebugLevel)
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encConfig), ws, atom)
	return zap.New(core)
}

func parseMeasures(list string) ([]calc.Measure, error) {
	var out []calc.Measure
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		m, err := calc.ParseMeasure(name)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("-measures is empty")
	}
	return out, nil
}
