package calc

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/meenmo/fxolib/fxopt"
	"github.com/meenmo/fxolib/fxopt/tree"
)

// RunnerParams configures a calculation runner.
type RunnerParams struct {
	// Workers bounds the pool; non-positive uses GOMAXPROCS.
	Workers int
	// TreeSteps overrides the configured default lattice step count
	// when positive.
	TreeSteps int
	// Logger receives per-row debug and per-cell failure logs; nil
	// disables logging.
	Logger *zap.Logger
}

// Runner prices portfolio rows against a market on a bounded worker
// pool. The pricing engines are pure, so one runner is safe for
// concurrent use.
type Runner struct {
	workers     int
	logger      *zap.Logger
	tree        *fxopt.TreePricer
	black       *fxopt.BlackPricer
	treeTrades  *fxopt.TradePricer
	blackTrades *fxopt.TradePricer
}

// NewRunner builds a runner with its two pricing engines.
func NewRunner(params RunnerParams) (*Runner, error) {
	workers := params.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	treePricer, err := newTreePricer(params.TreeSteps)
	if err != nil {
		return nil, fmt.Errorf("NewRunner: %w", err)
	}
	blackPricer := fxopt.NewBlackPricer()
	treeTrades, err := fxopt.NewTradePricer(treePricer)
	if err != nil {
		return nil, fmt.Errorf("NewRunner: %w", err)
	}
	blackTrades, err := fxopt.NewTradePricer(blackPricer)
	if err != nil {
		return nil, fmt.Errorf("NewRunner: %w", err)
	}
	return &Runner{
		workers:     workers,
		logger:      logger,
		tree:        treePricer,
		black:       blackPricer,
		treeTrades:  treeTrades,
		blackTrades: blackTrades,
	}, nil
}

// Run computes the measure grid for the rows. Row order is preserved;
// cells follow the measure order. Pricing failures stay in their cells;
// only structural problems (no market, unknown measure) abort the run.
func (r *Runner) Run(rows []Row, measures []Measure, market Market) (Results, error) {
	if market.Rates == nil {
		return Results{}, fmt.Errorf("calc: rates provider is required")
	}
	for _, m := range measures {
		if !m.valid() {
			return Results{}, fmt.Errorf("calc: unknown measure %q", m)
		}
	}

	results := Results{
		Measures: append([]Measure(nil), measures...),
		Rows:     make([]RowResult, len(rows)),
	}
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results.Rows[i] = r.runRow(rows[i], measures, market)
			}
		}()
	}
	for i := range rows {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results, nil
}

func (r *Runner) runRow(row Row, measures []Measure, market Market) RowResult {
	start := time.Now()
	cells := make([]Cell, len(measures))
	for j, measure := range measures {
		text, err := r.runCell(row, measure, market)
		if err != nil {
			r.logger.Warn("measure failed",
				zap.String("id", row.Id),
				zap.String("measure", string(measure)),
				zap.Error(err))
			cells[j] = Cell{Err: err}
			continue
		}
		cells[j] = Cell{Text: text}
	}
	r.logger.Debug("row priced",
		zap.String("id", row.Id),
		zap.String("method", string(row.Method)),
		zap.Duration("elapsed", time.Since(start)))
	return RowResult{Id: row.Id, Cells: cells}
}

func (r *Runner) runCell(row Row, measure Measure, market Market) (string, error) {
	product, trades, err := r.pricers(row.Method)
	if err != nil {
		return "", err
	}
	if measure == MeasureCurrentCash {
		return formatAmount(trades.CurrentCash(row.Trade, market.Rates.ValuationDate())), nil
	}
	vols, err := market.Surface(row.Trade.Product().Pair())
	if err != nil {
		return "", err
	}
	switch measure {
	case MeasurePresentValue:
		pv, err := trades.PresentValue(row.Trade, market.Rates, vols)
		if err != nil {
			return "", err
		}
		return formatMulti(pv), nil
	case MeasureUnitPrice:
		price, err := product.Price(row.Trade.Product(), market.Rates, vols)
		if err != nil {
			return "", err
		}
		return formatNumber(price), nil
	case MeasureCurrencyExposure:
		exposure, err := trades.CurrencyExposure(row.Trade, market.Rates, vols)
		if err != nil {
			return "", err
		}
		return formatMulti(exposure), nil
	case MeasurePv01Sum:
		sens, err := trades.PresentValueSensitivityRates(row.Trade, market.Rates, vols)
		if err != nil {
			return "", err
		}
		return formatMulti(sens.Total()), nil
	case MeasurePv01Bucketed:
		sens, err := trades.PresentValueSensitivityRates(row.Trade, market.Rates, vols)
		if err != nil {
			return "", err
		}
		return formatBucketed(sens), nil
	default:
		return "", fmt.Errorf("calc: unknown measure %q", measure)
	}
}

func newTreePricer(steps int) (*fxopt.TreePricer, error) {
	if steps <= 0 {
		return fxopt.NewDefaultTreePricer()
	}
	calibrator, err := tree.NewCalibrator(steps)
	if err != nil {
		return nil, err
	}
	return fxopt.NewTreePricer(calibrator)
}

func (r *Runner) pricers(method Method) (fxopt.ProductPricer, *fxopt.TradePricer, error) {
	switch method {
	case MethodTrinomialTree, Method(""):
		return r.tree, r.treeTrades, nil
	case MethodBlack:
		return r.black, r.blackTrades, nil
	}
	return nil, nil, fmt.Errorf("calc: unknown method %q", method)
}
