package marketdata

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/meenmo/fxolib/calc"
	"github.com/meenmo/fxolib/currency"
)

// Store reads market snapshots from a Postgres database. Quotes live in
// fx_curve_nodes, fx_spot_rates and fx_vol_quotes, keyed by valuation
// date; assembly into curves, spot maps and surfaces is shared with the
// CSV path.
type Store struct {
	db *sql.DB
}

// Open connects to Postgres with the given connection string.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("Open: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStore wraps an existing connection pool.
func NewStore(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("NewStore: db is required")
	}
	return &Store{db: db}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// CurveNodes reads the zero-curve nodes quoted on the valuation date.
func (s *Store) CurveNodes(ctx context.Context, valuationDate time.Time) ([]CurveNode, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT curve_name, currency, label, zero_rate
		FROM fx_curve_nodes
		WHERE valuation_date = $1
		ORDER BY curve_name`, dateArg(valuationDate))
	if err != nil {
		return nil, fmt.Errorf("CurveNodes: %w", err)
	}
	defer rows.Close()

	var nodes []CurveNode
	for rows.Next() {
		var node CurveNode
		var ccy string
		if err := rows.Scan(&node.CurveName, &ccy, &node.Label, &node.Zero); err != nil {
			return nil, fmt.Errorf("CurveNodes: %w", err)
		}
		node.Currency = currency.Currency(ccy)
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("CurveNodes: %w", err)
	}
	return nodes, nil
}

// FxRates reads the spot rates quoted on the valuation date.
func (s *Store) FxRates(ctx context.Context, valuationDate time.Time) ([]FxQuote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT base_ccy, counter_ccy, rate
		FROM fx_spot_rates
		WHERE valuation_date = $1`, dateArg(valuationDate))
	if err != nil {
		return nil, fmt.Errorf("FxRates: %w", err)
	}
	defer rows.Close()

	var quotes []FxQuote
	for rows.Next() {
		var base, counter string
		var rate float64
		if err := rows.Scan(&base, &counter, &rate); err != nil {
			return nil, fmt.Errorf("FxRates: %w", err)
		}
		pair, err := currency.NewPair(currency.Currency(base), currency.Currency(counter))
		if err != nil {
			return nil, fmt.Errorf("FxRates: %w", err)
		}
		quotes = append(quotes, FxQuote{Pair: pair, Rate: rate})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("FxRates: %w", err)
	}
	return quotes, nil
}

// VolQuotes reads the volatility quotes quoted on the valuation date.
func (s *Store) VolQuotes(ctx context.Context, valuationDate time.Time) ([]VolQuote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT base_ccy, counter_ccy, label, strike, vol
		FROM fx_vol_quotes
		WHERE valuation_date = $1`, dateArg(valuationDate))
	if err != nil {
		return nil, fmt.Errorf("VolQuotes: %w", err)
	}
	defer rows.Close()

	var quotes []VolQuote
	for rows.Next() {
		var base, counter string
		var quote VolQuote
		if err := rows.Scan(&base, &counter, &quote.Label, &quote.Strike, &quote.Vol); err != nil {
			return nil, fmt.Errorf("VolQuotes: %w", err)
		}
		pair, err := currency.NewPair(currency.Currency(base), currency.Currency(counter))
		if err != nil {
			return nil, fmt.Errorf("VolQuotes: %w", err)
		}
		quote.Pair = pair
		quotes = append(quotes, quote)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("VolQuotes: %w", err)
	}
	return quotes, nil
}

// Market reads and assembles the full market quoted on the valuation
// date.
func (s *Store) Market(ctx context.Context, valuationDate time.Time) (calc.Market, error) {
	nodes, err := s.CurveNodes(ctx, valuationDate)
	if err != nil {
		return calc.Market{}, err
	}
	fx, err := s.FxRates(ctx, valuationDate)
	if err != nil {
		return calc.Market{}, err
	}
	vols, err := s.VolQuotes(ctx, valuationDate)
	if err != nil {
		return calc.Market{}, err
	}
	return AssembleMarket(valuationDate, nodes, fx, vols)
}

// dateArg normalizes a timestamp to the date column granularity.
func dateArg(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
