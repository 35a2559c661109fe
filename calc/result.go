package calc

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/meenmo/fxolib/currency"
	"github.com/meenmo/fxolib/rates"
)

// Cell is one computed grid entry: formatted text, or the error that
// prevented it.
type Cell struct {
	Text string
	Err  error
}

// RowResult is one portfolio line of the result grid.
type RowResult struct {
	Id    string
	Cells []Cell
}

// Results is the measure grid for a portfolio run. Rows keep the input
// order; Cells follow the measure order of the run.
type Results struct {
	Measures []Measure
	Rows     []RowResult
}

// WriteTable renders the grid as a fixed-width text table. Failed cells
// print their error.
func (r Results) WriteTable(w io.Writer) error {
	header := make([]string, 0, len(r.Measures)+1)
	header = append(header, "Id")
	for _, m := range r.Measures {
		header = append(header, string(m))
	}
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	grid := make([][]string, len(r.Rows))
	for i, row := range r.Rows {
		line := make([]string, 0, len(header))
		line = append(line, row.Id)
		for _, cell := range row.Cells {
			text := cell.Text
			if cell.Err != nil {
				text = cell.Err.Error()
			}
			line = append(line, text)
		}
		grid[i] = line
		for j, text := range line {
			if len(text) > widths[j] {
				widths[j] = len(text)
			}
		}
	}

	if err := writeLine(w, header, widths); err != nil {
		return err
	}
	rule := make([]string, len(header))
	for i, width := range widths {
		rule[i] = strings.Repeat("-", width)
	}
	if err := writeLine(w, rule, widths); err != nil {
		return err
	}
	for _, line := range grid {
		if err := writeLine(w, line, widths); err != nil {
			return err
		}
	}
	return nil
}

func writeLine(w io.Writer, cells []string, widths []int) error {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		if i == 0 {
			parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
			continue
		}
		parts[i] = fmt.Sprintf("%*s", widths[i], cell)
	}
	_, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	return err
}

// formatAmount renders an amount rounded to the currency's minor units.
func formatAmount(a currency.Amount) string {
	places := currency.MinorUnits(a.Currency)
	return fmt.Sprintf("%s %s", a.Currency, decimal.NewFromFloat(a.Value).StringFixed(places))
}

// formatMulti renders a multi-currency amount, currencies in code
// order.
func formatMulti(m currency.MultiAmount) string {
	ccys := m.Currencies()
	if len(ccys) == 0 {
		return "-"
	}
	parts := make([]string, len(ccys))
	for i, c := range ccys {
		parts[i] = formatAmount(m.Amount(c))
	}
	return strings.Join(parts, ", ")
}

// formatNumber renders a unit price.
func formatNumber(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(6)
}

// formatBucketed renders per-curve parameter sensitivities.
func formatBucketed(sens rates.ParameterSensitivities) string {
	entries := sens.Sensitivities()
	parts := make([]string, len(entries))
	for i, entry := range entries {
		places := currency.MinorUnits(entry.Currency)
		values := make([]string, len(entry.Values))
		for j, v := range entry.Values {
			values[j] = decimal.NewFromFloat(v).StringFixed(places)
		}
		parts[i] = fmt.Sprintf("%s [%s]", entry.CurveName, strings.Join(values, " "))
	}
	return strings.Join(parts, "; ")
}
