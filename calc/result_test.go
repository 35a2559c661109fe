package calc

import (
	"errors"
	"strings"
	"testing"

	"github.com/meenmo/fxolib/currency"
	"github.com/meenmo/fxolib/rates"
)

func TestWriteTable(t *testing.T) {
	t.Parallel()

	results := Results{
		Measures: []Measure{MeasurePresentValue, MeasureUnitPrice},
		Rows: []RowResult{
			{Id: "FXO-1", Cells: []Cell{{Text: "USD 25000.00"}, {Text: "0.031250"}}},
			{Id: "FXO-200", Cells: []Cell{{Text: "USD -1000.00"}, {Err: errors.New("boom")}}},
		},
	}

	var buf strings.Builder
	if err := results.WriteTable(&buf); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}

	want := strings.Join([]string{
		"Id       PresentValue  UnitPrice",
		"-------  ------------  ---------",
		"FXO-1    USD 25000.00   0.031250",
		"FXO-200  USD -1000.00       boom",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Fatalf("table mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestWriteTableEmpty(t *testing.T) {
	t.Parallel()

	results := Results{Measures: []Measure{MeasureUnitPrice}}
	var buf strings.Builder
	if err := results.WriteTable(&buf); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}
	want := "Id  UnitPrice\n--  ---------\n"
	if got := buf.String(); got != want {
		t.Fatalf("table mismatch:\ngot:\n%q\nwant:\n%q", got, want)
	}
}

func TestFormatAmount(t *testing.T) {
	t.Parallel()

	cases := []struct {
		amount currency.Amount
		want   string
	}{
		{currency.NewAmount(currency.USD, 25000), "USD 25000.00"},
		{currency.NewAmount(currency.USD, -0.005), "USD -0.01"},
		{currency.NewAmount(currency.JPY, 1250000.4), "JPY 1250000"},
		{currency.NewAmount(currency.KRW, -999.6), "KRW -1000"},
		{currency.NewAmount(currency.BTC, 0.12345678), "BTC 0.12345678"},
	}
	for _, tc := range cases {
		if got := formatAmount(tc.amount); got != tc.want {
			t.Fatalf("formatAmount(%v) mismatch: got %q want %q", tc.amount, got, tc.want)
		}
	}
}

func TestFormatMulti(t *testing.T) {
	t.Parallel()

	if got := formatMulti(currency.NewMultiAmount()); got != "-" {
		t.Fatalf("empty mismatch: got %q", got)
	}
	m := currency.NewMultiAmount(
		currency.NewAmount(currency.USD, 100),
		currency.NewAmount(currency.EUR, -50),
	)
	if got, want := formatMulti(m), "EUR -50.00, USD 100.00"; got != want {
		t.Fatalf("multi mismatch: got %q want %q", got, want)
	}
}

func TestFormatNumber(t *testing.T) {
	t.Parallel()

	if got, want := formatNumber(0.5), "0.500000"; got != want {
		t.Fatalf("number mismatch: got %q want %q", got, want)
	}
	if got, want := formatNumber(-0.0312504), "-0.031250"; got != want {
		t.Fatalf("number mismatch: got %q want %q", got, want)
	}
}

func TestFormatBucketed(t *testing.T) {
	t.Parallel()

	sens := rates.NewParameterSensitivities(
		rates.ParameterSensitivity{
			CurveName:     "EUR-Disc",
			CurveCurrency: currency.EUR,
			Currency:      currency.USD,
			Values:        []float64{-120.5, 30.25},
		},
		rates.ParameterSensitivity{
			CurveName:     "USD-Disc",
			CurveCurrency: currency.USD,
			Currency:      currency.USD,
			Values:        []float64{45.125},
		},
	)
	want := "EUR-Disc [-120.50 30.25]; USD-Disc [45.13]"
	if got := formatBucketed(sens); got != want {
		t.Fatalf("bucketed mismatch: got %q want %q", got, want)
	}
}
