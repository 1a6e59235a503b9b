package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// CSVFormatter writes one row per baseline year.
type CSVFormatter struct{}

func (c CSVFormatter) Name() string { return "csv" }

func (c CSVFormatter) Format(r *Report) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"Year", "Age", "Spend", "Benefit", "CashUsed", "SoldEmergency", "SoldRecovery", "RefillAmount", "CashEnd", "StocksEnd", "FundedAhead", "Shortfall"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, row := range r.Payload.BaselineRows {
		rec := []string{
			strconv.Itoa(row.Year),
			strconv.Itoa(row.Age),
			fixed(row.Spend),
			fixed(row.Benefit),
			fixed(row.CashUsed),
			fixed(row.SoldEmergency),
			fixed(row.SoldRecovery),
			fixed(row.RefillAmount),
			fixed(row.CashEnd),
			fixed(row.StocksEnd),
			strconv.Itoa(row.FundedAhead),
			fixed(row.Shortfall),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// BandsCSVFormatter writes the Monte Carlo percentile bands, one row per retirement year.
type BandsCSVFormatter struct{}

func (b BandsCSVFormatter) Name() string { return "bands-csv" }

func (b BandsCSVFormatter) Format(r *Report) ([]byte, error) {
	p := r.Payload
	n := len(p.SeriesYears)
	for name, series := range map[string][]float64{
		"stocks.p10": p.Stocks.P10, "stocks.p50": p.Stocks.P50, "stocks.p90": p.Stocks.P90,
		"coverage.p10": p.Coverage.P10, "coverage.p50": p.Coverage.P50, "coverage.p90": p.Coverage.P90,
	} {
		if len(series) != n {
			return nil, fmt.Errorf("band %s has %d points, expected %d", name, len(series), n)
		}
	}

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write([]string{"Year", "StocksP10", "StocksP50", "StocksP90", "CoverageP10", "CoverageP50", "CoverageP90"}); err != nil {
		return nil, err
	}
	for i, y := range p.SeriesYears {
		rec := []string{
			strconv.Itoa(y),
			fixed(p.Stocks.P10[i]), fixed(p.Stocks.P50[i]), fixed(p.Stocks.P90[i]),
			strconv.FormatFloat(p.Coverage.P10[i], 'f', -1, 64),
			strconv.FormatFloat(p.Coverage.P50[i], 'f', -1, 64),
			strconv.FormatFloat(p.Coverage.P90[i], 'f', -1, 64),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func fixed(n float64) string {
	return decimal.NewFromFloat(n).StringFixed(2)
}
