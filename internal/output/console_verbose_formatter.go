package output

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/rgehrsitz/bufferplan/internal/domain"
)

// ConsoleFormatter renders the detailed console report. With Debug set every baseline
// row is followed by its emergency and recovery traces.
type ConsoleFormatter struct {
	Debug bool
}

func (c ConsoleFormatter) Name() string {
	if c.Debug {
		return "console-debug"
	}
	return "console"
}

func (c ConsoleFormatter) Format(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	p := r.Payload
	s := Summarize(r)

	fmt.Fprintln(&buf, "=================================================================================")
	fmt.Fprintln(&buf, "CASH BUFFER & STOCK SUSTAINABILITY ANALYSIS")
	if r.Name != "" {
		fmt.Fprintf(&buf, "Plan: %s\n", r.Name)
	}
	fmt.Fprintln(&buf, "=================================================================================")
	fmt.Fprintln(&buf)
	fmt.Fprintln(&buf, s.Banner)
	fmt.Fprintln(&buf)

	fmt.Fprintln(&buf, "KEY ASSUMPTIONS:")
	for _, a := range DefaultAssumptions {
		fmt.Fprintf(&buf, "• %s\n", a)
	}
	fmt.Fprintf(&buf, "• Market: mean %s, stdev %s, %d trials\n",
		FormatPercent(r.Meta.Mean*100), FormatPercent(r.Meta.Stdev*100), r.Meta.Trials)
	fmt.Fprintln(&buf)

	writeInputs(&buf, r, s)

	fmt.Fprintln(&buf, "SUMMARY")
	fmt.Fprintln(&buf, strings.Repeat("=", 50))
	fmt.Fprintf(&buf, "Start Cash Needed (year 1): %s\n", FormatMoney(s.StartCashNeeded))
	fmt.Fprintf(&buf, "Start Stocks Needed:        %s\n", FormatMoney(s.StartStocksNeeded))
	fmt.Fprintf(&buf, "Your Starting Cash:         %s [%s]\n", FormatMoney(p.StartingCash), s.Cash)
	fmt.Fprintf(&buf, "Your Starting Stocks:       %s [%s]\n", FormatMoney(p.StartingStocks), s.Stocks)
	fmt.Fprintf(&buf, "Chance of success:          %s (±%s)\n", FormatPercent(p.SuccessPct), FormatPercent(p.SuccessSE))
	fmt.Fprintf(&buf, "First trouble:              %s\n", s.FirstTrouble)
	if !p.Feasible90 {
		fmt.Fprintf(&buf, "Max achievable success:     %s\n", FormatPercent(p.MaxSuccessCap))
	}
	fmt.Fprintln(&buf)

	fmt.Fprintln(&buf, "RECOMMENDATIONS")
	fmt.Fprintln(&buf, strings.Repeat("=", 50))
	for _, rec := range s.Recommendations {
		fmt.Fprintf(&buf, "• %s\n", rec)
	}
	fmt.Fprintln(&buf)

	writeBaselineTable(&buf, p.BaselineRows, c.Debug)
	return buf.Bytes(), nil
}

func writeInputs(w io.Writer, r *Report, s Summary) {
	in := r.Inputs
	fmt.Fprintln(w, "INPUTS")
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintf(w, "Your age:              %d\n", in.Age)
	fmt.Fprintf(w, "Retirement age:        %d (%d yrs; %d)\n", in.RetireAge, s.Hints.YearsToRetirement, s.Hints.RetirementYear)
	fmt.Fprintf(w, "All-in spending:       %s\n", FormatMoney(in.Spend))
	fmt.Fprintf(w, "SS at 70:              %s/yr\n", FormatMoney(in.SS70))
	fmt.Fprintf(w, "Starting Cash:         %s\n", FormatMoney(in.StartCash))
	fmt.Fprintf(w, "Starting Stocks:       %s\n", FormatMoney(in.StartStocks))
	fmt.Fprintf(w, "Initial cash coverage: %d year(s)\n", r.Payload.InitialCoveredYears)
	fmt.Fprintf(w, "Buffer target:         %d years\n", domain.BufferYears)
	fmt.Fprintln(w, s.Hints.String())
	fmt.Fprintln(w)
}

func writeBaselineTable(w io.Writer, rows []domain.BaselineRow, debug bool) {
	fmt.Fprintln(w, "BASELINE PATH")
	fmt.Fprintln(w, strings.Repeat("=", 50))
	if len(rows) == 0 {
		fmt.Fprintln(w, "(no retirement years before age 95)")
		return
	}
	fmt.Fprintf(w, "%-6s %4s %12s %12s %12s %12s %12s %12s %14s %6s\n",
		"Year", "Age", "Spend", "SS", "Cash Used", "Emergency", "Recovery", "Cash End", "Stocks End", "Ahead")
	fmt.Fprintln(w, strings.Repeat("-", 112))
	for _, row := range rows {
		mark := ""
		switch {
		case row.Shortfall > 0:
			mark = " !"
		case row.RefillAmount > 0:
			mark = " +"
		}
		fmt.Fprintf(w, "%-6d %4d %12s %12s %12s %12s %12s %12s %14s %6d%s\n",
			row.Year, row.Age,
			FormatMoney(row.Spend), FormatMoney(row.Benefit), FormatMoney(row.CashUsed),
			dashIfZero(row.SoldEmergency), dashIfZero(row.SoldRecovery),
			FormatMoney(row.CashEnd), FormatMoney(row.StocksEnd), row.FundedAhead, mark)
		if debug {
			writeTraces(w, row.Debug)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "+ refill year   ! shortfall year")
}

func writeTraces(w io.Writer, d domain.RowDebug) {
	if e := d.Emergency; e != nil {
		fmt.Fprintf(w, "    emergency: preS=%.0f sellNow=%.0f gap10=%.0f Ke=%d extra=%.0f fe=%.4f B0=%.0f reserve=%.0f cap=%.0f Be=%.0f\n",
			e.PreSaleStocks, e.SellNow, e.Gap10, e.TargetYears, e.ExtraNeed, e.Abundance, e.RawBudget, e.ReserveAllow, e.AnnualCap, e.Budget)
	}
	if rc := d.Recovery; rc != nil {
		fmt.Fprintf(w, "    recovery: P=%.4f peak=%.4f gap10=%.0f K=%.2f f=%.4f depth=%.4f rho=%.4f g=%.4f cap=%.0f b0=%.0f sale=%.0f S=%.0f->%.0f\n",
			rc.Price, rc.Peak, rc.Gap10, rc.TargetYears, rc.Abundance, rc.Depth, rc.Rebound, rc.Gate, rc.ReserveCap, rc.RawBudget, rc.SaleBudget, rc.StocksBefore, rc.StocksAfter)
	}
}

func dashIfZero(n float64) string {
	if n > 0 {
		return FormatMoney(n)
	}
	return "-"
}

// ConsoleLiteFormatter renders the headline figures only.
type ConsoleLiteFormatter struct{}

func (c ConsoleLiteFormatter) Name() string { return "console-lite" }

func (c ConsoleLiteFormatter) Format(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	p := r.Payload
	s := Summarize(r)

	fmt.Fprintln(&buf, "PLAN SUMMARY")
	fmt.Fprintln(&buf, "============")
	if r.Name != "" {
		fmt.Fprintf(&buf, "Plan: %s\n", r.Name)
	}
	fmt.Fprintf(&buf, "Start Stocks Needed: %s\n", FormatMoney(s.StartStocksNeeded))
	fmt.Fprintf(&buf, "Starting Cash:       %s [%s]\n", FormatMoney(p.StartingCash), s.Cash)
	fmt.Fprintf(&buf, "Starting Stocks:     %s [%s]\n", FormatMoney(p.StartingStocks), s.Stocks)
	fmt.Fprintf(&buf, "Chance of success:   %s\n", FormatPercent(p.SuccessPct))
	fmt.Fprintf(&buf, "First trouble:       %s\n", s.FirstTrouble)
	if !p.Feasible90 {
		fmt.Fprintln(&buf, s.Banner)
	}
	for _, rec := range s.Recommendations {
		fmt.Fprintf(&buf, "→ %s\n", rec)
	}
	return buf.Bytes(), nil
}
