package breakeven

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TableFormatter formats solver results as console tables
type TableFormatter struct{}

// FormatStock renders a stock-need solve.
func (tf *TableFormatter) FormatStock(result *StockResult, targetPct float64) string {
	var sb strings.Builder

	sb.WriteString("STOCKS NEEDED\n")
	sb.WriteString(strings.Repeat("=", 60) + "\n")
	sb.WriteString(fmt.Sprintf("Target Success:   %.0f%%\n", targetPct))
	sb.WriteString(fmt.Sprintf("Status:           %s\n", tf.formatStatus(result.Feasible)))
	sb.WriteString(fmt.Sprintf("Trials/Probe:     %d\n", result.Trials))
	sb.WriteString(fmt.Sprintf("Probes:           %d (%d bisection steps)\n", result.Probes, result.Iterations))
	if result.Needed != nil {
		sb.WriteString(fmt.Sprintf("Stocks Needed:    $%s\n", tf.formatCurrency(*result.Needed)))
		sb.WriteString(fmt.Sprintf("Success There:    %.1f%%\n", result.SuccessAtNeeded))
	} else {
		sb.WriteString(fmt.Sprintf("Search Bound:     $%s\n", tf.formatCurrency(result.Bound)))
		sb.WriteString(fmt.Sprintf("Best Success:     %.1f%%\n", result.MaxSuccessPct))
	}
	return sb.String()
}

// FormatCash renders a minimum-cash solve.
func (tf *TableFormatter) FormatCash(result *CashResult) string {
	var sb strings.Builder

	sb.WriteString("MINIMUM CASH\n")
	sb.WriteString(strings.Repeat("=", 60) + "\n")
	if !result.Found() {
		sb.WriteString("No cash level makes the target reachable, even a full 10-year buffer.\n")
		return sb.String()
	}
	sb.WriteString(fmt.Sprintf("Minimum Cash:     $%s\n", tf.formatCurrency(*result.MinCash)))
	if result.StocksAtMin != nil {
		sb.WriteString(fmt.Sprintf("Stocks At Min:    $%s\n", tf.formatCurrency(*result.StocksAtMin)))
	}
	sb.WriteString(fmt.Sprintf("Iterations:       %d\n", result.Iterations))
	return sb.String()
}

// FormatFrontier renders a cash/stocks frontier.
func (tf *TableFormatter) FormatFrontier(f *Frontier) string {
	var sb strings.Builder

	sb.WriteString("CASH / STOCKS FRONTIER\n")
	sb.WriteString(strings.Repeat("=", 60) + "\n")
	sb.WriteString(fmt.Sprintf("%14s %8s %16s %10s\n", "Cash", "Covered", "Stocks Needed", "Success"))
	sb.WriteString(strings.Repeat("-", 60) + "\n")
	for _, p := range f.Points {
		needed := "infeasible"
		success := fmt.Sprintf("%.1f%%", p.Result.MaxSuccessPct)
		if p.Result.Needed != nil {
			needed = "$" + tf.formatShort(*p.Result.Needed)
			success = fmt.Sprintf("%.1f%%", p.Result.SuccessAtNeeded)
		}
		sb.WriteString(fmt.Sprintf("%14s %8d %16s %10s\n", "$"+tf.formatShort(p.Cash), p.InitialCoveredYears, needed, success))
	}
	if len(f.Recommendations) > 0 {
		sb.WriteString("\nRECOMMENDATIONS\n")
		sb.WriteString(strings.Repeat("-", 60) + "\n")
		for _, rec := range f.Recommendations {
			sb.WriteString(fmt.Sprintf("• %s\n", rec))
		}
	}
	return sb.String()
}

// JSONFormatter formats results as JSON
type JSONFormatter struct {
	Pretty bool
}

// Format marshals any solver result.
func (jf *JSONFormatter) Format(result interface{}) (string, error) {
	var data []byte
	var err error

	if jf.Pretty {
		data, err = json.MarshalIndent(result, "", "  ")
	} else {
		data, err = json.Marshal(result)
	}

	if err != nil {
		return "", err
	}

	return string(data), nil
}

// Helper methods

func (tf *TableFormatter) formatStatus(feasible bool) string {
	if feasible {
		return "✓ Target reachable"
	}
	return "⚠ Target unreachable"
}

func (tf *TableFormatter) formatCurrency(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(0)
}

func (tf *TableFormatter) formatShort(v float64) string {
	d := decimal.NewFromFloat(v)
	if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(1000000)) {
		millions := d.Div(decimal.NewFromInt(1000000))
		return millions.StringFixed(2) + "M"
	} else if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(1000)) {
		thousands := d.Div(decimal.NewFromInt(1000))
		return thousands.StringFixed(1) + "K"
	}
	return d.StringFixed(0)
}
