package compare

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TableFormatter formats comparison results as a console table
type TableFormatter struct{}

// Format generates a formatted table comparing scenarios
func (tf *TableFormatter) Format(compSet *ComparisonSet) string {
	var sb strings.Builder

	sb.WriteString("CASH BUFFER PLAN COMPARISON\n")
	sb.WriteString(strings.Repeat("=", 90) + "\n")
	sb.WriteString(fmt.Sprintf("Base Scenario: %s\n", compSet.BaseScenarioName))
	if compSet.PlanPath != "" {
		sb.WriteString(fmt.Sprintf("Plan File: %s\n", compSet.PlanPath))
	}
	sb.WriteString("\n")

	nameWidth := 30
	numWidth := 14

	sb.WriteString(fmt.Sprintf("%-*s %*s %*s %*s %*s\n",
		nameWidth, "Scenario",
		numWidth-4, "Success",
		numWidth, "Stocks Needed",
		numWidth, "Min Cash 90%",
		numWidth, "First Trouble"))
	sb.WriteString(strings.Repeat("-", 90) + "\n")

	sb.WriteString(tf.formatRow(compSet.BaseResult, nameWidth, numWidth, true))

	if len(compSet.AlternativeResults) > 0 {
		sb.WriteString(strings.Repeat("-", 90) + "\n")
		for _, alt := range compSet.AlternativeResults {
			sb.WriteString(tf.formatRow(&alt, nameWidth, numWidth, false))
		}
	}

	sb.WriteString(strings.Repeat("=", 90) + "\n")

	if len(compSet.AlternativeResults) > 0 {
		sb.WriteString("\nCOMPARISON TO BASE\n")
		sb.WriteString(strings.Repeat("-", 90) + "\n")

		for _, alt := range compSet.AlternativeResults {
			sb.WriteString(fmt.Sprintf("\n%s:\n", alt.ScenarioName))
			if alt.Description != "" {
				sb.WriteString(fmt.Sprintf("  %s\n", alt.Description))
			}
			sb.WriteString(fmt.Sprintf("  Success:          %s%s pts\n",
				tf.deltaSymbol(alt.SuccessDiffFromBase), alt.SuccessDiffFromBase.StringFixed(1)))

			if !alt.StocksNeededDiffFromBase.IsZero() {
				// Needing less is better
				sb.WriteString(fmt.Sprintf("  Stocks Needed:    %s$%s\n",
					signOf(alt.StocksNeededDiffFromBase),
					tf.formatDecimal(alt.StocksNeededDiffFromBase.Abs())))
			}
			if !alt.SurplusDiffFromBase.IsZero() {
				sb.WriteString(fmt.Sprintf("  Headroom:         %s$%s\n",
					signOf(alt.SurplusDiffFromBase),
					tf.formatDecimal(alt.SurplusDiffFromBase.Abs())))
			}
		}
		sb.WriteString("\n")
	}

	if len(compSet.Recommendations) > 0 {
		sb.WriteString("\nRECOMMENDATIONS\n")
		sb.WriteString(strings.Repeat("-", 90) + "\n")
		for _, rec := range compSet.Recommendations {
			sb.WriteString(fmt.Sprintf("• %s\n", rec))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatRow formats a single scenario row
func (tf *TableFormatter) formatRow(result *ComparisonResult, nameWidth, numWidth int, isBase bool) string {
	name := result.ScenarioName
	if isBase {
		name += " (base)"
	}

	minCash := "n/a"
	if result.MinCashFor90 != nil {
		minCash = "$" + tf.formatDecimal(decimal.NewFromFloat(*result.MinCashFor90))
	}
	trouble := "none"
	if result.FirstTroubleAge != nil {
		trouble = fmt.Sprintf("age %d", *result.FirstTroubleAge)
	}
	needed := "$" + tf.formatDecimal(result.StartStocksNeeded)
	if !result.Feasible90 {
		needed = fmt.Sprintf("cap %.1f%%", result.MaxSuccessCap)
	}

	return fmt.Sprintf("%-*s %*s %*s %*s %*s\n",
		nameWidth, tf.truncate(name, nameWidth),
		numWidth-4, fmt.Sprintf("%.1f%%", result.SuccessPct),
		numWidth, needed,
		numWidth, minCash,
		numWidth, trouble)
}

// formatDecimal formats a decimal for display (in thousands)
func (tf *TableFormatter) formatDecimal(d decimal.Decimal) string {
	if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(1000000)) {
		millions := d.Div(decimal.NewFromInt(1000000))
		return millions.StringFixed(2) + "M"
	} else if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(1000)) {
		thousands := d.Div(decimal.NewFromInt(1000))
		return thousands.StringFixed(1) + "K"
	}
	return d.StringFixed(0)
}

// deltaSymbol returns a + prefix for positive deltas; negatives carry their own sign
func (tf *TableFormatter) deltaSymbol(delta decimal.Decimal) string {
	if delta.IsPositive() {
		return "+"
	}
	return ""
}

func signOf(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-"
	}
	return "+"
}

// truncate truncates a string to maxLen
func (tf *TableFormatter) truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// FormatCompact creates a compact single-line summary for each scenario
func (tf *TableFormatter) FormatCompact(compSet *ComparisonSet) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Base: %s %.1f%% | ", compSet.BaseScenarioName, compSet.BaseResult.SuccessPct))

	for i, alt := range compSet.AlternativeResults {
		if i > 0 {
			sb.WriteString(" | ")
		}
		change := "="
		if !alt.SuccessDiffFromBase.IsZero() {
			change = tf.deltaSymbol(alt.SuccessDiffFromBase) + alt.SuccessDiffFromBase.StringFixed(1) + "pts"
		}
		sb.WriteString(fmt.Sprintf("%s: %s", alt.ScenarioName, change))
	}

	return sb.String()
}
