package compare

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// CSVFormatter formats comparison results as CSV
type CSVFormatter struct{}

// Format generates CSV output for comparison results
func (cf *CSVFormatter) Format(compSet *ComparisonSet) (string, error) {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	header := []string{
		"Scenario",
		"Type",
		"Success %",
		"Success SE",
		"Feasible 90",
		"Max Success Cap",
		"Start Stocks Needed",
		"Stocks Surplus",
		"Min Cash For 90",
		"First Trouble Age",
		"Initial Covered Years",
		"Median Final Stocks",
		"Success Diff from Base",
		"Stocks Needed Diff from Base",
	}
	if err := writer.Write(header); err != nil {
		return "", err
	}

	if err := writer.Write(cf.formatRow(compSet.BaseResult, "base")); err != nil {
		return "", err
	}

	for _, alt := range compSet.AlternativeResults {
		if err := writer.Write(cf.formatRow(&alt, "alternative")); err != nil {
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	return sb.String(), nil
}

// formatRow formats a comparison result as a CSV row
func (cf *CSVFormatter) formatRow(result *ComparisonResult, scenarioType string) []string {
	minCash := ""
	if result.MinCashFor90 != nil {
		minCash = strconv.FormatFloat(*result.MinCashFor90, 'f', 2, 64)
	}
	trouble := ""
	if result.FirstTroubleAge != nil {
		trouble = formatInt(*result.FirstTroubleAge)
	}
	return []string{
		result.ScenarioName,
		scenarioType,
		strconv.FormatFloat(result.SuccessPct, 'f', 2, 64),
		strconv.FormatFloat(result.SuccessSE, 'f', 2, 64),
		strconv.FormatBool(result.Feasible90),
		strconv.FormatFloat(result.MaxSuccessCap, 'f', 2, 64),
		result.StartStocksNeeded.StringFixed(2),
		result.StocksSurplus.StringFixed(2),
		minCash,
		trouble,
		formatInt(result.InitialCoveredYears),
		result.MedianFinalStocks.StringFixed(2),
		result.SuccessDiffFromBase.StringFixed(2),
		result.StocksNeededDiffFromBase.StringFixed(2),
	}
}

func formatInt(i int) string {
	return fmt.Sprintf("%d", i)
}
