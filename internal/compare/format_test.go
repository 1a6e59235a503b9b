package compare

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rgehrsitz/bufferplan/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestComparisonSet() *ComparisonSet {
	return &ComparisonSet{
		BaseScenarioName: "reference",
		PlanPath:         "/path/to/plans.yaml",
		BaseResult: &ComparisonResult{
			ScenarioName:        "reference",
			SuccessPct:          41.5,
			Feasible90:          true,
			MaxSuccessCap:       99.9,
			StartStocksNeeded:   decimal.NewFromInt(5750000),
			StocksSurplus:       decimal.NewFromInt(-4850000),
			FirstTroubleAge:     intPtr(66),
			InitialCoveredYears: 2,
		},
		AlternativeResults: []ComparisonResult{
			{
				ScenarioName:             "reference_spend_minus_20pct",
				Description:              "Cut spending by 20%",
				SuccessPct:               63.0,
				Feasible90:               true,
				StartStocksNeeded:        decimal.NewFromInt(3250000),
				StocksSurplus:            decimal.NewFromInt(-2350000),
				FirstTroubleAge:          intPtr(71),
				InitialCoveredYears:      3,
				SuccessDiffFromBase:      decimal.NewFromFloat(21.5),
				StocksNeededDiffFromBase: decimal.NewFromInt(-2500000),
				SurplusDiffFromBase:      decimal.NewFromInt(2500000),
			},
			{
				ScenarioName:             "reference_bear_market",
				SuccessPct:               12.0,
				Feasible90:               false,
				MaxSuccessCap:            71.2,
				MinCashFor90:             floatPtr(1200000),
				StartStocksNeeded:        decimal.NewFromInt(9000000),
				SuccessDiffFromBase:      decimal.NewFromFloat(-29.5),
				StocksNeededDiffFromBase: decimal.NewFromInt(3250000),
			},
		},
		Recommendations: []string{"Best Success: reference_spend_minus_20pct raises the chance of success from 41.5% to 63.0%"},
	}
}

func TestTableFormatter_Format(t *testing.T) {
	out := (&TableFormatter{}).Format(buildTestComparisonSet())

	assert.Contains(t, out, "CASH BUFFER PLAN COMPARISON")
	assert.Contains(t, out, "Base Scenario: reference")
	assert.Contains(t, out, "Plan File: /path/to/plans.yaml")
	assert.Contains(t, out, "reference (base)")
	assert.Contains(t, out, "$5.75M")
	assert.Contains(t, out, "age 66")
	assert.Contains(t, out, "cap 71.2%")
	assert.Contains(t, out, "$1.20M")
	assert.Contains(t, out, "Success:          +21.5 pts")
	assert.Contains(t, out, "Success:          -29.5 pts")
	assert.Contains(t, out, "Stocks Needed:    -$2.50M")
	assert.Contains(t, out, "Cut spending by 20%")
	assert.Contains(t, out, "RECOMMENDATIONS")
}

func TestTableFormatter_Format_EmptyAlternatives(t *testing.T) {
	compSet := buildTestComparisonSet()
	compSet.AlternativeResults = nil
	compSet.Recommendations = nil
	compSet.PlanPath = ""

	out := (&TableFormatter{}).Format(compSet)

	assert.NotContains(t, out, "COMPARISON TO BASE")
	assert.NotContains(t, out, "RECOMMENDATIONS")
	assert.NotContains(t, out, "Plan File:")
}

func TestTableFormatter_formatRow(t *testing.T) {
	tf := &TableFormatter{}
	r := &ComparisonResult{
		ScenarioName:      "a_really_long_scenario_name_that_overflows",
		SuccessPct:        100,
		Feasible90:        true,
		StartStocksNeeded: decimal.NewFromInt(750),
	}

	row := tf.formatRow(r, 20, 14, false)

	assert.True(t, strings.HasPrefix(row, "a_really_long_sce..."))
	assert.Contains(t, row, "100.0%")
	assert.Contains(t, row, "$750")
	assert.Contains(t, row, "n/a")
	assert.Contains(t, row, "none")
}

func TestTableFormatter_FormatCompact(t *testing.T) {
	out := (&TableFormatter{}).FormatCompact(buildTestComparisonSet())
	assert.Equal(t, "Base: reference 41.5% | reference_spend_minus_20pct: +21.5pts | reference_bear_market: -29.5pts", out)
}

func TestCSVFormatter_Format(t *testing.T) {
	out, err := (&CSVFormatter{}).Format(buildTestComparisonSet())
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, "Scenario", records[0][0])
	assert.Len(t, records[0], 14)

	base := records[1]
	assert.Equal(t, []string{"reference", "base", "41.50"}, base[:3])
	assert.Equal(t, "", base[8], "no minimum cash when feasible")
	assert.Equal(t, "66", base[9])

	bear := records[3]
	assert.Equal(t, "alternative", bear[1])
	assert.Equal(t, "false", bear[4])
	assert.Equal(t, "1200000.00", bear[8])
	assert.Equal(t, "", bear[9])
	assert.Equal(t, "-29.50", bear[12])
}

func TestJSONFormatter_Format(t *testing.T) {
	compSet := buildTestComparisonSet()

	for _, pretty := range []bool{false, true} {
		out, err := (&JSONFormatter{Pretty: pretty}).Format(compSet)
		require.NoError(t, err)
		assert.Equal(t, pretty, strings.Contains(out, "\n  "))

		var decoded map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &decoded))
		assert.Equal(t, "reference", decoded["baseScenarioName"])

		alts := decoded["alternativeResults"].([]any)
		require.Len(t, alts, 2)
		first := alts[0].(map[string]any)
		assert.Equal(t, "reference_spend_minus_20pct", first["scenarioName"])
		assert.Equal(t, 63.0, first["successPct"])
		assert.NotContains(t, first, "Response")
	}
}

func TestJSONFormatter_BestAndResponses(t *testing.T) {
	compSet := buildTestComparisonSet()
	compSet.BaseResult.Response = &domain.PlanResponse{SuccessPct: 41.5}
	compSet.AlternativeResults[0].Response = &domain.PlanResponse{SuccessPct: 63}

	out, err := (&JSONFormatter{}).Format(compSet)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "reference_spend_minus_20pct", decoded["bestAlternative"])
	assert.NotContains(t, decoded, "responses")

	out, err = (&JSONFormatter{IncludeResponses: true}).Format(compSet)
	require.NoError(t, err)
	decoded = nil
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	responses := decoded["responses"].(map[string]any)
	assert.Len(t, responses, 2)
	assert.Contains(t, responses, "reference")
}

func TestBestAlternative_NoneBetter(t *testing.T) {
	compSet := buildTestComparisonSet()
	compSet.AlternativeResults = compSet.AlternativeResults[1:]
	assert.Nil(t, BestAlternative(compSet))
}
