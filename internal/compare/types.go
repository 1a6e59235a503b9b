package compare

import (
	"fmt"

	"github.com/rgehrsitz/bufferplan/internal/calculation"
	"github.com/rgehrsitz/bufferplan/internal/domain"
	"github.com/rgehrsitz/bufferplan/internal/transform"
	"github.com/shopspring/decimal"
)

// ComparisonResult represents a single scenario comparison with calculated metrics
type ComparisonResult struct {
	ScenarioName string               `json:"scenarioName"`
	Description  string               `json:"description"`
	Inputs       domain.PlanRequest   `json:"inputs"`
	Market       calculation.Market   `json:"market"`
	Response     *domain.PlanResponse `json:"-"`

	// Key Metrics
	SuccessPct          float64         `json:"successPct"`
	SuccessSE           float64         `json:"successSE"`
	Feasible90          bool            `json:"feasible90"`
	MaxSuccessCap       float64         `json:"maxSuccessCap"`
	StartStocksNeeded   decimal.Decimal `json:"startStocksNeeded"`
	StocksSurplus       decimal.Decimal `json:"stocksSurplus"` // starting stocks minus stocks needed
	MinCashFor90        *float64        `json:"minCashFor90"`
	FirstTroubleAge     *int            `json:"firstTroubleAge"`
	InitialCoveredYears int             `json:"initialCoveredYears"`
	MedianFinalStocks   decimal.Decimal `json:"medianFinalStocks"`

	// Comparison to Base
	SuccessDiffFromBase      decimal.Decimal `json:"successDiffFromBase"` // percentage points
	StocksNeededDiffFromBase decimal.Decimal `json:"stocksNeededDiffFromBase"`
	SurplusDiffFromBase      decimal.Decimal `json:"surplusDiffFromBase"`
}

// ComparisonSet represents a collection of scenario comparisons
type ComparisonSet struct {
	BaseScenarioName   string             `json:"baseScenarioName"`
	BaseResult         *ComparisonResult  `json:"baseResult"`
	AlternativeResults []ComparisonResult `json:"alternativeResults"`
	Recommendations    []string           `json:"recommendations"`
	PlanPath           string             `json:"planPath"`
}

// MetricsCalculator extracts key metrics from plan responses
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// CalculateMetrics computes all comparison metrics for one evaluated scenario
func (mc *MetricsCalculator) CalculateMetrics(s *transform.Scenario, resp *domain.PlanResponse) ComparisonResult {
	needed := decimal.NewFromFloat(resp.StartStocksNeeded)
	result := ComparisonResult{
		ScenarioName:        s.Name,
		Inputs:              s.Request,
		Market:              s.Market,
		Response:            resp,
		SuccessPct:          resp.SuccessPct,
		SuccessSE:           resp.SuccessSE,
		Feasible90:          resp.Feasible90,
		MaxSuccessCap:       resp.MaxSuccessCap,
		StartStocksNeeded:   needed,
		StocksSurplus:       decimal.NewFromFloat(resp.StartingStocks).Sub(needed),
		MinCashFor90:        resp.MinCashFor90,
		FirstTroubleAge:     resp.FirstTroubleYearAge,
		InitialCoveredYears: resp.InitialCoveredYears,
	}
	if n := len(resp.Stocks.P50); n > 0 {
		result.MedianFinalStocks = decimal.NewFromFloat(resp.Stocks.P50[n-1])
	}
	return result
}

// CalculateComparison computes comparison metrics between a scenario and a base
func (mc *MetricsCalculator) CalculateComparison(scenario, base ComparisonResult) ComparisonResult {
	scenario.SuccessDiffFromBase = decimal.NewFromFloat(scenario.SuccessPct).Sub(decimal.NewFromFloat(base.SuccessPct))
	scenario.StocksNeededDiffFromBase = scenario.StartStocksNeeded.Sub(base.StartStocksNeeded)
	scenario.SurplusDiffFromBase = scenario.StocksSurplus.Sub(base.StocksSurplus)
	return scenario
}

// GenerateRecommendations creates recommendations based on comparison results
func GenerateRecommendations(compSet *ComparisonSet) []string {
	recommendations := []string{}

	if len(compSet.AlternativeResults) == 0 || compSet.BaseResult == nil {
		return recommendations
	}
	base := compSet.BaseResult

	// Highest chance of success
	best := base
	for i := range compSet.AlternativeResults {
		if alt := &compSet.AlternativeResults[i]; alt.SuccessPct > best.SuccessPct {
			best = alt
		}
	}
	if best != base {
		recommendations = append(recommendations,
			fmt.Sprintf("Best Success: %s raises the chance of success from %.1f%% to %.1f%%",
				best.ScenarioName, base.SuccessPct, best.SuccessPct))
	}

	// Lowest stocks needed among plans that can reach the target
	var cheapest *ComparisonResult
	if base.Feasible90 {
		cheapest = base
	}
	for i := range compSet.AlternativeResults {
		alt := &compSet.AlternativeResults[i]
		if alt.Feasible90 && (cheapest == nil || alt.StartStocksNeeded.LessThan(cheapest.StartStocksNeeded)) {
			cheapest = alt
		}
	}
	if cheapest != nil && cheapest != base {
		if base.Feasible90 {
			saved := base.StartStocksNeeded.Sub(cheapest.StartStocksNeeded)
			recommendations = append(recommendations,
				"Lowest Stocks Needed: "+cheapest.ScenarioName+" needs $"+saved.StringFixed(0)+" less in stocks than the base plan")
		} else {
			recommendations = append(recommendations,
				"Reaches 90%: "+cheapest.ScenarioName+" makes the 90% standard reachable with $"+
					cheapest.StartStocksNeeded.StringFixed(0)+" in stocks")
		}
	}

	// Largest surplus over what is needed
	roomiest := base
	for i := range compSet.AlternativeResults {
		if alt := &compSet.AlternativeResults[i]; alt.StocksSurplus.GreaterThan(roomiest.StocksSurplus) {
			roomiest = alt
		}
	}
	if roomiest != base && roomiest.StocksSurplus.IsPositive() {
		recommendations = append(recommendations,
			"Most Headroom: "+roomiest.ScenarioName+" leaves $"+roomiest.StocksSurplus.StringFixed(0)+
				" of stocks above what is needed")
	}

	return recommendations
}
