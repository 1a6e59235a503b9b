package compare

import (
	"context"
	"testing"

	"github.com/rgehrsitz/bufferplan/internal/config"
	"github.com/rgehrsitz/bufferplan/internal/domain"
	"github.com/rgehrsitz/bufferplan/internal/planner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastOptions() planner.Options {
	o := planner.DefaultOptions()
	o.SolverTrials = 100
	o.SuccessTrials = 100
	o.FeasibilityTrials = 30
	o.FinalTrials = 30
	return o
}

func testPlanFile() *config.PlanFile {
	return &config.PlanFile{Plans: []config.NamedPlan{
		{
			Name:        "reference",
			Description: "Retire at 60",
			PlanRequest: domain.PlanRequest{Age: 52, RetireAge: 60, Spend: 180000, SS70: 60000, StartCash: 500000, StartStocks: 900000},
		},
		{
			Name:        "frugal",
			PlanRequest: domain.PlanRequest{Age: 52, RetireAge: 60, Spend: 120000, SS70: 60000, StartCash: 500000, StartStocks: 900000},
		},
	}}
}

func TestCompareEngine_Templates(t *testing.T) {
	ce := NewCompareEngine(fastOptions())

	compSet, err := ce.Compare(context.Background(), testPlanFile(), CompareOptions{
		BaseScenarioName: "reference",
		Templates:        []string{"full_buffer", "bear_market"},
		Transforms:       []string{"set_spend:amount=150000"},
	})
	require.NoError(t, err)

	assert.Equal(t, "reference", compSet.BaseScenarioName)
	assert.Equal(t, "Retire at 60", compSet.BaseResult.Description)
	require.Len(t, compSet.AlternativeResults, 3)

	full := compSet.AlternativeResults[0]
	assert.Equal(t, "reference_full_buffer", full.ScenarioName)
	assert.Equal(t, 1800000.0, full.Inputs.StartCash)

	bear := compSet.AlternativeResults[1]
	assert.Equal(t, "reference_bear_market", bear.ScenarioName)
	assert.Equal(t, 0.03, bear.Market.Mean)

	spend := compSet.AlternativeResults[2]
	assert.Equal(t, "reference_set_spend", spend.ScenarioName)
	assert.Equal(t, 150000.0, spend.Inputs.Spend)

	for _, alt := range compSet.AlternativeResults {
		assert.Equal(t,
			alt.StartStocksNeeded.Sub(compSet.BaseResult.StartStocksNeeded).String(),
			alt.StocksNeededDiffFromBase.String(), alt.ScenarioName)
		assert.NotNil(t, alt.Response)
	}
}

func TestCompareEngine_Scenarios(t *testing.T) {
	ce := NewCompareEngine(fastOptions())

	compSet, err := ce.CompareScenarios(context.Background(), testPlanFile(), "", nil)
	require.NoError(t, err)

	assert.Equal(t, "reference", compSet.BaseScenarioName)
	require.Len(t, compSet.AlternativeResults, 1)
	assert.Equal(t, "frugal", compSet.AlternativeResults[0].ScenarioName)
	assert.True(t, compSet.AlternativeResults[0].StartStocksNeeded.LessThan(compSet.BaseResult.StartStocksNeeded),
		"lower spending needs fewer stocks")
}

func TestCompareEngine_Errors(t *testing.T) {
	ce := NewCompareEngine(fastOptions())
	ctx := context.Background()

	_, err := ce.Compare(ctx, testPlanFile(), CompareOptions{BaseScenarioName: "missing"})
	assert.ErrorContains(t, err, `plan "missing" not found`)

	_, err = ce.Compare(ctx, testPlanFile(), CompareOptions{Templates: []string{"nope"}})
	assert.EqualError(t, err, "template nope not found")

	_, err = ce.Compare(ctx, testPlanFile(), CompareOptions{Transforms: []string{"set_retire_age:age=40"}})
	assert.Error(t, err)

	_, err = ce.CompareScenarios(ctx, testPlanFile(), "reference", []string{"ghost"})
	assert.ErrorContains(t, err, "alternative scenario")
}

func TestCompareEngine_Cancelled(t *testing.T) {
	ce := NewCompareEngine(fastOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ce.Compare(ctx, testPlanFile(), CompareOptions{Templates: []string{"full_buffer"}})
	assert.ErrorIs(t, err, context.Canceled)
}
