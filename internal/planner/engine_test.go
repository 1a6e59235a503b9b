package planner

import (
	"context"
	"testing"
	"time"

	"github.com/rgehrsitz/bufferplan/internal/calculation"
	"github.com/rgehrsitz/bufferplan/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
}

func referenceRequest() domain.PlanRequest {
	return domain.PlanRequest{Age: 52, RetireAge: 60, Spend: 180000, SS70: 60000, StartCash: 500000, StartStocks: 900000}
}

// fastOptions keeps the production seeds but trims trial counts.
func fastOptions() Options {
	o := DefaultOptions()
	o.SolverTrials = 200
	o.SuccessTrials = 200
	o.FeasibilityTrials = 50
	o.FinalTrials = 50
	return o
}

func TestNewDefaultEngine(t *testing.T) {
	e := NewDefaultEngine()

	assert.Equal(t, DefaultOptions(), e.Options)
	assert.IsType(t, calculation.NopLogger{}, e.Logger)
	assert.NotNil(t, e.Now)

	e.SetLogger(nil)
	assert.IsType(t, calculation.NopLogger{}, e.Logger)
}

func TestEngine_ReferencePlan(t *testing.T) {
	e := NewDefaultEngine()
	e.Now = fixedClock

	resp, err := e.Run(context.Background(), referenceRequest())
	require.NoError(t, err)

	assert.True(t, resp.Feasible90)
	assert.InDelta(t, 99.9, resp.MaxSuccessCap, 0.2)
	assert.Nil(t, resp.MinCashFor90)
	assert.Nil(t, resp.StocksNeededAtMinCash)
	assert.Equal(t, 180000.0, resp.StartCashNeeded)
	assert.InDelta(t, 5753918.2373046875, resp.StartStocksNeeded, 1)
	assert.Equal(t, 500000.0, resp.StartingCash)
	assert.Equal(t, 900000.0, resp.StartingStocks)
	assert.InDelta(t, 0.4, resp.SuccessPct, 0.2)
	require.NotNil(t, resp.FirstTroubleYearAge)
	assert.Equal(t, 66, *resp.FirstTroubleYearAge)
	assert.Equal(t, 2, resp.InitialCoveredYears)

	assert.Equal(t, 1000, resp.SuccessTrials)
	assert.Equal(t, 1000, resp.SolverTrials)
	assert.Greater(t, resp.SuccessSE, 0.0)
	assert.Greater(t, resp.SolverSE, 0.0)

	require.Len(t, resp.SeriesYears, 35)
	assert.Equal(t, 1, resp.SeriesYears[0])
	assert.Equal(t, 35, resp.SeriesYears[34])
	assert.Len(t, resp.Stocks.P50, 35)
	assert.Len(t, resp.Coverage.P90, 35)

	require.Len(t, resp.BaselineRows, 35)
	first := resp.BaselineRows[0]
	assert.Equal(t, 2034, first.Year, "eight years until retirement")
	assert.Equal(t, 60, first.Age)
	assert.Equal(t, 180000.0, first.Spend)
	assert.Equal(t, 0.0, first.Benefit)
	assert.InDelta(t, 1135513.8000218505, first.StocksEnd, 1e-4)
	assert.Equal(t, 60000.0, resp.BaselineRows[10].Benefit)
	third := resp.BaselineRows[2]
	assert.InDelta(t, 175026.7612799014, third.RefillAmount, 1e-4)
	assert.Equal(t, third.SoldEmergency+third.SoldRecovery, third.RefillAmount)
}

func TestEngine_StrictlyIncreasingWithStocks(t *testing.T) {
	e := NewEngine(fastOptions())
	e.Now = fixedClock

	prev := -1.0
	for _, stocks := range []float64{900000, 1500000, 3000000} {
		req := referenceRequest()
		req.StartStocks = stocks
		res, err := e.SuccessAt(context.Background(), req, req.StartCash, stocks, 1000)
		require.NoError(t, err)
		assert.Greater(t, res.SuccessPct, prev, "stocks %.0f", stocks)
		prev = res.SuccessPct
	}
}

func TestEngine_MonotoneInCash(t *testing.T) {
	e := NewEngine(fastOptions())
	req := referenceRequest()

	prev := -1.0
	for _, cash := range []float64{180000, 540000, 900000, 1800000} {
		res, err := e.SuccessAt(context.Background(), req, cash, 3000000, 1000)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.SuccessPct, prev-res.StandardError, "cash %.0f", cash)
		prev = res.SuccessPct
	}
}

func TestEngine_ZeroNeed(t *testing.T) {
	e := NewEngine(fastOptions())
	resp, err := e.Run(context.Background(), domain.PlanRequest{Age: 60, RetireAge: 65, Spend: 0, SS70: 10000})

	require.NoError(t, err)
	assert.Equal(t, 100.0, resp.SuccessPct)
	assert.Nil(t, resp.FirstTroubleYearAge)
	assert.True(t, resp.Feasible90)
	assert.Equal(t, 0.0, resp.StartCashNeeded)
	assert.Equal(t, 10, resp.InitialCoveredYears, "zero needs count as covered")
}

func TestEngine_YearOneCashNeed(t *testing.T) {
	e := NewEngine(fastOptions())
	for _, retire := range []int{55, 65, 85} {
		req := domain.PlanRequest{Age: 50, RetireAge: retire, Spend: 180000, StartStocks: 1e6}
		resp, err := e.Run(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, 180000.0, resp.StartCashNeeded, "retire at %d", retire)
		assert.Equal(t, 180000.0, resp.StartingCash, "cash is raised to the year-one need")
		assert.Equal(t, 1, resp.InitialCoveredYears)
	}
}

func TestEngine_InfeasibleFallsBackToCashSolver(t *testing.T) {
	opts := fastOptions()
	opts.Market = calculation.Market{Mean: -0.9, Stdev: 0}
	e := NewEngine(opts)

	resp, err := e.Run(context.Background(), domain.PlanRequest{Age: 80, RetireAge: 88, Spend: 100000})
	require.NoError(t, err)

	assert.False(t, resp.Feasible90)
	assert.Equal(t, 0.0, resp.MaxSuccessCap)
	assert.InDelta(t, 66135824.784, resp.StartStocksNeeded, 1e-3, "infeasible runs report the bound")
	require.NotNil(t, resp.MinCashFor90)
	assert.Equal(t, 700000.0, *resp.MinCashFor90)
	require.NotNil(t, resp.StocksNeededAtMinCash)
	assert.InDelta(t, 854.50439453125, *resp.StocksNeededAtMinCash, 1e-6)
	assert.Equal(t, 0.0, resp.SuccessPct)
	require.NotNil(t, resp.FirstTroubleYearAge)
	assert.Equal(t, 89, *resp.FirstTroubleYearAge)
}

func TestEngine_EmptyHorizon(t *testing.T) {
	e := NewEngine(fastOptions())
	resp, err := e.Run(context.Background(), domain.PlanRequest{Age: 96, RetireAge: 96, Spend: 50000})

	require.NoError(t, err)
	assert.Equal(t, 100.0, resp.SuccessPct)
	assert.Equal(t, 0.0, resp.StartCashNeeded)
	assert.Empty(t, resp.BaselineRows)
	assert.Empty(t, resp.SeriesYears)
}

func TestEngine_RejectsInvalidRequest(t *testing.T) {
	e := NewEngine(fastOptions())
	_, err := e.Run(context.Background(), domain.PlanRequest{Age: 60, RetireAge: 55})

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Problems, 1)
}

func TestEngine_Reproducible(t *testing.T) {
	e := NewEngine(fastOptions())
	e.Now = fixedClock

	a, err := e.Run(context.Background(), referenceRequest())
	require.NoError(t, err)
	b, err := e.Run(context.Background(), referenceRequest())
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestEngine_ProgressReachesDone(t *testing.T) {
	var last calculation.ProgressEvent
	count := 0
	e := NewEngine(fastOptions()).WithProgress(func(ev calculation.ProgressEvent) {
		last = ev
		count++
	})

	_, err := e.Run(context.Background(), referenceRequest())

	require.NoError(t, err)
	assert.Greater(t, count, 3)
	assert.Equal(t, calculation.StageDone, last.Stage)
}

func TestEngine_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDefaultEngine().Run(ctx, referenceRequest())

	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_SolveHelpers(t *testing.T) {
	e := NewEngine(fastOptions())
	req := referenceRequest()

	stocks, err := e.SolveStocks(context.Background(), req, req.StartCash)
	require.NoError(t, err)
	assert.True(t, stocks.Feasible)

	frontier, err := e.Frontier(context.Background(), req, []float64{1800000, 180000})
	require.NoError(t, err)
	require.Len(t, frontier.Points, 2)
	assert.Equal(t, 180000.0, frontier.Points[0].Cash, "levels are sorted")
	assert.Greater(t, *frontier.Points[0].Result.Needed, *frontier.Points[1].Result.Needed)
}
