package breakeven

import (
	"context"
	"errors"
	"testing"

	"github.com/rgehrsitz/bufferplan/internal/calculation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collapsingMarket loses 90% every year with no volatility, so late years can only be
// funded from cash.
var collapsingMarket = calculation.Market{Mean: -0.9, Stdev: 0}

func smallPlan(cash float64) (calculation.NeedLadder, calculation.CoverLadder) {
	needs := calculation.BuildNeedLadder(40000, 30000, 65)
	return needs, calculation.AllocateCash(cash, needs).Cover
}

func solverWithTrials(m calculation.Market, trials int) *StockSolver {
	opts := DefaultSolverOptions()
	opts.Trials = trials
	return NewStockSolver(m, opts)
}

func TestNewDefaultStockSolver(t *testing.T) {
	solver := NewDefaultStockSolver()

	if solver == nil {
		t.Fatal("Expected solver to be created, got nil")
	}
	if solver.Options != DefaultSolverOptions() {
		t.Error("Expected default options to be applied")
	}
	if solver.Simulator.Profile != calculation.TrialProfile {
		t.Error("Expected the trial profile")
	}
	if _, ok := solver.Logger.(calculation.NopLogger); !ok {
		t.Error("Expected a no-op logger by default")
	}
}

func TestStockSolver_SetLogger(t *testing.T) {
	solver := NewDefaultStockSolver()
	solver.SetLogger(nil)
	assert.IsType(t, calculation.NopLogger{}, solver.Logger)
}

func TestStockSolver_ReferenceSolve(t *testing.T) {
	tests := []struct {
		name   string
		cash   float64
		needed float64
	}{
		{"no cash", 0, 563611.1572265625},
		{"one year", 40000, 519115.53955078125},
		{"ten years", 400000, 276312.29248046875},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			needs, cover := smallPlan(tt.cash)
			res, err := solverWithTrials(calculation.DefaultMarket(), 200).Solve(context.Background(), needs, cover)

			require.NoError(t, err)
			require.True(t, res.Feasible)
			require.NotNil(t, res.Needed)
			assert.InDelta(t, tt.needed, *res.Needed, 1)
			assert.Equal(t, 100.0, res.MaxSuccessPct)
			assert.GreaterOrEqual(t, res.SuccessAtNeeded, 90.0)
			assert.Equal(t, *res.Needed, res.NeededOrBound())
			assert.LessOrEqual(t, res.Iterations, 24)
			assert.Equal(t, 200, res.Trials)
		})
	}
}

func TestStockSolver_MoreCashNeedsFewerStocks(t *testing.T) {
	solver := solverWithTrials(calculation.DefaultMarket(), 200)
	prev := -1.0
	for _, cash := range []float64{400000, 120000, 0} {
		needs, cover := smallPlan(cash)
		res, err := solver.Solve(context.Background(), needs, cover)
		require.NoError(t, err)
		require.NotNil(t, res.Needed)
		assert.Greater(t, *res.Needed, prev-5000, "cash %.0f", cash)
		prev = *res.Needed
	}
}

func TestStockSolver_Infeasible(t *testing.T) {
	needs, cover := smallPlan(400000)
	res, err := solverWithTrials(calculation.Market{Mean: -0.3, Stdev: 0.1}, 100).Solve(context.Background(), needs, cover)

	require.NoError(t, err)
	assert.False(t, res.Feasible)
	assert.Nil(t, res.Needed)
	assert.Equal(t, 0.0, res.MaxSuccessPct)
	assert.InDelta(t, 76529204.6112, res.Bound, 1e-3)
	assert.Equal(t, res.Bound, res.NeededOrBound())
	assert.Equal(t, 0, res.Iterations)
}

func TestStockSolver_ZeroNeed(t *testing.T) {
	needs := calculation.BuildNeedLadder(0, 0, 60)
	cover := calculation.AllocateCash(0, needs).Cover

	res, err := solverWithTrials(calculation.DefaultMarket(), 50).Solve(context.Background(), needs, cover)

	require.NoError(t, err)
	assert.True(t, res.Feasible)
	assert.Less(t, *res.Needed, 1000.0, "nothing is needed, the search collapses to the tolerance")
}

func TestStockSolver_InvalidOptions(t *testing.T) {
	needs, cover := smallPlan(0)
	solver := NewDefaultStockSolver()
	solver.Options.TargetPct = 0

	_, err := solver.Solve(context.Background(), needs, cover)

	var se *SolverError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "validate_options", se.Operation)
}

func TestStockSolver_Cancelled(t *testing.T) {
	needs, cover := smallPlan(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDefaultStockSolver().Solve(ctx, needs, cover)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestStockSolver_ProgressEvents(t *testing.T) {
	needs, cover := smallPlan(0)
	solver := solverWithTrials(calculation.DefaultMarket(), 50)
	var stages []calculation.Stage
	solver.Progress = func(ev calculation.ProgressEvent) { stages = append(stages, ev.Stage) }

	res, err := solver.Solve(context.Background(), needs, cover)

	require.NoError(t, err)
	assert.Len(t, stages, res.Probes-1, "every probe after the first reports progress")
	assert.Contains(t, stages, calculation.StageBisect)
}

func TestCashSolver_CollapsingMarket(t *testing.T) {
	needs := calculation.BuildNeedLadder(100000, 0, 88)
	solver := NewCashSolver(solverWithTrials(collapsingMarket, 50), CashOptions{
		FeasibilityTrials: 20,
		FinalTrials:       30,
		MaxIterations:     14,
		Tolerance:         1000,
	})

	res, err := solver.Solve(context.Background(), needs, 0)

	require.NoError(t, err)
	require.True(t, res.Found())
	assert.Equal(t, 700000.0, *res.MinCash, "every year must be pre-funded")
	require.NotNil(t, res.StocksAtMin)
	assert.InDelta(t, 854.50439453125, *res.StocksAtMin, 1e-6)
	assert.Equal(t, 10, res.Iterations)
}

func TestCashSolver_NoSolution(t *testing.T) {
	// 20 years of need but only 10 can ever be pre-funded.
	needs := calculation.BuildNeedLadder(100000, 0, 75)
	solver := NewCashSolver(solverWithTrials(collapsingMarket, 20), CashOptions{
		FeasibilityTrials: 20,
		FinalTrials:       20,
		MaxIterations:     14,
		Tolerance:         1000,
	})

	res, err := solver.Solve(context.Background(), needs, 0)

	require.NoError(t, err)
	assert.False(t, res.Found())
	assert.Nil(t, res.StocksAtMin)
}

func TestCashSolver_CurrentCashAboveFullBuffer(t *testing.T) {
	needs := calculation.BuildNeedLadder(100000, 0, 88)
	solver := NewCashSolver(solverWithTrials(collapsingMarket, 20), CashOptions{
		FeasibilityTrials: 20,
		FinalTrials:       20,
		MaxIterations:     14,
		Tolerance:         1000,
	})

	res, err := solver.Solve(context.Background(), needs, 5_000_000)

	require.NoError(t, err)
	require.True(t, res.Found())
	assert.Equal(t, 700000.0, *res.MinCash, "bracket is clamped to the full buffer")
}

func TestSolverError(t *testing.T) {
	cause := errors.New("boom")
	err := &SolverError{Operation: "assess", Message: "probe failed", Cause: cause}

	assert.Equal(t, "assess: probe failed: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "assess: probe failed", (&SolverError{Operation: "assess", Message: "probe failed"}).Error())
}
