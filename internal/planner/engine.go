package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/rgehrsitz/bufferplan/internal/breakeven"
	"github.com/rgehrsitz/bufferplan/internal/calculation"
	"github.com/rgehrsitz/bufferplan/internal/domain"
)

// Engine answers plan requests. It holds no per-request state and is safe for
// concurrent use once configured.
type Engine struct {
	Options  Options
	Logger   calculation.Logger
	Progress calculation.ProgressFunc
	// Now supplies the calendar year of the baseline rows.
	Now func() time.Time
}

// NewEngine creates an engine with the given options.
func NewEngine(opts Options) *Engine {
	return &Engine{Options: opts, Logger: calculation.NopLogger{}, Now: time.Now}
}

// NewDefaultEngine creates an engine with production settings.
func NewDefaultEngine() *Engine {
	return NewEngine(DefaultOptions())
}

// SetLogger sets the logger, falling back to a no-op logger when nil.
func (e *Engine) SetLogger(l calculation.Logger) {
	e.Logger = calculation.OrNop(l)
}

// WithProgress returns a shallow copy reporting to fn.
func (e *Engine) WithProgress(fn calculation.ProgressFunc) *Engine {
	cp := *e
	cp.Progress = fn
	return &cp
}

func (e *Engine) stockSolver() *breakeven.StockSolver {
	s := breakeven.NewStockSolver(e.Options.Market, e.Options.solverOptions())
	s.SetLogger(e.Logger)
	s.Progress = e.Progress
	return s
}

// Run computes the full response for one request.
func (e *Engine) Run(ctx context.Context, req domain.PlanRequest) (*domain.PlanResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	log := calculation.OrNop(e.Logger)
	opts := e.Options
	log.Infof("plan run: age %d, retire %d, spend %.0f, ss70 %.0f, cash %.0f, stocks %.0f",
		req.Age, req.RetireAge, req.Spend, req.SS70, req.StartCash, req.StartStocks)

	needs := calculation.BuildNeedLadder(req.Spend, req.SS70, req.RetireAge)
	startCashNeeded := needs.FirstYear()
	startingCash := max(req.StartCash, startCashNeeded)
	alloc := calculation.AllocateCash(startingCash, needs)

	solver := e.stockSolver()
	solve, err := solver.Solve(ctx, needs, alloc.Cover)
	if err != nil {
		return nil, fmt.Errorf("solve stocks needed: %w", err)
	}

	resp := &domain.PlanResponse{
		Feasible90:          solve.Feasible,
		MaxSuccessCap:       solve.MaxSuccessPct,
		StartCashNeeded:     startCashNeeded,
		StartStocksNeeded:   solve.NeededOrBound(),
		StartingCash:        startingCash,
		StartingStocks:      req.StartStocks,
		InitialCoveredYears: alloc.InitialCoveredYears,
		SolverTrials:        solve.Trials,
	}
	if solve.Feasible {
		resp.SolverSE = calculation.StandardError(solve.SuccessAtNeeded, solve.Trials)
	} else {
		resp.SolverSE = calculation.StandardError(solve.MaxSuccessPct, solve.Trials)
		cash, err := breakeven.NewCashSolver(solver, opts.cashOptions()).Solve(ctx, needs, req.StartCash)
		if err != nil {
			return nil, fmt.Errorf("solve minimum cash: %w", err)
		}
		resp.MinCashFor90 = cash.MinCash
		resp.StocksNeededAtMinCash = cash.StocksAtMin
	}

	agg := calculation.NewAggregator(opts.Market, opts.SuccessTrials, opts.MonteCarloSeed)
	agg.Workers = opts.Workers
	mc, err := agg.Run(ctx, req.StartStocks, needs, alloc.Cover)
	if err != nil {
		return nil, fmt.Errorf("monte carlo: %w", err)
	}
	e.Progress.Emit(calculation.ProgressEvent{Stage: calculation.StageMonteCarlo, Value: req.StartStocks, SuccessPct: mc.SuccessPct})
	log.Debugf("monte carlo at %.0f: %.1f%% over %d trials", req.StartStocks, mc.SuccessPct, mc.Trials)

	resp.SuccessPct = mc.SuccessPct
	resp.FirstTroubleYearAge = mc.FirstTroubleAge
	resp.Stocks = mc.Stocks
	resp.Coverage = mc.Coverage
	resp.SuccessTrials = mc.Trials
	resp.SuccessSE = mc.StandardError

	resp.BaselineRows = e.baseline(req, needs, alloc.Cover)
	e.Progress.Emit(calculation.ProgressEvent{Stage: calculation.StageBaseline, Step: len(resp.BaselineRows)})

	resp.SeriesYears = make([]int, needs.Len())
	for i := range resp.SeriesYears {
		resp.SeriesYears[i] = i + 1
	}

	e.Progress.Emit(calculation.ProgressEvent{Stage: calculation.StageDone, SuccessPct: resp.SuccessPct})
	log.Infof("plan run complete: success %.1f%%, stocks needed %.0f, feasible %t", resp.SuccessPct, resp.StartStocksNeeded, resp.Feasible90)
	return resp, nil
}

// baseline traces the representative path under the baseline profile.
func (e *Engine) baseline(req domain.PlanRequest, needs calculation.NeedLadder, cover calculation.CoverLadder) []domain.BaselineRow {
	sim := calculation.NewPathSimulator(calculation.BaselineProfile, e.Options.Market)
	traces := sim.Trace(req.StartStocks, needs, cover, e.Options.BaselineSeed)

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	startYear := req.RetirementYear(now().Year())

	rows := make([]domain.BaselineRow, len(traces))
	for i, t := range traces {
		rows[i] = domain.BaselineRow{
			Year:          startYear + t.Year,
			Age:           needs.AgeAt(t.Year),
			Spend:         req.Spend,
			Benefit:       needs.BenefitAt(t.Year),
			CashUsed:      t.CashUsed,
			SoldEmergency: t.SoldEmergency,
			SoldRecovery:  t.SoldRecovery,
			RefillAmount:  t.SoldEmergency + t.SoldRecovery,
			CashEnd:       t.CashEnd,
			StocksEnd:     t.StocksEnd,
			FundedAhead:   t.FundedAhead,
			Shortfall:     t.Shortfall,
			Debug:         domain.RowDebug{Emergency: t.Emergency, Recovery: t.Recovery},
		}
	}
	return rows
}

// SuccessAt runs only the aggregator for a given cash and stock level, using the
// solver's seed so figures line up with solver probes.
func (e *Engine) SuccessAt(ctx context.Context, req domain.PlanRequest, cash, stocks float64, trials int) (*calculation.AggregateResult, error) {
	needs := calculation.BuildNeedLadder(req.Spend, req.SS70, req.RetireAge)
	cover := calculation.AllocateCash(cash, needs).Cover
	agg := calculation.NewAggregator(e.Options.Market, trials, e.Options.SolverSeed)
	agg.Workers = e.Options.Workers
	return agg.Run(ctx, stocks, needs, cover)
}

// SolveStocks solves the stocks needed at a given cash level.
func (e *Engine) SolveStocks(ctx context.Context, req domain.PlanRequest, cash float64) (*breakeven.StockResult, error) {
	needs := calculation.BuildNeedLadder(req.Spend, req.SS70, req.RetireAge)
	return e.stockSolver().Solve(ctx, needs, calculation.AllocateCash(cash, needs).Cover)
}

// SolveCash solves the minimum cash making the target reachable.
func (e *Engine) SolveCash(ctx context.Context, req domain.PlanRequest) (*breakeven.CashResult, error) {
	needs := calculation.BuildNeedLadder(req.Spend, req.SS70, req.RetireAge)
	return breakeven.NewCashSolver(e.stockSolver(), e.Options.cashOptions()).Solve(ctx, needs, req.StartCash)
}

// Frontier solves stocks needed across several cash levels.
func (e *Engine) Frontier(ctx context.Context, req domain.PlanRequest, cashLevels []float64) (*breakeven.Frontier, error) {
	needs := calculation.BuildNeedLadder(req.Spend, req.SS70, req.RetireAge)
	return e.stockSolver().SolveFrontier(ctx, needs, cashLevels)
}
