package breakeven

import (
	"context"
	"fmt"

	"github.com/rgehrsitz/bufferplan/internal/calculation"
)

// StockSolver finds the smallest starting stock balance that reaches a target success
// percentage for a fixed cover ladder.
type StockSolver struct {
	Simulator calculation.PathSimulator
	Options   SolverOptions
	Logger    calculation.Logger
	Progress  calculation.ProgressFunc
}

// NewStockSolver creates a solver over the trial profile.
func NewStockSolver(market calculation.Market, options SolverOptions) *StockSolver {
	return &StockSolver{
		Simulator: calculation.NewPathSimulator(calculation.TrialProfile, market),
		Options:   options,
		Logger:    calculation.NopLogger{},
	}
}

// NewDefaultStockSolver creates a solver with the default market and options.
func NewDefaultStockSolver() *StockSolver {
	return NewStockSolver(calculation.DefaultMarket(), DefaultSolverOptions())
}

// SetLogger sets the logger, falling back to a no-op logger when nil.
func (s *StockSolver) SetLogger(l calculation.Logger) {
	s.Logger = calculation.OrNop(l)
}

// Solve runs the search at the configured trial count.
func (s *StockSolver) Solve(ctx context.Context, needs calculation.NeedLadder, cover calculation.CoverLadder) (*StockResult, error) {
	return s.SolveWithTrials(ctx, needs, cover, s.Options.Trials)
}

// SolveWithTrials runs the search with a specific trial count per probe.
// The bound grows geometrically until the target is bracketed or the cap is hit, then
// the bracket [0, bound] is bisected.
func (s *StockSolver) SolveWithTrials(ctx context.Context, needs calculation.NeedLadder, cover calculation.CoverLadder, trials int) (*StockResult, error) {
	opts := s.Options
	if trials > 0 {
		opts.Trials = trials
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	log := calculation.OrNop(s.Logger)
	res := &StockResult{Trials: opts.Trials}

	lo, hi := 0.0, opts.InitialScale*(needs.Total()/10+1)
	suc, err := s.assess(ctx, hi, needs, cover, opts)
	if err != nil {
		return nil, err
	}
	res.Probes++
	for expansions := 0; suc < opts.TargetPct && hi < opts.BoundCap && expansions < opts.MaxExpansions; expansions++ {
		hi *= opts.BoundGrowth
		if suc, err = s.assess(ctx, hi, needs, cover, opts); err != nil {
			return nil, err
		}
		res.Probes++
		s.Progress.Emit(calculation.ProgressEvent{Stage: calculation.StageBound, Step: expansions + 1, Value: hi, SuccessPct: suc})
		log.Debugf("stock bound expanded to %.0f, success %.1f%%", hi, suc)
	}
	res.Bound = hi
	res.MaxSuccessPct = suc
	if suc < opts.TargetPct {
		log.Infof("target %.0f%% unreachable: %.1f%% at bound %.0f", opts.TargetPct, suc, hi)
		return res, nil
	}

	atHi := suc
	for res.Iterations < opts.MaxIterations {
		res.Iterations++
		mid := 0.5 * (lo + hi)
		sm, err := s.assess(ctx, mid, needs, cover, opts)
		if err != nil {
			return nil, err
		}
		res.Probes++
		if sm >= opts.TargetPct {
			hi, atHi = mid, sm
		} else {
			lo = mid
		}
		s.Progress.Emit(calculation.ProgressEvent{Stage: calculation.StageBisect, Step: res.Iterations, Value: hi, SuccessPct: sm})
		if hi-lo < opts.Tolerance {
			break
		}
	}
	log.Debugf("stock solve converged at %.0f after %d steps", hi, res.Iterations)

	res.Feasible = true
	res.Needed = &hi
	res.Bound = hi
	res.SuccessAtNeeded = atHi
	return res, nil
}

func (s *StockSolver) assess(ctx context.Context, stocks float64, needs calculation.NeedLadder, cover calculation.CoverLadder, opts SolverOptions) (float64, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}
	agg := calculation.Aggregator{
		Simulator: s.Simulator,
		Trials:    opts.Trials,
		BaseSeed:  opts.BaseSeed,
		Workers:   opts.Workers,
	}
	r, err := agg.Run(ctx, stocks, needs, cover)
	if err != nil {
		return 0, &SolverError{
			Operation: "assess",
			Message:   fmt.Sprintf("probe at %.0f failed", stocks),
			Cause:     err,
		}
	}
	return r.SuccessPct, nil
}
