package breakeven

import (
	"context"

	"github.com/rgehrsitz/bufferplan/internal/calculation"
)

// CashSolver finds the smallest starting cash for which the stock solver reports the
// target as reachable at all.
type CashSolver struct {
	Stocks  *StockSolver
	Options CashOptions
}

// NewCashSolver wraps a stock solver.
func NewCashSolver(stocks *StockSolver, options CashOptions) *CashSolver {
	return &CashSolver{Stocks: stocks, Options: options}
}

// Solve bisects cash between currentCash and a fully funded buffer. Probes use the
// reduced feasibility trial count; the stock requirement at the answer is re-solved at
// the final trial count.
func (c *CashSolver) Solve(ctx context.Context, needs calculation.NeedLadder, currentCash float64) (*CashResult, error) {
	log := calculation.OrNop(c.Stocks.Logger)
	full := needs.BufferTotal()

	feasible, err := c.feasibleAt(ctx, full, needs)
	if err != nil {
		return nil, err
	}
	if !feasible {
		log.Infof("no cash level reaches target: full buffer of %.0f is infeasible", full)
		return &CashResult{}, nil
	}

	res := &CashResult{}
	lo, hi := min(max(0, currentCash), full), full
	for res.Iterations < c.Options.MaxIterations {
		res.Iterations++
		mid := 0.5 * (lo + hi)
		ok, err := c.feasibleAt(ctx, mid, needs)
		if err != nil {
			return nil, err
		}
		if ok {
			hi = mid
		} else {
			lo = mid
		}
		c.Stocks.Progress.Emit(calculation.ProgressEvent{Stage: calculation.StageCashSearch, Step: res.Iterations, Value: hi})
		if hi-lo < c.Options.Tolerance {
			break
		}
	}

	cover := calculation.AllocateCash(hi, needs).Cover
	final, err := c.Stocks.SolveWithTrials(ctx, needs, cover, c.Options.FinalTrials)
	if err != nil {
		return nil, &SolverError{Operation: "min_cash", Message: "final stock solve failed", Cause: err}
	}
	res.MinCash = &hi
	res.StocksAtMin = final.Needed
	log.Infof("minimum cash %.0f after %d steps", hi, res.Iterations)
	return res, nil
}

func (c *CashSolver) feasibleAt(ctx context.Context, cash float64, needs calculation.NeedLadder) (bool, error) {
	cover := calculation.AllocateCash(cash, needs).Cover
	r, err := c.Stocks.SolveWithTrials(ctx, needs, cover, c.Options.FeasibilityTrials)
	if err != nil {
		return false, &SolverError{Operation: "min_cash", Message: "feasibility probe failed", Cause: err}
	}
	return r.Feasible, nil
}
