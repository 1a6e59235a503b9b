package breakeven

import (
	"context"
	"fmt"
	"sort"

	"github.com/rgehrsitz/bufferplan/internal/calculation"
)

// FrontierPoint is the stock requirement at one starting cash level.
type FrontierPoint struct {
	Cash                float64     `json:"cash"`
	InitialCoveredYears int         `json:"initialCoveredYears"`
	Result              StockResult `json:"result"`
}

// Frontier is the trade-off between starting cash and the stocks needed alongside it.
type Frontier struct {
	Points          []FrontierPoint `json:"points"`
	Recommendations []string        `json:"recommendations"`
}

// SolveFrontier runs the stock solver at each cash level, in ascending order of cash.
func (s *StockSolver) SolveFrontier(ctx context.Context, needs calculation.NeedLadder, cashLevels []float64) (*Frontier, error) {
	if len(cashLevels) == 0 {
		return nil, &SolverError{
			Operation: "solve_frontier",
			Message:   "at least one cash level is required",
		}
	}
	levels := append([]float64(nil), cashLevels...)
	sort.Float64s(levels)

	f := &Frontier{}
	for _, cash := range levels {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		alloc := calculation.AllocateCash(cash, needs)
		r, err := s.Solve(ctx, needs, alloc.Cover)
		if err != nil {
			return nil, &SolverError{
				Operation: "solve_frontier",
				Message:   fmt.Sprintf("solve at cash %.0f failed", cash),
				Cause:     err,
			}
		}
		f.Points = append(f.Points, FrontierPoint{Cash: cash, InitialCoveredYears: alloc.InitialCoveredYears, Result: *r})
	}
	f.Recommendations = frontierRecommendations(f.Points)
	return f, nil
}

func frontierRecommendations(points []FrontierPoint) []string {
	var recs []string
	var firstFeasible *FrontierPoint
	for i := range points {
		if points[i].Result.Feasible {
			firstFeasible = &points[i]
			break
		}
	}
	if firstFeasible == nil {
		return append(recs, "No cash level tested makes the target reachable; reduce spending or delay retirement.")
	}
	if firstFeasible != &points[0] {
		recs = append(recs, fmt.Sprintf("The target first becomes reachable at $%.0f of starting cash.", firstFeasible.Cash))
	}
	last := points[len(points)-1]
	if last.Result.Feasible && firstFeasible.Cash < last.Cash {
		saved := *firstFeasible.Result.Needed - *last.Result.Needed
		if saved > 0 {
			recs = append(recs, fmt.Sprintf("Raising cash from $%.0f to $%.0f lowers the stocks needed by $%.0f.",
				firstFeasible.Cash, last.Cash, saved))
		}
	}
	return recs
}
