package planner

import (
	"github.com/rgehrsitz/bufferplan/internal/breakeven"
	"github.com/rgehrsitz/bufferplan/internal/calculation"
)

// Options holds every tunable of a plan run. The defaults reproduce the published figures.
type Options struct {
	Market            calculation.Market
	TargetPct         float64
	SolverTrials      int
	SuccessTrials     int
	FeasibilityTrials int
	FinalTrials       int
	SolverSeed        uint32
	MonteCarloSeed    uint32
	BaselineSeed      uint32
	Workers           int
}

// DefaultOptions returns the production settings.
func DefaultOptions() Options {
	return Options{
		Market:            calculation.DefaultMarket(),
		TargetPct:         90,
		SolverTrials:      1000,
		SuccessTrials:     1000,
		FeasibilityTrials: 700,
		FinalTrials:       900,
		SolverSeed:        123456,
		MonteCarloSeed:    78901,
		BaselineSeed:      13579,
	}
}

func (o Options) solverOptions() breakeven.SolverOptions {
	so := breakeven.DefaultSolverOptions()
	so.TargetPct = o.TargetPct
	so.Trials = o.SolverTrials
	so.BaseSeed = o.SolverSeed
	so.Workers = o.Workers
	return so
}

func (o Options) cashOptions() breakeven.CashOptions {
	co := breakeven.DefaultCashOptions()
	co.FeasibilityTrials = o.FeasibilityTrials
	co.FinalTrials = o.FinalTrials
	return co
}
