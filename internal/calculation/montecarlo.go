package calculation

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"

	"github.com/rgehrsitz/bufferplan/internal/domain"
	"golang.org/x/sync/errgroup"
)

// DefaultTrials is the trial count used when none is configured.
const DefaultTrials = 1000

// trialsPerTask is how many trials one pool task runs before checking for cancellation.
const trialsPerTask = 50

// AggregateResult summarises a batch of trials.
type AggregateResult struct {
	Trials          int
	Successes       int
	SuccessPct      float64
	StandardError   float64
	FirstTroubleAge *int
	Stocks          domain.Bands
	Coverage        domain.Bands
}

// Aggregator runs many independent trials of a PathSimulator.
type Aggregator struct {
	Simulator PathSimulator
	Trials    int
	BaseSeed  uint32
	// Workers bounds the pool. Zero means GOMAXPROCS.
	Workers int
}

// NewAggregator returns an aggregator over the trial profile.
func NewAggregator(m Market, trials int, baseSeed uint32) *Aggregator {
	return &Aggregator{
		Simulator: NewPathSimulator(TrialProfile, m),
		Trials:    trials,
		BaseSeed:  baseSeed,
	}
}

// Run simulates every trial and reduces the results. Results do not depend on Workers.
func (a *Aggregator) Run(ctx context.Context, stocks float64, needs NeedLadder, cover CoverLadder) (*AggregateResult, error) {
	trials := a.Trials
	if trials <= 0 {
		trials = DefaultTrials
	}
	workers := a.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]TrialResult, trials)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < trials; start += trialsPerTask {
		end := min(trials, start+trialsPerTask)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				results[i] = a.Simulator.Simulate(stocks, needs, cover, TrialSeed(a.BaseSeed, i))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("monte carlo aborted: %w", err)
	}
	return reduce(results, needs.Len()), nil
}

func reduce(results []TrialResult, h int) *AggregateResult {
	n := len(results)
	out := &AggregateResult{Trials: n}

	var failing []float64
	for _, r := range results {
		if r.Success() {
			out.Successes++
		} else {
			failing = append(failing, float64(*r.ShortfallAge))
		}
	}
	out.SuccessPct = 100 * (float64(out.Successes) / float64(n))
	out.StandardError = StandardError(out.SuccessPct, n)
	if len(failing) > 0 {
		age := int(roundHalfUp(Quantile(failing, 0.1)))
		out.FirstTroubleAge = &age
	}

	out.Stocks = newBands(h)
	out.Coverage = newBands(h)
	stocks := make([]float64, n)
	coverage := make([]float64, n)
	for y := range h {
		for i, r := range results {
			stocks[i] = r.Stocks[y]
			coverage[i] = float64(r.Coverage[y])
		}
		fillBands(&out.Stocks, y, stocks)
		fillBands(&out.Coverage, y, coverage)
	}
	return out
}

func newBands(h int) domain.Bands {
	return domain.Bands{P10: make([]float64, h), P50: make([]float64, h), P90: make([]float64, h)}
}

func fillBands(b *domain.Bands, y int, values []float64) {
	sorted := sortedCopy(values)
	b.P10[y] = nearestRank(sorted, 0.1)
	b.P50[y] = nearestRank(sorted, 0.5)
	b.P90[y] = nearestRank(sorted, 0.9)
}

// Quantile returns the nearest-rank q-quantile of values, index floor(q*(n-1)) of the
// sorted copy. An empty input yields 0.
func Quantile(values []float64, q float64) float64 {
	return nearestRank(sortedCopy(values), q)
}

func sortedCopy(values []float64) []float64 {
	s := make([]float64, len(values))
	copy(s, values)
	sort.Float64s(s)
	return s
}

func nearestRank(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := min(n-1, max(0, int(math.Floor(q*float64(n-1)))))
	return sorted[idx]
}

// StandardError is the binomial standard error, in percentage points, of a success
// percentage estimated from n trials.
func StandardError(successPct float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	p := successPct / 100
	return 100 * math.Sqrt(p*(1-p)/float64(n))
}
