package breakeven

// SolverOptions configures the stock-need bisection.
type SolverOptions struct {
	TargetPct     float64 // success percentage to reach
	Trials        int     // trials per probe
	BaseSeed      uint32  // base seed of every probe
	Tolerance     float64 // stop once the bracket is narrower than this
	MaxIterations int     // bisection steps
	BoundGrowth   float64 // multiplier applied while the bound is below target
	MaxExpansions int     // bound growth steps
	BoundCap      float64 // no growth past this balance
	InitialScale  float64 // initial bound = InitialScale * (total need / 10 + 1)
	Workers       int     // aggregator pool size, zero for GOMAXPROCS
}

// DefaultSolverOptions returns the production settings.
func DefaultSolverOptions() SolverOptions {
	return SolverOptions{
		TargetPct:     90,
		Trials:        1000,
		BaseSeed:      123456,
		Tolerance:     1000,
		MaxIterations: 24,
		BoundGrowth:   1.8,
		MaxExpansions: 18,
		BoundCap:      50_000_000,
		InitialScale:  50,
	}
}

// Validate rejects settings that would make the search meaningless.
func (o SolverOptions) Validate() error {
	switch {
	case o.TargetPct <= 0 || o.TargetPct > 100:
		return &SolverError{Operation: "validate_options", Message: "target must be in (0, 100]"}
	case o.Trials <= 0:
		return &SolverError{Operation: "validate_options", Message: "trials must be positive"}
	case o.BoundGrowth <= 1:
		return &SolverError{Operation: "validate_options", Message: "bound growth must exceed 1"}
	case o.Tolerance <= 0:
		return &SolverError{Operation: "validate_options", Message: "tolerance must be positive"}
	}
	return nil
}

// CashOptions configures the minimum-cash search.
type CashOptions struct {
	FeasibilityTrials int
	FinalTrials       int
	MaxIterations     int
	Tolerance         float64
}

// DefaultCashOptions returns the production settings.
func DefaultCashOptions() CashOptions {
	return CashOptions{
		FeasibilityTrials: 700,
		FinalTrials:       900,
		MaxIterations:     14,
		Tolerance:         1000,
	}
}

// StockResult is the outcome of a stock-need solve.
type StockResult struct {
	Feasible bool `json:"feasible"`
	// Needed is the smallest balance found reaching the target, nil when infeasible.
	Needed *float64 `json:"needed"`
	// Bound is the final search bound.
	Bound float64 `json:"bound"`
	// MaxSuccessPct is the success observed at Bound.
	MaxSuccessPct float64 `json:"maxSuccessPct"`
	// SuccessAtNeeded is the success observed at Needed, zero when infeasible.
	SuccessAtNeeded float64 `json:"successAtNeeded"`
	Probes          int     `json:"probes"`
	Iterations      int     `json:"iterations"`
	Trials          int     `json:"trials"`
}

// NeededOrBound returns Needed when feasible, otherwise the search bound.
func (r StockResult) NeededOrBound() float64 {
	if r.Needed != nil {
		return *r.Needed
	}
	return r.Bound
}

// CashResult is the outcome of a minimum-cash solve.
type CashResult struct {
	// MinCash is nil when even a full buffer cannot reach the target.
	MinCash     *float64 `json:"minCash"`
	StocksAtMin *float64 `json:"stocksAtMin"`
	Iterations  int      `json:"iterations"`
}

// Found reports whether a cash level was found.
func (r CashResult) Found() bool { return r.MinCash != nil }

// SolverError represents errors from the solvers.
type SolverError struct {
	Operation string
	Message   string
	Cause     error
}

func (e *SolverError) Error() string {
	if e.Cause != nil {
		return e.Operation + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Operation + ": " + e.Message
}

func (e *SolverError) Unwrap() error {
	return e.Cause
}
