package calculation

// Stage names a phase of a plan run.
type Stage string

const (
	StageBound      Stage = "bound"
	StageBisect     Stage = "bisect"
	StageCashSearch Stage = "cash_search"
	StageMonteCarlo Stage = "monte_carlo"
	StageBaseline   Stage = "baseline"
	StageDone       Stage = "done"
)

// ProgressEvent is emitted as long-running solves advance.
type ProgressEvent struct {
	Stage      Stage   `json:"stage"`
	Step       int     `json:"step"`
	Value      float64 `json:"value"`
	SuccessPct float64 `json:"successPct"`
}

// ProgressFunc receives progress events. It must be safe to call from the run's goroutine.
type ProgressFunc func(ProgressEvent)

// Emit calls f if it is set.
func (f ProgressFunc) Emit(ev ProgressEvent) {
	if f != nil {
		f(ev)
	}
}
