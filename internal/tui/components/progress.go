package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rgehrsitz/bufferplan/internal/calculation"
	"github.com/rgehrsitz/bufferplan/internal/output"
	"github.com/rgehrsitz/bufferplan/internal/tui/tuistyles"
)

// ProgressBar displays a percentage as a filled bar
type ProgressBar struct {
	Percent float64
	Width   int
	Label   string
}

// NewProgressBar creates a new progress bar
func NewProgressBar(percent float64) *ProgressBar {
	return &ProgressBar{Percent: percent, Width: 30}
}

// WithLabel sets the progress label
func (p *ProgressBar) WithLabel(label string) *ProgressBar {
	p.Label = label
	return p
}

// Render returns the styled progress bar
func (p *ProgressBar) Render() string {
	pct := min(100, max(0, p.Percent))
	filled := int(float64(p.Width) * pct / 100)

	var b strings.Builder
	if p.Label != "" {
		b.WriteString(tuistyles.MetricLabelStyle.Render(p.Label) + " ")
	}
	b.WriteString("[")
	b.WriteString(lipgloss.NewStyle().Foreground(tuistyles.ColorSuccess).Render(strings.Repeat("█", filled)))
	b.WriteString(lipgloss.NewStyle().Foreground(tuistyles.ColorBorder).Render(strings.Repeat("░", p.Width-filled)))
	b.WriteString("] ")
	b.WriteString(tuistyles.SuccessStyle(pct).Render(fmt.Sprintf("%.1f%%", pct)))
	return b.String()
}

// stageOrder is the order in which a full plan run passes through its stages.
var stageOrder = []calculation.Stage{
	calculation.StageBound,
	calculation.StageBisect,
	calculation.StageCashSearch,
	calculation.StageMonteCarlo,
	calculation.StageBaseline,
	calculation.StageDone,
}

var stageLabels = map[calculation.Stage]string{
	calculation.StageBound:      "Bracketing stocks needed",
	calculation.StageBisect:     "Narrowing stocks needed",
	calculation.StageCashSearch: "Searching minimum cash",
	calculation.StageMonteCarlo: "Simulating your plan",
	calculation.StageBaseline:   "Tracing the median path",
	calculation.StageDone:       "Done",
}

// StageTracker follows the progress events of one run.
type StageTracker struct {
	seen   map[calculation.Stage]bool
	last   calculation.ProgressEvent
	events int
}

// NewStageTracker creates an empty tracker.
func NewStageTracker() *StageTracker {
	return &StageTracker{seen: map[calculation.Stage]bool{}}
}

// Observe records an event.
func (t *StageTracker) Observe(ev calculation.ProgressEvent) {
	t.seen[ev.Stage] = true
	t.last = ev
	t.events++
}

// Current returns the latest stage seen.
func (t *StageTracker) Current() calculation.Stage { return t.last.Stage }

// Events returns how many events were observed.
func (t *StageTracker) Events() int { return t.events }

// Render lists the stages with the current one highlighted. spin is drawn next to it.
func (t *StageTracker) Render(spin string) string {
	var b strings.Builder
	for _, st := range stageOrder {
		label := stageLabels[st]
		switch {
		case st == t.last.Stage:
			b.WriteString(fmt.Sprintf(" %s %s", spin, tuistyles.MetricValueStyle.Render(label)))
			if t.last.Value > 0 && st != calculation.StageDone {
				b.WriteString(tuistyles.SubtitleStyle.Render(fmt.Sprintf("  probe %s", output.FormatMoney(t.last.Value))))
			}
		case t.seen[st]:
			b.WriteString(" " + lipgloss.NewStyle().Foreground(tuistyles.ColorSuccess).Render("✓") + " " + label)
		default:
			b.WriteString("   " + tuistyles.SubtitleStyle.Render(label))
		}
		b.WriteString("\n")
	}
	if t.last.SuccessPct > 0 {
		b.WriteString("\n" + NewProgressBar(t.last.SuccessPct).WithLabel("Success at probe").Render() + "\n")
	}
	return b.String()
}
