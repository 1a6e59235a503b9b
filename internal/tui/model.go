// Package tui is the interactive terminal front end of the plan engine.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rgehrsitz/bufferplan/internal/calculation"
	"github.com/rgehrsitz/bufferplan/internal/compare"
	"github.com/rgehrsitz/bufferplan/internal/config"
	"github.com/rgehrsitz/bufferplan/internal/domain"
	"github.com/rgehrsitz/bufferplan/internal/planner"
	"github.com/rgehrsitz/bufferplan/internal/tui/components"
	"github.com/rgehrsitz/bufferplan/internal/tui/tuistyles"
)

// DefaultTemplates are compared against the current plan from the compare scene.
var DefaultTemplates = []string{"retire_later_1yr", "spend_minus_10pct", "full_buffer", "stocks_plus_25pct", "bear_market"}

const (
	fieldAge = iota
	fieldRetireAge
	fieldSpend
	fieldSS70
	fieldCash
	fieldStocks
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Current age",
	"Retirement age",
	"Yearly spending",
	"SS at 70",
	"Starting cash",
	"Starting stocks",
}

// Options configure a new Model.
type Options struct {
	PlanPath  string
	PlanName  string
	Engine    *planner.Engine
	Templates []string
}

// Model represents the entire application state
type Model struct {
	scene    Scene
	previous Scene

	width  int
	height int

	planPath string
	planName string

	engine    *planner.Engine
	templates []string

	inputs  []textinput.Model
	focus   int
	spinner spinner.Model
	tracker *components.StageTracker

	running   bool
	comparing bool
	runID     int
	events    chan tea.Msg
	cancel    context.CancelFunc

	request    domain.PlanRequest
	response   *domain.PlanResponse
	comparison *compare.ComparisonSet
	scroll     int

	inputErr error
	err      error
	now      func() time.Time
}

// NewModel creates a new application model
func NewModel(opts Options) Model {
	eng := opts.Engine
	if eng == nil {
		eng = planner.NewDefaultEngine()
	}
	templates := opts.Templates
	if len(templates) == 0 {
		templates = DefaultTemplates
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = tuistyles.InfoStyle

	m := Model{
		scene:     SceneInputs,
		width:     100,
		height:    32,
		planPath:  opts.PlanPath,
		planName:  opts.PlanName,
		engine:    eng,
		templates: templates,
		spinner:   sp,
		tracker:   components.NewStageTracker(),
		now:       time.Now,
	}
	m.inputs = make([]textinput.Model, fieldCount)
	for i := range m.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 14
		ti.Width = 16
		m.inputs[i] = ti
	}
	m.setRequest(domain.PlanRequest{Age: 52, RetireAge: 60, Spend: 180000, SS70: 60000, StartCash: 500000, StartStocks: 900000})
	m.inputs[0].Focus()
	return m
}

// Init loads the plan file when one was given
func (m Model) Init() tea.Cmd {
	if m.planPath == "" {
		return textinput.Blink
	}
	return tea.Batch(textinput.Blink, loadPlanCmd(m.planPath, m.planName))
}

// loadPlanCmd returns a command that reads one plan from a plan file
func loadPlanCmd(path, name string) tea.Cmd {
	return func() tea.Msg {
		pf, err := config.NewInputParser().LoadFromFile(path)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		p, err := pf.Find(name)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return PlanLoadedMsg{Name: p.Name, Request: p.PlanRequest}
	}
}

// setRequest writes a request into the form fields.
func (m *Model) setRequest(req domain.PlanRequest) {
	m.inputs[fieldAge].SetValue(strconv.Itoa(req.Age))
	m.inputs[fieldRetireAge].SetValue(strconv.Itoa(req.RetireAge))
	m.inputs[fieldSpend].SetValue(formatAmount(req.Spend))
	m.inputs[fieldSS70].SetValue(formatAmount(req.SS70))
	m.inputs[fieldCash].SetValue(formatAmount(req.StartCash))
	m.inputs[fieldStocks].SetValue(formatAmount(req.StartStocks))
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// parseAmount accepts "1,250,000", "$900000" and "1.2m" / "250k".
func parseAmount(s string) (float64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("$", "", ",", "", "_", "").Replace(s)
	mult := 1.0
	switch {
	case strings.HasSuffix(s, "k"):
		mult, s = 1e3, strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		mult, s = 1e6, strings.TrimSuffix(s, "m")
	}
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not an amount", s)
	}
	return v * mult, nil
}

// formRequest reads and validates the form.
func (m Model) formRequest() (domain.PlanRequest, error) {
	var req domain.PlanRequest
	var err error
	if req.Age, err = strconv.Atoi(strings.TrimSpace(m.inputs[fieldAge].Value())); err != nil {
		return req, fmt.Errorf("%s: enter a whole number", fieldLabels[fieldAge])
	}
	if req.RetireAge, err = strconv.Atoi(strings.TrimSpace(m.inputs[fieldRetireAge].Value())); err != nil {
		return req, fmt.Errorf("%s: enter a whole number", fieldLabels[fieldRetireAge])
	}
	amounts := []struct {
		field int
		dst   *float64
	}{
		{fieldSpend, &req.Spend},
		{fieldSS70, &req.SS70},
		{fieldCash, &req.StartCash},
		{fieldStocks, &req.StartStocks},
	}
	for _, a := range amounts {
		if *a.dst, err = parseAmount(m.inputs[a.field].Value()); err != nil {
			return req, fmt.Errorf("%s: %w", fieldLabels[a.field], err)
		}
	}
	if err := req.Validate(); err != nil {
		return req, err
	}
	return req, nil
}

// startRun launches the engine in the background and streams its progress.
func (m Model) startRun(req domain.PlanRequest) (Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan tea.Msg, 32)
	m.runID++
	run := m.runID

	eng := m.engine.WithProgress(func(ev calculation.ProgressEvent) {
		select {
		case events <- ProgressMsg{Run: run, Event: ev}:
		case <-ctx.Done():
		}
	})
	go func() {
		defer close(events)
		resp, err := eng.Run(ctx, req)
		select {
		case events <- RunCompleteMsg{Run: run, Request: req, Response: resp, Err: err}:
		case <-ctx.Done():
		}
	}()

	m.running = true
	m.events = events
	m.cancel = cancel
	m.tracker = components.NewStageTracker()
	m.comparison = nil
	m.err = nil
	return m, tea.Batch(m.spinner.Tick, waitForEvent(events))
}

// waitForEvent delivers the next message from a run.
func waitForEvent(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

// compareCmd evaluates the templates against the current plan.
func (m Model) compareCmd() tea.Cmd {
	opts := m.engine.Options
	req := m.request
	name := m.planName
	if name == "" {
		name = "current"
	}
	templates := m.templates
	return func() tea.Msg {
		ce := compare.NewCompareEngine(opts)
		pf := &config.PlanFile{Plans: []config.NamedPlan{{Name: name, PlanRequest: req}}}
		res, err := ce.Compare(context.Background(), pf, compare.CompareOptions{
			BaseScenarioName: name,
			Templates:        templates,
		})
		return CompareCompleteMsg{Result: res, Err: err}
	}
}

func (m *Model) focusField(i int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = (i + fieldCount) % fieldCount
	return m.inputs[m.focus].Focus()
}
