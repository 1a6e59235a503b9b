package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgehrsitz/bufferplan/internal/calculation"
	"github.com/rgehrsitz/bufferplan/internal/domain"
)

func fixedModel() Model {
	m := NewModel(Options{})
	m.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func fakeResponse() *domain.PlanResponse {
	age := 71
	return &domain.PlanResponse{
		Feasible90:          true,
		MaxSuccessCap:       97,
		StartCashNeeded:     360000,
		StartStocksNeeded:   850000,
		StartingCash:        500000,
		StartingStocks:      900000,
		SuccessPct:          92.4,
		FirstTroubleYearAge: &age,
		BaselineRows: []domain.BaselineRow{
			{Year: 1, Age: 60, Spend: 180000, CashUsed: 180000, CashEnd: 320000, StocksEnd: 950000, FundedAhead: 1},
			{Year: 2, Age: 61, Spend: 180000, CashUsed: 180000, CashEnd: 140000, StocksEnd: 990000, Shortfall: 5000},
		},
		SeriesYears:   []int{1, 2},
		Stocks:        domain.Bands{P10: []float64{700000, 600000}, P50: []float64{900000, 950000}, P90: []float64{1100000, 1300000}},
		Coverage:      domain.Bands{P10: []float64{1, 0}, P50: []float64{2, 1}, P90: []float64{3, 3}},
		SuccessTrials: 1000,
		SuccessSE:     0.8,
	}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func TestParseAmount(t *testing.T) {
	cases := map[string]float64{
		"1,250,000": 1250000,
		"$900000":   900000,
		"250k":      250000,
		"1.2m":      1200000,
		" 42 ":      42,
		"":          0,
	}
	for in, want := range cases {
		got, err := parseAmount(in)
		require.NoError(t, err, in)
		assert.InDelta(t, want, got, 1e-6, in)
	}

	_, err := parseAmount("lots")
	assert.Error(t, err)
}

func TestNewModelPrefillsReferencePlan(t *testing.T) {
	m := fixedModel()
	req, err := m.formRequest()
	require.NoError(t, err)
	assert.Equal(t, 52, req.Age)
	assert.Equal(t, 60, req.RetireAge)
	assert.Equal(t, 180000.0, req.Spend)
	assert.Equal(t, 900000.0, req.StartStocks)
	assert.Equal(t, SceneInputs, m.scene)
	assert.Len(t, m.templates, len(DefaultTemplates))
}

func TestFormRequestRejectsBadInput(t *testing.T) {
	m := fixedModel()
	m.inputs[fieldAge].SetValue("fifty")
	_, err := m.formRequest()
	assert.ErrorContains(t, err, "Current age")

	m = fixedModel()
	m.inputs[fieldRetireAge].SetValue("40")
	_, err = m.formRequest()
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestEnterWithInvalidInputShowsError(t *testing.T) {
	m := fixedModel()
	m.inputs[fieldSpend].SetValue("abc")

	m, cmd := update(t, m, key("enter"))
	assert.Nil(t, cmd)
	assert.False(t, m.running)
	require.Error(t, m.inputErr)
	assert.Contains(t, m.View(), "is not an amount")
}

func TestTabCyclesFocus(t *testing.T) {
	m := fixedModel()
	m, _ = update(t, m, key("tab"))
	assert.Equal(t, fieldRetireAge, m.focus)

	m, _ = update(t, m, key("shift+tab"))
	m, _ = update(t, m, key("shift+tab"))
	assert.Equal(t, fieldStocks, m.focus)
}

func TestRunCompleteShowsResults(t *testing.T) {
	m := fixedModel()
	m.running = true
	m.runID = 3

	m, _ = update(t, m, RunCompleteMsg{Run: 3, Request: domain.PlanRequest{Age: 52, RetireAge: 60}, Response: fakeResponse()})
	assert.False(t, m.running)
	assert.Equal(t, SceneResults, m.scene)

	view := m.View()
	assert.Contains(t, view, "Chance of success")
	assert.Contains(t, view, "92.4%")
	assert.Contains(t, view, "Age 71")
}

func TestStaleRunMessagesAreIgnored(t *testing.T) {
	m := fixedModel()
	m.running = true
	m.runID = 2

	m, cmd := update(t, m, ProgressMsg{Run: 1, Event: calculation.ProgressEvent{Stage: calculation.StageBisect}})
	assert.Nil(t, cmd)
	assert.Equal(t, 0, m.tracker.Events())

	m, _ = update(t, m, RunCompleteMsg{Run: 1, Response: fakeResponse()})
	assert.True(t, m.running)
	assert.Nil(t, m.response)
}

func TestProgressMsgFeedsTracker(t *testing.T) {
	m := fixedModel()
	m.running = true
	m.runID = 1
	m.events = make(chan tea.Msg)

	m, cmd := update(t, m, ProgressMsg{Run: 1, Event: calculation.ProgressEvent{Stage: calculation.StageCashSearch, Value: 250000, SuccessPct: 81}})
	assert.NotNil(t, cmd)
	assert.Equal(t, calculation.StageCashSearch, m.tracker.Current())
	assert.Contains(t, m.View(), "Searching minimum cash")
}

func TestCanceledRunIsNotAnError(t *testing.T) {
	m := fixedModel()
	m.running = true
	m.runID = 1

	m, _ = update(t, m, RunCompleteMsg{Run: 1, Err: context.Canceled})
	assert.NoError(t, m.err)
	assert.False(t, m.running)

	m.running = true
	m, _ = update(t, m, RunCompleteMsg{Run: 1, Err: errors.New("boom")})
	assert.EqualError(t, m.err, "boom")

	// any key dismisses it
	m, _ = update(t, m, key("x"))
	assert.NoError(t, m.err)
}

func TestNavigationKeys(t *testing.T) {
	m := fixedModel()
	m, _ = update(t, m, RunCompleteMsg{Run: 0, Response: fakeResponse()})
	require.Equal(t, SceneResults, m.scene)

	m, _ = update(t, m, key("b"))
	assert.Equal(t, SceneBaseline, m.scene)
	assert.Contains(t, m.View(), "short $5K")

	m, _ = update(t, m, key("j"))
	assert.Equal(t, 1, m.scroll)
	m, _ = update(t, m, key("j"))
	assert.Equal(t, 1, m.scroll, "scroll stops at the last row")
	m, _ = update(t, m, key("k"))
	assert.Equal(t, 0, m.scroll)

	m, _ = update(t, m, key("?"))
	assert.Equal(t, SceneHelp, m.scene)
	m, _ = update(t, m, key("esc"))
	assert.Equal(t, SceneBaseline, m.scene, "esc returns to the previous scene")
	m, _ = update(t, m, key("r"))
	assert.Equal(t, SceneResults, m.scene)

	m, _ = update(t, m, key("i"))
	assert.Equal(t, SceneInputs, m.scene)
	m, _ = update(t, m, key("esc"))
	assert.Equal(t, SceneResults, m.scene)

	_, cmd := update(t, m, key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestResultKeysNeedAResponse(t *testing.T) {
	m := fixedModel()
	m.scene = SceneHelp
	m, _ = update(t, m, key("b"))
	assert.Equal(t, SceneHelp, m.scene)
	m, _ = update(t, m, key("esc"))
	assert.Equal(t, SceneInputs, m.scene)
}

func TestPlanLoadedFillsForm(t *testing.T) {
	m := fixedModel()
	m, _ = update(t, m, PlanLoadedMsg{Name: "late", Request: domain.PlanRequest{
		Age: 80, RetireAge: 85, Spend: 50000, SS70: 20000, StartCash: 100000, StartStocks: 1000000,
	}})
	assert.Equal(t, "late", m.planName)

	req, err := m.formRequest()
	require.NoError(t, err)
	assert.Equal(t, 80, req.Age)
	assert.Equal(t, 1000000.0, req.StartStocks)
	assert.Contains(t, m.View(), "late / Inputs")
}

func TestLoadPlanCmdReportsMissingFile(t *testing.T) {
	msg := loadPlanCmd("/nonexistent/plans.yaml", "")()
	em, ok := msg.(ErrorMsg)
	require.True(t, ok)
	assert.Error(t, em.Err)
}

func TestStartRunCompletes(t *testing.T) {
	m := fixedModel()
	m.engine.Options.SolverTrials = 50
	m.engine.Options.SuccessTrials = 50
	m.engine.Options.FeasibilityTrials = 20
	m.engine.Options.FinalTrials = 20
	req, err := m.formRequest()
	require.NoError(t, err)

	m, _ = m.startRun(req)
	require.True(t, m.running)

	var done *RunCompleteMsg
	for msg := range m.events {
		if rc, ok := msg.(RunCompleteMsg); ok {
			done = &rc
		}
	}
	require.NotNil(t, done)
	require.NoError(t, done.Err)
	assert.Equal(t, m.runID, done.Run)
	assert.NotEmpty(t, done.Response.BaselineRows)
}
