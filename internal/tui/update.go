package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles all messages and updates the model state
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case ErrorMsg:
		m.err = msg.Err
		return m, nil

	case PlanLoadedMsg:
		m.planName = msg.Name
		m.setRequest(msg.Request)
		return m, nil

	case ProgressMsg:
		if msg.Run != m.runID {
			return m, nil
		}
		m.tracker.Observe(msg.Event)
		return m, waitForEvent(m.events)

	case RunCompleteMsg:
		if msg.Run != m.runID {
			return m, nil
		}
		m.running = false
		m.cancel = nil
		if msg.Err != nil {
			if !errors.Is(msg.Err, context.Canceled) {
				m.err = msg.Err
			}
			return m, nil
		}
		m.request = msg.Request
		m.response = msg.Response
		m.scroll = 0
		m.navigate(SceneResults)
		return m, nil

	case CompareCompleteMsg:
		m.comparing = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.comparison = msg.Result
		return m, nil

	case spinner.TickMsg:
		if !m.running && !m.comparing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.scene == SceneInputs {
		return m.updateInputs(msg)
	}
	return m, nil
}

func (m *Model) navigate(s Scene) {
	if s == m.scene {
		return
	}
	m.previous = m.scene
	m.scene = s
}

// handleKeyPress processes keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit
	case "ctrl+x":
		if m.running && m.cancel != nil {
			m.cancel()
			m.running = false
			m.cancel = nil
		}
		return m, nil
	}

	// Any key dismisses an error.
	if m.err != nil {
		m.err = nil
		return m, nil
	}
	if m.running {
		return m, nil
	}

	if m.scene == SceneInputs {
		return m.handleInputKeys(msg)
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "i", "e":
		m.navigate(SceneInputs)
		return m, m.inputs[m.focus].Focus()
	case "r":
		if m.response != nil {
			m.navigate(SceneResults)
		}
	case "b":
		if m.response != nil {
			m.navigate(SceneBaseline)
		}
	case "c":
		if m.response == nil {
			return m, nil
		}
		m.navigate(SceneCompare)
		if m.comparison == nil && !m.comparing {
			m.comparing = true
			return m, tea.Batch(m.spinner.Tick, m.compareCmd())
		}
	case "?":
		m.navigate(SceneHelp)
	case "esc":
		back := m.previous
		if back == m.scene || back == SceneHelp {
			back = SceneResults
		}
		if m.response == nil {
			back = SceneInputs
		}
		m.navigate(back)
	case "up", "k":
		if m.scene == SceneBaseline && m.scroll > 0 {
			m.scroll--
		}
	case "down", "j":
		if m.scene == SceneBaseline && m.response != nil && m.scroll < len(m.response.BaselineRows)-1 {
			m.scroll++
		}
	case "pgdown":
		if m.scene == SceneBaseline && m.response != nil {
			m.scroll = min(len(m.response.BaselineRows)-1, m.scroll+m.baselinePage())
		}
	case "pgup":
		if m.scene == SceneBaseline {
			m.scroll = max(0, m.scroll-m.baselinePage())
		}
	}
	return m, nil
}

// handleInputKeys moves between fields and starts a run.
func (m Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		return m, m.focusField(m.focus + 1)
	case "shift+tab", "up":
		return m, m.focusField(m.focus - 1)
	case "enter":
		req, err := m.formRequest()
		if err != nil {
			m.inputErr = err
			return m, nil
		}
		m.inputErr = nil
		return m.startRun(req)
	case "esc":
		if m.response != nil {
			m.inputs[m.focus].Blur()
			m.navigate(SceneResults)
		}
		return m, nil
	}
	return m.updateInputs(msg)
}

// updateInputs forwards a message to the focused field.
func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// baselinePage is the number of table rows that fit on screen.
func (m Model) baselinePage() int {
	return max(5, m.height-10)
}
