package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rgehrsitz/bufferplan/internal/output"
	"github.com/rgehrsitz/bufferplan/internal/tui/components"
	"github.com/rgehrsitz/bufferplan/internal/tui/tuistyles"
)

// View renders the current state of the application
func (m Model) View() string {
	var content string
	switch {
	case m.err != nil:
		content = m.renderError()
	case m.running:
		content = m.renderRunning()
	default:
		switch m.scene {
		case SceneInputs:
			content = m.renderInputs()
		case SceneResults:
			content = m.renderResults()
		case SceneBaseline:
			content = m.renderBaseline()
		case SceneCompare:
			content = m.renderCompare()
		case SceneHelp:
			content = m.renderHelp()
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderTitleBar(), content, m.renderStatusBar())
}

func (m Model) renderTitleBar() string {
	title := tuistyles.TitleStyle.Render("BUFFERPLAN · cash buffer + stocks planner")
	crumb := m.scene.String()
	if m.planName != "" {
		crumb = fmt.Sprintf("%s / %s", m.planName, crumb)
	}
	return title + "\n" + tuistyles.SubtitleStyle.Render(crumb) + "\n"
}

func (m Model) renderStatusBar() string {
	var keys []string
	if m.scene == SceneInputs {
		keys = []string{shortcut("tab", "next"), shortcut("enter", "run")}
		if m.response != nil {
			keys = append(keys, shortcut("esc", "results"))
		}
	} else {
		keys = []string{
			shortcut("i", "inputs"),
			shortcut("r", "results"),
			shortcut("b", "year by year"),
			shortcut("c", "compare"),
			shortcut("?", "help"),
			shortcut("q", "quit"),
		}
	}
	if m.running {
		keys = []string{shortcut("ctrl+x", "cancel"), shortcut("ctrl+c", "quit")}
	}
	return "\n" + tuistyles.StatusBarStyle.Width(max(20, m.width)).Render(strings.Join(keys, " • "))
}

func shortcut(key, desc string) string {
	return tuistyles.StatusKeyStyle.Render(key) + " " + desc
}

func (m Model) renderError() string {
	return tuistyles.BorderStyle.BorderForeground(tuistyles.ColorDanger).Render(
		tuistyles.ErrorStyle.Render("Error") + "\n\n" + m.err.Error() + "\n\n" +
			tuistyles.SubtitleStyle.Render("press any key to continue"))
}

func (m Model) renderRunning() string {
	return tuistyles.BorderStyle.Render(m.tracker.Render(m.spinner.View()))
}

func (m Model) renderInputs() string {
	var b strings.Builder
	for i, ti := range m.inputs {
		label := tuistyles.ParameterLabelStyle.Render(fieldLabels[i])
		if i == m.focus {
			label = tuistyles.FocusedLabelStyle.Render("› " + fieldLabels[i])
		}
		b.WriteString(label + " " + ti.View() + "\n")
	}

	if req, err := m.formRequest(); err == nil {
		b.WriteString("\n" + tuistyles.SubtitleStyle.Render(output.DeriveHints(req, m.now().Year()).String()) + "\n")
	}
	if m.inputErr != nil {
		b.WriteString("\n" + tuistyles.ErrorStyle.Render(m.inputErr.Error()) + "\n")
	}
	b.WriteString("\n" + tuistyles.SubtitleStyle.Render("Amounts accept 250k, 1.2m or 1,250,000. All amounts are in today's dollars."))
	return tuistyles.BorderStyle.Render(b.String())
}

// report wraps the latest response for the shared summary helpers.
func (m Model) report() *output.Report {
	r := output.NewReport(m.request, m.response, m.engine.Options.Market, m.now())
	r.Name = m.planName
	return r
}

func (m Model) chartWidth() int {
	return min(110, max(40, m.width-4))
}

func (m Model) renderResults() string {
	if m.response == nil {
		return tuistyles.InfoStyle.Render("No results yet. Press i to enter a plan.")
	}
	p := m.response
	s := output.Summarize(m.report())

	banner := tuistyles.InfoStyle.Render(s.Banner)
	if !p.Feasible90 {
		banner = tuistyles.WarnStyle.Render(s.Banner)
	}

	cards := []*components.MetricCard{
		components.NewMetricCard("Chance of success", output.FormatPercent(s.SuccessPct)).
			WithValueStyle(tuistyles.SuccessStyle(s.SuccessPct)).
			WithDescription(fmt.Sprintf("±%.1f pts, %d trials", p.SuccessSE, p.SuccessTrials)),
		components.NewMetricCard("Start cash needed", output.FormatMoney(s.StartCashNeeded)).
			WithStatus(s.Cash).
			WithDescription("you have " + output.FormatMoney(p.StartingCash)),
		components.NewMetricCard("Start stocks needed", output.FormatMoney(s.StartStocksNeeded)).
			WithStatus(s.Stocks).
			WithDescription("you have " + output.FormatMoney(p.StartingStocks)),
		components.NewMetricCard("First trouble", s.FirstTrouble).
			WithDescription(fmt.Sprintf("%d yr(s) covered at start", p.InitialCoveredYears)),
	}
	columns := max(1, m.chartWidth()/28)

	var b strings.Builder
	b.WriteString(banner + "\n\n")
	b.WriteString(components.MetricGrid(cards, columns) + "\n")
	if !p.Feasible90 {
		for _, rec := range s.Recommendations {
			b.WriteString(tuistyles.WarnStyle.Render("• "+rec) + "\n")
		}
	}
	b.WriteString("\n")

	height := max(6, (m.height-24)/2)
	b.WriteString(components.BandChart("Stocks (real $)", p.SeriesYears, p.Stocks, nil).
		WithSize(m.chartWidth(), height).Render())
	b.WriteString("\n")
	b.WriteString(components.BandChart("Years of spending held in cash", p.SeriesYears, p.Coverage, components.FormatYears).
		WithSize(m.chartWidth(), height).WithXAxisLabel("retirement year").Render())
	return b.String()
}

func (m Model) renderBaseline() string {
	if m.response == nil {
		return tuistyles.InfoStyle.Render("No results yet.")
	}
	rows := m.response.BaselineRows
	header := fmt.Sprintf("%5s %4s %10s %10s %10s %10s %10s %10s %11s %12s %5s",
		"Year", "Age", "Spend", "Benefit", "Cash Used", "Sold Emg", "Sold Rec", "Refill", "Cash End", "Stocks End", "Ahead")

	var b strings.Builder
	b.WriteString(tuistyles.SubtitleStyle.Render("Median-return path, one row per retirement year") + "\n\n")
	b.WriteString(tuistyles.TableHeaderStyle.Render(header) + "\n")

	end := min(len(rows), m.scroll+m.baselinePage())
	for _, r := range rows[m.scroll:end] {
		line := fmt.Sprintf("%5d %4d %10s %10s %10s %10s %10s %10s %11s %12s %5d",
			r.Year, r.Age,
			short(r.Spend), short(r.Benefit), short(r.CashUsed),
			short(r.SoldEmergency), short(r.SoldRecovery), short(r.RefillAmount),
			short(r.CashEnd), short(r.StocksEnd), r.FundedAhead)
		style := tuistyles.TableCellStyle
		if r.Shortfall > 0 {
			style = tuistyles.TableHighlightStyle
			line += "  short " + short(r.Shortfall)
		}
		b.WriteString(style.Render(line) + "\n")
	}
	b.WriteString("\n" + tuistyles.SubtitleStyle.Render(fmt.Sprintf("rows %d-%d of %d  (↑/↓, pgup/pgdn)", m.scroll+1, end, len(rows))))
	return b.String()
}

// short renders a dollar amount compactly, with a dash for zero.
func short(v float64) string {
	switch {
	case v == 0:
		return "-"
	case v >= 1e6 || v <= -1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	case v >= 1e3 || v <= -1e3:
		return fmt.Sprintf("$%.0fK", v/1e3)
	}
	return fmt.Sprintf("$%.0f", v)
}

func (m Model) renderCompare() string {
	if m.comparing {
		return tuistyles.BorderStyle.Render(m.spinner.View() + " Comparing " + strings.Join(m.templates, ", ") + "...")
	}
	cs := m.comparison
	if cs == nil {
		return tuistyles.InfoStyle.Render("Press c to compare the current plan against common variations.")
	}

	var b strings.Builder
	b.WriteString(tuistyles.TableHeaderStyle.Render(fmt.Sprintf("%-32s %9s %14s %12s", "Scenario", "Success", "Stocks Needed", "vs Base")) + "\n")
	base := cs.BaseResult
	b.WriteString(fmt.Sprintf("%-32s %9s %14s %12s\n", base.ScenarioName+" (base)",
		output.FormatPercent(base.SuccessPct), neededLabel(base.Feasible90, base.StartStocksNeeded.InexactFloat64(), base.MaxSuccessCap), ""))
	for _, alt := range cs.AlternativeResults {
		delta := alt.SuccessDiffFromBase.StringFixed(1) + " pts"
		if alt.SuccessDiffFromBase.IsPositive() {
			delta = "+" + delta
		}
		b.WriteString(fmt.Sprintf("%-32s %9s %14s %12s\n", alt.ScenarioName,
			output.FormatPercent(alt.SuccessPct), neededLabel(alt.Feasible90, alt.StartStocksNeeded.InexactFloat64(), alt.MaxSuccessCap), delta))
	}
	if len(cs.Recommendations) > 0 {
		b.WriteString("\n")
		for _, rec := range cs.Recommendations {
			b.WriteString(tuistyles.InfoStyle.Render("• "+rec) + "\n")
		}
	}
	return b.String()
}

func neededLabel(feasible bool, needed, capPct float64) string {
	if !feasible {
		return "cap " + output.FormatPercent(capPct)
	}
	return output.FormatMoney(output.RoundStocks(needed))
}

func (m Model) renderHelp() string {
	lines := []string{
		"Enter your plan on the Inputs screen and press enter to run it.",
		"",
		shortcut("tab / shift+tab", "move between fields"),
		shortcut("enter", "run the plan"),
		shortcut("r", "results: success odds, amounts needed, bands"),
		shortcut("b", "year-by-year median path"),
		shortcut("c", "compare against "+strings.Join(m.templates, ", ")),
		shortcut("ctrl+x", "cancel a running plan"),
		shortcut("esc", "back"),
		shortcut("q / ctrl+c", "quit"),
		"",
		tuistyles.SubtitleStyle.Render(fmt.Sprintf("Market: %.1f%% mean real return, %.1f%% volatility, target %.0f%% success.",
			m.engine.Options.Market.Mean*100, m.engine.Options.Market.Stdev*100, m.engine.Options.TargetPct)),
	}
	return tuistyles.BorderStyle.Render(strings.Join(lines, "\n"))
}
