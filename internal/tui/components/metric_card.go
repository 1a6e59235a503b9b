package components

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/rgehrsitz/bufferplan/internal/output"
	"github.com/rgehrsitz/bufferplan/internal/tui/tuistyles"
)

// MetricCard displays one headline figure with an optional status badge
type MetricCard struct {
	Label       string
	Value       string
	Status      output.Status
	Description string
	Width       int
	valueStyle  *lipgloss.Style
}

// NewMetricCard creates a new metric card
func NewMetricCard(label, value string) *MetricCard {
	return &MetricCard{
		Label: label,
		Value: value,
		Width: 26,
	}
}

// WithStatus adds a Short/Enough/Extra badge
func (m *MetricCard) WithStatus(s output.Status) *MetricCard {
	m.Status = s
	return m
}

// WithDescription adds a description/subtitle
func (m *MetricCard) WithDescription(desc string) *MetricCard {
	m.Description = desc
	return m
}

// WithValueStyle overrides the style of the value line
func (m *MetricCard) WithValueStyle(s lipgloss.Style) *MetricCard {
	m.valueStyle = &s
	return m
}

// WithWidth sets the card width
func (m *MetricCard) WithWidth(width int) *MetricCard {
	m.Width = width
	return m
}

// Render returns the styled metric card
func (m *MetricCard) Render() string {
	valueStyle := tuistyles.MetricValueStyle
	if m.valueStyle != nil {
		valueStyle = *m.valueStyle
	}
	content := tuistyles.MetricLabelStyle.Render(m.Label) + "\n" + valueStyle.Render(m.Value)
	if m.Status != "" {
		content += "  " + tuistyles.StatusStyle(m.Status).Render(string(m.Status))
	}
	if m.Description != "" {
		content += "\n" + tuistyles.SubtitleStyle.Render(m.Description)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(tuistyles.ColorBorder).
		Padding(0, 1).
		Width(m.Width).
		Render(content)
}

// RenderCompact returns an inline version without border
func (m *MetricCard) RenderCompact() string {
	out := tuistyles.MetricLabelStyle.Render(m.Label+":") + " " + tuistyles.MetricValueStyle.Render(m.Value)
	if m.Status != "" {
		out += " " + tuistyles.StatusStyle(m.Status).Render(string(m.Status))
	}
	return out
}

// MetricGrid renders cards in rows of the given width
func MetricGrid(cards []*MetricCard, columns int) string {
	if len(cards) == 0 {
		return ""
	}
	if columns <= 0 {
		columns = 1
	}

	var rows, current []string
	for i, card := range cards {
		current = append(current, card.Render())
		if (i+1)%columns == 0 || i == len(cards)-1 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, current...))
			current = nil
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
