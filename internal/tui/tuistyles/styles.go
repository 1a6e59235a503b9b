// Package tuistyles holds the lipgloss palette and styles shared by the TUI and its components.
package tuistyles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/rgehrsitz/bufferplan/internal/output"
)

// Colors
var (
	ColorPrimary   = lipgloss.Color("#7D56F4")
	ColorSecondary = lipgloss.Color("#04B575")
	ColorAccent    = lipgloss.Color("#F7C948")
	ColorSuccess   = lipgloss.Color("#04B575")
	ColorDanger    = lipgloss.Color("#FF5F87")
	ColorInfo      = lipgloss.Color("#5FAFFF")

	ColorForeground = lipgloss.Color("#FAFAFA")
	ColorMuted      = lipgloss.Color("#767676")
	ColorBorder     = lipgloss.Color("#3C3C3C")

	ColorBandLow  = lipgloss.Color("#FF875F")
	ColorBandMid  = lipgloss.Color("#5FAFFF")
	ColorBandHigh = lipgloss.Color("#87D787")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorForeground).
			Background(ColorPrimary).
			Padding(0, 1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Italic(true)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(ColorForeground).
			Background(lipgloss.Color("#303030")).
			Padding(0, 1)

	StatusKeyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	MetricLabelStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	MetricValueStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorForeground)

	ParameterLabelStyle = lipgloss.NewStyle().Width(18).Foreground(ColorMuted)
	FocusedLabelStyle   = lipgloss.NewStyle().Width(18).Bold(true).Foreground(ColorPrimary)

	ErrorStyle = lipgloss.NewStyle().Foreground(ColorDanger).Bold(true)
	InfoStyle  = lipgloss.NewStyle().Foreground(ColorInfo)
	WarnStyle  = lipgloss.NewStyle().Foreground(ColorAccent)

	TableHeaderStyle    = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	TableCellStyle      = lipgloss.NewStyle().Foreground(ColorForeground)
	TableHighlightStyle = lipgloss.NewStyle().Foreground(ColorDanger)
)

// StatusStyle colours a Short/Enough/Extra badge.
func StatusStyle(s output.Status) lipgloss.Style {
	switch s {
	case output.StatusShort:
		return lipgloss.NewStyle().Bold(true).Foreground(ColorDanger)
	case output.StatusExtra:
		return lipgloss.NewStyle().Bold(true).Foreground(ColorInfo)
	default:
		return lipgloss.NewStyle().Bold(true).Foreground(ColorSuccess)
	}
}

// SuccessStyle colours a success percentage against the 90% standard.
func SuccessStyle(pct float64) lipgloss.Style {
	switch {
	case pct >= 90:
		return lipgloss.NewStyle().Bold(true).Foreground(ColorSuccess)
	case pct >= 75:
		return lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	default:
		return lipgloss.NewStyle().Bold(true).Foreground(ColorDanger)
	}
}
