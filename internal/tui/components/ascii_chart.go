package components

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rgehrsitz/bufferplan/internal/domain"
	"github.com/rgehrsitz/bufferplan/internal/tui/tuistyles"
)

// DataSeries represents a single line in a chart
type DataSeries struct {
	Name   string
	Points []float64
	Color  lipgloss.Color
}

// ASCIIChart draws one or more series on a character grid
type ASCIIChart struct {
	Title      string
	Series     []*DataSeries
	Labels     []string // X-axis labels, one per point
	Width      int
	Height     int
	ShowLegend bool
	XAxisLabel string
	// FormatY renders Y-axis ticks. Defaults to compact dollars.
	FormatY func(float64) string
	// FloorZero keeps zero as the lower bound of the Y axis.
	FloorZero bool
}

// NewASCIIChart creates a new ASCII chart
func NewASCIIChart(title string) *ASCIIChart {
	return &ASCIIChart{
		Title:      title,
		Width:      72,
		Height:     12,
		ShowLegend: true,
		FormatY:    formatChartValue,
	}
}

// BandChart plots the P10, P50 and P90 series of a band against age labels.
func BandChart(title string, years []int, bands domain.Bands, formatY func(float64) string) *ASCIIChart {
	c := NewASCIIChart(title).
		AddSeries("P90", bands.P90, tuistyles.ColorBandHigh).
		AddSeries("P50", bands.P50, tuistyles.ColorBandMid).
		AddSeries("P10", bands.P10, tuistyles.ColorBandLow)
	labels := make([]string, len(years))
	for i, y := range years {
		labels[i] = strconv.Itoa(y)
	}
	c.Labels = labels
	c.FloorZero = true
	if formatY != nil {
		c.FormatY = formatY
	}
	return c
}

// AddSeries adds a data series to the chart
func (c *ASCIIChart) AddSeries(name string, points []float64, color lipgloss.Color) *ASCIIChart {
	c.Series = append(c.Series, &DataSeries{Name: name, Points: points, Color: color})
	return c
}

// WithSize sets the chart dimensions
func (c *ASCIIChart) WithSize(width, height int) *ASCIIChart {
	c.Width = width
	c.Height = height
	return c
}

// WithXAxisLabel sets the caption under the X axis
func (c *ASCIIChart) WithXAxisLabel(label string) *ASCIIChart {
	c.XAxisLabel = label
	return c
}

func (c *ASCIIChart) empty() bool {
	for _, s := range c.Series {
		if len(s.Points) > 0 {
			return false
		}
	}
	return true
}

// Render returns the styled chart
func (c *ASCIIChart) Render() string {
	if c.empty() {
		return tuistyles.InfoStyle.Render("No data to display")
	}

	var content strings.Builder
	if c.Title != "" {
		content.WriteString(lipgloss.NewStyle().Bold(true).Foreground(tuistyles.ColorPrimary).Render(c.Title))
		content.WriteString("\n")
	}

	lo, hi := c.bounds()
	content.WriteString(c.renderGrid(lo, hi))

	if c.XAxisLabel != "" {
		content.WriteString(lipgloss.NewStyle().Foreground(tuistyles.ColorMuted).Italic(true).Render(c.XAxisLabel))
		content.WriteString("\n")
	}
	if c.ShowLegend && len(c.Series) > 1 {
		content.WriteString(c.renderLegend())
	}
	return content.String()
}

// bounds returns the Y range across all series, never degenerate.
func (c *ASCIIChart) bounds() (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range c.Series {
		for _, p := range s.Points {
			lo = math.Min(lo, p)
			hi = math.Max(hi, p)
		}
	}
	pad := (hi - lo) * 0.05
	lo -= pad
	hi += pad
	if c.FloorZero {
		lo = 0
	}
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}

// column maps point i of n onto the chart width.
func column(i, n, width int) int {
	if n <= 1 {
		return 0
	}
	return int(float64(i) / float64(n-1) * float64(width-1))
}

// row maps a value onto the chart height, top row first.
func (c *ASCIIChart) row(v, lo, hi float64) int {
	return c.Height - 1 - int(math.Round((v-lo)/(hi-lo)*float64(c.Height-1)))
}

func (c *ASCIIChart) renderGrid(lo, hi float64) string {
	yAxisWidth := 10
	chartWidth := max(8, c.Width-yAxisWidth-3)

	grid := make([][]rune, c.Height)
	owner := make([][]int, c.Height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", chartWidth))
		owner[i] = make([]int, chartWidth)
		for j := range owner[i] {
			owner[i][j] = -1
		}
	}

	for si, s := range c.Series {
		n := len(s.Points)
		ch := seriesChar(si)
		for i, v := range s.Points {
			x, y := column(i, n, chartWidth), c.row(v, lo, hi)
			if i > 0 {
				drawLine(grid, owner, column(i-1, n, chartWidth), c.row(s.Points[i-1], lo, hi), x, y, ch, si)
			}
			plot(grid, owner, x, y, ch, si)
		}
	}

	axisStyle := lipgloss.NewStyle().Foreground(tuistyles.ColorMuted).Width(yAxisWidth).Align(lipgloss.Right)
	var out strings.Builder
	for i, r := range grid {
		tick := ""
		if i == 0 || i == c.Height-1 || i == c.Height/2 {
			tick = c.FormatY(hi - float64(i)/float64(c.Height-1)*(hi-lo))
		}
		out.WriteString(axisStyle.Render(tick))
		out.WriteString(" │ ")
		for j, ch := range r {
			if owner[i][j] >= 0 {
				out.WriteString(lipgloss.NewStyle().Foreground(c.Series[owner[i][j]].Color).Render(string(ch)))
			} else {
				out.WriteRune(ch)
			}
		}
		out.WriteString("\n")
	}
	out.WriteString(strings.Repeat(" ", yAxisWidth) + " └" + strings.Repeat("─", chartWidth) + "\n")
	if len(c.Labels) > 0 {
		out.WriteString(c.renderXAxisLabels(yAxisWidth+3, chartWidth))
		out.WriteString("\n")
	}
	return out.String()
}

func plot(grid [][]rune, owner [][]int, x, y int, ch rune, series int) {
	if y < 0 || y >= len(grid) || x < 0 || x >= len(grid[y]) {
		return
	}
	grid[y][x] = ch
	owner[y][x] = series
}

// drawLine connects two points with Bresenham's algorithm without overwriting other series.
func drawLine(grid [][]rune, owner [][]int, x0, y0, x1, y1 int, ch rune, series int) {
	dx, dy := abs(x1-x0), abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx - dy
	for x, y := x0, y0; ; {
		if y >= 0 && y < len(grid) && x >= 0 && x < len(grid[y]) && owner[y][x] < 0 {
			plot(grid, owner, x, y, '·', series)
		}
		if x == x1 && y == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x += sx
		}
		if e2 < dx {
			err += dx
			y += sy
		}
	}
}

func seriesChar(i int) rune {
	chars := []rune{'●', '■', '▲', '♦'}
	return chars[i%len(chars)]
}

// renderXAxisLabels places up to six labels at their columns.
func (c *ASCIIChart) renderXAxisLabels(indent, chartWidth int) string {
	n := len(c.Labels)
	line := []rune(strings.Repeat(" ", chartWidth+8))
	step := max(1, (n+5)/6)
	for i := 0; i < n; i += step {
		x := column(i, n, chartWidth)
		for k, r := range c.Labels[i] {
			if x+k < len(line) {
				line[x+k] = r
			}
		}
	}
	return strings.Repeat(" ", indent) + lipgloss.NewStyle().Foreground(tuistyles.ColorMuted).Render(strings.TrimRight(string(line), " "))
}

func (c *ASCIIChart) renderLegend() string {
	items := make([]string, 0, len(c.Series))
	for i, s := range c.Series {
		symbol := lipgloss.NewStyle().Foreground(s.Color).Render(string(seriesChar(i)))
		items = append(items, fmt.Sprintf("%s %s", symbol, s.Name))
	}
	return lipgloss.NewStyle().Foreground(tuistyles.ColorMuted).Render("Legend: "+strings.Join(items, "  ")) + "\n"
}

// formatChartValue formats a dollar value for the Y axis
func formatChartValue(value float64) string {
	switch {
	case math.Abs(value) >= 1000000:
		return fmt.Sprintf("$%.1fM", value/1000000)
	case math.Abs(value) >= 1000:
		return fmt.Sprintf("$%.0fK", value/1000)
	}
	return fmt.Sprintf("$%.0f", value)
}

// FormatYears formats a coverage value for the Y axis
func FormatYears(value float64) string {
	return fmt.Sprintf("%.1f yr", value)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
