// Package components provides reusable UI components for the TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/shopspring/decimal"

	"github.com/j-veylop/spending-dashboard-tui/internal/models"
	"github.com/j-veylop/spending-dashboard-tui/internal/ui/styles"
)

// RenderComparisonChart plots user and peer amounts as two series over
// the category axis.
func RenderComparisonChart(rows []models.CategoryComparison, width, height int, caption string) string {
	if len(rows) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	// Ensure minimum dimensions
	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	user := make([]float64, len(rows))
	peer := make([]float64, len(rows))
	for i, r := range rows {
		user[i] = r.User.InexactFloat64()
		peer[i] = r.Peer.InexactFloat64()
	}

	// asciigraph needs at least two points to draw a line
	if len(rows) == 1 {
		user = append(user, user[0])
		peer = append(peer, peer[0])
	}

	return asciigraph.PlotMany([][]float64{user, peer},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(
			asciigraph.Blue,
			asciigraph.Red,
		),
	)
}

// RenderBarChart creates a simple horizontal bar chart of amounts.
func RenderBarChart(values []decimal.Decimal, labels []string, width int) string {
	if len(values) == 0 {
		return ""
	}

	maxVal := decimal.Zero
	for _, v := range values {
		if v.GreaterThan(maxVal) {
			maxVal = v
		}
	}

	maxLabelLen := 0
	for _, l := range labels {
		maxLabelLen = max(maxLabelLen, lipgloss.Width(l))
	}

	barWidth := max(width-maxLabelLen-16, 10) // Leave room for label and value

	var lines []string
	for i, v := range values {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}

		bar := strings.Repeat("█", scale(v, maxVal, barWidth))
		line := fmt.Sprintf("%s │%s %s", padLeft(label, maxLabelLen), bar, FormatAmount(v))
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

// RenderGroupedBars draws a user bar and a peer bar for each category.
func RenderGroupedBars(rows []models.CategoryComparison, width int) string {
	if len(rows) == 0 {
		return styles.HelpStyle.Render("No spending to compare")
	}

	maxVal := decimal.Zero
	maxLabelLen := 0
	for _, r := range rows {
		maxVal = decimal.Max(maxVal, r.User, r.Peer)
		maxLabelLen = max(maxLabelLen, lipgloss.Width(r.Category))
	}

	barWidth := max(width-maxLabelLen-16, 10)
	userStyle := lipgloss.NewStyle().Foreground(styles.UserSeries)
	peerStyle := lipgloss.NewStyle().Foreground(styles.PeerSeries)

	var lines []string
	for _, r := range rows {
		userBar := userStyle.Render(strings.Repeat("█", scale(r.User, maxVal, barWidth)))
		peerBar := peerStyle.Render(strings.Repeat("▒", scale(r.Peer, maxVal, barWidth)))

		lines = append(lines,
			fmt.Sprintf("%s │%s %s", padLeft(r.Category, maxLabelLen), userBar, FormatAmount(r.User)),
			fmt.Sprintf("%s │%s %s", strings.Repeat(" ", maxLabelLen), peerBar, FormatAmount(r.Peer)),
		)
	}

	return strings.Join(lines, "\n")
}

func scale(v, maxVal decimal.Decimal, width int) int {
	if !maxVal.IsPositive() || !v.IsPositive() {
		return 0
	}
	n := int(v.Div(maxVal).InexactFloat64() * float64(width))
	return min(max(n, 0), width)
}

func padLeft(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return strings.Repeat(" ", gap) + s
	}
	return s
}

// RenderLegend creates a chart legend.
func RenderLegend(items []LegendItem) string {
	var parts []string
	for _, item := range items {
		colorBox := lipgloss.NewStyle().Foreground(item.Color).Render("■")
		parts = append(parts, fmt.Sprintf("%s %s", colorBox, item.Label))
	}
	return strings.Join(parts, "  ")
}

// LegendItem represents a single legend entry.
type LegendItem struct {
	Label string
	Color lipgloss.Color
}
