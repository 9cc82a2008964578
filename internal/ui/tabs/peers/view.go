package peers

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/spending-dashboard-tui/internal/models"
	"github.com/j-veylop/spending-dashboard-tui/internal/services/analysis"
	"github.com/j-veylop/spending-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/spending-dashboard-tui/internal/ui/styles"
)

// View renders the peers tab.
func (m *Model) View() string {
	var content string
	switch {
	case m.loading:
		content = components.RenderSpinnerCentered(&m.spinner, m.width, max(m.viewport.Height, 3))
	case m.comparison != nil:
		content = m.renderComparison()
	case m.message != "":
		content = m.renderMessage()
	default:
		content = styles.HelpStyle.Render("Press r to compare your spending with your peers.")
	}

	m.viewport.SetContent(content)

	header := lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("Peer Comparison"),
		styles.LabelStyle.Render("Month: ")+styles.ValueStyle.Render(m.month),
		"",
	)

	return styles.DocStyle.
		Width(m.width).
		Render(lipgloss.JoinVertical(lipgloss.Left, header, m.viewport.View()))
}

func (m *Model) renderMessage() string {
	style := styles.ErrorTextStyle
	switch m.kind {
	case analysis.KindNoUserData:
		style = styles.HelpStyle
	case analysis.KindUnauthorized:
		style = styles.WarningTextStyle
	}
	lines := []string{style.Render(m.message)}
	if m.kind == analysis.KindError {
		lines = append(lines, styles.HelpStyle.Render("Press r to retry."))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderComparison() string {
	c := m.comparison

	group := fmt.Sprintf("%s, %s", c.Gender, c.AgeGroup)
	if c.UserCount > 0 {
		group += fmt.Sprintf(" · %d people", c.UserCount)
	}

	legend := components.RenderLegend([]components.LegendItem{
		{Label: "You", Color: styles.UserSeries},
		{Label: "Peers", Color: styles.PeerSeries},
	})

	parts := []string{
		styles.LabelStyle.Render("Peer group: ") + styles.ValueStyle.Render(group),
	}
	if c.PeerMissing {
		parts = append(parts, styles.WarningTextStyle.Render(m.message))
	}
	parts = append(parts, legend, "")

	width := max(m.width-8, 20)
	if m.lineChart {
		caption := strings.Join(categoryNames(c.Rows), " · ")
		parts = append(parts, components.RenderComparisonChart(c.Rows, width-10, 10, caption))
	} else {
		parts = append(parts, components.RenderGroupedBars(c.Rows, width))
	}

	return strings.Join(parts, "\n")
}

func categoryNames(rows []models.CategoryComparison) []string {
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Category
	}
	return names
}
