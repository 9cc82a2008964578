package history

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/spending-dashboard-tui/internal/models"
	"github.com/j-veylop/spending-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/spending-dashboard-tui/internal/ui/styles"
)

// View renders the history tab.
func (m *Model) View() string {
	var content string
	switch {
	case m.loading:
		content = components.RenderSpinnerCentered(&m.spinner, m.width, max(m.viewport.Height, 3))
	case m.errorMsg != "":
		content = m.renderError()
	case m.mode == modeDetail && m.detail != nil:
		content = m.renderDetail()
	case m.mode == modeDiff && m.comparison != nil:
		content = m.renderDiff()
	case len(m.history) == 0:
		content = m.renderEmpty()
	default:
		content = m.renderList()
	}

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Render(lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), m.viewport.View()))
}

func (m *Model) renderHeader() string {
	title := styles.TitleStyle.Render("History")
	month := styles.LabelStyle.Render("Month: ") + styles.ValueStyle.Render(m.month)

	line := month
	if m.cached {
		line += "  " + styles.CachedBadgeStyle.Render("cached")
	}
	if m.notice != "" {
		line += "  " + styles.WarningTextStyle.Render(m.notice)
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, line, "")
}

func (m *Model) renderError() string {
	return fmt.Sprintf("%s %s\n%s",
		styles.ErrorTextStyle.Render("Error:"),
		m.errorMsg,
		styles.HelpStyle.Render("Press r to retry."),
	)
}

func (m *Model) renderEmpty() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.HelpStyle.Render(fmt.Sprintf("No analysis versions for %s.", m.month)),
		styles.HelpStyle.Render("Generate one from the Analysis tab."),
	)
}

func (m *Model) renderList() string {
	header := styles.TableHeaderStyle.Render(fmt.Sprintf("  %-6s %-18s %-16s %s", "VER", "CREATED", "AGE", ""))
	rows := []string{header}

	for i := range m.history {
		rec := &m.history[i]
		rows = append(rows, m.renderRow(rec, i == m.cursor))
	}

	rows = append(rows, "", styles.HelpStyle.Render("enter view · c compare with latest · r refresh"))
	return strings.Join(rows, "\n")
}

func (m *Model) renderRow(rec *models.AnalysisRecord, selected bool) string {
	created, age := "-", "-"
	if !rec.CreatedAt.IsZero() {
		created = components.FormatTime(rec.CreatedAt.Time)
		age = components.RelativeTime(rec.CreatedAt.Time)
	}

	var badges []string
	if rec.IsLatest {
		badges = append(badges, styles.BadgeStyle.Render("latest"))
	}
	if rec.Cached {
		badges = append(badges, styles.CachedBadgeStyle.Render("cached"))
	}

	line := fmt.Sprintf("%-6s %-18s %-16s %s", rec.Label(), created, age, strings.Join(badges, " "))
	if selected {
		return styles.SelectedListItemStyle.Render("> " + line)
	}
	return styles.ListItemStyle.Render("  " + line)
}

func (m *Model) renderDetail() string {
	rec := m.detail
	meta := styles.SubTitleStyle.Render(fmt.Sprintf("%s · %s", rec.Label(), rec.Month))
	if !rec.CreatedAt.IsZero() {
		meta += "  " + styles.HelpStyle.Render(components.FormatTime(rec.CreatedAt.Time))
	}
	if rec.Cached {
		meta += "  " + styles.CachedBadgeStyle.Render("cached")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		meta,
		"",
		components.RenderResult(rec.Result, max(m.width-4, 20)),
		"",
		styles.HelpStyle.Render("esc back"),
	)
}

func (m *Model) renderDiff() string {
	newer, older := m.compared[0], m.compared[1]
	if m.comparison.Version1 != 0 {
		newer = fmt.Sprintf("v%d", m.comparison.Version1)
	}
	if m.comparison.Version2 != 0 {
		older = fmt.Sprintf("v%d", m.comparison.Version2)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		styles.SubTitleStyle.Render(fmt.Sprintf("%s compared with %s", newer, older)),
		"",
		components.RenderDiff(m.comparison, max(m.width-4, 20)),
		"",
		styles.HelpStyle.Render("esc back"),
	)
}
