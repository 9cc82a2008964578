package notifications

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/spending-dashboard-tui/internal/models"
	"github.com/j-veylop/spending-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/spending-dashboard-tui/internal/ui/styles"
)

// View renders the notifications tab.
func (m *Model) View() string {
	var content string
	switch {
	case m.loading && len(m.list) == 0:
		content = styles.HelpStyle.Render("Loading notifications...")
	case m.errorMsg != "":
		content = fmt.Sprintf("%s %s\n%s",
			styles.ErrorTextStyle.Render("Error:"),
			m.errorMsg,
			styles.HelpStyle.Render("Press r to retry."))
	case len(m.list) == 0:
		content = styles.HelpStyle.Render("No notifications.")
	default:
		content = m.renderList()
	}

	m.viewport.SetContent(content)

	header := lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("Notifications"),
		styles.LabelStyle.Render("Unread: ")+styles.ValueStyle.Render(fmt.Sprintf("%d", m.state.Unread())),
		"",
	)

	return styles.DocStyle.
		Width(m.width).
		Render(lipgloss.JoinVertical(lipgloss.Left, header, m.viewport.View()))
}

func (m *Model) renderList() string {
	rows := make([]string, 0, len(m.list))
	for i := range m.list {
		rows = append(rows, m.renderRow(&m.list[i], i == m.cursor))
	}
	return strings.Join(rows, "\n")
}

func (m *Model) renderRow(n *models.Notification, selected bool) string {
	marker := styles.UnreadStyle.Render("●")
	text := styles.UnreadStyle.Render(n.Message)
	if n.Read {
		marker = styles.ReadStyle.Render("○")
		text = styles.ReadStyle.Render(n.Message)
	}

	when := ""
	if !n.CreatedAt.IsZero() {
		when = styles.HelpStyle.Render(components.RelativeTime(n.CreatedAt.Time))
	}
	kind := ""
	if n.Type != "" {
		kind = styles.BadgeStyle.Render(n.Type)
	}

	line := strings.Join(nonEmpty(marker, kind, text, when), " ")
	if selected {
		return styles.SelectedListItemStyle.Render("> " + line)
	}
	return styles.ListItemStyle.Render("  " + line)
}

func nonEmpty(parts ...string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
