package info

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/spending-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/spending-dashboard-tui/internal/ui/styles"
	"github.com/j-veylop/spending-dashboard-tui/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	sections := []string{
		m.renderTitle(),
		m.renderConfigCard(),
		m.renderSessionCard(),
		m.renderStatsCard(),
		m.renderCallsCard(),
		m.renderAboutCard(),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

// renderTitle renders the info tab title.
func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration, session and request statistics")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 90)
}

func (m *Model) card(rows ...string) string {
	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderConfigCard renders the configuration card.
func (m *Model) renderConfigCard() string {
	rows := []string{styles.CardTitleStyle.Render("Configuration"), ""}

	if m.config == nil {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
		return m.card(rows...)
	}

	csrf := "from " + m.config.MetadataPage
	if m.config.CSRFToken != "" {
		csrf = "configured"
	}

	rows = append(rows,
		m.renderConfigRow("API", m.config.APIBaseURL),
		m.renderConfigRow("Session File", m.config.SessionPath),
		m.renderConfigRow("Database", m.config.DatabasePath),
		m.renderConfigRow("Log File", m.config.LogPath),
		m.renderConfigRow("Poll Interval", m.config.NotificationPollInterval.String()),
		m.renderConfigRow("CSRF Token", csrf),
	)
	return m.card(rows...)
}

// renderConfigRow renders a configuration key-value row.
func (m *Model) renderConfigRow(label, value string) string {
	return styles.LabelStyle.Render(label+":") + " " + styles.ValueStyle.Render(value)
}

func (m *Model) renderSessionCard() string {
	status := styles.ErrorTextStyle.Render("missing")
	switch {
	case m.state.IsUnauthorized():
		status = styles.ErrorTextStyle.Render("rejected by server")
	case m.state.HasSession():
		status = styles.SuccessTextStyle.Render("active")
	}

	rows := []string{
		styles.CardTitleStyle.Render("Session"),
		"",
		m.renderConfigRow("Status", status),
		m.renderConfigRow("Unread", fmt.Sprintf("%d", m.state.Unread())),
	}
	if url := m.state.LoginURL(); url != "" && !m.state.HasSession() {
		rows = append(rows, "", styles.InfoTextStyle.Render("Sign in at "+url+" and pass --session-cookie"))
	}
	return m.card(rows...)
}

func (m *Model) renderStatsCard() string {
	rows := []string{styles.CardTitleStyle.Render("Requests"), ""}

	stats := m.state.GetStats()
	if stats == nil || stats.Calls.TotalCalls == 0 {
		rows = append(rows, styles.HelpStyle.Render("No requests recorded yet"))
		return m.card(rows...)
	}

	c := stats.Calls
	rate := c.SuccessRate()
	rows = append(rows,
		m.renderConfigRow("Total", humanize.Comma(int64(c.TotalCalls))),
		m.renderConfigRow("Failed", humanize.Comma(int64(c.FailedCalls))),
		m.renderConfigRow("Unauthorized", humanize.Comma(int64(c.Unauthorized))),
		m.renderConfigRow("Success Rate", styles.GetRateStyle(rate).Render(fmt.Sprintf("%.1f%%", rate))),
		m.renderConfigRow("Avg Duration", fmt.Sprintf("%.0f ms", c.AvgDurationMs)),
		m.renderConfigRow("Max Duration", fmt.Sprintf("%d ms", c.MaxDurationMs)),
		m.renderConfigRow("Last Call", components.RelativeTime(c.LastCall)),
		m.renderConfigRow("Cached Months", fmt.Sprintf("%d", stats.CachedMonths)),
	)
	return m.card(rows...)
}

func (m *Model) renderCallsCard() string {
	rows := []string{styles.CardTitleStyle.Render("Recent Requests"), ""}
	if len(m.calls) == 0 {
		rows = append(rows, styles.HelpStyle.Render("Press r to load"))
		return m.card(rows...)
	}

	rows = append(rows, styles.TableHeaderStyle.Render(
		fmt.Sprintf("%-9s %-6s %-32s %-6s %-8s %s", "TIME", "METHOD", "PATH", "STATUS", "MS", "OUTCOME")))
	for _, c := range m.calls {
		path := c.Path
		if len(path) > 32 {
			path = path[:29] + "..."
		}
		outcome := c.Outcome
		style := styles.SuccessTextStyle
		if outcome != "ok" {
			style = styles.ErrorTextStyle
		}
		rows = append(rows, fmt.Sprintf("%-9s %-6s %-32s %-6d %-8d %s",
			c.Timestamp.Format("15:04:05"), c.Method, path, c.StatusCode, c.DurationMs, style.Render(outcome)))
	}
	return m.card(strings.Join(rows, "\n"))
}

// renderAboutCard renders the about/version information card.
func (m *Model) renderAboutCard() string {
	b := version.Get()

	rows := []string{
		styles.CardTitleStyle.Render("About Spending Dashboard TUI"),
		"",
		m.renderConfigRow("Version", b.Version),
		m.renderConfigRow("Build Date", b.Date),
		m.renderConfigRow("Git Commit", b.Commit),
		m.renderConfigRow("Go Version", runtime.Version()),
		m.renderConfigRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)),
	}
	return m.card(rows...)
}
