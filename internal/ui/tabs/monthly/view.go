package monthly

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/j-veylop/spending-dashboard-tui/internal/services/analysis"
	"github.com/j-veylop/spending-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/spending-dashboard-tui/internal/ui/styles"
)

// View renders the analysis tab.
func (m *Model) View() string {
	header := m.renderHeader()

	// The prediction sits above the scrolling body so a long-running
	// analysis does not push it out of view.
	prediction := m.renderPrediction()
	bodyHeight := m.bodyHeight()
	if prediction != "" {
		header = lipgloss.JoinVertical(lipgloss.Left, header, prediction, "")
		bodyHeight = max(bodyHeight-lipgloss.Height(prediction)-1, 3)
	}
	m.viewport.Height = bodyHeight

	var body string
	switch m.view.State {
	case analysis.ViewEmpty:
		body = m.renderEmpty()
	case analysis.ViewUnauthorized:
		body = m.renderUnauthorized()
	case analysis.ViewLoaded:
		body = m.renderLoaded()
	case analysis.ViewError:
		body = m.renderError()
	default:
		if !m.view.State.IsTerminal() {
			body = components.RenderSpinnerCentered(&m.spinner, m.width, max(bodyHeight, 3))
		}
	}

	m.viewport.SetContent(body)

	return styles.DocStyle.
		Width(m.width).
		Render(lipgloss.JoinVertical(lipgloss.Left, header, m.viewport.View()))
}

func (m *Model) renderHeader() string {
	title := styles.TitleStyle.Render("Monthly Analysis")

	var month string
	if m.editing {
		month = m.input.View()
		if m.inputErr != "" {
			month += "  " + styles.ErrorTextStyle.Render(m.inputErr)
		}
	} else {
		month = styles.LabelStyle.Render("Month: ") + styles.ValueStyle.Render(m.view.Month)
	}

	status := styles.BadgeStyle.Render(m.view.State.String())
	if m.deleting {
		status += " " + styles.WarningTextStyle.Render("deleting...")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		month+"  "+status,
		"",
	)
}

func (m *Model) renderEmpty() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.HelpStyle.Render(fmt.Sprintf("No analysis for %s yet.", m.view.Month)),
		styles.HelpStyle.Render("Press n to generate one."),
	)
}

func (m *Model) renderUnauthorized() string {
	lines := []string{styles.WarningTextStyle.Render("Sign in to see your analysis.")}
	if url := m.state.LoginURL(); url != "" {
		lines = append(lines, styles.HelpStyle.Render("Login page: "+url))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderError() string {
	msg := "Something went wrong."
	if m.view.Last != nil && m.view.Last.Message != "" {
		msg = m.view.Last.Message
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.ErrorTextStyle.Render("Error: ")+msg,
		styles.HelpStyle.Render("Press r to retry."),
	)
}

func (m *Model) renderLoaded() string {
	rec := m.view.Last.Record

	meta := []string{styles.LabelStyle.Render(rec.Label())}
	if !rec.CreatedAt.IsZero() {
		meta = append(meta, styles.HelpStyle.Render("created "+components.RelativeTime(rec.CreatedAt.Time)))
	}
	if rec.IsLatest {
		meta = append(meta, styles.BadgeStyle.Render("latest"))
	}
	if rec.Cached || m.view.Last.Cached {
		meta = append(meta, styles.CachedBadgeStyle.Render("cached"))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		strings.Join(meta, "  "),
		"",
		components.RenderResult(rec.Result, max(m.width-4, 20)),
	)
}

func (m *Model) renderPrediction() string {
	if m.predicting {
		return styles.HelpStyle.Render("Building prediction...")
	}
	if m.prediction == nil || !m.prediction.HasForecast() {
		if m.predictionMsg == "" {
			return ""
		}
		return styles.CardStyle.Render(
			styles.CardTitleStyle.Render("Next month") + "\n" + styles.HelpStyle.Render(m.predictionMsg))
	}

	p := m.prediction
	lines := []string{
		styles.CardTitleStyle.Render("Next month"),
		styles.LabelStyle.Render("Predicted total: ") +
			styles.ValueStyle.Render(components.FormatAmount(p.TotalPredictedAmount.Decimal)),
	}
	if m.predictionMsg != "" {
		lines = append(lines, styles.HelpStyle.Render(m.predictionMsg))
	}

	if len(p.CategoryPredictedAmounts) > 0 {
		labels := make([]string, 0, len(p.CategoryPredictedAmounts))
		for c := range p.CategoryPredictedAmounts {
			labels = append(labels, c)
		}
		sort.Strings(labels)
		values := make([]decimal.Decimal, len(labels))
		for i, c := range labels {
			values[i] = p.CategoryPredictedAmounts[c]
		}
		lines = append(lines, "", components.RenderBarChart(values, labels, max(m.width-8, 20)))
	}

	return styles.CardStyle.Render(strings.Join(lines, "\n"))
}
