package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/j-veylop/spending-dashboard-tui/internal/models"
	"github.com/j-veylop/spending-dashboard-tui/internal/ui/styles"
)

// SectionHeading renders the icon and title of a result section key in
// the section color.
func SectionHeading(key string) string {
	meta, _ := models.ResultKey(key).Meta()
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.SectionColor(meta.Color)).
		Render(meta.Icon + " " + meta.Title)
}

// RenderSection renders one result section as a card.
func RenderSection(key, text string, width int) string {
	meta, _ := models.ResultKey(key).Meta()
	card := styles.CardStyle.
		BorderForeground(styles.SectionColor(meta.Color)).
		Width(max(width-2, 20))

	body := strings.TrimSpace(text)
	if body == "" {
		body = styles.HelpStyle.Render("(empty)")
	}
	return card.Render(SectionHeading(key) + "\n" + body)
}

// RenderResult renders every section of a result, known sections first,
// followed by the category spending bars when present.
func RenderResult(result *models.AnalysisResult, width int) string {
	if result.IsEmpty() {
		return styles.HelpStyle.Render("This analysis has no content.")
	}

	var parts []string
	for _, key := range models.SortSectionKeys(result.Sections) {
		parts = append(parts, RenderSection(key, result.Sections[key], width))
	}

	if len(result.CategorySpending) > 0 {
		parts = append(parts, styles.SubTitleStyle.Render("Spending by category"))
		parts = append(parts, RenderAmounts(result.CategorySpending, width))
	}

	return strings.Join(parts, "\n")
}

// RenderAmounts renders a category to amount map as sorted bars.
func RenderAmounts(amounts map[string]decimal.Decimal, width int) string {
	labels := models.SortSectionKeys(amounts)
	values := make([]decimal.Decimal, len(labels))
	for i, l := range labels {
		values[i] = amounts[l]
	}
	return RenderBarChart(values, labels, width)
}

// RenderDiff renders the changed sections between two versions.
func RenderDiff(cmp *models.ComparisonResult, width int) string {
	if cmp == nil || len(cmp.Differences) == 0 {
		return styles.SuccessTextStyle.Render("No differences between these versions.")
	}

	textWidth := max(width-6, 20)
	wrap := lipgloss.NewStyle().Width(textWidth)

	var parts []string
	for _, key := range cmp.Keys() {
		d := cmp.Differences[key]
		block := []string{
			SectionHeading(key),
			styles.DiffBeforeStyle.Render(fmt.Sprintf("- v%d", cmp.Version2)),
			wrap.Render(styles.DiffBeforeStyle.Render(orEmpty(d.Before))),
			styles.DiffAfterStyle.Render(fmt.Sprintf("+ v%d", cmp.Version1)),
			wrap.Render(styles.DiffAfterStyle.Render(orEmpty(d.After))),
		}
		parts = append(parts, styles.CardStyle.Width(max(width-2, 20)).Render(strings.Join(block, "\n")))
	}
	return strings.Join(parts, "\n")
}

func orEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}
