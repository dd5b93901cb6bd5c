package components

import (
	"fmt"
	"strings"

	"github.com/subflowhq/subflow/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// StatusInfo carries the state shown in the bottom status bar.
type StatusInfo struct {
	Workspace    string
	AlertCount   int
	UrgentAlerts int
	BudgetPct    float64 // 0 when no budget cap is set
	HasBudget    bool
	Refreshing   bool
	Notice       string
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	barStyle := lipgloss.NewStyle().
		Background(t.Surface).
		Width(width)

	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	accentStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	noticeStyle := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface)

	left := dimStyle.Render(" [?]help  [q]uit")
	if info.Notice != "" {
		left += dimStyle.Render("  ") + noticeStyle.Render(info.Notice)
	}

	var parts []string
	if info.Workspace != "" {
		parts = append(parts, accentStyle.Render(info.Workspace))
	}
	if info.AlertCount > 0 {
		alertStyle := mutedStyle
		if info.UrgentAlerts > 0 {
			alertStyle = lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)
		}
		parts = append(parts, alertStyle.Render(fmt.Sprintf("%d alerts", info.AlertCount)))
	}
	if info.HasBudget {
		pctColor := lipgloss.Color(ColorForPct(info.BudgetPct / 100))
		pctStyle := lipgloss.NewStyle().Foreground(pctColor).Background(t.Surface)
		parts = append(parts, pctStyle.Render(fmt.Sprintf("budget %.0f%%", info.BudgetPct)))
	}
	if info.Refreshing {
		parts = append(parts, mutedStyle.Render("refreshing..."))
	}

	right := strings.Join(parts, dimStyle.Render(" · "))
	if right != "" {
		right += dimStyle.Render(" ")
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	spaceStyle := lipgloss.NewStyle().Background(t.Surface)
	return barStyle.Render(left + spaceStyle.Render(strings.Repeat(" ", padding)) + right)
}
