package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/subflowhq/subflow/internal/cli"
	"github.com/subflowhq/subflow/internal/model"
	"github.com/subflowhq/subflow/internal/stats"
	"github.com/subflowhq/subflow/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func alertSeverityColor(t theme.Theme, sev stats.AlertSeverity) lipgloss.Color {
	switch sev {
	case stats.SeverityOverdue:
		return t.Red
	case stats.SeverityUrgent:
		return t.Orange
	default:
		return t.Yellow
	}
}

func (a App) renderAlertsTab(cw, contentH int) string {
	t := theme.Active
	now := time.Now()
	alerts := stats.SortAlerts(a.snap.Alerts, now)

	if len(alerts) == 0 {
		return a.renderEmptyTab("No active alerts", "Press C to re-run the server-side checks")
	}

	names := make(map[string]string, len(a.snap.Subscriptions))
	for _, sub := range a.snap.Subscriptions {
		names[sub.ID] = sub.Name
	}

	headerStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceHover)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("  %-9s %-28s %-13s %s",
		"TYPE", "SUBSCRIPTION", "DUE", "STATUS")))
	b.WriteString("\n")

	visible := contentH - 4
	if visible < 1 {
		visible = 1
	}
	start := 0
	cursor := a.cursor[tabAlerts]
	if cursor >= visible {
		start = cursor - visible + 1
	}

	for i := start; i < len(alerts) && i < start+visible; i++ {
		al := alerts[i]
		sev := stats.ClassifyAlert(al.DueDate.Time, now)

		subject := names[al.SubscriptionID.ID]
		if al.Type == model.AlertBudget {
			subject = "Workspace budget"
		}
		if subject == "" {
			subject = al.SubscriptionID.ID
		}

		status := "upcoming"
		days := stats.DaysUntil(al.DueDate.Time, now)
		switch {
		case al.DueDate.Time.IsZero():
			status = "—"
		case days < 0:
			status = fmt.Sprintf("%dd overdue", -days)
		case days == 0:
			status = "due today"
		default:
			status = fmt.Sprintf("due in %dd", days)
		}

		line := fmt.Sprintf("%-9s %-28s %-13s ",
			al.Type,
			truncStr(subject, 28),
			cli.FormatDate(al.DueDate.Time))

		sevStyle := lipgloss.NewStyle().Foreground(alertSeverityColor(t, sev)).Background(t.Surface)
		if i == cursor {
			b.WriteString(selStyle.Render("▸ " + line))
			sevStyle = sevStyle.Background(t.SurfaceHover)
		} else {
			b.WriteString(rowStyle.Render("  " + line))
		}
		b.WriteString(sevStyle.Render(status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d alerts · overdue first, budget before renewal · [C] re-check",
		len(alerts))))

	return b.String()
}
