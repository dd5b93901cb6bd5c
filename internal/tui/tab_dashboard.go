package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/subflowhq/subflow/internal/cli"
	"github.com/subflowhq/subflow/internal/model"
	"github.com/subflowhq/subflow/internal/stats"
	"github.com/subflowhq/subflow/internal/tui/components"
	"github.com/subflowhq/subflow/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderDashboardTab(cw int) string {
	t := theme.Active
	now := time.Now()
	currency := currencyOf(a.snap)
	var b strings.Builder

	// Row 1: Metric cards
	alertDelta := fmt.Sprintf("%d open", len(a.snap.Alerts))
	if a.summary.UrgentAlerts > 0 {
		alertDelta = fmt.Sprintf("%d urgent", a.summary.UrgentAlerts)
	}

	cards := []components.Metric{
		{Label: "Monthly Spend", Value: cli.FormatMoney(a.summary.TotalMonthlySpend, currency), Delta: fmt.Sprintf("%d subscriptions", a.summary.ActiveSubscriptions)},
		{Label: "Renewals", Value: fmt.Sprintf("%d", a.summary.UpcomingRenewals), Delta: "due within 7 days"},
		{Label: "Clients", Value: fmt.Sprintf("%d", a.summary.TotalClients), Delta: fmt.Sprintf("%d invoices", a.summary.TotalInvoices)},
		{Label: "Alerts", Value: fmt.Sprintf("%d", len(a.snap.Alerts)), Delta: alertDelta, Alert: a.summary.UrgentAlerts > 0},
	}
	b.WriteString(components.MetricCardRow(cards, cw))
	b.WriteString("\n")

	// Row 2: Spending trend
	trend := stats.SpendingTrend(a.snap.Subscriptions, a.trendMonths, now)
	if len(trend) > 0 {
		vals := make([]float64, len(trend))
		labels := make([]string, len(trend))
		for i, m := range trend {
			vals[i] = m.Amount
			labels[i] = m.Label
		}
		b.WriteString(components.ContentCard(
			fmt.Sprintf("Spending Trend (%dmo, [m] toggle)", a.trendMonths),
			components.BarChart(vals, labels, t.Blue, components.CardInnerWidth(cw), 10),
			cw,
		))
		b.WriteString("\n")
	}

	// Row 3: Category split + upcoming renewals
	halves := components.LayoutRow(cw, 2)

	split := stats.CategorySplit(a.snap.Subscriptions)
	splitW := components.CardInnerWidth(halves[0])
	if a.isCompactLayout() {
		splitW = components.CardInnerWidth(cw)
	}
	rows := make([]components.ShareBar, 0, len(split))
	for _, slice := range split {
		rows = append(rows, components.ShareBar{
			Label: slice.Name,
			Value: cli.FormatMoney(slice.Value, currency),
			Share: slice.Shares,
			Color: lipgloss.Color(slice.Color),
		})
	}
	splitBody := components.ShareBars(rows, splitW)
	if splitBody == "" {
		splitBody = lipgloss.NewStyle().Foreground(t.TextDim).Render("No subscriptions yet")
	}

	renewBody := a.renderUpcomingRenewals(now)

	if a.isCompactLayout() {
		b.WriteString(components.ContentCard("Category Split", splitBody, cw))
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Upcoming Renewals", renewBody, cw))
	} else {
		splitCard := components.ContentCard("Category Split", splitBody, halves[0])
		renewCard := components.ContentCard("Upcoming Renewals", renewBody, halves[1])
		b.WriteString(components.CardRow([]string{splitCard, renewCard}))
	}

	// Budget line under the cards when a cap is set
	if a.snap.Budget != nil && a.snap.Budget.MonthlyCap.Float() > 0 {
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Budget",
			components.CompactBudgetBar(
				fmt.Sprintf("%s of %s",
					cli.FormatMoney(a.summary.TotalMonthlySpend, currency),
					cli.FormatMoney(a.snap.Budget.MonthlyCap.Float(), currency)),
				a.summary.BudgetUsagePercent/100,
				components.CardInnerWidth(cw)),
			cw))
	}

	return b.String()
}

// renderUpcomingRenewals lists the next renewals, soonest first. Overdue
// entries sort ahead of everything else.
func (a App) renderUpcomingRenewals(now time.Time) string {
	t := theme.Active

	type upcoming struct {
		sub  model.Subscription
		days int
	}
	var items []upcoming
	for _, sub := range a.snap.Subscriptions {
		if sub.NextRenewalDate.Time.IsZero() {
			continue
		}
		items = append(items, upcoming{sub, stats.DaysUntil(sub.NextRenewalDate.Time, now)})
	}
	if len(items) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextDim).Render("No renewal dates set")
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].days < items[j].days })

	limit := 6
	if len(items) < limit {
		limit = len(items)
	}

	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	var body strings.Builder
	for _, it := range items[:limit] {
		rs := stats.ClassifyRenewal(it.sub.NextRenewalDate.Time, now)
		label := lipgloss.NewStyle().Foreground(renewalColor(t, rs.State)).Render(rs.Label)
		fmt.Fprintf(&body, "%s %s\n",
			nameStyle.Render(fmt.Sprintf("%-20s", truncStr(it.sub.Name, 20))),
			label)
	}
	return body.String()
}
