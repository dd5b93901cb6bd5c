package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/subflowhq/subflow/internal/api"
	"github.com/subflowhq/subflow/internal/cli"
	"github.com/subflowhq/subflow/internal/tui/components"
	"github.com/subflowhq/subflow/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (a App) openBudgetForm() (tea.Model, tea.Cmd, bool) {
	a.formVals = formValues{Threshold: "80"}
	if b := a.snap.Budget; b != nil {
		if b.MonthlyCap.Float() > 0 {
			a.formVals.Cap = strings.TrimSpace(fmt.Sprintf("%g", b.MonthlyCap.Float()))
		}
		if b.AlertThreshold.Float() > 0 {
			a.formVals.Threshold = strings.TrimSpace(fmt.Sprintf("%g", b.AlertThreshold.Float()))
		}
	}
	st := a.store
	return a.openForm("Budget", newBudgetForm(&a.formVals, "Workspace budget"),
		func(v formValues) tea.Cmd {
			return actionCmd("Budget updated", func(ctx context.Context) error {
				_, err := st.SetBudget(ctx, api.BudgetInput{
					MonthlyCap:     parseAmount(v.Cap),
					AlertThreshold: parseAmount(v.Threshold),
				})
				return err
			})
		})
}

func (a App) renderBudgetTab(cw int) string {
	t := theme.Active
	budget := a.snap.Budget
	currency := currencyOf(a.snap)
	spend := a.summary.TotalMonthlySpend

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface).Bold(true)

	var b strings.Builder
	b.WriteString("\n")

	if budget == nil || budget.MonthlyCap.Float() <= 0 {
		b.WriteString("  ")
		b.WriteString(labelStyle.Render("No monthly cap set for this workspace."))
		b.WriteString("\n\n  ")
		b.WriteString(labelStyle.Render("Current monthly spend: "))
		b.WriteString(valueStyle.Render(cli.FormatMoney(spend, currency)))
		b.WriteString("\n\n  ")
		b.WriteString(dimStyle.Render("Press e to set a budget"))
		return b.String()
	}

	capAmount := budget.MonthlyCap.Float()
	pct := a.summary.BudgetUsagePercent
	remaining := capAmount - spend

	inner := components.CardInnerWidth(cw)
	barW := inner - 40
	if barW < 20 {
		barW = 20
	}
	if barW > 60 {
		barW = 60
	}

	remainingText := cli.FormatMoney(remaining, currency) + " left"
	if remaining < 0 {
		remainingText = cli.FormatMoney(-remaining, currency) + " over"
	}

	b.WriteString("  ")
	b.WriteString(components.BudgetBar("Monthly cap", pct/100, remainingText, 12, barW))
	b.WriteString("\n\n")

	rows := []struct{ label, value string }{
		{"Monthly cap", cli.FormatMoney(capAmount, currency)},
		{"Monthly spend", cli.FormatMoney(spend, currency)},
		{"Utilization", fmt.Sprintf("%.1f%%", pct)},
	}
	if budget.AlertThreshold.Float() > 0 {
		rows = append(rows, struct{ label, value string }{
			"Alert threshold", fmt.Sprintf("%.0f%%", budget.AlertThreshold.Float()),
		})
	}
	for _, r := range rows {
		b.WriteString("  ")
		b.WriteString(labelStyle.Render(padRight(r.label+":", 18)))
		b.WriteString(valueStyle.Render(r.value))
		b.WriteString("\n")
	}

	if threshold := budget.AlertThreshold.Float(); threshold > 0 && pct >= threshold {
		b.WriteString("\n  ")
		b.WriteString(warnStyle.Render(fmt.Sprintf("⚠ Spend is past the %.0f%% alert threshold", threshold)))
		b.WriteString("\n")
	}

	b.WriteString("\n  ")
	b.WriteString(dimStyle.Render("[e] edit budget"))

	return b.String()
}
