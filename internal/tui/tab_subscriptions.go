package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/subflowhq/subflow/internal/api"
	"github.com/subflowhq/subflow/internal/cli"
	"github.com/subflowhq/subflow/internal/model"
	"github.com/subflowhq/subflow/internal/state"
	"github.com/subflowhq/subflow/internal/stats"
	"github.com/subflowhq/subflow/internal/tui/components"
	"github.com/subflowhq/subflow/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (a App) selectedSubscription() *model.Subscription {
	subs := a.snap.Subscriptions
	idx := a.cursor[tabSubscriptions]
	if idx < 0 || idx >= len(subs) {
		return nil
	}
	return &subs[idx]
}

func (a App) subscriptionKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "n":
		a.formVals = formValues{
			Currency: currencyOf(a.snap),
			Period:   string(model.PeriodMonthly),
		}
		st := a.store
		wsID := a.snap.ActiveID
		return a.openForm("New subscription", newSubscriptionForm(&a.formVals, "New subscription"),
			func(v formValues) tea.Cmd {
				return actionCmd("Subscription created", func(ctx context.Context) error {
					_, err := st.CreateSubscription(ctx, subscriptionInput(v, wsID))
					return err
				})
			})

	case "e":
		sub := a.selectedSubscription()
		if sub == nil {
			return a, nil, true
		}
		a.formVals = formValues{
			Name:     sub.Name,
			Vendor:   sub.Vendor,
			Plan:     sub.Plan,
			Amount:   strings.TrimSpace(fmt.Sprintf("%g", sub.Amount.Float())),
			Currency: sub.Currency,
			Period:   string(sub.Period.Normalize()),
			Category: sub.Category,
			Notes:    sub.Notes,
		}
		if !sub.NextRenewalDate.Time.IsZero() {
			a.formVals.Renewal = sub.NextRenewalDate.Time.Format("2006-01-02")
		}
		st := a.store
		wsID := a.snap.ActiveID
		subID := sub.ID
		return a.openForm("Edit subscription", newSubscriptionForm(&a.formVals, "Edit "+sub.Name),
			func(v formValues) tea.Cmd {
				return actionCmd("Subscription updated", func(ctx context.Context) error {
					_, err := st.UpdateSubscription(ctx, subID, subscriptionInput(v, wsID))
					return err
				})
			})

	case "R":
		sub := a.selectedSubscription()
		if sub == nil {
			return a, nil, true
		}
		st := a.store
		subID := sub.ID
		a.confirm = &confirmDialog{
			title:   "Record renewal",
			message: fmt.Sprintf("Mark %s as renewed? This records a paid invoice and advances the renewal date.", sub.Name),
			action: actionCmd("Renewal recorded", func(ctx context.Context) error {
				_, err := st.QuickRenewal(ctx, subID)
				return err
			}),
		}
		return a, nil, true

	case "D":
		sub := a.selectedSubscription()
		if sub == nil {
			return a, nil, true
		}
		st := a.store
		subID := sub.ID
		a.confirm = &confirmDialog{
			title:   "Delete subscription",
			message: fmt.Sprintf("Delete %s? Its invoices and alerts go with it.", sub.Name),
			action: actionCmd("Subscription deleted", func(ctx context.Context) error {
				return st.DeleteSubscription(ctx, subID)
			}),
		}
		return a, nil, true
	}
	return a, nil, false
}

func subscriptionInput(v formValues, workspaceID string) api.SubscriptionInput {
	return api.SubscriptionInput{
		WorkspaceID:     workspaceID,
		Name:            strings.TrimSpace(v.Name),
		Vendor:          strings.TrimSpace(v.Vendor),
		Plan:            strings.TrimSpace(v.Plan),
		Amount:          parseAmount(v.Amount),
		Currency:        strings.TrimSpace(v.Currency),
		Period:          v.Period,
		NextRenewalDate: strings.TrimSpace(v.Renewal),
		Category:        strings.TrimSpace(v.Category),
		Notes:           strings.TrimSpace(v.Notes),
		Tags:            []string{},
	}
}

// currencyOf picks the workspace display currency from the first
// subscription, defaulting to USD for empty workspaces.
func currencyOf(snap state.Snapshot) string {
	for _, sub := range snap.Subscriptions {
		if sub.Currency != "" {
			return sub.Currency
		}
	}
	return "USD"
}

func renewalColor(t theme.Theme, st stats.RenewalState) lipgloss.Color {
	switch st {
	case stats.RenewalOverdue:
		return t.Red
	case stats.RenewalUrgent:
		return t.Orange
	case stats.RenewalWarning:
		return t.Yellow
	default:
		return t.Green
	}
}

func (a App) renderSubscriptionsTab(cw, contentH int) string {
	t := theme.Active
	subs := a.snap.Subscriptions
	now := time.Now()

	if len(subs) == 0 {
		return a.renderEmptyTab("No subscriptions yet", "Press n to add the first one")
	}

	headerStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceHover)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	inner := components.CardInnerWidth(cw)
	nameW := inner / 4
	if nameW < 16 {
		nameW = 16
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("  %-*s %-10s %12s %-10s %12s  %-14s %s",
		nameW, "NAME", "VENDOR", "AMOUNT", "PERIOD", "MONTHLY", "RENEWAL", "CLIENTS")))
	b.WriteString("\n")

	visible := contentH - 4
	if visible < 1 {
		visible = 1
	}
	start := 0
	cursor := a.cursor[tabSubscriptions]
	if cursor >= visible {
		start = cursor - visible + 1
	}

	for i := start; i < len(subs) && i < start+visible; i++ {
		sub := subs[i]
		status := stats.ClassifyRenewal(sub.NextRenewalDate.Time, now)
		renewal := status.Label
		if status.HasDays {
			renewal = fmt.Sprintf("%s (%dd)", status.Label, status.Days)
		}

		clients := ""
		if linked := a.snap.Links[sub.ID]; len(linked) > 0 {
			names := make([]string, len(linked))
			for j, c := range linked {
				names[j] = c.Name
			}
			clients = truncStr(strings.Join(names, ", "), 24)
		}

		line := fmt.Sprintf("%-*s %-10s %12s %-10s %12s  ",
			nameW, truncStr(sub.Name, nameW),
			truncStr(sub.Vendor, 10),
			cli.FormatMoney(sub.Amount.Float(), sub.Currency),
			string(sub.Period.Normalize()),
			cli.FormatMoney(stats.MonthlyEquivalent(sub), sub.Currency))

		renewalStyle := lipgloss.NewStyle().Foreground(renewalColor(t, status.State)).Background(t.Surface)
		if i == cursor {
			b.WriteString(selStyle.Render("▸ " + line))
			renewalStyle = renewalStyle.Background(t.SurfaceHover)
			b.WriteString(renewalStyle.Render(fmt.Sprintf("%-14s", renewal)))
			b.WriteString(selStyle.Render(" " + clients))
		} else {
			b.WriteString(rowStyle.Render("  " + line))
			b.WriteString(renewalStyle.Render(fmt.Sprintf("%-14s", renewal)))
			b.WriteString(rowStyle.Render(" " + clients))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	currency := currencyOf(a.snap)
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d subscriptions · %s/month · [n]ew [e]dit [R]enew [D]elete",
		len(subs), cli.FormatMoney(stats.TotalMonthlySpend(subs), currency))))

	return b.String()
}

func (a App) renderEmptyTab(title, hint string) string {
	t := theme.Active

	titleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	hintStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString("\n\n  ")
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n  ")
	b.WriteString(hintStyle.Render(hint))
	return b.String()
}
