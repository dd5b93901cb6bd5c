package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/subflowhq/subflow/internal/api"
	"github.com/subflowhq/subflow/internal/cli"
	"github.com/subflowhq/subflow/internal/model"
	"github.com/subflowhq/subflow/internal/tui/components"
	"github.com/subflowhq/subflow/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// invoiceRow pairs an invoice with its owning subscription's name.
type invoiceRow struct {
	inv     model.Invoice
	subName string
}

// sortedInvoices flattens the per-subscription invoice caches, newest
// first, ties broken by ID for a stable cursor.
func (a App) sortedInvoices() []invoiceRow {
	names := make(map[string]string, len(a.snap.Subscriptions))
	for _, sub := range a.snap.Subscriptions {
		names[sub.ID] = sub.Name
	}

	var rows []invoiceRow
	for subID, list := range a.snap.Invoices {
		for _, inv := range list {
			rows = append(rows, invoiceRow{inv: inv, subName: names[subID]})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		ti, tj := rows[i].inv.InvoiceDate.Time, rows[j].inv.InvoiceDate.Time
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return rows[i].inv.ID < rows[j].inv.ID
	})
	return rows
}

func (a App) selectedInvoice() *invoiceRow {
	rows := a.sortedInvoices()
	idx := a.cursor[tabInvoices]
	if idx < 0 || idx >= len(rows) {
		return nil
	}
	return &rows[idx]
}

func (a App) invoiceKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "n":
		if len(a.snap.Subscriptions) == 0 {
			a.setNotice("Add a subscription before recording invoices")
			return a, nil, true
		}
		a.formVals = formValues{Status: model.InvoicePending}
		st := a.store
		return a.openForm("New invoice",
			newInvoiceForm(&a.formVals, a.snap.Subscriptions, "New invoice"),
			func(v formValues) tea.Cmd {
				return actionCmd("Invoice recorded", func(ctx context.Context) error {
					_, err := st.CreateInvoice(ctx, api.InvoiceInput{
						SubscriptionID: v.SubscriptionID,
						Amount:         parseAmount(v.Amount),
						InvoiceDate:    strings.TrimSpace(v.Date),
						Status:         v.Status,
						Source:         model.SourceAPI,
					})
					return err
				})
			})

	case "e":
		row := a.selectedInvoice()
		if row == nil {
			return a, nil, true
		}
		a.formVals = formValues{
			Amount:         strings.TrimSpace(fmt.Sprintf("%g", row.inv.Amount.Float())),
			Status:         row.inv.Status,
			SubscriptionID: row.inv.SubscriptionID.ID,
		}
		if !row.inv.InvoiceDate.Time.IsZero() {
			a.formVals.Date = row.inv.InvoiceDate.Time.Format("2006-01-02")
		}
		st := a.store
		invID := row.inv.ID
		return a.openForm("Edit invoice",
			newInvoiceForm(&a.formVals, nil, "Edit invoice"),
			func(v formValues) tea.Cmd {
				return actionCmd("Invoice updated", func(ctx context.Context) error {
					_, err := st.UpdateInvoice(ctx, invID, api.InvoiceInput{
						Amount:      parseAmount(v.Amount),
						InvoiceDate: strings.TrimSpace(v.Date),
						Status:      v.Status,
					})
					return err
				})
			})

	case "D":
		row := a.selectedInvoice()
		if row == nil {
			return a, nil, true
		}
		st := a.store
		invID := row.inv.ID
		a.confirm = &confirmDialog{
			title:   "Delete invoice",
			message: fmt.Sprintf("Delete this %s invoice for %s?", row.inv.Status, row.subName),
			action: actionCmd("Invoice deleted", func(ctx context.Context) error {
				return st.DeleteInvoice(ctx, invID)
			}),
		}
		return a, nil, true
	}
	return a, nil, false
}

func invoiceStatusColor(t theme.Theme, status string) lipgloss.Color {
	switch status {
	case model.InvoicePaid:
		return t.Green
	case model.InvoiceOverdue:
		return t.Red
	case model.InvoiceVoid:
		return t.TextDim
	default:
		return t.Yellow
	}
}

func (a App) renderInvoicesTab(cw, contentH int) string {
	t := theme.Active
	rows := a.sortedInvoices()

	if len(rows) == 0 {
		return a.renderEmptyTab("No invoices yet", "Press n to record one")
	}

	headerStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceHover)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	inner := components.CardInnerWidth(cw)
	nameW := inner / 3
	if nameW < 20 {
		nameW = 20
	}
	currency := currencyOf(a.snap)

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("  %-*s %-13s %12s  %-9s %s",
		nameW, "SUBSCRIPTION", "DATE", "AMOUNT", "STATUS", "SOURCE")))
	b.WriteString("\n")

	visible := contentH - 4
	if visible < 1 {
		visible = 1
	}
	start := 0
	cursor := a.cursor[tabInvoices]
	if cursor >= visible {
		start = cursor - visible + 1
	}

	var total float64
	for _, r := range rows {
		if r.inv.Status != model.InvoiceVoid {
			total += r.inv.Amount.Float()
		}
	}

	for i := start; i < len(rows) && i < start+visible; i++ {
		r := rows[i]
		line := fmt.Sprintf("%-*s %-13s %12s  ",
			nameW, truncStr(r.subName, nameW),
			cli.FormatDate(r.inv.InvoiceDate.Time),
			cli.FormatMoney(r.inv.Amount.Float(), currency))

		statusStyle := lipgloss.NewStyle().
			Foreground(invoiceStatusColor(t, r.inv.Status)).
			Background(t.Surface)
		if i == cursor {
			b.WriteString(selStyle.Render("▸ " + line))
			statusStyle = statusStyle.Background(t.SurfaceHover)
			b.WriteString(statusStyle.Render(fmt.Sprintf("%-9s", r.inv.Status)))
			b.WriteString(selStyle.Render(" " + r.inv.Source))
		} else {
			b.WriteString(rowStyle.Render("  " + line))
			b.WriteString(statusStyle.Render(fmt.Sprintf("%-9s", r.inv.Status)))
			b.WriteString(rowStyle.Render(" " + r.inv.Source))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d invoices · %s total · [n]ew [e]dit [D]elete",
		len(rows), cli.FormatMoney(total, currency))))

	return b.String()
}
