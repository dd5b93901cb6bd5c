// Package stats computes dashboard numbers and chart series from the
// client-held entity lists. Everything here is a pure function of the
// inputs and an explicit wall-clock "now".
package stats

import (
	"time"

	"github.com/subflowhq/subflow/internal/model"
)

// Summary holds the top-level dashboard aggregates for one workspace.
type Summary struct {
	TotalMonthlySpend   float64
	ActiveSubscriptions int
	TotalClients        int
	TotalInvoices       int
	UpcomingRenewals    int
	UrgentAlerts        int
	Budget              *model.Budget
	BudgetUsagePercent  float64
}

// MonthlyEquivalent normalizes a subscription amount to monthly cadence:
// yearly divided by 12, quarterly by 3, monthly as-is.
func MonthlyEquivalent(sub model.Subscription) float64 {
	amount := sub.Amount.Float()
	switch sub.Period.Normalize() {
	case model.PeriodYearly:
		return amount / 12
	case model.PeriodQuarterly:
		return amount / 3
	default:
		return amount
	}
}

// TotalMonthlySpend sums monthly-equivalent amounts across subscriptions.
func TotalMonthlySpend(subs []model.Subscription) float64 {
	var total float64
	for _, s := range subs {
		total += MonthlyEquivalent(s)
	}
	return total
}

// DaysUntil returns the whole-day countdown to t, rounded up, matching the
// ceil((t - now) / 1 day) the dashboard uses everywhere. Negative means
// overdue.
func DaysUntil(t, now time.Time) int {
	diff := t.Sub(now)
	days := int(diff / (24 * time.Hour))
	if diff%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// Summarize computes the dashboard summary from the workspace caches.
// The budget usage percentage is 0 whenever no budget exists or its cap is
// zero, never a division artifact.
func Summarize(
	subs []model.Subscription,
	clients []model.Client,
	invoices []model.Invoice,
	alerts []model.Alert,
	budgets []model.Budget,
	now time.Time,
) Summary {
	s := Summary{
		TotalMonthlySpend:   TotalMonthlySpend(subs),
		ActiveSubscriptions: len(subs),
		TotalClients:        len(clients),
		TotalInvoices:       len(invoices),
	}

	for _, sub := range subs {
		if sub.NextRenewalDate.IsZero() {
			continue
		}
		days := DaysUntil(sub.NextRenewalDate.Time, now)
		if days >= 0 && days <= 7 {
			s.UpcomingRenewals++
		}
	}

	// Urgent alerts include overdue ones (negative day counts). Alerts
	// without a due date are never urgent.
	for _, a := range alerts {
		if a.DueDate.IsZero() {
			continue
		}
		if DaysUntil(a.DueDate.Time, now) <= 3 {
			s.UrgentAlerts++
		}
	}

	if len(budgets) > 0 {
		b := budgets[0]
		s.Budget = &b
		if cap := b.MonthlyCap.Float(); cap > 0 {
			s.BudgetUsagePercent = s.TotalMonthlySpend / cap * 100
		}
	}

	return s
}
