package stats

import (
	"sort"
	"time"

	"github.com/subflowhq/subflow/internal/model"
)

// SortAlerts orders alerts for display: overdue first regardless of type,
// then budget alerts ahead of renewal alerts, then ascending by days until
// due. Comparators are checked in sequence; the first non-zero one wins.
func SortAlerts(alerts []model.Alert, now time.Time) []model.Alert {
	sorted := make([]model.Alert, len(alerts))
	copy(sorted, alerts)

	sort.SliceStable(sorted, func(i, j int) bool {
		daysI := DaysUntil(sorted[i].DueDate.Time, now)
		daysJ := DaysUntil(sorted[j].DueDate.Time, now)

		if (daysI < 0) != (daysJ < 0) {
			return daysI < 0
		}

		budgetI := sorted[i].Type == model.AlertBudget
		budgetJ := sorted[j].Type == model.AlertBudget
		if budgetI != budgetJ {
			return budgetI
		}

		return daysI < daysJ
	})

	return sorted
}

// AlertSeverity buckets an alert for rendering.
type AlertSeverity int

// Severity levels, calm to late.
const (
	SeverityNormal AlertSeverity = iota
	SeverityUrgent
	SeverityOverdue
)

// ClassifyAlert returns the severity bucket for a due date.
func ClassifyAlert(dueDate, now time.Time) AlertSeverity {
	days := DaysUntil(dueDate, now)
	switch {
	case days < 0:
		return SeverityOverdue
	case days <= 3:
		return SeverityUrgent
	default:
		return SeverityNormal
	}
}
