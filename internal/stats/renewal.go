package stats

import (
	"fmt"
	"time"
)

// RenewalState classifies how close a subscription is to its renewal date.
type RenewalState string

// Renewal states, ordered from calm to late.
const (
	RenewalActive  RenewalState = "active"
	RenewalWarning RenewalState = "warning"
	RenewalUrgent  RenewalState = "urgent"
	RenewalOverdue RenewalState = "overdue"
)

// RenewalStatus is a classified renewal date with its display label.
// Days is meaningless when HasDays is false (no renewal date set).
type RenewalStatus struct {
	State   RenewalState
	Label   string
	Days    int
	HasDays bool
}

// ClassifyRenewal partitions a renewal date by day-difference boundaries:
// no date is active, <0 overdue, 0-3 urgent, 4-7 warning, >7 active.
func ClassifyRenewal(renewal time.Time, now time.Time) RenewalStatus {
	if renewal.IsZero() {
		return RenewalStatus{State: RenewalActive, Label: "Active"}
	}

	days := DaysUntil(renewal, now)
	switch {
	case days < 0:
		return RenewalStatus{State: RenewalOverdue, Label: "Overdue", HasDays: true}
	case days <= 3:
		return RenewalStatus{State: RenewalUrgent, Label: fmt.Sprintf("Due in %d days", days), Days: days, HasDays: true}
	case days <= 7:
		return RenewalStatus{State: RenewalWarning, Label: fmt.Sprintf("Due in %d days", days), Days: days, HasDays: true}
	default:
		return RenewalStatus{State: RenewalActive, Label: fmt.Sprintf("Renews in %d days", days), Days: days, HasDays: true}
	}
}
