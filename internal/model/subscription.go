package model

import (
	"encoding/json"
	"strings"
)

// Period is a subscription billing cadence.
type Period string

// Billing cadences. Amounts are always stated in the subscription's own
// cadence and must be normalized before aggregation.
const (
	PeriodMonthly   Period = "monthly"
	PeriodQuarterly Period = "quarterly"
	PeriodYearly    Period = "yearly"
)

// Normalize lowercases the period and maps unknown values to monthly,
// matching how the API treats absent periods.
func (p Period) Normalize() Period {
	switch Period(strings.ToLower(string(p))) {
	case PeriodYearly:
		return PeriodYearly
	case PeriodQuarterly:
		return PeriodQuarterly
	default:
		return PeriodMonthly
	}
}

// Subscription is a recurring vendor charge tracked in a workspace.
type Subscription struct {
	ID              string    `json:"id"`
	WorkspaceID     Ref       `json:"workspaceId"`
	Name            string    `json:"name"`
	Vendor          string    `json:"vendor"`
	Plan            string    `json:"plan"`
	Amount          Money     `json:"amount"`
	Currency        string    `json:"currency"`
	Period          Period    `json:"period"`
	NextRenewalDate Timestamp `json:"nextRenewalDate"`
	Category        string    `json:"category"`
	Notes           string    `json:"notes"`
	Tags            []string  `json:"tags"`
	CreatedAt       Timestamp `json:"createdAt"`
}

// UnmarshalJSON resolves _id aliasing.
func (s *Subscription) UnmarshalJSON(b []byte) error {
	type alias Subscription
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*s = Subscription(a)
	if s.ID == "" {
		s.ID = documentID(b)
	}
	return nil
}

// Invoice statuses.
const (
	InvoicePending = "pending"
	InvoicePaid    = "paid"
	InvoiceOverdue = "overdue"
	InvoiceVoid    = "void"
)

// Invoice sources.
const (
	SourceEmail  = "email"
	SourceUpload = "upload"
	SourceAPI    = "api"
)

// Invoice is a billing document attached to a subscription. The owning
// subscription is immutable after creation.
type Invoice struct {
	ID             string    `json:"id"`
	SubscriptionID Ref       `json:"subscriptionId"`
	FileURL        string    `json:"fileUrl"`
	Amount         Money     `json:"amount"`
	InvoiceDate    Timestamp `json:"invoiceDate"`
	Status         string    `json:"status"`
	Source         string    `json:"source"`
}

// UnmarshalJSON resolves _id aliasing.
func (i *Invoice) UnmarshalJSON(b []byte) error {
	type alias Invoice
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*i = Invoice(a)
	if i.ID == "" {
		i.ID = documentID(b)
	}
	return nil
}

// Alert types.
const (
	AlertRenewal = "renewal"
	AlertBudget  = "budget"
)

// Alert is a server-generated renewal or budget notification. The client
// only reads alerts and asks the server to re-run its checks.
type Alert struct {
	ID             string    `json:"id"`
	WorkspaceID    Ref       `json:"workspaceId"`
	Type           string    `json:"type"`
	DueDate        Timestamp `json:"dueDate"`
	SubscriptionID Ref       `json:"subscriptionId"`
}

// UnmarshalJSON resolves _id aliasing.
func (a *Alert) UnmarshalJSON(b []byte) error {
	type alias Alert
	var aa alias
	if err := json.Unmarshal(b, &aa); err != nil {
		return err
	}
	*a = Alert(aa)
	if a.ID == "" {
		a.ID = documentID(b)
	}
	return nil
}
