package state

import (
	"time"

	"github.com/subflowhq/subflow/internal/model"
	"github.com/subflowhq/subflow/internal/stats"
)

// Snapshot is a point-in-time copy of the active workspace's data,
// safe to read without holding the store's lock.
type Snapshot struct {
	User          *model.User
	Plan          *model.UserPlan
	Workspaces    []model.Workspace
	ActiveID      string
	Subscriptions []model.Subscription
	Clients       []model.Client
	Invoices      map[string][]model.Invoice
	Links         map[string][]model.Client
	Alerts        []model.Alert
	Budget        *model.Budget
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		ActiveID:      s.activeID,
		Workspaces:    append([]model.Workspace(nil), s.workspaces...),
		Subscriptions: append([]model.Subscription(nil), s.subs...),
		Clients:       append([]model.Client(nil), s.clients...),
		Alerts:        append([]model.Alert(nil), s.alerts...),
		Invoices:      make(map[string][]model.Invoice, len(s.invoices)),
		Links:         make(map[string][]model.Client, len(s.links)),
	}
	for k, v := range s.invoices {
		snap.Invoices[k] = append([]model.Invoice(nil), v...)
	}
	for k, v := range s.links {
		snap.Links[k] = append([]model.Client(nil), v...)
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	if s.plan != nil {
		p := *s.plan
		snap.Plan = &p
	}
	if s.budget != nil {
		b := *s.budget
		snap.Budget = &b
	}
	return snap
}

// ActiveWorkspace returns the active workspace, or nil when none is
// selected.
func (s *Store) ActiveWorkspace() *model.Workspace {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.workspaces {
		if s.workspaces[i].ID == s.activeID {
			ws := s.workspaces[i]
			return &ws
		}
	}
	return nil
}

// User returns the signed-in user, or nil before Bootstrap.
func (s *Store) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// SetUser installs the user after a fresh login.
func (s *Store) SetUser(u *model.User) {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
}

// AllInvoices flattens the per-subscription invoice caches.
func (snap Snapshot) AllInvoices() []model.Invoice {
	var all []model.Invoice
	for _, list := range snap.Invoices {
		all = append(all, list...)
	}
	return all
}

// BudgetList adapts the single-budget cache to the summary input.
func (snap Snapshot) BudgetList() []model.Budget {
	if snap.Budget == nil {
		return nil
	}
	return []model.Budget{*snap.Budget}
}

// Summary computes the dashboard summary for this snapshot.
func (snap Snapshot) Summary(now time.Time) stats.Summary {
	return stats.Summarize(
		snap.Subscriptions,
		snap.Clients,
		snap.AllInvoices(),
		snap.Alerts,
		snap.BudgetList(),
		now,
	)
}

// Summary computes the dashboard summary from live state.
func (s *Store) Summary(now time.Time) stats.Summary {
	return s.Snapshot().Summary(now)
}
