package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/subflowhq/subflow/internal/api"
	"github.com/subflowhq/subflow/internal/model"
)

// CreateSubscription creates a subscription in the active workspace,
// reloads the workspace so derived views pick it up, and kicks off an
// alert recheck.
func (s *Store) CreateSubscription(ctx context.Context, in api.SubscriptionInput) (*model.Subscription, error) {
	s.mu.RLock()
	id := s.activeID
	s.mu.RUnlock()
	if id == "" {
		return nil, ErrNoWorkspace
	}
	in.WorkspaceID = id

	sub, err := s.client.CreateSubscription(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.Reload(ctx); err != nil {
		return sub, err
	}
	return sub, s.RecheckAlerts(ctx)
}

// UpdateSubscription updates a subscription and refreshes the workspace
// and alerts, since renewal dates and amounts feed both.
func (s *Store) UpdateSubscription(ctx context.Context, subscriptionID string, in api.SubscriptionInput) (*model.Subscription, error) {
	sub, err := s.client.UpdateSubscription(ctx, subscriptionID, in)
	if err != nil {
		return nil, err
	}
	if err := s.Reload(ctx); err != nil {
		return sub, err
	}
	return sub, s.RecheckAlerts(ctx)
}

// DeleteSubscription removes a subscription and purges its cached
// invoices, client links, and alerts locally.
func (s *Store) DeleteSubscription(ctx context.Context, subscriptionID string) error {
	if err := s.client.DeleteSubscription(ctx, subscriptionID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.subs[:0]
	for _, sub := range s.subs {
		if sub.ID != subscriptionID {
			kept = append(kept, sub)
		}
	}
	s.subs = kept
	delete(s.invoices, subscriptionID)
	delete(s.links, subscriptionID)

	alerts := s.alerts[:0]
	for _, a := range s.alerts {
		if a.SubscriptionID.ID != subscriptionID {
			alerts = append(alerts, a)
		}
	}
	s.alerts = alerts
	return nil
}

// QuickRenewal advances a subscription's renewal date by one billing
// period and records a paid invoice for the current amount.
func (s *Store) QuickRenewal(ctx context.Context, subscriptionID string) (*model.Subscription, error) {
	s.mu.RLock()
	var target *model.Subscription
	for i := range s.subs {
		if s.subs[i].ID == subscriptionID {
			sub := s.subs[i]
			target = &sub
			break
		}
	}
	s.mu.RUnlock()
	if target == nil {
		return nil, fmt.Errorf("subscription %s not loaded", subscriptionID)
	}

	base := target.NextRenewalDate.Time
	if base.IsZero() {
		base = time.Now()
	}
	var next time.Time
	switch target.Period.Normalize() {
	case model.PeriodYearly:
		next = base.AddDate(1, 0, 0)
	case model.PeriodQuarterly:
		next = base.AddDate(0, 3, 0)
	default:
		next = base.AddDate(0, 1, 0)
	}

	_, err := s.client.CreateInvoice(ctx, api.InvoiceInput{
		SubscriptionID: subscriptionID,
		Amount:         target.Amount.Float(),
		InvoiceDate:    base.Format("2006-01-02"),
		Status:         model.InvoicePaid,
		Source:         model.SourceAPI,
	})
	if err != nil {
		return nil, err
	}

	return s.UpdateSubscription(ctx, subscriptionID, api.SubscriptionInput{
		WorkspaceID:     target.WorkspaceID.ID,
		Name:            target.Name,
		Vendor:          target.Vendor,
		Plan:            target.Plan,
		Amount:          target.Amount.Float(),
		Currency:        target.Currency,
		Period:          string(target.Period),
		NextRenewalDate: next.Format("2006-01-02"),
		Category:        target.Category,
		Notes:           target.Notes,
		Tags:            target.Tags,
	})
}

// CreateClient creates a client in the active workspace and appends it
// to the local list.
func (s *Store) CreateClient(ctx context.Context, in api.ClientInput) (*model.Client, error) {
	s.mu.RLock()
	id := s.activeID
	s.mu.RUnlock()
	if id == "" {
		return nil, ErrNoWorkspace
	}
	in.WorkspaceID = id

	c, err := s.client.CreateClient(ctx, in)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.clients = append(s.clients, *c)
	s.mu.Unlock()
	return c, nil
}

// UpdateClient updates a client and patches the local list in place.
func (s *Store) UpdateClient(ctx context.Context, clientID string, in api.ClientInput) (*model.Client, error) {
	c, err := s.client.UpdateClient(ctx, clientID, in)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	for i := range s.clients {
		if s.clients[i].ID == clientID {
			s.clients[i] = *c
			break
		}
	}
	s.mu.Unlock()
	return c, nil
}

// DeleteClient removes a client and drops it from the local list and
// from any subscription links.
func (s *Store) DeleteClient(ctx context.Context, clientID string) error {
	if err := s.client.DeleteClient(ctx, clientID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.clients[:0]
	for _, c := range s.clients {
		if c.ID != clientID {
			kept = append(kept, c)
		}
	}
	s.clients = kept
	for subID, linked := range s.links {
		filtered := linked[:0]
		for _, c := range linked {
			if c.ID != clientID {
				filtered = append(filtered, c)
			}
		}
		s.links[subID] = filtered
	}
	return nil
}

// LinkClient attaches a client to a subscription and refreshes that
// subscription's link list.
func (s *Store) LinkClient(ctx context.Context, subscriptionID, clientID string) error {
	if err := s.client.LinkClient(ctx, subscriptionID, clientID); err != nil {
		return err
	}
	linked, err := s.client.ClientsForSubscription(ctx, subscriptionID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.links[subscriptionID] = linked
	s.mu.Unlock()
	return nil
}

// UnlinkClient detaches a client from a subscription.
func (s *Store) UnlinkClient(ctx context.Context, subscriptionID, clientID string) error {
	if err := s.client.UnlinkClient(ctx, subscriptionID, clientID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	linked := s.links[subscriptionID][:0]
	for _, c := range s.links[subscriptionID] {
		if c.ID != clientID {
			linked = append(linked, c)
		}
	}
	s.links[subscriptionID] = linked
	return nil
}

// CreateWorkspace creates a workspace and makes it active.
func (s *Store) CreateWorkspace(ctx context.Context, in api.WorkspaceInput) (*model.Workspace, error) {
	ws, err := s.client.CreateWorkspace(ctx, in)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.workspaces = append(s.workspaces, *ws)
	s.mu.Unlock()
	return ws, s.SelectWorkspace(ctx, ws.ID)
}

// UpdateWorkspace updates a workspace's name or monthly cap.
func (s *Store) UpdateWorkspace(ctx context.Context, workspaceID string, in api.WorkspaceInput) (*model.Workspace, error) {
	ws, err := s.client.UpdateWorkspace(ctx, workspaceID, in)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	for i := range s.workspaces {
		if s.workspaces[i].ID == workspaceID {
			s.workspaces[i] = *ws
			break
		}
	}
	s.mu.Unlock()
	return ws, nil
}

// DeleteWorkspace removes a workspace. If it was active, the first
// remaining workspace becomes active; with none left the store empties.
func (s *Store) DeleteWorkspace(ctx context.Context, workspaceID string) error {
	if err := s.client.DeleteWorkspace(ctx, workspaceID); err != nil {
		return err
	}

	s.mu.Lock()
	kept := s.workspaces[:0]
	for _, ws := range s.workspaces {
		if ws.ID != workspaceID {
			kept = append(kept, ws)
		}
	}
	s.workspaces = kept
	wasActive := s.activeID == workspaceID
	var next string
	if wasActive && len(kept) > 0 {
		next = kept[0].ID
	}
	if wasActive {
		s.activeID = ""
		s.subs = nil
		s.clients = nil
		s.alerts = nil
		s.budget = nil
		s.invoices = make(map[string][]model.Invoice)
		s.links = make(map[string][]model.Client)
	}
	s.mu.Unlock()

	if next != "" {
		return s.SelectWorkspace(ctx, next)
	}
	return nil
}

// CreateInvoice records an invoice against a subscription.
func (s *Store) CreateInvoice(ctx context.Context, in api.InvoiceInput) (*model.Invoice, error) {
	inv, err := s.client.CreateInvoice(ctx, in)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	key := in.SubscriptionID
	s.invoices[key] = append(s.invoices[key], *inv)
	s.mu.Unlock()
	return inv, nil
}

// UpdateInvoice updates an invoice. The subscription it belongs to
// cannot be changed.
func (s *Store) UpdateInvoice(ctx context.Context, invoiceID string, in api.InvoiceInput) (*model.Invoice, error) {
	inv, err := s.client.UpdateInvoice(ctx, invoiceID, in)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	for subID, list := range s.invoices {
		for i := range list {
			if list[i].ID == invoiceID {
				list[i] = *inv
				s.invoices[subID] = list
			}
		}
	}
	s.mu.Unlock()
	return inv, nil
}

// DeleteInvoice removes an invoice.
func (s *Store) DeleteInvoice(ctx context.Context, invoiceID string) error {
	if err := s.client.DeleteInvoice(ctx, invoiceID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for subID, list := range s.invoices {
		kept := list[:0]
		for _, inv := range list {
			if inv.ID != invoiceID {
				kept = append(kept, inv)
			}
		}
		s.invoices[subID] = kept
	}
	return nil
}

// SetBudget creates or updates the active workspace's budget.
func (s *Store) SetBudget(ctx context.Context, in api.BudgetInput) (*model.Budget, error) {
	s.mu.RLock()
	id := s.activeID
	s.mu.RUnlock()
	if id == "" {
		return nil, ErrNoWorkspace
	}

	b, err := s.client.UpdateBudget(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.budget = b
	s.mu.Unlock()
	return b, s.RecheckAlerts(ctx)
}

// ChoosePlan subscribes the user to a plan. Paid plans go through a
// checkout session; when the payment provider is not configured the
// server returns no URL and the plan is selected directly. The returned
// URL is non-empty when the caller must finish checkout in a browser.
func (s *Store) ChoosePlan(ctx context.Context, planID string) (string, error) {
	sess, err := s.client.CreateCheckoutSession(ctx, planID)
	if err == nil && sess.URL != "" {
		return sess.URL, nil
	}
	if err != nil && !errors.Is(err, api.ErrNotFound) {
		return "", err
	}

	plan, err := s.client.SelectPlan(ctx, planID)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.plan = plan
	s.mu.Unlock()
	return "", nil
}

// ConfirmPayment finalises a checkout session after the user returns
// from the payment provider.
func (s *Store) ConfirmPayment(ctx context.Context, sessionID string) error {
	plan, err := s.client.ConfirmPayment(ctx, sessionID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.plan = plan
	s.mu.Unlock()
	return nil
}
