// Package state holds the client-side view of a SubFlow account: the
// signed-in user, their workspaces, and everything loaded for the
// active workspace. All mutations go through the API first and update
// the in-memory view from the server's response.
package state

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/subflowhq/subflow/internal/api"
	"github.com/subflowhq/subflow/internal/model"
)

// ErrNoWorkspace is returned by operations that need an active
// workspace when none is selected.
var ErrNoWorkspace = errors.New("no active workspace")

// alertSettleDelay is how long to wait after triggering server-side
// alert checks before re-reading the alert list. The backend generates
// alerts asynchronously.
const alertSettleDelay = 2 * time.Second

// Store is the shared application state. It is safe for concurrent use.
type Store struct {
	client *api.Client

	mu          sync.RWMutex
	gen         uint64 // bumped on every workspace switch
	user        *model.User
	plan        *model.UserPlan
	workspaces  []model.Workspace
	activeID    string
	subs        []model.Subscription
	clients     []model.Client
	invoices    map[string][]model.Invoice // keyed by subscription ID
	links       map[string][]model.Client  // keyed by subscription ID
	alerts      []model.Alert
	budget      *model.Budget
	settleDelay time.Duration
}

// New creates a Store backed by the given API client.
func New(client *api.Client) *Store {
	return &Store{
		client:      client,
		invoices:    make(map[string][]model.Invoice),
		links:       make(map[string][]model.Client),
		settleDelay: alertSettleDelay,
	}
}

// Client returns the underlying API client.
func (s *Store) Client() *api.Client { return s.client }

// Bootstrap loads the signed-in user, their plan, and their workspaces,
// then selects a starting workspace. preferred names the workspace to
// activate (by ID or name); when empty or not found the first workspace
// is used. A missing plan is not an error.
func (s *Store) Bootstrap(ctx context.Context, preferred string) error {
	user, err := s.client.Me(ctx)
	if err != nil {
		return err
	}

	plan, err := s.client.MyPlan(ctx)
	if err != nil && !errors.Is(err, api.ErrNotFound) {
		return err
	}

	workspaces, err := s.client.Workspaces(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.user = user
	s.plan = plan
	s.workspaces = workspaces
	s.mu.Unlock()

	if len(workspaces) == 0 {
		return nil
	}

	target := workspaces[0].ID
	for _, ws := range workspaces {
		if ws.ID == preferred || ws.Name == preferred {
			target = ws.ID
			break
		}
	}
	return s.SelectWorkspace(ctx, target)
}

// SelectWorkspace makes the given workspace active and loads its
// subscriptions, clients, alerts, budget, and per-subscription invoices
// and client links. If another SelectWorkspace call starts before this
// one finishes, the slower result is discarded rather than clobbering
// the newer workspace's data.
func (s *Store) SelectWorkspace(ctx context.Context, workspaceID string) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.activeID = workspaceID
	s.mu.Unlock()

	subs, err := s.client.Subscriptions(ctx, workspaceID)
	if err != nil {
		return err
	}
	clients, err := s.client.Clients(ctx, workspaceID)
	if err != nil {
		return err
	}
	alerts, err := s.client.Alerts(ctx, workspaceID)
	if err != nil {
		return err
	}

	budget, err := s.client.Budget(ctx, workspaceID)
	if err != nil && !errors.Is(err, api.ErrNotFound) {
		return err
	}

	// Per-subscription detail fetches are best-effort: one broken
	// subscription must not take down the whole workspace view.
	invoices := make(map[string][]model.Invoice, len(subs))
	links := make(map[string][]model.Client, len(subs))
	for _, sub := range subs {
		if inv, err := s.client.Invoices(ctx, sub.ID); err == nil {
			invoices[sub.ID] = inv
		}
		if lc, err := s.client.ClientsForSubscription(ctx, sub.ID); err == nil {
			links[sub.ID] = lc
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		// A newer workspace switch won the race.
		return nil
	}
	s.subs = subs
	s.clients = clients
	s.alerts = alerts
	s.budget = budget
	s.invoices = invoices
	s.links = links
	return nil
}

// Reload refetches the active workspace from scratch.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.RLock()
	id := s.activeID
	s.mu.RUnlock()
	if id == "" {
		return ErrNoWorkspace
	}
	return s.SelectWorkspace(ctx, id)
}

// RefreshAlerts re-reads the alert list for the active workspace.
// Stale responses from a previous workspace are discarded.
func (s *Store) RefreshAlerts(ctx context.Context) error {
	s.mu.RLock()
	id := s.activeID
	gen := s.gen
	s.mu.RUnlock()
	if id == "" {
		return ErrNoWorkspace
	}

	alerts, err := s.client.Alerts(ctx, id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return nil
	}
	s.alerts = alerts
	return nil
}

// RecheckAlerts asks the server to regenerate alerts, waits for them to
// settle, then re-reads the list.
func (s *Store) RecheckAlerts(ctx context.Context) error {
	if err := s.client.TriggerAlertChecks(ctx); err != nil {
		return err
	}
	select {
	case <-time.After(s.settleDelay):
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.RefreshAlerts(ctx)
}
