package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/subflowhq/subflow/internal/model"
	"github.com/subflowhq/subflow/internal/state"
)

func testSnapshot() state.Snapshot {
	renewal := model.Timestamp{Time: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)}
	return state.Snapshot{
		ActiveID: "ws1",
		Workspaces: []model.Workspace{
			{ID: "ws1", Name: "Personal", MonthlyCap: 500},
		},
		Subscriptions: []model.Subscription{
			{
				ID: "s1", WorkspaceID: model.Ref{ID: "ws1"}, Name: "Figma",
				Vendor: "Figma Inc", Amount: 15, Currency: "USD",
				Period: model.PeriodMonthly, NextRenewalDate: renewal,
				Category: "Design", Tags: []string{"design", "team"},
			},
			{
				ID: "s2", WorkspaceID: model.Ref{ID: "ws1"}, Name: "Vercel",
				Amount: 240, Currency: "USD", Period: model.PeriodYearly,
			},
		},
		Clients: []model.Client{
			{ID: "c1", Name: "Acme", Contact: "acme@example.com"},
		},
		Invoices: map[string][]model.Invoice{
			"s1": {{ID: "i1", SubscriptionID: model.Ref{ID: "s1"}, Amount: 15, Status: model.InvoicePaid}},
		},
		Alerts: []model.Alert{
			{ID: "a1", Type: model.AlertRenewal, SubscriptionID: model.Ref{ID: "s1"}, DueDate: renewal},
		},
		Budget: &model.Budget{ID: "b1", MonthlyCap: 300, AlertThreshold: 80},
	}
}

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestSnapshotRoundTrip(t *testing.T) {
	c := openTestCache(t)

	if err := c.ReplaceWorkspace(testSnapshot()); err != nil {
		t.Fatalf("ReplaceWorkspace: %v", err)
	}

	snap, fetched, err := c.LoadWorkspace("ws1")
	if err != nil {
		t.Fatalf("LoadWorkspace: %v", err)
	}
	if fetched.IsZero() {
		t.Fatal("fetched time is zero for cached workspace")
	}
	if len(snap.Subscriptions) != 2 {
		t.Fatalf("len(Subscriptions) = %d, want 2", len(snap.Subscriptions))
	}

	// Ordered by name.
	got := snap.Subscriptions[0]
	if got.ID != "s1" || got.Name != "Figma" || got.Amount.Float() != 15 {
		t.Errorf("subscription = %+v", got)
	}
	if got.Period != model.PeriodMonthly {
		t.Errorf("Period = %q", got.Period)
	}
	if !got.NextRenewalDate.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("NextRenewalDate = %v", got.NextRenewalDate)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "design" {
		t.Errorf("Tags = %v", got.Tags)
	}

	if len(snap.Clients) != 1 || snap.Clients[0].Contact != "acme@example.com" {
		t.Errorf("Clients = %+v", snap.Clients)
	}
	if len(snap.Invoices["s1"]) != 1 || snap.Invoices["s1"][0].Status != model.InvoicePaid {
		t.Errorf("Invoices = %+v", snap.Invoices)
	}
	if len(snap.Alerts) != 1 || snap.Alerts[0].SubscriptionID.ID != "s1" {
		t.Errorf("Alerts = %+v", snap.Alerts)
	}
	if snap.Budget == nil || snap.Budget.MonthlyCap.Float() != 300 {
		t.Errorf("Budget = %+v", snap.Budget)
	}
}

func TestReplaceWorkspaceIsWholesale(t *testing.T) {
	c := openTestCache(t)

	if err := c.ReplaceWorkspace(testSnapshot()); err != nil {
		t.Fatalf("ReplaceWorkspace: %v", err)
	}

	// Second snapshot dropped a subscription and the budget.
	second := testSnapshot()
	second.Subscriptions = second.Subscriptions[:1]
	second.Budget = nil
	if err := c.ReplaceWorkspace(second); err != nil {
		t.Fatalf("ReplaceWorkspace: %v", err)
	}

	snap, _, err := c.LoadWorkspace("ws1")
	if err != nil {
		t.Fatalf("LoadWorkspace: %v", err)
	}
	if len(snap.Subscriptions) != 1 {
		t.Errorf("len(Subscriptions) = %d, want 1 (stale row kept)", len(snap.Subscriptions))
	}
	if snap.Budget != nil {
		t.Errorf("Budget = %+v, want nil after wholesale replace", snap.Budget)
	}
}

func TestLoadUnknownWorkspace(t *testing.T) {
	c := openTestCache(t)

	snap, fetched, err := c.LoadWorkspace("nope")
	if err != nil {
		t.Fatalf("LoadWorkspace: %v", err)
	}
	if !fetched.IsZero() {
		t.Error("fetched time should be zero for uncached workspace")
	}
	if len(snap.Subscriptions) != 0 {
		t.Errorf("Subscriptions = %+v, want empty", snap.Subscriptions)
	}
}
