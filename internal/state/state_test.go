package state

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/subflowhq/subflow/internal/api"
)

// fakeBackend is a minimal in-memory SubFlow server for store tests.
type fakeBackend struct {
	mu   sync.Mutex
	mux  *http.ServeMux
	subs map[string][]map[string]any // workspace ID -> subscriptions
	puts []string                    // bodies of PUT /subscriptions/:id
	hits map[string]int
}

func newFakeBackend() *fakeBackend {
	b := &fakeBackend{
		mux:  http.NewServeMux(),
		subs: make(map[string][]map[string]any),
		hits: make(map[string]int),
	}

	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}

	b.mux.HandleFunc("/users/me", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"_id": "u1", "name": "Test", "email": "t@example.com"})
	})
	b.mux.HandleFunc("/userPlans/my-plan", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{})
	})
	b.mux.HandleFunc("/workspaces", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, []map[string]any{
			{"_id": "ws1", "name": "Personal"},
			{"_id": "ws2", "name": "Agency"},
		})
	})
	b.mux.HandleFunc("/subscriptions/workspace/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/subscriptions/workspace/"):]
		b.mu.Lock()
		b.hits["subs:"+id]++
		subs := b.subs[id]
		b.mu.Unlock()
		if subs == nil {
			subs = []map[string]any{}
		}
		writeJSON(w, subs)
	})
	b.mux.HandleFunc("/clients/workspace/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, []map[string]any{{"_id": "c1", "name": "Acme"}})
	})
	b.mux.HandleFunc("/alerts/workspace/", func(w http.ResponseWriter, _ *http.Request) {
		b.mu.Lock()
		b.hits["alerts"]++
		b.mu.Unlock()
		writeJSON(w, []map[string]any{{"_id": "a1", "type": "renewal", "subscriptionId": "s1"}})
	})
	b.mux.HandleFunc("/budgets/", func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	})
	b.mux.HandleFunc("/invoices/subscription/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/invoices/subscription/"):]
		if id == "s-broken" {
			http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
			return
		}
		writeJSON(w, []map[string]any{{"_id": "inv-" + id, "subscriptionId": id, "amount": 10, "status": "paid"}})
	})
	b.mux.HandleFunc("/subscriptionClients/clients/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, []map[string]any{})
	})
	b.mux.HandleFunc("/alerts/trigger-checks", func(w http.ResponseWriter, _ *http.Request) {
		b.mu.Lock()
		b.hits["trigger"]++
		b.mu.Unlock()
		writeJSON(w, map[string]any{"message": "ok"})
	})
	b.mux.HandleFunc("/subscriptions/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			raw, _ := json.Marshal(body)
			b.mu.Lock()
			b.puts = append(b.puts, string(raw))
			b.mu.Unlock()
			writeJSON(w, map[string]any{"subscription": body})
		case http.MethodDelete:
			writeJSON(w, map[string]any{"message": "deleted"})
		default:
			http.NotFound(w, r)
		}
	})
	b.mux.HandleFunc("/invoices/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		body["_id"] = "inv-new"
		writeJSON(w, map[string]any{"invoice": body})
	})
	b.mux.HandleFunc("/workspaces/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			writeJSON(w, map[string]any{"message": "deleted"})
			return
		}
		http.NotFound(w, r)
	})
	b.mux.HandleFunc("/userPlans/create-checkout-session", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"url": ""})
	})
	b.mux.HandleFunc("/userPlans/select", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"userPlan": map[string]any{"_id": "up1", "planId": "p1", "status": "active"}})
	})

	return b
}

func (b *fakeBackend) setSubs(workspaceID string, subs ...map[string]any) {
	b.mu.Lock()
	b.subs[workspaceID] = subs
	b.mu.Unlock()
}

func sub(id, name string, amount float64) map[string]any {
	return map[string]any{
		"_id":             id,
		"workspaceId":     "ws1",
		"name":            name,
		"amount":          amount,
		"currency":        "USD",
		"period":          "monthly",
		"nextRenewalDate": "2026-04-01",
	}
}

func newTestStore(t *testing.T, handler http.Handler) *Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	s := New(api.New(srv.URL, "tok"))
	s.settleDelay = 0
	return s
}

func TestBootstrapSelectsFirstWorkspace(t *testing.T) {
	backend := newFakeBackend()
	backend.setSubs("ws1", sub("s1", "Figma", 15), sub("s2", "Vercel", 20))
	s := newTestStore(t, backend.mux)

	if err := s.Bootstrap(context.Background(), ""); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	snap := s.Snapshot()
	if snap.ActiveID != "ws1" {
		t.Errorf("ActiveID = %q, want ws1", snap.ActiveID)
	}
	if len(snap.Subscriptions) != 2 {
		t.Fatalf("len(Subscriptions) = %d, want 2", len(snap.Subscriptions))
	}
	if snap.Budget != nil {
		t.Error("missing budget should load as nil, not an error")
	}
	if len(snap.Invoices["s1"]) != 1 {
		t.Errorf("invoices for s1 not loaded: %v", snap.Invoices)
	}
	if snap.User == nil || snap.User.ID != "u1" {
		t.Errorf("User = %+v, want u1", snap.User)
	}
}

func TestBootstrapPrefersNamedWorkspace(t *testing.T) {
	backend := newFakeBackend()
	s := newTestStore(t, backend.mux)

	if err := s.Bootstrap(context.Background(), "Agency"); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if got := s.Snapshot().ActiveID; got != "ws2" {
		t.Errorf("ActiveID = %q, want ws2", got)
	}
}

func TestBrokenSubscriptionDetailIsSwallowed(t *testing.T) {
	backend := newFakeBackend()
	backend.setSubs("ws1", sub("s-broken", "Broken", 5), sub("s2", "Fine", 10))
	s := newTestStore(t, backend.mux)

	if err := s.Bootstrap(context.Background(), "ws1"); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	snap := s.Snapshot()
	if len(snap.Subscriptions) != 2 {
		t.Fatalf("len(Subscriptions) = %d, want 2", len(snap.Subscriptions))
	}
	if _, ok := snap.Invoices["s-broken"]; ok {
		t.Error("invoices for broken subscription should be absent")
	}
	if len(snap.Invoices["s2"]) != 1 {
		t.Error("healthy subscription's invoices should still load")
	}
}

func TestWorkspaceSwitchDiscardsStaleResponse(t *testing.T) {
	backend := newFakeBackend()
	backend.setSubs("ws1", sub("s1", "Old", 5))
	backend.setSubs("ws2", map[string]any{
		"_id": "s9", "workspaceId": "ws2", "name": "New",
		"amount": 99, "currency": "USD", "period": "monthly",
	})

	slowEntered := make(chan struct{})
	slowRelease := make(chan struct{})
	var once sync.Once

	// Delay ws1's subscription fetch until after ws2's switch finishes.
	outer := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/subscriptions/workspace/ws1" {
			once.Do(func() { close(slowEntered) })
			<-slowRelease
		}
		backend.mux.ServeHTTP(w, r)
	})

	s := newTestStore(t, outer)

	done := make(chan error, 1)
	go func() { done <- s.SelectWorkspace(context.Background(), "ws1") }()
	<-slowEntered

	if err := s.SelectWorkspace(context.Background(), "ws2"); err != nil {
		t.Fatalf("SelectWorkspace(ws2): %v", err)
	}
	close(slowRelease)
	if err := <-done; err != nil {
		t.Fatalf("SelectWorkspace(ws1): %v", err)
	}

	snap := s.Snapshot()
	if snap.ActiveID != "ws2" {
		t.Fatalf("ActiveID = %q, want ws2", snap.ActiveID)
	}
	if len(snap.Subscriptions) != 1 || snap.Subscriptions[0].ID != "s9" {
		t.Errorf("stale ws1 data clobbered ws2: %+v", snap.Subscriptions)
	}
}

func TestDeleteSubscriptionPurgesCaches(t *testing.T) {
	backend := newFakeBackend()
	backend.setSubs("ws1", sub("s1", "Figma", 15), sub("s2", "Vercel", 20))
	s := newTestStore(t, backend.mux)

	if err := s.Bootstrap(context.Background(), "ws1"); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if err := s.DeleteSubscription(context.Background(), "s1"); err != nil {
		t.Fatalf("DeleteSubscription: %v", err)
	}

	snap := s.Snapshot()
	if len(snap.Subscriptions) != 1 || snap.Subscriptions[0].ID != "s2" {
		t.Errorf("Subscriptions = %+v, want only s2", snap.Subscriptions)
	}
	if _, ok := snap.Invoices["s1"]; ok {
		t.Error("invoices for s1 not purged")
	}
	for _, a := range snap.Alerts {
		if a.SubscriptionID.ID == "s1" {
			t.Error("alert for s1 not purged")
		}
	}
}

func TestLinkClientRefreshesSubscriptionLinks(t *testing.T) {
	backend := newFakeBackend()
	backend.setSubs("ws1", sub("s1", "Figma", 15))

	var linked bool
	backend.mux.HandleFunc("/subscriptionClients/link-client", func(w http.ResponseWriter, _ *http.Request) {
		backend.mu.Lock()
		linked = true
		backend.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "ok"})
	})
	backend.mux.HandleFunc("/subscriptionClients/unlink-client", func(w http.ResponseWriter, _ *http.Request) {
		backend.mu.Lock()
		linked = false
		backend.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "ok"})
	})
	backend.mux.HandleFunc("/subscriptionClients/clients/s1", func(w http.ResponseWriter, _ *http.Request) {
		backend.mu.Lock()
		defer backend.mu.Unlock()
		if !linked {
			_ = json.NewEncoder(w).Encode([]map[string]any{})
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"_id": "l1", "subscriptionId": "s1", "clientId": map[string]any{"_id": "c1", "name": "Acme"}},
		})
	})

	s := newTestStore(t, backend.mux)
	if err := s.Bootstrap(context.Background(), "ws1"); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	if err := s.LinkClient(context.Background(), "s1", "c1"); err != nil {
		t.Fatalf("LinkClient: %v", err)
	}
	got := s.Snapshot().Links["s1"]
	if len(got) != 1 || got[0].ID != "c1" || got[0].Name != "Acme" {
		t.Fatalf("Links[s1] = %+v, want Acme (c1)", got)
	}

	if err := s.UnlinkClient(context.Background(), "s1", "c1"); err != nil {
		t.Fatalf("UnlinkClient: %v", err)
	}
	if got := s.Snapshot().Links["s1"]; len(got) != 0 {
		t.Errorf("Links[s1] after unlink = %+v, want empty", got)
	}
}

func TestDeleteWorkspaceFallsBackToRemaining(t *testing.T) {
	backend := newFakeBackend()
	backend.setSubs("ws2", map[string]any{
		"_id": "s9", "workspaceId": "ws2", "name": "New",
		"amount": 99, "currency": "USD", "period": "monthly",
	})
	s := newTestStore(t, backend.mux)

	if err := s.Bootstrap(context.Background(), "ws1"); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if err := s.DeleteWorkspace(context.Background(), "ws1"); err != nil {
		t.Fatalf("DeleteWorkspace: %v", err)
	}

	snap := s.Snapshot()
	if snap.ActiveID != "ws2" {
		t.Errorf("ActiveID = %q, want fallback to ws2", snap.ActiveID)
	}
	if len(snap.Workspaces) != 1 {
		t.Errorf("len(Workspaces) = %d, want 1", len(snap.Workspaces))
	}
	if len(snap.Subscriptions) != 1 || snap.Subscriptions[0].ID != "s9" {
		t.Errorf("fallback workspace not loaded: %+v", snap.Subscriptions)
	}
}

func TestQuickRenewalAdvancesByPeriod(t *testing.T) {
	tests := []struct {
		period   string
		wantDate string
	}{
		{"monthly", "2026-05-01"},
		{"quarterly", "2026-07-01"},
		{"yearly", "2027-04-01"},
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			backend := newFakeBackend()
			entry := sub("s1", "Figma", 15)
			entry["period"] = tt.period
			backend.setSubs("ws1", entry)
			s := newTestStore(t, backend.mux)

			if err := s.Bootstrap(context.Background(), "ws1"); err != nil {
				t.Fatalf("Bootstrap: %v", err)
			}
			if _, err := s.QuickRenewal(context.Background(), "s1"); err != nil {
				t.Fatalf("QuickRenewal: %v", err)
			}

			backend.mu.Lock()
			puts := append([]string(nil), backend.puts...)
			backend.mu.Unlock()
			if len(puts) != 1 {
				t.Fatalf("got %d subscription updates, want 1", len(puts))
			}
			want := fmt.Sprintf("%q:%q", "nextRenewalDate", tt.wantDate)
			if !strings.Contains(puts[0], want) {
				t.Errorf("update body %s missing %s", puts[0], want)
			}
		})
	}
}

func TestRecheckAlertsTriggersThenRefetches(t *testing.T) {
	backend := newFakeBackend()
	s := newTestStore(t, backend.mux)

	if err := s.Bootstrap(context.Background(), "ws1"); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	backend.mu.Lock()
	before := backend.hits["alerts"]
	backend.mu.Unlock()

	if err := s.RecheckAlerts(context.Background()); err != nil {
		t.Fatalf("RecheckAlerts: %v", err)
	}

	backend.mu.Lock()
	defer backend.mu.Unlock()
	if backend.hits["trigger"] != 1 {
		t.Errorf("trigger-checks hit %d times, want 1", backend.hits["trigger"])
	}
	if backend.hits["alerts"] != before+1 {
		t.Errorf("alerts refetched %d times after trigger, want 1", backend.hits["alerts"]-before)
	}
}

func TestChoosePlanFallsBackToDirectSelect(t *testing.T) {
	backend := newFakeBackend()
	s := newTestStore(t, backend.mux)

	url, err := s.ChoosePlan(context.Background(), "p1")
	if err != nil {
		t.Fatalf("ChoosePlan: %v", err)
	}
	if url != "" {
		t.Errorf("url = %q, want empty (direct select)", url)
	}
	snap := s.Snapshot()
	if snap.Plan == nil || snap.Plan.ID != "up1" {
		t.Errorf("Plan = %+v, want up1", snap.Plan)
	}
}
