package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBearerTokenInjection(t *testing.T) {
	var gotAuth, gotReqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-ID")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok-123")
	if _, err := c.Workspaces(context.Background()); err != nil {
		t.Fatalf("Workspaces: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want Bearer tok-123", gotAuth)
	}
	if gotReqID == "" {
		t.Error("X-Request-ID not set")
	}
}

func TestUnauthorizedClearsTokenAndBroadcastsOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	fired := 0
	c := New(srv.URL, "tok-123", WithUnauthorizedHook(func() { fired++ }))

	for i := 0; i < 3; i++ {
		_, err := c.Workspaces(context.Background())
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("err = %v, want ErrUnauthorized", err)
		}
	}

	if c.HasToken() {
		t.Error("token not cleared after 401")
	}
	if fired != 1 {
		t.Errorf("logout hook fired %d times, want 1", fired)
	}
}

func TestServerMessageSurfacedVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"amount must be positive"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	_, err := c.CreateSubscription(context.Background(), SubscriptionInput{})

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *api.Error", err)
	}
	if apiErr.Message != "amount must be positive" {
		t.Errorf("Message = %q, want server message verbatim", apiErr.Message)
	}
	if apiErr.Status != http.StatusUnprocessableEntity {
		t.Errorf("Status = %d, want 422", apiErr.Status)
	}
}

func TestNotFoundIsSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	_, err := c.Budget(context.Background(), "ws1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMyPlanShapes(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantNil bool
		wantID  string
	}{
		{"wrapped", `{"userPlan":{"_id":"up1","planId":"p1"}}`, false, "up1"},
		{"bare", `{"_id":"up2","planId":{"_id":"p2","name":"Pro"}}`, false, "up2"},
		{"empty object", `{}`, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := New(srv.URL, "tok")
			up, err := c.MyPlan(context.Background())
			if err != nil {
				t.Fatalf("MyPlan: %v", err)
			}
			if (up == nil) != tt.wantNil {
				t.Fatalf("up == nil is %v, want %v", up == nil, tt.wantNil)
			}
			if up != nil && up.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", up.ID, tt.wantID)
			}
		})
	}
}

func TestClientsForSubscriptionResolvesPopulatedLinks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[
			{"_id":"l1","clientId":{"_id":"c1","name":"Acme"}},
			{"_id":"l2","clientId":"c2"},
			{"_id":"l3","clientId":null}
		]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	clients, err := c.ClientsForSubscription(context.Background(), "s1")
	if err != nil {
		t.Fatalf("ClientsForSubscription: %v", err)
	}
	if len(clients) != 2 {
		t.Fatalf("len = %d, want 2 (null link dropped)", len(clients))
	}
	if clients[0].ID != "c1" || clients[0].Name != "Acme" {
		t.Errorf("clients[0] = %+v, want populated Acme", clients[0])
	}
	if clients[1].ID != "c2" || clients[1].Name != "" {
		t.Errorf("clients[1] = %+v, want bare reference", clients[1])
	}
}

func TestUpdateInvoiceStripsSubscriptionID(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = w.Write([]byte(`{"invoice":{"_id":"i1"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	_, err := c.UpdateInvoice(context.Background(), "i1", InvoiceInput{
		SubscriptionID: "s1",
		Amount:         10,
		Status:         "paid",
	})
	if err != nil {
		t.Fatalf("UpdateInvoice: %v", err)
	}
	if contains := `"subscriptionId"`; len(gotBody) > 0 && strings.Contains(gotBody, contains) {
		t.Errorf("update body %s still carries subscriptionId", gotBody)
	}
}
