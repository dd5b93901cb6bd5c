// Package store provides a SQLite-backed snapshot cache so listing
// commands can run offline against the last fetched workspace data.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/subflowhq/subflow/internal/model"
	"github.com/subflowhq/subflow/internal/state"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Cache provides SQLite-backed workspace snapshot caching.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// DefaultPath returns the cache location under the XDG cache directory.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "subflow", "cache.db")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "subflow", "cache.db")
}

func timeOrEmpty(t model.Timestamp) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// ReplaceWorkspace replaces the cached rows for the snapshot's active
// workspace wholesale. Snapshots are whole-workspace fetches, so row
// level merging would only preserve deleted data.
func (c *Cache) ReplaceWorkspace(snap state.Snapshot) error {
	if snap.ActiveID == "" {
		return nil
	}

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var name string
	var monthlyCap float64
	for _, ws := range snap.Workspaces {
		if ws.ID == snap.ActiveID {
			name = ws.Name
			monthlyCap = ws.MonthlyCap.Float()
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(`INSERT OR REPLACE INTO workspaces
		(workspace_id, name, monthly_cap, fetched_at) VALUES (?, ?, ?, ?)`,
		snap.ActiveID, name, monthlyCap, now); err != nil {
		return err
	}

	for _, table := range []string{"subscriptions", "clients", "invoices", "alerts", "budgets"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE workspace_id = ?", snap.ActiveID); err != nil {
			return err
		}
	}

	for _, s := range snap.Subscriptions {
		tags, _ := json.Marshal(s.Tags)
		if _, err := tx.Exec(`INSERT INTO subscriptions
			(subscription_id, workspace_id, name, vendor, plan, amount, currency,
			 period, next_renewal_date, category, notes, tags, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ID, snap.ActiveID, s.Name, s.Vendor, s.Plan, s.Amount.Float(), s.Currency,
			string(s.Period), timeOrEmpty(s.NextRenewalDate), s.Category, s.Notes,
			string(tags), timeOrEmpty(s.CreatedAt)); err != nil {
			return err
		}
	}

	for _, cl := range snap.Clients {
		if _, err := tx.Exec(`INSERT INTO clients
			(client_id, workspace_id, name, contact, notes) VALUES (?, ?, ?, ?, ?)`,
			cl.ID, snap.ActiveID, cl.Name, cl.Contact, cl.Notes); err != nil {
			return err
		}
	}

	for subID, invoices := range snap.Invoices {
		for _, inv := range invoices {
			if _, err := tx.Exec(`INSERT OR REPLACE INTO invoices
				(invoice_id, subscription_id, workspace_id, file_url, amount, invoice_date, status, source)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				inv.ID, subID, snap.ActiveID, inv.FileURL, inv.Amount.Float(),
				timeOrEmpty(inv.InvoiceDate), inv.Status, inv.Source); err != nil {
				return err
			}
		}
	}

	for _, a := range snap.Alerts {
		if _, err := tx.Exec(`INSERT INTO alerts
			(alert_id, workspace_id, subscription_id, type, due_date)
			VALUES (?, ?, ?, ?, ?)`,
			a.ID, snap.ActiveID, a.SubscriptionID.ID, a.Type, timeOrEmpty(a.DueDate)); err != nil {
			return err
		}
	}

	if snap.Budget != nil {
		if _, err := tx.Exec(`INSERT INTO budgets
			(workspace_id, budget_id, monthly_cap, alert_threshold) VALUES (?, ?, ?, ?)`,
			snap.ActiveID, snap.Budget.ID, snap.Budget.MonthlyCap.Float(),
			snap.Budget.AlertThreshold.Float()); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func parseTimestamp(s string) model.Timestamp {
	if s == "" {
		return model.Timestamp{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return model.Timestamp{}
	}
	return model.Timestamp{Time: t}
}

// LoadWorkspace reads back a cached workspace snapshot. The second
// return value is the time the snapshot was fetched from the server;
// a zero time means the workspace has never been cached.
func (c *Cache) LoadWorkspace(workspaceID string) (state.Snapshot, time.Time, error) {
	snap := state.Snapshot{
		ActiveID: workspaceID,
		Invoices: make(map[string][]model.Invoice),
		Links:    make(map[string][]model.Client),
	}

	var name, fetchedAt string
	var monthlyCap float64
	err := c.db.QueryRow(
		"SELECT name, monthly_cap, fetched_at FROM workspaces WHERE workspace_id = ?",
		workspaceID).Scan(&name, &monthlyCap, &fetchedAt)
	if err == sql.ErrNoRows {
		return snap, time.Time{}, nil
	}
	if err != nil {
		return snap, time.Time{}, err
	}
	fetched, _ := time.Parse(time.RFC3339, fetchedAt)
	snap.Workspaces = []model.Workspace{{ID: workspaceID, Name: name, MonthlyCap: model.Money(monthlyCap)}}

	rows, err := c.db.Query(`SELECT subscription_id, name, vendor, plan, amount, currency,
		period, next_renewal_date, category, notes, tags, created_at
		FROM subscriptions WHERE workspace_id = ? ORDER BY name`, workspaceID)
	if err != nil {
		return snap, fetched, err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var s model.Subscription
		var amount float64
		var period, renewal, created, tags string
		if err := rows.Scan(&s.ID, &s.Name, &s.Vendor, &s.Plan, &amount, &s.Currency,
			&period, &renewal, &s.Category, &s.Notes, &tags, &created); err != nil {
			return snap, fetched, err
		}
		s.WorkspaceID = model.Ref{ID: workspaceID}
		s.Amount = model.Money(amount)
		s.Period = model.Period(period)
		s.NextRenewalDate = parseTimestamp(renewal)
		s.CreatedAt = parseTimestamp(created)
		_ = json.Unmarshal([]byte(tags), &s.Tags)
		snap.Subscriptions = append(snap.Subscriptions, s)
	}
	if err := rows.Err(); err != nil {
		return snap, fetched, err
	}

	clientRows, err := c.db.Query(
		"SELECT client_id, name, contact, notes FROM clients WHERE workspace_id = ? ORDER BY name",
		workspaceID)
	if err != nil {
		return snap, fetched, err
	}
	defer func() { _ = clientRows.Close() }()
	for clientRows.Next() {
		var cl model.Client
		if err := clientRows.Scan(&cl.ID, &cl.Name, &cl.Contact, &cl.Notes); err != nil {
			return snap, fetched, err
		}
		cl.WorkspaceID = model.Ref{ID: workspaceID}
		snap.Clients = append(snap.Clients, cl)
	}
	if err := clientRows.Err(); err != nil {
		return snap, fetched, err
	}

	invoiceRows, err := c.db.Query(`SELECT invoice_id, subscription_id, file_url, amount,
		invoice_date, status, source FROM invoices WHERE workspace_id = ?`, workspaceID)
	if err != nil {
		return snap, fetched, err
	}
	defer func() { _ = invoiceRows.Close() }()
	for invoiceRows.Next() {
		var inv model.Invoice
		var subID, date string
		var amount float64
		if err := invoiceRows.Scan(&inv.ID, &subID, &inv.FileURL, &amount,
			&date, &inv.Status, &inv.Source); err != nil {
			return snap, fetched, err
		}
		inv.SubscriptionID = model.Ref{ID: subID}
		inv.Amount = model.Money(amount)
		inv.InvoiceDate = parseTimestamp(date)
		snap.Invoices[subID] = append(snap.Invoices[subID], inv)
	}
	if err := invoiceRows.Err(); err != nil {
		return snap, fetched, err
	}

	alertRows, err := c.db.Query(
		"SELECT alert_id, subscription_id, type, due_date FROM alerts WHERE workspace_id = ?",
		workspaceID)
	if err != nil {
		return snap, fetched, err
	}
	defer func() { _ = alertRows.Close() }()
	for alertRows.Next() {
		var a model.Alert
		var subID, due string
		if err := alertRows.Scan(&a.ID, &subID, &a.Type, &due); err != nil {
			return snap, fetched, err
		}
		a.WorkspaceID = model.Ref{ID: workspaceID}
		a.SubscriptionID = model.Ref{ID: subID}
		a.DueDate = parseTimestamp(due)
		snap.Alerts = append(snap.Alerts, a)
	}
	if err := alertRows.Err(); err != nil {
		return snap, fetched, err
	}

	var budgetID string
	var budgetCap, threshold float64
	err = c.db.QueryRow(
		"SELECT budget_id, monthly_cap, alert_threshold FROM budgets WHERE workspace_id = ?",
		workspaceID).Scan(&budgetID, &budgetCap, &threshold)
	switch err {
	case nil:
		snap.Budget = &model.Budget{
			ID:             budgetID,
			WorkspaceID:    model.Ref{ID: workspaceID},
			MonthlyCap:     model.Money(budgetCap),
			AlertThreshold: model.Money(threshold),
		}
	case sql.ErrNoRows:
	default:
		return snap, fetched, err
	}

	return snap, fetched, nil
}

// CachedWorkspaces lists every workspace present in the cache.
func (c *Cache) CachedWorkspaces() ([]model.Workspace, error) {
	rows, err := c.db.Query("SELECT workspace_id, name, monthly_cap FROM workspaces ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Workspace
	for rows.Next() {
		var ws model.Workspace
		var monthlyCap float64
		if err := rows.Scan(&ws.ID, &ws.Name, &monthlyCap); err != nil {
			return nil, err
		}
		ws.MonthlyCap = model.Money(monthlyCap)
		out = append(out, ws)
	}
	return out, rows.Err()
}
