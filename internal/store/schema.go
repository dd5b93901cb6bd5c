package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS workspaces (
    workspace_id         TEXT PRIMARY KEY,
    name                 TEXT NOT NULL,
    monthly_cap          REAL,
    fetched_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS subscriptions (
    subscription_id      TEXT PRIMARY KEY,
    workspace_id         TEXT NOT NULL REFERENCES workspaces(workspace_id) ON DELETE CASCADE,
    name                 TEXT NOT NULL,
    vendor               TEXT,
    plan                 TEXT,
    amount               REAL NOT NULL,
    currency             TEXT NOT NULL,
    period               TEXT NOT NULL,
    next_renewal_date    TEXT,
    category             TEXT,
    notes                TEXT,
    tags                 TEXT,
    created_at           TEXT
);

CREATE TABLE IF NOT EXISTS clients (
    client_id            TEXT PRIMARY KEY,
    workspace_id         TEXT NOT NULL REFERENCES workspaces(workspace_id) ON DELETE CASCADE,
    name                 TEXT NOT NULL,
    contact              TEXT,
    notes                TEXT
);

CREATE TABLE IF NOT EXISTS invoices (
    invoice_id           TEXT PRIMARY KEY,
    subscription_id      TEXT NOT NULL,
    workspace_id         TEXT NOT NULL REFERENCES workspaces(workspace_id) ON DELETE CASCADE,
    file_url             TEXT,
    amount               REAL NOT NULL,
    invoice_date         TEXT,
    status               TEXT,
    source               TEXT
);

CREATE TABLE IF NOT EXISTS alerts (
    alert_id             TEXT PRIMARY KEY,
    workspace_id         TEXT NOT NULL REFERENCES workspaces(workspace_id) ON DELETE CASCADE,
    subscription_id      TEXT,
    type                 TEXT NOT NULL,
    due_date             TEXT
);

CREATE TABLE IF NOT EXISTS budgets (
    workspace_id         TEXT PRIMARY KEY REFERENCES workspaces(workspace_id) ON DELETE CASCADE,
    budget_id            TEXT,
    monthly_cap          REAL NOT NULL,
    alert_threshold      REAL
);

CREATE INDEX IF NOT EXISTS idx_subscriptions_workspace ON subscriptions(workspace_id);
CREATE INDEX IF NOT EXISTS idx_invoices_subscription ON invoices(subscription_id);
CREATE INDEX IF NOT EXISTS idx_alerts_workspace ON alerts(workspace_id);
`
