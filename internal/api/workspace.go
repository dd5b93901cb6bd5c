package api

import (
	"context"
	"fmt"

	"github.com/subflowhq/subflow/internal/model"
)

// Workspaces returns every workspace owned by the account.
func (c *Client) Workspaces(ctx context.Context) ([]model.Workspace, error) {
	var ws []model.Workspace
	if err := c.get(ctx, "/workspaces", &ws); err != nil {
		return nil, err
	}
	return ws, nil
}

// WorkspaceInput is the writable workspace shape.
type WorkspaceInput struct {
	Name       string   `json:"name"`
	MonthlyCap *float64 `json:"monthlyCap,omitempty"`
}

// CreateWorkspace creates a workspace. The server also creates its budget.
func (c *Client) CreateWorkspace(ctx context.Context, req WorkspaceInput) (*model.Workspace, error) {
	var out struct {
		Workspace *model.Workspace `json:"workspace"`
	}
	if err := c.post(ctx, "/workspaces/", req, &out); err != nil {
		return nil, err
	}
	return out.Workspace, nil
}

// UpdateWorkspace renames a workspace.
func (c *Client) UpdateWorkspace(ctx context.Context, id string, req WorkspaceInput) (*model.Workspace, error) {
	var out struct {
		Workspace *model.Workspace `json:"workspace"`
	}
	if err := c.put(ctx, fmt.Sprintf("/workspaces/%s", id), req, &out); err != nil {
		return nil, err
	}
	return out.Workspace, nil
}

// DeleteWorkspace removes a workspace. The server cascades the delete to
// every scoped resource.
func (c *Client) DeleteWorkspace(ctx context.Context, id string) error {
	return c.delete(ctx, fmt.Sprintf("/workspaces/%s", id))
}

// Budget returns the workspace's budget. ErrNotFound means the budget has
// not been materialized yet and is an expected empty state.
func (c *Client) Budget(ctx context.Context, workspaceID string) (*model.Budget, error) {
	var b model.Budget
	if err := c.get(ctx, fmt.Sprintf("/budgets/%s", workspaceID), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// BudgetInput is the editable budget slice.
type BudgetInput struct {
	MonthlyCap     float64 `json:"monthlyCap"`
	AlertThreshold float64 `json:"alertThreshold"`
}

// UpdateBudget edits a budget's cap and alert threshold.
func (c *Client) UpdateBudget(ctx context.Context, id string, req BudgetInput) (*model.Budget, error) {
	var out struct {
		Budget *model.Budget `json:"budget"`
	}
	if err := c.put(ctx, fmt.Sprintf("/budgets/%s", id), req, &out); err != nil {
		return nil, err
	}
	return out.Budget, nil
}
