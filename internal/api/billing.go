package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/subflowhq/subflow/internal/model"
)

// Plans returns the plan catalog.
func (c *Client) Plans(ctx context.Context) ([]model.Plan, error) {
	var plans []model.Plan
	if err := c.get(ctx, "/plans/getPlans", &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// Plan returns a single plan.
func (c *Client) Plan(ctx context.Context, id string) (*model.Plan, error) {
	var p model.Plan
	if err := c.get(ctx, fmt.Sprintf("/plans/getPlan/%s", id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// PlanInput is the writable plan shape for admin catalog management.
type PlanInput struct {
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Interval string   `json:"interval"`
	Features []string `json:"features,omitempty"`
}

// CreatePlan adds a plan to the catalog.
func (c *Client) CreatePlan(ctx context.Context, req PlanInput) (*model.Plan, error) {
	var out struct {
		Plan *model.Plan `json:"plan"`
	}
	if err := c.post(ctx, "/plans/createPlan", req, &out); err != nil {
		return nil, err
	}
	return out.Plan, nil
}

// UpdatePlan edits a catalog plan.
func (c *Client) UpdatePlan(ctx context.Context, id string, req PlanInput) error {
	return c.put(ctx, fmt.Sprintf("/plans/updatePlan/%s", id), req, nil)
}

// DeletePlan removes a catalog plan.
func (c *Client) DeletePlan(ctx context.Context, id string) error {
	return c.delete(ctx, fmt.Sprintf("/plans/deletePlan/%s", id))
}

// CheckoutSession is the hosted-checkout redirect returned by the server.
// URL is empty when hosted checkout is not configured, in which case the
// caller falls back to SelectPlan.
type CheckoutSession struct {
	URL string `json:"url"`
}

// CreateCheckoutSession starts hosted checkout for a plan.
func (c *Client) CreateCheckoutSession(ctx context.Context, planID string) (*CheckoutSession, error) {
	req := struct {
		PlanID string `json:"planId"`
	}{planID}

	var out CheckoutSession
	if err := c.post(ctx, "/userPlans/create-checkout-session", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfirmPayment finalizes a checkout session after the external redirect
// returns with a session id.
func (c *Client) ConfirmPayment(ctx context.Context, sessionID string) (*model.UserPlan, error) {
	req := struct {
		SessionID string `json:"sessionId"`
	}{sessionID}

	var out struct {
		UserPlan *model.UserPlan `json:"userPlan"`
	}
	if err := c.post(ctx, "/userPlans/confirm-payment", req, &out); err != nil {
		return nil, err
	}
	return out.UserPlan, nil
}

// SelectPlan assigns a plan directly, the fallback when hosted checkout
// returns no URL.
func (c *Client) SelectPlan(ctx context.Context, planID string) (*model.UserPlan, error) {
	req := struct {
		PlanID string `json:"planId"`
	}{planID}

	var out struct {
		UserPlan *model.UserPlan `json:"userPlan"`
	}
	if err := c.post(ctx, "/userPlans/select", req, &out); err != nil {
		return nil, err
	}
	return out.UserPlan, nil
}

// MyPlan returns the account's current plan assignment, or nil when none
// exists yet. The server serves either a wrapped or a bare document.
func (c *Client) MyPlan(ctx context.Context) (*model.UserPlan, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/userPlans/my-plan", &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var wrapped struct {
		UserPlan *model.UserPlan `json:"userPlan"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.UserPlan != nil {
		return wrapped.UserPlan, nil
	}

	var bare model.UserPlan
	if err := json.Unmarshal(raw, &bare); err != nil {
		return nil, fmt.Errorf("api: parsing my-plan response: %w", err)
	}
	if bare.ID == "" && bare.PlanID.IsZero() {
		return nil, nil
	}
	return &bare, nil
}
