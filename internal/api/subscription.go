package api

import (
	"context"
	"fmt"

	"github.com/subflowhq/subflow/internal/model"
)

// Subscriptions returns the workspace's subscriptions.
func (c *Client) Subscriptions(ctx context.Context, workspaceID string) ([]model.Subscription, error) {
	var subs []model.Subscription
	if err := c.get(ctx, fmt.Sprintf("/subscriptions/workspace/%s", workspaceID), &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// SubscriptionInput is the writable subscription shape.
type SubscriptionInput struct {
	WorkspaceID     string   `json:"workspaceId"`
	Name            string   `json:"name"`
	Vendor          string   `json:"vendor,omitempty"`
	Plan            string   `json:"plan,omitempty"`
	Amount          float64  `json:"amount"`
	Currency        string   `json:"currency"`
	Period          string   `json:"period"`
	NextRenewalDate string   `json:"nextRenewalDate,omitempty"`
	Category        string   `json:"category,omitempty"`
	Notes           string   `json:"notes,omitempty"`
	Tags            []string `json:"tags"`
}

type subscriptionEnvelope struct {
	Status       int                 `json:"status"`
	Message      string              `json:"message"`
	Subscription *model.Subscription `json:"subscription"`
}

// CreateSubscription adds a subscription to a workspace.
func (c *Client) CreateSubscription(ctx context.Context, req SubscriptionInput) (*model.Subscription, error) {
	var out subscriptionEnvelope
	if err := c.post(ctx, "/subscriptions/", req, &out); err != nil {
		return nil, err
	}
	return out.Subscription, nil
}

// UpdateSubscription edits a subscription.
func (c *Client) UpdateSubscription(ctx context.Context, id string, req SubscriptionInput) (*model.Subscription, error) {
	var out subscriptionEnvelope
	if err := c.put(ctx, fmt.Sprintf("/subscriptions/%s", id), req, &out); err != nil {
		return nil, err
	}
	return out.Subscription, nil
}

// DeleteSubscription removes a subscription.
func (c *Client) DeleteSubscription(ctx context.Context, id string) error {
	return c.delete(ctx, fmt.Sprintf("/subscriptions/%s", id))
}

// Alerts returns the workspace's server-generated alerts.
func (c *Client) Alerts(ctx context.Context, workspaceID string) ([]model.Alert, error) {
	var alerts []model.Alert
	if err := c.get(ctx, fmt.Sprintf("/alerts/workspace/%s", workspaceID), &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

// TriggerAlertChecks asks the server to re-run its renewal and budget
// checks. The server processes asynchronously; callers re-read alerts
// after a short settle delay.
func (c *Client) TriggerAlertChecks(ctx context.Context) error {
	return c.post(ctx, "/alerts/trigger-checks", nil, nil)
}

// SubscriptionClientLink is a link record between a subscription and a
// client. The server usually populates the client document.
type SubscriptionClientLink struct {
	ID             string    `json:"id"`
	SubscriptionID model.Ref `json:"subscriptionId"`
	ClientID       model.Ref `json:"clientId"`
}

// LinkClient attaches a client to a subscription.
func (c *Client) LinkClient(ctx context.Context, subscriptionID, clientID string) error {
	req := struct {
		SubscriptionID string `json:"subscriptionId"`
		ClientID       string `json:"clientId"`
	}{subscriptionID, clientID}
	return c.post(ctx, "/subscriptionClients/link-client", req, nil)
}

// UnlinkClient detaches a client from a subscription.
func (c *Client) UnlinkClient(ctx context.Context, subscriptionID, clientID string) error {
	req := struct {
		SubscriptionID string `json:"subscriptionId"`
		ClientID       string `json:"clientId"`
	}{subscriptionID, clientID}
	return c.post(ctx, "/subscriptionClients/unlink-client", req, nil)
}

// ClientsForSubscription resolves the link records for a subscription into
// the linked client documents, dropping links whose client was not
// populated and could not be resolved.
func (c *Client) ClientsForSubscription(ctx context.Context, subscriptionID string) ([]model.Client, error) {
	var links []SubscriptionClientLink
	if err := c.get(ctx, fmt.Sprintf("/subscriptionClients/clients/%s", subscriptionID), &links); err != nil {
		return nil, err
	}

	clients := make([]model.Client, 0, len(links))
	for _, link := range links {
		if link.ClientID.IsZero() {
			continue
		}
		var cl model.Client
		if link.ClientID.Doc != nil {
			if err := cl.UnmarshalJSON(link.ClientID.Doc); err != nil {
				continue
			}
		} else {
			cl.ID = link.ClientID.ID
		}
		clients = append(clients, cl)
	}
	return clients, nil
}
