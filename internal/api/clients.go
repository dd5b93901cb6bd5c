package api

import (
	"context"
	"fmt"

	"github.com/subflowhq/subflow/internal/model"
)

// Clients returns the workspace's clients.
func (c *Client) Clients(ctx context.Context, workspaceID string) ([]model.Client, error) {
	var clients []model.Client
	if err := c.get(ctx, fmt.Sprintf("/clients/workspace/%s", workspaceID), &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

// ClientInput is the writable client shape.
type ClientInput struct {
	WorkspaceID string `json:"workspaceId,omitempty"`
	Name        string `json:"name"`
	Contact     string `json:"contact,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

type clientEnvelope struct {
	Status  int           `json:"status"`
	Message string        `json:"message"`
	Client  *model.Client `json:"client"`
}

// CreateClient adds a client to a workspace.
func (c *Client) CreateClient(ctx context.Context, req ClientInput) (*model.Client, error) {
	var out clientEnvelope
	if err := c.post(ctx, "/clients/", req, &out); err != nil {
		return nil, err
	}
	return out.Client, nil
}

// UpdateClient edits a client.
func (c *Client) UpdateClient(ctx context.Context, id string, req ClientInput) (*model.Client, error) {
	var out clientEnvelope
	if err := c.put(ctx, fmt.Sprintf("/clients/%s", id), req, &out); err != nil {
		return nil, err
	}
	return out.Client, nil
}

// DeleteClient removes a client.
func (c *Client) DeleteClient(ctx context.Context, id string) error {
	return c.delete(ctx, fmt.Sprintf("/clients/%s", id))
}
