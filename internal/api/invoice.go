package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/subflowhq/subflow/internal/model"
)

// Invoices returns the invoices attached to a subscription.
func (c *Client) Invoices(ctx context.Context, subscriptionID string) ([]model.Invoice, error) {
	var invoices []model.Invoice
	if err := c.get(ctx, fmt.Sprintf("/invoices/subscription/%s", subscriptionID), &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

// InvoiceInput is the writable invoice shape. SubscriptionID is only sent
// on create; ownership is immutable afterwards.
type InvoiceInput struct {
	SubscriptionID string  `json:"subscriptionId,omitempty"`
	FileURL        string  `json:"fileUrl,omitempty"`
	Amount         float64 `json:"amount"`
	InvoiceDate    string  `json:"invoiceDate"`
	Status         string  `json:"status"`
	Source         string  `json:"source"`
}

type invoiceEnvelope struct {
	Invoice *model.Invoice `json:"invoice"`
}

// CreateInvoice attaches an invoice to a subscription.
func (c *Client) CreateInvoice(ctx context.Context, req InvoiceInput) (*model.Invoice, error) {
	var out invoiceEnvelope
	if err := c.post(ctx, "/invoices/", req, &out); err != nil {
		return nil, err
	}
	return out.Invoice, nil
}

// UpdateInvoice edits an invoice. The subscriptionId field is stripped
// before sending so ownership can never change.
func (c *Client) UpdateInvoice(ctx context.Context, id string, req InvoiceInput) (*model.Invoice, error) {
	req.SubscriptionID = ""

	var out invoiceEnvelope
	if err := c.put(ctx, fmt.Sprintf("/invoices/%s", id), req, &out); err != nil {
		return nil, err
	}
	return out.Invoice, nil
}

// DeleteInvoice removes an invoice.
func (c *Client) DeleteInvoice(ctx context.Context, id string) error {
	return c.delete(ctx, fmt.Sprintf("/invoices/%s", id))
}

// UploadInvoiceFile uploads an invoice document and returns the stored
// file URL for use in a subsequent CreateInvoice call.
func (c *Client) UploadInvoiceFile(ctx context.Context, filename string, contents io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("image", filepath.Base(filename))
	if err != nil {
		return "", fmt.Errorf("api: preparing upload: %w", err)
	}
	if _, err := io.Copy(part, contents); err != nil {
		return "", fmt.Errorf("api: buffering upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("api: finalizing upload: %w", err)
	}

	raw, err := c.roundTrip(ctx, http.MethodPost, "/upload/invoice", &body, mw.FormDataContentType())
	if err != nil {
		return "", err
	}

	var out struct {
		Data struct {
			FileURL string `json:"fileUrl"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("api: parsing upload response: %w", err)
	}
	if out.Data.FileURL == "" {
		return "", fmt.Errorf("api: upload succeeded but no file URL returned")
	}
	return out.Data.FileURL, nil
}
