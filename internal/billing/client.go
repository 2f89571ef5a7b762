package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/opsdeck/support-portal/internal/config"
	"github.com/opsdeck/support-portal/pkg/util"
)

// Subscription is a read-only view of an organization's billing plan.
type Subscription struct {
	OrganizationID string          `json:"organization_id"`
	PlanName       string          `json:"plan_name"`
	MonthlyAmount  decimal.Decimal `json:"monthly_amount"`
	Currency       string          `json:"currency"`
	Status         string          `json:"status"`
	RenewsAt       *time.Time      `json:"renews_at,omitempty"`
}

// Invoice is a read-only billing invoice record.
type Invoice struct {
	ID             string          `json:"id"`
	OrganizationID string          `json:"organization_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Status         string          `json:"status"`
	DueAt          time.Time       `json:"due_at"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
}

// Client reads subscription and invoice data from the billing system.
// The portal never writes billing data.
type Client interface {
	GetSubscription(ctx context.Context, orgID string) (*Subscription, error)
	ListInvoices(ctx context.Context, orgID string) ([]Invoice, error)
}

// NewFromConfig returns an HTTP client, or nil when billing integration
// is not configured.
func NewFromConfig(cfg config.BillingConfig) Client {
	if cfg.BaseURL == "" {
		return nil
	}
	return &httpClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

type httpClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func (c *httpClient) GetSubscription(ctx context.Context, orgID string) (*Subscription, error) {
	var sub Subscription
	path := fmt.Sprintf("/v1/organizations/%s/subscription", url.PathEscape(orgID))
	if err := c.getJSON(ctx, path, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (c *httpClient) ListInvoices(ctx context.Context, orgID string) ([]Invoice, error) {
	var invoices []Invoice
	path := fmt.Sprintf("/v1/organizations/%s/invoices", url.PathEscape(orgID))
	if err := c.getJSON(ctx, path, &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

func (c *httpClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return util.NewInternalError(err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return util.NewInternalError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return util.NewNotFound("billing record", nil)
	case resp.StatusCode != http.StatusOK:
		return util.NewInternalError(fmt.Errorf("billing API returned %d", resp.StatusCode))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
