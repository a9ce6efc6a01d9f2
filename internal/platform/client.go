// Package platform provides the client for the commerce platform's admin
// API, covering only the order operations the provider consumes.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tournevent/shipstation/internal/telemetry"
	"github.com/tournevent/shipstation/pkg/fulfillment"
)

// Client implements fulfillment.OrderService against the platform's admin
// API.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	metrics    *telemetry.Metrics
}

// ClientConfig holds configuration for the platform client.
type ClientConfig struct {
	BaseURL  string
	APIToken string
	Timeout  time.Duration

	// Metrics, when set, counts tracking-update outcomes.
	Metrics *telemetry.Metrics
}

// NewClient creates a new platform admin-API client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:  cfg.BaseURL,
		apiToken: cfg.APIToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: cfg.Metrics,
	}
}

// ListByIDs fetches orders by id with relation expansion.
// GET /admin/orders
func (c *Client) ListByIDs(ctx context.Context, ids []string, opts fulfillment.ListOptions) ([]*fulfillment.Order, error) {
	values := url.Values{}
	for _, id := range ids {
		values.Add("id[]", id)
	}
	for _, relation := range opts.Relations {
		values.Add("expand[]", relation)
	}
	if opts.Take > 0 {
		values.Set("limit", strconv.Itoa(opts.Take))
	}
	if opts.Skip > 0 {
		values.Set("offset", strconv.Itoa(opts.Skip))
	}
	if opts.NewestFirst {
		values.Set("order", "-created_at")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/admin/orders?"+values.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("platform request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.parseError(resp)
	}

	var result struct {
		Orders []*fulfillment.Order `json:"orders"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode orders response: %w", err)
	}
	return result.Orders, nil
}

// CreateShipment records a shipment on an order.
// POST /admin/orders/{id}/shipment
func (c *Client) CreateShipment(ctx context.Context, orderID, fulfillmentKey string, tracking []fulfillment.TrackingNumber) error {
	if err := c.createShipment(ctx, orderID, fulfillmentKey, tracking); err != nil {
		c.recordTrackingUpdate("error")
		return err
	}
	c.recordTrackingUpdate("ok")
	return nil
}

func (c *Client) createShipment(ctx context.Context, orderID, fulfillmentKey string, tracking []fulfillment.TrackingNumber) error {
	body, err := json.Marshal(map[string]any{
		"fulfillment_key":  fulfillmentKey,
		"tracking_numbers": tracking,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal shipment body: %w", err)
	}

	u := fmt.Sprintf("%s/admin/orders/%s/shipment", c.baseURL, url.PathEscape(orderID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("platform request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("order %s: %w", orderID, fulfillment.ErrOrderNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.parseError(resp)
	}
	return nil
}

func (c *Client) recordTrackingUpdate(status string) {
	if c.metrics != nil {
		c.metrics.RecordTrackingUpdate(status)
	}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
}

func (c *Client) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var apiErr struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("platform error (HTTP %d): %s", resp.StatusCode, apiErr.Message)
	}
	return fmt.Errorf("platform error (HTTP %d): %s", resp.StatusCode, string(body))
}

// Ensure Client implements the order-service port.
var _ fulfillment.OrderService = (*Client)(nil)
