package shipstation

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the production ShipStation API endpoint.
const DefaultBaseURL = "https://ssapi.shipstation.com"

// HTTPAPIClient is the production implementation of APIClient using HTTP.
// Every request is a single best-effort round trip: no retries, no
// client-side caching.
type HTTPAPIClient struct {
	baseURL    string
	authHeader string
	httpClient *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Timeout   time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	credentials := base64.StdEncoding.EncodeToString([]byte(cfg.APIKey + ":" + cfg.APISecret))

	return &HTTPAPIClient{
		baseURL:    baseURL,
		authHeader: "Basic " + credentials,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ListCarriers fetches all connected carriers.
// GET /carriers
func (c *HTTPAPIClient) ListCarriers(ctx context.Context) ([]Carrier, error) {
	carriers, err := fetchResource[[]Carrier](ctx, c, c.baseURL+"/carriers")
	if err != nil {
		return nil, err
	}
	return *carriers, nil
}

// ListServices fetches the services offered by one carrier.
// GET /carriers/listservices?carrierCode={code}
func (c *HTTPAPIClient) ListServices(ctx context.Context, carrierCode string) ([]Service, error) {
	u := fmt.Sprintf("%s/carriers/listservices?carrierCode=%s", c.baseURL, url.QueryEscape(carrierCode))
	services, err := fetchResource[[]Service](ctx, c, u)
	if err != nil {
		return nil, err
	}
	return *services, nil
}

// CreateOrUpdateOrder creates or updates an order. ShipStation upserts by
// orderKey, so repeating the call with the same key is safe.
// POST /orders/createorder
func (c *HTTPAPIClient) CreateOrUpdateOrder(ctx context.Context, order *Order) (*Order, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/orders/createorder", order)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.parseError(resp)
	}

	var result Order
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode order response: %w", err)
	}
	return &result, nil
}

// GetRates fetches rate quotes for a prospective shipment.
// POST /shipments/getrates
func (c *HTTPAPIClient) GetRates(ctx context.Context, req *RateRequest) ([]Rate, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/shipments/getrates", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.parseError(resp)
	}

	var rates []Rate
	if err := json.NewDecoder(resp.Body).Decode(&rates); err != nil {
		return nil, fmt.Errorf("failed to decode rates response: %w", err)
	}
	return rates, nil
}

// GetShipNotification dereferences a webhook resource_url. The URL is
// absolute and supplied by ShipStation; no allowlist is applied.
func (c *HTTPAPIClient) GetShipNotification(ctx context.Context, resourceURL string) (*ShipNotification, error) {
	return fetchResource[ShipNotification](ctx, c, resourceURL)
}

// fetchResource performs an authenticated GET against an absolute URL and
// decodes the response as T. Webhook envelopes reference arbitrary resource
// shapes, so the result type is the caller's choice.
func fetchResource[T any](ctx context.Context, c *HTTPAPIClient, absoluteURL string) (*T, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, absoluteURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("shipstation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.parseError(resp)
	}

	var result T
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", absoluteURL, err)
	}
	return &result, nil
}

// doRequest performs an HTTP request against a path relative to the base URL.
func (c *HTTPAPIClient) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("shipstation request failed: %w", err)
	}
	return resp, nil
}

func (c *HTTPAPIClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("User-Agent", "tournevent-shipstation/1.0")
}

// parseError extracts error information from an HTTP response.
func (c *HTTPAPIClient) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != "" {
		apiErr.StatusCode = resp.StatusCode
		return &apiErr
	}

	// Try to parse as a simple error message
	var simpleErr struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &simpleErr); err == nil {
		msg := simpleErr.Error
		if msg == "" {
			msg = simpleErr.Message
		}
		if msg != "" {
			return &APIError{
				StatusCode: resp.StatusCode,
				Code:       fmt.Sprintf("HTTP_%d", resp.StatusCode),
				Message:    msg,
			}
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       fmt.Sprintf("HTTP_%d", resp.StatusCode),
		Message:    string(body),
	}
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
