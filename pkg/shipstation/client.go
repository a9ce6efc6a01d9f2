// Package shipstation provides a ShipStation fulfillment provider for the
// commerce platform.
package shipstation

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tournevent/shipstation/pkg/fulfillment"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const providerName = "shipstation"

// trackingPageBaseURL is ShipStation's hosted tracking page.
const trackingPageBaseURL = "https://trackshipment.shipstation.com/"

// webhookOrderPageSize bounds the bulk order lookup performed while
// processing a ship notification.
const webhookOrderPageSize = 999999

// orderRelations are the platform relations needed to record a shipment on
// an order.
var orderRelations = []string{
	"fulfillments",
	"customer",
	"billing_address",
	"shipping_address",
	"discounts",
	"discounts.rule",
	"shipping_methods",
	"payments",
}

// Config holds ShipStation provider configuration.
type Config struct {
	APIKey    string
	APISecret string
	BaseURL   string

	// BrandingID, when set, is appended to branded tracking links.
	BrandingID string

	// WeightUnits selects the unit item weights are reported in.
	// Defaults to ounces.
	WeightUnits fulfillment.WeightUnit

	// DimensionUnits selects the unit package dimensions are reported in.
	// Defaults to inches.
	DimensionUnits fulfillment.DimensionUnit

	// UseMock swaps the HTTP API client for an in-memory mock.
	UseMock bool
}

// Client is the ShipStation fulfillment provider. It translates platform
// orders into ShipStation's wire shape, registers them via the underlying
// APIClient (mock or HTTP), and turns inbound ship notifications into
// tracking updates on the platform's orders.
type Client struct {
	config    Config
	apiClient APIClient
	orders    fulfillment.OrderService
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new ShipStation provider.
// If cfg.UseMock is true, it uses a mock API client for testing.
// Otherwise, it uses the real HTTP API client.
func New(cfg Config, orders fulfillment.OrderService, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL:   cfg.BaseURL,
			APIKey:    cfg.APIKey,
			APISecret: cfg.APISecret,
			Timeout:   30 * time.Second,
		})
	}

	return NewWithAPIClient(cfg, apiClient, orders, logger, tracer)
}

// NewWithAPIClient creates a new ShipStation provider with a custom API
// client. This is useful for injecting mock clients in tests.
func NewWithAPIClient(cfg Config, apiClient APIClient, orders fulfillment.OrderService, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	if cfg.WeightUnits == "" {
		cfg.WeightUnits = fulfillment.WeightOunces
	}
	if cfg.DimensionUnits == "" {
		cfg.DimensionUnits = fulfillment.DimensionInches
	}

	return &Client{
		config:    cfg,
		apiClient: apiClient,
		orders:    orders,
		logger:    logger,
		tracer:    tracer,
	}
}

// GetIdentifier returns the provider identifier.
func (c *Client) GetIdentifier() string {
	return providerName
}

// GetFulfillmentOptions returns every (carrier, service) pair the connected
// ShipStation account can ship with. Services are fetched concurrently, one
// call per carrier; per-carrier service order is preserved.
func (c *Client) GetFulfillmentOptions(ctx context.Context) ([]fulfillment.Option, error) {
	carriers, err := c.apiClient.ListCarriers(ctx)
	if err != nil {
		c.logger.Error("ShipStation API error", zap.Error(err))
		return nil, wrapAPIError("listing carriers", err)
	}

	perCarrier := make([][]fulfillment.Option, len(carriers))

	g, ctx := errgroup.WithContext(ctx)
	for i, carrier := range carriers {
		g.Go(func() error {
			services, err := c.apiClient.ListServices(ctx, carrier.Code)
			if err != nil {
				return fmt.Errorf("listing services for %s: %w", carrier.Code, err)
			}

			options := make([]fulfillment.Option, len(services))
			for j, service := range services {
				options[j] = fulfillment.Option{
					ID:          service.Code,
					CarrierCode: service.CarrierCode,
					CarrierName: carrier.Name,
					ServiceCode: service.Code,
					Name:        service.Name,
				}
			}
			perCarrier[i] = options
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.logger.Error("ShipStation API error", zap.Error(err))
		return nil, wrapAPIError("listing services", err)
	}

	var flattened []fulfillment.Option
	for _, options := range perCarrier {
		flattened = append(flattened, options...)
	}
	return flattened, nil
}

// ValidateOption reports whether the option's (service_code, carrier_code)
// pair is in the current catalog. The catalog is re-fetched on every call;
// this runs at admin configuration time, not per order.
func (c *Client) ValidateOption(ctx context.Context, option fulfillment.Option) (bool, error) {
	options, err := c.GetFulfillmentOptions(ctx)
	if err != nil {
		return false, err
	}

	for _, o := range options {
		if o.ServiceCode == option.ServiceCode && o.CarrierCode == option.CarrierCode {
			return true, nil
		}
	}
	return false, nil
}

// ValidateFulfillmentData overlays the shipping-method data onto the
// configured option data. No semantic validation is applied; the merged map
// becomes the persisted shipping-method data.
func (c *Client) ValidateFulfillmentData(optionData, data map[string]any, cart *fulfillment.Cart) (map[string]any, error) {
	merged := make(map[string]any, len(optionData)+len(data))
	for k, v := range optionData {
		merged[k] = v
	}
	for k, v := range data {
		merged[k] = v
	}
	return merged, nil
}

// CanCalculate always returns false: flat-rate shipping is assumed and
// ShipStation is never asked for live rates.
func (c *Client) CanCalculate(option fulfillment.Option) bool {
	return false
}

// CalculatePrice is never reachable given CanCalculate returns false.
func (c *Client) CalculatePrice(ctx context.Context, option fulfillment.Option, cart *fulfillment.Cart) (int64, error) {
	return 0, fmt.Errorf("calculate price: %w", fulfillment.ErrNotImplemented)
}

// CreateFulfillment builds a ShipStation order from the platform order and
// submits it. ShipStation upserts by orderKey (the fulfillment option id),
// so retried calls are safe.
func (c *Client) CreateFulfillment(ctx context.Context, methodData map[string]any, items []fulfillment.LineItem, order *fulfillment.Order, option fulfillment.Option) (map[string]any, error) {
	ssOrder := c.buildOrder(items, order, option)

	c.logger.Info("Creating ShipStation order",
		zap.String("order_id", order.ID),
		zap.String("order_key", ssOrder.OrderKey),
		zap.String("carrier_code", ssOrder.CarrierCode),
		zap.String("service_code", ssOrder.ServiceCode),
	)

	echoed, err := c.apiClient.CreateOrUpdateOrder(ctx, ssOrder)
	if err != nil {
		c.logger.Error("ShipStation API error", zap.Error(err))
		return nil, wrapAPIError("creating order", err)
	}

	return orderToMap(echoed)
}

// CreateReturn is deliberately unsupported.
func (c *Client) CreateReturn(ctx context.Context, returnData map[string]any) (map[string]any, error) {
	return nil, fmt.Errorf("create return: %w", fulfillment.ErrNotImplemented)
}

// GetFulfillmentDocuments returns no documents; packing slips and labels
// live in ShipStation itself.
func (c *Client) GetFulfillmentDocuments(ctx context.Context, data map[string]any) ([]fulfillment.Document, error) {
	return []fulfillment.Document{}, nil
}

// GetReturnDocuments returns no documents.
func (c *Client) GetReturnDocuments(ctx context.Context, data map[string]any) ([]fulfillment.Document, error) {
	return []fulfillment.Document{}, nil
}

// GetShipmentDocuments returns no documents.
func (c *Client) GetShipmentDocuments(ctx context.Context, data map[string]any) ([]fulfillment.Document, error) {
	return []fulfillment.Document{}, nil
}

// HandleWebhook processes an inbound ShipStation webhook envelope. Only
// SHIP_NOTIFY envelopes are acted on; everything else is ignored. Each
// shipment in the notification is processed independently: a failure on one
// does not abort the others, and shipments referencing unknown orders are
// skipped.
func (c *Client) HandleWebhook(ctx context.Context, envelope fulfillment.WebhookEnvelope) error {
	if c.tracer != nil {
		var span trace.Span
		ctx, span = c.tracer.Start(ctx, "shipstation.HandleWebhook")
		defer span.End()
	}

	if envelope.ResourceType != ResourceTypeShipNotify {
		c.logger.Debug("Ignoring webhook",
			zap.String("resource_type", envelope.ResourceType),
		)
		return nil
	}

	notification, err := c.apiClient.GetShipNotification(ctx, envelope.ResourceURL)
	if err != nil {
		c.logger.Error("ShipStation API error", zap.Error(err))
		return wrapAPIError("fetching ship notification", err)
	}

	orderIDs := make([]string, 0, len(notification.Shipments))
	for _, shipment := range notification.Shipments {
		orderIDs = append(orderIDs, shipment.OrderNumber)
	}

	orders, err := c.orders.ListByIDs(ctx, orderIDs, fulfillment.ListOptions{
		Take:        webhookOrderPageSize,
		NewestFirst: true,
		Relations:   orderRelations,
	})
	if err != nil {
		return fmt.Errorf("loading orders for ship notification: %w", err)
	}

	byID := make(map[string]*fulfillment.Order, len(orders))
	for _, order := range orders {
		byID[order.ID] = order
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	g, ctx := errgroup.WithContext(ctx)
	for _, shipment := range notification.Shipments {
		g.Go(func() error {
			if err := c.recordShipment(ctx, byID, shipment); err != nil {
				c.logger.Error("Failed to record shipment",
					zap.String("order_number", shipment.OrderNumber),
					zap.String("tracking_number", shipment.TrackingNumber),
					zap.Error(err),
				)
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()

	return errors.Join(errs...)
}

// recordShipment writes one shipment's tracking data back onto the matching
// platform order. A shipment referencing an order the platform does not
// know is skipped.
func (c *Client) recordShipment(ctx context.Context, byID map[string]*fulfillment.Order, shipment Shipment) error {
	order, ok := byID[shipment.OrderNumber]
	if !ok {
		c.logger.Debug("No matching order for shipment",
			zap.String("order_number", shipment.OrderNumber),
		)
		return nil
	}

	var tracking []fulfillment.TrackingNumber
	if shipment.TrackingNumber != "" {
		tracking = []fulfillment.TrackingNumber{
			{
				Number: shipment.TrackingNumber,
				URL: c.buildTrackingPageURL(trackingLinkParams{
					CarrierCode:    shipment.CarrierCode,
					OrderNumber:    shipment.OrderNumber,
					TrackingNumber: shipment.TrackingNumber,
					PostalCode:     shipment.ShipTo.PostalCode,
				}),
			},
		}
	}

	return c.orders.CreateShipment(ctx, order.ID, shipment.OrderKey, tracking)
}

// trackingLinkParams holds the query parameters of a branded tracking link.
type trackingLinkParams struct {
	CarrierCode    string
	OrderNumber    string
	TrackingNumber string
	PostalCode     string
}

// buildTrackingPageURL builds a link to ShipStation's hosted tracking page.
// The order number is base64-encoded, matching what the tracking page
// expects.
func (c *Client) buildTrackingPageURL(params trackingLinkParams) string {
	values := url.Values{}
	values.Set("carrier_code", params.CarrierCode)
	values.Set("order_number", base64.StdEncoding.EncodeToString([]byte(params.OrderNumber)))
	values.Set("tracking_number", params.TrackingNumber)
	values.Set("postal_code", params.PostalCode)
	values.Set("locale", "en")
	if c.config.BrandingID != "" {
		values.Set("branding_id", c.config.BrandingID)
	}
	return trackingPageBaseURL + "?" + values.Encode()
}

// wrapAPIError converts a remote API failure into a ProviderError, carrying
// the remote error code when one is available.
func wrapAPIError(op string, err error) error {
	code := "API_ERROR"
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		code = apiErr.Code
	}
	return fulfillment.NewProviderError(providerName, code, op).WithCause(err)
}

// ============================================================================
// Conversion helpers: platform models -> API models
// ============================================================================

func centsToDollars(cents int64) float64 {
	return float64(cents) / 100
}

func (c *Client) buildOrder(items []fulfillment.LineItem, order *fulfillment.Order, option fulfillment.Option) *Order {
	wireItems := make([]OrderItem, len(items))
	for i, item := range items {
		wireItems[i] = c.buildItem(item)
	}

	return &Order{
		OrderNumber:      order.ID,
		OrderKey:         option.ID,
		OrderDate:        order.CreatedAt.Format(time.RFC3339),
		OrderStatus:      OrderStatusAwaitingShipment,
		CustomerUsername: order.Email,
		CustomerEmail:    order.Email,
		BillTo:           buildAddress(order.BillingAddress),
		ShipTo:           buildAddress(order.ShippingAddress),
		Items:            wireItems,
		AmountPaid:       centsToDollars(order.Total),
		TaxAmount:        centsToDollars(order.TaxTotal),
		ShippingAmount:   centsToDollars(order.ShippingTotal),
		Gift:             false,
		Confirmation:     ConfirmationDelivery,
		CarrierCode:      option.CarrierCode,
		ServiceCode:      option.ServiceCode,
	}
}

func (c *Client) buildItem(item fulfillment.LineItem) OrderItem {
	return OrderItem{
		LineItemKey: item.ID,
		Quantity:    item.Quantity,
		SKU:         item.Variant.SKU,
		Name:        item.Variant.Title,
		UnitPrice:   centsToDollars(item.UnitPrice),
		ImageURL:    item.Thumbnail,
		Weight:      c.buildWeight(item.Variant.Weight),
		Options:     []ItemOption{},
	}
}

func (c *Client) buildWeight(weight float64) *Weight {
	if weight == 0 {
		return nil
	}
	return &Weight{
		Value: weight,
		Units: string(c.config.WeightUnits),
	}
}

func buildAddress(address *fulfillment.Address) *Address {
	if address == nil {
		return nil
	}
	return &Address{
		Name:        strings.TrimSpace(address.FirstName + " " + address.LastName),
		Company:     address.Company,
		Street1:     address.Address1,
		Street2:     address.Address2,
		City:        address.City,
		State:       address.Province,
		PostalCode:  address.PostalCode,
		Country:     strings.ToUpper(address.CountryCode),
		Phone:       address.Phone,
		Residential: true,
	}
}

// orderToMap converts the echoed order into the map the platform persists
// as fulfillment data.
func orderToMap(order *Order) (map[string]any, error) {
	raw, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("encoding fulfillment data: %w", err)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decoding fulfillment data: %w", err)
	}
	return data, nil
}

// Ensure Client satisfies the provider contract.
var (
	_ fulfillment.Provider       = (*Client)(nil)
	_ fulfillment.WebhookHandler = (*Client)(nil)
)
