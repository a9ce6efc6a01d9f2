package shipstation_test

import (
	"context"
	"encoding/base64"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/shipstation/pkg/fulfillment"
	"github.com/tournevent/shipstation/pkg/fulfillment/mock"
	"github.com/tournevent/shipstation/pkg/shipstation"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func newTestClient(cfg shipstation.Config, mockAPI *shipstation.MockAPIClient, orders fulfillment.OrderService) *shipstation.Client {
	logger := otelzap.New(zap.NewNop())
	return shipstation.NewWithAPIClient(cfg, mockAPI, orders, logger, nil)
}

func testOrder() *fulfillment.Order {
	return &fulfillment.Order{
		ID:            "order_1",
		Email:         "jane@example.com",
		CreatedAt:     time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Total:         10050,
		TaxTotal:      830,
		ShippingTotal: 500,
		ShippingAddress: &fulfillment.Address{
			FirstName:   "Jane",
			LastName:    "Smith",
			Address1:    "456 Oak Ave",
			City:        "Austin",
			Province:    "TX",
			PostalCode:  "78703",
			CountryCode: "us",
			Phone:       "512-555-0123",
		},
	}
}

func testItems() []fulfillment.LineItem {
	return []fulfillment.LineItem{
		{
			ID:        "item_1",
			Title:     "T-Shirt",
			Quantity:  2,
			UnitPrice: 2500,
			Thumbnail: "https://cdn.example.com/shirt.png",
			Variant: fulfillment.ProductVariant{
				SKU:    "SHIRT-M-BLK",
				Title:  "T-Shirt / M / Black",
				Weight: 8,
			},
		},
	}
}

func TestClient_GetIdentifier(t *testing.T) {
	client := newTestClient(shipstation.Config{}, shipstation.NewMockAPIClient(), mock.NewOrderService())

	assert.Equal(t, "shipstation", client.GetIdentifier())
}

func TestClient_GetFulfillmentOptions_Flattening(t *testing.T) {
	mockAPI := shipstation.NewMockAPIClient()
	mockAPI.OnListCarriers = func(ctx context.Context) ([]shipstation.Carrier, error) {
		return []shipstation.Carrier{
			{Code: "carrier_a", Name: "Carrier A"},
			{Code: "carrier_b", Name: "Carrier B"},
		}, nil
	}
	mockAPI.OnListServices = func(ctx context.Context, carrierCode string) ([]shipstation.Service, error) {
		switch carrierCode {
		case "carrier_a":
			return []shipstation.Service{
				{CarrierCode: "carrier_a", Code: "s1", Name: "Service 1"},
				{CarrierCode: "carrier_a", Code: "s2", Name: "Service 2"},
			}, nil
		case "carrier_b":
			return []shipstation.Service{
				{CarrierCode: "carrier_b", Code: "s3", Name: "Service 3"},
			}, nil
		}
		return nil, nil
	}

	client := newTestClient(shipstation.Config{}, mockAPI, mock.NewOrderService())

	options, err := client.GetFulfillmentOptions(context.Background())

	require.NoError(t, err)
	require.Len(t, options, 3)
	assert.Equal(t, []string{"s1", "s2", "s3"}, []string{options[0].ID, options[1].ID, options[2].ID})
	assert.Equal(t, "Carrier A", options[0].CarrierName)
	assert.Equal(t, "Carrier A", options[1].CarrierName)
	assert.Equal(t, "Carrier B", options[2].CarrierName)
	assert.Equal(t, "carrier_b", options[2].CarrierCode)
	assert.Equal(t, "Service 3", options[2].Name)
}

func TestClient_GetFulfillmentOptions_EmptyCatalog(t *testing.T) {
	mockAPI := shipstation.NewMockAPIClient()
	mockAPI.OnListCarriers = func(ctx context.Context) ([]shipstation.Carrier, error) {
		return []shipstation.Carrier{}, nil
	}

	client := newTestClient(shipstation.Config{}, mockAPI, mock.NewOrderService())

	options, err := client.GetFulfillmentOptions(context.Background())

	require.NoError(t, err)
	assert.Empty(t, options)
}

func TestClient_GetFulfillmentOptions_ServiceError(t *testing.T) {
	mockAPI := shipstation.NewMockAPIClient()
	mockAPI.OnListServices = func(ctx context.Context, carrierCode string) ([]shipstation.Service, error) {
		return nil, &shipstation.APIError{StatusCode: 500, Code: "DOWN", Message: "unavailable"}
	}

	client := newTestClient(shipstation.Config{}, mockAPI, mock.NewOrderService())

	_, err := client.GetFulfillmentOptions(context.Background())

	var provErr *fulfillment.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "shipstation", provErr.Provider)
	assert.Equal(t, "DOWN", provErr.Code)
}

func TestClient_ValidateOption(t *testing.T) {
	client := newTestClient(shipstation.Config{}, shipstation.NewMockAPIClient(), mock.NewOrderService())
	ctx := context.Background()

	ok, err := client.ValidateOption(ctx, fulfillment.Option{
		CarrierCode: "fedex",
		ServiceCode: "fedex_ground",
	})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.ValidateOption(ctx, fulfillment.Option{
		CarrierCode: "fedex",
		ServiceCode: "usps_priority_mail", // wrong carrier for this service
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_ValidateOption_EmptyCatalog(t *testing.T) {
	mockAPI := shipstation.NewMockAPIClient()
	mockAPI.OnListCarriers = func(ctx context.Context) ([]shipstation.Carrier, error) {
		return nil, nil
	}

	client := newTestClient(shipstation.Config{}, mockAPI, mock.NewOrderService())

	ok, err := client.ValidateOption(context.Background(), fulfillment.Option{
		CarrierCode: "fedex",
		ServiceCode: "fedex_ground",
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_ValidateFulfillmentData_Merge(t *testing.T) {
	client := newTestClient(shipstation.Config{}, shipstation.NewMockAPIClient(), mock.NewOrderService())

	optionData := map[string]any{"carrier_code": "fedex", "service_code": "fedex_ground"}
	data := map[string]any{"service_code": "fedex_2day", "drop_point": "dp_1"}

	merged, err := client.ValidateFulfillmentData(optionData, data, &fulfillment.Cart{})

	require.NoError(t, err)
	assert.Equal(t, "fedex", merged["carrier_code"])
	assert.Equal(t, "fedex_2day", merged["service_code"]) // data wins
	assert.Equal(t, "dp_1", merged["drop_point"])
	// inputs are not mutated
	assert.Equal(t, "fedex_ground", optionData["service_code"])
}

func TestClient_CanCalculate(t *testing.T) {
	client := newTestClient(shipstation.Config{}, shipstation.NewMockAPIClient(), mock.NewOrderService())

	assert.False(t, client.CanCalculate(fulfillment.Option{ServiceCode: "fedex_ground"}))
}

func TestClient_CalculatePrice_NotImplemented(t *testing.T) {
	client := newTestClient(shipstation.Config{}, shipstation.NewMockAPIClient(), mock.NewOrderService())

	_, err := client.CalculatePrice(context.Background(), fulfillment.Option{}, &fulfillment.Cart{})

	assert.ErrorIs(t, err, fulfillment.ErrNotImplemented)
}

func TestClient_CreateReturn_NotImplemented(t *testing.T) {
	client := newTestClient(shipstation.Config{}, shipstation.NewMockAPIClient(), mock.NewOrderService())

	_, err := client.CreateReturn(context.Background(), map[string]any{})

	assert.ErrorIs(t, err, fulfillment.ErrNotImplemented)
}

func TestClient_DocumentStubs(t *testing.T) {
	client := newTestClient(shipstation.Config{}, shipstation.NewMockAPIClient(), mock.NewOrderService())
	ctx := context.Background()

	docs, err := client.GetFulfillmentDocuments(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, docs)

	docs, err = client.GetReturnDocuments(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, docs)

	docs, err = client.GetShipmentDocuments(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestClient_CreateFulfillment_Mapping(t *testing.T) {
	mockAPI := shipstation.NewMockAPIClient()
	var submitted *shipstation.Order
	mockAPI.OnCreateOrUpdateOrder = func(ctx context.Context, order *shipstation.Order) (*shipstation.Order, error) {
		submitted = order
		echoed := *order
		return &echoed, nil
	}

	client := newTestClient(shipstation.Config{WeightUnits: fulfillment.WeightOunces}, mockAPI, mock.NewOrderService())

	option := fulfillment.Option{
		ID:          "fedex_ground",
		CarrierCode: "fedex",
		ServiceCode: "fedex_ground",
	}

	_, err := client.CreateFulfillment(context.Background(), nil, testItems(), testOrder(), option)
	require.NoError(t, err)

	require.NotNil(t, submitted)
	assert.Equal(t, "order_1", submitted.OrderNumber)
	assert.Equal(t, "fedex_ground", submitted.OrderKey)
	assert.Equal(t, "awaiting_shipment", submitted.OrderStatus)
	assert.Equal(t, "delivery", submitted.Confirmation)
	assert.Equal(t, "fedex", submitted.CarrierCode)
	assert.Equal(t, "fedex_ground", submitted.ServiceCode)
	assert.Equal(t, "jane@example.com", submitted.CustomerEmail)

	assert.InDelta(t, 100.50, submitted.AmountPaid, 1e-9)
	assert.InDelta(t, 8.30, submitted.TaxAmount, 1e-9)
	assert.InDelta(t, 5.00, submitted.ShippingAmount, 1e-9)

	require.Len(t, submitted.Items, 1)
	item := submitted.Items[0]
	assert.Equal(t, "item_1", item.LineItemKey)
	assert.Equal(t, "SHIRT-M-BLK", item.SKU)
	assert.Equal(t, "T-Shirt / M / Black", item.Name)
	assert.Equal(t, 2, item.Quantity)
	assert.InDelta(t, 25.00, item.UnitPrice, 1e-9)
	assert.Equal(t, "https://cdn.example.com/shirt.png", item.ImageURL)
	assert.Empty(t, item.Options)
	require.NotNil(t, item.Weight)
	assert.Equal(t, float64(8), item.Weight.Value)
	assert.Equal(t, "ounces", item.Weight.Units)

	require.NotNil(t, submitted.ShipTo)
	assert.Equal(t, "Jane Smith", submitted.ShipTo.Name)
	assert.Equal(t, "US", submitted.ShipTo.Country)
	assert.True(t, submitted.ShipTo.Residential)
	assert.Equal(t, "TX", submitted.ShipTo.State)
	assert.Nil(t, submitted.BillTo)
}

func TestClient_CreateFulfillment_ZeroMoneyAndWeight(t *testing.T) {
	mockAPI := shipstation.NewMockAPIClient()
	var submitted *shipstation.Order
	mockAPI.OnCreateOrUpdateOrder = func(ctx context.Context, order *shipstation.Order) (*shipstation.Order, error) {
		submitted = order
		return order, nil
	}

	client := newTestClient(shipstation.Config{}, mockAPI, mock.NewOrderService())

	order := testOrder()
	order.Total = 0
	order.TaxTotal = 0
	items := testItems()
	items[0].Variant.Weight = 0

	_, err := client.CreateFulfillment(context.Background(), nil, items, order, fulfillment.Option{ID: "opt"})
	require.NoError(t, err)

	assert.Zero(t, submitted.AmountPaid)
	assert.Zero(t, submitted.TaxAmount)
	assert.Nil(t, submitted.Items[0].Weight)
}

func TestClient_CreateFulfillment_WeightUnitDefaults(t *testing.T) {
	mockAPI := shipstation.NewMockAPIClient()
	var submitted *shipstation.Order
	mockAPI.OnCreateOrUpdateOrder = func(ctx context.Context, order *shipstation.Order) (*shipstation.Order, error) {
		submitted = order
		return order, nil
	}

	// No units configured: defaults to ounces.
	client := newTestClient(shipstation.Config{}, mockAPI, mock.NewOrderService())

	_, err := client.CreateFulfillment(context.Background(), nil, testItems(), testOrder(), fulfillment.Option{ID: "opt"})
	require.NoError(t, err)
	assert.Equal(t, "ounces", submitted.Items[0].Weight.Units)

	client = newTestClient(shipstation.Config{WeightUnits: fulfillment.WeightGrams}, mockAPI, mock.NewOrderService())

	_, err = client.CreateFulfillment(context.Background(), nil, testItems(), testOrder(), fulfillment.Option{ID: "opt"})
	require.NoError(t, err)
	assert.Equal(t, "grams", submitted.Items[0].Weight.Units)
}

func TestClient_CreateFulfillment_Idempotent(t *testing.T) {
	mockAPI := shipstation.NewMockAPIClient()
	client := newTestClient(shipstation.Config{}, mockAPI, mock.NewOrderService())

	option := fulfillment.Option{ID: "fedex_ground", CarrierCode: "fedex", ServiceCode: "fedex_ground"}

	_, err := client.CreateFulfillment(context.Background(), nil, testItems(), testOrder(), option)
	require.NoError(t, err)
	_, err = client.CreateFulfillment(context.Background(), nil, testItems(), testOrder(), option)
	require.NoError(t, err)

	// Two calls with the same orderKey upsert a single logical order.
	assert.Equal(t, 1, mockAPI.OrderCount())
	stored, ok := mockAPI.OrderByKey("fedex_ground")
	require.True(t, ok)
	assert.Equal(t, "order_1", stored.OrderNumber)
}

func TestClient_CreateFulfillment_RemoteError(t *testing.T) {
	mockAPI := shipstation.NewMockAPIClient()
	mockAPI.SimulateErrors = true

	client := newTestClient(shipstation.Config{}, mockAPI, mock.NewOrderService())

	_, err := client.CreateFulfillment(context.Background(), nil, testItems(), testOrder(), fulfillment.Option{ID: "opt"})

	// The API error surfaces wrapped in a ProviderError carrying its code.
	var provErr *fulfillment.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "shipstation", provErr.Provider)
	assert.Equal(t, "MOCK_ERROR", provErr.Code)

	var apiErr *shipstation.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "MOCK_ERROR", apiErr.Code)
}

func TestClient_HandleWebhook_ShipNotify(t *testing.T) {
	mockAPI := shipstation.NewMockAPIClient()
	var fetchedURL string
	mockAPI.OnGetShipNotification = func(ctx context.Context, resourceURL string) (*shipstation.ShipNotification, error) {
		fetchedURL = resourceURL
		return &shipstation.ShipNotification{
			Shipments: []shipstation.Shipment{
				{
					OrderNumber:    "order_1",
					OrderKey:       "ord-key-1",
					TrackingNumber: "1Z999",
					CarrierCode:    "fedex",
					ShipTo:         shipstation.Address{PostalCode: "78703"},
				},
			},
			Total: 1, Page: 1, Pages: 1,
		}, nil
	}

	orders := mock.NewOrderService(testOrder())
	client := newTestClient(shipstation.Config{}, mockAPI, orders)

	err := client.HandleWebhook(context.Background(), fulfillment.WebhookEnvelope{
		ResourceURL:  "https://x/y",
		ResourceType: "SHIP_NOTIFY",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://x/y", fetchedURL)

	calls := orders.ShipmentCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "order_1", calls[0].OrderID)
	assert.Equal(t, "ord-key-1", calls[0].FulfillmentKey)
	require.Len(t, calls[0].Tracking, 1)
	assert.Equal(t, "1Z999", calls[0].Tracking[0].Number)

	// The base64 padding is percent-escaped in the raw link, so assert on
	// the decoded query parameters.
	link, err := url.Parse(calls[0].Tracking[0].URL)
	require.NoError(t, err)
	query := link.Query()

	assert.Equal(t, "https://trackshipment.shipstation.com/", link.Scheme+"://"+link.Host+link.Path)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("order_1")), query.Get("order_number"))
	assert.NotContains(t, calls[0].Tracking[0].URL, "order_number=order_1")
	assert.Equal(t, "fedex", query.Get("carrier_code"))
	assert.Equal(t, "1Z999", query.Get("tracking_number"))
	assert.Equal(t, "78703", query.Get("postal_code"))
	assert.Equal(t, "en", query.Get("locale"))
	assert.False(t, query.Has("branding_id"))
}

func TestClient_HandleWebhook_BrandingID(t *testing.T) {
	mockAPI := shipstation.NewMockAPIClient()
	mockAPI.OnGetShipNotification = func(ctx context.Context, resourceURL string) (*shipstation.ShipNotification, error) {
		return &shipstation.ShipNotification{
			Shipments: []shipstation.Shipment{
				{OrderNumber: "order_1", OrderKey: "k", TrackingNumber: "TN1"},
			},
		}, nil
	}

	orders := mock.NewOrderService(testOrder())
	client := newTestClient(shipstation.Config{BrandingID: "brand_42"}, mockAPI, orders)

	err := client.HandleWebhook(context.Background(), fulfillment.WebhookEnvelope{
		ResourceURL:  "https://x/y",
		ResourceType: "SHIP_NOTIFY",
	})
	require.NoError(t, err)

	calls := orders.ShipmentCalls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Tracking[0].URL, "branding_id=brand_42")
}

func TestClient_HandleWebhook_IgnoresOtherResourceTypes(t *testing.T) {
	mockAPI := shipstation.NewMockAPIClient()
	fetches := 0
	mockAPI.OnGetShipNotification = func(ctx context.Context, resourceURL string) (*shipstation.ShipNotification, error) {
		fetches++
		return &shipstation.ShipNotification{}, nil
	}

	orders := mock.NewOrderService(testOrder())
	client := newTestClient(shipstation.Config{}, mockAPI, orders)

	err := client.HandleWebhook(context.Background(), fulfillment.WebhookEnvelope{
		ResourceURL:  "https://x/y",
		ResourceType: "ITEM_ORDER_NOTIFY",
	})

	require.NoError(t, err)
	assert.Zero(t, fetches)
	assert.Empty(t, orders.ShipmentCalls())
}

func TestClient_HandleWebhook_SkipsUnknownOrders(t *testing.T) {
	mockAPI := shipstation.NewMockAPIClient()
	mockAPI.OnGetShipNotification = func(ctx context.Context, resourceURL string) (*shipstation.ShipNotification, error) {
		return &shipstation.ShipNotification{
			Shipments: []shipstation.Shipment{
				{OrderNumber: "order_1", OrderKey: "k1", TrackingNumber: "TN1"},
				{OrderNumber: "order_unknown", OrderKey: "k2", TrackingNumber: "TN2"},
			},
		}, nil
	}

	orders := mock.NewOrderService(testOrder())
	client := newTestClient(shipstation.Config{}, mockAPI, orders)

	err := client.HandleWebhook(context.Background(), fulfillment.WebhookEnvelope{
		ResourceURL:  "https://x/y",
		ResourceType: "SHIP_NOTIFY",
	})
	require.NoError(t, err)

	calls := orders.ShipmentCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "order_1", calls[0].OrderID)
}

func TestClient_HandleWebhook_EmptyTrackingNumber(t *testing.T) {
	mockAPI := shipstation.NewMockAPIClient()
	mockAPI.OnGetShipNotification = func(ctx context.Context, resourceURL string) (*shipstation.ShipNotification, error) {
		return &shipstation.ShipNotification{
			Shipments: []shipstation.Shipment{
				{OrderNumber: "order_1", OrderKey: "k1", TrackingNumber: ""},
			},
		}, nil
	}

	orders := mock.NewOrderService(testOrder())
	client := newTestClient(shipstation.Config{}, mockAPI, orders)

	err := client.HandleWebhook(context.Background(), fulfillment.WebhookEnvelope{
		ResourceURL:  "https://x/y",
		ResourceType: "SHIP_NOTIFY",
	})
	require.NoError(t, err)

	// The shipment is still recorded, with no tracking entries.
	calls := orders.ShipmentCalls()
	require.Len(t, calls, 1)
	assert.Empty(t, calls[0].Tracking)
}

func TestClient_HandleWebhook_PerShipmentIsolation(t *testing.T) {
	mockAPI := shipstation.NewMockAPIClient()
	mockAPI.OnGetShipNotification = func(ctx context.Context, resourceURL string) (*shipstation.ShipNotification, error) {
		return &shipstation.ShipNotification{
			Shipments: []shipstation.Shipment{
				{OrderNumber: "order_1", OrderKey: "k1", TrackingNumber: "TN1"},
				{OrderNumber: "order_2", OrderKey: "k2", TrackingNumber: "TN2"},
			},
		}, nil
	}

	orderTwo := testOrder()
	orderTwo.ID = "order_2"
	orders := mock.NewOrderService(testOrder(), orderTwo)

	recorded := make(map[string]bool)
	orders.OnCreateShipment = func(ctx context.Context, orderID, fulfillmentKey string, tracking []fulfillment.TrackingNumber) error {
		if orderID == "order_1" {
			return errors.New("shipment write failed")
		}
		recorded[orderID] = true
		return nil
	}

	client := newTestClient(shipstation.Config{}, mockAPI, orders)

	err := client.HandleWebhook(context.Background(), fulfillment.WebhookEnvelope{
		ResourceURL:  "https://x/y",
		ResourceType: "SHIP_NOTIFY",
	})

	// The failure surfaces, but the other shipment was still processed.
	assert.Error(t, err)
	assert.True(t, recorded["order_2"])
}

func TestClient_HandleWebhook_FetchError(t *testing.T) {
	mockAPI := shipstation.NewMockAPIClient()
	mockAPI.SimulateErrors = true

	client := newTestClient(shipstation.Config{}, mockAPI, mock.NewOrderService())

	err := client.HandleWebhook(context.Background(), fulfillment.WebhookEnvelope{
		ResourceURL:  "https://x/y",
		ResourceType: "SHIP_NOTIFY",
	})

	assert.Error(t, err)
}
