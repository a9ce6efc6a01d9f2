package shipstation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnListCarriers        func(ctx context.Context) ([]Carrier, error)
	OnListServices        func(ctx context.Context, carrierCode string) ([]Service, error)
	OnCreateOrUpdateOrder func(ctx context.Context, order *Order) (*Order, error)
	OnGetRates            func(ctx context.Context, req *RateRequest) ([]Rate, error)
	OnGetShipNotification func(ctx context.Context, resourceURL string) (*ShipNotification, error)

	mu     sync.Mutex
	orders map[string]*Order // keyed by orderKey, mirrors ShipStation's upsert
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{
		orders: make(map[string]*Order),
	}
}

// OrderByKey returns the last upserted order for an orderKey, if any.
func (m *MockAPIClient) OrderByKey(orderKey string) (*Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderKey]
	return o, ok
}

// OrderCount returns the number of distinct orderKeys upserted.
func (m *MockAPIClient) OrderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func (m *MockAPIClient) simulate() error {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}
	if m.SimulateErrors {
		return &APIError{StatusCode: 500, Code: "MOCK_ERROR", Message: "Simulated API error"}
	}
	return nil
}

// ListCarriers returns mock carriers.
func (m *MockAPIClient) ListCarriers(ctx context.Context) ([]Carrier, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnListCarriers != nil {
		return m.OnListCarriers(ctx)
	}

	return []Carrier{
		{
			Name:               "FedEx",
			Code:               "fedex",
			AccountNumber:      "510051",
			Balance:            0,
			ShippingProviderID: 4,
			Primary:            true,
		},
		{
			Name:                  "Stamps.com",
			Code:                  "stamps_com",
			AccountNumber:         "SS123",
			RequiresFundedAccount: true,
			Balance:               24.14,
			ShippingProviderID:    1,
		},
	}, nil
}

// ListServices returns mock services for a carrier.
func (m *MockAPIClient) ListServices(ctx context.Context, carrierCode string) ([]Service, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnListServices != nil {
		return m.OnListServices(ctx, carrierCode)
	}

	switch carrierCode {
	case "fedex":
		return []Service{
			{CarrierCode: "fedex", Code: "fedex_ground", Name: "FedEx Ground", Domestic: true},
			{CarrierCode: "fedex", Code: "fedex_2day", Name: "FedEx 2Day", Domestic: true},
			{CarrierCode: "fedex", Code: "fedex_international_economy", Name: "FedEx International Economy", International: true},
		}, nil
	case "stamps_com":
		return []Service{
			{CarrierCode: "stamps_com", Code: "usps_priority_mail", Name: "USPS Priority Mail", Domestic: true},
		}, nil
	default:
		return []Service{}, nil
	}
}

// CreateOrUpdateOrder upserts an order keyed by orderKey, like the real API.
func (m *MockAPIClient) CreateOrUpdateOrder(ctx context.Context, order *Order) (*Order, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCreateOrUpdateOrder != nil {
		return m.OnCreateOrUpdateOrder(ctx, order)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	echoed := *order
	if existing, ok := m.orders[order.OrderKey]; ok {
		echoed.OrderID = existing.OrderID
	} else {
		echoed.OrderID = 100000 + len(m.orders)
	}
	m.orders[order.OrderKey] = &echoed

	result := echoed
	return &result, nil
}

// GetRates returns mock rate quotes.
func (m *MockAPIClient) GetRates(ctx context.Context, req *RateRequest) ([]Rate, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGetRates != nil {
		return m.OnGetRates(ctx, req)
	}

	return []Rate{
		{ServiceName: "FedEx Ground", ServiceCode: "fedex_ground", ShipmentCost: 11.86, OtherCost: 0},
		{ServiceName: "FedEx 2Day", ServiceCode: "fedex_2day", ShipmentCost: 27.63, OtherCost: 1.35},
	}, nil
}

// GetShipNotification returns a mock ship notification.
func (m *MockAPIClient) GetShipNotification(ctx context.Context, resourceURL string) (*ShipNotification, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGetShipNotification != nil {
		return m.OnGetShipNotification(ctx, resourceURL)
	}

	return &ShipNotification{
		Shipments: []Shipment{
			{
				ShipmentID:     331384,
				OrderID:        191977,
				OrderKey:       "fulfillment-" + uuid.New().String()[:8],
				OrderNumber:    "order_1",
				ShipDate:       time.Now().Format("2006-01-02"),
				ShipmentCost:   11.86,
				TrackingNumber: "1Z12345E0205271688",
				CarrierCode:    "fedex",
				ServiceCode:    "fedex_ground",
				PackageCode:    "package",
				Confirmation:   ConfirmationDelivery,
				ShipTo: Address{
					Name:       "Jane Smith",
					Street1:    "456 Oak Ave",
					City:       "Austin",
					State:      "TX",
					PostalCode: "78703",
					Country:    "US",
				},
			},
		},
		Total: 1,
		Page:  1,
		Pages: 1,
	}, nil
}

// Ensure MockAPIClient implements APIClient interface
var _ APIClient = (*MockAPIClient)(nil)
