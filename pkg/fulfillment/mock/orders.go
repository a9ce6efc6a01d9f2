// Package mock provides mock platform services for testing providers.
package mock

import (
	"context"
	"sync"

	"github.com/tournevent/shipstation/pkg/fulfillment"
)

// ShipmentCall records a single CreateShipment invocation.
type ShipmentCall struct {
	OrderID        string
	FulfillmentKey string
	Tracking       []fulfillment.TrackingNumber
}

// OrderService is an in-memory fulfillment.OrderService for testing.
type OrderService struct {
	mu     sync.Mutex
	orders map[string]*fulfillment.Order
	calls  []ShipmentCall

	OnListByIDs      func(ctx context.Context, ids []string, opts fulfillment.ListOptions) ([]*fulfillment.Order, error)
	OnCreateShipment func(ctx context.Context, orderID, fulfillmentKey string, tracking []fulfillment.TrackingNumber) error
}

// NewOrderService creates a mock order service seeded with the given orders.
func NewOrderService(orders ...*fulfillment.Order) *OrderService {
	m := &OrderService{orders: make(map[string]*fulfillment.Order)}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

// Add seeds an additional order.
func (m *OrderService) Add(order *fulfillment.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
}

// ListByIDs returns the seeded orders matching ids. Unknown ids are omitted.
func (m *OrderService) ListByIDs(ctx context.Context, ids []string, opts fulfillment.ListOptions) ([]*fulfillment.Order, error) {
	if m.OnListByIDs != nil {
		return m.OnListByIDs(ctx, ids, opts)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*fulfillment.Order, 0, len(ids))
	for _, id := range ids {
		if o, ok := m.orders[id]; ok {
			result = append(result, o)
		}
	}
	return result, nil
}

// CreateShipment records the call.
func (m *OrderService) CreateShipment(ctx context.Context, orderID, fulfillmentKey string, tracking []fulfillment.TrackingNumber) error {
	if m.OnCreateShipment != nil {
		return m.OnCreateShipment(ctx, orderID, fulfillmentKey, tracking)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, ShipmentCall{
		OrderID:        orderID,
		FulfillmentKey: fulfillmentKey,
		Tracking:       tracking,
	})
	return nil
}

// ShipmentCalls returns all recorded CreateShipment calls.
func (m *OrderService) ShipmentCalls() []ShipmentCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]ShipmentCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// Ensure OrderService implements the interface.
var _ fulfillment.OrderService = (*OrderService)(nil)
