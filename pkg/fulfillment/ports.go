package fulfillment

import (
	"context"
)

// ListOptions controls order lookups performed by a provider.
type ListOptions struct {
	Skip        int
	Take        int
	NewestFirst bool
	Relations   []string
}

// OrderService is the slice of the platform's order service a provider
// needs: bulk lookup with relation expansion, and shipment recording.
// Implementations live in the host platform; providers receive one at
// construction.
type OrderService interface {
	// ListByIDs returns the orders matching the given ids. Unknown ids are
	// omitted from the result, not an error.
	ListByIDs(ctx context.Context, ids []string, opts ListOptions) ([]*Order, error)

	// CreateShipment records a shipment on an order. fulfillmentKey
	// correlates the shipment with the fulfillment it belongs to.
	CreateShipment(ctx context.Context, orderID, fulfillmentKey string, tracking []TrackingNumber) error
}
