// Package fulfillment defines the contract between the commerce platform
// and a fulfillment provider.
package fulfillment

import (
	"context"
)

// Provider defines the interface that a fulfillment provider must implement.
// The host platform depends only on this interface; providers are wired in
// explicitly at startup.
type Provider interface {
	// GetIdentifier returns the provider identifier (e.g., "shipstation").
	// The platform uses it to route shipping-option configuration.
	GetIdentifier() string

	// GetFulfillmentOptions returns every shipping option the provider can
	// currently fulfill with. Called before a shipping option is created in
	// the admin.
	GetFulfillmentOptions(ctx context.Context) ([]Option, error)

	// ValidateOption reports whether the given option is currently offered
	// by the provider.
	ValidateOption(ctx context.Context, option Option) (bool, error)

	// ValidateFulfillmentData merges the shipping-method data sent with a
	// cart onto the configured option data. The result is persisted on the
	// cart's shipping method.
	ValidateFulfillmentData(optionData, data map[string]any, cart *Cart) (map[string]any, error)

	// CanCalculate reports whether the provider computes live rates for the
	// given option.
	CanCalculate(option Option) bool

	// CalculatePrice computes a price for a shipping option. Only called
	// when CanCalculate returns true.
	CalculatePrice(ctx context.Context, option Option, cart *Cart) (int64, error)

	// CreateFulfillment registers a fulfillment with the remote carrier
	// system and returns whatever provider-specific data should be stored
	// on the fulfillment.
	CreateFulfillment(ctx context.Context, methodData map[string]any, items []LineItem, order *Order, option Option) (map[string]any, error)

	// CreateReturn registers a return with the remote system.
	CreateReturn(ctx context.Context, returnData map[string]any) (map[string]any, error)

	// GetFulfillmentDocuments returns documents associated with a fulfillment.
	GetFulfillmentDocuments(ctx context.Context, data map[string]any) ([]Document, error)

	// GetReturnDocuments returns documents associated with a return.
	GetReturnDocuments(ctx context.Context, data map[string]any) ([]Document, error)

	// GetShipmentDocuments returns documents associated with a shipment.
	GetShipmentDocuments(ctx context.Context, data map[string]any) ([]Document, error)
}

// WebhookHandler is implemented by providers that receive asynchronous
// callbacks from their remote system.
type WebhookHandler interface {
	// HandleWebhook processes an inbound webhook envelope.
	HandleWebhook(ctx context.Context, envelope WebhookEnvelope) error
}

// WebhookEnvelope is the payload delivered by the remote system's webhook.
type WebhookEnvelope struct {
	ResourceURL  string `json:"resource_url"`
	ResourceType string `json:"resource_type"`
}
