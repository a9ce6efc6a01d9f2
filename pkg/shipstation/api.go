package shipstation

import (
	"context"
)

// APIClient defines the interface for ShipStation API operations.
// This abstraction allows for mock implementations during testing
// and real implementations in production.
type APIClient interface {
	// ListCarriers fetches all carriers connected to the account.
	ListCarriers(ctx context.Context) ([]Carrier, error)

	// ListServices fetches the services offered by one carrier.
	ListServices(ctx context.Context, carrierCode string) ([]Service, error)

	// CreateOrUpdateOrder creates an order, or updates it when an order
	// with the same orderKey already exists.
	CreateOrUpdateOrder(ctx context.Context, order *Order) (*Order, error)

	// GetRates fetches shipping rates for a prospective shipment.
	GetRates(ctx context.Context, req *RateRequest) ([]Rate, error)

	// GetShipNotification dereferences the resource_url delivered in a
	// SHIP_NOTIFY webhook envelope.
	GetShipNotification(ctx context.Context, resourceURL string) (*ShipNotification, error)
}

// ============================================================================
// API Request/Response Types (match ShipStation REST API v1 structure)
// ============================================================================

// Carrier represents a carrier account connected to ShipStation.
// GET /carriers endpoint
type Carrier struct {
	Name                  string  `json:"name"`
	Code                  string  `json:"code"`
	AccountNumber         string  `json:"accountNumber"`
	RequiresFundedAccount bool    `json:"requiresFundedAccount"`
	Balance               float64 `json:"balance"`
	Nickname              *string `json:"nickname"`
	ShippingProviderID    int     `json:"shippingProviderId"`
	Primary               bool    `json:"primary"`
}

// Service represents a shipping service offered by a carrier.
// GET /carriers/listservices endpoint
type Service struct {
	CarrierCode   string `json:"carrierCode"`
	Code          string `json:"code"`
	Name          string `json:"name"`
	Domestic      bool   `json:"domestic"`
	International bool   `json:"international"`
}

// Weight represents a package weight.
type Weight struct {
	Value float64 `json:"value"`
	Units string  `json:"units"` // "pounds", "ounces", "grams"
}

// Dimensions represents package dimensions.
type Dimensions struct {
	Units  string  `json:"units"` // "inches", "centimeters"
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Address represents a ShipStation address. The name is a single
// concatenated field; state and country are flattened strings.
type Address struct {
	Name        string `json:"name"`
	Company     string `json:"company,omitempty"`
	Street1     string `json:"street1"`
	Street2     string `json:"street2,omitempty"`
	Street3     string `json:"street3,omitempty"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postalCode"`
	Country     string `json:"country"` // ISO 3166-1 alpha-2, uppercase
	Phone       string `json:"phone,omitempty"`
	Residential bool   `json:"residential"`
}

// ItemOption is a variant option on an order item.
type ItemOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// OrderItem represents a line on a ShipStation order.
type OrderItem struct {
	LineItemKey       string       `json:"lineItemKey"`
	SKU               string       `json:"sku"`
	Name              string       `json:"name"`
	ImageURL          string       `json:"imageUrl,omitempty"`
	Weight            *Weight      `json:"weight,omitempty"`
	Quantity          int          `json:"quantity"`
	UnitPrice         float64      `json:"unitPrice"` // major units (dollars)
	TaxAmount         float64      `json:"taxAmount,omitempty"`
	ShippingAmount    float64      `json:"shippingAmount,omitempty"`
	WarehouseLocation string       `json:"warehouseLocation,omitempty"`
	Options           []ItemOption `json:"options"`
	ProductID         int          `json:"productId,omitempty"`
	FulfillmentSKU    string       `json:"fulfillmentSku,omitempty"`
	Adjustment        bool         `json:"adjustment,omitempty"`
	UPC               string       `json:"upc,omitempty"`
}

// Order statuses accepted at order creation.
const (
	OrderStatusAwaitingShipment = "awaiting_shipment"
	OrderStatusAwaitingPayment  = "awaiting_payment"
)

// Confirmation types.
const (
	ConfirmationNone           = "none"
	ConfirmationDelivery       = "delivery"
	ConfirmationSignature      = "signature"
	ConfirmationAdultSignature = "adult_signature"
)

// Order represents a ShipStation order. Money fields are in major units
// (dollars). orderKey is the caller-chosen idempotency/correlation handle:
// ShipStation upserts by it and echoes it back on shipment notifications.
// POST /orders/createorder endpoint
type Order struct {
	OrderID                  int         `json:"orderId,omitempty"`
	OrderNumber              string      `json:"orderNumber,omitempty"`
	OrderKey                 string      `json:"orderKey,omitempty"`
	OrderDate                string      `json:"orderDate,omitempty"`
	PaymentDate              string      `json:"paymentDate,omitempty"`
	ShipByDate               string      `json:"shipByDate,omitempty"`
	OrderStatus              string      `json:"orderStatus"`
	CustomerUsername         string      `json:"customerUsername"`
	CustomerEmail            string      `json:"customerEmail"`
	BillTo                   *Address    `json:"billTo"`
	ShipTo                   *Address    `json:"shipTo"`
	Items                    []OrderItem `json:"items"`
	AmountPaid               float64     `json:"amountPaid"`
	TaxAmount                float64     `json:"taxAmount"`
	ShippingAmount           float64     `json:"shippingAmount"`
	CustomerNotes            string      `json:"customerNotes,omitempty"`
	InternalNotes            string      `json:"internalNotes,omitempty"`
	Gift                     bool        `json:"gift"`
	GiftMessage              string      `json:"giftMessage,omitempty"`
	PaymentMethod            string      `json:"paymentMethod,omitempty"`
	RequestedShippingService string      `json:"requestedShippingService,omitempty"`
	CarrierCode              string      `json:"carrierCode,omitempty"`
	ServiceCode              string      `json:"serviceCode,omitempty"`
	PackageCode              string      `json:"packageCode,omitempty"`
	Confirmation             string      `json:"confirmation"`
	ShipDate                 string      `json:"shipDate,omitempty"`
	Weight                   *Weight     `json:"weight,omitempty"`
	Dimensions               *Dimensions `json:"dimensions,omitempty"`
	TagIDs                   []int       `json:"tagIds,omitempty"`
}

// RateRequest represents a rate quote request.
// POST /shipments/getrates endpoint
type RateRequest struct {
	CarrierCode    string      `json:"carrierCode"`
	ServiceCode    string      `json:"serviceCode,omitempty"`
	PackageCode    string      `json:"packageCode,omitempty"`
	FromPostalCode string      `json:"fromPostalCode"`
	ToState        string      `json:"toState"`
	ToCountry      string      `json:"toCountry"`
	ToPostalCode   string      `json:"toPostalCode"`
	ToCity         string      `json:"toCity"`
	Weight         Weight      `json:"weight"`
	Dimensions     *Dimensions `json:"dimensions,omitempty"`
	Confirmation   string      `json:"confirmation"`
	Residential    bool        `json:"residential"`
}

// Rate represents a single rate quote.
type Rate struct {
	ServiceName  string  `json:"serviceName"`
	ServiceCode  string  `json:"serviceCode"`
	ShipmentCost float64 `json:"shipmentCost"`
	OtherCost    float64 `json:"otherCost"`
}

// Shipment represents a shipment record delivered in a ship notification.
// orderNumber carries the platform order id; orderKey carries the
// fulfillment correlation handle supplied at order creation.
type Shipment struct {
	ShipmentID     int         `json:"shipmentId"`
	OrderID        int         `json:"orderId"`
	OrderKey       string      `json:"orderKey"`
	UserID         string      `json:"userId"`
	OrderNumber    string      `json:"orderNumber"`
	CreateDate     string      `json:"createDate"`
	ShipDate       string      `json:"shipDate"`
	ShipmentCost   float64     `json:"shipmentCost"`
	InsuranceCost  float64     `json:"insuranceCost"`
	TrackingNumber string      `json:"trackingNumber"`
	IsReturnLabel  bool        `json:"isReturnLabel"`
	BatchNumber    string      `json:"batchNumber,omitempty"`
	CarrierCode    string      `json:"carrierCode"`
	ServiceCode    string      `json:"serviceCode"`
	PackageCode    string      `json:"packageCode"`
	Confirmation   string      `json:"confirmation"`
	WarehouseID    int         `json:"warehouseId,omitempty"`
	Voided         bool        `json:"voided"`
	VoidDate       *string     `json:"voidDate"`
	ShipTo         Address     `json:"shipTo"`
	Weight         *Weight     `json:"weight,omitempty"`
	Dimensions     *Dimensions `json:"dimensions,omitempty"`
}

// ShipNotification is the paged shipment listing a SHIP_NOTIFY webhook's
// resource_url resolves to.
type ShipNotification struct {
	Shipments []Shipment `json:"shipments"`
	Total     int        `json:"total"`
	Page      int        `json:"page"`
	Pages     int        `json:"pages"`
}

// Webhook resource types.
const (
	ResourceTypeShipNotify = "SHIP_NOTIFY"
)

// APIError represents an error from the ShipStation API.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}
