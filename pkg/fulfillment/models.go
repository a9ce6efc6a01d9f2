package fulfillment

import (
	"time"
)

// WeightUnit represents weight measurement unit.
type WeightUnit string

const (
	WeightPounds WeightUnit = "pounds"
	WeightOunces WeightUnit = "ounces"
	WeightGrams  WeightUnit = "grams"
)

// DimensionUnit represents dimension measurement unit.
type DimensionUnit string

const (
	DimensionInches      DimensionUnit = "inches"
	DimensionCentimeters DimensionUnit = "centimeters"
)

// Option is the platform-facing projection of a carrier service. It is
// recomputed on every discovery call and never persisted by the provider.
type Option struct {
	ID          string `json:"id"`
	CarrierCode string `json:"carrier_code"`
	CarrierName string `json:"carrier_name"`
	ServiceCode string `json:"service_code"`
	Name        string `json:"name"`
}

// Address is a platform-side shipping or billing address.
// All monetary and address data is owned by the platform's order store;
// providers only read it.
type Address struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Company     string `json:"company"`
	Address1    string `json:"address_1"`
	Address2    string `json:"address_2"`
	City        string `json:"city"`
	Province    string `json:"province"`
	PostalCode  string `json:"postal_code"`
	CountryCode string `json:"country_code"` // ISO 3166-1 alpha-2, any case
	Phone       string `json:"phone"`
}

// ProductVariant carries the variant fields a fulfillment needs.
type ProductVariant struct {
	SKU    string  `json:"sku"`
	Title  string  `json:"title"`
	Weight float64 `json:"weight"` // zero means unknown
}

// LineItem is a platform order line.
type LineItem struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Quantity  int            `json:"quantity"`
	UnitPrice int64          `json:"unit_price"` // minor units (cents)
	Thumbnail string         `json:"thumbnail"`
	Variant   ProductVariant `json:"variant"`
}

// Order is the platform order as seen by a provider. Money fields are in
// minor units (cents).
type Order struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	CreatedAt       time.Time  `json:"created_at"`
	Total           int64      `json:"total"`
	TaxTotal        int64      `json:"tax_total"`
	ShippingTotal   int64      `json:"shipping_total"`
	BillingAddress  *Address   `json:"billing_address"`
	ShippingAddress *Address   `json:"shipping_address"`
	Items           []LineItem `json:"items"`
}

// Cart is the platform cart a shipping method is being applied to.
type Cart struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	ShippingAddress *Address   `json:"shipping_address"`
	Items           []LineItem `json:"items"`
}

// TrackingNumber is a tracking entry recorded on a platform shipment.
type TrackingNumber struct {
	Number string `json:"tracking_number"`
	URL    string `json:"url"`
}

// Document is a fulfillment-related document (label, packing slip).
type Document struct {
	Type string
	Data []byte
}
