// Package order defines the shared order model that the Shopify client,
// the mirror store, and the reconciliation engine all speak.
//
// An order exists in three systems at once: Shopify (payment and fulfillment
// truth), Speedy (physical delivery truth), and the local mirror. The types
// here carry the superset of fields the engine needs to compare them.
package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// FinancialStatus is the payment state as reported by the order system.
type FinancialStatus string

const (
	FinancialUnpaid            FinancialStatus = "unpaid"
	FinancialPaid              FinancialStatus = "paid"
	FinancialPartiallyPaid     FinancialStatus = "partially_paid"
	FinancialRefunded          FinancialStatus = "refunded"
	FinancialPartiallyRefunded FinancialStatus = "partially_refunded"
)

// Settled reports whether no payment correction is needed. Refunded orders
// count as settled: money already moved, reconciliation must not touch them.
func (s FinancialStatus) Settled() bool {
	switch s {
	case FinancialPaid, FinancialPartiallyPaid, FinancialRefunded, FinancialPartiallyRefunded:
		return true
	}
	return false
}

// FulfillmentStatus is the shipping state as reported by the order system.
type FulfillmentStatus string

const (
	FulfillmentNone      FulfillmentStatus = "unfulfilled"
	FulfillmentPartial   FulfillmentStatus = "partial"
	FulfillmentFulfilled FulfillmentStatus = "fulfilled"
	FulfillmentDelivered FulfillmentStatus = "delivered"
)

// Classification tags a line item as a trial pack or a full product.
type Classification string

const (
	ClassTrial Classification = "trial"
	ClassFull  Classification = "full"
)

// Product is one line item on an order.
type Product struct {
	Title          string         `json:"title"`
	SKU            string         `json:"sku"`
	Quantity       int            `json:"quantity"`
	Classification Classification `json:"classification"`
}

// Address is a structured shipping or billing address.
type Address struct {
	Name      string `json:"name,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Address1  string `json:"address1,omitempty"`
	City      string `json:"city,omitempty"`
	Zip       string `json:"zip,omitempty"`
	Country   string `json:"country,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Record is the logical order being reconciled. ID has identical meaning in
// the order system and the mirror store; there is no translation layer.
type Record struct {
	ID                int64
	Number            string
	Email             string
	CustomerName      string
	TotalPrice        decimal.Decimal
	Currency          string
	FinancialStatus   FinancialStatus
	FulfillmentStatus FulfillmentStatus

	// FulfillmentID is the order system's fulfillment record id, 0 when the
	// order has no fulfillment at all.
	FulfillmentID   int64
	TrackingNumber  string
	TrackingURL     string
	TrackingCompany string

	Products        []Product
	ShippingAddress *Address
	BillingAddress  *Address
	Phone           string

	CreatedAt time.Time
	PaidAt    *time.Time
}

// HasTracking reports whether the order carries a courier-trackable shipment.
func (r *Record) HasTracking() bool {
	return r.TrackingNumber != ""
}

// ShipmentStatus is one courier tracking result. StatusText is free text in
// whatever language the courier returns; it is never an enum on the wire.
type ShipmentStatus struct {
	TrackingNumber string
	StatusText     string
	DeliveredAt    *time.Time
}
