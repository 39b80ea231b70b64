package shopify

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/PravdaST/testograph-sync-backend/internal/domain/classify"
	"github.com/PravdaST/testograph-sync-backend/internal/domain/order"
)

// Wire types for the Admin REST API. Only the fields the reconciliation
// engine reads are mapped.

type ordersResponse struct {
	Orders []restOrder `json:"orders"`
}

type orderResponse struct {
	Order restOrder `json:"order"`
}

type restOrder struct {
	ID                int64             `json:"id"`
	Name              string            `json:"name"` // human-facing, e.g. "#1001"
	Email             string            `json:"email"`
	Phone             string            `json:"phone"`
	TotalPrice        string            `json:"total_price"`
	Currency          string            `json:"currency"`
	FinancialStatus   string            `json:"financial_status"`
	FulfillmentStatus string            `json:"fulfillment_status"` // null → ""
	Customer          *restCustomer     `json:"customer"`
	LineItems         []restLineItem    `json:"line_items"`
	Fulfillments      []restFulfillment `json:"fulfillments"`
	ShippingAddress   *restAddress      `json:"shipping_address"`
	BillingAddress    *restAddress      `json:"billing_address"`
	CreatedAt         time.Time         `json:"created_at"`
	ProcessedAt       *time.Time        `json:"processed_at"`
}

type restCustomer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type restLineItem struct {
	Title    string `json:"title"`
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

type restFulfillment struct {
	ID              int64  `json:"id"`
	Status          string `json:"status"`
	ShipmentStatus  string `json:"shipment_status"` // null → ""
	TrackingNumber  string `json:"tracking_number"`
	TrackingURL     string `json:"tracking_url"`
	TrackingCompany string `json:"tracking_company"`
}

type restAddress struct {
	Name      string `json:"name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address1  string `json:"address1"`
	City      string `json:"city"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
}

// toRecord maps a wire order onto the domain model, classifying line items
// and resolving the customer name through the fallback chain.
func (o *restOrder) toRecord(rules *classify.ProductRules) (*order.Record, error) {
	total, err := decimal.NewFromString(o.TotalPrice)
	if err != nil {
		return nil, err
	}

	rec := &order.Record{
		ID:                o.ID,
		Number:            o.Name,
		Email:             o.Email,
		Phone:             o.Phone,
		TotalPrice:        total,
		Currency:          o.Currency,
		FinancialStatus:   mapFinancialStatus(o.FinancialStatus),
		FulfillmentStatus: mapFulfillmentStatus(o.FulfillmentStatus),
		ShippingAddress:   o.ShippingAddress.toAddress(),
		BillingAddress:    o.BillingAddress.toAddress(),
		CreatedAt:         o.CreatedAt,
	}

	var customerFirst, customerLast string
	if o.Customer != nil {
		customerFirst = o.Customer.FirstName
		customerLast = o.Customer.LastName
	}
	rec.CustomerName = classify.ResolveCustomerName(
		customerFirst, customerLast, rec.ShippingAddress, rec.BillingAddress)

	if rec.FinancialStatus.Settled() && o.ProcessedAt != nil {
		t := *o.ProcessedAt
		rec.PaidAt = &t
	}

	rec.Products = make([]order.Product, 0, len(o.LineItems))
	for _, item := range o.LineItems {
		rec.Products = append(rec.Products, order.Product{
			Title:          item.Title,
			SKU:            item.SKU,
			Quantity:       item.Quantity,
			Classification: rules.Classify(item.SKU, item.Title),
		})
	}

	// The most recent fulfillment carries the tracking info. Shopify appends
	// fulfillments in creation order.
	if len(o.Fulfillments) > 0 {
		f := o.Fulfillments[len(o.Fulfillments)-1]
		rec.FulfillmentID = f.ID
		rec.TrackingNumber = f.TrackingNumber
		rec.TrackingURL = f.TrackingURL
		rec.TrackingCompany = f.TrackingCompany
		if f.ShipmentStatus == "delivered" {
			rec.FulfillmentStatus = order.FulfillmentDelivered
		}
	}

	return rec, nil
}

func (a *restAddress) toAddress() *order.Address {
	if a == nil {
		return nil
	}
	return &order.Address{
		Name:      a.Name,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Address1:  a.Address1,
		City:      a.City,
		Zip:       a.Zip,
		Country:   a.Country,
		Phone:     a.Phone,
	}
}

// mapFinancialStatus folds Shopify's wire values into the domain enum.
// "pending", "authorized" and "voided" all mean no settled payment yet.
func mapFinancialStatus(s string) order.FinancialStatus {
	switch s {
	case "paid":
		return order.FinancialPaid
	case "partially_paid":
		return order.FinancialPartiallyPaid
	case "refunded":
		return order.FinancialRefunded
	case "partially_refunded":
		return order.FinancialPartiallyRefunded
	default:
		return order.FinancialUnpaid
	}
}

func mapFulfillmentStatus(s string) order.FulfillmentStatus {
	switch s {
	case "fulfilled":
		return order.FulfillmentFulfilled
	case "partial":
		return order.FulfillmentPartial
	default:
		return order.FulfillmentNone
	}
}
