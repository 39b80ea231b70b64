package dto

import "time"

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// MessageResponse is a simple confirmation body.
type MessageResponse struct {
	Message string `json:"message"`
}

// ProductResponse represents one line item on a mirrored order. Capsules is
// the per-unit capsule count implied by the trial/full classification.
type ProductResponse struct {
	Title          string `json:"title"`
	SKU            string `json:"sku,omitempty"`
	Quantity       int    `json:"quantity"`
	Classification string `json:"classification"`
	Capsules       int    `json:"capsules"`
}

// AddressResponse represents a shipping address in API responses.
type AddressResponse struct {
	Name     string `json:"name,omitempty"`
	Address1 string `json:"address1,omitempty"`
	City     string `json:"city,omitempty"`
	Zip      string `json:"zip,omitempty"`
	Country  string `json:"country,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// OrderResponse represents a mirrored order in API responses.
type OrderResponse struct {
	ID                int64             `json:"id"`
	Number            string            `json:"number"`
	Email             string            `json:"email,omitempty"`
	CustomerName      string            `json:"customer_name,omitempty"`
	TotalPrice        string            `json:"total_price"`
	Currency          string            `json:"currency"`
	FinancialStatus   string            `json:"financial_status"`
	FulfillmentStatus string            `json:"fulfillment_status"`
	TrackingNumber    string            `json:"tracking_number,omitempty"`
	TrackingURL       string            `json:"tracking_url,omitempty"`
	TrackingCompany   string            `json:"tracking_company,omitempty"`
	Phone             string            `json:"phone,omitempty"`
	Products          []ProductResponse `json:"products,omitempty"`
	ShippingAddress   *AddressResponse  `json:"shipping_address,omitempty"`
	CreatedAt         string            `json:"created_at"`
	PaidAt            *string           `json:"paid_at,omitempty"`
}

// OrderListResponse is returned when listing mirrored orders.
type OrderListResponse struct {
	Orders     []OrderResponse `json:"orders"`
	TotalCount int             `json:"total_count"`
	Limit      int             `json:"limit"`
	Offset     int             `json:"offset"`
}

// RunResponse represents a persisted reconciliation run.
type RunResponse struct {
	ID            int64   `json:"id"`
	StartedAt     string  `json:"started_at"`
	CompletedAt   *string `json:"completed_at,omitempty"`
	DryRun        bool    `json:"dry_run"`
	Synced        int     `json:"synced"`
	AlreadySynced int     `json:"already_synced"`
	Failed        int     `json:"failed"`
	NoFulfillment int     `json:"no_fulfillment"`
	Mirrored      int     `json:"mirrored"`
}

// RunListResponse is returned when listing reconciliation runs.
type RunListResponse struct {
	Runs  []RunResponse `json:"runs"`
	Count int           `json:"count"`
}
