package storage

import (
	"time"

	"github.com/PravdaST/testograph-sync-backend/internal/domain/order"
)

// OrderPatch is a partial update to a mirrored order. Nil fields are left
// untouched; the patch never clobbers unrelated columns.
type OrderPatch struct {
	CustomerName      *string
	FinancialStatus   *order.FinancialStatus
	FulfillmentStatus *order.FulfillmentStatus
	TrackingNumber    *string
	TrackingURL       *string
	TrackingCompany   *string
	ShippingAddress   *order.Address
	Phone             *string
}

// IsEmpty reports whether the patch would change nothing.
func (p OrderPatch) IsEmpty() bool {
	return p.CustomerName == nil &&
		p.FinancialStatus == nil &&
		p.FulfillmentStatus == nil &&
		p.TrackingNumber == nil &&
		p.TrackingURL == nil &&
		p.TrackingCompany == nil &&
		p.ShippingAddress == nil &&
		p.Phone == nil
}

// RunSummary holds the per-outcome counts of a completed run.
type RunSummary struct {
	Synced        int `json:"synced"`
	AlreadySynced int `json:"already_synced"`
	Failed        int `json:"failed"`
	NoFulfillment int `json:"no_fulfillment"`
	Mirrored      int `json:"mirrored"`
}

// RunRecord is one persisted reconciliation run.
type RunRecord struct {
	ID          int64      `json:"id"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DryRun      bool       `json:"dry_run"`
	Summary     RunSummary `json:"summary"`
}

// OrderFilters defines filters for listing mirrored orders
type OrderFilters struct {
	FulfillmentStatus string // empty = all
	Limit             int    // 0 = default 50
	Offset            int
}

// OrderListResult contains paginated order results
type OrderListResult struct {
	Orders     []*order.Record `json:"orders"`
	TotalCount int             `json:"total_count"`
	Limit      int             `json:"limit"`
	Offset     int             `json:"offset"`
}
