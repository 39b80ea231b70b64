// Package reconcile implements the order lifecycle reconciliation engine:
// it detects drift between the order system, the courier tracking service
// and the local mirror, then applies idempotent corrective actions one
// order at a time.
package reconcile

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/PravdaST/testograph-sync-backend/internal/domain/order"
	"github.com/PravdaST/testograph-sync-backend/internal/infrastructure/storage"
)

// Options holds per-run configuration.
type Options struct {
	// DryRun computes and reports every decision without issuing any
	// external write. Decisions are identical to a live run.
	DryRun bool

	// OrderID scopes the run to a single order for targeted debugging.
	// 0 = all orders.
	OrderID int64
}

// OutcomeStatus is the final classification of one order's sync cycle.
type OutcomeStatus string

const (
	// StatusSynced means at least one corrective action succeeded this cycle.
	StatusSynced OutcomeStatus = "synced"
	// StatusAlreadySynced means both delivery and payment were already in
	// the target state; the cycle was a no-op.
	StatusAlreadySynced OutcomeStatus = "already_synced"
	// StatusFailed means at least one sub-decision errored.
	StatusFailed OutcomeStatus = "failed"
	// StatusNoFulfillment means the order system has no fulfillment record
	// at all, so there is nothing to mark delivered against.
	StatusNoFulfillment OutcomeStatus = "no_fulfillment"
)

// Outcome is the result of reconciling one order. It is a pure function of
// the order + shipment snapshot at evaluation time: re-running with
// unchanged upstream state reproduces an equivalent outcome.
type Outcome struct {
	OrderID        int64         `json:"order_id"`
	OrderNumber    string        `json:"order_number"`
	TrackingNumber string        `json:"tracking_number"`
	Status         OutcomeStatus `json:"status"`
	Message        string        `json:"message"`
	PaymentMarked  bool          `json:"payment_marked"`
}

// Summary aggregates a run's outcomes.
type Summary struct {
	Synced        int       `json:"synced"`
	AlreadySynced int       `json:"already_synced"`
	Failed        int       `json:"failed"`
	NoFulfillment int       `json:"no_fulfillment"`
	Mirrored      int       `json:"mirrored"` // orders newly copied into the mirror
	DryRun        bool      `json:"dry_run"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Message       string    `json:"message"`
}

// Report is the full result of a reconciliation run.
type Report struct {
	Summary  Summary   `json:"summary"`
	Outcomes []Outcome `json:"outcomes"`
}

// Inspection is a read-only preview of how much work a live run would do.
type Inspection struct {
	TotalTrackedOrders  int    `json:"total_tracked_orders"`
	DeliveredCandidates int    `json:"delivered_candidates"`
	Message             string `json:"message"`
}

// OrderSource is the order system: payment and fulfillment truth.
type OrderSource interface {
	FetchAllOrders(ctx context.Context) ([]*order.Record, error)
	FetchOrder(ctx context.Context, orderID int64) (*order.Record, error)
	MarkPaid(ctx context.Context, orderID int64, amount decimal.Decimal, currency string) error
	MarkDelivered(ctx context.Context, orderID, fulfillmentID int64) error
}

// CourierTracker is the courier tracking service: physical delivery truth.
type CourierTracker interface {
	FetchStatuses(ctx context.Context, trackingNumbers []string) (map[string]order.ShipmentStatus, error)
}

// MirrorStore is the local mirror used by operational tooling.
type MirrorStore interface {
	ListAllOrderIDs() (map[int64]bool, error)
	ListTrackedOrders() (map[int64]string, error)
	GetOrder(orderID int64) (*order.Record, error)
	UpsertOrder(rec *order.Record) error
	PatchOrder(orderID int64, patch storage.OrderPatch) error
	StartRun(dryRun bool) (int64, error)
	CompleteRun(runID int64, summary storage.RunSummary) error
}
