package storage

import "github.com/PravdaST/testograph-sync-backend/internal/domain/order"

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, PostgreSQL, etc.)
// and makes testing with mocks straightforward.
type Repository interface {
	MirrorRepository
	RunRepository
	Close() error
}

// MirrorRepository handles the local order mirror. The mirror lags the order
// system but must never hold an order the order system does not: rows are
// only ever created from upstream records and never deleted.
type MirrorRepository interface {
	// UpsertOrder writes the full authoritative record for an order,
	// creating the mirror row if it does not exist yet.
	UpsertOrder(rec *order.Record) error

	// PatchOrder applies a partial update. Fields left nil in the patch are
	// not touched.
	PatchOrder(orderID int64, patch OrderPatch) error

	// GetOrder retrieves a mirrored order by ID
	GetOrder(orderID int64) (*order.Record, error)

	// ListAllOrderIDs returns the IDs of every mirrored order
	ListAllOrderIDs() (map[int64]bool, error)

	// ListTrackedOrders returns order ID → tracking number for mirrored
	// orders that carry a courier-trackable shipment
	ListTrackedOrders() (map[int64]string, error)

	// ListOrders returns mirrored orders matching the filters, paginated
	ListOrders(filters OrderFilters) (*OrderListResult, error)
}

// RunRepository persists reconciliation run history for the admin tooling.
type RunRepository interface {
	// StartRun records the start of a reconciliation run
	StartRun(dryRun bool) (int64, error)

	// CompleteRun records a run's final counts
	CompleteRun(runID int64, summary RunSummary) error

	// ListRuns returns the most recent runs, newest first
	ListRuns(limit int) ([]*RunRecord, error)
}
