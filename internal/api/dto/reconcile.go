package dto

import "github.com/PravdaST/testograph-sync-backend/internal/application/reconcile"

// StartReconcileRequest is the body of POST /api/reconcile.
type StartReconcileRequest struct {
	DryRun  bool  `json:"dry_run"`
	OrderID int64 `json:"order_id,omitempty"`
	Verbose bool  `json:"verbose,omitempty"`
}

// StartReconcileResponse acknowledges an accepted reconciliation job.
type StartReconcileResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
	DryRun bool   `json:"dry_run"`
}

// JobResponse represents a reconciliation job and, once finished, its report.
type JobResponse struct {
	JobID       string            `json:"job_id"`
	Status      string            `json:"status"`
	DryRun      bool              `json:"dry_run"`
	OrderID     int64             `json:"order_id,omitempty"`
	StartedAt   string            `json:"started_at"`
	CompletedAt *string           `json:"completed_at,omitempty"`
	Report      *reconcile.Report `json:"report,omitempty"`
	Error       *string           `json:"error,omitempty"`
}

// JobListResponse is returned when listing reconciliation jobs.
type JobListResponse struct {
	Jobs  []JobResponse `json:"jobs"`
	Count int           `json:"count"`
}

// InspectionResponse is returned by GET /api/reconcile/inspect.
type InspectionResponse struct {
	TotalTrackedOrders  int    `json:"total_tracked_orders"`
	DeliveredCandidates int    `json:"delivered_candidates"`
	Message             string `json:"message"`
}
