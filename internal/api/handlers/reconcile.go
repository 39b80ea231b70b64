package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/PravdaST/testograph-sync-backend/internal/api/dto"
	"github.com/PravdaST/testograph-sync-backend/internal/application/service"
)

// ReconcileHandler handles reconciliation job requests.
type ReconcileHandler struct {
	*Base
	svc *service.ReconcileService
}

// NewReconcileHandler creates a new reconcile handler.
func NewReconcileHandler(svc *service.ReconcileService) *ReconcileHandler {
	return &ReconcileHandler{
		Base: &Base{},
		svc:  svc,
	}
}

// Start handles POST /api/reconcile - starts a new reconciliation job.
func (h *ReconcileHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req dto.StartReconcileRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
			return
		}
	}

	jobID, err := h.svc.StartReconcile(r.Context(), service.JobRequest{
		DryRun:  req.DryRun,
		OrderID: req.OrderID,
		Verbose: req.Verbose,
	})
	if err != nil {
		h.WriteError(w, http.StatusConflict, dto.ConflictError(err.Error()))
		return
	}

	h.WriteJSON(w, http.StatusAccepted, dto.StartReconcileResponse{
		JobID:  jobID,
		Status: string(service.StatusPending),
		DryRun: req.DryRun,
	})
}

// Inspect handles GET /api/reconcile/inspect - previews pending work.
func (h *ReconcileHandler) Inspect(w http.ResponseWriter, r *http.Request) {
	inspection, err := h.svc.Inspect(r.Context())
	if err != nil {
		h.WriteError(w, http.StatusBadGateway, dto.NewAPIError("upstream_error", err.Error()))
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.InspectionResponse{
		TotalTrackedOrders:  inspection.TotalTrackedOrders,
		DeliveredCandidates: inspection.DeliveredCandidates,
		Message:             inspection.Message,
	})
}

// Get handles GET /api/reconcile/{jobId} - returns job status and report.
func (h *ReconcileHandler) Get(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	if jobID == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("job ID is required"))
		return
	}

	job, err := h.svc.GetJob(jobID)
	if err != nil {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("reconciliation job"))
		return
	}

	h.WriteJSON(w, http.StatusOK, toJobResponse(job))
}

// List handles GET /api/reconcile - lists all reconciliation jobs.
func (h *ReconcileHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs := h.svc.ListJobs()

	response := dto.JobListResponse{
		Jobs:  make([]dto.JobResponse, 0, len(jobs)),
		Count: len(jobs),
	}
	for _, job := range jobs {
		response.Jobs = append(response.Jobs, toJobResponse(job))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Cancel handles DELETE /api/reconcile/{jobId} - cancels a running job.
func (h *ReconcileHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	if jobID == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("job ID is required"))
		return
	}

	if err := h.svc.CancelJob(jobID); err != nil {
		h.WriteError(w, http.StatusConflict, dto.ConflictError(err.Error()))
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.MessageResponse{
		Message: "reconciliation job cancelled",
	})
}

// toJobResponse converts a service job to an API response.
func toJobResponse(job *service.Job) dto.JobResponse {
	response := dto.JobResponse{
		JobID:     job.ID,
		Status:    string(job.Status),
		DryRun:    job.Request.DryRun,
		OrderID:   job.Request.OrderID,
		StartedAt: job.StartedAt.Format(time.RFC3339),
		Report:    job.Report,
	}
	if job.CompletedAt != nil {
		completedAt := job.CompletedAt.Format(time.RFC3339)
		response.CompletedAt = &completedAt
	}
	if job.Error != nil {
		errMsg := job.Error.Error()
		response.Error = &errMsg
	}
	return response
}
