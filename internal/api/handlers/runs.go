package handlers

import (
	"net/http"
	"time"

	"github.com/PravdaST/testograph-sync-backend/internal/api/dto"
	"github.com/PravdaST/testograph-sync-backend/internal/infrastructure/storage"
)

// RunsHandler serves the persisted reconciliation run history.
type RunsHandler struct {
	*Base
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(repo storage.Repository) *RunsHandler {
	return &RunsHandler{
		Base: NewBase(repo),
	}
}

// List handles GET /api/runs - returns recent reconciliation runs.
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := ParseIntParam(r, "limit", 20)

	runs, err := h.repo.ListRuns(limit)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.RunListResponse{
		Runs:  make([]dto.RunResponse, 0, len(runs)),
		Count: len(runs),
	}
	for _, run := range runs {
		response.Runs = append(response.Runs, toRunResponse(run))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// toRunResponse converts a storage run record to an API response.
func toRunResponse(run *storage.RunRecord) dto.RunResponse {
	response := dto.RunResponse{
		ID:            run.ID,
		StartedAt:     run.StartedAt.Format(time.RFC3339),
		DryRun:        run.DryRun,
		Synced:        run.Summary.Synced,
		AlreadySynced: run.Summary.AlreadySynced,
		Failed:        run.Summary.Failed,
		NoFulfillment: run.Summary.NoFulfillment,
		Mirrored:      run.Summary.Mirrored,
	}
	if run.CompletedAt != nil {
		completedAt := run.CompletedAt.Format(time.RFC3339)
		response.CompletedAt = &completedAt
	}
	return response
}
