// Package service manages reconciliation jobs: starting them in the
// background, tracking their lifecycle and enforcing that only one run is
// in flight at a time.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PravdaST/testograph-sync-backend/internal/application/reconcile"
	"github.com/PravdaST/testograph-sync-backend/internal/domain/classify"
	"github.com/PravdaST/testograph-sync-backend/internal/infrastructure/config"
	"github.com/PravdaST/testograph-sync-backend/internal/infrastructure/logging"
)

// JobStatus represents the current state of a reconciliation job.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// Job staleness thresholds
const (
	// DefaultJobStaleThreshold is how long a job can stay running without
	// finishing before being considered hung. A full pass over the order
	// book at the default pacing takes well under this.
	DefaultJobStaleThreshold = 30 * time.Minute

	// DefaultJobRetention is how long finished jobs stay queryable.
	DefaultJobRetention = 24 * time.Hour
)

// JobRequest holds parameters for starting a reconciliation.
type JobRequest struct {
	DryRun  bool
	OrderID int64 // if set, only reconcile this order
	Verbose bool
}

// Job represents a running or completed reconciliation job.
type Job struct {
	ID          string
	Status      JobStatus
	Request     JobRequest
	StartedAt   time.Time
	CompletedAt *time.Time
	Report      *reconcile.Report
	Error       error
	cancelFunc  context.CancelFunc
}

// ReconcileService owns the reconciliation engine and its job lifecycle.
type ReconcileService struct {
	cfg     *config.Config
	source  reconcile.OrderSource
	tracker reconcile.CourierTracker
	store   reconcile.MirrorStore
	logger  *slog.Logger

	jobs      map[string]*Job
	jobsMutex sync.RWMutex

	// Only one reconciliation may run at a time: concurrent runs would
	// race on the same orders and double-issue corrective writes.
	runLock sync.Mutex

	cleanupStop chan struct{}
	cleanupDone chan struct{}
}

// NewReconcileService creates a new reconcile service.
func NewReconcileService(
	cfg *config.Config,
	source reconcile.OrderSource,
	tracker reconcile.CourierTracker,
	store reconcile.MirrorStore,
	logger *slog.Logger,
) *ReconcileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileService{
		cfg:     cfg,
		source:  source,
		tracker: tracker,
		store:   store,
		logger:  logger,
		jobs:    make(map[string]*Job),
	}
}

// Inspect previews pending work without starting a job.
func (s *ReconcileService) Inspect(ctx context.Context) (*reconcile.Inspection, error) {
	return s.newEngine(false).Inspect(ctx)
}

// StartReconcile starts a reconciliation job asynchronously.
// The passed context is NOT used as the parent for the background job; jobs
// run on context.Background() so they survive the HTTP request that started
// them. Use CancelJob to stop a running job.
func (s *ReconcileService) StartReconcile(_ context.Context, req JobRequest) (string, error) {
	if !s.runLock.TryLock() {
		return "", fmt.Errorf("a reconciliation run is already in progress")
	}

	jobID := uuid.New().String()
	jobCtx, cancel := context.WithCancel(context.Background())

	job := &Job{
		ID:         jobID,
		Status:     StatusPending,
		Request:    req,
		StartedAt:  time.Now(),
		cancelFunc: cancel,
	}

	s.jobsMutex.Lock()
	s.jobs[jobID] = job
	s.jobsMutex.Unlock()

	go s.runJob(jobCtx, job)

	s.logger.Info("reconciliation job started",
		"job_id", jobID,
		"dry_run", req.DryRun,
		"order_id", req.OrderID,
	)
	return jobID, nil
}

// GetJob retrieves a job by ID.
func (s *ReconcileService) GetJob(jobID string) (*Job, error) {
	s.jobsMutex.RLock()
	defer s.jobsMutex.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}
	return job, nil
}

// ListJobs returns all known jobs, running and finished.
func (s *ReconcileService) ListJobs() []*Job {
	s.jobsMutex.RLock()
	defer s.jobsMutex.RUnlock()

	jobs := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	return jobs
}

// CancelJob cancels a pending or running job.
func (s *ReconcileService) CancelJob(jobID string) error {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}
	if job.Status != StatusPending && job.Status != StatusRunning {
		return fmt.Errorf("job cannot be cancelled: status=%s", job.Status)
	}

	job.cancelFunc()
	job.Status = StatusCancelled
	now := time.Now()
	job.CompletedAt = &now

	s.logger.Info("reconciliation job cancelled", "job_id", jobID)
	return nil
}

func (s *ReconcileService) newEngine(verbose bool) *reconcile.Engine {
	loggingCfg := s.cfg.Observability.Logging
	if verbose {
		loggingCfg.Level = "debug"
	}
	engineLogger := logging.NewLogger(loggingCfg)

	delivered := classify.DefaultDeliveredTable()
	if len(s.cfg.Reconcile.DeliveredPhrases) > 0 {
		delivered = classify.NewDeliveredTable(s.cfg.Reconcile.DeliveredPhrases)
	}

	return reconcile.NewEngine(s.source, s.tracker, s.store, reconcile.EngineConfig{
		Pacing:    s.cfg.Reconcile.PacingInterval(),
		Delivered: delivered,
	}, engineLogger)
}

// runJob executes the reconciliation in a background goroutine.
func (s *ReconcileService) runJob(ctx context.Context, job *Job) {
	defer s.runLock.Unlock()

	s.setStatus(job.ID, StatusRunning)

	report, err := s.newEngine(job.Request.Verbose).Run(ctx, reconcile.Options{
		DryRun:  job.Request.DryRun,
		OrderID: job.Request.OrderID,
	})
	if err != nil {
		if ctx.Err() == context.Canceled {
			// already marked cancelled in CancelJob
			return
		}
		s.failJob(job.ID, err)
		return
	}

	s.completeJob(job.ID, report)
}

func (s *ReconcileService) setStatus(jobID string, status JobStatus) {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	// pending is the only state a job may leave through here; an early
	// cancel must not be revived to running
	if job, exists := s.jobs[jobID]; exists && job.Status == StatusPending {
		job.Status = status
	}
}

func (s *ReconcileService) completeJob(jobID string, report *reconcile.Report) {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	if job, exists := s.jobs[jobID]; exists {
		// a cancel that raced the final stretch of the run wins
		if job.Status != StatusRunning && job.Status != StatusPending {
			return
		}
		now := time.Now()
		job.Status = StatusCompleted
		job.CompletedAt = &now
		job.Report = report
		s.logger.Info("reconciliation job completed",
			"job_id", jobID,
			"synced", report.Summary.Synced,
			"already_synced", report.Summary.AlreadySynced,
			"failed", report.Summary.Failed,
			"no_fulfillment", report.Summary.NoFulfillment,
		)
	}
}

func (s *ReconcileService) failJob(jobID string, err error) {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	if job, exists := s.jobs[jobID]; exists {
		if job.Status != StatusRunning && job.Status != StatusPending {
			return
		}
		now := time.Now()
		job.Status = StatusFailed
		job.CompletedAt = &now
		job.Error = err
		s.logger.Error("reconciliation job failed", "job_id", jobID, "error", err)
	}
}

// MarkStaleJobsAsFailed finds jobs that appear stuck and fails them. This
// covers a goroutine that panicked and never updated its job, and orphaned
// in-memory state after an in-place restart.
func (s *ReconcileService) MarkStaleJobsAsFailed(staleThreshold time.Duration) int {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	now := time.Now()
	marked := 0
	for id, job := range s.jobs {
		if job.Status != StatusRunning && job.Status != StatusPending {
			continue
		}
		age := now.Sub(job.StartedAt)
		if age <= staleThreshold {
			continue
		}

		if job.cancelFunc != nil {
			job.cancelFunc()
		}
		job.Status = StatusFailed
		job.CompletedAt = &now
		job.Error = fmt.Errorf("job marked as stale after %v", age.Round(time.Second))
		marked++

		s.logger.Warn("marked stale job as failed",
			"job_id", id, "started_at", job.StartedAt)
	}
	return marked
}

// CleanupOldJobs removes finished jobs older than maxAge.
func (s *ReconcileService) CleanupOldJobs(maxAge time.Duration) int {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, job := range s.jobs {
		switch job.Status {
		case StatusCompleted, StatusFailed, StatusCancelled:
			if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
				delete(s.jobs, id)
				removed++
			}
		}
	}
	if removed > 0 {
		s.logger.Debug("cleaned up old reconciliation jobs", "removed", removed)
	}
	return removed
}

// StartBackgroundCleanup starts a goroutine that periodically fails stale
// jobs and drops old finished ones. Call StopBackgroundCleanup to stop it.
func (s *ReconcileService) StartBackgroundCleanup(checkInterval time.Duration) {
	s.cleanupStop = make(chan struct{})
	s.cleanupDone = make(chan struct{})

	go func() {
		defer close(s.cleanupDone)

		ticker := time.NewTicker(checkInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.cleanupStop:
				return
			case <-ticker.C:
				if marked := s.MarkStaleJobsAsFailed(DefaultJobStaleThreshold); marked > 0 {
					s.logger.Info("marked stale jobs as failed", "count", marked)
				}
				s.CleanupOldJobs(DefaultJobRetention)
			}
		}
	}()
}

// StopBackgroundCleanup stops the cleanup goroutine and waits for it.
func (s *ReconcileService) StopBackgroundCleanup() {
	if s.cleanupStop == nil {
		return
	}
	close(s.cleanupStop)
	<-s.cleanupDone
}
