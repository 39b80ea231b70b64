package reconcile

import (
	"fmt"
	"time"
)

// buildReport aggregates per-order outcomes into the run report. Pure
// function of its inputs, no side effects.
func buildReport(outcomes []Outcome, mirrored int, dryRun bool, startedAt, finishedAt time.Time) *Report {
	summary := Summary{
		Mirrored:   mirrored,
		DryRun:     dryRun,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
	}
	for _, o := range outcomes {
		switch o.Status {
		case StatusSynced:
			summary.Synced++
		case StatusAlreadySynced:
			summary.AlreadySynced++
		case StatusFailed:
			summary.Failed++
		case StatusNoFulfillment:
			summary.NoFulfillment++
		}
	}

	prefix := ""
	if dryRun {
		prefix = "[DRY RUN] "
	}
	summary.Message = fmt.Sprintf("%s%d synced, %d already synced, %d failed, %d without fulfillment, %d newly mirrored (%.1fs)",
		prefix, summary.Synced, summary.AlreadySynced, summary.Failed,
		summary.NoFulfillment, summary.Mirrored, finishedAt.Sub(startedAt).Seconds())

	return &Report{Summary: summary, Outcomes: outcomes}
}
