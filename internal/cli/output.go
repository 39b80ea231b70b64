package cli

import (
	"fmt"
	"strings"

	"github.com/PravdaST/testograph-sync-backend/internal/application/reconcile"
)

// PrintHeader prints the command header.
func PrintHeader(dryRun bool) {
	mode := "PRODUCTION"
	if dryRun {
		mode = "DRY-RUN"
	}
	fmt.Printf("testograph-sync: order reconciliation (%s mode)\n\n", mode)
}

// PrintInspection prints the preview of pending work.
func PrintInspection(inspection *reconcile.Inspection) {
	fmt.Printf("Tracked orders:       %d\n", inspection.TotalTrackedOrders)
	fmt.Printf("Delivered candidates: %d\n", inspection.DeliveredCandidates)
	fmt.Println(inspection.Message)
}

// PrintReport prints the per-order outcomes and the run summary.
func PrintReport(report *reconcile.Report) {
	for _, out := range report.Outcomes {
		fmt.Printf("  %-12s %s (%s): %s\n",
			out.Status, out.OrderNumber, out.TrackingNumber, out.Message)
	}

	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Summary: Synced=%d AlreadySynced=%d Failed=%d NoFulfillment=%d Mirrored=%d\n",
		report.Summary.Synced,
		report.Summary.AlreadySynced,
		report.Summary.Failed,
		report.Summary.NoFulfillment,
		report.Summary.Mirrored)
	fmt.Println(report.Summary.Message)

	if !report.Summary.DryRun && report.Summary.Synced > 0 {
		fmt.Println("\nReconciliation completed successfully.")
	}
}
