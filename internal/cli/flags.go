package cli

import (
	"flag"

	"github.com/PravdaST/testograph-sync-backend/internal/application/reconcile"
)

// ReconcileFlags are the flags of the reconcile command.
type ReconcileFlags struct {
	ConfigFile string
	DryRun     bool
	OrderID    int64
	Inspect    bool
	Verbose    bool
}

// ParseReconcileFlags parses the reconcile command line.
func ParseReconcileFlags() ReconcileFlags {
	var flags ReconcileFlags
	flag.StringVar(&flags.ConfigFile, "config", "", "Configuration file path (default: config.yaml, then environment)")
	flag.BoolVar(&flags.DryRun, "dry-run", false, "Report every decision without issuing any write")
	flag.Int64Var(&flags.OrderID, "order-id", 0, "Reconcile a single order by ID (0 = all)")
	flag.BoolVar(&flags.Inspect, "inspect", false, "Preview pending work and exit")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	flag.Parse()
	return flags
}

// ToOptions converts the flags to engine run options.
func (f ReconcileFlags) ToOptions() reconcile.Options {
	return reconcile.Options{
		DryRun:  f.DryRun,
		OrderID: f.OrderID,
	}
}
