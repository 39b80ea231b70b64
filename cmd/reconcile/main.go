package main

import (
	"context"
	"fmt"
	"os"

	"github.com/PravdaST/testograph-sync-backend/internal/cli"
	"github.com/PravdaST/testograph-sync-backend/internal/infrastructure/config"
	"github.com/PravdaST/testograph-sync-backend/internal/infrastructure/logging"
	"github.com/PravdaST/testograph-sync-backend/internal/infrastructure/storage"
)

func main() {
	flags := cli.ParseReconcileFlags()

	var cfg *config.Config
	if flags.ConfigFile != "" {
		loaded, err := config.Load(flags.ConfigFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config %s: %v\n", flags.ConfigFile, err)
			os.Exit(1)
		}
		cfg = loaded
	} else {
		cfg = config.LoadOrEnv()
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(loggingCfg, "reconcile")

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	engine, err := cli.BuildEngine(cfg, store, logger)
	if err != nil {
		logger.Error("failed to build engine", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	if flags.Inspect {
		inspection, err := engine.Inspect(ctx)
		if err != nil {
			logger.Error("inspection failed", "error", err)
			os.Exit(1)
		}
		cli.PrintInspection(inspection)
		return
	}

	cli.PrintHeader(flags.DryRun)

	report, err := engine.Run(ctx, flags.ToOptions())
	if err != nil {
		logger.Error("reconciliation failed", "error", err)
		os.Exit(1)
	}

	cli.PrintReport(report)

	if report.Summary.Failed > 0 {
		os.Exit(1)
	}
}
