package cli

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PravdaST/testograph-sync-backend/internal/api"
	"github.com/PravdaST/testograph-sync-backend/internal/application/service"
	"github.com/PravdaST/testograph-sync-backend/internal/infrastructure/config"
	"github.com/PravdaST/testograph-sync-backend/internal/infrastructure/logging"
	"github.com/PravdaST/testograph-sync-backend/internal/infrastructure/storage"
)

// ServeFlags holds the CLI flags for the serve command.
type ServeFlags struct {
	ConfigFile string
	Port       int
	Verbose    bool
}

// ParseServeFlags parses command line flags for the serve command.
func ParseServeFlags() *ServeFlags {
	flags := &ServeFlags{}
	flag.StringVar(&flags.ConfigFile, "config", "", "Configuration file path (default: config.yaml, then environment)")
	flag.IntVar(&flags.Port, "port", 8080, "Port to listen on")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	flag.Parse()
	return flags
}

// RunServe runs the API server with the reconcile service attached.
func RunServe(cfg *config.Config, flags *ServeFlags) error {
	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(loggingCfg, "api")

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	shopifyClient, speedyClient, err := BuildClients(cfg, logger)
	if err != nil {
		return err
	}

	reconcileSvc := service.NewReconcileService(cfg, shopifyClient, speedyClient, store, logger)
	reconcileSvc.StartBackgroundCleanup(5 * time.Minute)
	defer reconcileSvc.StopBackgroundCleanup()

	apiCfg := api.Config{
		Port:           flags.Port,
		AllowedOrigins: api.DefaultConfig().AllowedOrigins,
	}
	server := api.NewServer(apiCfg, store, reconcileSvc, logger)

	// Handle graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("received shutdown signal")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", slog.Any("error", err))
		}
		close(done)
	}()

	// Start server (blocks until shutdown)
	if err := server.Start(); err != nil {
		return err
	}

	<-done
	logger.Info("server stopped")
	return nil
}
