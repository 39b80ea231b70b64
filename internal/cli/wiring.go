// Package cli holds the shared plumbing of the command line binaries: flag
// parsing, dependency wiring and report printing.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/PravdaST/testograph-sync-backend/internal/adapters/shopify"
	"github.com/PravdaST/testograph-sync-backend/internal/adapters/speedy"
	"github.com/PravdaST/testograph-sync-backend/internal/application/reconcile"
	"github.com/PravdaST/testograph-sync-backend/internal/domain/classify"
	"github.com/PravdaST/testograph-sync-backend/internal/infrastructure/config"
	"github.com/PravdaST/testograph-sync-backend/internal/infrastructure/storage"
)

// BuildClients constructs the two external API clients from config.
func BuildClients(cfg *config.Config, logger *slog.Logger) (*shopify.Client, *speedy.Client, error) {
	shopifyClient, err := shopify.NewClient(shopify.Config{
		StoreDomain: cfg.Shopify.StoreDomain,
		AccessToken: cfg.Shopify.AccessToken,
		APIVersion:  cfg.Shopify.APIVersion,
	}, classify.DefaultProductRules(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("shopify client: %w", err)
	}

	speedyClient, err := speedy.NewClient(speedy.Config{
		Endpoint: cfg.Speedy.Endpoint,
		APIKey:   cfg.Speedy.APIKey,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("speedy client: %w", err)
	}

	return shopifyClient, speedyClient, nil
}

// BuildEngine wires a reconciliation engine against live clients and storage.
func BuildEngine(cfg *config.Config, store *storage.Storage, logger *slog.Logger) (*reconcile.Engine, error) {
	shopifyClient, speedyClient, err := BuildClients(cfg, logger)
	if err != nil {
		return nil, err
	}

	delivered := classify.DefaultDeliveredTable()
	if len(cfg.Reconcile.DeliveredPhrases) > 0 {
		delivered = classify.NewDeliveredTable(cfg.Reconcile.DeliveredPhrases)
	}

	return reconcile.NewEngine(shopifyClient, speedyClient, store, reconcile.EngineConfig{
		Pacing:    cfg.Reconcile.PacingInterval(),
		Delivered: delivered,
	}, logger), nil
}
