package storage

import (
	"database/sql"
	"fmt"
	"log"
)

// Migration represents a database schema migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// allMigrations defines all migrations in order
var allMigrations = []Migration{
	{
		Version: 1,
		Name:    "create_orders_mirror",
		Up:      migration001CreateOrdersMirror,
	},
	{
		Version: 2,
		Name:    "create_reconcile_runs",
		Up:      migration002CreateReconcileRuns,
	},
}

// runMigrations executes all pending migrations
func (s *Storage) runMigrations() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, migration := range allMigrations {
		if applied[migration.Version] {
			continue
		}

		log.Printf("Running migration %d: %s", migration.Version, migration.Name)

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		_, err = tx.Exec(`
			INSERT INTO schema_migrations (version, name) VALUES (?, ?)
		`, migration.Version, migration.Name)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		log.Printf("Migration %d complete", migration.Version)
	}

	return nil
}

// ensureMigrationsTable creates the schema_migrations table
func (s *Storage) ensureMigrationsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	_, err := s.db.Exec(query)
	return err
}

// getAppliedMigrations returns a set of applied migration versions
func (s *Storage) getAppliedMigrations() (map[int]bool, error) {
	applied := make(map[int]bool)

	rows, err := s.db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

func migration001CreateOrdersMirror(tx *sql.Tx) error {
	query := `
	CREATE TABLE IF NOT EXISTS orders (
		order_id INTEGER PRIMARY KEY,
		order_number TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		customer_name TEXT NOT NULL DEFAULT '',
		total_price TEXT NOT NULL DEFAULT '0',
		currency TEXT NOT NULL DEFAULT 'BGN',
		financial_status TEXT NOT NULL DEFAULT 'unpaid',
		fulfillment_status TEXT NOT NULL DEFAULT 'unfulfilled',
		fulfillment_id INTEGER NOT NULL DEFAULT 0,
		tracking_number TEXT NOT NULL DEFAULT '',
		tracking_url TEXT NOT NULL DEFAULT '',
		tracking_company TEXT NOT NULL DEFAULT '',
		products_json TEXT NOT NULL DEFAULT '[]',
		shipping_json TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		paid_at TIMESTAMP,
		synced_at TIMESTAMP NOT NULL
	)`
	if _, err := tx.Exec(query); err != nil {
		return err
	}

	_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_orders_tracking ON orders(tracking_number)`)
	return err
}

func migration002CreateReconcileRuns(tx *sql.Tx) error {
	query := `
	CREATE TABLE IF NOT EXISTS reconcile_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP,
		dry_run BOOLEAN NOT NULL DEFAULT 0,
		synced INTEGER NOT NULL DEFAULT 0,
		already_synced INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		no_fulfillment INTEGER NOT NULL DEFAULT 0,
		mirrored INTEGER NOT NULL DEFAULT 0
	)`
	_, err := tx.Exec(query)
	return err
}
