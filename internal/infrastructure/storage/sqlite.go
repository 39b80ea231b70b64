package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/PravdaST/testograph-sync-backend/internal/domain/order"
)

// Storage provides SQLite database access for the order mirror.
// It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}

	// Run all pending migrations
	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// UpsertOrder writes the full authoritative record for an order
func (s *Storage) UpsertOrder(rec *order.Record) error {
	productsJSON, _ := json.Marshal(rec.Products)
	shippingJSON := marshalAddress(rec.ShippingAddress)

	query := `
	INSERT OR REPLACE INTO orders
	(order_id, order_number, email, customer_name, total_price, currency,
	 financial_status, fulfillment_status, fulfillment_id,
	 tracking_number, tracking_url, tracking_company,
	 products_json, shipping_json, phone, created_at, paid_at, synced_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		rec.ID,
		rec.Number,
		rec.Email,
		rec.CustomerName,
		rec.TotalPrice.String(),
		rec.Currency,
		string(rec.FinancialStatus),
		string(rec.FulfillmentStatus),
		rec.FulfillmentID,
		rec.TrackingNumber,
		rec.TrackingURL,
		rec.TrackingCompany,
		string(productsJSON),
		shippingJSON,
		rec.Phone,
		rec.CreatedAt,
		nullableTime(rec.PaidAt),
		time.Now(),
	)

	return err
}

// PatchOrder applies a partial update, touching only the fields set on the
// patch. Unrelated columns keep their current values.
func (s *Storage) PatchOrder(orderID int64, patch OrderPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	setClauses := make([]string, 0, 8)
	args := make([]interface{}, 0, 9)

	if patch.CustomerName != nil {
		setClauses = append(setClauses, "customer_name = ?")
		args = append(args, *patch.CustomerName)
	}
	if patch.FinancialStatus != nil {
		setClauses = append(setClauses, "financial_status = ?")
		args = append(args, string(*patch.FinancialStatus))
	}
	if patch.FulfillmentStatus != nil {
		setClauses = append(setClauses, "fulfillment_status = ?")
		args = append(args, string(*patch.FulfillmentStatus))
	}
	if patch.TrackingNumber != nil {
		setClauses = append(setClauses, "tracking_number = ?")
		args = append(args, *patch.TrackingNumber)
	}
	if patch.TrackingURL != nil {
		setClauses = append(setClauses, "tracking_url = ?")
		args = append(args, *patch.TrackingURL)
	}
	if patch.TrackingCompany != nil {
		setClauses = append(setClauses, "tracking_company = ?")
		args = append(args, *patch.TrackingCompany)
	}
	if patch.ShippingAddress != nil {
		setClauses = append(setClauses, "shipping_json = ?")
		args = append(args, marshalAddress(patch.ShippingAddress))
	}
	if patch.Phone != nil {
		setClauses = append(setClauses, "phone = ?")
		args = append(args, *patch.Phone)
	}

	setClauses = append(setClauses, "synced_at = ?")
	args = append(args, time.Now())
	args = append(args, orderID)

	query := "UPDATE orders SET " + strings.Join(setClauses, ", ") + " WHERE order_id = ?"
	result, err := s.db.Exec(query, args...)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("order %d not found in mirror", orderID)
	}
	return nil
}

// GetOrder retrieves a mirrored order by ID
func (s *Storage) GetOrder(orderID int64) (*order.Record, error) {
	query := selectOrderColumns + " FROM orders WHERE order_id = ?"
	return scanOrder(s.db.QueryRow(query, orderID))
}

// ListAllOrderIDs returns the IDs of every mirrored order
func (s *Storage) ListAllOrderIDs() (map[int64]bool, error) {
	rows, err := s.db.Query(`SELECT order_id FROM orders`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	ids := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// ListTrackedOrders returns order ID → tracking number for mirrored orders
// carrying a shipment
func (s *Storage) ListTrackedOrders() (map[int64]string, error) {
	rows, err := s.db.Query(`SELECT order_id, tracking_number FROM orders WHERE tracking_number != ''`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	tracked := make(map[int64]string)
	for rows.Next() {
		var id int64
		var tn string
		if err := rows.Scan(&id, &tn); err != nil {
			return nil, err
		}
		tracked[id] = tn
	}
	return tracked, rows.Err()
}

// ListOrders returns mirrored orders matching the filters with pagination
func (s *Storage) ListOrders(filters OrderFilters) (*OrderListResult, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}

	where := ""
	args := []interface{}{}
	if filters.FulfillmentStatus != "" {
		where = " WHERE fulfillment_status = ?"
		args = append(args, filters.FulfillmentStatus)
	}

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM orders"+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	query := selectOrderColumns + " FROM orders" + where +
		" ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, filters.Offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orders := make([]*order.Record, 0, limit)
	for rows.Next() {
		rec, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &OrderListResult{
		Orders:     orders,
		TotalCount: total,
		Limit:      limit,
		Offset:     filters.Offset,
	}, nil
}

// StartRun records the start of a reconciliation run
func (s *Storage) StartRun(dryRun bool) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO reconcile_runs (started_at, dry_run) VALUES (?, ?)`,
		time.Now(), dryRun,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// CompleteRun records a run's final counts
func (s *Storage) CompleteRun(runID int64, summary RunSummary) error {
	_, err := s.db.Exec(`
		UPDATE reconcile_runs
		SET completed_at = ?, synced = ?, already_synced = ?, failed = ?,
		    no_fulfillment = ?, mirrored = ?
		WHERE id = ?`,
		time.Now(), summary.Synced, summary.AlreadySynced, summary.Failed,
		summary.NoFulfillment, summary.Mirrored, runID,
	)
	return err
}

// ListRuns returns the most recent runs, newest first
func (s *Storage) ListRuns(limit int) ([]*RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT id, started_at, completed_at, dry_run,
		       synced, already_synced, failed, no_fulfillment, mirrored
		FROM reconcile_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	runs := make([]*RunRecord, 0, limit)
	for rows.Next() {
		run := &RunRecord{}
		var completedAt sql.NullTime
		if err := rows.Scan(
			&run.ID, &run.StartedAt, &completedAt, &run.DryRun,
			&run.Summary.Synced, &run.Summary.AlreadySynced, &run.Summary.Failed,
			&run.Summary.NoFulfillment, &run.Summary.Mirrored,
		); err != nil {
			return nil, err
		}
		if completedAt.Valid {
			t := completedAt.Time
			run.CompletedAt = &t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

const selectOrderColumns = `
	SELECT order_id, order_number, email, customer_name, total_price, currency,
	       financial_status, fulfillment_status, fulfillment_id,
	       tracking_number, tracking_url, tracking_company,
	       products_json, shipping_json, phone, created_at, paid_at`

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*order.Record, error) {
	rec := &order.Record{}
	var totalPrice, financial, fulfillment, productsJSON, shippingJSON string
	var paidAt sql.NullTime

	err := row.Scan(
		&rec.ID, &rec.Number, &rec.Email, &rec.CustomerName, &totalPrice, &rec.Currency,
		&financial, &fulfillment, &rec.FulfillmentID,
		&rec.TrackingNumber, &rec.TrackingURL, &rec.TrackingCompany,
		&productsJSON, &shippingJSON, &rec.Phone, &rec.CreatedAt, &paidAt,
	)
	if err != nil {
		return nil, err
	}

	rec.TotalPrice, err = decimal.NewFromString(totalPrice)
	if err != nil {
		return nil, fmt.Errorf("order %d has unparseable total_price %q: %w", rec.ID, totalPrice, err)
	}
	rec.FinancialStatus = order.FinancialStatus(financial)
	rec.FulfillmentStatus = order.FulfillmentStatus(fulfillment)

	if productsJSON != "" && productsJSON != "null" {
		if err := json.Unmarshal([]byte(productsJSON), &rec.Products); err != nil {
			return nil, fmt.Errorf("order %d has corrupt products_json: %w", rec.ID, err)
		}
	}
	if shippingJSON != "" && shippingJSON != "null" {
		addr := &order.Address{}
		if err := json.Unmarshal([]byte(shippingJSON), addr); err != nil {
			return nil, fmt.Errorf("order %d has corrupt shipping_json: %w", rec.ID, err)
		}
		rec.ShippingAddress = addr
	}
	if paidAt.Valid {
		t := paidAt.Time
		rec.PaidAt = &t
	}

	return rec, nil
}

func marshalAddress(addr *order.Address) string {
	if addr == nil {
		return ""
	}
	data, _ := json.Marshal(addr)
	return string(data)
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
