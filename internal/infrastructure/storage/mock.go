package storage

import (
	"fmt"
	"sort"
	"time"

	"github.com/PravdaST/testograph-sync-backend/internal/domain/order"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps, making tests fast and isolated.
type MockRepository struct {
	orders map[int64]*order.Record
	runs   map[int64]*RunRecord
	nextID int64

	// Hooks for test assertions
	UpsertCalls   []int64
	PatchCalls    []int64
	LastPatch     *OrderPatch
	StartRunCalls int

	// Error injection for testing error paths
	UpsertErr   error
	PatchErr    error
	GetOrderErr error
	ListErr     error
	StartRunErr error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		orders: make(map[int64]*order.Record),
		runs:   make(map[int64]*RunRecord),
		nextID: 1,
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// Seed pre-populates the mirror without touching the assertion hooks.
func (m *MockRepository) Seed(recs ...*order.Record) {
	for _, rec := range recs {
		clone := *rec
		m.orders[rec.ID] = &clone
	}
}

// UpsertOrder stores the full record
func (m *MockRepository) UpsertOrder(rec *order.Record) error {
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	m.UpsertCalls = append(m.UpsertCalls, rec.ID)
	clone := *rec
	m.orders[rec.ID] = &clone
	return nil
}

// PatchOrder applies only the non-nil patch fields
func (m *MockRepository) PatchOrder(orderID int64, patch OrderPatch) error {
	if m.PatchErr != nil {
		return m.PatchErr
	}
	m.PatchCalls = append(m.PatchCalls, orderID)
	m.LastPatch = &patch

	rec, ok := m.orders[orderID]
	if !ok {
		return fmt.Errorf("order %d not found in mirror", orderID)
	}
	if patch.CustomerName != nil {
		rec.CustomerName = *patch.CustomerName
	}
	if patch.FinancialStatus != nil {
		rec.FinancialStatus = *patch.FinancialStatus
	}
	if patch.FulfillmentStatus != nil {
		rec.FulfillmentStatus = *patch.FulfillmentStatus
	}
	if patch.TrackingNumber != nil {
		rec.TrackingNumber = *patch.TrackingNumber
	}
	if patch.TrackingURL != nil {
		rec.TrackingURL = *patch.TrackingURL
	}
	if patch.TrackingCompany != nil {
		rec.TrackingCompany = *patch.TrackingCompany
	}
	if patch.ShippingAddress != nil {
		addr := *patch.ShippingAddress
		rec.ShippingAddress = &addr
	}
	if patch.Phone != nil {
		rec.Phone = *patch.Phone
	}
	return nil
}

// GetOrder retrieves a stored order
func (m *MockRepository) GetOrder(orderID int64) (*order.Record, error) {
	if m.GetOrderErr != nil {
		return nil, m.GetOrderErr
	}
	rec, ok := m.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %d not found in mirror", orderID)
	}
	clone := *rec
	return &clone, nil
}

// ListAllOrderIDs returns all stored IDs
func (m *MockRepository) ListAllOrderIDs() (map[int64]bool, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	ids := make(map[int64]bool, len(m.orders))
	for id := range m.orders {
		ids[id] = true
	}
	return ids, nil
}

// ListTrackedOrders returns id → tracking number for orders with a shipment
func (m *MockRepository) ListTrackedOrders() (map[int64]string, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	tracked := make(map[int64]string)
	for id, rec := range m.orders {
		if rec.TrackingNumber != "" {
			tracked[id] = rec.TrackingNumber
		}
	}
	return tracked, nil
}

// ListOrders returns stored orders, newest first
func (m *MockRepository) ListOrders(filters OrderFilters) (*OrderListResult, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}

	all := make([]*order.Record, 0, len(m.orders))
	for _, rec := range m.orders {
		if filters.FulfillmentStatus != "" && string(rec.FulfillmentStatus) != filters.FulfillmentStatus {
			continue
		}
		clone := *rec
		all = append(all, &clone)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := len(all)
	start := filters.Offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return &OrderListResult{
		Orders:     all[start:end],
		TotalCount: total,
		Limit:      limit,
		Offset:     filters.Offset,
	}, nil
}

// StartRun records a run start
func (m *MockRepository) StartRun(dryRun bool) (int64, error) {
	if m.StartRunErr != nil {
		return 0, m.StartRunErr
	}
	m.StartRunCalls++
	id := m.nextID
	m.nextID++
	m.runs[id] = &RunRecord{ID: id, StartedAt: time.Now(), DryRun: dryRun}
	return id, nil
}

// CompleteRun records final counts
func (m *MockRepository) CompleteRun(runID int64, summary RunSummary) error {
	run, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("run %d not found", runID)
	}
	now := time.Now()
	run.CompletedAt = &now
	run.Summary = summary
	return nil
}

// ListRuns returns recorded runs, newest first
func (m *MockRepository) ListRuns(limit int) ([]*RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	runs := make([]*RunRecord, 0, len(m.runs))
	for _, run := range m.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].ID > runs[j].ID })
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
