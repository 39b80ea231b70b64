package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PravdaST/testograph-sync-backend/internal/domain/order"
	"github.com/PravdaST/testograph-sync-backend/internal/infrastructure/storage"
)

// fakeSource is an in-memory order system. Mark calls mutate the stored
// records so repeated runs observe the corrected state.
type fakeSource struct {
	orders map[int64]*order.Record

	fetchAllErr      error
	fetchOrderErr    error
	markPaidErr      error
	markDeliveredErr error

	fetchOrderCalls    []int64
	markPaidCalls      []int64
	markDeliveredCalls []int64
}

func newFakeSource(recs ...*order.Record) *fakeSource {
	s := &fakeSource{orders: make(map[int64]*order.Record)}
	for _, rec := range recs {
		clone := *rec
		s.orders[rec.ID] = &clone
	}
	return s
}

func (s *fakeSource) FetchAllOrders(ctx context.Context) ([]*order.Record, error) {
	if s.fetchAllErr != nil {
		return nil, s.fetchAllErr
	}
	out := make([]*order.Record, 0, len(s.orders))
	for _, rec := range s.orders {
		clone := *rec
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeSource) FetchOrder(ctx context.Context, orderID int64) (*order.Record, error) {
	s.fetchOrderCalls = append(s.fetchOrderCalls, orderID)
	if s.fetchOrderErr != nil {
		return nil, s.fetchOrderErr
	}
	rec, ok := s.orders[orderID]
	if !ok {
		return nil, errors.New("order not found")
	}
	clone := *rec
	return &clone, nil
}

func (s *fakeSource) MarkPaid(ctx context.Context, orderID int64, amount decimal.Decimal, currency string) error {
	s.markPaidCalls = append(s.markPaidCalls, orderID)
	if s.markPaidErr != nil {
		return s.markPaidErr
	}
	s.orders[orderID].FinancialStatus = order.FinancialPaid
	return nil
}

func (s *fakeSource) MarkDelivered(ctx context.Context, orderID, fulfillmentID int64) error {
	s.markDeliveredCalls = append(s.markDeliveredCalls, orderID)
	if s.markDeliveredErr != nil {
		return s.markDeliveredErr
	}
	s.orders[orderID].FulfillmentStatus = order.FulfillmentDelivered
	return nil
}

type fakeTracker struct {
	statuses map[string]order.ShipmentStatus
	err      error
	calls    int
}

func (t *fakeTracker) FetchStatuses(ctx context.Context, trackingNumbers []string) (map[string]order.ShipmentStatus, error) {
	t.calls++
	if t.err != nil {
		return nil, t.err
	}
	out := make(map[string]order.ShipmentStatus)
	for _, tn := range trackingNumbers {
		if st, ok := t.statuses[tn]; ok {
			out[tn] = st
		}
	}
	return out, nil
}

func deliveredStatus(tn string) order.ShipmentStatus {
	at := time.Date(2026, 8, 12, 10, 0, 0, 0, time.UTC)
	return order.ShipmentStatus{TrackingNumber: tn, StatusText: "Доставена", DeliveredAt: &at}
}

func testOrder(id int64, mods ...func(*order.Record)) *order.Record {
	rec := &order.Record{
		ID:                id,
		Number:            "#1001",
		CustomerName:      "Georgi Dimitrov",
		TotalPrice:        decimal.RequireFromString("129.00"),
		Currency:          "BGN",
		FinancialStatus:   order.FinancialUnpaid,
		FulfillmentStatus: order.FulfillmentFulfilled,
		FulfillmentID:     700 + id,
		TrackingNumber:    fmt.Sprintf("SPD%d", id),
		CreatedAt:         time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
	}
	for _, mod := range mods {
		mod(rec)
	}
	return rec
}

func newTestEngine(source *fakeSource, tracker *fakeTracker, store *storage.MockRepository) *Engine {
	return NewEngine(source, tracker, store, EngineConfig{Pacing: time.Millisecond}, nil)
}

func TestRun_DeliveredUnpaidOrderGetsSynced(t *testing.T) {
	o := testOrder(1)
	source := newFakeSource(o)
	tracker := &fakeTracker{statuses: map[string]order.ShipmentStatus{
		o.TrackingNumber: deliveredStatus(o.TrackingNumber),
	}}
	store := storage.NewMockRepository()
	store.Seed(o)

	report, err := newTestEngine(source, tracker, store).Run(context.Background(), Options{})
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 1)
	out := report.Outcomes[0]
	assert.Equal(t, StatusSynced, out.Status)
	assert.True(t, out.PaymentMarked)
	assert.Equal(t, []int64{1}, source.markDeliveredCalls)
	assert.Equal(t, []int64{1}, source.markPaidCalls)

	// mirror converged to delivered + paid
	mirrored, err := store.GetOrder(1)
	require.NoError(t, err)
	assert.Equal(t, order.FulfillmentDelivered, mirrored.FulfillmentStatus)
	assert.Equal(t, order.FinancialPaid, mirrored.FinancialStatus)
	assert.Equal(t, 1, report.Summary.Synced)
}

func TestRun_AlreadySyncedOrderIsNoOp(t *testing.T) {
	o := testOrder(1, func(r *order.Record) {
		r.FinancialStatus = order.FinancialPaid
		r.FulfillmentStatus = order.FulfillmentDelivered
	})
	source := newFakeSource(o)
	tracker := &fakeTracker{statuses: map[string]order.ShipmentStatus{
		o.TrackingNumber: deliveredStatus(o.TrackingNumber),
	}}
	store := storage.NewMockRepository()
	store.Seed(o)

	report, err := newTestEngine(source, tracker, store).Run(context.Background(), Options{})
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, StatusAlreadySynced, report.Outcomes[0].Status)
	assert.True(t, report.Outcomes[0].PaymentMarked, "settled payment still reported as marked")
	assert.Empty(t, source.markDeliveredCalls)
	assert.Empty(t, source.markPaidCalls)
}

func TestRun_MissingFulfillmentSkipsPayment(t *testing.T) {
	o := testOrder(1, func(r *order.Record) {
		r.FulfillmentID = 0
		r.FulfillmentStatus = order.FulfillmentNone
		r.TrackingNumber = "SPD1" // stale tracking number, courier still answers
	})
	source := newFakeSource(o)
	tracker := &fakeTracker{statuses: map[string]order.ShipmentStatus{
		"SPD1": deliveredStatus("SPD1"),
	}}
	store := storage.NewMockRepository()
	store.Seed(o)

	report, err := newTestEngine(source, tracker, store).Run(context.Background(), Options{})
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 1)
	out := report.Outcomes[0]
	assert.Equal(t, StatusNoFulfillment, out.Status)
	assert.False(t, out.PaymentMarked)
	assert.Empty(t, source.markPaidCalls, "payment decision is skipped entirely")
	assert.Empty(t, source.markDeliveredCalls)
}

func TestRun_SecondRunIsIdempotent(t *testing.T) {
	o := testOrder(1)
	source := newFakeSource(o)
	tracker := &fakeTracker{statuses: map[string]order.ShipmentStatus{
		o.TrackingNumber: deliveredStatus(o.TrackingNumber),
	}}
	store := storage.NewMockRepository()
	store.Seed(o)
	engine := newTestEngine(source, tracker, store)

	first, err := engine.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Summary.Synced)

	second, err := engine.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Summary.Synced)
	assert.Equal(t, 1, second.Summary.AlreadySynced)
	assert.Len(t, source.markPaidCalls, 1, "no repeated writes on the second run")
	assert.Len(t, source.markDeliveredCalls, 1)
}

func TestRun_DryRunMakesNoWrites(t *testing.T) {
	o1 := testOrder(1)
	o2 := testOrder(2, func(r *order.Record) { r.Number = "#1002" })
	source := newFakeSource(o1, o2)
	tracker := &fakeTracker{statuses: map[string]order.ShipmentStatus{
		o1.TrackingNumber: deliveredStatus(o1.TrackingNumber),
		o2.TrackingNumber: deliveredStatus(o2.TrackingNumber),
	}}
	store := storage.NewMockRepository()
	store.Seed(o1) // o2 missing from mirror on purpose

	report, err := newTestEngine(source, tracker, store).Run(context.Background(), Options{DryRun: true})
	require.NoError(t, err)

	assert.Empty(t, source.markPaidCalls)
	assert.Empty(t, source.markDeliveredCalls)
	assert.Empty(t, store.UpsertCalls, "dry run must not touch the mirror either")
	assert.Empty(t, store.PatchCalls)

	require.Len(t, report.Outcomes, 2)
	for _, out := range report.Outcomes {
		assert.Equal(t, StatusSynced, out.Status)
		assert.Contains(t, out.Message, "[DRY RUN] would")
	}
	assert.True(t, report.Summary.DryRun)
	assert.Equal(t, 1, report.Summary.Mirrored, "planned mirror copies are still counted")
	assert.Contains(t, report.Summary.Message, "[DRY RUN]")
}

func TestRun_MirrorsOrdersMissingLocally(t *testing.T) {
	var recs []*order.Record
	for id := int64(1); id <= 4; id++ {
		recs = append(recs, testOrder(id, func(r *order.Record) { r.TrackingNumber = "" }))
	}
	source := newFakeSource(recs...)
	tracker := &fakeTracker{}
	store := storage.NewMockRepository()
	store.Seed(recs[0], recs[1])

	report, err := newTestEngine(source, tracker, store).Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.ElementsMatch(t, []int64{3, 4}, store.UpsertCalls)
	assert.Equal(t, 2, report.Summary.Mirrored)
	assert.Empty(t, report.Outcomes, "orders without tracking produce no sync outcome")
}

func TestRun_RepairsDriftedMirrorFields(t *testing.T) {
	o := testOrder(1, func(r *order.Record) { r.TrackingNumber = "" })
	stale := *o
	stale.CustomerName = "undefined undefined"
	source := newFakeSource(o)
	store := storage.NewMockRepository()
	store.Seed(&stale)

	_, err := newTestEngine(source, &fakeTracker{}, store).Run(context.Background(), Options{})
	require.NoError(t, err)

	require.Equal(t, []int64{1}, store.PatchCalls)
	require.NotNil(t, store.LastPatch.CustomerName)
	assert.Equal(t, "Georgi Dimitrov", *store.LastPatch.CustomerName)

	mirrored, err := store.GetOrder(1)
	require.NoError(t, err)
	assert.Equal(t, "Georgi Dimitrov", mirrored.CustomerName)
}

func TestRun_FallsBackToMirroredTrackingNumber(t *testing.T) {
	// the order system lost the tracking details, the mirror still has them
	o := testOrder(1, func(r *order.Record) { r.TrackingNumber = "" })
	mirrored := *o
	mirrored.TrackingNumber = "SPD1"
	source := newFakeSource(o)
	tracker := &fakeTracker{statuses: map[string]order.ShipmentStatus{
		"SPD1": deliveredStatus("SPD1"),
	}}
	store := storage.NewMockRepository()
	store.Seed(&mirrored)

	report, err := newTestEngine(source, tracker, store).Run(context.Background(), Options{})
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 1)
	out := report.Outcomes[0]
	assert.Equal(t, StatusSynced, out.Status)
	assert.Equal(t, "SPD1", out.TrackingNumber, "mirrored tracking number drives the cycle")
	assert.Equal(t, []int64{1}, source.markDeliveredCalls)
}

func TestInspect_IncludesMirrorTrackedOrders(t *testing.T) {
	o := testOrder(1, func(r *order.Record) { r.TrackingNumber = "" })
	mirrored := *o
	mirrored.TrackingNumber = "SPD1"
	source := newFakeSource(o)
	tracker := &fakeTracker{statuses: map[string]order.ShipmentStatus{
		"SPD1": deliveredStatus("SPD1"),
	}}
	store := storage.NewMockRepository()
	store.Seed(&mirrored)

	inspection, err := newTestEngine(source, tracker, store).Inspect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, inspection.TotalTrackedOrders)
	assert.Equal(t, 1, inspection.DeliveredCandidates)
}

func TestRun_ClearsPlaceholderNameWithoutReplacement(t *testing.T) {
	// the fallback chain resolved nothing upstream, yet the mirror holds a
	// stored sentinel; it must not survive
	o := testOrder(1, func(r *order.Record) {
		r.TrackingNumber = ""
		r.CustomerName = ""
	})
	stale := *o
	stale.CustomerName = "undefined undefined"
	source := newFakeSource(o)
	store := storage.NewMockRepository()
	store.Seed(&stale)

	_, err := newTestEngine(source, &fakeTracker{}, store).Run(context.Background(), Options{})
	require.NoError(t, err)

	require.Equal(t, []int64{1}, store.PatchCalls)
	require.NotNil(t, store.LastPatch.CustomerName)
	assert.Equal(t, "", *store.LastPatch.CustomerName)
}

func TestRun_SkipsUnknownAndUndeliveredShipments(t *testing.T) {
	unknown := testOrder(1)
	inTransit := testOrder(2, func(r *order.Record) { r.Number = "#1002" })
	source := newFakeSource(unknown, inTransit)
	tracker := &fakeTracker{statuses: map[string]order.ShipmentStatus{
		// nothing for SPD1: courier does not know it
		inTransit.TrackingNumber: {TrackingNumber: inTransit.TrackingNumber, StatusText: "В транзит"},
	}}
	store := storage.NewMockRepository()
	store.Seed(unknown, inTransit)

	report, err := newTestEngine(source, tracker, store).Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Empty(t, report.Outcomes)
	assert.Empty(t, source.fetchOrderCalls, "skipped orders are never refreshed")
	assert.Empty(t, source.markPaidCalls)
}

func TestRun_ScopedToSingleOrder(t *testing.T) {
	o1 := testOrder(1)
	o2 := testOrder(2, func(r *order.Record) { r.Number = "#1002" })
	source := newFakeSource(o1, o2)
	tracker := &fakeTracker{statuses: map[string]order.ShipmentStatus{
		o1.TrackingNumber: deliveredStatus(o1.TrackingNumber),
		o2.TrackingNumber: deliveredStatus(o2.TrackingNumber),
	}}
	store := storage.NewMockRepository()
	store.Seed(o1, o2)

	report, err := newTestEngine(source, tracker, store).Run(context.Background(), Options{OrderID: 2})
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, int64(2), report.Outcomes[0].OrderID)
	assert.Equal(t, []int64{2}, source.markPaidCalls)
}

func TestRun_UnknownScopedOrderFails(t *testing.T) {
	source := newFakeSource(testOrder(1))
	store := storage.NewMockRepository()

	_, err := newTestEngine(source, &fakeTracker{}, store).Run(context.Background(), Options{OrderID: 99})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "99")
}

func TestRun_RefreshFailureDegradesToFailedOutcome(t *testing.T) {
	o := testOrder(1)
	source := newFakeSource(o)
	source.fetchOrderErr = errors.New("upstream timeout")
	tracker := &fakeTracker{statuses: map[string]order.ShipmentStatus{
		o.TrackingNumber: deliveredStatus(o.TrackingNumber),
	}}
	store := storage.NewMockRepository()
	store.Seed(o)

	report, err := newTestEngine(source, tracker, store).Run(context.Background(), Options{})
	require.NoError(t, err, "per-order failures do not abort the run")

	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, StatusFailed, report.Outcomes[0].Status)
	assert.Contains(t, report.Outcomes[0].Message, "upstream timeout")
	assert.Empty(t, source.markPaidCalls)
}

func TestRun_MarkPaidFailureIsFailedButDeliveryStands(t *testing.T) {
	o := testOrder(1)
	source := newFakeSource(o)
	source.markPaidErr = errors.New("payment gateway rejected")
	tracker := &fakeTracker{statuses: map[string]order.ShipmentStatus{
		o.TrackingNumber: deliveredStatus(o.TrackingNumber),
	}}
	store := storage.NewMockRepository()
	store.Seed(o)

	report, err := newTestEngine(source, tracker, store).Run(context.Background(), Options{})
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 1)
	out := report.Outcomes[0]
	assert.Equal(t, StatusFailed, out.Status)
	assert.Contains(t, out.Message, "marked delivered")
	assert.Contains(t, out.Message, "payment gateway rejected")
	assert.False(t, out.PaymentMarked)
}

func TestRun_CourierBatchFailureAbortsRun(t *testing.T) {
	o := testOrder(1)
	source := newFakeSource(o)
	tracker := &fakeTracker{err: errors.New("courier api down")}
	store := storage.NewMockRepository()
	store.Seed(o)

	_, err := newTestEngine(source, tracker, store).Run(context.Background(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "courier api down")
	assert.Equal(t, 0, store.StartRunCalls, "nothing is recorded for an aborted run")
}

func TestRun_PersistsRunRecord(t *testing.T) {
	o := testOrder(1)
	source := newFakeSource(o)
	tracker := &fakeTracker{statuses: map[string]order.ShipmentStatus{
		o.TrackingNumber: deliveredStatus(o.TrackingNumber),
	}}
	store := storage.NewMockRepository()
	store.Seed(o)

	_, err := newTestEngine(source, tracker, store).Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, store.StartRunCalls)
	runs, err := store.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.NotNil(t, runs[0].CompletedAt)
	assert.Equal(t, 1, runs[0].Summary.Synced)
}

func TestRun_AuditFailureDoesNotBlockReconciliation(t *testing.T) {
	o := testOrder(1)
	source := newFakeSource(o)
	tracker := &fakeTracker{statuses: map[string]order.ShipmentStatus{
		o.TrackingNumber: deliveredStatus(o.TrackingNumber),
	}}
	store := storage.NewMockRepository()
	store.Seed(o)
	store.StartRunErr = errors.New("disk full")

	report, err := newTestEngine(source, tracker, store).Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.Synced)
}

func TestInspect_CountsDeliveredCandidates(t *testing.T) {
	o1 := testOrder(1)
	o2 := testOrder(2)
	o3 := testOrder(3, func(r *order.Record) { r.TrackingNumber = "" })
	source := newFakeSource(o1, o2, o3)
	tracker := &fakeTracker{statuses: map[string]order.ShipmentStatus{
		o1.TrackingNumber: deliveredStatus(o1.TrackingNumber),
		o2.TrackingNumber: {TrackingNumber: o2.TrackingNumber, StatusText: "В транзит"},
	}}
	store := storage.NewMockRepository()

	inspection, err := newTestEngine(source, tracker, store).Inspect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, inspection.TotalTrackedOrders)
	assert.Equal(t, 1, inspection.DeliveredCandidates)
	assert.Empty(t, source.markPaidCalls)
	assert.Empty(t, store.UpsertCalls)
}
