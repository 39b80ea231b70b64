package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PravdaST/testograph-sync-backend/internal/domain/classify"
	"github.com/PravdaST/testograph-sync-backend/internal/domain/order"
	"github.com/PravdaST/testograph-sync-backend/internal/infrastructure/storage"
)

// EngineConfig tunes a reconciliation engine.
type EngineConfig struct {
	// Pacing is the fixed interval between calls against the order system.
	Pacing time.Duration

	// Delivered classifies courier status text. Nil uses the default
	// Bulgarian + English phrase table.
	Delivered *classify.DeliveredTable
}

// Engine walks every tracked order, compares the three systems and drives
// corrective actions through a paced executor. Orders are processed
// strictly sequentially.
type Engine struct {
	source    OrderSource
	tracker   CourierTracker
	store     MirrorStore
	pacing    time.Duration
	delivered *classify.DeliveredTable
	logger    *slog.Logger
}

func NewEngine(source OrderSource, tracker CourierTracker, store MirrorStore, cfg EngineConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	delivered := cfg.Delivered
	if delivered == nil {
		delivered = classify.DefaultDeliveredTable()
	}
	return &Engine{
		source:    source,
		tracker:   tracker,
		store:     store,
		pacing:    cfg.Pacing,
		delivered: delivered,
		logger:    logger.With("system", "reconcile"),
	}
}

// Inspect previews a run without writing anything: how many orders carry
// tracking numbers and how many of those the courier currently reports
// delivered.
func (e *Engine) Inspect(ctx context.Context) (*Inspection, error) {
	orders, err := e.source.FetchAllOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}
	mirrorTracked, err := e.store.ListTrackedOrders()
	if err != nil {
		return nil, fmt.Errorf("list tracked orders: %w", err)
	}

	var trackingNumbers []string
	for _, o := range orders {
		if tn := trackingNumberFor(o, mirrorTracked); tn != "" {
			trackingNumbers = append(trackingNumbers, tn)
		}
	}

	statuses, err := e.tracker.FetchStatuses(ctx, trackingNumbers)
	if err != nil {
		return nil, fmt.Errorf("fetch shipment statuses: %w", err)
	}

	candidates := 0
	for _, tn := range trackingNumbers {
		if st, ok := statuses[tn]; ok && e.delivered.IsDelivered(st.StatusText) {
			candidates++
		}
	}

	return &Inspection{
		TotalTrackedOrders:  len(trackingNumbers),
		DeliveredCandidates: candidates,
		Message: fmt.Sprintf("%d tracked orders, %d currently reported delivered",
			len(trackingNumbers), candidates),
	}, nil
}

// Run executes one reconciliation pass. Fetch failures for the order list or
// the courier batch abort the whole run; everything after that degrades to
// per-order failed outcomes.
func (e *Engine) Run(ctx context.Context, opts Options) (*Report, error) {
	startedAt := time.Now().UTC()
	e.logger.Info("reconciliation run starting", "dry_run", opts.DryRun, "order_id", opts.OrderID)

	orders, err := e.source.FetchAllOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}
	if opts.OrderID != 0 {
		scoped := orders[:0]
		for _, o := range orders {
			if o.ID == opts.OrderID {
				scoped = append(scoped, o)
			}
		}
		orders = scoped
		if len(orders) == 0 {
			return nil, fmt.Errorf("order %d not found in order system", opts.OrderID)
		}
	}

	mirrorIDs, err := e.store.ListAllOrderIDs()
	if err != nil {
		return nil, fmt.Errorf("list mirrored orders: %w", err)
	}
	mirrorTracked, err := e.store.ListTrackedOrders()
	if err != nil {
		return nil, fmt.Errorf("list tracked orders: %w", err)
	}

	var trackingNumbers []string
	for _, o := range orders {
		if tn := trackingNumberFor(o, mirrorTracked); tn != "" {
			trackingNumbers = append(trackingNumbers, tn)
		}
	}
	statuses, err := e.tracker.FetchStatuses(ctx, trackingNumbers)
	if err != nil {
		return nil, fmt.Errorf("fetch shipment statuses: %w", err)
	}

	runID, err := e.store.StartRun(opts.DryRun)
	if err != nil {
		// audit trail failure must not block the actual reconciliation
		e.logger.Warn("failed to record run start", "error", err)
		runID = 0
	}

	x := newExecutor(e.source, e.store, e.pacing, opts.DryRun, e.logger)

	var outcomes []Outcome
	mirrored := 0
	for _, o := range orders {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		inMirror := mirrorIDs[o.ID]
		if !inMirror {
			if err := x.mirrorOrder(o); err != nil {
				e.logger.Error("failed to mirror order", "order_id", o.ID, "error", err)
			} else {
				mirrored++
				inMirror = !opts.DryRun
			}
		} else if err := x.patchMirror(o.ID, e.mirrorDrift(o)); err != nil {
			e.logger.Error("failed to patch mirrored order", "order_id", o.ID, "error", err)
		}

		tn := trackingNumberFor(o, mirrorTracked)
		if tn == "" {
			continue
		}
		st, ok := statuses[tn]
		if !ok {
			// courier has no answer for this shipment, leave it alone
			e.logger.Debug("shipment status unknown, skipping",
				"order_id", o.ID, "tracking_number", tn)
			continue
		}
		if !e.delivered.IsDelivered(st.StatusText) {
			e.logger.Debug("shipment not delivered yet",
				"order_id", o.ID, "status", st.StatusText)
			continue
		}

		outcome := e.syncDelivered(ctx, x, o, tn, inMirror)
		outcomes = append(outcomes, outcome)
		e.logger.Info("order reconciled",
			"order_id", o.ID, "order_number", o.Number,
			"status", string(outcome.Status), "message", outcome.Message)
	}

	report := buildReport(outcomes, mirrored, opts.DryRun, startedAt, time.Now().UTC())

	if runID != 0 {
		if err := e.store.CompleteRun(runID, storage.RunSummary{
			Synced:        report.Summary.Synced,
			AlreadySynced: report.Summary.AlreadySynced,
			Failed:        report.Summary.Failed,
			NoFulfillment: report.Summary.NoFulfillment,
			Mirrored:      report.Summary.Mirrored,
		}); err != nil {
			e.logger.Warn("failed to record run completion", "run_id", runID, "error", err)
		}
	}

	e.logger.Info("reconciliation run finished", "summary", report.Summary.Message)
	return report, nil
}

// syncDelivered handles one order the courier reports delivered: refresh the
// authoritative state, then fix fulfillment and payment in that order.
// Payment follows delivery because these are cash-on-delivery orders; the
// engine never reverses a payment.
func (e *Engine) syncDelivered(ctx context.Context, x *executor, o *order.Record, trackingNumber string, inMirror bool) Outcome {
	out := Outcome{
		OrderID:        o.ID,
		OrderNumber:    o.Number,
		TrackingNumber: trackingNumber,
	}

	fresh, err := x.refreshOrder(ctx, o.ID)
	if err != nil {
		out.Status = StatusFailed
		out.Message = fmt.Sprintf("refresh order state: %v", err)
		return out
	}

	if fresh.FulfillmentID == 0 {
		out.Status = StatusNoFulfillment
		out.Message = "no fulfillment record in order system, payment left untouched"
		return out
	}

	var msgs []string
	failed := false
	acted := false

	if fresh.FulfillmentStatus == order.FulfillmentDelivered {
		msgs = append(msgs, "fulfillment already delivered")
	} else {
		msg, err := x.markDelivered(ctx, fresh)
		if err != nil {
			failed = true
			msgs = append(msgs, fmt.Sprintf("mark delivered: %v", err))
		} else {
			acted = true
			msgs = append(msgs, msg)
		}
	}

	if fresh.FinancialStatus.Settled() {
		out.PaymentMarked = true
		msgs = append(msgs, fmt.Sprintf("payment already settled (%s)", fresh.FinancialStatus))
	} else {
		msg, err := x.markPaid(ctx, fresh)
		if err != nil {
			failed = true
			msgs = append(msgs, fmt.Sprintf("mark paid: %v", err))
		} else {
			acted = true
			out.PaymentMarked = true
			msgs = append(msgs, msg)
		}
	}

	// converge the mirror with the states we just confirmed or set
	if inMirror && !failed {
		patch := storage.OrderPatch{}
		delivered := order.FulfillmentDelivered
		patch.FulfillmentStatus = &delivered
		if out.PaymentMarked && !fresh.FinancialStatus.Settled() {
			paid := order.FinancialPaid
			patch.FinancialStatus = &paid
		} else if fresh.FinancialStatus.Settled() {
			fs := fresh.FinancialStatus
			patch.FinancialStatus = &fs
		}
		if err := x.patchMirror(o.ID, patch); err != nil {
			failed = true
			msgs = append(msgs, fmt.Sprintf("update mirror: %v", err))
		}
	}

	switch {
	case failed:
		out.Status = StatusFailed
	case acted:
		out.Status = StatusSynced
	default:
		out.Status = StatusAlreadySynced
	}
	out.Message = strings.Join(msgs, "; ")
	return out
}

// trackingNumberFor prefers the live tracking number and falls back to the
// mirrored one. The order system can lose tracking details when a
// fulfillment is recreated; the mirror keeps the shipment reachable.
func trackingNumberFor(o *order.Record, mirrorTracked map[int64]string) string {
	if o.HasTracking() {
		return o.TrackingNumber
	}
	return mirrorTracked[o.ID]
}

// mirrorDrift compares the fresh order snapshot against the mirrored row and
// builds a patch for the fields that drifted. The common case is a name that
// was saved as an "undefined" placeholder before the fallback chain existed.
func (e *Engine) mirrorDrift(o *order.Record) storage.OrderPatch {
	patch := storage.OrderPatch{}
	mirrored, err := e.store.GetOrder(o.ID)
	if err != nil || mirrored == nil {
		return patch
	}

	// a stored placeholder is cleared even when the fallback chain came up empty
	if mirrored.CustomerName != o.CustomerName &&
		(o.CustomerName != "" || classify.IsPlaceholderName(mirrored.CustomerName)) {
		name := o.CustomerName
		patch.CustomerName = &name
	}
	if o.TrackingNumber != "" && mirrored.TrackingNumber != o.TrackingNumber {
		tn := o.TrackingNumber
		patch.TrackingNumber = &tn
		if o.TrackingURL != "" {
			u := o.TrackingURL
			patch.TrackingURL = &u
		}
		if o.TrackingCompany != "" {
			c := o.TrackingCompany
			patch.TrackingCompany = &c
		}
	}
	if o.ShippingAddress != nil && mirrored.ShippingAddress == nil {
		patch.ShippingAddress = o.ShippingAddress
	}
	if o.Phone != "" && mirrored.Phone == "" {
		p := o.Phone
		patch.Phone = &p
	}
	return patch
}
