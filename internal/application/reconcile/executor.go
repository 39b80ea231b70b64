package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/PravdaST/testograph-sync-backend/internal/domain/order"
	"github.com/PravdaST/testograph-sync-backend/internal/infrastructure/storage"
)

// executor issues the corrective actions for a run. Every call against the
// order system passes through a fixed-interval pacing gate, and in dry-run
// mode every write becomes a reported no-op while reads still go out live.
type executor struct {
	source  OrderSource
	store   MirrorStore
	limiter *rate.Limiter
	dryRun  bool
	logger  *slog.Logger
}

func newExecutor(source OrderSource, store MirrorStore, pacing time.Duration, dryRun bool, logger *slog.Logger) *executor {
	if pacing <= 0 {
		pacing = 500 * time.Millisecond
	}
	return &executor{
		source: source,
		store:  store,
		// burst 1: exactly one order-system call per interval
		limiter: rate.NewLimiter(rate.Every(pacing), 1),
		dryRun:  dryRun,
		logger:  logger,
	}
}

func (x *executor) pace(ctx context.Context) error {
	return x.limiter.Wait(ctx)
}

// refreshOrder re-fetches the authoritative order state immediately before
// any mutation decision. Reads are issued even in dry-run mode so that the
// reported decisions match what a live run would do.
func (x *executor) refreshOrder(ctx context.Context, orderID int64) (*order.Record, error) {
	if err := x.pace(ctx); err != nil {
		return nil, err
	}
	return x.source.FetchOrder(ctx, orderID)
}

func (x *executor) markDelivered(ctx context.Context, rec *order.Record) (string, error) {
	if x.dryRun {
		return fmt.Sprintf("[DRY RUN] would mark fulfillment %d delivered", rec.FulfillmentID), nil
	}
	if err := x.pace(ctx); err != nil {
		return "", err
	}
	if err := x.source.MarkDelivered(ctx, rec.ID, rec.FulfillmentID); err != nil {
		return "", err
	}
	x.logger.Info("marked fulfillment delivered",
		"order_id", rec.ID, "fulfillment_id", rec.FulfillmentID)
	return "marked delivered", nil
}

func (x *executor) markPaid(ctx context.Context, rec *order.Record) (string, error) {
	if x.dryRun {
		return fmt.Sprintf("[DRY RUN] would mark order %s paid (%s %s)",
			rec.Number, rec.TotalPrice.StringFixed(2), rec.Currency), nil
	}
	if err := x.pace(ctx); err != nil {
		return "", err
	}
	if err := x.source.MarkPaid(ctx, rec.ID, rec.TotalPrice, rec.Currency); err != nil {
		return "", err
	}
	x.logger.Info("marked order paid",
		"order_id", rec.ID, "amount", rec.TotalPrice.StringFixed(2), "currency", rec.Currency)
	return "marked paid", nil
}

// mirrorOrder copies a missing order into the local mirror. Local writes are
// not paced, but dry-run still suppresses them.
func (x *executor) mirrorOrder(rec *order.Record) error {
	if x.dryRun {
		x.logger.Debug("[DRY RUN] would mirror order", "order_id", rec.ID)
		return nil
	}
	return x.store.UpsertOrder(rec)
}

func (x *executor) patchMirror(orderID int64, patch storage.OrderPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	if x.dryRun {
		x.logger.Debug("[DRY RUN] would patch mirrored order", "order_id", orderID)
		return nil
	}
	return x.store.PatchOrder(orderID, patch)
}
