package display

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"

	"github.com/baristaclub/barista/internal/square"
	"github.com/baristaclub/barista/pkg/enums/orderstatus"
	"github.com/baristaclub/barista/pkg/event"
)

// OrderUpdater pushes a completion upstream with optimistic-concurrency
// protection.
type OrderUpdater interface {
	CompleteOrder(ctx context.Context, orderID string, version int64, fulfillmentID string) (*square.Order, error)
}

// Refresher forces an out-of-band poll.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Coordinator runs the optimistic status-transition protocol: patch the
// local snapshot first, then write upstream, then reconcile. Upstream is
// always re-polled after a write attempt — success or failure — so the
// display never stays silently out of sync; the local patch is only a
// placeholder until that poll lands.
type Coordinator struct {
	store     *Store
	updater   OrderUpdater
	refresher Refresher
	publisher events.Publisher
	logger    aqm.Logger
	nowFn     func() time.Time
}

func NewCoordinator(store *Store, updater OrderUpdater, refresher Refresher, publisher events.Publisher, logger aqm.Logger) *Coordinator {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Coordinator{
		store:     store,
		updater:   updater,
		refresher: refresher,
		publisher: publisher,
		logger:    logger,
		nowFn:     time.Now,
	}
}

// Complete advances one order to the completed status.
//
// Preconditions are checked before anything is touched: the target must
// be the completed status (the only transition this display issues), the
// order must exist in the current snapshot, and its version must be
// known. A missing version additionally forces a refresh so the next
// attempt has one.
//
// On upstream failure the pre-optimistic snapshot is restored and a
// refresh is forced; a stale-version rejection comes back as a
// *ConflictError so the caller can surface the "updated elsewhere"
// message. There is no automatic retry.
func (c *Coordinator) Complete(ctx context.Context, orderID string, target orderstatus.Status) error {
	if !target.Completed() {
		return fmt.Errorf("%w (requested %q)", ErrUnsupportedTransition, target.Code())
	}

	ord, ok := c.store.Get(orderID)
	if !ok {
		return ErrOrderNotFound
	}

	if ord.Version == nil {
		c.forceRefresh(ctx)
		return ErrMissingVersion
	}

	snapshot := c.store.Snapshot()
	completedAt := c.nowFn()
	c.store.SetCompleted(orderID, completedAt)

	if _, err := c.updater.CompleteOrder(ctx, orderID, *ord.Version, ord.FulfillmentID); err != nil {
		c.store.Restore(snapshot)
		c.forceRefresh(ctx)

		if square.IsVersionConflict(err) {
			c.logger.Infof("Version conflict completing order %s: %v", orderID, err)
			return &ConflictError{OrderID: orderID, Err: err}
		}
		return fmt.Errorf("update order %s: %w", orderID, err)
	}

	c.publishCompleted(ctx, ord, completedAt)
	c.forceRefresh(ctx)
	return nil
}

// forceRefresh pulls authoritative state after a write attempt. Its
// failure is not the transition's failure: the next timer tick
// supersedes whatever state we hold.
func (c *Coordinator) forceRefresh(ctx context.Context) {
	if err := c.refresher.Refresh(ctx); err != nil {
		c.logger.Errorf("Forced refresh failed: %v", err)
	}
}

func (c *Coordinator) publishCompleted(ctx context.Context, ord Order, completedAt time.Time) {
	if c.publisher == nil {
		return
	}

	evt := event.DisplayOrderCompletedEvent{
		DisplayOrderEventMetadata: event.DisplayOrderEventMetadata{
			EventType:  event.EventDisplayOrderCompleted,
			OccurredAt: c.nowFn(),
			OrderID:    ord.ID,
			DisplayID:  ord.DisplayID,
		},
		NewStatus:      orderstatus.Statuses.Completed.Code(),
		PreviousStatus: ord.Status.Code(),
		FulfillmentID:  ord.FulfillmentID,
		CompletedAt:    &completedAt,
	}

	data, _ := json.Marshal(evt)
	if err := c.publisher.Publish(ctx, event.DisplayOrdersTopic, data); err != nil {
		c.logger.Errorf("Failed to publish order completed event: %v", err)
	}
}
