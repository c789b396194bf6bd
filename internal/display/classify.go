package display

import (
	"time"

	"github.com/aquamarinepk/aqm"

	"github.com/baristaclub/barista/internal/square"
	"github.com/baristaclub/barista/pkg/enums/orderstatus"
)

// Scheme picks how fulfillment progress maps onto display statuses. The
// simple scheme collapses everything short of completion into a single
// in-progress status; the staged scheme keeps the finer-grained
// fulfillment stages visible.
type Scheme string

const (
	SchemeSimple Scheme = "simple"
	SchemeStaged Scheme = "staged"
)

func ParseScheme(raw string) Scheme {
	if Scheme(raw) == SchemeStaged {
		return SchemeStaged
	}
	return SchemeSimple
}

// Classification is the engine's verdict for one raw order.
type Classification struct {
	Status      orderstatus.Status
	CompletedAt *time.Time
	Canceled    bool
}

// Classifier reduces the redundant order-level and fulfillment-level
// state fields to one authoritative display status. Order-level state
// wins; otherwise only the first fulfillment is consulted, and an order
// with neither signal is simply in progress.
type Classifier struct {
	scheme Scheme
	logger aqm.Logger
	nowFn  func() time.Time
}

func NewClassifier(scheme Scheme, logger aqm.Logger) *Classifier {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Classifier{
		scheme: scheme,
		logger: logger,
		nowFn:  time.Now,
	}
}

func (c *Classifier) Classify(ord square.Order) Classification {
	switch ord.State {
	case square.OrderStateCompleted:
		return Classification{
			Status:      orderstatus.Statuses.Completed,
			CompletedAt: c.completionTime(ord.UpdatedAt, ord.CreatedAt),
		}
	case square.OrderStateCanceled:
		return Classification{Canceled: true}
	}

	if len(ord.Fulfillments) == 0 {
		return Classification{Status: c.initialStatus()}
	}

	primary := ord.Fulfillments[0]
	switch primary.State {
	case square.FulfillmentStateCompleted:
		return Classification{
			Status:      orderstatus.Statuses.Completed,
			CompletedAt: c.completionTime(primary.UpdatedAt, primary.CreatedAt, ord.UpdatedAt),
		}
	case square.FulfillmentStateCanceled:
		return Classification{Canceled: true}
	case square.FulfillmentStateProposed, "":
		return Classification{Status: c.initialStatus()}
	case square.FulfillmentStateReserved:
		return Classification{Status: c.progressStatus(orderstatus.Statuses.Preparing)}
	case square.FulfillmentStatePrepared:
		return Classification{Status: c.progressStatus(orderstatus.Statuses.Ready)}
	case square.FulfillmentStateFailed:
		return Classification{Status: c.initialStatus()}
	default:
		c.logger.Infof("Unrecognized fulfillment state %q on order %s, treating as in progress", primary.State, ord.ID)
		return Classification{Status: c.initialStatus()}
	}
}

// initialStatus is the status a not-yet-progressed order lands on.
func (c *Classifier) initialStatus() orderstatus.Status {
	if c.scheme == SchemeStaged {
		return orderstatus.Statuses.New
	}
	return orderstatus.Statuses.InProgress
}

// progressStatus keeps staged in-flight statuses distinct but folds them
// into the single in-progress status under the simple scheme.
func (c *Classifier) progressStatus(staged orderstatus.Status) orderstatus.Status {
	if c.scheme == SchemeStaged {
		return staged
	}
	return orderstatus.Statuses.InProgress
}

// completionTime parses the first usable timestamp of the candidates,
// falling back to the current time so a completed order never lacks a
// completion timestamp.
func (c *Classifier) completionTime(candidates ...string) *time.Time {
	for _, raw := range candidates {
		if t, ok := parseTimestamp(raw); ok {
			return &t
		}
	}
	now := c.nowFn()
	return &now
}

func parseTimestamp(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
