package display

import (
	"errors"
	"strings"
	"time"

	"github.com/baristaclub/barista/pkg/enums/orderstatus"
)

// Order is the normalized display snapshot of one upstream order. It is
// an immutable value rebuilt in full on every poll; the only in-place
// change ever applied is the coordinator's short-lived optimistic
// completion overlay.
type Order struct {
	ID            string             `json:"id"`
	DisplayID     string             `json:"display_id"`
	Version       *int64             `json:"version,omitempty"`
	Status        orderstatus.Status `json:"status"`
	Timestamp     time.Time          `json:"timestamp"`
	CompletedAt   *time.Time         `json:"completed_at,omitempty"`
	CustomerName  string             `json:"customer_name,omitempty"`
	LineItems     []LineItem         `json:"line_items"`
	Total         int64              `json:"total"`
	Notes         string             `json:"notes,omitempty"`
	FulfillmentID string             `json:"fulfillment_id,omitempty"`
}

type LineItem struct {
	Name          string     `json:"name"`
	VariationName string     `json:"variation_name,omitempty"`
	Quantity      int        `json:"quantity"`
	Modifiers     []Modifier `json:"modifiers"`
	Note          string     `json:"note,omitempty"`
	Price         int64      `json:"price"`
}

type Modifier struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

// Tab selects one of the display's two views.
type Tab string

const (
	TabInProgress Tab = "inprogress"
	TabCompleted  Tab = "completed"
)

// ParseTab maps a request parameter to a Tab, defaulting to in-progress.
func ParseTab(raw string) (Tab, bool) {
	switch Tab(strings.ToLower(raw)) {
	case TabCompleted:
		return TabCompleted, true
	case TabInProgress, "":
		return TabInProgress, true
	default:
		return TabInProgress, false
	}
}

// Stats are derived counts over the current snapshot, recomputed on
// every call rather than incrementally tracked.
type Stats struct {
	InProgress int            `json:"inprogress"`
	Completed  int            `json:"completed"`
	ByStatus   map[string]int `json:"by_status"`
}

// Coordinator precondition and reconciliation errors. The handler maps
// these to user-visible messages.
var (
	ErrUnsupportedTransition = errors.New("only the completed status can be requested")
	ErrOrderNotFound         = errors.New("order not found in the current snapshot")
	ErrMissingVersion        = errors.New("order version is missing, refresh required")
)

// ConflictError marks an upstream stale-version rejection: the order was
// updated elsewhere between our last poll and the write.
type ConflictError struct {
	OrderID string
	Err     error
}

func (e *ConflictError) Error() string {
	return "order " + e.OrderID + " was updated elsewhere: " + e.Err.Error()
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}
