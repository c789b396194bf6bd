package event

import "time"

const (
	DisplayOrdersTopic         = "display.orders"
	DisplayRefreshTopic        = "display.refresh"
	EventDisplayOrderCompleted = "display.order.completed"
)

type DisplayOrderEventMetadata struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	OrderID    string    `json:"order_id"`
	DisplayID  string    `json:"display_id,omitempty"`
	LocationID string    `json:"location_id,omitempty"`
}

type DisplayOrderCompletedEvent struct {
	DisplayOrderEventMetadata
	NewStatus      string     `json:"new_status"`
	PreviousStatus string     `json:"previous_status"`
	FulfillmentID  string     `json:"fulfillment_id,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}
