package square

import (
	"bytes"
	"strconv"
)

// Num is a JSON scalar that may arrive as a number or a quoted string.
// Square documents quantities and monetary amounts inconsistently across
// API versions, so the boundary accepts both and callers coerce.
type Num string

func (n *Num) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*n = ""
		return nil
	}
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		data = data[1 : len(data)-1]
	}
	*n = Num(data)
	return nil
}

func (n Num) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(n))), nil
}

// Int64 parses the scalar as an integer.
func (n Num) Int64() (int64, error) {
	return strconv.ParseInt(string(n), 10, 64)
}

// Order-level lifecycle states as Square reports them.
const (
	OrderStateOpen      = "OPEN"
	OrderStateCompleted = "COMPLETED"
	OrderStateCanceled  = "CANCELED"
)

// Fulfillment states. A fulfillment runs its own state machine,
// independent of the order's lifecycle state.
const (
	FulfillmentStateProposed  = "PROPOSED"
	FulfillmentStateReserved  = "RESERVED"
	FulfillmentStatePrepared  = "PREPARED"
	FulfillmentStateCompleted = "COMPLETED"
	FulfillmentStateCanceled  = "CANCELED"
	FulfillmentStateFailed    = "FAILED"
)

// Money carries an amount in minor currency units.
type Money struct {
	Amount   Num    `json:"amount"`
	Currency string `json:"currency,omitempty"`
}

type Recipient struct {
	DisplayName string `json:"display_name,omitempty"`
}

type PickupDetails struct {
	Recipient *Recipient `json:"recipient,omitempty"`
	Note      string     `json:"note,omitempty"`
}

type DeliveryDetails struct {
	Recipient *Recipient `json:"recipient,omitempty"`
	Note      string     `json:"note,omitempty"`
}

type Fulfillment struct {
	UID             string           `json:"uid,omitempty"`
	Type            string           `json:"type,omitempty"`
	State           string           `json:"state,omitempty"`
	PickupDetails   *PickupDetails   `json:"pickup_details,omitempty"`
	DeliveryDetails *DeliveryDetails `json:"delivery_details,omitempty"`
	CreatedAt       string           `json:"created_at,omitempty"`
	UpdatedAt       string           `json:"updated_at,omitempty"`
}

type Modifier struct {
	Name            string `json:"name,omitempty"`
	Quantity        Num    `json:"quantity,omitempty"`
	BasePriceMoney  *Money `json:"base_price_money,omitempty"`
	CatalogObjectID string `json:"catalog_object_id,omitempty"`
}

type LineItem struct {
	Name            string     `json:"name,omitempty"`
	VariationName   string     `json:"variation_name,omitempty"`
	Quantity        Num        `json:"quantity,omitempty"`
	Note            string     `json:"note,omitempty"`
	CatalogObjectID string     `json:"catalog_object_id,omitempty"`
	TotalMoney      *Money     `json:"total_money,omitempty"`
	Modifiers       []Modifier `json:"modifiers,omitempty"`
}

// Order is the raw upstream record. Every field is optional; nothing
// past the normalizer is allowed to depend on this shape.
type Order struct {
	ID           string        `json:"id,omitempty"`
	Version      *int64        `json:"version,omitempty"`
	State        string        `json:"state,omitempty"`
	CreatedAt    string        `json:"created_at,omitempty"`
	UpdatedAt    string        `json:"updated_at,omitempty"`
	Note         string        `json:"note,omitempty"`
	LineItems    []LineItem    `json:"line_items,omitempty"`
	Fulfillments []Fulfillment `json:"fulfillments,omitempty"`
	TotalMoney   *Money        `json:"total_money,omitempty"`
	Recipient    *Recipient    `json:"recipient,omitempty"`
}
