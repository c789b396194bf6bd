package display

import (
	"strings"
	"time"

	"github.com/aquamarinepk/aqm"

	"github.com/baristaclub/barista/internal/square"
)

const (
	displayIDLength     = 6
	unknownItemName     = "Unknown Item"
	unknownModifierName = "Modifier"
)

// Normalizer converts raw upstream orders into display orders. It is a
// pure transformation: malformed fields are coerced to safe defaults,
// canceled orders are discarded, and nothing downstream ever sees the
// raw shape.
type Normalizer struct {
	classifier *Classifier
	logger     aqm.Logger
	nowFn      func() time.Time
}

func NewNormalizer(classifier *Classifier, logger aqm.Logger) *Normalizer {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Normalizer{
		classifier: classifier,
		logger:     logger,
		nowFn:      time.Now,
	}
}

// Normalize returns the display order for raw, or ok=false when the
// record must be discarded (no usable identity, or canceled at either
// the order or primary-fulfillment level).
func (n *Normalizer) Normalize(raw square.Order) (Order, bool) {
	if raw.ID == "" {
		n.logger.Infof("Discarding order without ID (state=%q)", raw.State)
		return Order{}, false
	}

	verdict := n.classifier.Classify(raw)
	if verdict.Canceled {
		return Order{}, false
	}

	timestamp, ok := parseTimestamp(raw.CreatedAt)
	if !ok {
		timestamp = n.nowFn()
	}

	lineItems := make([]LineItem, 0, len(raw.LineItems))
	for _, item := range raw.LineItems {
		lineItems = append(lineItems, normalizeLineItem(item))
	}

	order := Order{
		ID:           raw.ID,
		DisplayID:    shortDisplayID(raw.ID),
		Version:      raw.Version,
		Status:       verdict.Status,
		Timestamp:    timestamp,
		CompletedAt:  verdict.CompletedAt,
		CustomerName: resolveCustomerName(raw),
		LineItems:    lineItems,
		Total:        moneyAmount(raw.TotalMoney),
		Notes:        raw.Note,
	}

	if len(raw.Fulfillments) > 0 {
		order.FulfillmentID = raw.Fulfillments[0].UID
	}

	return order, true
}

// shortDisplayID derives the human-facing code: the last six characters
// of the upstream ID, upper-cased.
func shortDisplayID(id string) string {
	if len(id) > displayIDLength {
		id = id[len(id)-displayIDLength:]
	}
	return strings.ToUpper(id)
}

// nameResolvers is the customer-name priority chain, highest first. The
// order is a product decision; keep it an explicit list so changing the
// priority is a reorder, not a rewrite.
var nameResolvers = []func(square.Order) string{
	pickupRecipientName,
	pickupNote,
	deliveryRecipientName,
	topLevelRecipientName,
}

func resolveCustomerName(raw square.Order) string {
	for _, resolve := range nameResolvers {
		if name := resolve(raw); name != "" {
			return name
		}
	}
	return ""
}

func pickupRecipientName(raw square.Order) string {
	if len(raw.Fulfillments) == 0 {
		return ""
	}
	pickup := raw.Fulfillments[0].PickupDetails
	if pickup == nil || pickup.Recipient == nil {
		return ""
	}
	return pickup.Recipient.DisplayName
}

func pickupNote(raw square.Order) string {
	if len(raw.Fulfillments) == 0 {
		return ""
	}
	pickup := raw.Fulfillments[0].PickupDetails
	if pickup == nil {
		return ""
	}
	return pickup.Note
}

func deliveryRecipientName(raw square.Order) string {
	if len(raw.Fulfillments) == 0 {
		return ""
	}
	delivery := raw.Fulfillments[0].DeliveryDetails
	if delivery == nil || delivery.Recipient == nil {
		return ""
	}
	return delivery.Recipient.DisplayName
}

func topLevelRecipientName(raw square.Order) string {
	if raw.Recipient == nil {
		return ""
	}
	return raw.Recipient.DisplayName
}

func normalizeLineItem(item square.LineItem) LineItem {
	name := item.Name
	if name == "" {
		name = unknownItemName
	}

	variation := item.VariationName
	if variation == "" {
		variation = item.CatalogObjectID
	}

	modifiers := make([]Modifier, 0, len(item.Modifiers))
	for _, m := range item.Modifiers {
		name := m.Name
		if name == "" {
			name = unknownModifierName
		}
		modifiers = append(modifiers, Modifier{
			Name:     name,
			Quantity: parseQuantity(m.Quantity),
			Price:    moneyAmount(m.BasePriceMoney),
		})
	}

	return LineItem{
		Name:          name,
		VariationName: variation,
		Quantity:      parseQuantity(item.Quantity),
		Modifiers:     modifiers,
		Note:          item.Note,
		Price:         moneyAmount(item.TotalMoney),
	}
}

// parseQuantity coerces the upstream quantity scalar, defaulting to 1
// on absence, parse failure, or a non-positive value.
func parseQuantity(raw square.Num) int {
	n, err := raw.Int64()
	if err != nil || n < 1 {
		return 1
	}
	return int(n)
}

// moneyAmount extracts minor currency units, coercing anything
// malformed or negative to zero rather than failing.
func moneyAmount(m *square.Money) int64 {
	if m == nil {
		return 0
	}
	n, err := m.Amount.Int64()
	if err != nil || n < 0 {
		return 0
	}
	return n
}
