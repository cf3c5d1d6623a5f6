package order

import "github.com/gmja/storefront/internal/domain/shared"

// Aggregate type constant
const AggregateTypeOrder = "order"

// Event type constants
const (
	EventTypeOrderPlaced        = "OrderPlaced"
	EventTypeOrderStatusChanged = "OrderStatusChanged"
)

// PlacedEvent is published after an order is committed
type PlacedEvent struct {
	shared.BaseDomainEvent
	Number    string `json:"number"`
	NumItems  int    `json:"num_items"`
	ProductID []uint `json:"product_ids"`
}

// NewPlacedEvent creates a new PlacedEvent
func NewPlacedEvent(o *Order) *PlacedEvent {
	var actor uint
	if o.UserID != nil {
		actor = *o.UserID
	}
	ids := make([]uint, 0, len(o.Lines))
	for _, l := range o.Lines {
		ids = append(ids, l.ProductID)
	}
	return &PlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPlaced, AggregateTypeOrder, o.ID, actor),
		Number:          o.Number,
		NumItems:        o.NumItems(),
		ProductID:       ids,
	}
}

// StatusChangedEvent is published when staff move an order along
type StatusChangedEvent struct {
	shared.BaseDomainEvent
	From Status `json:"from"`
	To   Status `json:"to"`
}

// NewStatusChangedEvent creates a new StatusChangedEvent
func NewStatusChangedEvent(o *Order, from Status, actorID uint) *StatusChangedEvent {
	return &StatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, AggregateTypeOrder, o.ID, actorID),
		From:            from,
		To:              o.Status,
	}
}
