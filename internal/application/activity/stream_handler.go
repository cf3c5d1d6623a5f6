package activity

import (
	"context"

	"github.com/gmja/storefront/internal/domain/activity"
	"github.com/gmja/storefront/internal/domain/catalog"
	"github.com/gmja/storefront/internal/domain/identity"
	"github.com/gmja/storefront/internal/domain/order"
	"github.com/gmja/storefront/internal/domain/shared"
)

// StreamHandler turns domain events into stream actions. Orders are
// recorded privately; events without a user actor are skipped.
type StreamHandler struct {
	recorder interface {
		Record(ctx context.Context, action *activity.Action) error
	}
}

// NewStreamHandler creates a handler that records through svc
func NewStreamHandler(svc *ActivityService) *StreamHandler {
	return &StreamHandler{recorder: svc}
}

// EventTypes implements shared.EventHandler
func (h *StreamHandler) EventTypes() []string {
	return []string{
		order.EventTypeOrderPlaced,
		catalog.EventTypeReviewPosted,
		identity.EventTypeUserSignedUp,
	}
}

// Handle implements shared.EventHandler
func (h *StreamHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if event.ActorID() == 0 {
		return nil
	}
	actor := activity.Ref{Type: activity.ContentTypeUser, ID: event.ActorID()}

	var verb string
	var target *activity.Ref
	private := false
	switch event.EventType() {
	case order.EventTypeOrderPlaced:
		verb = activity.VerbPlacedOrder
		target = &activity.Ref{Type: activity.ContentTypeOrder, ID: event.AggregateID()}
		private = true
	case catalog.EventTypeReviewPosted:
		verb = activity.VerbReviewed
		target = &activity.Ref{Type: activity.ContentTypeProduct, ID: event.AggregateID()}
	case identity.EventTypeUserSignedUp:
		verb = activity.VerbJoined
	default:
		return nil
	}

	action, err := activity.NewAction(actor, verb)
	if err != nil {
		return err
	}
	if target != nil {
		action.WithTarget(*target)
	}
	if private {
		action.Private()
	}
	return h.recorder.Record(ctx, action)
}

var _ shared.EventHandler = (*StreamHandler)(nil)
