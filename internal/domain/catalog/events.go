package catalog

import "github.com/gmja/storefront/internal/domain/shared"

// Aggregate type constant
const AggregateTypeProduct = "product"

// Event type constants
const (
	EventTypeProductChanged = "ProductChanged"
	EventTypeReviewPosted   = "ReviewPosted"
)

// ProductChangedEvent is published when a product is created, updated or deleted
type ProductChangedEvent struct {
	shared.BaseDomainEvent
	Deleted bool `json:"deleted"`
}

// NewProductChangedEvent creates a new ProductChangedEvent
func NewProductChangedEvent(productID, actorID uint, deleted bool) *ProductChangedEvent {
	return &ProductChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductChanged, AggregateTypeProduct, productID, actorID),
		Deleted:         deleted,
	}
}

// ReviewPostedEvent is published when a review is added
type ReviewPostedEvent struct {
	shared.BaseDomainEvent
	ReviewID uint `json:"review_id"`
	Score    int  `json:"score"`
}

// NewReviewPostedEvent creates a new ReviewPostedEvent
func NewReviewPostedEvent(review *Review) *ReviewPostedEvent {
	var actor uint
	if review.UserID != nil {
		actor = *review.UserID
	}
	return &ReviewPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReviewPosted, AggregateTypeProduct, review.ProductID, actor),
		ReviewID:        review.ID,
		Score:           review.Score,
	}
}
