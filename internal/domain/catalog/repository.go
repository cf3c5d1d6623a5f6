package catalog

import (
	"context"

	"github.com/gmja/storefront/internal/domain/shared"
)

// ProductFilter narrows product listings
type ProductFilter struct {
	shared.Filter
	CategoryIDs  []uint
	FeaturedOnly bool
	// IncludeInactive is only set by the admin site
	IncludeInactive bool
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	FindByID(ctx context.Context, id uint) (*Product, error)
	FindAll(ctx context.Context, filter ProductFilter) ([]Product, int64, error)
	FindByIDs(ctx context.Context, ids []uint) ([]Product, error)
	Save(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

// CategoryRepository defines the interface for category persistence
type CategoryRepository interface {
	FindByID(ctx context.Context, id uint) (*Category, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Category, int64, error)
	// FindDescendantIDs returns id and every category below it
	FindDescendantIDs(ctx context.Context, id uint) ([]uint, error)
	Save(ctx context.Context, category *Category) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

// ReviewRepository defines the interface for review persistence
type ReviewRepository interface {
	Create(ctx context.Context, review *Review) error
	FindByProduct(ctx context.Context, productID uint, filter shared.Filter) ([]Review, int64, error)
	ExistsForUser(ctx context.Context, productID, userID uint) (bool, error)
	// ScoreStats returns the sum and number of scores for a product
	ScoreStats(ctx context.Context, productID uint) (int64, int, error)
}
