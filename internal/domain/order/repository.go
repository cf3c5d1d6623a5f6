package order

import (
	"context"

	"github.com/gmja/storefront/internal/domain/shared"
)

// Repository defines the interface for order persistence
type Repository interface {
	// Create inserts the order and assigns its number
	Create(ctx context.Context, order *Order) error
	Update(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id uint) (*Order, error)
	FindByNumber(ctx context.Context, number string) (*Order, error)
	FindByUser(ctx context.Context, userID uint, filter shared.Filter) ([]Order, int64, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, int64, error)
	Count(ctx context.Context) (int64, error)
}
