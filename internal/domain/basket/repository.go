package basket

import (
	"context"
	"time"
)

// Repository defines the interface for basket persistence
type Repository interface {
	FindByID(ctx context.Context, id uint) (*Basket, error)
	// FindOpenByOwner returns the owner's open basket or shared.ErrNotFound
	FindOpenByOwner(ctx context.Context, ownerID uint) (*Basket, error)
	// Save persists the basket and replaces its lines
	Save(ctx context.Context, basket *Basket) error
	// DeleteAbandoned removes anonymous baskets that are still open and were
	// last touched before the cutoff, returning how many went
	DeleteAbandoned(ctx context.Context, before time.Time) (int64, error)
}
