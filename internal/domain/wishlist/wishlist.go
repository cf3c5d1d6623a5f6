package wishlist

import (
	"context"
	"time"
)

// Entry is a product saved to a user's wishlist
type Entry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_wishlist_user_product,priority:1" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_wishlist_user_product,priority:2" json:"product_id"`
	Created   time.Time `gorm:"not null" json:"created"`
}

// TableName returns the table name for GORM
func (Entry) TableName() string {
	return "wishlist_entries"
}

// NewEntry creates a wishlist entry
func NewEntry(userID, productID uint) *Entry {
	return &Entry{UserID: userID, ProductID: productID, Created: time.Now()}
}

// Repository defines the interface for wishlist persistence
type Repository interface {
	// Add is idempotent
	Add(ctx context.Context, entry *Entry) error
	Remove(ctx context.Context, userID, productID uint) error
	ProductIDs(ctx context.Context, userID uint) ([]uint, error)
	Contains(ctx context.Context, userID, productID uint) (bool, error)
}
