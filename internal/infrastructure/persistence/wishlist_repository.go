package persistence

import (
	"context"

	"github.com/gmja/storefront/internal/domain/wishlist"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormWishlistRepository implements wishlist.Repository using GORM
type GormWishlistRepository struct {
	db *gorm.DB
}

// NewGormWishlistRepository creates a new GormWishlistRepository
func NewGormWishlistRepository(db *gorm.DB) *GormWishlistRepository {
	return &GormWishlistRepository{db: db}
}

// Add saves the entry unless the product is already on the wishlist
func (r *GormWishlistRepository) Add(ctx context.Context, entry *wishlist.Entry) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(entry).Error
}

// Remove deletes the product from the user's wishlist
func (r *GormWishlistRepository) Remove(ctx context.Context, userID, productID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&wishlist.Entry{}).Error
}

// ProductIDs lists the saved products, most recent first
func (r *GormWishlistRepository) ProductIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&wishlist.Entry{}).
		Where("user_id = ?", userID).
		Order("created DESC, id DESC").
		Pluck("product_id", &ids).Error
	return ids, err
}

// Contains reports whether the product is on the user's wishlist
func (r *GormWishlistRepository) Contains(ctx context.Context, userID, productID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&wishlist.Entry{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	return count > 0, err
}

var _ wishlist.Repository = (*GormWishlistRepository)(nil)
