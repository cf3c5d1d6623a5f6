package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/gmja/storefront/internal/domain/basket"
	"github.com/gmja/storefront/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBasketRepository implements basket.Repository using GORM
type GormBasketRepository struct {
	db *gorm.DB
}

// NewGormBasketRepository creates a new GormBasketRepository
func NewGormBasketRepository(db *gorm.DB) *GormBasketRepository {
	return &GormBasketRepository{db: db}
}

// WithTx returns a new repository instance using the given transaction
func (r *GormBasketRepository) WithTx(tx *gorm.DB) *GormBasketRepository {
	return &GormBasketRepository{db: tx}
}

func preloadLines(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

// FindByID finds a basket with its lines
func (r *GormBasketRepository) FindByID(ctx context.Context, id uint) (*basket.Basket, error) {
	var b basket.Basket
	if err := r.db.WithContext(ctx).Preload("Lines", preloadLines).First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// FindOpenByOwner returns the most recent open basket of a user
func (r *GormBasketRepository) FindOpenByOwner(ctx context.Context, ownerID uint) (*basket.Basket, error) {
	var b basket.Basket
	err := r.db.WithContext(ctx).Preload("Lines", preloadLines).
		Where("owner_id = ? AND status = ?", ownerID, basket.StatusOpen).
		Order("id DESC").
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// Save persists the basket and makes the stored lines equal to b.Lines.
// Existing lines keep their IDs so line URLs stay valid.
func (r *GormBasketRepository) Save(ctx context.Context, b *basket.Basket) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if b.IsNew() {
			if err := tx.Omit(clause.Associations).Create(b).Error; err != nil {
				return err
			}
		} else if err := tx.Omit(clause.Associations).Save(b).Error; err != nil {
			return err
		}

		keep := make([]uint, 0, len(b.Lines))
		for i := range b.Lines {
			line := &b.Lines[i]
			line.BasketID = b.ID
			var err error
			if line.ID == 0 {
				err = tx.Create(line).Error
			} else {
				err = tx.Save(line).Error
			}
			if err != nil {
				return err
			}
			keep = append(keep, line.ID)
		}

		stale := tx.Where("basket_id = ?", b.ID)
		if len(keep) > 0 {
			stale = stale.Where("id NOT IN ?", keep)
		}
		return stale.Delete(&basket.Line{}).Error
	})
}

// DeleteAbandoned removes open anonymous baskets not updated since before,
// together with their lines
func (r *GormBasketRepository) DeleteAbandoned(ctx context.Context, before time.Time) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		abandoned := tx.Model(&basket.Basket{}).Select("id").
			Where("owner_id IS NULL AND status = ? AND updated_at < ?", basket.StatusOpen, before)
		if err := tx.Where("basket_id IN (?)", abandoned).Delete(&basket.Line{}).Error; err != nil {
			return err
		}
		res := tx.
			Where("owner_id IS NULL AND status = ? AND updated_at < ?", basket.StatusOpen, before).
			Delete(&basket.Basket{})
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, err
}

var _ basket.Repository = (*GormBasketRepository)(nil)
