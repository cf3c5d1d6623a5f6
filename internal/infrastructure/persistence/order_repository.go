package persistence

import (
	"context"
	"errors"

	"github.com/gmja/storefront/internal/domain/basket"
	"github.com/gmja/storefront/internal/domain/order"
	"github.com/gmja/storefront/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx returns a new repository instance using the given transaction
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: tx}
}

// Create inserts the order with its lines and assigns the public number
// derived from the generated ID.
func (r *GormOrderRepository) Create(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o.ProvisionalNumber()
		if err := tx.Create(o).Error; err != nil {
			return err
		}
		o.AssignNumber()
		return tx.Model(o).Update("number", o.Number).Error
	})
}

// Update saves the order header; lines are immutable once placed
func (r *GormOrderRepository) Update(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(o).Error
}

// FindByID finds an order with its lines
func (r *GormOrderRepository) FindByID(ctx context.Context, id uint) (*order.Order, error) {
	return r.first(ctx, "id = ?", id)
}

// FindByNumber finds an order by its public number
func (r *GormOrderRepository) FindByNumber(ctx context.Context, number string) (*order.Order, error) {
	return r.first(ctx, "number = ?", number)
}

func (r *GormOrderRepository) first(ctx context.Context, query string, args ...any) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).Preload("Lines", preloadLines).Where(query, args...).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindByUser lists a user's orders, newest first by default
func (r *GormOrderRepository) FindByUser(ctx context.Context, userID uint, filter shared.Filter) ([]order.Order, int64, error) {
	return r.find(r.db.WithContext(ctx).Model(&order.Order{}).Where("user_id = ?", userID), filter)
}

// FindAll lists orders; Search matches the number or guest email and
// Filters["status"] narrows by status
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&order.Order{})
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where(`LOWER(number) LIKE ? ESCAPE '\' OR LOWER(guest_email) LIKE ? ESCAPE '\'`, p, p)
	}
	if status, ok := filter.Filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	return r.find(query, filter)
}

func (r *GormOrderRepository) find(query *gorm.DB, filter shared.Filter) ([]order.Order, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []order.Order
	query = applySort(query, filter, OrderSortFields, "placed_at")
	if err := paginate(query, filter).Preload("Lines", preloadLines).Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// Count returns the number of orders
func (r *GormOrderRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&order.Order{}).Count(&count).Error
	return count, err
}

// GormCheckoutStore places orders atomically: stock is taken, the order is
// written and the basket is frozen in one transaction.
type GormCheckoutStore struct {
	db *gorm.DB
}

// NewGormCheckoutStore creates a new GormCheckoutStore
func NewGormCheckoutStore(db *gorm.DB) *GormCheckoutStore {
	return &GormCheckoutStore{db: db}
}

// PlaceOrder commits o and submits b. If any line cannot be fulfilled the
// transaction rolls back with shared.ErrInsufficientStock and neither
// entity is modified in storage.
func (s *GormCheckoutStore) PlaceOrder(ctx context.Context, b *basket.Basket, o *order.Order) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := NewGormProductRepository(tx)
		for _, line := range o.Lines {
			if err := products.DecreaseStock(ctx, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}
		if err := NewGormOrderRepository(tx).Create(ctx, o); err != nil {
			return err
		}
		if err := b.Submit(); err != nil {
			return err
		}
		return NewGormBasketRepository(tx).Save(ctx, b)
	})
}

var _ order.Repository = (*GormOrderRepository)(nil)
