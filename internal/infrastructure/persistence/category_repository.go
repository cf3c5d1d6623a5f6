package persistence

import (
	"context"
	"errors"

	"github.com/gmja/storefront/internal/domain/catalog"
	"github.com/gmja/storefront/internal/domain/shared"
	"gorm.io/gorm"
)

// GormCategoryRepository implements catalog.CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindByID finds a category by its ID
func (r *GormCategoryRepository) FindByID(ctx context.Context, id uint) (*catalog.Category, error) {
	var category catalog.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &category, nil
}

// FindAll finds all categories matching the filter
func (r *GormCategoryRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Category, int64, error) {
	query := r.db.WithContext(ctx).Model(&catalog.Category{})
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(slug) LIKE ? ESCAPE '\'`, p, p)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var categories []catalog.Category
	query = applySort(query, filter, CategorySortFields, "name")
	if err := paginate(query, filter).Find(&categories).Error; err != nil {
		return nil, 0, err
	}
	return categories, total, nil
}

// FindDescendantIDs walks the tree breadth first from id. Cycles left by
// manual edits are cut by the visited set.
func (r *GormCategoryRepository) FindDescendantIDs(ctx context.Context, id uint) ([]uint, error) {
	if _, err := r.FindByID(ctx, id); err != nil {
		return nil, err
	}

	ids := []uint{id}
	visited := map[uint]bool{id: true}
	frontier := []uint{id}
	for len(frontier) > 0 {
		var children []uint
		if err := r.db.WithContext(ctx).Model(&catalog.Category{}).
			Where("parent_id IN ?", frontier).
			Pluck("id", &children).Error; err != nil {
			return nil, err
		}
		frontier = frontier[:0]
		for _, child := range children {
			if visited[child] {
				continue
			}
			visited[child] = true
			ids = append(ids, child)
			frontier = append(frontier, child)
		}
	}
	return ids, nil
}

// Save creates or updates a category
func (r *GormCategoryRepository) Save(ctx context.Context, category *catalog.Category) error {
	if category.IsNew() {
		return r.db.WithContext(ctx).Create(category).Error
	}
	return r.db.WithContext(ctx).Save(category).Error
}

// Delete removes a category. Children move up to the deleted category's
// parent and its products become uncategorised.
func (r *GormCategoryRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category catalog.Category
		if err := tx.First(&category, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}
		if err := tx.Model(&catalog.Category{}).Where("parent_id = ?", id).
			Update("parent_id", category.ParentID).Error; err != nil {
			return err
		}
		if err := tx.Model(&catalog.Product{}).Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&catalog.Category{}, id).Error
	})
}

// Count returns the number of categories
func (r *GormCategoryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&catalog.Category{}).Count(&count).Error
	return count, err
}

// GormReviewRepository implements catalog.ReviewRepository using GORM
type GormReviewRepository struct {
	db *gorm.DB
}

// NewGormReviewRepository creates a new GormReviewRepository
func NewGormReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

// WithTx returns a new repository instance using the given transaction
func (r *GormReviewRepository) WithTx(tx *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: tx}
}

// Create inserts a review; a second review by the same user fails with
// catalog.ErrAlreadyReviewed
func (r *GormReviewRepository) Create(ctx context.Context, review *catalog.Review) error {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		if isUniqueViolation(err) {
			return catalog.ErrAlreadyReviewed
		}
		return err
	}
	return nil
}

// FindByProduct lists the reviews of a product, newest first by default
func (r *GormReviewRepository) FindByProduct(ctx context.Context, productID uint, filter shared.Filter) ([]catalog.Review, int64, error) {
	query := r.db.WithContext(ctx).Model(&catalog.Review{}).Where("product_id = ?", productID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []catalog.Review
	query = applySort(query, filter, ReviewSortFields, "created")
	if err := paginate(query, filter).Find(&reviews).Error; err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// ExistsForUser reports whether userID already reviewed the product
func (r *GormReviewRepository) ExistsForUser(ctx context.Context, productID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&catalog.Review{}).
		Where("product_id = ? AND user_id = ?", productID, userID).
		Count(&count).Error
	return count > 0, err
}

// ScoreStats returns the sum and number of scores for a product
func (r *GormReviewRepository) ScoreStats(ctx context.Context, productID uint) (int64, int, error) {
	var row struct {
		Total int64
		N     int
	}
	err := r.db.WithContext(ctx).Model(&catalog.Review{}).
		Select("COALESCE(SUM(score), 0) AS total, COUNT(*) AS n").
		Where("product_id = ?", productID).
		Scan(&row).Error
	return row.Total, row.N, err
}

var (
	_ catalog.CategoryRepository = (*GormCategoryRepository)(nil)
	_ catalog.ReviewRepository   = (*GormReviewRepository)(nil)
)
