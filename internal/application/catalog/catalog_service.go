package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/gmja/storefront/internal/domain/catalog"
	"github.com/gmja/storefront/internal/domain/identity"
	"github.com/gmja/storefront/internal/domain/shared"
	"github.com/gmja/storefront/internal/infrastructure/cache"
	"github.com/gmja/storefront/internal/infrastructure/storage"
	"github.com/gmja/storefront/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const (
	cachePrefix     = "catalog:"
	categoryTreeKey = cachePrefix + "categories:tree"
	maxPageSize     = 100
	// DefaultCacheTTL bounds how stale a cached listing can get
	DefaultCacheTTL = 5 * time.Minute
)

// Catalogue errors
var (
	ErrInvalidCategory = shared.NewDomainError("INVALID_CATEGORY", "Category not found")
	ErrInvalidParent   = shared.NewDomainError("INVALID_PARENT", "A category cannot be moved below itself")
	ErrProductInactive = shared.NewDomainError("PRODUCT_INACTIVE", "Product is not available")
)

// CatalogService handles products, categories and reviews
type CatalogService struct {
	products   catalog.ProductRepository
	categories catalog.CategoryRepository
	reviews    catalog.ReviewRepository
	cache      cache.Cache
	media      storage.MediaStorage
	events     shared.EventPublisher
	mediaURL   string
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(
	products catalog.ProductRepository,
	categories catalog.CategoryRepository,
	reviews catalog.ReviewRepository,
	c cache.Cache,
	media storage.MediaStorage,
	events shared.EventPublisher,
	mediaURL string,
	logger *zap.Logger,
) *CatalogService {
	if events == nil {
		events = shared.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		products:   products,
		categories: categories,
		reviews:    reviews,
		cache:      c,
		media:      media,
		events:     events,
		mediaURL:   mediaURL,
		cacheTTL:   DefaultCacheTTL,
		logger:     logger,
	}
}

// MediaURL is the prefix of product image URLs
func (s *CatalogService) MediaURL() string {
	return s.mediaURL
}

// ListProducts returns active products matching q. Results are cached until
// the next catalogue write.
func (s *CatalogService) ListProducts(ctx context.Context, q ProductQuery) (*shared.Paginated[ProductResponse], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "ListProducts")
	defer span.End()

	filter := shared.Filter{Page: q.Page, PageSize: q.PageSize, Search: strings.TrimSpace(q.Q)}.
		Normalize(maxPageSize).
		WithOrdering(q.Sort)

	key := productListKey(q, filter)
	var cached shared.Paginated[ProductResponse]
	if ok, err := s.cacheGet(ctx, key, &cached); ok && err == nil {
		return &cached, nil
	}

	pf := catalog.ProductFilter{Filter: filter, FeaturedOnly: q.Featured}
	if q.CategoryID != nil {
		ids, err := s.categories.FindDescendantIDs(ctx, *q.CategoryID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		pf.CategoryIDs = ids
	}

	products, total, err := s.products.FindAll(ctx, pf)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	items := make([]ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, ToProductResponse(&products[i], s.mediaURL))
	}
	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	s.cacheSet(ctx, key, result)
	return &result, nil
}

// AdminListProducts lists products including inactive ones, uncached
func (s *CatalogService) AdminListProducts(ctx context.Context, filter shared.Filter) (*shared.Paginated[ProductResponse], error) {
	filter = filter.Normalize(maxPageSize)
	products, total, err := s.products.FindAll(ctx, catalog.ProductFilter{Filter: filter, IncludeInactive: true})
	if err != nil {
		return nil, err
	}
	items := make([]ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, ToProductResponse(&products[i], s.mediaURL))
	}
	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}

// ProductRequestFor returns the request that reproduces the stored product,
// the starting point of partial admin edits
func (s *CatalogService) ProductRequestFor(ctx context.Context, id uint) (*ProductRequest, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	req := ProductRequestFrom(product)
	return &req, nil
}

// CountProducts returns the number of products including inactive ones
func (s *CatalogService) CountProducts(ctx context.Context) (int64, error) {
	return s.products.Count(ctx)
}

// GetProduct returns a product by ID; inactive products are hidden unless
// includeInactive is set
func (s *CatalogService) GetProduct(ctx context.Context, id uint, includeInactive bool) (*ProductResponse, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive && !includeInactive {
		return nil, shared.ErrNotFound
	}
	resp := ToProductResponse(product, s.mediaURL)
	return &resp, nil
}

// CreateProduct adds a product to the catalogue
func (s *CatalogService) CreateProduct(ctx context.Context, actorID uint, req ProductRequest) (*ProductResponse, error) {
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}
	product, err := catalog.NewProduct(req.input())
	if err != nil {
		return nil, err
	}
	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}
	s.productChanged(ctx, product.ID, actorID, false)

	resp := ToProductResponse(product, s.mediaURL)
	return &resp, nil
}

// UpdateProduct replaces the editable fields of a product
func (s *CatalogService) UpdateProduct(ctx context.Context, actorID, id uint, req ProductRequest) (*ProductResponse, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}
	if err := product.Apply(req.input()); err != nil {
		return nil, err
	}
	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}
	s.productChanged(ctx, product.ID, actorID, false)

	resp := ToProductResponse(product, s.mediaURL)
	return &resp, nil
}

// DeleteProduct removes a product and its image
func (s *CatalogService) DeleteProduct(ctx context.Context, actorID, id uint) error {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	if product.ImageKey != "" {
		s.deleteMedia(ctx, product.ImageKey)
	}
	s.productChanged(ctx, id, actorID, true)
	return nil
}

// SetProductImage stores an uploaded image and makes it the product image.
// The previous image is removed.
func (s *CatalogService) SetProductImage(ctx context.Context, actorID, id uint, filename, contentType string, body io.Reader) (*ProductResponse, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	key := storage.ProductImageKey(id, filename)
	if err := s.media.Save(ctx, key, body, contentType); err != nil {
		return nil, fmt.Errorf("failed to store product image: %w", err)
	}

	previous := product.ImageKey
	product.SetImage(key)
	if err := s.products.Save(ctx, product); err != nil {
		s.deleteMedia(ctx, key)
		return nil, err
	}
	if previous != "" && previous != key {
		s.deleteMedia(ctx, previous)
	}
	s.productChanged(ctx, id, actorID, false)

	resp := ToProductResponse(product, s.mediaURL)
	return &resp, nil
}

// ListCategories returns the category tree, cached
func (s *CatalogService) ListCategories(ctx context.Context) ([]CategoryNodeResponse, error) {
	var cached []CategoryNodeResponse
	if ok, err := s.cacheGet(ctx, categoryTreeKey, &cached); ok && err == nil {
		return cached, nil
	}

	categories, _, err := s.categories.FindAll(ctx, shared.Filter{OrderBy: "name", OrderDir: "asc"})
	if err != nil {
		return nil, err
	}
	tree := toCategoryNodes(catalog.BuildTree(categories))
	s.cacheSet(ctx, categoryTreeKey, tree)
	return tree, nil
}

// AdminListCategories returns a flat, searchable page of categories
func (s *CatalogService) AdminListCategories(ctx context.Context, filter shared.Filter) (*shared.Paginated[CategoryResponse], error) {
	filter = filter.Normalize(maxPageSize)
	categories, total, err := s.categories.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		items = append(items, ToCategoryResponse(&categories[i]))
	}
	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}

// CountCategories returns the number of categories
func (s *CatalogService) CountCategories(ctx context.Context) (int64, error) {
	return s.categories.Count(ctx)
}

// GetCategory returns a category by ID
func (s *CatalogService) GetCategory(ctx context.Context, id uint) (*CategoryResponse, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToCategoryResponse(category)
	return &resp, nil
}

// CreateCategory adds a category
func (s *CatalogService) CreateCategory(ctx context.Context, req CategoryRequest) (*CategoryResponse, error) {
	category, err := catalog.NewCategory(req.Name, req.Slug, req.Description)
	if err != nil {
		return nil, err
	}
	if err := s.applyParent(ctx, category, req.ParentID); err != nil {
		return nil, err
	}
	if err := s.categories.Save(ctx, category); err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	resp := ToCategoryResponse(category)
	return &resp, nil
}

// UpdateCategory replaces a category's fields and parent
func (s *CatalogService) UpdateCategory(ctx context.Context, id uint, req CategoryRequest) (*CategoryResponse, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := category.Update(req.Name, req.Slug, req.Description); err != nil {
		return nil, err
	}
	if req.ParentID != nil {
		below, err := s.categories.FindDescendantIDs(ctx, id)
		if err != nil {
			return nil, err
		}
		if slices.Contains(below, *req.ParentID) {
			return nil, ErrInvalidParent
		}
	}
	if err := s.applyParent(ctx, category, req.ParentID); err != nil {
		return nil, err
	}
	if err := s.categories.Save(ctx, category); err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	resp := ToCategoryResponse(category)
	return &resp, nil
}

// DeleteCategory removes a category
func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	if _, err := s.categories.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// AddReview records a review of an active product. author is nil for
// anonymous reviews. The product rating is recomputed from all scores.
func (s *CatalogService) AddReview(ctx context.Context, productID uint, author *identity.User, req ReviewRequest) (*ReviewResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "AddReview", telemetry.AttrProductID, productID)
	defer span.End()

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, ErrProductInactive
	}

	var userID *uint
	name, email := req.Name, req.Email
	if author != nil {
		id := author.ID
		userID = &id
		exists, err := s.reviews.ExistsForUser(ctx, productID, author.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, catalog.ErrAlreadyReviewed
		}
		if name == "" {
			name = author.DisplayName()
		}
		if email == "" {
			email = author.Email
		}
	}

	review, err := catalog.NewReview(productID, userID, req.Score, req.Title, req.Body, name, email)
	if err != nil {
		return nil, err
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, catalog.ErrAlreadyReviewed
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	sum, count, err := s.reviews.ScoreStats(ctx, productID)
	if err != nil {
		return nil, err
	}
	product.ApplyRating(sum, count)
	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	if err := s.events.Publish(ctx, catalog.NewReviewPostedEvent(review)); err != nil {
		s.logger.Warn("Failed to publish review event", zap.Uint("review_id", review.ID), zap.Error(err))
	}

	resp := ToReviewResponse(review)
	return &resp, nil
}

// ListReviews returns the reviews of a product, newest first
func (s *CatalogService) ListReviews(ctx context.Context, productID uint, filter shared.Filter) (*shared.Paginated[ReviewResponse], error) {
	filter = filter.Normalize(maxPageSize)
	if filter.OrderBy == "" {
		filter.OrderBy, filter.OrderDir = "created", "desc"
	}
	reviews, total, err := s.reviews.FindByProduct(ctx, productID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]ReviewResponse, 0, len(reviews))
	for i := range reviews {
		items = append(items, ToReviewResponse(&reviews[i]))
	}
	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}

func (s *CatalogService) checkCategory(ctx context.Context, id *uint) error {
	if id == nil {
		return nil
	}
	if _, err := s.categories.FindByID(ctx, *id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return ErrInvalidCategory
		}
		return err
	}
	return nil
}

func (s *CatalogService) applyParent(ctx context.Context, category *catalog.Category, parentID *uint) error {
	if parentID == nil {
		return category.SetParent(nil)
	}
	parent, err := s.categories.FindByID(ctx, *parentID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return ErrInvalidCategory
		}
		return err
	}
	return category.SetParent(parent)
}

func (s *CatalogService) productChanged(ctx context.Context, productID, actorID uint, deleted bool) {
	s.invalidate(ctx)
	if err := s.events.Publish(ctx, catalog.NewProductChangedEvent(productID, actorID, deleted)); err != nil {
		s.logger.Warn("Failed to publish product event", zap.Uint("product_id", productID), zap.Error(err))
	}
}

// invalidate drops every cached listing; cache failures only cost freshness
func (s *CatalogService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePrefix(ctx, cachePrefix); err != nil {
		s.logger.Warn("Failed to invalidate catalogue cache", zap.Error(err))
	}
}

func (s *CatalogService) cacheGet(ctx context.Context, key string, dst any) (bool, error) {
	if s.cache == nil {
		return false, nil
	}
	ok, err := cache.GetJSON(ctx, s.cache, key, dst)
	if err != nil {
		s.logger.Warn("Catalogue cache read failed", zap.String("key", key), zap.Error(err))
	}
	return ok, err
}

func (s *CatalogService) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := cache.SetJSON(ctx, s.cache, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("Catalogue cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *CatalogService) deleteMedia(ctx context.Context, key string) {
	if err := s.media.Delete(ctx, key); err != nil {
		s.logger.Warn("Failed to delete product image", zap.String("key", key), zap.Error(err))
	}
}

func productListKey(q ProductQuery, f shared.Filter) string {
	category := "-"
	if q.CategoryID != nil {
		category = fmt.Sprint(*q.CategoryID)
	}
	return fmt.Sprintf("%sproducts:q=%s|c=%s|f=%t|o=%s:%s|p=%d|n=%d",
		cachePrefix, f.Search, category, q.Featured, f.OrderBy, f.OrderDir, f.Page, f.PageSize)
}
