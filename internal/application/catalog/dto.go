package catalog

import (
	"time"

	"github.com/gmja/storefront/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductQuery is the public catalogue listing filter
type ProductQuery struct {
	Q          string `form:"q" json:"q"`
	CategoryID *uint  `form:"category" json:"category"`
	Featured   bool   `form:"featured" json:"featured"`
	Sort       string `form:"sort" json:"sort"`
	Page       int    `form:"page" json:"page"`
	PageSize   int    `form:"page_size" json:"page_size"`
}

// ProductRequest creates or replaces a product
type ProductRequest struct {
	Title          string           `json:"title" form:"title" binding:"required,max=255"`
	Slug           string           `json:"slug" form:"slug" binding:"omitempty,slug,max=255"`
	UPC            string           `json:"upc" form:"upc" binding:"max=64"`
	Description    string           `json:"description" form:"description"`
	Brand          string           `json:"brand" form:"brand" binding:"max=128"`
	CategoryID     *uint            `json:"category_id" form:"category_id"`
	Price          decimal.Decimal  `json:"price" form:"price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price" form:"compare_at_price"`
	Stock          int              `json:"stock" form:"stock" binding:"min=0"`
	IsActive       bool             `json:"is_active" form:"is_active"`
	IsFeatured     bool             `json:"is_featured" form:"is_featured"`
}

func (r ProductRequest) input() catalog.ProductInput {
	return catalog.ProductInput{
		Title:          r.Title,
		Slug:           r.Slug,
		UPC:            r.UPC,
		Description:    r.Description,
		Brand:          r.Brand,
		CategoryID:     r.CategoryID,
		Price:          r.Price,
		CompareAtPrice: r.CompareAtPrice,
		Stock:          r.Stock,
		IsActive:       r.IsActive,
		IsFeatured:     r.IsFeatured,
	}
}

// ProductRequestFrom returns the request that reproduces p
func ProductRequestFrom(p *catalog.Product) ProductRequest {
	in := p.Input()
	return ProductRequest{
		Title:          in.Title,
		Slug:           in.Slug,
		UPC:            in.UPC,
		Description:    in.Description,
		Brand:          in.Brand,
		CategoryID:     in.CategoryID,
		Price:          in.Price,
		CompareAtPrice: in.CompareAtPrice,
		Stock:          in.Stock,
		IsActive:       in.IsActive,
		IsFeatured:     in.IsFeatured,
	}
}

// CategoryRequest creates or replaces a category
type CategoryRequest struct {
	Name        string `json:"name" form:"name" binding:"required,max=255"`
	Slug        string `json:"slug" form:"slug" binding:"omitempty,slug,max=255"`
	Description string `json:"description" form:"description"`
	ParentID    *uint  `json:"parent_id" form:"parent_id"`
}

// ReviewRequest is a review posted by a customer
type ReviewRequest struct {
	Score int    `json:"score" form:"score" binding:"required,min=1,max=5"`
	Title string `json:"title" form:"title" binding:"required,max=255"`
	Body  string `json:"body" form:"body"`
	Name  string `json:"name" form:"name" binding:"max=255"`
	Email string `json:"email" form:"email" binding:"omitempty,email"`
}

// ProductResponse represents a product in API responses and templates
type ProductResponse struct {
	ID             uint             `json:"id"`
	Title          string           `json:"title"`
	Slug           string           `json:"slug"`
	UPC            string           `json:"upc"`
	Description    string           `json:"description"`
	Brand          string           `json:"brand"`
	CategoryID     *uint            `json:"category_id"`
	Price          decimal.Decimal  `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price"`
	OnSale         bool             `json:"on_sale"`
	Stock          int              `json:"stock"`
	Available      bool             `json:"available"`
	IsActive       bool             `json:"is_active"`
	IsFeatured     bool             `json:"is_featured"`
	ImageURL       string           `json:"image_url"`
	Rating         decimal.Decimal  `json:"rating"`
	NumReviews     int              `json:"num_reviews"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// ToProductResponse converts a product; mediaURL prefixes the image key
func ToProductResponse(p *catalog.Product, mediaURL string) ProductResponse {
	resp := ProductResponse{
		ID:             p.ID,
		Title:          p.Title,
		Slug:           p.Slug,
		UPC:            p.UPC,
		Description:    p.Description,
		Brand:          p.Brand,
		CategoryID:     p.CategoryID,
		Price:          p.Price,
		CompareAtPrice: p.CompareAtPrice,
		OnSale:         p.IsOnSale(),
		Stock:          p.AvailableStock(),
		Available:      p.IsAvailable(),
		IsActive:       p.IsActive,
		IsFeatured:     p.IsFeatured,
		Rating:         p.RatingAverage,
		NumReviews:     p.NumReviews,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if p.ImageKey != "" {
		resp.ImageURL = mediaURL + p.ImageKey
	}
	return resp
}

// CategoryResponse represents a category
type CategoryResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	ParentID    *uint  `json:"parent_id"`
}

// ToCategoryResponse converts a category
func ToCategoryResponse(c *catalog.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		ParentID:    c.ParentID,
	}
}

// CategoryNodeResponse is a category with its subtree
type CategoryNodeResponse struct {
	CategoryResponse
	Children []CategoryNodeResponse `json:"children"`
}

func toCategoryNodes(nodes []*catalog.CategoryNode) []CategoryNodeResponse {
	out := make([]CategoryNodeResponse, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, CategoryNodeResponse{
			CategoryResponse: ToCategoryResponse(&n.Category),
			Children:         toCategoryNodes(n.Children),
		})
	}
	return out
}

// ReviewResponse represents a review
type ReviewResponse struct {
	ID        uint      `json:"id"`
	ProductID uint      `json:"product_id"`
	UserID    *uint     `json:"user_id"`
	Score     int       `json:"score"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Name      string    `json:"name"`
	Created   time.Time `json:"created"`
}

// ToReviewResponse converts a review
func ToReviewResponse(r *catalog.Review) ReviewResponse {
	return ReviewResponse{
		ID:        r.ID,
		ProductID: r.ProductID,
		UserID:    r.UserID,
		Score:     r.Score,
		Title:     r.Title,
		Body:      r.Body,
		Name:      r.Name,
		Created:   r.Created,
	}
}
