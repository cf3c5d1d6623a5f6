package catalog

import (
	"strings"

	"github.com/gmja/storefront/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Product is a purchasable item of the catalogue
type Product struct {
	shared.Model
	Title          string           `gorm:"size:255;not null" json:"title"`
	Slug           string           `gorm:"size:255;not null;index" json:"slug"`
	UPC            string           `gorm:"column:upc;size:64;index" json:"upc"`
	Description    string           `gorm:"type:text" json:"description"`
	Brand          string           `gorm:"size:128" json:"brand"`
	CategoryID     *uint            `gorm:"index" json:"category_id"`
	Price          decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"price"`
	CompareAtPrice *decimal.Decimal `gorm:"type:decimal(12,2)" json:"compare_at_price"`
	Stock          int              `gorm:"not null" json:"stock"`
	IsActive       bool             `gorm:"not null" json:"is_active"`
	IsFeatured     bool             `gorm:"not null" json:"is_featured"`
	ImageKey       string           `gorm:"size:512" json:"image_key"`
	RatingAverage  decimal.Decimal  `gorm:"type:decimal(3,2);not null" json:"rating"`
	NumReviews     int              `gorm:"not null" json:"num_reviews"`
}

// ProductInput carries the editable product fields
type ProductInput struct {
	Title          string
	Slug           string
	UPC            string
	Description    string
	Brand          string
	CategoryID     *uint
	Price          decimal.Decimal
	CompareAtPrice *decimal.Decimal
	Stock          int
	IsActive       bool
	IsFeatured     bool
}

// NewProduct creates a product from input
func NewProduct(in ProductInput) (*Product, error) {
	p := &Product{}
	if err := p.Apply(in); err != nil {
		return nil, err
	}
	return p, nil
}

// Apply validates in and copies it onto the product
func (p *Product) Apply(in ProductInput) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Product title is required")
	}
	if len(title) > 255 {
		return shared.NewDomainError("INVALID_TITLE", "Product title cannot exceed 255 characters")
	}
	slug := in.Slug
	if slug == "" {
		slug = Slugify(title)
	}
	if err := ValidateSlug(slug); err != nil {
		return err
	}
	if in.Price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	if in.CompareAtPrice != nil && in.CompareAtPrice.LessThan(in.Price) {
		return shared.NewDomainError("INVALID_PRICE", "Compare-at price cannot be lower than the price")
	}
	if in.Stock < 0 {
		return shared.NewDomainError("INVALID_STOCK", "Stock cannot be negative")
	}

	p.Title = title
	p.Slug = slug
	p.UPC = strings.TrimSpace(in.UPC)
	p.Description = strings.TrimSpace(in.Description)
	p.Brand = strings.TrimSpace(in.Brand)
	p.CategoryID = in.CategoryID
	p.Price = in.Price.Round(2)
	if in.CompareAtPrice != nil {
		cmp := in.CompareAtPrice.Round(2)
		p.CompareAtPrice = &cmp
	} else {
		p.CompareAtPrice = nil
	}
	p.Stock = in.Stock
	p.IsActive = in.IsActive
	p.IsFeatured = in.IsFeatured
	return nil
}

// Input returns the editable fields of p
func (p *Product) Input() ProductInput {
	return ProductInput{
		Title:          p.Title,
		Slug:           p.Slug,
		UPC:            p.UPC,
		Description:    p.Description,
		Brand:          p.Brand,
		CategoryID:     p.CategoryID,
		Price:          p.Price,
		CompareAtPrice: p.CompareAtPrice,
		Stock:          p.Stock,
		IsActive:       p.IsActive,
		IsFeatured:     p.IsFeatured,
	}
}

// IsAvailable reports whether the product can be bought at all
func (p *Product) IsAvailable() bool {
	return p.IsActive && p.Stock > 0
}

// CanFulfil reports whether quantity units are in stock
func (p *Product) CanFulfil(quantity int) bool {
	return p.IsActive && quantity > 0 && quantity <= p.Stock
}

// DecreaseStock removes sold units
func (p *Product) DecreaseStock(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if quantity > p.Stock {
		return shared.ErrInsufficientStock
	}
	p.Stock -= quantity
	return nil
}

// IsOnSale reports whether a higher compare-at price is shown
func (p *Product) IsOnSale() bool {
	return p.CompareAtPrice != nil && p.CompareAtPrice.GreaterThan(p.Price)
}

// SetImage records the media storage key of the primary image
func (p *Product) SetImage(key string) {
	p.ImageKey = key
}

// ApplyRating recomputes the rating from the sum of all review scores
func (p *Product) ApplyRating(scoreSum int64, count int) {
	p.NumReviews = count
	if count == 0 {
		p.RatingAverage = decimal.Zero
		return
	}
	p.RatingAverage = decimal.NewFromInt(scoreSum).Div(decimal.NewFromInt(int64(count))).Round(2)
}

// AvailableStock returns sellable units; inactive products have none
func (p *Product) AvailableStock() int {
	if !p.IsActive {
		return 0
	}
	return p.Stock
}

// UnitPrice is the current selling price
func (p *Product) UnitPrice() decimal.Decimal {
	return p.Price
}

// DisplayTitle is the title shown on basket lines
func (p *Product) DisplayTitle() string {
	return p.Title
}
