package basket

import (
	"github.com/gmja/storefront/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a basket
type Status string

const (
	StatusOpen      Status = "open"
	StatusMerged    Status = "merged"
	StatusSubmitted Status = "submitted"
)

// Errors returned by basket operations
var (
	ErrEmptyBasket   = shared.NewDomainError("EMPTY_BASKET", "Your basket is empty")
	ErrBasketClosed  = shared.NewDomainError("BASKET_CLOSED", "This basket can no longer be modified")
	ErrLineNotFound  = shared.NewDomainError("LINE_NOT_FOUND", "Basket line not found")
	ErrInvalidAmount = shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
)

// Basket holds the products a shopper intends to buy. Anonymous baskets have
// no owner and are tracked through the session.
type Basket struct {
	shared.Model
	OwnerID *uint  `gorm:"index" json:"owner_id"`
	Status  Status `gorm:"size:16;not null;index" json:"status"`
	Lines   []Line `gorm:"foreignKey:BasketID;constraint:OnDelete:CASCADE" json:"lines"`
}

// Line is one product in a basket
type Line struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	BasketID     uint            `gorm:"not null;index" json:"-"`
	ProductID    uint            `gorm:"not null" json:"product_id"`
	Title        string          `gorm:"size:255" json:"title"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	PriceExclTax decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price_excl_tax"`
}

// TableName returns the table name for GORM
func (Line) TableName() string {
	return "basket_lines"
}

// Stocked is the product information a basket needs to accept a line
type Stocked interface {
	GetID() uint
	AvailableStock() int
	UnitPrice() decimal.Decimal
	DisplayTitle() string
}

// New creates an open basket
func New(ownerID *uint) *Basket {
	return &Basket{OwnerID: ownerID, Status: StatusOpen, Lines: []Line{}}
}

// IsOpen reports whether the basket accepts changes
func (b *Basket) IsOpen() bool {
	return b.Status == StatusOpen
}

// AddProduct adds quantity units, merging with an existing line for the product
func (b *Basket) AddProduct(p Stocked, quantity int) (*Line, error) {
	if !b.IsOpen() {
		return nil, ErrBasketClosed
	}
	if quantity < 1 {
		return nil, ErrInvalidAmount
	}
	for i := range b.Lines {
		line := &b.Lines[i]
		if line.ProductID != p.GetID() {
			continue
		}
		if line.Quantity+quantity > p.AvailableStock() {
			return nil, shared.ErrInsufficientStock
		}
		line.Quantity += quantity
		line.PriceExclTax = p.UnitPrice()
		return line, nil
	}
	if quantity > p.AvailableStock() {
		return nil, shared.ErrInsufficientStock
	}
	b.Lines = append(b.Lines, Line{
		BasketID:     b.ID,
		ProductID:    p.GetID(),
		Title:        p.DisplayTitle(),
		Quantity:     quantity,
		PriceExclTax: p.UnitPrice(),
	})
	return &b.Lines[len(b.Lines)-1], nil
}

// UpdateLine sets the quantity of a line; zero removes it
func (b *Basket) UpdateLine(lineID uint, quantity int, stock int) error {
	if !b.IsOpen() {
		return ErrBasketClosed
	}
	if quantity < 0 {
		return ErrInvalidAmount
	}
	if quantity == 0 {
		return b.RemoveLine(lineID)
	}
	line := b.Line(lineID)
	if line == nil {
		return ErrLineNotFound
	}
	if quantity > stock {
		return shared.ErrInsufficientStock
	}
	line.Quantity = quantity
	return nil
}

// RemoveLine deletes a line
func (b *Basket) RemoveLine(lineID uint) error {
	if !b.IsOpen() {
		return ErrBasketClosed
	}
	for i := range b.Lines {
		if b.Lines[i].ID == lineID {
			b.Lines = append(b.Lines[:i], b.Lines[i+1:]...)
			return nil
		}
	}
	return ErrLineNotFound
}

// Line returns the line with the given id
func (b *Basket) Line(lineID uint) *Line {
	for i := range b.Lines {
		if b.Lines[i].ID == lineID {
			return &b.Lines[i]
		}
	}
	return nil
}

// Total is the sum of all line totals
func (b *Basket) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range b.Lines {
		total = total.Add(line.Total())
	}
	return total
}

// NumItems is the number of units across all lines
func (b *Basket) NumItems() int {
	n := 0
	for _, line := range b.Lines {
		n += line.Quantity
	}
	return n
}

// IsEmpty reports whether the basket has no lines
func (b *Basket) IsEmpty() bool {
	return len(b.Lines) == 0
}

// Merge moves every line of other into b and marks other as merged.
// Quantities of lines for the same product are added together.
func (b *Basket) Merge(other *Basket) error {
	if !b.IsOpen() || !other.IsOpen() {
		return ErrBasketClosed
	}
	for _, incoming := range other.Lines {
		merged := false
		for i := range b.Lines {
			if b.Lines[i].ProductID == incoming.ProductID {
				b.Lines[i].Quantity += incoming.Quantity
				merged = true
				break
			}
		}
		if !merged {
			b.Lines = append(b.Lines, Line{
				BasketID:     b.ID,
				ProductID:    incoming.ProductID,
				Title:        incoming.Title,
				Quantity:     incoming.Quantity,
				PriceExclTax: incoming.PriceExclTax,
			})
		}
	}
	other.Lines = []Line{}
	other.Status = StatusMerged
	return nil
}

// Submit freezes the basket once an order is placed
func (b *Basket) Submit() error {
	if !b.IsOpen() {
		return ErrBasketClosed
	}
	if b.IsEmpty() {
		return ErrEmptyBasket
	}
	b.Status = StatusSubmitted
	return nil
}

// Total is quantity times unit price
func (l Line) Total() decimal.Decimal {
	return l.PriceExclTax.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
