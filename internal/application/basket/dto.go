package basket

import (
	"github.com/gmja/storefront/internal/domain/basket"
	"github.com/shopspring/decimal"
)

// Ref identifies the shopper's basket: the user's open basket when UserID
// is set, otherwise the anonymous basket remembered by the session.
type Ref struct {
	UserID   *uint
	BasketID uint
}

// Anonymous reports whether the shopper is not logged in
func (r Ref) Anonymous() bool {
	return r.UserID == nil
}

// AddProductRequest adds a product to the basket
type AddProductRequest struct {
	ProductID uint `json:"product_id" form:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" form:"quantity" binding:"omitempty,min=1"`
}

// UpdateLineRequest changes the quantity of a line; zero removes it
type UpdateLineRequest struct {
	Quantity int `json:"quantity" form:"quantity" binding:"min=0"`
}

// LineResponse represents a basket line
type LineResponse struct {
	ID        uint            `json:"id"`
	ProductID uint            `json:"product_id"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

// BasketResponse represents a basket
type BasketResponse struct {
	ID       uint            `json:"id"`
	Status   string          `json:"status"`
	Lines    []LineResponse  `json:"lines"`
	NumItems int             `json:"num_items"`
	Total    decimal.Decimal `json:"total"`
}

// ToBasketResponse converts a basket
func ToBasketResponse(b *basket.Basket) BasketResponse {
	lines := make([]LineResponse, 0, len(b.Lines))
	for _, l := range b.Lines {
		lines = append(lines, LineResponse{
			ID:        l.ID,
			ProductID: l.ProductID,
			Title:     l.Title,
			Quantity:  l.Quantity,
			UnitPrice: l.PriceExclTax,
			Total:     l.Total(),
		})
	}
	return BasketResponse{
		ID:       b.ID,
		Status:   string(b.Status),
		Lines:    lines,
		NumItems: b.NumItems(),
		Total:    b.Total(),
	}
}
