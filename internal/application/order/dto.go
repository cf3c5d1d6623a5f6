package order

import (
	"time"

	"github.com/gmja/storefront/internal/domain/order"
	"github.com/shopspring/decimal"
)

// CheckoutRequest carries the shipping details of a new order. Email is
// required for guests.
type CheckoutRequest struct {
	Address order.Address `json:"shipping_address" binding:"required"`
	Email   string        `json:"email" form:"email" binding:"omitempty,email"`
}

// StatusRequest moves an order to another status
type StatusRequest struct {
	Status order.Status `json:"status" form:"status" binding:"required"`
}

// LineResponse represents an order line
type LineResponse struct {
	ProductID uint            `json:"product_id"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

// OrderResponse represents an order
type OrderResponse struct {
	ID              uint            `json:"id"`
	Number          string          `json:"number"`
	Status          order.Status    `json:"status"`
	UserID          *uint           `json:"user_id"`
	GuestEmail      string          `json:"guest_email,omitempty"`
	Lines           []LineResponse  `json:"lines"`
	NumItems        int             `json:"num_items"`
	Total           decimal.Decimal `json:"total"`
	ShippingAddress order.Address   `json:"shipping_address"`
	PlacedAt        time.Time       `json:"placed_at"`
}

// ToOrderResponse converts an order
func ToOrderResponse(o *order.Order) OrderResponse {
	lines := make([]LineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, LineResponse{
			ProductID: l.ProductID,
			Title:     l.Title,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Total:     l.LineTotal(),
		})
	}
	return OrderResponse{
		ID:              o.ID,
		Number:          o.Number,
		Status:          o.Status,
		UserID:          o.UserID,
		GuestEmail:      o.GuestEmail,
		Lines:           lines,
		NumItems:        o.NumItems(),
		Total:           o.Total,
		ShippingAddress: o.ShippingAddress,
		PlacedAt:        o.PlacedAt,
	}
}
