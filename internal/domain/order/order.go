package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/gmja/storefront/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NumberOffset is added to the order's sequence to form its public number
const NumberOffset = 100000

// Status represents the status of an order
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusComplete  Status = "complete"
	StatusCancelled Status = "cancelled"
)

// IsValid checks if the status is a valid value
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusComplete, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusPaid || target == StatusCancelled
	case StatusPaid:
		return target == StatusShipped || target == StatusCancelled
	case StatusShipped:
		return target == StatusComplete
	case StatusComplete, StatusCancelled:
		return false
	}
	return false
}

// Address is a shipping address
type Address struct {
	Name     string `gorm:"size:255" json:"name" form:"name" binding:"required,max=255"`
	Line1    string `gorm:"size:255" json:"line1" form:"line1" binding:"required,max=255"`
	Line2    string `gorm:"size:255" json:"line2" form:"line2" binding:"max=255"`
	City     string `gorm:"size:255" json:"city" form:"city" binding:"required,max=255"`
	Postcode string `gorm:"size:64" json:"postcode" form:"postcode" binding:"max=64"`
	Country  string `gorm:"size:2" json:"country" form:"country" binding:"required,len=2"`
	Phone    string `gorm:"size:32" json:"phone" form:"phone" binding:"max=32"`
}

// Validate checks the mandatory address fields
func (a Address) Validate() error {
	if strings.TrimSpace(a.Name) == "" || strings.TrimSpace(a.Line1) == "" || strings.TrimSpace(a.City) == "" {
		return shared.NewDomainError("INVALID_ADDRESS", "Name, address line and city are required")
	}
	if len(a.Country) != 2 {
		return shared.NewDomainError("INVALID_ADDRESS", "Country must be a two-letter code")
	}
	return nil
}

// Order is a submitted basket
type Order struct {
	shared.Model
	Number          string          `gorm:"size:40;uniqueIndex" json:"number"`
	Token           uuid.UUID       `gorm:"type:uuid;not null" json:"-"`
	UserID          *uint           `gorm:"index" json:"user_id"`
	BasketID        uint            `gorm:"not null" json:"basket_id"`
	Status          Status          `gorm:"size:16;not null" json:"status"`
	Lines           []Line          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"lines"`
	Total           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	ShippingAddress Address         `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	GuestEmail      string          `gorm:"size:254" json:"guest_email,omitempty"`
	PlacedAt        time.Time       `gorm:"not null" json:"placed_at"`
}

// Line is a product in an order, frozen at the price paid
type Line struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"not null;index" json:"-"`
	ProductID uint            `gorm:"not null" json:"product_id"`
	Title     string          `gorm:"size:255" json:"title"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
}

// TableName returns the table name for GORM
func (Line) TableName() string {
	return "order_lines"
}

// LineTotal is quantity times unit price
func (l Line) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// New creates a pending order; the number is assigned once the order has an ID
func New(userID *uint, basketID uint, lines []Line, address Address, guestEmail string) (*Order, error) {
	if len(lines) == 0 {
		return nil, shared.NewDomainError("NO_ITEMS", "Cannot place an order without items")
	}
	if err := address.Validate(); err != nil {
		return nil, err
	}
	if userID == nil && strings.TrimSpace(guestEmail) == "" {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Guest orders need an email address")
	}
	o := &Order{
		Token:           uuid.New(),
		UserID:          userID,
		BasketID:        basketID,
		Status:          StatusPending,
		Lines:           lines,
		ShippingAddress: address,
		GuestEmail:      strings.TrimSpace(guestEmail),
		PlacedAt:        time.Now(),
	}
	o.Total = o.computeTotal()
	return o, nil
}

func (o *Order) computeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

// ProvisionalNumber holds the unique number column until the ID is known
func (o *Order) ProvisionalNumber() {
	if o.Number == "" {
		o.Number = o.Token.String()
	}
}

// AssignNumber derives the public number from the order's ID
func (o *Order) AssignNumber() {
	o.Number = NumberFor(o.ID)
}

// NumberFor returns the public order number for a sequence value
func NumberFor(id uint) string {
	return fmt.Sprintf("%d", NumberOffset+id)
}

// NumItems is the number of units ordered
func (o *Order) NumItems() int {
	n := 0
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}

// BelongsTo reports whether userID placed the order
func (o *Order) BelongsTo(userID uint) bool {
	return o.UserID != nil && *o.UserID == userID
}

// TransitionTo moves the order to target
func (o *Order) TransitionTo(target Status) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown order status %q", target))
	}
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot move order from %s to %s", o.Status, target))
	}
	o.Status = target
	return nil
}

// MarkPaid records payment
func (o *Order) MarkPaid() error {
	return o.TransitionTo(StatusPaid)
}

// Ship marks the order as shipped
func (o *Order) Ship() error {
	return o.TransitionTo(StatusShipped)
}

// Complete marks the order as delivered
func (o *Order) Complete() error {
	return o.TransitionTo(StatusComplete)
}

// Cancel cancels a pending or paid order
func (o *Order) Cancel() error {
	return o.TransitionTo(StatusCancelled)
}
