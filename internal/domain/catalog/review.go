package catalog

import (
	"strings"
	"time"

	"github.com/gmja/storefront/internal/domain/shared"
)

// Review score bounds
const (
	MinScore = 1
	MaxScore = 5
)

// ErrAlreadyReviewed is returned when a user reviews a product twice
var ErrAlreadyReviewed = shared.NewDomainError("ALREADY_REVIEWED", "You have already reviewed this product")

// Review is a customer's rating of a product
type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_review_product_user,priority:1" json:"product_id"`
	UserID    *uint     `gorm:"uniqueIndex:idx_review_product_user,priority:2" json:"user_id"`
	Score     int       `gorm:"not null" json:"score"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Body      string    `gorm:"type:text" json:"body"`
	Name      string    `gorm:"size:255" json:"name"`
	Email     string    `gorm:"size:254" json:"-"`
	Created   time.Time `gorm:"not null" json:"created"`
}

// NewReview validates and creates a review; userID is nil for anonymous reviews
func NewReview(productID uint, userID *uint, score int, title, body, name, email string) (*Review, error) {
	if score < MinScore || score > MaxScore {
		return nil, shared.NewDomainError("INVALID_SCORE", "Score must be between 1 and 5")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Review title is required")
	}
	if userID == nil && strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Anonymous reviews need a name")
	}
	return &Review{
		ProductID: productID,
		UserID:    userID,
		Score:     score,
		Title:     title,
		Body:      strings.TrimSpace(body),
		Name:      strings.TrimSpace(name),
		Email:     strings.TrimSpace(email),
		Created:   time.Now(),
	}, nil
}
