// Package wishlist manages the products users save for later.
package wishlist

import (
	"context"

	catalogapp "github.com/gmja/storefront/internal/application/catalog"
	"github.com/gmja/storefront/internal/domain/catalog"
	"github.com/gmja/storefront/internal/domain/wishlist"
)

// WishlistService manages saved products
type WishlistService struct {
	entries  wishlist.Repository
	products catalog.ProductRepository
	mediaURL string
}

// NewWishlistService creates a new WishlistService
func NewWishlistService(entries wishlist.Repository, products catalog.ProductRepository, mediaURL string) *WishlistService {
	return &WishlistService{entries: entries, products: products, mediaURL: mediaURL}
}

// List returns the saved products that are still on sale, most recent first
func (s *WishlistService) List(ctx context.Context, userID uint) ([]catalogapp.ProductResponse, error) {
	ids, err := s.entries.ProductIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	out := make([]catalogapp.ProductResponse, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok && p.IsActive {
			out = append(out, catalogapp.ToProductResponse(p, s.mediaURL))
		}
	}
	return out, nil
}

// Add saves a product; adding it twice is not an error
func (s *WishlistService) Add(ctx context.Context, userID, productID uint) error {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return err
	}
	return s.entries.Add(ctx, wishlist.NewEntry(userID, productID))
}

// Remove drops a product from the wishlist
func (s *WishlistService) Remove(ctx context.Context, userID, productID uint) error {
	return s.entries.Remove(ctx, userID, productID)
}

// Contains reports whether the product is saved
func (s *WishlistService) Contains(ctx context.Context, userID, productID uint) (bool, error) {
	return s.entries.Contains(ctx, userID, productID)
}
