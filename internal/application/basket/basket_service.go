package basket

import (
	"context"
	"errors"
	"time"

	"github.com/gmja/storefront/internal/domain/basket"
	"github.com/gmja/storefront/internal/domain/catalog"
	"github.com/gmja/storefront/internal/domain/shared"
	"github.com/gmja/storefront/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// BasketService manages shopping baskets for users and anonymous sessions
type BasketService struct {
	baskets  basket.Repository
	products catalog.ProductRepository
	logger   *zap.Logger
}

// NewBasketService creates a new BasketService
func NewBasketService(baskets basket.Repository, products catalog.ProductRepository, logger *zap.Logger) *BasketService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BasketService{baskets: baskets, products: products, logger: logger}
}

// Get returns the shopper's open basket. A shopper without one gets an
// empty, unsaved basket.
func (s *BasketService) Get(ctx context.Context, ref Ref) (*basket.Basket, error) {
	b, err := s.find(ctx, ref)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return basket.New(ref.UserID), nil
	}
	return b, nil
}

// find returns nil when the shopper has no open basket
func (s *BasketService) find(ctx context.Context, ref Ref) (*basket.Basket, error) {
	if !ref.Anonymous() {
		b, err := s.baskets.FindOpenByOwner(ctx, *ref.UserID)
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return b, err
	}
	if ref.BasketID == 0 {
		return nil, nil
	}
	b, err := s.baskets.FindByID(ctx, ref.BasketID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// a session may only continue an anonymous basket that is still open
	if b.OwnerID != nil || !b.IsOpen() {
		return nil, nil
	}
	return b, nil
}

// AddProduct puts quantity units of a product into the basket, creating the
// basket when needed. The returned basket carries the ID to remember in the
// session.
func (s *BasketService) AddProduct(ctx context.Context, ref Ref, productID uint, quantity int) (*basket.Basket, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "basket", "AddProduct",
		telemetry.AttrProductID, productID, telemetry.AttrQuantity, quantity)
	defer span.End()

	if quantity == 0 {
		quantity = 1
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, shared.ErrNotFound
	}

	b, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if _, err := b.AddProduct(product, quantity); err != nil {
		return nil, err
	}
	if err := s.baskets.Save(ctx, b); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.AttrBasketID, b.ID)
	return b, nil
}

// UpdateLine sets a line's quantity; zero removes the line
func (s *BasketService) UpdateLine(ctx context.Context, ref Ref, lineID uint, quantity int) (*basket.Basket, error) {
	b, err := s.find(ctx, ref)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, basket.ErrLineNotFound
	}
	line := b.Line(lineID)
	if line == nil {
		return nil, basket.ErrLineNotFound
	}

	stock := 0
	if quantity > 0 {
		product, err := s.products.FindByID(ctx, line.ProductID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		if product != nil {
			stock = product.AvailableStock()
		}
	}
	if err := b.UpdateLine(lineID, quantity, stock); err != nil {
		return nil, err
	}
	if err := s.baskets.Save(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// RemoveLine deletes a line from the basket
func (s *BasketService) RemoveLine(ctx context.Context, ref Ref, lineID uint) (*basket.Basket, error) {
	return s.UpdateLine(ctx, ref, lineID, 0)
}

// MergeOnLogin moves the anonymous session basket into the user's open
// basket. It returns the user's basket, or nil when there was nothing to merge.
func (s *BasketService) MergeOnLogin(ctx context.Context, userID uint, anonymousBasketID uint) (*basket.Basket, error) {
	anon, err := s.find(ctx, Ref{BasketID: anonymousBasketID})
	if err != nil || anon == nil {
		return nil, err
	}

	owned, err := s.find(ctx, Ref{UserID: &userID})
	if err != nil {
		return nil, err
	}
	if owned == nil {
		// adopt the anonymous basket as it is
		anon.OwnerID = &userID
		if err := s.baskets.Save(ctx, anon); err != nil {
			return nil, err
		}
		return anon, nil
	}

	if err := owned.Merge(anon); err != nil {
		return nil, err
	}
	if err := s.baskets.Save(ctx, owned); err != nil {
		return nil, err
	}
	if err := s.baskets.Save(ctx, anon); err != nil {
		return nil, err
	}
	s.logger.Debug("Merged anonymous basket",
		zap.Uint("user_id", userID),
		zap.Uint("from_basket", anon.ID),
		zap.Uint("into_basket", owned.ID),
	)
	return owned, nil
}

// PurgeAbandoned deletes anonymous baskets left untouched for maxAge
func (s *BasketService) PurgeAbandoned(ctx context.Context, maxAge time.Duration) (int64, error) {
	n, err := s.baskets.DeleteAbandoned(ctx, time.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("Purged abandoned baskets", zap.Int64("count", n), zap.Duration("max_age", maxAge))
	}
	return n, nil
}
