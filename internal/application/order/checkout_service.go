package order

import (
	"context"

	basketapp "github.com/gmja/storefront/internal/application/basket"
	"github.com/gmja/storefront/internal/domain/basket"
	"github.com/gmja/storefront/internal/domain/catalog"
	"github.com/gmja/storefront/internal/domain/order"
	"github.com/gmja/storefront/internal/domain/shared"
	"github.com/gmja/storefront/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Store commits an order and submits its basket atomically, taking stock
// for every line
type Store interface {
	PlaceOrder(ctx context.Context, b *basket.Basket, o *order.Order) error
}

// BasketFinder resolves the shopper's basket
type BasketFinder interface {
	Get(ctx context.Context, ref basketapp.Ref) (*basket.Basket, error)
}

// CheckoutService turns baskets into orders
type CheckoutService struct {
	baskets  BasketFinder
	products catalog.ProductRepository
	store    Store
	events   shared.EventPublisher
	logger   *zap.Logger
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(baskets BasketFinder, products catalog.ProductRepository, store Store, events shared.EventPublisher, logger *zap.Logger) *CheckoutService {
	if events == nil {
		events = shared.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutService{baskets: baskets, products: products, store: store, events: events, logger: logger}
}

// PlaceOrder submits the shopper's basket. Stock is taken inside the same
// transaction that writes the order, so a basket that cannot be fulfilled
// leaves no trace. Lines are charged at the price shown when they were added.
func (s *CheckoutService) PlaceOrder(ctx context.Context, ref basketapp.Ref, req CheckoutRequest) (*order.Order, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "PlaceOrder")
	defer span.End()

	b, err := s.baskets.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if b.IsNew() || b.IsEmpty() {
		return nil, basket.ErrEmptyBasket
	}
	telemetry.SetAttributes(span, telemetry.AttrBasketID, b.ID)

	lines, err := s.orderLines(ctx, b)
	if err != nil {
		return nil, err
	}
	o, err := order.New(ref.UserID, b.ID, lines, req.Address, req.Email)
	if err != nil {
		return nil, err
	}
	if err := s.store.PlaceOrder(ctx, b, o); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.AttrOrderNumber, o.Number)

	if err := s.events.Publish(ctx, order.NewPlacedEvent(o)); err != nil {
		s.logger.Warn("Failed to publish order event", zap.String("number", o.Number), zap.Error(err))
	}
	s.logger.Info("Order placed",
		zap.String("number", o.Number),
		zap.Uint("basket_id", b.ID),
		zap.String("total", o.Total.StringFixed(2)),
	)
	return o, nil
}

// orderLines freezes the basket lines; products removed from sale since
// they were added make the checkout fail
func (s *CheckoutService) orderLines(ctx context.Context, b *basket.Basket) ([]order.Line, error) {
	ids := make([]uint, 0, len(b.Lines))
	for _, l := range b.Lines {
		ids = append(ids, l.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	lines := make([]order.Line, 0, len(b.Lines))
	for _, l := range b.Lines {
		p, ok := byID[l.ProductID]
		if !ok || !p.CanFulfil(l.Quantity) {
			return nil, shared.ErrInsufficientStock
		}
		lines = append(lines, order.Line{
			ProductID: l.ProductID,
			Title:     l.Title,
			Quantity:  l.Quantity,
			UnitPrice: l.PriceExclTax,
		})
	}
	return lines, nil
}
